package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/scrumtogether/scrumtogether-api/internal/apperrors"
	"github.com/scrumtogether/scrumtogether-api/internal/auth"
	"github.com/scrumtogether/scrumtogether-api/internal/logger"
	"github.com/scrumtogether/scrumtogether-api/internal/model"
	"github.com/scrumtogether/scrumtogether-api/internal/repository"
)

const bearerPrefix = "Bearer "

// principalKey is the Gin context key holding the authenticated user.
const principalKey = "auth_principal"

type principalCtxKey struct{}

// UserLoader loads the active account behind a token subject.
type UserLoader interface {
	FindActiveByUsername(ctx context.Context, username string) (*model.User, error)
}

// Authentication returns the JWT middleware. Requests without a Bearer token
// continue unauthenticated; structurally invalid or expired tokens are
// rejected outright; tokens that parse but do not match a live account leave
// the request unauthenticated for route gating to handle.
func Authentication(tokens *auth.TokenService, users UserLoader) gin.HandlerFunc {
	log := logger.WithComponent("auth-middleware")

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, bearerPrefix) {
			c.Next()
			return
		}

		if _, ok := Principal(c); ok {
			// Identity already established earlier in the chain.
			c.Next()
			return
		}

		token := strings.TrimPrefix(header, bearerPrefix)
		username, err := tokens.ExtractUsername(token)
		if err != nil {
			log.Warn("Token rejected", logger.Fields(
				"error", err.Error(),
				logger.FieldClientIP, c.ClientIP(),
			))
			abortWithError(c, apperrors.InvalidToken())
			return
		}

		user, err := users.FindActiveByUsername(c.Request.Context(), username)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				log.Warn("Token subject has no active account", logger.Fields(logger.FieldUsername, username))
				abortWithError(c, apperrors.Unauthorized("Authentication failed"))
				return
			}
			abortWithError(c, apperrors.Internal(err))
			return
		}

		if tokens.IsValid(token, user) {
			setPrincipal(c, user)
		}
		c.Next()
	}
}

// RequireAuth rejects requests that reach it without an authenticated
// principal.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Principal(c); !ok {
			abortWithError(c, apperrors.Unauthorized("Authentication required"))
			return
		}
		c.Next()
	}
}

// Principal returns the authenticated user for the request, if any.
func Principal(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok
}

// PrincipalFromContext returns the authenticated user stored in a request
// context, if any.
func PrincipalFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(principalCtxKey{}).(*model.User)
	return user, ok
}

func setPrincipal(c *gin.Context, user *model.User) {
	c.Set(principalKey, user)
	ctx := context.WithValue(c.Request.Context(), principalCtxKey{}, user)
	c.Request = c.Request.WithContext(ctx)
}

func abortWithError(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}
