// Package handler contains the Gin HTTP handlers and route registration.
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/scrumtogether/scrumtogether-api/internal/apperrors"
	"github.com/scrumtogether/scrumtogether-api/internal/auth"
	"github.com/scrumtogether/scrumtogether-api/internal/logger"
	"github.com/scrumtogether/scrumtogether-api/internal/server"
)

// AuthHandler serves registration and sign-in.
type AuthHandler struct {
	service *auth.Service
	tokens  *auth.TokenService
	log     *logger.Logger
}

// NewAuthHandler creates the authentication handler.
func NewAuthHandler(service *auth.Service, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{
		service: service,
		tokens:  tokens,
		log:     logger.WithComponent("auth-handler"),
	}
}

// Register handles POST /api/v1/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("Invalid request body").WithCause(err))
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, user)
}

// SignIn handles POST /api/v1/sign-in.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req auth.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, apperrors.Validation("Invalid request body").WithCause(err))
		return
	}

	user, err := h.service.Authenticate(c.Request.Context(), req)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		h.log.Error("Token generation failed", logger.ErrorFields("sign-in", err))
		server.RespondWithError(c, apperrors.Internal(err))
		return
	}

	server.RespondOK(c, auth.SignInResponse{
		Token:     token,
		ExpiresIn: h.tokens.ExpirationSeconds(),
	})
}
