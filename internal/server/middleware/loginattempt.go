package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scrumtogether/scrumtogether-api/internal/logger"
	"github.com/scrumtogether/scrumtogether-api/internal/loginattempt"
)

const (
	signInPath = "/api/v1/sign-in"

	msgTooManyAttempts = "Too many login attempts. Please try again later."
	msgStoreFailure    = "Unable to process request. Please try again later."
)

// LoginAttempt returns a middleware that throttles sign-in attempts per
// client address. At or above the threshold the request is rejected without
// counting it, so the counter saturates instead of growing. Store failures
// reject the request too: when attempts cannot be counted, sign-in stays
// closed.
func LoginAttempt(store loginattempt.Store) gin.HandlerFunc {
	log := logger.WithComponent("login-attempt")

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || c.Request.URL.Path != signInPath {
			c.Next()
			return
		}

		key := c.ClientIP()
		ctx := c.Request.Context()

		count, err := store.Get(ctx, key)
		if err != nil {
			log.Error("Attempt store read failed", logger.ErrorFields("get", err))
			abortPlainText(c, msgStoreFailure)
			return
		}
		if count >= loginattempt.Threshold {
			log.Warn("Login attempts blocked", logger.Fields(
				logger.FieldClientIP, key,
				"attempts", count,
			))
			abortPlainText(c, msgTooManyAttempts)
			return
		}

		if err := store.Increment(ctx, key); err != nil {
			log.Error("Attempt store write failed", logger.ErrorFields("increment", err))
			abortPlainText(c, msgStoreFailure)
			return
		}
		c.Next()
	}
}

func abortPlainText(c *gin.Context, message string) {
	c.String(http.StatusTooManyRequests, message)
	c.Abort()
}
