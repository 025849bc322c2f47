package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/scrumtogether/scrumtogether-api/internal/apperrors"
	"github.com/scrumtogether/scrumtogether-api/internal/logger"
)

// Recovery converts handler panics into a 500 error response. The panic value
// and stack are logged; the client sees only the generic error envelope.
func Recovery() gin.HandlerFunc {
	log := logger.WithComponent("recovery")

	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Panic recovered", logger.Fields(
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					logger.FieldClientIP, c.ClientIP(),
				))
				abortWithError(c, apperrors.Internal(fmt.Errorf("panic: %v", r)))
			}
		}()
		c.Next()
	}
}
