package middleware

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"design-gallery-backend/internal/logging"
	"design-gallery-backend/internal/models"
)

// Recovery turns a handler panic into a 500 internal_error response and logs
// it through zap instead of gin's default writer.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logging.FromContext(c, logger).Error("panic recovered",
			zap.String("code", string(models.CodeInternal)),
			zap.Any("panic", recovered),
			zap.Stack("stack"))
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Internal server error",
			Code:  models.CodeInternal,
		})
	})
}
