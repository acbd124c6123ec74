package utils

import (
	"net/http"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Ginzap logs every request through the given zap logger.
func Ginzap(logger *zap.Logger, timeFormat string, utc bool) gin.HandlerFunc {
	return ginzap.Ginzap(logger, timeFormat, utc)
}

// RecoveryWithZap turns panics into 500 envelope responses and logs them.
func RecoveryWithZap(logger *zap.Logger, stack bool) gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(logger, stack, func(ctx *gin.Context, err any) {
		Abort(ctx, http.StatusInternalServerError, 50000, "internal error")
	})
}
