// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"erpcore/internal/core/apperror"
	appctx "erpcore/internal/core/context"
	"erpcore/pkg/logger"
)

// Recovery turns a panic into a 500 INTERNAL_ERROR response. It sits outside
// ErrorHandler, which never sees the panic, so it writes the body itself.
// Any open transaction has already been rolled back by the tx manager.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			ctx := c.Request.Context()
			appErr := apperror.NewInternal(fmt.Errorf("panic: %v", rec))
			logger.Error(ctx, "panic recovered",
				"error", appErr.Err,
				"path", c.FullPath(),
				"stack", string(debug.Stack()),
			)
			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"details": map[string]any{"request_id": appctx.GetRequestID(ctx)},
			})
		}()
		c.Next()
	}
}
