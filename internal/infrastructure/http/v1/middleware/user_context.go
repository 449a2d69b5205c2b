package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appctx "erpcore/internal/core/context"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderBranchID = "X-Branch-ID"
)

// UserContext puts the acting user and branch into the request context.
// Authentication happens in front of this service; the headers are trusted.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if uid != "" {
			ctx := appctx.WithUser(c.Request.Context(), &appctx.UserContext{
				UserID:   uid,
				BranchID: strings.TrimSpace(c.GetHeader(HeaderBranchID)),
			})
			c.Request = c.Request.WithContext(ctx)
			c.Set("user_id", uid)
		}
		c.Next()
	}
}
