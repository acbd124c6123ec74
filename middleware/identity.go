package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/postfeed/utils"
)

// ContextUsernameKey stores the acting username inside Gin context.
const ContextUsernameKey = "username"

// Identity reports the acting username of the profile.
type Identity interface {
	Username() (string, bool)
}

// ResolveIdentity stores the acting username, when there is one, for later handlers.
func ResolveIdentity(id Identity) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if name, ok := id.Username(); ok && name != "" {
			ctx.Set(ContextUsernameKey, name)
		}
		ctx.Next()
	}
}

// IdentityRequired rejects writes until a display name is chosen or the user signed in.
// It must run after ResolveIdentity.
func IdentityRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if Username(ctx) == "" {
			utils.Abort(ctx, http.StatusUnauthorized, 40101, "choose a display name first")
			return
		}
		ctx.Next()
	}
}

// Username returns the acting username or "".
func Username(ctx *gin.Context) string {
	return ctx.GetString(ContextUsernameKey)
}
