package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/postfeed/utils"
)

// TrustedOrigin refuses writes sent by browser pages outside allowed. The identity belongs to
// the process, not to a request, so CORS alone cannot keep other sites from acting as the
// user. A "*" entry never admits writes. Requests without browser origin headers pass, as do
// same-origin ones.
func TrustedOrigin(allowed []string) gin.HandlerFunc {
	trusted := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o = normalizeOrigin(o); o != "" && o != "*" {
			trusted[o] = struct{}{}
		}
	}

	return func(ctx *gin.Context) {
		origin := normalizeOrigin(ctx.GetHeader("Origin"))
		if origin == "" {
			if strings.EqualFold(ctx.GetHeader("Sec-Fetch-Site"), "cross-site") {
				utils.Abort(ctx, http.StatusForbidden, 40302, "cross-site writes are not allowed")
				return
			}
			ctx.Next()
			return
		}
		if _, ok := trusted[origin]; ok || sameHost(origin, ctx.Request.Host) {
			ctx.Next()
			return
		}
		utils.Sugar.Warnw("write from untrusted origin refused", "origin", origin, "path", ctx.FullPath())
		utils.Abort(ctx, http.StatusForbidden, 40302, "origin not allowed")
	}
}

func normalizeOrigin(o string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/")
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, host)
}
