package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type fixedIdentity struct{ name string }

func (f fixedIdentity) Username() (string, bool) { return f.name, f.name != "" }

func init() {
	gin.SetMode(gin.TestMode)
}

func TestIdentityRequired(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"ana", http.StatusOK},
	} {
		r := gin.New()
		r.Use(ResolveIdentity(fixedIdentity{tc.name}))
		r.POST("/w", IdentityRequired(), func(ctx *gin.Context) {
			ctx.String(http.StatusOK, Username(ctx))
		})

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/w", nil))
		assert.Equal(t, tc.status, w.Code)
		if tc.status == http.StatusOK {
			assert.Equal(t, tc.name, w.Body.String())
		}
	}
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(4))
	r.GET("/", func(ctx *gin.Context) { ctx.Status(http.StatusNoContent) })

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{204, 204, 429, 429}, codes)
}

func TestLimiterRegistryForgetsIdleClients(t *testing.T) {
	reg := &limiterRegistry{limiters: map[string]*rateLimiter{}, limit: 1, burst: 1}
	now := time.Now()

	assert.True(t, reg.allow("a", now))
	assert.False(t, reg.allow("a", now))
	assert.True(t, reg.allow("b", now.Add(limiterIdle+time.Second)))
	assert.NotContains(t, reg.limiters, "a")
}

func TestTrustedOrigin(t *testing.T) {
	r := gin.New()
	r.POST("/w", TrustedOrigin([]string{"*", " http://UI.test/ "}), func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})

	for _, tc := range []struct {
		origin, fetchSite string
		status            int
	}{
		{"", "", http.StatusNoContent},
		{"", "same-origin", http.StatusNoContent},
		{"", "cross-site", http.StatusForbidden},
		{"http://ui.test", "", http.StatusNoContent},
		{"http://example.com", "", http.StatusNoContent},
		{"https://evil.example", "", http.StatusForbidden},
		{"null", "", http.StatusForbidden},
	} {
		req := httptest.NewRequest(http.MethodPost, "/w", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		if tc.fetchSite != "" {
			req.Header.Set("Sec-Fetch-Site", tc.fetchSite)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.status, w.Code, "origin=%q site=%q", tc.origin, tc.fetchSite)
	}
}
