package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryWithZap(Logger, false))
	r.GET("/ok", func(ctx *gin.Context) { Success(ctx, gin.H{"x": 1}) })
	r.GET("/bad", func(ctx *gin.Context) {
		Abort(ctx, http.StatusBadRequest, 40001, "invalid request payload")
	}, func(ctx *gin.Context) {
		ctx.String(http.StatusOK, "unreachable")
	})
	r.GET("/panic", func(ctx *gin.Context) { panic("boom") })

	var body JSONResponse

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, "success", body.Message)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"code":40001,"message":"invalid request payload"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
