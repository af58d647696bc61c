package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/config"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, body []byte) model.APIResponse {
	t.Helper()
	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp
}

func TestErrorHandlerWrapsPlainErrors(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/x", func(c *gin.Context) {
		_ = c.Error(errors.New("disk on fire"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeEnvelope(t, w.Body.Bytes())
	assert.False(t, resp.Success)
	assert.Equal(t, "internal server error", resp.Message)
	assert.Equal(t, []string{"disk on fire"}, resp.Errors)
}

func TestErrorHandlerLeavesWrittenResponses(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusAccepted, "done")
		_ = c.Error(errors.New("late"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "done", w.Body.String())
}

func TestRateLimitRejectsBurstOverflow(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(RateLimit(config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 2}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	// another IP has its own bucket
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRateLimitDisabled(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(config.RateLimitConfig{Enabled: false, RPS: 0.001, Burst: 1}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for range 5 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.POST("/x", BodyLimit(4), func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("abcd")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("abcdef")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
