package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/model"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/apperrors"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memRecorder struct {
	mu      sync.Mutex
	entries []*model.APILog
	err     error
	panics  bool
}

func (r *memRecorder) Record(_ context.Context, e *model.APILog) error {
	if r.panics {
		panic("recorder exploded")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return r.err
}

func newEngine(rec LogRecorder, limit int) *gin.Engine {
	r := gin.New()
	r.Use(RequestLog(rec, RequestLogOptions{MaxBodyChars: limit, Logger: logger.Discard()}))
	r.Use(ErrorHandler())
	r.POST("/echo", func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		c.JSON(http.StatusCreated, model.OK("echo", string(b)))
	})
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(apperrors.NewNotFound("client not found"))
	})
	r.GET("/boom", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("kaboom")
	})
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	r.ServeHTTP(w, req)
	return w
}

func TestRequestLogSuccess(t *testing.T) {
	rec := &memRecorder{}
	w := do(newEngine(rec, 4000), http.MethodPost, "/echo?x=1", `{"hello":"world"}`)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, `{"hello":"world"}`, resp.Data, "handler still sees the full body")

	require.Len(t, rec.entries, 1)
	e := rec.entries[0]
	assert.Equal(t, model.LevelInfo, e.Level)
	assert.Equal(t, http.StatusCreated, e.StatusCode)
	assert.Equal(t, http.MethodPost, e.Method)
	assert.Equal(t, "http://example.com/echo?x=1", e.URL)
	assert.Equal(t, `{"hello":"world"}`, e.RequestBody)
	assert.Equal(t, w.Body.String(), e.ResponseBody)
	assert.Contains(t, e.Detail, "request processed successfully in")
	assert.GreaterOrEqual(t, e.DurationMs, 0.0)
}

func TestRequestLogClientErrorIsError(t *testing.T) {
	rec := &memRecorder{}
	w := do(newEngine(rec, 4000), http.MethodGet, "/missing", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, model.LevelError, rec.entries[0].Level)
	assert.Equal(t, http.StatusNotFound, rec.entries[0].StatusCode)
}

func TestRequestLogUnmatchedRouteIsLogged(t *testing.T) {
	rec := &memRecorder{}
	w := do(newEngine(rec, 4000), http.MethodGet, "/nowhere", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	require.Len(t, rec.entries, 1)
	assert.Equal(t, http.StatusNotFound, rec.entries[0].StatusCode)
}

func TestRequestLogFaultBecomes500(t *testing.T) {
	rec := &memRecorder{}
	w := do(newEngine(rec, 4000), http.MethodGet, "/boom", "")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "buffered partial output is discarded")
	assert.False(t, resp.Success)
	assert.Equal(t, "internal server error", resp.Message)
	assert.Equal(t, []string{"kaboom"}, resp.Errors)

	require.Len(t, rec.entries, 1)
	e := rec.entries[0]
	assert.Equal(t, model.LevelError, e.Level)
	assert.Equal(t, http.StatusInternalServerError, e.StatusCode)
	assert.Equal(t, "error: kaboom", e.Detail)
	assert.True(t, strings.HasPrefix(e.ResponseBody, "kaboom\n"))
}

func TestRequestLogPersistFailureDoesNotChangeResponse(t *testing.T) {
	healthy := do(newEngine(&memRecorder{}, 4000), http.MethodPost, "/echo", "same")

	for _, rec := range []*memRecorder{{err: errors.New("database is closed")}, {panics: true}} {
		w := do(newEngine(rec, 4000), http.MethodPost, "/echo", "same")
		assert.Equal(t, healthy.Code, w.Code)
		assert.Equal(t, healthy.Body.String(), w.Body.String())
	}
}

type recorderFunc func(context.Context, *model.APILog) error

func (f recorderFunc) Record(ctx context.Context, e *model.APILog) error { return f(ctx, e) }

func TestRequestLogResponseIsCompleteBeforePersist(t *testing.T) {
	w := httptest.NewRecorder()
	var flushedAtRecord bool
	var bodyAtRecord string
	rec := recorderFunc(func(context.Context, *model.APILog) error {
		flushedAtRecord = w.Flushed
		bodyAtRecord = w.Body.String()
		return nil
	})

	newEngine(rec, 4000).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("hi")))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, flushedAtRecord)
	assert.Equal(t, w.Body.String(), bodyAtRecord)
	assert.Equal(t, strconv.Itoa(w.Body.Len()), w.Header().Get("Content-Length"))

	// the fault branch replaces the body, and the length follows it
	w = httptest.NewRecorder()
	newEngine(rec, 4000).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, strconv.Itoa(w.Body.Len()), w.Header().Get("Content-Length"))
}

func TestRequestLogTruncatesBodies(t *testing.T) {
	rec := &memRecorder{}
	body := strings.Repeat("a", 50)
	w := do(newEngine(rec, 10), http.MethodPost, "/echo", body)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp model.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, body, resp.Data)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, strings.Repeat("a", 10)+"...", rec.entries[0].RequestBody)
	assert.Len(t, rec.entries[0].ResponseBody, 13)
}

func TestTruncateBodyMakesTextStorable(t *testing.T) {
	assert.Equal(t, "", truncateBody(nil, 10))
	assert.Equal(t, "ab", truncateBody([]byte("a\x00b"), 10))
	assert.Equal(t, "ok", truncateBody([]byte{'o', 0xff, 'k'}, 10))
	assert.Equal(t, "abc...", truncateBody([]byte("abcdef"), 3))
}

func TestRequestLogOnePerRequest(t *testing.T) {
	rec := &memRecorder{}
	r := newEngine(rec, 4000)
	for i := 0; i < 5; i++ {
		do(r, http.MethodGet, "/missing", "")
	}
	assert.Len(t, rec.entries, 5)
}
