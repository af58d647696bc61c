package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/model"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/logger"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/metrics"
)

const (
	defaultMaxBodyChars = 4000
	persistTimeout      = 5 * time.Second
)

// LogRecorder persists one API log entry.
type LogRecorder interface {
	Record(ctx context.Context, entry *model.APILog) error
}

type RequestLogOptions struct {
	MaxBodyChars int
	Logger       *slog.Logger
}

// captureWriter buffers the whole response. Nothing reaches the client until
// the request scope flushes it.
type captureWriter struct {
	gin.ResponseWriter
	status  int
	written bool
	body    bytes.Buffer
}

func (w *captureWriter) WriteHeader(code int) {
	if code > 0 && !w.written {
		w.status = code
	}
}

func (w *captureWriter) WriteHeaderNow() { w.written = true }

func (w *captureWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.body.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.written = true
	return w.body.WriteString(s)
}

func (w *captureWriter) Status() int   { return w.status }
func (w *captureWriter) Written() bool { return w.written }
func (w *captureWriter) Flush()        {}

func (w *captureWriter) Size() int {
	if !w.written {
		return -1
	}
	return w.body.Len()
}

// requestScope owns one request's buffered response and log entry. finish
// forwards the response and persists the entry exactly once.
type requestScope struct {
	c        *gin.Context
	real     gin.ResponseWriter
	cw       *captureWriter
	recorder LogRecorder
	log      *slog.Logger
	limit    int
	start    time.Time
	reqBody  []byte
	fault    *fault
	done     bool
}

type fault struct {
	msg   string
	stack []byte
}

// RequestLog records every request and its response as a model.APILog.
func RequestLog(recorder LogRecorder, opts RequestLogOptions) gin.HandlerFunc {
	limit := opts.MaxBodyChars
	if limit <= 0 {
		limit = defaultMaxBodyChars
	}
	return func(c *gin.Context) {
		log := opts.Logger
		if log == nil {
			log = logger.Get()
		}
		s := &requestScope{
			c:        c,
			real:     c.Writer,
			recorder: recorder,
			log:      log,
			limit:    limit,
			start:    time.Now(),
			reqBody:  captureRequestBody(c.Request, limit),
		}
		s.cw = &captureWriter{ResponseWriter: s.real, status: s.real.Status()}
		c.Writer = s.cw
		defer s.finish()

		s.fault = serve(c)
	}
}

// serve runs the rest of the chain, turning a panic into a fault.
func serve(c *gin.Context) (f *fault) {
	defer func() {
		if r := recover(); r != nil {
			f = &fault{msg: fmt.Sprint(r), stack: debug.Stack()}
		}
	}()
	c.Next()
	return nil
}

func (s *requestScope) finish() {
	if s.done {
		return
	}
	s.done = true
	s.c.Writer = s.real

	if s.fault != nil {
		s.writeFault()
	}
	s.flush()

	entry := s.entry()
	s.log.Info("request handled",
		"method", entry.Method,
		"url", entry.URL,
		"status", entry.StatusCode,
		"duration_ms", entry.DurationMs,
	)
	s.persist(entry)
}

func (s *requestScope) writeFault() {
	s.log.Error("unhandled fault",
		"method", s.c.Request.Method,
		"path", s.c.Request.URL.Path,
		"error", s.fault.msg,
		"stack", string(s.fault.stack),
	)
	payload, _ := json.Marshal(model.Fail("internal server error", s.fault.msg))

	h := s.real.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "application/json; charset=utf-8")
	s.cw.body.Reset()
	s.cw.body.Write(payload)
	s.cw.status = http.StatusInternalServerError
	s.cw.written = true
}

// flush sends the buffered response with an exact Content-Length and pushes
// it to the connection, so the client has the whole response before the log
// entry is persisted.
func (s *requestScope) flush() {
	if bodyAllowed(s.cw.status) {
		s.real.Header().Set("Content-Length", strconv.Itoa(s.cw.body.Len()))
	}
	s.real.WriteHeader(s.cw.status)
	s.real.WriteHeaderNow()
	if s.cw.body.Len() > 0 {
		if _, err := s.real.Write(s.cw.body.Bytes()); err != nil {
			s.log.Debug("client went away before the response was written", "error", err)
			return
		}
	}
	s.real.Flush()
}

func bodyAllowed(status int) bool {
	return status >= 200 && status != http.StatusNoContent && status != http.StatusNotModified
}

func (s *requestScope) entry() *model.APILog {
	elapsed := time.Since(s.start)
	durationMs := float64(elapsed.Microseconds()) / 1000
	status := s.cw.status

	entry := &model.APILog{
		Timestamp:   s.start.UTC(),
		Level:       model.LevelForStatus(status),
		RequestBody: truncateBody(s.reqBody, s.limit),
		URL:         requestURL(s.c.Request),
		Method:      s.c.Request.Method,
		IP:          s.c.ClientIP(),
		StatusCode:  status,
		DurationMs:  durationMs,
	}
	if s.fault != nil {
		entry.Level = model.LevelError
		entry.Detail = "error: " + s.fault.msg
		entry.ResponseBody = truncateBody([]byte(s.fault.msg+"\n"+string(s.fault.stack)), s.limit)
	} else {
		entry.Detail = fmt.Sprintf("request processed successfully in %.2fms", durationMs)
		entry.ResponseBody = truncateBody(s.cw.body.Bytes(), s.limit)
	}
	return entry
}

// persist never lets a recorder failure, or panic, escape to the request.
func (s *requestScope) persist(entry *model.APILog) {
	if s.recorder == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.persistFailed(fmt.Errorf("panic: %v", r))
		}
	}()
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.c.Request.Context()), persistTimeout)
	defer cancel()
	if err := s.recorder.Record(ctx, entry); err != nil {
		s.persistFailed(err)
	}
}

func (s *requestScope) persistFailed(err error) {
	metrics.LogPersistFailures.Inc()
	s.log.Error("failed to persist api log",
		"method", s.c.Request.Method,
		"path", s.c.Request.URL.Path,
		"error", err,
	)
}

// captureRequestBody reads up to limit+1 bytes and puts them back in front of
// the unread remainder so handlers see the body unchanged.
func captureRequestBody(r *http.Request, limit int) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	// A read error is left for the handler to hit on its own read.
	head, _ := io.ReadAll(io.LimitReader(r.Body, int64(limit)+1))
	r.Body = readCloser{
		Reader: io.MultiReader(bytes.NewReader(head), r.Body),
		Closer: r.Body,
	}
	return head
}

type readCloser struct {
	io.Reader
	io.Closer
}

// truncateBody keeps at most limit bytes, marks the cut with "...", and makes
// the text storable as a database string.
func truncateBody(b []byte, limit int) string {
	if len(b) == 0 {
		return ""
	}
	cut := len(b) > limit
	if cut {
		b = b[:limit]
	}
	s := strings.ToValidUTF8(string(b), "")
	s = strings.ReplaceAll(s, "\x00", "")
	if cut {
		s += "..."
	}
	return s
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
