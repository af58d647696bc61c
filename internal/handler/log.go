package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/apperrors"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/service"
)

const dateOnly = "2006-01-02"

type LogHandler struct {
	svc *service.LogService
}

func NewLogHandler(svc *service.LogService) *LogHandler {
	return &LogHandler{svc: svc}
}

func (h *LogHandler) List(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	logs, err := h.svc.List(c.Request.Context(), c.Query("type"), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, fmt.Sprintf("%d logs found", len(logs)), logs)
}

func (h *LogHandler) Recent(c *gin.Context) {
	limit, err := queryLimit(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	logs, err := h.svc.Recent(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, fmt.Sprintf("%d logs found", len(logs)), logs)
}

func (h *LogHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(apperrors.NewInvalidRequest("invalid log id", "log id must be a positive integer"))
		return
	}
	entry, err := h.svc.Get(c.Request.Context(), uint(id))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, "log found", entry)
}

func (h *LogHandler) Statistics(c *gin.Context) {
	st, err := h.svc.Statistics(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, "log statistics", st)
}

// ByDate lists logs with start <= timestamp <= end. Both bounds accept
// RFC3339 or YYYY-MM-DD; a date-only end covers the whole day.
func (h *LogHandler) ByDate(c *gin.Context) {
	rawStart, rawEnd := c.Query("start"), c.Query("end")
	if rawStart == "" || rawEnd == "" {
		_ = c.Error(apperrors.NewInvalidRequest("invalid date range", "start and end are required"))
		return
	}
	start, _, err := parseTime(rawStart)
	if err != nil {
		_ = c.Error(apperrors.NewInvalidRequest("invalid date range", "start: "+err.Error()))
		return
	}
	end, dayOnly, err := parseTime(rawEnd)
	if err != nil {
		_ = c.Error(apperrors.NewInvalidRequest("invalid date range", "end: "+err.Error()))
		return
	}
	if dayOnly {
		end = end.Add(24*time.Hour - time.Nanosecond)
	}

	logs, err := h.svc.Between(c.Request.Context(), start, end)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, fmt.Sprintf("%d logs found", len(logs)), logs)
}

func queryLimit(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return service.DefaultLogLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewInvalidRequest("invalid limit", "limit must be an integer")
	}
	if n <= 0 {
		n = service.DefaultLogLimit
	}
	return n, nil
}

func parseTime(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), false, nil
	}
	if t, err := time.Parse(dateOnly, raw); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid time format %q, use RFC3339 or YYYY-MM-DD", raw)
}
