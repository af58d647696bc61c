package handler

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/config"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/middleware"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/apperrors"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/service"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Config  *config.Config
	Clients *service.ClientService
	Files   *service.FileService
	Logs    *service.LogService
	Storage storage.Backend
	DB      Pinger
	Logger  *slog.Logger
}

// NewRouter assembles the HTTP surface. RequestLog sits right after
// recovery so every request, including preflight and unmatched ones, gets
// exactly one log entry.
func NewRouter(d Deps) *gin.Engine {
	useFormFieldNames()
	cfg := d.Config

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		d.Logger.Warn("invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware())
	}
	r.Use(middleware.RequestLog(d.Logs, middleware.RequestLogOptions{
		MaxBodyChars: cfg.RequestLog.MaxBodyChars,
		Logger:       d.Logger,
	}))
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimit(cfg.RateLimit))

	health := NewHealthHandler(cfg.App.Version, d.DB)
	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	clients := NewClientHandler(d.Clients)
	r.POST("/clients", middleware.BodyLimit(cfg.Storage.MaxUploadBytes), clients.Register)
	r.GET("/clients", clients.List)
	r.GET("/clients/:id", clients.Get)
	r.GET("/clients/:id/photo/:n", clients.Photo)

	files := NewFileHandler(d.Files, d.Storage)
	r.POST("/files", middleware.BodyLimit(cfg.Storage.MaxUploadBytes), files.Upload)
	r.GET("/files", files.List)
	r.GET("/files/client/:id", files.ListByClient)
	r.GET("/files/:fileId", files.Get)

	logs := NewLogHandler(d.Logs)
	r.GET("/logs", logs.List)
	r.GET("/logs/statistics", logs.Statistics)
	r.GET("/logs/by-date", logs.ByDate)
	r.GET("/logs/recent", logs.Recent)
	r.GET("/logs/:id", logs.Get)

	prefix := "/" + strings.Trim(cfg.Storage.URLPrefix, "/")
	r.GET(prefix+"/*filepath", files.Serve)

	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperrors.NewNotFound("resource not found"))
	})
	return r
}
