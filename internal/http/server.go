package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"costeapp/internal/config"
	"costeapp/internal/core"
	"costeapp/internal/log"
	"costeapp/internal/middleware/ratelimit"
	"costeapp/internal/middleware/security"
	"costeapp/internal/middleware/trace"
	"costeapp/internal/services"
	appweb "costeapp/web"
)

// FixedCostAPI is what the handlers need from the service layer.
// *services.FixedCostService implements it.
type FixedCostAPI interface {
	Load(ctx context.Context) (core.Overview, error)
	BulkUpdate(ctx context.Context, rows []core.FixedCostInput) (services.SaveResult, error)
	Create(ctx context.Context, name, amount string) (core.FixedCost, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// Options configures the HTTP surface.
type Options struct {
	Addr               string
	AutosaveDelay      time.Duration
	CurrencySymbol     string
	RateLimitPerMinute int
	CORSAllowedOrigins []string
}

// OptionsFromConfig maps application config onto server options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Addr:               ":" + cfg.Port,
		AutosaveDelay:      cfg.AutosaveDelay,
		CurrencySymbol:     cfg.CurrencySymbol,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	}
}

type Server struct {
	http.Server
	api       FixedCostAPI
	opts      Options
	logger    *log.Logger
	templates *template.Template
	metrics   *Metrics
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	startedAt time.Time
}

// NewServer parses the embedded templates and builds the router. The
// returned server must be stopped with Shutdown.
func NewServer(opts Options, api FixedCostAPI, logger *log.Logger) (*Server, error) {
	if opts.AutosaveDelay <= 0 {
		opts.AutosaveDelay = 1500 * time.Millisecond
	}
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "$"
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	s := &Server{
		api:       api,
		opts:      opts,
		logger:    logger.WithComponent(log.ComponentHTTP),
		templates: t,
		metrics:   NewMetrics(),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  security.NewDetector(),
		startedAt: time.Now(),
	}
	s.metrics.RegisterFunc("costeapp_rate_limited_requests_total", "Requests rejected by the rate limiter.",
		func() float64 { return float64(s.limiter.Hits()) })
	s.metrics.RegisterGaugeFunc("costeapp_rate_limit_clients", "Clients tracked by the rate limiter.",
		func() float64 { return float64(s.limiter.ActiveClients()) })
	s.metrics.RegisterFunc("costeapp_suspicious_requests_total", "Requests flagged as scanner traffic.",
		func() float64 { return float64(s.detector.SuspiciousRequests()) })

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(static),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(static fs.FS) http.Handler {
	r := chi.NewRouter()

	r.Use(trace.NewMiddleware(s.logger, s.detector.ExtractClientIP).Middleware)
	r.Use(s.metrics.Middleware)
	r.Use(s.recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.detector.Middleware)
	if len(s.opts.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
			AllowedHeaders: []string{"Accept", "Content-Type", trace.RequestIDHeader},
			ExposedHeaders: []string{trace.RequestIDHeader},
			MaxAge:         300,
		}))
	}

	r.NotFound(s.handleNotFound)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.With(security.StaticAssetMiddleware(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get(FixedCostsRoute, s.handleListFixedCosts)
	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited))
		r.Post(FixedCostsRoute, s.handleBulkUpdate)
		r.Post(FixedCostsCreateRoute, s.handleCreate)
		r.Delete(FixedCostsDeleteRoute, s.handleDelete)
		r.Post(FixedCostsDeleteRoute, s.handleDelete)
	})

	return r
}

// Shutdown stops accepting requests, waits for in-flight ones and releases
// the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}
