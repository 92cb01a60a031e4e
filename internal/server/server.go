// Package server wires the map page, the Huma API and the metrics endpoint
// into one HTTP handler.
package server

import (
	"context"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-quake/internal/api"
	"github.com/joeblew999/plat-quake/internal/humastar"
	"github.com/joeblew999/plat-quake/internal/quake"
	"github.com/joeblew999/plat-quake/internal/service"
	"github.com/joeblew999/plat-quake/internal/templates"
	"github.com/joeblew999/plat-quake/web"
)

// Config holds the server configuration.
type Config struct {
	Host string
	Port int
	// Gatherer backs /metrics; nil means the default registry.
	Gatherer prometheus.Gatherer
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, fmt.Sprint(c.Port))
}

// Server is the quake map HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	canvas   *service.Canvas
	renderer *templates.Renderer
	logger   logrus.FieldLogger
	http     *http.Server
	cancel   context.CancelFunc
}

// New creates a new quake map server. snapshot may be nil.
func New(cfg Config, canvas *service.Canvas, snapshot *service.Snapshot, logger logrus.FieldLogger) (*Server, error) {
	renderer, err := templates.New(web.FS, web.Templates...)
	if err != nil {
		return nil, errors.Wrap(err, "load page templates")
	}

	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-quake API", api.Version)
	humaConfig.Info.Description = "Earthquake map: USGS earthquake feeds and tectonic plate boundaries on a Leaflet canvas."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s", cfg.Addr()), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers,
		api.LinkTransformer(),
		humastar.PaginationTransformer(),
	)

	humaAPI := humago.New(mux, humaConfig)

	s := &Server{
		config:   cfg,
		mux:      mux,
		humaAPI:  humaAPI,
		canvas:   canvas,
		renderer: renderer,
		logger:   logger.WithField("component", "server"),
	}
	if err := s.routes(snapshot); err != nil {
		return nil, err
	}

	// Request contexts derive from base so Shutdown can end event streams.
	base, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

func (s *Server) routes(snapshot *service.Snapshot) error {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, &api.Services{Canvas: s.canvas, Snapshot: snapshot})
	api.NewEventHandler(s.canvas, s.renderer, s.logger).RegisterRoutes(s.humaAPI)

	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		return errors.Wrap(err, "static assets")
	}
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	gatherer := s.config.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	return nil
}

// IndexPage is the data rendered into the map page.
type IndexPage struct {
	Title    string
	Overlays []service.OverlaySummary
	Notices  []service.Notice
	Legend   []quake.LegendEntry
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	html, err := s.renderer.Render("index", IndexPage{
		Title:    "Earthquakes & Tectonic Plates",
		Overlays: s.canvas.Overlays(),
		Notices:  s.canvas.Notices(),
		Legend:   s.canvas.Legend(),
	})
	if err != nil {
		s.logger.WithError(err).Error("render index")
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.http.Addr).Info("listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve")
	}
	return nil
}

// Shutdown stops the listener, ends open event streams and waits for
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	return s.http.Shutdown(ctx)
}
