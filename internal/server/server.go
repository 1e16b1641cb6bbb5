// Package server is the HTTP shell around the exploration pipeline: upload a
// file once, then query, chart and export it by handle.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/KaramelBytes/tabloom-cli/internal/chart"
	"github.com/KaramelBytes/tabloom-cli/internal/config"
	"github.com/KaramelBytes/tabloom-cli/internal/explore"
)

// Options size the server's limits and output defaults.
type Options struct {
	MaxUploadBytes int64
	MaxDatasets    int
	PreviewRows    int
	SampleRows     int
	HistogramBins  int
	ChartWidth     int
	ChartHeight    int
	ExportFilename string
	// Defaults applies to uploads that do not name their own load options.
	Defaults explore.Session
}

// OptionsFrom derives server options from the global configuration. An
// invalid delimiter or decimal separator is an error.
func OptionsFrom(c *config.Global) (Options, error) {
	delim, err := c.DelimiterRune()
	if err != nil {
		return Options{}, err
	}
	dec, err := c.DecimalRune()
	if err != nil {
		return Options{}, err
	}
	return Options{
		MaxUploadBytes: int64(c.MaxUploadMB) << 20,
		MaxDatasets:    c.CacheEntries,
		PreviewRows:    c.PreviewRows,
		SampleRows:     c.SampleRows,
		HistogramBins:  c.HistogramBins,
		ChartWidth:     c.ChartWidth,
		ChartHeight:    c.ChartHeight,
		ExportFilename: c.ExportFilename,
		Defaults: explore.Session{
			Delimiter:        delim,
			DecimalSeparator: dec,
			DropZeroColumns:  c.DropZeroColumns,
		},
	}, nil
}

// Server is the HTTP server for tabloom.
type Server struct {
	explorer *explore.Explorer
	store    *store
	opts     Options
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a server backed by explorer.
func NewServer(explorer *explore.Explorer, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 100 << 20
	}
	s := &Server{
		explorer: explorer,
		store:    newStore(opts.MaxDatasets),
		opts:     opts,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, map[string]any{"status": "ok", "datasets": s.store.len()})
	})
	s.router.Get("/datasets/{id}", s.handlePage)

	s.router.Route("/api/datasets", func(r chi.Router) {
		r.Post("/", s.handleUpload)
		r.Get("/{id}", s.handleProfile)
		r.Get("/{id}/columns/{column}/values", s.handleValues)
		r.Post("/{id}/query", s.handleQuery)
		r.Post("/{id}/chart", s.handleChart)
		r.Post("/{id}/export", s.handleExport)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	slog.Info("starting server", "addr", addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) renderOptions(format chart.Format) chart.RenderOptions {
	return chart.RenderOptions{Width: s.opts.ChartWidth, Height: s.opts.ChartHeight, Format: format}
}

func (s *Server) defaults() explore.Defaults {
	return explore.Defaults{PreviewRows: s.opts.PreviewRows, HistogramBins: s.opts.HistogramBins}
}
