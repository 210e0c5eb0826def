package receipt

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/zombor/receipt-processor/internal/metrics"
)

// ServerOptions tunes request limits
type ServerOptions struct {
	// ScanRate is the sustained number of scan requests allowed per second
	ScanRate rate.Limit
	// ScanBurst is the number of scan requests allowed at once
	ScanBurst int
	// MaxUploadBytes caps the size of a scan upload
	MaxUploadBytes int64
}

// DefaultServerOptions returns the limits used when none are configured
func DefaultServerOptions() ServerOptions {
	return ServerOptions{
		ScanRate:       1,
		ScanBurst:      3,
		MaxUploadBytes: 20 << 20,
	}
}

// maxReceiptBytes caps JSON receipt bodies
const maxReceiptBytes = 1 << 20

// Server handles HTTP requests for receipts
type Server struct {
	service     *Service
	mux         *http.ServeMux
	handler     http.Handler
	scanLimiter *rate.Limiter
	maxUpload   int64
	http        *http.Server
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, opts ServerOptions) *Server {
	return NewServerWithMux(service, opts, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, opts ServerOptions, mux *http.ServeMux) *Server {
	defaults := DefaultServerOptions()
	if opts.ScanRate <= 0 {
		opts.ScanRate = defaults.ScanRate
	}
	if opts.ScanBurst <= 0 {
		opts.ScanBurst = defaults.ScanBurst
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaults.MaxUploadBytes
	}

	s := &Server{
		service:     service,
		mux:         mux,
		scanLimiter: rate.NewLimiter(opts.ScanRate, opts.ScanBurst),
		maxUpload:   opts.MaxUploadBytes,
	}
	s.registerRoutes()
	s.handler = metrics.InstrumentHandler(s.logRequests(s.corsMiddleware(s.mux)))
	s.http = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// corsMiddleware adds CORS headers to responses and answers preflight requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// logRequests logs one line per request
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := metrics.NewStatusRecorder(w)

		next.ServeHTTP(rec, r)

		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.Status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /receipts/process", s.handleProcessReceipt)
	s.mux.HandleFunc("POST /receipts/scan", s.handleScanReceipt)
	s.mux.HandleFunc("GET /receipts/{id}/points", s.handleGetPoints)
	s.mux.HandleFunc("GET /receipts/{id}/breakdown", s.handleGetBreakdown)

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", metrics.Handler())
}

// Start listens on addr and serves until Shutdown is called
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	slog.Info("Starting server", "address", ln.Addr().String())
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
