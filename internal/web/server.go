// Package web provides the listingiq JSON HTTP API.
package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/evcraddock/listingiq/internal/analysis"
	"github.com/evcraddock/listingiq/internal/comps"
	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/deal"
	"github.com/evcraddock/listingiq/internal/logging"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server is the API HTTP server.
type Server struct {
	cfg        config.Config
	analyzer   *analysis.DealAnalyzer
	calculator *analysis.Calculator
	estimator  *comps.Estimator
	service    *deal.Service
	deals      *deal.Repository
	limiter    *rate.Limiter
	mux        *http.ServeMux
	handler    http.Handler
}

// NewServer creates an API server over the given database.
func NewServer(db *sql.DB, cfg config.Config) (*Server, error) {
	analyzer, err := analysis.NewDealAnalyzer(cfg.Analysis)
	if err != nil {
		return nil, err
	}
	calculator, err := analysis.NewCalculator(cfg.Analysis)
	if err != nil {
		return nil, err
	}
	service, err := deal.NewService(db, cfg.Analysis)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:        cfg,
		analyzer:   analyzer,
		calculator: calculator,
		service:    service,
		deals:      service.Deals(),
		mux:        http.NewServeMux(),
	}
	if cfg.Analysis.Comps.Enabled {
		s.estimator = comps.NewEstimator(cfg.Analysis.Comps)
	}
	if cfg.Server.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst)
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("POST /api/batch", s.handleBatch)
	s.mux.HandleFunc("POST /api/offer", s.handleOffer)
	s.mux.HandleFunc("GET /api/deals", s.handleDeals)
	s.mux.HandleFunc("GET /api/config", s.handleConfig)
	s.mux.HandleFunc("GET /report", s.handleReport)

	s.handler = logging.RequestLogger(s.rateLimit(s.mux))

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server and shuts it down when ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting API server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// rateLimit rejects requests beyond the configured rate. Health checks are
// never limited.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" && !s.limiter.Allow() {
			apiError(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
