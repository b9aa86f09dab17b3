package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mcpreg/internal/domain"
)

const shutdownTimeout = 5 * time.Second

// ScanStatus summarises the registry's last completed scan.
type ScanStatus struct {
	ID          string
	CompletedAt time.Time
	Tools       int
	Skipped     int
}

// ScanSource reports the last completed scan. ok is false until one finishes.
type ScanSource interface {
	ScanStatus() (status ScanStatus, ok bool)
}

// ScanHealth is the scan section of the /healthz body.
type ScanHealth struct {
	ID          string    `json:"id"`
	CompletedAt time.Time `json:"completedAt"`
	AgeSeconds  float64   `json:"ageSeconds"`
	Tools       int       `json:"tools"`
	Skipped     int       `json:"skipped"`
}

// ServerOptions selects the endpoints served next to the registry.
type ServerOptions struct {
	Addr     string
	Metrics  bool
	Healthz  bool
	Gatherer prometheus.Gatherer
	Health   *HealthTracker
	Scans    ScanSource
}

// Server exposes /metrics and /healthz for a running registry.
// /healthz stays unavailable until the first scan completes.
type Server struct {
	opts   ServerOptions
	logger *zap.Logger
	now    func() time.Time
}

func NewServer(opts ServerOptions, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Addr == "" {
		opts.Addr = domain.DefaultObservabilityListenAddress
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{opts: opts, logger: logger.Named("observability"), now: time.Now}
}

// Enabled reports whether any endpoint is switched on.
func (s *Server) Enabled() bool {
	return s.opts.Metrics || s.opts.Healthz
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.opts.Metrics {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	if s.opts.Healthz {
		mux.HandleFunc("GET /healthz", s.serveHealthz)
	}
	return mux
}

// Serve binds the listen address and serves until ctx is done.
// A bind failure is returned immediately.
func (s *Server) Serve(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("observability listen %s: %w", s.opts.Addr, err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.logger.Info("observability server listening",
		zap.String("addr", listener.Addr().String()),
		zap.Bool("metrics", s.opts.Metrics),
		zap.Bool("healthz", s.opts.Healthz),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	err = group.Wait()
	s.logger.Info("observability server stopped", zap.Error(err))
	return err
}

func (s *Server) serveHealthz(w http.ResponseWriter, _ *http.Request) {
	report := s.opts.Health.Report()
	if s.opts.Scans != nil {
		status, ok := s.opts.Scans.ScanStatus()
		switch {
		case !ok:
			if report.Status == "ok" {
				report.Status = "starting"
			}
		default:
			report.Scan = &ScanHealth{
				ID:          status.ID,
				CompletedAt: status.CompletedAt,
				AgeSeconds:  s.now().Sub(status.CompletedAt).Seconds(),
				Tools:       status.Tools,
				Skipped:     status.Skipped,
			}
		}
	}

	code := http.StatusOK
	if report.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(report)
}
