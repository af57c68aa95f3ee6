// internal/app/server.go
package app

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"bidash/internal/config"
	"bidash/internal/reports"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Deps are the collaborators a Server is built from.
type Deps struct {
	Source *reports.Source
	Logger *zap.Logger
	Clock  clockwork.Clock
}

// Server is the reporting HTTP server.
type Server struct {
	cfg    *config.Config
	log    *zap.Logger
	clock  clockwork.Clock
	caches *reportCaches
	mux    *http.ServeMux
}

// NewServer creates a Server with one cache per report.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if deps.Source == nil {
		return nil, errors.New("app: report source is required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	s := &Server{
		cfg:    cfg,
		log:    deps.Logger,
		clock:  deps.Clock,
		caches: newReportCaches(cfg.CacheTTL(), deps.Clock),
		mux:    http.NewServeMux(),
	}
	s.registerRoutes(deps.Source)
	return s, nil
}

// Handler returns the server's root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.withRecovery(h)
	h = s.withRequestID(h)
	h = s.withCommonHeaders(h)
	return otelhttp.NewHandler(h, "bidash")
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	h := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", ln.Addr().String()))
		errCh <- h.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := h.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) registerRoutes(src *reports.Source) {
	cfg := s.cfg
	c := s.caches

	s.mux.HandleFunc("/", s.handleHome)
	s.mux.HandleFunc("/health", s.handleHealth)

	s.mux.Handle("/status", &reportHandler[reports.StatusParams, reports.StatusReport]{
		srv:     s,
		gateway: c.status,
		parse: func(r *http.Request) (reports.StatusParams, error) {
			return reports.ParseStatusParams(r.URL.Query(), cfg.Sectors)
		},
		fetch: src.Status,
	})
	s.mux.Handle("/detail", &reportHandler[reports.DetailParams, reports.DetailReport]{
		srv:     s,
		gateway: c.detail,
		parse: func(r *http.Request) (reports.DetailParams, error) {
			return reports.ParseDetailParams(r.URL.Query(), cfg.Sectors)
		},
		fetch: src.Detail,
	})
	s.mux.Handle("/fulfillment", &reportHandler[reports.FulfillmentParams, reports.FulfillmentReport]{
		srv:     s,
		gateway: c.fulfillment,
		parse: func(r *http.Request) (reports.FulfillmentParams, error) {
			return reports.ParseFulfillmentParams(r.URL.Query(), s.clock.Now(), cfg.Location(), cfg.DefaultWindowDays)
		},
		fetch: src.Fulfillment,
	})
	s.mux.Handle("/productividad", &reportHandler[reports.ProductivityParams, reports.ProductivityReport]{
		srv:     s,
		gateway: c.productivity,
		parse: func(r *http.Request) (reports.ProductivityParams, error) {
			return reports.ParseProductivityParams(r.URL.Query())
		},
		fetch: src.Productivity,
	})
	s.mux.Handle("/recepciones", &reportHandler[reports.ReceptionsParams, reports.ReceptionsReport]{
		srv:     s,
		gateway: c.receptions,
		parse: func(r *http.Request) (reports.ReceptionsParams, error) {
			return reports.ParseReceptionsParams(r.URL.Query())
		},
		fetch: src.Receptions,
	})
}

// handleHome lists the report endpoints.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Unknown endpoint.")
		return
	}
	homeHTML := `<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<title>bidash - warehouse reports</title>
	<style>
		body { font-family: system-ui, sans-serif; max-width: 720px; margin: 40px auto; color: #222; }
		code { background: #f1f3f4; padding: 2px 6px; border-radius: 4px; }
		li { margin: 8px 0; }
	</style>
</head>
<body>
	<h1>Warehouse reports</h1>
	<ul>
		<li><code>/status?sector={SECTOR}</code></li>
		<li><code>/detail?sector={SECTOR}</code></li>
		<li><code>/fulfillment?fechaInicio={YYYY-MM-DD}&amp;fechaFin={YYYY-MM-DD}</code></li>
		<li><code>/productividad?operacion=PICKING&amp;from={YYYY-MM-DD}&amp;to={YYYY-MM-DD}</code></li>
		<li><code>/recepciones?fechaInicio={YYYYMMDD}&amp;fechaFin={YYYYMMDD}&amp;proveedor=&amp;sku=</code></li>
		<li><code>/health</code></li>
	</ul>
</body>
</html>`

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(homeHTML))
}

// handleHealth returns JSON health information.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"ok":        true,
		"service":   "bidash",
		"caches":    s.caches.sizes(),
		"timestamp": s.clock.Now().Format(time.RFC3339),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(health)
}
