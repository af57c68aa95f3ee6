// internal/app/report_handler.go
package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"bidash/internal/apperr"
	"bidash/internal/gateway"
	"bidash/internal/reports"
)

const databaseErrorMessage = "Database error."

// reportHandler validates a report request, then answers it through the
// report's gateway. Invalid requests never reach the cache.
type reportHandler[P reports.Request, V any] struct {
	srv     *Server
	gateway *gateway.Gateway[V]
	parse   func(*http.Request) (P, error)
	fetch   func(context.Context, P) (V, error)
}

type mocker interface {
	IsMock() bool
}

func (h *reportHandler[P, V]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := h.srv.log.With(
		zap.String("endpoint", h.gateway.Name()),
		zap.String("request_id", requestID(r.Context())),
	)

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is supported.")
		return
	}

	p, err := h.parse(r)
	if err != nil {
		h.fail(w, log, start, err)
		return
	}
	key := p.Key()
	log = log.With(zap.String("key", key))

	var ttl time.Duration
	if p.ExplicitRange() {
		ttl = h.srv.cfg.RangeCacheTTL()
	}

	v, hit, err := h.gateway.GetWithTTL(r.Context(), key, ttl, func(ctx context.Context) (V, error) {
		return h.fetch(ctx, p)
	})
	if err != nil {
		h.fail(w, log, start, err)
		return
	}

	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	fields := []zap.Field{zap.String("cache", outcome), zap.Int64("durationMs", time.Since(start).Milliseconds())}
	if m, ok := any(v).(mocker); ok && m.IsMock() {
		if !hit {
			fields[0] = zap.String("cache", "mock")
		}
		log.Warn("served placeholder report", fields...)
	} else {
		log.Info("served report", fields...)
	}
	writeJSON(w, http.StatusOK, v)
}

// fail answers err with its coded status, or a generic database error.
func (h *reportHandler[P, V]) fail(w http.ResponseWriter, log *zap.Logger, start time.Time, err error) {
	duration := zap.Int64("durationMs", time.Since(start).Milliseconds())
	if e, ok := apperr.As(err); ok {
		log.Info("report request rejected", zap.String("error", string(e.Code)), duration)
		writeError(w, e.Status(), string(e.Code), e.Message)
		return
	}
	log.Error("report query failed", zap.String("error", string(apperr.CodeDatabase)), duration, zap.Error(err))
	writeError(w, http.StatusInternalServerError, string(apperr.CodeDatabase), databaseErrorMessage)
}

type errorBody struct {
	OK    bool        `json:"ok"`
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
