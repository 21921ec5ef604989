// Package server exposes the quote service over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/door-pricing/internal/model"
	"github.com/sells-group/door-pricing/internal/quote"
)

// Quoter is the service surface the HTTP handlers need.
type Quoter interface {
	Quote(ctx context.Context, category string, in model.SelectionInput) (*model.Quote, error)
	Diagnose(ctx context.Context, category string, in model.SelectionInput) ([]model.FilterStep, error)
	Options(ctx context.Context, category string, in model.SelectionInput) (model.OptionSet, error)
	Categories(ctx context.Context) ([]model.Category, error)
	Stats(ctx context.Context, category string, lookback time.Duration) (*quote.Stats, error)
}

// Request is the body of every POST endpoint. An empty category selects the
// configured door category.
type Request struct {
	Category  string               `json:"category"`
	Selection model.SelectionInput `json:"selection"`
}

// ErrorResponse is written for every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

const (
	maxBodyBytes         = 1 << 20
	defaultLookbackHours = 24
)

// New builds the router. An empty origin list disables CORS headers.
func New(q Quoter, corsOrigins []string, opts ...Option) http.Handler {
	h := &handler{quoter: q}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", h.health)
	r.Route("/api/v1", func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.middleware)
		}
		r.Get("/categories", h.categories)
		r.Get("/stats", h.stats)
		r.Post("/quote", h.quote)
		r.Post("/diagnose", h.diagnose)
		r.Post("/options", h.options)
	})
	return r
}

type handler struct {
	quoter  Quoter
	limiter *clientLimiter
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.quoter.Categories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	hours := defaultLookbackHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_query",
				Message: "hours must be a positive integer",
			})
			return
		}
		hours = n
	}
	snap, err := h.quoter.Stats(r.Context(), r.URL.Query().Get("category"), time.Duration(hours)*time.Hour)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handler) quote(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	q, err := h.quoter.Quote(r.Context(), req.Category, req.Selection)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *handler) diagnose(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	steps, err := h.quoter.Diagnose(r.Context(), req.Category, req.Selection)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"steps": steps})
}

func (h *handler) options(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	opts, err := h.quoter.Options(r.Context(), req.Category, req.Selection)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (Request, bool) {
	var req Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request_body",
			Message: err.Error(),
		})
		return Request{}, false
	}
	return req, true
}

// writeError maps service errors onto status codes. Invalid selections are
// the caller's fault; everything else is logged and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if eris.Is(err, model.ErrInvalidSelection) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_selection",
			Message: err.Error(),
		})
		return
	}
	zap.L().Error("server: request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
