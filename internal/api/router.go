package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

type RouterConfig struct {
	JWTSecret string
	// SyncRate bounds manual syncs per second across all callers.
	SyncRate  float64
	SyncBurst int
}

func NewRouter(h *Handler, cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", h.HandleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/bundle", h.HandleBundle)
		r.Get("/draws", h.HandleDraws)
		r.Get("/stats", h.HandleStats)
		r.Get("/suggestion", h.HandleSuggestion)

		if h.bets != nil {
			r.Route("/bets", func(r chi.Router) {
				r.Use(UserAuth(cfg.JWTSecret))
				r.Get("/", h.HandleListBets)
				r.Post("/", h.HandleCreateBet)
				r.Post("/suggestion", h.HandleSaveSuggestion)
				r.Delete("/{id}", h.HandleDeleteBet)
			})
		}

		r.Group(func(r chi.Router) {
			r.Use(AdminAuth(cfg.JWTSecret))
			r.Use(rateLimit(cfg.SyncRate, cfg.SyncBurst))
			r.Post("/sync", h.HandleSync)
		})
	})

	return r
}

func rateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(limit, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, errorResponse("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
