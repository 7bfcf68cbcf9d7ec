package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/othello-net/othello-server/internal/hub"
	"github.com/othello-net/othello-server/internal/ws"
)

type Options struct {
	WS           ws.Options
	Results      ResultLister // nil leaves /results unrouted
	ResultsLimit int
}

func SetupRoutes(h *hub.Hub, opts Options, log *zap.Logger) http.Handler {
	log = log.Named("http")
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))

	// Public routes
	r.Get("/healthz", Healthz)
	r.Get("/stats", Stats(h, log))
	if opts.Results != nil {
		r.Get("/results", Results(opts.Results, opts.ResultsLimit, log))
	}

	wsHandler := ws.Handler(h, opts.WS, log)
	r.Get("/ws", wsHandler)
	r.Get("/ws/", wsHandler)
	return r
}

// requestLogger logs plain HTTP requests; websocket sessions log on their own.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			if r.Header.Get("Upgrade") != "" {
				return
			}
			log.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
			)
		})
	}
}
