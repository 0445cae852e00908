package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/park285/piece-wheel/internal/monitor"
	"github.com/park285/piece-wheel/internal/obslog"
	"github.com/park285/piece-wheel/internal/wheel"
	"go.uber.org/zap"
)

// StateSource reports the monitor phase.
type StateSource interface {
	State() monitor.State
}

type Deps struct {
	Wheel     *wheel.Wheel
	Monitor   StateSource
	Hub       http.Handler
	ImageSize int
	Logger    *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = obslog.L()
	}
	h := &handlers{d: d}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(d.Logger))

	r.Get("/healthz", Healthz)
	r.Get("/state", h.State)
	if d.Hub != nil {
		r.Get("/ws", d.Hub.ServeHTTP)
	}
	r.Route("/wheel/{side}", func(r chi.Router) {
		r.Post("/spin", h.Spin)
		r.Get("/image.png", h.Image)
	})
	return r
}

func requestLogger(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.Debug("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)))
		})
	}
}
