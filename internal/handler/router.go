package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/ai-astrologer/backend/internal/handler/meta"
	"github.com/zhouzirui/ai-astrologer/backend/internal/handler/session"
	"github.com/zhouzirui/ai-astrologer/backend/internal/handler/stream"
	"github.com/zhouzirui/ai-astrologer/backend/internal/handler/ws"
	middlewarePkg "github.com/zhouzirui/ai-astrologer/backend/internal/middleware"
	"github.com/zhouzirui/ai-astrologer/backend/internal/service/oracle"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(svc *oracle.Service, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.Logger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(api chi.Router) {
		meta.New(svc).RegisterRoutes(api)
		session.New(svc, logger).RegisterRoutes(api)
		stream.New(svc, logger).RegisterRoutes(api)
		ws.New(svc, logger).RegisterRoutes(api)
	})

	return r
}
