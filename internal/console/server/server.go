package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/xela07ax/workshop-oversight-console/internal/console/handler"
	"github.com/xela07ax/workshop-oversight-console/internal/engine"
)

type ConsoleServer struct {
	router *chi.Mux
	logger *zap.Logger

	// Обработчики доменов
	dashHandler      *handler.DashboardHandler // /api/v1/dashboard, /agents, /health-check
	approvalHandler  *handler.ApprovalHandler  // /api/v1/approvals (HITL)
	evolutionHandler *handler.EvolutionHandler // /api/v1/evolutions, /workshops, /impact-assessment
	oversightHandler *handler.OversightHandler // /api/v1/oversight
	resourceHandler  *handler.ResourceHandler  // /api/v1/resources
	metricsHandler   http.Handler              // /metrics
}

// NewConsoleServer собирает API консоли со всеми обработчиками
func NewConsoleServer(
	logger *zap.Logger,
	dashH *handler.DashboardHandler,
	approvalH *handler.ApprovalHandler,
	evolutionH *handler.EvolutionHandler,
	oversightH *handler.OversightHandler,
	resourceH *handler.ResourceHandler,
	metricsH http.Handler,
) *ConsoleServer {
	s := &ConsoleServer{
		router:           chi.NewRouter(),
		logger:           logger.Named("console-api"),
		dashHandler:      dashH,
		approvalHandler:  approvalH,
		evolutionHandler: evolutionH,
		oversightHandler: oversightH,
		resourceHandler:  resourceH,
		metricsHandler:   metricsH,
	}

	s.routes()
	return s
}

func (s *ConsoleServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(engine.TracingMiddleware)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- 2. Служебные роуты ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}

	// --- 3. API консоли ---
	r.Route("/api/v1", func(r chi.Router) {
		// Мониторинг агентов
		r.Get("/dashboard", s.dashHandler.Dashboard)
		r.Get("/agents/{name}", s.dashHandler.Agent)
		r.Post("/health-check", s.dashHandler.HealthCheck)

		// Human-in-the-loop (Approvals)
		r.Route("/approvals", func(r chi.Router) {
			r.Get("/", s.approvalHandler.List) // ?type=&priority=
			r.Route("/{id}", func(r chi.Router) {
				r.Post("/decision", s.approvalHandler.Decide)
				r.Get("/draft", s.approvalHandler.Draft) // Форма, которую не удалось отправить
			})
		})

		// Эволюции воркшопов
		r.Route("/evolutions", func(r chi.Router) {
			r.Get("/", s.evolutionHandler.List) // ?view=all|pending|active|completed|failed
			r.Get("/statistics", s.evolutionHandler.Statistics)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.evolutionHandler.Get)
				r.Put("/status", s.evolutionHandler.UpdateStatus)
			})
		})
		r.Get("/workshops/{name}/history", s.evolutionHandler.WorkshopHistory)
		r.Post("/impact-assessment", s.evolutionHandler.AnalyzeImpact)

		// Координатор надзора
		r.Route("/oversight", func(r chi.Router) {
			r.Get("/", s.oversightHandler.State)
			r.Post("/chat", s.oversightHandler.Chat)
			r.Post("/coordinate", s.oversightHandler.Coordinate)
			r.Post("/workflows/{id}/{action}", s.oversightHandler.WorkflowAction)
		})

		// Состояние опроса: статус, ручное обновление, сброс баннера ошибки
		r.Route("/resources", func(r chi.Router) {
			r.Get("/", s.resourceHandler.List)
			r.Post("/{resource}/refresh", s.resourceHandler.Refresh)
			r.Delete("/{resource}/error", s.resourceHandler.DismissError)
		})
	})
}

// ServeHTTP позволяет использовать ConsoleServer как стандартный http.Handler
func (s *ConsoleServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
