package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xela07ax/ai-governance-portal/internal/console/handler"
	"github.com/xela07ax/ai-governance-portal/internal/infra"
	"github.com/xela07ax/ai-governance-portal/internal/infra/auth"
)

type PortalServer struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	// Интерфейс для проверки токенов (RS256)
	authValidator auth.TokenValidator

	// Обработчики бизнес-доменов
	authHandler  *handler.AuthHandler      // /auth/token
	usageHandler *handler.UsageHandler     // /api/usage
	cardHandler  *handler.CardHandler      // /api/cards
	dashHandler  *handler.DashboardHandler // /api/v1/dashboard

	metricsRegistry *prometheus.Registry
}

// NewPortalServer инициализирует сервер портала со всеми зависимостями
func NewPortalServer(
	cfg *infra.Config,
	logger *zap.Logger,
	validator auth.TokenValidator,
	authH *handler.AuthHandler,
	usageH *handler.UsageHandler,
	cardH *handler.CardHandler,
	dashH *handler.DashboardHandler,
	registry *prometheus.Registry,
) *PortalServer {
	s := &PortalServer{
		router:          chi.NewRouter(),
		logger:          logger.Named("portal-api"),
		cfg:             cfg,
		authValidator:   validator,
		authHandler:     authH,
		usageHandler:    usageH,
		cardHandler:     cardH,
		dashHandler:     dashH,
		metricsRegistry: registry,
	}

	s.routes()
	return s
}

func (s *PortalServer) routes() {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ (Открыты для всех) ---
	r.Group(func(r chi.Router) {
		// Логин должен быть доступен без токена
		r.Post("/auth/token", s.authHandler.Login)

		// Healthcheck для мониторинга
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		if s.metricsRegistry != nil {
			r.Handle("/metrics", promhttp.HandlerFor(s.metricsRegistry, promhttp.HandlerOpts{}))
		}
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (Требуют RS256 токен) ---
	r.Group(func(r chi.Router) {
		// Подключаем универсальный Middleware только для этой группы
		r.Use(auth.NewMiddleware(s.authValidator, s.logger))

		// Dashboard & Stats
		r.Get("/api/v1/dashboard/stats", s.dashHandler.GetStats)

		// Заявки на использование AI-инструментов
		r.Route("/api/usage", func(r chi.Router) {
			r.Get("/", s.usageHandler.List)                      // Все заявки, новые первыми
			r.Post("/", s.usageHandler.Create)                   // Подача + полный цикл оценки
			r.Get("/user/{username}", s.usageHandler.ListByUser) // Заявки конкретного пользователя
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.usageHandler.GetDetails)
				r.Put("/", s.usageHandler.Update)    // Правки + пересчет комплаенса
				r.Delete("/", s.usageHandler.Delete) // Каскадно удаляет и карточку
			})
		})

		// Карточки моделей (аудиторский след одобрений)
		r.Route("/api/cards", func(r chi.Router) {
			r.Get("/", s.cardHandler.List)
			r.Get("/{entryID}", s.cardHandler.GetByEntry)
		})
	})
}

// ServeHTTP позволяет использовать PortalServer как стандартный http.Handler
func (s *PortalServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
