package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/frontandrew/fleettrack/internal/delivery/http/middleware"
	"github.com/frontandrew/fleettrack/internal/pkg/config"
	"github.com/frontandrew/fleettrack/internal/pkg/jwt"
	"github.com/frontandrew/fleettrack/internal/pkg/logger"
)

// Router содержит все зависимости для HTTP роутера
type Router struct {
	authHandler    *AuthHandler
	vehicleHandler *VehicleHandler
	mileageHandler *MileageHandler
	tokenService   *jwt.TokenService
	config         *config.Config
	logger         logger.Logger
}

// NewRouter создает новый HTTP router
func NewRouter(
	authHandler *AuthHandler,
	vehicleHandler *VehicleHandler,
	mileageHandler *MileageHandler,
	tokenService *jwt.TokenService,
	config *config.Config,
	logger logger.Logger,
) *Router {
	return &Router{
		authHandler:    authHandler,
		vehicleHandler: vehicleHandler,
		mileageHandler: mileageHandler,
		tokenService:   tokenService,
		config:         config,
		logger:         logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.LoggingMiddleware(rt.logger))

	// Health check endpoint (публичный)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	// Статика и загруженные фото одометров
	r.Handle("/static/*", StaticHandler())
	r.Handle("/uploads/*", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(rt.config.Upload.Dir))))

	// Страницы входа (без аутентификации)
	r.Get("/login", rt.authHandler.ShowLogin)
	r.Post("/login", rt.authHandler.Login)
	r.Get("/logout", rt.authHandler.Logout)

	// Форма водителя (публичная - доступ только по одноразовому токену)
	r.Get("/km/eingabe/{token}", rt.mileageHandler.ShowEntryForm)
	r.Post("/km/eingabe/{token}", rt.mileageHandler.SubmitEntry)

	// Страницы диспетчера (требуют сессионный cookie)
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(rt.tokenService))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
		})
		r.Get("/dashboard", rt.vehicleHandler.Dashboard)

		r.Route("/fahrzeug", func(r chi.Router) {
			r.Get("/neu", rt.vehicleHandler.ShowCreateForm)
			r.Post("/neu", rt.vehicleHandler.CreateVehicle)
			r.Get("/{id}/bearbeiten", rt.vehicleHandler.ShowEditForm)
			r.Post("/{id}/bearbeiten", rt.vehicleHandler.UpdateVehicle)
			r.Post("/{id}/loeschen", rt.vehicleHandler.DeleteVehicle)
			r.Get("/{id}/historie", rt.mileageHandler.History)
		})

		r.Post("/km/anforderung/{id}", rt.mileageHandler.RequestLink)
	})

	return r
}
