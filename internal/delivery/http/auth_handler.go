package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/frontandrew/fleettrack/internal/delivery/http/middleware"
	"github.com/frontandrew/fleettrack/internal/domain"
	"github.com/frontandrew/fleettrack/internal/pkg/logger"
	"github.com/frontandrew/fleettrack/internal/pkg/sanitize"
	"github.com/frontandrew/fleettrack/internal/usecase/auth"
)

// AuthService определяет интерфейс сервиса аутентификации
type AuthService interface {
	Login(ctx context.Context, req *auth.LoginRequest) (string, time.Time, error)
}

// CSRFService определяет интерфейс одноразовых токенов защиты форм
type CSRFService interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, signedToken string) (bool, error)
}

// AuthHandler обрабатывает вход и выход диспетчера
type AuthHandler struct {
	authService AuthService
	csrf        CSRFService
	renderer    *Renderer
	logger      logger.Logger
}

// NewAuthHandler создает новый handler
func NewAuthHandler(authService AuthService, csrfService CSRFService, renderer *Renderer, logger logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		csrf:        csrfService,
		renderer:    renderer,
		logger:      logger,
	}
}

// loginPage - данные страницы входа
type loginPage struct {
	CSRFToken string
	Error     string
}

// ShowLogin показывает форму входа
// GET /login
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, "")
}

// Login обрабатывает отправку формы входа
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLogin(w, r, "Login fehlgeschlagen.")
		return
	}

	ok, err := h.csrf.Consume(r.Context(), r.PostFormValue("csrf_token"))
	if err != nil {
		h.logger.Error("Failed to consume CSRF token", map[string]interface{}{
			"error": err.Error(),
		})
		respondServerError(w)
		return
	}
	if !ok {
		h.renderLogin(w, r, "Ungültiger oder verbrauchter CSRF-Token.")
		return
	}

	username := sanitize.CleanText(r.PostFormValue("benutzername"))
	if !sanitize.ValidUsername(username) {
		h.renderLogin(w, r, "Benutzername ungültig.")
		return
	}

	token, expiresAt, err := h.authService.Login(r.Context(), &auth.LoginRequest{
		Username: username,
		Password: r.PostFormValue("passwort"),
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.renderLogin(w, r, "Login fehlgeschlagen.")
			return
		}
		h.logger.Error("Failed to login dispatcher", map[string]interface{}{
			"error": err.Error(),
		})
		respondServerError(w)
		return
	}

	middleware.SetSessionCookie(w, token, int(time.Until(expiresAt).Seconds()))
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// Logout завершает сессию диспетчера
// GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// renderLogin отдает страницу входа со свежим CSRF-токеном
func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, errorText string) {
	csrfToken, err := h.csrf.Issue(r.Context())
	if err != nil {
		h.logger.Error("Failed to issue CSRF token", map[string]interface{}{
			"error": err.Error(),
		})
		respondServerError(w)
		return
	}

	h.renderer.Render(w, http.StatusOK, "login", loginPage{
		CSRFToken: csrfToken,
		Error:     errorText,
	})
}
