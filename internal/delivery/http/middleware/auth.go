package middleware

import (
	"context"
	"net/http"

	"github.com/frontandrew/fleettrack/internal/pkg/jwt"
)

// SessionCookieName - имя cookie с сессионным токеном диспетчера
const SessionCookieName = "fleettrack_session"

// contextKey - тип для ключей контекста
type contextKey string

const (
	// SessionClaimsKey - ключ для сохранения claims сессии в контексте
	SessionClaimsKey contextKey = "session_claims"
)

// AuthMiddleware проверяет сессионную cookie диспетчера
// Неавторизованные запросы уходят редиректом на страницу входа:
// приложение отдает HTML, а не JSON API
func AuthMiddleware(tokenService *jwt.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil {
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			claims, err := tokenService.ValidateSessionToken(cookie.Value)
			if err != nil {
				// Протухшая или поддельная cookie стирается сразу
				ClearSessionCookie(w)
				http.Redirect(w, r, "/login", http.StatusFound)
				return
			}

			ctx := context.WithValue(r.Context(), SessionClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionClaims извлекает claims сессии из контекста
func GetSessionClaims(ctx context.Context) (*jwt.Claims, bool) {
	claims, ok := ctx.Value(SessionClaimsKey).(*jwt.Claims)
	return claims, ok
}

// SetSessionCookie устанавливает сессионную cookie
func SetSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie удаляет сессионную cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
