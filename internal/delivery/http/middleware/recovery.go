package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/frontandrew/fleettrack/internal/pkg/logger"
)

// RecoveryMiddleware восстанавливается после panic и возвращает страницу 500
func RecoveryMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Error("Panic recovered", map[string]interface{}{
						"error":       err,
						"stack":       string(debug.Stack()),
						"method":      r.Method,
						"path":        r.URL.Path,
						"remote_addr": r.RemoteAddr,
					})

					w.Header().Set("Content-Type", "text/html; charset=utf-8")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte("<!DOCTYPE html><html lang=\"de\"><head><meta charset=\"UTF-8\">" +
						"<title>Fehler</title></head><body>" +
						"<h1>Interner Fehler</h1><p>Bitte versuche es später erneut.</p>" +
						"</body></html>"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
