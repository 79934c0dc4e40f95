package http

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/frontandrew/fleettrack/internal/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Страницы приложения; каждая состоит из layout.html и одноименного файла
var pageNames = []string{
	"login",
	"dashboard",
	"fahrzeug_neu",
	"fahrzeug_bearbeiten",
	"km_eingabe",
	"km_danke",
	"km_link",
	"km_historie",
}

// Renderer отвечает за серверный рендеринг HTML страниц
// Шаблоны встроены в бинарник; экранирование берет на себя html/template
type Renderer struct {
	pages  map[string]*template.Template
	logger logger.Logger
}

// NewRenderer парсит все шаблоны страниц
func NewRenderer(logger logger.Logger) (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))

	for _, name := range pageNames {
		t, err := template.ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = t
	}

	return &Renderer{
		pages:  pages,
		logger: logger,
	}, nil
}

// Render отправляет HTML страницу с указанным статусом
func (rn *Renderer) Render(w http.ResponseWriter, status int, page string, data interface{}) {
	t, ok := rn.pages[page]
	if !ok {
		rn.logger.Error("Unknown page template", map[string]interface{}{
			"page": page,
		})
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := t.ExecuteTemplate(w, "layout.html", data); err != nil {
		// Заголовки уже ушли, остается только залогировать
		rn.logger.Error("Failed to render template", map[string]interface{}{
			"page":  page,
			"error": err.Error(),
		})
	}
}

// StaticHandler отдает встроенные статические файлы под /static/
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// Каталог static встроен в бинарник, сбой здесь невозможен
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// formatDate выводит дату в немецком формате или прочерк
func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("02.01.2006")
}

// formatDateTime выводит дату со временем в немецком формате или прочерк
func formatDateTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("02.01.2006 15:04")
}

// formatISODate выводит дату для input type="date" или пустую строку
func formatISODate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
