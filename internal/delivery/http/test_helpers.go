package http

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/frontandrew/fleettrack/internal/domain"
	"github.com/frontandrew/fleettrack/internal/pkg/logger"
)

// CreateTestVehicle создает тестовый автомобиль
func CreateTestVehicle(id int64, licensePlate string) *domain.Vehicle {
	return &domain.Vehicle{
		ID:           id,
		LicensePlate: licensePlate,
		Model:        "VW Crafter",
		CurrentKM:    15000,
		CreatedAt:    time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

// NewTestRenderer создает renderer поверх встроенных шаблонов
func NewTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	renderer, err := NewRenderer(logger.NewDevelopment())
	if err != nil {
		t.Fatalf("failed to build renderer: %v", err)
	}
	return renderer
}

// NewFormRequest создает POST запрос с form-urlencoded телом
func NewFormRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// WithURLParam добавляет параметр маршрута chi в контекст запроса
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// NewMultipartRequest создает POST запрос с multipart-формой и опциональным файлом
func NewMultipartRequest(t *testing.T, target string, fields map[string]string, filename, fileContent string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}
	if filename != "" {
		part, err := writer.CreateFormFile("foto_datei", filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write([]byte(fileContent)); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}
