package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/frontandrew/fleettrack/internal/domain"
	"github.com/frontandrew/fleettrack/internal/pkg/logger"
	"github.com/frontandrew/fleettrack/internal/pkg/sanitize"
	"github.com/frontandrew/fleettrack/internal/usecase/vehicle"
)

// VehicleService определяет интерфейс сервиса автопарка
type VehicleService interface {
	CreateVehicle(ctx context.Context, req *vehicle.CreateVehicleRequest) (*domain.Vehicle, error)
	GetVehicleByID(ctx context.Context, vehicleID int64) (*domain.Vehicle, error)
	Dashboard(ctx context.Context) ([]*vehicle.DashboardRow, error)
	UpdateVehicle(ctx context.Context, vehicleID int64, req *vehicle.UpdateVehicleRequest) (*domain.Vehicle, error)
	DeleteVehicle(ctx context.Context, vehicleID int64) error
}

// VehicleHandler обрабатывает страницы автопарка
type VehicleHandler struct {
	vehicleService VehicleService
	csrf           CSRFService
	renderer       *Renderer
	logger         logger.Logger
}

// NewVehicleHandler создает новый handler
func NewVehicleHandler(vehicleService VehicleService, csrfService CSRFService, renderer *Renderer, logger logger.Logger) *VehicleHandler {
	return &VehicleHandler{
		vehicleService: vehicleService,
		csrf:           csrfService,
		renderer:       renderer,
		logger:         logger,
	}
}

// dashboardRowView - строка таблицы автопарка, все значения уже отформатированы
type dashboardRowView struct {
	ID             int64
	LicensePlate   string
	Model          string
	CurrentKM      string
	InspectionDue  string
	InspectionLeft string
	NextOilChange  string
	OilRemaining   string
	LastDriver     string
	LastEntry      string
	LastLink       string
	LinkStatus     string
}

// dashboardPage - данные страницы дашборда
type dashboardPage struct {
	Rows      []dashboardRowView
	CSRFToken string
}

// vehicleFormPage - данные форм создания и редактирования автомобиля.
// Значения полей передаются строками, чтобы пустая форма оставалась пустой.
type vehicleFormPage struct {
	CSRFToken       string
	Hint            string
	ID              int64
	LicensePlate    string
	Model           string
	CurrentKM       string
	InspectionDue   string
	NextOilChangeKM string
}

// Dashboard показывает таблицу автопарка со статусами TÜV и Ölwechsel
// GET /dashboard
func (h *VehicleHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.vehicleService.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("Failed to load dashboard", map[string]interface{}{
			"error": err.Error(),
		})
		respondServerError(w)
		return
	}

	csrfToken, err := h.csrf.Issue(r.Context())
	if err != nil {
		h.logger.Error("Failed to issue CSRF token", map[string]interface{}{
			"error": err.Error(),
		})
		respondServerError(w)
		return
	}

	page := dashboardPage{
		Rows:      make([]dashboardRowView, 0, len(rows)),
		CSRFToken: csrfToken,
	}
	for _, row := range rows {
		page.Rows = append(page.Rows, buildDashboardRowView(row))
	}

	h.renderer.Render(w, http.StatusOK, "dashboard", page)
}

// ShowCreateForm показывает пустую форму нового автомобиля
// GET /fahrzeug/neu
func (h *VehicleHandler) ShowCreateForm(w http.ResponseWriter, r *http.Request) {
	h.renderVehicleForm(w, r, "fahrzeug_neu", vehicleFormPage{})
}

// CreateVehicle обрабатывает форму нового автомобиля
// POST /fahrzeug/neu
func (h *VehicleHandler) CreateVehicle(w http.ResponseWriter, r *http.Request) {
	if !h.consumeCSRF(w, r) {
		return
	}

	form, hint := parseVehicleForm(r)
	if hint != "" {
		h.renderVehicleForm(w, r, "fahrzeug_neu", vehicleFormPage{Hint: hint})
		return
	}

	req := &vehicle.CreateVehicleRequest{
		LicensePlate:    form.LicensePlate,
		Model:           form.Model,
		CurrentKM:       form.CurrentKM,
		InspectionDue:   form.InspectionDue,
		NextOilChangeKM: form.NextOilChangeKM,
	}
	if _, err := h.vehicleService.CreateVehicle(r.Context(), req); err != nil {
		hint := vehicleErrorHint(err)
		if hint == "" {
			h.logger.Error("Failed to create vehicle", map[string]interface{}{
				"error": err.Error(),
			})
			respondServerError(w)
			return
		}
		h.renderVehicleForm(w, r, "fahrzeug_neu", vehicleFormPage{Hint: hint})
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// ShowEditForm показывает форму редактирования с текущими данными автомобиля
// GET /fahrzeug/{id}/bearbeiten
func (h *VehicleHandler) ShowEditForm(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := vehicleIDParam(r)
	if err != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	veh, err := h.vehicleService.GetVehicleByID(r.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		h.logger.Error("Failed to get vehicle", map[string]interface{}{
			"vehicle_id": vehicleID,
			"error":      err.Error(),
		})
		respondServerError(w)
		return
	}

	h.renderVehicleForm(w, r, "fahrzeug_bearbeiten", vehicleFormView(veh, ""))
}

// UpdateVehicle обрабатывает форму редактирования автомобиля
// POST /fahrzeug/{id}/bearbeiten
func (h *VehicleHandler) UpdateVehicle(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := vehicleIDParam(r)
	if err != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	if !h.consumeCSRF(w, r) {
		return
	}

	form, hint := parseVehicleForm(r)
	if hint != "" {
		h.rerenderEditForm(w, r, vehicleID, hint)
		return
	}

	req := &vehicle.UpdateVehicleRequest{
		LicensePlate:    form.LicensePlate,
		Model:           form.Model,
		CurrentKM:       form.CurrentKM,
		InspectionDue:   form.InspectionDue,
		NextOilChangeKM: form.NextOilChangeKM,
	}
	if _, err := h.vehicleService.UpdateVehicle(r.Context(), vehicleID, req); err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		hint := vehicleErrorHint(err)
		if hint == "" {
			h.logger.Error("Failed to update vehicle", map[string]interface{}{
				"vehicle_id": vehicleID,
				"error":      err.Error(),
			})
			respondServerError(w)
			return
		}
		h.rerenderEditForm(w, r, vehicleID, hint)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// DeleteVehicle удаляет автомобиль вместе с историей пробега
// POST /fahrzeug/{id}/loeschen
func (h *VehicleHandler) DeleteVehicle(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := vehicleIDParam(r)
	if err != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	if !h.consumeCSRF(w, r) {
		return
	}

	if err := h.vehicleService.DeleteVehicle(r.Context(), vehicleID); err != nil && !errors.Is(err, domain.ErrVehicleNotFound) {
		h.logger.Error("Failed to delete vehicle", map[string]interface{}{
			"vehicle_id": vehicleID,
			"error":      err.Error(),
		})
		respondServerError(w)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

// consumeCSRF проверяет токен формы. Невалидный токен возвращает диспетчера
// на дашборд, где формы получат свежий токен.
func (h *VehicleHandler) consumeCSRF(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return false
	}

	ok, err := h.csrf.Consume(r.Context(), r.PostFormValue("csrf_token"))
	if err != nil {
		h.logger.Error("Failed to consume CSRF token", map[string]interface{}{
			"error": err.Error(),
		})
		respondServerError(w)
		return false
	}
	if !ok {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return false
	}
	return true
}

// renderVehicleForm отдает форму автомобиля со свежим CSRF-токеном
func (h *VehicleHandler) renderVehicleForm(w http.ResponseWriter, r *http.Request, page string, data vehicleFormPage) {
	csrfToken, err := h.csrf.Issue(r.Context())
	if err != nil {
		h.logger.Error("Failed to issue CSRF token", map[string]interface{}{
			"error": err.Error(),
		})
		respondServerError(w)
		return
	}

	data.CSRFToken = csrfToken
	h.renderer.Render(w, http.StatusOK, page, data)
}

// rerenderEditForm показывает форму редактирования заново: значения берутся
// из базы, подсказка - из отклоненного ввода
func (h *VehicleHandler) rerenderEditForm(w http.ResponseWriter, r *http.Request, vehicleID int64, hint string) {
	veh, err := h.vehicleService.GetVehicleByID(r.Context(), vehicleID)
	if err != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	h.renderVehicleForm(w, r, "fahrzeug_bearbeiten", vehicleFormView(veh, hint))
}

// vehicleForm - разобранные поля форм создания и редактирования
type vehicleForm struct {
	LicensePlate    string
	Model           string
	CurrentKM       int64
	InspectionDue   *time.Time
	NextOilChangeKM *int64
}

// parseVehicleForm разбирает поля формы автомобиля.
// Возвращает подсказку на немецком, если ввод не удалось разобрать.
func parseVehicleForm(r *http.Request) (*vehicleForm, string) {
	form := &vehicleForm{
		LicensePlate: sanitize.CleanText(r.PostFormValue("kennzeichen")),
		Model:        sanitize.CleanText(r.PostFormValue("bezeichnung")),
	}

	currentKM, err := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("aktueller_km_wert")), 10, 64)
	if err != nil {
		return nil, "Nur Zahlen eingeben!"
	}
	form.CurrentKM = currentKM

	if raw := strings.TrimSpace(r.PostFormValue("naechster_oelwechsel_km_wert")); raw != "" {
		nextOil, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, "Nur Zahlen eingeben!"
		}
		form.NextOilChangeKM = &nextOil
	}

	if raw := strings.TrimSpace(r.PostFormValue("tuev_bis")); raw != "" {
		due, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, "Ungültiges Datum."
		}
		form.InspectionDue = &due
	}

	return form, ""
}

// vehicleErrorHint переводит доменные ошибки валидации в подсказку формы.
// Пустая строка означает инфраструктурный сбой.
func vehicleErrorHint(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidLicensePlate):
		return "Ungültiges Kennzeichen."
	case errors.Is(err, domain.ErrInvalidVehicleData):
		return "Ungültige Fahrzeugdaten."
	default:
		return ""
	}
}

// vehicleFormView заполняет форму редактирования данными автомобиля
func vehicleFormView(veh *domain.Vehicle, hint string) vehicleFormPage {
	page := vehicleFormPage{
		Hint:          hint,
		ID:            veh.ID,
		LicensePlate:  veh.LicensePlate,
		Model:         veh.Model,
		CurrentKM:     strconv.FormatInt(veh.CurrentKM, 10),
		InspectionDue: formatISODate(veh.InspectionDue),
	}
	if veh.NextOilChangeKM != nil {
		page.NextOilChangeKM = strconv.FormatInt(*veh.NextOilChangeKM, 10)
	}
	return page
}

// buildDashboardRowView форматирует строку дашборда для шаблона
func buildDashboardRowView(row *vehicle.DashboardRow) dashboardRowView {
	view := dashboardRowView{
		ID:             row.Vehicle.ID,
		LicensePlate:   row.Vehicle.LicensePlate,
		Model:          row.Vehicle.Model,
		CurrentKM:      fmt.Sprintf("%d km", row.Vehicle.CurrentKM),
		InspectionDue:  formatDate(row.Vehicle.InspectionDue),
		InspectionLeft: "-",
		NextOilChange:  "-",
		OilRemaining:   "-",
		LastDriver:     row.LastDriverName,
		LastEntry:      formatDateTime(row.LastEntryAt),
		LastLink:       formatDateTime(row.LastLinkSentAt),
		LinkStatus:     "Erledigt",
	}

	if row.InspectionDaysLeft != nil {
		view.InspectionLeft = fmt.Sprintf("%d Tage", *row.InspectionDaysLeft)
	}
	if row.Vehicle.NextOilChangeKM != nil {
		view.NextOilChange = fmt.Sprintf("%d km", *row.Vehicle.NextOilChangeKM)
	}
	if row.OilRemainingKM != nil {
		view.OilRemaining = fmt.Sprintf("%d km", *row.OilRemainingKM)
	}
	if view.LastDriver == "" {
		view.LastDriver = "-"
	}
	if row.LinkOpen {
		view.LinkStatus = "Offen"
	}

	return view
}
