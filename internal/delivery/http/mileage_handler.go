package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/frontandrew/fleettrack/internal/domain"
	"github.com/frontandrew/fleettrack/internal/infrastructure/storage"
	"github.com/frontandrew/fleettrack/internal/pkg/logger"
	"github.com/frontandrew/fleettrack/internal/pkg/sanitize"
	"github.com/frontandrew/fleettrack/internal/usecase/mileage"
)

// maxUploadMemory ограничивает стартовый буфер разбора multipart-формы
const maxUploadMemory = 10 << 20

// MileageService определяет интерфейс сервиса пробега
type MileageService interface {
	IssueToken(ctx context.Context, vehicleID int64, driverEmail string) (*mileage.IssuedLink, error)
	Submit(ctx context.Context, req *mileage.SubmitRequest) (*domain.MileageEntry, error)
	History(ctx context.Context, vehicleID int64) (*domain.Vehicle, []*domain.MileageEntry, error)
}

// MileageHandler обрабатывает выпуск ссылок, прием показаний и историю
type MileageHandler struct {
	mileageService MileageService
	photos         *storage.PhotoStore
	csrf           CSRFService
	renderer       *Renderer
	logger         logger.Logger
}

// NewMileageHandler создает новый handler
func NewMileageHandler(mileageService MileageService, photos *storage.PhotoStore, csrfService CSRFService, renderer *Renderer, logger logger.Logger) *MileageHandler {
	return &MileageHandler{
		mileageService: mileageService,
		photos:         photos,
		csrf:           csrfService,
		renderer:       renderer,
		logger:         logger,
	}
}

// linkPage - данные страницы с выпущенной ссылкой
type linkPage struct {
	LicensePlate string
	URL          string
	MailedTo     string
}

// entryFormPage - данные формы ввода пробега
type entryFormPage struct {
	Token      string
	CSRFToken  string
	Hint       string
	DriverName string
	OdometerKM string
}

// historyEntryView - строка истории пробега, значения уже отформатированы
type historyEntryView struct {
	RecordedAt string
	OdometerKM int64
	DriverName string
	PhotoPath  string
}

// historyPage - данные страницы истории пробега
type historyPage struct {
	ID           int64
	LicensePlate string
	Entries      []historyEntryView
}

// RequestLink выпускает одноразовую ссылку для ввода пробега.
// Если диспетчер указал адрес водителя, ссылка дополнительно уходит письмом.
// POST /km/anforderung/{id}
func (h *MileageHandler) RequestLink(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := vehicleIDParam(r)
	if err != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
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
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	driverEmail := sanitize.CleanText(r.PostFormValue("fahrer_email"))

	link, err := h.mileageService.IssueToken(r.Context(), vehicleID, driverEmail)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		h.logger.Error("Failed to issue mileage link", map[string]interface{}{
			"vehicle_id": vehicleID,
			"error":      err.Error(),
		})
		respondServerError(w)
		return
	}

	h.renderer.Render(w, http.StatusOK, "km_link", linkPage{
		LicensePlate: link.Vehicle.LicensePlate,
		URL:          link.URL,
		MailedTo:     link.MailedTo,
	})
}

// ShowEntryForm показывает форму ввода пробега.
// Токен здесь не проверяется: просмотр формы ссылку не гасит.
// GET /km/eingabe/{token}
func (h *MileageHandler) ShowEntryForm(w http.ResponseWriter, r *http.Request) {
	h.renderEntryForm(w, r, entryFormPage{
		Token: chi.URLParam(r, "token"),
	})
}

// SubmitEntry принимает показания одометра от водителя
// POST /km/eingabe/{token}
func (h *MileageHandler) SubmitEntry(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	// Форма без фото может прийти и как обычный urlencoded POST
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.renderEntryForm(w, r, entryFormPage{
			Token: token,
			Hint:  "Die Kilometer-Eingabe konnte nicht verarbeitet werden.",
		})
		return
	}

	form := entryFormPage{
		Token:      token,
		DriverName: r.PostFormValue("name_fahrer"),
		OdometerKM: r.PostFormValue("kilometerstand_wert"),
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
		form.Hint = "Ungültiger CSRF-Token."
		h.renderEntryForm(w, r, form)
		return
	}

	driverName := sanitize.CleanText(form.DriverName)
	if !sanitize.ValidDriverName(driverName) {
		form.Hint = "Ungültiger Fahrername."
		h.renderEntryForm(w, r, form)
		return
	}

	odometerKM, err := strconv.ParseInt(strings.TrimSpace(form.OdometerKM), 10, 64)
	if err != nil {
		form.Hint = "Ungültiger Kilometerstand (keine Zahl)."
		h.renderEntryForm(w, r, form)
		return
	}
	if !sanitize.ValidOdometerKM(odometerKM) {
		form.Hint = "Plausiblen Kilometerstand eingeben."
		h.renderEntryForm(w, r, form)
		return
	}

	photoPath, hint := h.savePhoto(r)
	if hint != "" {
		form.Hint = hint
		h.renderEntryForm(w, r, form)
		return
	}

	req := &mileage.SubmitRequest{
		Token:      token,
		DriverName: driverName,
		OdometerKM: odometerKM,
		PhotoPath:  photoPath,
	}
	if _, err := h.mileageService.Submit(r.Context(), req); err != nil {
		form.Hint = submitErrorHint(err)
		if form.Hint == "" {
			h.logger.Error("Failed to submit mileage entry", map[string]interface{}{
				"error": err.Error(),
			})
			form.Hint = "Die Kilometer-Eingabe konnte nicht verarbeitet werden."
		}
		h.renderEntryForm(w, r, form)
		return
	}

	h.renderer.Render(w, http.StatusOK, "km_danke", nil)
}

// History показывает последние записи пробега автомобиля
// GET /fahrzeug/{id}/historie
func (h *MileageHandler) History(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := vehicleIDParam(r)
	if err != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	veh, entries, err := h.mileageService.History(r.Context(), vehicleID)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
			return
		}
		h.logger.Error("Failed to load mileage history", map[string]interface{}{
			"vehicle_id": vehicleID,
			"error":      err.Error(),
		})
		respondServerError(w)
		return
	}

	page := historyPage{
		ID:           veh.ID,
		LicensePlate: veh.LicensePlate,
		Entries:      make([]historyEntryView, 0, len(entries)),
	}
	for _, entry := range entries {
		view := historyEntryView{
			RecordedAt: entry.RecordedAt.Format("02.01.2006 15:04"),
			OdometerKM: entry.OdometerKM,
			DriverName: entry.DriverName,
		}
		if entry.PhotoPath != nil {
			view.PhotoPath = *entry.PhotoPath
		}
		page.Entries = append(page.Entries, view)
	}

	h.renderer.Render(w, http.StatusOK, "km_historie", page)
}

// renderEntryForm отдает форму ввода пробега со свежим CSRF-токеном
func (h *MileageHandler) renderEntryForm(w http.ResponseWriter, r *http.Request, data entryFormPage) {
	csrfToken, err := h.csrf.Issue(r.Context())
	if err != nil {
		h.logger.Error("Failed to issue CSRF token", map[string]interface{}{
			"error": err.Error(),
		})
		respondServerError(w)
		return
	}

	data.CSRFToken = csrfToken
	h.renderer.Render(w, http.StatusOK, "km_eingabe", data)
}

// savePhoto сохраняет приложенное фото одометра. Фото опционально:
// отсутствие файла - не ошибка, сбой записи на диск запись не блокирует.
// Непустая подсказка возвращается только для неподдерживаемого формата.
func (h *MileageHandler) savePhoto(r *http.Request) (*string, string) {
	file, header, err := r.FormFile("foto_datei")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			h.logger.Warn("Failed to read photo upload", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, ""
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, ""
	}

	path, err := h.photos.Save(header.Filename, file)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedFormat) {
			return nil, "Das Foto muss eine Bilddatei sein (JPG, PNG, WEBP oder HEIC)."
		}
		h.logger.Error("Failed to store photo", map[string]interface{}{
			"filename": header.Filename,
			"error":    err.Error(),
		})
		return nil, ""
	}

	return &path, ""
}

// submitErrorHint переводит доменные ошибки приема показаний в подсказку.
// Пустая строка означает инфраструктурный сбой.
func submitErrorHint(err error) string {
	switch {
	case errors.Is(err, domain.ErrTokenNotFound), errors.Is(err, domain.ErrTokenConsumed):
		return "Der Link ist ungültig oder wurde bereits verwendet."
	case errors.Is(err, domain.ErrVehicleNotFound):
		return "Das zugehörige Fahrzeug existiert nicht mehr."
	case errors.Is(err, domain.ErrMileageTooLow):
		return "Der eingegebene Kilometerstand darf nicht kleiner als der aktuelle Stand des Fahrzeugs sein."
	case errors.Is(err, domain.ErrInvalidEntryData):
		return "Ungültiger Fahrername."
	default:
		return ""
	}
}
