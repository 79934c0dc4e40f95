package mileage

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/frontandrew/fleettrack/internal/domain"
	"github.com/frontandrew/fleettrack/internal/infrastructure/mail"
	"github.com/frontandrew/fleettrack/internal/pkg/logger"
	"github.com/frontandrew/fleettrack/internal/pkg/sanitize"
	"github.com/frontandrew/fleettrack/internal/repository"
)

// Количество записей на странице истории пробега
const historyLimit = 50

// Длина одноразового токена в байтах до кодирования
const tokenBytes = 32

// MaintenanceChecker запускает проверку порогов ТО после изменения пробега
type MaintenanceChecker interface {
	CheckVehicle(ctx context.Context, vehicle *domain.Vehicle)
}

// IssuedLink - выпущенная ссылка для ввода пробега
type IssuedLink struct {
	Vehicle  *domain.Vehicle
	Token    string
	URL      string
	MailedTo string // Адрес водителя, если письмо со ссылкой ушло успешно
}

// SubmitRequest - данные формы водителя
type SubmitRequest struct {
	Token      string
	DriverName string
	OdometerKM int64
	PhotoPath  *string
}

// Service содержит бизнес-логику учета пробега
type Service struct {
	vehicleRepo    repository.VehicleRepository
	tokenRepo      repository.MileageTokenRepository
	entryRepo      repository.MileageEntryRepository
	submissionRepo repository.SubmissionRepository
	maintenance    MaintenanceChecker
	mailer         mail.Mailer
	baseURL        string
	logger         logger.Logger
}

// NewService создает новый экземпляр MileageService
func NewService(
	vehicleRepo repository.VehicleRepository,
	tokenRepo repository.MileageTokenRepository,
	entryRepo repository.MileageEntryRepository,
	submissionRepo repository.SubmissionRepository,
	maintenance MaintenanceChecker,
	mailer mail.Mailer,
	baseURL string,
	logger logger.Logger,
) *Service {
	return &Service{
		vehicleRepo:    vehicleRepo,
		tokenRepo:      tokenRepo,
		entryRepo:      entryRepo,
		submissionRepo: submissionRepo,
		maintenance:    maintenance,
		mailer:         mailer,
		baseURL:        baseURL,
		logger:         logger,
	}
}

// IssueToken выпускает одноразовую ссылку для ввода пробега.
// Старые ссылки при этом не гасятся: открытой может быть больше одной.
// Если указан email водителя, ссылка дополнительно уходит ему письмом
func (s *Service) IssueToken(ctx context.Context, vehicleID int64, driverEmail string) (*IssuedLink, error) {
	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	raw, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	token := &domain.MileageToken{
		VehicleID: vehicleID,
		Token:     raw,
	}

	if err := token.Validate(); err != nil {
		return nil, err
	}

	if err := s.tokenRepo.Create(ctx, token); err != nil {
		s.logger.Error("Failed to create mileage token", map[string]interface{}{
			"vehicle_id": vehicleID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	link := &IssuedLink{
		Vehicle: vehicle,
		Token:   raw,
		URL:     fmt.Sprintf("%s/km/eingabe/%s", s.baseURL, raw),
	}

	s.logger.Info("Mileage link issued", map[string]interface{}{
		"vehicle_id":    vehicleID,
		"license_plate": vehicle.LicensePlate,
	})

	// Сбой почты выпуск не отменяет: диспетчер видит ссылку на экране
	if driverEmail != "" {
		body := fmt.Sprintf("Klicke hier, um deinen Kilometerstand einzugeben:\n%s", link.URL)
		if err := s.mailer.Send(ctx, driverEmail, "Bitte Kilometerstand eintragen", body); err != nil {
			s.logger.Error("Failed to mail mileage link", map[string]interface{}{
				"vehicle_id": vehicleID,
				"recipient":  driverEmail,
				"error":      err.Error(),
			})
		} else {
			link.MailedTo = driverEmail
			s.logger.Info("Mileage link mailed to driver", map[string]interface{}{
				"vehicle_id": vehicleID,
				"recipient":  driverEmail,
			})
		}
	}

	return link, nil
}

// Submit принимает показание одометра от водителя.
// Токен гасится, запись сохраняется и одометр продвигается в одной
// транзакции; после успеха запускается проверка порогов ТО
func (s *Service) Submit(ctx context.Context, req *SubmitRequest) (*domain.MileageEntry, error) {
	token, err := s.tokenRepo.GetByToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	// Быстрая проверка до транзакции; гонку двух отправок
	// закрывает условный UPDATE внутри Record
	if token.Consumed {
		s.logger.Warn("Submit rejected: token already consumed", map[string]interface{}{
			"vehicle_id": token.VehicleID,
		})
		return nil, domain.ErrTokenConsumed
	}

	vehicle, err := s.vehicleRepo.GetByID(ctx, token.VehicleID)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	driverName := sanitize.CleanText(req.DriverName)
	if !sanitize.ValidDriverName(driverName) {
		return nil, domain.ErrInvalidEntryData
	}

	if !sanitize.ValidOdometerKM(req.OdometerKM) {
		return nil, domain.ErrInvalidEntryData
	}

	// Одометр не крутится назад: меньшее показание отклоняется,
	// равное текущему допускается
	if req.OdometerKM < vehicle.CurrentKM {
		s.logger.Warn("Submit rejected: odometer below current", map[string]interface{}{
			"vehicle_id": vehicle.ID,
			"current_km": vehicle.CurrentKM,
			"entered_km": req.OdometerKM,
		})
		return nil, domain.ErrMileageTooLow
	}

	entry := &domain.MileageEntry{
		VehicleID:  vehicle.ID,
		DriverName: driverName,
		OdometerKM: req.OdometerKM,
		Token:      token.Token,
		PhotoPath:  req.PhotoPath,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := s.submissionRepo.Record(ctx, token.ID, entry); err != nil {
		if errors.Is(err, domain.ErrTokenConsumed) ||
			errors.Is(err, domain.ErrMileageTooLow) ||
			errors.Is(err, domain.ErrVehicleNotFound) {
			return nil, err
		}
		s.logger.Error("Failed to record mileage entry", map[string]interface{}{
			"vehicle_id": vehicle.ID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("failed to record entry: %w", err)
	}

	s.logger.Info("Mileage entry recorded", map[string]interface{}{
		"vehicle_id":    vehicle.ID,
		"license_plate": vehicle.LicensePlate,
		"driver_name":   driverName,
		"odometer_km":   req.OdometerKM,
	})

	// Пороги проверяются по состоянию после записи
	updated, err := s.vehicleRepo.GetByID(ctx, vehicle.ID)
	if err != nil {
		s.logger.Error("Failed to reload vehicle for maintenance check", map[string]interface{}{
			"vehicle_id": vehicle.ID,
			"error":      err.Error(),
		})
		return entry, nil
	}
	s.maintenance.CheckVehicle(ctx, updated)

	return entry, nil
}

// History возвращает транспортное средство и его последние записи пробега
func (s *Service) History(ctx context.Context, vehicleID int64) (*domain.Vehicle, []*domain.MileageEntry, error) {
	vehicle, err := s.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	entries, err := s.entryRepo.ListByVehicle(ctx, vehicleID, historyLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list entries: %w", err)
	}

	return vehicle, entries, nil
}

// generateToken создает криптостойкий URL-безопасный токен
func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
