package vehicle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frontandrew/fleettrack/internal/domain"
	"github.com/frontandrew/fleettrack/internal/pkg/logger"
	"github.com/frontandrew/fleettrack/internal/repository"
)

// MaintenanceChecker запускает проверку порогов ТО после изменения данных
type MaintenanceChecker interface {
	CheckVehicle(ctx context.Context, vehicle *domain.Vehicle)
}

// CreateVehicleRequest - запрос на создание транспортного средства
type CreateVehicleRequest struct {
	LicensePlate    string
	Model           string
	CurrentKM       int64
	InspectionDue   *time.Time
	NextOilChangeKM *int64
}

// UpdateVehicleRequest - запрос на обновление транспортного средства
// Форма редактирования отправляет все поля целиком
type UpdateVehicleRequest struct {
	LicensePlate    string
	Model           string
	CurrentKM       int64
	InspectionDue   *time.Time
	NextOilChangeKM *int64
}

// DashboardRow - строка обзора автопарка
type DashboardRow struct {
	Vehicle            *domain.Vehicle
	InspectionDaysLeft *int   // nil, если дата TÜV не задана; может быть отрицательным
	OilRemainingKM     *int64 // nil, если порог замены не задан
	LastDriverName     string
	LastEntryAt        *time.Time
	LastLinkSentAt     *time.Time
	LinkOpen           bool
}

// Service содержит бизнес-логику управления автопарком
type Service struct {
	vehicleRepo repository.VehicleRepository
	tokenRepo   repository.MileageTokenRepository
	entryRepo   repository.MileageEntryRepository
	maintenance MaintenanceChecker
	logger      logger.Logger
}

// NewService создает новый экземпляр VehicleService
func NewService(
	vehicleRepo repository.VehicleRepository,
	tokenRepo repository.MileageTokenRepository,
	entryRepo repository.MileageEntryRepository,
	maintenance MaintenanceChecker,
	logger logger.Logger,
) *Service {
	return &Service{
		vehicleRepo: vehicleRepo,
		tokenRepo:   tokenRepo,
		entryRepo:   entryRepo,
		maintenance: maintenance,
		logger:      logger,
	}
}

// CreateVehicle создает новое транспортное средство
func (s *Service) CreateVehicle(ctx context.Context, req *CreateVehicleRequest) (*domain.Vehicle, error) {
	vehicle := &domain.Vehicle{
		LicensePlate:    req.LicensePlate,
		Model:           req.Model,
		CurrentKM:       req.CurrentKM,
		InspectionDue:   req.InspectionDue,
		NextOilChangeKM: req.NextOilChangeKM,
	}

	if err := vehicle.Validate(); err != nil {
		return nil, err
	}

	if err := s.vehicleRepo.Create(ctx, vehicle); err != nil {
		s.logger.Error("Failed to create vehicle", map[string]interface{}{
			"license_plate": vehicle.LicensePlate,
			"error":         err.Error(),
		})
		return nil, fmt.Errorf("failed to create vehicle: %w", err)
	}

	s.logger.Info("Vehicle created", map[string]interface{}{
		"vehicle_id":    vehicle.ID,
		"license_plate": vehicle.LicensePlate,
	})

	return vehicle, nil
}

// GetVehicleByID возвращает транспортное средство по ID
func (s *Service) GetVehicleByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	vehicle, err := s.vehicleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return vehicle, nil
}

// Dashboard собирает строки обзора автопарка: данные транспортного средства
// плюс остатки до ТО, последняя запись пробега и статус последней ссылки
func (s *Service) Dashboard(ctx context.Context) ([]*DashboardRow, error) {
	vehicles, err := s.vehicleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}

	now := time.Now()
	rows := make([]*DashboardRow, 0, len(vehicles))

	for _, v := range vehicles {
		row := &DashboardRow{Vehicle: v}

		if days, ok := v.InspectionDaysLeft(now); ok {
			row.InspectionDaysLeft = &days
		}
		if remaining, ok := v.OilChangeRemainingKM(); ok {
			row.OilRemainingKM = &remaining
		}

		entry, err := s.entryRepo.GetLatestByVehicle(ctx, v.ID)
		switch {
		case err == nil:
			row.LastDriverName = entry.DriverName
			recordedAt := entry.RecordedAt
			row.LastEntryAt = &recordedAt
		case errors.Is(err, domain.ErrEntryNotFound):
			// Записей пробега еще нет
		default:
			return nil, fmt.Errorf("failed to get latest entry: %w", err)
		}

		token, err := s.tokenRepo.GetLatestByVehicle(ctx, v.ID)
		switch {
		case err == nil:
			createdAt := token.CreatedAt
			row.LastLinkSentAt = &createdAt
			row.LinkOpen = token.IsOpen()
		case errors.Is(err, domain.ErrTokenNotFound):
			// Ссылок еще не выпускали
		default:
			return nil, fmt.Errorf("failed to get latest token: %w", err)
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// UpdateVehicle обновляет данные транспортного средства и запускает
// проверку порогов ТО по свежему состоянию
func (s *Service) UpdateVehicle(ctx context.Context, id int64, req *UpdateVehicleRequest) (*domain.Vehicle, error) {
	vehicle, err := s.vehicleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	vehicle.LicensePlate = req.LicensePlate
	vehicle.Model = req.Model
	vehicle.CurrentKM = req.CurrentKM
	vehicle.InspectionDue = req.InspectionDue
	vehicle.NextOilChangeKM = req.NextOilChangeKM

	if err := vehicle.Validate(); err != nil {
		return nil, err
	}

	if err := s.vehicleRepo.Update(ctx, vehicle); err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return nil, err
		}
		s.logger.Error("Failed to update vehicle", map[string]interface{}{
			"vehicle_id": id,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("failed to update vehicle: %w", err)
	}

	s.logger.Info("Vehicle updated", map[string]interface{}{
		"vehicle_id":    vehicle.ID,
		"license_plate": vehicle.LicensePlate,
		"current_km":    vehicle.CurrentKM,
	})

	// Правка диспетчера может сдвинуть пробег или пороги - проверяем сразу
	s.maintenance.CheckVehicle(ctx, vehicle)

	return vehicle, nil
}

// DeleteVehicle удаляет транспортное средство вместе с записями пробега,
// токенами и отметками напоминаний
func (s *Service) DeleteVehicle(ctx context.Context, id int64) error {
	if err := s.vehicleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrVehicleNotFound) {
			return err
		}
		s.logger.Error("Failed to delete vehicle", map[string]interface{}{
			"vehicle_id": id,
			"error":      err.Error(),
		})
		return fmt.Errorf("failed to delete vehicle: %w", err)
	}

	s.logger.Info("Vehicle deleted", map[string]interface{}{
		"vehicle_id": id,
	})

	return nil
}
