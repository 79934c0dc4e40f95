package repository

import (
	"context"

	"github.com/frontandrew/fleettrack/internal/domain"
	"github.com/google/uuid"
)

// Контракт ошибок: «не найдено» возвращается доменной ошибкой,
// любой другой сбой хранилища приходит как обычная ошибка и никогда
// не маскируется пустым результатом

// VehicleRepository определяет методы для работы с транспортными средствами
type VehicleRepository interface {
	// Create создает новое транспортное средство и заполняет его ID
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByID возвращает транспортное средство по ID
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)

	// List возвращает все транспортные средства, отсортированные по ID
	List(ctx context.Context) ([]*domain.Vehicle, error)

	// Update обновляет данные транспортного средства
	Update(ctx context.Context, vehicle *domain.Vehicle) error

	// Delete удаляет транспортное средство вместе с его записями пробега,
	// токенами и отметками напоминаний в одной транзакции
	Delete(ctx context.Context, id int64) error
}

// MileageTokenRepository определяет методы для работы с одноразовыми токенами
type MileageTokenRepository interface {
	// Create сохраняет новый токен и заполняет его ID
	Create(ctx context.Context, token *domain.MileageToken) error

	// GetByToken возвращает токен по его строковому значению
	GetByToken(ctx context.Context, token string) (*domain.MileageToken, error)

	// GetLatestByVehicle возвращает самый свежий токен транспортного средства
	GetLatestByVehicle(ctx context.Context, vehicleID int64) (*domain.MileageToken, error)
}

// MileageEntryRepository определяет методы чтения журнала пробега
// Записи создаются только через SubmissionRepository
type MileageEntryRepository interface {
	// ListByVehicle возвращает записи пробега, новые первыми
	ListByVehicle(ctx context.Context, vehicleID int64, limit int) ([]*domain.MileageEntry, error)

	// GetLatestByVehicle возвращает самую свежую запись пробега
	GetLatestByVehicle(ctx context.Context, vehicleID int64) (*domain.MileageEntry, error)
}

// SubmissionRepository выполняет атомарную запись принятого пробега
type SubmissionRepository interface {
	// Record в одной транзакции гасит токен, сохраняет запись пробега
	// и продвигает одометр транспортного средства.
	// Возвращает domain.ErrTokenConsumed, если токен уже использован,
	// domain.ErrMileageTooLow, если одометр успел уйти вперед,
	// domain.ErrVehicleNotFound, если транспортное средство исчезло
	Record(ctx context.Context, tokenID uuid.UUID, entry *domain.MileageEntry) error
}

// NoticeRepository определяет методы для отметок об отправленных напоминаниях
type NoticeRepository interface {
	// Claim регистрирует отметку напоминания.
	// Возвращает true, если отметка новая и письмо нужно отправить,
	// false - если такое напоминание уже отправлялось
	Claim(ctx context.Context, mark *domain.NoticeMark) (bool, error)

	// Release снимает отметку, чтобы напоминание повторилось
	// при следующей проверке. Вызывается, если письмо не удалось отправить
	Release(ctx context.Context, id uuid.UUID) error
}
