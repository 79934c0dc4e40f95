package domain

import (
	"time"

	"github.com/google/uuid"
)

// MileageToken - одноразовый токен для ссылки на ввод пробега
// Привязан ровно к одному транспортному средству; после успешного ввода
// помечается как использованный и больше не принимается
type MileageToken struct {
	ID        uuid.UUID `json:"id"`
	VehicleID int64     `json:"vehicle_id"`
	Token     string    `json:"token"`    // 256 бит случайности в URL-safe base64
	Consumed  bool      `json:"consumed"` // Переходит false -> true ровно один раз
	CreatedAt time.Time `json:"created_at"`
}

// IsOpen сообщает, доступен ли токен для ввода пробега
func (t *MileageToken) IsOpen() bool {
	return !t.Consumed
}

// Validate проверяет корректность данных токена
func (t *MileageToken) Validate() error {
	if t.VehicleID <= 0 {
		return ErrInvalidTokenData
	}
	if t.Token == "" {
		return ErrInvalidTokenData
	}
	return nil
}
