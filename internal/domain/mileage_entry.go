package domain

import (
	"time"

	"github.com/google/uuid"
)

// MileageEntry - запись пробега, отправленная водителем
// Журнал append-only: записи не редактируются и не удаляются поодиночке,
// только вместе с транспортным средством
type MileageEntry struct {
	ID         uuid.UUID `json:"id"`
	VehicleID  int64     `json:"vehicle_id"`
	DriverName string    `json:"driver_name"`
	OdometerKM int64     `json:"odometer_km"`
	Token      string    `json:"token"`                // Токен, по которому пришла запись
	PhotoPath  *string   `json:"photo_path,omitempty"` // Относительный путь к фото одометра
	RecordedAt time.Time `json:"recorded_at"`
}

// Validate проверяет корректность записи пробега
func (e *MileageEntry) Validate() error {
	if e.VehicleID <= 0 {
		return ErrInvalidEntryData
	}
	if e.DriverName == "" || len(e.DriverName) > 50 {
		return ErrInvalidEntryData
	}
	if e.OdometerKM < 0 || e.OdometerKM > MaxOdometerKM {
		return ErrInvalidEntryData
	}
	if e.Token == "" {
		return ErrInvalidEntryData
	}
	return nil
}
