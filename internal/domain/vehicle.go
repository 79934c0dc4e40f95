package domain

import (
	"strings"
	"time"
)

// MaxOdometerKM - верхняя граница правдоподобного пробега
const MaxOdometerKM = 2_000_000

// Vehicle - транспортное средство автопарка
// Пробег (CurrentKM) растет только через подтвержденные записи водителей
// или ручную правку диспетчером
type Vehicle struct {
	ID              int64      `json:"id"`
	LicensePlate    string     `json:"license_plate"`                // Госномер (немецкий формат, например "HH-AB 123")
	Model           string     `json:"model"`                        // Обозначение/модель
	CurrentKM       int64      `json:"current_km"`                   // Текущий пробег в км
	InspectionDue   *time.Time `json:"inspection_due,omitempty"`     // Дата окончания техосмотра (TÜV)
	NextOilChangeKM *int64     `json:"next_oil_change_km,omitempty"` // Пробег следующей замены масла
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NormalizeLicensePlate нормализует госномер (верхний регистр, одиночные пробелы)
// Дефисы и пробелы сохраняются - они часть немецкого формата номера
func NormalizeLicensePlate(plate string) string {
	normalized := strings.Join(strings.Fields(plate), " ")
	return strings.ToUpper(normalized)
}

// Validate проверяет корректность данных транспортного средства
func (v *Vehicle) Validate() error {
	if v.LicensePlate == "" {
		return ErrInvalidLicensePlate
	}
	// Нормализуем номер
	v.LicensePlate = NormalizeLicensePlate(v.LicensePlate)

	if len(v.LicensePlate) < 4 || len(v.LicensePlate) > 20 {
		return ErrInvalidLicensePlate
	}
	if v.Model == "" || len(v.Model) > 100 {
		return ErrInvalidVehicleData
	}
	if v.CurrentKM < 0 || v.CurrentKM > MaxOdometerKM {
		return ErrInvalidVehicleData
	}
	if v.NextOilChangeKM != nil && (*v.NextOilChangeKM < 0 || *v.NextOilChangeKM > MaxOdometerKM) {
		return ErrInvalidVehicleData
	}
	return nil
}

// InspectionDaysLeft возвращает количество календарных дней до окончания TÜV
// Второе значение false, если дата техосмотра не задана
func (v *Vehicle) InspectionDaysLeft(now time.Time) (int, bool) {
	if v.InspectionDue == nil {
		return 0, false
	}
	return daysBetween(now, *v.InspectionDue), true
}

// OilChangeRemainingKM возвращает остаток пробега до следующей замены масла
// Значение может быть отрицательным, если порог уже превышен
func (v *Vehicle) OilChangeRemainingKM() (int64, bool) {
	if v.NextOilChangeKM == nil {
		return 0, false
	}
	return *v.NextOilChangeKM - v.CurrentKM, true
}

// KMSinceOilChange возвращает пробег с момента последней замены масла
// Базой считается NextOilChangeKM минус интервал замены
func (v *Vehicle) KMSinceOilChange() (int64, bool) {
	if v.NextOilChangeKM == nil || *v.NextOilChangeKM <= 0 {
		return 0, false
	}
	lastChangeKM := *v.NextOilChangeKM - OilChangeIntervalKM
	return v.CurrentKM - lastChangeKM, true
}

// daysBetween считает календарные дни между датами (время суток игнорируется)
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
