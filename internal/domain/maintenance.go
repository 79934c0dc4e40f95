package domain

import (
	"time"

	"github.com/google/uuid"
)

// OilChangeIntervalKM - плановый интервал замены масла
const OilChangeIntervalKM = 15000

// InspectionNoticeDays - за сколько дней до окончания TÜV начинаются напоминания
const InspectionNoticeDays = 90

// CheckKind представляет вид проверки техобслуживания
type CheckKind string

const (
	CheckKindInspection CheckKind = "tuev"       // Техосмотр (TÜV)
	CheckKindOilChange  CheckKind = "oelwechsel" // Замена масла
)

// NoticeMark - отметка об отправленном напоминании
// Уникальна по (VehicleID, CheckKind, Threshold): одно и то же напоминание
// не отправляется повторно, пока порог не изменился
type NoticeMark struct {
	ID         uuid.UUID `json:"id"`
	VehicleID  int64     `json:"vehicle_id"`
	CheckKind  CheckKind `json:"check_kind"`
	Threshold  string    `json:"threshold"` // Ключ порога: дата TÜV или ступень@порог_масла
	NotifiedAt time.Time `json:"notified_at"`
}
