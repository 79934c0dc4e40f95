package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/frontandrew/fleettrack/internal/domain"
	"github.com/frontandrew/fleettrack/internal/infrastructure/mail"
	"github.com/frontandrew/fleettrack/internal/pkg/logger"
	"github.com/frontandrew/fleettrack/internal/repository"
)

// Notice - сформированное напоминание о техобслуживании
type Notice struct {
	Kind      domain.CheckKind
	Threshold string // Ключ дедупликации: дата TÜV или ступень@порог_масла
	Subject   string
	Body      string
}

// oilBand - ступень предупреждений о замене масла
type oilBand struct {
	fromKM int64
	toKM   int64 // 0 - без верхней границы
	hint   string
}

// Ступени проверяются по порядку, срабатывает первая подходящая.
// Интервалы не пересекаются: [10000,13000), [13000,15000), [15000,∞)
var oilBands = []oilBand{
	{fromKM: 10000, toKM: 13000, hint: "10.000 km seit letztem Ölwechsel"},
	{fromKM: 13000, toKM: 15000, hint: "13.000 km seit letztem Ölwechsel"},
	{fromKM: 15000, toKM: 0, hint: "15.000 km erreicht - Ölwechsel fällig"},
}

// Evaluate вычисляет напоминания для текущего состояния транспортного средства.
// Чистая функция: никаких обращений к хранилищу и почте, результат полностью
// определяется снимком данных и текущей датой
func Evaluate(vehicle *domain.Vehicle, now time.Time) []Notice {
	var notices []Notice

	vehicleText := fmt.Sprintf("%s - %s", vehicle.LicensePlate, vehicle.Model)

	// Техосмотр: напоминаем начиная за 90 дней и вплоть до самого срока.
	// Просроченный TÜV (отрицательные дни) напоминаний больше не порождает
	if days, ok := vehicle.InspectionDaysLeft(now); ok && days >= 0 && days <= domain.InspectionNoticeDays {
		notices = append(notices, Notice{
			Kind:      domain.CheckKindInspection,
			Threshold: vehicle.InspectionDue.Format("2006-01-02"),
			Subject:   fmt.Sprintf("TÜV-Hinweis für Fahrzeug %s", vehicleText),
			Body: fmt.Sprintf(
				"Für das Fahrzeug %s läuft der TÜV am %s ab.\n"+
					"Restlaufzeit: %d Tage.\n"+
					"Bitte rechtzeitig einen Termin für die Hauptuntersuchung planen.",
				vehicleText, vehicle.InspectionDue.Format("02.01.2006"), days,
			),
		})
	}

	// Замена масла: ступени 10k/13k/15k от последней замены
	if kmSince, ok := vehicle.KMSinceOilChange(); ok {
		for _, band := range oilBands {
			if kmSince < band.fromKM || (band.toKM > 0 && kmSince >= band.toKM) {
				continue
			}

			notices = append(notices, Notice{
				Kind:      domain.CheckKindOilChange,
				Threshold: fmt.Sprintf("%d@%d", band.fromKM, *vehicle.NextOilChangeKM),
				Subject:   fmt.Sprintf("Ölwechsel-Hinweis für Fahrzeug %s", vehicleText),
				Body: fmt.Sprintf(
					"Für das Fahrzeug %s wurden ca. %d km seit dem letzten Ölwechsel gefahren.\n"+
						"Aktueller Kilometerstand: %d km.\n"+
						"Hinweis: %s.\n"+
						"Bitte einen Ölwechsel einplanen.",
					vehicleText, kmSince, vehicle.CurrentKM, band.hint,
				),
			})

			// Не больше одного напоминания о масле за проверку
			break
		}
	}

	return notices
}

// Service проверяет пороги ТО и рассылает напоминания диспетчеру
type Service struct {
	noticeRepo repository.NoticeRepository
	mailer     mail.Mailer
	recipient  string
	logger     logger.Logger
}

// NewService создает новый экземпляр MaintenanceService
func NewService(
	noticeRepo repository.NoticeRepository,
	mailer mail.Mailer,
	recipient string,
	logger logger.Logger,
) *Service {
	return &Service{
		noticeRepo: noticeRepo,
		mailer:     mailer,
		recipient:  recipient,
		logger:     logger,
	}
}

// CheckVehicle вычисляет напоминания и отправляет еще не отправленные.
// Сбои почты и хранилища логируются и никогда не прерывают операцию,
// из которой пришел вызов: запись пробега важнее напоминания
func (s *Service) CheckVehicle(ctx context.Context, vehicle *domain.Vehicle) {
	notices := Evaluate(vehicle, time.Now())

	for _, notice := range notices {
		mark := &domain.NoticeMark{
			VehicleID: vehicle.ID,
			CheckKind: notice.Kind,
			Threshold: notice.Threshold,
		}

		fresh, err := s.noticeRepo.Claim(ctx, mark)
		if err != nil {
			s.logger.Error("Failed to register maintenance notice", map[string]interface{}{
				"vehicle_id": vehicle.ID,
				"check_kind": notice.Kind,
				"threshold":  notice.Threshold,
				"error":      err.Error(),
			})
			continue
		}

		if !fresh {
			// Это напоминание уже уходило: порог не менялся
			continue
		}

		if err := s.mailer.Send(ctx, s.recipient, notice.Subject, notice.Body); err != nil {
			s.logger.Error("Failed to send maintenance mail", map[string]interface{}{
				"vehicle_id": vehicle.ID,
				"check_kind": notice.Kind,
				"recipient":  s.recipient,
				"error":      err.Error(),
			})

			// Снимаем отметку, чтобы следующая проверка повторила отправку
			if err := s.noticeRepo.Release(ctx, mark.ID); err != nil {
				s.logger.Error("Failed to release maintenance notice", map[string]interface{}{
					"notice_id": mark.ID,
					"error":     err.Error(),
				})
			}
			continue
		}

		s.logger.Info("Maintenance mail sent", map[string]interface{}{
			"vehicle_id": vehicle.ID,
			"check_kind": notice.Kind,
			"threshold":  notice.Threshold,
			"recipient":  s.recipient,
		})
	}
}
