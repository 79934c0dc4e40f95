package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frontandrew/fleettrack/internal/domain"
	"github.com/frontandrew/fleettrack/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type submissionRepository struct {
	db *pgxpool.Pool
}

func NewSubmissionRepository(db *pgxpool.Pool) repository.SubmissionRepository {
	return &submissionRepository{db: db}
}

// Record гасит токен, сохраняет запись пробега и продвигает одометр
// в одной транзакции. Каждый шаг - условный UPDATE с проверкой RowsAffected,
// поэтому два конкурирующих запроса не могут пройти оба: проигравший
// откатывается без следов в журнале
func (r *submissionRepository) Record(ctx context.Context, tokenID uuid.UUID, entry *domain.MileageEntry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Атомарно гасим токен: проходит ровно один запрос
	claim, err := tx.Exec(ctx,
		`UPDATE mileage_tokens SET consumed = true WHERE id = $1 AND consumed = false`,
		tokenID,
	)
	if err != nil {
		return err
	}
	if claim.RowsAffected() == 0 {
		return domain.ErrTokenConsumed
	}

	entry.ID = uuid.New()
	entry.RecordedAt = time.Now()

	_, err = tx.Exec(ctx,
		`INSERT INTO mileage_entries (id, vehicle_id, driver_name, odometer_km, token, photo_path, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID,
		entry.VehicleID,
		entry.DriverName,
		entry.OdometerKM,
		entry.Token,
		entry.PhotoPath,
		entry.RecordedAt,
	)
	if err != nil {
		return err
	}

	// Одометр двигается только вперед
	moved, err := tx.Exec(ctx,
		`UPDATE vehicles SET current_km = $1, updated_at = $2 WHERE id = $3 AND current_km <= $1`,
		entry.OdometerKM,
		entry.RecordedAt,
		entry.VehicleID,
	)
	if err != nil {
		return err
	}
	if moved.RowsAffected() == 0 {
		// Либо транспортного средства уже нет, либо одометр успел уйти вперед
		var currentKM int64
		err := tx.QueryRow(ctx, `SELECT current_km FROM vehicles WHERE id = $1`, entry.VehicleID).Scan(&currentKM)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrVehicleNotFound
			}
			return err
		}
		return domain.ErrMileageTooLow
	}

	return tx.Commit(ctx)
}
