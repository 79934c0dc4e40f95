package postgres

import (
	"context"
	"time"

	"github.com/frontandrew/fleettrack/internal/domain"
	"github.com/frontandrew/fleettrack/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type noticeRepository struct {
	db *pgxpool.Pool
}

func NewNoticeRepository(db *pgxpool.Pool) repository.NoticeRepository {
	return &noticeRepository{db: db}
}

// Claim регистрирует отметку напоминания через условную вставку.
// Уникальный индекс (vehicle_id, check_kind, threshold) гарантирует, что
// одно и то же напоминание выигрывает вставку ровно один раз, в том числе
// при конкурирующих запросах
func (r *noticeRepository) Claim(ctx context.Context, mark *domain.NoticeMark) (bool, error) {
	query := `
		INSERT INTO maintenance_notices (id, vehicle_id, check_kind, threshold, notified_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (vehicle_id, check_kind, threshold) DO NOTHING
	`

	mark.ID = uuid.New()
	mark.NotifiedAt = time.Now()

	result, err := r.db.Exec(ctx, query,
		mark.ID,
		mark.VehicleID,
		mark.CheckKind,
		mark.Threshold,
		mark.NotifiedAt,
	)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() == 1, nil
}

func (r *noticeRepository) Release(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM maintenance_notices WHERE id = $1`, id)
	return err
}
