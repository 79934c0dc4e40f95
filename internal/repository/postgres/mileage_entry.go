package postgres

import (
	"context"
	"errors"

	"github.com/frontandrew/fleettrack/internal/domain"
	"github.com/frontandrew/fleettrack/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type mileageEntryRepository struct {
	db *pgxpool.Pool
}

func NewMileageEntryRepository(db *pgxpool.Pool) repository.MileageEntryRepository {
	return &mileageEntryRepository{db: db}
}

func (r *mileageEntryRepository) ListByVehicle(ctx context.Context, vehicleID int64, limit int) ([]*domain.MileageEntry, error) {
	query := `
		SELECT id, vehicle_id, driver_name, odometer_km, token, photo_path, recorded_at
		FROM mileage_entries
		WHERE vehicle_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, vehicleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.MileageEntry
	for rows.Next() {
		entry := &domain.MileageEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.VehicleID,
			&entry.DriverName,
			&entry.OdometerKM,
			&entry.Token,
			&entry.PhotoPath,
			&entry.RecordedAt,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (r *mileageEntryRepository) GetLatestByVehicle(ctx context.Context, vehicleID int64) (*domain.MileageEntry, error) {
	query := `
		SELECT id, vehicle_id, driver_name, odometer_km, token, photo_path, recorded_at
		FROM mileage_entries
		WHERE vehicle_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`

	entry := &domain.MileageEntry{}
	err := r.db.QueryRow(ctx, query, vehicleID).Scan(
		&entry.ID,
		&entry.VehicleID,
		&entry.DriverName,
		&entry.OdometerKM,
		&entry.Token,
		&entry.PhotoPath,
		&entry.RecordedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}

	return entry, nil
}
