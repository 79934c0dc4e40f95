package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frontandrew/fleettrack/internal/domain"
	"github.com/frontandrew/fleettrack/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type vehicleRepository struct {
	db *pgxpool.Pool
}

func NewVehicleRepository(db *pgxpool.Pool) repository.VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (license_plate, model, current_km, inspection_due, next_oil_change_km, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	vehicle.CreatedAt = time.Now()
	vehicle.UpdatedAt = vehicle.CreatedAt

	return r.db.QueryRow(ctx, query,
		vehicle.LicensePlate,
		vehicle.Model,
		vehicle.CurrentKM,
		vehicle.InspectionDue,
		vehicle.NextOilChangeKM,
		vehicle.CreatedAt,
		vehicle.UpdatedAt,
	).Scan(&vehicle.ID)
}

func (r *vehicleRepository) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	query := `
		SELECT id, license_plate, model, current_km, inspection_due, next_oil_change_km, created_at, updated_at
		FROM vehicles
		WHERE id = $1
	`

	vehicle := &domain.Vehicle{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&vehicle.ID,
		&vehicle.LicensePlate,
		&vehicle.Model,
		&vehicle.CurrentKM,
		&vehicle.InspectionDue,
		&vehicle.NextOilChangeKM,
		&vehicle.CreatedAt,
		&vehicle.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, err
	}

	return vehicle, nil
}

func (r *vehicleRepository) List(ctx context.Context) ([]*domain.Vehicle, error) {
	query := `
		SELECT id, license_plate, model, current_km, inspection_due, next_oil_change_km, created_at, updated_at
		FROM vehicles
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		vehicle := &domain.Vehicle{}
		err := rows.Scan(
			&vehicle.ID,
			&vehicle.LicensePlate,
			&vehicle.Model,
			&vehicle.CurrentKM,
			&vehicle.InspectionDue,
			&vehicle.NextOilChangeKM,
			&vehicle.CreatedAt,
			&vehicle.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, vehicle)
	}

	return vehicles, rows.Err()
}

func (r *vehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		UPDATE vehicles
		SET license_plate = $1, model = $2, current_km = $3, inspection_due = $4, next_oil_change_km = $5, updated_at = $6
		WHERE id = $7
	`

	vehicle.UpdatedAt = time.Now()

	result, err := r.db.Exec(ctx, query,
		vehicle.LicensePlate,
		vehicle.Model,
		vehicle.CurrentKM,
		vehicle.InspectionDue,
		vehicle.NextOilChangeKM,
		vehicle.UpdatedAt,
		vehicle.ID,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return domain.ErrVehicleNotFound
	}

	return nil
}

// Delete удаляет транспортное средство и все связанные с ним строки.
// Внешних ключей в схеме нет, поэтому каскад выполняется явно и в одной
// транзакции: либо исчезает все, либо ничего
func (r *vehicleRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM mileage_entries WHERE vehicle_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM mileage_tokens WHERE vehicle_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM maintenance_notices WHERE vehicle_id = $1`, id); err != nil {
		return err
	}

	result, err := tx.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrVehicleNotFound
	}

	return tx.Commit(ctx)
}
