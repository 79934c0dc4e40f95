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

type mileageTokenRepository struct {
	db *pgxpool.Pool
}

func NewMileageTokenRepository(db *pgxpool.Pool) repository.MileageTokenRepository {
	return &mileageTokenRepository{db: db}
}

func (r *mileageTokenRepository) Create(ctx context.Context, token *domain.MileageToken) error {
	query := `
		INSERT INTO mileage_tokens (id, vehicle_id, token, consumed, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	token.ID = uuid.New()
	token.Consumed = false
	token.CreatedAt = time.Now()

	_, err := r.db.Exec(ctx, query,
		token.ID,
		token.VehicleID,
		token.Token,
		token.Consumed,
		token.CreatedAt,
	)

	return err
}

func (r *mileageTokenRepository) GetByToken(ctx context.Context, tokenValue string) (*domain.MileageToken, error) {
	query := `
		SELECT id, vehicle_id, token, consumed, created_at
		FROM mileage_tokens
		WHERE token = $1
	`

	token := &domain.MileageToken{}
	err := r.db.QueryRow(ctx, query, tokenValue).Scan(
		&token.ID,
		&token.VehicleID,
		&token.Token,
		&token.Consumed,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}

	return token, nil
}

func (r *mileageTokenRepository) GetLatestByVehicle(ctx context.Context, vehicleID int64) (*domain.MileageToken, error) {
	query := `
		SELECT id, vehicle_id, token, consumed, created_at
		FROM mileage_tokens
		WHERE vehicle_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	token := &domain.MileageToken{}
	err := r.db.QueryRow(ctx, query, vehicleID).Scan(
		&token.ID,
		&token.VehicleID,
		&token.Token,
		&token.Consumed,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}

	return token, nil
}
