package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Схема создается при старте приложения
// Внешних ключей нет намеренно: удаление записей, токенов и отметок
// выполняется явно в одной транзакции на уровне репозитория

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS vehicles (
		id BIGSERIAL PRIMARY KEY,
		license_plate VARCHAR(20) NOT NULL,
		model VARCHAR(100) NOT NULL,
		current_km BIGINT NOT NULL DEFAULT 0,
		inspection_due DATE,
		next_oil_change_km BIGINT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS mileage_tokens (
		id UUID PRIMARY KEY,
		vehicle_id BIGINT NOT NULL,
		token TEXT NOT NULL,
		consumed BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT mileage_tokens_token_key UNIQUE (token)
	)`,

	`CREATE TABLE IF NOT EXISTS mileage_entries (
		id UUID PRIMARY KEY,
		vehicle_id BIGINT NOT NULL,
		driver_name VARCHAR(50) NOT NULL,
		odometer_km BIGINT NOT NULL,
		token TEXT NOT NULL,
		photo_path TEXT,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS maintenance_notices (
		id UUID PRIMARY KEY,
		vehicle_id BIGINT NOT NULL,
		check_kind VARCHAR(20) NOT NULL,
		threshold VARCHAR(40) NOT NULL,
		notified_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT maintenance_notices_dedup_key UNIQUE (vehicle_id, check_kind, threshold)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_mileage_tokens_vehicle_created
		ON mileage_tokens (vehicle_id, created_at DESC)`,

	`CREATE INDEX IF NOT EXISTS idx_mileage_entries_vehicle_recorded
		ON mileage_entries (vehicle_id, recorded_at DESC)`,
}

// EnsureSchema создает недостающие таблицы и индексы
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
