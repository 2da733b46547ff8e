package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a database migration.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all schema migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create clubs table",
			SQL: `
				CREATE TABLE IF NOT EXISTS clubs (
					id BIGSERIAL PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					owner_id BIGINT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_clubs_owner_id ON clubs(owner_id);
			`,
		},
		{
			Version:     2,
			Description: "Create profiles table",
			SQL: `
				CREATE TABLE IF NOT EXISTS profiles (
					id BIGSERIAL PRIMARY KEY,
					owner_id BIGINT NOT NULL,
					club_id BIGINT REFERENCES clubs(id) ON DELETE SET NULL,
					weight_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
					fight_count INT NOT NULL DEFAULT 0,
					accepting_matches BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_profiles_owner_id ON profiles(owner_id);
				CREATE INDEX idx_profiles_club_id ON profiles(club_id);
			`,
		},
		{
			Version:     3,
			Description: "Create coach_links table",
			SQL: `
				CREATE TABLE IF NOT EXISTS coach_links (
					id BIGSERIAL PRIMARY KEY,
					coach_id BIGINT NOT NULL,
					profile_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
					scope VARCHAR(20) NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(coach_id, profile_id)
				);

				CREATE INDEX idx_coach_links_profile_id ON coach_links(profile_id);
			`,
		},
		{
			Version:     4,
			Description: "Create availabilities table",
			SQL: `
				CREATE TABLE IF NOT EXISTS availabilities (
					id BIGSERIAL PRIMARY KEY,
					profile_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
					starts_at TIMESTAMP NOT NULL,
					ends_at TIMESTAMP NOT NULL,
					notes TEXT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_availabilities_profile_id ON availabilities(profile_id);
			`,
		},
		{
			Version:     5,
			Description: "Create connection_requests table",
			SQL: `
				CREATE TABLE IF NOT EXISTS connection_requests (
					id BIGSERIAL PRIMARY KEY,
					requester_id BIGINT NOT NULL,
					target_id BIGINT NOT NULL,
					status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
					message TEXT,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_connection_requests_requester ON connection_requests(requester_id, status);
				CREATE INDEX idx_connection_requests_target ON connection_requests(target_id, status);
			`,
		},
		{
			Version:     6,
			Description: "Create connections table with normalized pair key",
			SQL: `
				CREATE TABLE IF NOT EXISTS connections (
					id BIGSERIAL PRIMARY KEY,
					identity_low BIGINT NOT NULL,
					identity_high BIGINT NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					UNIQUE(identity_low, identity_high),
					CHECK (identity_low < identity_high)
				);
			`,
		},
		{
			Version:     7,
			Description: "Create match_requests table",
			SQL: `
				CREATE TABLE IF NOT EXISTS match_requests (
					id BIGSERIAL PRIMARY KEY,
					requester_profile_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
					target_profile_id BIGINT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
					status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
					message TEXT,
					expires_at TIMESTAMP NOT NULL,
					created_at TIMESTAMP NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP NOT NULL DEFAULT NOW()
				);

				CREATE INDEX idx_match_requests_requester ON match_requests(requester_profile_id, status);
				CREATE INDEX idx_match_requests_target ON match_requests(target_profile_id, status);
				CREATE INDEX idx_match_requests_expiry ON match_requests(status, expires_at);
			`,
		},
	}
}

// RunMigrations executes all pending migrations, each in its own transaction.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		appliedVersions[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if appliedVersions[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
