package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order on every start. Each statement is idempotent.
// The unique keys carry the registration invariants: one registration per
// (tournament, user) and one leaderboard row per (user, game).
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id             CHAR(36)      NOT NULL PRIMARY KEY,
		email          VARCHAR(255)  NOT NULL,
		password_hash  VARCHAR(255)  NOT NULL,
		username       VARCHAR(64)   NOT NULL,
		full_name      VARCHAR(255)  NOT NULL DEFAULT '',
		free_fire_uid  VARCHAR(16)   NULL,
		region         VARCHAR(16)   NOT NULL DEFAULT '',
		wallet_balance DECIMAL(12,2) NOT NULL DEFAULT 0,
		is_verified    TINYINT(1)    NOT NULL DEFAULT 0,
		is_admin       TINYINT(1)    NOT NULL DEFAULT 0,
		free_fire_data JSON          NULL,
		created_at     DATETIME      NOT NULL,
		updated_at     DATETIME      NOT NULL,
		UNIQUE KEY uq_users_email (email),
		UNIQUE KEY uq_users_username (username),
		UNIQUE KEY uq_users_ff_uid (free_fire_uid),
		CONSTRAINT chk_users_wallet CHECK (wallet_balance >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS tournaments (
		id                    CHAR(36)      NOT NULL PRIMARY KEY,
		name                  VARCHAR(255)  NOT NULL,
		description           TEXT          NOT NULL,
		game_type             VARCHAR(32)   NOT NULL,
		tournament_type       VARCHAR(32)   NOT NULL DEFAULT '',
		mode                  VARCHAR(16)   NOT NULL DEFAULT '',
		country               VARCHAR(64)   NOT NULL DEFAULT '',
		entry_fee             DECIMAL(12,2) NOT NULL DEFAULT 0,
		prize_pool            DECIMAL(12,2) NOT NULL DEFAULT 0,
		max_participants      INT           NOT NULL,
		current_participants  INT           NOT NULL DEFAULT 0,
		start_time            DATETIME      NOT NULL,
		registration_deadline DATETIME      NOT NULL,
		status                ENUM('upcoming','live','completed','cancelled') NOT NULL DEFAULT 'upcoming',
		created_by            CHAR(36)      NOT NULL,
		created_at            DATETIME      NOT NULL,
		updated_at            DATETIME      NOT NULL,
		KEY idx_tournaments_start (start_time),
		KEY idx_tournaments_filter (game_type, country, mode, status),
		CONSTRAINT chk_tournaments_fee CHECK (entry_fee >= 0),
		CONSTRAINT chk_tournaments_capacity CHECK (max_participants > 0 AND current_participants BETWEEN 0 AND max_participants),
		CONSTRAINT chk_tournaments_deadline CHECK (registration_deadline < start_time)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS payments (
		order_id        VARCHAR(32)   NOT NULL PRIMARY KEY,
		user_id         CHAR(36)      NOT NULL,
		tournament_id   CHAR(36)      NOT NULL,
		amount          DECIMAL(12,2) NOT NULL,
		status          ENUM('pending','success','failed') NOT NULL DEFAULT 'pending',
		transaction_id  VARCHAR(64)   NOT NULL DEFAULT '',
		failure_reason  VARCHAR(64)   NOT NULL DEFAULT '',
		refund_required TINYINT(1)    NOT NULL DEFAULT 0,
		expires_at      DATETIME      NOT NULL,
		created_at      DATETIME      NOT NULL,
		updated_at      DATETIME      NOT NULL,
		KEY idx_payments_pending (status, expires_at),
		KEY idx_payments_pair (tournament_id, user_id, status),
		CONSTRAINT fk_payments_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_payments_tournament FOREIGN KEY (tournament_id) REFERENCES tournaments(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS registrations (
		id               CHAR(36)    NOT NULL PRIMARY KEY,
		tournament_id    CHAR(36)    NOT NULL,
		user_id          CHAR(36)    NOT NULL,
		payment_order_id VARCHAR(32) NULL,
		status           ENUM('confirmed') NOT NULL DEFAULT 'confirmed',
		registered_at    DATETIME    NOT NULL,
		UNIQUE KEY uq_registrations_pair (tournament_id, user_id),
		UNIQUE KEY uq_registrations_order (payment_order_id),
		CONSTRAINT fk_registrations_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		CONSTRAINT fk_registrations_tournament FOREIGN KEY (tournament_id) REFERENCES tournaments(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS leaderboard_entries (
		user_id            CHAR(36)      NOT NULL,
		game_type          VARCHAR(32)   NOT NULL,
		skill_rating       DECIMAL(5,1)  NOT NULL DEFAULT 0,
		total_earnings     DECIMAL(12,2) NOT NULL DEFAULT 0,
		tournaments_played INT           NOT NULL DEFAULT 0,
		tournaments_won    INT           NOT NULL DEFAULT 0,
		updated_at         DATETIME      NOT NULL,
		PRIMARY KEY (user_id, game_type),
		KEY idx_leaderboard_rating (game_type, skill_rating),
		CONSTRAINT fk_leaderboard_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
