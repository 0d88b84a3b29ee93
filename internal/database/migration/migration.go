package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_users",
		SQL: `CREATE TABLE IF NOT EXISTS users (
  id            BIGSERIAL   PRIMARY KEY,
  email         TEXT        NOT NULL UNIQUE,
  username      TEXT        NOT NULL UNIQUE,
  password_hash TEXT        NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_users_email_lower",
		SQL:  `CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_lower ON users (lower(email));`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id           BIGSERIAL   PRIMARY KEY,
  filename     TEXT        NOT NULL,
  ciphertext   BYTEA,
  storage_path TEXT        UNIQUE,
  sender_id    BIGINT      NOT NULL REFERENCES users (id),
  recipient_id BIGINT      NOT NULL REFERENCES users (id),
  view_limit   INTEGER     CHECK (view_limit IS NULL OR view_limit >= 1),
  view_count   INTEGER     NOT NULL DEFAULT 0 CHECK (view_count >= 0),
  expires_at   TIMESTAMPTZ,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  deleted      BOOLEAN     NOT NULL DEFAULT false,
  CHECK (ciphertext IS NOT NULL OR storage_path IS NOT NULL)
);`,
	},
	{
		Name: "create_index_documents_sender_live",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_sender_live ON documents (sender_id) WHERE NOT deleted;`,
	},
	{
		Name: "create_index_documents_recipient_live",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_recipient_live ON documents (recipient_id) WHERE NOT deleted;`,
	},
	{
		Name: "create_index_documents_expires_at_live",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_expires_at_live ON documents (expires_at) WHERE NOT deleted AND expires_at IS NOT NULL;`,
	},
}

// EnsureMigrated checks if the 'documents' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sqlx.DB, log logrus.FieldLogger, dbHost string) error {
	start := time.Now()
	log = log.WithFields(logrus.Fields{
		"component": "database",
		"db_host":   dbHost,
	})

	log.WithField("event", "db_migration_check").Info("checking schema")

	var exists bool
	query := "SELECT to_regclass('public.documents') IS NOT NULL"
	if err := db.QueryRowContext(ctx, query).Scan(&exists); err != nil {
		log.WithFields(logrus.Fields{
			"event":       "db_migration_failed",
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Error("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		log.WithFields(logrus.Fields{
			"event":       "db_migration_skip",
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("schema already exists, skipping migration")
		return nil
	}

	log.WithField("event", "db_migration_start").Info("applying schema")

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			log.WithFields(logrus.Fields{
				"event":            "db_migration_failed",
				"migration_step":   step.Name,
				"error":            err.Error(),
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			}).Error("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		log.WithFields(logrus.Fields{
			"event":            "db_migration_step",
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		}).Info("migration step applied")
	}

	log.WithFields(logrus.Fields{
		"event":       "db_migration_success",
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("schema migrated")

	return nil
}
