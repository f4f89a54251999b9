package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_reports",
		SQL: `CREATE TABLE IF NOT EXISTS reports (
  id            UUID        PRIMARY KEY,
  session_id    UUID        NOT NULL,
  original_name TEXT        NOT NULL,
  output_name   TEXT        NOT NULL,
  status        TEXT        NOT NULL CHECK (status IN ('completed', 'failed')),
  error_message TEXT        NOT NULL DEFAULT '',
  archive_key   TEXT        NOT NULL DEFAULT '',
  size          BIGINT      NOT NULL DEFAULT 0 CHECK (size >= 0),
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_reports_session_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_reports_session_id ON reports (session_id);`,
	},
	{
		Name: "create_index_reports_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports (created_at);`,
	},
}

// EnsureMigrated creates the reports schema unless the sentinel table already exists.
func EnsureMigrated(ctx context.Context, db *sql.DB, log *logrus.Logger, dbHost string) error {
	start := time.Now()
	entry := log.WithFields(logrus.Fields{"component": "database", "db_host": dbHost})

	entry.WithField("event", "db_migration_check").Info("checking schema")

	var exists bool
	if err := db.QueryRowContext(ctx, "SELECT to_regclass('public.reports') IS NOT NULL").Scan(&exists); err != nil {
		entry.WithError(err).WithFields(logrus.Fields{
			"event":       "db_migration_failed",
			"duration_ms": time.Since(start).Milliseconds(),
		}).Error("failed to check sentinel table")
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		entry.WithFields(logrus.Fields{
			"event":       "db_migration_skip",
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("schema already exists, skipping migration")
		return nil
	}

	for _, step := range steps {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			entry.WithError(err).WithFields(logrus.Fields{
				"event":            "db_migration_failed",
				"migration_step":   step.Name,
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			}).Error("migration step failed")
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}
		entry.WithFields(logrus.Fields{
			"event":            "db_migration_step",
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		}).Info("migration step applied")
	}

	entry.WithFields(logrus.Fields{
		"event":       "db_migration_success",
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("schema migrated")
	return nil
}
