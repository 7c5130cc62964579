package journal

import (
	"database/sql"

	"codeberg.org/mutker/tweakctl/internal/errors"
	"codeberg.org/mutker/tweakctl/internal/logger"
)

const (
	SchemaVersion = 2

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS entries (
	       request_id  TEXT PRIMARY KEY,
	       timestamp   INTEGER NOT NULL CHECK (typeof(timestamp) = 'integer'),
	       tweak_id    TEXT NOT NULL,
	       action      TEXT NOT NULL,
	       option      TEXT NOT NULL DEFAULT '',
	       requested   INTEGER NOT NULL CHECK (requested IN (0, 1)),
	       enabled     INTEGER NOT NULL CHECK (enabled IN (0, 1)),
	       success     INTEGER NOT NULL CHECK (success IN (0, 1)),
	       error_code  TEXT NOT NULL DEFAULT '',
	       error       TEXT NOT NULL DEFAULT '',
	       duration_ns INTEGER NOT NULL CHECK (typeof(duration_ns) = 'integer')
	   );
	   CREATE INDEX IF NOT EXISTS entries_timestamp ON entries (timestamp);
	   CREATE TABLE IF NOT EXISTS baselines (
	       tweak_id    TEXT PRIMARY KEY,
	       data        BLOB NOT NULL,
	       saved_at    INTEGER NOT NULL CHECK (typeof(saved_at) = 'integer')
	   );`

	insertEntrySQL = `
    INSERT INTO entries (
        request_id, timestamp, tweak_id, action, option,
        requested, enabled, success, error_code, error, duration_ns
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	recentEntriesSQL = `
    SELECT request_id, timestamp, tweak_id, action, option,
           requested, enabled, success, error_code, error, duration_ns
    FROM entries
    ORDER BY timestamp DESC, rowid DESC
    LIMIT ?`

	loadBaselineSQL = `
    SELECT data FROM baselines WHERE tweak_id = ?`

	saveBaselineSQL = `
    INSERT INTO baselines (tweak_id, data, saved_at) VALUES (?, ?, ?)
    ON CONFLICT (tweak_id) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at`

	clearBaselineSQL = `
    DELETE FROM baselines WHERE tweak_id = ?`
)

// InitSchema creates a new database schema with the current version
func InitSchema(db *sql.DB, log logger.Logger) error {
	errFactory := errors.New()

	log.Debug().Msg("Creating journal database...")

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				log.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err).WithData(struct {
			Phase string
		}{
			Phase: "create_tables",
		})
	}

	if _, err := tx.Exec(`
        INSERT INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err).WithData(struct {
			Phase string
		}{
			Phase: "record_version",
		})
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	log.Info().
		Int("version", SchemaVersion).
		Msg("Journal schema initialized")

	return nil
}

// GetSchemaVersion returns the current schema version, 0 for a new database
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	exists, err := TableExists(db, "schema_versions")
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}
	if !exists {
		return 0, nil
	}

	var version int
	err = db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err).WithData("get_version")
	}

	return version, nil
}

// TableExists checks if a table exists
func TableExists(db *sql.DB, tableName string) (bool, error) {
	var exists bool
	err := db.QueryRow(`
        SELECT EXISTS (
            SELECT 1 FROM sqlite_master
            WHERE type='table' AND name=?
        )
    `, tableName).Scan(&exists)
	if err != nil {
		return false, errors.New().Wrap(ErrSchemaValidationFailed, err).WithData(tableName)
	}
	return exists, nil
}
