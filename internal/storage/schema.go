// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Metric samples, score snapshots, sessions, adjustments, logged sets.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS metric_samples (
		athlete_id TEXT NOT NULL,
		metric_type TEXT NOT NULL,
		date TEXT NOT NULL,
		value REAL NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (athlete_id, metric_type, date)
	);

	CREATE TABLE IF NOT EXISTS readiness_scores (
		athlete_id TEXT NOT NULL,
		date TEXT NOT NULL,
		score REAL,
		band TEXT NOT NULL,
		components TEXT NOT NULL,
		weights TEXT NOT NULL,
		computed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (athlete_id, date)
	);

	CREATE TABLE IF NOT EXISTS load_records (
		athlete_id TEXT NOT NULL,
		date TEXT NOT NULL,
		daily_load REAL,
		acute_7d REAL,
		chronic_28d REAL,
		acwr REAL,
		band TEXT NOT NULL,
		computed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (athlete_id, date)
	);

	CREATE TABLE IF NOT EXISTS planned_sessions (
		id TEXT PRIMARY KEY,
		athlete_id TEXT NOT NULL,
		scheduled_for DATETIME NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS program_adjustments (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		athlete_id TEXT NOT NULL,
		reason TEXT NOT NULL,
		factor REAL NOT NULL,
		old_payload TEXT NOT NULL,
		new_payload TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TRIGGER IF NOT EXISTS program_adjustments_no_update
	BEFORE UPDATE ON program_adjustments
	BEGIN
		SELECT RAISE(ABORT, 'program_adjustments is append-only');
	END;

	CREATE TRIGGER IF NOT EXISTS program_adjustments_no_delete
	BEFORE DELETE ON program_adjustments
	BEGIN
		SELECT RAISE(ABORT, 'program_adjustments is append-only');
	END;

	CREATE TABLE IF NOT EXISTS logged_sets (
		idempotency_key TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		exercise TEXT NOT NULL,
		weight REAL NOT NULL,
		reps INTEGER NOT NULL,
		rpe REAL,
		tempo TEXT,
		velocity REAL,
		device_id TEXT,
		created_at DATETIME NOT NULL,
		received_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_samples_athlete_type_date ON metric_samples(athlete_id, metric_type, date);
	CREATE INDEX IF NOT EXISTS idx_sessions_athlete_scheduled ON planned_sessions(athlete_id, scheduled_for);
	CREATE INDEX IF NOT EXISTS idx_adjustments_session_created ON program_adjustments(session_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_logged_sets_session ON logged_sets(session_id, created_at);
	`

	_, err := d.db.Exec(schema)
	return err
}
