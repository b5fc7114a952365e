package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS experiments (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    variants TEXT NOT NULL,
    goal TEXT,
    confidence REAL NOT NULL DEFAULT 0.95,
    auto_stop INTEGER NOT NULL DEFAULT 0,
    state TEXT NOT NULL DEFAULT 'running',
    winner_variant INTEGER,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_experiments_name ON experiments(name);
CREATE INDEX IF NOT EXISTS idx_experiments_state ON experiments(state);

CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    experiment TEXT NOT NULL,
    variant INTEGER NOT NULL,
    event_type TEXT NOT NULL,
    visitor_id TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    FOREIGN KEY (experiment) REFERENCES experiments(name)
);

CREATE INDEX IF NOT EXISTS idx_events_experiment ON events(experiment);
CREATE INDEX IF NOT EXISTS idx_events_experiment_type ON events(experiment, event_type);
CREATE UNIQUE INDEX IF NOT EXISTS idx_events_dedup ON events(experiment, visitor_id, event_type);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateExperiment(ctx context.Context, params ExperimentParams) (*Experiment, error) {
	if len(params.Variants) < 2 {
		return nil, fmt.Errorf("need at least 2 variants, got %d", len(params.Variants))
	}
	if params.ControlIndex < 0 || params.ControlIndex >= len(params.Variants) {
		return nil, fmt.Errorf("control index %d out of range (0-%d)", params.ControlIndex, len(params.Variants)-1)
	}

	confidence := params.Confidence
	if confidence == 0 {
		confidence = 0.95
	}
	if confidence <= 0 || confidence >= 1 {
		return nil, fmt.Errorf("confidence %g out of range (0, 1)", confidence)
	}

	defs := make([]VariantDef, len(params.Variants))
	for i, name := range params.Variants {
		defs[i] = VariantDef{
			ID:        uuid.NewString(),
			Name:      name,
			IsControl: i == params.ControlIndex,
		}
	}

	variantsJSON, err := json.Marshal(defs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal variants: %w", err)
	}

	now := time.Now().Unix()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO experiments (name, variants, goal, confidence, auto_stop, state, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 'running', ?, ?)`,
		params.Name, string(variantsJSON), params.Goal, confidence, boolToInt(params.AutoStop), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert experiment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return &Experiment{
		ID:              id,
		Name:            params.Name,
		Variants:        defs,
		Goal:            params.Goal,
		ConfidenceLevel: confidence,
		AutoStop:        params.AutoStop,
		State:           StateRunning,
		CreatedAt:       time.Unix(now, 0),
		UpdatedAt:       time.Unix(now, 0),
	}, nil
}

const experimentColumns = `id, name, variants, goal, confidence, auto_stop, state, winner_variant, created_at, updated_at`

func (s *SQLiteStore) GetExperiment(ctx context.Context, name string) (*Experiment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+experimentColumns+` FROM experiments WHERE name = ?`, name,
	)

	exp, err := scanExperiment(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}
	return exp, nil
}

func (s *SQLiteStore) ListExperiments(ctx context.Context) ([]*Experiment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+experimentColumns+` FROM experiments ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer rows.Close()

	var experiments []*Experiment
	for rows.Next() {
		exp, err := scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		experiments = append(experiments, exp)
	}

	return experiments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExperiment(row rowScanner) (*Experiment, error) {
	var exp Experiment
	var variantsJSON string
	var goal sql.NullString
	var autoStop int
	var winnerVariant sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(&exp.ID, &exp.Name, &variantsJSON, &goal, &exp.ConfidenceLevel,
		&autoStop, &exp.State, &winnerVariant, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(variantsJSON), &exp.Variants); err != nil {
		return nil, fmt.Errorf("failed to unmarshal variants: %w", err)
	}

	exp.Goal = goal.String
	exp.AutoStop = autoStop != 0

	if winnerVariant.Valid {
		w := int(winnerVariant.Int64)
		exp.WinnerVariant = &w
	}

	exp.CreatedAt = time.Unix(createdAt, 0)
	exp.UpdatedAt = time.Unix(updatedAt, 0)

	return &exp, nil
}

func (s *SQLiteStore) UpdateExperimentState(ctx context.Context, name string, state ExperimentState) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE experiments SET state = ?, updated_at = ? WHERE name = ?`,
		string(state), time.Now().Unix(), name,
	)
	if err != nil {
		return fmt.Errorf("failed to update experiment state: %w", err)
	}

	return checkAffected(result)
}

func (s *SQLiteStore) SetWinner(ctx context.Context, name string, variant int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE experiments SET state = ?, winner_variant = ?, updated_at = ? WHERE name = ?`,
		string(StateCompleted), variant, time.Now().Unix(), name,
	)
	if err != nil {
		return fmt.Errorf("failed to set winner: %w", err)
	}

	return checkAffected(result)
}

func (s *SQLiteStore) DeleteExperiment(ctx context.Context, name string) error {
	// First delete related events
	_, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE experiment = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete events: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM experiments WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete experiment: %w", err)
	}

	return checkAffected(result)
}

func (s *SQLiteStore) RecordEvent(ctx context.Context, experiment string, variant int, eventType string, visitorID string) error {
	// INSERT OR IGNORE deduplicates per visitor via the unique index
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO events (experiment, variant, event_type, visitor_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		experiment, variant, eventType, visitorID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	return nil
}

func (s *SQLiteStore) GetVariantStats(ctx context.Context, experiment string) ([]VariantStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			variant,
			COUNT(DISTINCT CASE WHEN event_type = 'exposure' THEN visitor_id END) as exposures,
			COUNT(DISTINCT CASE WHEN event_type = 'convert' THEN visitor_id END) as conversions
		FROM events
		WHERE experiment = ?
		GROUP BY variant
		ORDER BY variant
	`, experiment)
	if err != nil {
		return nil, fmt.Errorf("failed to get variant stats: %w", err)
	}
	defer rows.Close()

	var stats []VariantStats
	for rows.Next() {
		var vs VariantStats
		if err := rows.Scan(&vs.Variant, &vs.Exposures, &vs.Conversions); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats = append(stats, vs)
	}

	return stats, rows.Err()
}

func (s *SQLiteStore) GetEvents(ctx context.Context, experiment string) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, experiment, variant, event_type, visitor_id, created_at
		 FROM events WHERE experiment = ? ORDER BY created_at DESC`,
		experiment,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Experiment, &e.Variant, &e.EventType, &e.VisitorID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		events = append(events, &e)
	}

	return events, rows.Err()
}

// DB returns the underlying database connection for health checks
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
