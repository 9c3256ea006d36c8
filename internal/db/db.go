package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quantmind-br/installer-intel/internal/core"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no analysis matches an ID
var ErrNotFound = errors.New("analysis not found")

// ErrAmbiguousID is returned when an ID prefix matches several analyses
var ErrAmbiguousID = errors.New("ambiguous analysis ID prefix")

// DB represents the database with separate read/write pools
type DB struct {
	write *sql.DB
	read  *sql.DB
	path  string
}

// New creates a new database instance with separate read/write pools
func New(ctx context.Context, dbPath string) (*DB, error) {
	connStr := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)

	// Write pool: MUST be 1 connection only
	write, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open write connection: %w", err)
	}
	write.SetMaxOpenConns(1)
	write.SetMaxIdleConns(1)
	write.SetConnMaxIdleTime(time.Minute)
	write.SetConnMaxLifetime(time.Hour)

	read, err := sql.Open("sqlite", connStr)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("open read connection: %w", err)
	}
	read.SetMaxOpenConns(10)
	read.SetMaxIdleConns(5)
	read.SetConnMaxIdleTime(time.Minute)
	read.SetConnMaxLifetime(time.Hour)

	db := &DB{
		write: write,
		read:  read,
		path:  dbPath,
	}

	if err := db.applyMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Close closes both database connections
func (db *DB) Close() error {
	writeErr := db.write.Close()
	readErr := db.read.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

// Ping checks that the database answers on both pools
func (db *DB) Ping(ctx context.Context) error {
	if err := db.write.PingContext(ctx); err != nil {
		return fmt.Errorf("ping write pool: %w", err)
	}
	if err := db.read.PingContext(ctx); err != nil {
		return fmt.Errorf("ping read pool: %w", err)
	}
	return nil
}

type migration struct {
	version     int
	description string
	sql         string
}

var migrations = []migration{
	{
		version:     1,
		description: "analyses table",
		sql: `
CREATE TABLE IF NOT EXISTS analyses (
    analysis_id TEXT PRIMARY KEY,
    input_path TEXT NOT NULL,
    sha256 TEXT NOT NULL,
    file_type TEXT NOT NULL,
    installer_type TEXT NOT NULL,
    confidence REAL NOT NULL,
    analyzed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    plan_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_analyses_sha256 ON analyses(sha256);
CREATE INDEX IF NOT EXISTS idx_analyses_analyzed_at ON analyses(analyzed_at);
`,
	},
}

// applyMigrations creates the bookkeeping table and runs pending migrations
func (db *DB) applyMigrations(ctx context.Context) error {
	_, err := db.write.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    applied_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    description TEXT
);`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.write.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM schema_migrations WHERE version = ?", m.version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.version, err)
		}
		if exists > 0 {
			continue
		}

		tx, err := db.write.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)", m.version, m.description); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}

	return nil
}

// Analysis is one recorded analysis of an installer
type Analysis struct {
	AnalysisID    string
	InputPath     string
	SHA256        string
	FileType      core.FileType
	InstallerType string
	Confidence    float64
	AnalyzedAt    time.Time
	Plan          *core.InstallPlan
}

// NewAnalysis creates a record for plan with a fresh ID and timestamp
func NewAnalysis(plan *core.InstallPlan, sha256 string) *Analysis {
	return &Analysis{
		AnalysisID:    uuid.NewString(),
		InputPath:     plan.InputPath,
		SHA256:        sha256,
		FileType:      plan.FileType,
		InstallerType: plan.InstallerType,
		Confidence:    plan.Confidence,
		AnalyzedAt:    time.Now().UTC(),
		Plan:          plan,
	}
}

const selectColumns = `analysis_id, input_path, sha256, file_type, installer_type, confidence, analyzed_at, plan_json`

// Create creates a new analysis record
func (db *DB) Create(ctx context.Context, a *Analysis) error {
	if a.Plan == nil {
		return fmt.Errorf("analysis %s has no plan", a.AnalysisID)
	}

	planJSON, err := json.Marshal(a.Plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	query := `
INSERT INTO analyses (` + selectColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.write.ExecContext(ctx, query,
		a.AnalysisID,
		a.InputPath,
		a.SHA256,
		string(a.FileType),
		a.InstallerType,
		a.Confidence,
		a.AnalyzedAt,
		string(planJSON),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	return nil
}

// Get retrieves an analysis by ID; a unique ID prefix is accepted too
func (db *DB) Get(ctx context.Context, id string) (*Analysis, error) {
	query := `SELECT ` + selectColumns + ` FROM analyses WHERE analysis_id LIKE ? || '%' ORDER BY analysis_id LIMIT 2`

	rows, err := db.read.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query analysis: %w", err)
	}
	defer rows.Close()

	var found []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	switch {
	case len(found) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(found) > 1 && found[0].AnalysisID != id:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
	return &found[0], nil
}

// List retrieves analyses, newest first; limit <= 0 means all
func (db *DB) List(ctx context.Context, limit int) ([]Analysis, error) {
	query := `SELECT ` + selectColumns + ` FROM analyses ORDER BY analyzed_at DESC, analysis_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return analyses, nil
}

// FindBySHA256 returns the analyses recorded for identical file content
func (db *DB) FindBySHA256(ctx context.Context, sum string) ([]Analysis, error) {
	rows, err := db.read.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM analyses WHERE sha256 = ? ORDER BY analyzed_at DESC`, sum)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return analyses, nil
}

// Delete removes an analysis record
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.write.ExecContext(ctx, "DELETE FROM analyses WHERE analysis_id = ?", id)
	if err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

// Clear removes every analysis record and returns how many were removed
func (db *DB) Clear(ctx context.Context) (int64, error) {
	result, err := db.write.ExecContext(ctx, "DELETE FROM analyses")
	if err != nil {
		return 0, fmt.Errorf("clear analyses: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return rows, nil
}

func scanAnalysis(rows *sql.Rows) (*Analysis, error) {
	var a Analysis
	var fileType, planJSON string

	err := rows.Scan(
		&a.AnalysisID,
		&a.InputPath,
		&a.SHA256,
		&fileType,
		&a.InstallerType,
		&a.Confidence,
		&a.AnalyzedAt,
		&planJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("scan analysis: %w", err)
	}
	a.FileType = core.FileType(fileType)

	var plan core.InstallPlan
	if err := json.Unmarshal([]byte(planJSON), &plan); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}
	a.Plan = &plan

	return &a, nil
}
