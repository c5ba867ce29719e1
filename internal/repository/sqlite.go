package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/xiaot623/workforce/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS deployments (
			deployment_id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			phase TEXT NOT NULL DEFAULT '',
			config TEXT NOT NULL,
			workers_created INTEGER NOT NULL DEFAULT 0,
			activity_count INTEGER NOT NULL DEFAULT 0,
			started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			stopped_at DATETIME,
			completed_at DATETIME,
			error TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deployments_status ON deployments(status, started_at)`,
		`CREATE TABLE IF NOT EXISTS logs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			deployment_id TEXT NOT NULL,
			line TEXT NOT NULL,
			FOREIGN KEY (deployment_id) REFERENCES deployments(deployment_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_logs_deployment ON logs(deployment_id, seq)`,
		`CREATE TABLE IF NOT EXISTS activities (
			activity_id TEXT PRIMARY KEY,
			deployment_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			worker_id TEXT NOT NULL,
			department TEXT NOT NULL,
			ts DATETIME NOT NULL,
			subject TEXT,
			FOREIGN KEY (deployment_id) REFERENCES deployments(deployment_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_deployment ON activities(deployment_id, ts)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateDeployment inserts a new deployment record.
func (s *SQLiteStore) CreateDeployment(ctx context.Context, d *domain.Deployment) error {
	cfg, err := json.Marshal(d.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO deployments (deployment_id, status, phase, config, workers_created, activity_count, started_at, stopped_at, completed_at, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.DeploymentID, string(d.Status), d.Phase, string(cfg), d.WorkersCreated, d.ActivityCount,
		d.StartedAt, d.StoppedAt, d.CompletedAt, nullIfEmpty(d.Error))
	return err
}

// GetDeployment retrieves a deployment by ID. Returns (nil, nil) when missing.
func (s *SQLiteStore) GetDeployment(ctx context.Context, deploymentID string) (*domain.Deployment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT deployment_id, status, phase, config, workers_created, activity_count, started_at, stopped_at, completed_at, error
		 FROM deployments WHERE deployment_id = ?`, deploymentID)

	d, err := scanDeployment(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateDeployment rewrites the mutable fields of a deployment record.
func (s *SQLiteStore) UpdateDeployment(ctx context.Context, d *domain.Deployment) error {
	cfg, err := json.Marshal(d.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE deployments SET status = ?, phase = ?, config = ?, workers_created = ?, activity_count = ?, stopped_at = ?, completed_at = ?, error = ?
		 WHERE deployment_id = ?`,
		string(d.Status), d.Phase, string(cfg), d.WorkersCreated, d.ActivityCount,
		d.StoppedAt, d.CompletedAt, nullIfEmpty(d.Error), d.DeploymentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrDeploymentNotFound
	}
	return nil
}

// UpdateDeploymentIf rewrites the record only while the stored status still
// equals expect, so late writers cannot revert a terminal transition.
func (s *SQLiteStore) UpdateDeploymentIf(ctx context.Context, d *domain.Deployment, expect domain.DeploymentStatus) (bool, error) {
	cfg, err := json.Marshal(d.Config)
	if err != nil {
		return false, fmt.Errorf("failed to marshal config: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE deployments SET status = ?, phase = ?, config = ?, workers_created = ?, activity_count = ?, stopped_at = ?, completed_at = ?, error = ?
		 WHERE deployment_id = ? AND status = ?`,
		string(d.Status), d.Phase, string(cfg), d.WorkersCreated, d.ActivityCount,
		d.StoppedAt, d.CompletedAt, nullIfEmpty(d.Error), d.DeploymentID, string(expect))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListDeployments returns all deployments, oldest first.
func (s *SQLiteStore) ListDeployments(ctx context.Context) ([]domain.Deployment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT deployment_id, status, phase, config, workers_created, activity_count, started_at, stopped_at, completed_at, error
		 FROM deployments ORDER BY started_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Deployment
	for rows.Next() {
		d, err := scanDeployment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func scanDeployment(scan func(dest ...interface{}) error) (*domain.Deployment, error) {
	var d domain.Deployment
	var status, cfg string
	var stoppedAt, completedAt sql.NullTime
	var errText sql.NullString

	if err := scan(&d.DeploymentID, &status, &d.Phase, &cfg, &d.WorkersCreated, &d.ActivityCount,
		&d.StartedAt, &stoppedAt, &completedAt, &errText); err != nil {
		return nil, err
	}

	d.Status = domain.DeploymentStatus(status)
	if err := json.Unmarshal([]byte(cfg), &d.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if stoppedAt.Valid {
		t := stoppedAt.Time
		d.StoppedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		d.CompletedAt = &t
	}
	if errText.Valid {
		d.Error = errText.String
	}
	return &d, nil
}

// AppendLogLine appends one formatted line to a deployment's log stream.
func (s *SQLiteStore) AppendLogLine(ctx context.Context, deploymentID, line string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO logs (deployment_id, line) VALUES (?, ?)`, deploymentID, line)
	return err
}

// GetLogLines returns the last n log lines for a deployment, oldest first.
func (s *SQLiteStore) GetLogLines(ctx context.Context, deploymentID string, n int) ([]string, error) {
	if n <= 0 {
		n = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT line FROM (
			SELECT seq, line FROM logs WHERE deployment_id = ? ORDER BY seq DESC LIMIT ?
		 ) ORDER BY seq ASC`, deploymentID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// CreateActivity inserts a fired activity.
func (s *SQLiteStore) CreateActivity(ctx context.Context, a *domain.Activity) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activities (activity_id, deployment_id, kind, worker_id, department, ts, subject)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ActivityID, a.DeploymentID, string(a.Kind), a.WorkerID, string(a.Department), a.Ts, nullIfEmpty(a.Subject))
	return err
}

// CountActivities returns the number of recorded activities for a deployment.
func (s *SQLiteStore) CountActivities(ctx context.Context, deploymentID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM activities WHERE deployment_id = ?`, deploymentID).Scan(&n)
	return n, err
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
