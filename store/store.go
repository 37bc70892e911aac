// Package store provides direct database access to the bug and project
// tables for deployments that bypass the HTTP API, supporting PostgreSQL
// and MySQL backends.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"bugscope/models"
)

// Config selects the database engine and connection parameters.
type Config struct {
	DBType   string `json:"db_type" yaml:"db_type"` // "postgresql" or "mysql"
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Database string `json:"database" yaml:"database"`
}

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

const queryTimeout = 5 * time.Second

// Store is a direct-connection bug and project store.
type Store struct {
	db     *sql.DB
	dbType string
}

// dataSource renders the driver name and DSN for a config.
func dataSource(cfg Config) (driver, dsn string, err error) {
	switch cfg.DBType {
	case "postgresql", "postgres":
		return "postgres", fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database), nil
	case "mysql":
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database), nil
	default:
		return "", "", fmt.Errorf("unsupported db_type: %q", cfg.DBType)
	}
}

// Open connects to the configured database and verifies the connection.
func Open(cfg Config) (*Store, error) {
	driver, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Store{db: db, dbType: driver}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// placeholder renders the n-th (1-based) query parameter marker for the
// active driver. pq wants $1, $2, ...; mysql wants ?.
func (s *Store) placeholder(n int) string {
	if s.dbType == "postgres" {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// EnsureSchema creates the bug and project tables when they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			repo_url VARCHAR(512) NOT NULL,
			env_vars TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS bugs (
			id VARCHAR(64) PRIMARY KEY,
			project_id VARCHAR(64) NOT NULL,
			description TEXT NOT NULL,
			status VARCHAR(32) NOT NULL,
			created_at VARCHAR(64) NOT NULL,
			user_id VARCHAR(64) NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// GetBug fetches one bug by ID.
func (s *Store) GetBug(ctx context.Context, bugID string) (*models.Bug, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT id, project_id, description, status, created_at, user_id FROM bugs WHERE id = %s",
		s.placeholder(1))
	var bug models.Bug
	err := s.db.QueryRowContext(ctx, query, bugID).Scan(
		&bug.ID, &bug.ProjectID, &bug.Description, &bug.Status, &bug.CreatedAt, &bug.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bug: %w", err)
	}
	return &bug, nil
}

// ListBugs returns all bugs for a project, newest first.
func (s *Store) ListBugs(ctx context.Context, projectID string) ([]models.Bug, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf(
		"SELECT id, project_id, description, status, created_at, user_id FROM bugs WHERE project_id = %s ORDER BY created_at DESC",
		s.placeholder(1))
	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bugs: %w", err)
	}
	defer rows.Close()

	var bugs []models.Bug
	for rows.Next() {
		var bug models.Bug
		if err := rows.Scan(&bug.ID, &bug.ProjectID, &bug.Description, &bug.Status, &bug.CreatedAt, &bug.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan bug row: %w", err)
		}
		bugs = append(bugs, bug)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bug rows: %w", err)
	}
	return bugs, nil
}

// CreateBug inserts a new bug record.
func (s *Store) CreateBug(ctx context.Context, bug models.Bug) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf(
		"INSERT INTO bugs (id, project_id, description, status, created_at, user_id) VALUES (%s, %s, %s, %s, %s, %s)",
		s.placeholder(1), s.placeholder(2), s.placeholder(3), s.placeholder(4), s.placeholder(5), s.placeholder(6))
	if _, err := s.db.ExecContext(ctx, query,
		bug.ID, bug.ProjectID, bug.Description, bug.Status, bug.CreatedAt, bug.UserID); err != nil {
		return fmt.Errorf("failed to insert bug: %w", err)
	}
	return nil
}

// UpdateDescription overwrites a bug's description and returns the updated
// record. Satisfies analysis.BugStore.
func (s *Store) UpdateDescription(ctx context.Context, bugID, description string) (*models.Bug, error) {
	qctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf("UPDATE bugs SET description = %s WHERE id = %s",
		s.placeholder(1), s.placeholder(2))
	res, err := s.db.ExecContext(qctx, query, description, bugID)
	if err != nil {
		return nil, fmt.Errorf("failed to update bug description: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return s.GetBug(ctx, bugID)
}

// UpdateStatus overwrites a bug's status.
func (s *Store) UpdateStatus(ctx context.Context, bugID, status string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf("UPDATE bugs SET status = %s WHERE id = %s",
		s.placeholder(1), s.placeholder(2))
	res, err := s.db.ExecContext(ctx, query, status, bugID)
	if err != nil {
		return fmt.Errorf("failed to update bug status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProject fetches one project by ID.
func (s *Store) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT id, name, repo_url, env_vars FROM projects WHERE id = %s",
		s.placeholder(1))
	var p models.Project
	var envVars sql.NullString
	err := s.db.QueryRowContext(ctx, query, projectID).Scan(&p.ID, &p.Name, &p.RepoURL, &envVars)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch project: %w", err)
	}
	p.EnvVars = envVars.String
	return &p, nil
}

// ListProjects returns all projects ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, "SELECT id, name, repo_url, env_vars FROM projects ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		var envVars sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.RepoURL, &envVars); err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		p.EnvVars = envVars.String
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read project rows: %w", err)
	}
	return projects, nil
}

// UpdateProjectEnvVars overwrites a project's environment-variable blob.
func (s *Store) UpdateProjectEnvVars(ctx context.Context, projectID, envVars string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf("UPDATE projects SET env_vars = %s WHERE id = %s",
		s.placeholder(1), s.placeholder(2))
	res, err := s.db.ExecContext(ctx, query, envVars, projectID)
	if err != nil {
		return fmt.Errorf("failed to update project env vars: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
