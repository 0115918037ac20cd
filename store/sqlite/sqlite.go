/*
Package sqlite provides a SQLite-backed implementation of lcc.Store.

PURPOSE:
  Persists imported projects with their alternatives and cost pools so the
  HTTP server can compile them later. The model types are stored as JSON
  documents next to the columns the queries filter on.

KEY TABLES:
  projects:     One row per import, the project record as JSON
  alternatives: Keyed by (project_id, id), cost references as JSON
  costs:        Keyed by (project_id, id), the factory encoding of the cost

ATOMIC IMPORTS:
  SaveImport writes every row of an import in one SQL transaction. A
  failure anywhere rolls back the project row as well.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Readers don't block writers
  - Foreign keys cascade project deletion to its rows

MIGRATION:
  Schema is created automatically on first connection. Uses CREATE TABLE
  IF NOT EXISTS so reopening an existing database is safe.

SEE ALSO:
  - lcc/store.go: Interface definition
  - factory/cost.go: Cost encoding
  - lcc/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/lcc-engine/factory"
	"github.com/warp/lcc-engine/lcc"
)

// Store implements lcc.Store using SQLite.
type Store struct {
	db    *sql.DB
	mu    sync.RWMutex
	costs *factory.CostFactory
}

var _ lcc.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database lives as long as its connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, costs: factory.NewCostFactory()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		import_id TEXT,
		project_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_import
		ON projects(import_id);

	CREATE TABLE IF NOT EXISTS alternatives (
		project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		id INTEGER NOT NULL,
		name TEXT NOT NULL,
		baseline BOOLEAN DEFAULT FALSE,
		alternative_json TEXT NOT NULL,
		PRIMARY KEY (project_id, id)
	);

	CREATE TABLE IF NOT EXISTS costs (
		project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		cost_json TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (project_id, id)
	);

	CREATE INDEX IF NOT EXISTS idx_costs_kind
		ON costs(project_id, kind);
	`

	_, err := s.db.Exec(schema)
	return err
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// =============================================================================
// PROJECTS
// =============================================================================

// SaveImport persists a project and its records atomically.
func (s *Store) SaveImport(ctx context.Context, p *lcc.Project, alternatives []lcc.Alternative, costs []lcc.Cost) (lcc.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO projects (name, import_id, project_json, created_at, updated_at) VALUES (?, ?, '{}', ?, ?)`,
		p.Name, nullString(p.ImportID), now, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert project: %w", err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	id := lcc.ID(rowID)

	saved := *p
	saved.ID = id
	if err := writeProject(ctx, tx, &saved); err != nil {
		return 0, err
	}

	for _, a := range alternatives {
		altJSON, err := json.Marshal(a)
		if err != nil {
			return 0, fmt.Errorf("failed to encode alternative %d: %w", a.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO alternatives (project_id, id, name, baseline, alternative_json) VALUES (?, ?, ?, ?, ?)`,
			id, a.ID, a.Name, a.Baseline, string(altJSON),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert alternative %d: %w", a.ID, err)
		}
	}

	for _, c := range costs {
		if err := s.upsertCost(ctx, tx, id, c); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return id, nil
}

func writeProject(ctx context.Context, db execer, p *lcc.Project) error {
	projectJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`UPDATE projects SET name = ?, project_json = ?, updated_at = ? WHERE id = ?`,
		p.Name, string(projectJSON), time.Now().UTC().Format(time.RFC3339), p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to write project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by id.
func (s *Store) GetProject(ctx context.Context, id lcc.ID) (*lcc.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getProject(ctx, s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) getProject(ctx context.Context, db queryRower, id lcc.ID) (*lcc.Project, error) {
	var raw string
	err := db.QueryRowContext(ctx, `SELECT project_json FROM projects WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, lcc.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	var p lcc.Project
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to decode project %d: %w", id, err)
	}
	p.ID = id
	return &p, nil
}

// ListProjects returns every project ordered by id.
func (s *Store) ListProjects(ctx context.Context) ([]lcc.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, project_json FROM projects ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []lcc.Project
	for rows.Next() {
		var id lcc.ID
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var p lcc.Project
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, fmt.Errorf("failed to decode project %d: %w", id, err)
		}
		p.ID = id
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// DeleteProject removes a project. Its alternatives and costs go with it.
func (s *Store) DeleteProject(ctx context.Context, id lcc.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return lcc.ErrProjectNotFound
	}
	return nil
}

// =============================================================================
// ALTERNATIVES
// =============================================================================

// GetAlternatives returns the project's alternatives ordered by id.
func (s *Store) GetAlternatives(ctx context.Context, projectID lcc.ID) ([]lcc.Alternative, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.getProject(ctx, s.db, projectID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT alternative_json FROM alternatives WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alternatives: %w", err)
	}
	defer rows.Close()

	alternatives := []lcc.Alternative{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var a lcc.Alternative
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, fmt.Errorf("failed to decode alternative: %w", err)
		}
		alternatives = append(alternatives, a)
	}
	return alternatives, rows.Err()
}

// =============================================================================
// COSTS
// =============================================================================

// GetCosts returns the project's cost pool ordered by id.
func (s *Store) GetCosts(ctx context.Context, projectID lcc.ID) ([]lcc.Cost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.getProject(ctx, s.db, projectID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cost_json FROM costs WHERE project_id = ? ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query costs: %w", err)
	}
	defer rows.Close()

	costs := []lcc.Cost{}
	for rows.Next() {
		var id lcc.ID
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		c, err := s.costs.DecodeCost([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to decode cost %d: %w", id, err)
		}
		costs = append(costs, c)
	}
	return costs, rows.Err()
}

// PutCost inserts or replaces one cost. A new id is appended to the
// project's pool.
func (s *Store) PutCost(ctx context.Context, projectID lcc.ID, cost lcc.Cost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := s.getProject(ctx, tx, projectID)
	if err != nil {
		return err
	}
	if err := s.upsertCost(ctx, tx, projectID, cost); err != nil {
		return err
	}

	id := cost.Base().ID
	if !containsID(p.Costs, id) {
		p.Costs = append(p.Costs, id)
		if err := writeProject(ctx, tx, p); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) upsertCost(ctx context.Context, db execer, projectID lcc.ID, cost lcc.Cost) error {
	encoded, err := s.costs.MarshalCost(cost)
	if err != nil {
		return fmt.Errorf("failed to encode cost %d: %w", cost.Base().ID, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO costs (project_id, id, kind, name, cost_json, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(project_id, id) DO UPDATE SET
			kind = excluded.kind,
			name = excluded.name,
			cost_json = excluded.cost_json,
			updated_at = excluded.updated_at
	`,
		projectID,
		cost.Base().ID,
		string(cost.Kind()),
		cost.Base().Name,
		string(encoded),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save cost %d: %w", cost.Base().ID, err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func containsID(ids []lcc.ID, id lcc.ID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
