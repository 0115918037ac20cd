/*
store.go - Persistence interface for projects, alternatives and costs

PURPOSE:
  Defines the interface between the HTTP and CLI layers and the database.
  The life-cycle cost engine itself never touches a Store: importers
  produce records, the Store keeps them, the compiler reads them.

ATOMIC IMPORTS:
  SaveImport writes a project together with all its alternatives and
  costs. Either everything is written or nothing is, so a half-imported
  legacy file can never be compiled.

IDS:
  Project ids are assigned by the Store. Alternative and cost ids are
  scoped to their project and kept exactly as the importer assigned them,
  because alternatives reference costs by those ids.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite with WAL
  - lcc/store/memory.go: In-memory for tests and the CLI

SEE ALSO:
  - factory/cost.go: Cost encoding used by the SQLite store
*/
package lcc

import "context"

// Store persists projects with their alternatives and cost pools.
type Store interface {
	// SaveImport persists a project and its records atomically and returns
	// the assigned project id. The project's ID field is ignored.
	SaveImport(ctx context.Context, p *Project, alternatives []Alternative, costs []Cost) (ID, error)

	// GetProject returns ErrProjectNotFound for unknown ids.
	GetProject(ctx context.Context, id ID) (*Project, error)

	// ListProjects returns every project ordered by id.
	ListProjects(ctx context.Context) ([]Project, error)

	// GetAlternatives returns the project's alternatives ordered by id.
	GetAlternatives(ctx context.Context, projectID ID) ([]Alternative, error)

	// GetCosts returns the project's cost pool ordered by id.
	GetCosts(ctx context.Context, projectID ID) ([]Cost, error)

	// PutCost inserts or replaces one cost of a project.
	PutCost(ctx context.Context, projectID ID, cost Cost) error

	// DeleteProject removes a project and everything it owns.
	DeleteProject(ctx context.Context, id ID) error
}

// Snapshot is a project with everything it owns, as loaded from a Store.
type Snapshot struct {
	Project      *Project
	Alternatives []Alternative
	Costs        []Cost
}

// LoadSnapshot reads a project and its records from a store.
func LoadSnapshot(ctx context.Context, s Store, id ID) (*Snapshot, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	alts, err := s.GetAlternatives(ctx, id)
	if err != nil {
		return nil, err
	}
	costs, err := s.GetCosts(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Project: p, Alternatives: alts, Costs: costs}, nil
}
