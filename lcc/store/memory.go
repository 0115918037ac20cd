// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/lcc-engine/lcc"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	nextID   lcc.ID
	projects map[lcc.ID]*entry
}

type entry struct {
	project      lcc.Project
	alternatives []lcc.Alternative
	costs        map[lcc.ID]lcc.Cost
}

func NewMemory() *Memory {
	return &Memory{
		nextID:   1,
		projects: make(map[lcc.ID]*entry),
	}
}

// SaveImport stores the project and its records under a fresh id.
func (m *Memory) SaveImport(_ context.Context, p *lcc.Project, alternatives []lcc.Alternative, costs []lcc.Cost) (lcc.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++

	e := &entry{
		project:      *p,
		alternatives: append([]lcc.Alternative(nil), alternatives...),
		costs:        make(map[lcc.ID]lcc.Cost, len(costs)),
	}
	e.project.ID = id
	e.project.Alternatives = append([]lcc.ID(nil), p.Alternatives...)
	e.project.Costs = append([]lcc.ID(nil), p.Costs...)
	for _, c := range costs {
		e.costs[c.Base().ID] = c
	}
	m.projects[id] = e
	return id, nil
}

func (m *Memory) GetProject(_ context.Context, id lcc.ID) (*lcc.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.projects[id]
	if !ok {
		return nil, lcc.ErrProjectNotFound
	}
	p := e.project
	p.Costs = append([]lcc.ID(nil), e.project.Costs...)
	return &p, nil
}

func (m *Memory) ListProjects(_ context.Context) ([]lcc.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]lcc.Project, 0, len(m.projects))
	for _, e := range m.projects {
		out = append(out, e.project)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetAlternatives(_ context.Context, projectID lcc.ID) ([]lcc.Alternative, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.projects[projectID]
	if !ok {
		return nil, lcc.ErrProjectNotFound
	}
	out := append([]lcc.Alternative(nil), e.alternatives...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetCosts(_ context.Context, projectID lcc.ID) ([]lcc.Cost, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.projects[projectID]
	if !ok {
		return nil, lcc.ErrProjectNotFound
	}
	out := make([]lcc.Cost, 0, len(e.costs))
	for _, c := range e.costs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Base().ID < out[j].Base().ID })
	return out, nil
}

// PutCost replaces the cost with the same id, or adds it to the pool.
func (m *Memory) PutCost(_ context.Context, projectID lcc.ID, cost lcc.Cost) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.projects[projectID]
	if !ok {
		return lcc.ErrProjectNotFound
	}
	id := cost.Base().ID
	if _, exists := e.costs[id]; !exists {
		e.project.Costs = append(e.project.Costs, id)
	}
	e.costs[id] = cost
	return nil
}

func (m *Memory) DeleteProject(_ context.Context, id lcc.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[id]; !ok {
		return lcc.ErrProjectNotFound
	}
	delete(m.projects, id)
	return nil
}

var _ lcc.Store = (*Memory)(nil)
