/*
handlers.go - HTTP API handlers for the life-cycle cost engine

PURPOSE:
  Exposes importing, browsing, editing and compiling projects via REST.
  Handles HTTP request/response and JSON serialization, and delegates to
  the legacy importer, the store and the cashflow compiler.

ENDPOINTS:
  Imports:
    POST   /api/imports                                   Import a legacy XML document

  Projects:
    GET    /api/projects                                  List projects
    GET    /api/projects/{id}                             Get project
    DELETE /api/projects/{id}                             Delete project
    GET    /api/projects/{id}/alternatives                List alternatives
    GET    /api/projects/{id}/costs                       List the cost pool
    PUT    /api/projects/{id}/costs/{costID}              Create or replace a cost
    GET    /api/projects/{id}/costs/{costID}/line-items   Compile one cost
    GET    /api/projects/{id}/request                     Build the engine request

  Scenarios:
    GET    /api/scenarios                                 List sample projects
    POST   /api/scenarios/load                            Import a sample project

REQUEST FLOW:
  1. Parse HTTP request
  2. Load the project snapshot from the Store
  3. Resolve external datasets when compiling
  4. Call the importer or compiler
  5. Serialize response or map the error

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed documents, invalid costs, unresolvable rates
  - 404: Unknown project or cost
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Built-in sample documents
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/warp/lcc-engine/cashflow"
	"github.com/warp/lcc-engine/datasource"
	"github.com/warp/lcc-engine/factory"
	"github.com/warp/lcc-engine/lcc"
	"github.com/warp/lcc-engine/legacy"
	"github.com/warp/lcc-engine/logging"
)

// maxDocumentBytes bounds legacy documents and cost bodies.
const maxDocumentBytes = 10 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    lcc.Store
	Costs    *factory.CostFactory
	Source   datasource.Source
	Defaults legacy.Defaults

	// Track the last loaded sample
	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a handler. src may be nil, in which case compilation
// runs without external datasets.
func NewHandler(store lcc.Store, src datasource.Source, defaults legacy.Defaults) *Handler {
	return &Handler{
		Store:    store,
		Costs:    factory.NewCostFactory(),
		Source:   src,
		Defaults: defaults,
	}
}

// =============================================================================
// IMPORT HANDLERS
// =============================================================================

// ImportProject stores a legacy XML document posted as the request body.
// POST /api/imports
func (h *Handler) ImportProject(w http.ResponseWriter, r *http.Request) {
	resp, err := h.importDocument(r, http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		h.fail(w, r, "Failed to import project", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) importDocument(r *http.Request, body io.Reader) (*ImportResponse, error) {
	ctx := r.Context()

	result, err := legacy.Import(ctx, body, legacy.Options{Defaults: h.Defaults})
	if err != nil {
		return nil, err
	}

	id, err := h.Store.SaveImport(ctx, result.Project, result.Alternatives, result.Costs)
	if err != nil {
		return nil, fmt.Errorf("save import: %w", err)
	}

	warnings := result.Warnings
	if warnings == nil {
		warnings = []legacy.Warning{}
	}
	return &ImportResponse{
		ProjectID:    id,
		ImportID:     result.Project.ImportID,
		Name:         result.Project.Name,
		Alternatives: len(result.Alternatives),
		Costs:        len(result.Costs),
		Warnings:     warnings,
	}, nil
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// ListProjects returns a summary of every stored project.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list projects", err)
		return
	}

	dtos := make([]ProjectSummaryDTO, len(projects))
	for i, p := range projects {
		dtos[i] = ProjectSummaryDTO{
			ID:           p.ID,
			Name:         p.Name,
			DollarMethod: p.DollarMethod,
			StudyPeriod:  p.StudyPeriod,
			Alternatives: len(p.Alternatives),
			Costs:        len(p.Costs),
			ImportID:     p.ImportID,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProject returns one project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	p, err := h.Store.GetProject(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to get project", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProject removes a project with its alternatives and costs.
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	if err := h.Store.DeleteProject(r.Context(), id); err != nil {
		h.fail(w, r, "Failed to delete project", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ListAlternatives returns the project's alternatives.
func (h *Handler) ListAlternatives(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	alts, err := h.Store.GetAlternatives(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to list alternatives", err)
		return
	}
	writeJSON(w, http.StatusOK, alts)
}

// =============================================================================
// COST HANDLERS
// =============================================================================

// ListCosts returns the project's cost pool.
func (h *Handler) ListCosts(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	costs, err := h.Store.GetCosts(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to list costs", err)
		return
	}

	resp := CostsResponse{Costs: make([]json.RawMessage, 0, len(costs))}
	for _, c := range costs {
		raw, err := h.Costs.MarshalCost(c)
		if err != nil {
			h.fail(w, r, "Failed to encode cost", err)
			return
		}
		resp.Costs = append(resp.Costs, raw)
	}
	writeJSON(w, http.StatusOK, resp)
}

// PutCost creates or replaces one cost from its JSON record. The record's
// id must match the URL.
func (h *Handler) PutCost(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	costID, ok := urlID(w, r, "costID")
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cost, err := h.Costs.ParseCost(body)
	if err != nil {
		h.fail(w, r, "Invalid cost", err)
		return
	}
	if cost.Base().ID != costID {
		writeError(w, http.StatusBadRequest, "Cost id does not match URL",
			fmt.Errorf("body has id %d, URL has %d", cost.Base().ID, costID))
		return
	}

	if err := h.Store.PutCost(r.Context(), id, cost); err != nil {
		h.fail(w, r, "Failed to save cost", err)
		return
	}

	raw, err := h.Costs.MarshalCost(cost)
	if err != nil {
		h.fail(w, r, "Failed to encode cost", err)
		return
	}
	writeJSON(w, http.StatusOK, json.RawMessage(raw))
}

// GetLineItems compiles one cost against its project.
func (h *Handler) GetLineItems(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}
	costID, ok := urlID(w, r, "costID")
	if !ok {
		return
	}

	ctx := r.Context()
	snap, err := lcc.LoadSnapshot(ctx, h.Store, id)
	if err != nil {
		h.fail(w, r, "Failed to load project", err)
		return
	}

	var cost lcc.Cost
	for _, c := range snap.Costs {
		if c.Base().ID == costID {
			cost = c
			break
		}
	}
	if cost == nil {
		h.fail(w, r, "Failed to compile cost", fmt.Errorf("%w: %d", lcc.ErrCostNotFound, costID))
		return
	}

	env := datasource.Resolve(ctx, h.Source, snap.Project)
	compiler, err := cashflow.NewCompiler(snap.Project, env)
	if err != nil {
		h.fail(w, r, "Failed to compile cost", err)
		return
	}

	items := compiler.Compile(cost)
	if items == nil {
		items = []cashflow.LineItem{}
	}
	writeJSON(w, http.StatusOK, LineItemsResponse{
		CostID:    costID,
		Kind:      cost.Kind(),
		LineItems: items,
	})
}

// GetRequest builds the engine request of a whole project.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := projectID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	snap, err := lcc.LoadSnapshot(ctx, h.Store, id)
	if err != nil {
		h.fail(w, r, "Failed to load project", err)
		return
	}

	env := datasource.Resolve(ctx, h.Source, snap.Project)
	req, err := cashflow.BuildRequest(snap.Project, snap.Alternatives, snap.Costs, env)
	if err != nil {
		h.fail(w, r, "Failed to build request", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// fail maps err to a status code. Server errors are logged with the
// request's logger.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger := logging.Component(r.Context(), "api")
		logger.Error().Err(err).Str("path", r.URL.Path).Msg(message)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case lcc.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case lcc.IsClientError(err),
		errors.Is(err, legacy.ErrInvalidDocument),
		errors.Is(err, legacy.ErrNoAlternatives):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func projectID(w http.ResponseWriter, r *http.Request) (lcc.ID, bool) {
	return urlID(w, r, "id")
}

func urlID(w http.ResponseWriter, r *http.Request, param string) (lcc.ID, bool) {
	raw := chi.URLParam(r, param)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s %q", param, raw), err)
		return 0, false
	}
	return lcc.ID(n), true
}
