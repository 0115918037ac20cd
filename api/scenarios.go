/*
scenarios.go - Built-in sample projects for demos and UI development

PURPOSE:
  Provides legacy documents compiled into the binary so a fresh server can
  be populated with realistic projects. Loading a scenario goes through the
  same import path as POST /api/imports.

AVAILABLE SCENARIOS:
  federal-financed:  Lighting retrofit financed through a utility contract,
                     current dollars, contract phase-out after ten years
  water-retrofit:    Low-flow fixtures, constant dollars, water and gas

HOW SCENARIOS WORK:
 1. Delete every stored project
 2. Import the embedded document
 3. Remember the scenario as the current one

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "federal-financed"}

ADDING NEW SCENARIOS:
 1. Drop the XML document into samples/
 2. Add an entry to 'scenarios' with its file name

NOTE:

	Loading a scenario deletes all projects. Only use in development.

SEE ALSO:
  - handlers.go: importDocument
  - legacy/import.go: Document format
*/
package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"net/http"
)

//go:embed samples/*.xml
var samples embed.FS

type scenario struct {
	ScenarioDTO
	file string
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "federal-financed",
			Name:        "Federal Financed Lighting",
			Description: "Utility-financed lighting retrofit in current dollars with a ten year contract",
		},
		file: "samples/federal_financed.xml",
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "water-retrofit",
			Name:        "Low-Flow Fixture Retrofit",
			Description: "Constant dollar comparison of water and water heating costs",
		},
		file: "samples/water_retrofit.xml",
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the last loaded scenario, or null.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	s, ok := findScenario(current)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// LoadScenario replaces every stored project with one sample.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	doc, err := samples.ReadFile(s.file)
	if err != nil {
		h.fail(w, r, "Failed to read scenario", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.reset(r); err != nil {
		h.fail(w, r, "Failed to reset projects", err)
		return
	}
	h.currentScenario = ""

	resp, err := h.importDocument(r, bytes.NewReader(doc))
	if err != nil {
		h.fail(w, r, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.currentScenario = s.ID
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": s.ID,
		"project":  resp,
	})
}

// reset deletes every stored project.
func (h *Handler) reset(r *http.Request) error {
	ctx := r.Context()
	projects, err := h.Store.ListProjects(ctx)
	if err != nil {
		return err
	}
	for _, p := range projects {
		if err := h.Store.DeleteProject(ctx, p.ID); err != nil {
			return err
		}
	}
	return nil
}
