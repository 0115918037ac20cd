/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Import of legacy documents (ImportProject)
- Project browsing and deletion
- Cost upsert validation (PutCost)
- Compilation endpoints (GetLineItems, GetRequest)
- Error to status mapping
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lcc-engine/cashflow"
	"github.com/warp/lcc-engine/datasource"
	"github.com/warp/lcc-engine/lcc"
	"github.com/warp/lcc-engine/legacy"
	"github.com/warp/lcc-engine/store/sqlite"
)

const testDataset = `
emissions:
  - releaseYear: 2023
    state: AZ
    values: [400, 390, 380, 370, 360, 350, 340, 330, 320, 310, 300, 290, 280, 270, 260, 250]
socialCostOfCarbon:
  - releaseYear: 2023
    values: [0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05, 0.05]
`

func setupTestHandler(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	src, err := datasource.Parse([]byte(testDataset))
	require.NoError(t, err)

	h := NewHandler(store, src, legacy.DefaultDefaults())
	return h, NewRouter(h, Options{Logger: zerolog.Nop()})
}

func do(t *testing.T, router http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func importFixture(t *testing.T, router http.Handler) ImportResponse {
	t.Helper()
	doc, err := os.ReadFile("samples/federal_financed.xml")
	require.NoError(t, err)

	rec := do(t, router, http.MethodPost, "/api/imports", doc)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[ImportResponse](t, rec)
}

// =============================================================================
// IMPORT
// =============================================================================

func TestImportProject_StoresDocument(t *testing.T) {
	// GIVEN: The federal financed sample document
	// WHEN: Posting it to /api/imports
	// THEN: The project is stored with its alternatives and deduplicated costs

	_, router := setupTestHandler(t)

	resp := importFixture(t, router)

	assert.NotZero(t, resp.ProjectID)
	assert.NotEmpty(t, resp.ImportID)
	assert.Equal(t, "Lighting/Daylighting", resp.Name)
	assert.Equal(t, 2, resp.Alternatives)
	assert.Equal(t, 7, resp.Costs)
	assert.NotEmpty(t, resp.Warnings)

	rec := do(t, router, http.MethodGet, fmt.Sprintf("/api/projects/%d", resp.ProjectID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[lcc.Project](t, rec)
	assert.Equal(t, resp.ProjectID, p.ID)
	assert.Equal(t, lcc.DollarCurrent, p.DollarMethod)
	assert.Equal(t, 15, p.StudyPeriod)
}

func TestImportProject_RejectsMalformedDocument(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodPost, "/api/imports", []byte("<Project><Name>"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/imports", []byte("<Project><Name>x</Name></Project>"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "no alternatives")
}

func TestImportProject_RejectsOversizedDocument(t *testing.T) {
	// GIVEN: A document larger than the import limit
	// WHEN: Posting it
	// THEN: The request is refused as too large, not as malformed

	_, router := setupTestHandler(t)
	doc := "<Project>" + strings.Repeat(" ", maxDocumentBytes+1)

	rec := do(t, router, http.MethodPost, "/api/imports", []byte(doc))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code, rec.Body.String())
}

// =============================================================================
// PROJECTS
// =============================================================================

func TestProjects_ListAndDelete(t *testing.T) {
	_, router := setupTestHandler(t)
	resp := importFixture(t, router)

	rec := do(t, router, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]ProjectSummaryDTO](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, 7, list[0].Costs)

	path := fmt.Sprintf("/api/projects/%d", resp.ProjectID)
	rec = do(t, router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjects_Alternatives(t *testing.T) {
	_, router := setupTestHandler(t)
	resp := importFixture(t, router)

	rec := do(t, router, http.MethodGet, fmt.Sprintf("/api/projects/%d/alternatives", resp.ProjectID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	alts := decode[[]lcc.Alternative](t, rec)
	require.Len(t, alts, 2)
	assert.Equal(t, "Existing", alts[0].Name)
	assert.Equal(t, []lcc.ID{0, 1, 2}, alts[0].Costs)
}

func TestProjects_InvalidID(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodGet, "/api/projects/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// COSTS
// =============================================================================

func TestListCosts_UsesTypeDiscriminator(t *testing.T) {
	_, router := setupTestHandler(t)
	resp := importFixture(t, router)

	rec := do(t, router, http.MethodGet, fmt.Sprintf("/api/projects/%d/costs", resp.ProjectID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Costs []struct {
			Type string `json:"type"`
			ID   int    `json:"id"`
		} `json:"costs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Costs, 7)
	assert.Equal(t, string(lcc.KindCapital), body.Costs[0].Type)
	assert.Equal(t, string(lcc.KindOMR), body.Costs[1].Type)
	assert.Equal(t, string(lcc.KindEnergy), body.Costs[2].Type)
}

func TestPutCost(t *testing.T) {
	_, router := setupTestHandler(t)
	resp := importFixture(t, router)
	base := fmt.Sprintf("/api/projects/%d/costs", resp.ProjectID)

	t.Run("adds a new cost", func(t *testing.T) {
		body := `{"type":"Contract Implementation","id":9,"name":"Commissioning","cost":"1500","occurrence":2}`
		rec := do(t, router, http.MethodPut, base+"/9", []byte(body))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = do(t, router, http.MethodGet, base+"/9/line-items", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		items := decode[LineItemsResponse](t, rec)
		require.Len(t, items.LineItems, 1)
		assert.Equal(t, 2, items.LineItems[0].InitialOccurrence)
		assert.True(t, items.LineItems[0].HasTag("Implementation Contract Cost"))
	})

	t.Run("id mismatch", func(t *testing.T) {
		body := `{"type":"Contract Implementation","id":3,"name":"Commissioning","cost":"1500"}`
		rec := do(t, router, http.MethodPut, base+"/4", []byte(body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown type", func(t *testing.T) {
		rec := do(t, router, http.MethodPut, base+"/4", []byte(`{"type":"Mystery","id":4,"name":"x"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		rec := do(t, router, http.MethodPut, base+"/4", []byte(`{`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown project", func(t *testing.T) {
		body := `{"type":"Contract Implementation","id":4,"name":"Commissioning","cost":"1500"}`
		rec := do(t, router, http.MethodPut, "/api/projects/999/costs/4", []byte(body))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// =============================================================================
// COMPILATION
// =============================================================================

func TestGetLineItems_EnergyUsesDataset(t *testing.T) {
	// GIVEN: The imported electricity cost in Arizona and a dataset with AZ emissions
	// WHEN: Compiling it
	// THEN: Emission and SCC items are present next to the usage and demand items

	_, router := setupTestHandler(t)
	resp := importFixture(t, router)

	rec := do(t, router, http.MethodGet, fmt.Sprintf("/api/projects/%d/costs/2/line-items", resp.ProjectID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	items := decode[LineItemsResponse](t, rec)
	assert.Equal(t, lcc.KindEnergy, items.Kind)

	var tags []string
	for _, it := range items.LineItems {
		tags = append(tags, it.Tags[0])
	}
	assert.Contains(t, tags, "Energy")
	assert.Contains(t, tags, "Demand Charge")
	assert.Contains(t, tags, "Emissions")
	assert.Contains(t, tags, "SCC")
}

func TestGetLineItems_UnknownCost(t *testing.T) {
	_, router := setupTestHandler(t)
	resp := importFixture(t, router)

	rec := do(t, router, http.MethodGet, fmt.Sprintf("/api/projects/%d/costs/77/line-items", resp.ProjectID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRequest(t *testing.T) {
	_, router := setupTestHandler(t)
	resp := importFixture(t, router)

	rec := do(t, router, http.MethodGet, fmt.Sprintf("/api/projects/%d/request", resp.ProjectID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	req := decode[cashflow.Request](t, rec)
	assert.Equal(t, 15, req.Analysis.StudyPeriod)
	assert.False(t, req.Analysis.OutputReal)
	require.Len(t, req.Alternatives, 2)
	assert.True(t, req.Alternatives[0].Baseline)
	assert.NotEmpty(t, req.Alternatives[1].Items)
}

func TestGetRequest_WithoutDatasetStillCompiles(t *testing.T) {
	h, router := setupTestHandler(t)
	h.Source = nil
	resp := importFixture(t, router)

	rec := do(t, router, http.MethodGet, fmt.Sprintf("/api/projects/%d/request", resp.ProjectID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, strings.Contains(rec.Body.String(), `"Emissions"`))
}

// =============================================================================
// ERROR MAPPING
// =============================================================================

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"project not found", lcc.ErrProjectNotFound, http.StatusNotFound},
		{"wrapped cost not found", fmt.Errorf("x: %w", lcc.ErrCostNotFound), http.StatusNotFound},
		{"rate error", &lcc.RateError{Method: lcc.DollarCurrent, Missing: "inflation rate"}, http.StatusBadRequest},
		{"dangling", &lcc.DanglingReferenceError{AlternativeID: 1, CostID: 2}, http.StatusBadRequest},
		{"bad document", legacy.ErrInvalidDocument, http.StatusBadRequest},
		{"too large", &http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
