/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication that are not model
  types. Projects and alternatives are served as their lcc JSON encoding,
  costs as the factory encoding with its "type" discriminator.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

SEE ALSO:
  - handlers.go: Uses these types
  - factory/cost.go: Cost encoding
*/
package api

import (
	"encoding/json"

	"github.com/warp/lcc-engine/cashflow"
	"github.com/warp/lcc-engine/legacy"
	"github.com/warp/lcc-engine/lcc"
)

// ImportResponse is returned after a legacy document was stored.
type ImportResponse struct {
	ProjectID    lcc.ID           `json:"projectId"`
	ImportID     string           `json:"importId"`
	Name         string           `json:"name"`
	Alternatives int              `json:"alternatives"`
	Costs        int              `json:"costs"`
	Warnings     []legacy.Warning `json:"warnings"`
}

// ProjectSummaryDTO is one row of the project list.
type ProjectSummaryDTO struct {
	ID           lcc.ID           `json:"id"`
	Name         string           `json:"name"`
	DollarMethod lcc.DollarMethod `json:"dollarMethod"`
	StudyPeriod  int              `json:"studyPeriod"`
	Alternatives int              `json:"alternatives"`
	Costs        int              `json:"costs"`
	ImportID     string           `json:"importId,omitempty"`
}

// CostsResponse lists a cost pool in the factory encoding.
type CostsResponse struct {
	Costs []json.RawMessage `json:"costs"`
}

// LineItemsResponse is the compiled form of a single cost.
type LineItemsResponse struct {
	CostID    lcc.ID              `json:"costId"`
	Kind      lcc.Kind            `json:"kind"`
	LineItems []cashflow.LineItem `json:"lineItems"`
}

// ScenarioDTO represents a built-in sample project.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects the sample to import.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
