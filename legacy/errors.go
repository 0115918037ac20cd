package legacy

import "errors"

var (
	// ErrInvalidDocument is returned when the input is not a well-formed
	// legacy project document.
	ErrInvalidDocument = errors.New("invalid legacy document")

	// ErrNoAlternatives is returned for a project without alternatives.
	ErrNoAlternatives = errors.New("legacy project has no alternatives")
)
