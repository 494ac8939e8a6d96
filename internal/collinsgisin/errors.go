package collinsgisin

import "fmt"

// BadCGErrorKind tags the failure modes of a Collins-Gisin tensor.
type BadCGErrorKind int

const (
	// MissingSymbols means a query touched an entry whose symbol has not
	// yet been resolved; call FillMissingSymbols first.
	MissingSymbols BadCGErrorKind = iota
	// MissingIndex means a referenced measurement id has no entry in the
	// global measurement index table.
	MissingIndex
	// BadMeasurementIndex means an outcome value is out of range for its
	// measurement's length.
	BadMeasurementIndex
	// DuplicateParty means two measurement ids in a single query name the
	// same party dimension.
	DuplicateParty
)

func (k BadCGErrorKind) String() string {
	switch k {
	case MissingSymbols:
		return "MissingSymbols"
	case MissingIndex:
		return "MissingIndex"
	case BadMeasurementIndex:
		return "BadMeasurementIndex"
	case DuplicateParty:
		return "DuplicateParty"
	default:
		return "Unknown"
	}
}

// BadCGError is the error type surfaced by the Collins-Gisin tensor.
type BadCGError struct {
	Kind   BadCGErrorKind
	Detail string
}

func (e *BadCGError) Error() string {
	return fmt.Sprintf("collinsgisin: %s: %s", e.Kind, e.Detail)
}
