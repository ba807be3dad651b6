package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrorKind discriminates fatal parse failures.
type ErrorKind int

// Error kinds. Every kind aborts the whole statement.
const (
	KindUnknown ErrorKind = iota
	KindUnsupportedInstitution
	KindStructuralExtraction
	KindReconciliationMismatch
	KindInvalidCategory
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnsupportedInstitution:
		return "unsupported_institution"
	case KindStructuralExtraction:
		return "structural_extraction"
	case KindReconciliationMismatch:
		return "reconciliation_mismatch"
	case KindInvalidCategory:
		return "invalid_category"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrUnsupportedInstitution = &Error{Kind: KindUnsupportedInstitution}
	ErrStructuralExtraction   = &Error{Kind: KindStructuralExtraction}
	ErrReconciliationMismatch = &Error{Kind: KindReconciliationMismatch}
	ErrInvalidCategory        = &Error{Kind: KindInvalidCategory}
)

// CategoryViolation describes one transaction whose classification is not in the catalog.
type CategoryViolation struct {
	Description string
	Category    string
	Subcategory string
	// Suggestion is the closest catalog entry, if any.
	Suggestion string
}

func (v CategoryViolation) String() string {
	var b strings.Builder
	if v.Subcategory != "" {
		fmt.Fprintf(&b, "%q: subcategory %q not valid for category %q", v.Description, v.Subcategory, v.Category)
	} else {
		fmt.Fprintf(&b, "%q: unknown category %q", v.Description, v.Category)
	}
	if v.Suggestion != "" {
		fmt.Fprintf(&b, " (did you mean %q?)", v.Suggestion)
	}
	return b.String()
}

// Error is a fatal statement parse failure.
type Error struct {
	Kind ErrorKind
	// Institution is set for KindUnsupportedInstitution.
	Institution string
	// Detail describes structural failures.
	Detail string
	// Computed and Expected are set for KindReconciliationMismatch.
	Computed decimal.Decimal
	Expected decimal.Decimal
	// Violations is set for KindInvalidCategory.
	Violations []CategoryViolation
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnsupportedInstitution:
		return fmt.Sprintf("unsupported institution: %q", e.Institution)
	case KindStructuralExtraction:
		return "structural extraction failure: " + e.Detail
	case KindReconciliationMismatch:
		return fmt.Sprintf("reconciliation mismatch: computed %s, expected %s (difference %s)",
			e.Computed.StringFixed(2), e.Expected.StringFixed(2), e.Computed.Sub(e.Expected).Abs().StringFixed(2))
	case KindInvalidCategory:
		parts := make([]string, 0, len(e.Violations))
		for _, v := range e.Violations {
			parts = append(parts, v.String())
		}
		return fmt.Sprintf("invalid category assignment (%d): %s", len(e.Violations), strings.Join(parts, "; "))
	default:
		return "unknown parse failure"
	}
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// UnsupportedInstitution returns a KindUnsupportedInstitution error.
func UnsupportedInstitution(id string) *Error {
	return &Error{Kind: KindUnsupportedInstitution, Institution: id}
}

// StructuralFailure returns a KindStructuralExtraction error.
func StructuralFailure(format string, args ...any) *Error {
	return &Error{Kind: KindStructuralExtraction, Detail: fmt.Sprintf(format, args...)}
}

// ReconciliationMismatch returns a KindReconciliationMismatch error.
func ReconciliationMismatch(computed, expected decimal.Decimal) *Error {
	return &Error{Kind: KindReconciliationMismatch, Computed: computed, Expected: expected}
}

// InvalidCategory returns a KindInvalidCategory error.
func InvalidCategory(violations []CategoryViolation) *Error {
	return &Error{Kind: KindInvalidCategory, Violations: violations}
}
