// Package diag implements the closed diagnostic taxonomy of spec.md §7 as
// a tagged variant type, rather than the dynamically-typed dict the source
// tool uses (spec.md §9 "Dynamic typing / duck-typed diagnostics").
package diag

import "fmt"

// Kind is the diagnostic taxonomy of spec.md §7.
type Kind int

const (
	IoFailure Kind = iota
	ParseAnomaly
	DuplicateProvider
	UnresolvedReference
	Cycle
	NoTop
	Style
	InconsistentIndex
)

func (k Kind) String() string {
	switch k {
	case IoFailure:
		return "IoFailure"
	case ParseAnomaly:
		return "ParseAnomaly"
	case DuplicateProvider:
		return "DuplicateProvider"
	case UnresolvedReference:
		return "UnresolvedReference"
	case Cycle:
		return "Cycle"
	case NoTop:
		return "NoTop"
	case Style:
		return "Style"
	case InconsistentIndex:
		return "InconsistentIndex"
	default:
		return "Unknown"
	}
}

// Diagnostic carries a location, a message, and whether it is fatal.
// IoFailure and InconsistentIndex are always fatal by construction
// (spec.md §7 "Propagation"); other kinds carry Fatal explicitly since
// their severity depends on context (e.g. UnresolvedReference is fatal for
// a normal-mode consumer but a warning for a black-box one).
type Diagnostic struct {
	Kind    Kind
	File    string
	Line    int
	Message string
	Fatal   bool
	// Cause can carry an underlying error behind this diagnostic. No stage
	// of the pipeline sets it: an UnresolvedReference caused by a file
	// dropped for a ParseAnomaly does not link back to that anomaly.
	Cause error
}

func (d Diagnostic) Error() string {
	loc := d.File
	if d.Line > 0 {
		loc = fmt.Sprintf("%s:%d", d.File, d.Line)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", loc, d.Kind, d.Message)
}

// List accumulates diagnostics across a pipeline stage (spec.md §7: "the
// core runs to the end of each stage before surfacing them, so a user sees
// every black-box and every cycle in one pass").
type List struct {
	items []Diagnostic
}

// Add appends a diagnostic to the list.
func (l *List) Add(d Diagnostic) {
	l.items = append(l.items, d)
}

// Fatal reports whether any accumulated diagnostic is fatal.
func (l *List) Fatal() bool {
	for _, d := range l.items {
		if d.Fatal {
			return true
		}
	}
	return false
}

// All returns every accumulated diagnostic.
func (l *List) All() []Diagnostic {
	return l.items
}

// Warnings returns only the non-fatal diagnostics.
func (l *List) Warnings() []Diagnostic {
	var out []Diagnostic
	for _, d := range l.items {
		if !d.Fatal {
			out = append(out, d)
		}
	}
	return out
}

// Fatals returns only the fatal diagnostics.
func (l *List) Fatals() []Diagnostic {
	var out []Diagnostic
	for _, d := range l.items {
		if d.Fatal {
			out = append(out, d)
		}
	}
	return out
}

// Merge appends every diagnostic from other onto l.
func (l *List) Merge(other List) {
	l.items = append(l.items, other.items...)
}
