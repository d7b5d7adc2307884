// Package unit defines the core design-unit data model: identifiers,
// provided units, and required references. These types are shared by the
// lexer, index, resolver and orderer and never mutated after construction.
package unit

import "strings"

// Kind is the VHDL design unit kind.
type Kind int

const (
	Entity Kind = iota
	Architecture
	Package
	PackageBody
	Configuration
)

func (k Kind) String() string {
	switch k {
	case Entity:
		return "entity"
	case Architecture:
		return "architecture"
	case Package:
		return "package"
	case PackageBody:
		return "package-body"
	case Configuration:
		return "configuration"
	default:
		return "unknown"
	}
}

// ID identifies a design unit by library, kind and name. Names and
// libraries are always case-folded; Of carries the bound unit's name for
// secondary units (architecture-of-entity, body-of-package) and for a
// configuration declaration (its entity), and is empty for entities,
// packages and configuration references.
type ID struct {
	Library string
	Kind    Kind
	Name    string
	Of      string
}

// Fold lower-cases a VHDL identifier. VHDL identifiers are case-insensitive.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NewID builds a case-folded design unit identifier.
func NewID(library string, kind Kind, name, of string) ID {
	return ID{
		Library: Fold(library),
		Kind:    kind,
		Name:    Fold(name),
		Of:      Fold(of),
	}
}

// IsSecondary reports whether the unit is an architecture or package body,
// i.e. bound to a primary unit rather than named at library scope.
func (id ID) IsSecondary() bool {
	return id.Kind == Architecture || id.Kind == PackageBody
}

// Primary returns the ID of the primary unit this secondary unit depends
// on by rule (architecture->entity, body->package). It panics if called on
// a primary unit; callers must check IsSecondary first.
func (id ID) Primary() ID {
	switch id.Kind {
	case Architecture:
		return ID{Library: id.Library, Kind: Entity, Name: id.Of}
	case PackageBody:
		return ID{Library: id.Library, Kind: Package, Name: id.Of}
	default:
		panic("unit: Primary called on a primary unit")
	}
}

// Version is a VHDL standard year, e.g. 1993, 2008. Zero means unconstrained
// ("universal" in spec terms is represented as an empty VersionSet).
type Version int

// VersionSet is the set of VHDL versions a file declares compatibility
// with via filename tags. An empty set means "universal" (compatible with
// any requested version).
type VersionSet map[Version]bool

// Universal reports whether the set places no constraint on version.
func (vs VersionSet) Universal() bool {
	return len(vs) == 0
}

// Contains reports whether v is in the set, or the set is universal.
func (vs VersionSet) Contains(v Version) bool {
	if vs.Universal() {
		return true
	}
	return vs[v]
}

// Highest returns the highest version in the set that is <= requested,
// and whether any version qualified.
func (vs VersionSet) Highest(requested Version) (Version, bool) {
	best := Version(0)
	found := false
	for v := range vs {
		if v <= requested && (!found || v > best) {
			best, found = v, true
		}
	}
	return best, found
}

// Context restricts a file to simulation-only, synthesis-only, or both.
type Context int

const (
	Universal Context = iota
	SimOnly
	SynOnly
)

func (c Context) String() string {
	switch c {
	case SimOnly:
		return "sim"
	case SynOnly:
		return "syn"
	default:
		return "universal"
	}
}

// RequestedContext is the context a resolution is performed for.
type RequestedContext int

const (
	Simulation RequestedContext = iota
	Synthesis
)

// CompatibleWith reports whether a file with context c is eligible for a
// resolution requested under rc (spec.md §4.3 step 1).
func (c Context) CompatibleWith(rc RequestedContext) bool {
	switch c {
	case Universal:
		return true
	case SimOnly:
		return rc == Simulation
	case SynOnly:
		return rc == Synthesis
	default:
		return false
	}
}

// RefKind classifies a required reference (spec.md §3 "Reference edge").
type RefKind int

const (
	InstantiationDirect RefKind = iota
	InstantiationComponent
	PackageUse
	ArchitectureOf
	BodyOf
)

func (k RefKind) String() string {
	switch k {
	case InstantiationDirect:
		return "instantiation-direct"
	case InstantiationComponent:
		return "instantiation-component"
	case PackageUse:
		return "package-use"
	case ArchitectureOf:
		return "architecture-of"
	case BodyOf:
		return "body-of"
	default:
		return "unknown"
	}
}

// Provided is one file claiming to provide one design unit: the unit's
// identifier, the source file and the declaring line (spec.md §3
// "Provided-unit record"). The file's VHDL versions are not stored here;
// the index keeps them per file in index.FileMeta.
type Provided struct {
	ID      ID
	File    string
	Line    int
	DisplayName string // original case, for diagnostics only
}

// Required is a reference edge: a consumer file needs some design unit to
// exist, under the given reference kind (spec.md §3 "Reference edge").
type Required struct {
	Consumer    string
	ID          ID
	Kind        RefKind
	Line        int
	DisplayName string
	// Scope lists the libraries in scope at the point of this reference
	// (from `library L1, L2;` clauses), used for component resolution.
	Scope []string
}
