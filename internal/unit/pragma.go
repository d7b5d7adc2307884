package unit

// PragmaKind classifies an in-file pragma (spec.md §3 "Pragmas", §6).
type PragmaKind int

const (
	IgnorePackage PragmaKind = iota
	IgnoreComponent
	IgnoreEntity
	SimulationTimeout
	StyleSuppress
)

// Pragma is a recognized `-- pragma ...` comment attached to a file.
// IgnorePackage/IgnoreComponent/IgnoreEntity carry Name and are consumed by
// the resolver; SimulationTimeout and StyleSuppress keep their raw text in
// Value and are not acted on by the core. engine.Result does not expose
// pragmas, so neither kind reaches a caller of engine.Run.
type Pragma struct {
	Kind  PragmaKind
	Name  string // unit name for Ignore* pragmas, case-folded
	Value string // raw trailing text for passthrough pragmas
	Line  int
}
