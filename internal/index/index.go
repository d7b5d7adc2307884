// Package index maintains the unit index of spec.md §4.3: an associative
// map from case-folded (library, kind, name) to the files that provide
// that unit (architectures are further keyed by their entity), with
// disambiguation by VHDL version and simulation/synthesis
// context. The index is built once from the full parsed file set and is
// read-only for every resolution performed against it afterwards
// (spec.md §5 "after the unit index is built, it is read-only for all
// subsequent stages").
package index

import (
	"fmt"
	"sort"

	"github.com/hdl-tools/vhdeps/internal/diag"
	"github.com/hdl-tools/vhdeps/internal/unit"
)

// FileMeta is the subset of a discovered file's attributes the index
// needs to filter candidates: its compatible version set and context.
type FileMeta struct {
	Versions unit.VersionSet
	Context  unit.Context
}

type key struct {
	Library string
	Kind    unit.Kind
	Name    string
	Of      string // owning entity; set for architectures only
}

func keyOf(id unit.ID) key {
	k := key{Library: id.Library, Kind: id.Kind, Name: id.Name}
	if id.Kind == unit.Architecture {
		// Architecture names are unique per entity only: rtl of a and
		// rtl of b are different units.
		k.Of = id.Of
	}
	return k
}

// Index is the built, immutable unit index.
type Index struct {
	providers map[key][]unit.Provided
	meta      map[string]FileMeta
}

// Build aggregates every provided-unit record into the index and flags
// duplicate providers whose version ranges overlap (spec.md §4.3 step 4;
// the severity table of spec.md §4.6 marks this fatal). Providers are
// sorted by path before grouping so the resulting diagnostics and later
// lookups are deterministic regardless of extraction order (spec.md §5
// "sort by path before index construction").
func Build(provided []unit.Provided, meta map[string]FileMeta) (*Index, diag.List) {
	var diags diag.List

	sorted := make([]unit.Provided, len(provided))
	copy(sorted, provided)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].File < sorted[j].File })

	idx := &Index{
		providers: make(map[key][]unit.Provided),
		meta:      meta,
	}
	for _, p := range sorted {
		idx.providers[keyOf(p.ID)] = append(idx.providers[keyOf(p.ID)], p)
	}

	for k, group := range idx.providers {
		if len(group) < 2 {
			continue
		}
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if group[i].File == group[j].File {
					continue
				}
				vi := idx.meta[group[i].File].Versions
				vj := idx.meta[group[j].File].Versions
				if overlaps(vi, vj) {
					diags.Add(diag.Diagnostic{
						Kind: diag.DuplicateProvider,
						File: group[i].File,
						Line: group[i].Line,
						Message: fmt.Sprintf(
							"%s %s.%s also provided by %s (overlapping VHDL versions)",
							k.Kind, k.Library, k.Name, group[j].File,
						),
						Fatal: true,
					})
				}
			}
		}
	}

	return idx, diags
}

func overlaps(a, b unit.VersionSet) bool {
	if a.Universal() || b.Universal() {
		return true
	}
	for v := range a {
		if b[v] {
			return true
		}
	}
	return false
}

// Lookup resolves (library, kind, name) to at most one provider, applying
// the filter-then-disambiguate rules of spec.md §4.3:
//  1. context filter (simulation/synthesis eligibility)
//  2. required-version hard filter, if the caller has one: any provider
//     whose version set doesn't contain it outright is dropped, with no
//     fallback (a required version pins the effective requested version to
//     itself, mirroring the original's desired=required behavior).
//  3. version filter (exact compatible-set membership, falling back to the
//     highest compatible version <= requested)
//  4. tie-break: highest qualifying version, then top-file preference,
//     then lexicographic path order.
func (idx *Index) Lookup(id unit.ID, reqCtx unit.RequestedContext, requested unit.Version, required unit.Version, tops map[string]bool) (unit.Provided, bool) {
	candidates := idx.providers[keyOf(id)]
	if len(candidates) == 0 {
		return unit.Provided{}, false
	}

	var ctxFiltered []unit.Provided
	for _, c := range candidates {
		if idx.meta[c.File].Context.CompatibleWith(reqCtx) {
			ctxFiltered = append(ctxFiltered, c)
		}
	}
	if len(ctxFiltered) == 0 {
		return unit.Provided{}, false
	}

	if required != 0 {
		var requiredFiltered []unit.Provided
		for _, c := range ctxFiltered {
			if idx.meta[c.File].Versions.Contains(Version(required)) {
				requiredFiltered = append(requiredFiltered, c)
			}
		}
		if len(requiredFiltered) == 0 {
			return unit.Provided{}, false
		}
		ctxFiltered = requiredFiltered
		requested = required
	}

	var exact []unit.Provided
	for _, c := range ctxFiltered {
		if idx.meta[c.File].Versions.Contains(Version(requested)) {
			exact = append(exact, c)
		}
	}

	working := exact
	useExactVersion := true
	if len(working) == 0 {
		for _, c := range ctxFiltered {
			if _, ok := idx.meta[c.File].Versions.Highest(Version(requested)); ok {
				working = append(working, c)
			}
		}
		useExactVersion = false
	}
	if len(working) == 0 {
		return unit.Provided{}, false
	}

	best := Version(0)
	var bestSet []unit.Provided
	for _, c := range working {
		var eff Version
		vs := idx.meta[c.File].Versions
		switch {
		case vs.Universal():
			eff = Version(requested)
		case useExactVersion:
			eff = Version(requested)
		default:
			eff, _ = vs.Highest(Version(requested))
		}
		switch {
		case len(bestSet) == 0 || eff > best:
			best = eff
			bestSet = []unit.Provided{c}
		case eff == best:
			bestSet = append(bestSet, c)
		}
	}

	if len(bestSet) == 1 {
		return bestSet[0], true
	}

	for _, c := range bestSet {
		if tops[c.File] {
			return c, true
		}
	}

	sort.Slice(bestSet, func(i, j int) bool { return bestSet[i].File < bestSet[j].File })
	return bestSet[0], true
}

// Version is an alias of unit.Version, used to avoid a stutter of
// unit.Version at every call site in this package.
type Version = unit.Version

// ComponentCandidate tries the libraries of scope in order and returns the
// entity provider found in the first library that has one (spec.md §4.3
// "Component references resolve by trying lookups ... in declaration
// order; first hit wins").
func (idx *Index) ComponentCandidate(name string, scope []string, reqCtx unit.RequestedContext, requested unit.Version, required unit.Version, tops map[string]bool) (unit.Provided, bool) {
	for _, lib := range scope {
		id := unit.NewID(lib, unit.Entity, name, "")
		if p, ok := idx.Lookup(id, reqCtx, requested, required, tops); ok {
			return p, true
		}
	}
	return unit.Provided{}, false
}

// Architectures returns every architecture provider bound to the entity
// identified by of (library and name significant, Of/Kind ignored),
// filtered by context eligibility. VHDL's default binding rule selects
// whichever architecture was most recently analyzed; lacking an analysis
// order, the resolver includes all of them (spec.md §4.4 "every
// architecture of a selected entity that the index knows about").
func (idx *Index) Architectures(of unit.ID, reqCtx unit.RequestedContext) []unit.Provided {
	var out []unit.Provided
	for k, group := range idx.providers {
		if k.Kind != unit.Architecture || k.Library != of.Library {
			continue
		}
		for _, p := range group {
			if p.ID.Of != of.Name {
				continue
			}
			if idx.meta[p.File].Context.CompatibleWith(reqCtx) {
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}

// Body returns the package body bound to the package identified by of, if
// the index has one and it is eligible under reqCtx.
func (idx *Index) Body(of unit.ID, reqCtx unit.RequestedContext) (unit.Provided, bool) {
	for k, group := range idx.providers {
		if k.Kind != unit.PackageBody || k.Library != of.Library {
			continue
		}
		for _, p := range group {
			if p.ID.Of != of.Name {
				continue
			}
			if idx.meta[p.File].Context.CompatibleWith(reqCtx) {
				return p, true
			}
		}
	}
	return unit.Provided{}, false
}

// All returns every provider currently registered, for tooling/tests.
func (idx *Index) All() []unit.Provided {
	var out []unit.Provided
	for _, group := range idx.providers {
		out = append(out, group...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].File < out[j].File })
	return out
}
