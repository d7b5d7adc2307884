// Package order computes the compile order of a resolved file set: a
// Kahn-style topological layering over the dependency graph, with a
// deterministic (library, path) tie-break among files that have no
// pending dependency between them (spec.md §4.5).
package order

import (
	"fmt"
	"sort"

	"github.com/hdl-tools/vhdeps/internal/diag"
	"github.com/hdl-tools/vhdeps/internal/unit"
)

// Row is one line of the eventual compile order: a file tagged with its
// resolved library and whether it is a top or a dependency.
type Row struct {
	File    string
	Library string
	Role    string // "top" or "dep"
}

// FileInfo is what the orderer needs about a selected file beyond the
// dependency graph itself: its library (for the tie-break and for the
// emitted row) and the primary/secondary units it provides (for the
// entity-before-architecture / package-before-body sanity check).
type FileInfo struct {
	Library  string
	Provided []unit.Provided
}

// Order topologically sorts the selected files given their dependency
// graph (file -> set of files it depends on, as built by package resolve)
// and returns one Row per file, dependencies first.
func Order(depGraph map[string]map[string]bool, selected map[string]bool, tops map[string]bool, files map[string]FileInfo) ([]Row, diag.List) {
	var diags diag.List

	inDegree := make(map[string]int)
	dependents := make(map[string][]string)
	for f := range selected {
		inDegree[f] = len(depGraph[f])
		for dep := range depGraph[f] {
			dependents[dep] = append(dependents[dep], f)
		}
	}

	var ready []string
	for f := range selected {
		if inDegree[f] == 0 {
			ready = append(ready, f)
		}
	}

	libraryOf := func(f string) string { return files[f].Library }
	less := func(a, b string) bool {
		if libraryOf(a) != libraryOf(b) {
			return libraryOf(a) < libraryOf(b)
		}
		return a < b
	}

	var rows []Row
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return less(ready[i], ready[j]) })
		f := ready[0]
		ready = ready[1:]

		role := "dep"
		if tops[f] {
			role = "top"
		}
		rows = append(rows, Row{File: f, Library: libraryOf(f), Role: role})

		next := dependents[f]
		sort.Strings(next)
		for _, consumer := range next {
			inDegree[consumer]--
			if inDegree[consumer] == 0 {
				ready = append(ready, consumer)
			}
		}
	}

	if len(rows) != len(selected) {
		diags.Add(diag.Diagnostic{
			Kind:    diag.InconsistentIndex,
			Message: fmt.Sprintf("topological sort stalled with %d of %d files ordered; a cycle escaped resolution", len(rows), len(selected)),
			Fatal:   true,
		})
		return rows, diags
	}

	diags.Merge(verifyPrimaryBeforeSecondary(rows, files))

	return rows, diags
}

// verifyPrimaryBeforeSecondary re-checks the emitted order against the
// entity-before-architecture and package-before-body rules directly,
// independent of the graph that produced it (spec.md §4.5 invariants I2,
// I3). It should never fire given a correctly built dependency graph; it
// exists to catch a broken invariant rather than silently emit a bad
// order.
func verifyPrimaryBeforeSecondary(rows []Row, files map[string]FileInfo) diag.List {
	var diags diag.List

	position := make(map[string]int, len(rows))
	for i, r := range rows {
		position[r.File] = i
	}

	primaryPos := make(map[unit.ID]int)
	for _, r := range rows {
		for _, p := range files[r.File].Provided {
			if !p.ID.IsSecondary() {
				primaryPos[p.ID] = position[r.File]
			}
		}
	}

	for _, r := range rows {
		for _, p := range files[r.File].Provided {
			if !p.ID.IsSecondary() {
				continue
			}
			primaryIdx, ok := primaryPos[p.ID.Primary()]
			if !ok {
				continue
			}
			if primaryIdx > position[r.File] {
				diags.Add(diag.Diagnostic{
					Kind:    diag.InconsistentIndex,
					File:    r.File,
					Message: fmt.Sprintf("%s %s ordered before its primary unit %s", p.ID.Kind, p.DisplayName, p.ID.Primary().Name),
					Fatal:   true,
				})
			}
		}
	}

	return diags
}
