// Package resolve walks the reference graph from a set of top units,
// consulting the unit index to turn each reference into a selected file,
// and applies the resolution-time rules of spec.md §4.4: built-in and
// pragma-ignored references are satisfied without selecting anything,
// black-box consumers downgrade an unresolved reference to a warning, and
// selecting an entity or package pulls in its architectures and body.
package resolve

import (
	"fmt"
	"sort"

	"github.com/hdl-tools/vhdeps/internal/config"
	"github.com/hdl-tools/vhdeps/internal/diag"
	"github.com/hdl-tools/vhdeps/internal/index"
	"github.com/hdl-tools/vhdeps/internal/unit"
)

// FileData is everything the resolver needs about one discovered file:
// its lexed facts plus the discovery mode that governs how its unresolved
// references are treated.
type FileData struct {
	Provided []unit.Provided
	Required []unit.Required
	Pragmas  []unit.Pragma
	Mode     config.Mode
}

// Input is the full fact base a resolution runs against.
type Input struct {
	Index   *index.Index
	Files   map[string]FileData
	Builtin map[string]bool // library names resolved outside the index, e.g. ieee, std

	// RequireVersion is the spec.md §4.3-step-2 hard version filter (0 if
	// unset). When non-zero it also pins the effective requested version
	// passed to Resolve, mirroring the original's desired=required rule.
	RequireVersion unit.Version
}

// Result is the outcome of resolving from one set of tops: the files that
// must be compiled, which of those are the tops themselves, and the
// consumer->dependency edges walked to get there (for package order).
type Result struct {
	Files map[string]bool
	Tops  map[string]bool
	Graph map[string]map[string]bool
}

// Resolve walks the reference graph starting from topFiles, which may
// designate more than one top (the merged-DAG case of spec.md §4.5); use
// ManyTops to resolve every top independently instead.
func Resolve(in Input, topFiles []string, reqCtx unit.RequestedContext, version unit.Version) (Result, diag.List) {
	var diags diag.List

	tops := make(map[string]bool, len(topFiles))
	for _, f := range topFiles {
		tops[f] = true
	}

	selected := make(map[string]bool)
	depGraph := make(map[string]map[string]bool)
	queue := append([]string(nil), topFiles...)
	sort.Strings(queue)
	for _, f := range queue {
		selected[f] = true
	}

	addEdge := func(from, to string) {
		if from == to {
			return
		}
		if depGraph[from] == nil {
			depGraph[from] = make(map[string]bool)
		}
		depGraph[from][to] = true
	}

	var enqueue func(file string)
	enqueue = func(file string) {
		if selected[file] {
			return
		}
		selected[file] = true
		queue = append(queue, file)
	}

	// A top file is seeded directly rather than discovered through a
	// Required edge, so it never goes through the architecture/body pull
	// below; without this, a top entity whose architecture lives in a
	// separate file would resolve to an uncompilable order.
	for _, f := range topFiles {
		fd, ok := in.Files[f]
		if !ok {
			continue
		}
		for _, p := range fd.Provided {
			pullSecondaryUnits(in.Index, p.ID, reqCtx, enqueue)
		}
	}

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]

		fd, ok := in.Files[f]
		if !ok {
			continue
		}

		for _, req := range fd.Required {
			if req.ID.Library != "" && in.Builtin[req.ID.Library] {
				continue
			}
			if satisfiedByPragma(fd.Pragmas, req) {
				continue
			}

			var p unit.Provided
			var found bool
			if req.Kind == unit.InstantiationComponent {
				p, found = in.Index.ComponentCandidate(req.ID.Name, req.Scope, reqCtx, version, in.RequireVersion, tops)
			} else {
				p, found = in.Index.Lookup(req.ID, reqCtx, version, in.RequireVersion, tops)
			}

			if !found {
				diags.Add(diag.Diagnostic{
					Kind:    diag.UnresolvedReference,
					File:    f,
					Line:    req.Line,
					Message: fmt.Sprintf("unresolved reference to %s", req.DisplayName),
					Fatal:   fd.Mode != config.BlackBox,
				})
				continue
			}

			addEdge(f, p.File)
			enqueue(p.File)
			pullSecondaryUnits(in.Index, p.ID, reqCtx, enqueue)
		}
	}

	diags.Merge(detectCycles(depGraph))

	return Result{Files: selected, Tops: tops, Graph: depGraph}, diags
}

// ManyTops resolves every top file independently (spec.md §4.5 "tops that
// are not meant to share a compile order, such as unrelated testbenches,
// resolve separately").
func ManyTops(in Input, topFiles []string, reqCtx unit.RequestedContext, version unit.Version) (map[string]Result, diag.List) {
	var diags diag.List
	results := make(map[string]Result, len(topFiles))
	for _, top := range topFiles {
		res, d := Resolve(in, []string{top}, reqCtx, version)
		results[top] = res
		diags.Merge(d)
	}
	return results, diags
}

// pullSecondaryUnits enqueues every architecture of id if id names an
// entity, or the body of id if id names a package (spec.md §4.4: selecting
// an entity or package pulls in its architectures/body). It is shared by
// the top-seeding step and the per-requirement resolution step above so a
// primary unit is treated identically whether it arrived as a top or as a
// dependency.
func pullSecondaryUnits(idx *index.Index, id unit.ID, reqCtx unit.RequestedContext, enqueue func(string)) {
	switch id.Kind {
	case unit.Entity:
		for _, arch := range idx.Architectures(id, reqCtx) {
			enqueue(arch.File)
		}
	case unit.Package:
		if body, ok := idx.Body(id, reqCtx); ok {
			enqueue(body.File)
		}
	}
}

func satisfiedByPragma(pragmas []unit.Pragma, req unit.Required) bool {
	for _, p := range pragmas {
		switch p.Kind {
		case unit.IgnoreComponent:
			if req.Kind == unit.InstantiationComponent && p.Name == req.ID.Name {
				return true
			}
		case unit.IgnoreEntity:
			if req.ID.Kind == unit.Entity && p.Name == req.ID.Name {
				return true
			}
		case unit.IgnorePackage:
			if req.ID.Kind == unit.Package && p.Name == req.ID.Name {
				return true
			}
		}
	}
	return false
}
