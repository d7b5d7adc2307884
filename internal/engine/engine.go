// Package engine orchestrates the full pipeline: discovery, parsing,
// indexing, resolution, ordering and style checking. It is the single
// entry point spec.md §2 describes as "given roots and options, an
// ordered list of compile steps, or a structured diagnostic".
package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gobwas/glob"

	"github.com/hdl-tools/vhdeps/internal/config"
	"github.com/hdl-tools/vhdeps/internal/diag"
	"github.com/hdl-tools/vhdeps/internal/discover"
	"github.com/hdl-tools/vhdeps/internal/emit"
	"github.com/hdl-tools/vhdeps/internal/index"
	"github.com/hdl-tools/vhdeps/internal/lex"
	"github.com/hdl-tools/vhdeps/internal/order"
	"github.com/hdl-tools/vhdeps/internal/resolve"
	"github.com/hdl-tools/vhdeps/internal/style"
	"github.com/hdl-tools/vhdeps/internal/unit"
)

// builtinLibraries are resolved outside the discovered file set entirely;
// referencing them never selects a file (spec.md §4.4).
var builtinLibraries = map[string]bool{
	"ieee":      true,
	"std":       true,
	"std_logic": true,
	"synopsys":  true,
	"unisim":    true,
	"unimacro":  true,
}

// Result is the outcome of a successful run: the ordered compile steps
// plus any non-fatal diagnostics collected along the way (spec.md §3
// "Resolution result", the Ok(compile_order, warnings) case).
type Result struct {
	Order    []emit.Row
	Warnings []diag.Diagnostic
}

// Err reports a fatal run: the full diagnostic set (spec.md's
// Err(diagnostics) case).
type Err struct {
	Diagnostics []diag.Diagnostic
}

func (e *Err) Error() string {
	if len(e.Diagnostics) == 0 {
		return "resolution failed with no diagnostics"
	}
	return fmt.Sprintf("%s (and %d more)", e.Diagnostics[0].Error(), len(e.Diagnostics)-1)
}

// Run executes the full pipeline against cfg and returns the compile
// order or a diagnostic-carrying error.
func Run(cfg *config.Config) (Result, error) {
	discovered, err := discover.Run(cfg)
	if err != nil {
		return Result{}, fmt.Errorf("discovery: %w", err)
	}

	var diags diag.List
	for _, d := range discovered.Diagnostics {
		diags.Add(d)
	}
	if diags.Fatal() {
		return Result{}, &Err{Diagnostics: diags.Fatals()}
	}

	facts, lexDiags := extractAll(discovered.Files)
	diags.Merge(lexDiags)
	if diags.Fatal() {
		return Result{}, &Err{Diagnostics: diags.Fatals()}
	}

	provided, meta := collectProvidedAndMeta(discovered.Files, facts)
	builtIdx, buildDiags := index.Build(provided, meta)
	diags.Merge(buildDiags)
	if diags.Fatal() {
		return Result{}, &Err{Diagnostics: diags.Fatals()}
	}

	reqCtx := requestedContext(cfg.Context)
	version := unit.Version(cfg.DesiredVersion)
	required := unit.Version(cfg.RequireVersion)
	if required != 0 {
		// spec.md §4.3 step 2: a required version pins the desired
		// version to itself rather than merely constraining it.
		version = required
	}

	tops, topErr := findTops(discovered.Files, facts, cfg.TopPatterns)
	if topErr != nil {
		return Result{}, fmt.Errorf("compiling top patterns: %w", topErr)
	}
	if len(tops) == 0 {
		diags.Add(diag.Diagnostic{Kind: diag.NoTop, Message: "no file provides a unit matching any top pattern", Fatal: true})
		return Result{}, &Err{Diagnostics: diags.Fatals()}
	}

	resolveInput := resolve.Input{
		Index:          builtIdx,
		Files:          resolveFileData(discovered.Files, facts),
		Builtin:        builtinLibraries,
		RequireVersion: required,
	}
	resResult, resDiags := resolve.Resolve(resolveInput, tops, reqCtx, version)
	diags.Merge(resDiags)
	if diags.Fatal() {
		return Result{}, &Err{Diagnostics: diags.Fatals()}
	}

	fileInfos := make(map[string]order.FileInfo, len(discovered.Files))
	for _, f := range discovered.Files {
		fileInfos[f.Path] = order.FileInfo{Library: f.Library, Provided: facts[f.Path].Provided}
	}
	rows, orderDiags := order.Order(resResult.Graph, resResult.Files, resResult.Tops, fileInfos)
	diags.Merge(orderDiags)
	if diags.Fatal() {
		return Result{}, &Err{Diagnostics: diags.Fatals()}
	}

	styleDiags, err := runStyle(discovered.Files, facts, cfg.StyleIsFatal())
	if err != nil {
		return Result{}, fmt.Errorf("style checking: %w", err)
	}
	diags.Merge(styleDiags)
	if diags.Fatal() {
		return Result{}, &Err{Diagnostics: diags.Fatals()}
	}

	emitRows := make([]emit.Row, len(rows))
	for i, r := range rows {
		emitRows[i] = emit.Row{
			Role:    r.Role,
			Library: r.Library,
			Version: effectiveVersion(meta[r.File].Versions, version),
			Path:    r.File,
		}
	}

	return Result{Order: emitRows, Warnings: diags.Warnings()}, nil
}

func effectiveVersion(vs unit.VersionSet, requested unit.Version) unit.Version {
	if vs.Universal() {
		return 0
	}
	if v, ok := vs.Highest(requested); ok {
		return v
	}
	return 0
}

// extractAll lexes every discovered file concurrently, mirroring the
// teacher's sync.WaitGroup fan-out in indexer.Run, and returns the facts
// keyed by path. Determinism (spec.md §5, I4) does not depend on the lexing
// order: discover.Run returns files sorted by path and index.Build sorts
// providers by path before grouping them.
func extractAll(files []discover.File) (map[string]lex.FileFacts, diag.List) {
	var diags diag.List
	type outcome struct {
		facts lex.FileFacts
		diags diag.List
		err   error
	}

	results := make([]outcome, len(files))
	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f discover.File) {
			defer wg.Done()
			facts, fdiags, err := lex.Extract(f.Path, f.Library)
			results[i] = outcome{facts: facts, diags: fdiags, err: err}
		}(i, f)
	}
	wg.Wait()

	out := make(map[string]lex.FileFacts, len(files))
	for i, f := range files {
		if results[i].err != nil {
			diags.Add(diag.Diagnostic{Kind: diag.IoFailure, File: f.Path, Message: results[i].err.Error(), Fatal: true})
			continue
		}
		diags.Merge(results[i].diags)
		if hasParseAnomaly(results[i].diags) {
			// spec.md §7: a file with parse anomalies is dropped from the
			// index entirely rather than indexed on partial facts; any
			// reference to what it would have provided surfaces downstream
			// as an UnresolvedReference instead.
			continue
		}
		out[f.Path] = results[i].facts
	}
	return out, diags
}

func hasParseAnomaly(diags diag.List) bool {
	for _, d := range diags.All() {
		if d.Kind == diag.ParseAnomaly {
			return true
		}
	}
	return false
}

func collectProvidedAndMeta(files []discover.File, facts map[string]lex.FileFacts) ([]unit.Provided, map[string]index.FileMeta) {
	var provided []unit.Provided
	meta := make(map[string]index.FileMeta, len(files))
	for _, f := range files {
		fd, ok := facts[f.Path]
		if !ok {
			continue
		}
		provided = append(provided, fd.Provided...)
		meta[f.Path] = index.FileMeta{Versions: f.Versions, Context: f.Context}
	}
	return provided, meta
}

func resolveFileData(files []discover.File, facts map[string]lex.FileFacts) map[string]resolve.FileData {
	out := make(map[string]resolve.FileData, len(files))
	for _, f := range files {
		fd, ok := facts[f.Path]
		if !ok {
			continue
		}
		out[f.Path] = resolve.FileData{
			Provided: fd.Provided,
			Required: fd.Required,
			Pragmas:  fd.Pragmas,
			Mode:     f.Mode,
		}
	}
	return out
}

func findTops(files []discover.File, facts map[string]lex.FileFacts, patterns []config.TopPattern) ([]string, error) {
	var globs []glob.Glob
	for _, p := range patterns {
		g, err := glob.Compile(p.Glob)
		if err != nil {
			return nil, fmt.Errorf("compiling top pattern %q: %w", p.Glob, err)
		}
		globs = append(globs, g)
	}

	var tops []string
	for _, f := range files {
		fd, ok := facts[f.Path]
		if !ok {
			continue
		}
		for _, p := range fd.Provided {
			if p.ID.Kind != unit.Entity {
				continue
			}
			for _, g := range globs {
				if g.Match(p.ID.Name) {
					tops = append(tops, f.Path)
					break
				}
			}
		}
	}
	sort.Strings(tops)
	return dedup(tops), nil
}

func dedup(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func runStyle(files []discover.File, facts map[string]lex.FileFacts, styleIsFatal bool) (diag.List, error) {
	checker, err := style.New()
	if err != nil {
		return diag.List{}, fmt.Errorf("initializing style checker: %w", err)
	}

	var in style.Input
	for _, f := range files {
		fd, ok := facts[f.Path]
		if !ok {
			continue
		}
		in.Files = append(in.Files, style.BuildInput(f.Path, string(f.Mode), fd.Provided))
	}

	return checker.Check(in, styleIsFatal)
}

func requestedContext(c config.Context) unit.RequestedContext {
	if c == config.Synthesis {
		return unit.Synthesis
	}
	return unit.Simulation
}
