// Package discover walks filesystem roots honoring inclusion directives,
// filename tags and glob patterns, producing the candidate file set that
// internal/lex, internal/index and internal/resolve operate on
// (spec.md §4.1).
package discover

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	"github.com/hdl-tools/vhdeps/internal/config"
	"github.com/hdl-tools/vhdeps/internal/diag"
	"github.com/hdl-tools/vhdeps/internal/unit"
)

// modeRank orders modes by strength for the "strongest mode wins" rule
// (spec.md §4.1: black-box > strict > normal).
var modeRank = map[config.Mode]int{
	config.Normal:   0,
	config.Strict:   1,
	config.BlackBox: 2,
}

// File is a discovered candidate source file, annotated per spec.md §3
// "Source file record". It carries no pragmas: discovery never opens
// files, and internal/lex collects pragmas into its FileFacts once the file
// is read.
type File struct {
	Path     string
	Library  string
	Versions unit.VersionSet
	Context  unit.Context
	Mode     config.Mode
}

// Result is the outcome of a discovery pass: the candidate file set plus
// any diagnostics raised along the way (library conflicts are warnings;
// a missing include root is fatal per spec.md §4.6).
type Result struct {
	Files       []File
	Diagnostics []diag.Diagnostic
}

// Run expands every directive in cfg to a concrete file set, resolving
// mode/library conflicts and attaching filename-tag metadata.
func Run(cfg *config.Config) (Result, error) {
	var result Result
	merged := make(map[string]*File)
	libAssigned := make(map[string]bool)

	for _, d := range cfg.Directives {
		pattern, err := glob.Compile(d.Pattern, '/')
		if err != nil {
			return result, fmt.Errorf("compiling pattern %q for directive %q: %w", d.Pattern, d.Path, err)
		}

		matches, err := expandDirective(d, pattern)
		if err != nil {
			if os.IsNotExist(err) {
				result.Diagnostics = append(result.Diagnostics, diag.Diagnostic{
					Kind:    diag.IoFailure,
					File:    d.Path,
					Message: fmt.Sprintf("include root does not exist: %v", err),
					Fatal:   true,
				})
				continue
			}
			return result, fmt.Errorf("expanding directive %q: %w", d.Path, err)
		}

		for _, p := range matches {
			t := parseTags(p)
			if existing, ok := merged[p]; ok {
				if modeRank[d.Mode] > modeRank[existing.Mode] {
					existing.Mode = d.Mode
				}
				// Library is fixed by the first directive that matched
				// this file; a later, differing assignment is a
				// diagnostic, not a silent override (spec.md §4.1).
				if libAssigned[p] && existing.Library != d.Library {
					result.Diagnostics = append(result.Diagnostics, diag.Diagnostic{
						Kind:    diag.ParseAnomaly,
						File:    p,
						Message: fmt.Sprintf("conflicting library assignment: keeping %q, ignoring %q", existing.Library, d.Library),
						Fatal:   false,
					})
				}
				continue
			}
			merged[p] = &File{
				Path:     p,
				Library:  d.Library,
				Versions: t.Versions,
				Context:  t.Context,
				Mode:     d.Mode,
			}
			libAssigned[p] = true
		}
	}

	for _, f := range merged {
		result.Files = append(result.Files, *f)
	}
	sort.Slice(result.Files, func(i, j int) bool { return result.Files[i].Path < result.Files[j].Path })

	// Zero candidate files isn't diagnosed here: the engine already raises
	// a fatal NoTop once it finds no file providing a matching top unit,
	// which zero files guarantees anyway, so a separate warning at this
	// stage would only be a weaker, redundant echo of that same fact.
	return result, nil
}

// expandDirective resolves one directive to an absolute file list: for
// recursive directives it walks the tree; for non-recursive directives it
// only considers immediate children (spec.md §4.1).
func expandDirective(d config.Directive, pattern glob.Glob) ([]string, error) {
	info, err := os.Stat(d.Path)
	if err != nil {
		return nil, err
	}

	var results []string
	if !info.IsDir() {
		abs, err := filepath.Abs(d.Path)
		if err != nil {
			return nil, err
		}
		if pattern.Match(filepath.Base(abs)) {
			results = append(results, abs)
		}
		return results, nil
	}

	if !d.Recursive {
		entries, err := os.ReadDir(d.Path)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if pattern.Match(e.Name()) {
				abs, err := filepath.Abs(filepath.Join(d.Path, e.Name()))
				if err != nil {
					return nil, err
				}
				results = append(results, abs)
			}
		}
		return results, nil
	}

	err = filepath.Walk(d.Path, func(p string, fi os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if fi.IsDir() {
			return nil
		}
		if pattern.Match(fi.Name()) {
			abs, err := filepath.Abs(p)
			if err != nil {
				return err
			}
			results = append(results, abs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
