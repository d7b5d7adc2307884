// Package lex is the regex-level VHDL tokenizer (spec.md §4.2). It is
// deliberately not a full parser (spec.md §1 non-goal #1): it strips
// comments and string/character literals, then applies a small ordered set
// of lexical rules to recognize top-level declarations and
// component/package references.
package lex

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/hdl-tools/vhdeps/internal/diag"
	"github.com/hdl-tools/vhdeps/internal/unit"
)

// FileFacts is everything the tokenizer extracted from one file: what it
// provides, what it requires, and its pragmas (spec.md §3).
type FileFacts struct {
	File     string
	Provided []unit.Provided
	Required []unit.Required
	Pragmas  []unit.Pragma
}

// Extract lexes the file at path, attributing provided/required records to
// targetLibrary (the file's assigned library, which overrides `work` in
// every record per spec.md §4.2). Parse anomalies are collected rather
// than failing the whole file outright, but a file that can't be read at
// all is an IoFailure.
func Extract(path, targetLibrary string) (FileFacts, diag.List, error) {
	var diags diag.List
	facts := FileFacts{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		return facts, diags, fmt.Errorf("reading %s: %w", path, err)
	}

	scope := newLibraryScope(targetLibrary)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		code, comment := splitCodeComment(raw)
		code = elideStrings(code)

		if comment != "" {
			if p, ok := parsePragma(comment, lineNo); ok {
				facts.Pragmas = append(facts.Pragmas, p)
			}
		}

		lexLine(code, lineNo, targetLibrary, scope, &facts, &diags)
	}
	if err := scanner.Err(); err != nil {
		diags.Add(diag.Diagnostic{
			Kind:    diag.ParseAnomaly,
			File:    path,
			Message: fmt.Sprintf("scanning file: %v", err),
			Fatal:   false,
		})
	}

	return facts, diags, nil
}

// libraryScope tracks the libraries visible for `use`/component lookups at
// any point in the file (spec.md §4.2 "trivial state of current library
// clauses"). The target library is always in scope first.
type libraryScope struct {
	libs []string
}

func newLibraryScope(targetLibrary string) *libraryScope {
	return &libraryScope{libs: []string{unit.Fold(targetLibrary)}}
}

func (s *libraryScope) add(name string) {
	name = unit.Fold(name)
	if name == "work" {
		return // `library work;` is a no-op (spec.md §4.2).
	}
	for _, l := range s.libs {
		if l == name {
			return
		}
	}
	s.libs = append(s.libs, name)
}

func (s *libraryScope) snapshot() []string {
	out := make([]string, len(s.libs))
	copy(out, s.libs)
	return out
}

// lexLine applies the ordered pattern table of spec.md §4.2 to one
// comment-/string-stripped source line.
func lexLine(code string, lineNo int, targetLibrary string, scope *libraryScope, facts *FileFacts, diags *diag.List) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return
	}

	if m := packageBodyPattern.FindStringSubmatch(code); m != nil {
		id := unit.NewID(targetLibrary, unit.PackageBody, m[1], m[1])
		facts.Provided = append(facts.Provided, unit.Provided{ID: id, File: facts.File, Line: lineNo, DisplayName: m[1]})
		facts.Required = append(facts.Required, unit.Required{
			Consumer: facts.File,
			ID:       unit.NewID(targetLibrary, unit.Package, m[1], ""),
			Kind:     unit.BodyOf,
			Line:     lineNo,
			DisplayName: m[1],
		})
		return
	}

	if m := entityPattern.FindStringSubmatch(code); m != nil {
		id := unit.NewID(targetLibrary, unit.Entity, m[1], "")
		facts.Provided = append(facts.Provided, unit.Provided{ID: id, File: facts.File, Line: lineNo, DisplayName: m[1]})
		return
	}

	if m := archPattern.FindStringSubmatch(code); m != nil {
		id := unit.NewID(targetLibrary, unit.Architecture, m[1], m[2])
		facts.Provided = append(facts.Provided, unit.Provided{ID: id, File: facts.File, Line: lineNo, DisplayName: m[1]})
		facts.Required = append(facts.Required, unit.Required{
			Consumer: facts.File,
			ID:       unit.NewID(targetLibrary, unit.Entity, m[2], ""),
			Kind:     unit.ArchitectureOf,
			Line:     lineNo,
			DisplayName: m[2],
		})
		return
	}

	if m := packagePattern.FindStringSubmatch(code); m != nil {
		id := unit.NewID(targetLibrary, unit.Package, m[1], "")
		facts.Provided = append(facts.Provided, unit.Provided{ID: id, File: facts.File, Line: lineNo, DisplayName: m[1]})
		return
	}

	if m := configPattern.FindStringSubmatch(code); m != nil {
		id := unit.NewID(targetLibrary, unit.Configuration, m[1], m[2])
		facts.Provided = append(facts.Provided, unit.Provided{ID: id, File: facts.File, Line: lineNo, DisplayName: m[1]})
		// spec.md §3 defines no distinct "configuration-of" reference
		// kind; a configuration's binding to its entity is the same
		// shape as an architecture's, so it reuses ArchitectureOf.
		facts.Required = append(facts.Required, unit.Required{
			Consumer: facts.File,
			ID:       unit.NewID(targetLibrary, unit.Entity, m[2], ""),
			Kind:     unit.ArchitectureOf,
			Line:     lineNo,
			DisplayName: m[2],
		})
		return
	}

	if m := libraryPattern.FindStringSubmatch(code); m != nil {
		for _, name := range strings.Split(m[1], ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				scope.add(name)
			}
		}
		return
	}

	if m := usePattern.FindStringSubmatch(code); m != nil {
		lib, name := m[1], m[2]
		id := unit.NewID(lib, unit.Package, name, "")
		facts.Required = append(facts.Required, unit.Required{
			Consumer:    facts.File,
			ID:          id,
			Kind:        unit.PackageUse,
			Line:        lineNo,
			DisplayName: fmt.Sprintf("%s.%s", lib, name),
		})
		return
	}

	if m := entityInstPattern.FindStringSubmatch(code); m != nil {
		lib, ent, arch := m[1], m[2], m[3]
		facts.Required = append(facts.Required, unit.Required{
			Consumer:    facts.File,
			ID:          unit.NewID(lib, unit.Entity, ent, ""),
			Kind:        unit.InstantiationDirect,
			Line:        lineNo,
			DisplayName: fmt.Sprintf("%s.%s", lib, ent),
		})
		if arch != "" {
			facts.Required = append(facts.Required, unit.Required{
				Consumer:    facts.File,
				ID:          unit.NewID(lib, unit.Architecture, arch, ent),
				Kind:        unit.InstantiationDirect,
				Line:        lineNo,
				DisplayName: fmt.Sprintf("%s.%s(%s)", lib, ent, arch),
			})
		}
		return
	}

	if m := configInstPattern.FindStringSubmatch(code); m != nil {
		lib, name := m[1], m[2]
		facts.Required = append(facts.Required, unit.Required{
			Consumer:    facts.File,
			ID:          unit.NewID(lib, unit.Configuration, name, ""),
			Kind:        unit.InstantiationDirect,
			Line:        lineNo,
			DisplayName: fmt.Sprintf("%s.%s", lib, name),
		})
		return
	}

	if m := componentKeywordInstPattern.FindStringSubmatch(code); m != nil {
		facts.Required = append(facts.Required, unit.Required{
			Consumer:    facts.File,
			ID:          unit.ID{Kind: unit.Entity, Name: unit.Fold(m[1])},
			Kind:        unit.InstantiationComponent,
			Line:        lineNo,
			DisplayName: m[1],
			Scope:       scope.snapshot(),
		})
		return
	}

	if m := componentInstPattern.FindStringSubmatch(code); m != nil {
		name := m[2]
		if unit.Fold(name) == "entity" || unit.Fold(name) == "configuration" || unit.Fold(name) == "component" {
			return
		}
		facts.Required = append(facts.Required, unit.Required{
			Consumer:    facts.File,
			ID:          unit.ID{Kind: unit.Entity, Name: unit.Fold(name)},
			Kind:        unit.InstantiationComponent,
			Line:        lineNo,
			DisplayName: name,
			Scope:       scope.snapshot(),
		})
		return
	}
}

// splitCodeComment splits a raw line into its code and comment portions at
// the first `--` that is not inside a string literal (spec.md §4.2
// "comments stripped (-- to end-of-line)").
func splitCodeComment(line string) (code, comment string) {
	inString := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '"' {
			inString = !inString
			continue
		}
		if !inString && c == '-' && i+1 < len(line) && line[i+1] == '-' {
			return line[:i], line[i+2:]
		}
	}
	return line, ""
}

// elideStrings blanks out the contents of double-quoted string literals and
// single-quoted character literals so they cannot trigger false pattern
// matches (spec.md §4.2 "Strings and character literals are elided").
func elideStrings(code string) string {
	b := []byte(code)
	inString := false
	for i := 0; i < len(b); i++ {
		switch {
		case b[i] == '"':
			inString = !inString
		case inString:
			b[i] = ' '
		case b[i] == '\'' && i+2 < len(b) && b[i+2] == '\'':
			b[i+1] = ' '
			i += 2
		}
	}
	return string(b)
}

// parsePragma recognizes the pragma grammar of spec.md §6 inside a comment.
func parsePragma(comment string, line int) (unit.Pragma, bool) {
	if m := pragmaIgnorePattern.FindStringSubmatch(comment); m != nil {
		kind := unit.IgnorePackage
		switch strings.ToLower(m[1]) {
		case "component":
			kind = unit.IgnoreComponent
		case "entity":
			kind = unit.IgnoreEntity
		}
		return unit.Pragma{Kind: kind, Name: unit.Fold(m[2]), Line: line}, true
	}
	if m := pragmaTimeoutPattern.FindStringSubmatch(comment); m != nil {
		return unit.Pragma{Kind: unit.SimulationTimeout, Value: strings.TrimSpace(m[1]), Line: line}, true
	}
	if m := pragmaStylePattern.FindStringSubmatch(comment); m != nil {
		return unit.Pragma{Kind: unit.StyleSuppress, Value: strings.TrimSpace(m[1]), Line: line}, true
	}
	return unit.Pragma{}, false
}
