// Package emit renders a resolved, ordered file set into the frozen
// compile-order text format of spec.md §5: one line per file, in
// dependency order, as "<role> <library> <version> <absolute-path>".
package emit

import (
	"fmt"
	"strings"

	"github.com/hdl-tools/vhdeps/internal/unit"
)

// Row is one line of output. Version zero means the file is compatible
// with any VHDL version (rendered as "----" rather than a year).
type Row struct {
	Role    string
	Library string
	Version unit.Version
	Path    string
}

func (r Row) String() string {
	return fmt.Sprintf("%s %s %s %s", r.Role, r.Library, versionField(r.Version), r.Path)
}

func versionField(v unit.Version) string {
	if v == 0 {
		return "----"
	}
	return fmt.Sprintf("%04d", int(v))
}

// Lines renders every row, one per line, in the order given.
func Lines(rows []Row) []string {
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = r.String()
	}
	return lines
}

// Text renders every row as a single newline-terminated block.
func Text(rows []Row) string {
	lines := Lines(rows)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
