package lex

import "regexp"

// Regex-level tokenizer patterns (spec.md §4.2, §9 "Regex-based VHDL
// parsing"). Each is a single lexical rule applied to a comment- and
// string-stripped line; order matters where patterns could otherwise
// overlap (e.g. package vs. package body).
var (
	entityPattern = regexp.MustCompile(`(?i)^\s*entity\s+(\w+)\s+is\b`)

	archPattern = regexp.MustCompile(`(?i)^\s*architecture\s+(\w+)\s+of\s+(\w+)\s+is\b`)

	packageBodyPattern = regexp.MustCompile(`(?i)^\s*package\s+body\s+(\w+)\s+is\b`)
	packagePattern     = regexp.MustCompile(`(?i)^\s*package\s+(\w+)\s+is\b`)

	configPattern = regexp.MustCompile(`(?i)^\s*configuration\s+(\w+)\s+of\s+(\w+)\s+is\b`)

	libraryPattern = regexp.MustCompile(`(?i)^\s*library\s+([\w\s,]+?)\s*;`)

	usePattern = regexp.MustCompile(`(?i)^\s*use\s+(\w+)\.(\w+)`)

	// `label : entity LIB.ENTITY(ARCH)` or `label : entity LIB.ENTITY`
	entityInstPattern = regexp.MustCompile(`(?i):\s*entity\s+(\w+)\.(\w+)\s*(?:\(\s*(\w+)\s*\))?`)

	// `label : configuration LIB.NAME`
	configInstPattern = regexp.MustCompile(`(?i):\s*configuration\s+(\w+)\.(\w+)`)

	// `label : component NAME` explicit keyword form (VHDL-87 style).
	componentKeywordInstPattern = regexp.MustCompile(`(?i):\s*component\s+(\w+)`)

	// `label : NAME generic|port ...` — a bare component instantiation.
	// Same-line generic/port requirement mirrors the fragility the
	// regex-level tokenizer accepts by design (spec.md §9).
	componentInstPattern = regexp.MustCompile(`(?i)^\s*(\w+)\s*:\s*(\w+)\s*(generic|port)\b`)

	pragmaIgnorePattern  = regexp.MustCompile(`(?i)pragma\s+vhdeps\s+ignore\s+(package|component|entity)\s+(\w+)`)
	pragmaTimeoutPattern = regexp.MustCompile(`(?i)pragma\s+simulation\s+timeout\s+(.+)`)
	pragmaStylePattern   = regexp.MustCompile(`(?i)pragma\s+vhdeps\s+style\s+(.+)`)
)

var reservedWords = map[string]bool{
	"entity": true, "configuration": true,
}
