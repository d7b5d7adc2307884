package discover

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/hdl-tools/vhdeps/internal/unit"
)

var yearTag = regexp.MustCompile(`^[0-9]{2}$`)

// yearFromTag converts any two-digit filename tag to its four-digit VHDL
// year (spec.md §6: "any [0-9]{2}", not just the handful of years the
// language has actually revised in). 70-99 are 20th-century, 00-69 are
// 21st, the same pivot _parse_version uses in the original tool.
func yearFromTag(tag string) unit.Version {
	n, _ := strconv.Atoi(tag) // yearTag already guarantees two digits
	if n < 70 {
		return unit.Version(2000 + n)
	}
	return unit.Version(1900 + n)
}

// parseTags splits basename on "." and classifies every segment that is
// neither the first nor the last (spec.md §6 "Filename tag format").
type tags struct {
	Versions unit.VersionSet
	Context  unit.Context
}

func parseTags(path string) tags {
	base := filepath.Base(path)
	segments := strings.Split(base, ".")
	result := tags{Versions: unit.VersionSet{}}

	if len(segments) <= 2 {
		return result
	}

	sawSim, sawSyn := false, false
	for _, seg := range segments[1 : len(segments)-1] {
		lower := strings.ToLower(seg)
		switch {
		case lower == "sim":
			sawSim = true
		case lower == "syn":
			sawSyn = true
		case yearTag.MatchString(seg):
			result.Versions[yearFromTag(seg)] = true
		default:
			// Any other tag is reserved and silently ignored.
		}
	}

	switch {
	case sawSim && sawSyn:
		result.Context = unit.Universal
	case sawSim:
		result.Context = unit.SimOnly
	case sawSyn:
		result.Context = unit.SynOnly
	default:
		result.Context = unit.Universal
	}

	return result
}

// StripTags returns the basename with its extension and dot-separated tags
// removed, for the style checker's filename/unit-name match rule (S3).
func StripTags(path string) string {
	base := filepath.Base(path)
	segments := strings.Split(base, ".")
	if len(segments) <= 1 {
		return base
	}
	return segments[0]
}
