package resolve

import (
	"testing"

	"github.com/hdl-tools/vhdeps/internal/config"
	"github.com/hdl-tools/vhdeps/internal/index"
	"github.com/hdl-tools/vhdeps/internal/unit"
)

func buildIndex(t *testing.T, files map[string]FileData) *index.Index {
	t.Helper()
	var provided []unit.Provided
	meta := map[string]index.FileMeta{}
	for path, fd := range files {
		provided = append(provided, fd.Provided...)
		meta[path] = index.FileMeta{Versions: unit.VersionSet{}, Context: unit.Universal}
	}
	idx, diags := index.Build(provided, meta)
	if diags.Fatal() {
		t.Fatalf("unexpected fatal diagnostics building index: %+v", diags.All())
	}
	return idx
}

func TestResolveFollowsEntityInstantiation(t *testing.T) {
	files := map[string]FileData{
		"top.vhd": {
			Provided: []unit.Provided{
				{ID: unit.NewID("work", unit.Entity, "top", ""), File: "top.vhd"},
				{ID: unit.NewID("work", unit.Architecture, "rtl", "top"), File: "top.vhd"},
			},
			Required: []unit.Required{
				{Consumer: "top.vhd", ID: unit.NewID("work", unit.Entity, "top", ""), Kind: unit.ArchitectureOf},
				{Consumer: "top.vhd", ID: unit.NewID("work", unit.Entity, "sub", ""), Kind: unit.InstantiationDirect, DisplayName: "work.sub"},
			},
			Mode: config.Normal,
		},
		"sub.vhd": {
			Provided: []unit.Provided{
				{ID: unit.NewID("work", unit.Entity, "sub", ""), File: "sub.vhd"},
				{ID: unit.NewID("work", unit.Architecture, "rtl", "sub"), File: "sub.vhd"},
			},
			Required: []unit.Required{
				{Consumer: "sub.vhd", ID: unit.NewID("work", unit.Entity, "sub", ""), Kind: unit.ArchitectureOf},
			},
			Mode: config.Normal,
		},
	}

	in := Input{Index: buildIndex(t, files), Files: files, Builtin: map[string]bool{"ieee": true, "std": true}}
	res, diags := Resolve(in, []string{"top.vhd"}, unit.Simulation, 2008)
	if diags.Fatal() {
		t.Fatalf("unexpected fatal diagnostics: %+v", diags.All())
	}
	if !res.Files["top.vhd"] || !res.Files["sub.vhd"] {
		t.Fatalf("expected both files selected, got %+v", res.Files)
	}
}

func TestResolveUnresolvedReferenceIsFatalInNormalMode(t *testing.T) {
	files := map[string]FileData{
		"top.vhd": {
			Provided: []unit.Provided{{ID: unit.NewID("work", unit.Entity, "top", ""), File: "top.vhd"}},
			Required: []unit.Required{
				{Consumer: "top.vhd", ID: unit.NewID("work", unit.Entity, "missing", ""), Kind: unit.InstantiationDirect, DisplayName: "work.missing"},
			},
			Mode: config.Normal,
		},
	}
	in := Input{Index: buildIndex(t, files), Files: files, Builtin: map[string]bool{}}
	_, diags := Resolve(in, []string{"top.vhd"}, unit.Simulation, 2008)
	if !diags.Fatal() {
		t.Fatalf("expected a fatal UnresolvedReference diagnostic")
	}
}

func TestResolveUnresolvedReferenceIsWarningInBlackBoxMode(t *testing.T) {
	files := map[string]FileData{
		"top.vhd": {
			Provided: []unit.Provided{{ID: unit.NewID("work", unit.Entity, "top", ""), File: "top.vhd"}},
			Required: []unit.Required{
				{Consumer: "top.vhd", ID: unit.NewID("work", unit.Entity, "missing", ""), Kind: unit.InstantiationDirect, DisplayName: "work.missing"},
			},
			Mode: config.BlackBox,
		},
	}
	in := Input{Index: buildIndex(t, files), Files: files, Builtin: map[string]bool{}}
	_, diags := Resolve(in, []string{"top.vhd"}, unit.Simulation, 2008)
	if diags.Fatal() {
		t.Fatalf("expected only a warning in black-box mode, got %+v", diags.All())
	}
	if len(diags.Warnings()) != 1 {
		t.Fatalf("expected exactly one warning, got %+v", diags.All())
	}
}

func TestResolveIgnorePragmaSatisfiesComponent(t *testing.T) {
	files := map[string]FileData{
		"top.vhd": {
			Provided: []unit.Provided{{ID: unit.NewID("work", unit.Entity, "top", ""), File: "top.vhd"}},
			Required: []unit.Required{
				{Consumer: "top.vhd", ID: unit.ID{Kind: unit.Entity, Name: "ghost"}, Kind: unit.InstantiationComponent, DisplayName: "ghost", Scope: []string{"work"}},
			},
			Pragmas: []unit.Pragma{{Kind: unit.IgnoreComponent, Name: "ghost"}},
			Mode:    config.Normal,
		},
	}
	in := Input{Index: buildIndex(t, files), Files: files, Builtin: map[string]bool{}}
	_, diags := Resolve(in, []string{"top.vhd"}, unit.Simulation, 2008)
	if diags.Fatal() {
		t.Fatalf("expected the ignore pragma to satisfy the component, got %+v", diags.All())
	}
}

func TestResolveBuiltinLibraryNeverFails(t *testing.T) {
	files := map[string]FileData{
		"top.vhd": {
			Provided: []unit.Provided{{ID: unit.NewID("work", unit.Entity, "top", ""), File: "top.vhd"}},
			Required: []unit.Required{
				{Consumer: "top.vhd", ID: unit.NewID("ieee", unit.Package, "std_logic_1164", ""), Kind: unit.PackageUse, DisplayName: "ieee.std_logic_1164"},
			},
			Mode: config.Normal,
		},
	}
	in := Input{Index: buildIndex(t, files), Files: files, Builtin: map[string]bool{"ieee": true}}
	_, diags := Resolve(in, []string{"top.vhd"}, unit.Simulation, 2008)
	if diags.Fatal() {
		t.Fatalf("expected ieee use to be satisfied by fiat, got %+v", diags.All())
	}
}

func TestResolveSelectsAllArchitecturesOfAnEntity(t *testing.T) {
	files := map[string]FileData{
		"top.vhd": {
			Provided: []unit.Provided{{ID: unit.NewID("work", unit.Entity, "top", ""), File: "top.vhd"}},
			Required: []unit.Required{
				{Consumer: "top.vhd", ID: unit.NewID("work", unit.Entity, "sub", ""), Kind: unit.InstantiationDirect, DisplayName: "work.sub"},
			},
			Mode: config.Normal,
		},
		"sub_a.vhd": {
			Provided: []unit.Provided{
				{ID: unit.NewID("work", unit.Entity, "sub", ""), File: "sub_a.vhd"},
				{ID: unit.NewID("work", unit.Architecture, "a", "sub"), File: "sub_a.vhd"},
			},
			Required: []unit.Required{
				{Consumer: "sub_a.vhd", ID: unit.NewID("work", unit.Entity, "sub", ""), Kind: unit.ArchitectureOf},
			},
			Mode: config.Normal,
		},
		"sub_b.vhd": {
			Provided: []unit.Provided{
				{ID: unit.NewID("work", unit.Architecture, "b", "sub"), File: "sub_b.vhd"},
			},
			Required: []unit.Required{
				{Consumer: "sub_b.vhd", ID: unit.NewID("work", unit.Entity, "sub", ""), Kind: unit.ArchitectureOf},
			},
			Mode: config.Normal,
		},
	}
	in := Input{Index: buildIndex(t, files), Files: files, Builtin: map[string]bool{}}
	res, diags := Resolve(in, []string{"top.vhd"}, unit.Simulation, 2008)
	if diags.Fatal() {
		t.Fatalf("unexpected fatal diagnostics: %+v", diags.All())
	}
	if !res.Files["sub_a.vhd"] || !res.Files["sub_b.vhd"] {
		t.Fatalf("expected both architectures of sub selected, got %+v", res.Files)
	}
}

// TestResolveTopEntityPullsItsOwnArchitecture covers the direct-entity-top
// case (spec.md §8 SC2's literal "Top: e" scenario): nothing references the
// top entity through a Required edge, so its architecture in a separate
// file must be pulled in from the top-seeding step itself, not the
// requirement-resolution loop.
func TestResolveTopEntityPullsItsOwnArchitecture(t *testing.T) {
	files := map[string]FileData{
		"e.vhd": {
			Provided: []unit.Provided{{ID: unit.NewID("work", unit.Entity, "e", ""), File: "e.vhd"}},
			Mode:     config.Normal,
		},
		"e_arch.vhd": {
			Provided: []unit.Provided{
				{ID: unit.NewID("work", unit.Architecture, "rtl", "e"), File: "e_arch.vhd"},
			},
			Required: []unit.Required{
				{Consumer: "e_arch.vhd", ID: unit.NewID("work", unit.Entity, "e", ""), Kind: unit.ArchitectureOf},
			},
			Mode: config.Normal,
		},
	}
	in := Input{Index: buildIndex(t, files), Files: files, Builtin: map[string]bool{}}
	res, diags := Resolve(in, []string{"e.vhd"}, unit.Simulation, 2008)
	if diags.Fatal() {
		t.Fatalf("unexpected fatal diagnostics: %+v", diags.All())
	}
	if !res.Files["e_arch.vhd"] {
		t.Fatalf("expected the top entity's own architecture file to be selected, got %+v", res.Files)
	}
}

// TestResolveRequiredVersionHardFilter covers the spec.md §4.3-step-2 hard
// version filter threaded through from Input.RequireVersion: a provider
// that doesn't support the required version is excluded outright, even
// when it would otherwise be the closest match to the requested version.
func TestResolveRequiredVersionHardFilter(t *testing.T) {
	files := map[string]FileData{
		"top.vhd": {
			Provided: []unit.Provided{{ID: unit.NewID("work", unit.Entity, "top", ""), File: "top.vhd"}},
			Required: []unit.Required{
				{Consumer: "top.vhd", ID: unit.NewID("work", unit.Package, "u", ""), Kind: unit.PackageUse, DisplayName: "work.u"},
			},
			Mode: config.Normal,
		},
	}
	provided := []unit.Provided{
		{ID: unit.NewID("work", unit.Package, "u", ""), File: "u_93.vhd"},
		{ID: unit.NewID("work", unit.Package, "u", ""), File: "u_08.vhd"},
	}
	meta := map[string]index.FileMeta{
		"top.vhd":   {Versions: unit.VersionSet{}, Context: unit.Universal},
		"u_93.vhd":  {Versions: unit.VersionSet{1993: true}, Context: unit.Universal},
		"u_08.vhd":  {Versions: unit.VersionSet{2008: true}, Context: unit.Universal},
	}
	idx, diags := index.Build(provided, meta)
	if diags.Fatal() {
		t.Fatalf("unexpected fatal diagnostics building index: %+v", diags.All())
	}

	in := Input{Index: idx, Files: files, Builtin: map[string]bool{}, RequireVersion: 1993}
	res, diags := Resolve(in, []string{"top.vhd"}, unit.Simulation, 2008)
	if diags.Fatal() {
		t.Fatalf("unexpected fatal diagnostics: %+v", diags.All())
	}
	if !res.Files["u_93.vhd"] {
		t.Fatalf("expected the required-1993 provider to be selected, got %+v", res.Files)
	}
	if res.Files["u_08.vhd"] {
		t.Fatalf("expected the 2008-only provider to be excluded by the required version, got %+v", res.Files)
	}
}

func TestResolveDetectsGenuineCycle(t *testing.T) {
	files := map[string]FileData{
		"a.vhd": {
			Provided: []unit.Provided{{ID: unit.NewID("work", unit.Package, "a", ""), File: "a.vhd"}},
			Required: []unit.Required{
				{Consumer: "a.vhd", ID: unit.NewID("work", unit.Package, "b", ""), Kind: unit.PackageUse, DisplayName: "work.b"},
			},
			Mode: config.Normal,
		},
		"b.vhd": {
			Provided: []unit.Provided{{ID: unit.NewID("work", unit.Package, "b", ""), File: "b.vhd"}},
			Required: []unit.Required{
				{Consumer: "b.vhd", ID: unit.NewID("work", unit.Package, "a", ""), Kind: unit.PackageUse, DisplayName: "work.a"},
			},
			Mode: config.Normal,
		},
	}
	in := Input{Index: buildIndex(t, files), Files: files, Builtin: map[string]bool{}}
	_, diags := Resolve(in, []string{"a.vhd"}, unit.Simulation, 2008)
	if !diags.Fatal() {
		t.Fatalf("expected a fatal cycle diagnostic")
	}
	found := false
	for _, d := range diags.Fatals() {
		if d.Kind.String() == "Cycle" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a Cycle diagnostic, got %+v", diags.Fatals())
	}
}

func TestResolveSameFileArchitectureEntityIsNotACycle(t *testing.T) {
	files := map[string]FileData{
		"top.vhd": {
			Provided: []unit.Provided{
				{ID: unit.NewID("work", unit.Entity, "top", ""), File: "top.vhd"},
				{ID: unit.NewID("work", unit.Architecture, "rtl", "top"), File: "top.vhd"},
			},
			Required: []unit.Required{
				{Consumer: "top.vhd", ID: unit.NewID("work", unit.Entity, "top", ""), Kind: unit.ArchitectureOf},
			},
			Mode: config.Normal,
		},
	}
	in := Input{Index: buildIndex(t, files), Files: files, Builtin: map[string]bool{}}
	_, diags := Resolve(in, []string{"top.vhd"}, unit.Simulation, 2008)
	if diags.Fatal() {
		t.Fatalf("same-file architecture-of-entity must not be flagged as a cycle, got %+v", diags.All())
	}
}

func TestManyTopsResolvesIndependently(t *testing.T) {
	files := map[string]FileData{
		"tc_a.vhd": {
			Provided: []unit.Provided{{ID: unit.NewID("work", unit.Entity, "tc_a", ""), File: "tc_a.vhd"}},
			Mode:     config.Normal,
		},
		"tc_b.vhd": {
			Provided: []unit.Provided{{ID: unit.NewID("work", unit.Entity, "tc_b", ""), File: "tc_b.vhd"}},
			Mode:     config.Normal,
		},
	}
	in := Input{Index: buildIndex(t, files), Files: files, Builtin: map[string]bool{}}
	results, diags := ManyTops(in, []string{"tc_a.vhd", "tc_b.vhd"}, unit.Simulation, 2008)
	if diags.Fatal() {
		t.Fatalf("unexpected fatal diagnostics: %+v", diags.All())
	}
	if len(results) != 2 {
		t.Fatalf("expected one result per top, got %d", len(results))
	}
	if results["tc_a.vhd"].Files["tc_b.vhd"] {
		t.Fatalf("tc_a's resolution must not include tc_b")
	}
}
