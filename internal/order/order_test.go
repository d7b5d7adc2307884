package order

import (
	"testing"

	"github.com/hdl-tools/vhdeps/internal/unit"
)

func TestOrderRespectsDependencies(t *testing.T) {
	selected := map[string]bool{"top.vhd": true, "sub.vhd": true}
	tops := map[string]bool{"top.vhd": true}
	graph := map[string]map[string]bool{
		"top.vhd": {"sub.vhd": true},
	}
	files := map[string]FileInfo{
		"top.vhd": {Library: "work"},
		"sub.vhd": {Library: "work"},
	}

	rows, diags := Order(graph, selected, tops, files)
	if diags.Fatal() {
		t.Fatalf("unexpected fatal diagnostics: %+v", diags.All())
	}
	if len(rows) != 2 || rows[0].File != "sub.vhd" || rows[1].File != "top.vhd" {
		t.Fatalf("expected sub.vhd before top.vhd, got %+v", rows)
	}
	if rows[1].Role != "top" || rows[0].Role != "dep" {
		t.Fatalf("expected top/dep roles, got %+v", rows)
	}
}

func TestOrderEntityBeforeArchitecture(t *testing.T) {
	entityID := unit.NewID("work", unit.Entity, "e", "")
	archID := unit.NewID("work", unit.Architecture, "rtl", "e")

	selected := map[string]bool{"e.vhd": true, "e_rtl.vhd": true}
	tops := map[string]bool{}
	graph := map[string]map[string]bool{
		"e_rtl.vhd": {"e.vhd": true},
	}
	files := map[string]FileInfo{
		"e.vhd":     {Library: "work", Provided: []unit.Provided{{ID: entityID, File: "e.vhd"}}},
		"e_rtl.vhd": {Library: "work", Provided: []unit.Provided{{ID: archID, File: "e_rtl.vhd"}}},
	}

	rows, diags := Order(graph, selected, tops, files)
	if diags.Fatal() {
		t.Fatalf("unexpected fatal diagnostics: %+v", diags.All())
	}
	if rows[0].File != "e.vhd" {
		t.Fatalf("expected entity file first, got %+v", rows)
	}
}

func TestOrderDeterministicTieBreak(t *testing.T) {
	selected := map[string]bool{"b.vhd": true, "a.vhd": true}
	tops := map[string]bool{}
	graph := map[string]map[string]bool{}
	files := map[string]FileInfo{
		"b.vhd": {Library: "work"},
		"a.vhd": {Library: "work"},
	}

	rows1, _ := Order(graph, selected, tops, files)
	rows2, _ := Order(graph, selected, tops, files)
	if len(rows1) != 2 || rows1[0].File != "a.vhd" {
		t.Fatalf("expected lexicographic tie-break a.vhd first, got %+v", rows1)
	}
	if rows1[0] != rows2[0] || rows1[1] != rows2[1] {
		t.Fatalf("expected deterministic output across runs, got %+v vs %+v", rows1, rows2)
	}
}

func TestOrderFlagsStalledCycleAsInconsistent(t *testing.T) {
	selected := map[string]bool{"a.vhd": true, "b.vhd": true}
	tops := map[string]bool{}
	graph := map[string]map[string]bool{
		"a.vhd": {"b.vhd": true},
		"b.vhd": {"a.vhd": true},
	}
	files := map[string]FileInfo{
		"a.vhd": {Library: "work"},
		"b.vhd": {Library: "work"},
	}

	_, diags := Order(graph, selected, tops, files)
	if !diags.Fatal() {
		t.Fatalf("expected a fatal InconsistentIndex diagnostic for a stalled sort")
	}
}

func TestOrderMinimalWithRespectToTops(t *testing.T) {
	selected := map[string]bool{"tc_a.vhd": true, "sub.vhd": true}
	tops := map[string]bool{"tc_a.vhd": true}
	graph := map[string]map[string]bool{"tc_a.vhd": {"sub.vhd": true}}
	files := map[string]FileInfo{
		"tc_a.vhd": {Library: "work"},
		"sub.vhd":  {Library: "work"},
	}

	rows, diags := Order(graph, selected, tops, files)
	if diags.Fatal() {
		t.Fatalf("unexpected fatal diagnostics: %+v", diags.All())
	}
	if len(rows) != 2 {
		t.Fatalf("expected exactly the selected files and nothing extra, got %+v", rows)
	}
}
