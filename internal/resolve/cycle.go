package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hdl-tools/vhdeps/internal/diag"
)

// color tracks the DFS state of a file node while hunting for cycles.
// Same-file architecture-of-entity and body-of-package edges never reach
// here: the resolver only records an edge when the reference resolves to
// a different file (spec.md §4.4), so those self-bindings can never form
// a back edge.
type color int

const (
	white color = iota
	gray
	black
)

// detectCycles runs a DFS over the file dependency graph built during
// resolution and reports one fatal diagnostic per cycle found.
func detectCycles(graph map[string]map[string]bool) diag.List {
	var diags diag.List

	colors := make(map[string]color)
	var stack []string

	var nodes []string
	seen := map[string]bool{}
	for from, tos := range graph {
		if !seen[from] {
			seen[from] = true
			nodes = append(nodes, from)
		}
		for to := range tos {
			if !seen[to] {
				seen[to] = true
				nodes = append(nodes, to)
			}
		}
	}
	sort.Strings(nodes)

	var visit func(node string)
	visit = func(node string) {
		colors[node] = gray
		stack = append(stack, node)

		var next []string
		for to := range graph[node] {
			next = append(next, to)
		}
		sort.Strings(next)

		for _, to := range next {
			switch colors[to] {
			case white:
				visit(to)
			case gray:
				diags.Add(cycleDiagnostic(stack, to))
			}
		}

		stack = stack[:len(stack)-1]
		colors[node] = black
	}

	for _, n := range nodes {
		if colors[n] == white {
			visit(n)
		}
	}

	return diags
}

func cycleDiagnostic(stack []string, closingNode string) diag.Diagnostic {
	start := 0
	for i, n := range stack {
		if n == closingNode {
			start = i
			break
		}
	}
	cycle := append(append([]string{}, stack[start:]...), closingNode)
	return diag.Diagnostic{
		Kind:    diag.Cycle,
		File:    stack[start],
		Message: fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")),
		Fatal:   true,
	}
}
