// Package style evaluates the filename/unit-naming conventions of
// spec.md §4.6 (S1-S3) with an embedded Rego policy, following the
// rego.PreparedEvalQuery pattern the rest of the corpus uses for policy
// evaluation.
package style

import (
	"context"
	"embed"
	"fmt"

	"github.com/open-policy-agent/opa/rego"

	"github.com/hdl-tools/vhdeps/internal/diag"
	"github.com/hdl-tools/vhdeps/internal/discover"
	"github.com/hdl-tools/vhdeps/internal/unit"
)

//go:embed rules.rego
var policyFS embed.FS

// UnitInput is one provided unit as seen by the policy.
type UnitInput struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// FileInput is one candidate file as seen by the policy.
type FileInput struct {
	Path             string      `json:"path"`
	StrippedBasename string      `json:"stripped_basename"`
	Mode             string      `json:"mode"`
	Provided         []UnitInput `json:"provided"`
}

// Input is the full policy input: the style rules only look at file-level
// shape, never at a file's internal contents.
type Input struct {
	Files []FileInput `json:"files"`
}

// Violation is one Rego-reported style violation.
type Violation struct {
	File    string `json:"file"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Checker holds the prepared Rego query.
type Checker struct {
	query rego.PreparedEvalQuery
}

// New loads and prepares the embedded style policy.
func New() (*Checker, error) {
	content, err := policyFS.ReadFile("rules.rego")
	if err != nil {
		return nil, fmt.Errorf("loading embedded style policy: %w", err)
	}

	query, err := rego.New(
		rego.Module("rules.rego", string(content)),
		rego.Query("data.vhdeps.style.violations"),
	).PrepareForEval(context.Background())
	if err != nil {
		return nil, fmt.Errorf("preparing style policy query: %w", err)
	}

	return &Checker{query: query}, nil
}

// BuildInput projects discovered files and their lexed provided units into
// the policy's input shape.
func BuildInput(path string, mode string, provided []unit.Provided) FileInput {
	fi := FileInput{
		Path:             path,
		StrippedBasename: unit.Fold(discover.StripTags(path)),
		Mode:             mode,
	}
	for _, p := range provided {
		fi.Provided = append(fi.Provided, UnitInput{Kind: p.ID.Kind.String(), Name: p.ID.Name})
	}
	return fi
}

// Check evaluates the policy against in and returns one diagnostic per
// violation, fatal iff styleIsFatal (spec.md §4.6's ErrorOnStyle knob).
func (c *Checker) Check(in Input, styleIsFatal bool) (diag.List, error) {
	var diags diag.List

	inputMap := toInputMap(in)

	rs, err := c.query.Eval(context.Background(), rego.EvalInput(inputMap))
	if err != nil {
		return diags, fmt.Errorf("evaluating style policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return diags, nil
	}

	raw, ok := rs[0].Expressions[0].Value.([]interface{})
	if !ok {
		return diags, nil
	}
	for _, v := range raw {
		vmap, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		diags.Add(diag.Diagnostic{
			Kind:    diag.Style,
			File:    asString(vmap["file"]),
			Message: fmt.Sprintf("%s: %s", asString(vmap["rule"]), asString(vmap["message"])),
			Fatal:   styleIsFatal,
		})
	}
	return diags, nil
}

func toInputMap(in Input) map[string]interface{} {
	files := make([]interface{}, len(in.Files))
	for i, f := range in.Files {
		provided := make([]interface{}, len(f.Provided))
		for j, p := range f.Provided {
			provided[j] = map[string]interface{}{"kind": p.Kind, "name": p.Name}
		}
		files[i] = map[string]interface{}{
			"path":              f.Path,
			"stripped_basename": f.StrippedBasename,
			"mode":              f.Mode,
			"provided":          provided,
		}
	}
	return map[string]interface{}{"files": files}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}
