package config

import (
	"embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaFS embed.FS

// Validate checks raw config JSON against the embedded #Config CUE schema.
// This is the contract guard between a hand-written vhdeps.json and the
// discovery pipeline: a typo like `"mode": "strikt"` is rejected here with
// a field-level error rather than silently discovery-ing zero files later.
func Validate(data []byte) error {
	schemaBytes, err := schemaFS.ReadFile("schema.cue")
	if err != nil {
		return fmt.Errorf("loading embedded schema: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaBytes)
	if schema.Err() != nil {
		return fmt.Errorf("compiling schema: %w", schema.Err())
	}

	value := ctx.CompileBytes(data)
	if value.Err() != nil {
		return fmt.Errorf("compiling config as CUE: %w", value.Err())
	}

	configDef := schema.LookupPath(cue.ParsePath("#Config"))
	if configDef.Err() != nil {
		return fmt.Errorf("looking up #Config definition: %w", configDef.Err())
	}

	unified := configDef.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	return nil
}
