package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Load reads the experiment at path, layers it over Default and validates
// the result.
func Load(path string) (Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Experiment{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Experiment
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		cfg, err = FromYAML(data)
	case ".cue", ".json":
		cfg, err = FromCUE(path, data)
	default:
		return Experiment{}, fmt.Errorf("unsupported config format %q (want .yaml, .yml, .cue or .json)", ext)
	}
	if err != nil {
		return Experiment{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Experiment{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// FromYAML decodes data over Default. Unknown fields are rejected.
func FromYAML(data []byte) (Experiment, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return Experiment{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// FromCUE unifies data with the #Experiment schema and decodes the concrete
// result over Default. filename is used in error positions only.
func FromCUE(filename string, data []byte) (Experiment, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Experiment{}, fmt.Errorf("building config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Experiment"))

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return Experiment{}, formatCUEError(err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Experiment{}, formatCUEError(err)
	}

	raw, err := unified.MarshalJSON()
	if err != nil {
		return Experiment{}, formatCUEError(err)
	}
	return FromJSON(raw)
}

// FromJSON decodes data over Default. It accepts the output of
// MarshalSnapshot.
func FromJSON(data []byte) (Experiment, error) {
	cfg := Default()
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return Experiment{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return cfg, nil
}

// formatCUEError reports the first CUE error with its source position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	format, args := first.Msg()
	fe := &FieldError{Field: "cue", Message: fmt.Sprintf(format, args...)}
	// Paths may be rooted at the schema definition.
	path := first.Path()
	for len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}
	if len(path) > 0 {
		fe.Field = strings.Join(path, ".")
	}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		fe.Pos = positions[0]
	}
	return fe
}
