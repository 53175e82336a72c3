package manifest

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Validation error codes (M100-M199).
const (
	ErrSyntax      = "M100" // document is not parseable YAML
	ErrSchema      = "M101" // document violates the manifest schema
	ErrDuplicateID = "M102" // id declared twice within a namespace
	ErrInternal    = "M103" // embedded schema failed to compile
)

// ValidationError is one manifest validation failure. Validation
// collects all errors instead of failing fast.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks manifest bytes against the embedded CUE schema plus
// the semantic rules the schema cannot express (unique ids per
// namespace). Returns all errors found; empty means valid.
func Validate(data []byte) []ValidationError {
	file, err := cueyaml.Extract("manifest.yaml", data)
	if err != nil {
		return cueErrorList(ErrSyntax, err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE).LookupPath(cue.ParsePath("#Manifest"))
	if err := schema.Err(); err != nil {
		return []ValidationError{{
			Field:   "schema",
			Message: err.Error(),
			Code:    ErrInternal,
		}}
	}

	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return cueErrorList(ErrSyntax, err)
	}

	if err := schema.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return cueErrorList(ErrSchema, err)
	}

	return checkIDs(data)
}

// checkIDs enforces id uniqueness within each namespace. The schema has
// already vetted the document shape, so decoding is expected to succeed.
func checkIDs(data []byte) []ValidationError {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return []ValidationError{{
			Field:   "manifest",
			Message: err.Error(),
			Code:    ErrSyntax,
		}}
	}

	var errs []ValidationError

	seen := make(map[string]bool, len(m.Chunks))
	for _, c := range m.Chunks {
		if seen[c.ID] {
			errs = append(errs, ValidationError{
				Field:   "chunks",
				Message: fmt.Sprintf("duplicate chunk id %q", c.ID),
				Code:    ErrDuplicateID,
			})
		}
		seen[c.ID] = true
	}

	seen = make(map[string]bool, len(m.Components))
	for _, c := range m.Components {
		if seen[c.ID] {
			errs = append(errs, ValidationError{
				Field:   "components",
				Message: fmt.Sprintf("duplicate component id %q", c.ID),
				Code:    ErrDuplicateID,
			})
		}
		seen[c.ID] = true
	}

	return errs
}

// cueErrorList expands a CUE error into positioned validation errors.
func cueErrorList(code string, err error) []ValidationError {
	list := cueerrors.Errors(err)
	out := make([]ValidationError, 0, len(list))
	for _, e := range list {
		ve := ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: e.Error(),
			Code:    code,
		}
		if pos := e.Position(); pos.IsValid() {
			ve.Line = pos.Line()
		}
		out = append(out, ve)
	}
	if len(out) == 0 {
		out = append(out, ValidationError{Field: "manifest", Message: err.Error(), Code: code})
	}
	return out
}
