package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/starford/flatrest/internal/apperr"
)

const resourceURL = "schema.json"

// Validate checks payload (a value decoded by encoding/json, ideally with
// UseNumber so large integers keep their precision) against doc.
// With requireRequired false the top-level required list is ignored so
// partial updates pass, while type, format and pattern constraints still
// apply to the fields present. Violations return *apperr.ValidationError.
func Validate(doc json.RawMessage, payload any, requireRequired bool) error {
	if !requireRequired {
		relaxed, err := dropRequired(doc)
		if err != nil {
			return err
		}
		doc = relaxed
	}
	sch, err := compile(doc)
	if err != nil {
		return fmt.Errorf("schema: compile: %w", err)
	}
	if err := sch.Validate(payload); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &apperr.ValidationError{Detail: describe(ve)}
		}
		return &apperr.ValidationError{Detail: err.Error()}
	}
	return nil
}

// CheckDocument verifies doc is a JSON object that compiles as a JSON Schema.
func CheckDocument(doc []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(doc, &obj); err != nil {
		return &apperr.ValidationError{Detail: "Invalid schema: document must be a JSON object"}
	}
	if _, err := compile(doc); err != nil {
		return &apperr.ValidationError{Detail: "Invalid schema: " + err.Error()}
	}
	return nil
}

func compile(doc []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if err := compiler.AddResource(resourceURL, bytes.NewReader(doc)); err != nil {
		return nil, err
	}
	return compiler.Compile(resourceURL)
}

func dropRequired(doc json.RawMessage) (json.RawMessage, error) {
	var obj map[string]any
	if err := json.Unmarshal(doc, &obj); err != nil {
		return nil, fmt.Errorf("schema: decode: %w", err)
	}
	if _, ok := obj["required"]; !ok {
		return doc, nil
	}
	obj["required"] = []any{}
	out, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("schema: encode: %w", err)
	}
	return out, nil
}

// describe flattens the leaf causes of ve into "location: message" lines.
func describe(ve *jsonschema.ValidationError) string {
	var parts []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			parts = append(parts, fmt.Sprintf("%s: %s", loc, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(parts, "; ")
}
