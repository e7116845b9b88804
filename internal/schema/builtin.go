package schema

import (
	"encoding/json"
	"sort"

	"github.com/starford/flatrest/internal/apperr"
)

// defaults are the schemas of the four well-known resources.
var defaults = map[string]string{
	"users": `{
  "type": "object",
  "properties": {
    "id": {"type": "integer", "minimum": 1},
    "name": {"type": "string", "minLength": 1},
    "email": {
      "type": "string",
      "format": "email",
      "pattern": "^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\\.[a-zA-Z]{2,}$"
    }
  },
  "required": ["name", "email"],
  "additionalProperties": false
}`,
	"locations": `{
  "type": "object",
  "properties": {
    "id": {"type": "integer", "minimum": 1},
    "name": {"type": "string", "minLength": 1},
    "address": {"type": "string", "minLength": 1}
  },
  "required": ["name", "address"],
  "additionalProperties": false
}`,
	"devices":     equipmentSchema,
	"consumption": equipmentSchema,
}

const equipmentSchema = `{
  "type": "object",
  "properties": {
    "id": {"type": "integer", "minimum": 1},
    "name": {"type": "string", "minLength": 1},
    "type": {"type": "string", "minLength": 1},
    "location_id": {"type": "integer", "minimum": 1},
    "user_id": {"type": ["integer", "null"], "minimum": 1}
  },
  "required": ["name", "type", "location_id"],
  "additionalProperties": false
}`

// DefaultNames returns the names of the built-in schemas, sorted.
func DefaultNames() []string {
	names := make([]string, 0, len(defaults))
	for n := range defaults {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Builtin is a read-only Registry over the built-in table.
type Builtin struct{}

// Lookup returns the built-in schema for name.
func (Builtin) Lookup(name string) (json.RawMessage, bool, error) {
	doc, ok := defaults[name]
	if !ok {
		return nil, false, nil
	}
	return json.RawMessage(doc), true, nil
}

// List returns every built-in schema.
func (Builtin) List() (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(defaults))
	for n, doc := range defaults {
		out[n] = json.RawMessage(doc)
	}
	return out, nil
}

// Save always fails: the built-in table is fixed at compile time.
func (Builtin) Save(string, json.RawMessage) error {
	return apperr.WithMessage(apperr.ErrReadOnly, "built-in schemas are read-only")
}
