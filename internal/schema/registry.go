// Package schema maps resource names to JSON Schema documents and validates records against them.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/starford/flatrest/internal/storage"
)

// Registry resolves the schema of a resource. A missing schema is not an error.
type Registry interface {
	Lookup(name string) (json.RawMessage, bool, error)
	List() (map[string]json.RawMessage, error)
	Save(name string, doc json.RawMessage) error
}

// FileRegistry keeps one document per schema in a DocumentStore.
type FileRegistry struct {
	store storage.DocumentStore
}

// NewFileRegistry creates a registry over store.
func NewFileRegistry(store storage.DocumentStore) *FileRegistry {
	return &FileRegistry{store: store}
}

// Seed writes every built-in schema that has no document yet and returns the names written.
func (r *FileRegistry) Seed() ([]string, error) {
	var written []string
	for _, name := range DefaultNames() {
		if _, err := r.store.ReadDocument(name); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return written, fmt.Errorf("schema: seed %s: %w", name, err)
		}
		if err := r.store.WriteDocument(name, []byte(defaults[name])); err != nil {
			return written, fmt.Errorf("schema: seed %s: %w", name, err)
		}
		written = append(written, name)
	}
	return written, nil
}

// Lookup reads the schema document for name.
func (r *FileRegistry) Lookup(name string) (json.RawMessage, bool, error) {
	data, err := r.store.ReadDocument(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("schema: lookup %s: %w", name, err)
	}
	return json.RawMessage(data), true, nil
}

// List reads every schema document.
func (r *FileRegistry) List() (map[string]json.RawMessage, error) {
	names, err := r.store.Names()
	if err != nil {
		return nil, fmt.Errorf("schema: list: %w", err)
	}
	out := make(map[string]json.RawMessage, len(names))
	for _, n := range names {
		data, err := r.store.ReadDocument(n)
		if err != nil {
			return nil, fmt.Errorf("schema: list: %w", err)
		}
		out[n] = json.RawMessage(data)
	}
	return out, nil
}

// Save overwrites the schema document for name.
func (r *FileRegistry) Save(name string, doc json.RawMessage) error {
	if err := r.store.WriteDocument(name, doc); err != nil {
		return fmt.Errorf("schema: save %s: %w", name, err)
	}
	return nil
}
