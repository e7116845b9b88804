package resource

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/flatrest/internal/schema"
	"github.com/starford/flatrest/internal/storage"
)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ReservedNames are top-level path segments owned by the service itself.
var ReservedNames = []string{"schemas", "info", "events", "health"}

// Binding is a discovered resource and its backing file.
type Binding struct {
	Name string
	Path string
}

// ValidateName reports whether name can be used as a resource or schema name.
func ValidateName(name string) error {
	reserved := make([]any, len(ReservedNames))
	for i, n := range ReservedNames {
		reserved[i] = n
	}
	return validation.Validate(name,
		validation.Required,
		validation.Match(nameRe).Error("must contain only letters, digits, '_' or '-'"),
		validation.NotIn(reserved...).Error("is a reserved name"),
	)
}

// Discover enumerates the collection files present in store. Files whose
// name cannot be routed are skipped with a warning.
func Discover(store storage.RecordStore, logger *slog.Logger) ([]Binding, error) {
	names, err := store.Names()
	if err != nil {
		return nil, fmt.Errorf("resource: discover: %w", err)
	}
	out := make([]Binding, 0, len(names))
	for _, n := range names {
		if err := ValidateName(n); err != nil {
			logger.Warn("discovery: skipping resource file",
				slog.String("name", n),
				slog.String("error", err.Error()))
			continue
		}
		out = append(out, Binding{Name: n, Path: store.Path(n)})
	}
	logger.Info("discovery: found resources", slog.Int("count", len(out)))
	return out, nil
}

// Catalog holds one Service per bound resource.
type Catalog struct {
	services map[string]*Service
	names    []string
}

// NewCatalog creates a Service for each binding.
func NewCatalog(bindings []Binding, store storage.RecordStore, schemas schema.Registry, opts ...Option) *Catalog {
	c := &Catalog{services: make(map[string]*Service, len(bindings))}
	for _, b := range bindings {
		if _, dup := c.services[b.Name]; dup {
			continue
		}
		c.services[b.Name] = NewService(b.Name, store, schemas, opts...)
		c.names = append(c.names, b.Name)
	}
	sort.Strings(c.names)
	return c
}

// Names returns the bound resource names, sorted.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Get returns the Service bound to name.
func (c *Catalog) Get(name string) (*Service, bool) {
	s, ok := c.services[name]
	return s, ok
}
