package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Catalog is a registry of schema definitions keyed by entity name. It is safe
// for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	schemas map[string]*SchemaDefinition
}

// NewCatalog creates a catalog holding the given schemas.
func NewCatalog(schemas ...*SchemaDefinition) (*Catalog, error) {
	c := &Catalog{schemas: make(map[string]*SchemaDefinition)}
	for _, s := range schemas {
		if err := c.Register(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a schema to the catalog. Registering a name twice is an error.
func (c *Catalog) Register(s *SchemaDefinition) error {
	if s == nil {
		return fmt.Errorf("SchemaDefinition cannot be nil")
	}
	if err := s.Check(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.schemas[s.Name]; exists {
		return fmt.Errorf("schema '%s' is already registered", s.Name)
	}
	c.schemas[s.Name] = s
	return nil
}

// Get returns the schema registered under name.
func (c *Catalog) Get(name string) (*SchemaDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.schemas[name]
	return s, ok
}

// Names returns the registered entity names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.schemas))
	for name := range c.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
