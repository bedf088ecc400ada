package soul

import (
	"fmt"
	"sort"
)

// Blueprint is the immutable descriptor of a simulated character: its name,
// personality text, and conversational goal. Blueprints are selected at
// session creation and never mutated.
type Blueprint struct {
	Name        string
	Personality string
	Goal        string
}

// Samantha is the default shipped blueprint.
var Samantha = Blueprint{
	Name: "Samantha",
	Personality: `Samantha is sharp, warm, and a little mischievous. She listens
closely, teases gently, and is genuinely curious about whoever she is talking
to. She speaks plainly and avoids sounding like an assistant.`,
	Goal: "Making the user happy and engaged",
}

// Catalog is an immutable name-to-Blueprint lookup table, built once at
// startup and injected into session creation.
type Catalog struct {
	blueprints map[string]Blueprint
}

// NewCatalog creates a Catalog from the given blueprints. Later duplicates
// of a name replace earlier ones.
func NewCatalog(blueprints ...Blueprint) *Catalog {
	m := make(map[string]Blueprint, len(blueprints))
	for _, bp := range blueprints {
		m[bp.Name] = bp
	}
	return &Catalog{blueprints: m}
}

// DefaultCatalog returns a Catalog holding the shipped blueprints.
func DefaultCatalog() *Catalog {
	return NewCatalog(Samantha)
}

// Get retrieves a blueprint by name.
func (c *Catalog) Get(name string) (Blueprint, error) {
	bp, exists := c.blueprints[name]
	if !exists {
		return Blueprint{}, fmt.Errorf("%w: %s", ErrBlueprintNotFound, name)
	}
	return bp, nil
}

// Names returns all blueprint names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.blueprints))
	for name := range c.blueprints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
