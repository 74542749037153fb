package config

import (
	"fmt"
	"strings"
)

// Model is one entry of the model catalog offered in the selector.
type Model struct {
	Name string
	ID   string
}

// Models is the ordered model catalog. The first entry is the default.
type Models []Model

// Lookup resolves a display name to its backend model identifier.
func (m Models) Lookup(name string) (Model, bool) {
	name = strings.TrimSpace(name)
	for _, model := range m {
		if model.Name == name {
			return model, true
		}
	}
	return Model{}, false
}

// Default returns the first catalog entry.
func (m Models) Default() Model {
	if len(m) == 0 {
		return Model{}
	}
	return m[0]
}

// Names returns display names in catalog order.
func (m Models) Names() []string {
	out := make([]string, 0, len(m))
	for _, model := range m {
		out = append(out, model.Name)
	}
	return out
}

// ParseModels parses "Name=id;Name=id" into a catalog.
func ParseModels(raw string) (Models, error) {
	var out Models
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, id, ok := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		id = strings.TrimSpace(id)
		if !ok || name == "" || id == "" {
			return nil, fmt.Errorf("invalid model entry %q", part)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate model name %q", name)
		}
		seen[name] = struct{}{}
		out = append(out, Model{Name: name, ID: id})
	}
	return out, nil
}
