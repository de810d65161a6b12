// Package capability works out which switch kinds a device model supports.
package capability

import (
	"errors"
	"fmt"

	"air-purifier-bridge/internal/domain/model"
)

var (
	ErrUnsupportedModel = errors.New("unsupported model")
	ErrInvalidHierarchy = errors.New("invalid model hierarchy")
)

// Resolver maps device models to their family chain, ordered general to specific.
type Resolver struct {
	chains map[string][]model.Family
}

func NewResolver(families []model.Family, models map[string]string) (*Resolver, error) {
	byName := make(map[string]model.Family, len(families))
	for _, f := range families {
		if _, dup := byName[f.Name]; dup {
			return nil, fmt.Errorf("%w: family %q declared twice", ErrInvalidHierarchy, f.Name)
		}
		byName[f.Name] = f
	}

	r := &Resolver{chains: make(map[string][]model.Family, len(models))}
	for m, name := range models {
		chain, err := chainOf(name, byName)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", m, err)
		}
		r.chains[m] = chain
	}
	return r, nil
}

// chainOf walks parent links from name to the root and returns the levels
// root first.
func chainOf(name string, byName map[string]model.Family) ([]model.Family, error) {
	var chain []model.Family
	visited := make(map[string]bool)
	for cur := name; cur != ""; {
		f, ok := byName[cur]
		if !ok {
			return nil, fmt.Errorf("%w: unknown family %q", ErrInvalidHierarchy, cur)
		}
		if visited[cur] {
			return nil, fmt.Errorf("%w: cycle through family %q", ErrInvalidHierarchy, cur)
		}
		visited[cur] = true
		chain = append(chain, f)
		cur = f.Parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

func (r *Resolver) Supports(deviceModel string) bool {
	_, ok := r.chains[deviceModel]
	return ok
}

// Hierarchy returns the family chain of deviceModel, most general first.
func (r *Resolver) Hierarchy(deviceModel string) ([]model.Family, error) {
	chain, ok := r.chains[deviceModel]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, deviceModel)
	}
	return append([]model.Family(nil), chain...), nil
}

// Resolve concatenates the switch lists of every level of the model's hierarchy,
// most general first. Kinds declared at several levels appear several times.
func (r *Resolver) Resolve(deviceModel string) ([]string, error) {
	chain, err := r.Hierarchy(deviceModel)
	if err != nil {
		return nil, err
	}
	var kinds []string
	for _, level := range chain {
		kinds = append(kinds, level.Switches...)
	}
	return kinds, nil
}

// Intersect keeps the registry descriptors whose kind was resolved, in registry
// order. Each descriptor appears at most once whatever the resolved multiplicity.
func Intersect(resolved []string, registry []model.ControlPointDescriptor) []model.ControlPointDescriptor {
	present := make(map[string]struct{}, len(resolved))
	for _, k := range resolved {
		present[k] = struct{}{}
	}
	var out []model.ControlPointDescriptor
	for _, d := range registry {
		if _, ok := present[d.Kind]; ok {
			out = append(out, d)
		}
	}
	return out
}
