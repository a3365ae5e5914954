package usecase

import (
	"fmt"
	"sort"
)

type named interface {
	Name() string
}

// Registry maps names to implementations. It is immutable once built.
type Registry[T named] struct {
	items map[string]T
	names []string
}

func newRegistry[T named](items []T) (*Registry[T], error) {
	r := &Registry[T]{items: make(map[string]T, len(items))}
	for _, it := range items {
		name := it.Name()
		if _, ok := r.items[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		r.items[name] = it
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Names returns the registered names in lexical order.
func (r *Registry[T]) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *Registry[T]) lookup(name string) (T, bool) {
	it, ok := r.items[name]
	return it, ok
}

// MethodRegistry holds the available detection methods.
type MethodRegistry struct {
	*Registry[DetectionMethod]
}

// NewMethodRegistry builds a registry from methods. Duplicate names are rejected.
func NewMethodRegistry(methods ...DetectionMethod) (*MethodRegistry, error) {
	r, err := newRegistry(methods)
	if err != nil {
		return nil, err
	}
	return &MethodRegistry{r}, nil
}

// Lookup returns the method registered under name or an ErrUnknownMethod error.
func (r *MethodRegistry) Lookup(name string) (DetectionMethod, error) {
	m, ok := r.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownMethod, name)
	}
	return m, nil
}

// StrategyRegistry holds the available decision strategies.
type StrategyRegistry struct {
	*Registry[DecisionStrategy]
}

// NewStrategyRegistry builds a registry from strategies. Duplicate names are rejected.
func NewStrategyRegistry(strategies ...DecisionStrategy) (*StrategyRegistry, error) {
	r, err := newRegistry(strategies)
	if err != nil {
		return nil, err
	}
	return &StrategyRegistry{r}, nil
}

// Lookup returns the strategy registered under name or an ErrUnknownStrategy error.
func (r *StrategyRegistry) Lookup(name string) (DecisionStrategy, error) {
	s, ok := r.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownStrategy, name)
	}
	return s, nil
}
