// Package registry keeps canonical instances of recurring values, such as
// units and roles, so that every mention of the same term in a document
// resolves to the same object.
package registry

import (
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/isa"
	"github.com/NathanHouwaart/ISA-PHM-Backend/internal/normalize"
)

// Registry maps a normalized term to a single canonical value. Entries are
// never removed, and Values returns them in the order they were created.
type Registry[T any] struct {
	create func(term string) T
	index  map[string]T
	order  []string
}

func New[T any](create func(term string) T) *Registry[T] {
	return &Registry[T]{
		create: create,
		index:  make(map[string]T),
	}
}

// GetOrCreate returns the canonical value for term, creating it on first
// use. A blank term has no value and the zero value of T is returned.
func (r *Registry[T]) GetOrCreate(term string) T {
	var zero T

	key := normalize.CleanText(term)
	if key == "" {
		return zero
	}

	if existing, ok := r.index[key]; ok {
		return existing
	}

	value := r.create(key)
	r.index[key] = value
	r.order = append(r.order, key)
	return value
}

func (r *Registry[T]) Len() int {
	return len(r.order)
}

func (r *Registry[T]) Values() []T {
	values := make([]T, 0, len(r.order))
	for _, key := range r.order {
		values = append(values, r.index[key])
	}
	return values
}

// Annotations is a registry of ontology annotations.
type Annotations = Registry[*isa.OntologyAnnotation]

func NewAnnotations() *Annotations {
	return New(isa.NewOntologyAnnotation)
}

// Set holds the registries used during a single conversion. Each registry is
// its own namespace, a unit "kg" and a role "kg" are different objects.
type Set struct {
	Units *Annotations
	Roles *Annotations
	Terms *Annotations
}

func NewSet() *Set {
	return &Set{
		Units: NewAnnotations(),
		Roles: NewAnnotations(),
		Terms: NewAnnotations(),
	}
}
