// Package scene holds the in-memory host model: named objects, their
// meshes and material slots, and the shared material registry.
package scene

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/Faultbox/matbind/internal/material"
	"github.com/Faultbox/matbind/pkg/mesh"
)

// Scene errors.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrDuplicateName  = errors.New("object name already in use")
)

// Kind identifies what an object carries.
type Kind string

const (
	KindMesh  Kind = "mesh"
	KindEmpty Kind = "empty"
)

// Object is a named scene object.
type Object struct {
	ID       uuid.UUID
	Name     string
	Kind     Kind
	Position mgl32.Vec3
	Mesh     *mesh.Mesh

	// Slots is the ordered material binding; face material indices
	// address this slice.
	Slots []string
}

// IsMesh reports whether the object can hold materials.
func (o *Object) IsMesh() bool {
	return o.Kind == KindMesh && o.Mesh != nil
}

// Scene is a set of objects plus the material registry.
type Scene struct {
	Objects   []*Object
	Materials *material.Registry
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{Materials: material.NewRegistry()}
}

// Add inserts a new object. A nil mesh creates an empty object.
func (s *Scene) Add(name string, m *mesh.Mesh) (*Object, error) {
	if name == "" {
		return nil, errors.New("object name is empty")
	}
	if _, ok := s.Find(name); ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}

	obj := &Object{
		ID:   uuid.New(),
		Name: name,
		Kind: KindEmpty,
		Mesh: m,
	}
	if m != nil {
		obj.Kind = KindMesh
	}
	s.Objects = append(s.Objects, obj)
	return obj, nil
}

// Find looks up an object by name.
func (s *Scene) Find(name string) (*Object, bool) {
	for _, obj := range s.Objects {
		if obj.Name == name {
			return obj, true
		}
	}
	return nil, false
}

// Select returns mesh objects by name, in the given order.
// With no names every mesh object is returned in scene order.
// Named non-mesh objects are skipped.
func (s *Scene) Select(names ...string) ([]*Object, error) {
	var out []*Object
	if len(names) == 0 {
		for _, obj := range s.Objects {
			if obj.IsMesh() {
				out = append(out, obj)
			}
		}
		return out, nil
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		obj, ok := s.Find(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, name)
		}
		if obj.IsMesh() {
			out = append(out, obj)
		}
	}
	return out, nil
}

// Remove deletes the named object.
func (s *Scene) Remove(name string) error {
	for i, obj := range s.Objects {
		if obj.Name == name {
			s.Objects = append(s.Objects[:i], s.Objects[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrObjectNotFound, name)
}

// MaterialUsers counts objects bound to each material.
func (s *Scene) MaterialUsers() map[string]int {
	users := make(map[string]int)
	for _, obj := range s.Objects {
		seen := make(map[string]bool, len(obj.Slots))
		for _, slot := range obj.Slots {
			if !seen[slot] {
				seen[slot] = true
				users[slot]++
			}
		}
	}
	return users
}
