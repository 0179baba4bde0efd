package material

import (
	"sort"

	"github.com/Faultbox/matbind/internal/assets"
)

// Material is a named material backed by at most one image.
type Material struct {
	Name      string
	ImagePath string
	Texture   *assets.Texture
}

// Attach replaces the backing image in place.
func (m *Material) Attach(tex *assets.Texture) {
	m.Texture = tex
	if tex != nil {
		m.ImagePath = tex.Path
	}
}

// Registry holds materials keyed by name. Not safe for concurrent use.
type Registry struct {
	materials map[string]*Material
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{materials: make(map[string]*Material)}
}

// GetOrCreate returns the named material, creating it when absent.
// The second result is true when the material was created.
func (r *Registry) GetOrCreate(name string) (*Material, bool) {
	if m, ok := r.materials[name]; ok {
		return m, false
	}
	m := &Material{Name: name}
	r.materials[name] = m
	return m, true
}

// Get returns the named material.
func (r *Registry) Get(name string) (*Material, bool) {
	m, ok := r.materials[name]
	return m, ok
}

// Names returns all material names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.materials))
	for name := range r.materials {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of materials.
func (r *Registry) Len() int {
	return len(r.materials)
}

// Remove deletes the named material and reports whether it existed.
func (r *Registry) Remove(name string) bool {
	if _, ok := r.materials[name]; !ok {
		return false
	}
	delete(r.materials, name)
	return true
}
