// Package binding writes material slots onto mesh objects and spreads
// the slots across faces.
package binding

import (
	"errors"
	"fmt"

	"github.com/Faultbox/matbind/internal/material"
	"github.com/Faultbox/matbind/internal/scene"
)

// Bind errors.
var (
	ErrNothingToBind = errors.New("no materials to bind")
	ErrNotMesh       = errors.New("object has no mesh")
)

// CleanupScope selects which existing slots a rebind removes.
type CleanupScope int

const (
	// PreservePartition removes only slots of the opposite strategy
	// and replaces the current strategy's slots.
	PreservePartition CleanupScope = iota
	// ClearAll removes every existing slot.
	ClearAll
)

func (c CleanupScope) String() string {
	switch c {
	case PreservePartition:
		return "preserve-partition"
	case ClearAll:
		return "clear-all"
	default:
		return fmt.Sprintf("CleanupScope(%d)", int(c))
	}
}

// Outcome describes one bind.
type Outcome struct {
	Slots    []string
	Dropped  []string // Removed by cleanup
	Replaced []string // Same-strategy slots superseded by the new list
	Faces    []int    // Faces per slot
}

// Binder rebinds objects under a cleanup policy.
type Binder struct {
	Naming material.Naming
	Scope  CleanupScope
}

// Bind replaces the object's material slots with ids and redistributes
// faces. Under Single only the first id is bound. The object is left
// untouched on error.
func (b Binder) Bind(obj *scene.Object, ids []string, s material.Strategy) (Outcome, error) {
	if len(ids) == 0 {
		return Outcome{}, ErrNothingToBind
	}
	if !obj.IsMesh() {
		return Outcome{}, fmt.Errorf("%w: %s", ErrNotMesh, obj.Name)
	}

	next := ids
	if s == material.Single {
		next = ids[:1]
	}
	next = append([]string(nil), next...)

	var out Outcome
	keep := make(map[string]bool, len(next))
	for _, id := range next {
		keep[id] = true
	}
	for _, old := range obj.Slots {
		if keep[old] {
			continue
		}
		if b.Scope == PreservePartition && b.Naming.PartitionOf(old) == s {
			out.Replaced = append(out.Replaced, old)
		} else {
			out.Dropped = append(out.Dropped, old)
		}
	}

	faces := Distribute(obj.Mesh.FaceCount(), len(next))
	if err := obj.Mesh.SetFaceMaterials(faces); err != nil {
		return Outcome{}, fmt.Errorf("binding %s: %w", obj.Name, err)
	}
	obj.Slots = next

	out.Slots = next
	out.Faces = Histogram(faces, len(next))
	return out, nil
}

// Clear removes every slot from obj and resets its face indices.
// It returns the number of slots removed.
func Clear(obj *scene.Object) int {
	n := len(obj.Slots)
	obj.Slots = nil
	if obj.Mesh != nil {
		obj.Mesh.FaceMaterials = make([]int, obj.Mesh.FaceCount())
	}
	return n
}
