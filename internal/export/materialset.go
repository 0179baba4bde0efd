// Package export resolves which materials an export covers and drives
// an exporter through a descending ladder of parameter sets.
package export

import (
	"sort"

	"github.com/Faultbox/matbind/internal/material"
	"github.com/Faultbox/matbind/internal/scene"
)

// MaterialSet is the set of materials referenced by a group of objects.
type MaterialSet struct {
	Used    []string            // Sorted
	Users   map[string][]string // Material name to object names, in object order
	Orphans []string            // Registry materials nobody in the group uses, sorted
}

// ResolveMaterialSet collects the materials bound to objects.
// The registry may be nil, in which case Orphans is empty.
func ResolveMaterialSet(objects []*scene.Object, reg *material.Registry) MaterialSet {
	set := MaterialSet{Users: make(map[string][]string)}

	for _, obj := range objects {
		seen := make(map[string]bool, len(obj.Slots))
		for _, name := range obj.Slots {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			set.Users[name] = append(set.Users[name], obj.Name)
		}
	}

	for name := range set.Users {
		set.Used = append(set.Used, name)
	}
	sort.Strings(set.Used)

	if reg != nil {
		for _, name := range reg.Names() {
			if _, ok := set.Users[name]; !ok {
				set.Orphans = append(set.Orphans, name)
			}
		}
	}
	return set
}
