package binding

import "fmt"

// Distribute assigns face i the slot index i mod slots.
// It panics when slots < 1; callers must bind at least one material first.
func Distribute(faces, slots int) []int {
	if slots < 1 {
		panic(fmt.Sprintf("binding: distribute %d faces over %d slots", faces, slots))
	}
	if faces < 0 {
		faces = 0
	}
	indices := make([]int, faces)
	for i := range indices {
		indices[i] = i % slots
	}
	return indices
}

// Histogram counts faces per slot. Out-of-range indices are ignored.
func Histogram(indices []int, slots int) []int {
	if slots < 0 {
		slots = 0
	}
	counts := make([]int, slots)
	for _, idx := range indices {
		if idx >= 0 && idx < slots {
			counts[idx]++
		}
	}
	return counts
}
