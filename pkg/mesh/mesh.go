// Package mesh provides polygon mesh data with per-face material indices.
package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh errors.
var (
	ErrFaceCountMismatch = errors.New("face material count does not match face count")
	ErrInvalidFace       = errors.New("invalid face")
)

// Face is a polygon referencing vertex positions by index.
type Face struct {
	Indices []uint32
}

// Mesh holds polygon geometry and the face→material-index relation.
type Mesh struct {
	Positions     []mgl32.Vec3
	Faces         []Face
	FaceMaterials []int // One slot index per face
}

// Bounds holds the axis-aligned bounding box of a mesh.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// FaceCount returns the number of polygons.
func (m *Mesh) FaceCount() int {
	if m == nil {
		return 0
	}
	return len(m.Faces)
}

// SetFaceMaterials replaces the face→material-index relation.
func (m *Mesh) SetFaceMaterials(indices []int) error {
	if len(indices) != len(m.Faces) {
		return fmt.Errorf("%w: %d indices for %d faces", ErrFaceCountMismatch, len(indices), len(m.Faces))
	}
	m.FaceMaterials = append(m.FaceMaterials[:0], indices...)
	return nil
}

// MaterialIndex returns the slot index of face i (0 when unset).
func (m *Mesh) MaterialIndex(i int) int {
	if i < 0 || i >= len(m.FaceMaterials) {
		return 0
	}
	return m.FaceMaterials[i]
}

// Validate checks that every face references existing vertices.
func (m *Mesh) Validate() error {
	for i, f := range m.Faces {
		if len(f.Indices) < 3 {
			return fmt.Errorf("%w %d: %d vertices", ErrInvalidFace, i, len(f.Indices))
		}
		for _, idx := range f.Indices {
			if int(idx) >= len(m.Positions) {
				return fmt.Errorf("%w %d: vertex %d out of range", ErrInvalidFace, i, idx)
			}
		}
	}
	return nil
}

// FaceNormal returns the unit normal of face i computed from its first three vertices.
func (m *Mesh) FaceNormal(i int) mgl32.Vec3 {
	f := m.Faces[i]
	v0 := m.Positions[f.Indices[0]]
	v1 := m.Positions[f.Indices[1]]
	v2 := m.Positions[f.Indices[2]]
	n := v1.Sub(v0).Cross(v2.Sub(v0))

	// Degenerate face
	if n.Len() < 1e-6 {
		return mgl32.Vec3{0, 1, 0}
	}
	return n.Normalize()
}

// Triangulate fans face i into triangles, returning corner positions within the face.
func (m *Mesh) Triangulate(i int) [][3]int {
	n := len(m.Faces[i].Indices)
	tris := make([][3]int, 0, n-2)
	for k := 1; k+1 < n; k++ {
		tris = append(tris, [3]int{0, k, k + 1})
	}
	return tris
}

// Bounds returns the bounding box of all positions.
func (m *Mesh) Bounds() Bounds {
	if len(m.Positions) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: m.Positions[0], Max: m.Positions[0]}
	for _, p := range m.Positions[1:] {
		for k := 0; k < 3; k++ {
			if p[k] < b.Min[k] {
				b.Min[k] = p[k]
			}
			if p[k] > b.Max[k] {
				b.Max[k] = p[k]
			}
		}
	}
	return b
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Positions:     append([]mgl32.Vec3(nil), m.Positions...),
		Faces:         make([]Face, len(m.Faces)),
		FaceMaterials: append([]int(nil), m.FaceMaterials...),
	}
	for i, f := range m.Faces {
		out.Faces[i] = Face{Indices: append([]uint32(nil), f.Indices...)}
	}
	return out
}
