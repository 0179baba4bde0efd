package mesh

import "github.com/go-gl/mathgl/mgl32"

// NewCube creates an axis-aligned cube centered at the origin with six quad faces.
func NewCube(size float32) *Mesh {
	h := size / 2
	m := &Mesh{
		Positions: []mgl32.Vec3{
			{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
			{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
		},
		Faces: []Face{
			{Indices: []uint32{0, 3, 2, 1}}, // -Z
			{Indices: []uint32{4, 5, 6, 7}}, // +Z
			{Indices: []uint32{0, 4, 7, 3}}, // -X
			{Indices: []uint32{1, 2, 6, 5}}, // +X
			{Indices: []uint32{0, 1, 5, 4}}, // -Y
			{Indices: []uint32{3, 7, 6, 2}}, // +Y
		},
	}
	m.FaceMaterials = make([]int, len(m.Faces))
	return m
}

// NewGrid creates a flat grid of cols*rows quads on the XZ plane, facing +Y.
func NewGrid(cols, rows int, size float32) *Mesh {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	m := &Mesh{}
	stepX := size / float32(cols)
	stepZ := size / float32(rows)
	origin := -size / 2

	for z := 0; z <= rows; z++ {
		for x := 0; x <= cols; x++ {
			m.Positions = append(m.Positions, mgl32.Vec3{
				origin + float32(x)*stepX,
				0,
				origin + float32(z)*stepZ,
			})
		}
	}

	stride := uint32(cols + 1)
	for z := 0; z < rows; z++ {
		for x := 0; x < cols; x++ {
			i := uint32(z)*stride + uint32(x)
			m.Faces = append(m.Faces, Face{Indices: []uint32{i, i + stride, i + stride + 1, i + 1}})
		}
	}
	m.FaceMaterials = make([]int, len(m.Faces))
	return m
}
