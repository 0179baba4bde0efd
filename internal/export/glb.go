package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/matbind/internal/assets"
	"github.com/Faultbox/matbind/internal/logger"
	"github.com/Faultbox/matbind/internal/material"
	"github.com/Faultbox/matbind/internal/scene"
	"github.com/Faultbox/matbind/pkg/glb"
	"github.com/Faultbox/matbind/pkg/mesh"
)

// DefaultSupported lists the parameters GLBExporter accepts by default.
var DefaultSupported = []string{
	ParamFilePath,
	ParamFormat,
	ParamUseSelection,
	ParamExportMaterials,
	ParamExportNormals,
}

// Loader loads texture images.
type Loader interface {
	Load(path string) (*assets.Texture, error)
}

// Summary describes the last file written by a GLBExporter.
type Summary struct {
	Path      string
	Objects   int
	Materials int
	Images    int
	Bytes     int64
}

// GLBExporter writes binary glTF files.
type GLBExporter struct {
	Assets    Loader   // Used for materials without a loaded texture
	Generator string   // asset.generator value
	Supported []string // Accepted parameter names; nil means DefaultSupported

	Last Summary
}

func (e *GLBExporter) supports(key string) bool {
	supported := e.Supported
	if supported == nil {
		supported = DefaultSupported
	}
	for _, s := range supported {
		if s == key {
			return true
		}
	}
	return false
}

// Export writes req as a GLB file using params.
func (e *GLBExporter) Export(req Request, params Params) error {
	for key := range params {
		if !e.supports(key) {
			return fmt.Errorf("%w: %s", ErrParameterUnsupported, key)
		}
	}

	if format := params.Text(ParamFormat, FormatGLB); !strings.EqualFold(format, FormatGLB) {
		return fmt.Errorf("glb exporter cannot write format %q", format)
	}

	path := params.Text(ParamFilePath, req.Path)
	if path == "" {
		return errors.New("no output path")
	}

	withMaterials := true
	switch mode := params.Text(ParamExportMaterials, MaterialsExport); mode {
	case MaterialsExport:
	case MaterialsNone:
		withMaterials = false
	default:
		return fmt.Errorf("%w: %s=%s", ErrParameterUnsupported, ParamExportMaterials, mode)
	}

	objects, err := exportObjects(req, params.Bool(ParamUseSelection, params.Bool(ParamExportSelected, false)))
	if err != nil {
		return err
	}
	if len(objects) == 0 {
		return errors.New("no mesh objects to export")
	}

	w := &glbWriter{
		b:         glb.NewBuilder(e.generator()),
		loader:    e.Assets,
		materials: make(map[string]int),
		normals:   params.Bool(ParamExportNormals, true),
		log:       logger.Named("export"),
	}
	if req.Scene != nil {
		w.registry = req.Scene.Materials
	}

	var nodes []int
	for _, obj := range objects {
		nodes = append(nodes, w.addObject(obj, withMaterials))
	}
	w.b.Doc.Scenes = []glb.Scene{{Nodes: nodes}}
	w.b.Doc.Scene = glb.Ptr(0)

	var buf bytes.Buffer
	if err := w.b.Encode(&buf); err != nil {
		return fmt.Errorf("encoding glb: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	e.Last = Summary{
		Path:      path,
		Objects:   len(objects),
		Materials: len(w.materials),
		Images:    len(w.b.Doc.Images),
		Bytes:     int64(buf.Len()),
	}
	return nil
}

func (e *GLBExporter) generator() string {
	if e.Generator == "" {
		return "matbind"
	}
	return e.Generator
}

// exportObjects picks the selection or every mesh in the scene.
func exportObjects(req Request, selected bool) ([]*scene.Object, error) {
	if selected || req.Scene == nil {
		var out []*scene.Object
		for _, obj := range req.Objects {
			if obj.IsMesh() {
				out = append(out, obj)
			}
		}
		return out, nil
	}
	return req.Scene.Select()
}

type glbWriter struct {
	b         *glb.Builder
	loader    Loader
	registry  *material.Registry
	materials map[string]int // Material name to glTF material index
	sampler   *int
	normals   bool
	log       *zap.Logger
}

// addObject writes a node and its mesh, one primitive per used slot.
func (w *glbWriter) addObject(obj *scene.Object, withMaterials bool) int {
	m := obj.Mesh
	slots := len(obj.Slots)
	if !withMaterials {
		slots = 0
	}

	groups := make(map[int][]int)
	var order []int
	for i := 0; i < m.FaceCount(); i++ {
		slot := -1
		if slots > 0 {
			slot = m.MaterialIndex(i)
			if slot < 0 || slot >= slots {
				slot = 0
			}
		}
		if _, ok := groups[slot]; !ok {
			order = append(order, slot)
		}
		groups[slot] = append(groups[slot], i)
	}
	sort.Ints(order)

	bounds := m.Bounds()
	gm := glb.Mesh{Name: obj.Name}
	for _, slot := range order {
		prim := w.primitive(m, groups[slot], bounds)
		if slot >= 0 {
			prim.Material = glb.Ptr(w.material(obj.Slots[slot]))
		}
		gm.Primitives = append(gm.Primitives, prim)
	}
	w.b.Doc.Meshes = append(w.b.Doc.Meshes, gm)

	node := glb.Node{Name: obj.Name, Mesh: glb.Ptr(len(w.b.Doc.Meshes) - 1)}
	if obj.Position != (mgl32.Vec3{}) {
		node.Translation = []float32{obj.Position.X(), obj.Position.Y(), obj.Position.Z()}
	}
	w.b.Doc.Nodes = append(w.b.Doc.Nodes, node)
	return len(w.b.Doc.Nodes) - 1
}

// primitive emits unshared vertices so each face keeps a flat normal.
func (w *glbWriter) primitive(m *mesh.Mesh, faces []int, bounds mesh.Bounds) glb.Primitive {
	var (
		positions [][3]float32
		normals   [][3]float32
		uvs       [][2]float32
		indices   []uint32
	)
	for _, fi := range faces {
		n := m.FaceNormal(fi)
		corners := m.Faces[fi].Indices
		for _, tri := range m.Triangulate(fi) {
			for _, c := range tri {
				p := m.Positions[corners[c]]
				indices = append(indices, uint32(len(positions)))
				positions = append(positions, [3]float32(p))
				normals = append(normals, [3]float32(n))
				uvs = append(uvs, projectUV(p, n, bounds))
			}
		}
	}

	prim := glb.Primitive{
		Attributes: map[string]int{
			glb.AttributePosition:  w.b.AddVec3(positions, true),
			glb.AttributeTexCoord0: w.b.AddVec2(uvs),
		},
		Mode: glb.ModeTriangles,
	}
	if w.normals {
		prim.Attributes[glb.AttributeNormal] = w.b.AddVec3(normals, false)
	}
	prim.Indices = glb.Ptr(w.b.AddIndices(indices))
	return prim
}

// projectUV maps p onto the bounds face most aligned with n.
func projectUV(p, n mgl32.Vec3, b mesh.Bounds) [2]float32 {
	ax, ay, az := abs32(n.X()), abs32(n.Y()), abs32(n.Z())
	var u, v int
	switch {
	case ax >= ay && ax >= az:
		u, v = 2, 1
	case ay >= az:
		u, v = 0, 2
	default:
		u, v = 0, 1
	}
	size := b.Max.Sub(b.Min)
	return [2]float32{
		norm(p[u], b.Min[u], size[u]),
		1 - norm(p[v], b.Min[v], size[v]),
	}
}

func norm(x, lo, size float32) float32 {
	if size == 0 {
		return 0
	}
	return (x - lo) / size
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// material returns the glTF index for a named material, writing it once.
func (w *glbWriter) material(name string) int {
	if idx, ok := w.materials[name]; ok {
		return idx
	}

	pbr := &glb.PBRMetallicRoughness{BaseColorFactor: []float32{1, 1, 1, 1}}
	if tex := w.texture(name); tex != nil {
		if ti, err := w.addTexture(name, tex); err != nil {
			w.log.Warn("texture not embedded", zap.String("material", name), zap.Error(err))
		} else {
			pbr.BaseColorTexture = &glb.TextureRef{Index: ti}
		}
	}

	w.b.Doc.Materials = append(w.b.Doc.Materials, glb.Material{
		Name:                 name,
		PBRMetallicRoughness: pbr,
		DoubleSided:          true,
	})
	idx := len(w.b.Doc.Materials) - 1
	w.materials[name] = idx
	return idx
}

func (w *glbWriter) texture(name string) *assets.Texture {
	if w.registry == nil {
		return nil
	}
	mat, ok := w.registry.Get(name)
	if !ok {
		return nil
	}
	if mat.Texture != nil {
		return mat.Texture
	}
	if mat.ImagePath == "" || w.loader == nil {
		return nil
	}
	tex, err := w.loader.Load(mat.ImagePath)
	if err != nil {
		w.log.Warn("texture not loaded", zap.String("material", name), zap.Error(err))
		return nil
	}
	return tex
}

func (w *glbWriter) addTexture(name string, tex *assets.Texture) (int, error) {
	data, mime := tex.Data, glb.MimeJPEG
	if tex.Format != assets.FormatJPEG || len(data) == 0 {
		var err error
		if data, err = assets.EncodePNG(tex); err != nil {
			return 0, err
		}
		mime = glb.MimePNG
	}

	if w.sampler == nil {
		w.b.Doc.Samplers = append(w.b.Doc.Samplers, glb.Sampler{
			MagFilter: glb.FilterLinear,
			MinFilter: glb.FilterLinearMipmapLinear,
			WrapS:     glb.WrapRepeat,
			WrapT:     glb.WrapRepeat,
		})
		w.sampler = glb.Ptr(len(w.b.Doc.Samplers) - 1)
	}

	img := w.b.AddImage(name, mime, data)
	w.b.Doc.Textures = append(w.b.Doc.Textures, glb.Texture{Sampler: w.sampler, Source: glb.Ptr(img)})
	return len(w.b.Doc.Textures) - 1, nil
}
