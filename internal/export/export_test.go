package export

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/Faultbox/matbind/internal/assets"
	"github.com/Faultbox/matbind/internal/report"
	"github.com/Faultbox/matbind/internal/scene"
	"github.com/Faultbox/matbind/pkg/glb"
	"github.com/Faultbox/matbind/pkg/mesh"
)

func TestResolveMaterialSet(t *testing.T) {
	sc := scene.New()
	a, _ := sc.Add("A", mesh.NewCube(1))
	b, _ := sc.Add("B", mesh.NewCube(1))
	c, _ := sc.Add("C", mesh.NewCube(1))
	a.Slots = []string{"metal", "brick", "metal"}
	b.Slots = []string{"brick"}
	c.Slots = []string{"__SINGLE__leather"}
	for _, name := range []string{"brick", "metal", "__SINGLE__leather", "unused", "another"} {
		sc.Materials.GetOrCreate(name)
	}

	set := ResolveMaterialSet([]*scene.Object{a, b}, sc.Materials)

	if len(set.Used) != 2 || set.Used[0] != "brick" || set.Used[1] != "metal" {
		t.Errorf("unexpected used %v", set.Used)
	}
	if users := set.Users["brick"]; len(users) != 2 || users[0] != "A" || users[1] != "B" {
		t.Errorf("unexpected brick users %v", users)
	}
	if users := set.Users["metal"]; len(users) != 1 {
		t.Errorf("metal should be counted once per object, got %v", users)
	}
	want := []string{"__SINGLE__leather", "another", "unused"}
	if len(set.Orphans) != len(want) {
		t.Fatalf("unexpected orphans %v", set.Orphans)
	}
	for i := range want {
		if set.Orphans[i] != want[i] {
			t.Errorf("orphan[%d] = %s, want %s", i, set.Orphans[i], want[i])
		}
	}

	if empty := ResolveMaterialSet(nil, nil); len(empty.Used) != 0 || len(empty.Orphans) != 0 {
		t.Errorf("expected empty set, got %+v", empty)
	}
}

func TestLadder(t *testing.T) {
	ladder := Ladder("/out/a.glb", ScopeSelectionOnly)
	if len(ladder) != 4 {
		t.Fatalf("expected 4 parameter sets, got %d", len(ladder))
	}

	if !ladder[0].Bool(ParamUseSelection, false) || ladder[0][ParamExportNormals] != true {
		t.Errorf("first set = %v", ladder[0])
	}
	if _, ok := ladder[1][ParamExportSelected]; !ok {
		t.Errorf("second set should use the legacy selection flag: %v", ladder[1])
	}
	if ladder[2].Text(ParamExportMaterials, "") != MaterialsExport || len(ladder[2]) != 3 {
		t.Errorf("third set = %v", ladder[2])
	}
	if len(ladder[3]) != 2 || ladder[3].Text(ParamFormat, "") != FormatGLB {
		t.Errorf("last set = %v", ladder[3])
	}
	for i, p := range ladder {
		if p.Text(ParamFilePath, "") != "/out/a.glb" {
			t.Errorf("set %d has no file path", i)
		}
	}

	all := Ladder("x.glb", ScopeAll)
	if all[0].Bool(ParamUseSelection, true) {
		t.Error("scope all must not restrict to the selection")
	}
}

type fakeExporter struct {
	reject func(attempt int, p Params) error
	calls  []Params
}

func (f *fakeExporter) Export(req Request, p Params) error {
	f.calls = append(f.calls, p)
	if f.reject != nil {
		return f.reject(len(f.calls), p)
	}
	return nil
}

func TestRun_Fallback(t *testing.T) {
	exp := &fakeExporter{reject: func(attempt int, p Params) error {
		if attempt < 3 {
			return ErrParameterUnsupported
		}
		return nil
	}}
	rec := &report.Recorder{}

	attempt, err := Run(exp, Request{Path: "a.glb"}, Ladder("a.glb", ScopeSelectionOnly), rec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if attempt != 3 || len(exp.calls) != 3 {
		t.Errorf("expected success on attempt 3, got %d after %d calls", attempt, len(exp.calls))
	}
	if rec.Count(report.Warning) != 2 {
		t.Errorf("expected 2 fallback warnings, got %d", rec.Count(report.Warning))
	}
	if rec.Count(report.Info) != 1 {
		t.Errorf("expected a success message, got %v", rec.Messages())
	}
}

func TestRun_FirstSuccess(t *testing.T) {
	exp := &fakeExporter{}
	attempt, err := Run(exp, Request{}, Ladder("a.glb", ScopeAll), nil)
	if err != nil || attempt != 1 || len(exp.calls) != 1 {
		t.Errorf("expected single attempt, got %d %v", attempt, err)
	}
}

func TestRun_Exhausted(t *testing.T) {
	exp := &fakeExporter{reject: func(int, Params) error {
		return ErrParameterUnsupported
	}}
	rec := &report.Recorder{}

	attempt, err := Run(exp, Request{}, Ladder("a.glb", ScopeSelectionOnly), rec)
	if !errors.Is(err, ErrExportFailed) || !errors.Is(err, ErrParameterUnsupported) {
		t.Fatalf("expected ErrExportFailed wrapping the last cause, got %v", err)
	}
	var exportErr *ExportError
	if !errors.As(err, &exportErr) || exportErr.Attempts != 4 {
		t.Errorf("expected 4 attempts, got %+v", exportErr)
	}
	if attempt != 4 || len(exp.calls) != 4 {
		t.Errorf("expected 4 calls, got %d", len(exp.calls))
	}
	if rec.Count(report.Error) != 1 {
		t.Errorf("expected one error message, got %v", rec.Messages())
	}
}

func TestRun_StopsOnOtherError(t *testing.T) {
	diskFull := errors.New("disk full")
	exp := &fakeExporter{reject: func(int, Params) error { return diskFull }}

	attempt, err := Run(exp, Request{}, Ladder("a.glb", ScopeSelectionOnly), nil)
	if !errors.Is(err, diskFull) || !errors.Is(err, ErrExportFailed) {
		t.Errorf("expected verbatim cause, got %v", err)
	}
	if attempt != 1 || len(exp.calls) != 1 {
		t.Errorf("non-parameter error must stop the ladder, got %d calls", len(exp.calls))
	}
}

func TestRetry_Empty(t *testing.T) {
	_, err := Retry([]Params{}, func(int, Params) error { return nil })
	if !errors.Is(err, ErrExportFailed) {
		t.Errorf("expected ErrExportFailed, got %v", err)
	}
}

func solidImage(c color.NRGBA) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// exportScene builds a cube with two textured materials and a second,
// unselected grid.
func exportScene(t *testing.T) (*scene.Scene, *scene.Object) {
	t.Helper()
	dir := t.TempDir()
	sc := scene.New()

	cube, _ := sc.Add("Cube", mesh.NewCube(2))
	cube.Slots = []string{"brick", "metal"}
	if err := cube.Mesh.SetFaceMaterials([]int{0, 1, 0, 1, 0, 1}); err != nil {
		t.Fatal(err)
	}
	grid, _ := sc.Add("Floor", mesh.NewGrid(2, 2, 4))
	grid.Slots = []string{"__SINGLE__leather"}

	var pngData bytes.Buffer
	img := solidImage(color.NRGBA{R: 200, A: 255})
	if err := png.Encode(&pngData, img); err != nil {
		t.Fatal(err)
	}
	brick, _ := sc.Materials.GetOrCreate("brick")
	brick.Attach(&assets.Texture{Path: "brick.png", Format: assets.FormatPNG, Data: pngData.Bytes(), Image: img, Width: 4, Height: 4})

	var bmpData bytes.Buffer
	if err := bmp.Encode(&bmpData, solidImage(color.NRGBA{B: 200, A: 255})); err != nil {
		t.Fatal(err)
	}
	bmpPath := filepath.Join(dir, "metal.bmp")
	if err := os.WriteFile(bmpPath, bmpData.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	metal, _ := sc.Materials.GetOrCreate("metal")
	metal.ImagePath = bmpPath

	sc.Materials.GetOrCreate("__SINGLE__leather")
	return sc, cube
}

func readGLB(t *testing.T, path string) *glb.Document {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()
	doc, _, err := glb.Decode(f)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	return doc
}

func TestGLBExporter_Selection(t *testing.T) {
	sc, cube := exportScene(t)
	path := filepath.Join(t.TempDir(), "out", "export.glb")
	exp := &GLBExporter{Assets: assets.NewManager(), Generator: "test"}

	req := Request{Path: path, Scene: sc, Objects: []*scene.Object{cube}, Scope: ScopeSelectionOnly}
	attempt, err := Run(exp, req, Ladder(path, req.Scope), nil)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if attempt != 1 {
		t.Errorf("expected first attempt to succeed, got %d", attempt)
	}

	doc := readGLB(t, path)
	if doc.Asset.Generator != "test" {
		t.Errorf("generator = %q", doc.Asset.Generator)
	}
	if len(doc.Nodes) != 1 || doc.Nodes[0].Name != "Cube" {
		t.Fatalf("expected only the selected cube, got %+v", doc.Nodes)
	}
	if len(doc.Meshes) != 1 || len(doc.Meshes[0].Primitives) != 2 {
		t.Fatalf("expected one mesh with two primitives, got %+v", doc.Meshes)
	}
	for _, prim := range doc.Meshes[0].Primitives {
		if prim.Indices == nil || doc.Accessors[*prim.Indices].Count != 18 {
			t.Errorf("each primitive should carry 3 quads (18 indices)")
		}
		if _, ok := prim.Attributes[glb.AttributeNormal]; !ok {
			t.Error("normals missing")
		}
		if prim.Material == nil {
			t.Error("primitive without material")
		}
	}

	if len(doc.Materials) != 2 || doc.Materials[0].Name != "brick" || doc.Materials[1].Name != "metal" {
		t.Errorf("unexpected materials %+v", doc.Materials)
	}
	if len(doc.Images) != 2 {
		t.Fatalf("expected 2 embedded images, got %d", len(doc.Images))
	}
	for _, img := range doc.Images {
		if img.MimeType != glb.MimePNG {
			t.Errorf("image %s has mime %s", img.Name, img.MimeType)
		}
	}
	if len(doc.Samplers) != 1 || len(doc.Textures) != 2 {
		t.Errorf("expected one shared sampler and two textures")
	}

	if exp.Last.Objects != 1 || exp.Last.Materials != 2 || exp.Last.Images != 2 || exp.Last.Bytes == 0 {
		t.Errorf("unexpected summary %+v", exp.Last)
	}
}

func TestGLBExporter_ScopeAll(t *testing.T) {
	sc, cube := exportScene(t)
	path := filepath.Join(t.TempDir(), "all.glb")
	exp := &GLBExporter{Assets: assets.NewManager()}

	req := Request{Path: path, Scene: sc, Objects: []*scene.Object{cube}, Scope: ScopeAll}
	if _, err := Run(exp, req, Ladder(path, req.Scope), nil); err != nil {
		t.Fatal(err)
	}

	doc := readGLB(t, path)
	if len(doc.Nodes) != 2 {
		t.Errorf("expected whole scene, got %d nodes", len(doc.Nodes))
	}
	if len(doc.Materials) != 3 {
		t.Errorf("expected 3 materials, got %d", len(doc.Materials))
	}
	// The single material has no image.
	if len(doc.Images) != 2 {
		t.Errorf("expected 2 images, got %d", len(doc.Images))
	}
}

func TestGLBExporter_MinimalParameters(t *testing.T) {
	sc, cube := exportScene(t)
	path := filepath.Join(t.TempDir(), "min.glb")
	exp := &GLBExporter{Supported: []string{ParamFilePath, ParamFormat}}

	req := Request{Path: path, Scene: sc, Objects: []*scene.Object{cube}}
	attempt, err := Run(exp, req, Ladder(path, ScopeSelectionOnly), nil)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if attempt != 4 {
		t.Errorf("expected the format-only set to succeed, got attempt %d", attempt)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

func TestGLBExporter_NoMaterials(t *testing.T) {
	sc, cube := exportScene(t)
	path := filepath.Join(t.TempDir(), "plain.glb")
	exp := &GLBExporter{}

	err := exp.Export(Request{Path: path, Scene: sc, Objects: []*scene.Object{cube}}, Params{
		ParamFormat:          FormatGLB,
		ParamUseSelection:    true,
		ParamExportMaterials: MaterialsNone,
		ParamExportNormals:   false,
	})
	if err != nil {
		t.Fatal(err)
	}

	doc := readGLB(t, path)
	if len(doc.Materials) != 0 || len(doc.Meshes[0].Primitives) != 1 {
		t.Errorf("expected one untextured primitive, got %d materials", len(doc.Materials))
	}
	if _, ok := doc.Meshes[0].Primitives[0].Attributes[glb.AttributeNormal]; ok {
		t.Error("normals written although disabled")
	}
}

func TestGLBExporter_Errors(t *testing.T) {
	sc, cube := exportScene(t)
	exp := &GLBExporter{}
	req := Request{Path: filepath.Join(t.TempDir(), "x.glb"), Scene: sc, Objects: []*scene.Object{cube}}

	if err := exp.Export(req, Params{ParamExportSelected: true}); !errors.Is(err, ErrParameterUnsupported) {
		t.Errorf("expected ErrParameterUnsupported, got %v", err)
	}
	if err := exp.Export(req, Params{ParamFormat: "GLTF_SEPARATE"}); err == nil || errors.Is(err, ErrParameterUnsupported) {
		t.Errorf("unknown format should be a hard error, got %v", err)
	}
	if err := exp.Export(Request{Path: req.Path}, Params{}); err == nil {
		t.Error("expected error when nothing is exported")
	}
}
