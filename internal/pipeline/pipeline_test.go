package pipeline

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/matbind/internal/assets"
	"github.com/Faultbox/matbind/internal/material"
	"github.com/Faultbox/matbind/internal/report"
	"github.com/Faultbox/matbind/internal/scene"
	"github.com/Faultbox/matbind/internal/texture"
	"github.com/Faultbox/matbind/pkg/mesh"
)

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeJunk(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

type fixture struct {
	scene   *scene.Scene
	target  *scene.Object
	manager *Manager
	rec     *report.Recorder
}

func newFixture(t *testing.T, faces int) *fixture {
	t.Helper()
	sc := scene.New()
	obj, err := sc.Add("Sofa", mesh.NewGrid(faces, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	rec := &report.Recorder{}
	m := NewManager(texture.NewScanner(nil), material.DefaultNaming(), sc.Materials, assets.NewManager(), rec)
	return &fixture{scene: sc, target: obj, manager: m, rec: rec}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApply_MultiFolder(t *testing.T) {
	f := newFixture(t, 7)
	dir := t.TempDir()
	writePNG(t, dir, "brick.png")
	writePNG(t, dir, "brick.jpg")
	writePNG(t, dir, "metal.png")

	res, err := f.manager.Apply(Request{Source: dir, Mode: Folder, Targets: []*scene.Object{f.target}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if res.Strategy != material.Multi {
		t.Errorf("strategy = %v", res.Strategy)
	}
	want := []string{"brick", "brick_png", "metal"}
	if !equalStrings(f.target.Slots, want) {
		t.Errorf("slots = %v, want %v", f.target.Slots, want)
	}
	if !equalInts(f.target.Mesh.FaceMaterials, []int{0, 1, 2, 0, 1, 2, 0}) {
		t.Errorf("faces = %v", f.target.Mesh.FaceMaterials)
	}
	if f.scene.Materials.Len() != 3 {
		t.Errorf("registry has %v", f.scene.Materials.Names())
	}
	if len(res.Objects) != 1 || res.Objects[0].BoundCount != 3 {
		t.Errorf("unexpected object results %+v", res.Objects)
	}
	if f.rec.Count(report.Info) == 0 {
		t.Error("expected status messages")
	}
}

func TestApply_SingleFolder(t *testing.T) {
	f := newFixture(t, 5)
	dir := t.TempDir()
	writePNG(t, dir, "leather.png")

	res, err := f.manager.Apply(Request{Source: dir, Mode: Folder, Targets: []*scene.Object{f.target}})
	if err != nil {
		t.Fatal(err)
	}
	if res.Strategy != material.Single {
		t.Errorf("strategy = %v", res.Strategy)
	}
	if !equalStrings(f.target.Slots, []string{"__SINGLE__leather"}) {
		t.Errorf("slots = %v", f.target.Slots)
	}
	if !equalInts(f.target.Mesh.FaceMaterials, []int{0, 0, 0, 0, 0}) {
		t.Errorf("faces = %v", f.target.Mesh.FaceMaterials)
	}
	mat, ok := f.scene.Materials.Get("__SINGLE__leather")
	if !ok || mat.Texture == nil || mat.Texture.Width != 2 {
		t.Error("material image not attached")
	}
}

func TestApply_Idempotent(t *testing.T) {
	f := newFixture(t, 9)
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png"} {
		writePNG(t, dir, name)
	}
	req := Request{Source: dir, Mode: Folder, Targets: []*scene.Object{f.target}}

	if _, err := f.manager.Apply(req); err != nil {
		t.Fatal(err)
	}
	slots := append([]string(nil), f.target.Slots...)
	faces := append([]int(nil), f.target.Mesh.FaceMaterials...)
	mat, _ := f.scene.Materials.Get("a")

	if _, err := f.manager.Apply(req); err != nil {
		t.Fatal(err)
	}
	if !equalStrings(f.target.Slots, slots) || !equalInts(f.target.Mesh.FaceMaterials, faces) {
		t.Error("second apply changed the result")
	}
	if again, _ := f.scene.Materials.Get("a"); again != mat {
		t.Error("material was duplicated instead of reused")
	}
	if f.scene.Materials.Len() != 4 {
		t.Errorf("registry grew to %d", f.scene.Materials.Len())
	}
}

func TestApply_PartialFailure(t *testing.T) {
	f := newFixture(t, 4)
	dir := t.TempDir()
	writePNG(t, dir, "good.png")
	writeJunk(t, dir, "bad.png")
	writePNG(t, dir, "fine.png")

	res, err := f.manager.Apply(Request{Source: dir, Mode: Folder, Targets: []*scene.Object{f.target}})
	if err != nil {
		t.Fatalf("partial failure should not fail the batch: %v", err)
	}
	if len(res.Failed) != 1 || res.Failed[0].Name != "bad.png" {
		t.Fatalf("unexpected failures %+v", res.Failed)
	}
	if res.EntryErrors() == nil {
		t.Error("EntryErrors should report the failure")
	}
	if !equalStrings(f.target.Slots, []string{"fine", "good"}) {
		t.Errorf("slots = %v", f.target.Slots)
	}
	if _, ok := f.scene.Materials.Get("bad"); ok {
		t.Error("failed entry created a material")
	}
	if f.rec.Count(report.Warning) != 1 {
		t.Errorf("expected one warning, got %v", f.rec.Messages())
	}
}

func TestApply_AllEntriesFailed(t *testing.T) {
	f := newFixture(t, 3)
	f.target.Slots = []string{"old"}
	f.target.Mesh.FaceMaterials = []int{0, 0, 0}
	dir := t.TempDir()
	writeJunk(t, dir, "a.png")
	writeJunk(t, dir, "b.png")

	_, err := f.manager.Apply(Request{Source: dir, Mode: Folder, Targets: []*scene.Object{f.target}})
	if !errors.Is(err, ErrAllEntriesFailed) {
		t.Fatalf("expected ErrAllEntriesFailed, got %v", err)
	}
	var entryErr *EntryError
	if !errors.As(err, &entryErr) {
		t.Error("entry failures should be part of the error")
	}
	if !equalStrings(f.target.Slots, []string{"old"}) {
		t.Error("binding changed after a failed batch")
	}
	if f.scene.Materials.Len() != 0 {
		t.Error("registry changed after a failed batch")
	}
}

func TestApply_SourceErrors(t *testing.T) {
	f := newFixture(t, 2)
	f.target.Slots = []string{"keep"}

	_, err := f.manager.Apply(Request{Source: filepath.Join(t.TempDir(), "gone"), Targets: []*scene.Object{f.target}})
	if !errors.Is(err, texture.ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}

	_, err = f.manager.Apply(Request{Source: t.TempDir(), Targets: []*scene.Object{f.target}})
	if !errors.Is(err, texture.ErrNoTexturesFound) {
		t.Errorf("expected ErrNoTexturesFound, got %v", err)
	}
	if errors.Is(err, texture.ErrSourceNotFound) {
		t.Error("empty folder reported as missing")
	}
	if !equalStrings(f.target.Slots, []string{"keep"}) {
		t.Error("binding changed after a scan failure")
	}
	if f.rec.Count(report.Error) != 1 || f.rec.Count(report.Warning) != 1 {
		t.Errorf("unexpected messages %v", f.rec.Messages())
	}
}

func TestApply_NoTargets(t *testing.T) {
	f := newFixture(t, 2)
	dir := t.TempDir()
	writePNG(t, dir, "a.png")

	empty, _ := f.scene.Add("Pivot", nil)
	if _, err := f.manager.Apply(Request{Source: dir, Targets: []*scene.Object{empty}}); !errors.Is(err, ErrNoTargets) {
		t.Errorf("expected ErrNoTargets, got %v", err)
	}
	if f.scene.Materials.Len() != 0 {
		t.Error("registry changed without targets")
	}
}

func TestApply_FixedPathsClearAll(t *testing.T) {
	f := newFixture(t, 6)
	multi := t.TempDir()
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		writePNG(t, multi, name)
	}
	if _, err := f.manager.Apply(Request{Source: multi, Mode: Folder, Targets: []*scene.Object{f.target}}); err != nil {
		t.Fatal(err)
	}

	single := t.TempDir()
	d := writePNG(t, single, "d.png")
	extra := writePNG(t, single, "e.png")

	res, err := f.manager.Apply(Request{
		Paths:    []string{d, extra},
		Mode:     FixedPaths,
		Strategy: material.Single,
		Targets:  []*scene.Object{f.target},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !equalStrings(f.target.Slots, []string{"__SINGLE__d"}) {
		t.Errorf("slots = %v", f.target.Slots)
	}
	if !equalStrings(res.Objects[0].Dropped, []string{"a", "b", "c"}) {
		t.Errorf("dropped = %v", res.Objects[0].Dropped)
	}
	if !equalInts(f.target.Mesh.FaceMaterials, []int{0, 0, 0, 0, 0, 0}) {
		t.Errorf("faces = %v", f.target.Mesh.FaceMaterials)
	}
	if _, ok := f.scene.Materials.Get("__SINGLE__e"); ok {
		t.Error("only the first fixed path should be used in single mode")
	}
}

func TestApply_FixedPathsMulti(t *testing.T) {
	f := newFixture(t, 4)
	dir := t.TempDir()
	a := writePNG(t, dir, "wood.png")
	b := writePNG(t, dir, "wood.jpg")

	res, err := f.manager.Apply(Request{
		Paths:    []string{a, b},
		Mode:     FixedPaths,
		Strategy: material.Multi,
		Targets:  []*scene.Object{f.target},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !equalStrings(res.Applied, []string{"wood", "wood_png"}) {
		t.Errorf("applied = %v", res.Applied)
	}
}

func TestApply_MultipleTargets(t *testing.T) {
	f := newFixture(t, 3)
	dir := t.TempDir()
	writePNG(t, dir, "a.png")
	writePNG(t, dir, "b.png")
	other, _ := f.scene.Add("Chair", mesh.NewCube(1))

	res, err := f.manager.Apply(Request{Source: dir, Targets: []*scene.Object{other, f.target}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Objects) != 2 || res.Objects[0].Object != "Chair" {
		t.Fatalf("objects should be bound in selection order, got %+v", res.Objects)
	}
	for _, or := range res.Objects {
		if or.Err != nil || or.BoundCount != 2 {
			t.Errorf("%s: %+v", or.Object, or)
		}
	}
	if !equalInts(other.Mesh.FaceMaterials, []int{0, 1, 0, 1, 0, 1}) {
		t.Errorf("cube faces = %v", other.Mesh.FaceMaterials)
	}
}

func TestPreview(t *testing.T) {
	f := newFixture(t, 2)
	dir := t.TempDir()
	writePNG(t, dir, "x.png")
	writePNG(t, dir, "__SINGLE__y.png")
	writePNG(t, dir, "z.png")

	res, err := f.manager.Preview(Request{Source: dir})
	if err != nil {
		t.Fatal(err)
	}
	if res.Strategy != material.Multi || len(res.Resolution.Skipped) != 1 {
		t.Errorf("unexpected preview %+v", res.Resolution)
	}
	if f.scene.Materials.Len() != 0 || len(f.target.Slots) != 0 {
		t.Error("Preview must not mutate state")
	}
}

func TestClear(t *testing.T) {
	f := newFixture(t, 3)
	other, _ := f.scene.Add("Bare", mesh.NewCube(1))
	f.target.Slots = []string{"a", "b"}

	n, err := f.manager.Clear([]*scene.Object{f.target, other})
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("cleared %d objects, want 1", n)
	}
	if len(f.target.Slots) != 0 {
		t.Error("slots not cleared")
	}
	if _, err := f.manager.Clear(nil); !errors.Is(err, ErrNoTargets) {
		t.Errorf("expected ErrNoTargets, got %v", err)
	}
}
