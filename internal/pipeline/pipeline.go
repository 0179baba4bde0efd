// Package pipeline applies a texture source to scene objects:
// scan, classify, resolve, attach images, bind and distribute.
package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/matbind/internal/assets"
	"github.com/Faultbox/matbind/internal/binding"
	"github.com/Faultbox/matbind/internal/logger"
	"github.com/Faultbox/matbind/internal/material"
	"github.com/Faultbox/matbind/internal/report"
	"github.com/Faultbox/matbind/internal/scene"
	"github.com/Faultbox/matbind/internal/texture"
)

// Pipeline errors.
var (
	ErrAllEntriesFailed = errors.New("no texture could be applied")
	ErrNoTargets        = errors.New("no mesh objects selected")
)

// Mode selects where textures come from.
type Mode int

const (
	// Folder scans a directory and classifies by texture count.
	Folder Mode = iota
	// FixedPaths uses explicit files with a preset strategy.
	FixedPaths
)

func (m Mode) String() string {
	switch m {
	case Folder:
		return "folder"
	case FixedPaths:
		return "fixed-paths"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Scope returns the cleanup policy used by the mode.
func (m Mode) Scope() binding.CleanupScope {
	if m == FixedPaths {
		return binding.ClearAll
	}
	return binding.PreservePartition
}

// Loader loads texture images.
type Loader interface {
	Load(path string) (*assets.Texture, error)
}

// EntryError is a texture that could not be attached.
type EntryError struct {
	Name string // File name
	Path string
	Err  error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Request is one apply.
type Request struct {
	Source   string   // Folder mode directory
	Paths    []string // FixedPaths mode files
	Mode     Mode
	Strategy material.Strategy // FixedPaths mode only
	Targets  []*scene.Object
}

// ObjectResult is the bind result for one object.
type ObjectResult struct {
	Object     string
	BoundCount int
	Applied    []string
	Dropped    []string
	Replaced   []string
	Faces      []int
	Err        error
}

// Result is the outcome of Apply.
type Result struct {
	Source     string
	Strategy   material.Strategy
	Scan       *texture.ScanResult
	Resolution material.Resolution
	Applied    []string // Identifiers with an attached image, in slot order
	Failed     []*EntryError
	Objects    []ObjectResult
}

// EntryErrors combines per-entry failures.
func (r *Result) EntryErrors() error {
	var err error
	for _, f := range r.Failed {
		err = multierr.Append(err, f)
	}
	return err
}

// Manager runs the pipeline against a shared registry.
type Manager struct {
	Scanner  *texture.Scanner
	Naming   material.Naming
	Registry *material.Registry
	Assets   Loader
	Reporter report.Reporter

	log *zap.Logger
}

// NewManager creates a pipeline manager.
func NewManager(scanner *texture.Scanner, naming material.Naming, registry *material.Registry, loader Loader, rep report.Reporter) *Manager {
	if rep == nil {
		rep = report.Discard
	}
	return &Manager{
		Scanner:  scanner,
		Naming:   naming,
		Registry: registry,
		Assets:   loader,
		Reporter: rep,
		log:      logger.Named("pipeline"),
	}
}

func (m *Manager) logger() *zap.Logger {
	if m.log == nil {
		m.log = logger.Named("pipeline")
	}
	return m.log
}

func (m *Manager) reporter() report.Reporter {
	if m.Reporter == nil {
		return report.Discard
	}
	return m.Reporter
}

// Preview scans, classifies and resolves without touching the registry
// or any object.
func (m *Manager) Preview(req Request) (*Result, error) {
	rep := m.reporter()

	var (
		scan *texture.ScanResult
		err  error
	)
	switch req.Mode {
	case FixedPaths:
		scan, err = m.Scanner.ScanPaths(req.Paths...)
	default:
		scan, err = m.Scanner.ScanDir(req.Source)
	}
	if err != nil {
		switch {
		case errors.Is(err, texture.ErrSourceNotFound):
			rep.Report(report.Error, "texture source not found: %v", err)
		case errors.Is(err, texture.ErrNoTexturesFound):
			rep.Report(report.Warning, "no textures found: %v", err)
		default:
			rep.Report(report.Error, "scan failed: %v", err)
		}
		return nil, err
	}

	for _, d := range scan.Duplicates {
		rep.Report(report.Warning, "files differ only by case, using %s and ignoring %s",
			d.Kept, strings.Join(d.Discarded, ", "))
	}

	entries := scan.Entries
	strategy := req.Strategy
	if req.Mode == Folder {
		if strategy, err = m.Naming.Classify(len(entries)); err != nil {
			return nil, err
		}
	} else if strategy == material.Single && len(entries) > 1 {
		rep.Report(report.Info, "single mode uses only the first texture, %s", entries[0].FileName())
		entries = entries[:1]
	}

	res := m.Naming.Resolve(entries, strategy)
	for _, r := range res.Renamed {
		rep.Report(report.Info, "material %s already used, %s becomes %s", r.From, r.File, r.To)
	}
	for _, s := range res.Skipped {
		rep.Report(report.Warning, "skipping %s: name %s carries the %s prefix", s.File, s.ID, strategy.Opposite())
	}

	m.logger().Debug("resolved textures",
		zap.String("source", scan.Source),
		zap.Stringer("strategy", strategy),
		zap.Int("entries", len(scan.Entries)),
		zap.Int("resolved", len(res.Resolved)))

	return &Result{
		Source:     scan.Source,
		Strategy:   strategy,
		Scan:       scan,
		Resolution: res,
	}, nil
}

// Apply runs the whole pipeline. Errors before binding leave the
// registry and every target unchanged. Objects are bound independently;
// the returned error combines per-object failures.
func (m *Manager) Apply(req Request) (*Result, error) {
	rep := m.reporter()

	targets := make([]*scene.Object, 0, len(req.Targets))
	for _, obj := range req.Targets {
		if obj != nil && obj.IsMesh() {
			targets = append(targets, obj)
		}
	}
	if len(targets) == 0 {
		rep.Report(report.Warning, "select at least one mesh object")
		return nil, ErrNoTargets
	}

	res, err := m.Preview(req)
	if err != nil {
		return nil, err
	}

	type loaded struct {
		id  string
		tex *assets.Texture
	}
	var ready []loaded
	for _, r := range res.Resolution.Resolved {
		tex, err := m.Assets.Load(r.Entry.Path)
		if err != nil {
			res.Failed = append(res.Failed, &EntryError{Name: r.Entry.FileName(), Path: r.Entry.Path, Err: err})
			continue
		}
		ready = append(ready, loaded{id: r.ID, tex: tex})
	}

	for _, f := range res.Failed {
		rep.Report(report.Warning, "texture not loaded: %v", f)
	}
	if len(ready) == 0 {
		rep.Report(report.Error, "could not create materials from %s", res.Source)
		return res, multierr.Append(fmt.Errorf("%w from %s", ErrAllEntriesFailed, res.Source), res.EntryErrors())
	}

	for _, l := range ready {
		mat, created := m.Registry.GetOrCreate(l.id)
		mat.Attach(l.tex)
		res.Applied = append(res.Applied, l.id)
		m.logger().Debug("material ready",
			zap.String("material", l.id),
			zap.Bool("created", created),
			zap.String("image", l.tex.Path))
	}

	binder := binding.Binder{Naming: m.Naming, Scope: req.Mode.Scope()}
	var objErr error
	for _, obj := range targets {
		out, err := binder.Bind(obj, res.Applied, res.Strategy)
		or := ObjectResult{Object: obj.Name, Err: err}
		if err != nil {
			rep.Report(report.Error, "%s: %v", obj.Name, err)
			objErr = multierr.Append(objErr, fmt.Errorf("%s: %w", obj.Name, err))
		} else {
			or.BoundCount = len(out.Slots)
			or.Applied = out.Slots
			or.Dropped = out.Dropped
			or.Replaced = out.Replaced
			or.Faces = out.Faces
			rep.Report(report.Info, "%s: %d %s material(s) over %d faces", obj.Name, len(out.Slots), res.Strategy, obj.Mesh.FaceCount())
		}
		res.Objects = append(res.Objects, or)
	}

	return res, objErr
}

// Clear removes every material slot from targets and returns the number
// of objects that had any.
func (m *Manager) Clear(targets []*scene.Object) (int, error) {
	rep := m.reporter()
	if len(targets) == 0 {
		rep.Report(report.Warning, "select at least one mesh object")
		return 0, ErrNoTargets
	}

	cleared := 0
	for _, obj := range targets {
		if n := binding.Clear(obj); n > 0 {
			cleared++
			m.logger().Debug("materials cleared", zap.String("object", obj.Name), zap.Int("slots", n))
		}
	}
	rep.Report(report.Info, "cleared materials on %d object(s)", cleared)
	return cleared, nil
}
