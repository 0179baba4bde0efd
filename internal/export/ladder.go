package export

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Faultbox/matbind/internal/report"
	"github.com/Faultbox/matbind/internal/scene"
)

// Export errors.
var (
	ErrParameterUnsupported = errors.New("export parameter not supported")
	ErrExportFailed         = errors.New("export failed")
)

// Parameter names understood by exporters.
const (
	ParamFilePath        = "filepath"
	ParamFormat          = "export_format"
	ParamUseSelection    = "use_selection"
	ParamExportSelected  = "export_selected"
	ParamExportMaterials = "export_materials"
	ParamExportNormals   = "export_normals"
)

// Parameter values.
const (
	FormatGLB       = "GLB"
	MaterialsExport = "EXPORT"
	MaterialsNone   = "NONE"
)

// MaterialScope selects which objects, and so which materials, an export covers.
type MaterialScope string

const (
	ScopeSelectionOnly MaterialScope = "selection-only"
	ScopeAll           MaterialScope = "all"
)

// Params is one parameter combination for an exporter.
type Params map[string]any

// String lists the parameter names, sorted.
func (p Params) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// Bool returns a boolean parameter.
func (p Params) Bool(key string, def bool) bool {
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}

// Text returns a string parameter.
func (p Params) Text(key, def string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return def
}

// Request is one export.
type Request struct {
	Path    string
	Scene   *scene.Scene
	Objects []*scene.Object // The selection
	Scope   MaterialScope
}

// Exporter writes a request using one parameter combination.
// Errors wrapping ErrParameterUnsupported let the caller retry with
// fewer parameters.
type Exporter interface {
	Export(req Request, params Params) error
}

// ExportError is returned once every parameter set has been tried or a
// non-parameter error stopped the ladder.
type ExportError struct {
	Attempts int
	Cause    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed after %d attempt(s): %v", e.Attempts, e.Cause)
}

// Unwrap exposes both ErrExportFailed and the cause.
func (e *ExportError) Unwrap() []error {
	return []error{ErrExportFailed, e.Cause}
}

// Ladder returns the parameter sets to try, richest first.
func Ladder(path string, scope MaterialScope) []Params {
	selected := scope != ScopeAll
	return []Params{
		{
			ParamFilePath:        path,
			ParamFormat:          FormatGLB,
			ParamUseSelection:    selected,
			ParamExportMaterials: MaterialsExport,
			ParamExportNormals:   true,
		},
		{
			ParamFilePath:        path,
			ParamFormat:          FormatGLB,
			ParamExportSelected:  selected,
			ParamExportMaterials: MaterialsExport,
			ParamExportNormals:   true,
		},
		{
			ParamFilePath:        path,
			ParamFormat:          FormatGLB,
			ParamExportMaterials: MaterialsExport,
		},
		{
			ParamFilePath: path,
			ParamFormat:   FormatGLB,
		},
	}
}

// Retry calls fn for each candidate in order until one succeeds.
// It returns the 1-based index of the successful candidate. Only errors
// wrapping ErrParameterUnsupported move on to the next candidate.
func Retry[T any](candidates []T, fn func(attempt int, c T) error) (int, error) {
	if len(candidates) == 0 {
		return 0, &ExportError{Cause: errors.New("no parameter sets to try")}
	}

	var last error
	for i, c := range candidates {
		last = fn(i+1, c)
		if last == nil {
			return i + 1, nil
		}
		if !errors.Is(last, ErrParameterUnsupported) {
			return i + 1, &ExportError{Attempts: i + 1, Cause: last}
		}
	}
	return len(candidates), &ExportError{Attempts: len(candidates), Cause: last}
}

// Run exports req through the ladder, reporting each fallback.
func Run(exp Exporter, req Request, ladder []Params, rep report.Reporter) (int, error) {
	if rep == nil {
		rep = report.Discard
	}
	attempt, err := Retry(ladder, func(attempt int, p Params) error {
		err := exp.Export(req, p)
		if err != nil && errors.Is(err, ErrParameterUnsupported) && attempt < len(ladder) {
			rep.Report(report.Warning, "export attempt %d rejected (%v), retrying with fewer parameters", attempt, err)
		}
		return err
	})
	if err != nil {
		rep.Report(report.Error, "%v", err)
		return attempt, err
	}
	if attempt > 1 {
		rep.Report(report.Info, "exported %s with fallback parameters (attempt %d)", req.Path, attempt)
	} else {
		rep.Report(report.Info, "exported %s", req.Path)
	}
	return attempt, nil
}
