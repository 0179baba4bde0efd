// Package texture scans texture sources (a folder or a fixed list of files)
// into a de-duplicated, name-ordered sequence of entries.
package texture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Scan errors.
var (
	ErrSourceNotFound  = errors.New("texture source not found")
	ErrNoTexturesFound = errors.New("no textures found")
)

// DefaultExtensions is the image allow-list used when none is configured.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".tif"}

// Entry is one texture file.
type Entry struct {
	Name      string // File stem without extension
	Extension string // Extension with leading dot, original case
	Path      string // Absolute path
}

// FileName returns the base file name.
func (e Entry) FileName() string {
	return e.Name + e.Extension
}

// ExtensionName returns the extension without its leading dot.
func (e Entry) ExtensionName() string {
	return strings.TrimPrefix(e.Extension, ".")
}

// Duplicate records files that differ only by letter case.
// Kept is the lexicographically-first raw name; the rest were discarded.
type Duplicate struct {
	Kept      string
	Discarded []string
}

// ScanResult is the outcome of a successful scan.
type ScanResult struct {
	Source     string
	Entries    []Entry
	Duplicates []Duplicate
}

// Scanner filters files by an extension allow-list.
type Scanner struct {
	allowed map[string]bool
}

// NewScanner creates a scanner for the given extensions (".png" or "png").
// An empty list selects DefaultExtensions.
func NewScanner(extensions []string) *Scanner {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	s := &Scanner{allowed: make(map[string]bool, len(extensions))}
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.allowed[ext] = true
	}
	return s
}

// Allowed reports whether the file name carries an allowed extension.
func (s *Scanner) Allowed(name string) bool {
	return s.allowed[strings.ToLower(filepath.Ext(name))]
}

// ScanDir lists direct children of dir that are allowed image files.
func (s *Scanner) ScanDir(dir string) (*ScanResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, dir)
		}
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSourceNotFound, dir)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	items, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var paths []string
	for _, item := range items {
		if item.IsDir() || !s.Allowed(item.Name()) {
			continue
		}
		path := filepath.Join(abs, item.Name())
		if !item.Type().IsRegular() {
			// Follow symlinks, skip anything that is not a file
			fi, err := os.Stat(path)
			if err != nil || !fi.Mode().IsRegular() {
				continue
			}
		}
		paths = append(paths, path)
	}

	return s.collect(abs, paths)
}

// ScanPaths builds entries from an explicit list of files.
func (s *Scanner) ScanPaths(paths ...string) (*ScanResult, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, p)
			}
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if info.IsDir() || !s.Allowed(p) {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		files = append(files, abs)
	}

	return s.collect(strings.Join(paths, ", "), files)
}

// collect de-duplicates by case-folded file name and sorts by stem.
func (s *Scanner) collect(source string, paths []string) (*ScanResult, error) {
	fold := cases.Fold()

	groups := make(map[string][]string)
	var order []string
	for _, p := range paths {
		key := fold.String(filepath.Base(p))
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p)
	}

	result := &ScanResult{Source: source}
	for _, key := range order {
		group := groups[key]
		sort.Slice(group, func(i, j int) bool {
			return filepath.Base(group[i]) < filepath.Base(group[j])
		})

		kept := group[0]
		if len(group) > 1 {
			d := Duplicate{Kept: filepath.Base(kept)}
			for _, p := range group[1:] {
				d.Discarded = append(d.Discarded, filepath.Base(p))
			}
			result.Duplicates = append(result.Duplicates, d)
		}

		base := filepath.Base(kept)
		ext := filepath.Ext(base)
		result.Entries = append(result.Entries, Entry{
			Name:      strings.TrimSuffix(base, ext),
			Extension: ext,
			Path:      kept,
		})
	}

	if len(result.Entries) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoTexturesFound, source)
	}

	sort.SliceStable(result.Entries, func(i, j int) bool {
		a, b := result.Entries[i], result.Entries[j]
		if sa, sb := fold.String(a.Name), fold.String(b.Name); sa != sb {
			return sa < sb
		}
		if fa, fb := fold.String(a.FileName()), fold.String(b.FileName()); fa != fb {
			return fa < fb
		}
		return a.FileName() < b.FileName()
	})
	sort.Slice(result.Duplicates, func(i, j int) bool {
		return result.Duplicates[i].Kept < result.Duplicates[j].Kept
	})

	return result, nil
}
