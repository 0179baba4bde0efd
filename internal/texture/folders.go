package texture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Folder is a texture source folder found under a root.
type Folder struct {
	Name  string
	Path  string
	Count int // Unique textures in the folder
}

// ListFolders returns the direct subfolders of root that contain textures,
// sorted case-insensitively by name.
func (s *Scanner) ListFolders(root string) ([]Folder, error) {
	items, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, root)
		}
		return nil, fmt.Errorf("read %s: %w", root, err)
	}

	var folders []Folder
	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		path := filepath.Join(root, item.Name())
		res, err := s.ScanDir(path)
		if errors.Is(err, ErrNoTexturesFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		folders = append(folders, Folder{
			Name:  item.Name(),
			Path:  path,
			Count: len(res.Entries),
		})
	}

	sort.SliceStable(folders, func(i, j int) bool {
		return strings.ToLower(folders[i].Name) < strings.ToLower(folders[j].Name)
	})
	return folders, nil
}
