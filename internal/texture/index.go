package texture

import (
	"os"
	"path/filepath"
	"strings"
)

// Index maps lowercase texture stems to filesystem paths.
// OZT files take priority over OZJ for the same stem (alpha channel).
type Index struct {
	entries map[string]string // stem.lower() → full path
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]string)}
}

// BuildIndex scans each dir, dir/texture/ and the Texture folders of its
// subdirectories for OZJ/OZT files. The model directory itself is scanned
// too, since some data packs keep textures next to the BMD files. Earlier
// dirs win when two provide the same stem in the same format.
func BuildIndex(dirs ...string) *Index {
	idx := NewIndex()
	seen := make(map[string]bool)
	for _, dir := range dirs {
		idx.scan(dir, seen)
	}
	return idx
}

func (idx *Index) scan(dir string, seen map[string]bool) {
	searchDirs := []string{dir, filepath.Join(dir, "texture")}

	// Also scan subdirectory textures (e.g., Jewel/Texture, partCharge1/Texture)
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		for _, name := range []string{"Texture", "texture"} {
			sub := filepath.Join(dir, e.Name(), name)
			if info, err := os.Stat(sub); err == nil && info.IsDir() {
				searchDirs = append(searchDirs, sub)
			}
		}
	}

	for i, d := range searchDirs {
		if seen[d] {
			continue
		}
		seen[d] = true

		// The model directory is scanned flat; texture folders recursively.
		if i == 0 {
			files, _ := os.ReadDir(d)
			for _, f := range files {
				if !f.IsDir() {
					idx.Add(filepath.Join(d, f.Name()))
				}
			}
			continue
		}
		filepath.WalkDir(d, func(path string, e os.DirEntry, err error) error {
			if err != nil || e.IsDir() {
				return nil
			}
			idx.Add(path)
			return nil
		})
	}
}

// Add registers one texture file. Files that are not OZJ/OZT are ignored.
func (idx *Index) Add(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".ozj" && ext != ".ozt" {
		return false
	}
	stem := Stem(path)

	existing, exists := idx.entries[stem]
	switch {
	case !exists:
		idx.entries[stem] = path
	case ext == ".ozt" && strings.ToLower(filepath.Ext(existing)) == ".ozj":
		// OZT wins over OZJ (has alpha channel)
		idx.entries[stem] = path
	default:
		return false
	}
	return true
}

// Stem returns the lowercase base name of a texture reference without its
// extension. BMD files store Windows paths, so backslashes count as
// separators.
func Stem(texName string) string {
	texName = strings.ReplaceAll(texName, "\\", "/")
	base := filepath.Base(texName)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// ResolvePath returns the filesystem path for a texture name, or ("", false).
func (idx *Index) ResolvePath(texName string) (string, bool) {
	path, ok := idx.entries[Stem(texName)]
	return path, ok
}

// Len returns the number of indexed textures.
func (idx *Index) Len() int {
	return len(idx.entries)
}
