package schema

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

//go:embed businesstypes
var corpus embed.FS

// Source reads raw schema documents. Read must return an error matching
// fs.ErrNotExist when the pair does not exist.
type Source interface {
	Read(layer Layer, slug string) ([]byte, error)
	List(layer Layer) ([]string, error)
}

// FSSource reads <root>/<layer>/<slug>.yaml from any fs.FS.
type FSSource struct {
	fsys fs.FS
	root string
}

func NewFSSource(fsys fs.FS, root string) *FSSource {
	if root == "" {
		root = "."
	}
	return &FSSource{fsys: fsys, root: root}
}

// NewDirSource serves schemas from a directory on disk.
func NewDirSource(dir string) *FSSource {
	return NewFSSource(os.DirFS(dir), ".")
}

// NewEmbeddedSource serves the schemas baked into the binary.
func NewEmbeddedSource() *FSSource {
	return NewFSSource(corpus, "businesstypes")
}

func (s *FSSource) Read(layer Layer, slug string) ([]byte, error) {
	for _, ext := range []string{".yaml", ".yml"} {
		data, err := fs.ReadFile(s.fsys, path.Join(s.root, string(layer), slug+ext))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s/%s: %w", layer, slug, fs.ErrNotExist)
}

func (s *FSSource) List(layer Layer) ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, path.Join(s.root, string(layer)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var slugs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := path.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		slugs = append(slugs, strings.TrimSuffix(name, ext))
	}
	sort.Strings(slugs)
	return slugs, nil
}

// LayeredSource consults each source in order; the first one holding a
// document wins. Used to let SCHEMA_DIR shadow the embedded corpus.
type LayeredSource []Source

func (l LayeredSource) Read(layer Layer, slug string) ([]byte, error) {
	for _, s := range l {
		data, err := s.Read(layer, slug)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s/%s: %w", layer, slug, fs.ErrNotExist)
}

func (l LayeredSource) List(layer Layer) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, s := range l {
		slugs, err := s.List(layer)
		if err != nil {
			return nil, err
		}
		for _, slug := range slugs {
			if !seen[slug] {
				seen[slug] = true
				out = append(out, slug)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
