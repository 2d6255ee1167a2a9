// Package filestore provides access to the raw input files of a resource.
// Files live under <root>/<resource_id>/<category>/ and are read as text.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Category names the kind of input document.
type Category string

const (
	// CategoryManuscript holds the primary artifact (one file expected).
	CategoryManuscript Category = "manuscript"
	// CategoryReviews holds the reviewer reports.
	CategoryReviews Category = "reviews"
	// CategoryAux holds auxiliary files: cover letters, data tables,
	// prior response drafts.
	CategoryAux Category = "aux"
)

// ErrMissingInput indicates a required input file or directory is absent.
var ErrMissingInput = errors.New("missing input")

// Store reads resource inputs from a local directory tree.
type Store struct {
	root string
}

// New creates a store rooted at dir.
func New(dir string) *Store {
	return &Store{root: dir}
}

// List returns the file names under a resource's category directory, sorted
// for deterministic processing order. A missing category directory is an
// empty list, not an error; only the resource directory itself is required.
func (s *Store) List(resourceID string, cat Category) ([]string, error) {
	if _, err := os.Stat(filepath.Join(s.root, resourceID)); err != nil {
		return nil, fmt.Errorf("%w: resource %s: %v", ErrMissingInput, resourceID, err)
	}

	entries, err := os.ReadDir(filepath.Join(s.root, resourceID, string(cat)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s/%s: %w", resourceID, cat, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Read returns a file's content as text.
func (s *Store) Read(resourceID string, cat Category, name string) (string, error) {
	path := filepath.Join(s.root, resourceID, string(cat), name)
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrMissingInput, path)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(content), nil
}
