package invoice

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store lists and opens emitted documents.
type Store struct {
	dir string
}

// NewStore returns a Store over dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// List returns documents newest first.
func (s *Store) List(ctx context.Context) ([]Reference, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invoice: list: %w", err)
	}
	refs := make([]Reference, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !namePattern.MatchString(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		refs = append(refs, s.reference(entry.Name(), info))
	}
	// ids start with the issue timestamp, so name order is issue order
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name > refs[j].Name })
	return refs, nil
}

// Open returns an open handle for the named document. The caller closes it.
func (s *Store) Open(name string) (*os.File, Reference, error) {
	if !namePattern.MatchString(name) || filepath.Base(name) != name {
		return nil, Reference{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, Reference{}, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	if err != nil {
		return nil, Reference{}, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, Reference{}, err
	}
	return f, s.reference(name, info), nil
}

func (s *Store) reference(name string, info os.FileInfo) Reference {
	return Reference{
		ID:          strings.TrimSuffix(strings.TrimSuffix(name, ".pdf"), ".html"),
		Name:        name,
		Path:        filepath.Join(s.dir, name),
		ContentType: contentTypeFor(name),
		Size:        info.Size(),
		CreatedAt:   info.ModTime().UTC(),
	}
}
