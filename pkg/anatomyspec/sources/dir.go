package sources

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/exp/mmap"

	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
)

// Dir serves documents laid out as <root>/<template>/<network><ext>.
type Dir struct {
	root string
}

// NewDir returns a source rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Root returns the directory the source reads from.
func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) Fetch(ctx context.Context, template, networkType string) (*anatomyspec.Document, error) {
	key, err := checkKey(template, networkType)
	if err != nil {
		return nil, err
	}

	for _, ext := range anatomyspec.Extensions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := networkType + ext
		data, err := readMapped(filepath.Join(d.root, template, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return decode(key, name, data)
	}
	return nil, notFound(key)
}

func (d *Dir) List(ctx context.Context) ([]anatomyspec.Key, error) {
	templates, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}

	set := make(map[anatomyspec.Key]struct{})
	for _, t := range templates {
		if !t.IsDir() {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		files, err := os.ReadDir(filepath.Join(d.root, t.Name()))
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			if key, ok := splitObjectName(t.Name() + "/" + f.Name()); ok {
				set[key] = struct{}{}
			}
		}
	}
	return sortedKeys(set), nil
}

// readMapped copies a file out of a read-only mapping.
func readMapped(path string) ([]byte, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data := make([]byte, r.Len())
	if _, err := r.ReadAt(data, 0); err != nil && len(data) > 0 {
		return nil, err
	}
	return data, nil
}
