// Package sources locates template documents by template and network name.
package sources

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
)

// ErrTemplateNotFound is returned when no document exists for a key.
var ErrTemplateNotFound = errors.New("template not found")

// Source fetches template documents.
type Source interface {
	// Fetch returns the document for one network of one template. The
	// returned document is bound to the requested key.
	Fetch(ctx context.Context, template, networkType string) (*anatomyspec.Document, error)

	// List returns every key the source can serve, sorted.
	List(ctx context.Context) ([]anatomyspec.Key, error)
}

// Driver names a Source implementation.
type Driver string

const (
	DriverDir      Driver = "dir"
	DriverS3       Driver = "s3"
	DriverPostgres Driver = "postgres"
	DriverMemory   Driver = "memory"
)

// Config selects and configures a source.
type Config struct {
	Driver      Driver   `yaml:"driver"`
	Dir         string   `yaml:"dir"`
	S3          S3Config `yaml:"s3"`
	PostgresURL string   `yaml:"postgres_url"`
}

// Open constructs the source named by cfg.Driver. The caller owns any
// returned io.Closer.
func Open(ctx context.Context, cfg Config) (Source, error) {
	switch cfg.Driver {
	case DriverDir, "":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("dir source: directory required")
		}
		return NewDir(cfg.Dir), nil
	case DriverS3:
		src, err := NewS3(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return src, nil
	case DriverPostgres:
		src, err := NewPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		return src, nil
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown source driver %q", cfg.Driver)
	}
}

func notFound(key anatomyspec.Key) error {
	return fmt.Errorf("%w: %s", ErrTemplateNotFound, key)
}

// checkKey validates the names before they are used to build paths or
// object keys.
func checkKey(template, networkType string) (anatomyspec.Key, error) {
	key := anatomyspec.Key{Template: template, Network: networkType}
	if err := key.Validate(); err != nil {
		return key, err
	}
	return key, nil
}

// splitObjectName parses "<template>/<network><ext>" where ext is one of
// anatomyspec.Extensions.
func splitObjectName(name string) (anatomyspec.Key, bool) {
	template, file, ok := strings.Cut(name, "/")
	if !ok || strings.Contains(file, "/") {
		return anatomyspec.Key{}, false
	}
	for _, ext := range anatomyspec.Extensions {
		if base, found := strings.CutSuffix(file, ext); found && base != "" {
			key := anatomyspec.Key{Template: template, Network: base}
			if key.Validate() != nil {
				return anatomyspec.Key{}, false
			}
			return key, true
		}
	}
	return anatomyspec.Key{}, false
}

// sortedKeys dedupes and orders keys.
func sortedKeys(set map[anatomyspec.Key]struct{}) []anatomyspec.Key {
	keys := make([]anatomyspec.Key, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Template != keys[j].Template {
			return keys[i].Template < keys[j].Template
		}
		return keys[i].Network < keys[j].Network
	})
	return keys
}

// decode parses a stored body and binds it to key.
func decode(key anatomyspec.Key, name string, data []byte) (*anatomyspec.Document, error) {
	doc, err := anatomyspec.ParseNamed(name, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if err := doc.Bind(key); err != nil {
		return nil, err
	}
	return doc, nil
}
