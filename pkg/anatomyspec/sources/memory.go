package sources

import (
	"context"
	"sync"

	"github.com/dd0wney/cluso-anatomy/pkg/anatomyspec"
)

// Memory holds encoded documents in process. Stored documents are copied
// through their JSON encoding so callers cannot mutate them after Put.
type Memory struct {
	mu   sync.RWMutex
	docs map[anatomyspec.Key][]byte
}

// NewMemory returns an empty in-memory source.
func NewMemory() *Memory {
	return &Memory{docs: make(map[anatomyspec.Key][]byte)}
}

// Put stores doc under its own key, replacing any previous document.
func (m *Memory) Put(doc *anatomyspec.Document) error {
	key := doc.Key()
	if err := key.Validate(); err != nil {
		return err
	}
	data, err := anatomyspec.Marshal(doc, anatomyspec.FormatJSON)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.docs[key] = data
	m.mu.Unlock()
	return nil
}

// Delete removes a document and reports whether it existed.
func (m *Memory) Delete(key anatomyspec.Key) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[key]
	delete(m.docs, key)
	return ok
}

func (m *Memory) Fetch(ctx context.Context, template, networkType string) (*anatomyspec.Document, error) {
	key, err := checkKey(template, networkType)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	data, ok := m.docs[key]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(key)
	}
	return decode(key, networkType+".json", data)
}

func (m *Memory) List(ctx context.Context) ([]anatomyspec.Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set := make(map[anatomyspec.Key]struct{}, len(m.docs))
	for k := range m.docs {
		set[k] = struct{}{}
	}
	return sortedKeys(set), nil
}
