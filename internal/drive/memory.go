package drive

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Node is an object held by MemoryStore.
type Node struct {
	ID       string
	Name     string
	ParentID string
	MimeType string
	Public   bool
	Data     []byte
}

// MemoryStore is an in-process Store for local development.
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	order []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nodes: make(map[string]*Node)}
}

// FindFolders implements Store.
func (m *MemoryStore) FindFolders(_ context.Context, name, parentID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for _, id := range m.order {
		n, ok := m.nodes[id]
		if ok && n.MimeType == FolderMimeType && n.Name == name && n.ParentID == parentID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// CreateFolder implements Store.
func (m *MemoryStore) CreateFolder(_ context.Context, name, parentID string) (string, error) {
	return m.put(&Node{Name: name, ParentID: parentID, MimeType: FolderMimeType}), nil
}

// CreateFile implements Store.
func (m *MemoryStore) CreateFile(_ context.Context, f FileSpec) (*StoredFile, error) {
	data, err := io.ReadAll(f.Content)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	id := m.put(&Node{Name: f.Name, ParentID: f.ParentID, MimeType: f.MimeType, Data: data})
	return &StoredFile{
		ID:          id,
		WebViewLink: "memory://view/" + id,
		ContentLink: "memory://content/" + id,
	}, nil
}

// GrantPublicRead implements Store.
func (m *MemoryStore) GrantPublicRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[id]
	if !ok {
		return fmt.Errorf("object %s not found", id)
	}
	n.Public = true
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.nodes[id]; !ok {
		return fmt.Errorf("object %s not found", id)
	}
	delete(m.nodes, id)
	if i := slices.Index(m.order, id); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	return nil
}

// Get returns a copy of the node with the given id.
func (m *MemoryStore) Get(id string) (Node, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Len returns the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.nodes)
}

func (m *MemoryStore) put(n *Node) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	n.ID = uuid.New().String()
	m.nodes[n.ID] = n
	m.order = append(m.order, n.ID)
	return n.ID
}
