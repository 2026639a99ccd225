package data

import (
	"context"
	"errors"
	"sync"

	"github.com/tunogya/soicau/pkg/model"
)

// ErrTableNotFound is returned when a provider has no table by that name
var ErrTableNotFound = errors.New("table not found")

// TableProvider defines the interface for fetching cleaned draw tables
type TableProvider interface {
	// FetchTable retrieves a table by name, rows ordered oldest first
	FetchTable(ctx context.Context, name string) (*model.Table, error)
}

// MemoryProvider implements TableProvider with in-memory storage
type MemoryProvider struct {
	mu     sync.RWMutex
	tables map[string]*model.Table
}

// NewMemoryProvider creates a new in-memory table provider
func NewMemoryProvider(tables ...*model.Table) *MemoryProvider {
	p := &MemoryProvider{tables: make(map[string]*model.Table)}
	for _, t := range tables {
		p.AddTable(t)
	}
	return p
}

// AddTable adds or replaces a table
func (p *MemoryProvider) AddTable(t *model.Table) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tables[t.Name] = t
}

// FetchTable retrieves a table by name
func (p *MemoryProvider) FetchTable(ctx context.Context, name string) (*model.Table, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	t, ok := p.tables[name]
	if !ok {
		return nil, ErrTableNotFound
	}
	return t, nil
}
