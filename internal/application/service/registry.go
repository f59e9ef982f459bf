package service

import (
	"sort"
	"sync"

	"broker-removal/internal/application/port/output"
)

var _ output.AdapterRegistry = (*AdapterRegistryImpl)(nil)

// AdapterRegistryImpl maps recipe references to adapters. It is filled once
// at startup and then only read, so batches can share it.
type AdapterRegistryImpl struct {
	mu       sync.RWMutex
	adapters map[string]output.AdapterPort
	fallback output.AdapterPort
}

func NewAdapterRegistry(fallback output.AdapterPort) *AdapterRegistryImpl {
	return &AdapterRegistryImpl{
		adapters: make(map[string]output.AdapterPort),
		fallback: fallback,
	}
}

func (r *AdapterRegistryImpl) Register(adapter output.AdapterPort) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Name()] = adapter
}

func (r *AdapterRegistryImpl) Get(ref string) (output.AdapterPort, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[ref]
	return adapter, ok
}

// Resolve returns the dedicated adapter for ref, or the generic fallback.
func (r *AdapterRegistryImpl) Resolve(ref string) output.AdapterPort {
	if adapter, ok := r.Get(ref); ok {
		return adapter
	}
	return r.fallback
}

func (r *AdapterRegistryImpl) All() []output.AdapterPort {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]output.AdapterPort, 0, len(r.adapters))
	for _, adapter := range r.adapters {
		result = append(result, adapter)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name() < result[j].Name()
	})
	return result
}
