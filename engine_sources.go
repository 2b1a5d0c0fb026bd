package kotatsu

import (
	"sort"
	"sync"
)

// sourceRegistry owns the source table. Registration after Build is allowed;
// sources plug in dynamically and a flow only reads the table once, at start.
type sourceRegistry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

func newSourceRegistry() *sourceRegistry {
	return &sourceRegistry{
		sources: make(map[string]Source),
	}
}

// RegisterSource describes the registersource operation and its observable behavior.
//
// RegisterSource may return an error when input validation, dependency calls, or security checks fail.
// RegisterSource does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RegisterSource(src Source) error {
	if e == nil || e.registry == nil {
		return ErrEngineNotReady
	}
	if src.ID == "" {
		return ErrSourceInvalid
	}

	e.registry.mu.Lock()
	defer e.registry.mu.Unlock()

	if _, exists := e.registry.sources[src.ID]; exists {
		return ErrSourceExists
	}
	e.registry.sources[src.ID] = src
	return nil
}

// Source describes the source operation and its observable behavior.
//
// Source may return an error when input validation, dependency calls, or security checks fail.
// Source does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Source(id string) (Source, error) {
	if e == nil || e.registry == nil {
		return Source{}, ErrEngineNotReady
	}

	e.registry.mu.RLock()
	defer e.registry.mu.RUnlock()

	src, ok := e.registry.sources[id]
	if !ok {
		return Source{}, ErrSourceNotFound
	}
	return src, nil
}

// Sources describes the sources operation and its observable behavior.
//
// Sources does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Sources() []Source {
	if e == nil || e.registry == nil {
		return nil
	}

	e.registry.mu.RLock()
	out := make([]Source, 0, len(e.registry.sources))
	for _, src := range e.registry.sources {
		out = append(out, src)
	}
	e.registry.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
