package domain

import (
	"sort"
	"sync"
)

// InstrumentRegistry tracks known instruments in a thread-safe manner.
// Instruments are implicitly registered when they appear in an order
// submission or in a client's initial holdings.
type InstrumentRegistry struct {
	mu          sync.RWMutex
	instruments map[string]bool
}

// NewInstrumentRegistry creates an empty InstrumentRegistry.
func NewInstrumentRegistry() *InstrumentRegistry {
	return &InstrumentRegistry{
		instruments: make(map[string]bool),
	}
}

// Register adds an instrument to the registry. Safe for concurrent use.
func (r *InstrumentRegistry) Register(instrument string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instruments[instrument] = true
}

// List returns all registered instruments in ascending order.
func (r *InstrumentRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.instruments))
	for instrument := range r.instruments {
		out = append(out, instrument)
	}
	sort.Strings(out)
	return out
}
