package store

import (
	"context"
	"fmt"
	"sync"
)

// Opener connects to a backend.
type Opener func(ctx context.Context) (Store, error)

// Handle opens its Store on first use and keeps it for the life of the process.
// A failed open is not cached; the next Get tries again.
type Handle struct {
	open Opener

	mu sync.Mutex
	st Store
}

func NewHandle(open Opener) *Handle {
	return &Handle{open: open}
}

// Get returns the opened Store, connecting if needed.
func (h *Handle) Get(ctx context.Context) (Store, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.st != nil {
		return h.st, nil
	}
	st, err := h.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	h.st = st
	return st, nil
}

// Opened reports whether a connection exists.
func (h *Handle) Opened() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.st != nil
}

func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.st == nil {
		return nil
	}
	err := h.st.Close()
	h.st = nil
	return err
}
