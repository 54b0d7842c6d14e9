package statex

import "fmt"

// StoreBuilder provides a fluent API for assembling a store with its
// action handlers and persistence, with validation that the option-based
// constructor skips.
type StoreBuilder[S any] struct {
	initial   S
	handlers  map[string]ActionHandler[S]
	order     []string
	persister Persister[S]
	storeID   string
	errs      []error
}

// NewStoreBuilder creates a builder for a store holding initial.
func NewStoreBuilder[S any](initial S) *StoreBuilder[S] {
	return &StoreBuilder[S]{
		initial:  initial,
		handlers: make(map[string]ActionHandler[S]),
	}
}

// Handle registers an action handler. Registering the same action type
// twice, or a nil handler, is reported by Build.
func (b *StoreBuilder[S]) Handle(actionType string, h ActionHandler[S]) *StoreBuilder[S] {
	if actionType == "" {
		b.errs = append(b.errs, fmt.Errorf("empty action type"))
		return b
	}
	if h == nil {
		b.errs = append(b.errs, fmt.Errorf("nil handler for action %q", actionType))
		return b
	}
	if _, exists := b.handlers[actionType]; exists {
		b.errs = append(b.errs, fmt.Errorf("duplicate handler for action %q", actionType))
		return b
	}
	b.handlers[actionType] = h
	b.order = append(b.order, actionType)
	return b
}

// Persist configures snapshot persistence for the built store.
func (b *StoreBuilder[S]) Persist(p Persister[S], storeID string) *StoreBuilder[S] {
	if p == nil {
		b.errs = append(b.errs, fmt.Errorf("nil persister"))
		return b
	}
	if storeID == "" {
		b.errs = append(b.errs, fmt.Errorf("empty store ID"))
		return b
	}
	b.persister = p
	b.storeID = storeID
	return b
}

// Build validates the configuration and returns the store.
func (b *StoreBuilder[S]) Build() (*Store[S], error) {
	if len(b.errs) > 0 {
		// First error is the most useful one; the rest usually cascade.
		return nil, fmt.Errorf("build store: %w", b.errs[0])
	}
	opts := make([]Option[S], 0, len(b.order)+1)
	for _, actionType := range b.order {
		opts = append(opts, WithHandler(actionType, b.handlers[actionType]))
	}
	if b.persister != nil {
		opts = append(opts, WithPersister(b.persister, b.storeID))
	}
	return NewStore(b.initial, opts...), nil
}
