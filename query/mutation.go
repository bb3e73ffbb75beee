package query

import (
	"context"
	"sync"
)

// MutationStatus is the state of one write.
type MutationStatus int

const (
	MutationIdle MutationStatus = iota
	MutationPending
	MutationSuccess
	MutationError
)

func (s MutationStatus) String() string {
	switch s {
	case MutationPending:
		return "pending"
	case MutationSuccess:
		return "success"
	case MutationError:
		return "error"
	default:
		return "idle"
	}
}

// Mutation tracks a write through idle -> pending -> success|error. It does
// not retry and does not guard against concurrent Mutate calls.
type Mutation struct {
	mu     sync.Mutex
	status MutationStatus
	err    error
}

// Mutate runs fn. On success onSuccess runs before Mutate returns.
func (m *Mutation) Mutate(ctx context.Context, fn func(context.Context) (any, error), onSuccess func(any)) (any, error) {
	m.set(MutationPending, nil)
	v, err := fn(ctx)
	if err != nil {
		m.set(MutationError, err)
		return nil, err
	}
	m.set(MutationSuccess, nil)
	if onSuccess != nil {
		onSuccess(v)
	}
	return v, nil
}

// Status returns the current state.
func (m *Mutation) Status() MutationStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Err returns the error of the last failed Mutate.
func (m *Mutation) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Pending reports whether a Mutate call is running.
func (m *Mutation) Pending() bool {
	return m.Status() == MutationPending
}

// Reset returns the mutation to idle.
func (m *Mutation) Reset() {
	m.set(MutationIdle, nil)
}

func (m *Mutation) set(s MutationStatus, err error) {
	m.mu.Lock()
	m.status = s
	m.err = err
	m.mu.Unlock()
}
