package launcher

import (
	"errors"
	"sync"
)

// State is the lifecycle of a launcher request.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrBusy is returned when a launcher is asked to start while its request is running.
var ErrBusy = errors.New("a request is already in progress")

// task holds at most one live result. Starting a new request discards the previous one.
type task[T any] struct {
	mu     sync.Mutex
	state  State
	result *T
	err    error
	notify func(State)
}

func (t *task[T]) begin() error {
	t.mu.Lock()
	if t.state == Loading {
		t.mu.Unlock()
		return ErrBusy
	}
	t.state = Loading
	t.result = nil
	t.err = nil
	notify := t.notify
	t.mu.Unlock()

	if notify != nil {
		notify(Loading)
	}
	return nil
}

func (t *task[T]) finish(result *T, err error) {
	t.mu.Lock()
	if err != nil {
		t.state = Failed
		t.result = nil
		t.err = err
	} else {
		t.state = Ready
		t.result = result
		t.err = nil
	}
	state, notify := t.state, t.notify
	t.mu.Unlock()

	if notify != nil {
		notify(state)
	}
}

// reset returns to Idle unless a request is running.
func (t *task[T]) reset() error {
	t.mu.Lock()
	if t.state == Loading {
		t.mu.Unlock()
		return ErrBusy
	}
	t.state = Idle
	t.result = nil
	t.err = nil
	notify := t.notify
	t.mu.Unlock()

	if notify != nil {
		notify(Idle)
	}
	return nil
}

func (t *task[T]) snapshot() (State, *T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state, t.result, t.err
}

func (t *task[T]) observe(fn func(State)) {
	t.mu.Lock()
	t.notify = fn
	t.mu.Unlock()
}
