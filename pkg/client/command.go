package client

import (
	"context"
	"sync"
)

// Result is the typed outcome of a Command.
type Result[T any] struct {
	Value T
	Err   error
}

func (r Result[T]) OK() bool { return r.Err == nil }

// Command is one user action: a request plus the re-fetch that replaces
// local state with the server's view afterwards. Key, when set, prevents
// the same action from running twice at once.
type Command[T any] struct {
	Name    string
	Key     string
	Run     func(ctx context.Context) (T, error)
	Refresh func(ctx context.Context) (T, error)
}

// Execute runs cmd under the guard. Refresh runs after Run whether or not
// Run succeeded, unless the guard rejected the call or ctx was cancelled;
// on a Run error the refreshed value is still returned alongside it.
func Execute[T any](ctx context.Context, guard *Guard, cmd Command[T]) Result[T] {
	if cmd.Key != "" {
		release, err := guard.Acquire(cmd.Key)
		if err != nil {
			return Result[T]{Err: err}
		}
		defer release()
	}

	value, err := cmd.Run(ctx)
	if cmd.Refresh == nil || ctx.Err() != nil {
		return Result[T]{Value: value, Err: err}
	}

	fresh, ferr := cmd.Refresh(ctx)
	if ferr != nil {
		if err == nil {
			// the mutation went through but the re-read failed
			return Result[T]{Value: value, Err: ferr}
		}
		return Result[T]{Value: value, Err: err}
	}
	return Result[T]{Value: fresh, Err: err}
}

// Guard tracks mutating actions that are outstanding.
type Guard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{active: map[string]struct{}{}}
}

func (g *Guard) Acquire(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[key]; busy {
		return nil, ErrInFlight
	}
	g.active[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, key)
			g.mu.Unlock()
		})
	}, nil
}

// InFlight reports whether key is running; a UI disables its submit control while true.
func (g *Guard) InFlight(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.active[key]
	return busy
}

type Generation uint64

// Navigator cancels the previous screen's requests when the user moves on.
type Navigator struct {
	mu     sync.Mutex
	gen    Generation
	cancel context.CancelFunc
}

func NewNavigator() *Navigator {
	return &Navigator{}
}

// Navigate starts a new screen. The returned context is cancelled by the next Navigate.
func (n *Navigator) Navigate(parent context.Context) (context.Context, Generation) {
	ctx, cancel := context.WithCancel(parent)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
	}
	n.gen++
	n.cancel = cancel
	return ctx, n.gen
}

func (n *Navigator) Current() Generation {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.gen
}

// Deliver applies a result only if gen is still the current screen.
func (n *Navigator) Deliver(gen Generation, apply func()) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if gen != n.gen {
		return ErrStale
	}
	apply()
	return nil
}

// Load runs fetch and drops its result if the user navigated away meanwhile.
func Load[T any](ctx context.Context, nav *Navigator, gen Generation, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := fetch(ctx)
	if nav.Current() != gen {
		return zero, ErrStale
	}
	if err != nil {
		return zero, err
	}
	return v, nil
}
