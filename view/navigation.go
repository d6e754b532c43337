package view

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/xid"
)

var (
	ErrLoadTimeout         = errors.New("view load timed out")
	ErrNavigationAbandoned = errors.New("navigation abandoned")
)

// LoadFunc fetches the real view of a deferred route
type LoadFunc func(ctx context.Context, params Params) (View, error)

// Deferred describes a lazily loaded view.
// Delay <= 0 shows the placeholder at once, Timeout <= 0 waits forever.
type Deferred struct {
	Load        LoadFunc
	Placeholder View
	Fallback    View
	Delay       time.Duration
	Timeout     time.Duration
}

type State int

const (
	StatePending State = iota
	StatePlaceholder
	StateLoaded
	StateFallback
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StatePlaceholder:
		return "placeholder"
	case StateLoaded:
		return "loaded"
	case StateFallback:
		return "fallback"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Settled reports whether the navigation reached its final view
func (s State) Settled() bool {
	return s == StateLoaded || s == StateFallback
}

// RenderFunc is called for every view a navigation shows. It must not call
// Cancel on the same navigation.
type RenderFunc func(n *Navigation, v View)

// Navigation is one resolution of a path to a view.
//
// Pending -> Placeholder -> Loaded | Fallback, where the placeholder step is
// skipped when loading finishes before the delay. Any unsettled state may
// become Abandoned through Cancel, after which nothing is rendered.
type Navigation struct {
	id        string
	path      string
	route     Route
	params    Params
	render    RenderFunc
	cancel    context.CancelFunc
	startedAt time.Time

	// held while a view is rendered so Cancel can wait for it
	renderMu sync.Mutex

	mu    sync.Mutex
	state State
	view  View
	err   error
	done  chan struct{}
}

type loadResult struct {
	view View
	err  error
}

// Start resolves route for path. Direct views are rendered before Start
// returns; deferred views load in the background until settled or cancelled.
func Start(ctx context.Context, path string, route Route, params Params, render RenderFunc) *Navigation {
	ctx, cancel := context.WithCancel(ctx)
	n := &Navigation{
		id:        xid.New().String(),
		path:      path,
		route:     route,
		params:    params,
		render:    render,
		cancel:    cancel,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}

	if route.Deferred == nil {
		n.transition(StateLoaded, route.View, nil)
		cancel()
		return n
	}

	go n.run(ctx, route.Deferred)
	return n
}

func (n *Navigation) run(ctx context.Context, d *Deferred) {
	defer n.cancel()

	results := make(chan loadResult, 1)
	go func() {
		v, err := d.Load(ctx, n.params)
		results <- loadResult{view: v, err: err}
	}()

	var delayC, timeoutC <-chan time.Time
	if d.Delay <= 0 {
		n.transition(StatePlaceholder, d.Placeholder, nil)
	} else {
		delay := time.NewTimer(d.Delay)
		defer delay.Stop()
		delayC = delay.C
	}
	if d.Timeout > 0 {
		timeout := time.NewTimer(d.Timeout)
		defer timeout.Stop()
		timeoutC = timeout.C
	}

	for {
		select {
		case <-ctx.Done():
			n.abandon()
			return
		case <-delayC:
			delayC = nil
			n.transition(StatePlaceholder, d.Placeholder, nil)
		case <-timeoutC:
			n.transition(StateFallback, d.Fallback, ErrLoadTimeout)
			return
		case r := <-results:
			if r.err != nil {
				n.transition(StateFallback, d.Fallback, r.err)
			} else {
				n.transition(StateLoaded, r.view, nil)
			}
			return
		}
	}
}

func (n *Navigation) transition(state State, v View, err error) {
	n.renderMu.Lock()
	defer n.renderMu.Unlock()

	n.mu.Lock()
	if n.state.Settled() || n.state == StateAbandoned {
		n.mu.Unlock()
		return
	}
	if state == StatePlaceholder && n.state != StatePending {
		n.mu.Unlock()
		return
	}
	n.state = state
	n.view = v
	n.err = err
	n.mu.Unlock()

	if n.render != nil {
		n.render(n, v)
	}
	if state.Settled() {
		close(n.done)
	}
}

func (n *Navigation) abandon() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state.Settled() || n.state == StateAbandoned {
		return
	}
	n.state = StateAbandoned
	n.err = ErrNavigationAbandoned
	close(n.done)
}

// Cancel abandons the navigation. Once Cancel returns no further view is
// rendered and the loader's context is cancelled. Cancelling a settled
// navigation only releases its resources.
func (n *Navigation) Cancel() {
	n.abandon()
	n.cancel()

	// wait out a render that was already in progress
	n.renderMu.Lock()
	n.renderMu.Unlock()
}

// Wait blocks until the navigation settles or is abandoned and returns the
// last view with the load error, if any. A fallback view comes with
// ErrLoadTimeout or the loader's error.
func (n *Navigation) Wait(ctx context.Context) (View, error) {
	select {
	case <-n.done:
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.view, n.err
}

// Done is closed when the navigation settles or is abandoned
func (n *Navigation) Done() <-chan struct{} {
	return n.done
}

func (n *Navigation) ID() string {
	return n.id
}

func (n *Navigation) Path() string {
	return n.path
}

func (n *Navigation) Route() Route {
	return n.route
}

func (n *Navigation) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Elapsed returns the time since the navigation started
func (n *Navigation) Elapsed() time.Duration {
	return time.Since(n.startedAt)
}
