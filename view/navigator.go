package view

import (
	"context"
	"sync"
	"time"
)

// Recorder receives the outcome of every finished navigation
type Recorder interface {
	RecordNavigation(route string, state State, elapsed time.Duration)
}

type NavigatorOption func(*Navigator)

func WithRecorder(r Recorder) NavigatorOption {
	return func(nv *Navigator) {
		nv.recorder = r
	}
}

// Navigator drives the navigations of one client, such as a browser tab.
// Starting a navigation abandons the previous one.
type Navigator struct {
	table    *Table
	notFound View
	recorder Recorder

	mu      sync.Mutex
	current *Navigation
}

func NewNavigator(table *Table, notFound View, opts ...NavigatorOption) *Navigator {
	nv := &Navigator{
		table:    table,
		notFound: notFound,
	}
	for _, opt := range opts {
		opt(nv)
	}
	return nv
}

// Navigate cancels the current navigation and starts one for path.
// Unmatched paths render the not-found view.
func (nv *Navigator) Navigate(ctx context.Context, path string, render RenderFunc) *Navigation {
	route, params, _ := nv.table.Resolve(path, nv.notFound)

	nv.mu.Lock()
	defer nv.mu.Unlock()

	if nv.current != nil {
		nv.current.Cancel()
	}
	n := Start(ctx, path, route, params, render)
	nv.current = n

	if nv.recorder != nil {
		go func() {
			<-n.Done()
			nv.recorder.RecordNavigation(route.Name, n.State(), n.Elapsed())
		}()
	}
	return n
}

// Close abandons the current navigation
func (nv *Navigator) Close() {
	nv.mu.Lock()
	defer nv.mu.Unlock()
	if nv.current != nil {
		nv.current.Cancel()
		nv.current = nil
	}
}
