package view

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	route string
	state State
}

type fakeRecorder struct {
	mu   sync.Mutex
	seen []recorded
}

func (f *fakeRecorder) RecordNavigation(route string, state State, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, recorded{route, state})
}

func (f *fakeRecorder) get() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.seen...)
}

func navigatorTable(t *testing.T, slowRelease chan struct{}) *Table {
	t.Helper()
	table, err := NewTable(
		Route{Path: "/", Name: "Home", View: View{Name: "home.html"}},
		Route{Path: "/news", Name: "news", Deferred: &Deferred{
			Load: func(ctx context.Context, _ Params) (View, error) {
				select {
				case <-slowRelease:
					return View{Name: "news.html"}, nil
				case <-ctx.Done():
					return View{}, ctx.Err()
				}
			},
			Placeholder: placeholder,
			Fallback:    fallback,
			Delay:       10 * time.Millisecond,
			Timeout:     time.Second,
		}},
		Route{Path: "/recipe/:slug", Name: "recipe-detail", Deferred: &Deferred{
			Load: func(ctx context.Context, p Params) (View, error) {
				return View{Name: "recipe_detail.html", Data: map[string]interface{}{"slug": p["slug"]}}, nil
			},
			Placeholder: placeholder,
			Fallback:    fallback,
			Delay:       time.Second,
			Timeout:     time.Second,
		}},
	)
	require.NoError(t, err)
	return table
}

func TestNavigatorAbandonsPreviousNavigation(t *testing.T) {
	release := make(chan struct{})
	rec := &fakeRecorder{}
	nv := NewNavigator(navigatorTable(t, release), View{Name: "not_found.html"}, WithRecorder(rec))

	var r renders
	first := nv.Navigate(context.Background(), "/news", r.fn)
	require.Eventually(t, func() bool { return first.State() == StatePlaceholder }, time.Second, 5*time.Millisecond)

	second := nv.Navigate(context.Background(), "/recipe/pasta-bake", r.fn)
	assert.Equal(t, StateAbandoned, first.State())
	close(release)

	v, err := second.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "pasta-bake", v.Data["slug"])
	assert.Same(t, second, current(nv))

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, []string{"loading.html", "recipe_detail.html"}, r.get())

	require.Eventually(t, func() bool { return len(rec.get()) == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []recorded{
		{"news", StateAbandoned},
		{"recipe-detail", StateLoaded},
	}, rec.get())
}

func TestNavigatorNotFound(t *testing.T) {
	nv := NewNavigator(navigatorTable(t, make(chan struct{})), View{Name: "not_found.html"})

	var r renders
	n := nv.Navigate(context.Background(), "/unknown/page", r.fn)
	v, err := n.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, NotFoundRoute, n.Route().Name)
	assert.Equal(t, "not_found.html", v.Name)
	assert.Equal(t, 404, v.StatusCode())
	assert.Equal(t, []string{"not_found.html"}, r.get())
}

func TestNavigatorClose(t *testing.T) {
	nv := NewNavigator(navigatorTable(t, make(chan struct{})), View{Name: "not_found.html"})

	n := nv.Navigate(context.Background(), "/news", nil)
	nv.Close()
	assert.Equal(t, StateAbandoned, n.State())
	assert.Nil(t, current(nv))

	// closing twice is fine
	nv.Close()
}

func current(nv *Navigator) *Navigation {
	nv.mu.Lock()
	defer nv.mu.Unlock()
	return nv.current
}
