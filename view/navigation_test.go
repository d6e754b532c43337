package view

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	placeholder = View{Name: "loading.html"}
	fallback    = View{Name: "error_fallback.html", Status: 503}
)

// renders collects the names of rendered views
type renders struct {
	mu    sync.Mutex
	names []string
}

func (r *renders) fn(_ *Navigation, v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, v.Name)
}

func (r *renders) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func deferredRoute(load LoadFunc, delay, timeout time.Duration) Route {
	return Route{
		Path: "/lazy",
		Name: "lazy",
		Deferred: &Deferred{
			Load:        load,
			Placeholder: placeholder,
			Fallback:    fallback,
			Delay:       delay,
			Timeout:     timeout,
		},
	}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDirectViewRendersImmediately(t *testing.T) {
	var r renders
	n := Start(context.Background(), "/about", Route{Path: "/about", Name: "about", View: View{Name: "about.html"}}, Params{}, r.fn)

	assert.Equal(t, StateLoaded, n.State())
	assert.Equal(t, []string{"about.html"}, r.get())

	v, err := n.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "about.html", v.Name)
}

func TestFastLoadSkipsPlaceholder(t *testing.T) {
	var r renders
	load := func(ctx context.Context, p Params) (View, error) {
		return View{Name: "recipe.html", Data: map[string]interface{}{"slug": p["slug"]}}, nil
	}
	n := Start(context.Background(), "/lazy", deferredRoute(load, time.Second, 5*time.Second), Params{"slug": "pasta-bake"}, r.fn)

	v, err := n.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "recipe.html", v.Name)
	assert.Equal(t, "pasta-bake", v.Data["slug"])
	assert.Equal(t, StateLoaded, n.State())
	assert.Equal(t, []string{"recipe.html"}, r.get())
}

func TestSlowLoadShowsPlaceholderThenView(t *testing.T) {
	var r renders
	release := make(chan struct{})
	load := func(ctx context.Context, _ Params) (View, error) {
		<-release
		return View{Name: "news.html"}, nil
	}
	n := Start(context.Background(), "/lazy", deferredRoute(load, 10*time.Millisecond, 5*time.Second), nil, r.fn)

	require.Eventually(t, func() bool { return n.State() == StatePlaceholder }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"loading.html"}, r.get())

	close(release)
	v, err := n.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "news.html", v.Name)
	assert.Equal(t, []string{"loading.html", "news.html"}, r.get())
}

func TestTimeoutRendersFallback(t *testing.T) {
	var r renders
	loadCancelled := make(chan struct{})
	load := func(ctx context.Context, _ Params) (View, error) {
		<-ctx.Done()
		close(loadCancelled)
		return View{}, ctx.Err()
	}
	n := Start(context.Background(), "/lazy", deferredRoute(load, 10*time.Millisecond, 60*time.Millisecond), nil, r.fn)

	v, err := n.Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrLoadTimeout)
	assert.Equal(t, "error_fallback.html", v.Name)
	assert.Equal(t, StateFallback, n.State())
	assert.Equal(t, []string{"loading.html", "error_fallback.html"}, r.get())

	select {
	case <-loadCancelled:
	case <-time.After(time.Second):
		t.Fatal("loader context was not cancelled after the timeout")
	}
}

func TestTimeoutBeforeDelayShowsOnlyFallback(t *testing.T) {
	var r renders
	load := func(ctx context.Context, _ Params) (View, error) {
		<-ctx.Done()
		return View{}, ctx.Err()
	}
	n := Start(context.Background(), "/lazy", deferredRoute(load, time.Second, 20*time.Millisecond), nil, r.fn)

	v, err := n.Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrLoadTimeout)
	assert.Equal(t, "error_fallback.html", v.Name)
	assert.Equal(t, []string{"error_fallback.html"}, r.get())
}

func TestLoadErrorRendersFallback(t *testing.T) {
	var r renders
	boom := errors.New("boom")
	load := func(ctx context.Context, _ Params) (View, error) {
		return View{}, boom
	}
	n := Start(context.Background(), "/lazy", deferredRoute(load, time.Second, time.Second), nil, r.fn)

	v, err := n.Wait(waitCtx(t))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "error_fallback.html", v.Name)
	assert.Equal(t, StateFallback, n.State())
}

func TestZeroDelayShowsPlaceholderFirst(t *testing.T) {
	var r renders
	load := func(ctx context.Context, _ Params) (View, error) {
		return View{Name: "home.html"}, nil
	}
	n := Start(context.Background(), "/lazy", deferredRoute(load, 0, 0), nil, r.fn)

	_, err := n.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"loading.html", "home.html"}, r.get())
}

func TestCancelStopsRendering(t *testing.T) {
	var r renders
	release := make(chan struct{})
	load := func(ctx context.Context, _ Params) (View, error) {
		<-release
		return View{Name: "late.html"}, nil
	}
	n := Start(context.Background(), "/lazy", deferredRoute(load, 30*time.Millisecond, 80*time.Millisecond), nil, r.fn)

	n.Cancel()
	assert.Equal(t, StateAbandoned, n.State())
	close(release)

	_, err := n.Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrNavigationAbandoned)

	// outlive both timers
	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, r.get())
}

func TestParentContextAbandons(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	load := func(ctx context.Context, _ Params) (View, error) {
		<-ctx.Done()
		return View{}, ctx.Err()
	}
	n := Start(ctx, "/lazy", deferredRoute(load, time.Second, time.Second), nil, nil)
	cancel()

	_, err := n.Wait(waitCtx(t))
	assert.ErrorIs(t, err, ErrNavigationAbandoned)
	assert.Equal(t, StateAbandoned, n.State())
}

func TestCancelAfterSettleKeepsResult(t *testing.T) {
	n := Start(context.Background(), "/about", Route{Name: "about", View: View{Name: "about.html"}}, nil, nil)
	n.Cancel()

	v, err := n.Wait(waitCtx(t))
	require.NoError(t, err)
	assert.Equal(t, "about.html", v.Name)
	assert.Equal(t, StateLoaded, n.State())
}

func TestWaitRespectsContext(t *testing.T) {
	load := func(ctx context.Context, _ Params) (View, error) {
		<-ctx.Done()
		return View{}, ctx.Err()
	}
	n := Start(context.Background(), "/lazy", deferredRoute(load, time.Second, 0), nil, nil)
	defer n.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := n.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "placeholder", StatePlaceholder.String())
	assert.Equal(t, "fallback", StateFallback.String())
	assert.True(t, StateLoaded.Settled())
	assert.False(t, StateAbandoned.Settled())
}
