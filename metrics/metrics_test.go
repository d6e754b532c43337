package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipeapp/recipe-app/view"
)

func TestRecordNavigation(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordNavigation("news", view.StateLoaded, 120*time.Millisecond)
	c.RecordNavigation("news", view.StateFallback, 5*time.Second)
	c.RecordNavigation("news", view.StateAbandoned, 10*time.Millisecond)
	c.RecordNavigation("news", view.StateLoaded, 80*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.navigations.WithLabelValues("news", "loaded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.navigations.WithLabelValues("news", "fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.navigations.WithLabelValues("news", "abandoned")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.viewDuration))
}

func TestRecordAuth(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordAuth("login", true, nil)
	c.RecordAuth("login", false, nil)
	c.RecordAuth("login", false, nil)
	c.RecordAuth("register", false, errors.New("disk full"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.authAttempts.WithLabelValues("login", ResultSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.authAttempts.WithLabelValues("login", ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.authAttempts.WithLabelValues("register", ResultError)))
}

func TestHandler(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())
	c.RecordAuth("logout", true, nil)

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `recipeapp_auth_attempts_total{op="logout",result="success"} 1`)
}
