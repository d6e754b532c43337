package auth

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/gommon/log"
	"golang.org/x/sync/singleflight"

	"github.com/recipeapp/recipe-app/store"
)

// RegistryLimits bounds how many Stores a Registry keeps loaded.
// A zero Capacity keeps every Store. A zero IdleTimeout never expires one.
type RegistryLimits struct {
	Capacity    int
	IdleTimeout time.Duration
}

// Registry holds one Store per browser scope. Stores are built from durable
// storage the first time a scope is seen and shared afterwards. The least
// recently used Store is dropped once the registry is full, and a Store that
// has not been used for IdleTimeout is dropped too. A dropped Store is
// reloaded from storage on the next Get.
type Registry struct {
	origins store.OriginProvider
	opts    []Option

	mu     sync.Mutex
	stores *expirable.LRU[string, *Store]
	loads  singleflight.Group
}

func NewRegistry(origins store.OriginProvider, limits RegistryLimits, opts ...Option) *Registry {
	onEvict := func(scope string, _ *Store) {
		log.Debugf("Dropped session store of scope %s", scope)
	}
	return &Registry{
		origins: origins,
		opts:    opts,
		stores:  expirable.NewLRU[string, *Store](limits.Capacity, onEvict, limits.IdleTimeout),
	}
}

// Get returns the Store of scope, loading it on first access.
// Concurrent first accesses of one scope share a single load.
func (r *Registry) Get(scope string) (*Store, error) {
	if s, ok := r.touch(scope); ok {
		return s, nil
	}

	v, err, _ := r.loads.Do(scope, func() (interface{}, error) {
		if s, ok := r.touch(scope); ok {
			return s, nil
		}

		storage, err := r.origins.Origin(scope)
		if err != nil {
			return nil, err
		}
		s, err := New(storage, r.opts...)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.stores.Add(scope, s)
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

// touch looks scope up and marks it as recently used
func (r *Registry) touch(scope string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.stores.Get(scope)
	if ok {
		// re-adding restarts the idle timer
		r.stores.Add(scope, s)
	}
	return s, ok
}

// Forget drops the cached Store of scope. The next Get reloads it from storage.
func (r *Registry) Forget(scope string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores.Remove(scope)
}

// Len returns the number of loaded stores
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stores.Len()
}
