package packages

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dikkadev/condatui/pkg/environment"
	"github.com/dikkadev/condatui/pkg/storage"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ErrNoPath is returned when listing the path-less root environment
var ErrNoPath = errors.New("environment has no path")

// UpdateChecker decides whether a newer version of a package is available
type UpdateChecker interface {
	CheckForUpdate(ctx context.Context, pkg *Package) bool
}

// NoUpdates is an UpdateChecker that never reports updates
type NoUpdates struct{}

// CheckForUpdate implements UpdateChecker
func (NoUpdates) CheckForUpdate(context.Context, *Package) bool { return false }

// Cache memoizes package listings per environment. Environments are compared
// by value, and a stored listing is never invalidated.
type Cache struct {
	mu      sync.Mutex
	entries map[environment.Environment][]*Package
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[environment.Environment][]*Package)}
}

// Get returns the cached listing for env
func (c *Cache) Get(env environment.Environment) ([]*Package, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pkgs, ok := c.entries[env]
	return pkgs, ok
}

// Put stores a listing unless one is already present, and returns the stored one
func (c *Cache) Put(env environment.Environment, pkgs []*Package) []*Package {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.entries[env]; ok {
		return existing
	}
	c.entries[env] = pkgs
	return pkgs
}

// Len returns the number of cached listings
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Lister lists the packages installed in an environment
type Lister struct {
	open    storage.Opener
	checker UpdateChecker
	cache   *Cache

	inflight singleflight.Group
}

// NewLister creates a lister. A nil checker never reports updates and a nil
// cache gets a fresh one.
func NewLister(open storage.Opener, checker UpdateChecker, cache *Cache) *Lister {
	if checker == nil {
		checker = NoUpdates{}
	}
	if cache == nil {
		cache = NewCache()
	}
	return &Lister{open: open, checker: checker, cache: cache}
}

// List returns the environment's packages sorted by name. Repeated calls for
// an equal environment return the same slice without touching the disk, and
// concurrent calls for the same environment share a single read. Errors are
// not cached.
func (l *Lister) List(ctx context.Context, env environment.Environment) ([]*Package, error) {
	if env.IsRoot() {
		return nil, ErrNoPath
	}

	if pkgs, ok := l.cache.Get(env); ok {
		logrus.WithField("prefix", env.Path).Debug("Package listing cache hit")
		return pkgs, nil
	}

	v, err, shared := l.inflight.Do(flightKey(env), func() (any, error) {
		if pkgs, ok := l.cache.Get(env); ok {
			return pkgs, nil
		}
		return l.read(ctx, env)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logrus.WithField("prefix", env.Path).Debug("Joined in-flight package listing")
	}
	return v.([]*Package), nil
}

func (l *Lister) read(ctx context.Context, env environment.Environment) ([]*Package, error) {
	store, err := l.open(env.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open environment: %w", err)
	}

	records, err := store.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read packages: %w", err)
	}

	pkgs := make([]*Package, 0, len(records))
	for _, rec := range records {
		pkg := New(rec)
		pkg.SetUpdateAvailable(l.checker.CheckForUpdate(ctx, pkg))
		pkgs = append(pkgs, pkg)
	}
	SortByName(pkgs)

	logrus.WithFields(logrus.Fields{"prefix": env.Path, "count": len(pkgs)}).Info("Listed packages")
	return l.cache.Put(env, pkgs), nil
}

// flightKey identifies an environment the same way the cache does
func flightKey(env environment.Environment) string {
	return env.Name + "\x00" + env.Path
}

// SortByName sorts packages by name, byte-wise ascending. The sort is stable,
// so packages sharing a name keep their relative order.
func SortByName(pkgs []*Package) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		return pkgs[i].Name() < pkgs[j].Name()
	})
}
