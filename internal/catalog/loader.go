// Package catalog loads the product catalog the storefront displays and the
// checkout refreshes after a sale.
package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/ariefcatur/go-storefront-checkout/internal/ident"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Source is the backend catalog API.
type Source interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id ident.ID) (Product, error)
}

// State is what the presentation layer reads to render the catalog.
type State struct {
	Products     []Product `json:"products"`
	Status       Status    `json:"status"`
	Error        string    `json:"error,omitempty"`
	Current      *Product  `json:"currentProduct"`
	DetailStatus Status    `json:"statusDetail"`
}

type Loader struct {
	src   Source
	cache Cache
	log   *zap.Logger
	sfg   singleflight.Group

	mu    sync.RWMutex
	state State
	// bumped when a refresh starts; loads begun earlier must not store
	gen uint64
}

// NewLoader builds a loader; cache may be nil.
func NewLoader(src Source, cache Cache, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		src:   src,
		cache: cache,
		log:   log,
		state: State{Status: StatusIdle, DetailStatus: StatusIdle},
	}
}

// Products returns the product list, from cache when possible.
func (l *Loader) Products(ctx context.Context) ([]Product, error) {
	return l.load(ctx, "products", false)
}

// Refresh reloads the product list from the backend, bypassing the cache.
func (l *Loader) Refresh(ctx context.Context) error {
	_, err := l.load(ctx, "refresh", true)
	return err
}

func (l *Loader) load(ctx context.Context, key string, fresh bool) ([]Product, error) {
	v, err, _ := l.sfg.Do(key, func() (interface{}, error) {
		gen := l.begin(fresh)

		if l.cache != nil {
			if fresh {
				if err := l.cache.Delete(ctx); err != nil {
					l.log.Warn("catalog cache invalidate", zap.Error(err))
				}
			} else {
				products, err := l.cache.Get(ctx)
				if err == nil {
					current, _ := l.store(gen, products)
					return current, nil
				}
				if !errors.Is(err, ErrCacheMiss) {
					l.log.Warn("catalog cache get", zap.Error(err))
				}
			}
		}

		products, err := l.src.ListProducts(ctx)
		if err != nil {
			l.fail(gen, err)
			return nil, err
		}
		if products == nil {
			products = []Product{}
		}
		if current, ok := l.store(gen, products); !ok {
			return current, nil
		}

		if l.cache != nil {
			if err := l.cache.Set(ctx, products); err != nil {
				l.log.Warn("catalog cache set", zap.Error(err))
			}
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Product), nil
}

// Product loads one product into the detail slot.
func (l *Loader) Product(ctx context.Context, id ident.ID) (Product, error) {
	l.mu.Lock()
	l.state.DetailStatus = StatusLoading
	l.state.Current = nil
	l.mu.Unlock()

	p, err := l.src.GetProduct(ctx, id)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.state.DetailStatus = StatusFailed
		return Product{}, err
	}
	l.state.DetailStatus = StatusSucceeded
	l.state.Current = &p
	return p, nil
}

// Find looks a product up in the loaded list.
func (l *Loader) Find(id ident.ID) (Product, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, p := range l.state.Products {
		if p.ID.Equal(id) {
			return p, true
		}
	}
	return Product{}, false
}

// Search filters the loaded list.
func (l *Loader) Search(term string) []Product {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Filter(l.state.Products, term)
}

func (l *Loader) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s := l.state
	s.Products = append([]Product(nil), l.state.Products...)
	return s
}

func (l *Loader) begin(fresh bool) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if fresh {
		l.gen++
	}
	l.state.Status = StatusLoading
	return l.gen
}

// store records products loaded under gen and returns the list now held. A
// load overtaken by a refresh leaves the newer list in place and reports false.
func (l *Loader) store(gen uint64, products []Product) ([]Product, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		l.log.Debug("stale catalog load discarded")
		return l.state.Products, false
	}
	l.state.Products = products
	l.state.Status = StatusSucceeded
	l.state.Error = ""
	return products, true
}

func (l *Loader) fail(gen uint64, err error) {
	l.log.Warn("catalog load failed", zap.Error(err))
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return
	}
	l.state.Status = StatusFailed
	l.state.Error = err.Error()
}
