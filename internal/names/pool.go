package names

import (
	"errors"
	"math/rand/v2"

	"github.com/samber/lo"
)

// ErrExhausted signals that every name in the catalog is in use. It is an
// expected condition under full load, not a fault.
var ErrExhausted = errors.New("names: pool exhausted")

// Source picks an index in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Pool hands out names from a Catalog and tracks which ones are taken.
//
// Pool is not safe for concurrent use. The presence hub owns it and
// serializes every call together with its own session bookkeeping.
type Pool struct {
	catalog Catalog
	used    map[string]struct{}
	source  Source
}

// NewPool creates a pool over catalog. A nil source uses the shared
// math/rand/v2 generator.
func NewPool(catalog Catalog, source Source) *Pool {
	if source == nil {
		source = globalSource{}
	}
	return &Pool{
		catalog: catalog,
		used:    make(map[string]struct{}, catalog.Len()),
		source:  source,
	}
}

// Allocate picks a name uniformly at random among the names not in use.
// It does not mark the name as used; call Reserve once the caller has
// committed to it.
func (p *Pool) Allocate() (string, error) {
	available := p.available()
	if len(available) == 0 {
		return "", ErrExhausted
	}
	return available[p.source.IntN(len(available))], nil
}

// Reserve marks name as in use. Names outside the catalog are ignored.
func (p *Pool) Reserve(name string) {
	if !p.catalog.Contains(name) {
		return
	}
	p.used[name] = struct{}{}
}

// Release makes name allocatable again. Releasing a free name is a no-op.
func (p *Pool) Release(name string) {
	delete(p.used, name)
}

// InUse reports whether name is currently reserved.
func (p *Pool) InUse(name string) bool {
	_, ok := p.used[name]
	return ok
}

// Size is the catalog size.
func (p *Pool) Size() int {
	return p.catalog.Len()
}

// Available is the number of names that can still be allocated.
func (p *Pool) Available() int {
	return p.catalog.Len() - len(p.used)
}

func (p *Pool) available() []string {
	return lo.Filter(p.catalog.names, func(name string, _ int) bool {
		return !p.InUse(name)
	})
}
