// Package characters supplies secret characters for classic games.
package characters

import (
	"errors"
	"math/rand/v2"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// ErrEmptyCatalog is returned by Draw when the pool has no characters at all.
var ErrEmptyCatalog = errors.New("characters: empty catalog")

// Pool draws characters without repetition for the lifetime of the process.
// Once every character has been drawn the pool wraps around and starts over.
type Pool struct {
	mu      sync.Mutex
	catalog []string
	used    map[string]bool
	rng     *rand.Rand
	log     *zap.Logger
}

// NewPool creates a pool over catalog. Duplicate names are collapsed. A nil
// rng uses a randomly seeded source.
func NewPool(catalog []string, rng *rand.Rand, log *zap.Logger) *Pool {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if log == nil {
		log = zap.NewNop()
	}
	uniq := slices.Clone(catalog)
	slices.Sort(uniq)
	uniq = slices.Compact(uniq)
	return &Pool{
		catalog: uniq,
		used:    make(map[string]bool),
		rng:     rng,
		log:     log,
	}
}

// Draw returns a character that has not been drawn before and marks it used.
func (p *Pool) Draw() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.catalog) == 0 {
		return "", ErrEmptyCatalog
	}
	available := p.available()
	if len(available) == 0 {
		p.log.Info("character pool exhausted, starting over", zap.Int("catalog_size", len(p.catalog)))
		clear(p.used)
		available = p.catalog
	}
	name := available[p.rng.IntN(len(available))]
	p.used[name] = true
	return name, nil
}

// Remaining returns how many characters can be drawn before the pool wraps.
func (p *Pool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.catalog) - len(p.used)
}

// Used returns the characters drawn so far, sorted.
func (p *Pool) Used() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.used))
	for name := range p.used {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Size returns the number of distinct characters in the catalog.
func (p *Pool) Size() int {
	return len(p.catalog)
}

func (p *Pool) available() []string {
	out := make([]string, 0, len(p.catalog)-len(p.used))
	for _, name := range p.catalog {
		if !p.used[name] {
			out = append(out, name)
		}
	}
	return out
}
