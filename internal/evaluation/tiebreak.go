package evaluation

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// TieBreaker picks one representative among raw detections that share the
// winning confidence of an aggregated key. candidates is never empty and is
// in input order.
type TieBreaker interface {
	Pick(candidates []DetectionEvent) int
}

// FirstTie keeps the earliest candidate in input order.
type FirstTie struct{}

// Pick implements TieBreaker.
func (FirstTie) Pick([]DetectionEvent) int { return 0 }

// RandomTie picks uniformly at random from an injected generator.
type RandomTie struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomTie returns a random tie breaker drawing from rng.
func NewRandomTie(rng *rand.Rand) *RandomTie {
	return &RandomTie{rng: rng}
}

// Pick implements TieBreaker.
func (r *RandomTie) Pick(candidates []DetectionEvent) int {
	if len(candidates) < 2 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.IntN(len(candidates))
}

// Tie-break policy names accepted by ParseTieBreaker.
const (
	TiePolicyFirst  = "first"
	TiePolicyRandom = "random"
)

// ParseTieBreaker builds a tie breaker from a policy name. The random policy
// is seeded with seed so runs can be repeated.
func ParseTieBreaker(policy string, seed uint64) (TieBreaker, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "", TiePolicyFirst:
		return FirstTie{}, nil
	case TiePolicyRandom:
		return NewRandomTie(rand.New(rand.NewPCG(seed, seed))), nil
	}
	return nil, inputShapeErrorf("unknown tie-break policy %q", policy)
}
