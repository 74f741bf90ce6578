// Package namepool supplies randomized employee names and the normalized
// email addresses derived from them.
package namepool

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/ternarybob/hubcheck/internal/models"
)

// EmailDomain is the domain every generated address uses
const EmailDomain = "example.com"

var (
	// FirstNames is the fixed pool of first names
	FirstNames = []string{"Ella-Rose", "Ben", "Charlie", "Diana", "Elliot", "Mike"}

	// LastNames is the fixed pool of last names
	LastNames = []string{"O'Connor", "Johnson", "Smith", "Brown", "Walker", "Moore"}
)

// BuildEmail lower-cases both names, strips apostrophes and joins them as
// first.last@example.com.
func BuildEmail(firstName, lastName string) string {
	return fmt.Sprintf("%s.%s@%s", normalize(firstName), normalize(lastName), EmailDomain)
}

func normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "'", "")
}

// Pool picks names from the fixed sets. The zero value is not usable; use New
// or NewSeeded.
type Pool struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a pool with a random seed
func New() *Pool {
	return &Pool{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeeded creates a pool whose picks are reproducible for a given seed
func NewSeeded(seed uint64) *Pool {
	return &Pool{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Pick returns a uniformly random element of set. set must be non-empty.
func (p *Pool) Pick(set []string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return set[p.rng.IntN(len(set))]
}

// NewDraft builds a draft with a random first/last name and the derived email
func (p *Pool) NewDraft() models.EmployeeDraft {
	first := p.Pick(FirstNames)
	last := p.Pick(LastNames)
	return models.NewEmployeeDraft(first, last, BuildEmail(first, last))
}

// DistinctDrafts builds n drafts whose full names are pairwise distinct.
// n may not exceed the number of possible name combinations.
func (p *Pool) DistinctDrafts(n int) ([]models.EmployeeDraft, error) {
	if max := len(FirstNames) * len(LastNames); n > max {
		return nil, fmt.Errorf("cannot build %d distinct drafts from %d name combinations", n, max)
	}

	drafts := make([]models.EmployeeDraft, 0, n)
	seen := make(map[string]bool, n)
	for len(drafts) < n {
		d := p.NewDraft()
		if seen[d.FullName()] {
			continue
		}
		seen[d.FullName()] = true
		drafts = append(drafts, d)
	}
	return drafts, nil
}
