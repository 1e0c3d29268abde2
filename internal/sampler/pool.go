package sampler

import (
	"errors"
	"fmt"
	"sort"

	"github.com/petuhovskiy/powerpick/internal/freq"
)

var (
	ErrEmptyPool          = errors.New("weighted pool is empty")
	ErrInsufficientDomain = errors.New("not enough distinct weighted labels")
)

// MaxDrawAttempts bounds DrawDistinct even when the domain is large enough
// but heavily skewed.
const MaxDrawAttempts = 100_000

// Rand is the randomness source used for draws. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Pool is a table expanded so that every label appears `weight` times.
// Drawing a uniform index gives each label probability weight/total.
type Pool struct {
	name     string
	entries  []int
	distinct int
}

// Build expands the table in ascending label order.
func Build(t freq.Table) (*Pool, error) {
	if t.Total() == 0 {
		return nil, fmt.Errorf("table %q: %w", t.Name(), ErrEmptyPool)
	}

	p := &Pool{
		name:    t.Name(),
		entries: make([]int, 0, t.Total()),
	}
	for _, label := range t.Labels() {
		w := t.Weight(label)
		if w > 0 {
			p.distinct++
		}
		for i := 0; i < w; i++ {
			p.entries = append(p.entries, label)
		}
	}
	return p, nil
}

func (p *Pool) Name() string {
	return p.name
}

// Size is the number of entries, equal to the table's total weight.
func (p *Pool) Size() int {
	return len(p.entries)
}

// Distinct is the number of labels with a positive weight.
func (p *Pool) Distinct() int {
	return p.distinct
}

// Draw returns one label.
func (p *Pool) Draw(rnd Rand) int {
	return p.entries[rnd.Intn(len(p.entries))]
}

// DrawDistinct draws until count distinct labels are collected and returns
// them sorted ascending.
func (p *Pool) DrawDistinct(rnd Rand, count int) ([]int, error) {
	if count > p.distinct {
		return nil, fmt.Errorf("table %q has %d labels, want %d: %w", p.name, p.distinct, count, ErrInsufficientDomain)
	}

	seen := make(map[int]struct{}, count)
	res := make([]int, 0, count)
	for attempt := 0; len(res) < count; attempt++ {
		if attempt >= MaxDrawAttempts {
			return nil, fmt.Errorf("table %q: %d distinct after %d draws, want %d: %w",
				p.name, len(res), attempt, count, ErrInsufficientDomain)
		}

		label := p.Draw(rnd)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		res = append(res, label)
	}

	sort.Ints(res)
	return res, nil
}
