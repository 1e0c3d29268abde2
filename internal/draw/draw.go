package draw

import (
	"fmt"
	"strconv"
	"time"

	"github.com/petuhovskiy/powerpick/internal/freq"
	"github.com/petuhovskiy/powerpick/internal/sampler"
)

// MainCount is the number of distinct main labels in a result.
const MainCount = 5

// Result is one generated pick.
type Result struct {
	// Main labels, distinct and ascending.
	Main []int `json:"main"`
	// Secondary label, drawn from its own domain.
	Secondary int       `json:"secondary"`
	DrawnAt   time.Time `json:"drawnAt"`
}

// Labels returns the display strings in reveal order: main labels
// ascending, then the secondary label.
func (r Result) Labels() []string {
	res := make([]string, 0, len(r.Main)+1)
	for _, n := range r.Main {
		res = append(res, strconv.Itoa(n))
	}
	return append(res, strconv.Itoa(r.Secondary))
}

// Generate draws MainCount distinct main labels and one secondary label.
func Generate(rnd sampler.Rand, mainPool, secondaryPool *sampler.Pool) (Result, error) {
	main, err := mainPool.DrawDistinct(rnd, MainCount)
	if err != nil {
		return Result{}, fmt.Errorf("draw main labels: %w", err)
	}

	return Result{
		Main:      main,
		Secondary: secondaryPool.Draw(rnd),
	}, nil
}

// Generator keeps the pools and the randomness source for a session.
// It is not safe for concurrent use, the caller serialises draws.
type Generator struct {
	main      *sampler.Pool
	secondary *sampler.Pool
	rnd       sampler.Rand
	now       func() time.Time
}

func NewGenerator(set freq.Set, rnd sampler.Rand, now func() time.Time) (*Generator, error) {
	main, err := sampler.Build(set.Main)
	if err != nil {
		return nil, fmt.Errorf("build main pool: %w", err)
	}
	secondary, err := sampler.Build(set.Secondary)
	if err != nil {
		return nil, fmt.Errorf("build secondary pool: %w", err)
	}
	// fail at startup rather than on the first click
	if main.Distinct() < MainCount {
		return nil, fmt.Errorf("main table has %d labels, want %d: %w",
			main.Distinct(), MainCount, sampler.ErrInsufficientDomain)
	}

	return &Generator{
		main:      main,
		secondary: secondary,
		rnd:       rnd,
		now:       now,
	}, nil
}

func (g *Generator) Generate() (Result, error) {
	res, err := Generate(g.rnd, g.main, g.secondary)
	if err != nil {
		return Result{}, err
	}
	res.DrawnAt = g.now()
	return res, nil
}
