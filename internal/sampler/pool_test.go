package sampler

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petuhovskiy/powerpick/internal/freq"
)

func mustTable(t *testing.T, weights map[int]int) freq.Table {
	t.Helper()
	tbl, err := freq.New("test", weights)
	require.NoError(t, err)
	return tbl
}

// constRand always returns the same index, clamped to n.
type constRand int

func (c constRand) Intn(n int) int {
	if int(c) >= n {
		return n - 1
	}
	return int(c)
}

func TestBuild_SizeEqualsTotal(t *testing.T) {
	set := freq.Historical()
	for _, tbl := range []freq.Table{set.Main, set.Secondary} {
		pool, err := Build(tbl)
		require.NoError(t, err)
		assert.Equal(t, tbl.Total(), pool.Size())
		assert.Equal(t, len(tbl.Labels()), pool.Distinct())
	}
}

func TestBuild_EntriesReproduceWeights(t *testing.T) {
	pool, err := Build(mustTable(t, map[int]int{1: 2, 2: 0, 3: 3}))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1, 3, 3, 3}, pool.entries)
	assert.Equal(t, 2, pool.Distinct())
}

func TestBuild_Empty(t *testing.T) {
	_, err := Build(mustTable(t, map[int]int{1: 0, 2: 0}))
	assert.ErrorIs(t, err, ErrEmptyPool)

	_, err = Build(mustTable(t, map[int]int{}))
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestDraw_UsesIndex(t *testing.T) {
	pool, err := Build(mustTable(t, map[int]int{4: 1, 7: 2}))
	require.NoError(t, err)

	assert.Equal(t, 4, pool.Draw(constRand(0)))
	assert.Equal(t, 7, pool.Draw(constRand(1)))
	assert.Equal(t, 7, pool.Draw(constRand(2)))
}

func TestDraw_ZeroWeightNeverDrawn(t *testing.T) {
	pool, err := Build(mustTable(t, map[int]int{1: 5, 2: 0, 3: 5}))
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 10_000; i++ {
		assert.NotEqual(t, 2, pool.Draw(rnd))
	}
}

func TestDraw_Converges(t *testing.T) {
	weights := map[int]int{1: 10, 2: 30, 3: 60}
	pool, err := Build(mustTable(t, weights))
	require.NoError(t, err)

	const trials = 200_000
	rnd := rand.New(rand.NewSource(42))
	counts := map[int]int{}
	for i := 0; i < trials; i++ {
		counts[pool.Draw(rnd)]++
	}

	for label, w := range weights {
		expected := float64(w) / 100
		got := float64(counts[label]) / trials
		assert.InDelta(t, expected, got, 0.01, "label %d", label)
	}
}

func TestDraw_ConvergesHistorical(t *testing.T) {
	tbl := freq.Historical().Secondary
	pool, err := Build(tbl)
	require.NoError(t, err)

	const trials = 300_000
	rnd := rand.New(rand.NewSource(7))
	counts := map[int]int{}
	for i := 0; i < trials; i++ {
		counts[pool.Draw(rnd)]++
	}

	for _, label := range tbl.Labels() {
		p := float64(tbl.Weight(label)) / float64(tbl.Total())
		sigma := math.Sqrt(p * (1 - p) / trials)
		got := float64(counts[label]) / trials
		assert.InDelta(t, p, got, 5*sigma, "label %d", label)
	}
}

func TestDrawDistinct(t *testing.T) {
	set := freq.Historical()
	pool, err := Build(set.Main)
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		res, err := pool.DrawDistinct(rnd, 5)
		require.NoError(t, err)
		require.Len(t, res, 5)
		assert.True(t, sort.IntsAreSorted(res))
		for j, label := range res {
			assert.GreaterOrEqual(t, label, 1)
			assert.LessOrEqual(t, label, 69)
			if j > 0 {
				assert.NotEqual(t, res[j-1], label)
			}
		}
	}
}

func TestDrawDistinct_InsufficientDomain(t *testing.T) {
	pool, err := Build(mustTable(t, map[int]int{1: 3, 2: 3, 3: 0, 4: 1}))
	require.NoError(t, err)

	_, err = pool.DrawDistinct(rand.New(rand.NewSource(1)), 5)
	assert.ErrorIs(t, err, ErrInsufficientDomain)

	res, err := pool.DrawDistinct(rand.New(rand.NewSource(1)), 3)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4}, res)
}

func TestDrawDistinct_AttemptCap(t *testing.T) {
	pool, err := Build(mustTable(t, map[int]int{1: 1, 2: 1}))
	require.NoError(t, err)

	// always draws the same label, the second one never shows up
	_, err = pool.DrawDistinct(constRand(0), 2)
	assert.ErrorIs(t, err, ErrInsufficientDomain)
}
