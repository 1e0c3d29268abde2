package freq

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// MaxTotalWeight bounds the sum of weights of one table, the sampler
// allocates one pool entry per unit of weight.
const MaxTotalWeight = 1 << 24

var ErrWeightTooLarge = errors.New("total weight too large")

// Table maps a label (1..N) to its observed-count weight. It is immutable
// once constructed.
type Table struct {
	name    string
	weights map[int]int
	labels  []int
	total   int
}

// New validates weights and returns a table that owns a copy of them.
func New(name string, weights map[int]int) (Table, error) {
	t := Table{
		name:    name,
		weights: make(map[int]int, len(weights)),
	}
	for label, w := range weights {
		if label < 1 {
			return Table{}, fmt.Errorf("table %q: label %d out of domain", name, label)
		}
		if w < 0 {
			return Table{}, fmt.Errorf("table %q: negative weight %d for label %d", name, w, label)
		}
		if w > MaxTotalWeight-t.total {
			return Table{}, fmt.Errorf("table %q: label %d: %w (max %d)", name, label, ErrWeightTooLarge, MaxTotalWeight)
		}
		t.weights[label] = w
		t.labels = append(t.labels, label)
		t.total += w
	}
	sort.Ints(t.labels)
	return t, nil
}

func (t Table) Name() string {
	return t.name
}

// Labels returns all labels in ascending order, including zero-weight ones.
func (t Table) Labels() []int {
	res := make([]int, len(t.labels))
	copy(res, t.labels)
	return res
}

func (t Table) Weight(label int) int {
	return t.weights[label]
}

// Total is the sum of all weights.
func (t Table) Total() int {
	return t.total
}

// Max is the largest label of the domain.
func (t Table) Max() int {
	if len(t.labels) == 0 {
		return 0
	}
	return t.labels[len(t.labels)-1]
}

// Set is the pair of tables a draw is made from.
type Set struct {
	Main      Table
	Secondary Table
}

type fileFormat struct {
	Main      map[int]int `yaml:"main"`
	Secondary map[int]int `yaml:"secondary"`
}

// LoadFile reads a yaml file with `main` and `secondary` label->weight maps.
// A missing section keeps the corresponding built-in table.
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("read frequency file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Set, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Set{}, fmt.Errorf("parse frequency file: %w", err)
	}

	set := Historical()
	if f.Main != nil {
		t, err := New(MainName, f.Main)
		if err != nil {
			return Set{}, err
		}
		set.Main = t
	}
	if f.Secondary != nil {
		t, err := New(SecondaryName, f.Secondary)
		if err != nil {
			return Set{}, err
		}
		set.Secondary = t
	}
	return set, nil
}
