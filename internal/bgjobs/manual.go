package bgjobs

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manual is a deterministic Timers implementation. Time moves only through
// Advance, and due tasks fire in FireAt order (ties in scheduling order).
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	task   *Task
	seq    uint64
	action func()
	done   bool
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Schedule(delay time.Duration, action func()) *Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	mt := &manualTask{
		seq:    m.seq,
		action: action,
	}
	mt.task = &Task{
		ID:     uuid.NewString(),
		FireAt: m.now.Add(delay),
		cancel: func() bool {
			m.mu.Lock()
			defer m.mu.Unlock()
			if mt.done {
				return false
			}
			mt.done = true
			return true
		},
	}
	m.tasks = append(m.tasks, mt)
	return mt.task
}

// Advance moves the clock forward by d, firing every task that becomes due.
// Actions run without the internal lock held and may schedule new tasks.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		next.done = true
		m.now = next.task.FireAt
		m.mu.Unlock()

		next.action()
	}
}

func (m *Manual) nextDueLocked(target time.Time) *manualTask {
	var best *manualTask
	live := m.tasks[:0]
	for _, mt := range m.tasks {
		if mt.done {
			continue
		}
		live = append(live, mt)
		if mt.task.FireAt.After(target) {
			continue
		}
		if best == nil || mt.task.FireAt.Before(best.task.FireAt) ||
			(mt.task.FireAt.Equal(best.task.FireAt) && mt.seq < best.seq) {
			best = mt
		}
	}
	m.tasks = live
	return best
}

// Pending returns the tasks that neither fired nor were cancelled, ordered
// by fire time.
func (m *Manual) Pending() []*Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	var live []*manualTask
	for _, mt := range m.tasks {
		if !mt.done {
			live = append(live, mt)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].task.FireAt.Equal(live[j].task.FireAt) {
			return live[i].seq < live[j].seq
		}
		return live[i].task.FireAt.Before(live[j].task.FireAt)
	})

	res := make([]*Task, 0, len(live))
	for _, mt := range live {
		res = append(res, mt.task)
	}
	return res
}
