package bgjobs

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// Timers is the clock and one-shot scheduler used by the gate and the reveal.
type Timers interface {
	Now() time.Time
	// Schedule runs action once after delay, unless the task is cancelled.
	Schedule(delay time.Duration, action func()) *Task
}

// Task is a scheduled one-shot action.
type Task struct {
	ID     string
	FireAt time.Time

	cancel func() bool
}

// Cancel prevents the action from running. Returns false if the task has
// already fired or was cancelled before.
func (t *Task) Cancel() bool {
	if t == nil || t.cancel == nil {
		return false
	}
	return t.cancel()
}

// RealTimers schedules on time.AfterFunc. Fired actions are tracked by the
// register, so shutdown can wait for them.
type RealTimers struct {
	register *Register
	pending  *atomic.Int64
}

func NewRealTimers(register *Register) *RealTimers {
	return &RealTimers{
		register: register,
		pending:  atomic.NewInt64(0),
	}
}

func (r *RealTimers) Now() time.Time {
	return time.Now()
}

func (r *RealTimers) Schedule(delay time.Duration, action func()) *Task {
	done := atomic.NewBool(false)
	r.pending.Inc()

	timer := time.AfterFunc(delay, func() {
		if !done.CompareAndSwap(false, true) {
			return
		}
		r.pending.Dec()
		r.register.Do(action)
	})

	return &Task{
		ID:     uuid.NewString(),
		FireAt: time.Now().Add(delay),
		cancel: func() bool {
			if !done.CompareAndSwap(false, true) {
				return false
			}
			timer.Stop()
			r.pending.Dec()
			return true
		},
	}
}

// Pending is the number of tasks that neither fired nor were cancelled.
func (r *RealTimers) Pending() int64 {
	return r.pending.Load()
}
