package display

import (
	"time"

	"github.com/petuhovskiy/powerpick/internal/bgjobs"
	"github.com/petuhovskiy/powerpick/internal/draw"
)

// DefaultRevealStep is the delay between two consecutive labels.
const DefaultRevealStep = 200 * time.Millisecond

// Placeholder is shown in a label slot before it is revealed.
const Placeholder = "?"

// Revealer drives the staggered reveal of a result.
type Revealer struct {
	timers bgjobs.Timers
	step   time.Duration
}

func NewRevealer(timers bgjobs.Timers, step time.Duration) *Revealer {
	if step <= 0 {
		step = DefaultRevealStep
	}
	return &Revealer{
		timers: timers,
		step:   step,
	}
}

func (r *Revealer) Step() time.Duration {
	return r.step
}

// Reveal resets all label slots and reveals the result one label per step:
// label k at k*step, the secondary label last, together with the export
// control. done runs after the last label is shown.
func (r *Revealer) Reveal(h *Handles, res draw.Result, done func()) []*bgjobs.Task {
	slots := h.Labels()
	for _, slot := range slots {
		if slot == nil {
			continue
		}
		slot.SetRevealed(false)
		slot.SetText(Placeholder)
	}
	if h.Export != nil {
		h.Export.SetRevealed(false)
	}

	labels := res.Labels()
	tasks := make([]*bgjobs.Task, 0, len(labels))
	for k, text := range labels {
		slot := slots[k]
		text := text
		last := k == len(labels)-1

		tasks = append(tasks, r.timers.Schedule(time.Duration(k)*r.step, func() {
			if slot != nil {
				slot.SetText(text)
				slot.SetRevealed(true)
			}
			if !last {
				return
			}
			if h.Export != nil {
				h.Export.SetRevealed(true)
			}
			if done != nil {
				done()
			}
		}))
	}
	return tasks
}
