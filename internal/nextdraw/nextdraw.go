package nextdraw

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSpec is the Powerball drawing schedule: Mon, Wed and Sat at 22:00
// Central Time.
const DefaultSpec = "CRON_TZ=America/Chicago 0 22 * * 1,3,6"

// DateLayout is how the next drawing date is shown.
const DateLayout = "Mon, Jan 2"

// Schedule answers when the next real drawing happens. A drawing day counts
// as the next drawing until the drawing time itself.
type Schedule struct {
	spec  string
	sched cron.Schedule
	loc   *time.Location
}

func Parse(spec string) (*Schedule, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse draw schedule %q: %w", spec, err)
	}

	loc := time.Local
	if s, ok := sched.(*cron.SpecSchedule); ok && s.Location != nil {
		loc = s.Location
	}

	return &Schedule{
		spec:  spec,
		sched: sched,
		loc:   loc,
	}, nil
}

func (s *Schedule) String() string {
	return s.spec
}

// Next returns the first drawing strictly after now, in the schedule's zone.
func (s *Schedule) Next(now time.Time) time.Time {
	return s.sched.Next(now).In(s.loc)
}

// Label is the next drawing date formatted with DateLayout.
func (s *Schedule) Label(now time.Time) string {
	return s.Next(now).Format(DateLayout)
}
