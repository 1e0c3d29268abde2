package gate

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/petuhovskiy/powerpick/internal/bgjobs"
	"github.com/petuhovskiy/powerpick/internal/log"
	"github.com/petuhovskiy/powerpick/internal/store"
)

// DefaultCooldown is the minimal interval between two successful draws.
const DefaultCooldown = time.Hour

var ErrCooldownActive = errors.New("cooldown is active")

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// State is a point-in-time view of the gate.
type State struct {
	Status Status `json:"status"`
	// Remaining is zero for an open gate.
	Remaining time.Duration `json:"remaining"`
	// Until is the instant the gate reopens, zero for an open gate.
	Until time.Time `json:"until"`
}

func (s State) Open() bool {
	return s.Status == StatusOpen
}

// Listener is notified about every state change. It is called with the gate
// lock held and must not call back into the gate.
type Listener func(ctx context.Context, s State)

// Gate throttles draws to one per cooldown. The last successful draw time
// lives in the durable store, so the cooldown survives restarts.
type Gate struct {
	store    store.Store
	key      string
	cooldown time.Duration
	timers   bgjobs.Timers

	mu        sync.Mutex
	state     State
	reopen    *bgjobs.Task
	listeners []Listener
}

func New(s store.Store, key string, cooldown time.Duration, timers bgjobs.Timers) *Gate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Gate{
		store:    s,
		key:      key,
		cooldown: cooldown,
		timers:   timers,
		state:    State{Status: StatusOpen},
	}
}

// Subscribe registers a listener for state changes.
func (g *Gate) Subscribe(l Listener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, l)
}

func (g *Gate) Cooldown() time.Duration {
	return g.cooldown
}

// State returns the last evaluated state without touching the store.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Load evaluates the gate from the stored timestamp. A closed gate gets a
// reopen task; calling Load again replaces it.
func (g *Gate) Load(ctx context.Context) State {
	ctx = log.Into(ctx, "gate")

	g.mu.Lock()
	defer g.mu.Unlock()

	g.evaluateLocked(ctx)
	return g.state
}

// Pass runs fn if the gate is open. On success the draw instant is stored
// and the gate closes for the cooldown. A closed gate returns
// ErrCooldownActive with the refreshed state and never runs fn.
// If fn or the store write fails, the state and the stored value stay as
// they were.
func (g *Gate) Pass(ctx context.Context, fn func(ctx context.Context) error) (State, error) {
	ctx = log.Into(ctx, "gate")

	g.mu.Lock()
	defer g.mu.Unlock()

	g.evaluateLocked(ctx)
	if !g.state.Open() {
		log.Info(ctx, "draw rejected by cooldown", zap.Duration("remaining", g.state.Remaining))
		return g.state, ErrCooldownActive
	}

	if err := fn(ctx); err != nil {
		return g.state, err
	}

	now := g.timers.Now()
	// stored with millisecond precision, keep the same instant in memory
	drawnAt := time.UnixMilli(now.UnixMilli())
	err := g.store.Set(ctx, g.key, formatTimestamp(drawnAt))
	if err != nil {
		log.Error(ctx, "failed to store draw time", zap.Error(err))
		return g.state, err
	}

	until := drawnAt.Add(g.cooldown)
	g.closeLocked(ctx, until, until.Sub(now))
	return g.state, nil
}

// evaluateLocked recomputes the state from the store.
func (g *Gate) evaluateLocked(ctx context.Context) {
	last, ok := g.readLastLocked(ctx)
	if !ok {
		g.openLocked(ctx)
		return
	}

	now := g.timers.Now()
	elapsed := now.Sub(last)
	if elapsed >= g.cooldown {
		g.openLocked(ctx)
		return
	}

	until := last.Add(g.cooldown)
	if g.state.Status == StatusClosed && g.state.Until.Equal(until) && g.reopen != nil {
		// same cooldown period, keep the armed reopen and refresh remaining
		g.state.Remaining = until.Sub(now)
		g.notifyLocked(ctx)
		return
	}
	g.closeLocked(ctx, until, until.Sub(now))
}

func (g *Gate) readLastLocked(ctx context.Context) (time.Time, bool) {
	raw, ok, err := g.store.Get(ctx, g.key)
	if err != nil {
		log.Warn(ctx, "failed to read last draw time, treating as absent", zap.Error(err))
		return time.Time{}, false
	}
	if !ok {
		return time.Time{}, false
	}

	ts, err := parseTimestamp(raw)
	if err != nil {
		log.Warn(ctx, "malformed last draw time, treating as absent", zap.String("value", raw), zap.Error(err))
		return time.Time{}, false
	}
	return ts, true
}

func (g *Gate) openLocked(ctx context.Context) {
	if g.reopen != nil {
		g.reopen.Cancel()
		g.reopen = nil
	}
	changed := g.state.Status != StatusOpen
	g.state = State{Status: StatusOpen}
	if changed {
		g.notifyLocked(ctx)
	}
}

func (g *Gate) closeLocked(ctx context.Context, until time.Time, remaining time.Duration) {
	if g.reopen != nil {
		g.reopen.Cancel()
	}

	g.state = State{
		Status:    StatusClosed,
		Remaining: remaining,
		Until:     until,
	}

	var task *bgjobs.Task
	task = g.timers.Schedule(remaining, func() {
		g.mu.Lock()
		defer g.mu.Unlock()

		if g.reopen != task {
			return
		}
		ctx := log.Into(context.Background(), "gate")
		g.reopen = nil
		g.state = State{Status: StatusOpen}
		log.Info(ctx, "cooldown finished")
		g.notifyLocked(ctx)
	})
	g.reopen = task

	log.Debug(ctx, "gate closed", zap.Time("until", until), zap.Duration("remaining", remaining))
	g.notifyLocked(ctx)
}

func (g *Gate) notifyLocked(ctx context.Context) {
	for _, l := range g.listeners {
		l(ctx, g.state)
	}
}

func formatTimestamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func parseTimestamp(raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
