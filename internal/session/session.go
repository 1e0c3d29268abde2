package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/petuhovskiy/powerpick/internal/bgjobs"
	"github.com/petuhovskiy/powerpick/internal/display"
	"github.com/petuhovskiy/powerpick/internal/draw"
	"github.com/petuhovskiy/powerpick/internal/gate"
	"github.com/petuhovskiy/powerpick/internal/log"
	"github.com/petuhovskiy/powerpick/internal/messages"
	"github.com/petuhovskiy/powerpick/internal/nextdraw"
	"github.com/petuhovskiy/powerpick/internal/snapshot"
)

var (
	// ErrRevealPending is returned by Export until a result is fully shown.
	ErrRevealPending = errors.New("numbers are not revealed yet")
	ErrNotStarted    = errors.New("session is not started")
)

// Outcomes reported to the Observer.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomePending  = "pending"
)

// Observer receives session events, used for metrics.
type Observer interface {
	DrawRequest(outcome string)
	Drawn(res draw.Result)
	Export(outcome string)
	GateChanged(s gate.State)
}

type Deps struct {
	Gate      *gate.Gate
	Generator *draw.Generator
	Revealer  *display.Revealer
	Timers    bgjobs.Timers
	Sink      display.Sink
	Catalog   *messages.Catalog

	// Optional.
	Snapshots snapshot.Service
	Schedule  *nextdraw.Schedule
	Observer  Observer
}

type Config struct {
	Product string
	Export  snapshot.Options
}

// DefaultExportOptions are used when Config.Export is zero.
var DefaultExportOptions = snapshot.Options{
	BackgroundTransparent: true,
	Scale:                 2,
}

// Session ties the cooldown gate, the generator and the display together.
type Session struct {
	deps Deps
	cfg  Config

	handles *display.Handles

	mu       sync.Mutex
	gen      uint64
	last     *draw.Result
	revealed bool
	reveal   []*bgjobs.Task
}

func New(deps Deps, cfg Config) *Session {
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if cfg.Export == (snapshot.Options{}) {
		cfg.Export = DefaultExportOptions
	}
	if cfg.Product == "" {
		cfg.Product = "powerball"
	}
	return &Session{
		deps: deps,
		cfg:  cfg,
	}
}

// Start resolves the display, evaluates the gate and renders the initial
// state. It returns display.ErrConfiguration if the trigger is missing.
func (s *Session) Start(ctx context.Context) error {
	ctx = log.Into(ctx, "session")

	h, err := display.Resolve(ctx, s.deps.Sink)
	if err != nil {
		return err
	}
	s.handles = h

	if h.Export != nil {
		// shown only after a completed reveal
		h.Export.SetRevealed(false)
	}

	s.deps.Gate.Subscribe(s.onGate)
	st := s.deps.Gate.Load(ctx)
	s.onGate(ctx, st)

	log.Info(ctx, "session started",
		zap.String("gate", string(st.Status)),
		zap.Duration("remaining", st.Remaining),
	)
	return nil
}

func (s *Session) onGate(ctx context.Context, st gate.State) {
	s.deps.Observer.GateChanged(st)

	trigger := s.handles.Trigger
	if st.Open() {
		trigger.SetText(s.deps.Catalog.Generate())
		trigger.SetRevealed(true)
	} else {
		trigger.SetText(s.deps.Catalog.Wait(st.Remaining))
		trigger.SetRevealed(false)
	}
	s.updateNextDrawing()
}

func (s *Session) updateNextDrawing() {
	if s.deps.Schedule == nil || s.handles.NextDrawing == nil {
		return
	}
	s.handles.NextDrawing.SetText(s.deps.Schedule.Label(s.deps.Timers.Now()))
}

// Draw generates a result if the gate is open and starts its reveal.
// A closed gate returns gate.ErrCooldownActive and changes nothing.
func (s *Session) Draw(ctx context.Context) (draw.Result, error) {
	ctx = log.Into(ctx, "session")
	if s.handles == nil {
		return draw.Result{}, ErrNotStarted
	}

	var res draw.Result
	st, err := s.deps.Gate.Pass(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.deps.Generator.Generate()
		return err
	})
	if errors.Is(err, gate.ErrCooldownActive) {
		s.deps.Observer.DrawRequest(OutcomeRejected)
		if s.handles.Export != nil {
			s.handles.Export.SetRevealed(false)
		}
		return draw.Result{}, err
	}
	if err != nil {
		s.deps.Observer.DrawRequest(OutcomeFailed)
		log.Error(ctx, "draw failed", zap.Error(err))
		return draw.Result{}, fmt.Errorf("draw: %w", err)
	}

	// the stored instant, so the result and the gate agree
	res.DrawnAt = st.Until.Add(-s.deps.Gate.Cooldown())

	s.deps.Observer.DrawRequest(OutcomeOK)
	s.deps.Observer.Drawn(res)
	log.Info(ctx, "numbers drawn", zap.Ints("main", res.Main), zap.Int("secondary", res.Secondary))

	s.startReveal(res)
	return res, nil
}

func (s *Session) startReveal(res draw.Result) {
	s.mu.Lock()
	for _, t := range s.reveal {
		t.Cancel()
	}
	s.gen++
	gen := s.gen
	s.last = &res
	s.revealed = false
	s.reveal = nil
	s.mu.Unlock()

	tasks := s.deps.Revealer.Reveal(s.handles, res, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gen == gen {
			s.revealed = true
			s.reveal = nil
		}
	})

	s.mu.Lock()
	if s.gen == gen && !s.revealed {
		s.reveal = tasks
	}
	s.mu.Unlock()
}

// Export captures the revealed result as a PNG. It never touches the draw
// state or the gate.
func (s *Session) Export(ctx context.Context) ([]byte, error) {
	ctx = log.Into(ctx, "session")

	s.mu.Lock()
	revealed := s.revealed
	s.mu.Unlock()

	if !revealed {
		s.deps.Observer.Export(OutcomePending)
		return nil, ErrRevealPending
	}
	if s.deps.Snapshots == nil || s.handles.Capture == nil {
		s.deps.Observer.Export(OutcomeFailed)
		return nil, snapshot.ErrExportUnavailable
	}

	data, err := s.deps.Snapshots.Capture(ctx, s.handles.Capture, s.cfg.Export)
	if err != nil {
		s.deps.Observer.Export(OutcomeFailed)
		log.Error(ctx, "image export failed", zap.Error(err))
		if errors.Is(err, snapshot.ErrExportUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", snapshot.ErrExportUnavailable, err)
	}

	s.deps.Observer.Export(OutcomeOK)
	return data, nil
}

// FileName is the name of the exported image.
func (s *Session) FileName() string {
	return fmt.Sprintf("%s-numbers.png", s.cfg.Product)
}

func (s *Session) Catalog() *messages.Catalog {
	return s.deps.Catalog
}

// View is the session state exposed to clients.
type View struct {
	Gate        gate.State   `json:"gate"`
	Result      *draw.Result `json:"result,omitempty"`
	Revealed    bool         `json:"revealed"`
	NextDrawing string       `json:"nextDrawing,omitempty"`
}

// View returns the current state. The result is present only once it is
// fully revealed.
func (s *Session) View() View {
	v := View{Gate: s.deps.Gate.State()}

	s.mu.Lock()
	v.Revealed = s.revealed
	if s.revealed && s.last != nil {
		res := *s.last
		v.Result = &res
	}
	s.mu.Unlock()

	if s.deps.Schedule != nil {
		v.NextDrawing = s.deps.Schedule.Label(s.deps.Timers.Now())
	}
	return v
}

type nopObserver struct{}

func (nopObserver) DrawRequest(string)     {}
func (nopObserver) Drawn(draw.Result)      {}
func (nopObserver) Export(string)          {}
func (nopObserver) GateChanged(gate.State) {}
