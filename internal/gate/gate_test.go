package gate

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/petuhovskiy/powerpick/internal/bgjobs"
	"github.com/petuhovskiy/powerpick/internal/log"
	"github.com/petuhovskiy/powerpick/internal/store"
)

const testKey = "lastGenerationTime"

var epoch = time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC)

type fixture struct {
	timers *bgjobs.Manual
	store  *store.Memory
	gate   *Gate
	states []State
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		timers: bgjobs.NewManual(epoch),
		store:  store.NewMemory(),
	}
	f.gate = New(f.store, testKey, time.Hour, f.timers)
	f.gate.Subscribe(func(_ context.Context, s State) {
		f.states = append(f.states, s)
	})
	return f
}

func (f *fixture) setStored(t *testing.T, at time.Time) {
	t.Helper()
	require.NoError(t, f.store.Set(context.Background(), testKey, strconv.FormatInt(at.UnixMilli(), 10)))
}

func (f *fixture) stored(t *testing.T) (string, bool) {
	t.Helper()
	v, ok, err := f.store.Get(context.Background(), testKey)
	require.NoError(t, err)
	return v, ok
}

func noop(context.Context) error { return nil }

func TestLoad_NoTimestamp(t *testing.T) {
	f := newFixture(t)

	s := f.gate.Load(context.Background())
	assert.True(t, s.Open())
	assert.Zero(t, s.Remaining)
	assert.Empty(t, f.timers.Pending())
}

func TestLoad_ThirtyMinutesAgo(t *testing.T) {
	f := newFixture(t)
	f.setStored(t, epoch.Add(-30*time.Minute))

	s := f.gate.Load(context.Background())
	assert.Equal(t, StatusClosed, s.Status)
	assert.Equal(t, 30*time.Minute, s.Remaining)
	assert.Equal(t, epoch.Add(30*time.Minute), s.Until)

	pending := f.timers.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, epoch.Add(30*time.Minute), pending[0].FireAt)

	f.timers.Advance(30*time.Minute - time.Millisecond)
	assert.False(t, f.gate.State().Open())

	f.timers.Advance(time.Millisecond)
	assert.True(t, f.gate.State().Open())
	assert.Equal(t, StatusOpen, f.states[len(f.states)-1].Status)
}

func TestLoad_SixtyOneMinutesAgo(t *testing.T) {
	f := newFixture(t)
	f.setStored(t, epoch.Add(-61*time.Minute))

	s := f.gate.Load(context.Background())
	assert.True(t, s.Open())
	assert.Empty(t, f.timers.Pending())
}

func TestLoad_ExactlyCooldownAgo(t *testing.T) {
	f := newFixture(t)
	f.setStored(t, epoch.Add(-time.Hour))

	assert.True(t, f.gate.Load(context.Background()).Open())
}

func TestLoad_Malformed(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Set(context.Background(), testKey, "yesterday"))

	assert.True(t, f.gate.Load(context.Background()).Open())

	// the value is left untouched
	v, _ := f.stored(t)
	assert.Equal(t, "yesterday", v)
}

type brokenStore struct {
	getErr error
	setErr error
}

func (b brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, b.getErr
}

func (b brokenStore) Set(context.Context, string, string) error {
	return b.setErr
}

func TestLoad_StoreFailureFailsOpen(t *testing.T) {
	g := New(brokenStore{getErr: errors.New("disk on fire")}, testKey, time.Hour, bgjobs.NewManual(epoch))
	assert.True(t, g.Load(context.Background()).Open())
}

func TestLoad_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.setStored(t, epoch.Add(-10*time.Minute))

	f.gate.Load(context.Background())
	f.gate.Load(context.Background())
	f.timers.Advance(time.Minute)
	s := f.gate.Load(context.Background())

	assert.Equal(t, 49*time.Minute, s.Remaining)
	assert.Len(t, f.timers.Pending(), 1)

	opened := 0
	f.gate.Subscribe(func(_ context.Context, s State) {
		if s.Open() {
			opened++
		}
	})
	f.timers.Advance(2 * time.Hour)
	assert.Equal(t, 1, opened)
}

func TestPass_FreshSession(t *testing.T) {
	f := newFixture(t)
	f.gate.Load(context.Background())

	called := 0
	s, err := f.gate.Pass(context.Background(), func(context.Context) error {
		called++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, called)

	assert.Equal(t, StatusClosed, s.Status)
	assert.Equal(t, time.Hour, s.Remaining)

	v, ok := f.stored(t)
	require.True(t, ok)
	assert.Equal(t, strconv.FormatInt(epoch.UnixMilli(), 10), v)

	pending := f.timers.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, epoch.Add(time.Hour), pending[0].FireAt)
}

func TestPass_RejectedWhileClosed(t *testing.T) {
	f := newFixture(t)
	f.setStored(t, epoch.Add(-30*time.Minute))
	f.gate.Load(context.Background())
	before, _ := f.stored(t)
	task := f.timers.Pending()[0]

	f.timers.Advance(5 * time.Minute)
	s, err := f.gate.Pass(context.Background(), func(context.Context) error {
		t.Fatal("draw must not run while closed")
		return nil
	})
	assert.ErrorIs(t, err, ErrCooldownActive)
	assert.Equal(t, 25*time.Minute, s.Remaining)

	after, _ := f.stored(t)
	assert.Equal(t, before, after)

	// cooldown clock is not reset, the same reopen stays armed
	pending := f.timers.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, task.ID, pending[0].ID)

	// listeners see the refreshed remaining time
	assert.Equal(t, 25*time.Minute, f.states[len(f.states)-1].Remaining)
}

func TestPass_RepeatedClicksDoNotExtend(t *testing.T) {
	f := newFixture(t)
	_, err := f.gate.Pass(context.Background(), noop)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		f.timers.Advance(time.Minute)
		_, err := f.gate.Pass(context.Background(), noop)
		assert.ErrorIs(t, err, ErrCooldownActive)
	}

	f.timers.Advance(50 * time.Minute)
	assert.True(t, f.gate.State().Open())

	_, err = f.gate.Pass(context.Background(), noop)
	assert.NoError(t, err)
}

func TestPass_DrawFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	f.gate.Load(context.Background())

	boom := errors.New("boom")
	s, err := f.gate.Pass(context.Background(), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.True(t, s.Open())

	_, ok := f.stored(t)
	assert.False(t, ok)
	assert.Empty(t, f.timers.Pending())
}

func TestPass_StoreWriteFailureKeepsState(t *testing.T) {
	timers := bgjobs.NewManual(epoch)
	g := New(brokenStore{setErr: errors.New("read-only")}, testKey, time.Hour, timers)

	s, err := g.Pass(context.Background(), noop)
	assert.Error(t, err)
	assert.True(t, s.Open())
	assert.Empty(t, timers.Pending())
}

func TestReopen_ReplacedTaskNeverFires(t *testing.T) {
	f := newFixture(t)
	_, err := f.gate.Pass(context.Background(), noop)
	require.NoError(t, err)

	// another writer moved the timestamp forward
	f.setStored(t, epoch.Add(10*time.Minute))
	f.gate.Load(context.Background())
	require.Len(t, f.timers.Pending(), 1)

	f.timers.Advance(time.Hour)
	assert.False(t, f.gate.State().Open())

	f.timers.Advance(10 * time.Minute)
	assert.True(t, f.gate.State().Open())
}

func TestGateOpenIffCooldownElapsed(t *testing.T) {
	for _, ago := range []time.Duration{0, time.Second, 30 * time.Minute, 59 * time.Minute, time.Hour, 61 * time.Minute, 24 * time.Hour} {
		f := newFixture(t)
		f.setStored(t, epoch.Add(-ago))

		s := f.gate.Load(context.Background())
		if ago >= time.Hour {
			assert.True(t, s.Open(), "ago=%s", ago)
		} else {
			assert.False(t, s.Open(), "ago=%s", ago)
			assert.Equal(t, time.Hour-ago, s.Remaining, "ago=%s", ago)
		}
	}
}

func TestReopen_LogsWithoutRequestFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	f := newFixture(t)
	ctx := log.With(context.Background(), zap.String("path", "/api/draw"))
	_, err := f.gate.Pass(ctx, noop)
	require.NoError(t, err)

	f.timers.Advance(time.Hour)

	entries := logs.FilterMessage("cooldown finished").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "gate", entries[0].LoggerName)
	assert.NotContains(t, entries[0].ContextMap(), "path")
}
