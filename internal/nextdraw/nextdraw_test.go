package nextdraw

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	s, err := Parse(DefaultSpec)
	require.NoError(t, err)

	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"monday before drawing", time.Date(2024, 1, 1, 21, 59, 0, 0, chicago), "Mon, Jan 1"},
		{"monday at drawing", time.Date(2024, 1, 1, 22, 0, 0, 0, chicago), "Wed, Jan 3"},
		{"tuesday", time.Date(2024, 1, 2, 10, 0, 0, 0, chicago), "Wed, Jan 3"},
		{"thursday", time.Date(2024, 1, 4, 8, 0, 0, 0, chicago), "Sat, Jan 6"},
		{"saturday late", time.Date(2024, 1, 6, 23, 0, 0, 0, chicago), "Mon, Jan 8"},
		// 03:59 UTC on Tuesday is still Monday evening in Chicago
		{"utc input", time.Date(2024, 1, 2, 3, 59, 0, 0, time.UTC), "Mon, Jan 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Label(tt.now))
		})
	}
}

func TestNext_InScheduleZone(t *testing.T) {
	s, err := Parse(DefaultSpec)
	require.NoError(t, err)

	next := s.Next(time.Date(2024, 7, 2, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "America/Chicago", next.Location().String())
	assert.Equal(t, time.Wednesday, next.Weekday())
	assert.Equal(t, 22, next.Hour())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("not a schedule")
	assert.Error(t, err)
}
