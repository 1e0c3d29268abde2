package messages

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCatalog(t *testing.T) {
	c := NewCatalog("en")

	assert.Equal(t, "Generate Winning Numbers", c.Generate())
	assert.Equal(t, "Please wait 30 minutes...", c.Wait(30*time.Minute))
	assert.Equal(t, "Please wait 1 minute...", c.Wait(20*time.Second))
	assert.Equal(t, "Please wait 60 minutes...", c.Wait(59*time.Minute+time.Second))
}

func TestCatalog_UnknownLocaleFallsBack(t *testing.T) {
	c := NewCatalog("de")
	assert.Equal(t, "Please wait 2 minutes...", c.Wait(90*time.Second))
}

func TestWaitMinutes(t *testing.T) {
	assert.Equal(t, 0, WaitMinutes(0))
	assert.Equal(t, 1, WaitMinutes(time.Millisecond))
	assert.Equal(t, 30, WaitMinutes(30*time.Minute))
	assert.Equal(t, 31, WaitMinutes(30*time.Minute+time.Millisecond))
}
