package ui

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestNewSpinner(t *testing.T) {
	s := NewSpinner("Restarting zenhub", &syncBuffer{})
	assert.Equal(t, "Restarting zenhub", s.Label())
	assert.Equal(t, SpinnerPending, s.State())
}

func TestSpinnerStartStop(t *testing.T) {
	out := &syncBuffer{}
	s := NewSpinner("Restarting", out)

	s.Start()
	s.Start() // second start is a no-op
	assert.Equal(t, SpinnerInProgress, s.State())

	time.Sleep(3 * RestartFrames.FPS)
	s.Stop()
	s.Stop()

	assert.Equal(t, SpinnerInProgress, s.State(), "Stop leaves the state alone")
	assert.Contains(t, out.String(), "Restarting")
}

func TestSpinnerSuccess(t *testing.T) {
	out := &syncBuffer{}
	s := NewSpinner("Restarting", out)
	s.Start()
	s.SetLabel("zenhub is up")
	s.Success()

	assert.Equal(t, SpinnerSuccess, s.State())
	assert.Contains(t, out.String(), SymbolSuccess+" zenhub is up")
}

func TestSpinnerFail(t *testing.T) {
	out := &syncBuffer{}
	s := NewSpinner("Restarting", out)
	s.Start()
	s.Fail()

	assert.Equal(t, SpinnerFailed, s.State())
	assert.Contains(t, out.String(), SymbolFail)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0.05s", formatDuration(50*time.Millisecond))
	assert.Equal(t, "1.2s", formatDuration(1200*time.Millisecond))
}
