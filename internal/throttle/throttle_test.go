package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGate_DropsUpdatesInsideWindow(t *testing.T) {
	g := NewGate(DefaultWindow)
	start := time.Unix(1_700_000_000, 0)

	require.True(t, g.Allow(start, "0xchain"), "first update always renders")
	require.False(t, g.Allow(start.Add(500*time.Millisecond), "0xchain"))
	require.True(t, g.Allow(start.Add(1100*time.Millisecond), "0xchain"))
	require.Equal(t, start.Add(1100*time.Millisecond), g.Last().At)
}

func TestGate_SelectionChangeBypassesWindow(t *testing.T) {
	g := NewGate(DefaultWindow)
	start := time.Unix(1_700_000_000, 0)

	require.True(t, g.Allow(start, "0xaa"))
	require.False(t, g.Allow(start.Add(500*time.Millisecond), "0xaa"))
	require.True(t, g.Allow(start.Add(510*time.Millisecond), "0xbb"))

	last := g.Last()
	require.Equal(t, "0xbb", last.Key)
	require.Equal(t, start.Add(510*time.Millisecond), last.At)

	// The window restarts from the selection change.
	require.False(t, g.Allow(start.Add(1100*time.Millisecond), "0xbb"))
	require.True(t, g.Allow(start.Add(1510*time.Millisecond), "0xbb"))
}

func TestGate_DroppedUpdateLeavesMarkUntouched(t *testing.T) {
	g := NewGate(DefaultWindow)
	start := time.Unix(1_700_000_000, 0)

	g.Allow(start, "k")
	before := g.Last()
	g.Allow(start.Add(10*time.Millisecond), "k")
	require.Equal(t, before, g.Last())
}

func TestShouldRender_WindowBoundary(t *testing.T) {
	at := time.Unix(1_700_000_000, 0)
	last := Mark{At: at, Key: "k", Set: true}

	require.True(t, ShouldRender(Mark{}, at, "", DefaultWindow))
	require.False(t, ShouldRender(last, at.Add(999*time.Millisecond), "k", DefaultWindow))
	require.True(t, ShouldRender(last, at.Add(DefaultWindow), "k", DefaultWindow))
	require.True(t, ShouldRender(last, at, "other", DefaultWindow))
}

func TestNewGate_NegativeWindowRendersEverything(t *testing.T) {
	g := NewGate(-time.Second)
	now := time.Unix(1_700_000_000, 0)
	require.True(t, g.Allow(now, "k"))
	require.True(t, g.Allow(now, "k"))
	require.Equal(t, time.Duration(0), g.Window())
}

func TestSystemClock(t *testing.T) {
	before := time.Now()
	require.False(t, SystemClock().Now().Before(before))
}
