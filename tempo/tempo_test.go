package tempo

import (
	"math"
	"testing"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestConstant(t *testing.T) {
	m := Constant(480, 120)
	if got := m.TickToTime(480); !near(got, 0.5) {
		t.Errorf("TickToTime(480) = %v, want 0.5", got)
	}
	if got := m.TimeToTick(1.0); got != 960 {
		t.Errorf("TimeToTick(1.0) = %d, want 960", got)
	}
}

func TestTempoChange(t *testing.T) {
	// 120 bpm for one beat, then 60 bpm
	m := New(480, []Change{{Tick: 480, BPM: 60}})

	tests := []struct {
		tick int64
		secs float64
	}{
		{0, 0},
		{240, 0.25},
		{480, 0.5},
		{960, 1.5},
		{1440, 2.5},
	}
	for _, tt := range tests {
		if got := m.TickToTime(tt.tick); !near(got, tt.secs) {
			t.Errorf("TickToTime(%d) = %v, want %v", tt.tick, got, tt.secs)
		}
		if got := m.TimeToTick(tt.secs); got != tt.tick {
			t.Errorf("TimeToTick(%v) = %d, want %d", tt.secs, got, tt.tick)
		}
	}
	if got := m.BPMAt(1000); !near(got, 60) {
		t.Errorf("BPMAt(1000) = %v, want 60", got)
	}
}

func TestRoundTripStable(t *testing.T) {
	m := New(960, []Change{{Tick: 0, BPM: 97}, {Tick: 3840, BPM: 143.5}, {Tick: 9000, BPM: 71}})
	for tick := int64(-100); tick < 20000; tick += 37 {
		if got := m.TimeToTick(m.TickToTime(tick)); got != tick {
			t.Fatalf("round trip %d -> %d", tick, got)
		}
	}
}

func TestLaterChangeAtSameTickWins(t *testing.T) {
	m := New(480, []Change{{Tick: 0, BPM: 90}, {Tick: 0, BPM: 60}})
	if got := m.BPMAt(0); !near(got, 60) {
		t.Errorf("BPMAt(0) = %v, want 60", got)
	}
}
