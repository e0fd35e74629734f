package tempo

import (
	"math"
	"sort"
)

const DefaultBPM = 120.0

// Change is a tempo change at an absolute tick
type Change struct {
	Tick int64
	BPM  float64
}

type segment struct {
	tick    int64
	seconds float64 // absolute time at tick
	spt     float64 // seconds per tick
}

// Map converts between ticks and seconds for a piecewise-constant tempo
type Map struct {
	ppq      int
	segments []segment
}

// New builds a map from tempo changes. Changes need not be sorted; a later
// change at the same tick wins. Without a change at tick 0 the map starts at
// DefaultBPM.
func New(ppq int, changes []Change) *Map {
	if ppq <= 0 {
		ppq = 960
	}

	sorted := make([]Change, 0, len(changes)+1)
	sorted = append(sorted, Change{Tick: 0, BPM: DefaultBPM})
	for _, c := range changes {
		if c.BPM > 0 && c.Tick >= 0 {
			sorted = append(sorted, c)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Tick < sorted[j].Tick
	})

	m := &Map{ppq: ppq}
	for _, c := range sorted {
		spt := 60.0 / (c.BPM * float64(ppq))
		if n := len(m.segments); n > 0 && m.segments[n-1].tick == c.Tick {
			m.segments[n-1].spt = spt
			continue
		}
		var secs float64
		if n := len(m.segments); n > 0 {
			last := m.segments[n-1]
			secs = last.seconds + float64(c.Tick-last.tick)*last.spt
		}
		m.segments = append(m.segments, segment{tick: c.Tick, seconds: secs, spt: spt})
	}
	return m
}

// Constant returns a single-tempo map
func Constant(ppq int, bpm float64) *Map {
	return New(ppq, []Change{{Tick: 0, BPM: bpm}})
}

// PPQ returns ticks per quarter note
func (m *Map) PPQ() int {
	return m.ppq
}

// TickToTime returns seconds from tick 0
func (m *Map) TickToTime(tick int64) float64 {
	i := sort.Search(len(m.segments), func(i int) bool {
		return m.segments[i].tick > tick
	}) - 1
	if i < 0 {
		i = 0
	}
	s := m.segments[i]
	return s.seconds + float64(tick-s.tick)*s.spt
}

// TimeToTick returns the tick nearest to seconds
func (m *Map) TimeToTick(seconds float64) int64 {
	i := sort.Search(len(m.segments), func(i int) bool {
		return m.segments[i].seconds > seconds
	}) - 1
	if i < 0 {
		i = 0
	}
	s := m.segments[i]
	return s.tick + int64(math.Round((seconds-s.seconds)/s.spt))
}

// BPMAt returns the tempo in effect at tick
func (m *Map) BPMAt(tick int64) float64 {
	i := sort.Search(len(m.segments), func(i int) bool {
		return m.segments[i].tick > tick
	}) - 1
	if i < 0 {
		i = 0
	}
	return 60.0 / (m.segments[i].spt * float64(m.ppq))
}
