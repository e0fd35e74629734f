package humanize

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"go-notelength/debug"
	"go-notelength/notes"
)

var ErrIntensity = errors.New("intensity must be within [0,1]")

// TimeMap converts between ticks and seconds. The two directions should be
// inverses of each other within a tick.
type TimeMap interface {
	TickToTime(tick int64) float64
	TimeToTick(seconds float64) int64
}

// Options select which notes change and by how much
type Options struct {
	ApplyToAll bool    // ignore selection
	Intensity  float64 // max relative duration change, 0-1
}

// Validate checks option ranges
func (o Options) Validate() error {
	if math.IsNaN(o.Intensity) || o.Intensity < 0 || o.Intensity > 1 {
		return errors.Wrapf(ErrIntensity, "got %v", o.Intensity)
	}
	return nil
}

// Eligible reports whether p is a candidate for a new length
func (o Options) Eligible(p notes.Pair) bool {
	return p.Length() > 1 && (o.ApplyToAll || p.Selected)
}

// Change records one modified pair
type Change struct {
	Pair      notes.Pair
	NewEnd    int64
	NewLength int64
	Clamped   bool
}

// Plan is the outcome of randomizing a pair list
type Plan struct {
	Overrides map[int]int64 // note-off event index -> new absolute tick
	Changes   []Change
	Eligible  int
	Modified  int
	Clamped   int
}

// Randomize computes new end ticks for eligible pairs. Pairs are visited in
// slice order and each eligible pair consumes exactly one random draw, so the
// plan is fully determined by pairs, opts and seed.
func Randomize(pairs []notes.Pair, tm TimeMap, opts Options, seed Seed) *Plan {
	rng := rand.New(rand.NewSource(int64(seed)))
	plan := &Plan{Overrides: make(map[int]int64)}

	for _, p := range pairs {
		if !opts.Eligible(p) {
			continue
		}
		plan.Eligible++

		u := rng.Float64()

		startTime := tm.TickToTime(p.Start)
		endTime := tm.TickToTime(p.End)
		duration := endTime - startTime
		variation := (2*u - 1) * opts.Intensity * duration

		newEnd := tm.TimeToTick(endTime + variation)
		clamped := false
		if newEnd <= p.Start {
			debug.Warn("humanize", "clamped note ch=%d pitch=%d start=%d: end %d -> %d", p.Key.Channel, p.Key.Pitch, p.Start, newEnd, p.Start+1)
			newEnd = p.Start + 1
			clamped = true
		}

		if newEnd == p.End {
			continue
		}

		plan.Overrides[p.OffIndex] = newEnd
		plan.Changes = append(plan.Changes, Change{
			Pair:      p,
			NewEnd:    newEnd,
			NewLength: newEnd - p.Start,
			Clamped:   clamped,
		})
		plan.Modified++
		if clamped {
			plan.Clamped++
		}
	}

	return plan
}
