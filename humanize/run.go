package humanize

import (
	"time"

	"github.com/pkg/errors"

	"go-notelength/debug"
	"go-notelength/event"
	"go-notelength/notes"
)

// UndoLabel names the undo scope opened by Apply
const UndoLabel = "Humanize note lengths"

// Result summarizes one transform
type Result struct {
	Buffer    []byte // rewritten buffer, nil when nothing changed
	Pairs     int
	Eligible  int
	Modified  int
	Clamped   int
	Unmatched int
	Elapsed   time.Duration
	Changes   []Change
}

// Changed reports whether a new buffer was produced
func (r *Result) Changed() bool {
	return r.Modified > 0
}

// Run decodes buf, pairs notes, randomizes eligible lengths and re-encodes.
// buf itself is never modified.
func Run(buf []byte, tm TimeMap, opts Options, seed Seed) (*Result, error) {
	started := time.Now()

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	stream, err := event.Decode(buf)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}

	matched := notes.Match(stream.Events)
	plan := Randomize(matched.Pairs, tm, opts, seed)

	res := &Result{
		Pairs:     len(matched.Pairs),
		Eligible:  plan.Eligible,
		Modified:  plan.Modified,
		Clamped:   plan.Clamped,
		Unmatched: matched.Unmatched,
		Changes:   plan.Changes,
	}

	if plan.Modified > 0 {
		out, err := stream.Encode(plan.Overrides)
		if err != nil {
			return nil, errors.Wrap(err, "encode")
		}
		res.Buffer = out
	}

	res.Elapsed = time.Since(started)
	debug.Log("humanize", "events=%d pairs=%d eligible=%d modified=%d clamped=%d seed=%s in %s",
		len(stream.Events), res.Pairs, res.Eligible, res.Modified, res.Clamped, seed, res.Elapsed)
	return res, nil
}

// Host supplies the event buffer and tempo conversions for Apply
type Host interface {
	// EventBuffer returns false when no note container is active
	EventBuffer() ([]byte, bool, error)
	SetEventBuffer(buf []byte) error
	TimeMap() TimeMap
	BeginUndo(label string)
	EndUndo(label string, changed bool)
}

// Apply runs one transform against h inside a single undo scope. The buffer
// is written back only when at least one note changed. A nil Result with a
// nil error means there was nothing to process.
func Apply(h Host, opts Options, seed Seed) (res *Result, err error) {
	h.BeginUndo(UndoLabel)
	changed := false
	defer func() {
		h.EndUndo(UndoLabel, changed)
	}()

	buf, ok, err := h.EventBuffer()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	res, err = Run(buf, h.TimeMap(), opts, seed)
	if err != nil {
		return nil, err
	}
	if !res.Changed() {
		return res, nil
	}

	if err := h.SetEventBuffer(res.Buffer); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	changed = true
	return res, nil
}
