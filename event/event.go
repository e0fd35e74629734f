package event

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// Record layout: [delta int32][flags uint8][len int32][payload]
const (
	HeaderSize  = 9
	TrailerSize = 12

	FlagSelected uint8 = 0x01
)

var (
	ErrCorrupt    = errors.New("corrupt event buffer")
	ErrDeltaRange = errors.New("delta out of range")
)

// Event is one decoded record
type Event struct {
	Index   int    // position in the decoded sequence
	Delta   int32  // ticks since previous record
	Flags   uint8  // bit 0 = selected
	Payload []byte // raw message bytes
	Ticks   int64  // running sum of deltas, including this one
}

// Selected reports whether the event is selected in the editor
func (e Event) Selected() bool {
	return e.Flags&FlagSelected != 0
}

// Stream is a decoded buffer: events plus the opaque trailer
type Stream struct {
	Events  []Event
	Trailer []byte
}

// Decode parses buf into events. buf is never modified; payloads and the
// trailer are copies.
func Decode(buf []byte) (*Stream, error) {
	if len(buf) < TrailerSize {
		return nil, errors.Wrapf(ErrCorrupt, "buffer is %d bytes, need at least %d", len(buf), TrailerSize)
	}

	end := len(buf) - TrailerSize
	s := &Stream{
		Trailer: append([]byte(nil), buf[end:]...),
	}

	var ticks int64
	pos := 0
	for pos < end {
		ev, next, err := readRecord(buf[:end], pos)
		if err != nil {
			return nil, errors.Wrapf(err, "record %d at offset %d", len(s.Events), pos)
		}
		ticks += int64(ev.Delta)
		ev.Ticks = ticks
		ev.Index = len(s.Events)
		s.Events = append(s.Events, ev)
		pos = next
	}

	return s, nil
}

func readRecord(buf []byte, pos int) (Event, int, error) {
	if len(buf)-pos < HeaderSize {
		return Event{}, pos, errors.Wrapf(ErrCorrupt, "%d trailing bytes do not hold a header", len(buf)-pos)
	}

	delta := int32(binary.LittleEndian.Uint32(buf[pos:]))
	flags := buf[pos+4]
	n := int32(binary.LittleEndian.Uint32(buf[pos+5:]))
	if n < 0 {
		return Event{}, pos, errors.Wrapf(ErrCorrupt, "negative payload length %d", n)
	}

	start := pos + HeaderSize
	if int64(n) > int64(len(buf)-start) {
		return Event{}, pos, errors.Wrapf(ErrCorrupt, "payload length %d overruns buffer", n)
	}

	ev := Event{
		Delta:   delta,
		Flags:   flags,
		Payload: append([]byte(nil), buf[start:start+int(n)]...),
	}
	return ev, start + int(n), nil
}

// AppendRecord appends one encoded record to dst
func AppendRecord(dst []byte, delta int32, flags uint8, payload []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(delta))
	dst = append(dst, flags)
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}

// ParseRecord decodes exactly one record occupying all of b (e.g. a trailer)
func ParseRecord(b []byte) (Event, error) {
	ev, next, err := readRecord(b, 0)
	if err != nil {
		return Event{}, err
	}
	if next != len(b) {
		return Event{}, errors.Wrapf(ErrCorrupt, "%d bytes after record", len(b)-next)
	}
	ev.Ticks = int64(ev.Delta)
	return ev, nil
}

// Encode rebuilds a buffer from the original decoded events. An event whose
// Index is in overrides is placed at that absolute tick instead of its own.
// Events are stably sorted by tick and deltas recomputed; a negative delta
// is clamped to zero.
func Encode(events []Event, overrides map[int]int64, trailer []byte) ([]byte, error) {
	type placed struct {
		ev   *Event
		tick int64
	}

	order := make([]placed, len(events))
	size := len(trailer)
	for i := range events {
		tick := events[i].Ticks
		if t, ok := overrides[events[i].Index]; ok {
			tick = t
		}
		order[i] = placed{ev: &events[i], tick: tick}
		size += HeaderSize + len(events[i].Payload)
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].tick < order[j].tick
	})

	out := make([]byte, 0, size)
	// deltas run from the highest tick written so far, so a negative
	// leading tick clamps to zero without shifting later events
	var prev int64
	for _, p := range order {
		delta := p.tick - prev
		if delta < 0 {
			delta = 0
		}
		if delta > math.MaxInt32 {
			return nil, errors.Wrapf(ErrDeltaRange, "event %d needs delta %d", p.ev.Index, delta)
		}
		out = AppendRecord(out, int32(delta), p.ev.Flags, p.ev.Payload)
		if p.tick > prev {
			prev = p.tick
		}
	}

	return append(out, trailer...), nil
}

// Encode rebuilds the stream's buffer with the given overrides applied
func (s *Stream) Encode(overrides map[int]int64) ([]byte, error) {
	return Encode(s.Events, overrides, s.Trailer)
}
