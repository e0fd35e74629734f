package notes

import (
	"testing"

	"go-notelength/event"
)

type ev struct {
	tick    int64
	sel     bool
	payload []byte
}

func events(in ...ev) []event.Event {
	out := make([]event.Event, len(in))
	var prev int64
	for i, e := range in {
		var flags uint8
		if e.sel {
			flags = event.FlagSelected
		}
		out[i] = event.Event{
			Index:   i,
			Delta:   int32(e.tick - prev),
			Flags:   flags,
			Payload: e.payload,
			Ticks:   e.tick,
		}
		prev = e.tick
	}
	return out
}

func on(ch, pitch, vel uint8) []byte { return []byte{0x90 | ch, pitch, vel} }
func off(ch, pitch uint8) []byte     { return []byte{0x80 | ch, pitch, 0x40} }

func TestMatchFIFO(t *testing.T) {
	res := Match(events(
		ev{0, true, on(0, 60, 100)},
		ev{10, true, on(0, 60, 100)},
		ev{20, false, off(0, 60)},
		ev{30, false, off(0, 60)},
	))

	if len(res.Pairs) != 2 {
		t.Fatalf("got %d pairs, want 2", len(res.Pairs))
	}
	want := [][2]int64{{0, 20}, {10, 30}}
	for i, p := range res.Pairs {
		if p.Start != want[i][0] || p.End != want[i][1] {
			t.Errorf("pair %d = (%d,%d), want (%d,%d)", i, p.Start, p.End, want[i][0], want[i][1])
		}
		if !p.Selected {
			t.Errorf("pair %d not selected", i)
		}
	}
	if res.Pairs[0].OnIndex != 0 || res.Pairs[0].OffIndex != 2 {
		t.Errorf("pair 0 indices = %d,%d", res.Pairs[0].OnIndex, res.Pairs[0].OffIndex)
	}
}

func TestMatchZeroVelocityNoteOn(t *testing.T) {
	res := Match(events(
		ev{0, false, on(3, 64, 90)},
		ev{48, false, on(3, 64, 0)},
	))
	if len(res.Pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(res.Pairs))
	}
	p := res.Pairs[0]
	if p.Key != (Key{Channel: 3, Pitch: 64}) || p.Velocity != 90 || p.Length() != 48 {
		t.Errorf("pair = %+v", p)
	}
}

func TestMatchKeysAreIndependent(t *testing.T) {
	res := Match(events(
		ev{0, false, on(0, 60, 100)},
		ev{0, false, on(1, 60, 100)},
		ev{5, false, off(1, 60)},
		ev{9, false, off(0, 60)},
	))
	if len(res.Pairs) != 2 {
		t.Fatalf("got %d pairs", len(res.Pairs))
	}
	if res.Pairs[0].Key.Channel != 1 || res.Pairs[0].End != 5 {
		t.Errorf("first closed pair = %+v", res.Pairs[0])
	}
	if res.Pairs[1].Key.Channel != 0 || res.Pairs[1].End != 9 {
		t.Errorf("second closed pair = %+v", res.Pairs[1])
	}
}

func TestMatchUnmatchedAndDangling(t *testing.T) {
	res := Match(events(
		ev{0, false, off(0, 60)},
		ev{1, false, on(0, 62, 80)},
		ev{2, false, []byte{0xB0, 64, 127}},
		ev{3, false, []byte{0xFF, 0x2F}},
		ev{4, true, []byte{0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20}},
	))
	if len(res.Pairs) != 0 {
		t.Errorf("got %d pairs, want 0", len(res.Pairs))
	}
	if res.Unmatched != 1 {
		t.Errorf("Unmatched = %d, want 1", res.Unmatched)
	}
	if res.Dangling != 1 {
		t.Errorf("Dangling = %d, want 1", res.Dangling)
	}
}

func TestMatchSelectionFromEitherEnd(t *testing.T) {
	res := Match(events(
		ev{0, false, on(0, 60, 100)},
		ev{10, true, off(0, 60)},
		ev{20, false, on(0, 61, 100)},
		ev{30, false, off(0, 61)},
	))
	if !res.Pairs[0].Selected {
		t.Errorf("pair selected by note-off not flagged")
	}
	if res.Pairs[1].Selected {
		t.Errorf("unselected pair flagged")
	}
}
