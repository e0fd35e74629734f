package event

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
)

var testTrailer = []byte{0, 0, 0, 0, 0, 3, 0, 0, 0, 0xB0, 0x7B, 0x00}

func build(recs ...[]byte) []byte {
	var buf []byte
	for _, r := range recs {
		buf = append(buf, r...)
	}
	return append(buf, testTrailer...)
}

func rec(delta int32, flags uint8, payload ...byte) []byte {
	return AppendRecord(nil, delta, flags, payload)
}

func TestDecodeAbsoluteTicks(t *testing.T) {
	buf := build(
		rec(0, 1, 0x90, 60, 100),
		rec(10, 0, 0xB0, 7, 90),
		rec(5, 0, 0x80, 60, 0),
	)

	s, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(s.Events) != 3 {
		t.Fatalf("got %d events, want 3", len(s.Events))
	}

	wantTicks := []int64{0, 10, 15}
	for i, ev := range s.Events {
		if ev.Index != i {
			t.Errorf("event %d: Index = %d", i, ev.Index)
		}
		if ev.Ticks != wantTicks[i] {
			t.Errorf("event %d: Ticks = %d, want %d", i, ev.Ticks, wantTicks[i])
		}
	}
	if !s.Events[0].Selected() || s.Events[1].Selected() {
		t.Errorf("selection flags not decoded")
	}
	if !bytes.Equal(s.Trailer, testTrailer) {
		t.Errorf("trailer = %x, want %x", s.Trailer, testTrailer)
	}
}

func TestDecodeTrailerOnly(t *testing.T) {
	s, err := Decode(append([]byte(nil), testTrailer...))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(s.Events) != 0 {
		t.Errorf("got %d events, want 0", len(s.Events))
	}
}

func TestDecodeCorrupt(t *testing.T) {
	good := rec(0, 0, 0x90, 60, 100)

	negative := rec(0, 0)
	negative[5], negative[6], negative[7], negative[8] = 0xFF, 0xFF, 0xFF, 0xFF

	overrun := rec(0, 0, 0x90, 60, 100)
	overrun[5] = 200

	tests := []struct {
		name string
		buf  []byte
	}{
		{"short", []byte{1, 2, 3}},
		{"partial header", build(good, []byte{1, 2, 3, 4})},
		{"negative length", build(good, negative)},
		{"overrun", build(overrun)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := append([]byte(nil), tt.buf...)
			_, err := Decode(tt.buf)
			if !errors.Is(err, ErrCorrupt) {
				t.Fatalf("Decode err = %v, want ErrCorrupt", err)
			}
			if !bytes.Equal(orig, tt.buf) {
				t.Errorf("Decode modified its input")
			}
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	buf := build(
		rec(0, 1, 0x90, 60, 100),
		rec(0, 0, 0x90, 64, 100),
		rec(240, 0, 0xFF, 0x01, 0x02, 'h', 'i'),
		rec(0, 1, 0x80, 60, 0),
		rec(12, 0, 0x80, 64, 0),
	)

	s, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, err := s.Encode(nil)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(out, buf) {
		t.Errorf("round trip mismatch\n got %x\nwant %x", out, buf)
	}
}

func TestEncodeOverrideResorts(t *testing.T) {
	buf := build(
		rec(0, 0, 0x90, 60, 100), // 0
		rec(10, 0, 0x80, 60, 0),  // 10
		rec(10, 0, 0xB0, 7, 90),  // 20
	)
	s, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	out, err := s.Encode(map[int]int64{1: 25})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode output: %v", err)
	}

	wantFirst := []byte{0x90, 0xB0, 0x80}
	wantTicks := []int64{0, 20, 25}
	for i, ev := range got.Events {
		if ev.Payload[0] != wantFirst[i] {
			t.Errorf("event %d status = %#x, want %#x", i, ev.Payload[0], wantFirst[i])
		}
		if ev.Ticks != wantTicks[i] {
			t.Errorf("event %d ticks = %d, want %d", i, ev.Ticks, wantTicks[i])
		}
	}
	if !bytes.Equal(out[len(out)-TrailerSize:], testTrailer) {
		t.Errorf("trailer not preserved")
	}
}

func TestEncodeStableTies(t *testing.T) {
	buf := build(
		rec(0, 0, 0x90, 60, 100),
		rec(0, 0, 0x90, 62, 100),
		rec(0, 0, 0x90, 64, 100),
		rec(30, 0, 0x80, 60, 0),
	)
	s, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	// Move the note-off onto tick 0; it must land after the three equal-tick
	// note-ons that preceded it.
	out, err := s.Encode(map[int]int64{3: 0})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, _ := Decode(out)
	wantPitch := []byte{60, 62, 64, 60}
	for i, ev := range got.Events {
		if ev.Payload[1] != wantPitch[i] || ev.Ticks != 0 {
			t.Errorf("event %d = pitch %d tick %d, want pitch %d tick 0", i, ev.Payload[1], ev.Ticks, wantPitch[i])
		}
	}
}

func TestEncodeNegativeOverrideClamps(t *testing.T) {
	buf := build(
		rec(5, 0, 0x90, 60, 100),
		rec(10, 0, 0x80, 60, 0),
	)
	s, _ := Decode(buf)

	out, err := s.Encode(map[int]int64{1: -20})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, _ := Decode(out)
	// note-off sorts first with delta clamped to 0, note-on follows at 5
	if got.Events[0].Payload[0] != 0x80 || got.Events[0].Delta != 0 {
		t.Errorf("first event = %+v", got.Events[0])
	}
	if got.Events[1].Ticks != 5 {
		t.Errorf("note-on tick = %d, want 5", got.Events[1].Ticks)
	}
}

func TestEncodeDeltaRange(t *testing.T) {
	buf := build(rec(0, 0, 0x80, 60, 0))
	s, _ := Decode(buf)

	_, err := s.Encode(map[int]int64{0: 1 << 40})
	if !errors.Is(err, ErrDeltaRange) {
		t.Fatalf("Encode err = %v, want ErrDeltaRange", err)
	}
}

func TestParseRecord(t *testing.T) {
	ev, err := ParseRecord(testTrailer)
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if !bytes.Equal(ev.Payload, []byte{0xB0, 0x7B, 0x00}) {
		t.Errorf("payload = %x", ev.Payload)
	}

	if _, err := ParseRecord(append(append([]byte(nil), testTrailer...), 0)); !errors.Is(err, ErrCorrupt) {
		t.Errorf("extra byte err = %v, want ErrCorrupt", err)
	}
}
