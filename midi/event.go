package midi

// MIDI status nibbles
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0

	PolyPressure    uint8 = 0xA0
	Program         uint8 = 0xC0
	ChannelPressure uint8 = 0xD0
	PitchBend       uint8 = 0xE0
)

// Selection marks note-ons for targeted runs. A note-on is selected when its
// channel matches (Channel < 0 matches any) and its tick lies in [From, To);
// To <= 0 leaves the window open-ended.
type Selection struct {
	Channel int
	From    int64
	To      int64
}

// All selects nothing explicitly; use with apply-to-all runs
var All = Selection{Channel: -1}

// Active reports whether the selection narrows anything
func (s Selection) Active() bool {
	return s.Channel >= 0 || s.From > 0 || s.To > 0
}

// Match reports whether a note-on at tick on channel ch is selected
func (s Selection) Match(ch uint8, tick int64) bool {
	if !s.Active() {
		return false
	}
	if s.Channel >= 0 && int(ch) != s.Channel {
		return false
	}
	if tick < s.From {
		return false
	}
	if s.To > 0 && tick >= s.To {
		return false
	}
	return true
}

// isChannelMessage reports whether payload starts with a channel voice status
func isChannelMessage(payload []byte) bool {
	if len(payload) == 0 {
		return false
	}
	switch payload[0] & 0xF0 {
	case NoteOff, NoteOn, CC, PolyPressure, Program, ChannelPressure, PitchBend:
		return true
	}
	return false
}
