package notes

import (
	gomidi "gitlab.com/gomidi/midi/v2"

	"go-notelength/debug"
	"go-notelength/event"
)

// Key identifies a sounding note. Several notes may share one.
type Key struct {
	Channel uint8
	Pitch   uint8
}

// Pair is a matched note-on/note-off
type Pair struct {
	Key      Key
	Velocity uint8
	Start    int64 // note-on tick
	End      int64 // note-off tick
	OnIndex  int   // event index of the note-on
	OffIndex int   // event index of the note-off
	Selected bool  // either boundary event selected
}

// Length returns End - Start in ticks
func (p Pair) Length() int64 {
	return p.End - p.Start
}

// Result of matching one event stream
type Result struct {
	Pairs     []Pair // in the order they were closed
	Unmatched int    // note-offs with no open note-on
	Dangling  int    // note-ons never closed
}

type pending struct {
	start    int64
	index    int
	selected bool
	velocity uint8
}

// Match pairs note-ons to note-offs per Key, oldest open note first.
// Events that are not notes are ignored.
func Match(events []event.Event) Result {
	var res Result
	open := make(map[Key][]pending)

	for i := range events {
		ev := &events[i]
		if len(ev.Payload) < 3 {
			continue
		}

		msg := gomidi.Message(ev.Payload[:3])
		var ch, pitch, vel uint8

		if msg.GetNoteStart(&ch, &pitch, &vel) {
			k := Key{Channel: ch, Pitch: pitch}
			open[k] = append(open[k], pending{
				start:    ev.Ticks,
				index:    ev.Index,
				selected: ev.Selected(),
				velocity: vel,
			})
			continue
		}

		if msg.GetNoteEnd(&ch, &pitch) {
			k := Key{Channel: ch, Pitch: pitch}
			queue := open[k]
			if len(queue) == 0 {
				res.Unmatched++
				debug.Log("notes", "note-off without note-on: ch=%d pitch=%d tick=%d", ch, pitch, ev.Ticks)
				continue
			}

			on := queue[0]
			if len(queue) == 1 {
				delete(open, k)
			} else {
				open[k] = queue[1:]
			}

			res.Pairs = append(res.Pairs, Pair{
				Key:      k,
				Velocity: on.velocity,
				Start:    on.start,
				End:      ev.Ticks,
				OnIndex:  on.index,
				OffIndex: ev.Index,
				Selected: on.selected || ev.Selected(),
			})
		}
	}

	for k, queue := range open {
		res.Dangling += len(queue)
		debug.Log("notes", "%d note-on(s) never closed: ch=%d pitch=%d", len(queue), k.Channel, k.Pitch)
	}

	return res
}
