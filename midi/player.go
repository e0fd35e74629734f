package midi

import (
	"context"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-notelength/debug"
	"go-notelength/event"
	"go-notelength/humanize"
)

// SendFunc delivers one message to an output
type SendFunc func(msg gomidi.Message) error

// Play streams the channel messages of buf to send in real time, scheduled
// through tm. It returns when the buffer ends or ctx is cancelled; either
// way every note still sounding is released.
func Play(ctx context.Context, send SendFunc, buf []byte, tm humanize.TimeMap) error {
	s, err := event.Decode(buf)
	if err != nil {
		return err
	}

	held := make(map[[2]uint8]int)
	defer func() {
		for k, n := range held {
			for ; n > 0; n-- {
				send(gomidi.NoteOff(k[0], k[1]))
			}
		}
	}()

	started := time.Now()
	origin := tm.TickToTime(0)

	for _, ev := range s.Events {
		if !isChannelMessage(ev.Payload) {
			continue
		}

		at := time.Duration((tm.TickToTime(ev.Ticks) - origin) * float64(time.Second))
		if wait := at - time.Since(started); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		msg := gomidi.Message(ev.Payload)
		var ch, key uint8
		if msg.GetNoteStart(&ch, &key, nil) {
			held[[2]uint8{ch, key}]++
		} else if msg.GetNoteEnd(&ch, &key) {
			if k := [2]uint8{ch, key}; held[k] > 0 {
				held[k]--
			}
		}

		if err := send(msg); err != nil {
			return err
		}
		debug.LogEvery(64, "play", "sent %v at %s", msg, at)
	}

	return nil
}
