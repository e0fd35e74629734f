package midi

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/smf"

	"go-notelength/debug"
	"go-notelength/event"
	"go-notelength/humanize"
	"go-notelength/tempo"
)

var (
	ErrNoTrack  = errors.New("no note track")
	ErrBadDelta = errors.New("negative delta")
	ErrNoUndo   = errors.New("nothing to undo")
)

var endOfTrack = []byte{0xFF, 0x2F, 0x00}

// TrackInfo describes one track of a file
type TrackInfo struct {
	Index  int
	Name   string
	Events int
	Notes  int
}

type undoEntry struct {
	label string
	buf   []byte
}

// File is a Standard MIDI File with one active track exposed as an event
// buffer. It implements humanize.Host.
type File struct {
	Path string

	smf   *smf.SMF
	track int
	buf   []byte
	tempo *tempo.Map
	dirty bool

	undo    []undoEntry
	pending []byte // buffer at BeginUndo
}

// Open reads path and activates trackIndex (-1 picks the first track with
// notes). Note-ons matching sel are flagged as selected.
func Open(path string, trackIndex int, sel Selection) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	f, err := Read(data, trackIndex, sel)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	f.Path = path
	return f, nil
}

// Read parses SMF bytes
func Read(data []byte, trackIndex int, sel Selection) (*File, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "parse smf")
	}

	if trackIndex < 0 {
		trackIndex = firstNoteTrack(s)
		if trackIndex < 0 {
			return nil, ErrNoTrack
		}
	}
	if trackIndex >= len(s.Tracks) {
		return nil, errors.Wrapf(ErrNoTrack, "track %d of %d", trackIndex, len(s.Tracks))
	}

	f := &File{
		smf:   s,
		track: trackIndex,
		tempo: tempoMap(s),
	}
	f.buf = trackBuffer(s.Tracks[trackIndex], sel)

	debug.Log("file", "track %d: %d bytes, %d ppq", trackIndex, len(f.buf), f.tempo.PPQ())
	return f, nil
}

func firstNoteTrack(s *smf.SMF) int {
	for i, t := range s.Tracks {
		for _, ev := range t {
			if ev.Message.GetNoteStart(nil, nil, nil) {
				return i
			}
		}
	}
	return -1
}

func tempoMap(s *smf.SMF) *tempo.Map {
	ppq := 960
	if tf, ok := s.TimeFormat.(smf.MetricTicks); ok {
		ppq = int(uint16(tf))
	}

	var changes []tempo.Change
	for _, t := range s.Tracks {
		var tick int64
		for _, ev := range t {
			tick += int64(ev.Delta)
			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) {
				changes = append(changes, tempo.Change{Tick: tick, BPM: bpm})
			}
		}
	}
	return tempo.New(ppq, changes)
}

func trackBuffer(t smf.Track, sel Selection) []byte {
	var buf []byte
	var tick int64
	trailer := event.AppendRecord(nil, 0, 0, endOfTrack)

	for i, ev := range t {
		tick += int64(ev.Delta)
		msg := []byte(ev.Message)

		if i == len(t)-1 && ev.Message.Is(smf.MetaEndOfTrackMsg) {
			trailer = event.AppendRecord(nil, int32(ev.Delta), 0, msg)
			break
		}

		var flags uint8
		var ch uint8
		if ev.Message.GetNoteStart(&ch, nil, nil) && sel.Match(ch, tick) {
			flags = event.FlagSelected
		}
		buf = event.AppendRecord(buf, int32(ev.Delta), flags, msg)
	}

	return append(buf, trailer...)
}

// Tracks lists the file's tracks
func (f *File) Tracks() []TrackInfo {
	infos := make([]TrackInfo, len(f.smf.Tracks))
	for i, t := range f.smf.Tracks {
		info := TrackInfo{Index: i, Events: len(t)}
		for _, ev := range t {
			var name string
			if info.Name == "" && ev.Message.GetMetaTrackName(&name) {
				info.Name = name
			}
			if ev.Message.GetNoteStart(nil, nil, nil) {
				info.Notes++
			}
		}
		infos[i] = info
	}
	return infos
}

// Track returns the active track index
func (f *File) Track() int {
	return f.track
}

// Tempo returns the file's tempo map
func (f *File) Tempo() *tempo.Map {
	return f.tempo
}

// Dirty reports unsaved changes
func (f *File) Dirty() bool {
	return f.dirty
}

// EventBuffer returns the active track as an event buffer
func (f *File) EventBuffer() ([]byte, bool, error) {
	if f.buf == nil {
		return nil, false, nil
	}
	return f.buf, true, nil
}

// SetEventBuffer replaces the active track. The track is rebuilt in full
// before anything is swapped in.
func (f *File) SetEventBuffer(buf []byte) error {
	track, err := bufferTrack(buf)
	if err != nil {
		return err
	}
	f.smf.Tracks[f.track] = track
	f.buf = append([]byte(nil), buf...)
	f.dirty = true
	return nil
}

func bufferTrack(buf []byte) (smf.Track, error) {
	s, err := event.Decode(buf)
	if err != nil {
		return nil, err
	}
	eot, err := event.ParseRecord(s.Trailer)
	if err != nil {
		return nil, errors.Wrap(err, "trailer")
	}

	track := make(smf.Track, 0, len(s.Events)+1)
	for _, ev := range append(s.Events, eot) {
		if ev.Delta < 0 {
			return nil, errors.Wrapf(ErrBadDelta, "event %d", ev.Index)
		}
		track = append(track, smf.Event{
			Delta:   uint32(ev.Delta),
			Message: smf.Message(ev.Payload),
		})
	}
	return track, nil
}

// TimeMap returns the tempo map for humanize
func (f *File) TimeMap() humanize.TimeMap {
	return f.tempo
}

// BeginUndo snapshots the buffer
func (f *File) BeginUndo(label string) {
	f.pending = f.buf
}

// EndUndo records an undo entry when the scope changed the buffer
func (f *File) EndUndo(label string, changed bool) {
	if changed {
		f.undo = append(f.undo, undoEntry{label: label, buf: f.pending})
	}
	f.pending = nil
}

// UndoDepth returns the number of undoable actions
func (f *File) UndoDepth() int {
	return len(f.undo)
}

// Undo restores the buffer from before the last committed action
func (f *File) Undo() (string, error) {
	n := len(f.undo)
	if n == 0 {
		return "", ErrNoUndo
	}
	last := f.undo[n-1]
	if err := f.SetEventBuffer(last.buf); err != nil {
		return "", err
	}
	f.undo = f.undo[:n-1]
	return last.label, nil
}

// Save writes the file to path, or back to its source when path is empty.
// The file is written to a temporary sibling and renamed into place.
func (f *File) Save(path string) error {
	if path == "" {
		path = f.Path
	}
	if path == "" {
		return errors.New("no output path")
	}

	var out bytes.Buffer
	if _, err := f.smf.WriteTo(&out); err != nil {
		return errors.Wrap(err, "encode smf")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".notelength-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	f.dirty = false
	debug.Log("file", "saved %s (%d bytes)", path, out.Len())
	return nil
}
