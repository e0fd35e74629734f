package midi

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var (
	ErrPortsTimeout = errors.New("timed out listing MIDI ports")
	ErrNoPort       = errors.New("no matching MIDI output port")
)

// OutPorts lists output ports. Port enumeration can hang on a wedged MIDI
// server, so it gives up after timeout.
func OutPorts(timeout time.Duration) ([]drivers.Out, error) {
	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- gomidi.GetOutPorts()
	}()

	select {
	case outs := <-ch:
		return outs, nil
	case <-time.After(timeout):
		return nil, ErrPortsTimeout
	}
}

// FindOut returns the first output port whose name contains name
// (case-insensitive)
func FindOut(name string, timeout time.Duration) (drivers.Out, error) {
	outs, err := OutPorts(timeout)
	if err != nil {
		return nil, err
	}

	want := strings.ToLower(name)
	for _, p := range outs {
		if strings.Contains(strings.ToLower(p.String()), want) {
			return p, nil
		}
	}
	return nil, errors.Wrapf(ErrNoPort, "%q", name)
}
