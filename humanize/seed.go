package humanize

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Seed drives the random generator. Equal seeds give equal output.
type Seed int64

// NewSeed returns a fresh seed from the wall clock
func NewSeed() Seed {
	return Seed(time.Now().UnixNano())
}

// ParseSeed reads a decimal seed
func ParseSeed(s string) (Seed, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse seed %q", s)
	}
	return Seed(v), nil
}

func (s Seed) String() string {
	return strconv.FormatInt(int64(s), 10)
}
