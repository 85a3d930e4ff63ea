package voice

import (
	"errors"
	"fmt"
)

// ErrInvalidRate is returned for a non-positive sample rate
var ErrInvalidRate = errors.New("invalid sample rate")

func errInvalidRate(sr int) error {
	return fmt.Errorf("%w: %d", ErrInvalidRate, sr)
}

func errUnknown(t Type) error {
	return fmt.Errorf("%w: %d", ErrUnknownType, int(t))
}
