package voice

import (
	"errors"
	"fmt"
	"strings"
)

// Type identifies one synthesized percussion timbre.
type Type int

const (
	Kick Type = iota
	Snare
	HiHat
	OpenHat
	Clap
	Tom
	Crash
	Zap

	NumTypes = int(Zap) + 1
)

// ErrUnknownType is returned when a voice name cannot be parsed
var ErrUnknownType = errors.New("unknown voice type")

var typeNames = [NumTypes]string{
	Kick:    "Kick",
	Snare:   "Snare",
	HiHat:   "HiHat",
	OpenHat: "OpenHat",
	Clap:    "Clap",
	Tom:     "Tom",
	Crash:   "Crash",
	Zap:     "Zap",
}

// Types returns every voice type in declaration order
func Types() []Type {
	ts := make([]Type, NumTypes)
	for i := range ts {
		ts[i] = Type(i)
	}
	return ts
}

func (t Type) Valid() bool {
	return t >= 0 && int(t) < NumTypes
}

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// ParseType matches a voice name case-insensitively
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if strings.EqualFold(name, s) {
			return Type(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

// MarshalText lets voice types appear by name in JSON
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownType, int(t))
	}
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
