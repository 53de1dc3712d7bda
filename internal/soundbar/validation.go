package soundbar

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument indicates a caller-supplied value the device would
// reject. Validation happens before any bytes are sent, so a doomed
// request never round-trips to the device.
var ErrInvalidArgument = errors.New("invalid argument")

// Documented value ranges for the vendor's control app. Different models
// clamp differently at the edges, but none accept values outside these.
const (
	MinVolume = 0
	MaxVolume = 40

	MinWooferLevel = -15
	MaxWooferLevel = 6

	MinChannelLevel = -6 // rear, top, and center speaker trims
	MaxChannelLevel = 6

	MinAVSync = 0 // milliseconds
	MaxAVSync = 300

	MinSleepMinutes = 0 // 0 disables the timer
	MaxSleepMinutes = 120

	MaxNameLength = 30
)

func validateRange(what string, value, lo, hi int) error {
	if value < lo || value > hi {
		return fmt.Errorf("%w: %s %d out of range [%d, %d]", ErrInvalidArgument, what, value, lo, hi)
	}
	return nil
}

func validateEqualizer(eq Equalizer) error {
	if !eq.Valid() {
		return fmt.Errorf("%w: unknown equalizer preset %d", ErrInvalidArgument, int(eq))
	}
	return nil
}

func validateFunction(fn Function) error {
	if !fn.Valid() {
		return fmt.Errorf("%w: unknown input source %d", ErrInvalidArgument, int(fn))
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: device name must not be empty", ErrInvalidArgument)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: device name longer than %d bytes", ErrInvalidArgument, MaxNameLength)
	}
	return nil
}
