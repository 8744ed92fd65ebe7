package raycast

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWheel is wrapped by every ConfigurationError
	ErrInvalidWheel = errors.New("invalid wheel options")
	// ErrWheelIndex is returned by setters given an index with no wheel behind it
	ErrWheelIndex = errors.New("wheel index out of range")
	// ErrInvalidVehicle is returned by New when the world, chassis or axes are unusable
	ErrInvalidVehicle = errors.New("invalid vehicle")
)

// ConfigurationError reports the wheel option that made AddWheel fail
type ConfigurationError struct {
	Field string
	Value any
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s = %v", ErrInvalidWheel, e.Field, e.Value)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidWheel
}
