package photosphere

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// FramesPerSecond is the fixed rate of the autorotate loop.
	FramesPerSecond = 60
	// FrameInterval is the time between two autorotate steps (1000/60 ms).
	FrameInterval = time.Second / FramesPerSecond

	twoPi = 2 * math.Pi
)

var (
	// ErrInvalidAngle is returned when an angle string cannot be parsed or
	// carries a unit other than deg or rad.
	ErrInvalidAngle = errors.New("photosphere: invalid angle")
	// ErrUnknownSpeedUnit is returned by ParseAngularSpeed for an unrecognized
	// unit. The caller should treat the animation as disabled.
	ErrUnknownSpeedUnit = errors.New("photosphere: unknown speed unit")
)

var numberWithUnit = regexp.MustCompile(`^(-?[0-9]+(?:\.[0-9]*)?)(.*)$`)

// NormalizeAngle reduces angle into [0, 2π). When allowTwoPi is set and the
// input is exactly 2π, 2π is returned unchanged.
func NormalizeAngle(angle float64, allowTwoPi bool) float64 {
	if allowTwoPi && angle == twoPi {
		return twoPi
	}
	r := angle - math.Floor(angle/twoPi)*twoPi
	// Tiny negative inputs round up to 2π or stay subnormal negative.
	if r >= twoPi {
		r -= twoPi
	}
	if r < 0 {
		r = 0
	}
	return r
}

// Clamp bounds x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// ParseAngle converts a number (radians) or a string such as "45deg",
// "1.2rad" or "0.5" into a normalized angle in [0, 2π).
func ParseAngle(input any) (float64, error) {
	var v float64
	switch a := input.(type) {
	case float64:
		v = a
	case float32:
		v = float64(a)
	case int:
		v = float64(a)
	case int64:
		v = float64(a)
	case string:
		value, unit, err := splitNumber(a)
		if err != nil {
			return 0, err
		}
		switch unit {
		case "", "rad":
			v = value
		case "deg":
			v = value * math.Pi / 180
		default:
			return 0, fmt.Errorf("%w: unit %q in %q", ErrInvalidAngle, unit, a)
		}
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidAngle, input)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAngle, input)
	}
	return NormalizeAngle(v, false), nil
}

// ParseLatitude parses an angle and maps values above π into (-π, 0], so
// that "-30deg" and "330deg" both describe a tilt below the horizon.
func ParseLatitude(input any) (float64, error) {
	lat, err := ParseAngle(input)
	if err != nil {
		return 0, err
	}
	return signedLatitude(lat), nil
}

// ParseAngularSpeed parses a speed like "2rpm", "10 degrees per second" or
// "0.5 rad per minute" and returns the angle to travel per autorotate frame,
// in radians.
func ParseAngularSpeed(speed string) (float64, error) {
	value, unit, err := splitNumber(speed)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSpeedUnit, speed)
	}

	if strings.HasSuffix(unit, "pm") || strings.HasSuffix(unit, "per minute") {
		value /= 60
	}

	var radPerSecond float64
	switch unit {
	case "rpm", "rev per minute", "revolutions per minute",
		"rps", "rev per second", "revolutions per second":
		radPerSecond = value * twoPi
	case "dpm", "deg per minute", "degrees per minute",
		"dps", "deg per second", "degrees per second":
		radPerSecond = value * math.Pi / 180
	case "rad per minute", "radians per minute",
		"rad per second", "radians per second":
		radPerSecond = value
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSpeedUnit, unit)
	}

	return radPerSecond / FramesPerSecond, nil
}

// splitNumber separates a leading decimal number from its trimmed unit.
func splitNumber(s string) (float64, string, error) {
	s = strings.TrimSpace(s)
	m := numberWithUnit.FindStringSubmatch(s)
	if m == nil {
		return 0, "", fmt.Errorf("%w: %q", ErrInvalidAngle, s)
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w: %q", ErrInvalidAngle, s)
	}
	return value, strings.TrimSpace(m[2]), nil
}

// dist2 returns the squared distance between two points.
func dist2(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return dx*dx + dy*dy
}
