package photosphere

import (
	"errors"
	"math"
	"testing"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		name       string
		in         float64
		allowTwoPi bool
		want       float64
	}{
		{"zero", 0, false, 0},
		{"inside", 1, false, 1},
		{"negative", -math.Pi / 2, false, 3 * math.Pi / 2},
		{"two pi", twoPi, false, 0},
		{"two pi allowed", twoPi, true, twoPi},
		{"above two pi allowed", twoPi + 1, true, 1},
		{"many turns", 7 * twoPi, false, 0},
		{"many negative turns", -3*twoPi - 1, false, twoPi - 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeAngle(tt.in, tt.allowTwoPi); !approxEqual(got, tt.want, 1e-9) {
				t.Errorf("NormalizeAngle(%v, %v) = %v, want %v", tt.in, tt.allowTwoPi, got, tt.want)
			}
		})
	}
}

func TestNormalizeAngleRangeAndIdempotent(t *testing.T) {
	inputs := []float64{-1e-17, -math.SmallestNonzeroFloat64, math.SmallestNonzeroFloat64, -twoPi, twoPi}
	for a := -50.0; a <= 50; a += 0.37 {
		inputs = append(inputs, a)
	}
	for _, a := range inputs {
		n := NormalizeAngle(a, false)
		if n < 0 || n >= twoPi {
			t.Fatalf("NormalizeAngle(%v) = %v, outside [0, 2π)", a, n)
		}
		if nn := NormalizeAngle(n, false); nn != n {
			t.Fatalf("NormalizeAngle not idempotent at %v: %v != %v", a, nn, n)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		x, lo, hi, want float64
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{11, 0, 10, 10},
		{0, 0, 0, 0},
	}
	for _, tt := range tests {
		if got := Clamp(tt.x, tt.lo, tt.hi); got != tt.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tt.x, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestParseAngle(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"float radians", 1.5, 1.5},
		{"int radians", 3, 3},
		{"degrees", "90deg", math.Pi / 2},
		{"degrees with space", " 180 deg ", math.Pi},
		{"radians suffix", "1.25rad", 1.25},
		{"bare string", "2", 2},
		{"negative degrees", "-90deg", 3 * math.Pi / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAngle(tt.in)
			if err != nil {
				t.Fatalf("ParseAngle(%v): %v", tt.in, err)
			}
			if !approxEqual(got, tt.want, 1e-9) {
				t.Errorf("ParseAngle(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseAngleErrors(t *testing.T) {
	for _, in := range []any{"abc", "10grad", "", true, math.NaN(), math.Inf(1)} {
		if _, err := ParseAngle(in); !errors.Is(err, ErrInvalidAngle) {
			t.Errorf("ParseAngle(%v) error = %v, want ErrInvalidAngle", in, err)
		}
	}
}

func TestParseLatitude(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{"30deg", math.Pi / 6},
		{"-30deg", -math.Pi / 6},
		{"330deg", -math.Pi / 6},
		{"180deg", math.Pi},
		{0.0, 0},
	}
	for _, tt := range tests {
		got, err := ParseLatitude(tt.in)
		if err != nil {
			t.Fatalf("ParseLatitude(%v): %v", tt.in, err)
		}
		if !approxEqual(got, tt.want, 1e-9) {
			t.Errorf("ParseLatitude(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseAngularSpeed(t *testing.T) {
	perFrame := func(radPerSecond float64) float64 { return radPerSecond / FramesPerSecond }
	tests := []struct {
		in   string
		want float64
	}{
		{"2rpm", perFrame(2 * twoPi / 60)},
		{"1rps", perFrame(twoPi)},
		{"0.5 revolutions per second", perFrame(math.Pi)},
		{"60dpm", perFrame(math.Pi / 180)},
		{"10 degrees per second", perFrame(10 * math.Pi / 180)},
		{"1dps", perFrame(math.Pi / 180)},
		{"3 rad per minute", perFrame(3.0 / 60)},
		{"1 radians per second", perFrame(1)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAngularSpeed(tt.in)
			if err != nil {
				t.Fatalf("ParseAngularSpeed(%q): %v", tt.in, err)
			}
			if !approxEqual(got, tt.want, 1e-12) {
				t.Errorf("ParseAngularSpeed(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseAngularSpeedUnknownUnit(t *testing.T) {
	for _, in := range []string{"2 furlongs per fortnight", "fast", "", "2"} {
		if _, err := ParseAngularSpeed(in); !errors.Is(err, ErrUnknownSpeedUnit) {
			t.Errorf("ParseAngularSpeed(%q) error = %v, want ErrUnknownSpeedUnit", in, err)
		}
	}
}

func TestFrameInterval(t *testing.T) {
	if got := FrameInterval.Seconds() * FramesPerSecond; !approxEqual(got, 1, 1e-6) {
		t.Errorf("FrameInterval × FramesPerSecond = %v s, want 1", got)
	}
}
