package photosphere

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().validate(); err != nil {
		t.Fatalf("DefaultConfig invalid: %v", err)
	}
	s := DefaultConfig().resolve()
	if !s.limits.WholeCircle() {
		t.Error("default limits should be a whole circle")
	}
	if s.limits.TiltDownMax != -math.Pi/2 || s.limits.TiltUpMax != math.Pi/2 {
		t.Errorf("tilt = [%v, %v]", s.limits.TiltDownMax, s.limits.TiltUpMax)
	}
	if !s.controller.Autorotate || s.controller.AnimDelay != 2*time.Second {
		t.Errorf("autorotate = %v delay %v", s.controller.Autorotate, s.controller.AnimDelay)
	}
	if s.animErr != nil {
		t.Errorf("animErr = %v", s.animErr)
	}
}

func TestParseConfig(t *testing.T) {
	data := []byte(`
panorama: pano.jpg
segments: 64
rings: 32
default_position:
  long: 90deg
  lat: -30deg
min_fov: 0
max_fov: 200
zoom_level: 40.6
tilt_up_max: 45deg
tilt_down_max: 1.0
anim_speed: 10 degrees per second
time_anim: -1
pano_size:
  full_width: 6000
captured_view:
  horizontal_fov: 180
  vertical_fov: 90
`)
	cfg, err := ParseConfig(data)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Panorama != "pano.jpg" || cfg.Segments != 64 || cfg.Rings != 32 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.PanoSize.FullWidth == nil || *cfg.PanoSize.FullWidth != 6000 || cfg.PanoSize.FullHeight != nil {
		t.Errorf("pano_size = %+v", cfg.PanoSize)
	}
	if cfg.CapturedView.HorizontalFov != 180 {
		t.Errorf("captured_view = %+v", cfg.CapturedView)
	}
	// Unset fields keep their defaults.
	if cfg.LongOffset != Angle(math.Pi/360) || !cfg.AllowScrollToZoom {
		t.Errorf("defaults lost: long_offset %v, scroll %v", cfg.LongOffset, cfg.AllowScrollToZoom)
	}

	s := cfg.resolve()
	if s.limits.MinFov != 1 || s.limits.MaxFov != 179 {
		t.Errorf("fov = [%v, %v], want [1, 179]", s.limits.MinFov, s.limits.MaxFov)
	}
	if !approxEqual(s.limits.TiltUpMax, math.Pi/4, 1e-12) || s.limits.TiltDownMax != -1 {
		t.Errorf("tilt = [%v, %v]", s.limits.TiltDownMax, s.limits.TiltUpMax)
	}
	if !approxEqual(s.start.Longitude, math.Pi/2, 1e-12) || !approxEqual(s.start.Latitude, -math.Pi/6, 1e-12) {
		t.Errorf("start = %+v", s.start)
	}
	if s.zoom != 41 {
		t.Errorf("zoom = %v, want 41", s.zoom)
	}
	if s.controller.AnimDelay >= 0 {
		t.Errorf("AnimDelay = %v, want negative", s.controller.AnimDelay)
	}
	if want := 10 * math.Pi / 180 / FramesPerSecond; !approxEqual(s.controller.AnimLongOffset, want, 1e-12) {
		t.Errorf("AnimLongOffset = %v, want %v", s.controller.AnimLongOffset, want)
	}
}

func TestResolveLatitudeClampedToTilt(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TiltDownMax = Angle(0.2)
	cfg.DefaultPosition.Lat = Angle(twoPi - 1)
	cfg.VerticalAnimTarget = Angle(twoPi - 1)
	s := cfg.resolve()
	if s.start.Latitude != -0.2 {
		t.Errorf("start latitude = %v, want -0.2", s.start.Latitude)
	}
	if s.controller.AnimLatTarget != -0.2 {
		t.Errorf("anim target = %v, want -0.2", s.controller.AnimLatTarget)
	}
}

func TestResolveLongitudeLimits(t *testing.T) {
	tests := []struct {
		name             string
		min, max         float64
		wantMin, wantMax float64
		whole            bool
	}{
		{"equal is whole circle", 1, 1, 0, 0, true},
		{"zero max means full turn", 1, 0, 1, twoPi, false},
		{"swapped", 4, 2, 2, 4, false},
		{"ordered", 1, 3, 1, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.MinLongitude = Angle(tt.min)
			cfg.MaxLongitude = Angle(tt.max)
			l := cfg.resolve().limits
			if l.WholeCircle() != tt.whole || l.MinLongitude != tt.wantMin || l.MaxLongitude != tt.wantMax {
				t.Errorf("limits = [%v, %v] whole=%v", l.MinLongitude, l.MaxLongitude, l.WholeCircle())
			}
		})
	}
}

func TestResolveDefaultLongitudeClamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinLongitude = Angle(1)
	cfg.MaxLongitude = Angle(2)
	cfg.DefaultPosition.Long = Angle(3)
	if got := cfg.resolve().start.Longitude; got != 2 {
		t.Errorf("start longitude = %v, want 2", got)
	}
}

func TestResolveBadSpeedDisablesAutorotate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AnimSpeed = "2 furlongs"
	s := cfg.resolve()
	if s.controller.Autorotate {
		t.Error("autorotate should be disabled")
	}
	if !errors.Is(s.animErr, ErrUnknownSpeedUnit) {
		t.Errorf("animErr = %v, want ErrUnknownSpeedUnit", s.animErr)
	}
}

func TestResolveNavbarNeedsInteractions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Navbar = true
	cfg.AllowUserInteractions = false
	if cfg.resolve().controller.ShowNavbar {
		t.Error("navbar shown with interactions disabled")
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"segments", "segments: 2", "segments"},
		{"rings", "rings: 1", "rings"},
		{"texture size", "max_texture_size: -1", "max_texture_size"},
		{"eyes", "eyes_offset: -3", "eyes_offset"},
		{"target anim", "target_anim_ms: -5", "target_anim_ms"},
		{"captured view", "captured_view: {horizontal_fov: 500}", "horizontal_fov"},
		{"angle unit", "tilt_up_max: 10grad", "invalid angle"},
		{"angle shape", "tilt_up_max: [1, 2]", "scalar"},
		{"yaml", "segments: [", "unmarshal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.yaml")
	if err := os.WriteFile(path, []byte("debug: true\nnavbar: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug || !cfg.Navbar || cfg.Segments != 200 {
		t.Errorf("cfg = %+v", cfg)
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
