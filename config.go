package photosphere

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Angle is a config angle in radians. In YAML it is written as a number of
// radians or as a string with a deg or rad suffix ("45deg", "1.2rad").
// Values are normalized into [0, 2π).
type Angle float64

// UnmarshalYAML parses numbers and suffixed strings through ParseAngle.
func (a *Angle) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: angle must be a scalar", n.Line)
	}
	var input any = n.Value
	if n.Tag == "!!int" || n.Tag == "!!float" {
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		input = f
	}
	v, err := ParseAngle(input)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*a = Angle(v)
	return nil
}

// MarshalYAML writes the angle as radians.
func (a Angle) MarshalYAML() (any, error) {
	return float64(a), nil
}

// DefaultPosition is the initial camera orientation.
type DefaultPosition struct {
	Long Angle `yaml:"long"`
	Lat  Angle `yaml:"lat"`
}

// Config holds every viewer setting. It is validated once by NewViewer.
type Config struct {
	// Panorama is the default image path, URL or data URI.
	Panorama string `yaml:"panorama"`

	Segments     int          `yaml:"segments"`
	Rings        int          `yaml:"rings"`
	UseXMPData   bool         `yaml:"usexmpdata"`
	PanoSize     CropSpec     `yaml:"pano_size"`
	CapturedView CapturedView `yaml:"captured_view"`

	DefaultPosition DefaultPosition `yaml:"default_position"`
	MinFov          float64         `yaml:"min_fov"` // degrees, clamped to [1, 179]
	MaxFov          float64         `yaml:"max_fov"` // degrees, clamped to [1, 179]
	ZoomLevel       float64         `yaml:"zoom_level"`

	AllowUserInteractions bool `yaml:"allow_user_interactions"`
	AllowScrollToZoom     bool `yaml:"allow_scroll_to_zoom"`

	TiltUpMax    Angle `yaml:"tilt_up_max"`
	TiltDownMax  Angle `yaml:"tilt_down_max"`
	MinLongitude Angle `yaml:"min_longitude"`
	MaxLongitude Angle `yaml:"max_longitude"`

	SmoothUserMoves    bool  `yaml:"smooth_user_moves"`
	LongOffset         Angle `yaml:"long_offset"`
	LatOffset          Angle `yaml:"lat_offset"`
	KeyboardLongOffset Angle `yaml:"keyboard_long_offset"`
	KeyboardLatOffset  Angle `yaml:"keyboard_lat_offset"`

	TimeAnim           int    `yaml:"time_anim"` // ms, negative disables
	AnimRearm          bool   `yaml:"anim_rearm"`
	ReverseAnim        bool   `yaml:"reverse_anim"`
	AnimSpeed          string `yaml:"anim_speed"`
	VerticalAnimSpeed  string `yaml:"vertical_anim_speed"`
	VerticalAnimTarget Angle  `yaml:"vertical_anim_target"`

	EyesOffset     float64 `yaml:"eyes_offset"`
	Navbar         bool    `yaml:"navbar"`
	TargetAnimMs   int     `yaml:"target_anim_ms"`
	MaxTextureSize int     `yaml:"max_texture_size"`
	Debug          bool    `yaml:"debug"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Segments:              200,
		Rings:                 100,
		UseXMPData:            true,
		CapturedView:          FullSphere,
		MinFov:                30,
		MaxFov:                90,
		AllowUserInteractions: true,
		AllowScrollToZoom:     true,
		TiltUpMax:             Angle(math.Pi / 2),
		TiltDownMax:           Angle(math.Pi / 2),
		SmoothUserMoves:       true,
		LongOffset:            Angle(math.Pi / 360),
		LatOffset:             Angle(math.Pi / 180),
		KeyboardLongOffset:    Angle(math.Pi / 60),
		KeyboardLatOffset:     Angle(math.Pi / 120),
		TimeAnim:              2000,
		ReverseAnim:           true,
		AnimSpeed:             "2rpm",
		VerticalAnimSpeed:     "2rpm",
		EyesOffset:            5,
		MaxTextureSize:        DefaultMaxTextureSize,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML on top of DefaultConfig and validates it.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate rejects settings that cannot be clamped into shape.
func (c Config) validate() error {
	if c.Segments < 3 {
		return fmt.Errorf("segments must be >= 3, got %d", c.Segments)
	}
	if c.Rings < 2 {
		return fmt.Errorf("rings must be >= 2, got %d", c.Rings)
	}
	if c.MaxTextureSize < 0 {
		return fmt.Errorf("max_texture_size must be >= 0, got %d", c.MaxTextureSize)
	}
	if math.IsNaN(c.MinFov) || math.IsNaN(c.MaxFov) || math.IsNaN(c.ZoomLevel) {
		return fmt.Errorf("min_fov, max_fov and zoom_level must be numbers")
	}
	if c.EyesOffset < 0 {
		return fmt.Errorf("eyes_offset must be >= 0, got %g", c.EyesOffset)
	}
	if c.TargetAnimMs < 0 {
		return fmt.Errorf("target_anim_ms must be >= 0, got %d", c.TargetAnimMs)
	}
	if err := c.CapturedView.validate(); err != nil {
		return err
	}
	return nil
}

// settings is a Config resolved into the values the engine works with.
type settings struct {
	limits     ViewLimits
	start      Position
	zoom       float64
	controller ControllerOptions
	load       LoadOptions
	eyesOffset float64
	// animErr is set when a speed could not be parsed and autorotate is off.
	animErr error
}

// resolve applies the clamps and derived defaults of every field.
func (c Config) resolve() settings {
	var l ViewLimits
	l.MinFov = Clamp(c.MinFov, 1, 179)
	l.MaxFov = Clamp(c.MaxFov, 1, 179)
	l.TiltUpMax = Clamp(float64(c.TiltUpMax), 0, math.Pi/2)
	l.TiltDownMax = -Clamp(float64(c.TiltDownMax), 0, math.Pi/2)

	minLon, maxLon := float64(c.MinLongitude), float64(c.MaxLongitude)
	if minLon != maxLon {
		if maxLon == 0 {
			maxLon = twoPi
		}
		if minLon > maxLon {
			minLon, maxLon = maxLon, minLon
		}
		l.MinLongitude, l.MaxLongitude = minLon, maxLon
	}

	start := Position{
		Longitude: float64(c.DefaultPosition.Long),
		Latitude:  Clamp(signedLatitude(float64(c.DefaultPosition.Lat)), l.TiltDownMax, l.TiltUpMax),
	}
	if !l.WholeCircle() {
		start.Longitude = Clamp(start.Longitude, l.MinLongitude, l.MaxLongitude)
	}

	s := settings{
		limits:     l,
		start:      start,
		zoom:       Clamp(math.Round(c.ZoomLevel), 0, 100),
		eyesOffset: c.EyesOffset,
		load: LoadOptions{
			Crop:            c.PanoSize,
			View:            c.CapturedView,
			ReadXMP:         c.UseXMPData,
			MaxTextureWidth: c.MaxTextureSize,
		},
	}

	opts := ControllerOptions{
		AllowUserInteractions: c.AllowUserInteractions,
		AllowScrollToZoom:     c.AllowScrollToZoom,
		SmoothMoves:           c.SmoothUserMoves,
		LongOffset:            float64(c.LongOffset),
		LatOffset:             float64(c.LatOffset),
		KeyboardLongOffset:    float64(c.KeyboardLongOffset),
		KeyboardLatOffset:     float64(c.KeyboardLatOffset),
		Autorotate:            true,
		AnimDelay:             time.Duration(c.TimeAnim) * time.Millisecond,
		AnimRearm:             c.AnimRearm,
		ReverseAnim:           c.ReverseAnim,
		AnimLatTarget:         Clamp(signedLatitude(float64(c.VerticalAnimTarget)), l.TiltDownMax, l.TiltUpMax),
		TargetAnim:            time.Duration(c.TargetAnimMs) * time.Millisecond,
		ShowNavbar:            c.Navbar && c.AllowUserInteractions,
	}
	if c.TimeAnim < 0 {
		opts.AnimDelay = -1
	}
	lonSpeed, err := ParseAngularSpeed(c.AnimSpeed)
	if err != nil {
		opts.Autorotate = false
		s.animErr = fmt.Errorf("anim_speed: %w", err)
	}
	latSpeed, err := ParseAngularSpeed(c.VerticalAnimSpeed)
	if err != nil {
		opts.Autorotate = false
		s.animErr = fmt.Errorf("vertical_anim_speed: %w", err)
	}
	opts.AnimLongOffset = lonSpeed
	opts.AnimLatOffset = latSpeed
	s.controller = opts
	return s
}

// signedLatitude maps a normalized angle above π into (-π, 0].
func signedLatitude(a float64) float64 {
	if a > math.Pi {
		a -= twoPi
	}
	return a
}
