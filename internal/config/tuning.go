// Package config holds the tunable parameters of the tracking pipeline.
//
// Parameters live in two forms. TuningConfig mirrors the JSON accepted from
// a tuning file or a runtime update: every field is optional, and omitted
// fields keep whatever value they had. Params is the resolved, fully
// populated set the pipeline reads once per frame. Store holds the current
// Params and serialises updates against reads.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path of the checked-in defaults file, relative to
// the repository root.
const DefaultConfigPath = "config/tuning.defaults.json"

// Params is the complete set of pipeline parameters.
type Params struct {
	// Range filter band in millimetres.
	NearLimit uint16 `json:"near_limit"`
	FarLimit  uint16 `json:"far_limit"`

	// Threshold applied to the inverted intensity image and the value
	// written to foreground mask pixels.
	Threshold uint8 `json:"threshold"`
	MaxVal    uint8 `json:"max_val"`

	// Accepted contour area range in square pixels, inclusive.
	MinArea float64 `json:"min_area"`
	MaxArea float64 `json:"max_area"`

	// Largest centroid distance in pixels for a track/candidate match.
	MaxMatchDistance float64 `json:"max_match_distance"`

	// Frames a track may go unmatched before it is evicted.
	StaleFrameLimit int `json:"stale_frame_limit"`

	// Box blur radius for the intensity image; 0 disables it.
	BlurRadius float64 `json:"blur_radius"`

	// Samples within this many millimetres of the captured background are
	// suppressed.
	BackgroundTolerance uint16 `json:"background_tolerance"`

	// Expected frame resolution.
	FrameWidth  int `json:"frame_width"`
	FrameHeight int `json:"frame_height"`
}

// Defaults returns the parameters the tracker starts with.
func Defaults() Params {
	return Params{
		NearLimit:           400,
		FarLimit:            1800,
		Threshold:           75,
		MaxVal:              255,
		MinArea:             75,
		MaxArea:             100000,
		MaxMatchDistance:    5000,
		StaleFrameLimit:     20,
		BlurRadius:          0,
		BackgroundTolerance: 0,
		FrameWidth:          320,
		FrameHeight:         240,
	}
}

// Validate checks the relationships between parameters.
func (p Params) Validate() error {
	if p.NearLimit > p.FarLimit {
		return fmt.Errorf("near_limit (%d) must not exceed far_limit (%d)", p.NearLimit, p.FarLimit)
	}
	if p.MinArea < 0 || math.IsNaN(p.MinArea) {
		return fmt.Errorf("min_area must be non-negative, got %v", p.MinArea)
	}
	if p.MinArea > p.MaxArea || math.IsNaN(p.MaxArea) {
		return fmt.Errorf("min_area (%v) must not exceed max_area (%v)", p.MinArea, p.MaxArea)
	}
	if p.MaxMatchDistance < 0 || math.IsNaN(p.MaxMatchDistance) {
		return fmt.Errorf("max_match_distance must be non-negative, got %v", p.MaxMatchDistance)
	}
	if p.StaleFrameLimit < 0 {
		return fmt.Errorf("stale_frame_limit must be non-negative, got %d", p.StaleFrameLimit)
	}
	if p.BlurRadius < 0 || math.IsNaN(p.BlurRadius) {
		return fmt.Errorf("blur_radius must be non-negative, got %v", p.BlurRadius)
	}
	if p.FrameWidth <= 0 || p.FrameHeight <= 0 {
		return fmt.Errorf("frame size must be positive, got %dx%d", p.FrameWidth, p.FrameHeight)
	}
	return nil
}

// TuningConfig is a partial parameter update. Nil fields are left alone.
//
// Integer fields are decoded as int so out-of-range values can be reported
// instead of silently wrapping.
type TuningConfig struct {
	NearLimit           *int     `json:"near_limit,omitempty"`
	FarLimit            *int     `json:"far_limit,omitempty"`
	Threshold           *int     `json:"threshold,omitempty"`
	MaxVal              *int     `json:"max_val,omitempty"`
	MinArea             *float64 `json:"min_area,omitempty"`
	MaxArea             *float64 `json:"max_area,omitempty"`
	MaxMatchDistance    *float64 `json:"max_match_distance,omitempty"`
	StaleFrameLimit     *int     `json:"stale_frame_limit,omitempty"`
	BlurRadius          *float64 `json:"blur_radius,omitempty"`
	BackgroundTolerance *int     `json:"background_tolerance,omitempty"`
	FrameWidth          *int     `json:"frame_width,omitempty"`
	FrameHeight         *int     `json:"frame_height,omitempty"`
}

// Helper functions to create pointers
func ptrInt(v int) *int             { return &v }
func ptrFloat64(v float64) *float64 { return &v }

// TuningFrom returns a TuningConfig with every field set from p.
func TuningFrom(p Params) *TuningConfig {
	return &TuningConfig{
		NearLimit:           ptrInt(int(p.NearLimit)),
		FarLimit:            ptrInt(int(p.FarLimit)),
		Threshold:           ptrInt(int(p.Threshold)),
		MaxVal:              ptrInt(int(p.MaxVal)),
		MinArea:             ptrFloat64(p.MinArea),
		MaxArea:             ptrFloat64(p.MaxArea),
		MaxMatchDistance:    ptrFloat64(p.MaxMatchDistance),
		StaleFrameLimit:     ptrInt(p.StaleFrameLimit),
		BlurRadius:          ptrFloat64(p.BlurRadius),
		BackgroundTolerance: ptrInt(int(p.BackgroundTolerance)),
		FrameWidth:          ptrInt(p.FrameWidth),
		FrameHeight:         ptrInt(p.FrameHeight),
	}
}

// Validate checks each field that is set for its own range. Cross-field
// checks happen on the resolved Params.
func (c *TuningConfig) Validate() error {
	checks := []struct {
		name   string
		v      *int
		lo, hi int
	}{
		{"near_limit", c.NearLimit, 0, math.MaxUint16},
		{"far_limit", c.FarLimit, 0, math.MaxUint16},
		{"threshold", c.Threshold, 0, math.MaxUint8},
		{"max_val", c.MaxVal, 0, math.MaxUint8},
		{"background_tolerance", c.BackgroundTolerance, 0, math.MaxUint16},
		{"stale_frame_limit", c.StaleFrameLimit, 0, math.MaxInt32},
		{"frame_width", c.FrameWidth, 1, math.MaxInt16},
		{"frame_height", c.FrameHeight, 1, math.MaxInt16},
	}
	for _, chk := range checks {
		if chk.v == nil {
			continue
		}
		if *chk.v < chk.lo || *chk.v > chk.hi {
			return fmt.Errorf("%s must be between %d and %d, got %d", chk.name, chk.lo, chk.hi, *chk.v)
		}
	}
	return nil
}

// ApplyTo returns base with every set field of c copied over it.
// The result is validated as a whole.
func (c *TuningConfig) ApplyTo(base Params) (Params, error) {
	if err := c.Validate(); err != nil {
		return base, err
	}

	p := base
	if c.NearLimit != nil {
		p.NearLimit = uint16(*c.NearLimit)
	}
	if c.FarLimit != nil {
		p.FarLimit = uint16(*c.FarLimit)
	}
	if c.Threshold != nil {
		p.Threshold = uint8(*c.Threshold)
	}
	if c.MaxVal != nil {
		p.MaxVal = uint8(*c.MaxVal)
	}
	if c.MinArea != nil {
		p.MinArea = *c.MinArea
	}
	if c.MaxArea != nil {
		p.MaxArea = *c.MaxArea
	}
	if c.MaxMatchDistance != nil {
		p.MaxMatchDistance = *c.MaxMatchDistance
	}
	if c.StaleFrameLimit != nil {
		p.StaleFrameLimit = *c.StaleFrameLimit
	}
	if c.BlurRadius != nil {
		p.BlurRadius = *c.BlurRadius
	}
	if c.BackgroundTolerance != nil {
		p.BackgroundTolerance = uint16(*c.BackgroundTolerance)
	}
	if c.FrameWidth != nil {
		p.FrameWidth = *c.FrameWidth
	}
	if c.FrameHeight != nil {
		p.FrameHeight = *c.FrameHeight
	}

	if err := p.Validate(); err != nil {
		return base, err
	}
	return p, nil
}

// Params resolves c against Defaults.
func (c *TuningConfig) Params() (Params, error) {
	return c.ApplyTo(Defaults())
}

// LoadTuningConfig reads a TuningConfig from a JSON file.
//
// The path must have a .json extension and the file must be under 1 MB.
// Unknown fields are rejected so typos in a tuning file do not go unnoticed.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	f, err := os.Open(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()

	cfg := &TuningConfig{}
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadParams reads a tuning file and resolves it against Defaults.
func LoadParams(path string) (Params, error) {
	cfg, err := LoadTuningConfig(path)
	if err != nil {
		return Params{}, err
	}
	p, err := cfg.Params()
	if err != nil {
		return Params{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return p, nil
}
