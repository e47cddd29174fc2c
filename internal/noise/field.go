package noise

import (
	"fmt"
	"math"
)

const (
	MinElevation = 0
	MaxElevation = 4
	MinMoisture  = 1
	MaxMoisture  = 6
)

// FieldConfig parameterizes a terrain field.
type FieldConfig struct {
	ElevationSeed int64
	MoistureSeed  int64
	Extent        int
	Frequency     float64
	Octaves       int
	Lacunarity    float64
	Gain          float64
	Source        string
}

// DefaultFieldConfig mirrors the reference world.
func DefaultFieldConfig() FieldConfig {
	return FieldConfig{
		ElevationSeed: 167,
		MoistureSeed:  98,
		Extent:        2048,
		Frequency:     0.007,
		Octaves:       8,
		Lacunarity:    2.0,
		Gain:          0.5,
		Source:        SourceSimplex,
	}
}

// Field maps planar coordinates to discrete elevation and moisture.
// It holds no mutable state and is safe for concurrent use.
type Field struct {
	elevation *Fbm
	moisture  *Fbm
	center    float64
	halfDiag  float64
}

// NewField builds the elevation and moisture generators.
func NewField(cfg FieldConfig) (*Field, error) {
	if cfg.Extent <= 0 {
		return nil, fmt.Errorf("noise field extent must be positive, got %d", cfg.Extent)
	}
	if cfg.Lacunarity == 0 {
		cfg.Lacunarity = 2.0
	}
	if cfg.Gain == 0 {
		cfg.Gain = 0.5
	}

	elevSrc, err := NewSource(cfg.Source, cfg.ElevationSeed)
	if err != nil {
		return nil, err
	}
	moistSrc, err := NewSource(cfg.Source, cfg.MoistureSeed)
	if err != nil {
		return nil, err
	}

	half := float64(cfg.Extent) / 2
	return &Field{
		elevation: NewFbm(elevSrc, cfg.Frequency, cfg.Octaves, cfg.Lacunarity, cfg.Gain),
		moisture:  NewFbm(moistSrc, cfg.Frequency, cfg.Octaves, cfg.Lacunarity, cfg.Gain),
		center:    half,
		halfDiag:  math.Sqrt(2 * half * half),
	}, nil
}

// Elevation returns an integer in [MinElevation, MaxElevation].
// A radial falloff pushes terrain far from the centre toward 0 (ocean).
func (f *Field) Elevation(x, y int) int {
	fx, fy := float64(x), float64(y)
	dist := math.Hypot(fx-f.center, fy-f.center)
	falloff := math.Pow(1.5*dist/f.halfDiag, 7)

	v := f.elevation.Eval2(fx, fy) - falloff
	return clamp(math.Floor(8*((v+1)/2))-2, MinElevation, MaxElevation)
}

// Moisture returns an integer in [MinMoisture, MaxMoisture].
func (f *Field) Moisture(x, y int) int {
	v := f.moisture.Eval2(float64(x), float64(y))
	return clamp(1+math.Floor(6*((v+1)/2)), MinMoisture, MaxMoisture)
}

// Sample returns elevation and moisture together.
func (f *Field) Sample(x, y int) (elevation, moisture int) {
	return f.Elevation(x, y), f.Moisture(x, y)
}

// clamp bounds v in float space so very large magnitudes never reach int conversion.
func clamp(v float64, lo, hi int) int {
	if math.IsNaN(v) || v < float64(lo) {
		return lo
	}
	if v > float64(hi) {
		return hi
	}
	return int(v)
}
