package noise

import (
	"fmt"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Source is a seeded, deterministic 2D gradient noise returning values in roughly [-1, 1].
type Source interface {
	Eval2(x, y float64) float64
}

const (
	SourceSimplex = "simplex"
	SourcePerlin  = "perlin"
)

// NewSimplexSource returns OpenSimplex noise for seed.
func NewSimplexSource(seed int64) Source {
	return opensimplex.New(seed)
}

// perlinSource samples a single perlin octave; layering is done by Fbm.
type perlinSource struct {
	p *perlin.Perlin
}

// NewPerlinSource returns classic perlin noise for seed.
func NewPerlinSource(seed int64) Source {
	alpha := 2.0
	beta := 2.0
	n := int32(1)
	return perlinSource{p: perlin.NewPerlin(alpha, beta, n, seed)}
}

func (s perlinSource) Eval2(x, y float64) float64 {
	return s.p.Noise2D(x, y)
}

// NewSource builds a source by name. An empty name selects simplex.
func NewSource(kind string, seed int64) (Source, error) {
	switch kind {
	case "", SourceSimplex:
		return NewSimplexSource(seed), nil
	case SourcePerlin:
		return NewPerlinSource(seed), nil
	default:
		return nil, fmt.Errorf("unknown noise source %q", kind)
	}
}
