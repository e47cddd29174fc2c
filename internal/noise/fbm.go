package noise

// Fbm layers octaves of a Source (fractional Brownian motion).
// Octave i samples at Frequency*Lacunarity^i with amplitude Gain^(i+1).
type Fbm struct {
	src   Source
	freqs []float64
	ampls []float64
}

// NewFbm precomputes the octave table.
func NewFbm(src Source, frequency float64, octaves int, lacunarity, gain float64) *Fbm {
	if octaves < 1 {
		octaves = 1
	}
	f := &Fbm{
		src:   src,
		freqs: make([]float64, octaves),
		ampls: make([]float64, octaves),
	}
	f.freqs[0] = frequency
	f.ampls[0] = gain
	for i := 1; i < octaves; i++ {
		f.freqs[i] = f.freqs[i-1] * lacunarity
		f.ampls[i] = f.ampls[i-1] * gain
	}
	return f
}

// Eval2 returns the octave sum at (x, y).
func (f *Fbm) Eval2(x, y float64) float64 {
	total := 0.0
	for i, freq := range f.freqs {
		total += f.src.Eval2(x*freq, y*freq) * f.ampls[i]
	}
	return total
}

// Octaves returns the number of layered octaves.
func (f *Fbm) Octaves() int {
	return len(f.freqs)
}
