package threat

import "math/rand"

const (
	minRandomThreats = 1
	maxRandomThreats = 20
	shapeFactor      = 0.1
	maxIntensity     = 5.0
	minShape         = 1e-6
)

// Bounds is the workspace and horizon a random field is drawn over.
type Bounds struct {
	XSize  float64
	YSize  float64
	TFinal float64
}

// RandomOptions controls random field generation. A zero Count draws a random
// number of threats.
type RandomOptions struct {
	Count          int
	FixedLocation  bool
	FixedShape     bool
	FixedIntensity bool
}

// GenerateRandom adds randomly drawn threats to field. Each threat starts and
// ends at independent random values and moves linearly between them over the
// horizon, unless the matching Fixed option pins it.
func GenerateRandom(rng *rand.Rand, field *GaussDynamicField, bounds Bounds, opts RandomOptions) {
	count := opts.Count
	if count <= 0 {
		count = minRandomThreats + rng.Intn(maxRandomThreats-minRandomThreats)
	}

	for i := 0; i < count; i++ {
		start := GaussThreat{
			Location:  Point{X: rng.Float64() * bounds.XSize, Y: rng.Float64() * bounds.YSize},
			Shape:     Point{X: randomShape(rng, bounds.XSize), Y: randomShape(rng, bounds.YSize)},
			Intensity: rng.Float64() * maxIntensity,
		}
		end := GaussThreat{
			Location:  Point{X: rng.Float64() * bounds.XSize, Y: rng.Float64() * bounds.YSize},
			Shape:     Point{X: randomShape(rng, bounds.XSize), Y: randomShape(rng, bounds.YSize)},
			Intensity: rng.Float64() * maxIntensity,
		}
		if opts.FixedLocation {
			end.Location = start.Location
		}
		if opts.FixedShape {
			end.Shape = start.Shape
		}
		if opts.FixedIntensity {
			end.Intensity = start.Intensity
		}

		var threat GaussDynamicThreat
		threat.SetRatesByStartEnd(start, end, bounds.TFinal)
		field.AddThreat(threat)
	}
}

func randomShape(rng *rand.Rand, size float64) float64 {
	shape := rng.Float64() * shapeFactor * size
	if shape < minShape {
		return minShape
	}
	return shape
}
