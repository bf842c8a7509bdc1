// Package threat provides cost fields for path search. A field maps a location,
// and for time-varying fields a time, to a non-negative traversal cost.
package threat

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidShape is returned for a threat whose spread is not positive at
// some time it is evaluated.
var ErrInvalidShape = errors.New("threat shape must stay positive")

// StaticField is a cost field that does not change over time.
type StaticField interface {
	Value(x, y float64) float64
}

// DynamicField is a time-varying cost field.
type DynamicField interface {
	Value(x, y, t float64) float64
}

// StaticFunc adapts a function to a StaticField.
type StaticFunc func(x, y float64) float64

// Value calls f(x, y).
func (f StaticFunc) Value(x, y float64) float64 { return f(x, y) }

// DynamicFunc adapts a function to a DynamicField.
type DynamicFunc func(x, y, t float64) float64

// Value calls f(x, y, t).
func (f DynamicFunc) Value(x, y, t float64) float64 { return f(x, y, t) }

// Constant is a field with the same value everywhere and at all times.
type Constant float64

// Value returns c.
func (c Constant) Value(x, y float64) float64 { return float64(c) }

// AtTime freezes a dynamic field at time t.
func AtTime(field DynamicField, t float64) StaticField {
	return StaticFunc(func(x, y float64) float64 {
		return field.Value(x, y, t)
	})
}

// Static lifts a static field into a dynamic one that ignores time.
func Static(field StaticField) DynamicField {
	return DynamicFunc(func(x, y, _ float64) float64 {
		return field.Value(x, y)
	})
}

// Point is an (x, y) pair.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// GaussThreat is a single stationary Gaussian threat.
type GaussThreat struct {
	Location  Point   `json:"location" yaml:"location"`
	Shape     Point   `json:"shape" yaml:"shape"`
	Intensity float64 `json:"intensity" yaml:"intensity"`
}

func (g GaussThreat) String() string {
	return fmt.Sprintf("GaussThreat: loc = (%g, %g), shape = (%g, %g), intensity = %g",
		g.Location.X, g.Location.Y, g.Shape.X, g.Shape.Y, g.Intensity)
}

// GaussDynamicThreat is a Gaussian threat whose location, shape and intensity
// change linearly with time.
type GaussDynamicThreat struct {
	GaussThreat   `yaml:",inline"`
	LocationRate  Point   `json:"location_rate" yaml:"location_rate"`
	ShapeRate     Point   `json:"shape_rate" yaml:"shape_rate"`
	IntensityRate float64 `json:"intensity_rate" yaml:"intensity_rate"`
}

// SetRates sets all rates at once.
func (g *GaussDynamicThreat) SetRates(locationRate, shapeRate Point, intensityRate float64) {
	g.LocationRate = locationRate
	g.ShapeRate = shapeRate
	g.IntensityRate = intensityRate
}

// SetRatesByStartEnd sets the initial values and derives the rates that reach
// the final values at tFinal.
func (g *GaussDynamicThreat) SetRatesByStartEnd(start, end GaussThreat, tFinal float64) {
	g.GaussThreat = start
	g.LocationRate = Point{X: (end.Location.X - start.Location.X) / tFinal, Y: (end.Location.Y - start.Location.Y) / tFinal}
	g.ShapeRate = Point{X: (end.Shape.X - start.Shape.X) / tFinal, Y: (end.Shape.Y - start.Shape.Y) / tFinal}
	g.IntensityRate = (end.Intensity - start.Intensity) / tFinal
}

// At returns the threat as it stands at time t.
func (g GaussDynamicThreat) At(t float64) GaussThreat {
	return GaussThreat{
		Location:  Point{X: g.Location.X + g.LocationRate.X*t, Y: g.Location.Y + g.LocationRate.Y*t},
		Shape:     Point{X: g.Shape.X + g.ShapeRate.X*t, Y: g.Shape.Y + g.ShapeRate.Y*t},
		Intensity: g.Intensity + g.IntensityRate*t,
	}
}

// CheckShape reports whether both shape components stay positive over
// [0, tFinal]. Shapes change linearly, so the endpoints suffice.
func (g GaussDynamicThreat) CheckShape(tFinal float64) error {
	end := g.At(tFinal).Shape
	if g.Shape.X <= 0 || g.Shape.Y <= 0 || end.X <= 0 || end.Y <= 0 {
		return fmt.Errorf("%w: (%g, %g) at t=0, (%g, %g) at t=%g", ErrInvalidShape,
			g.Shape.X, g.Shape.Y, end.X, end.Y, tFinal)
	}
	return nil
}

func (g GaussDynamicThreat) String() string {
	return fmt.Sprintf("GaussDynamicThreat: loc0 = (%g, %g), shape0 = (%g, %g), intensity0 = %g\nloc_rate = (%.3f, %.3f) shape_rate = (%.3f, %.3f) intensity_rate = %.3f",
		g.Location.X, g.Location.Y, g.Shape.X, g.Shape.Y, g.Intensity,
		g.LocationRate.X, g.LocationRate.Y, g.ShapeRate.X, g.ShapeRate.Y, g.IntensityRate)
}

// gauss evaluates one threat's contribution at x, y.
func gauss(g GaussThreat, x, y float64) float64 {
	dx := (x - g.Location.X) / g.Shape.X
	dy := (y - g.Location.Y) / g.Shape.Y
	return g.Intensity / (2 * g.Shape.X * g.Shape.Y) * math.Exp(-0.5*(dx*dx+dy*dy))
}

// GaussField is a static field built from an offset plus a sum of Gaussians.
type GaussField struct {
	Threats []GaussThreat
	Offset  float64
}

// NewGaussField creates a static Gaussian field.
func NewGaussField(offset float64, threats ...GaussThreat) *GaussField {
	return &GaussField{Threats: threats, Offset: offset}
}

// AddThreat appends a threat to the field.
func (f *GaussField) AddThreat(threat GaussThreat) {
	f.Threats = append(f.Threats, threat)
}

// Value returns the cumulative threat at x, y.
func (f *GaussField) Value(x, y float64) float64 {
	value := f.Offset
	for _, threat := range f.Threats {
		value += gauss(threat, x, y)
	}
	return value
}

func (f *GaussField) String() string {
	return fmt.Sprintf("ThreatField: n_threats = %d", len(f.Threats))
}

// GaussDynamicField is a time-varying field built from an offset plus a sum of
// moving Gaussians.
type GaussDynamicField struct {
	Threats []GaussDynamicThreat
	Offset  float64
}

// NewGaussDynamicField creates a time-varying Gaussian field.
func NewGaussDynamicField(offset float64, threats ...GaussDynamicThreat) *GaussDynamicField {
	return &GaussDynamicField{Threats: threats, Offset: offset}
}

// AddThreat appends a threat to the field.
func (f *GaussDynamicField) AddThreat(threat GaussDynamicThreat) {
	f.Threats = append(f.Threats, threat)
}

// Value returns the cumulative threat at x, y and time t.
func (f *GaussDynamicField) Value(x, y, t float64) float64 {
	value := f.Offset
	for _, threat := range f.Threats {
		value += gauss(threat.At(t), x, y)
	}
	return value
}

func (f *GaussDynamicField) String() string {
	return fmt.Sprintf("ThreatField: n_threats = %d", len(f.Threats))
}
