package rules

import (
	"fmt"
	"math"
)

// Knot is one point of a piecewise-linear normalization curve.
type Knot struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bands maps a raw factor value into [-1, 1]. Values left of the first knot
// take its Y, values right of the last knot take the last Y, and values in
// between are interpolated linearly.
type Bands []Knot

// Linear maps lo to -1 and hi to +1.
func Linear(lo, hi float64) Bands {
	return Bands{{X: lo, Y: -1}, {X: hi, Y: 1}}
}

// Inverse maps lo to +1 and hi to -1, for factors where lower is better.
func Inverse(lo, hi float64) Bands {
	return Bands{{X: lo, Y: 1}, {X: hi, Y: -1}}
}

func (b Bands) Normalize(x float64) float64 {
	if len(b) == 0 || math.IsNaN(x) {
		return 0
	}
	if x <= b[0].X {
		return b[0].Y
	}
	for i := 1; i < len(b); i++ {
		hi := b[i]
		if x > hi.X {
			continue
		}
		lo := b[i-1]
		t := (x - lo.X) / (hi.X - lo.X)
		return lo.Y + t*(hi.Y-lo.Y)
	}
	return b[len(b)-1].Y
}

// Validate checks that knots are strictly increasing in X and bounded in Y.
func (b Bands) Validate() error {
	if len(b) == 0 {
		return fmt.Errorf("bands: no knots")
	}
	for i, k := range b {
		if math.IsNaN(k.X) || math.IsInf(k.X, 0) {
			return fmt.Errorf("bands: knot %d has non-finite x", i)
		}
		if k.Y < -1 || k.Y > 1 {
			return fmt.Errorf("bands: knot %d y=%v outside [-1, 1]", i, k.Y)
		}
		if i > 0 && k.X <= b[i-1].X {
			return fmt.Errorf("bands: knot %d x=%v not after %v", i, k.X, b[i-1].X)
		}
	}
	return nil
}
