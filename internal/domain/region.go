package domain

import "math"

// Point is a pointer position in viewport (CSS pixel) coordinates.
type Point struct {
	X float64
	Y float64
}

// Region is an axis-aligned rectangle in viewport coordinates.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RegionFromPoints builds the rectangle spanned by two corners regardless of
// drag direction.
func RegionFromPoints(a, b Point) Region {
	return Region{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// Valid reports whether the region is larger than MinRegionSize on both axes.
func (r Region) Valid() bool {
	return r.Width > MinRegionSize && r.Height > MinRegionSize
}

// Scale multiplies every coordinate by ratio (device pixel ratio). A
// non-positive ratio is treated as 1.
func (r Region) Scale(ratio float64) Region {
	if ratio <= 0 {
		ratio = 1
	}
	return Region{
		X:      r.X * ratio,
		Y:      r.Y * ratio,
		Width:  r.Width * ratio,
		Height: r.Height * ratio,
	}
}
