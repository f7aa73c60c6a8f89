package gamemath

import "fmt"

// Fixed2 is a 2D vector of Q48.16 components.
type Fixed2 struct {
	X, Y Fixed
}

// Zero2 is the origin.
var Zero2 = Fixed2{}

// Vec2 builds a vector from integer coordinates.
func Vec2(x, y int64) Fixed2 {
	return Fixed2{X: FromInt(x), Y: FromInt(y)}
}

func (v Fixed2) Add(w Fixed2) Fixed2 {
	return Fixed2{X: v.X.Add(w.X), Y: v.Y.Add(w.Y)}
}

func (v Fixed2) Sub(w Fixed2) Fixed2 {
	return Fixed2{X: v.X.Sub(w.X), Y: v.Y.Sub(w.Y)}
}

// Scale multiplies both components by s.
func (v Fixed2) Scale(s Fixed) Fixed2 {
	return Fixed2{X: v.X.Mul(s), Y: v.Y.Mul(s)}
}

func (v Fixed2) Neg() Fixed2 {
	return Fixed2{X: v.X.Neg(), Y: v.Y.Neg()}
}

// Dot returns x1*x2 + y1*y2.
func (v Fixed2) Dot(w Fixed2) Fixed {
	return v.X.Mul(w.X).Add(v.Y.Mul(w.Y))
}

// Perp rotates 90° counter-clockwise.
func (v Fixed2) Perp() Fixed2 {
	return Rotation90.MulVec(v)
}

func (v Fixed2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// Float64 is for rendering only.
func (v Fixed2) Float64() (float64, float64) {
	return v.X.ToFloat64(), v.Y.ToFloat64()
}

func (v Fixed2) String() string {
	return fmt.Sprintf("(%s, %s)", v.X, v.Y)
}
