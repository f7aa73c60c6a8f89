package gamemath

// Mat2 is a row-major 2x2 matrix:
//
//	| A B |
//	| C D |
type Mat2 struct {
	A, B Fixed
	C, D Fixed
}

var (
	Identity   = Mat2{A: One, D: One}
	Rotation90 = Mat2{B: -One, C: One}
)

// Scaling returns a uniform scale matrix.
func Scaling(s Fixed) Mat2 {
	return Mat2{A: s, D: s}
}

// MulVec returns m·v.
func (m Mat2) MulVec(v Fixed2) Fixed2 {
	return Fixed2{
		X: m.A.Mul(v.X).Add(m.B.Mul(v.Y)),
		Y: m.C.Mul(v.X).Add(m.D.Mul(v.Y)),
	}
}

// Mul returns m·n.
func (m Mat2) Mul(n Mat2) Mat2 {
	return Mat2{
		A: m.A.Mul(n.A).Add(m.B.Mul(n.C)),
		B: m.A.Mul(n.B).Add(m.B.Mul(n.D)),
		C: m.C.Mul(n.A).Add(m.D.Mul(n.C)),
		D: m.C.Mul(n.B).Add(m.D.Mul(n.D)),
	}
}
