package gamemath

import (
	"math"
	"testing"
)

func TestFromIntExact(t *testing.T) {
	tests := []int64{0, 1, -1, 10, -12345, maxInt, minInt}
	for _, i := range tests {
		f := FromInt(i)
		if f.Int() != i {
			t.Errorf("FromInt(%d).Int() = %d", i, f.Int())
		}
		if f.Raw() != i<<FracBits {
			t.Errorf("FromInt(%d) raw = %d, want %d", i, f.Raw(), i<<FracBits)
		}
	}
}

func TestFromIntOverflowPanics(t *testing.T) {
	defer func() {
		if r := recover(); r != ErrOverflow {
			t.Fatalf("expected ErrOverflow panic, got %v", r)
		}
	}()
	FromInt(maxInt + 1)
}

func TestFromRatio(t *testing.T) {
	tests := []struct {
		num, den int64
		want     Fixed
	}{
		{1, 2, Half},
		{3, 1, 3 * One},
		{-1, 4, -One / 4},
		{30, 1000, 1966}, // 0.03 * 65536 = 1966.08, truncated
		{-30, 1000, -1966},
	}
	for _, tt := range tests {
		if got := FromRatio(tt.num, tt.den); got != tt.want {
			t.Errorf("FromRatio(%d, %d) = %d, want %d", tt.num, tt.den, got, tt.want)
		}
	}
}

func TestMul(t *testing.T) {
	tests := []struct {
		a, b, want Fixed
	}{
		{FromInt(3), FromInt(4), FromInt(12)},
		{FromInt(-3), FromInt(4), FromInt(-12)},
		{Half, Half, One / 4},
		{FromInt(10), 1966, 19660},
		{-1, 1, 0}, // truncates toward zero
		{FromInt(1 << 40), FromInt(64), FromInt(1 << 46)},
	}
	for _, tt := range tests {
		if got := tt.a.Mul(tt.b); got != tt.want {
			t.Errorf("%d * %d = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := tt.b.Mul(tt.a); got != tt.want {
			t.Errorf("mul not commutative for %d, %d", tt.a, tt.b)
		}
	}
}

func TestCheckedOverflow(t *testing.T) {
	big := FromInt(maxInt)
	if _, ok := CheckedMul(big, FromInt(2)); ok {
		t.Error("CheckedMul should overflow")
	}
	if _, ok := CheckedAdd(Fixed(math.MaxInt64), 1); ok {
		t.Error("CheckedAdd should overflow")
	}
	if _, ok := CheckedSub(Fixed(math.MinInt64), 1); ok {
		t.Error("CheckedSub should overflow")
	}
	if _, ok := CheckedDiv(One, 0); ok {
		t.Error("CheckedDiv by zero should fail")
	}
	if _, ok := CheckedDiv(big, 1); ok {
		t.Error("CheckedDiv should overflow")
	}
	if r, ok := CheckedMul(FromInt(1<<20), FromInt(1<<20)); !ok || r != FromInt(1<<40) {
		t.Errorf("CheckedMul in range = %d, %v", r, ok)
	}
}

func TestMulPanicsOnOverflow(t *testing.T) {
	defer func() {
		if r := recover(); r != ErrOverflow {
			t.Fatalf("expected ErrOverflow panic, got %v", r)
		}
	}()
	FromInt(1 << 40).Mul(FromInt(1 << 40))
}

func TestDiv(t *testing.T) {
	if got := FromInt(12).Div(FromInt(4)); got != FromInt(3) {
		t.Errorf("12/4 = %s", got)
	}
	if got := FromInt(-1).Div(FromInt(2)); got != -Half {
		t.Errorf("-1/2 = %s", got)
	}
	if got := One.Div(FromInt(3)); got != 21845 {
		t.Errorf("1/3 = %d", got)
	}
}

func TestFloatConversionIsRenderOnly(t *testing.T) {
	if got := FromInt(5).Add(Half).ToFloat64(); got != 5.5 {
		t.Errorf("ToFloat64 = %v", got)
	}
	if got := FromFloat64(-2.25); got != FromInt(-2).Sub(One/4) {
		t.Errorf("FromFloat64(-2.25) = %d", got)
	}
}

func TestVectorOps(t *testing.T) {
	a := Vec2(10, 0)
	b := Vec2(3, -4)

	if got := a.Sub(b); got != Vec2(7, 4) {
		t.Errorf("Sub = %s", got)
	}
	if got := a.Add(b); got != Vec2(13, -4) {
		t.Errorf("Add = %s", got)
	}
	if got := b.Scale(Half); got != (Fixed2{X: FromRatio(3, 2), Y: FromInt(-2)}) {
		t.Errorf("Scale = %s", got)
	}
	if got := a.Dot(b); got != FromInt(30) {
		t.Errorf("Dot = %s", got)
	}
	if got := b.Neg(); got != Vec2(-3, 4) {
		t.Errorf("Neg = %s", got)
	}
}

func TestRotation90(t *testing.T) {
	v := Vec2(10, 0)
	if got := v.Perp(); got != Vec2(0, 10) {
		t.Errorf("Perp(10,0) = %s", got)
	}
	full := Rotation90.Mul(Rotation90).Mul(Rotation90).Mul(Rotation90)
	if full != Identity {
		t.Errorf("R90^4 = %+v, want identity", full)
	}
	if got := Scaling(FromInt(2)).MulVec(Vec2(3, -1)); got != Vec2(6, -2) {
		t.Errorf("Scaling = %s", got)
	}
}

// Same inputs must give the same bits no matter how often they are evaluated.
func TestMulIsReproducible(t *testing.T) {
	x := Fixed(0x1234_5678_9abc)
	y := Fixed(-0x0000_0003_1415)
	want := x.Mul(y)
	for i := 0; i < 1000; i++ {
		if got := x.Mul(y); got != want {
			t.Fatalf("iteration %d: %d != %d", i, got, want)
		}
	}
}
