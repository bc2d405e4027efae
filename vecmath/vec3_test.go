package vecmath

import (
	"math"
	"testing"
)

func TestVec3Creation(t *testing.T) {
	v := NewVec3(1.0, 2.0, 3.0)

	if v.X != 1.0 {
		t.Errorf("Expected X=1.0, got %f", v.X)
	}
	if v.Y != 2.0 {
		t.Errorf("Expected Y=2.0, got %f", v.Y)
	}
	if v.Z != 3.0 {
		t.Errorf("Expected Z=3.0, got %f", v.Z)
	}
}

func TestVec3Add(t *testing.T) {
	v1 := NewVec3(1.0, 2.0, 3.0)
	v2 := NewVec3(4.0, 5.0, 6.0)

	result := v1.Add(v2)

	if result.X != 5.0 || result.Y != 7.0 || result.Z != 9.0 {
		t.Errorf("Expected (5,7,9), got (%f,%f,%f)", result.X, result.Y, result.Z)
	}
}

func TestVec3Sub(t *testing.T) {
	v1 := NewVec3(5.0, 7.0, 9.0)
	v2 := NewVec3(1.0, 2.0, 3.0)

	result := v1.Sub(v2)

	if result.X != 4.0 || result.Y != 5.0 || result.Z != 6.0 {
		t.Errorf("Expected (4,5,6), got (%f,%f,%f)", result.X, result.Y, result.Z)
	}
}

func TestVec3Scale(t *testing.T) {
	v := NewVec3(2.0, 3.0, 4.0)

	result := v.Scale(2.0)

	if result.X != 4.0 || result.Y != 6.0 || result.Z != 8.0 {
		t.Errorf("Expected (4,6,8), got (%f,%f,%f)", result.X, result.Y, result.Z)
	}
}

func TestVec3Length(t *testing.T) {
	v := NewVec3(3.0, 4.0, 0.0)

	length := v.Length()
	expected := 5.0

	if math.Abs(length-expected) > 0.001 {
		t.Errorf("Expected length %f, got %f", expected, length)
	}
	if math.Abs(v.LengthSq()-25.0) > 0.001 {
		t.Errorf("Expected LengthSq 25, got %f", v.LengthSq())
	}
}

func TestVec3Normalize(t *testing.T) {
	v := NewVec3(3.0, 4.0, 0.0)

	normalized := v.Normalize()
	length := normalized.Length()

	if math.Abs(length-1.0) > 0.001 {
		t.Errorf("Expected normalized length 1.0, got %f", length)
	}

	expectedX := 3.0 / 5.0
	expectedY := 4.0 / 5.0

	if math.Abs(normalized.X-expectedX) > 0.001 {
		t.Errorf("Expected normalized X=%f, got %f", expectedX, normalized.X)
	}
	if math.Abs(normalized.Y-expectedY) > 0.001 {
		t.Errorf("Expected normalized Y=%f, got %f", expectedY, normalized.Y)
	}

	if (Vec3{}).Normalize() != (Vec3{}) {
		t.Errorf("Expected zero vector to normalize to itself")
	}
}

func TestVec3Dot(t *testing.T) {
	v1 := NewVec3(2.0, 3.0, 4.0)
	v2 := NewVec3(5.0, 6.0, 7.0)

	dot := v1.Dot(v2)
	expected := 2.0*5.0 + 3.0*6.0 + 4.0*7.0 // 10 + 18 + 28 = 56

	if math.Abs(dot-expected) > 0.001 {
		t.Errorf("Expected dot product %f, got %f", expected, dot)
	}
}

func TestVec3Cross(t *testing.T) {
	v1 := NewVec3(1.0, 0.0, 0.0)
	v2 := NewVec3(0.0, 1.0, 0.0)

	cross := v1.Cross(v2)

	// i x j = k
	if cross.X != 0.0 || cross.Y != 0.0 || cross.Z != 1.0 {
		t.Errorf("Expected (0,0,1), got (%f,%f,%f)", cross.X, cross.Y, cross.Z)
	}
}

func TestVec3Axis(t *testing.T) {
	v := NewVec3(1.0, 2.0, 3.0)

	for a, want := range []float64{1.0, 2.0, 3.0} {
		if got := v.Axis(a); got != want {
			t.Errorf("Axis(%d) = %f, want %f", a, got, want)
		}
	}

	v2 := v.WithAxis(1, 9.0)
	if v2.Y != 9.0 || v2.X != 1.0 || v2.Z != 3.0 {
		t.Errorf("WithAxis mutated the wrong components: %+v", v2)
	}

	v3 := v.AddAxis(2, 0.5)
	if v3.Z != 3.5 {
		t.Errorf("AddAxis(2, 0.5) = %f, want 3.5", v3.Z)
	}
}

func TestVec3MinMaxClampAbs(t *testing.T) {
	a := NewVec3(1, -2, 3)
	b := NewVec3(-1, 2, 0)

	min := Min(a, b)
	if min != (Vec3{-1, -2, 0}) {
		t.Errorf("Min = %+v, want {-1 -2 0}", min)
	}

	max := Max(a, b)
	if max != (Vec3{1, 2, 3}) {
		t.Errorf("Max = %+v, want {1 2 3}", max)
	}

	clamped := Clamp(NewVec3(5, -5, 0.5), NewVec3(0, 0, 0), NewVec3(1, 1, 1))
	if clamped != (Vec3{1, 0, 0.5}) {
		t.Errorf("Clamp = %+v, want {1 0 0.5}", clamped)
	}

	abs := Abs(NewVec3(-1, 2, -3))
	if abs != (Vec3{1, 2, 3}) {
		t.Errorf("Abs = %+v, want {1 2 3}", abs)
	}
}
