package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func quatAboutZ(theta float64) quat.Number {
	return quat.Number{Real: math.Cos(theta / 2), Kmag: math.Sin(theta / 2)}
}

func TestRotate(t *testing.T) {
	q90 := quatAboutZ(math.Pi / 2)
	v := Rotate(q90, r3.Vector{X: 1})
	test.That(t, v.X, test.ShouldAlmostEqual, 0)
	test.That(t, v.Y, test.ShouldAlmostEqual, 1)
	test.That(t, v.Z, test.ShouldAlmostEqual, 0)

	back := RotateInverse(q90, v)
	test.That(t, back.X, test.ShouldAlmostEqual, 1)
	test.That(t, back.Y, test.ShouldAlmostEqual, 0)
}

func TestSlerp(t *testing.T) {
	q1 := quatAboutZ(0)
	q2 := quatAboutZ(math.Pi / 2)

	s0 := Slerp(q1, q2, 0)
	test.That(t, QuaternionAlmostEqual(s0, q1, 1e-9), test.ShouldBeTrue)

	s1 := Slerp(q1, q2, 1)
	test.That(t, QuaternionAlmostEqual(s1, q2, 1e-9), test.ShouldBeTrue)

	sHalf := Slerp(q1, q2, 0.5)
	test.That(t, QuaternionAlmostEqual(sHalf, quatAboutZ(math.Pi/4), 1e-9), test.ShouldBeTrue)
}

func TestSlerpShortestPath(t *testing.T) {
	// q and -q are the same orientation; slerp should not take the long way.
	q1 := quatAboutZ(math.Pi / 4)
	q2 := quat.Scale(-1, quatAboutZ(math.Pi/2))
	sHalf := Slerp(q1, q2, 0.5)
	test.That(t, QuaternionAlmostEqual(sHalf, quatAboutZ(3*math.Pi/8), 1e-9), test.ShouldBeTrue)
}

func TestOrientationError(t *testing.T) {
	qd := quatAboutZ(math.Pi / 3)

	zero := OrientationError(qd, qd)
	test.That(t, zero.Norm(), test.ShouldAlmostEqual, 0)

	// A quarter turn past the target about z should give a z rotation vector
	// of magnitude pi/2.
	e := OrientationError(quatAboutZ(math.Pi/3+math.Pi/2), qd)
	test.That(t, e.X, test.ShouldAlmostEqual, 0)
	test.That(t, e.Y, test.ShouldAlmostEqual, 0)
	test.That(t, e.Z, test.ShouldAlmostEqual, math.Pi/2)

	// Double-cover: comparing against the negated target changes nothing.
	eNeg := OrientationError(quatAboutZ(math.Pi/3+math.Pi/2), quat.Scale(-1, qd))
	test.That(t, eNeg.Z, test.ShouldAlmostEqual, math.Pi/2)
}

func TestNormalize(t *testing.T) {
	q := Normalize(quat.Number{Real: 2, Imag: 2})
	test.That(t, quat.Abs(q), test.ShouldAlmostEqual, 1)
	test.That(t, Normalize(quat.Number{}).Real, test.ShouldEqual, 1)
}
