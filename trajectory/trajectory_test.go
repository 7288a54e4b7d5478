package trajectory

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"github.com/czy2631918132/upright/spatialmath"
)

func quatAboutZ(theta float64) quat.Number {
	return quat.Number{Real: math.Cos(theta / 2), Kmag: math.Sin(theta / 2)}
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = New([]PoseSample{
		{Time: 0},
		{Time: 1},
		{Time: 1},
	})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = New([]PoseSample{
		{Time: 1},
		{Time: 0},
	})
	test.That(t, err, test.ShouldNotBeNil)

	traj, err := New([]PoseSample{{Time: 0, Orientation: quat.Number{Real: 2}}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj.Len(), test.ShouldEqual, 1)
	// Orientations normalize on construction.
	test.That(t, traj.Sample(0).Orientation.Real, test.ShouldAlmostEqual, 1)
}

func TestInterpolateSingleSample(t *testing.T) {
	only := PoseSample{
		Time:        2,
		Position:    r3.Vector{X: 1, Y: 2, Z: 3},
		Orientation: quatAboutZ(math.Pi / 3),
	}
	traj, err := New([]PoseSample{only})
	test.That(t, err, test.ShouldBeNil)

	// Any query time returns the sole sample unchanged.
	for _, queryTime := range []float64{-100, 0, 2, 57} {
		p, q := traj.Interpolate(queryTime)
		test.That(t, p, test.ShouldResemble, only.Position)
		test.That(t, spatialmath.QuaternionAlmostEqual(q, only.Orientation, 1e-9), test.ShouldBeTrue)
	}
}

func TestInterpolateAtSampleTimes(t *testing.T) {
	first := PoseSample{Time: 1, Position: r3.Vector{X: 1}, Orientation: quatAboutZ(0)}
	second := PoseSample{Time: 3, Position: r3.Vector{X: 5}, Orientation: quatAboutZ(math.Pi / 2)}
	traj, err := New([]PoseSample{first, second})
	test.That(t, err, test.ShouldBeNil)

	// Pins the weight convention: at the earlier sample's timestamp the
	// earlier sample comes back exactly, and likewise for the later one.
	p, q := traj.Interpolate(first.Time)
	test.That(t, p.X, test.ShouldAlmostEqual, first.Position.X)
	test.That(t, spatialmath.QuaternionAlmostEqual(q, first.Orientation, 1e-9), test.ShouldBeTrue)

	p, q = traj.Interpolate(second.Time)
	test.That(t, p.X, test.ShouldAlmostEqual, second.Position.X)
	test.That(t, spatialmath.QuaternionAlmostEqual(q, second.Orientation, 1e-9), test.ShouldBeTrue)
}

func TestInterpolateMidSegment(t *testing.T) {
	traj, err := New([]PoseSample{
		{Time: 0, Position: r3.Vector{}, Orientation: quatAboutZ(0)},
		{Time: 4, Position: r3.Vector{X: 8, Y: -4}, Orientation: quatAboutZ(math.Pi / 2)},
	})
	test.That(t, err, test.ShouldBeNil)

	p, q := traj.Interpolate(1)
	test.That(t, p.X, test.ShouldAlmostEqual, 2)
	test.That(t, p.Y, test.ShouldAlmostEqual, -1)
	test.That(t, spatialmath.QuaternionAlmostEqual(q, quatAboutZ(math.Pi/8), 1e-9), test.ShouldBeTrue)

	// Position and orientation must march forward together.
	p, q = traj.Interpolate(3)
	test.That(t, p.X, test.ShouldAlmostEqual, 6)
	test.That(t, spatialmath.QuaternionAlmostEqual(q, quatAboutZ(3*math.Pi/8), 1e-9), test.ShouldBeTrue)
}

func TestInterpolateClamping(t *testing.T) {
	traj, err := New([]PoseSample{
		{Time: 0, Position: r3.Vector{X: 1}, Orientation: quatAboutZ(0)},
		{Time: 1, Position: r3.Vector{X: 2}, Orientation: quatAboutZ(0.3)},
		{Time: 2, Position: r3.Vector{X: 9}, Orientation: quatAboutZ(0.6)},
	})
	test.That(t, err, test.ShouldBeNil)

	p, _ := traj.Interpolate(-5)
	test.That(t, p.X, test.ShouldAlmostEqual, 1)

	p, q := traj.Interpolate(100)
	test.That(t, p.X, test.ShouldAlmostEqual, 9)
	test.That(t, spatialmath.QuaternionAlmostEqual(q, quatAboutZ(0.6), 1e-9), test.ShouldBeTrue)

	// Interior segment lookup still works with more than two samples.
	p, _ = traj.Interpolate(1.5)
	test.That(t, p.X, test.ShouldAlmostEqual, 5.5)
}

func TestHolder(t *testing.T) {
	traj1, err := New([]PoseSample{{Time: 0, Position: r3.Vector{X: 1}}})
	test.That(t, err, test.ShouldBeNil)
	traj2, err := New([]PoseSample{{Time: 0, Position: r3.Vector{X: 2}}})
	test.That(t, err, test.ShouldBeNil)

	holder := NewHolder(traj1)
	test.That(t, holder.Get(), test.ShouldEqual, traj1)

	holder.Set(traj2)
	p, _ := holder.Get().Interpolate(0)
	test.That(t, p.X, test.ShouldAlmostEqual, 2)
}
