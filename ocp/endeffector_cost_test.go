package ocp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/czy2631918132/upright/kinematics"
	"github.com/czy2631918132/upright/testutils/inject"
	"github.com/czy2631918132/upright/trajectory"
)

func quatAboutZ(theta float64) quat.Number {
	return quat.Number{Real: math.Cos(theta / 2), Kmag: math.Sin(theta / 2)}
}

func identityWeight() *mat.Dense {
	w := mat.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		w.Set(i, i, 1)
	}
	return w
}

func trayFrame(t *testing.T) *kinematics.BaseMountedFrame {
	t.Helper()
	frame, err := kinematics.NewBaseMountedFrame("tray", r3.Vector{Z: 0.5}, 2)
	test.That(t, err, test.ShouldBeNil)
	return frame
}

func holderAt(t *testing.T, samples ...trajectory.PoseSample) *trajectory.Holder {
	t.Helper()
	traj, err := trajectory.New(samples)
	test.That(t, err, test.ShouldBeNil)
	return trajectory.NewHolder(traj)
}

func costState(x, y, heading float64) []float64 {
	state := make([]float64, 10)
	state[0], state[1], state[2] = x, y, heading
	return state
}

func TestNewEndEffectorCostValidation(t *testing.T) {
	holder := holderAt(t, trajectory.PoseSample{Orientation: quatAboutZ(0)})

	_, err := NewEndEffectorCost(mat.NewDense(3, 3, nil), trayFrame(t), holder)
	test.That(t, err, test.ShouldNotBeNil)

	twoFrames := &inject.EndEffector{
		EndEffector:    trayFrame(t),
		FrameNamesFunc: func() []string { return []string{"tray", "wrist"} },
	}
	_, err = NewEndEffectorCost(identityWeight(), twoFrames, holder)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "exactly one frame")

	_, err = NewEndEffectorCost(identityWeight(), trayFrame(t), nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestEndEffectorCostZeroError(t *testing.T) {
	// Target exactly where the tray frame sits for the zero state.
	holder := holderAt(t, trajectory.PoseSample{
		Position:    r3.Vector{Z: 0.5},
		Orientation: quatAboutZ(0),
	})
	cost, err := NewEndEffectorCost(identityWeight(), trayFrame(t), holder)
	test.That(t, err, test.ShouldBeNil)

	value, err := cost.Value(0, costState(0, 0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value, test.ShouldAlmostEqual, 0)

	approx, err := cost.QuadraticApproximation(0, costState(0, 0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, approx.F, test.ShouldAlmostEqual, 0)
	for i := 0; i < approx.Dfdx.Len(); i++ {
		test.That(t, approx.Dfdx.AtVec(i), test.ShouldAlmostEqual, 0, 1e-9)
	}
	// Pure state cost: zero-width input block.
	test.That(t, approx.Dfdu, test.ShouldBeNil)
	test.That(t, approx.Dfduu, test.ShouldBeNil)
}

func TestEndEffectorCostValue(t *testing.T) {
	holder := holderAt(t, trajectory.PoseSample{
		Position:    r3.Vector{Z: 0.5},
		Orientation: quatAboutZ(0),
	})
	cost, err := NewEndEffectorCost(identityWeight(), trayFrame(t), holder)
	test.That(t, err, test.ShouldBeNil)

	// Unit position offset in x: 0.5 * 1^2.
	value, err := cost.Value(0, costState(1, 0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value, test.ShouldAlmostEqual, 0.5)

	// Pure quarter-turn heading error: 0.5 * (pi/2)^2.
	value, err = cost.Value(0, costState(0, 0, math.Pi/2))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value, test.ShouldAlmostEqual, 0.5*math.Pi*math.Pi/4)
}

func TestEndEffectorCostTracksInterpolatedTarget(t *testing.T) {
	holder := holderAt(t,
		trajectory.PoseSample{Time: 0, Position: r3.Vector{X: 0, Z: 0.5}, Orientation: quatAboutZ(0)},
		trajectory.PoseSample{Time: 2, Position: r3.Vector{X: 2, Z: 0.5}, Orientation: quatAboutZ(0)},
	)
	cost, err := NewEndEffectorCost(identityWeight(), trayFrame(t), holder)
	test.That(t, err, test.ShouldBeNil)

	// Standing at x=1, the mid-trajectory target coincides with the frame.
	value, err := cost.Value(1, costState(1, 0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value, test.ShouldAlmostEqual, 0)

	// At the first sample's timestamp the target is the first sample.
	value, err = cost.Value(0, costState(1, 0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, value, test.ShouldAlmostEqual, 0.5)
}

func TestQuadraticApproximationGaussNewton(t *testing.T) {
	// A non-trivial PSD weight.
	w := identityWeight()
	w.Set(0, 0, 4)
	w.Set(0, 1, 1)
	w.Set(1, 0, 1)
	w.Set(5, 5, 9)

	holder := holderAt(t, trajectory.PoseSample{
		Position:    r3.Vector{X: 0.3, Z: 0.5},
		Orientation: quatAboutZ(0.4),
	})
	cost, err := NewEndEffectorCost(w, trayFrame(t), holder)
	test.That(t, err, test.ShouldBeNil)

	x := costState(0.2, -0.4, 0.9)
	approx, err := cost.QuadraticApproximation(0, x)
	test.That(t, err, test.ShouldBeNil)

	value, err := cost.Value(0, x)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, approx.F, test.ShouldAlmostEqual, value)

	// The gradient matches finite differences of the value.
	const h = 1e-6
	for j := 0; j < len(x); j++ {
		xp := append([]float64{}, x...)
		xm := append([]float64{}, x...)
		xp[j] += h
		xm[j] -= h
		vp, err := cost.Value(0, xp)
		test.That(t, err, test.ShouldBeNil)
		vm, err := cost.Value(0, xm)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, approx.Dfdx.AtVec(j), test.ShouldAlmostEqual, (vp-vm)/(2*h), 1e-4)
	}

	// J'WJ is positive semidefinite: v' H v >= 0 for any direction.
	rnd := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		v := mat.NewVecDense(len(x), nil)
		for j := 0; j < len(x); j++ {
			v.SetVec(j, rnd.NormFloat64())
		}
		var hv mat.VecDense
		hv.MulVec(approx.Dfdxx, v)
		test.That(t, mat.Dot(v, &hv), test.ShouldBeGreaterThanOrEqualTo, -1e-9)
	}
}

func TestEndEffectorCostClone(t *testing.T) {
	holder := holderAt(t, trajectory.PoseSample{
		Position:    r3.Vector{Z: 0.5},
		Orientation: quatAboutZ(0),
	})

	cloned := 0
	base := trayFrame(t)
	kin := &inject.EndEffector{
		EndEffector: base,
		CloneFunc: func() kinematics.EndEffector {
			cloned++
			return base.Clone()
		},
	}
	cost, err := NewEndEffectorCost(identityWeight(), kin, holder)
	test.That(t, err, test.ShouldBeNil)

	clone := cost.Clone()
	test.That(t, cloned, test.ShouldEqual, 1)

	// Clones agree with the original...
	x := costState(0.3, 0.1, 0.2)
	v1, err := cost.Value(0, x)
	test.That(t, err, test.ShouldBeNil)
	v2, err := clone.Value(0, x)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v2, test.ShouldAlmostEqual, v1)

	// ...and share the externally owned trajectory holder: a swap between
	// solves is visible to every clone.
	newTraj, err := trajectory.New([]trajectory.PoseSample{{
		Position:    r3.Vector{X: 1, Z: 0.5},
		Orientation: quatAboutZ(0),
	}})
	test.That(t, err, test.ShouldBeNil)
	holder.Set(newTraj)
	v3, err := clone.Value(0, costState(1, 0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v3, test.ShouldAlmostEqual, 0)
}
