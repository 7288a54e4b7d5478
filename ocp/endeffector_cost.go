package ocp

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/czy2631918132/upright/kinematics"
	"github.com/czy2631918132/upright/trajectory"
)

// poseErrorDim is 3 translational plus 3 rotational error components.
const poseErrorDim = 6

// EndEffectorCost penalizes the tracked frame's deviation from the target
// pose trajectory: 0.5 * e' W e with e the stacked position and orientation
// error. It is a pure state cost; its quadratic approximation carries a
// zero-width input block.
type EndEffectorCost struct {
	weight *mat.Dense
	kin    kinematics.EndEffector
	ref    *trajectory.Holder
}

// NewEndEffectorCost builds the cost from a 6x6 weight matrix, a kinematics
// provider tracking exactly one frame, and the shared target trajectory
// holder. The weight matrix is copied; the holder is shared read-only.
func NewEndEffectorCost(
	weight *mat.Dense,
	kin kinematics.EndEffector,
	ref *trajectory.Holder,
) (*EndEffectorCost, error) {
	if rows, cols := weight.Dims(); rows != poseErrorDim || cols != poseErrorDim {
		return nil, errors.Errorf("weight matrix must be %dx%d, got %dx%d",
			poseErrorDim, poseErrorDim, rows, cols)
	}
	if n := len(kin.FrameNames()); n != 1 {
		return nil, errors.Errorf(
			"end effector kinematics must track exactly one frame, got %d", n)
	}
	if ref == nil {
		return nil, errors.New("target trajectory holder must not be nil")
	}
	owned := mat.NewDense(poseErrorDim, poseErrorDim, nil)
	owned.Copy(weight)
	return &EndEffectorCost{weight: owned, kin: kin, ref: ref}, nil
}

// poseError stacks the position error above the orientation error at the
// interpolated target for time t.
func (c *EndEffectorCost) poseError(t float64, x []float64) (*mat.VecDense, error) {
	targetPos, targetOrient := c.ref.Get().Interpolate(t)
	position, err := c.kin.Position(x)
	if err != nil {
		return nil, errors.Wrap(err, "end effector position")
	}
	rotErr, err := c.kin.OrientationError(x, targetOrient)
	if err != nil {
		return nil, errors.Wrap(err, "end effector orientation error")
	}
	return mat.NewVecDense(poseErrorDim, []float64{
		position.X - targetPos.X,
		position.Y - targetPos.Y,
		position.Z - targetPos.Z,
		rotErr.X,
		rotErr.Y,
		rotErr.Z,
	}), nil
}

// Value returns the scalar tracking cost at (t, x).
func (c *EndEffectorCost) Value(t float64, x []float64) (float64, error) {
	e, err := c.poseError(t, x)
	if err != nil {
		return 0, err
	}
	var we mat.VecDense
	we.MulVec(c.weight, e)
	return 0.5 * mat.Dot(e, &we), nil
}

// QuadraticApproximation returns the cost's local quadratic model in the
// state. The Hessian is the Gauss-Newton approximation J' W J; curvature of
// the kinematics itself is deliberately dropped.
func (c *EndEffectorCost) QuadraticApproximation(
	t float64, x []float64,
) (*ScalarFunctionQuadraticApproximation, error) {
	_, targetOrient := c.ref.Get().Interpolate(t)

	posApprox, err := kinematics.PositionLinearApproximation(c.kin, x)
	if err != nil {
		return nil, errors.Wrap(err, "end effector position approximation")
	}
	rotApprox, err := kinematics.OrientationErrorLinearApproximation(c.kin, x, targetOrient)
	if err != nil {
		return nil, errors.Wrap(err, "end effector orientation approximation")
	}

	e, err := c.poseError(t, x)
	if err != nil {
		return nil, err
	}

	// Stack de/dx from the two 3-row blocks.
	jacobian := mat.NewDense(poseErrorDim, len(x), nil)
	jacobian.Slice(0, 3, 0, len(x)).(*mat.Dense).Copy(posApprox.Jacobian)
	jacobian.Slice(3, poseErrorDim, 0, len(x)).(*mat.Dense).Copy(rotApprox.Jacobian)

	var we mat.VecDense
	we.MulVec(c.weight, e)

	gradient := mat.NewVecDense(len(x), nil)
	gradient.MulVec(jacobian.T(), &we)

	var wj mat.Dense
	wj.Mul(c.weight, jacobian)
	hessian := mat.NewDense(len(x), len(x), nil)
	hessian.Mul(jacobian.T(), &wj)

	return &ScalarFunctionQuadraticApproximation{
		F:     0.5 * mat.Dot(e, &we),
		Dfdx:  gradient,
		Dfdxx: hessian,
	}, nil
}

// Clone returns an independent copy for concurrent evaluation: its own
// kinematics provider and weight copy, sharing only the externally owned
// read-only trajectory holder.
func (c *EndEffectorCost) Clone() *EndEffectorCost {
	weight := mat.NewDense(poseErrorDim, poseErrorDim, nil)
	weight.Copy(c.weight)
	return &EndEffectorCost{
		weight: weight,
		kin:    c.kin.Clone(),
		ref:    c.ref,
	}
}
