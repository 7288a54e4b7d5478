package kinematics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/czy2631918132/upright/spatialmath"
)

// BaseMountedFrame is the reduced kinematic model used when the tray is
// rigidly mounted to the mobile base: the tracked frame sits at a fixed
// offset from the base origin and inherits the base's heading. Arm joints
// are carried in the state layout but do not move this frame.
//
// State layout is [x, y, heading, arm...; their velocities], input layout is
// [ax, ay (body frame), heading accel, arm...].
type BaseMountedFrame struct {
	name      string
	mount     r3.Vector
	armJoints int
}

// NewBaseMountedFrame builds the provider for a named frame mounted at the
// given offset (base frame) on a robot with the given number of arm joints.
func NewBaseMountedFrame(name string, mount r3.Vector, armJoints int) (*BaseMountedFrame, error) {
	if name == "" {
		return nil, errors.New("frame name must not be empty")
	}
	if armJoints < 0 {
		return nil, errors.Errorf("number of arm joints must be non-negative, got %d", armJoints)
	}
	return &BaseMountedFrame{name: name, mount: mount, armJoints: armJoints}, nil
}

// FrameNames lists the single tracked frame.
func (f *BaseMountedFrame) FrameNames() []string {
	return []string{f.name}
}

func (f *BaseMountedFrame) nq() int {
	return 3 + f.armJoints
}

func (f *BaseMountedFrame) checkState(x []float64) error {
	if len(x) != 2*f.nq() {
		return errors.Errorf("state must have %d elements, got %d", 2*f.nq(), len(x))
	}
	return nil
}

func (f *BaseMountedFrame) orientation(heading float64) quat.Number {
	return quat.Number{Real: math.Cos(heading / 2), Kmag: math.Sin(heading / 2)}
}

// Position returns the frame's world-frame position.
func (f *BaseMountedFrame) Position(x []float64) (r3.Vector, error) {
	if err := f.checkState(x); err != nil {
		return r3.Vector{}, err
	}
	rotated := mgl64.Rotate2D(x[2]).Mul2x1(mgl64.Vec2{f.mount.X, f.mount.Y})
	return r3.Vector{X: x[0] + rotated[0], Y: x[1] + rotated[1], Z: f.mount.Z}, nil
}

// OrientationError returns the rotation-vector error against the desired
// orientation.
func (f *BaseMountedFrame) OrientationError(x []float64, desired quat.Number) (r3.Vector, error) {
	if err := f.checkState(x); err != nil {
		return r3.Vector{}, err
	}
	return spatialmath.OrientationError(f.orientation(x[2]), desired), nil
}

// PositionLinearApproximation is the analytic fast path; only the base pose
// columns are nonzero.
func (f *BaseMountedFrame) PositionLinearApproximation(x []float64) (*LinearApproximation, error) {
	position, err := f.Position(x)
	if err != nil {
		return nil, err
	}
	sin, cos := math.Sincos(x[2])
	jacobian := mat.NewDense(3, len(x), nil)
	jacobian.Set(0, 0, 1)
	jacobian.Set(1, 1, 1)
	jacobian.Set(0, 2, -sin*f.mount.X-cos*f.mount.Y)
	jacobian.Set(1, 2, cos*f.mount.X-sin*f.mount.Y)
	return &LinearApproximation{Value: vectorValue(position), Jacobian: jacobian}, nil
}

// OrientationErrorLinearApproximation differentiates the log-map error by
// central differences; only the heading column is nonzero for this model but
// the full state Jacobian is returned for uniformity.
func (f *BaseMountedFrame) OrientationErrorLinearApproximation(
	x []float64, desired quat.Number,
) (*LinearApproximation, error) {
	value, err := f.OrientationError(x, desired)
	if err != nil {
		return nil, err
	}
	jacobian := mat.NewDense(3, len(x), nil)
	fd.Jacobian(jacobian, func(dst, xv []float64) {
		e := spatialmath.OrientationError(f.orientation(xv[2]), desired)
		dst[0], dst[1], dst[2] = e.X, e.Y, e.Z
	}, x, centralDifferences)
	return &LinearApproximation{Value: vectorValue(value), Jacobian: jacobian}, nil
}

// Motion derives the frame's commanded rigid motion from state and input.
func (f *BaseMountedFrame) Motion(x, u []float64) (Motion, error) {
	if err := f.checkState(x); err != nil {
		return Motion{}, err
	}
	if len(u) != f.nq() {
		return Motion{}, errors.Errorf("input must have %d elements, got %d", f.nq(), len(u))
	}
	orientation := f.orientation(x[2])
	omega := r3.Vector{Z: x[f.nq()+2]}
	alpha := r3.Vector{Z: u[2]}

	baseAccel := mgl64.Rotate2D(x[2]).Mul2x1(mgl64.Vec2{u[0], u[1]})
	lever := spatialmath.Rotate(orientation, f.mount)
	accel := r3.Vector{X: baseAccel[0], Y: baseAccel[1]}.
		Add(alpha.Cross(lever)).
		Add(omega.Cross(omega.Cross(lever)))

	return Motion{
		Orientation:         orientation,
		AngularVelocity:     omega,
		LinearAcceleration:  accel,
		AngularAcceleration: alpha,
	}, nil
}

// Clone returns an independent copy. The provider itself is immutable, so a
// value copy suffices; the copy retains the analytic fast path.
func (f *BaseMountedFrame) Clone() EndEffector {
	clone := *f
	return &clone
}
