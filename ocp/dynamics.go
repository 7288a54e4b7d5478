package ocp

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// MobileManipulatorDynamics is the continuous-time flow map of the planar
// base plus arm: the pose block's derivative is the stored velocity block,
// and the velocity block's derivative is the input with the base's planar
// command rotated from the body frame into the world frame by the current
// heading.
type MobileManipulatorDynamics struct {
	dims RobotDimensions
}

// NewMobileManipulatorDynamics builds the flow map for the given robot
// dimensions.
func NewMobileManipulatorDynamics(dims RobotDimensions) (*MobileManipulatorDynamics, error) {
	if dims.ArmJoints < 0 {
		return nil, errors.Errorf("number of arm joints must be non-negative, got %d", dims.ArmJoints)
	}
	return &MobileManipulatorDynamics{dims: dims}, nil
}

func (d *MobileManipulatorDynamics) checkDims(x, u []float64) error {
	if len(x) != d.dims.X() {
		return errors.Errorf("state must have %d elements, got %d", d.dims.X(), len(x))
	}
	if len(u) != d.dims.U() {
		return errors.Errorf("input must have %d elements, got %d", d.dims.U(), len(u))
	}
	return nil
}

// FlowMap returns dx/dt at (t, x, u).
func (d *MobileManipulatorDynamics) FlowMap(t float64, x, u []float64) ([]float64, error) {
	if err := d.checkDims(x, u); err != nil {
		return nil, err
	}
	nq := d.dims.Q()
	dxdt := make([]float64, d.dims.X())
	copy(dxdt[:nq], x[nq:])

	// The planar command arrives in the body frame; rotate into the world
	// frame by the current heading.
	world := mgl64.Rotate2D(x[2]).Mul2x1(mgl64.Vec2{u[0], u[1]})
	dxdt[nq] = world[0]
	dxdt[nq+1] = world[1]
	copy(dxdt[nq+2:], u[2:])
	return dxdt, nil
}

// LinearApproximation returns the flow map's Jacobians A = df/dx and
// B = df/du, in closed form; the heading rotation is the only
// state-dependent term.
func (d *MobileManipulatorDynamics) LinearApproximation(
	t float64, x, u []float64,
) (*mat.Dense, *mat.Dense, error) {
	if err := d.checkDims(x, u); err != nil {
		return nil, nil, err
	}
	nq := d.dims.Q()
	nx := d.dims.X()
	nu := d.dims.U()
	sin, cos := math.Sincos(x[2])

	a := mat.NewDense(nx, nx, nil)
	for i := 0; i < nq; i++ {
		a.Set(i, nq+i, 1)
	}
	a.Set(nq, 2, -sin*u[0]-cos*u[1])
	a.Set(nq+1, 2, cos*u[0]-sin*u[1])

	b := mat.NewDense(nx, nu, nil)
	b.Set(nq, 0, cos)
	b.Set(nq, 1, -sin)
	b.Set(nq+1, 0, sin)
	b.Set(nq+1, 1, cos)
	for i := 2; i < nu; i++ {
		b.Set(nq+i, i, 1)
	}
	return a, b, nil
}

// Clone returns an independent copy.
func (d *MobileManipulatorDynamics) Clone() *MobileManipulatorDynamics {
	clone := *d
	return &clone
}
