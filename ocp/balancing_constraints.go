package ocp

import (
	"sort"
	"strconv"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/czy2631918132/upright/balancing"
	"github.com/czy2631918132/upright/kinematics"
	"github.com/czy2631918132/upright/spatialmath"
)

// residualFunc maps the end effector's commanded rigid motion to one
// inequality residual; >= 0 means the condition holds.
type residualFunc func(m kinematics.Motion) float64

// BalancingConstraints produces the fixed-length vector of quasi-static
// stability residuals for every balanced object: no lift-off, friction cone,
// and support-polygon (no tip) conditions, each independently toggleable.
// The residual count is fixed at construction and identical for all
// evaluation times.
type BalancingConstraints struct {
	kin      kinematics.MotionProvider
	settings balancing.Settings
	gravity  r3.Vector
	dims     RobotDimensions

	// The prepared residual evaluators, built once at construction and
	// shared immutably with clones.
	residuals []residualFunc
	names     []string

	penalty *RelaxedBarrierPenalty
}

// NewBalancingConstraints validates the settings and prepares one residual
// evaluator per enabled condition instance. Evaluator order is deterministic:
// objects sorted by name (lift-off, then support edges), then contacts in
// registration order (friction cones).
func NewBalancingConstraints(
	kin kinematics.MotionProvider,
	settings *balancing.Settings,
	dims RobotDimensions,
	logger golog.Logger,
) (*BalancingConstraints, error) {
	if err := settings.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid balancing settings")
	}
	if !settings.Enabled {
		return nil, errors.New("balancing constraints constructed while disabled")
	}
	if n := len(kin.FrameNames()); n != 1 {
		return nil, errors.Errorf(
			"end effector kinematics must track exactly one frame, got %d", n)
	}

	c := &BalancingConstraints{
		kin:      kin,
		settings: settings.Copy(),
		gravity:  settings.GravityOrDefault(),
		dims:     dims,
	}
	c.buildResiduals()

	if c.settings.Mode == balancing.ModeSoft {
		penalty, err := NewRelaxedBarrierPenalty(c.settings.Mu, c.settings.Delta)
		if err != nil {
			return nil, err
		}
		c.penalty = penalty
	}
	logger.Infof("%s (%d residuals)", c.settings.String(), len(c.residuals))
	return c, nil
}

// contactForce is the force the tray must exert on the object, in the tray
// frame, for the object to follow the end effector's commanded motion
// against gravity. The object is treated as rigidly attached at its center
// of mass (quasi-static model).
func contactForce(m kinematics.Motion, obj balancing.BalancedObject, gravity r3.Vector) r3.Vector {
	lever := spatialmath.Rotate(m.Orientation, obj.CoM)
	comAccel := m.LinearAcceleration.
		Add(m.AngularAcceleration.Cross(lever)).
		Add(m.AngularVelocity.Cross(m.AngularVelocity.Cross(lever)))
	worldForce := comAccel.Sub(gravity).Mul(obj.Mass)
	return spatialmath.RotateInverse(m.Orientation, worldForce)
}

func (c *BalancingConstraints) buildResiduals() {
	objectNames := make([]string, 0, len(c.settings.Objects))
	for name := range c.settings.Objects {
		objectNames = append(objectNames, name)
	}
	sort.Strings(objectNames)

	gravity := c.gravity
	for _, name := range objectNames {
		obj := c.settings.Objects[name]

		if c.settings.Constraints.NormalForce {
			c.residuals = append(c.residuals, func(m kinematics.Motion) float64 {
				return contactForce(m, obj, gravity).Z
			})
			c.names = append(c.names, name+"/normal")
		}

		if c.settings.Constraints.SupportArea {
			com2 := r3.Vector{X: obj.CoM.X, Y: obj.CoM.Y}
			height := obj.CoM.Z
			for i, edge := range obj.SupportEdges() {
				edge := edge
				// Zero-moment point inside the half plane, multiplied
				// through by the normal force to stay polynomial:
				// n·(fz·c - h·f_xy) - b·fz >= 0.
				c.residuals = append(c.residuals, func(m kinematics.Motion) float64 {
					f := contactForce(m, obj, gravity)
					zmpNum := r3.Vector{
						X: f.Z*com2.X - height*f.X,
						Y: f.Z*com2.Y - height*f.Y,
					}
					return edge.Normal.X*zmpNum.X + edge.Normal.Y*zmpNum.Y - edge.Offset*f.Z
				})
				c.names = append(c.names, name+"/support/"+strconv.Itoa(i))
			}
		}
	}

	if c.settings.Constraints.FrictionCone {
		if len(c.settings.Contacts) > 0 {
			for i, contact := range c.settings.Contacts {
				contact := contact
				obj := c.settings.Objects[contact.Object]
				normal := contact.NormalOrDefault()
				c.residuals = append(c.residuals, frictionResidual(obj, normal, contact.Friction, gravity))
				c.names = append(c.names, contact.Object+"/friction/"+strconv.Itoa(i))
			}
		} else {
			// No explicit contacts: one cone per object with its own
			// coefficient against the tray surface normal.
			for _, name := range objectNames {
				obj := c.settings.Objects[name]
				c.residuals = append(c.residuals, frictionResidual(obj, r3.Vector{Z: 1}, obj.Friction, gravity))
				c.names = append(c.names, name+"/friction")
			}
		}
	}
}

// frictionResidual bounds the tangential force by friction times the normal
// force, in squared form so the residual stays smooth at zero tangential
// force: mu^2*fn^2 - |ft|^2. The normal-force residual covers the fn < 0
// ambiguity of the squared form.
func frictionResidual(
	obj balancing.BalancedObject, normal r3.Vector, friction float64, gravity r3.Vector,
) residualFunc {
	return func(m kinematics.Motion) float64 {
		f := contactForce(m, obj, gravity)
		fn := f.Dot(normal)
		ft := f.Sub(normal.Mul(fn))
		return friction*friction*fn*fn - ft.Norm2()
	}
}

// NumConstraints returns the fixed residual count.
func (c *BalancingConstraints) NumConstraints() int {
	return len(c.residuals)
}

// ResidualNames labels each residual slot, in evaluation order.
func (c *BalancingConstraints) ResidualNames() []string {
	return append(c.names[:0:0], c.names...)
}

// Parameters returns the time-varying parameter vector; the balance
// conditions are time invariant, so it is always empty.
func (c *BalancingConstraints) Parameters(t float64) []float64 {
	return nil
}

// Mode reports whether the solver should treat the residuals as hard bounds
// or score them through Penalty.
func (c *BalancingConstraints) Mode() balancing.ConstraintMode {
	return c.settings.Mode
}

// Penalty returns the soft-mode relaxed barrier, or nil in hard mode.
func (c *BalancingConstraints) Penalty() *RelaxedBarrierPenalty {
	return c.penalty
}

// Value evaluates all residuals at (t, x, u).
func (c *BalancingConstraints) Value(t float64, x, u []float64) ([]float64, error) {
	if len(x) != c.dims.X() || len(u) != c.dims.U() {
		return nil, errors.Errorf("expected state %d and input %d, got %d and %d",
			c.dims.X(), c.dims.U(), len(x), len(u))
	}
	motion, err := c.kin.Motion(x, u)
	if err != nil {
		return nil, errors.Wrap(err, "end effector motion")
	}
	out := make([]float64, len(c.residuals))
	for i, residual := range c.residuals {
		out[i] = residual(motion)
	}
	return out, nil
}

// LinearApproximation returns the residual values and their Jacobian blocks
// with respect to state and input, by central differences through the
// prepared evaluators.
func (c *BalancingConstraints) LinearApproximation(
	t float64, x, u []float64,
) (*VectorFunctionLinearApproximation, error) {
	values, err := c.Value(t, x, u)
	if err != nil {
		return nil, err
	}

	z := make([]float64, len(x)+len(u))
	copy(z, x)
	copy(z[len(x):], u)

	var evalErr error
	jacobian := mat.NewDense(len(c.residuals), len(z), nil)
	fd.Jacobian(jacobian, func(dst, zv []float64) {
		res, err := c.Value(t, zv[:len(x)], zv[len(x):])
		if err != nil {
			evalErr = err
			return
		}
		copy(dst, res)
	}, z, &fd.JacobianSettings{Formula: fd.Central})
	if evalErr != nil {
		return nil, evalErr
	}

	dfdx := mat.DenseCopyOf(jacobian.Slice(0, len(c.residuals), 0, len(x)))
	dfdu := mat.DenseCopyOf(jacobian.Slice(0, len(c.residuals), len(x), len(z)))
	return &VectorFunctionLinearApproximation{F: values, Dfdx: dfdx, Dfdu: dfdu}, nil
}

// Clone returns an independent copy for concurrent evaluation. The prepared
// residual evaluators are immutable and reused rather than rebuilt; only the
// kinematics provider is deep-copied.
func (c *BalancingConstraints) Clone() *BalancingConstraints {
	kinClone, ok := c.kin.Clone().(kinematics.MotionProvider)
	if !ok {
		// Clone contracts require capabilities to be preserved; a provider
		// that loses them on copy is unusable here.
		panic("kinematics clone lost its motion capability")
	}
	clone := *c
	clone.kin = kinClone
	clone.settings = c.settings.Copy()
	return &clone
}
