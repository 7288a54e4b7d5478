package balancing

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ConstraintMode selects how the solver consumes the balance residuals.
type ConstraintMode string

const (
	// ModeHard emits each residual as a strict inequality bound.
	ModeHard = ConstraintMode("hard")
	// ModeSoft scores residuals through a relaxed log barrier so that a
	// near-violation costs a large finite penalty instead of infeasibility.
	ModeSoft = ConstraintMode("soft")
)

// Default relaxed barrier parameters, matching the controller's usual tuning.
const (
	DefaultMu    = 1e-2
	DefaultDelta = 1e-3
)

// StandardGravity is the default gravity vector in the world frame, m/s^2.
var StandardGravity = r3.Vector{Z: -9.81}

// ConstraintsEnabled toggles the individual stability condition families.
type ConstraintsEnabled struct {
	// NormalForce keeps the contact normal force non-negative (no lift-off).
	NormalForce bool
	// FrictionCone bounds tangential force by friction times normal force.
	FrictionCone bool
	// SupportArea keeps the zero-moment point inside each object's support
	// polygon (no tipping).
	SupportArea bool
}

// Settings configures the balance constraints for one controller instance.
// Once handed to a constraint it is deep-copied; changing which objects or
// contacts are tracked requires constructing a new constraint.
type Settings struct {
	Enabled     bool
	Constraints ConstraintsEnabled
	Objects     map[string]BalancedObject
	Contacts    []ContactPoint

	Mode ConstraintMode
	// Mu and Delta parameterize the relaxed barrier used in soft mode: Mu is
	// the barrier weight and Delta the relaxation threshold below which the
	// log barrier switches to its quadratic extension.
	Mu    float64
	Delta float64

	// Gravity in the world frame; StandardGravity if zero.
	Gravity r3.Vector
}

// GravityOrDefault returns the configured gravity vector, defaulting to
// standard gravity when unset.
func (s *Settings) GravityOrDefault() r3.Vector {
	if s.Gravity == (r3.Vector{}) {
		return StandardGravity
	}
	return s.Gravity
}

// Copy returns a deep copy sharing no mutable state with the original.
func (s *Settings) Copy() Settings {
	copied := *s
	copied.Objects = make(map[string]BalancedObject, len(s.Objects))
	for name, obj := range s.Objects {
		obj.SupportPolygon = append(obj.SupportPolygon[:0:0], obj.SupportPolygon...)
		copied.Objects[name] = obj
	}
	copied.Contacts = append(s.Contacts[:0:0], s.Contacts...)
	return copied
}

// Validate checks the settings for configuration errors. All problems found
// are reported together.
func (s *Settings) Validate() error {
	if !s.Enabled {
		return nil
	}
	var err error
	if len(s.Objects) == 0 {
		err = multierr.Append(err, errors.New("balancing enabled with no registered objects"))
	}
	switch s.Mode {
	case ModeHard, ModeSoft:
	case "":
		err = multierr.Append(err, errors.New("constraint mode must be set"))
	default:
		err = multierr.Append(err, errors.Errorf("unknown constraint mode %q", s.Mode))
	}
	if s.Mode == ModeSoft {
		if s.Mu <= 0 {
			err = multierr.Append(err, errors.Errorf("soft mode needs a positive barrier weight mu, got %f", s.Mu))
		}
		if s.Delta <= 0 {
			err = multierr.Append(err, errors.Errorf("soft mode needs a positive relaxation delta, got %f", s.Delta))
		}
	}
	for name, obj := range s.Objects {
		if objErr := obj.Validate(); objErr != nil {
			err = multierr.Append(err, errors.Wrapf(objErr, "object %q", name))
		}
	}
	for i, contact := range s.Contacts {
		if _, ok := s.Objects[contact.Object]; !ok {
			err = multierr.Append(err, errors.Errorf(
				"contact %d references unknown object %q", i, contact.Object))
		}
		if contact.Friction < 0 {
			err = multierr.Append(err, errors.Errorf(
				"contact %d friction coefficient must be non-negative, got %f", i, contact.Friction))
		}
	}
	return err
}

// String summarizes which condition families are active, for logging.
func (s *Settings) String() string {
	if !s.Enabled {
		return "balancing disabled"
	}
	return fmt.Sprintf(
		"balancing %s mode: normal=%t friction=%t support=%t objects=%d contacts=%d",
		s.Mode, s.Constraints.NormalForce, s.Constraints.FrictionCone,
		s.Constraints.SupportArea, len(s.Objects), len(s.Contacts),
	)
}
