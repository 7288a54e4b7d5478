// Package kinematics defines the contracts through which the problem layer
// queries an externally owned rigid-body kinematics implementation for the
// tracked end effector frame, plus a simple concrete provider for a tray
// rigidly mounted to the mobile base.
package kinematics

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// LinearApproximation is a first-order model of a vector-valued function of
// the state: its value and Jacobian at the linearization point.
type LinearApproximation struct {
	Value    []float64
	Jacobian *mat.Dense
}

// EndEffector exposes the tracked frame's pose as a function of the robot
// state. Implementations must be safe to use from a single goroutine at a
// time; concurrent use goes through Clone.
type EndEffector interface {
	// FrameNames lists the frames this provider is configured to track.
	FrameNames() []string

	// Position returns the tracked frame's world-frame position.
	Position(x []float64) (r3.Vector, error)

	// OrientationError returns the rotation-vector discrepancy between the
	// tracked frame's orientation and the desired orientation.
	OrientationError(x []float64, desired quat.Number) (r3.Vector, error)

	// Clone returns an independent copy sharing no mutable state with the
	// original. Clones must preserve any optional capabilities the original
	// implements.
	Clone() EndEffector
}

// Linearizable is the optional analytic fast path of an EndEffector. Callers
// check for it with a type assertion and fall back to finite differences when
// it is absent.
type Linearizable interface {
	PositionLinearApproximation(x []float64) (*LinearApproximation, error)
	OrientationErrorLinearApproximation(x []float64, desired quat.Number) (*LinearApproximation, error)
}

// Motion is the commanded rigid motion of the end effector frame, in the
// world frame except where noted.
type Motion struct {
	// Orientation is the world-from-frame rotation.
	Orientation quat.Number
	// AngularVelocity of the frame, rad/s.
	AngularVelocity r3.Vector
	// LinearAcceleration of the frame origin, m/s^2.
	LinearAcceleration r3.Vector
	// AngularAcceleration of the frame, rad/s^2.
	AngularAcceleration r3.Vector
}

// MotionProvider additionally derives the end effector's commanded rigid
// motion from state and input, as the balance constraints require.
type MotionProvider interface {
	EndEffector

	Motion(x, u []float64) (Motion, error)
}
