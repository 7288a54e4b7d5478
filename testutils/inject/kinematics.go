// Package inject provides injectable mock kinematics providers for tests.
package inject

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/czy2631918132/upright/kinematics"
)

// EndEffector is an injected end effector kinematics provider.
type EndEffector struct {
	kinematics.EndEffector
	FrameNamesFunc       func() []string
	PositionFunc         func(x []float64) (r3.Vector, error)
	OrientationErrorFunc func(x []float64, desired quat.Number) (r3.Vector, error)
	CloneFunc            func() kinematics.EndEffector
}

// FrameNames calls the injected FrameNames or the real version.
func (e *EndEffector) FrameNames() []string {
	if e.FrameNamesFunc == nil {
		return e.EndEffector.FrameNames()
	}
	return e.FrameNamesFunc()
}

// Position calls the injected Position or the real version.
func (e *EndEffector) Position(x []float64) (r3.Vector, error) {
	if e.PositionFunc == nil {
		return e.EndEffector.Position(x)
	}
	return e.PositionFunc(x)
}

// OrientationError calls the injected OrientationError or the real version.
func (e *EndEffector) OrientationError(x []float64, desired quat.Number) (r3.Vector, error) {
	if e.OrientationErrorFunc == nil {
		return e.EndEffector.OrientationError(x, desired)
	}
	return e.OrientationErrorFunc(x, desired)
}

// Clone calls the injected Clone or the real version.
func (e *EndEffector) Clone() kinematics.EndEffector {
	if e.CloneFunc == nil {
		return e.EndEffector.Clone()
	}
	return e.CloneFunc()
}

// MotionProvider is an injected motion-capable kinematics provider.
type MotionProvider struct {
	EndEffector
	MotionFunc func(x, u []float64) (kinematics.Motion, error)
}

// Motion calls the injected Motion or the real version.
func (m *MotionProvider) Motion(x, u []float64) (kinematics.Motion, error) {
	if m.MotionFunc == nil {
		return m.EndEffector.EndEffector.(kinematics.MotionProvider).Motion(x, u)
	}
	return m.MotionFunc(x, u)
}

// Clone calls the injected Clone, wrapping the result so the copy retains
// the injected motion capability.
func (m *MotionProvider) Clone() kinematics.EndEffector {
	clone := *m
	return &clone
}
