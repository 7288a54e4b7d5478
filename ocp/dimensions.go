package ocp

import (
	"github.com/pkg/errors"
)

// The planar base contributes x, y, and heading coordinates.
const baseCoords = 3

// RobotDimensions fixes the state and input layout for one robot
// configuration. It is supplied at construction and used purely for
// indexing.
type RobotDimensions struct {
	// ArmJoints is the number of arm degrees of freedom.
	ArmJoints int
}

// NewRobotDimensions validates and returns the dimensions.
func NewRobotDimensions(armJoints int) (RobotDimensions, error) {
	if armJoints < 0 {
		return RobotDimensions{}, errors.Errorf("number of arm joints must be non-negative, got %d", armJoints)
	}
	return RobotDimensions{ArmJoints: armJoints}, nil
}

// Q returns the number of generalized coordinates (base pose plus arm
// joints).
func (d RobotDimensions) Q() int {
	return baseCoords + d.ArmJoints
}

// V returns the number of generalized velocities.
func (d RobotDimensions) V() int {
	return d.Q()
}

// X returns the state dimension: coordinates stacked on velocities.
func (d RobotDimensions) X() int {
	return d.Q() + d.V()
}

// U returns the input dimension: planar base command (2), heading command
// (1), then arm commands.
func (d RobotDimensions) U() int {
	return 2 + 1 + d.ArmJoints
}
