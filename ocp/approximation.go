// Package ocp formulates the tray balancing optimal control problem: the end
// effector tracking cost, the balance inequality constraints, and the mobile
// base plus arm dynamics, each with the local approximations a
// gradient-based trajectory optimizer consumes.
package ocp

import (
	"gonum.org/v1/gonum/mat"
)

// ScalarFunctionQuadraticApproximation is the local quadratic model of a
// scalar function of state and input. Pure state functions carry a
// zero-width input block, represented by nil input members.
type ScalarFunctionQuadraticApproximation struct {
	// F is the function value at the linearization point.
	F float64
	// Dfdx is the gradient with respect to the state.
	Dfdx *mat.VecDense
	// Dfdxx is the Hessian with respect to the state.
	Dfdxx *mat.Dense
	// Dfdu and Dfduu are the input gradient and Hessian; nil when the
	// function has no direct input dependence.
	Dfdu  *mat.VecDense
	Dfduu *mat.Dense
	// Dfdux is the mixed input/state second derivative; nil when either
	// block is zero width.
	Dfdux *mat.Dense
}

// VectorFunctionLinearApproximation is the first-order model of a
// vector-valued function of state and input.
type VectorFunctionLinearApproximation struct {
	// F holds the residual values at the linearization point.
	F []float64
	// Dfdx and Dfdu are the Jacobian blocks with respect to state and input.
	Dfdx *mat.Dense
	Dfdu *mat.Dense
}
