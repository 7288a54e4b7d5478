package kinematics

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

var centralDifferences = &fd.JacobianSettings{Formula: fd.Central}

// PositionLinearApproximation returns the provider's analytic position
// approximation when it offers one, and a central finite-difference Jacobian
// otherwise.
func PositionLinearApproximation(ee EndEffector, x []float64) (*LinearApproximation, error) {
	if analytic, ok := ee.(Linearizable); ok {
		return analytic.PositionLinearApproximation(x)
	}
	value, err := ee.Position(x)
	if err != nil {
		return nil, err
	}
	var evalErr error
	jacobian := mat.NewDense(3, len(x), nil)
	fd.Jacobian(jacobian, func(dst, xv []float64) {
		p, err := ee.Position(xv)
		if err != nil {
			evalErr = err
			return
		}
		dst[0], dst[1], dst[2] = p.X, p.Y, p.Z
	}, x, centralDifferences)
	if evalErr != nil {
		return nil, evalErr
	}
	return &LinearApproximation{
		Value:    []float64{value.X, value.Y, value.Z},
		Jacobian: jacobian,
	}, nil
}

// OrientationErrorLinearApproximation mirrors PositionLinearApproximation for
// the rotational error against a fixed desired orientation.
func OrientationErrorLinearApproximation(
	ee EndEffector, x []float64, desired quat.Number,
) (*LinearApproximation, error) {
	if analytic, ok := ee.(Linearizable); ok {
		return analytic.OrientationErrorLinearApproximation(x, desired)
	}
	value, err := ee.OrientationError(x, desired)
	if err != nil {
		return nil, err
	}
	var evalErr error
	jacobian := mat.NewDense(3, len(x), nil)
	fd.Jacobian(jacobian, func(dst, xv []float64) {
		e, err := ee.OrientationError(xv, desired)
		if err != nil {
			evalErr = err
			return
		}
		dst[0], dst[1], dst[2] = e.X, e.Y, e.Z
	}, x, centralDifferences)
	if evalErr != nil {
		return nil, evalErr
	}
	return &LinearApproximation{
		Value:    []float64{value.X, value.Y, value.Z},
		Jacobian: jacobian,
	}, nil
}

func vectorValue(v r3.Vector) []float64 {
	return []float64{v.X, v.Y, v.Z}
}
