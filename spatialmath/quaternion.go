// Package spatialmath defines the spatial mathematical operations shared by
// the tray balancing problem layer: quaternion rotations, spherical
// interpolation, and rotational error metrics.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// If the angle between two quaternions is below this, slerp degenerates to
// linear interpolation to avoid dividing by a vanishing sine.
const slerpEpsilon = 1e-8

// Normalize scales q to unit norm. The zero quaternion is mapped to identity.
func Normalize(q quat.Number) quat.Number {
	norm := quat.Abs(q)
	if norm == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/norm, q)
}

// Rotate rotates the vector v by the unit quaternion q.
func Rotate(q quat.Number, v r3.Vector) r3.Vector {
	qv := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	rotated := quat.Mul(quat.Mul(q, qv), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}

// RotateInverse rotates the vector v by the inverse of the unit quaternion q,
// e.g. taking a world-frame vector into the frame q describes.
func RotateInverse(q quat.Number, v r3.Vector) r3.Vector {
	return Rotate(quat.Conj(q), v)
}

// Slerp spherically interpolates between two unit quaternions. by=0 returns
// q1, by=1 returns q2, and the path taken is the shortest great-circle arc
// between them.
func Slerp(q1, q2 quat.Number, by float64) quat.Number {
	// Take the short way around; q and -q are the same rotation.
	dot := q1.Real*q2.Real + q1.Imag*q2.Imag + q1.Jmag*q2.Jmag + q1.Kmag*q2.Kmag
	if dot < 0 {
		q2 = quat.Scale(-1, q2)
		dot = -dot
	}
	if dot > 1 {
		dot = 1
	}
	theta := math.Acos(dot)
	if theta < slerpEpsilon {
		return Normalize(quat.Add(quat.Scale(1-by, q1), quat.Scale(by, q2)))
	}
	sinTheta := math.Sin(theta)
	w1 := math.Sin((1-by)*theta) / sinTheta
	w2 := math.Sin(by*theta) / sinTheta
	return Normalize(quat.Add(quat.Scale(w1, q1), quat.Scale(w2, q2)))
}

// OrientationError returns the rotation-vector discrepancy between the
// orientation q and the desired orientation qd: the axis-angle (log map)
// representation of q relative to qd. It is zero iff the two orientations
// coincide, and its norm is the angle between them.
func OrientationError(q, qd quat.Number) r3.Vector {
	qe := quat.Mul(q, quat.Conj(qd))
	// qe and -qe describe the same rotation; keep the angle in [0, pi].
	if qe.Real < 0 {
		qe = quat.Scale(-1, qe)
	}
	imNorm := math.Sqrt(qe.Imag*qe.Imag + qe.Jmag*qe.Jmag + qe.Kmag*qe.Kmag)
	if imNorm < slerpEpsilon {
		// Small-angle regime, where theta/sin(theta/2) -> 2.
		return r3.Vector{X: 2 * qe.Imag, Y: 2 * qe.Jmag, Z: 2 * qe.Kmag}
	}
	theta := 2 * math.Atan2(imNorm, qe.Real)
	scale := theta / imNorm
	return r3.Vector{X: scale * qe.Imag, Y: scale * qe.Jmag, Z: scale * qe.Kmag}
}

// QuaternionAlmostEqual returns whether two quaternions represent nearly the
// same orientation, accounting for the double cover.
func QuaternionAlmostEqual(q1, q2 quat.Number, tol float64) bool {
	diff := quat.Mul(q1, quat.Conj(q2))
	return math.Abs(diff.Real) >= 1-tol
}
