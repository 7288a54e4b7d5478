// Package trajectory holds time-stamped end effector pose targets and the
// interpolation used to query them at arbitrary solver times.
package trajectory

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/czy2631918132/upright/spatialmath"
)

// PoseSample is a single target pose with its timestamp in seconds.
type PoseSample struct {
	Time        float64
	Position    r3.Vector
	Orientation quat.Number
}

// Trajectory is an ordered sequence of pose samples with strictly increasing
// timestamps. It is immutable once constructed and safe to share across
// concurrent readers.
type Trajectory struct {
	samples []PoseSample
}

// New builds a trajectory from the given samples. At least one sample is
// required and timestamps must be strictly increasing. Orientations are
// normalized on the way in.
func New(samples []PoseSample) (*Trajectory, error) {
	if len(samples) == 0 {
		return nil, errors.New("trajectory requires at least one pose sample")
	}
	owned := make([]PoseSample, len(samples))
	copy(owned, samples)
	for i := range owned {
		if i > 0 && owned[i].Time <= owned[i-1].Time {
			return nil, errors.Errorf(
				"trajectory timestamps must be strictly increasing, got %f after %f at index %d",
				owned[i].Time, owned[i-1].Time, i,
			)
		}
		owned[i].Orientation = spatialmath.Normalize(owned[i].Orientation)
	}
	return &Trajectory{samples: owned}, nil
}

// Len returns the number of samples.
func (traj *Trajectory) Len() int {
	return len(traj.samples)
}

// Sample returns the i-th pose sample.
func (traj *Trajectory) Sample(i int) PoseSample {
	return traj.samples[i]
}

// timeSegment locates the segment [i, i+1] bracketing the query time and the
// fraction alpha in [0,1] of that segment elapsed since sample i. Queries
// outside the trajectory's time range clamp to the nearest boundary segment.
// Must only be called with at least two samples.
func (traj *Trajectory) timeSegment(time float64) (int, float64) {
	samples := traj.samples
	if time <= samples[0].Time {
		return 0, 0
	}
	last := len(samples) - 1
	if time >= samples[last].Time {
		return last - 1, 1
	}
	i := 0
	for samples[i+1].Time < time {
		i++
	}
	lhs, rhs := samples[i], samples[i+1]
	return i, (time - lhs.Time) / (rhs.Time - lhs.Time)
}

// Interpolate returns the target pose at the query time. A single-sample
// trajectory returns that sample unconditionally. Otherwise positions are
// linearly interpolated and orientations slerped across the bracketing
// segment, with alpha the fraction of the segment elapsed since the earlier
// sample; at exactly the earlier sample's timestamp the earlier sample is
// returned unchanged.
func (traj *Trajectory) Interpolate(time float64) (r3.Vector, quat.Number) {
	if len(traj.samples) == 1 {
		only := traj.samples[0]
		return only.Position, only.Orientation
	}
	i, alpha := traj.timeSegment(time)
	lhs, rhs := traj.samples[i], traj.samples[i+1]
	position := lhs.Position.Mul(1 - alpha).Add(rhs.Position.Mul(alpha))
	orientation := spatialmath.Slerp(lhs.Orientation, rhs.Orientation, alpha)
	return position, orientation
}
