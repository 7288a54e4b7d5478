// Package balancing describes the rigid objects carried on the tray and the
// settings governing which stability conditions the controller enforces on
// them.
package balancing

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// BalancedObject describes one rigid object resting on the tray, in the tray
// frame: its footprint on the contact plane, where its center of mass sits
// relative to the footprint's origin, and its mass.
type BalancedObject struct {
	// Mass in kilograms.
	Mass float64
	// CoM is the center of mass in the tray frame; CoM.Z is its height above
	// the contact plane.
	CoM r3.Vector
	// SupportPolygon is the footprint on the contact plane, as
	// counterclockwise vertices in the tray frame.
	SupportPolygon []r2.Point
	// Friction is the object's contact friction coefficient, used when no
	// explicit contact points are registered for it.
	Friction float64
}

// SupportEdge is one edge of a support polygon expressed as the half-plane
// inequality Normal·p - Offset >= 0, with Normal the inward unit normal.
type SupportEdge struct {
	Normal r2.Point
	Offset float64
}

// SupportEdges converts the polygon's vertices into half-plane form. The
// polygon must be counterclockwise for the normals to point inward.
func (o *BalancedObject) SupportEdges() []SupportEdge {
	edges := make([]SupportEdge, 0, len(o.SupportPolygon))
	for i, vertex := range o.SupportPolygon {
		next := o.SupportPolygon[(i+1)%len(o.SupportPolygon)]
		normal := next.Sub(vertex).Ortho().Normalize()
		edges = append(edges, SupportEdge{Normal: normal, Offset: normal.Dot(vertex)})
	}
	return edges
}

// Validate checks that the object is physically meaningful.
func (o *BalancedObject) Validate() error {
	var err error
	if o.Mass <= 0 {
		err = multierr.Append(err, errors.Errorf("mass must be positive, got %f", o.Mass))
	}
	if len(o.SupportPolygon) < 3 {
		err = multierr.Append(err, errors.Errorf(
			"support polygon needs at least 3 vertices, got %d", len(o.SupportPolygon)))
	}
	if o.CoM.Z < 0 {
		err = multierr.Append(err, errors.Errorf(
			"center of mass height must be non-negative, got %f", o.CoM.Z))
	}
	if o.Friction < 0 {
		err = multierr.Append(err, errors.Errorf(
			"friction coefficient must be non-negative, got %f", o.Friction))
	}
	return err
}

// ContactPoint is a single contact between an object and the tray, with its
// own friction coefficient. Position and Normal are in the tray frame.
type ContactPoint struct {
	// Object names the balanced object this contact belongs to.
	Object   string
	Position r3.Vector
	// Normal is the contact normal; the tray surface normal +z if zero.
	Normal   r3.Vector
	Friction float64
}

// NormalOrDefault returns the contact normal, defaulting to the tray surface
// normal when unset.
func (c *ContactPoint) NormalOrDefault() r3.Vector {
	if c.Normal == (r3.Vector{}) {
		return r3.Vector{Z: 1}
	}
	return c.Normal.Normalize()
}
