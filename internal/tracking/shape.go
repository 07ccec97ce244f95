package tracking

import (
	"image"

	"gonum.org/v1/gonum/spatial/r2"
)

// Unassigned marks the ID and frame fields of a candidate that has not been
// promoted to a track.
const Unassigned = -1

// State is the lifecycle stage of a tracked shape on a given frame.
type State string

const (
	StateNew     State = "new"
	StateMatched State = "matched"
	StateStale   State = "stale"
)

// Shape is either a candidate from the current frame or a tracked shape.
type Shape struct {
	// ID is assigned on promotion and never changes afterwards.
	ID int `json:"id"`

	// Centroid is the mean of the hull vertices.
	Centroid r2.Vec `json:"centroid"`

	// Area is the enclosed polygon area in square pixels. It is measured when
	// the candidate is evaluated and kept from promotion onwards.
	Area float64 `json:"area"`

	// Hull is the simplified contour polygon in traversal order.
	Hull []image.Point `json:"hull"`

	// MatchFound is true only for the association pass in which the shape
	// was paired. On a track it means a candidate was claimed; on a
	// candidate returned by MarkMatched it means a track claimed it.
	MatchFound bool `json:"match_found"`

	// FirstFrameSeen is the frame on which the track was promoted.
	FirstFrameSeen int `json:"first_frame_seen"`

	// LastFrameSeen is the most recent frame on which the track was matched
	// or promoted.
	LastFrameSeen int `json:"last_frame_seen"`
}

// NewCandidate builds an unassigned candidate shape.
func NewCandidate(centroid r2.Vec, area float64, hull []image.Point) Shape {
	return Shape{
		ID:             Unassigned,
		Centroid:       centroid,
		Area:           area,
		Hull:           hull,
		FirstFrameSeen: Unassigned,
		LastFrameSeen:  Unassigned,
	}
}

// Tracked reports whether the shape has been promoted to a track.
func (s Shape) Tracked() bool {
	return s.ID != Unassigned
}

// Staleness is the number of frames since the shape was last seen.
func (s Shape) Staleness(frame int) int {
	return frame - s.LastFrameSeen
}

// State classifies a tracked shape relative to frame.
func (s Shape) State(frame int) State {
	switch {
	case s.LastFrameSeen != frame:
		return StateStale
	case s.FirstFrameSeen == frame:
		return StateNew
	default:
		return StateMatched
	}
}

// Clone returns a copy of s that shares no memory with it.
func (s Shape) Clone() Shape {
	c := s
	c.Hull = append([]image.Point(nil), s.Hull...)
	return c
}

func cloneShapes(shapes []Shape) []Shape {
	out := make([]Shape, len(shapes))
	for i, s := range shapes {
		out[i] = s.Clone()
	}
	return out
}
