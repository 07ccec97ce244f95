package tracking

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Params controls association.
type Params struct {
	// MaxDistance is the largest centroid distance, in pixels, at which a
	// candidate may still be matched to a track. The gate is inclusive.
	MaxDistance float64

	// StaleFrameLimit is how many frames a track may go unmatched. A track
	// is evicted once frame - LastFrameSeen exceeds it.
	StaleFrameLimit int
}

// DefaultParams returns the association settings used by the tracker.
func DefaultParams() Params {
	return Params{
		MaxDistance:     5000,
		StaleFrameLimit: 20,
	}
}

// IDSource hands out track IDs. IDs start at 0, increase by one and are
// never reused. The zero value is ready to use.
type IDSource struct {
	next int
}

// Next returns a fresh ID.
func (s *IDSource) Next() int {
	id := s.next
	s.next++
	return id
}

// Peek returns the ID the next call to Next will hand out.
func (s *IDSource) Peek() int {
	return s.next
}

// Match records one track/candidate pairing.
type Match struct {
	TrackID   int     `json:"track_id"`
	Candidate int     `json:"candidate"`
	Distance  float64 `json:"distance"`
}

// Report describes what one association pass did.
type Report struct {
	Frame      int     `json:"frame"`
	Candidates int     `json:"candidates"`
	Matched    []Match `json:"matched"`
	Promoted   []int   `json:"promoted"`
	Evicted    []int   `json:"evicted"`
}

// Associate updates a track list with one frame's candidates.
//
// The pass runs three phases in order:
//
//  1. Match: each track, in list order, claims the nearest unclaimed
//     candidate whose centroid lies within p.MaxDistance. A matched track
//     takes the candidate's centroid and hull and has LastFrameSeen set to
//     frame; its ID and area are kept.
//  2. Promote: every unclaimed candidate gets the next ID from ids and is
//     appended to the list with FirstFrameSeen and LastFrameSeen = frame.
//  3. Evict: tracks with frame - LastFrameSeen > p.StaleFrameLimit are
//     removed.
//
// Neither input slice is modified; the returned list shares no memory with
// them. MatchFound is true on exactly the tracks matched by this pass.
func Associate(tracked, candidates []Shape, frame int, p Params, ids *IDSource) ([]Shape, Report) {
	report := Report{Frame: frame, Candidates: len(candidates)}

	claimed := make([]bool, len(candidates))
	matchOf := make([]int, len(tracked))
	for ti, t := range tracked {
		matchOf[ti] = -1

		best, bestDist := -1, math.Inf(1)
		for ci, c := range candidates {
			if claimed[ci] {
				continue
			}
			d := r2.Norm(r2.Sub(t.Centroid, c.Centroid))
			if d > p.MaxDistance {
				continue
			}
			if d < bestDist {
				best, bestDist = ci, d
			}
		}
		if best < 0 {
			continue
		}
		claimed[best] = true
		matchOf[ti] = best
		report.Matched = append(report.Matched, Match{TrackID: t.ID, Candidate: best, Distance: bestDist})
	}

	next := make([]Shape, 0, len(tracked)+len(candidates))
	for ti, t := range tracked {
		s := t.Clone()
		s.MatchFound = false
		if ci := matchOf[ti]; ci >= 0 {
			c := candidates[ci]
			s.Centroid = c.Centroid
			s.Hull = append([]image.Point(nil), c.Hull...)
			s.LastFrameSeen = frame
			s.MatchFound = true
		}
		next = append(next, s)
	}

	for ci, c := range candidates {
		if claimed[ci] {
			continue
		}
		s := c.Clone()
		s.ID = ids.Next()
		s.MatchFound = false
		s.FirstFrameSeen = frame
		s.LastFrameSeen = frame
		next = append(next, s)
		report.Promoted = append(report.Promoted, s.ID)
	}

	kept := next[:0]
	for _, s := range next {
		if frame-s.LastFrameSeen > p.StaleFrameLimit {
			report.Evicted = append(report.Evicted, s.ID)
			continue
		}
		kept = append(kept, s)
	}

	return kept, report
}

// MarkMatched returns a copy of candidates with MatchFound set on the ones
// report says were claimed by a track. candidates must be the slice the
// report was produced from.
func MarkMatched(candidates []Shape, report Report) []Shape {
	out := cloneShapes(candidates)
	for _, m := range report.Matched {
		if m.Candidate >= 0 && m.Candidate < len(out) {
			out[m.Candidate].MatchFound = true
		}
	}
	return out
}
