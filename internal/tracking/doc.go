// Package tracking turns simplified contours into candidate shapes and keeps
// identity-persistent tracks of them from frame to frame.
//
// Evaluate measures each contour (shoelace area, mean-of-vertices centroid)
// and keeps those whose area lies within [minArea, maxArea]. Associate then
// pairs candidates with existing tracks by nearest centroid, promotes
// leftovers to new tracks and evicts tracks that have gone unseen for too
// long. Tracker wraps Associate with the state that has to survive between
// frames: the live track list and the ID counter.
//
// # Association Order
//
// Tracks pick candidates in insertion order, so older tracks get first pick.
// A candidate can be claimed once per frame. Among candidates at the same
// minimum distance the first one in candidate order wins. Matches are
// decided on indices and written back only after the search, so no result
// ever aliases a candidate's hull.
//
// # Track Lifecycle
//
//	New ──► Matched ◄──► Stale ──► Evicted
//	  └──────────────────►┘
//
// A track is New on the frame it is promoted, Matched on any later frame it
// is paired, and Stale otherwise. It is evicted once
// frame - LastFrameSeen exceeds StaleFrameLimit.
package tracking
