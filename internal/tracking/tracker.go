package tracking

import "sync"

// Tracker owns the live track list and the ID counter across frames.
//
// All methods are safe for concurrent use, but association itself is meant
// to be driven by one frame source at a time: Update must see frames in
// increasing order.
type Tracker struct {
	mu     sync.RWMutex
	params Params
	tracks []Shape
	ids    IDSource
	last   Report
}

// NewTracker creates an empty tracker.
func NewTracker(p Params) *Tracker {
	return &Tracker{params: p}
}

// Update associates one frame's candidates with the live tracks and returns
// what changed. The candidates slice is not retained.
func (t *Tracker) Update(candidates []Shape, frame int) Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	var report Report
	t.tracks, report = Associate(t.tracks, candidates, frame, t.params, &t.ids)
	t.last = report
	return report
}

// UpdateParams applies fn to the tracker's parameters under the lock. The
// new values take effect on the next Update.
func (t *Tracker) UpdateParams(fn func(*Params)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.params)
}

// Params returns the current parameters.
func (t *Tracker) Params() Params {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.params
}

// Tracks returns a deep copy of the live tracks in insertion order.
func (t *Tracker) Tracks() []Shape {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneShapes(t.tracks)
}

// Track looks up one live track by ID.
func (t *Tracker) Track(id int) (Shape, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.tracks {
		if s.ID == id {
			return s.Clone(), true
		}
	}
	return Shape{}, false
}

// Len returns the number of live tracks.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.tracks)
}

// LastReport returns the report of the most recent Update.
func (t *Tracker) LastReport() Report {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// NextID returns the ID the next promoted track will receive.
func (t *Tracker) NextID() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ids.Peek()
}

// Reset drops every track. The ID counter is not rewound.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracks = nil
	t.last = Report{}
}
