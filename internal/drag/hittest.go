package drag

import "sync"

// HitTester maps a pointer position to the drop target under it, or nil.
type HitTester interface {
	HitTest(p Point) *Target
}

// Rect is an axis-aligned rectangle. Right and bottom edges are exclusive.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether p is inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Region is a droppable area.
type Region struct {
	Rect   Rect   `json:"rect"`
	Target Target `json:"target"`
}

// RectLayout is a HitTester over a list of regions. When regions overlap the one
// added last is on top. Safe for concurrent use.
type RectLayout struct {
	mu      sync.RWMutex
	regions []Region
}

// NewRectLayout creates a layout with regions in bottom-to-top order.
func NewRectLayout(regions ...Region) *RectLayout {
	l := &RectLayout{}
	l.Set(regions)
	return l
}

// Set replaces all regions.
func (l *RectLayout) Set(regions []Region) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.regions = append([]Region(nil), regions...)
}

// Regions returns a copy of the current regions.
func (l *RectLayout) Regions() []Region {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Region(nil), l.regions...)
}

// HitTest implements HitTester.
func (l *RectLayout) HitTest(p Point) *Target {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i := len(l.regions) - 1; i >= 0; i-- {
		if l.regions[i].Rect.Contains(p) {
			t := l.regions[i].Target
			return &t
		}
	}
	return nil
}
