package snap

import (
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"

	"github.com/hvackit/ductline/pkg/geom"
)

// indexTol is the half-extent of the degenerate rectangle an indexed
// point occupies in the R-tree.
const indexTol = 1e-6

// rtree node sizing; the drawing graph stays in the low thousands of
// snap points, so modest fanout keeps rebalancing cheap.
const (
	rtreeMin = 8
	rtreeMax = 16
)

// item adapts a snap Point to rtreego.Spatial. The same pointer that was
// inserted must be handed to Delete, so the index keeps items by ID.
type item struct {
	pt   Point
	rect rtreego.Rect
}

func (it *item) Bounds() rtreego.Rect { return it.rect }

// SpatialIndex is a dynamic 2D index over snap points backed by an
// R-tree. Queries are safe for concurrent readers; all writes happen on
// the drawing-session thread, and the lock only guards readers against
// a concurrent writer.
type SpatialIndex struct {
	mu    sync.RWMutex
	tree  *rtreego.Rtree
	items map[string]*item
}

// NewSpatialIndex creates an empty index.
func NewSpatialIndex() *SpatialIndex {
	return &SpatialIndex{
		tree:  rtreego.NewTree(2, rtreeMin, rtreeMax),
		items: make(map[string]*item),
	}
}

// Insert adds a snap point. Re-inserting an existing ID replaces the
// stored point.
func (ix *SpatialIndex) Insert(pt Point) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if old, ok := ix.items[pt.ID]; ok {
		ix.tree.Delete(old)
	}
	it := &item{
		pt:   pt,
		rect: rtreego.Point{pt.Position.X, pt.Position.Y}.ToRect(indexTol),
	}
	ix.items[pt.ID] = it
	ix.tree.Insert(it)
}

// Remove deletes a snap point by ID. Removing an unknown ID is a no-op.
func (ix *SpatialIndex) Remove(id string) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	it, ok := ix.items[id]
	if !ok {
		return false
	}
	delete(ix.items, id)
	return ix.tree.Delete(it)
}

// Len returns the number of indexed points.
func (ix *SpatialIndex) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.items)
}

// QueryNear returns all snap points within radius of pos, ordered by
// Euclidean distance (ties broken by ID for determinism). An empty
// result is not an error.
func (ix *SpatialIndex) QueryNear(pos geom.Point2D, radius float64) []Point {
	if radius < 0 {
		return nil
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	bb, err := rtreego.NewRect(
		rtreego.Point{pos.X - radius, pos.Y - radius},
		[]float64{2 * radius, 2 * radius},
	)
	if err != nil {
		return nil
	}

	var out []Point
	for _, sp := range ix.tree.SearchIntersect(bb) {
		it := sp.(*item)
		if it.pt.Position.Dist(pos) <= radius {
			out = append(out, it.pt)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].Position.Dist(pos), out[j].Position.Dist(pos)
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
	return out
}
