package ordering

import (
	"math"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/pkg/errors"

	"github.com/mandelsoft/graphstore/pkg/graph"
	"github.com/mandelsoft/graphstore/pkg/transaction"
)

// DisplayOrder is the default property holding the
// sibling position of a child vertex.
const DisplayOrder = "displayOrder"

// Layer maintains the sibling order of child vertices connected
// to a parent by a relationship label. The order is stored as
// a numeric property of the children, insertions use half steps
// and SortChildren renormalizes to consecutive integers.
type Layer struct {
	engine   *transaction.Engine
	property string
}

func New(e *transaction.Engine, property ...string) *Layer {
	p := DisplayOrder
	if len(property) > 0 && property[0] != "" {
		p = property[0]
	}
	return &Layer{engine: e, property: p}
}

func (l *Layer) Property() string {
	return l.property
}

// Position returns the order value of a vertex.
func (l *Layer) Position(v *graph.Vertex) (float64, bool) {
	p, ok := v.Property(l.property)
	if !ok {
		return 0, false
	}
	return p.AsNumber()
}

type key struct {
	missing bool
	order   float64
	index   int
}

// compare orders by position, vertices without position last.
// Equal positions are ordered by the adjacency index.
func compare(a, b interface{}) int {
	ka, kb := a.(key), b.(key)
	switch {
	case ka.missing != kb.missing:
		if ka.missing {
			return 1
		}
		return -1
	case ka.order < kb.order:
		return -1
	case ka.order > kb.order:
		return 1
	}
	return ka.index - kb.index
}

// Children returns the children of a parent in sibling order.
func (l *Layer) Children(parent graph.Id, label string) []*graph.Vertex {
	s := l.engine.Store()
	tree := redblacktree.NewWith(compare)
	seen := map[graph.Id]bool{}
	for i, e := range s.Out(parent, label) {
		v := s.Vertex(e.Target)
		if v == nil || seen[v.Id] {
			continue
		}
		seen[v.Id] = true
		pos, ok := l.Position(v)
		tree.Put(key{missing: !ok, order: pos, index: i}, v)
	}
	r := make([]*graph.Vertex, 0, tree.Size())
	for _, v := range tree.Values() {
		r = append(r, v.(*graph.Vertex))
	}
	return r
}

func (l *Layer) bounds(parent graph.Id, label string) (min, max float64, found bool) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, c := range l.Children(parent, label) {
		if p, ok := l.Position(c); ok {
			min = math.Min(min, p)
			max = math.Max(max, p)
			found = true
		}
	}
	return min, max, found
}

func (l *Layer) sibling(parent graph.Id, label string, id graph.Id) (float64, error) {
	for _, c := range l.Children(parent, label) {
		if c.Id == id {
			p, ok := l.Position(c)
			if !ok {
				return 0, errors.Errorf("sibling %q has no %s", id, l.property)
			}
			return p, nil
		}
	}
	return 0, errors.Wrapf(graph.ErrNotFound, "sibling %q of %q", id, parent)
}

func (l *Layer) isChild(parent graph.Id, label string, child graph.Id) bool {
	for _, e := range l.engine.Store().Out(parent, label) {
		if e.Target == child {
			return true
		}
	}
	return false
}

// Place connects a child to a parent, if not yet connected,
// and sets its position.
func (l *Layer) Place(txn int, parent graph.Id, label string, child graph.Id, pos float64) error {
	if !l.isChild(parent, label, child) {
		if _, err := l.engine.AddEdge(txn, label, parent, child); err != nil {
			return err
		}
	}
	log.Debug("placing {{child}} below {{parent}} at {{position}}", "child", child, "parent", parent, "position", pos)
	return l.engine.MergeProperties(txn, child, graph.Properties{l.property: graph.Number(pos)})
}

// Append places a child after all ordered siblings.
func (l *Layer) Append(txn int, parent graph.Id, label string, child graph.Id) error {
	pos := 0.0
	if _, max, ok := l.bounds(parent, label); ok {
		pos = math.Floor(max) + 1
	}
	return l.Place(txn, parent, label, child, pos)
}

// Prepend places a child before all ordered siblings.
func (l *Layer) Prepend(txn int, parent graph.Id, label string, child graph.Id) error {
	pos := 0.0
	if min, _, ok := l.bounds(parent, label); ok {
		pos = math.Ceil(min) - 1
	}
	return l.Place(txn, parent, label, child, pos)
}

// InsertBefore places a child half a step before a sibling.
func (l *Layer) InsertBefore(txn int, parent graph.Id, label string, child, sibling graph.Id) error {
	pos, err := l.sibling(parent, label, sibling)
	if err != nil {
		return err
	}
	return l.Place(txn, parent, label, child, pos-0.5)
}

// InsertAfter places a child half a step after a sibling.
func (l *Layer) InsertAfter(txn int, parent graph.Id, label string, child, sibling graph.Id) error {
	pos, err := l.sibling(parent, label, sibling)
	if err != nil {
		return err
	}
	return l.Place(txn, parent, label, child, pos+0.5)
}

// InsertBetween places a child at the center between two siblings.
func (l *Layer) InsertBetween(txn int, parent graph.Id, label string, child, after, before graph.Id) error {
	a, err := l.sibling(parent, label, after)
	if err != nil {
		return err
	}
	b, err := l.sibling(parent, label, before)
	if err != nil {
		return err
	}
	return l.Place(txn, parent, label, child, (a+b)/2)
}

// Move re-parents a child. It is detached from all current parents
// for the label and placed before the given sibling of the new
// parent, or appended if no sibling is given. The sibling is
// resolved before anything is changed.
func (l *Layer) Move(txn int, label string, child, parent, before graph.Id) error {
	s := l.engine.Store()
	if _, err := s.GetVertex(child); err != nil {
		return err
	}
	if _, err := s.GetVertex(parent); err != nil {
		return err
	}
	var pos float64
	if before != "" {
		if before == child {
			return errors.Errorf("cannot move %q before itself", child)
		}
		var err error
		pos, err = l.sibling(parent, label, before)
		if err != nil {
			return err
		}
	}
	for _, e := range s.In(child, label) {
		if err := l.engine.DeleteEdge(txn, e.Id); err != nil {
			return err
		}
	}
	if before == "" {
		return l.Append(txn, parent, label, child)
	}
	return l.Place(txn, parent, label, child, pos-0.5)
}

// SortChildren assigns consecutive integers starting with 0 to
// the children in sibling order. Only changed positions are
// written. It returns the number of changed children.
func (l *Layer) SortChildren(txn int, parent graph.Id, label string) (int, error) {
	changed := 0
	for i, c := range l.Children(parent, label) {
		if p, ok := l.Position(c); ok && p == float64(i) {
			continue
		}
		if err := l.engine.MergeProperties(txn, c.Id, graph.Properties{l.property: graph.Int(i)}); err != nil {
			return changed, err
		}
		changed++
	}
	if changed > 0 {
		log.Debug("renormalized {{count}} children of {{parent}}", "count", changed, "parent", parent)
	}
	return changed, nil
}

func (l *Layer) Engine() *transaction.Engine {
	return l.engine
}
