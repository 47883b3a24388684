package graph

import (
	"fmt"
	"slices"
)

// Adjacency maps relationship labels to ordered edge id lists.
type Adjacency map[string][]Id

func (a Adjacency) Clone() Adjacency {
	c := make(Adjacency, len(a))
	for l, ids := range a {
		c[l] = slices.Clone(ids)
	}
	return c
}

// Labels returns the relationship labels in use, sorted.
func (a Adjacency) Labels() []string {
	r := make([]string, 0, len(a))
	for l := range a {
		r = append(r, l)
	}
	slices.Sort(r)
	return r
}

func (a Adjacency) add(label string, id Id, pos int) {
	list := a[label]
	if pos < 0 || pos > len(list) {
		pos = len(list)
	}
	a[label] = slices.Insert(list, pos, id)
}

func (a Adjacency) remove(label string, id Id) int {
	list := a[label]
	i := slices.Index(list, id)
	if i < 0 {
		return -1
	}
	list = slices.Delete(list, i, i+1)
	if len(list) == 0 {
		delete(a, label)
	} else {
		a[label] = list
	}
	return i
}

// reorder arranges the given ids of a label list in the given
// order. Other ids keep their positions.
func (a Adjacency) reorder(label string, order []Id) {
	rank := map[Id]int{}
	for i, id := range order {
		rank[id] = i
	}
	list := a[label]
	var slots []int
	var members []Id
	for i, id := range list {
		if _, ok := rank[id]; ok {
			slots = append(slots, i)
			members = append(members, id)
		}
	}
	slices.SortStableFunc(members, func(x, y Id) int { return rank[x] - rank[y] })
	for i, pos := range slots {
		list[pos] = members[i]
	}
}

func (a Adjacency) index(label string, id Id) int {
	return slices.Index(a[label], id)
}

// Vertex is a labeled node. The first label is the primary type.
// Vertices returned by a Store are owned by the store and must not
// be modified by callers.
type Vertex struct {
	Id         Id         `json:"id"`
	Labels     []string   `json:"labels"`
	Properties Properties `json:"properties,omitempty"`
	Out        Adjacency  `json:"out,omitempty"`
	In         Adjacency  `json:"in,omitempty"`

	// Seq is the creation sequence number assigned by the store.
	// It is kept across delete/restore cycles and determines the
	// order of label lookups.
	Seq uint64 `json:"-"`
}

func NewVertex(id Id, labels ...string) *Vertex {
	return &Vertex{
		Id:         id,
		Labels:     labels,
		Properties: Properties{},
	}
}

// WithProperty sets a property for a vertex not yet added to a store.
func (v *Vertex) WithProperty(key string, value any) *Vertex {
	if v.Properties == nil {
		v.Properties = Properties{}
	}
	v.Properties[key] = MustValueOf(value)
	return v
}

func (v *Vertex) PrimaryLabel() string {
	if len(v.Labels) == 0 {
		return ""
	}
	return v.Labels[0]
}

func (v *Vertex) HasLabel(label string) bool {
	return slices.Contains(v.Labels, label)
}

// Property returns the effective value of a property.
func (v *Vertex) Property(key string) (Value, bool) {
	return v.Properties.Get(key)
}

// Clone provides a deep copy with normalized (non-nil) maps.
func (v *Vertex) Clone() *Vertex {
	return &Vertex{
		Id:         v.Id,
		Labels:     slices.Clone(v.Labels),
		Properties: v.Properties.Clone(),
		Out:        v.Out.Clone(),
		In:         v.In.Clone(),
		Seq:        v.Seq,
	}
}

func (v *Vertex) String() string {
	return fmt.Sprintf("%s(%s)", v.PrimaryLabel(), v.Id)
}

// Edge is a directed labeled relationship. Parallel edges
// with equal label and endpoints are allowed.
type Edge struct {
	Id     Id     `json:"id"`
	Label  string `json:"label"`
	Source Id     `json:"source"`
	Target Id     `json:"target"`
}

func (e *Edge) String() string {
	return fmt.Sprintf("%s-[%s:%s]->%s", e.Source, e.Label, e.Id, e.Target)
}

// EdgePlacement describes an edge together with its positions
// in the adjacency lists of its source and target.
// A negative position appends.
type EdgePlacement struct {
	Edge   `json:",inline"`
	OutPos int `json:"outPos"`
	InPos  int `json:"inPos"`
}
