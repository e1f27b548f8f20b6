// Package introspect attaches structured debugging metadata to policies,
// predicates and delay strategies (spec §4.13) without any runtime
// reflection on their concrete types.
package introspect

import "sync/atomic"

// Kind enumerates what a Node describes.
type Kind string

const (
	KindAuth     Kind = "auth"
	KindRetry    Kind = "retry"
	KindStrategy Kind = "strategy"
	KindPredicate Kind = "predicate"
	KindCache    Kind = "cache"
	KindOther    Kind = "other"
)

// Node is one entry in the introspection tree. Consumers (a CLI inspector,
// a debugger) render this tree directly; they never type-switch on the
// concrete Go type behind a Policy.
type Node struct {
	ID       int64
	Name     string
	Kind     Kind
	Options  map[string]any
	Children []*Node
}

var idSeq atomic.Int64

// NextID returns the next value from the monotonic counter used to stamp
// every Node, per spec §4.13 ("id is assigned from a monotonic counter on
// tagging").
func NextID() int64 {
	return idSeq.Add(1)
}

// New stamps a fresh Node with the next monotonic id.
func New(name string, kind Kind, options map[string]any, children ...*Node) *Node {
	return &Node{
		ID:       NextID(),
		Name:     name,
		Kind:     kind,
		Options:  options,
		Children: children,
	}
}

// Registry is an optional convenience that collects every Node tagged
// during chain construction in declaration order, so a client can dump its
// whole assembled pipeline (not just one composite's children) on demand.
type Registry struct {
	nodes []*Node
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Tag records a Node and returns it, so call sites can do
// `node := registry.Tag(introspect.New(...))` inline.
func (r *Registry) Tag(n *Node) *Node {
	r.nodes = append(r.nodes, n)
	return n
}

// Nodes returns every tagged Node in declaration order.
func (r *Registry) Nodes() []*Node {
	out := make([]*Node, len(r.nodes))
	copy(out, r.nodes)
	return out
}
