package explorer

import (
	"sort"
	"strings"
)

// Node is one segment in the key prefix tree. A node can be a leaf
// (a real key ends here) and a directory at the same time, when a
// key is also a prefix of longer keys.
type Node struct {
	Segment   string
	Key       string // full key, set when IsLeaf
	IsLeaf    bool
	ValueKind string // backend type, filled in lazily
	children  map[string]*Node
}

// Children returns child nodes sorted by segment.
func (n *Node) Children() []*Node {
	if len(n.children) == 0 {
		return nil
	}
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Segment < out[j].Segment })
	return out
}

// Tree holds scanned keys split on a delimiter. Not safe for
// concurrent use; the Scanner serializes access.
type Tree struct {
	root      *Node
	delimiter string
	leaves    int
}

// NewTree builds an empty tree. An empty delimiter defaults to ":".
func NewTree(delimiter string) *Tree {
	if delimiter == "" {
		delimiter = ":"
	}
	return &Tree{
		root:      &Node{children: make(map[string]*Node)},
		delimiter: delimiter,
	}
}

// Insert merges one key into the tree, creating intermediate
// directory nodes as needed. Re-inserting an existing key is a
// no-op. It reports whether the key was new.
func (t *Tree) Insert(key string) bool {
	segments := strings.Split(key, t.delimiter)
	node := t.root
	for _, seg := range segments {
		if node.children == nil {
			node.children = make(map[string]*Node)
		}
		child, ok := node.children[seg]
		if !ok {
			child = &Node{Segment: seg}
			node.children[seg] = child
		}
		node = child
	}
	if node.IsLeaf {
		return false
	}
	node.IsLeaf = true
	node.Key = key
	t.leaves++
	return true
}

// SetValueKind records the backend type for a key already in the
// tree. Unknown keys are ignored.
func (t *Tree) SetValueKind(key, kind string) {
	if n := t.find(key); n != nil && n.IsLeaf {
		n.ValueKind = kind
	}
}

func (t *Tree) find(key string) *Node {
	node := t.root
	for _, seg := range strings.Split(key, t.delimiter) {
		child, ok := node.children[seg]
		if !ok {
			return nil
		}
		node = child
	}
	return node
}

// Len reports the number of keys (leaves) in the tree.
func (t *Tree) Len() int { return t.leaves }

// Keys returns all keys in sorted order.
func (t *Tree) Keys() []string {
	out := make([]string, 0, t.leaves)
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsLeaf {
			out = append(out, n.Key)
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(t.root)
	sort.Strings(out)
	return out
}

// Snapshot deep-copies the tree so the render loop can hold it
// across a tick without racing the scanner.
func (t *Tree) Snapshot() *Node {
	return copyNode(t.root)
}

func copyNode(n *Node) *Node {
	cp := &Node{
		Segment:   n.Segment,
		Key:       n.Key,
		IsLeaf:    n.IsLeaf,
		ValueKind: n.ValueKind,
	}
	if len(n.children) > 0 {
		cp.children = make(map[string]*Node, len(n.children))
		for seg, child := range n.children {
			cp.children[seg] = copyNode(child)
		}
	}
	return cp
}
