package uitree

import (
	"encoding/json"
)

// Node is one component in a widget tree. Props holds every key of the
// component object except "type" and "children".
type Node struct {
	Type     string         `json:"type"`
	Props    map[string]any `json:"-"`
	Children []*Node        `json:"-"`
}

// Tree is a normalized widget tree. Trees are built fresh for every render
// and never shared between calls.
type Tree struct {
	Root *Node
}

// Map returns the serialized form of the node: its props, "type", and
// "children" when the node has any.
func (n *Node) Map() map[string]any {
	if n == nil {
		return nil
	}
	out := make(map[string]any, len(n.Props)+2)
	for key, value := range n.Props {
		out[key] = value
	}
	out["type"] = n.Type
	if len(n.Children) > 0 {
		children := make([]any, 0, len(n.Children))
		for _, child := range n.Children {
			children = append(children, child.Map())
		}
		out["children"] = children
	}
	return out
}

// MarshalJSON emits the serialized form returned by Map.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Map())
}

// Map returns the serialized form of the root node.
func (t Tree) Map() map[string]any {
	return t.Root.Map()
}

// MarshalJSON emits the serialized root node.
func (t Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Map())
}

// Walk visits every node depth first, parents before children. Returning
// false from fn stops the walk.
func (t Tree) Walk(fn func(node *Node, depth int) bool) {
	if t.Root == nil || fn == nil {
		return
	}
	walk(t.Root, 0, fn)
}

func walk(node *Node, depth int, fn func(*Node, int) bool) bool {
	if !fn(node, depth) {
		return false
	}
	for _, child := range node.Children {
		if !walk(child, depth+1, fn) {
			return false
		}
	}
	return true
}
