// Package projection plans and applies output shaping from dot-delimited
// paths such as "address.city".
package projection

import (
	"sort"
	"strings"

	"github.com/roach88/genq/internal/document"
	"github.com/roach88/genq/internal/schema"
)

// Node is one path segment. A leaf emits the matched value whole; an
// internal node descends into it and keeps filtering.
type Node struct {
	Segment  string
	Leaf     bool
	Children []*Node
}

// Tree is an ordered set of root nodes. Roots and children keep the order in
// which their paths were first listed.
type Tree struct {
	Roots []*Node
}

// Plan builds a Tree from paths. Empty segments are ignored. Segments are
// merged case-insensitively, and a leaf absorbs any deeper path under it.
func Plan(paths []string) *Tree {
	t := &Tree{}
	for _, p := range paths {
		var segments []string
		for _, s := range strings.Split(p, ".") {
			if s = strings.TrimSpace(s); s != "" {
				segments = append(segments, s)
			}
		}
		if len(segments) > 0 {
			t.Roots = insert(t.Roots, segments)
		}
	}
	return t
}

func insert(level []*Node, segments []string) []*Node {
	head, rest := segments[0], segments[1:]

	var n *Node
	for _, c := range level {
		if schema.Fold(c.Segment) == schema.Fold(head) {
			n = c
			break
		}
	}
	if n == nil {
		n = &Node{Segment: head}
		level = append(level, n)
	} else if n.Leaf {
		return level
	}

	if len(rest) == 0 {
		n.Leaf = true
		n.Children = nil
		return level
	}
	n.Children = insert(n.Children, rest)
	return level
}

// Empty reports whether the tree shapes nothing.
func (t *Tree) Empty() bool {
	return t == nil || len(t.Roots) == 0
}

// Apply filters obj down to the members reachable by some path, at every
// level visited. Output members follow path order, not obj's order, and
// carry obj's own key spelling. Paths that do not resolve are dropped, as is
// any descent that ends up empty.
func (t *Tree) Apply(obj document.Object) document.Object {
	if t.Empty() {
		return obj
	}
	return applyNodes(t.Roots, obj)
}

func applyNodes(nodes []*Node, src any) document.Object {
	out := document.Object{}
	for _, n := range nodes {
		key, val, ok := lookup(src, n.Segment)
		if !ok {
			continue
		}
		if n.Leaf {
			out = append(out, document.Member{Key: key, Value: val})
			continue
		}
		if sub, ok := descend(n.Children, val); ok {
			out = append(out, document.Member{Key: key, Value: sub})
		}
	}
	return out
}

// descend applies children to a nested object, or to every object element
// of an array.
func descend(children []*Node, val any) (any, bool) {
	switch v := val.(type) {
	case document.Object, map[string]any:
		sub := applyNodes(children, v)
		return sub, len(sub) > 0
	case []any:
		items := make([]any, 0, len(v))
		for _, elem := range v {
			switch elem.(type) {
			case document.Object, map[string]any:
				if sub := applyNodes(children, elem); len(sub) > 0 {
					items = append(items, sub)
				}
			}
		}
		return items, len(items) > 0
	default:
		return nil, false
	}
}

// lookup finds segment among the keys of src: exact match first, then the
// lower-cased segment, then a case-folded comparison.
func lookup(src any, segment string) (string, any, bool) {
	keys, get := view(src)
	if keys == nil {
		return "", nil, false
	}

	if v, ok := get(segment); ok {
		return segment, v, true
	}
	if lower := strings.ToLower(segment); lower != segment {
		if v, ok := get(lower); ok {
			return lower, v, true
		}
	}
	folded := schema.Fold(segment)
	for _, k := range keys {
		if schema.Fold(k) == folded {
			v, _ := get(k)
			return k, v, true
		}
	}
	return "", nil, false
}

func view(src any) ([]string, func(string) (any, bool)) {
	switch s := src.(type) {
	case document.Object:
		return s.Keys(), s.Get
	case map[string]any:
		keys := make([]string, 0, len(s))
		for k := range s {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return keys, func(k string) (any, bool) {
			v, ok := s[k]
			return v, ok
		}
	default:
		return nil, nil
	}
}

// Columns returns the declared field names for query-shape mode, in path
// order. It reports false unless every path is a single segment naming a
// user field of rt, in which case fetching full records is unnecessary.
func (t *Tree) Columns(rt *schema.RecordType) ([]string, bool) {
	if t.Empty() {
		return nil, false
	}
	columns := make([]string, 0, len(t.Roots))
	for _, n := range t.Roots {
		if !n.Leaf {
			return nil, false
		}
		f, ok := rt.Field(n.Segment)
		if !ok {
			return nil, false
		}
		columns = append(columns, f.Name)
	}
	return columns, true
}
