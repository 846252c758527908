package store

import (
	"slices"
	"strings"

	"github.com/ccollicutt/sherlog/pkg/model"
)

// Source is a node of the flattened source tree. Ids are assigned in
// pre-order, so the subtree of a node holds exactly the ids [ID, LastID].
type Source struct {
	Name string
	ID   uint32

	// LastID is the largest id in the subtree.
	LastID uint32

	// ChildCount is the number of entries in the subtree.
	ChildCount uint64

	Children []*Source

	leaf bool
}

// IsLeaf reports whether the node owned entries.
func (s *Source) IsLeaf() bool {
	return s.leaf
}

// Contains reports whether id lies within the subtree.
func (s *Source) Contains(id uint32) bool {
	return id >= s.ID && id <= s.LastID
}

// Find returns the node with the given id, or nil.
func (s *Source) Find(id uint32) *Source {
	for n := s; n != nil && n.Contains(id); {
		if n.ID == id {
			return n
		}
		var next *Source
		for _, c := range n.Children {
			if c.Contains(id) {
				next = c
				break
			}
		}
		n = next
	}
	return nil
}

// Path returns the names from the root down to the node with the given id.
// It is nil if the id is not part of the tree.
func (s *Source) Path(id uint32) []string {
	var path []string
	for n := s; n != nil && n.Contains(id); {
		path = append(path, n.Name)
		if n.ID == id {
			return path
		}
		var next *Source
		for _, c := range n.Children {
			if c.Contains(id) {
				next = c
				break
			}
		}
		n = next
	}
	return nil
}

// Lookup resolves a slash separated path of names below s, such as
// "Sensor/axis/Main". The empty path is s itself.
func (s *Source) Lookup(path string) *Source {
	n := s
	for name := range strings.SplitSeq(path, "/") {
		if name == "" {
			continue
		}
		var next *Source
		for _, c := range n.Children {
			if c.Name == name {
				next = c
				break
			}
		}
		if next == nil {
			return nil
		}
		n = next
	}
	return n
}

// Walk calls fn for every node in pre-order with its depth below s. When fn
// returns false the children of that node are skipped.
func (s *Source) Walk(fn func(src *Source, depth int) bool) {
	s.walk(fn, 0)
}

func (s *Source) walk(fn func(*Source, int) bool, depth int) {
	if !fn(s, depth) {
		return
	}
	for _, c := range s.Children {
		c.walk(fn, depth+1)
	}
}

// Flatten assigns ids to the nodes of root and collects all entries,
// stamped with the id of their source, into one slice ordered by time.
// Entries with equal timestamps keep their tree order.
func Flatten(root *model.LogSource) (*Source, []Entry) {
	f := flattener{entries: make([]Entry, 0, root.EntryCount())}
	tree := f.visit(root)
	slices.SortStableFunc(f.entries, func(a, b Entry) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return tree, f.entries
}

type flattener struct {
	next    uint32
	entries []Entry
}

func (f *flattener) visit(src *model.LogSource) *Source {
	node := &Source{Name: src.Name, ID: f.next, leaf: src.IsLeaf()}
	f.next++

	if src.IsLeaf() {
		node.ChildCount = uint64(len(src.Entries))
		for _, e := range src.Entries {
			f.entries = append(f.entries, Entry{
				Timestamp: e.Timestamp,
				Severity:  e.Severity,
				Message:   e.Message,
				SourceID:  node.ID,
			})
		}
	} else {
		node.Children = make([]*Source, 0, len(src.Sources))
		for _, c := range src.Sources {
			child := f.visit(c)
			node.ChildCount += child.ChildCount
			node.Children = append(node.Children, child)
		}
	}
	node.LastID = f.next - 1
	return node
}

// Names maps every id of the tree to its slash separated path, such as
// "/root/Sensor/axis".
func (s *Source) Names() map[uint32]string {
	names := make(map[uint32]string, s.LastID-s.ID+1)
	s.names(names, "")
	return names
}

func (s *Source) names(names map[uint32]string, prefix string) {
	path := prefix + "/" + s.Name
	names[s.ID] = path
	for _, c := range s.Children {
		c.names(names, path)
	}
}
