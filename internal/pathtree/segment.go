package pathtree

import "strings"

// Segment is one member access step of a materialized path. Segments are
// identified by PathToHere, not by pointer.
type Segment struct {
	MemberName       string
	UniqueMemberName string
	PathToHere       string
	Parent           *Segment
}

// NewSegment returns the segment for member below parent. A nil parent
// starts a new path.
func NewSegment(parent *Segment, member, unique string) *Segment {
	if unique == "" {
		unique = member
	}
	path := member
	if parent != nil {
		path = parent.PathToHere + "." + member
	}
	return &Segment{
		MemberName:       member,
		UniqueMemberName: unique,
		PathToHere:       path,
		Parent:           parent,
	}
}

// Depth returns the number of segments from the root to s.
func (s *Segment) Depth() int {
	d := 0
	for cur := s; cur != nil; cur = cur.Parent {
		d++
	}
	return d
}

// Chain returns the member names from the root to s.
func (s *Segment) Chain() []string {
	if s == nil {
		return nil
	}
	return strings.Split(s.PathToHere, ".")
}

// Same reports whether a and b denote the same position.
func Same(a, b *Segment) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.PathToHere == b.PathToHere
}
