package domain

import "strings"

// ListSeparator joins ID lists in persisted records.
const ListSeparator = ";"

// IDSet is an insertion-ordered set of entity IDs. The zero value is empty and
// ready to use.
type IDSet struct {
	order []string
	index map[string]struct{}
}

// NewIDSet builds a set from ids, keeping the first occurrence of each.
func NewIDSet(ids ...string) IDSet {
	var s IDSet
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// ParseIDList splits a persisted semicolon-joined list. Blank members are skipped.
func ParseIDList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ListSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Add appends id when absent and reports whether it was added.
func (s *IDSet) Add(id string) bool {
	if id == "" {
		return false
	}
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

// Remove deletes id, preserving the order of the rest.
func (s *IDSet) Remove(id string) bool {
	if _, ok := s.index[id]; !ok {
		return false
	}
	delete(s.index, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports membership.
func (s IDSet) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of members.
func (s IDSet) Len() int { return len(s.order) }

// IDs returns a copy of the members in insertion order.
func (s IDSet) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Union returns a new set holding s followed by the members of other not in s.
func (s IDSet) Union(other IDSet) IDSet {
	out := s.Clone()
	for _, id := range other.order {
		out.Add(id)
	}
	return out
}

// ContainsAll reports whether every member of other is in s.
func (s IDSet) ContainsAll(other IDSet) bool {
	for _, id := range other.order {
		if !s.Contains(id) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	return NewIDSet(s.order...)
}

// String renders the persisted semicolon-joined form.
func (s IDSet) String() string {
	return strings.Join(s.order, ListSeparator)
}
