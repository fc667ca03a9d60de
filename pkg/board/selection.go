package board

import "slices"

// Selection is the selected-block set shared by the reorder controller and
// the canvas engine. Both read it at gesture start and write it when a
// gesture targets an unselected block.
type Selection interface {
	Selected() []string
	Contains(id string) bool
	Set(ids ...string)
	Clear()
}

// OrderedSelection is a [Selection] that remembers insertion order.
// The zero value is an empty selection.
type OrderedSelection struct {
	ids []string
}

// NewSelection returns a selection holding ids.
func NewSelection(ids ...string) *OrderedSelection {
	s := &OrderedSelection{}
	s.Set(ids...)
	return s
}

// Selected returns the selected ids in the order they were set.
func (s *OrderedSelection) Selected() []string {
	return slices.Clone(s.ids)
}

// Contains reports whether id is selected.
func (s *OrderedSelection) Contains(id string) bool {
	return slices.Contains(s.ids, id)
}

// Set replaces the selection. Duplicates and empty ids are dropped.
func (s *OrderedSelection) Set(ids ...string) {
	s.ids = s.ids[:0]
	for _, id := range ids {
		if id != "" && !slices.Contains(s.ids, id) {
			s.ids = append(s.ids, id)
		}
	}
}

// Toggle adds id when absent and removes it otherwise.
func (s *OrderedSelection) Toggle(id string) {
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return
	}
	s.ids = append(s.ids, id)
}

// Clear empties the selection.
func (s *OrderedSelection) Clear() {
	s.ids = nil
}
