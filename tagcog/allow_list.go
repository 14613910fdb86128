package tagcog

import "sort"

// An AllowList restricts which marker ids contribute to a centroid.
// The nil AllowList accepts every id; a non-nil empty AllowList accepts none.
type AllowList map[int]struct{}

// NewAllowList returns an AllowList holding ids, or nil if ids is nil.
func NewAllowList(ids []int) AllowList {
	if ids == nil {
		return nil
	}
	allow := make(AllowList, len(ids))
	for _, id := range ids {
		allow[id] = struct{}{}
	}
	return allow
}

// Configured reports whether the list restricts anything at all.
func (allow AllowList) Configured() bool {
	return allow != nil
}

// Accepts reports whether a marker with the given id may contribute.
func (allow AllowList) Accepts(id int) bool {
	if allow == nil {
		return true
	}
	_, ok := allow[id]
	return ok
}

// IDs returns the members in ascending order.
func (allow AllowList) IDs() []int {
	if allow == nil {
		return nil
	}
	ids := make([]int, 0, len(allow))
	for id := range allow {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
