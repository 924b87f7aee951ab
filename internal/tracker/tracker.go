// Package tracker holds the per-page-render state shared by sequential
// render invocations: the ids already rendered on this page view, the
// placeholder rotation, and an optional current-item override used by async
// pagination. The state is created by the host request lifecycle, threaded
// explicitly through every call, and discarded with the request.
package tracker

import "math/rand"

// PageState is not safe for concurrent use. Pipeline execution within a
// request is strictly sequential, matching the host render model.
type PageState struct {
	rendered []int64
	seen     map[int64]struct{}

	usedPlaceholders map[string]struct{}
	pick             func(n int) int

	currentItemID int64
	slots         int
}

// NewPageState returns an empty state for one page render.
func NewPageState() *PageState {
	return &PageState{
		seen:             map[int64]struct{}{},
		usedPlaceholders: map[string]struct{}{},
		pick:             rand.Intn,
	}
}

// Record appends an item id to the rendered set. Duplicates are kept out so
// the exclusion list stays minimal.
func (s *PageState) Record(id int64) {
	if s == nil || id == 0 {
		return
	}
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.rendered = append(s.rendered, id)
}

// Seen reports whether an item id was already rendered on this page.
func (s *PageState) Seen(id int64) bool {
	if s == nil {
		return false
	}
	_, ok := s.seen[id]
	return ok
}

// RenderedIDs returns the rendered ids in first-seen order.
func (s *PageState) RenderedIDs() []int64 {
	if s == nil {
		return nil
	}
	out := make([]int64, len(s.rendered))
	copy(out, s.rendered)
	return out
}

// SetCurrentItemID overrides the current item for self-exclusion, used when
// an async navigation call re-renders outside the original page context.
func (s *PageState) SetCurrentItemID(id int64) {
	if s == nil {
		return
	}
	s.currentItemID = id
}

// CurrentItemID returns the current-item override, zero when unset.
func (s *PageState) CurrentItemID() int64 {
	if s == nil {
		return 0
	}
	return s.currentItemID
}

// NextSlot returns the zero-based position of the next render invocation on
// this page, used to keep generated section ids distinct when the same
// options render twice.
func (s *PageState) NextSlot() int {
	if s == nil {
		return 0
	}
	slot := s.slots
	s.slots++
	return slot
}

// NextPlaceholder picks one placeholder from the list, avoiding entries
// already used this page until the list is exhausted, then starting over.
// The choice within the remaining entries is random.
func (s *PageState) NextPlaceholder(list []string) string {
	if len(list) == 0 {
		return ""
	}
	if s == nil {
		return list[0]
	}

	remaining := make([]string, 0, len(list))
	for _, item := range list {
		if _, used := s.usedPlaceholders[item]; !used {
			remaining = append(remaining, item)
		}
	}
	if len(remaining) == 0 {
		s.usedPlaceholders = map[string]struct{}{}
		remaining = list
	}

	item := remaining[s.pick(len(remaining))]
	s.usedPlaceholders[item] = struct{}{}
	return item
}
