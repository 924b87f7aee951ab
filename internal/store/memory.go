package store

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-tiles/pkg/interfaces"
)

// MemoryStore is an in-process ItemRepository. It backs tests and hosts that
// hand the engine a preloaded content set instead of a database.
type MemoryStore struct {
	mu       sync.RWMutex
	items    []*interfaces.Item
	children map[string][]string
	rand     *rand.Rand
}

var (
	_ interfaces.ItemRepository = (*MemoryStore)(nil)
	_ interfaces.StickyProvider = (*MemoryStore)(nil)
)

func NewMemoryStore(items ...*interfaces.Item) *MemoryStore {
	return &MemoryStore{
		items:    items,
		children: make(map[string][]string),
	}
}

// Add appends items to the store.
func (s *MemoryStore) Add(items ...*interfaces.Item) {
	s.mu.Lock()
	s.items = append(s.items, items...)
	s.mu.Unlock()
}

// AddTermChild records a parent-child edge in a hierarchical taxonomy so
// include-children filters can widen to descendants. Parent and child are
// slugs; id-field filters use the decimal term id instead.
func (s *MemoryStore) AddTermChild(taxonomy, parent, child string) {
	key := termKey(taxonomy, parent)
	s.mu.Lock()
	s.children[key] = append(s.children[key], child)
	s.mu.Unlock()
}

func (s *MemoryStore) Fetch(_ context.Context, spec *interfaces.SelectionSpec) ([]*interfaces.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*interfaces.Item
	for _, item := range s.items {
		if matches(item, spec, s.expandTerms) {
			matched = append(matched, item)
		}
	}

	if spec.Sort.Key == interfaces.SortRandom {
		s.shuffle(matched)
	} else {
		orderItems(matched, spec.Sort)
	}

	offset, limit := window(spec)
	if spec.Limit > 0 && spec.PerPage > 0 && limit == 0 {
		return nil, nil
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *MemoryStore) Count(_ context.Context, spec *interfaces.SelectionSpec) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, item := range s.items {
		if matches(item, spec, s.expandTerms) {
			total++
		}
	}
	return total, nil
}

func (s *MemoryStore) StickyIDs(_ context.Context) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []int64
	for _, item := range s.items {
		if item.Sticky {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

// expandTerms widens terms to their recorded descendants, breadth first.
func (s *MemoryStore) expandTerms(taxonomy, _ string, terms []string) []string {
	expanded := append([]string(nil), terms...)
	seen := make(map[string]bool, len(terms))
	for _, term := range terms {
		seen[strings.ToLower(term)] = true
	}
	for i := 0; i < len(expanded); i++ {
		for _, child := range s.children[termKey(taxonomy, expanded[i])] {
			if !seen[strings.ToLower(child)] {
				seen[strings.ToLower(child)] = true
				expanded = append(expanded, child)
			}
		}
	}
	return expanded
}

func (s *MemoryStore) shuffle(items []*interfaces.Item) {
	if s.rand == nil {
		for i := len(items) - 1; i > 0; i-- {
			j := rand.Intn(i + 1)
			items[i], items[j] = items[j], items[i]
		}
		return
	}
	s.rand.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

func termKey(taxonomy, term string) string {
	return taxonomy + "/" + strings.ToLower(term)
}

// TermID formats a term id the way id-field taxonomy filters expect.
func TermID(id int64) string {
	return strconv.FormatInt(id, 10)
}
