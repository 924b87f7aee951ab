package store

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-tiles/pkg/interfaces"
)

// window resolves the pagination fields of a spec into an absolute offset and
// limit. Zero limit means unbounded. Without a page size the overall Limit is
// the window size after the offset; with one, Limit caps how far the pages
// can reach so the final page never overshoots the set.
func window(spec *interfaces.SelectionSpec) (offset, limit int) {
	if spec.PerPage <= 0 {
		return spec.Offset, spec.Limit
	}
	limit = spec.PerPage
	offset = spec.Offset
	if offset == 0 && spec.Page > 1 {
		offset = (spec.Page - 1) * spec.PerPage
	}
	if spec.Limit > 0 {
		if offset >= spec.Limit {
			return offset, 0
		}
		if offset+limit > spec.Limit {
			limit = spec.Limit - offset
		}
	}
	return offset, limit
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func containsFold(haystack []string, needle string) bool {
	for _, candidate := range haystack {
		if strings.EqualFold(candidate, needle) {
			return true
		}
	}
	return false
}

// matches reports whether an item satisfies every filter of the spec. The
// pagination window and the sort are applied by the caller.
func matches(item *interfaces.Item, spec *interfaces.SelectionSpec, expand termExpander) bool {
	if len(spec.IncludeIDs) > 0 && !containsID(spec.IncludeIDs, item.ID) {
		return false
	}
	if containsID(spec.ExcludeIDs, item.ID) {
		return false
	}
	if len(spec.Types) > 0 && !containsFold(spec.Types, item.Type) {
		return false
	}
	if len(spec.Statuses) > 0 && !containsFold(spec.Statuses, item.Status) {
		return false
	}
	if len(spec.AuthorsInclude) > 0 && !containsID(spec.AuthorsInclude, item.AuthorID) {
		return false
	}
	if containsID(spec.AuthorsExclude, item.AuthorID) {
		return false
	}
	if len(spec.Parents) > 0 && !containsID(spec.Parents, item.ParentID) {
		return false
	}
	if spec.Search != "" && !matchesSearch(item, spec.Search) {
		return false
	}
	if rng := spec.DateRange; rng != nil {
		if !rng.After.IsZero() && item.PublishedAt.Before(rng.After) {
			return false
		}
		if !rng.Before.IsZero() && item.PublishedAt.After(rng.Before) {
			return false
		}
	}
	for _, filter := range spec.TaxonomyFilters {
		if !matchesTaxonomy(item, filter, expand) {
			return false
		}
	}
	return true
}

func matchesSearch(item *interfaces.Item, search string) bool {
	needle := strings.ToLower(search)
	for _, field := range []string{item.Title, item.Excerpt, item.Body} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// termExpander widens a term list to include descendants. nil skips the
// expansion; direct assignments still match.
type termExpander func(taxonomy, field string, terms []string) []string

func matchesTaxonomy(item *interfaces.Item, filter interfaces.TaxonomyFilter, expand termExpander) bool {
	terms := filter.Terms
	if filter.IncludeChildren && expand != nil {
		terms = expand(filter.Taxonomy, filter.Field, terms)
	}

	matched := false
	for _, ref := range item.TermsIn(filter.Taxonomy) {
		value := ref.Slug
		if filter.Field == interfaces.TermFieldID {
			value = strconv.FormatInt(ref.ID, 10)
		}
		if containsFold(terms, value) {
			matched = true
			break
		}
	}
	if filter.Exclude {
		return !matched
	}
	return matched
}

// orderItems sorts in place according to the sort spec. Ties fall back to id
// so the ordering is stable across calls. Random ordering is resolved by the
// caller before the sort.
func orderItems(items []*interfaces.Item, spec interfaces.SortSpec) {
	less := lessFunc(items, spec)
	if less == nil {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		if spec.Desc {
			return less(j, i)
		}
		return less(i, j)
	})
}

func lessFunc(items []*interfaces.Item, spec interfaces.SortSpec) func(i, j int) bool {
	switch spec.Key {
	case interfaces.SortTitle:
		return func(i, j int) bool {
			a, b := strings.ToLower(items[i].Title), strings.ToLower(items[j].Title)
			if a != b {
				return a < b
			}
			return items[i].ID < items[j].ID
		}
	case interfaces.SortID:
		return func(i, j int) bool { return items[i].ID < items[j].ID }
	case interfaces.SortMenuOrder:
		return func(i, j int) bool {
			if items[i].MenuOrder != items[j].MenuOrder {
				return items[i].MenuOrder < items[j].MenuOrder
			}
			return items[i].PublishedAt.Before(items[j].PublishedAt)
		}
	case interfaces.SortMetaValue:
		return func(i, j int) bool {
			a, b := items[i].Meta[spec.MetaKey], items[j].Meta[spec.MetaKey]
			if a != b {
				return a < b
			}
			return items[i].ID < items[j].ID
		}
	case interfaces.SortMetaValueNum:
		return func(i, j int) bool {
			a, _ := strconv.ParseFloat(items[i].Meta[spec.MetaKey], 64)
			b, _ := strconv.ParseFloat(items[j].Meta[spec.MetaKey], 64)
			if a != b {
				return a < b
			}
			return items[i].ID < items[j].ID
		}
	case interfaces.SortRandom:
		return nil
	default:
		// date, relevance and unknown keys order by publish date.
		return func(i, j int) bool {
			if !items[i].PublishedAt.Equal(items[j].PublishedAt) {
				return items[i].PublishedAt.Before(items[j].PublishedAt)
			}
			return items[i].ID < items[j].ID
		}
	}
}
