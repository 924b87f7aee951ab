package interfaces

import (
	"context"
	"time"
)

// Sort keys accepted by the selection spec. Repositories must honor every
// key; Random and Relevance may degrade to the store's nearest equivalent.
const (
	SortDate         = "date"
	SortMenuOrder    = "menu_order"
	SortTitle        = "title"
	SortID           = "id"
	SortRandom       = "random"
	SortMetaValue    = "meta_value"
	SortMetaValueNum = "meta_value_num"
	SortRelevance    = "relevance"
)

// SortSpec selects the result ordering. MetaKey is only consulted for the
// meta value sort keys.
type SortSpec struct {
	Key     string `json:"key"`
	Desc    bool   `json:"desc"`
	MetaKey string `json:"meta_key,omitempty"`
}

// TaxonomyFilter is one term-match clause. Clauses on a spec compose with
// AND. Exclude flips the polarity to NOT IN. IncludeChildren extends the
// match to descendant terms in hierarchical taxonomies.
type TaxonomyFilter struct {
	Taxonomy        string   `json:"taxonomy"`
	Field           string   `json:"field"`
	Terms           []string `json:"terms"`
	IncludeChildren bool     `json:"include_children,omitempty"`
	Exclude         bool     `json:"exclude,omitempty"`
}

// Taxonomy filter match fields.
const (
	TermFieldSlug = "slug"
	TermFieldID   = "term_id"
)

// DateRange bounds the publish date, inclusive on both ends. Zero values
// leave that end unbounded.
type DateRange struct {
	After  time.Time `json:"after,omitempty"`
	Before time.Time `json:"before,omitempty"`
}

// SelectionSpec is the structured, cacheable description of which items to
// fetch and how to order and paginate them. It is self-describing: relative
// dates are resolved before the spec is built, so two equal specs always
// select the same window of content.
type SelectionSpec struct {
	Types           []string         `json:"types,omitempty"`
	IncludeIDs      []int64          `json:"include_ids,omitempty"`
	ExcludeIDs      []int64          `json:"exclude_ids,omitempty"`
	AuthorsInclude  []int64          `json:"authors_include,omitempty"`
	AuthorsExclude  []int64          `json:"authors_exclude,omitempty"`
	Parents         []int64          `json:"parents,omitempty"`
	Search          string           `json:"search,omitempty"`
	TaxonomyFilters []TaxonomyFilter `json:"taxonomy_filters,omitempty"`
	Statuses        []string         `json:"statuses,omitempty"`
	Sort            SortSpec         `json:"sort"`
	DateRange       *DateRange       `json:"date_range,omitempty"`

	// Pagination window. Limit caps the overall result set independently of
	// PerPage; MaxPages caps the number of visitable pages.
	Limit    int `json:"limit,omitempty"`
	PerPage  int `json:"per_page,omitempty"`
	Page     int `json:"page,omitempty"`
	Offset   int `json:"offset,omitempty"`
	MaxPages int `json:"max_pages,omitempty"`
}

// ItemRepository executes selection specs against the content store.
// Fetch returns the window selected by the spec's pagination fields, in
// spec order. Count returns the total matching the filters, ignoring the
// pagination window; it backs the pagination renderer so totals are not
// re-derived from a limit-capped result list.
type ItemRepository interface {
	Fetch(ctx context.Context, spec *SelectionSpec) ([]*Item, error)
	Count(ctx context.Context, spec *SelectionSpec) (int, error)
}

// StickyProvider reports the ids the host pins ("sticky" items). The spec
// builder folds these into include or exclude sets; the engine never pins.
type StickyProvider interface {
	StickyIDs(ctx context.Context) []int64
}
