package query

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-tiles/internal/logging"
	"github.com/goliatone/go-tiles/internal/options"
	"github.com/goliatone/go-tiles/internal/tracker"
	"github.com/goliatone/go-tiles/pkg/interfaces"
)

// ErrPageOutOfRange signals a request for a page beyond the pagination cap.
// The pipeline short-circuits before any repository call and renders nothing.
var ErrPageOutOfRange = errors.New("query: requested page is beyond the pagination limit")

// ErrNoVisibleStatus signals that status pruning left nothing selectable.
var ErrNoVisibleStatus = errors.New("query: no visible status remains after pruning")

// sentinelID is substituted for a dynamic parent/author when the current item
// lacks that attribute, forcing an empty result instead of an unfiltered one.
const sentinelID = -9999

// Context carries the invocation environment consulted while building a spec.
type Context struct {
	// CurrentItem is the item hosting the tile section, nil on archive pages.
	CurrentItem *interfaces.Item
	// State is the page-render state; its current-item override wins over
	// CurrentItem and its rendered ids feed the exclusion set.
	State *tracker.PageState
	// Page is the 1-based page number resolved by the host request.
	Page int
	// Authenticated gates private statuses.
	Authenticated bool
	// Now anchors relative date resolution; zero means time.Now.
	Now time.Time

	// Archive environment, injected by the host when rendering listings.
	ArchiveTaxonomy string
	ArchiveTermID   int64
	ArchiveSearch   string
	// ArchivePerPage is the host default page size used in archive context.
	ArchivePerPage int
}

func (c Context) page() int {
	if c.Page < 1 {
		return 1
	}
	return c.Page
}

func (c Context) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

func (c Context) currentItemID() int64 {
	if id := c.State.CurrentItemID(); id != 0 {
		return id
	}
	if c.CurrentItem != nil {
		return c.CurrentItem.ID
	}
	return 0
}

// Builder derives selection specs from normalized options.
type Builder struct {
	sticky interfaces.StickyProvider
	logger interfaces.Logger
}

// NewBuilder constructs a spec builder. Both collaborators are optional.
func NewBuilder(sticky interfaces.StickyProvider, logger interfaces.Logger) *Builder {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Builder{sticky: sticky, logger: logger}
}

// Build translates options plus the invocation context into a selection spec.
// It returns ErrPageOutOfRange when the requested page exceeds the cap
// implied by limit and perpage, and ErrNoVisibleStatus when status pruning
// leaves nothing to select. Both short-circuit before any repository call.
func (b *Builder) Build(ctx context.Context, o options.Options, env Context) (*interfaces.SelectionSpec, error) {
	page := env.page()

	maxPages := 0
	if o.Output == "" && o.Limit > 0 && o.PerPage > 0 {
		maxPages = int(math.Ceil(float64(o.Limit) / float64(o.PerPage)))
		if page > maxPages {
			b.logger.Debug("page beyond pagination cap", "page", page, "max_pages", maxPages)
			return nil, ErrPageOutOfRange
		}
	}

	statuses, err := visibleStatuses(o.Statuses, env.Authenticated)
	if err != nil {
		return nil, err
	}

	spec := &interfaces.SelectionSpec{
		Statuses: statuses,
		Sort:     options.SortSpecFor(o.OrderBy, o.OrderMetaKey),
		MaxPages: maxPages,
	}

	archive := o.ArchiveContext()
	search := o.SearchContext()

	// Self-exclusion: a content item never selects itself, except in
	// archive and search listings.
	if !archive && !search {
		if id := env.currentItemID(); id != 0 {
			spec.ExcludeIDs = append(spec.ExcludeIDs, id)
		}
	}
	spec.ExcludeIDs = append(spec.ExcludeIDs, o.ExcludeIDs...)
	if o.Extras.ExcludePrevious {
		spec.ExcludeIDs = append(spec.ExcludeIDs, env.State.RenderedIDs()...)
	}

	spec.AuthorsInclude = dynamicIDs(o.DynamicAuthor, o.Authors, env.CurrentItem, func(item *interfaces.Item) int64 {
		return item.AuthorID
	})
	spec.AuthorsExclude = append(spec.AuthorsExclude, o.ExcludeAuthors...)
	spec.Parents = dynamicIDs(o.DynamicParent, o.Parents, env.CurrentItem, func(item *interfaces.Item) int64 {
		return item.ParentID
	})

	b.applyPagination(spec, o, page, maxPages)

	// Explicit id lists disable the type filter entirely.
	forceType := true
	if len(o.IncludeIDs) > 0 {
		spec.IncludeIDs = append(spec.IncludeIDs, o.IncludeIDs...)
		forceType = false
	}
	if forceType || archive || search {
		spec.Types = normalizeTypes(o.Types)
	}

	if search {
		spec.Search = stripMarkup(o.Search)
	}

	b.applyTaxonomies(spec, o, env, archive)

	if rng := resolveDateRange(o, env.now()); rng != nil {
		spec.DateRange = rng
	}

	b.applySticky(ctx, spec, o)

	return spec, nil
}

// applyPagination mirrors the original window arithmetic: the final page of a
// limit-capped set shrinks its page size and advances the offset so the
// result never overshoots the limit. A caller-supplied offset shifts the
// window in both the plain and the forced-last-page branches.
func (b *Builder) applyPagination(spec *interfaces.SelectionSpec, o options.Options, page, maxPages int) {
	if o.Limit > 0 {
		spec.Limit = o.Limit
	}
	if o.Output != "" {
		return
	}

	useOffset := true
	if o.PerPage > 0 {
		spec.PerPage = o.PerPage
		spec.Page = page

		if o.Limit > 0 && maxPages >= page {
			if diff := o.Limit - page*o.PerPage; diff <= 0 {
				remainder := abs(diff)
				spec.PerPage = o.PerPage - remainder
				spec.Offset = abs(o.Limit - remainder)
				if o.Offset > 0 {
					spec.Offset += o.Offset
				}
				useOffset = false
			}
		}
	}
	if o.Offset > 0 && useOffset {
		spec.Offset = o.Offset
		if spec.Page > 1 {
			spec.Offset = (page-1)*spec.PerPage + o.Offset
		}
	}
}

func (b *Builder) applyTaxonomies(spec *interfaces.SelectionSpec, o options.Options, env Context, archive bool) {
	if archive {
		if env.ArchivePerPage > 0 {
			spec.PerPage = env.ArchivePerPage
		}
		searchQuery := env.ArchiveSearch
		if searchQuery == "" {
			searchQuery = o.ArchiveSearch
		}
		if searchQuery != "" {
			spec.Search = stripMarkup(searchQuery)
			return
		}
		taxonomy, termID := env.ArchiveTaxonomy, env.ArchiveTermID
		if taxonomy == "" || termID == 0 {
			taxonomy, termID = o.ArchiveTax, o.ArchiveID
		}
		if taxonomy != "" && termID != 0 {
			spec.TaxonomyFilters = append(spec.TaxonomyFilters, interfaces.TaxonomyFilter{
				Taxonomy: taxonomy,
				Field:    interfaces.TermFieldID,
				Terms:    []string{formatID(termID)},
			})
		}
		return
	}

	if len(o.Tags) > 0 {
		spec.TaxonomyFilters = append(spec.TaxonomyFilters, interfaces.TaxonomyFilter{
			Taxonomy:        "post_tag",
			Field:           interfaces.TermFieldSlug,
			Terms:           o.Tags,
			IncludeChildren: true,
		})
	}
	if o.DynamicTag && env.CurrentItem != nil {
		var ids []string
		for _, term := range env.CurrentItem.TermsIn("post_tag") {
			ids = append(ids, formatID(term.ID))
		}
		if len(ids) > 0 {
			spec.TaxonomyFilters = append(spec.TaxonomyFilters, interfaces.TaxonomyFilter{
				Taxonomy: "post_tag",
				Field:    interfaces.TermFieldID,
				Terms:    ids,
			})
		}
	}
	if o.Taxonomy != "" && len(o.Terms) > 0 {
		spec.TaxonomyFilters = append(spec.TaxonomyFilters, interfaces.TaxonomyFilter{
			Taxonomy:        o.Taxonomy,
			Field:           interfaces.TermFieldSlug,
			Terms:           o.Terms,
			IncludeChildren: !o.Extras.TermStrict,
		})
	}
	if o.Taxonomy2 != "" && len(o.Terms2) > 0 {
		spec.TaxonomyFilters = append(spec.TaxonomyFilters, interfaces.TaxonomyFilter{
			Taxonomy:        o.Taxonomy2,
			Field:           interfaces.TermFieldSlug,
			Terms:           o.Terms2,
			IncludeChildren: !o.Extras.Term2Strict,
		})
	}
	if len(o.ExcludeTags) > 0 {
		spec.TaxonomyFilters = append(spec.TaxonomyFilters, interfaces.TaxonomyFilter{
			Taxonomy: "post_tag",
			Field:    interfaces.TermFieldSlug,
			Terms:    o.ExcludeTags,
			Exclude:  true,
		})
	}
	if len(o.ExcludeCats) > 0 {
		spec.TaxonomyFilters = append(spec.TaxonomyFilters, interfaces.TaxonomyFilter{
			Taxonomy: "category",
			Field:    interfaces.TermFieldSlug,
			Terms:    o.ExcludeCats,
			Exclude:  true,
		})
	}
}

func (b *Builder) applySticky(ctx context.Context, spec *interfaces.SelectionSpec, o options.Options) {
	if b.sticky == nil {
		return
	}
	if !o.Extras.NoSticky && !o.Extras.Sticky {
		return
	}
	ids := b.sticky.StickyIDs(ctx)
	if len(ids) == 0 {
		return
	}
	if o.Extras.NoSticky {
		spec.ExcludeIDs = append(spec.ExcludeIDs, ids...)
		return
	}
	spec.IncludeIDs = append(spec.IncludeIDs, ids...)
}

// visibleStatuses prunes private statuses for unauthenticated callers.
func visibleStatuses(statuses []string, authenticated bool) ([]string, error) {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		if s == "private" && !authenticated {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, ErrNoVisibleStatus
	}
	return out, nil
}

// resolveDateRange folds the relative "N units ago" window and the absolute
// bounds into one inclusive range, anchored at build time so the spec stays
// self-describing and cacheable.
func resolveDateRange(o options.Options, now time.Time) *interfaces.DateRange {
	after := o.DateAfter
	if o.DateLimit && (o.DateStart > 0 || o.DateStartUnit != "") {
		start := relativeStart(now, o.DateStart, o.DateStartUnit)
		after = start.Format("2006-01-02")
	}

	rng := &interfaces.DateRange{}
	if after != "" {
		if t, err := time.Parse("2006-01-02", after); err == nil {
			rng.After = t
		}
	}
	if o.DateBefore != "" {
		if t, err := time.Parse("2006-01-02", o.DateBefore); err == nil {
			rng.Before = t
		}
	}
	if rng.After.IsZero() && rng.Before.IsZero() {
		return nil
	}
	return rng
}

func relativeStart(now time.Time, n int, unit options.DateUnit) time.Time {
	if n < 0 {
		n = -n
	}
	day := now.Truncate(24 * time.Hour)
	switch unit {
	case options.UnitWeeks:
		return day.AddDate(0, 0, -7*n)
	case options.UnitDays:
		return day.AddDate(0, 0, -n)
	case options.UnitHours:
		return now.Add(-time.Duration(n) * time.Hour)
	default:
		return day.AddDate(0, -n, 0)
	}
}

func dynamicIDs(dynamic bool, static []int64, item *interfaces.Item, attr func(*interfaces.Item) int64) []int64 {
	if !dynamic {
		if len(static) == 0 {
			return nil
		}
		out := make([]int64, len(static))
		copy(out, static)
		return out
	}
	if item != nil {
		if id := attr(item); id != 0 {
			return []int64{id}
		}
	}
	return []int64{sentinelID}
}

// normalizeTypes maps the "any" wildcard to an empty filter.
func normalizeTypes(types []string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		if t == "" || t == "any" {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stripMarkup(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
