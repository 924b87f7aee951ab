// Package engine orchestrates one render invocation end to end: option
// normalization, selection spec building, cache gating, fetching, tile
// rendering and pagination assembly.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-tiles/internal/cachegate"
	"github.com/goliatone/go-tiles/internal/identity"
	"github.com/goliatone/go-tiles/internal/logging"
	"github.com/goliatone/go-tiles/internal/options"
	"github.com/goliatone/go-tiles/internal/pagination"
	"github.com/goliatone/go-tiles/internal/query"
	"github.com/goliatone/go-tiles/internal/render"
	"github.com/goliatone/go-tiles/internal/tracker"
	"github.com/goliatone/go-tiles/pkg/interfaces"
)

// Engine wires the pipeline stages behind the two public operations, Render
// and Navigate. It is safe for concurrent use; per-request mutable state
// lives in the PageState threaded through each call.
type Engine struct {
	repo     interfaces.ItemRepository
	builder  *query.Builder
	renderer *render.Renderer
	gate     *cachegate.Gate
	scopes   interfaces.ScopeSelector
	logger   interfaces.Logger
	urls     func(baseURL string) pagination.URLResolver
}

type Option func(*Engine)

func WithCacheGate(gate *cachegate.Gate) Option {
	return func(e *Engine) { e.gate = gate }
}

func WithScopeSelector(scopes interfaces.ScopeSelector) Option {
	return func(e *Engine) { e.scopes = scopes }
}

func WithLogger(logger interfaces.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithURLResolverFactory overrides how pagination links are built from the
// invocation base URL.
func WithURLResolverFactory(factory func(baseURL string) pagination.URLResolver) Option {
	return func(e *Engine) {
		if factory != nil {
			e.urls = factory
		}
	}
}

// New builds an engine over a repository and a tile renderer. The repository
// doubles as the sticky provider when it implements that contract.
func New(repo interfaces.ItemRepository, renderer *render.Renderer, opts ...Option) *Engine {
	e := &Engine{
		repo:     repo,
		renderer: renderer,
		logger:   logging.NoOp(),
		urls: func(baseURL string) pagination.URLResolver {
			return pagination.QueryResolver{Base: baseURL, Param: "page"}
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	sticky, _ := repo.(interfaces.StickyProvider)
	e.builder = query.NewBuilder(sticky, e.logger)
	return e
}

// Invocation is the host environment for one render call. The zero value
// renders a public, non-ajax page one.
type Invocation struct {
	Args map[string]string

	// Page is the 1-based requested page.
	Page int
	// Ajax renders the inner fragment only, for async page swaps.
	Ajax bool
	// Editor marks preview renders, which bypass cache storage.
	Editor bool
	// Authenticated unlocks private statuses.
	Authenticated bool

	// CurrentItem hosts the section, nil on archive pages.
	CurrentItem *interfaces.Item
	// InstanceID reuses a previously issued section id, set on navigation.
	InstanceID string
	// BaseURL is the unpaged URL of the hosting page, used for pagination
	// links and the async reload endpoint.
	BaseURL string
	// Now anchors relative date resolution; zero means wall clock.
	Now time.Time

	ArchiveTaxonomy string
	ArchiveTermID   int64
	ArchiveSearch   string
	ArchivePerPage  int
}

// NavigateRequest is an async page-change call decoded from the client.
type NavigateRequest struct {
	Args          map[string]string
	InstanceID    string
	Page          int
	CurrentID     int64
	BaseURL       string
	Authenticated bool
}

// Render produces the full section markup for one invocation. Empty args
// yield an empty string, as does a selection whose visible statuses prune to
// nothing. A page beyond the pagination cap returns ErrPageOutOfRange.
func (e *Engine) Render(ctx context.Context, state *tracker.PageState, args map[string]string) (string, error) {
	return e.RenderWith(ctx, state, Invocation{Args: args})
}

// RenderWith renders with an explicit host environment.
func (e *Engine) RenderWith(ctx context.Context, state *tracker.PageState, inv Invocation) (string, error) {
	if len(inv.Args) == 0 {
		return "", nil
	}
	o := options.Normalize(inv.Args)

	if o.SiteID > 0 && e.scopes != nil && e.scopes.Current(ctx) != o.SiteID {
		var out string
		err := e.scopes.With(ctx, o.SiteID, func(ctx context.Context) error {
			var innerErr error
			out, innerErr = e.render(ctx, state, o, inv)
			return innerErr
		})
		return out, err
	}
	return e.render(ctx, state, o, inv)
}

// Navigate re-renders a section fragment for an async page change. The
// current item id feeds self-exclusion exactly like the original page render.
func (e *Engine) Navigate(ctx context.Context, req NavigateRequest) (string, error) {
	if len(req.Args) == 0 {
		return "", nil
	}
	state := tracker.NewPageState()
	state.SetCurrentItemID(req.CurrentID)
	return e.RenderWith(ctx, state, Invocation{
		Args:          req.Args,
		Page:          req.Page,
		Ajax:          true,
		Authenticated: req.Authenticated,
		InstanceID:    req.InstanceID,
		BaseURL:       req.BaseURL,
	})
}

// ResetCache purges every cached section across scopes and acknowledges with
// the literal the async client expects.
func (e *Engine) ResetCache(ctx context.Context) (string, error) {
	if e.gate == nil {
		return "OK", nil
	}
	if err := e.gate.Reset(ctx); err != nil {
		return "", err
	}
	return "OK", nil
}

func (e *Engine) render(ctx context.Context, state *tracker.PageState, o options.Options, inv Invocation) (string, error) {
	env := query.Context{
		CurrentItem:     inv.CurrentItem,
		State:           state,
		Page:            inv.Page,
		Authenticated:   inv.Authenticated,
		Now:             inv.Now,
		ArchiveTaxonomy: inv.ArchiveTaxonomy,
		ArchiveTermID:   inv.ArchiveTermID,
		ArchiveSearch:   inv.ArchiveSearch,
		ArchivePerPage:  inv.ArchivePerPage,
	}
	spec, err := e.builder.Build(ctx, o, env)
	if errors.Is(err, query.ErrNoVisibleStatus) {
		e.logger.Debug("selection prunes to nothing", "instance", o.InstanceID)
		return "", nil
	}
	if err != nil {
		return "", err
	}

	compute := func(ctx context.Context) (string, error) {
		return e.assemble(ctx, state, o, inv, spec)
	}
	if o.Extras.Cache && e.gate != nil {
		key := e.gate.Key(spec, o.InstanceID, inv.Editor)
		return e.gate.GetOrCompute(ctx, key, inv.Editor, compute)
	}
	return compute(ctx)
}

func (e *Engine) assemble(ctx context.Context, state *tracker.PageState, o options.Options, inv Invocation, spec *interfaces.SelectionSpec) (string, error) {
	sid := inv.InstanceID
	if sid == "" {
		sid = e.sectionID(state, inv)
	}
	page := inv.Page
	if page < 1 {
		page = 1
	}

	var b strings.Builder
	closing := ""
	pages := ""
	showPages := spec.PerPage > 0 && o.ShowPages > 0
	if showPages {
		total, err := e.repo.Count(ctx, spec)
		if err != nil {
			return "", err
		}
		if o.Limit > 0 && total > o.Limit {
			total = o.Limit
		}
		pages = pagination.Render(pagination.Params{
			Total:       total,
			PerPage:     spec.PerPage,
			Range:       o.ShowPages,
			CurrentPage: page,
			InstanceID:  sid,
			Class:       pagination.ClassFor(o),
			MoreText:    o.LoadText,
			TotalText:   o.TotalText,
			ShowTotal:   o.Extras.ShowTotal,
			MaxPages:    spec.MaxPages,
			URLs:        e.urls(inv.BaseURL),
		})

		if !inv.Ajax {
			closing = "</div><!-- lps/end -->"
			b.WriteString(e.wrapperStart(o, inv, sid))
		}
		if o.PagesPos == 0 || o.PagesPos == 2 {
			b.WriteString(strings.Replace(pages, "lps-pagination-wrap", "before lps-pagination-wrap", 1))
		}
	}

	items, err := e.repo.Fetch(ctx, spec)
	if err != nil {
		return "", err
	}
	if len(items) > 0 {
		styleVars, extraCSS := sectionStyle(o.Style)
		if extraCSS != "" {
			o.CSS = strings.TrimSpace(o.CSS + extraCSS)
		}
		class := ""
		if o.CSS != "" {
			class = " " + o.CSS
		}
		if o.Version == 2 {
			class += " ver2"
		}
		if o.Extras.AjaxPagination {
			class += " ajax_pagination"
		}

		if !inv.Ajax {
			b.WriteString(`<section class="latest-post-selection` + html.EscapeString(class) + `" id="` + sid + `" style="` + styleVars + `">`)
		}
		b.WriteString(e.renderer.Tiles(ctx, items, o, state))
		if !inv.Ajax {
			b.WriteString("</section>")
		}
	} else if o.Fallback != "" {
		b.WriteString(`<div class="lps-placeholder">` + o.Fallback + `</div>`)
	}

	if showPages && (o.PagesPos == 1 || o.PagesPos == 2) {
		b.WriteString(strings.Replace(pages, "lps-pagination-wrap", "after lps-pagination-wrap", 1))
	}
	b.WriteString(closing)
	return b.String(), nil
}

// sectionID derives a stable id for the section from the invocation
// fingerprint and its position on the page, so repeated renders of the same
// page agree on element ids while two identical sections stay distinct.
func (e *Engine) sectionID(state *tracker.PageState, inv Invocation) string {
	fingerprint, err := json.Marshal(inv.Args)
	if err != nil {
		fingerprint = nil
	}
	uid := identity.InstanceUUID(inv.BaseURL, state.NextSlot(), string(fingerprint))
	return "lps-" + strings.ReplaceAll(uid.String(), "-", "")
}

func (e *Engine) wrapperStart(o options.Options, inv Invocation, sid string) string {
	dataArgs := o.PaginationMode == options.PaginationMore ||
		o.PaginationMode == options.PaginationScroll ||
		o.Extras.AjaxPagination
	if !dataArgs {
		return `<!-- lps/start --><div id="` + sid + `-wrap" class="lps-top-section-wrap">`
	}

	spinner := ""
	if o.Extras.LightSpinner {
		spinner = " light_spinner"
	} else if o.Extras.DarkSpinner {
		spinner = " dark_spinner"
	}
	currentID := int64(0)
	if inv.CurrentItem != nil {
		currentID = inv.CurrentItem.ID
	}
	payload, err := json.Marshal(o.Args())
	if err != nil {
		payload = []byte("{}")
	}
	return `<!-- lps/start --><div id="` + sid + `-wrap" data-args="` + html.EscapeString(string(payload)) +
		`" data-current="` + strconv.FormatInt(currentID, 10) +
		`" class="lps-top-section-wrap` + spinner +
		`" data-url="` + html.EscapeString(inv.BaseURL) + `">`
}
