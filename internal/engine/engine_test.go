package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-tiles/internal/cachegate"
	"github.com/goliatone/go-tiles/internal/pattern"
	"github.com/goliatone/go-tiles/internal/query"
	"github.com/goliatone/go-tiles/internal/render"
	"github.com/goliatone/go-tiles/internal/store"
	"github.com/goliatone/go-tiles/internal/tracker"
	"github.com/goliatone/go-tiles/pkg/interfaces"
)

func published(n int) time.Time {
	return time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func seedStore() *store.MemoryStore {
	return store.NewMemoryStore(
		&interfaces.Item{ID: 1, Type: "post", Status: "publish", Title: "First post", PublishedAt: published(0)},
		&interfaces.Item{ID: 2, Type: "post", Status: "publish", Title: "Second post", PublishedAt: published(1)},
		&interfaces.Item{ID: 3, Type: "post", Status: "publish", Title: "Third post", PublishedAt: published(2)},
		&interfaces.Item{ID: 4, Type: "post", Status: "draft", Title: "Hidden draft", PublishedAt: published(3)},
	)
}

func newEngine(opts ...Option) *Engine {
	return New(seedStore(), render.NewRenderer(pattern.NewCatalog()), opts...)
}

func mustRender(t *testing.T, e *Engine, inv Invocation) string {
	t.Helper()
	out, err := e.RenderWith(context.Background(), tracker.NewPageState(), inv)
	if err != nil {
		t.Fatalf("RenderWith() error = %v", err)
	}
	return out
}

func TestRenderEmptyArgs(t *testing.T) {
	e := newEngine()
	out, err := e.Render(context.Background(), tracker.NewPageState(), nil)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != "" {
		t.Fatalf("expected empty output, got %q", out)
	}
}

func TestRenderSectionWithTiles(t *testing.T) {
	e := newEngine()
	out := mustRender(t, e, Invocation{Args: map[string]string{
		"type": "post", "display": "title",
	}})

	if !strings.HasPrefix(out, `<section class="latest-post-selection" id="lps-`) {
		t.Fatalf("expected section start, got %q", out)
	}
	if !strings.HasSuffix(out, "</section>") {
		t.Fatalf("expected section end, got %q", out)
	}
	if strings.Count(out, "<article") != 3 {
		t.Fatalf("expected three published tiles, got %q", out)
	}
	if strings.Contains(out, "Hidden draft") {
		t.Fatalf("draft must not render: %q", out)
	}
}

func TestRenderSectionClassAndStyle(t *testing.T) {
	e := newEngine()
	out := mustRender(t, e, Invocation{Args: map[string]string{
		"type": "post", "ver": "2", "css": "as-column",
		"default_height": "220px", "size_image": "40%",
	}})

	if !strings.Contains(out, `class="latest-post-selection as-column has-image-size ver2"`) {
		t.Fatalf("expected derived class list, got %q", out)
	}
	if !strings.Contains(out, `style=" --default-tile-height: 220px; --article-image-size: 40%;"`) {
		t.Fatalf("expected style custom properties, got %q", out)
	}
}

func TestRenderFallbackWhenEmpty(t *testing.T) {
	e := newEngine()
	out := mustRender(t, e, Invocation{Args: map[string]string{
		"type": "event", "fallback": "Nothing scheduled yet.",
	}})

	if out != `<div class="lps-placeholder">Nothing scheduled yet.</div>` {
		t.Fatalf("expected fallback fragment, got %q", out)
	}
}

func TestRenderNoVisibleStatus(t *testing.T) {
	e := newEngine()
	out := mustRender(t, e, Invocation{Args: map[string]string{
		"type": "post", "status": "private",
	}})
	if out != "" {
		t.Fatalf("expected empty output for pruned statuses, got %q", out)
	}
}

func TestRenderPageBeyondCap(t *testing.T) {
	e := newEngine()
	_, err := e.RenderWith(context.Background(), tracker.NewPageState(), Invocation{
		Args: map[string]string{"type": "post", "limit": "3", "perpage": "2"},
		Page: 9,
	})
	if !errors.Is(err, query.ErrPageOutOfRange) {
		t.Fatalf("expected ErrPageOutOfRange, got %v", err)
	}
}

func TestRenderPaginationPlacement(t *testing.T) {
	args := map[string]string{"type": "post", "perpage": "1", "showpages": "5"}

	e := newEngine()
	out := mustRender(t, e, Invocation{Args: args})
	if !strings.Contains(out, `class="before lps-pagination-wrap`) {
		t.Fatalf("expected pagination before the section, got %q", out)
	}
	if strings.Contains(out, `class="after lps-pagination-wrap`) {
		t.Fatalf("default placement renders before only, got %q", out)
	}

	bottom := map[string]string{"type": "post", "perpage": "1", "showpages": "5", "pagespos": "1"}
	out = mustRender(t, e, Invocation{Args: bottom})
	if strings.Contains(out, `class="before lps-pagination-wrap`) {
		t.Fatalf("bottom placement must not render before, got %q", out)
	}
	if !strings.Contains(out, `class="after lps-pagination-wrap`) {
		t.Fatalf("expected pagination after the section, got %q", out)
	}

	both := map[string]string{"type": "post", "perpage": "1", "showpages": "5", "pagespos": "2"}
	out = mustRender(t, e, Invocation{Args: both})
	if !strings.Contains(out, `class="before lps-pagination-wrap`) ||
		!strings.Contains(out, `class="after lps-pagination-wrap`) {
		t.Fatalf("expected pagination on both ends, got %q", out)
	}
}

func TestRenderWrapperForPlainPagination(t *testing.T) {
	e := newEngine()
	out := mustRender(t, e, Invocation{Args: map[string]string{
		"type": "post", "perpage": "1", "showpages": "5",
	}})

	if !strings.HasPrefix(out, `<!-- lps/start --><div id="lps-`) {
		t.Fatalf("expected wrapper start, got %q", out)
	}
	if !strings.Contains(out, `-wrap" class="lps-top-section-wrap">`) {
		t.Fatalf("plain pagination carries no data-args, got %q", out)
	}
	if !strings.HasSuffix(out, "</div><!-- lps/end -->") {
		t.Fatalf("expected wrapper close, got %q", out)
	}
}

func TestRenderWrapperDataArgsForLoadMore(t *testing.T) {
	e := newEngine()
	out := mustRender(t, e, Invocation{
		Args: map[string]string{
			"type": "post", "perpage": "1", "showpages": "more",
			"show_extra": "light_spinner",
		},
		BaseURL:     "https://example.com/blog",
		CurrentItem: &interfaces.Item{ID: 77},
	})

	if !strings.Contains(out, `data-args="`) {
		t.Fatalf("expected data-args payload, got %q", out)
	}
	if !strings.Contains(out, `data-current="77"`) {
		t.Fatalf("expected current item id, got %q", out)
	}
	if !strings.Contains(out, `class="lps-top-section-wrap light_spinner"`) {
		t.Fatalf("expected spinner class, got %q", out)
	}
	if !strings.Contains(out, `data-url="https://example.com/blog"`) {
		t.Fatalf("expected reload URL, got %q", out)
	}
	if !strings.Contains(out, `class="go-to-next lps-load-more"`) {
		t.Fatalf("expected load-more control, got %q", out)
	}
}

func TestRenderAjaxFragment(t *testing.T) {
	e := newEngine()
	out := mustRender(t, e, Invocation{
		Args:       map[string]string{"type": "post", "perpage": "1", "showpages": "5"},
		Ajax:       true,
		InstanceID: "lps-fixed",
	})

	if strings.Contains(out, "<section") || strings.Contains(out, "lps/start") {
		t.Fatalf("ajax fragment must omit the outer shell, got %q", out)
	}
	if !strings.Contains(out, "<article") {
		t.Fatalf("expected tiles in the fragment, got %q", out)
	}
	if !strings.Contains(out, "lps-fixed") {
		t.Fatalf("expected the supplied instance id to be reused, got %q", out)
	}
}

func TestNavigateExcludesCurrentItem(t *testing.T) {
	e := newEngine()
	out, err := e.Navigate(context.Background(), NavigateRequest{
		Args:       map[string]string{"type": "post", "display": "title"},
		InstanceID: "lps-fixed",
		Page:       1,
		CurrentID:  2,
	})
	if err != nil {
		t.Fatalf("Navigate() error = %v", err)
	}
	if strings.Contains(out, "Second post") {
		t.Fatalf("current item must be excluded, got %q", out)
	}
	if !strings.Contains(out, "First post") || !strings.Contains(out, "Third post") {
		t.Fatalf("expected the remaining posts, got %q", out)
	}
}

func TestRenderCachedSectionSurvivesStoreChanges(t *testing.T) {
	repo := seedStore()
	gate := cachegate.New(cachegate.NewMemoryCache())
	e := New(repo, render.NewRenderer(pattern.NewCatalog()), WithCacheGate(gate))
	args := map[string]string{"type": "post", "show_extra": "cache"}

	first := mustRender(t, e, Invocation{Args: args})
	repo.Add(&interfaces.Item{ID: 9, Type: "post", Status: "publish", Title: "Late arrival", PublishedAt: published(9)})
	second := mustRender(t, e, Invocation{Args: args})

	if first != second {
		t.Fatalf("expected the cached section, got %q then %q", first, second)
	}
	if strings.Contains(second, "Late arrival") {
		t.Fatalf("cached render must not see new items, got %q", second)
	}
}

func TestRenderEditorCacheMarker(t *testing.T) {
	gate := cachegate.New(cachegate.NewMemoryCache())
	e := New(seedStore(), render.NewRenderer(pattern.NewCatalog()), WithCacheGate(gate))
	args := map[string]string{
		"type": "post", "perpage": "1", "showpages": "5", "show_extra": "cache",
	}

	out := mustRender(t, e, Invocation{Args: args, Editor: true})
	if !strings.Contains(out, "lps-top-section-wrap lps-cached") {
		t.Fatalf("expected cached marker on editor render, got %q", out)
	}

	visitor := mustRender(t, e, Invocation{Args: args})
	if strings.Contains(visitor, "lps-cached") {
		t.Fatalf("editor render must not be stored, got %q", visitor)
	}
}

func TestRenderSwitchesScope(t *testing.T) {
	scopes := &stubScopes{current: 1}
	e := New(seedStore(), render.NewRenderer(pattern.NewCatalog()), WithScopeSelector(scopes))

	mustRender(t, e, Invocation{Args: map[string]string{"type": "post", "site_id": "3"}})
	if len(scopes.switched) != 1 || scopes.switched[0] != 3 {
		t.Fatalf("expected a switch to site 3, got %v", scopes.switched)
	}

	mustRender(t, e, Invocation{Args: map[string]string{"type": "post", "site_id": "1"}})
	if len(scopes.switched) != 1 {
		t.Fatalf("current site must not trigger a switch, got %v", scopes.switched)
	}
}

func TestResetCache(t *testing.T) {
	cache := cachegate.NewMemoryCache()
	cache.Set(context.Background(), "tiles-cache-x", "stale", 0)
	e := newEngine(WithCacheGate(cachegate.New(cache)))

	ack, err := e.ResetCache(context.Background())
	if err != nil {
		t.Fatalf("ResetCache() error = %v", err)
	}
	if ack != "OK" {
		t.Fatalf("expected OK acknowledgement, got %q", ack)
	}
	if got, _ := cache.Get(context.Background(), "tiles-cache-x"); got != nil {
		t.Fatal("expected cached sections to be purged")
	}
}

func TestSectionIDsAreStablePerSlot(t *testing.T) {
	e := newEngine()
	args := map[string]string{"type": "post"}

	a := mustRender(t, e, Invocation{Args: args})
	b := mustRender(t, e, Invocation{Args: args})
	if a != b {
		t.Fatalf("same invocation on a fresh page must agree on ids:\n%q\n%q", a, b)
	}

	state := tracker.NewPageState()
	first, err := e.RenderWith(context.Background(), state, Invocation{Args: args})
	if err != nil {
		t.Fatalf("RenderWith() error = %v", err)
	}
	second, err := e.RenderWith(context.Background(), state, Invocation{Args: args})
	if err != nil {
		t.Fatalf("RenderWith() error = %v", err)
	}
	if first == second {
		t.Fatal("two sections on one page must not share an id")
	}
}

type stubScopes struct {
	current  int64
	switched []int64
}

func (s *stubScopes) Current(context.Context) int64 { return s.current }

func (s *stubScopes) With(ctx context.Context, siteID int64, fn func(ctx context.Context) error) error {
	s.switched = append(s.switched, siteID)
	return fn(ctx)
}

func (s *stubScopes) Sites(context.Context) ([]int64, error) { return []int64{s.current}, nil }
