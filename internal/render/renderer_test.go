package render

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-tiles/internal/options"
	"github.com/goliatone/go-tiles/internal/pattern"
	"github.com/goliatone/go-tiles/internal/tracker"
	"github.com/goliatone/go-tiles/pkg/interfaces"
)

type stubMedia struct {
	src *interfaces.ImageSource
}

func (s stubMedia) ImageSource(ctx context.Context, mediaID int64, size string) (*interfaces.ImageSource, error) {
	return s.src, nil
}

type stubCommerce struct{}

func (stubCommerce) PriceHTML(ctx context.Context, itemID int64) (string, error) {
	return `<span class="amount">$10</span>`, nil
}

func (stubCommerce) AddToCartHTML(ctx context.Context, itemID int64, showPrice bool) (string, error) {
	if showPrice {
		return `<button>$10 - Add to cart</button>`, nil
	}
	return `<button>Add to cart</button>`, nil
}

func testItem() *interfaces.Item {
	return &interfaces.Item{
		ID:          7,
		Type:        "post",
		Status:      "publish",
		Title:       "A [Tagged] Title",
		Excerpt:     "The excerpt",
		Body:        "Body words here",
		Permalink:   "https://example.com/a-title",
		AuthorID:    3,
		AuthorName:  "Jane Roe",
		AuthorURL:   "https://example.com/author/jane",
		MediaID:     55,
		PublishedAt: time.Date(2026, 5, 10, 15, 4, 0, 0, time.UTC),
		Terms: []interfaces.TermRef{
			{ID: 1, Taxonomy: "post_tag", Slug: "go", Name: "Go", URL: "https://example.com/tag/go"},
			{ID: 2, Taxonomy: "category", Slug: "news", Name: "News", URL: "https://example.com/category/news"},
		},
	}
}

func renderOne(t *testing.T, r *Renderer, attrs map[string]string, item *interfaces.Item) string {
	t.Helper()
	return r.Tile(context.Background(), item, options.Normalize(attrs), tracker.NewPageState())
}

func TestTileLegacyDefaultPattern(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog())
	got := renderOne(t, r, map[string]string{
		"elements": "0",
		"display":  "title,excerpt-small",
	}, testItem())

	want := `<article class="post-7 type-post status-publish"><h3 class="item-title-tag">A Tagged Title</h3>The excerpt</article>`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTileLegacyFullLink(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog())
	got := renderOne(t, r, map[string]string{
		"elements": "3",
		"display":  "title,excerpt-small",
		"url":      "yes",
		"linktext": "Read more",
	}, testItem())

	if !strings.Contains(got, `<a href="https://example.com/a-title" class="main-link read-more-wrap" title="A Tagged Title">`) {
		t.Fatalf("expected the full link wrap, got %q", got)
	}
	if !strings.Contains(got, `<span class="read-more">Read more</span>`) {
		t.Fatalf("expected the read more label, got %q", got)
	}
	if !strings.Contains(got, `class="post-7 type-post status-publish has-link"`) {
		t.Fatalf("expected the has-link article class, got %q", got)
	}
}

func TestTileLegacyPartialLinkKeepsReadMoreClass(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog())
	got := renderOne(t, r, map[string]string{
		"elements": "5",
		"display":  "title",
		"url":      "yes_blank",
		"linktext": "More",
	}, testItem())

	if !strings.Contains(got, `<a href="https://example.com/a-title" class="read-more" target="_blank" title="A Tagged Title">`) {
		t.Fatalf("expected the read-more anchor, got %q", got)
	}
}

func TestTileCardInfoWrap(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog())
	got := renderOne(t, r, map[string]string{
		"ver":      "2",
		"elements": "0",
		"display":  "title,excerpt-small",
		"url":      "yes",
	}, testItem())

	if !strings.Contains(got, `<div class="article__info">`) {
		t.Fatalf("expected the info wrap, got %q", got)
	}
	if !strings.Contains(got, `<h3 class="item-title-tag"><a href="https://example.com/a-title" class="main-link" title="A Tagged Title">A Tagged Title</a></h3>`) {
		t.Fatalf("expected the linked title, got %q", got)
	}
	if strings.Contains(got, "main-link hidden") {
		t.Fatalf("expected no hidden link when the title is linked, got %q", got)
	}
}

func TestTileCardReadMoreCarriesHref(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog())
	got := renderOne(t, r, map[string]string{
		"ver":      "2",
		"elements": "5",
		"display":  "title,excerpt-small",
		"url":      "yes",
		"linktext": "More",
	}, testItem())

	if !strings.Contains(got, `<h3 class="item-title-tag">A Tagged Title</h3>`) {
		t.Fatalf("expected a plain title, got %q", got)
	}
	if !strings.Contains(got, `<span class="read-more"><a href="https://example.com/a-title" class="main-link" title="A Tagged Title">More</a></span>`) {
		t.Fatalf("expected the linked read more, got %q", got)
	}
}

func TestTileCardHiddenLinkFallback(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog())
	got := renderOne(t, r, map[string]string{
		"ver":      "2",
		"elements": "0",
		"display":  "excerpt-small",
		"url":      "yes",
	}, testItem())

	if !strings.Contains(got, `<div class="article__info"><a href="https://example.com/a-title" class="main-link hidden" title="A Tagged Title"></a>`) {
		t.Fatalf("expected the hidden main link inside the info wrap, got %q", got)
	}
}

func TestTileOverlay(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog(), WithMediaResolver(stubMedia{
		src: &interfaces.ImageSource{URL: "https://img.example.com/full.jpg", Width: 640, Height: 480},
	}))
	got := renderOne(t, r, map[string]string{
		"elements": "0",
		"display":  "title",
		"css":      "as-overlay",
		"image":    "medium",
	}, testItem())

	if !strings.Contains(got, `style="background-image:url('https://img.example.com/full.jpg')"`) {
		t.Fatalf("expected the overlay background, got %q", got)
	}
	if !strings.Contains(got, `<div class="lps-ontopof-overlay"><a class="main-link" title="A Tagged Title">`) {
		t.Fatalf("expected the linked overlay content, got %q", got)
	}
	if strings.Contains(got, "<img") {
		t.Fatalf("expected the inline image stripped from the overlay, got %q", got)
	}
	if !strings.Contains(got, `<h3 class="item-title-tag">A Tagged Title</h3>`) {
		t.Fatalf("expected the title kept by the overlay sanitizer, got %q", got)
	}
}

func TestTileDatePlacement(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog())
	item := testItem()

	got := renderOne(t, r, map[string]string{"elements": "0", "display": "date,title"}, item)
	dateAt := strings.Index(got, `<em class="item-date">`)
	titleAt := strings.Index(got, `<h3 class="item-title-tag">`)
	if dateAt < 0 || titleAt < 0 || dateAt > titleAt {
		t.Fatalf("expected the date before the title, got %q", got)
	}
	if !strings.Contains(got, `<em class="item-date">May 10, 2026 <i>3:04 pm</i></em>`) {
		t.Fatalf("expected the formatted date, got %q", got)
	}

	got = renderOne(t, r, map[string]string{"elements": "0", "display": "title,date"}, item)
	dateAt = strings.Index(got, `<em class="item-date">`)
	titleAt = strings.Index(got, `<h3 class="item-title-tag">`)
	if dateAt < 0 || titleAt < 0 || titleAt > dateAt {
		t.Fatalf("expected the date after the title, got %q", got)
	}

	got = renderOne(t, r, map[string]string{"elements": "0", "display": "date,excerpt-small"}, item)
	if strings.Contains(got, "item-title-tag") {
		t.Fatalf("expected no title markup, got %q", got)
	}
	if !strings.Contains(got, `<em class="item-date">`) {
		t.Fatalf("expected the date in the title position, got %q", got)
	}
}

func TestTileRelativeDate(t *testing.T) {
	now := time.Date(2026, 5, 24, 15, 4, 0, 0, time.UTC)
	r := NewRenderer(pattern.NewCatalog(), WithClock(func() time.Time { return now }))
	got := renderOne(t, r, map[string]string{
		"elements":   "0",
		"display":    "title,date",
		"show_extra": "date_diff",
	}, testItem())

	if !strings.Contains(got, `<em class="item-date">2 weeks ago</em>`) {
		t.Fatalf("expected the humanized date, got %q", got)
	}
}

func TestTileTagsAndAuthor(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog())
	got := renderOne(t, r, map[string]string{
		"elements":   "0",
		"display":    "title,excerpt-small",
		"show_extra": "tags,author",
	}, testItem())

	if !strings.Contains(got, `<span class="lps-tags-wrap">`) {
		t.Fatalf("expected the tags wrap, got %q", got)
	}
	if !strings.Contains(got, `lps-terms post_tag tags`) {
		t.Fatalf("expected the tags class rewrite, got %q", got)
	}
	if !strings.Contains(got, `<div class="lps-author-wrap"><span class="lps-author">By</span> <a href="https://example.com/author/jane" class="lps-author-link">Jane Roe</a></div>`) {
		t.Fatalf("expected the author byline, got %q", got)
	}
}

func TestTileTaxposDirective(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog())
	got := renderOne(t, r, map[string]string{
		"elements":   "0",
		"display":    "title,excerpt-small",
		"show_extra": "category,taxpos_category_before-title",
	}, testItem())

	catAt := strings.Index(got, "lps-taxonomy-wrap")
	titleAt := strings.Index(got, "item-title-tag")
	if catAt < 0 || titleAt < 0 || catAt > titleAt {
		t.Fatalf("expected the category terms before the title, got %q", got)
	}
}

func TestTileAttachmentMimeAndCaption(t *testing.T) {
	item := testItem()
	item.Type = "attachment"
	item.MimeType = "image/jpeg"
	item.Caption = "A caption"

	r := NewRenderer(pattern.NewCatalog())
	got := renderOne(t, r, map[string]string{
		"elements":   "0",
		"display":    "title,excerpt-small",
		"show_extra": "show_mime,caption",
	}, item)

	if !strings.Contains(got, `<span class="item-mime-type mime-jpeg mime-image-jpeg"><span>Mime Type:</span> jpeg</span>`) {
		t.Fatalf("expected the mime markup, got %q", got)
	}
	if !strings.Contains(got, `<div class="lps-caption-wrap"><span>Caption:</span> A caption</div>`) {
		t.Fatalf("expected the caption markup, got %q", got)
	}
}

func TestTileMimeClassOnArticle(t *testing.T) {
	item := testItem()
	item.Type = "attachment"
	item.MimeType = "application/pdf"

	r := NewRenderer(pattern.NewCatalog())
	got := renderOne(t, r, map[string]string{
		"elements":   "0",
		"display":    "title",
		"show_extra": "show_mime_class",
	}, item)

	if !strings.Contains(got, "item-mime-type mime-pdf mime-application-pdf") {
		t.Fatalf("expected the mime classes on the article, got %q", got)
	}
	if strings.Contains(got, "Mime Type:") {
		t.Fatalf("expected no visible mime slot, got %q", got)
	}
}

func TestTileCommercePlacedOnlyByDirective(t *testing.T) {
	item := testItem()
	item.Type = "product"

	r := NewRenderer(pattern.NewCatalog(), WithCommerceProvider(stubCommerce{}))

	got := renderOne(t, r, map[string]string{
		"elements":   "0",
		"display":    "title",
		"show_extra": "price",
	}, item)
	if strings.Contains(got, "lps-price-wrap") {
		t.Fatalf("expected no price slot without a position directive, got %q", got)
	}

	got = renderOne(t, r, map[string]string{
		"elements":   "0",
		"display":    "title",
		"show_extra": "price,taxpos_price_after-title",
	}, item)
	if !strings.Contains(got, `<div class="lps-price-wrap"><span class="amount">$10</span></div>`) {
		t.Fatalf("expected the price slot after the title, got %q", got)
	}
}

func TestTileCommerceIgnoredForPlainTypes(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog(), WithCommerceProvider(stubCommerce{}))
	got := renderOne(t, r, map[string]string{
		"elements":   "0",
		"display":    "title",
		"show_extra": "price,taxpos_price_after-title",
	}, testItem())

	if strings.Contains(got, "lps-price-wrap") {
		t.Fatalf("expected no commerce markup for a plain post, got %q", got)
	}
}

func TestTilePlaceholderImage(t *testing.T) {
	item := testItem()
	item.MediaID = 0

	r := NewRenderer(pattern.NewCatalog())
	got := renderOne(t, r, map[string]string{
		"elements":          "0",
		"display":           "title",
		"image":             "thumb",
		"image_placeholder": "https://img.example.com/ph.jpg",
	}, item)

	if !strings.Contains(got, `<img src="https://img.example.com/ph.jpg"`) {
		t.Fatalf("expected the placeholder image, got %q", got)
	}
	if !strings.Contains(got, `class="lps-tile-main-image lps-custom-thumb"`) {
		t.Fatalf("expected the image classes, got %q", got)
	}
	if !strings.Contains(got, `loading="lazy"`) {
		t.Fatalf("expected lazy loading, got %q", got)
	}
	if !strings.Contains(got, `alt="A Tagged Title"`) {
		t.Fatalf("expected the cleaned title as alt, got %q", got)
	}
}

func TestTileNativeImageAttributes(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog(), WithMediaResolver(stubMedia{
		src: &interfaces.ImageSource{
			URL:    "https://img.example.com/medium.jpg",
			Width:  300,
			Height: 200,
			Srcset: "https://img.example.com/medium.jpg 300w",
		},
	}))
	got := renderOne(t, r, map[string]string{
		"elements": "0",
		"display":  "title",
		"image":    "medium",
	}, testItem())

	if !strings.Contains(got, `width="300"`) || !strings.Contains(got, `height="200"`) {
		t.Fatalf("expected native dimensions, got %q", got)
	}
	if !strings.Contains(got, `srcset="https://img.example.com/medium.jpg 300w"`) {
		t.Fatalf("expected the srcset, got %q", got)
	}
}

func TestTileCardImageUsesFigure(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog(), WithMediaResolver(stubMedia{
		src: &interfaces.ImageSource{URL: "https://img.example.com/m.jpg"},
	}))
	got := renderOne(t, r, map[string]string{
		"ver":      "2",
		"elements": "0",
		"display":  "title",
		"image":    "medium",
	}, testItem())

	if !strings.Contains(got, `<figure class="article__image"><img src="https://img.example.com/m.jpg"`) {
		t.Fatalf("expected the figure wrap, got %q", got)
	}
}

func TestTileLightboxClassMergesIntoLink(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog(), WithMediaResolver(stubMedia{
		src: &interfaces.ImageSource{URL: "https://img.example.com/full.jpg"},
	}))
	got := renderOne(t, r, map[string]string{
		"instance_id":   "abc123",
		"elements":      "3",
		"display":       "title",
		"url":           "yes_media_lightbox",
		"lightbox_attr": "class",
		"lightbox_val":  "lbox",
	}, testItem())

	if !strings.Contains(got, `<a href="https://img.example.com/full.jpg" rel="abc123" class="lbox main-link read-more-wrap" target="_blank" title="A Tagged Title">`) {
		t.Fatalf("expected the lightbox link, got %q", got)
	}
}

func TestTileInfoRowTemplate(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog())
	got := renderOne(t, r, map[string]string{
		"ver":      "2",
		"elements": "0",
		"display":  "title,date",
		"css":      "content-first-top",
	}, testItem())

	if !strings.Contains(got, `<div class="article__info" style="--info-rows-template: 1fr auto">`) {
		t.Fatalf("expected the info row template, got %q", got)
	}
}

func TestTileCustomDisplay(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog())
	r.RegisterCustomDisplay("_custom_hero_title", func(ctx context.Context, item *interfaces.Item, o options.Options) string {
		return `<div class="hero">` + item.Title + `</div>`
	})

	got := renderOne(t, r, map[string]string{
		"elements": "0",
		"display":  "[_custom_hero][title]",
	}, testItem())
	if got != `<div class="hero">A [Tagged] Title</div>` {
		t.Fatalf("expected the custom markup, got %q", got)
	}

	got = renderOne(t, r, map[string]string{
		"ver":      "2",
		"elements": "0",
		"display":  "[_custom_other][title]",
	}, testItem())
	if got != "" {
		t.Fatalf("expected empty output for an unhandled card custom display, got %q", got)
	}
}

func TestTilesRecordRenderedIDs(t *testing.T) {
	r := NewRenderer(pattern.NewCatalog())
	state := tracker.NewPageState()
	first := testItem()
	second := testItem()
	second.ID = 8

	o := options.Normalize(map[string]string{"elements": "0", "display": "title"})
	out := r.Tiles(context.Background(), []*interfaces.Item{first, second}, o, state)
	if !strings.Contains(out, "post-7") || !strings.Contains(out, "post-8") {
		t.Fatalf("expected both tiles rendered, got %q", out)
	}

	ids := state.RenderedIDs()
	if len(ids) != 2 || ids[0] != 7 || ids[1] != 8 {
		t.Fatalf("expected both ids recorded in order, got %v", ids)
	}
}

func TestTileTrimReducesTextBudgetByTitle(t *testing.T) {
	item := testItem()
	item.Title = "Twelve chars"
	item.Excerpt = "alpha beta gamma delta epsilon zeta eta theta"

	r := NewRenderer(pattern.NewCatalog())
	got := renderOne(t, r, map[string]string{
		"elements":   "0",
		"display":    "title,excerpt-small",
		"chrlimit":   "30",
		"show_extra": "trim",
	}, item)

	// 30 minus the 12 title characters leaves 18 for the text.
	if !strings.Contains(got, "alpha beta gamma") {
		t.Fatalf("expected the text budget reduced by the title length, got %q", got)
	}
	if strings.Contains(got, "delta") {
		t.Fatalf("expected the text cut within the reduced budget, got %q", got)
	}
}

func TestRelativeTimeUnits(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		then time.Time
		want string
	}{
		{now.Add(-30 * time.Second), "30 seconds ago"},
		{now.Add(-time.Minute), "1 minute ago"},
		{now.Add(-3 * time.Hour), "3 hours ago"},
		{now.AddDate(0, 0, -2), "2 days ago"},
		{now.AddDate(0, 0, -21), "3 weeks ago"},
		{now.AddDate(0, -2, 0), "2 months ago"},
		{now.AddDate(-1, 0, 0), "1 year ago"},
	}
	for _, tc := range cases {
		if got := relativeTime(now, tc.then); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestCountTopLevelElements(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"plain text", 0},
		{"<h3>one</h3>", 1},
		{"<h3>one</h3><em>two</em>", 2},
		{"<div><span>nested</span></div><p>two</p>", 2},
		{"<img src=\"a.jpg\"><p>two</p>", 2},
	}
	for _, tc := range cases {
		if got := countTopLevelElements(tc.in); got != tc.want {
			t.Fatalf("count of %q: expected %d, got %d", tc.in, tc.want, got)
		}
	}
}
