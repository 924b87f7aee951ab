package render

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
	"github.com/goliatone/go-tiles/internal/logging"
	"github.com/goliatone/go-tiles/internal/options"
	"github.com/goliatone/go-tiles/internal/pattern"
	"github.com/goliatone/go-tiles/internal/tracker"
	"github.com/goliatone/go-tiles/pkg/interfaces"
)

// DefaultDateFormat mirrors the host date plus time display, with the time
// portion wrapped for styling.
const DefaultDateFormat = "January 2, 2006 <i>3:04 pm</i>"

// CustomTileFunc produces the full tile markup for a custom display value,
// bypassing the internal pattern grammar.
type CustomTileFunc func(ctx context.Context, item *interfaces.Item, o options.Options) string

// Renderer assembles tile markup for selected items. It is stateless across
// invocations except for the per-page state passed into each call.
type Renderer struct {
	catalog    *pattern.Catalog
	media      interfaces.MediaResolver
	commerce   interfaces.CommerceProvider
	body       BodyRenderer
	logger     interfaces.Logger
	dateFormat string
	now        func() time.Time
	custom     map[string]CustomTileFunc
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMediaResolver wires the resolver used for tile images and media links.
func WithMediaResolver(m interfaces.MediaResolver) Option {
	return func(r *Renderer) { r.media = m }
}

// WithCommerceProvider wires the provider behind the price and cart slots.
func WithCommerceProvider(p interfaces.CommerceProvider) Option {
	return func(r *Renderer) { r.commerce = p }
}

// WithBodyRenderer overrides how stored bodies become display HTML.
func WithBodyRenderer(b BodyRenderer) Option {
	return func(r *Renderer) { r.body = b }
}

// WithLogger attaches a logger to the renderer.
func WithLogger(l interfaces.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// WithDateFormat overrides the absolute date display format.
func WithDateFormat(format string) Option {
	return func(r *Renderer) { r.dateFormat = format }
}

// WithClock overrides the clock used by relative dates, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// NewRenderer constructs a tile renderer around the given pattern catalog.
func NewRenderer(catalog *pattern.Catalog, opts ...Option) *Renderer {
	r := &Renderer{
		catalog:    catalog,
		body:       NewMarkdownBody(),
		dateFormat: DefaultDateFormat,
		now:        time.Now,
		custom:     map[string]CustomTileFunc{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.catalog == nil {
		r.catalog = pattern.NewCatalog()
	}
	if r.logger == nil {
		r.logger = logging.NoOp()
	}
	return r
}

// RegisterCustomDisplay binds a handler to a custom display identifier.
func (r *Renderer) RegisterCustomDisplay(name string, fn CustomTileFunc) {
	if name == "" || fn == nil {
		return
	}
	r.custom[name] = fn
}

// Tiles renders the full tile list for one selection.
func (r *Renderer) Tiles(ctx context.Context, items []*interfaces.Item, o options.Options, state *tracker.PageState) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(r.Tile(ctx, item, o, state))
	}
	return b.String()
}

// Tile renders one item into its article markup and records the item id in
// the page state.
func (r *Renderer) Tile(ctx context.Context, item *interfaces.Item, o options.Options, state *tracker.PageState) string {
	if item == nil {
		return ""
	}
	defer state.Record(item.ID)

	version := o.Version
	if version < 1 {
		version = 1
	}

	spec := r.catalog.Resolve(o.Elements, version)

	if filterID, ok := pattern.IsCustomDisplay(o.DisplayRaw); ok {
		if fn := r.custom[filterID]; fn != nil {
			return fn(ctx, item, o)
		}
		r.logger.Debug("custom display has no registered handler", "filter", filterID)
		if version < 2 {
			return spec
		}
		return ""
	}

	tileID := r.catalog.ResolveID(o.Elements, version)
	tokens := injectPositions(pattern.Parse(spec), o)

	// The info wrap splits version 2 cards around the image slot.
	infoFrom, infoTo := -1, -1
	if version >= 2 {
		if idx := pattern.Index(tokens, pattern.TokImage); idx >= 0 {
			if idx+1 < len(tokens) {
				infoFrom, infoTo = idx+1, len(tokens)
			} else if idx > 0 {
				infoFrom, infoTo = 0, idx
			}
		}
	}

	overlay := o.HasCSS("as-overlay") && version < 2
	sep := ""
	if overlay {
		sep = " "
	}

	titleStr := CleanTitle(item.Title)
	link := r.linkParts(ctx, item, o, tileID, titleStr)

	imageMarkup, imageURL := r.tileImage(ctx, item, o, state, version)

	mimeCSS := ""
	if item.Type == "attachment" && (o.Extras.ShowMime || o.Extras.ShowMimeClass) {
		mimeCSS = mimeClasses(item.MimeType)
	}

	var before, info, after strings.Builder
	target := &before
	for i, tok := range tokens {
		switch {
		case i == infoFrom:
			target = &info
		case i == infoTo:
			target = &after
		}
		target.WriteString(r.expandToken(ctx, tok, item, o, version, tileID, sep, titleStr, link, imageMarkup, mimeCSS))
	}

	tile := before.String()
	if infoFrom >= 0 {
		tile += info.String() + after.String()
	}

	// The article classes reflect the tile before any hidden link fallback.
	articleClass := articleClasses(item, o, tile, mimeCSS)

	if infoFrom >= 0 {
		infoContent := info.String()
		if link.aStart != "" && !strings.Contains(tile, link.aStart) {
			hidden := strings.Replace(link.aStart, "main-link", "main-link hidden", 1)
			infoContent = hidden + link.aEnd + infoContent
		}
		tile = before.String() + `<div class="article__info"` + infoRowStyle(infoContent, o) + `>` + infoContent + `</div>` + after.String()
	}

	if overlay {
		content := sanitizeOverlay(tile, o.TitleTag)
		return `<article class="` + articleClass + `" style="background-image:url('` + html.EscapeString(imageURL) + `')">` +
			`<div class="lps-ontopof-overlay">` + link.aStart + content + link.aEnd + `</div></article>`
	}
	return `<article class="` + articleClass + `">` + tile + `</article>`
}

// injectPositions places the date and the extra slots into the token stream,
// honoring explicit taxpos directives and falling back to the position after
// the text slot.
func injectPositions(tokens []pattern.Token, o options.Options) []pattern.Token {
	if o.WantsDate() {
		date := pattern.Token{Name: pattern.TokDate}
		switch {
		case !o.WantsTitle():
			tokens = pattern.Replace(tokens, pattern.TokTitle, date)
		case o.DatePrecedesTitle():
			tokens = pattern.InsertBefore(tokens, pattern.TokTitle, date)
		default:
			tokens = pattern.InsertAfter(tokens, pattern.TokTitle, date)
		}
	}

	for _, pos := range o.Extras.Positions {
		if !o.Extras.Has(pos.Taxonomy) {
			continue
		}
		tok := pattern.Token{Name: pos.Taxonomy}
		if pos.Before {
			tokens = pattern.InsertBefore(tokens, pos.Anchor, tok)
		} else {
			tokens = pattern.InsertAfter(tokens, pos.Anchor, tok)
		}
	}

	for _, tag := range defaultPositionedSlots(o) {
		if pattern.Contains(tokens, tag) {
			continue
		}
		tokens = pattern.InsertAfter(tokens, pattern.TokText, pattern.Token{Name: tag})
	}
	return tokens
}

// defaultPositionedSlots lists the extra slots that self-insert after the
// text slot when no explicit position was given. Commerce slots are absent
// on purpose, they only render where a taxpos directive placed them.
func defaultPositionedSlots(o options.Options) []string {
	var slots []string
	if o.Extras.Tags {
		slots = append(slots, pattern.TokTags)
	}
	if o.Extras.Author {
		slots = append(slots, pattern.TokAuthor)
	}
	if o.Extras.ShowMime {
		slots = append(slots, pattern.TokMime)
	}
	if o.Extras.Caption {
		slots = append(slots, pattern.TokCaption)
	}
	slots = append(slots, o.Extras.Taxonomies...)
	return slots
}

// linkParts holds the anchor fragments shared by the link tokens and the
// title and read-more slots.
type linkParts struct {
	aStart  string
	arStart string
	aEnd    string
}

func (r *Renderer) linkParts(ctx context.Context, item *interfaces.Item, o options.Options, tileID int, titleStr string) linkParts {
	if !o.URL.LinksItem() && !o.URL.LinksMedia() && !o.HasCSS("as-overlay") {
		return linkParts{}
	}

	href := ""
	if o.URL.LinksMedia() {
		size := o.Lightbox.Size
		if size == "" {
			size = "full"
		}
		if r.media != nil && item.MediaID != 0 {
			if src, err := r.media.ImageSource(ctx, item.MediaID, size); err == nil && src != nil && src.URL != "" {
				href = ` href="` + html.EscapeString(src.URL) + `"`
			}
		}
	} else if o.URL.LinksItem() && item.Permalink != "" {
		href = ` href="` + html.EscapeString(item.Permalink) + `"`
	}
	if o.Lightbox.Attr != "" {
		href += ` rel="` + html.EscapeString(o.InstanceID) + `"`
	}

	linkClass := ` class="main-link"`
	readMoreClass := ` class="read-more"`
	if pattern.ReadMoreWrapsLink(tileID) {
		linkClass = ` class="main-link read-more-wrap"`
		readMoreClass = ""
	}

	lightboxExtra := ""
	if o.Lightbox.Attr == "class" {
		val := html.EscapeString(o.Lightbox.Val)
		linkClass = strings.Replace(linkClass, `class="`, `class="`+val+` `, 1)
		if readMoreClass != "" {
			readMoreClass = strings.Replace(readMoreClass, `class="`, `class="`+val+` `, 1)
		}
	} else if o.Lightbox.Attr != "" {
		lightboxExtra = ` ` + o.Lightbox.Attr + `="` + html.EscapeString(o.Lightbox.Val) + `"`
	}

	target := ""
	if o.URL.OpensBlank() {
		target = ` target="_blank"`
	}
	titleAttr := ` title="` + html.EscapeString(titleStr) + `"`

	return linkParts{
		aStart:  `<a` + href + linkClass + lightboxExtra + target + titleAttr + `>`,
		arStart: `<a` + href + readMoreClass + lightboxExtra + target + titleAttr + `>`,
		aEnd:    `</a>`,
	}
}

func (r *Renderer) expandToken(ctx context.Context, tok pattern.Token, item *interfaces.Item, o options.Options, version, tileID int, sep, titleStr string, link linkParts, imageMarkup, mimeCSS string) string {
	if tok.IsLiteral() {
		return tok.Literal
	}

	switch tok.Name {
	case pattern.TokLinkOpen:
		if version >= 2 {
			return ""
		}
		return link.aStart
	case pattern.TokReadMoreOpen:
		if version >= 2 {
			return ""
		}
		return link.arStart
	case pattern.TokLinkClose:
		if version >= 2 {
			return ""
		}
		return link.aEnd
	case pattern.TokImage:
		return imageMarkup
	case pattern.TokTitle:
		return r.titleMarkup(item, o, version, tileID, titleStr, link)
	case pattern.TokText:
		return sep + r.textMarkup(item, o, titleStr)
	case pattern.TokReadMore:
		return r.readMoreMarkup(o, version, tileID, sep, link)
	case pattern.TokDate:
		if !o.WantsDate() {
			return ""
		}
		return sep + `<em class="item-date">` + r.dateValue(item, o) + `</em>`
	case pattern.TokTags:
		return r.tagsMarkup(item, o, sep)
	case pattern.TokAuthor:
		return r.authorMarkup(item, o, sep)
	case pattern.TokPrice, pattern.TokAddToCart, pattern.TokPriceCart:
		return r.commerceMarkup(ctx, tok.Name, item, o, sep)
	case pattern.TokMime:
		if item.Type != "attachment" || !o.Extras.ShowMime {
			return ""
		}
		sub := mimeSubtype(item.MimeType)
		return `<span class="` + mimeCSS + `"><span>Mime Type:</span> ` + sub + `</span>`
	case pattern.TokCaption:
		if item.Type != "attachment" || !o.Extras.Caption || item.Caption == "" {
			return ""
		}
		return sep + `<div class="lps-caption-wrap"><span>Caption:</span> ` + html.EscapeString(item.Caption) + `</div>`
	default:
		return r.taxonomyMarkup(item, o, tok.Name, sep)
	}
}

func (r *Renderer) titleMarkup(item *interfaces.Item, o options.Options, version, tileID int, titleStr string, link linkParts) string {
	if !o.WantsTitle() {
		return ""
	}
	tag := o.TitleTag
	if tag == "" {
		tag = options.DefaultTitleTag
	}

	if version >= 2 {
		visible := titleStr
		if o.Extras.Trim {
			visible = ShortText(visible, o.CharLimit, o.TrimSuffix)
		}
		if o.URL != options.URLNone && !pattern.ReadMoreCarriesHref(tileID) && link.aStart != "" {
			return `<` + tag + ` class="item-title-tag">` + link.aStart + visible + link.aEnd + `</` + tag + `>`
		}
		return `<` + tag + ` class="item-title-tag">` + visible + `</` + tag + `>`
	}
	return `<` + tag + ` class="item-title-tag">` + titleStr + `</` + tag + `>`
}

func (r *Renderer) readMoreMarkup(o options.Options, version, tileID int, sep string, link linkParts) string {
	if o.LinkText == "" {
		return ""
	}
	label := o.LinkText
	if version >= 2 && o.URL != options.URLNone && pattern.ReadMoreLinked(tileID) && link.aStart != "" {
		return sep + `<span class="read-more">` + link.aStart + label + link.aEnd + `</span>`
	}
	return sep + `<span class="read-more">` + label + `</span>`
}

func (r *Renderer) textMarkup(item *interfaces.Item, o options.Options, titleStr string) string {
	if !o.WantsText() {
		return ""
	}
	limit := o.CharLimit
	if o.Extras.Trim {
		limit -= len([]rune(titleStr))
		if limit < 0 {
			limit = 0
		}
	}

	raw := o.Extras.Raw
	switch {
	case displayHas(o, "excerpt-small"):
		return ShortText(item.Excerpt, limit, o.TrimSuffix)
	case displayHas(o, "excerpt"):
		return r.excerptText(item, limit, o.TrimSuffix)
	case displayHas(o, "content"):
		return r.body.RenderBody(item.Body, raw)
	case displayHas(o, "content-small"):
		if raw {
			return TrimHTMLToLength(item.Body, limit, o.TrimSuffix)
		}
		return ShortText(item.Body, limit, o.TrimSuffix)
	case displayHas(o, "excerptcontent"):
		return `<div class="lps-excerpt">` + r.excerptText(item, limit, o.TrimSuffix) + `</div>` +
			`<div class="lps-content">` + r.body.RenderBody(item.Body, raw) + `</div>`
	case displayHas(o, "contentexcerpt"):
		return `<div class="lps-content">` + r.body.RenderBody(item.Body, raw) + `</div>` +
			`<div class="lps-excerpt">` + r.excerptText(item, limit, o.TrimSuffix) + `</div>`
	}
	return ""
}

// excerptText falls back to a trimmed plain-text body when the item carries
// no stored excerpt.
func (r *Renderer) excerptText(item *interfaces.Item, limit int, suffix string) string {
	if item.Excerpt != "" {
		return item.Excerpt
	}
	if limit <= 0 {
		limit = options.DefaultCharLimit
	}
	return ShortText(PlainText(r.body.RenderBody(item.Body, false)), limit, suffix)
}

func (r *Renderer) dateValue(item *interfaces.Item, o options.Options) string {
	if o.Extras.DateDiff {
		return relativeTime(r.now(), item.PublishedAt)
	}
	return item.PublishedAt.Format(r.dateFormat)
}

func (r *Renderer) tagsMarkup(item *interfaces.Item, o options.Options, sep string) string {
	if !o.Extras.Tags {
		return ""
	}
	tags := visibleTerms(item, "post_tag", termListOptions{
		FirstOnly: o.Extras.OneTerm["tags"],
		Count:     termCount("post_tag", o.CSS),
		NoLabel:   o.Extras.NoLabel["tags"],
	})
	if tags == "" {
		return ""
	}
	tags = strings.ReplaceAll(tags, "post_tag", "post_tag tags")
	return sep + `<span class="lps-tags-wrap">` + tags + `</span>`
}

func (r *Renderer) authorMarkup(item *interfaces.Item, o options.Options, sep string) string {
	if !o.Extras.Author || item.AuthorName == "" {
		return ""
	}
	return sep + `<div class="lps-author-wrap"><span class="lps-author">By</span> ` +
		`<a href="` + html.EscapeString(item.AuthorURL) + `" class="lps-author-link">` +
		html.EscapeString(item.AuthorName) + `</a></div>`
}

func (r *Renderer) commerceMarkup(ctx context.Context, token string, item *interfaces.Item, o options.Options, sep string) string {
	if r.commerce == nil || (item.Type != "product" && item.Type != "product_variation") {
		return ""
	}
	switch token {
	case pattern.TokPrice:
		if !o.Extras.Price {
			return ""
		}
		price, err := r.commerce.PriceHTML(ctx, item.ID)
		if err != nil || price == "" {
			return ""
		}
		return sep + `<div class="lps-price-wrap">` + price + `</div>`
	case pattern.TokAddToCart:
		if !o.Extras.AddToCart {
			return ""
		}
		cart, err := r.commerce.AddToCartHTML(ctx, item.ID, false)
		if err != nil || cart == "" {
			return ""
		}
		return sep + `<div class="lps-add_to_cart-wrap">` + cart + `</div>`
	case pattern.TokPriceCart:
		if !o.Extras.PriceAddToCart {
			return ""
		}
		cart, err := r.commerce.AddToCartHTML(ctx, item.ID, true)
		if err != nil || cart == "" {
			return ""
		}
		return sep + `<div class="lps-add_to_cart-wrap">` + cart + `</div>`
	}
	return ""
}

func (r *Renderer) taxonomyMarkup(item *interfaces.Item, o options.Options, taxonomy, sep string) string {
	if !containsString(o.Extras.Taxonomies, taxonomy) {
		return ""
	}
	terms := visibleTerms(item, taxonomy, termListOptions{
		FirstOnly:         o.Extras.OneTerm[taxonomy],
		Count:             termCount(taxonomy, o.CSS),
		NoLabel:           o.Extras.NoLabel[taxonomy],
		HideUncategorized: taxonomy == "category" && o.Extras.HideUncategorized,
	})
	if terms == "" {
		return ""
	}
	return sep + terms
}

// articleClasses mirrors the host item class list plus the tile additions.
func articleClasses(item *interfaces.Item, o options.Options, tile, mimeCSS string) string {
	classes := []string{"post-" + strconv.FormatInt(item.ID, 10)}
	if normalized, err := slug.Normalize(item.Type); err == nil && normalized != "" {
		classes = append(classes, "type-"+normalized)
	} else if item.Type != "" {
		classes = append(classes, "type-"+item.Type)
	}
	if item.Status != "" {
		classes = append(classes, "status-"+item.Status)
	}
	if o.Extras.ShowMimeClass && mimeCSS != "" {
		classes = append(classes, mimeCSS)
	}
	if strings.Contains(tile, "main-link") {
		classes = append(classes, "has-link")
	}
	return strings.Join(classes, " ")
}

func mimeSubtype(mimeType string) string {
	if i := strings.IndexByte(mimeType, '/'); i >= 0 {
		return mimeType[i+1:]
	}
	return mimeType
}

func mimeClasses(mimeType string) string {
	sub := mimeSubtype(mimeType)
	return "item-mime-type mime-" + sub + " mime-" + strings.ReplaceAll(mimeType, "/", "-")
}

// infoRowStyle derives the grid template style for the info wrap when the
// css requests content pinning and the wrap holds more than one element.
func infoRowStyle(infoContent string, o options.Options) string {
	first := o.HasCSS("content-first-top")
	last := o.HasCSS("content-last-bottom")
	if !first && !last {
		return ""
	}
	count := countTopLevelElements(infoContent)
	if count <= 1 {
		return ""
	}
	if first {
		return ` style="--info-rows-template: 1fr` + strings.Repeat(" auto", count-1) + `"`
	}
	repeat := count - 2
	if count == 2 {
		repeat = 2
	}
	return ` style="--info-rows-align: space-between;--info-rows-template: ` + strings.Repeat("auto ", repeat) + `1fr"`
}

var markupTagRe = regexp.MustCompile(`<[^>]+>`)

// countTopLevelElements counts the element children at the top nesting level
// of an HTML fragment. Text nodes do not count.
func countTopLevelElements(fragment string) int {
	depth, count := 0, 0
	for _, tag := range markupTagRe.FindAllString(fragment, -1) {
		name := tagName(tag)
		switch {
		case strings.HasPrefix(tag, "</"):
			if depth > 0 {
				depth--
			}
		case voidTags[name] || strings.HasSuffix(tag, "/>"):
			if depth == 0 {
				count++
			}
		default:
			if depth == 0 {
				count++
			}
			depth++
		}
	}
	return count
}

var voidTags = map[string]bool{
	"img": true, "br": true, "hr": true, "input": true, "meta": true, "source": true,
}

func tagName(tag string) string {
	name := strings.TrimPrefix(strings.TrimPrefix(tag, "<"), "/")
	for i, r := range name {
		if r == ' ' || r == '>' || r == '/' || r == '\t' || r == '\n' {
			return strings.ToLower(name[:i])
		}
	}
	return strings.ToLower(name)
}

// sanitizeOverlay strips the overlay content down to the heading tags and
// line breaks, so the linked overlay never nests interactive markup.
func sanitizeOverlay(fragment, titleTag string) string {
	allowed := map[string]bool{"br": true}
	for _, tag := range options.TitleTags {
		allowed[tag] = true
	}
	if titleTag != "" {
		allowed[titleTag] = true
	}
	return markupTagRe.ReplaceAllStringFunc(fragment, func(tag string) string {
		if allowed[tagName(tag)] {
			return tag
		}
		return ""
	})
}

// relativeTime humanizes the distance between two instants, largest unit
// first.
func relativeTime(now, then time.Time) string {
	diff := now.Sub(then)
	if diff < 0 {
		diff = -diff
	}

	seconds := int64(diff.Seconds())
	units := []struct {
		name string
		span int64
	}{
		{"year", 365 * 24 * 3600},
		{"month", 30 * 24 * 3600},
		{"week", 7 * 24 * 3600},
		{"day", 24 * 3600},
		{"hour", 3600},
		{"minute", 60},
	}
	for _, u := range units {
		if seconds >= u.span {
			n := seconds / u.span
			return fmt.Sprintf("%d %s ago", n, plural(u.name, n))
		}
	}
	return fmt.Sprintf("%d %s ago", seconds, plural("second", seconds))
}

func plural(unit string, n int64) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}

func displayHas(o options.Options, mode string) bool {
	for _, d := range o.Display {
		if d == mode {
			return true
		}
	}
	return false
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
