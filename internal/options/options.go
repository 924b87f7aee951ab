package options

import (
	"sort"

	"github.com/goliatone/go-tiles/pkg/interfaces"
)

// URLMode enumerates the link behaviours a tile section can request.
type URLMode string

const (
	URLNone          URLMode = ""
	URLItem          URLMode = "yes"
	URLItemBlank     URLMode = "yes_blank"
	URLMedia         URLMode = "yes_media"
	URLMediaBlank    URLMode = "yes_media_blank"
	URLMediaLightbox URLMode = "yes_media_lightbox"
)

// LinksItem reports whether the mode links tiles to the item permalink.
func (m URLMode) LinksItem() bool {
	return m == URLItem || m == URLItemBlank
}

// LinksMedia reports whether the mode links tiles to the item media file.
func (m URLMode) LinksMedia() bool {
	return m == URLMedia || m == URLMediaBlank || m == URLMediaLightbox
}

// OpensBlank reports whether tile links open in a new tab.
func (m URLMode) OpensBlank() bool {
	return m == URLItemBlank || m == URLMediaBlank || m == URLMediaLightbox
}

// PaginationMode selects between the numeric pager and incremental loading.
type PaginationMode string

const (
	PaginationNumeric PaginationMode = "numeric"
	PaginationMore    PaginationMode = "more"
	PaginationScroll  PaginationMode = "scroll"
)

// CardOutputType enumerates the card layout classes recognized in css.
type CardOutputType string

const (
	CardUnspecified CardOutputType = ""
	CardColumn      CardOutputType = "as-column"
	CardImageInfo   CardOutputType = "h-image-info"
	CardInfoImage   CardOutputType = "h-info-image"
	CardOverlay     CardOutputType = "as-overlay"
)

// DateUnit enumerates the relative date window units.
type DateUnit string

const (
	UnitMonths DateUnit = "months"
	UnitWeeks  DateUnit = "weeks"
	UnitDays   DateUnit = "days"
	UnitHours  DateUnit = "hours"
)

// TitleTags lists the markup tags accepted for the tile title element.
var TitleTags = []string{"h3", "h2", "h1", "h4", "h5", "h6", "b", "strong", "em", "p", "div", "span"}

// DefaultTitleTag is used when the requested title tag is absent or unknown.
const DefaultTitleTag = "h3"

// DefaultCharLimit bounds truncated text when no explicit limit is given.
const DefaultCharLimit = 120

// DefaultSortKey orders selections by publish date, newest first.
const DefaultSortKey = "dateD"

// sortCatalog maps the public sort keys onto repository sort specs.
var sortCatalog = map[string]interfaces.SortSpec{
	"dateD":         {Key: interfaces.SortDate, Desc: true},
	"dateA":         {Key: interfaces.SortDate},
	"menuD":         {Key: interfaces.SortMenuOrder, Desc: true},
	"menuA":         {Key: interfaces.SortMenuOrder},
	"titleD":        {Key: interfaces.SortTitle, Desc: true},
	"titleA":        {Key: interfaces.SortTitle},
	"idD":           {Key: interfaces.SortID, Desc: true},
	"idA":           {Key: interfaces.SortID},
	"random":        {Key: interfaces.SortRandom, Desc: true},
	"metaValueD":    {Key: interfaces.SortMetaValue, Desc: true},
	"metaValueA":    {Key: interfaces.SortMetaValue},
	"metaValueNumD": {Key: interfaces.SortMetaValueNum, Desc: true},
	"metaValueNumA": {Key: interfaces.SortMetaValueNum},
	"relevance":     {Key: interfaces.SortRelevance, Desc: true},
}

// SortSpecFor resolves a public sort key, falling back to date descending.
func SortSpecFor(key, metaKey string) interfaces.SortSpec {
	spec, ok := sortCatalog[key]
	if !ok {
		spec = sortCatalog[DefaultSortKey]
	}
	if spec.Key == interfaces.SortMetaValue || spec.Key == interfaces.SortMetaValueNum {
		spec.MetaKey = metaKey
	}
	return spec
}

// SortKeys returns the recognized sort keys in stable order, for the host
// option UI.
func SortKeys() []string {
	keys := make([]string, 0, len(sortCatalog))
	for k := range sortCatalog {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TaxPosition places an extra taxonomy slot relative to a named anchor token.
type TaxPosition struct {
	Taxonomy string
	Before   bool
	Anchor   string
}

// Extras is the typed view of the show_extra flag bag. Unknown tokens are
// retained as taxonomy slots so host-registered taxonomies keep working.
type Extras struct {
	Raw               bool
	Trim              bool
	Cache             bool
	NoSticky          bool
	Sticky            bool
	TermStrict        bool
	Term2Strict       bool
	DateDiff          bool
	Tags              bool
	Author            bool
	HideUncategorized bool
	ExcludePrevious   bool
	AjaxPagination    bool
	ShowTotal         bool
	Price             bool
	AddToCart         bool
	PriceAddToCart    bool
	ShowMime          bool
	ShowMimeClass     bool
	Caption           bool
	LightSpinner      bool
	DarkSpinner       bool
	PaginationAll     bool

	OneTerm   map[string]bool
	NoLabel   map[string]bool
	Positions []TaxPosition

	// Taxonomies holds the open tail of host taxonomy slugs.
	Taxonomies []string

	raw []string
}

// Has reports whether the original flag bag contained the given token.
func (e Extras) Has(token string) bool {
	for _, t := range e.raw {
		if t == token {
			return true
		}
	}
	return false
}

// StyleVars carries the sizing and color options mapped to CSS custom
// properties on the section element.
type StyleVars struct {
	DefaultHeight         string
	DefaultPadding        string
	DefaultGap            string
	DefaultOverlayPadding string
	TabletHeight          string
	TabletPadding         string
	TabletGap             string
	TabletOverlayPadding  string
	MobileHeight          string
	MobilePadding         string
	MobileGap             string
	MobileOverlayPadding  string
	ColorText             string
	ColorTitle            string
	ColorBG               string
	SizeText              string
	SizeTitle             string
	SizeImage             string
	ImageOpacity          string
	ImageRatio            string
	CardRatio             string
}

// Lightbox carries media-link lightbox attributes.
type Lightbox struct {
	Size string
	Attr string
	Val  string
}

// Options is the normalized, immutable configuration for one invocation.
type Options struct {
	InstanceID string
	Version    int
	Output     string

	Limit   int
	PerPage int
	Offset  int

	IncludeIDs     []int64
	ExcludeIDs     []int64
	Parents        []int64
	DynamicParent  bool
	Authors        []int64
	DynamicAuthor  bool
	ExcludeAuthors []int64
	Types          []string
	SiteID         int64

	TitleTag   string
	CharLimit  int
	TrimSuffix string
	Display    []string
	URL        URLMode
	Lightbox   Lightbox
	LinkText   string
	Elements   int
	CSS        string
	Style      StyleVars

	Extras   Extras
	Statuses []string

	OrderBy      string
	OrderMetaKey string

	Archive       bool
	ArchiveSearch string
	ArchiveTax    string
	ArchiveID     int64
	Search        string

	Tags          []string
	DynamicTag    bool
	Taxonomy      string
	Terms         []string
	Taxonomy2     string
	Terms2        []string
	ExcludeTags   []string
	ExcludeCats   []string
	DateStart     int
	DateStartUnit DateUnit
	DateLimit     bool
	DateAfter     string
	DateBefore    string

	ShowPages      int
	PaginationMode PaginationMode
	TotalText      string
	LoadText       string
	PagesPos       int
	Fallback       string

	ImageSize    string
	Placeholders []string

	// DisplayRaw keeps the original display attribute for custom markup
	// detection and the data-args round trip.
	DisplayRaw string
}

// ArchiveContext reports whether the invocation renders an archive listing.
func (o Options) ArchiveContext() bool {
	return o.Archive || o.ArchiveSearch != "" || o.ArchiveTax != ""
}

// SearchContext reports whether the invocation renders search results.
func (o Options) SearchContext() bool {
	return o.Search != ""
}

// WantsDate reports whether the display list includes the date slot.
func (o Options) WantsDate() bool {
	return containsToken(o.Display, "date")
}

// WantsTitle reports whether the display list includes the title slot.
func (o Options) WantsTitle() bool {
	return containsToken(o.Display, "title")
}

// WantsText reports whether the display list requests any body text mode.
func (o Options) WantsText() bool {
	for _, d := range o.Display {
		switch d {
		case "excerpt", "content", "excerpt-small", "content-small", "excerptcontent", "contentexcerpt":
			return true
		}
	}
	return false
}

// DatePrecedesTitle reports whether the date slot should render before the
// title, following the display list order.
func (o Options) DatePrecedesTitle() bool {
	for _, d := range o.Display {
		switch d {
		case "date":
			return true
		case "title":
			return false
		}
	}
	return false
}

// CardOutput derives the card layout class from the css option.
func (o Options) CardOutput() CardOutputType {
	for _, part := range splitSpace(o.CSS) {
		switch CardOutputType(part) {
		case CardColumn, CardImageInfo, CardInfoImage, CardOverlay:
			return CardOutputType(part)
		}
	}
	return CardUnspecified
}

// HasCSS reports whether the css class list contains the given class.
func (o Options) HasCSS(class string) bool {
	for _, part := range splitSpace(o.CSS) {
		if part == class {
			return true
		}
	}
	return false
}

func containsToken(list []string, token string) bool {
	for _, t := range list {
		if t == token {
			return true
		}
	}
	return false
}
