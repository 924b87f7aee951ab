package pagination

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-tiles/internal/options"
)

// DefaultMoreText labels the incremental loading control when the invocation
// gives no custom label.
const DefaultMoreText = "Load more"

// URLResolver produces the absolute URL for a page number. Page 1 must map
// to the unpaged root URL.
type URLResolver interface {
	PageURL(page int) string
}

// Params carries one pagination rendering request.
type Params struct {
	// Total is the matched record count before paging, already capped by the
	// selection limit.
	Total       int
	PerPage     int
	Range       int
	CurrentPage int
	InstanceID  string
	Class       string
	MoreText    string
	TotalText   string
	ShowTotal   bool
	// MaxPages caps the page count when the selection limit forces fewer
	// pages than the matched total implies. Zero means no cap.
	MaxPages int
	URLs     URLResolver
}

// ClassFor derives the pagination class list from the invocation options.
func ClassFor(o options.Options) string {
	class := ""
	if o.Extras.PaginationAll {
		class = "all-elements"
	}
	switch o.PaginationMode {
	case options.PaginationMore:
		class += " lps-load-more"
	case options.PaginationScroll:
		class += " lps-load-more-scroll"
	}
	for _, variant := range []string{"pagination-center", "pagination-right", "pagination-space-between"} {
		if o.HasCSS(variant) {
			class += " " + variant
			break
		}
	}
	if o.Lightbox.Attr != "" {
		class += " lps-lightbox"
	}
	return class
}

// Render produces the pagination markup, or an empty string when a single
// page holds everything.
func Render(p Params) string {
	perPage := p.PerPage
	if perPage < 1 {
		perPage = 1
	}
	rng := p.Range
	if rng < 0 {
		rng = -rng
	}
	if rng == 0 {
		rng = 1
	}
	current := p.CurrentPage
	if current < 1 {
		current = 1
	}

	total := int(math.Ceil(float64(p.Total) / float64(perPage)))
	if p.MaxPages > 0 && p.MaxPages < total {
		total = p.MaxPages
	}
	if total <= 1 {
		return ""
	}

	start := current - current%rng + 1
	if current%rng == 0 {
		start = current - rng + 1
	}
	if start < 1 {
		start = 1
	}
	end := start + rng - 1
	if end > total {
		end = total
	}

	showTotal := p.ShowTotal && strings.Contains(p.TotalText, "%d")
	class := strings.TrimSpace(p.Class)

	var b strings.Builder
	b.WriteString(`<ul class="latest-post-selection pages ` + class + ` ` + p.InstanceID + `">`)
	if showTotal {
		b.WriteString(`<li class="pages-info">` + fmt.Sprintf(p.TotalText, p.Total) + `</li>`)
	}

	if strings.Contains(p.Class, "lps-load-more") {
		if current < total {
			text := p.MoreText
			if text == "" {
				text = DefaultMoreText
			}
			b.WriteString(`<li class="go-to-next lps-load-more">` + pageAnchor(p.URLs, current+1, text, text) + `</li>`)
		}
		b.WriteString(`</ul>`)
		return `<div class="lps-pagination-wrap ` + class + `">` + b.String() + `</div>`
	}

	b.WriteString(`<li class="pages-info">Page ` + strconv.Itoa(current) + ` of ` + strconv.Itoa(total) + `</li>`)

	switch {
	case total > rng && start > rng:
		b.WriteString(`<li class="go-to-first">` + pageAnchor(p.URLs, 1, "First", "&lsaquo;&nbsp;") + `</li>`)
	case total > rng:
		b.WriteString(`<li class="go-to-first disabled">` + deadAnchor(current, "First", "&lsaquo;&nbsp;") + `</li>`)
	}

	if current > 1 {
		b.WriteString(`<li class="go-to-prev">` + pageAnchor(p.URLs, current-1, "Previous", "&laquo;") + `</li>`)
	} else {
		b.WriteString(`<li class="go-to-prev disabled">` + deadAnchor(current, "Previous", "&laquo;") + `</li>`)
	}

	for i := start; i <= end; i++ {
		label := strconv.Itoa(i)
		title := "Page " + label
		if i == 1 {
			title = "First"
		}
		switch {
		case i == current && i == 1:
			b.WriteString(`<li class="current">` + pageAnchor(p.URLs, 1, title, label) + `</li>`)
		case i == 1:
			b.WriteString(`<li>` + pageAnchor(p.URLs, 1, title, label) + `</li>`)
		case i == current:
			b.WriteString(`<li class="current">` + deadAnchor(i, title, label) + `</li>`)
		default:
			b.WriteString(`<li>` + pageAnchor(p.URLs, i, title, label) + `</li>`)
		}
	}

	if current < total {
		b.WriteString(`<li class="go-to-next">` + pageAnchor(p.URLs, current+1, "Next", "&raquo;") + `</li>`)
	} else {
		b.WriteString(`<li class="go-to-next disabled">` + deadAnchor(current, "Next", "&raquo;") + `</li>`)
	}

	switch {
	case end < total:
		b.WriteString(`<li class="go-to-last">` + pageAnchor(p.URLs, total, "Last", "&nbsp;&rsaquo;") + `</li>`)
	case total > rng:
		b.WriteString(`<li class="go-to-last disabled">` + deadAnchor(current, "Last", "&nbsp;&rsaquo;") + `</li>`)
	}

	b.WriteString(`</ul>`)
	return `<div class="lps-pagination-wrap ` + class + `">` + b.String() + `</div>`
}

func pageAnchor(urls URLResolver, page int, title, label string) string {
	href := ""
	if urls != nil {
		if u := urls.PageURL(page); u != "" {
			href = ` href="` + u + `"`
		}
	}
	return `<a class="page-item"` + href + ` data-page="` + strconv.Itoa(page) + `" title="` + title + `">` + label + `</a>`
}

// deadAnchor renders a disabled control that keeps the current page as its
// data target so client code never navigates on it.
func deadAnchor(current int, title, label string) string {
	return `<a class="page-item" data-page="` + strconv.Itoa(current) + `" title="` + title + `">` + label + `</a>`
}
