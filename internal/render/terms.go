package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/goliatone/go-tiles/pkg/interfaces"
)

// termListOptions controls one taxonomy slot's rendering.
type termListOptions struct {
	// FirstOnly limits the list to the first N terms, where N derives from
	// the css class list (two-/three- variants), default one.
	FirstOnly bool
	Count     int
	NoLabel   bool
	// HideUncategorized drops the default "uncategorized" term.
	HideUncategorized bool
	// Label is the taxonomy display label, defaulting to the slug.
	Label string
}

// termCount derives how many terms a first-N slot shows from the css classes.
func termCount(taxonomy, css string) int {
	var two, three string
	switch taxonomy {
	case "post_tag":
		two, three = "two-tags", "three-tags"
	case "category":
		two, three = "two-categories", "three-categories"
	default:
		return 1
	}
	if strings.Contains(css, two) {
		return 2
	}
	if strings.Contains(css, three) {
		return 3
	}
	return 1
}

// visibleTerms renders the taxonomy term list markup for one item. An item
// without terms in the taxonomy yields an empty string.
func visibleTerms(item *interfaces.Item, taxonomy string, opts termListOptions) string {
	if item == nil || taxonomy == "" {
		return ""
	}
	terms := item.TermsIn(taxonomy)
	if opts.HideUncategorized {
		kept := terms[:0:0]
		for _, t := range terms {
			if t.Slug == "uncategorized" {
				continue
			}
			kept = append(kept, t)
		}
		terms = kept
	}
	if len(terms) == 0 {
		return ""
	}
	if opts.FirstOnly {
		count := opts.Count
		if count < 1 {
			count = 1
		}
		if len(terms) > count {
			terms = terms[:count]
		}
	}

	links := make([]string, 0, len(terms))
	for _, t := range terms {
		name := html.EscapeString(t.Name)
		if t.URL != "" {
			links = append(links, `<a href="`+html.EscapeString(t.URL)+`" rel="tag">`+name+`</a>`)
		} else {
			links = append(links, name)
		}
	}

	list := `<span class="lps-terms ` + html.EscapeString(taxonomy) + `">` + strings.Join(links, ", ") + `</span>`

	var label string
	if !opts.NoLabel {
		display := opts.Label
		if display == "" {
			display = taxonomy
		}
		label = `<span class="lps-taxonomy ` + html.EscapeString(taxonomy) + `">` + html.EscapeString(display) + `:</span> `
	}

	classes := taxonomy
	if opts.FirstOnly {
		classes += " one-term"
	}
	if opts.NoLabel {
		classes += " no-label"
	}
	return fmt.Sprintf(`<div class="lps-taxonomy-wrap %s">%s%s</div>`, html.EscapeString(classes), label, list)
}
