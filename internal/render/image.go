package render

import (
	"context"
	"html"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-tiles/internal/options"
	"github.com/goliatone/go-tiles/internal/tracker"
	"github.com/goliatone/go-tiles/pkg/interfaces"
)

// tileImage resolves the item's image markup plus the raw URL used by the
// overlay display mode. A missing image falls back to the placeholder
// rotation; missing both yields empty output.
func (r *Renderer) tileImage(ctx context.Context, item *interfaces.Item, o options.Options, state *tracker.PageState, version int) (markup, url string) {
	if o.ImageSize == "" {
		return "", ""
	}

	attrs := map[string]string{
		"class":   "lps-tile-main-image lps-custom-" + o.ImageSize,
		"loading": "lazy",
		"alt":     CleanTitle(item.Title),
	}

	var src *interfaces.ImageSource
	if r.media != nil && item.MediaID != 0 {
		if resolved, err := r.media.ImageSource(ctx, item.MediaID, o.ImageSize); err == nil && resolved != nil && resolved.URL != "" {
			src = resolved
		}
	}

	if src != nil {
		url = src.URL
		if src.Width > 0 {
			attrs["width"] = strconv.Itoa(src.Width)
		}
		if src.Height > 0 {
			attrs["height"] = strconv.Itoa(src.Height)
		}
		if src.Srcset != "" {
			attrs["srcset"] = src.Srcset
		}
		if src.Alt != "" {
			attrs["alt"] = src.Alt
		}
	} else if len(o.Placeholders) > 0 {
		url = state.NextPlaceholder(o.Placeholders)
	}

	if url == "" {
		return "", ""
	}

	img := `<img src="` + html.EscapeString(url) + `"` + renderAttrs(attrs) + `>`
	if version >= 2 {
		return `<figure class="article__image">` + img + `</figure>`, url
	}
	return img, url
}

func renderAttrs(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(attrs[k]))
		b.WriteByte('"')
	}
	return b.String()
}
