package engine

import (
	"html"
	"strings"

	"github.com/goliatone/go-tiles/internal/options"
)

// sectionStyle turns the style options into CSS custom properties for the
// section element, plus the extra classes implied by image sizing. Each
// declaration keeps a leading space so the attribute round-trips unchanged
// for the async client.
func sectionStyle(s options.StyleVars) (styleVars, extraCSS string) {
	var b strings.Builder
	put := func(name, value string) {
		if value != "" {
			b.WriteString(" --" + name + ": " + html.EscapeString(value) + ";")
		}
	}

	put("default-tile-height", s.DefaultHeight)
	put("default-tile-padding", s.DefaultPadding)
	put("default-tile-gap", s.DefaultGap)
	put("default-overlay-padding", s.DefaultOverlayPadding)

	put("tablet-tile-height", s.TabletHeight)
	put("tablet-tile-padding", s.TabletPadding)
	put("tablet-tile-gap", s.TabletGap)
	put("tablet-overlay-padding", s.TabletOverlayPadding)

	put("mobile-tile-height", s.MobileHeight)
	put("mobile-tile-padding", s.MobilePadding)
	put("mobile-tile-gap", s.MobileGap)
	put("mobile-overlay-padding", s.MobileOverlayPadding)

	put("article-text-color", s.ColorText)
	put("article-title-color", s.ColorTitle)
	put("article-bg-color", s.ColorBG)
	put("article-size-text", s.SizeText)
	put("article-size-title", s.SizeTitle)
	put("article-image-opacity", s.ImageOpacity)

	if s.SizeImage != "" {
		extraCSS += " has-image-size"
		put("article-image-size", s.SizeImage)
	}
	if s.ImageRatio != "" {
		if s.ImageRatio == "contain" {
			extraCSS += " has-image-contain"
		} else {
			extraCSS += " has-image-ratio"
			put("article-image-ratio", s.ImageRatio)
		}
	}
	put("article-ratio", s.CardRatio)

	return b.String(), extraCSS
}
