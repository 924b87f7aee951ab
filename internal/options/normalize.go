package options

import (
	"regexp"
	"strconv"
	"strings"
)

var taxPositionRe = regexp.MustCompile(`^taxpos_(.+)_(before|after)-(.+)$`)

// Normalize coerces a flat argument bag into an Options value. It never
// fails: absent or invalid values fall back to their documented defaults so
// the caller always renders something, or cleanly renders nothing.
func Normalize(raw map[string]string) Options {
	get := func(key string) string {
		return strings.TrimSpace(raw[key])
	}

	o := Options{
		InstanceID: get("instance_id"),
		Output:     get("output"),
		Version:    1,
		TitleTag:   DefaultTitleTag,
		CharLimit:  DefaultCharLimit,
		Display:    []string{"title"},
		OrderBy:    DefaultSortKey,
		TotalText:  "Total items: %d",
	}

	if v := parseInt(get("ver")); v >= 2 {
		o.Version = 2
	}

	o.Limit = parseInt(get("limit"))
	o.PerPage = parseInt(get("perpage"))
	o.Offset = parseInt(get("offset"))

	o.IncludeIDs = parseIDList(get("id"))
	o.ExcludeIDs = parseIDList(get("excludeid"))
	o.DynamicParent = get("dparent") != ""
	if !o.DynamicParent {
		o.Parents = parseIDList(get("parent"))
	}
	o.DynamicAuthor = get("dauthor") != ""
	if !o.DynamicAuthor {
		o.Authors = parseIDList(get("author"))
	}
	o.ExcludeAuthors = parseIDList(get("excludeauthor"))

	if t := get("type"); t != "" {
		o.Types = splitList(t)
	} else {
		o.Types = []string{"any"}
	}
	o.SiteID = int64(parseInt(get("site_id")))

	if tag := get("titletag"); tag != "" && containsToken(TitleTags, tag) {
		o.TitleTag = tag
	}
	if n := parseInt(get("chrlimit")); n > 0 {
		o.CharLimit = n
	}
	o.TrimSuffix = get("more")

	o.DisplayRaw = get("display")
	if o.DisplayRaw != "" {
		o.Display = splitList(o.DisplayRaw)
	}

	switch URLMode(get("url")) {
	case URLItem:
		o.URL = URLItem
	case URLItemBlank:
		o.URL = URLItemBlank
	case URLMedia:
		o.URL = URLMedia
	case URLMediaBlank:
		o.URL = URLMediaBlank
	case URLMediaLightbox:
		o.URL = URLMediaLightbox
	}
	if o.URL.LinksMedia() {
		o.Lightbox = Lightbox{
			Size: get("lightbox_size"),
			Attr: get("lightbox_attr"),
			Val:  get("lightbox_val"),
		}
	}
	if o.URL != URLNone {
		o.LinkText = get("linktext")
	}

	o.Elements = parseInt(get("elements"))
	o.CSS = strings.TrimSpace(get("css"))
	o.Style = normalizeStyle(get)

	o.Extras = parseExtras(get("show_extra"))

	if s := get("status"); s != "" {
		o.Statuses = splitList(s)
	} else {
		o.Statuses = []string{"publish"}
	}

	if key := get("orderby"); key != "" {
		if _, ok := sortCatalog[key]; ok {
			o.OrderBy = key
		}
	}
	o.OrderMetaKey = get("orderby_meta")

	o.Archive = get("archive") != ""
	o.ArchiveSearch = get("archive_s")
	o.ArchiveTax = get("archive_tax")
	o.ArchiveID = int64(parseInt(get("archive_id")))
	o.Search = get("search")

	o.Tags = splitList(get("tag"))
	o.DynamicTag = get("dtag") != ""
	o.Taxonomy = get("taxonomy")
	o.Terms = splitList(get("term"))
	o.Taxonomy2 = get("taxonomy2")
	o.Terms2 = splitList(get("term2"))
	o.ExcludeTags = splitList(get("exclude_tags"))
	o.ExcludeCats = splitList(get("exclude_categories"))

	o.DateLimit = get("date_limit") != ""
	o.DateStart = parseInt(get("date_start"))
	o.DateStartUnit = UnitMonths
	switch DateUnit(get("date_start_type")) {
	case UnitWeeks:
		o.DateStartUnit = UnitWeeks
	case UnitDays:
		o.DateStartUnit = UnitDays
	case UnitHours:
		o.DateStartUnit = UnitHours
	}
	o.DateAfter = get("date_after")
	o.DateBefore = get("date_before")

	showpages := get("showpages")
	o.PaginationMode = PaginationNumeric
	switch showpages {
	case "":
	case string(PaginationMore):
		o.PaginationMode = PaginationMore
		o.ShowPages = 1
	case string(PaginationScroll):
		o.PaginationMode = PaginationScroll
		o.ShowPages = 1
	default:
		if o.ShowPages = parseInt(showpages); o.ShowPages < 1 {
			o.ShowPages = 1
		}
	}

	if t := get("total_text"); t != "" {
		o.TotalText = t
	}
	o.LoadText = get("loadtext")
	o.PagesPos = parseInt(get("pagespos"))
	o.Fallback = get("fallback")

	o.ImageSize = get("image")
	o.Placeholders = splitList(get("image_placeholder"))

	return o
}

// Args serializes the options back to the flat argument form. Only values
// diverging from the defaults are emitted, matching the minimal data-args
// payload used for async pagination. Normalize(o.Args()) == o.
func (o Options) Args() map[string]string {
	out := map[string]string{}
	put := func(key, val string) {
		if val != "" {
			out[key] = val
		}
	}

	put("instance_id", o.InstanceID)
	put("output", o.Output)
	if o.Version >= 2 {
		out["ver"] = "2"
	}
	putInt(out, "limit", o.Limit)
	putInt(out, "perpage", o.PerPage)
	putInt(out, "offset", o.Offset)
	put("id", joinIDs(o.IncludeIDs))
	put("excludeid", joinIDs(o.ExcludeIDs))
	if o.DynamicParent {
		out["dparent"] = "1"
	} else {
		put("parent", joinIDs(o.Parents))
	}
	if o.DynamicAuthor {
		out["dauthor"] = "1"
	} else {
		put("author", joinIDs(o.Authors))
	}
	put("excludeauthor", joinIDs(o.ExcludeAuthors))
	if len(o.Types) != 1 || o.Types[0] != "any" {
		put("type", strings.Join(o.Types, ","))
	}
	putInt(out, "site_id", int(o.SiteID))
	if o.TitleTag != DefaultTitleTag {
		put("titletag", o.TitleTag)
	}
	if o.CharLimit != DefaultCharLimit {
		putInt(out, "chrlimit", o.CharLimit)
	}
	put("more", o.TrimSuffix)
	put("display", o.DisplayRaw)
	put("url", string(o.URL))
	put("lightbox_size", o.Lightbox.Size)
	put("lightbox_attr", o.Lightbox.Attr)
	put("lightbox_val", o.Lightbox.Val)
	put("linktext", o.LinkText)
	putInt(out, "elements", o.Elements)
	put("css", o.CSS)
	writeStyle(out, o.Style)
	put("show_extra", strings.Join(o.Extras.raw, ","))
	if len(o.Statuses) != 1 || o.Statuses[0] != "publish" {
		put("status", strings.Join(o.Statuses, ","))
	}
	if o.OrderBy != DefaultSortKey {
		put("orderby", o.OrderBy)
	}
	put("orderby_meta", o.OrderMetaKey)
	if o.Archive {
		out["archive"] = "1"
	}
	put("archive_s", o.ArchiveSearch)
	put("archive_tax", o.ArchiveTax)
	putInt(out, "archive_id", int(o.ArchiveID))
	put("search", o.Search)
	put("tag", strings.Join(o.Tags, ","))
	if o.DynamicTag {
		out["dtag"] = "1"
	}
	put("taxonomy", o.Taxonomy)
	put("term", strings.Join(o.Terms, ","))
	put("taxonomy2", o.Taxonomy2)
	put("term2", strings.Join(o.Terms2, ","))
	put("exclude_tags", strings.Join(o.ExcludeTags, ","))
	put("exclude_categories", strings.Join(o.ExcludeCats, ","))
	if o.DateLimit {
		out["date_limit"] = "1"
	}
	putInt(out, "date_start", o.DateStart)
	if o.DateStartUnit != UnitMonths {
		put("date_start_type", string(o.DateStartUnit))
	}
	put("date_after", o.DateAfter)
	put("date_before", o.DateBefore)
	switch o.PaginationMode {
	case PaginationMore, PaginationScroll:
		put("showpages", string(o.PaginationMode))
	default:
		putInt(out, "showpages", o.ShowPages)
	}
	if o.TotalText != "Total items: %d" {
		put("total_text", o.TotalText)
	}
	put("loadtext", o.LoadText)
	putInt(out, "pagespos", o.PagesPos)
	put("fallback", o.Fallback)
	put("image", o.ImageSize)
	put("image_placeholder", strings.Join(o.Placeholders, ","))

	return out
}

func normalizeStyle(get func(string) string) StyleVars {
	return StyleVars{
		DefaultHeight:         get("default_height"),
		DefaultPadding:        get("default_padding"),
		DefaultGap:            get("default_gap"),
		DefaultOverlayPadding: get("default_overlay_padding"),
		TabletHeight:          get("tablet_height"),
		TabletPadding:         get("tablet_padding"),
		TabletGap:             get("tablet_gap"),
		TabletOverlayPadding:  get("tablet_overlay_padding"),
		MobileHeight:          get("mobile_height"),
		MobilePadding:         get("mobile_padding"),
		MobileGap:             get("mobile_gap"),
		MobileOverlayPadding:  get("mobile_overlay_padding"),
		ColorText:             get("color_text"),
		ColorTitle:            get("color_title"),
		ColorBG:               get("color_bg"),
		SizeText:              get("size_text"),
		SizeTitle:             get("size_title"),
		SizeImage:             get("size_image"),
		ImageOpacity:          get("image_opacity"),
		ImageRatio:            get("image_ratio"),
		CardRatio:             get("card_ratio"),
	}
}

func writeStyle(out map[string]string, s StyleVars) {
	pairs := [][2]string{
		{"default_height", s.DefaultHeight},
		{"default_padding", s.DefaultPadding},
		{"default_gap", s.DefaultGap},
		{"default_overlay_padding", s.DefaultOverlayPadding},
		{"tablet_height", s.TabletHeight},
		{"tablet_padding", s.TabletPadding},
		{"tablet_gap", s.TabletGap},
		{"tablet_overlay_padding", s.TabletOverlayPadding},
		{"mobile_height", s.MobileHeight},
		{"mobile_padding", s.MobilePadding},
		{"mobile_gap", s.MobileGap},
		{"mobile_overlay_padding", s.MobileOverlayPadding},
		{"color_text", s.ColorText},
		{"color_title", s.ColorTitle},
		{"color_bg", s.ColorBG},
		{"size_text", s.SizeText},
		{"size_title", s.SizeTitle},
		{"size_image", s.SizeImage},
		{"image_opacity", s.ImageOpacity},
		{"image_ratio", s.ImageRatio},
		{"card_ratio", s.CardRatio},
	}
	for _, p := range pairs {
		if p[1] != "" {
			out[p[0]] = p[1]
		}
	}
}

func parseExtras(value string) Extras {
	e := Extras{
		OneTerm: map[string]bool{},
		NoLabel: map[string]bool{},
	}
	if value == "" {
		return e
	}
	e.raw = splitList(value)

	for _, token := range e.raw {
		switch token {
		case "raw":
			e.Raw = true
		case "trim":
			e.Trim = true
		case "cache":
			e.Cache = true
		case "nosticky":
			e.NoSticky = true
		case "sticky":
			e.Sticky = true
		case "term_strict":
			e.TermStrict = true
		case "term2_strict":
			e.Term2Strict = true
		case "date_diff":
			e.DateDiff = true
		case "tags":
			e.Tags = true
		case "author":
			e.Author = true
		case "hide_uncategorized_category":
			e.HideUncategorized = true
		case "exclude_previous_content":
			e.ExcludePrevious = true
		case "ajax_pagination":
			e.AjaxPagination = true
		case "show_total":
			e.ShowTotal = true
		case "price":
			e.Price = true
		case "add_to_cart":
			e.AddToCart = true
		case "price_add_to_cart":
			e.PriceAddToCart = true
		case "show_mime":
			e.ShowMime = true
		case "show_mime_class":
			e.ShowMimeClass = true
		case "caption":
			e.Caption = true
		case "light_spinner":
			e.LightSpinner = true
		case "dark_spinner":
			e.DarkSpinner = true
		case "pagination_all":
			e.PaginationAll = true
		default:
			if strings.HasPrefix(token, "oneterm_") {
				e.OneTerm[strings.TrimPrefix(token, "oneterm_")] = true
				continue
			}
			if strings.HasPrefix(token, "nolabel_") {
				e.NoLabel[strings.TrimPrefix(token, "nolabel_")] = true
				continue
			}
			if m := taxPositionRe.FindStringSubmatch(token); m != nil {
				e.Positions = append(e.Positions, TaxPosition{
					Taxonomy: m[1],
					Before:   m[2] == "before",
					Anchor:   m[3],
				})
				continue
			}
			e.Taxonomies = append(e.Taxonomies, token)
		}
	}

	return e
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func splitSpace(value string) []string {
	return strings.Fields(value)
}

func parseIDList(value string) []int64 {
	parts := splitList(value)
	if len(parts) == 0 {
		return nil
	}
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		if id, err := strconv.ParseInt(p, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func joinIDs(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func parseInt(value string) int {
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		// Leading digits still count, matching lenient integer coercion.
		digits := value
		for i, r := range value {
			if (r < '0' || r > '9') && !(i == 0 && r == '-') {
				digits = value[:i]
				break
			}
		}
		n, err = strconv.Atoi(digits)
		if err != nil {
			return 0
		}
	}
	if n < 0 {
		return -n
	}
	return n
}

func putInt(out map[string]string, key string, val int) {
	if val != 0 {
		out[key] = strconv.Itoa(val)
	}
}
