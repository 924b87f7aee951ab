package render

import (
	"regexp"
	"strings"
)

var (
	bracketRe    = regexp.MustCompile(`\[[^\]]+\]`)
	htmlCommentRe = regexp.MustCompile(`<!--(.*?)-->`)
	spaceRunRe   = regexp.MustCompile(`\s+`)
)

// trailingPunctuation are the characters trimmed from truncated text ends.
const trailingPunctuation = " \t\n\r\x00\x0B-.,:|?!-_`'"

// ShortText strips markup and shortcode-style brackets from text, collapses
// whitespace, and truncates to whole words within the character limit. The
// suffix is appended only when truncation actually removed content. The
// result never exceeds limit plus the suffix length and never cuts a word.
func ShortText(text string, limit int, suffix string) string {
	if text == "" || limit <= 0 {
		return ""
	}

	cleaned := PlainText(text)
	if cleaned == "" {
		return ""
	}

	if len([]rune(cleaned)) <= limit {
		return cleaned
	}

	words := strings.Split(cleaned, " ")
	var b strings.Builder
	length := 0
	for _, w := range words {
		wlen := len([]rune(w))
		next := length + wlen
		if length > 0 {
			next++
		}
		if next > limit {
			break
		}
		if length > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		length = next
	}

	out := strings.Trim(b.String(), trailingPunctuation)
	out = strings.TrimSpace(out)
	if out == "" {
		return ""
	}
	if suffix != "" && len([]rune(out)) != len([]rune(cleaned)) {
		out += suffix
	}
	return out
}

// PlainText reduces markup to plain text: tags and bracketed tokens removed,
// non-breaking spaces normalized, whitespace collapsed.
func PlainText(text string) string {
	text = stripTags(text)
	text = bracketRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, " ", " ")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = spaceRunRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func stripTags(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
			// Tags act as word boundaries.
			b.WriteByte(' ')
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var tagSplitRe = regexp.MustCompile(`(<[^>]*[^/]>)|(<[^>]*/>)`)

// TrimHTMLToLength truncates text to the character limit while preserving
// markup: open tags are tracked on a stack and any still open at the cut
// point are closed in LIFO order.
func TrimHTMLToLength(html string, maxLen int, end string) string {
	html = bracketRe.ReplaceAllString(html, "")
	html = strings.ReplaceAll(html, "&nbsp;", " ")
	html = htmlCommentRe.ReplaceAllString(html, "")
	html = spaceRunRe.ReplaceAllString(strings.TrimSpace(html), " ")
	if len(html) <= maxLen {
		return html
	}

	parts := splitKeepingTags(html)
	var out strings.Builder
	var starts []string
	textLen := 0

	for _, elem := range parts {
		remaining := maxLen - textLen
		if remaining <= 0 {
			break
		}

		switch {
		case strings.HasPrefix(elem, "</"):
			out.WriteString(elem)
			name := strings.Trim(elem, "</>")
			if len(starts) > 0 && strings.HasPrefix(starts[0], "<"+name) {
				starts = starts[1:]
			}
		case strings.HasPrefix(elem, "<"):
			starts = append([]string{elem}, starts...)
			out.WriteString(elem)
		default:
			if len(elem) > remaining {
				elem = cutAtWord(elem, remaining)
			}
			out.WriteString(elem)
			out.WriteByte(' ')
			textLen += len(elem) + 1
		}
	}

	text := strings.TrimSpace(out.String())
	text = trimTrailingNonLetter(text)
	text = strings.TrimSpace(text)

	if end != "" {
		text += end
	}
	for _, open := range starts {
		name := open
		if i := strings.IndexAny(name, " >"); i > 0 {
			name = name[:i]
		}
		name = strings.TrimPrefix(name, "<")
		text += "</" + name + ">"
	}
	return text
}

func splitKeepingTags(html string) []string {
	out := []string{}
	last := 0
	for _, loc := range tagSplitRe.FindAllStringIndex(html, -1) {
		if loc[0] > last {
			out = append(out, html[last:loc[0]])
		}
		out = append(out, html[loc[0]:loc[1]])
		last = loc[1]
	}
	if last < len(html) {
		out = append(out, html[last:])
	}
	return out
}

func cutAtWord(text string, limit int) string {
	if pos := strings.Index(text[limit:], " "); pos >= 0 {
		return strings.TrimSpace(text[:limit+pos])
	}
	var b strings.Builder
	for _, w := range strings.Split(text, " ") {
		if b.Len() >= limit {
			break
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	return strings.TrimSpace(b.String())
}

func trimTrailingNonLetter(text string) string {
	runes := []rune(text)
	for len(runes) > 0 {
		last := runes[len(runes)-1]
		if isLetterOrDigit(last) || last == '>' {
			break
		}
		runes = runes[:len(runes)-1]
	}
	return string(runes)
}

func isLetterOrDigit(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r > 127
}

// CleanTitle strips bracket characters so titles never collide with the
// token grammar.
func CleanTitle(title string) string {
	title = strings.ReplaceAll(title, "[", "")
	return strings.ReplaceAll(title, "]", "")
}
