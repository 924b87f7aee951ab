package pattern

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidOverride indicates a catalog override payload that failed validation.
var ErrInvalidOverride = errors.New("pattern: invalid catalog override")

// DefaultSpec is the single-token pattern used when resolution fails.
const DefaultSpec = "[title]"

// DefaultID is the sentinel id reported when resolution falls back to
// DefaultSpec. It is never a catalog key, so link lookups on it stay false.
const DefaultID = -1

// CustomPrefix marks display values that bypass the internal grammar.
const CustomPrefix = "_custom_"

// defaultCatalog is the built-in tile pattern catalog. Ids are part of the
// public configuration surface and must stay stable.
var defaultCatalog = map[int]string{
	// No link.
	0:  "[image][title][text][read_more_text]",
	1:  "[title][image][text][read_more_text]",
	2:  "[title][text][image][read_more_text]",
	18: "[title][text][read_more_text][image]",

	// Full link.
	3:  "[a][image][title][text][read_more_text][/a]",
	11: "[a][title][image][text][read_more_text][/a]",
	14: "[a][title][text][image][read_more_text][/a]",
	19: "[a][title][text][read_more_text][image][/a]",

	// Partial link.
	13: "[title][image][text][a-r][read_more_text][/a]",
	17: "[title][text][image][a-r][read_more_text][/a]",
	25: "[image][a][title][/a][text][read_more_text]",
	26: "[image][a][title][/a][text][a-r][read_more_text][/a]",
	27: "[a][image][title][/a][text][read_more_text]",
	5:  "[image][title][text][a-r][read_more_text][/a]",
	28: "[a][image][title][/a][text][a-r][read_more_text][/a]",
	22: "[title][text][a-r][read_more_text][/a][image]",
}

// ver2Compatible lists the pattern ids usable with the version 2 card grammar.
var ver2Compatible = []int{0, 5, 18, 22, 25, 26}

// readMoreWrapIDs are full-link patterns where the main link doubles as the
// read-more wrap, so the read-more span drops its own class.
var readMoreWrapIDs = []int{3, 11, 14, 19}

// readMoreHrefIDs are version 2 patterns where the read-more link, not the
// title, carries the href.
var readMoreHrefIDs = []int{5, 22}

// readMoreLinkIDs are version 2 patterns whose read-more output is wrapped in
// the anchor markup.
var readMoreLinkIDs = []int{5, 22, 26}

// overrideSchema validates catalog override payloads: an object keyed by
// numeric pattern id, each value a bracketed token sequence.
const overrideSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"minProperties": 1,
	"propertyNames": {"pattern": "^[0-9]+$"},
	"additionalProperties": {
		"type": "string",
		"pattern": "^(\\[[a-z0-9_/-]+\\])+$"
	}
}`

var compiledOverrideSchema = jsonschema.MustCompileString("catalog-override.json", overrideSchema)

// Catalog holds the tile patterns plus the derived link partition. The
// partition is recomputed whenever overrides are merged.
type Catalog struct {
	patterns map[int]string
	linked   map[int]bool
}

// NewCatalog builds the catalog from the built-in pattern set.
func NewCatalog() *Catalog {
	c := &Catalog{patterns: make(map[int]string, len(defaultCatalog))}
	for id, spec := range defaultCatalog {
		c.patterns[id] = spec
	}
	c.partition()
	return c
}

// RegisterOverrides merges a JSON override payload into the catalog after
// schema validation. Existing ids are replaced, new ids are added.
func (c *Catalog) RegisterOverrides(payload map[string]any) error {
	if err := compiledOverrideSchema.Validate(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOverride, err)
	}
	for key, value := range payload {
		id, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("%w: id %q is not numeric", ErrInvalidOverride, key)
		}
		spec, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: pattern for id %d is not a string", ErrInvalidOverride, id)
		}
		c.patterns[id] = spec
	}
	c.partition()
	return nil
}

// Resolve returns the token spec for the requested pattern id. Unknown ids,
// and ids outside the version 2 subset when version 2 is requested, fall back
// to the single-token default.
func (c *Catalog) Resolve(elementsID, version int) string {
	spec, ok := c.patterns[c.ResolveID(elementsID, version)]
	if !ok {
		return DefaultSpec
	}
	return spec
}

// ResolveID returns the effective pattern id after fallback rules, DefaultID
// when resolution falls back. The link variations keyed off the id must use
// this value, not the raw request.
func (c *Catalog) ResolveID(elementsID, version int) int {
	if _, ok := c.patterns[elementsID]; !ok {
		return DefaultID
	}
	if version >= 2 && !isVer2(elementsID) {
		return DefaultID
	}
	return elementsID
}

// HasLink reports whether the pattern with the given id carries link tokens.
func (c *Catalog) HasLink(id int) bool {
	return c.linked[id]
}

// LinkedIDs returns the ids of link-bearing patterns, sorted.
func (c *Catalog) LinkedIDs() []int {
	return c.idsWhere(true)
}

// UnlinkedIDs returns the ids of patterns without link tokens, sorted.
func (c *Catalog) UnlinkedIDs() []int {
	return c.idsWhere(false)
}

func (c *Catalog) idsWhere(linked bool) []int {
	out := []int{}
	for id := range c.patterns {
		if c.linked[id] == linked {
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

func (c *Catalog) partition() {
	c.linked = make(map[int]bool, len(c.patterns))
	for id, spec := range c.patterns {
		c.linked[id] = strings.Contains(spec, "[a]") || strings.Contains(spec, "[a-r]")
	}
}

// IsCustomDisplay reports whether a display value requests custom markup
// expansion, returning the derived filter identifier when it does.
func IsCustomDisplay(display string) (string, bool) {
	cleaned := strings.ReplaceAll(display, "][", "_")
	cleaned = strings.ReplaceAll(cleaned, "[", "")
	cleaned = strings.ReplaceAll(cleaned, "]", "")
	cleaned = strings.TrimSpace(cleaned)
	if strings.HasPrefix(cleaned, CustomPrefix) {
		return cleaned, true
	}
	return "", false
}

// IsVer2 reports whether the id belongs to the version 2 compatible subset.
func IsVer2(id int) bool {
	return isVer2(id)
}

func isVer2(id int) bool {
	for _, v := range ver2Compatible {
		if v == id {
			return true
		}
	}
	return false
}

// ReadMoreWrapsLink reports whether the pattern's main link acts as the
// read-more wrap.
func ReadMoreWrapsLink(id int) bool {
	return containsID(readMoreWrapIDs, id)
}

// ReadMoreCarriesHref reports whether, under version 2, the read-more link
// carries the href instead of the title.
func ReadMoreCarriesHref(id int) bool {
	return containsID(readMoreHrefIDs, id)
}

// ReadMoreLinked reports whether, under version 2, the read-more output is
// wrapped in the anchor markup.
func ReadMoreLinked(id int) bool {
	return containsID(readMoreLinkIDs, id)
}

func containsID(list []int, id int) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
