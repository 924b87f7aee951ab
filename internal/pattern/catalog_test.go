package pattern

import (
	"reflect"
	"testing"
)

func TestResolveKnownPattern(t *testing.T) {
	c := NewCatalog()

	if got := c.Resolve(26, 1); got != "[image][a][title][/a][text][a-r][read_more_text][/a]" {
		t.Fatalf("unexpected pattern for id 26: %q", got)
	}
	if got := c.Resolve(3, 1); got != "[a][image][title][text][read_more_text][/a]" {
		t.Fatalf("unexpected pattern for id 3: %q", got)
	}
}

func TestResolveUnknownFallsBack(t *testing.T) {
	c := NewCatalog()

	if got := c.Resolve(9999, 1); got != DefaultSpec {
		t.Fatalf("unknown id should fall back to the default tokens, got %q", got)
	}
	if got := c.ResolveID(9999, 1); got != DefaultID {
		t.Fatalf("unknown id should resolve to the sentinel id, got %d", got)
	}
}

func TestResolveVersion2Subset(t *testing.T) {
	c := NewCatalog()

	// Pattern 3 is not version 2 compatible, so version 2 falls back.
	if got := c.Resolve(3, 2); got != DefaultSpec {
		t.Fatalf("non-ver2 id should fall back to the default tokens, got %q", got)
	}
	// Pattern 22 stays usable under version 2.
	if got := c.Resolve(22, 2); got != "[title][text][a-r][read_more_text][/a][image]" {
		t.Fatalf("unexpected ver2 pattern for id 22: %q", got)
	}
	// Unknown id under version 2 falls back to the default tokens too.
	if got := c.Resolve(9999, 2); got != DefaultSpec {
		t.Fatalf("unknown id under version 2 should resolve to the default, got %q", got)
	}
}

func TestLinkPartition(t *testing.T) {
	c := NewCatalog()

	wantLinked := []int{3, 5, 11, 13, 14, 17, 19, 22, 25, 26, 27, 28}
	wantUnlinked := []int{0, 1, 2, 18}

	if got := c.LinkedIDs(); !reflect.DeepEqual(got, wantLinked) {
		t.Fatalf("linked ids: got %v, want %v", got, wantLinked)
	}
	if got := c.UnlinkedIDs(); !reflect.DeepEqual(got, wantUnlinked) {
		t.Fatalf("unlinked ids: got %v, want %v", got, wantUnlinked)
	}
	if !c.HasLink(5) || c.HasLink(0) {
		t.Fatalf("HasLink partition mismatch")
	}
}

func TestRegisterOverrides(t *testing.T) {
	c := NewCatalog()

	err := c.RegisterOverrides(map[string]any{
		"40": "[title][date][text]",
		"0":  "[title]",
	})
	if err != nil {
		t.Fatalf("unexpected override error: %v", err)
	}
	if got := c.Resolve(40, 1); got != "[title][date][text]" {
		t.Fatalf("override not applied: %q", got)
	}
	if got := c.Resolve(7, 1); got != DefaultSpec {
		t.Fatalf("unknown id should still fall back to the default tokens: %q", got)
	}
	if c.HasLink(40) {
		t.Fatalf("partition should be recomputed for overrides")
	}
}

func TestRegisterOverridesRejectsInvalid(t *testing.T) {
	c := NewCatalog()

	cases := []map[string]any{
		{"abc": "[title]"},
		{"1": "plain text, no tokens"},
		{"1": 42},
		{},
	}
	for i, payload := range cases {
		if err := c.RegisterOverrides(payload); err == nil {
			t.Fatalf("case %d: expected validation error for %#v", i, payload)
		}
	}
}

func TestIsCustomDisplay(t *testing.T) {
	if id, ok := IsCustomDisplay("[_custom_hero][title]"); !ok || id != "_custom_hero_title" {
		t.Fatalf("expected custom display detection, got %q %v", id, ok)
	}
	if _, ok := IsCustomDisplay("title,excerpt"); ok {
		t.Fatalf("plain display should not be custom")
	}
}

func TestParseRoundTrip(t *testing.T) {
	spec := "[image][a][title][/a][text][a-r][read_more_text][/a]"
	tokens := Parse(spec)
	if len(tokens) != 8 {
		t.Fatalf("expected 8 tokens, got %d: %#v", len(tokens), tokens)
	}
	if Render(tokens) != spec {
		t.Fatalf("parse/render round trip failed: %q", Render(tokens))
	}
}

func TestParseLiteralSegments(t *testing.T) {
	tokens := Parse("<div>[title]</div>")
	if len(tokens) != 3 {
		t.Fatalf("expected literal, token, literal: %#v", tokens)
	}
	if !tokens[0].IsLiteral() || tokens[0].Literal != "<div>" {
		t.Fatalf("unexpected leading literal: %#v", tokens[0])
	}
	if !tokens[1].Is(TokTitle) {
		t.Fatalf("expected title token, got %#v", tokens[1])
	}
}

func TestInsertHelpers(t *testing.T) {
	tokens := Parse("[title][text]")

	tokens = InsertAfter(tokens, TokTitle, Token{Name: TokDate})
	if Render(tokens) != "[title][date][text]" {
		t.Fatalf("InsertAfter failed: %q", Render(tokens))
	}
	tokens = InsertBefore(tokens, TokTitle, Token{Name: "category"})
	if Render(tokens) != "[category][title][date][text]" {
		t.Fatalf("InsertBefore failed: %q", Render(tokens))
	}
	tokens = InsertAfter(tokens, "missing", Token{Name: TokTags})
	if Render(tokens) != "[category][title][date][text]" {
		t.Fatalf("missing anchor should leave tokens unchanged: %q", Render(tokens))
	}
	tokens = Replace(tokens, TokDate, Token{Literal: "<em>now</em>"})
	if Render(tokens) != "[category][title]<em>now</em>[text]" {
		t.Fatalf("Replace failed: %q", Render(tokens))
	}
}
