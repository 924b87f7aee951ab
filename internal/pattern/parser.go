package pattern

import "strings"

// Token names for the fixed grammar vocabulary. Any other bracketed name is
// treated as a dynamic taxonomy slot.
const (
	TokImage        = "image"
	TokTitle        = "title"
	TokText         = "text"
	TokReadMore     = "read_more_text"
	TokDate         = "date"
	TokAuthor       = "author"
	TokTags         = "tags"
	TokLinkOpen     = "a"
	TokReadMoreOpen = "a-r"
	TokLinkClose    = "/a"
	TokPrice        = "price"
	TokAddToCart    = "add_to_cart"
	TokPriceCart    = "price_add_to_cart"
	TokMime         = "show_mime"
	TokCaption      = "caption"
)

// Token is one element of a parsed tile pattern. Literal tokens carry raw
// markup from custom patterns and are emitted untouched.
type Token struct {
	Name    string
	Literal string
}

// IsLiteral reports whether the token is raw pass-through text.
func (t Token) IsLiteral() bool {
	return t.Name == ""
}

// Is reports whether the token is the named grammar token.
func (t Token) Is(name string) bool {
	return t.Name == name
}

// Parse tokenizes a pattern spec once, producing the ordered token list the
// renderer substitutes in a single pass. Unbalanced brackets degrade to
// literal text rather than failing.
func Parse(spec string) []Token {
	tokens := []Token{}
	for len(spec) > 0 {
		open := strings.IndexByte(spec, '[')
		if open < 0 {
			tokens = append(tokens, Token{Literal: spec})
			break
		}
		if open > 0 {
			tokens = append(tokens, Token{Literal: spec[:open]})
			spec = spec[open:]
			continue
		}
		close := strings.IndexByte(spec, ']')
		if close < 0 {
			tokens = append(tokens, Token{Literal: spec})
			break
		}
		name := spec[1:close]
		if name == "" {
			tokens = append(tokens, Token{Literal: spec[:close+1]})
		} else {
			tokens = append(tokens, Token{Name: name})
		}
		spec = spec[close+1:]
	}
	return tokens
}

// Render reassembles a token list into its spec form.
func Render(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		if t.IsLiteral() {
			b.WriteString(t.Literal)
			continue
		}
		b.WriteByte('[')
		b.WriteString(t.Name)
		b.WriteByte(']')
	}
	return b.String()
}

// Index returns the position of the first token with the given name, or -1.
func Index(tokens []Token, name string) int {
	for i, t := range tokens {
		if t.Is(name) {
			return i
		}
	}
	return -1
}

// Contains reports whether the token list includes the named token.
func Contains(tokens []Token, name string) bool {
	return Index(tokens, name) >= 0
}

// InsertBefore inserts a token ahead of the first occurrence of the anchor.
// When the anchor is absent the list is returned unchanged.
func InsertBefore(tokens []Token, anchor string, insert Token) []Token {
	i := Index(tokens, anchor)
	if i < 0 {
		return tokens
	}
	return splice(tokens, i, insert)
}

// InsertAfter inserts a token after the first occurrence of the anchor.
// When the anchor is absent the list is returned unchanged.
func InsertAfter(tokens []Token, anchor string, insert Token) []Token {
	i := Index(tokens, anchor)
	if i < 0 {
		return tokens
	}
	return splice(tokens, i+1, insert)
}

// Replace swaps the first occurrence of the named token for the given tokens.
func Replace(tokens []Token, name string, with ...Token) []Token {
	i := Index(tokens, name)
	if i < 0 {
		return tokens
	}
	out := make([]Token, 0, len(tokens)+len(with)-1)
	out = append(out, tokens[:i]...)
	out = append(out, with...)
	out = append(out, tokens[i+1:]...)
	return out
}

func splice(tokens []Token, at int, insert Token) []Token {
	out := make([]Token, 0, len(tokens)+1)
	out = append(out, tokens[:at]...)
	out = append(out, insert)
	out = append(out, tokens[at:]...)
	return out
}
