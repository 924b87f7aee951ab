package interfaces

import "time"

// Item is one content record from the host store. The engine treats items as
// read-only; ownership and mutation stay with the store.
type Item struct {
	ID          int64
	Type        string
	Status      string
	Title       string
	Excerpt     string
	Body        string
	Permalink   string
	AuthorID    int64
	AuthorName  string
	AuthorURL   string
	ParentID    int64
	MediaID     int64
	MimeType    string
	Caption     string
	MenuOrder   int
	Sticky      bool
	PublishedAt time.Time
	Terms       []TermRef
	Meta        map[string]string
}

// TermRef is one taxonomy term assigned to an item.
type TermRef struct {
	ID       int64
	Taxonomy string
	Slug     string
	Name     string
	URL      string
}

// TermsIn returns the item's terms for a single taxonomy, in assignment order.
func (it *Item) TermsIn(taxonomy string) []TermRef {
	if it == nil {
		return nil
	}
	var out []TermRef
	for _, term := range it.Terms {
		if term.Taxonomy == taxonomy {
			out = append(out, term)
		}
	}
	return out
}
