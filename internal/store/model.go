package store

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-tiles/pkg/interfaces"
)

type itemRow struct {
	bun.BaseModel `bun:"table:items,alias:it"`

	ID          int64     `bun:",pk,autoincrement"      json:"id"`
	Type        string    `bun:"type,notnull"           json:"type"`
	Status      string    `bun:"status,notnull,default:'publish'" json:"status"`
	Title       string    `bun:"title,notnull"          json:"title"`
	Excerpt     string    `bun:"excerpt"                json:"excerpt,omitempty"`
	Body        string    `bun:"body"                   json:"body,omitempty"`
	Permalink   string    `bun:"permalink"              json:"permalink,omitempty"`
	AuthorID    int64     `bun:"author_id"              json:"author_id,omitempty"`
	AuthorName  string    `bun:"author_name"            json:"author_name,omitempty"`
	AuthorURL   string    `bun:"author_url"             json:"author_url,omitempty"`
	ParentID    int64     `bun:"parent_id"              json:"parent_id,omitempty"`
	MediaID     int64     `bun:"media_id"               json:"media_id,omitempty"`
	MimeType    string    `bun:"mime_type"              json:"mime_type,omitempty"`
	Caption     string    `bun:"caption"                json:"caption,omitempty"`
	MenuOrder   int       `bun:"menu_order"             json:"menu_order,omitempty"`
	Sticky      bool      `bun:"sticky,notnull,default:false" json:"sticky"`
	PublishedAt time.Time `bun:"published_at,nullzero"  json:"published_at"`
}

type itemTermRow struct {
	bun.BaseModel `bun:"table:item_terms,alias:itt"`

	ItemID   int64  `bun:"item_id,notnull"  json:"item_id"`
	TermID   int64  `bun:"term_id,notnull"  json:"term_id"`
	Taxonomy string `bun:"taxonomy,notnull" json:"taxonomy"`
	Slug     string `bun:"slug,notnull"     json:"slug"`
	Name     string `bun:"name"             json:"name"`
	URL      string `bun:"url"              json:"url,omitempty"`
	Position int    `bun:"position"         json:"position"`
}

type itemMetaRow struct {
	bun.BaseModel `bun:"table:item_meta,alias:im"`

	ItemID int64  `bun:"item_id,notnull"  json:"item_id"`
	Key    string `bun:"meta_key,notnull" json:"meta_key"`
	Value  string `bun:"meta_value"       json:"meta_value"`
}

// termRow is the taxonomy dictionary. ParentID links hierarchical terms so
// include-children filters can widen to descendants.
type termRow struct {
	bun.BaseModel `bun:"table:terms,alias:t"`

	TermID   int64  `bun:"term_id,pk"       json:"term_id"`
	Taxonomy string `bun:"taxonomy,notnull" json:"taxonomy"`
	Slug     string `bun:"slug,notnull"     json:"slug"`
	Name     string `bun:"name"             json:"name"`
	URL      string `bun:"url"              json:"url,omitempty"`
	ParentID int64  `bun:"parent_id"        json:"parent_id,omitempty"`
}

func rowToItem(row *itemRow) *interfaces.Item {
	return &interfaces.Item{
		ID:          row.ID,
		Type:        row.Type,
		Status:      row.Status,
		Title:       row.Title,
		Excerpt:     row.Excerpt,
		Body:        row.Body,
		Permalink:   row.Permalink,
		AuthorID:    row.AuthorID,
		AuthorName:  row.AuthorName,
		AuthorURL:   row.AuthorURL,
		ParentID:    row.ParentID,
		MediaID:     row.MediaID,
		MimeType:    row.MimeType,
		Caption:     row.Caption,
		MenuOrder:   row.MenuOrder,
		Sticky:      row.Sticky,
		PublishedAt: row.PublishedAt,
	}
}

func rowFromItem(item *interfaces.Item) *itemRow {
	return &itemRow{
		ID:          item.ID,
		Type:        item.Type,
		Status:      item.Status,
		Title:       item.Title,
		Excerpt:     item.Excerpt,
		Body:        item.Body,
		Permalink:   item.Permalink,
		AuthorID:    item.AuthorID,
		AuthorName:  item.AuthorName,
		AuthorURL:   item.AuthorURL,
		ParentID:    item.ParentID,
		MediaID:     item.MediaID,
		MimeType:    item.MimeType,
		Caption:     item.Caption,
		MenuOrder:   item.MenuOrder,
		Sticky:      item.Sticky,
		PublishedAt: item.PublishedAt,
	}
}
