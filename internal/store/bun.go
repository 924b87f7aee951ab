package store

import (
	"context"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-tiles/internal/logging"
	"github.com/goliatone/go-tiles/pkg/interfaces"
)

const (
	itemQueryFailed  = "ITEM_QUERY_FAILED"
	itemInsertFailed = "ITEM_INSERT_FAILED"
)

// BunStore is the SQL-backed ItemRepository. It translates selection specs
// into a single filtered select plus two batched loads for term and meta
// attachments.
type BunStore struct {
	db     *bun.DB
	logger interfaces.Logger
}

var (
	_ interfaces.ItemRepository = (*BunStore)(nil)
	_ interfaces.StickyProvider = (*BunStore)(nil)
)

type BunOption func(*BunStore)

func WithBunLogger(logger interfaces.Logger) BunOption {
	return func(s *BunStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewBunStore(db *bun.DB, opts ...BunOption) *BunStore {
	s := &BunStore{
		db:     db,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates the content tables when they do not exist yet.
func (s *BunStore) EnsureSchema(ctx context.Context) error {
	models := []any{
		(*itemRow)(nil),
		(*itemTermRow)(nil),
		(*itemMetaRow)(nil),
		(*termRow)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return wrapStoreError(err, "schema creation failed")
		}
	}
	indexes := []struct {
		name    string
		model   any
		columns []string
	}{
		{"idx_items_type_status", (*itemRow)(nil), []string{"type", "status"}},
		{"idx_items_published_at", (*itemRow)(nil), []string{"published_at"}},
		{"idx_item_terms_item", (*itemTermRow)(nil), []string{"item_id"}},
		{"idx_item_terms_lookup", (*itemTermRow)(nil), []string{"taxonomy", "slug"}},
		{"idx_item_meta_item", (*itemMetaRow)(nil), []string{"item_id", "meta_key"}},
	}
	for _, idx := range indexes {
		query := s.db.NewCreateIndex().Model(idx.model).Index(idx.name).IfNotExists()
		for _, column := range idx.columns {
			query = query.Column(column)
		}
		if _, err := query.Exec(ctx); err != nil {
			return wrapStoreError(err, "index creation failed")
		}
	}
	return nil
}

func (s *BunStore) Fetch(ctx context.Context, spec *interfaces.SelectionSpec) ([]*interfaces.Item, error) {
	offset, limit := window(spec)
	if spec.Limit > 0 && limit == 0 {
		return nil, nil
	}

	var rows []*itemRow
	query := s.db.NewSelect().Model(&rows)
	if err := s.applyFilters(ctx, query, spec); err != nil {
		return nil, err
	}
	applySort(query, spec.Sort)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, wrapStoreError(err, "item selection failed")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	items := make([]*interfaces.Item, 0, len(rows))
	byID := make(map[int64]*interfaces.Item, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		item := rowToItem(row)
		items = append(items, item)
		byID[item.ID] = item
		ids = append(ids, item.ID)
	}
	if err := s.attachTerms(ctx, byID, ids); err != nil {
		return nil, err
	}
	if err := s.attachMeta(ctx, byID, ids); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *BunStore) Count(ctx context.Context, spec *interfaces.SelectionSpec) (int, error) {
	query := s.db.NewSelect().Model((*itemRow)(nil))
	if err := s.applyFilters(ctx, query, spec); err != nil {
		return 0, err
	}
	total, err := query.Count(ctx)
	if err != nil {
		return 0, wrapStoreError(err, "item count failed")
	}
	return total, nil
}

func (s *BunStore) StickyIDs(ctx context.Context) []int64 {
	var ids []int64
	err := s.db.NewSelect().
		Model((*itemRow)(nil)).
		Column("id").
		Where("sticky = ?", true).
		OrderExpr("id ASC").
		Scan(ctx, &ids)
	if err != nil {
		s.logger.Warn("sticky lookup failed", "error", err)
		return nil
	}
	return ids
}

// SaveItem inserts an item with its term and meta attachments. Existing rows
// with the same id are replaced.
func (s *BunStore) SaveItem(ctx context.Context, item *interfaces.Item) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := rowFromItem(item)
		if item.ID != 0 {
			if _, err := tx.NewDelete().Model((*itemRow)(nil)).Where("id = ?", item.ID).Exec(ctx); err != nil {
				return wrapInsertError(err)
			}
		}
		if _, err := tx.NewInsert().Model(row).Exec(ctx); err != nil {
			return wrapInsertError(err)
		}
		if item.ID == 0 {
			item.ID = row.ID
		}
		if _, err := tx.NewDelete().Model((*itemTermRow)(nil)).Where("item_id = ?", item.ID).Exec(ctx); err != nil {
			return wrapInsertError(err)
		}
		if _, err := tx.NewDelete().Model((*itemMetaRow)(nil)).Where("item_id = ?", item.ID).Exec(ctx); err != nil {
			return wrapInsertError(err)
		}
		for position, term := range item.Terms {
			ref := &itemTermRow{
				ItemID:   item.ID,
				TermID:   term.ID,
				Taxonomy: term.Taxonomy,
				Slug:     term.Slug,
				Name:     term.Name,
				URL:      term.URL,
				Position: position,
			}
			if _, err := tx.NewInsert().Model(ref).Exec(ctx); err != nil {
				return wrapInsertError(err)
			}
		}
		for key, value := range item.Meta {
			meta := &itemMetaRow{ItemID: item.ID, Key: key, Value: value}
			if _, err := tx.NewInsert().Model(meta).Exec(ctx); err != nil {
				return wrapInsertError(err)
			}
		}
		return nil
	})
}

// SaveTerm records a taxonomy dictionary entry used for descendant expansion.
func (s *BunStore) SaveTerm(ctx context.Context, taxonomy string, id int64, slug, name, url string, parentID int64) error {
	row := &termRow{
		TermID:   id,
		Taxonomy: taxonomy,
		Slug:     slug,
		Name:     name,
		URL:      url,
		ParentID: parentID,
	}
	if _, err := s.db.NewDelete().Model((*termRow)(nil)).Where("term_id = ?", id).Exec(ctx); err != nil {
		return wrapInsertError(err)
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return wrapInsertError(err)
	}
	return nil
}

func (s *BunStore) applyFilters(ctx context.Context, query *bun.SelectQuery, spec *interfaces.SelectionSpec) error {
	if len(spec.IncludeIDs) > 0 {
		query.Where("it.id IN (?)", bun.In(spec.IncludeIDs))
	}
	if len(spec.ExcludeIDs) > 0 {
		query.Where("it.id NOT IN (?)", bun.In(spec.ExcludeIDs))
	}
	if len(spec.Types) > 0 {
		query.Where("it.type IN (?)", bun.In(spec.Types))
	}
	if len(spec.Statuses) > 0 {
		query.Where("it.status IN (?)", bun.In(spec.Statuses))
	}
	if len(spec.AuthorsInclude) > 0 {
		query.Where("it.author_id IN (?)", bun.In(spec.AuthorsInclude))
	}
	if len(spec.AuthorsExclude) > 0 {
		query.Where("it.author_id NOT IN (?)", bun.In(spec.AuthorsExclude))
	}
	if len(spec.Parents) > 0 {
		query.Where("it.parent_id IN (?)", bun.In(spec.Parents))
	}
	if spec.Search != "" {
		needle := "%" + strings.ToLower(spec.Search) + "%"
		query.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("lower(it.title) LIKE ?", needle).
				WhereOr("lower(it.excerpt) LIKE ?", needle).
				WhereOr("lower(it.body) LIKE ?", needle)
		})
	}
	if rng := spec.DateRange; rng != nil {
		if !rng.After.IsZero() {
			query.Where("it.published_at >= ?", rng.After)
		}
		if !rng.Before.IsZero() {
			query.Where("it.published_at <= ?", rng.Before)
		}
	}
	for _, filter := range spec.TaxonomyFilters {
		if err := s.applyTaxonomyFilter(ctx, query, filter); err != nil {
			return err
		}
	}
	return nil
}

func (s *BunStore) applyTaxonomyFilter(ctx context.Context, query *bun.SelectQuery, filter interfaces.TaxonomyFilter) error {
	terms := filter.Terms
	if filter.IncludeChildren {
		expanded, err := s.expandTerms(ctx, filter.Taxonomy, filter.Field, terms)
		if err != nil {
			return err
		}
		terms = expanded
	}
	if len(terms) == 0 {
		if !filter.Exclude {
			query.Where("1 = 0")
		}
		return nil
	}

	operator := "EXISTS"
	if filter.Exclude {
		operator = "NOT EXISTS"
	}
	if filter.Field == interfaces.TermFieldID {
		ids := make([]int64, 0, len(terms))
		for _, term := range terms {
			id, err := strconv.ParseInt(term, 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		query.Where(
			operator+" (SELECT 1 FROM item_terms itt WHERE itt.item_id = it.id AND itt.taxonomy = ? AND itt.term_id IN (?))",
			filter.Taxonomy, bun.In(ids),
		)
		return nil
	}
	query.Where(
		operator+" (SELECT 1 FROM item_terms itt WHERE itt.item_id = it.id AND itt.taxonomy = ? AND itt.slug IN (?))",
		filter.Taxonomy, bun.In(terms),
	)
	return nil
}

// expandTerms widens a term list with every descendant recorded in the terms
// dictionary. Unknown terms pass through so direct assignments still match.
func (s *BunStore) expandTerms(ctx context.Context, taxonomy, field string, terms []string) ([]string, error) {
	var dictionary []*termRow
	err := s.db.NewSelect().Model(&dictionary).Where("taxonomy = ?", taxonomy).Scan(ctx)
	if err != nil {
		return nil, wrapStoreError(err, "term expansion failed")
	}

	key := func(row *termRow) string {
		if field == interfaces.TermFieldID {
			return strconv.FormatInt(row.TermID, 10)
		}
		return strings.ToLower(row.Slug)
	}
	children := make(map[string][]string)
	byID := make(map[int64]*termRow, len(dictionary))
	for _, row := range dictionary {
		byID[row.TermID] = row
	}
	for _, row := range dictionary {
		parent, ok := byID[row.ParentID]
		if !ok {
			continue
		}
		children[key(parent)] = append(children[key(parent)], key(row))
	}

	expanded := append([]string(nil), terms...)
	seen := make(map[string]bool, len(terms))
	for _, term := range terms {
		seen[strings.ToLower(term)] = true
	}
	for i := 0; i < len(expanded); i++ {
		for _, child := range children[strings.ToLower(expanded[i])] {
			if !seen[child] {
				seen[child] = true
				expanded = append(expanded, child)
			}
		}
	}
	return expanded, nil
}

func (s *BunStore) attachTerms(ctx context.Context, byID map[int64]*interfaces.Item, ids []int64) error {
	var refs []*itemTermRow
	err := s.db.NewSelect().
		Model(&refs).
		Where("item_id IN (?)", bun.In(ids)).
		OrderExpr("item_id ASC, position ASC").
		Scan(ctx)
	if err != nil {
		return wrapStoreError(err, "term attachment failed")
	}
	for _, ref := range refs {
		item := byID[ref.ItemID]
		if item == nil {
			continue
		}
		item.Terms = append(item.Terms, interfaces.TermRef{
			ID:       ref.TermID,
			Taxonomy: ref.Taxonomy,
			Slug:     ref.Slug,
			Name:     ref.Name,
			URL:      ref.URL,
		})
	}
	return nil
}

func (s *BunStore) attachMeta(ctx context.Context, byID map[int64]*interfaces.Item, ids []int64) error {
	var rows []*itemMetaRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("item_id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return wrapStoreError(err, "meta attachment failed")
	}
	for _, row := range rows {
		item := byID[row.ItemID]
		if item == nil {
			continue
		}
		if item.Meta == nil {
			item.Meta = make(map[string]string)
		}
		item.Meta[row.Key] = row.Value
	}
	return nil
}

func applySort(query *bun.SelectQuery, spec interfaces.SortSpec) {
	direction := "ASC"
	if spec.Desc {
		direction = "DESC"
	}
	switch spec.Key {
	case interfaces.SortTitle:
		query.OrderExpr("lower(it.title) "+direction).OrderExpr("it.id " + direction)
	case interfaces.SortID:
		query.OrderExpr("it.id " + direction)
	case interfaces.SortMenuOrder:
		query.OrderExpr("it.menu_order " + direction).OrderExpr("it.published_at ASC")
	case interfaces.SortRandom:
		query.OrderExpr("RANDOM()")
	case interfaces.SortMetaValue:
		query.OrderExpr(
			"(SELECT im.meta_value FROM item_meta im WHERE im.item_id = it.id AND im.meta_key = ?) "+direction,
			spec.MetaKey,
		).OrderExpr("it.id " + direction)
	case interfaces.SortMetaValueNum:
		query.OrderExpr(
			"CAST((SELECT im.meta_value FROM item_meta im WHERE im.item_id = it.id AND im.meta_key = ?) AS NUMERIC) "+direction,
			spec.MetaKey,
		).OrderExpr("it.id " + direction)
	default:
		// date, relevance and unknown keys order by publish date.
		query.OrderExpr("it.published_at "+direction).OrderExpr("it.id " + direction)
	}
}

func wrapStoreError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, msg).
		WithTextCode(itemQueryFailed)
}

func wrapInsertError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "item write failed").
		WithTextCode(itemInsertFailed)
}
