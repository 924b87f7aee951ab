package store

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-tiles/pkg/interfaces"
)

func newTestStore(t *testing.T) *BunStore {
	t.Helper()
	sqldb, err := sql.Open("sqlite3", "file:"+t.Name()+"?mode=memory&cache=shared&_fk=1")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	s := NewBunStore(db)
	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return s
}

func seedBunStore(t *testing.T, s *BunStore) {
	t.Helper()
	ctx := context.Background()
	for _, item := range seedItems() {
		if err := s.SaveItem(ctx, item); err != nil {
			t.Fatalf("SaveItem(%d) error = %v", item.ID, err)
		}
	}
}

func bunFetchIDs(t *testing.T, s *BunStore, spec *interfaces.SelectionSpec) []int64 {
	t.Helper()
	items, err := s.Fetch(context.Background(), spec)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestBunStoreFetchFiltersAndSorts(t *testing.T) {
	s := newTestStore(t)
	seedBunStore(t, s)

	got := bunFetchIDs(t, s, &interfaces.SelectionSpec{
		Types:    []string{"post"},
		Statuses: []string{"publish"},
		Sort:     interfaces.SortSpec{Key: interfaces.SortDate, Desc: true},
	})
	assertIDs(t, got, 5, 2, 1)

	byTitle := bunFetchIDs(t, s, &interfaces.SelectionSpec{
		Statuses: []string{"publish"},
		Sort:     interfaces.SortSpec{Key: interfaces.SortTitle},
	})
	assertIDs(t, byTitle, 4, 1, 2, 5)
}

func TestBunStoreFetchAttachesTermsAndMeta(t *testing.T) {
	s := newTestStore(t)
	seedBunStore(t, s)

	items, err := s.Fetch(context.Background(), &interfaces.SelectionSpec{
		IncludeIDs: []int64{2},
	})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected one item, got %d", len(items))
	}
	item := items[0]
	if len(item.Terms) != 1 || item.Terms[0].Slug != "engineering" {
		t.Fatalf("expected engineering term attached, got %+v", item.Terms)
	}
	if item.Meta["views"] != "250" {
		t.Fatalf("expected views meta attached, got %+v", item.Meta)
	}
}

func TestBunStoreTaxonomyFilters(t *testing.T) {
	s := newTestStore(t)
	seedBunStore(t, s)

	got := bunFetchIDs(t, s, &interfaces.SelectionSpec{
		Statuses: []string{"publish"},
		TaxonomyFilters: []interfaces.TaxonomyFilter{
			{Taxonomy: "category", Field: interfaces.TermFieldSlug, Terms: []string{"news", "backend"}},
		},
		Sort: interfaces.SortSpec{Key: interfaces.SortID},
	})
	assertIDs(t, got, 1, 5)

	excluded := bunFetchIDs(t, s, &interfaces.SelectionSpec{
		Types:    []string{"post"},
		Statuses: []string{"publish"},
		TaxonomyFilters: []interfaces.TaxonomyFilter{
			{Taxonomy: "category", Field: interfaces.TermFieldSlug, Terms: []string{"news"}, Exclude: true},
		},
		Sort: interfaces.SortSpec{Key: interfaces.SortID},
	})
	assertIDs(t, excluded, 2, 5)

	byID := bunFetchIDs(t, s, &interfaces.SelectionSpec{
		Statuses: []string{"publish"},
		TaxonomyFilters: []interfaces.TaxonomyFilter{
			{Taxonomy: "category", Field: interfaces.TermFieldID, Terms: []string{"101"}},
		},
		Sort: interfaces.SortSpec{Key: interfaces.SortID},
	})
	assertIDs(t, byID, 2)
}

func TestBunStoreIncludeChildrenExpandsViaDictionary(t *testing.T) {
	s := newTestStore(t)
	seedBunStore(t, s)
	ctx := context.Background()

	if err := s.SaveTerm(ctx, "category", 101, "engineering", "Engineering", "", 0); err != nil {
		t.Fatalf("SaveTerm() error = %v", err)
	}
	if err := s.SaveTerm(ctx, "category", 102, "backend", "Backend", "", 101); err != nil {
		t.Fatalf("SaveTerm() error = %v", err)
	}

	got := bunFetchIDs(t, s, &interfaces.SelectionSpec{
		Statuses: []string{"publish"},
		TaxonomyFilters: []interfaces.TaxonomyFilter{
			{Taxonomy: "category", Field: interfaces.TermFieldSlug, Terms: []string{"engineering"}, IncludeChildren: true},
		},
		Sort: interfaces.SortSpec{Key: interfaces.SortID},
	})
	assertIDs(t, got, 2, 5)
}

func TestBunStoreSearchAndWindow(t *testing.T) {
	s := newTestStore(t)
	seedBunStore(t, s)

	found := bunFetchIDs(t, s, &interfaces.SelectionSpec{
		Statuses: []string{"publish"},
		Search:   "ROADMAP",
		Sort:     interfaces.SortSpec{Key: interfaces.SortDate},
	})
	assertIDs(t, found, 2)

	paged := bunFetchIDs(t, s, &interfaces.SelectionSpec{
		Statuses: []string{"publish"},
		Sort:     interfaces.SortSpec{Key: interfaces.SortID},
		PerPage:  2,
		Page:     2,
	})
	assertIDs(t, paged, 4, 5)
}

func TestBunStoreMetaSort(t *testing.T) {
	s := newTestStore(t)
	seedBunStore(t, s)

	got := bunFetchIDs(t, s, &interfaces.SelectionSpec{
		IncludeIDs: []int64{2, 4},
		Sort:       interfaces.SortSpec{Key: interfaces.SortMetaValueNum, MetaKey: "views", Desc: true},
	})
	assertIDs(t, got, 2, 4)
}

func TestBunStoreCountIgnoresWindow(t *testing.T) {
	s := newTestStore(t)
	seedBunStore(t, s)

	total, err := s.Count(context.Background(), &interfaces.SelectionSpec{
		Statuses: []string{"publish"},
		PerPage:  1,
		Page:     2,
	})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if total != 4 {
		t.Fatalf("expected 4 published items, got %d", total)
	}
}

func TestBunStoreStickyIDs(t *testing.T) {
	s := newTestStore(t)
	seedBunStore(t, s)
	assertIDs(t, s.StickyIDs(context.Background()), 5)
}
