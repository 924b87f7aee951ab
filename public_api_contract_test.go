package tiles_test

import (
	"sort"
	"testing"

	tiles "github.com/goliatone/go-tiles"
)

var _ func(*tiles.Module) *tiles.Engine = (*tiles.Module).Engine
var _ func(*tiles.Module) *tiles.Renderer = (*tiles.Module).Renderer
var _ func(*tiles.Module) *tiles.API = (*tiles.Module).API
var _ func(*tiles.Module) tiles.ItemRepository = (*tiles.Module).Repository

var _ tiles.ItemRepository = (tiles.ItemRepository)(nil)
var _ tiles.StickyProvider = (tiles.StickyProvider)(nil)
var _ tiles.CacheProvider = (tiles.CacheProvider)(nil)
var _ tiles.MediaResolver = (tiles.MediaResolver)(nil)
var _ tiles.CommerceProvider = (tiles.CommerceProvider)(nil)
var _ tiles.ScopeSelector = (tiles.ScopeSelector)(nil)
var _ tiles.LoggerProvider = (tiles.LoggerProvider)(nil)

func TestModuleAccessorsSurviveNilReceivers(t *testing.T) {
	t.Parallel()

	var module *tiles.Module
	if api := module.API(); api != nil {
		t.Fatal("expected nil API from a nil module")
	}
}

func TestSortKeysAreStableAndComplete(t *testing.T) {
	t.Parallel()

	keys := tiles.SortKeys()
	if !sort.StringsAreSorted(keys) {
		t.Fatalf("expected sorted keys, got %v", keys)
	}
	want := map[string]bool{"dateD": true, "menuA": true, "random": true, "metaValueNumD": true, "relevance": true}
	for _, key := range keys {
		delete(want, key)
	}
	if len(want) != 0 {
		t.Fatalf("missing sort keys %v in %v", want, keys)
	}
}
