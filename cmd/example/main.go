package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	tiles "github.com/goliatone/go-tiles"
	"github.com/goliatone/go-tiles/internal/di"
	"github.com/goliatone/go-tiles/internal/store"
	"github.com/goliatone/go-tiles/pkg/interfaces"
)

func main() {
	ctx := context.Background()

	cfg := tiles.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Features.AjaxPagination = true
	cfg.Logging.Provider = "console"
	cfg.Logging.Level = "debug"
	cfg.Rendering.AssetsVersion = "12.5"

	repo := store.NewMemoryStore(seedItems()...)

	module, err := tiles.New(cfg, di.WithItemRepository(repo))
	if err != nil {
		log.Fatalf("initialise tiles: %v", err)
	}

	state := tiles.NewPageState()
	out, err := module.Engine().RenderWith(ctx, state, tiles.Invocation{
		Args: map[string]string{
			"display":   "title,date,excerpt",
			"css":       "two-columns",
			"perpage":   "2",
			"showpages": "1",
		},
		BaseURL: "http://localhost:8080/",
	})
	if err != nil {
		log.Fatalf("render section: %v", err)
	}
	fmt.Println(out)

	if len(os.Args) > 1 && os.Args[1] == "serve" {
		mux := http.NewServeMux()
		module.API().Register(mux)
		log.Println("listening on :8080")
		log.Fatal(http.ListenAndServe(":8080", mux))
	}
}

func seedItems() []*interfaces.Item {
	published := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	items := []*interfaces.Item{}
	titles := []string{
		"Shipping the spring release",
		"Scaling the ingest pipeline",
		"Postmortem culture at scale",
		"Designing for slow networks",
		"A field guide to feature flags",
	}
	for i, title := range titles {
		id := int64(i + 1)
		items = append(items, &interfaces.Item{
			ID:          id,
			Type:        "post",
			Status:      "publish",
			Title:       title,
			Excerpt:     "A short teaser for " + title + ".",
			Permalink:   fmt.Sprintf("http://localhost:8080/posts/%d", id),
			AuthorName:  "Sam Editor",
			PublishedAt: published.Add(time.Duration(i) * 24 * time.Hour),
			Terms: []interfaces.TermRef{
				{ID: 10, Taxonomy: "category", Slug: "engineering", Name: "Engineering"},
			},
		})
	}
	return items
}
