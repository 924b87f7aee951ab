package di

import (
	"context"
	"database/sql"
	"strings"

	"github.com/goliatone/go-tiles/internal/cachegate"
	"github.com/goliatone/go-tiles/internal/engine"
	"github.com/goliatone/go-tiles/internal/httpapi"
	"github.com/goliatone/go-tiles/internal/logging"
	"github.com/goliatone/go-tiles/internal/logging/gologger"
	"github.com/goliatone/go-tiles/internal/pagination"
	"github.com/goliatone/go-tiles/internal/pattern"
	"github.com/goliatone/go-tiles/internal/render"
	"github.com/goliatone/go-tiles/internal/runtimeconfig"
	"github.com/goliatone/go-tiles/internal/store"
	"github.com/goliatone/go-tiles/pkg/interfaces"
	urlkit "github.com/goliatone/go-urlkit"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

// Container wires module dependencies from configuration plus optional
// overrides. Hosts usually construct it once at startup and hand the engine
// and HTTP API to their own wiring.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	repo           interfaces.ItemRepository
	cache          interfaces.CacheProvider
	scopes         interfaces.ScopeSelector
	media          interfaces.MediaResolver
	commerce       interfaces.CommerceProvider

	bunDB        *bun.DB
	routeManager *urlkit.RouteManager

	catalog  *pattern.Catalog
	renderer *render.Renderer
	gate     *cachegate.Gate
	engine   *engine.Engine
	api      *httpapi.API
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the configured logger provider.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithItemRepository overrides the storage-backed item repository.
func WithItemRepository(repo interfaces.ItemRepository) Option {
	return func(c *Container) {
		c.repo = repo
	}
}

// WithCacheProvider overrides the fragment cache backend.
func WithCacheProvider(cache interfaces.CacheProvider) Option {
	return func(c *Container) {
		c.cache = cache
	}
}

// WithScopeSelector wires multi-site scope switching.
func WithScopeSelector(scopes interfaces.ScopeSelector) Option {
	return func(c *Container) {
		c.scopes = scopes
	}
}

// WithMediaResolver wires host media lookups for tile images.
func WithMediaResolver(media interfaces.MediaResolver) Option {
	return func(c *Container) {
		c.media = media
	}
}

// WithCommerceProvider wires price and cart data for product tiles.
func WithCommerceProvider(commerce interfaces.CommerceProvider) Option {
	return func(c *Container) {
		c.commerce = commerce
	}
}

// WithBunDB supplies an existing bun handle instead of opening one from the
// configured DSN.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithPatternCatalog overrides the tile pattern catalog.
func WithPatternCatalog(catalog *pattern.Catalog) Option {
	return func(c *Container) {
		c.catalog = catalog
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}

	for _, opt := range opts {
		opt(c)
	}

	if err := c.configureLogging(); err != nil {
		return nil, err
	}
	if err := c.configureStorage(); err != nil {
		return nil, err
	}
	c.configureCache()
	c.configureRendering()
	c.configureEngine()

	return c, nil
}

func (c *Container) configureLogging() error {
	if c.loggerProvider != nil {
		return nil
	}
	if !c.Config.Features.Logger {
		return nil
	}

	logCfg := c.Config.Logging
	format := logCfg.Format
	if strings.EqualFold(strings.TrimSpace(logCfg.Provider), "console") && format == "" {
		format = "console"
	}

	provider, err := gologger.NewProvider(gologger.Config{
		Level:     logCfg.Level,
		Format:    format,
		AddSource: logCfg.AddSource,
		Focus:     logCfg.Focus,
	})
	if err != nil {
		return err
	}
	c.loggerProvider = provider
	return nil
}

func (c *Container) configureStorage() error {
	if c.repo != nil {
		return nil
	}

	provider := strings.ToLower(strings.TrimSpace(c.Config.Storage.Provider))
	if provider != "bun" && c.bunDB == nil {
		c.repo = store.NewMemoryStore()
		return nil
	}

	if c.bunDB == nil {
		sqldb, err := sql.Open("sqlite3", c.Config.Storage.DSN)
		if err != nil {
			return err
		}
		c.bunDB = bun.NewDB(sqldb, sqlitedialect.New())
	}

	bunStore := store.NewBunStore(c.bunDB, store.WithBunLogger(logging.StoreLogger(c.loggerProvider)))
	if err := bunStore.EnsureSchema(context.Background()); err != nil {
		return err
	}
	c.repo = bunStore
	return nil
}

func (c *Container) configureCache() {
	if !c.Config.Features.Cache || !c.Config.Cache.Enabled {
		return
	}

	if c.cache == nil {
		c.cache = cachegate.NewMemoryCache()
	}

	gateOpts := []cachegate.Option{
		cachegate.WithLogger(logging.CacheLogger(c.loggerProvider)),
		cachegate.WithKeyPrefix(c.Config.Cache.KeyPrefix),
		cachegate.WithTTL(c.Config.Cache.DefaultTTL),
		cachegate.WithAssetsVersion(c.Config.Rendering.AssetsVersion),
	}
	if c.scopes != nil {
		gateOpts = append(gateOpts, cachegate.WithScopeSelector(c.scopes))
	}
	c.gate = cachegate.New(c.cache, gateOpts...)
}

func (c *Container) configureRendering() {
	if c.catalog == nil {
		c.catalog = pattern.NewCatalog()
	}

	rendererOpts := []render.Option{
		render.WithLogger(logging.RenderLogger(c.loggerProvider)),
	}
	if c.media != nil {
		rendererOpts = append(rendererOpts, render.WithMediaResolver(c.media))
	}
	if c.commerce != nil && c.Config.Features.Commerce {
		rendererOpts = append(rendererOpts, render.WithCommerceProvider(c.commerce))
	}
	if !c.Config.Features.Markdown {
		rendererOpts = append(rendererOpts, render.WithBodyRenderer(render.PassthroughBody{}))
	}
	c.renderer = render.NewRenderer(c.catalog, rendererOpts...)
}

func (c *Container) configureEngine() {
	engineOpts := []engine.Option{
		engine.WithLogger(logging.QueryLogger(c.loggerProvider)),
	}
	if c.gate != nil {
		engineOpts = append(engineOpts, engine.WithCacheGate(c.gate))
	}
	if c.scopes != nil {
		engineOpts = append(engineOpts, engine.WithScopeSelector(c.scopes))
	}
	if factory := c.urlResolverFactory(); factory != nil {
		engineOpts = append(engineOpts, engine.WithURLResolverFactory(factory))
	}
	c.engine = engine.New(c.repo, c.renderer, engineOpts...)

	if c.Config.Features.AjaxPagination {
		c.api = httpapi.New(c.engine, httpapi.WithLogger(logging.HTTPLogger(c.loggerProvider)))
	}
}

func (c *Container) urlResolverFactory() func(baseURL string) pagination.URLResolver {
	navCfg := c.Config.Navigation

	if navCfg.RouteConfig != nil {
		manager := urlkit.NewRouteManager(navCfg.RouteConfig)
		c.routeManager = manager

		group := strings.TrimSpace(navCfg.URLKit.DefaultGroup)
		route := strings.TrimSpace(navCfg.URLKit.DefaultRoute)
		pageParam := strings.TrimSpace(navCfg.URLKit.PageParam)

		return func(baseURL string) pagination.URLResolver {
			return pagination.NewRouteResolver(pagination.RouteResolverOptions{
				Manager:   manager,
				Group:     group,
				Route:     route,
				PageParam: pageParam,
			})
		}
	}

	pageParam := strings.TrimSpace(navCfg.PageParam)
	if pageParam == "" {
		return nil
	}
	return func(baseURL string) pagination.URLResolver {
		return pagination.QueryResolver{Base: baseURL, Param: pageParam}
	}
}

// Engine returns the configured render engine.
func (c *Container) Engine() *engine.Engine {
	return c.engine
}

// API returns the async pagination HTTP API, nil when the feature is off.
func (c *Container) API() *httpapi.API {
	return c.api
}

// Renderer exposes the tile renderer, mainly so hosts can register custom
// display handlers.
func (c *Container) Renderer() *render.Renderer {
	return c.renderer
}

// ItemRepository exposes the configured item repository.
func (c *Container) ItemRepository() interfaces.ItemRepository {
	return c.repo
}

// CacheProvider exposes the configured fragment cache backend.
func (c *Container) CacheProvider() interfaces.CacheProvider {
	return c.cache
}

// LoggerProvider exposes the configured logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// RouteManager exposes the go-urlkit manager when route based pagination is
// configured.
func (c *Container) RouteManager() *urlkit.RouteManager {
	return c.routeManager
}

// BunDB exposes the bun handle when the bun storage provider is active.
func (c *Container) BunDB() *bun.DB {
	return c.bunDB
}
