package tiles

import (
	"github.com/goliatone/go-tiles/internal/di"
	"github.com/goliatone/go-tiles/internal/engine"
	"github.com/goliatone/go-tiles/internal/httpapi"
	"github.com/goliatone/go-tiles/internal/options"
	"github.com/goliatone/go-tiles/internal/render"
	"github.com/goliatone/go-tiles/internal/tracker"
	"github.com/goliatone/go-tiles/pkg/interfaces"
)

// Engine exports the render engine for consumers of the tiles package.
type Engine = engine.Engine

// Invocation exports the host environment for one render call.
type Invocation = engine.Invocation

// NavigateRequest exports the async page-change request payload.
type NavigateRequest = engine.NavigateRequest

// PageState exports the per-page render tracker.
type PageState = tracker.PageState

// Renderer exports the tile renderer so hosts can register custom displays.
type Renderer = render.Renderer

// CustomTileFunc exports the custom display handler signature.
type CustomTileFunc = render.CustomTileFunc

// API exports the async pagination HTTP surface.
type API = httpapi.API

// Item exports the selectable content item DTO.
type Item = interfaces.Item

// TermRef exports one taxonomy term assignment on an item.
type TermRef = interfaces.TermRef

// SelectionSpec exports the storage-facing selection contract.
type SelectionSpec = interfaces.SelectionSpec

// ItemRepository exports the storage contract items are fetched through.
type ItemRepository = interfaces.ItemRepository

// StickyProvider exports the optional sticky id lookup contract.
type StickyProvider = interfaces.StickyProvider

// CacheProvider exports the fragment cache backend contract.
type CacheProvider = interfaces.CacheProvider

// MediaResolver exports the host media lookup contract.
type MediaResolver = interfaces.MediaResolver

// CommerceProvider exports the price and cart data contract.
type CommerceProvider = interfaces.CommerceProvider

// ScopeSelector exports the multi-site scope switching contract.
type ScopeSelector = interfaces.ScopeSelector

// Logger exports the structured logging contract.
type Logger = interfaces.Logger

// LoggerProvider exports the named logger factory contract.
type LoggerProvider = interfaces.LoggerProvider

// NewPageState creates a fresh per-page tracker. One state spans every
// section rendered into a single host page.
func NewPageState() *PageState {
	return tracker.NewPageState()
}

// SortKeys returns the recognized orderby values, for host option UIs.
func SortKeys() []string {
	return options.SortKeys()
}

// Module represents the top level tiles runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a tiles module using the provided configuration and optional
// DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Engine returns the configured render engine.
func (m *Module) Engine() *Engine {
	return m.container.Engine()
}

// Renderer returns the configured tile renderer.
func (m *Module) Renderer() *Renderer {
	return m.container.Renderer()
}

// API returns the async pagination HTTP API, nil when the feature is off.
func (m *Module) API() *API {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.API()
}

// Repository returns the configured item repository.
func (m *Module) Repository() ItemRepository {
	return m.container.ItemRepository()
}
