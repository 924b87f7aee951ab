package cachegate

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/goliatone/go-tiles/internal/logging"
	"github.com/goliatone/go-tiles/pkg/interfaces"
)

// DefaultKeyPrefix namespaces gate entries inside a shared cache backend.
const DefaultKeyPrefix = "tiles-cache-"

// DefaultTTL matches the one-month shelf life of rendered sections.
const DefaultTTL = 30 * 24 * time.Hour

// CachedMarkerClass is appended to the wrapper class of preview renders so
// editors can tell a warm entry exists without the gate ever serving one.
const CachedMarkerClass = "lps-cached"

const wrapperClass = "lps-top-section-wrap"

// Gate memoizes rendered section markup keyed by the selection that produced
// it. Preview renders bypass storage entirely: they are computed fresh every
// time and only tagged with CachedMarkerClass.
type Gate struct {
	cache         interfaces.CacheProvider
	scopes        interfaces.ScopeSelector
	logger        interfaces.Logger
	prefix        string
	ttl           time.Duration
	assetsVersion string
}

type Option func(*Gate)

func WithScopeSelector(scopes interfaces.ScopeSelector) Option {
	return func(g *Gate) {
		if scopes != nil {
			g.scopes = scopes
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithKeyPrefix(prefix string) Option {
	return func(g *Gate) {
		if prefix != "" {
			g.prefix = prefix
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(g *Gate) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithAssetsVersion folds the release version into every key so deploys
// invalidate by construction instead of by purge.
func WithAssetsVersion(version string) Option {
	return func(g *Gate) {
		g.assetsVersion = version
	}
}

func New(cache interfaces.CacheProvider, opts ...Option) *Gate {
	g := &Gate{
		cache:  cache,
		logger: logging.NoOp(),
		prefix: DefaultKeyPrefix,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Key derives the cache key for a selection rendered under instanceID. Editor
// keys carry a distinct segment so preview lookups can never collide with
// stored visitor entries.
func (g *Gate) Key(spec *interfaces.SelectionSpec, instanceID string, editor bool) string {
	payload, err := json.Marshal(spec)
	if err != nil {
		payload = nil
	}
	sum := md5.Sum([]byte(g.assetsVersion + string(payload) + instanceID))
	key := g.prefix
	if editor {
		key += "editor-"
	}
	return key + hex.EncodeToString(sum[:])
}

// GetOrCompute returns the stored markup for key, or invokes compute and
// stores the result. Editor renders are never stored; the computed markup is
// returned with the cached marker folded into the wrapper class. Cache
// backend failures degrade to a fresh render.
func (g *Gate) GetOrCompute(ctx context.Context, key string, editor bool, compute func(ctx context.Context) (string, error)) (string, error) {
	if cached, err := g.cache.Get(ctx, key); err != nil {
		g.logger.Warn("cache read failed", "key", key, "error", err)
	} else if markup, ok := cached.(string); ok {
		return markup, nil
	}

	markup, err := compute(ctx)
	if err != nil {
		return "", err
	}

	if editor {
		return markEditorRender(markup), nil
	}
	if err := g.cache.Set(ctx, key, markup, g.ttl); err != nil {
		g.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return markup, nil
}

// Reset purges every gate entry in the current scope and, when a scope
// selector is configured, in every other known scope as well.
func (g *Gate) Reset(ctx context.Context) error {
	if err := g.cache.DeletePrefix(ctx, g.prefix); err != nil {
		return err
	}
	if g.scopes == nil {
		return nil
	}

	sites, err := g.scopes.Sites(ctx)
	if err != nil {
		return err
	}
	current := g.scopes.Current(ctx)
	for _, site := range sites {
		if site == current {
			continue
		}
		err := g.scopes.With(ctx, site, func(ctx context.Context) error {
			return g.cache.DeletePrefix(ctx, g.prefix)
		})
		if err != nil {
			g.logger.Warn("cache purge failed for scope", "site", site, "error", err)
		}
	}
	return nil
}

// markEditorRender tags the top wrapper so the editor UI can surface the
// cache state. Markup without the wrapper is returned unchanged.
func markEditorRender(markup string) string {
	idx := strings.Index(markup, wrapperClass)
	if idx < 0 {
		return markup
	}
	at := idx + len(wrapperClass)
	return markup[:at] + " " + CachedMarkerClass + markup[at:]
}
