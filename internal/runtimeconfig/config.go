package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	urlkit "github.com/goliatone/go-urlkit"
)

// ErrCacheTTLInvalid indicates a negative cache TTL.
var ErrCacheTTLInvalid = errors.New("tiles config: cache ttl must be zero or positive")

// ErrPaginationRangeInvalid ensures the numeric pager window stays usable.
var ErrPaginationRangeInvalid = errors.New("tiles config: pagination range must be positive")

// ErrPlaceholdersRequired ensures image fallback stays functional when enabled.
var ErrPlaceholdersRequired = errors.New("tiles config: placeholder rotation requires at least one placeholder URL")

var ErrShortTextLimitInvalid = errors.New("tiles config: short text limit must be positive")
var ErrStorageProviderUnknown = errors.New("tiles config: storage provider is invalid")
var ErrStorageDSNRequired = errors.New("tiles config: storage dsn is required for the bun provider")
var ErrLoggingProviderRequired = errors.New("tiles config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("tiles config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("tiles config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("tiles config: logging format is invalid")

// Config aggregates feature flags and adapter bindings for the tiles module.
// Fields intentionally use simple types so host applications can extend them later.
type Config struct {
	Enabled    bool
	Rendering  RenderingConfig
	Text       TextConfig
	Cache      CacheConfig
	Pagination PaginationConfig
	Navigation NavigationConfig
	Storage    StorageConfig
	Logging    LoggingConfig
	Features   Features
}

// RenderingConfig captures markup-level behaviour shared by every tile render.
type RenderingConfig struct {
	AssetsVersion   string
	DefaultTitleTag string
	ImageSize       string
	Placeholders    []string
	ExtraCSSClass   string
}

// TextConfig controls excerpt derivation for tile bodies.
type TextConfig struct {
	ShortTextLimit int
	Suffix         string
	ReadMoreLabel  string
}

// CacheConfig captures fragment cache behaviour.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
	KeyPrefix  string
}

// PaginationConfig controls the numeric pager window and labels.
type PaginationConfig struct {
	Range      int
	TotalLabel string
	MoreLabel  string
}

// NavigationConfig captures routing configuration for page URL resolution.
type NavigationConfig struct {
	RouteConfig *urlkit.Config
	URLKit      URLKitResolverConfig
	PageParam   string
}

// URLKitResolverConfig configures the go-urlkit based page link resolver.
type URLKitResolverConfig struct {
	DefaultGroup string
	DefaultRoute string
	PageParam    string
}

// StorageConfig lists identifiers for storage-related dependencies.
type StorageConfig struct {
	Provider string
	DSN      string
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// Features toggles module functionality.
type Features struct {
	Cache          bool
	Logger         bool
	Markdown       bool
	Commerce       bool
	AjaxPagination bool
}

// DefaultConfig returns opinionated defaults matching the reference behaviour.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Rendering: RenderingConfig{
			DefaultTitleTag: "h3",
			ImageSize:       "medium",
			Placeholders:    []string{},
		},
		Text: TextConfig{
			ShortTextLimit: 120,
			Suffix:         "...",
			ReadMoreLabel:  "Read more",
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: 30 * 24 * time.Hour,
			KeyPrefix:  "tiles-cache-",
		},
		Pagination: PaginationConfig{
			Range:      5,
			TotalLabel: "Total posts found: %d",
			MoreLabel:  "See more",
		},
		Navigation: NavigationConfig{
			PageParam: "page",
		},
		Storage: StorageConfig{
			Provider: "memory",
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
			Format:   "",
		},
		Features: Features{
			Cache: true,
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if cfg.Cache.Enabled && cfg.Cache.DefaultTTL < 0 {
		return ErrCacheTTLInvalid
	}
	if cfg.Pagination.Range <= 0 {
		return ErrPaginationRangeInvalid
	}
	if cfg.Text.ShortTextLimit <= 0 {
		return ErrShortTextLimitInvalid
	}
	provider := normalizeProvider(cfg.Storage.Provider)
	switch provider {
	case "", "memory":
	case "bun":
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, provider)
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedLoggingProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedLoggingProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
