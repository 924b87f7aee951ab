package tiles

import "github.com/goliatone/go-tiles/internal/runtimeconfig"

var (
	ErrCacheTTLInvalid         = runtimeconfig.ErrCacheTTLInvalid
	ErrPaginationRangeInvalid  = runtimeconfig.ErrPaginationRangeInvalid
	ErrPlaceholdersRequired    = runtimeconfig.ErrPlaceholdersRequired
	ErrShortTextLimitInvalid   = runtimeconfig.ErrShortTextLimitInvalid
	ErrStorageProviderUnknown  = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDSNRequired      = runtimeconfig.ErrStorageDSNRequired
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config               = runtimeconfig.Config
	RenderingConfig      = runtimeconfig.RenderingConfig
	TextConfig           = runtimeconfig.TextConfig
	CacheConfig          = runtimeconfig.CacheConfig
	PaginationConfig     = runtimeconfig.PaginationConfig
	NavigationConfig     = runtimeconfig.NavigationConfig
	URLKitResolverConfig = runtimeconfig.URLKitResolverConfig
	StorageConfig        = runtimeconfig.StorageConfig
	LoggingConfig        = runtimeconfig.LoggingConfig
	Features             = runtimeconfig.Features
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
