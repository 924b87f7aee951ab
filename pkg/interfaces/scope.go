package interfaces

import "context"

// ScopeSelector switches the content scope (site/tenant) around a unit of
// work. With must restore the previous scope on every exit path, including
// panics and early returns inside fn; callers never pair switch/restore
// manually.
type ScopeSelector interface {
	Current(ctx context.Context) int64
	With(ctx context.Context, siteID int64, fn func(ctx context.Context) error) error

	// Sites lists the known scopes, used by bulk cache invalidation.
	Sites(ctx context.Context) ([]int64, error)
}
