package pagination

import (
	"fmt"
	"strconv"
	"strings"

	urlkit "github.com/goliatone/go-urlkit"
)

// QueryResolver appends the page number as a query parameter on a base URL.
// This is the fallback when no route configuration is present.
type QueryResolver struct {
	Base  string
	Param string
}

// PageURL returns the base URL for page 1 and a parameterized URL otherwise.
func (q QueryResolver) PageURL(page int) string {
	if page <= 1 {
		return q.Base
	}
	param := q.Param
	if param == "" {
		param = "page"
	}
	sep := "?"
	if strings.Contains(q.Base, "?") {
		sep = "&"
	}
	return q.Base + sep + param + "=" + strconv.Itoa(page)
}

// RouteResolverOptions configures the go-urlkit backed page URL resolver.
type RouteResolverOptions struct {
	Manager   *urlkit.RouteManager
	Group     string
	Route     string
	PageParam string
	Params    map[string]any
}

// RouteResolver builds page URLs through a go-urlkit route manager. Failures
// degrade to an empty URL so pagination controls render without an href.
type RouteResolver struct {
	manager   *urlkit.RouteManager
	group     string
	route     string
	pageParam string
	params    map[string]any
}

// NewRouteResolver constructs a route backed resolver.
func NewRouteResolver(opts RouteResolverOptions) *RouteResolver {
	if opts.PageParam == "" {
		opts.PageParam = "page"
	}
	return &RouteResolver{
		manager:   opts.Manager,
		group:     strings.TrimSpace(opts.Group),
		route:     strings.TrimSpace(opts.Route),
		pageParam: opts.PageParam,
		params:    opts.Params,
	}
}

// PageURL implements URLResolver.
func (r *RouteResolver) PageURL(page int) string {
	if r == nil || r.manager == nil || r.group == "" || r.route == "" {
		return ""
	}
	url, err := r.build(page)
	if err != nil {
		return ""
	}
	return url
}

func (r *RouteResolver) build(page int) (url string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pagination: urlkit build panic: %v", rec)
		}
	}()

	builder := r.manager.Group(r.group).Builder(r.route)
	for key, val := range r.params {
		builder.WithParam(key, val)
	}
	if page > 1 {
		builder.WithQuery(r.pageParam, strconv.Itoa(page))
	}
	return builder.Build()
}
