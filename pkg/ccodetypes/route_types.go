// Package ccodetypes defines routing data structures for ccode.
// A route is a "provider,model" string, optionally suffixed with a modifier such as ":online".
package ccodetypes

import "strings"

// DefaultLongContextThreshold is the token count above which the proxy switches to the longContext route.
const DefaultLongContextThreshold = 60000

// PlaceholderRoute is the default route of a proxy document that has not been configured yet.
const PlaceholderRoute = "provider,model"

// Route keys, using the proxy's field names.
const (
	RouteDefault     = "default"
	RouteBackground  = "background"
	RouteThink       = "think"
	RouteLongContext = "longContext"
	RouteWebSearch   = "webSearch"
)

// RouteModifierOnline marks a web-search capable model entry.
const RouteModifierOnline = "online"

var routeModifiers = map[string]bool{
	RouteModifierOnline: true,
}

// Route is a parsed "provider,model[:modifier]" string.
type Route struct {
	Provider string
	Model    string
	Modifier string
}

// ParseRoute splits a route string on its first comma. It returns ok=false when
// the string has no comma. A trailing ":<modifier>" is only split off for known modifiers.
func ParseRoute(s string) (Route, bool) {
	provider, model, found := strings.Cut(s, ",")
	if !found {
		return Route{}, false
	}

	r := Route{Provider: provider, Model: model}
	if i := strings.LastIndex(model, ":"); i >= 0 && routeModifiers[model[i+1:]] {
		r.Model = model[:i]
		r.Modifier = model[i+1:]
	}
	return r, true
}

// String renders the route back to its wire form.
func (r Route) String() string {
	s := r.Provider + "," + r.Model
	if r.Modifier != "" {
		s += ":" + r.Modifier
	}
	return s
}

// RouteProvider returns the provider segment of a route string: everything before the first comma.
func RouteProvider(route string) string {
	provider, _, _ := strings.Cut(route, ",")
	return provider
}

// RouteSet is the proxy's Router object.
type RouteSet struct {
	// Default handles every request not matched by a specialised route; always required
	Default string `json:"default"`

	// Background handles background/low-priority tasks
	Background string `json:"background,omitempty"`

	// Think handles reasoning-heavy requests
	Think string `json:"think,omitempty"`

	// LongContext handles requests above LongContextThreshold tokens
	LongContext string `json:"longContext,omitempty"`

	// LongContextThreshold is nil when the proxy default applies
	LongContextThreshold *int `json:"longContextThreshold,omitempty"`

	// WebSearch handles web-search requests; usually carries the ":online" modifier
	WebSearch string `json:"webSearch,omitempty"`
}

// NewRouteSet creates a route set with the given default route and the standard long-context threshold.
func NewRouteSet(defaultRoute string) RouteSet {
	threshold := DefaultLongContextThreshold
	return RouteSet{
		Default:              defaultRoute,
		LongContextThreshold: &threshold,
	}
}

// NamedRoute pairs a route key with its value.
type NamedRoute struct {
	Key   string
	Value string
}

// Routes returns every present route in a fixed order, default first.
// Blank optional routes are treated as absent.
func (rs RouteSet) Routes() []NamedRoute {
	routes := []NamedRoute{{Key: RouteDefault, Value: rs.Default}}
	for _, r := range rs.OptionalRoutes() {
		if strings.TrimSpace(r.Value) != "" {
			routes = append(routes, r)
		}
	}
	return routes
}

// OptionalRoutes returns every optional route slot, including blank ones.
func (rs RouteSet) OptionalRoutes() []NamedRoute {
	return []NamedRoute{
		{Key: RouteBackground, Value: rs.Background},
		{Key: RouteThink, Value: rs.Think},
		{Key: RouteLongContext, Value: rs.LongContext},
		{Key: RouteWebSearch, Value: rs.WebSearch},
	}
}

// Get returns the route stored under key.
func (rs RouteSet) Get(key string) (string, bool) {
	switch key {
	case RouteDefault:
		return rs.Default, true
	case RouteBackground:
		return rs.Background, true
	case RouteThink:
		return rs.Think, true
	case RouteLongContext:
		return rs.LongContext, true
	case RouteWebSearch:
		return rs.WebSearch, true
	}
	return "", false
}

// Set stores value under key. It returns false for unknown keys.
func (rs *RouteSet) Set(key, value string) bool {
	switch key {
	case RouteDefault:
		rs.Default = value
	case RouteBackground:
		rs.Background = value
	case RouteThink:
		rs.Think = value
	case RouteLongContext:
		rs.LongContext = value
	case RouteWebSearch:
		rs.WebSearch = value
	default:
		return false
	}
	return true
}

// HasDefault reports whether the default route is set to something other than the placeholder.
func (rs RouteSet) HasDefault() bool {
	route := strings.TrimSpace(rs.Default)
	return route != "" && route != PlaceholderRoute
}

// Threshold returns the effective long-context threshold.
func (rs RouteSet) Threshold() int {
	if rs.LongContextThreshold == nil {
		return DefaultLongContextThreshold
	}
	return *rs.LongContextThreshold
}
