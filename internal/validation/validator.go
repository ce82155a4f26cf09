// Package validation checks the structural and cross-document invariants of
// ccode's profile store and proxy configuration. Every function is pure: it
// either returns nil or a *ccodetypes.Error of kind ErrInvalidConfig naming
// the offending field.
package validation

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"ccode/pkg/ccodetypes"
)

// ValidateProvider checks a single provider: name, URL scheme, kind-specific URL shape and models.
func ValidateProvider(p ccodetypes.Provider) error {
	if strings.TrimSpace(p.Name) == "" {
		return ccodetypes.InvalidConfig("name", "provider name must not be empty")
	}

	if err := validateURL("api_base_url", p.APIBaseURL); err != nil {
		return err
	}

	if p.Kind != "" {
		behavior, ok := ccodetypes.LookupProviderKind(p.Kind)
		if !ok {
			return ccodetypes.InvalidConfig("provider_type", fmt.Sprintf("unknown provider type '%s'", p.Kind))
		}
		if !behavior.CheckURL(p.APIBaseURL) {
			return ccodetypes.InvalidConfig("api_base_url",
				fmt.Sprintf("%s API URL must contain '%s'", p.Kind, behavior.URLRequirement))
		}
	}

	if len(p.Models) == 0 {
		return ccodetypes.InvalidConfig("models", "model list must not be empty")
	}
	for i, m := range p.Models {
		if strings.TrimSpace(m) == "" {
			return ccodetypes.InvalidConfig(fmt.Sprintf("models[%d]", i), "model name must not be empty")
		}
	}
	return nil
}

// ValidateProviders validates every provider and enforces unique names.
func ValidateProviders(providers []ccodetypes.Provider) error {
	seen := make(map[string]bool, len(providers))
	for _, p := range providers {
		if err := ValidateProvider(p); err != nil {
			return ccodetypes.WithSubject(err, "provider", p.Name)
		}
		if seen[p.Name] {
			return ccodetypes.InvalidConfig("Providers", fmt.Sprintf("duplicate provider name '%s'", p.Name))
		}
		seen[p.Name] = true
	}
	return nil
}

// ValidateRoute checks that value has the "provider,model" shape.
func ValidateRoute(key, value string) error {
	field := "Router." + key
	if strings.TrimSpace(value) == "" {
		return ccodetypes.InvalidConfig(field, "route must not be empty")
	}

	route, ok := ccodetypes.ParseRoute(value)
	if !ok {
		return ccodetypes.InvalidConfig(field, fmt.Sprintf("route '%s' must have the form 'provider,model'", value))
	}
	if strings.TrimSpace(route.Provider) == "" {
		return ccodetypes.InvalidConfig(field, fmt.Sprintf("route '%s' has an empty provider segment", value))
	}
	if strings.TrimSpace(route.Model) == "" {
		return ccodetypes.InvalidConfig(field, fmt.Sprintf("route '%s' has an empty model segment", value))
	}
	if strings.Contains(route.Model, ",") {
		return ccodetypes.InvalidConfig(field, fmt.Sprintf("route '%s' must contain exactly one comma", value))
	}
	return nil
}

// ValidateRouteSet requires a valid default route; optional routes are checked only when non-blank.
func ValidateRouteSet(rs ccodetypes.RouteSet) error {
	if err := ValidateRoute(ccodetypes.RouteDefault, rs.Default); err != nil {
		return err
	}

	for _, r := range rs.OptionalRoutes() {
		if strings.TrimSpace(r.Value) == "" {
			continue
		}
		if err := ValidateRoute(r.Key, r.Value); err != nil {
			return err
		}
	}

	if rs.LongContextThreshold != nil && *rs.LongContextThreshold <= 0 {
		return ccodetypes.InvalidConfig("Router.longContextThreshold", "threshold must be positive")
	}
	return nil
}

// ReferenceProblem is a route whose provider segment names no declared provider.
type ReferenceProblem struct {
	RouteKey string
	Route    string
	Provider string
}

// String renders the problem for display.
func (p ReferenceProblem) String() string {
	return fmt.Sprintf("route '%s' references unknown provider '%s'", p.RouteKey, p.Provider)
}

// Err converts the problem to an InvalidConfig error.
func (p ReferenceProblem) Err() error {
	return ccodetypes.InvalidConfig("Router."+p.RouteKey, p.String())
}

// CrossReferenceProblems returns every dangling provider reference in rs. It never stops early.
func CrossReferenceProblems(providers []ccodetypes.Provider, rs ccodetypes.RouteSet) []ReferenceProblem {
	names := make(map[string]bool, len(providers))
	for _, p := range providers {
		names[p.Name] = true
	}

	var problems []ReferenceProblem
	for _, r := range rs.Routes() {
		if strings.TrimSpace(r.Value) == "" {
			continue
		}
		provider := ccodetypes.RouteProvider(r.Value)
		if !names[provider] {
			problems = append(problems, ReferenceProblem{RouteKey: r.Key, Route: r.Value, Provider: provider})
		}
	}
	return problems
}

// ValidateCrossReferences rejects rs on the first dangling provider reference.
func ValidateCrossReferences(providers []ccodetypes.Provider, rs ccodetypes.RouteSet) error {
	if problems := CrossReferenceProblems(providers, rs); len(problems) > 0 {
		return problems[0].Err()
	}
	return nil
}

// ValidateProxyConfig is the write gate: providers, route set, then cross references, stopping at the first failure.
func ValidateProxyConfig(doc *ccodetypes.ProxyConfig) error {
	if err := ValidateProviders(doc.Providers); err != nil {
		return err
	}
	if err := ValidateRouteSet(doc.Router); err != nil {
		return err
	}
	return ValidateCrossReferences(doc.Providers, doc.Router)
}

// CollectProxyConfigProblems reports every problem in doc as one combined error.
// Use multierr.Errors on the result to enumerate them.
func CollectProxyConfigProblems(doc *ccodetypes.ProxyConfig) error {
	var err error
	seen := make(map[string]bool, len(doc.Providers))
	for _, p := range doc.Providers {
		if perr := ValidateProvider(p); perr != nil {
			err = multierr.Append(err, ccodetypes.WithSubject(perr, "provider", p.Name))
		}
		if seen[p.Name] {
			err = multierr.Append(err, ccodetypes.InvalidConfig("Providers", fmt.Sprintf("duplicate provider name '%s'", p.Name)))
		}
		seen[p.Name] = true
	}

	if rerr := ValidateRouteSet(doc.Router); rerr != nil {
		err = multierr.Append(err, rerr)
	}
	for _, problem := range CrossReferenceProblems(doc.Providers, doc.Router) {
		err = multierr.Append(err, problem.Err())
	}
	return err
}

// ValidateDirectProfile checks the auth token and base URL of a direct profile.
func ValidateDirectProfile(p ccodetypes.DirectProfile) error {
	if strings.TrimSpace(p.AuthToken) == "" {
		return ccodetypes.InvalidConfig("ANTHROPIC_AUTH_TOKEN", "auth token must not be empty")
	}
	return validateURL("ANTHROPIC_BASE_URL", p.BaseURL)
}

// ValidateRouterProfile checks the profile name and its route set.
func ValidateRouterProfile(p ccodetypes.RouterProfile) error {
	if strings.TrimSpace(p.Name) == "" {
		return ccodetypes.InvalidConfig("name", "router profile name must not be empty")
	}
	return ValidateRouteSet(p.RouteSet)
}

func validateURL(field, url string) error {
	if strings.TrimSpace(url) == "" {
		return ccodetypes.InvalidConfig(field, "URL must not be empty")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return ccodetypes.InvalidConfig(field, fmt.Sprintf("URL '%s' must start with 'http://' or 'https://'", url))
	}
	return nil
}
