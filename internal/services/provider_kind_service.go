package services

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"ccode/internal/data/embedded"
	"ccode/pkg/ccodetypes"
)

// maxRecommendations caps the suggestions returned for one route key.
const maxRecommendations = 3

// ProviderKindInfo combines the display metadata of a provider kind with its behaviour record.
type ProviderKindInfo struct {
	Kind        ccodetypes.ProviderKind `yaml:"kind"`
	DisplayName string                  `yaml:"display_name"`
	Hints       []string                `yaml:"hints"`

	Behavior ccodetypes.ProviderKindBehavior `yaml:"-"`
}

// RouteRecommendation is a suggested route value with a short reason.
type RouteRecommendation struct {
	Route  string
	Reason string
}

type providerKindCatalog struct {
	Kinds        []ProviderKindInfo           `yaml:"kinds"`
	RouteReasons map[string]map[string]string `yaml:"route_reasons"`
}

// ProviderKindService serves the embedded provider kind catalog and route recommendations.
type ProviderKindService struct {
	initialized bool
	catalog     providerKindCatalog
}

// NewProviderKindService creates a new ProviderKindService instance.
func NewProviderKindService() *ProviderKindService {
	return &ProviderKindService{}
}

// Name returns the service name "provider_kind" for registration.
func (p *ProviderKindService) Name() string {
	return "provider_kind"
}

// Initialize parses the embedded catalog and checks it covers every supported kind.
func (p *ProviderKindService) Initialize() error {
	var catalog providerKindCatalog
	if err := yaml.Unmarshal(embedded.ProviderKindsData, &catalog); err != nil {
		return fmt.Errorf("failed to parse provider kind catalog: %w", err)
	}

	seen := make(map[ccodetypes.ProviderKind]bool, len(catalog.Kinds))
	for i, info := range catalog.Kinds {
		behavior, ok := ccodetypes.LookupProviderKind(info.Kind)
		if !ok {
			return fmt.Errorf("provider kind catalog lists unknown kind '%s'", info.Kind)
		}
		if seen[info.Kind] {
			return fmt.Errorf("provider kind catalog lists '%s' twice", info.Kind)
		}
		seen[info.Kind] = true
		catalog.Kinds[i].Behavior = behavior
	}
	for _, kind := range ccodetypes.ProviderKinds() {
		if !seen[kind] {
			return fmt.Errorf("provider kind catalog is missing '%s'", kind)
		}
	}

	p.catalog = catalog
	p.initialized = true
	return nil
}

// Kinds returns every provider kind in catalog order.
func (p *ProviderKindService) Kinds() ([]ProviderKindInfo, error) {
	if !p.initialized {
		return nil, fmt.Errorf("provider kind service not initialized")
	}
	return append([]ProviderKindInfo(nil), p.catalog.Kinds...), nil
}

// Kind returns the catalog entry for kind.
func (p *ProviderKindService) Kind(kind ccodetypes.ProviderKind) (ProviderKindInfo, error) {
	if !p.initialized {
		return ProviderKindInfo{}, fmt.Errorf("provider kind service not initialized")
	}
	for _, info := range p.catalog.Kinds {
		if info.Kind == kind {
			return info, nil
		}
	}
	return ProviderKindInfo{}, ccodetypes.NotFound("provider kind", string(kind))
}

// Recommend suggests up to three routes for routeKey from providers that declare a kind.
// Providers without a kind are never recommended.
func (p *ProviderKindService) Recommend(routeKey string, providers []ccodetypes.Provider) ([]RouteRecommendation, error) {
	if !p.initialized {
		return nil, fmt.Errorf("provider kind service not initialized")
	}

	reasons := p.catalog.RouteReasons[routeKey]
	var recs []RouteRecommendation

	for _, provider := range providers {
		if provider.Kind == "" {
			continue
		}
		route, reasonKey, ok := recommendFor(routeKey, provider)
		if !ok {
			continue
		}
		recs = append(recs, RouteRecommendation{Route: route, Reason: reasons[reasonKey]})
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs, nil
}

// recommendFor picks the model of provider best suited to routeKey. reasonKey
// selects the catalog reason text.
func recommendFor(routeKey string, provider ccodetypes.Provider) (route string, reasonKey string, ok bool) {
	kind := string(provider.Kind)
	pick := func(model string, found bool) (string, string, bool) {
		if !found {
			return "", "", false
		}
		return provider.Name + "," + model, kind, true
	}

	switch routeKey {
	case ccodetypes.RouteBackground:
		switch provider.Kind {
		case ccodetypes.ProviderKindOpenAI:
			return pick(findModel(provider.Models, "gpt-3.5", "4o-mini"))
		case ccodetypes.ProviderKindDeepSeek:
			return pick(firstModel(provider.Models))
		}
	case ccodetypes.RouteThink:
		switch provider.Kind {
		case ccodetypes.ProviderKindDeepSeek:
			return pick(findModel(provider.Models, "reasoner"))
		case ccodetypes.ProviderKindQwen:
			return pick(findModel(provider.Models, "Thinking", "thinking"))
		case ccodetypes.ProviderKindOpenRouter:
			return pick(findModel(provider.Models, "claude", "o1"))
		}
	case ccodetypes.RouteLongContext:
		switch provider.Kind {
		case ccodetypes.ProviderKindQwen:
			return pick(firstModel(provider.Models))
		case ccodetypes.ProviderKindGemini:
			return pick(findModel(provider.Models, "pro"))
		case ccodetypes.ProviderKindOpenRouter:
			return pick(findModel(provider.Models, "claude"))
		}
	case ccodetypes.RouteWebSearch:
		model, found := firstModel(provider.Models)
		if !found {
			return "", "", false
		}
		if provider.Kind == ccodetypes.ProviderKindOpenRouter {
			return provider.Name + "," + model + ":" + ccodetypes.RouteModifierOnline, kind, true
		}
		return provider.Name + "," + model, "default", true
	}
	return "", "", false
}

func findModel(models []string, fragments ...string) (string, bool) {
	for _, m := range models {
		for _, f := range fragments {
			if strings.Contains(m, f) {
				return m, true
			}
		}
	}
	return "", false
}

func firstModel(models []string) (string, bool) {
	if len(models) == 0 {
		return "", false
	}
	return models[0], true
}
