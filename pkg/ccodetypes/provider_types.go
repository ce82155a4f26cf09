// Package ccodetypes defines provider-related data structures for ccode.
// This file contains the Provider value object and the closed set of provider kinds.
package ccodetypes

import (
	"encoding/json"
	"strings"
)

// ProviderKind identifies the upstream flavour of a provider. The set is closed;
// every kind has exactly one entry in the kind table below.
type ProviderKind string

// Supported provider kinds. Serialized values match the proxy's provider_type field.
const (
	ProviderKindOpenAI     ProviderKind = "openai"
	ProviderKindOpenRouter ProviderKind = "openrouter"
	ProviderKindDeepSeek   ProviderKind = "deepseek"
	ProviderKindGemini     ProviderKind = "gemini"
	ProviderKindQwen       ProviderKind = "qwen"
	ProviderKindCustom     ProviderKind = "custom"
)

// Provider is one entry of the proxy's Providers array.
type Provider struct {
	// Name is the identifier referenced by routes; unique within a provider list
	Name string `json:"name"`

	// APIBaseURL is the full endpoint URL, must start with http:// or https://
	APIBaseURL string `json:"api_base_url"`

	// APIKey is passed through to the upstream unchanged
	APIKey string `json:"api_key"`

	// Models lists the upstream model identifiers in declaration order, never empty
	Models []string `json:"models"`

	// Transformer is an opaque request-shaping payload consumed by the proxy
	Transformer json.RawMessage `json:"transformer,omitempty"`

	// Kind selects the URL shape rule and transformer derivation. Empty for hand-written entries.
	Kind ProviderKind `json:"provider_type,omitempty"`
}

// NewProvider builds a provider of the given kind, falling back to the kind's
// default URL and models when they are empty, and derives its transformer.
func NewProvider(name, apiBaseURL, apiKey string, models []string, kind ProviderKind) Provider {
	behavior, ok := LookupProviderKind(kind)
	if ok {
		if strings.TrimSpace(apiBaseURL) == "" {
			apiBaseURL = behavior.URLTemplate
		}
		if len(models) == 0 {
			models = append([]string(nil), behavior.DefaultModels...)
		}
	}

	p := Provider{
		Name:       name,
		APIBaseURL: apiBaseURL,
		APIKey:     apiKey,
		Models:     models,
		Kind:       kind,
	}
	if ok {
		p.Transformer = behavior.DeriveTransformer(models)
	}
	return p
}

// HasModel reports whether the provider declares the given model.
func (p Provider) HasModel(model string) bool {
	for _, m := range p.Models {
		if m == model {
			return true
		}
	}
	return false
}

// ProviderKindBehavior is the rule record for one provider kind.
type ProviderKindBehavior struct {
	Kind          ProviderKind
	DefaultModels []string
	URLTemplate   string

	// URLRequirement is the path fragment the URL must contain; empty means no shape rule
	URLRequirement string

	// baseTransformer is the "use" list applied to every model, nil for no transformer
	baseTransformer []any

	// modelOverride returns an extra per-model directive, or nil when the model needs none
	modelOverride func(model string) []any
}

// CheckURL reports whether url satisfies the kind's shape rule.
func (b ProviderKindBehavior) CheckURL(url string) bool {
	return b.URLRequirement == "" || strings.Contains(url, b.URLRequirement)
}

// DeriveTransformer builds the transformer payload for the given models, or nil when the kind has none.
func (b ProviderKindBehavior) DeriveTransformer(models []string) json.RawMessage {
	if b.baseTransformer == nil {
		return nil
	}

	transformer := map[string]any{"use": b.baseTransformer}
	if b.modelOverride != nil {
		for _, model := range models {
			if use := b.modelOverride(model); use != nil {
				transformer[model] = map[string]any{"use": use}
			}
		}
	}

	raw, err := json.Marshal(transformer)
	if err != nil {
		return nil
	}
	return raw
}

const chatCompletionsPath = "/chat/completions"

var providerKinds = []ProviderKindBehavior{
	{
		Kind:           ProviderKindOpenAI,
		DefaultModels:  []string{"gpt-4o", "gpt-4o-mini", "gpt-3.5-turbo"},
		URLTemplate:    "https://api.openai.com/v1/chat/completions",
		URLRequirement: chatCompletionsPath,
	},
	{
		Kind:            ProviderKindOpenRouter,
		DefaultModels:   []string{"anthropic/claude-3.5-sonnet", "google/gemini-2.5-pro-preview", "anthropic/claude-sonnet-4"},
		URLTemplate:     "https://openrouter.ai/api/v1/chat/completions",
		URLRequirement:  chatCompletionsPath,
		baseTransformer: []any{"openrouter"},
	},
	{
		Kind:            ProviderKindDeepSeek,
		DefaultModels:   []string{"deepseek-chat", "deepseek-reasoner"},
		URLTemplate:     "https://api.deepseek.com/chat/completions",
		URLRequirement:  chatCompletionsPath,
		baseTransformer: []any{"deepseek"},
		modelOverride: func(model string) []any {
			if strings.Contains(model, "deepseek-chat") {
				return []any{"tooluse"}
			}
			return nil
		},
	},
	{
		Kind:            ProviderKindGemini,
		DefaultModels:   []string{"gemini-2.5-flash", "gemini-2.5-pro"},
		URLTemplate:     "https://generativelanguage.googleapis.com/v1beta/models/",
		URLRequirement:  "/v1beta/models/",
		baseTransformer: []any{"gemini"},
	},
	{
		Kind:           ProviderKindQwen,
		DefaultModels:  []string{"qwen3-coder-plus", "Qwen/Qwen3-Coder-480B-A35B-Instruct", "Qwen/Qwen3-235B-A22B-Thinking-2507"},
		URLTemplate:    "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions",
		URLRequirement: chatCompletionsPath,
		baseTransformer: []any{
			[]any{"maxtoken", map[string]any{"max_tokens": 65536}},
			"enhancetool",
		},
		modelOverride: func(model string) []any {
			if strings.Contains(model, "Thinking") || strings.Contains(model, "thinking") {
				return []any{"reasoning"}
			}
			return nil
		},
	},
	{
		Kind:          ProviderKindCustom,
		DefaultModels: []string{"custom-model"},
		URLTemplate:   "https://your-api-url/v1/chat/completions",
	},
}

// LookupProviderKind returns the behavior record for kind.
func LookupProviderKind(kind ProviderKind) (ProviderKindBehavior, bool) {
	for _, b := range providerKinds {
		if b.Kind == kind {
			return b, true
		}
	}
	return ProviderKindBehavior{}, false
}

// ProviderKinds returns every supported kind in display order.
func ProviderKinds() []ProviderKind {
	kinds := make([]ProviderKind, len(providerKinds))
	for i, b := range providerKinds {
		kinds[i] = b.Kind
	}
	return kinds
}

// ParseProviderKind converts a user-supplied string to a known kind.
func ParseProviderKind(s string) (ProviderKind, error) {
	kind := ProviderKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := LookupProviderKind(kind); !ok {
		return "", InvalidConfig("provider_type", "unknown provider type '"+s+"'")
	}
	return kind, nil
}
