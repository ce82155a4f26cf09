package ccodetypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Defaults(t *testing.T) {
	p := NewProvider("ds", "", "sk-1", nil, ProviderKindDeepSeek)

	assert.Equal(t, "ds", p.Name)
	assert.Equal(t, "https://api.deepseek.com/chat/completions", p.APIBaseURL)
	assert.Equal(t, []string{"deepseek-chat", "deepseek-reasoner"}, p.Models)
	assert.Equal(t, ProviderKindDeepSeek, p.Kind)
	assert.JSONEq(t, `{"use":["deepseek"],"deepseek-chat":{"use":["tooluse"]}}`, string(p.Transformer))
}

func TestNewProvider_DefaultModelsAreCopied(t *testing.T) {
	p := NewProvider("oa", "", "k", nil, ProviderKindOpenAI)
	p.Models[0] = "changed"

	behavior, ok := LookupProviderKind(ProviderKindOpenAI)
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", behavior.DefaultModels[0])
}

func TestDeriveTransformer(t *testing.T) {
	tests := []struct {
		name     string
		kind     ProviderKind
		models   []string
		expected string
	}{
		{
			name:     "openai has no transformer",
			kind:     ProviderKindOpenAI,
			models:   []string{"gpt-4o"},
			expected: "",
		},
		{
			name:     "custom has no transformer",
			kind:     ProviderKindCustom,
			models:   []string{"m"},
			expected: "",
		},
		{
			name:     "openrouter base only",
			kind:     ProviderKindOpenRouter,
			models:   []string{"anthropic/claude-sonnet-4"},
			expected: `{"use":["openrouter"]}`,
		},
		{
			name:     "gemini base only",
			kind:     ProviderKindGemini,
			models:   []string{"gemini-2.5-pro"},
			expected: `{"use":["gemini"]}`,
		},
		{
			name:     "deepseek reasoner gets no override",
			kind:     ProviderKindDeepSeek,
			models:   []string{"deepseek-reasoner"},
			expected: `{"use":["deepseek"]}`,
		},
		{
			name:     "qwen thinking model gets reasoning",
			kind:     ProviderKindQwen,
			models:   []string{"qwen3-coder-plus", "Qwen/Qwen3-235B-A22B-Thinking-2507"},
			expected: `{"use":[["maxtoken",{"max_tokens":65536}],"enhancetool"],"Qwen/Qwen3-235B-A22B-Thinking-2507":{"use":["reasoning"]}}`,
		},
		{
			name:     "qwen lowercase thinking",
			kind:     ProviderKindQwen,
			models:   []string{"qwen-thinking"},
			expected: `{"use":[["maxtoken",{"max_tokens":65536}],"enhancetool"],"qwen-thinking":{"use":["reasoning"]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			behavior, ok := LookupProviderKind(tt.kind)
			require.True(t, ok)

			raw := behavior.DeriveTransformer(tt.models)
			if tt.expected == "" {
				assert.Nil(t, raw)
				return
			}
			assert.JSONEq(t, tt.expected, string(raw))
		})
	}
}

func TestCheckURL(t *testing.T) {
	tests := []struct {
		name     string
		kind     ProviderKind
		url      string
		expected bool
	}{
		{name: "openai chat completions", kind: ProviderKindOpenAI, url: "https://api.openai.com/v1/chat/completions", expected: true},
		{name: "openai missing path", kind: ProviderKindOpenAI, url: "https://api.openai.com/v1", expected: false},
		{name: "gemini models path", kind: ProviderKindGemini, url: "https://generativelanguage.googleapis.com/v1beta/models/", expected: true},
		{name: "gemini chat path rejected", kind: ProviderKindGemini, url: "https://example.com/chat/completions", expected: false},
		{name: "custom accepts anything", kind: ProviderKindCustom, url: "http://localhost:8080", expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			behavior, ok := LookupProviderKind(tt.kind)
			require.True(t, ok)
			assert.Equal(t, tt.expected, behavior.CheckURL(tt.url))
		})
	}
}

func TestParseProviderKind(t *testing.T) {
	kind, err := ParseProviderKind(" Gemini ")
	require.NoError(t, err)
	assert.Equal(t, ProviderKindGemini, kind)

	_, err = ParseProviderKind("bedrock")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestProviderKinds(t *testing.T) {
	kinds := ProviderKinds()
	assert.Equal(t, []ProviderKind{
		ProviderKindOpenAI, ProviderKindOpenRouter, ProviderKindDeepSeek,
		ProviderKindGemini, ProviderKindQwen, ProviderKindCustom,
	}, kinds)
}

func TestProvider_HasModel(t *testing.T) {
	p := Provider{Models: []string{"a", "b"}}
	assert.True(t, p.HasModel("b"))
	assert.False(t, p.HasModel("c"))
}
