package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	_ StyleProvider = (*LipglossStyleProvider)(nil)
	_ TextStyle     = lipglossTextStyle{}
	_ TextStyle     = prefixedStyle{}
)

// LipglossStyleProvider implements StyleProvider with lipgloss styles bound to
// one output. It reports itself unavailable when the output has no colour support.
type LipglossStyleProvider struct {
	renderer *lipgloss.Renderer
	styles   map[SemanticType]lipgloss.Style
}

// NewLipglossStyleProvider creates a provider for w, detecting its colour profile
// from the terminal and the NO_COLOR/CLICOLOR_FORCE environment.
func NewLipglossStyleProvider(w io.Writer) *LipglossStyleProvider {
	renderer := lipgloss.NewRenderer(w, termenv.WithColorCache(true))
	renderer.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
	return newLipglossStyleProvider(renderer)
}

// NewLipglossStyleProviderWithProfile creates a provider that renders with a fixed colour profile.
func NewLipglossStyleProviderWithProfile(w io.Writer, profile termenv.Profile) *LipglossStyleProvider {
	renderer := lipgloss.NewRenderer(w)
	renderer.SetColorProfile(profile)
	return newLipglossStyleProvider(renderer)
}

func newLipglossStyleProvider(r *lipgloss.Renderer) *LipglossStyleProvider {
	adaptive := func(light, dark string) lipgloss.AdaptiveColor {
		return lipgloss.AdaptiveColor{Light: light, Dark: dark}
	}

	return &LipglossStyleProvider{
		renderer: r,
		styles: map[SemanticType]lipgloss.Style{
			SemanticPlain:     r.NewStyle(),
			SemanticInfo:      r.NewStyle().Foreground(adaptive("#0066CC", "#66B3FF")),
			SemanticSuccess:   r.NewStyle().Foreground(adaptive("#008800", "#5FD75F")).SetString("✓"),
			SemanticWarning:   r.NewStyle().Foreground(adaptive("#B8860B", "#FFD75F")).SetString("⚠"),
			SemanticError:     r.NewStyle().Foreground(adaptive("#CC0000", "#FF5F5F")).Bold(true).SetString("✗"),
			SemanticCommand:   r.NewStyle().Foreground(adaptive("#6A0DAD", "#D7AFFF")).PaddingLeft(2),
			SemanticLabel:     r.NewStyle().Foreground(adaptive("#005F87", "#87D7FF")).Bold(true),
			SemanticMuted:     r.NewStyle().Foreground(adaptive("#767676", "#8A8A8A")),
			SemanticHighlight: r.NewStyle().Foreground(adaptive("#D75F00", "#FFAF5F")).Bold(true),
			SemanticBold:      r.NewStyle().Bold(true),
			SemanticCode:      r.NewStyle().Foreground(lipgloss.Color("cyan")).Background(lipgloss.Color("240")).Padding(0, 1),
		},
	}
}

// GetStyle implements StyleProvider.GetStyle. Unknown semantics render unstyled.
func (l *LipglossStyleProvider) GetStyle(semantic string) TextStyle {
	style, ok := l.styles[SemanticType(semantic)]
	if !ok {
		return lipglossTextStyle{style: l.renderer.NewStyle()}
	}
	if prefix := style.Value(); prefix != "" {
		return prefixedStyle{prefix: prefix, style: style.UnsetString()}
	}
	return lipglossTextStyle{style: style}
}

// IsAvailable reports whether the output supports colour.
func (l *LipglossStyleProvider) IsAvailable() bool {
	return l.renderer.ColorProfile() != termenv.Ascii
}

// GetThemeType returns the glamour style matching the terminal background.
func (l *LipglossStyleProvider) GetThemeType() string {
	if l.renderer.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

// lipglossTextStyle adapts a lipgloss.Style, whose Render is variadic, to TextStyle.
type lipglossTextStyle struct {
	style lipgloss.Style
}

func (s lipglossTextStyle) Render(text string) string {
	return s.style.Render(text)
}

// prefixedStyle renders a status symbol before the styled message.
type prefixedStyle struct {
	prefix string
	style  lipgloss.Style
}

func (s prefixedStyle) Render(text string) string {
	return s.style.Render(s.prefix + " " + text)
}
