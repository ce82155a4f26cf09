package output

import (
	"fmt"
	"strings"
)

// PlainTextStyle implements TextStyle for plain text, optionally prefixed.
type PlainTextStyle struct {
	prefix string
	suffix string
}

// NewPlainTextStyle creates a plain text style with an optional prefix.
func NewPlainTextStyle(prefix string) *PlainTextStyle {
	return &PlainTextStyle{prefix: prefix}
}

// Render returns text wrapped in the style's prefix and suffix.
func (p *PlainTextStyle) Render(text string) string {
	return p.prefix + text + p.suffix
}

// IndentTextStyle renders multi-line text indented by two spaces.
type IndentTextStyle struct{}

// Render implements TextStyle.
func (IndentTextStyle) Render(text string) string {
	return indentBlock(text)
}

func indentBlock(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = "  " + line
		}
	}
	return strings.Join(lines, "\n")
}

// PlainStyleProvider implements StyleProvider with ASCII-friendly semantic prefixes.
// It is the fallback when no terminal styling is available.
type PlainStyleProvider struct {
	available bool
}

// NewPlainStyleProvider creates a new plain style provider.
func NewPlainStyleProvider() *PlainStyleProvider {
	return &PlainStyleProvider{available: true}
}

// GetStyle implements StyleProvider.GetStyle.
func (p *PlainStyleProvider) GetStyle(semantic string) TextStyle {
	switch SemanticType(semantic) {
	case SemanticSuccess:
		return NewPlainTextStyle("✓ ")
	case SemanticWarning:
		return NewPlainTextStyle("⚠ ")
	case SemanticError:
		return NewPlainTextStyle("✗ ")
	case SemanticInfo:
		return NewPlainTextStyle("ℹ ")
	case SemanticCommand:
		return NewPlainTextStyle("  $ ")
	case SemanticCode:
		return &PlainTextStyle{prefix: "`", suffix: "`"}
	case SemanticCodeBlock:
		return IndentTextStyle{}
	default:
		return NewPlainTextStyle("")
	}
}

// IsAvailable implements StyleProvider.IsAvailable.
func (p *PlainStyleProvider) IsAvailable() bool {
	return p.available
}

// GetThemeType implements StyleProvider.GetThemeType.
func (p *PlainStyleProvider) GetThemeType() string {
	return "notty"
}

// String returns a string representation for debugging.
func (p *PlainStyleProvider) String() string {
	return fmt.Sprintf("PlainStyleProvider{available: %t}", p.available)
}
