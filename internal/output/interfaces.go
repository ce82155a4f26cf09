// Package output provides the console output system for ccode commands.
// Printers depend only on the StyleProvider interface, so styling stays optional.
package output

// StyleProvider supplies styled renderers for semantic output types.
type StyleProvider interface {
	// GetStyle returns a TextStyle for the given semantic type.
	GetStyle(semantic string) TextStyle

	// IsAvailable returns true if the provider can render styles on the current output.
	IsAvailable() bool

	// GetThemeType returns the glamour style name for code rendering ("dark", "light", "auto", "notty").
	GetThemeType() string
}

// TextStyle renders text with styling. Lipgloss styles are wrapped to fit it.
type TextStyle interface {
	Render(text string) string
}

// Mode defines the output modes a printer can operate in.
type Mode int

const (
	// ModeAuto uses styles when a provider is available, plain text otherwise
	ModeAuto Mode = iota

	// ModeStyled forces styled output
	ModeStyled

	// ModePlain forces plain text output
	ModePlain

	// ModeJSON outputs one JSON object per message for scripting
	ModeJSON
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeStyled:
		return "styled"
	case ModePlain:
		return "plain"
	case ModeJSON:
		return "json"
	default:
		return "unknown"
	}
}

// SemanticType defines the meaning of a piece of output for consistent styling.
type SemanticType string

const (
	SemanticPlain   SemanticType = "plain"
	SemanticInfo    SemanticType = "info"
	SemanticSuccess SemanticType = "success"
	SemanticWarning SemanticType = "warning"
	SemanticError   SemanticType = "error"

	// SemanticCommand marks a command line the operator can run, e.g. "ccode provider add".
	SemanticCommand SemanticType = "command"
	// SemanticLabel marks the key half of a key/value row.
	SemanticLabel SemanticType = "label"
	// SemanticMuted marks secondary detail such as descriptions and timestamps.
	SemanticMuted SemanticType = "muted"
	// SemanticHighlight marks the current default entry in listings.
	SemanticHighlight SemanticType = "highlight"
	SemanticBold      SemanticType = "bold"

	SemanticCode      SemanticType = "code"
	SemanticCodeBlock SemanticType = "code_block"
)
