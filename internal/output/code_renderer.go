package output

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// codeWrapWidth is the word wrap width for rendered code blocks.
const codeWrapWidth = 100

// CodeRenderer renders JSON documents, transformer payloads and backup diffs
// as syntax highlighted markdown code blocks through glamour.
type CodeRenderer struct {
	glamourRenderer *glamour.TermRenderer
}

// NewCodeRenderer creates a renderer using the provider's theme type. It falls
// back to glamour's auto style, and to plain indentation when glamour cannot start.
func NewCodeRenderer(styleProvider StyleProvider) *CodeRenderer {
	themeStyle := "auto"
	if styleProvider != nil && styleProvider.IsAvailable() {
		themeStyle = styleProvider.GetThemeType()
	}

	var renderer *glamour.TermRenderer
	var err error

	if themeStyle != "" && themeStyle != "auto" {
		renderer, err = glamour.NewTermRenderer(
			glamour.WithStylePath(themeStyle),
			glamour.WithWordWrap(codeWrapWidth),
		)
	}

	if renderer == nil || err != nil {
		renderer, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(codeWrapWidth),
		)
		if err != nil {
			renderer = nil
		}
	}

	return &CodeRenderer{glamourRenderer: renderer}
}

// RenderCodeBlock renders code in a fenced block for language ("json", "diff", or "").
func (c *CodeRenderer) RenderCodeBlock(code, language string) string {
	if c.glamourRenderer != nil {
		markdown := "```" + language + "\n" + strings.TrimRight(code, "\n") + "\n```"
		rendered, err := c.glamourRenderer.Render(markdown)
		if err == nil && strings.TrimSpace(rendered) != "" {
			return strings.Trim(rendered, "\n")
		}
	}
	return indentBlock(code)
}

// IsAvailable reports whether glamour rendering is active.
func (c *CodeRenderer) IsAvailable() bool {
	return c.glamourRenderer != nil
}
