package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Printer writes command output in plain, styled or JSON form.
// It holds no service dependencies; styling comes from an optional StyleProvider.
type Printer struct {
	styleProvider StyleProvider
	codeRenderer  *CodeRenderer
	writer        io.Writer
	mode          Mode
	forcePlain    bool
	silent        bool

	mu sync.Mutex
}

// NewPrinter creates a Printer writing to os.Stdout in ModeAuto, then applies options.
func NewPrinter(options ...Option) *Printer {
	p := &Printer{
		writer: os.Stdout,
		mode:   ModeAuto,
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// Print outputs text without semantic styling.
func (p *Printer) Print(text string) {
	p.output(SemanticPlain, text, false)
}

// Printf outputs formatted text without semantic styling.
func (p *Printer) Printf(format string, args ...interface{}) {
	p.output(SemanticPlain, fmt.Sprintf(format, args...), false)
}

// Println outputs a line without semantic styling.
func (p *Printer) Println(text string) {
	p.output(SemanticPlain, text, true)
}

// Info outputs an informational line.
func (p *Printer) Info(text string) {
	p.output(SemanticInfo, text, true)
}

// Success outputs a success line.
func (p *Printer) Success(text string) {
	p.output(SemanticSuccess, text, true)
}

// Warning outputs a warning line.
func (p *Printer) Warning(text string) {
	p.output(SemanticWarning, text, true)
}

// Error outputs an error line. Errors are written even by a silent printer.
func (p *Printer) Error(text string) {
	p.output(SemanticError, text, true)
}

// Command outputs a command the operator can run.
func (p *Printer) Command(text string) {
	p.output(SemanticCommand, text, true)
}

// Field outputs one "label: value" row.
func (p *Printer) Field(label string, value interface{}) {
	if p.mode == ModeJSON {
		p.writeJSON(map[string]interface{}{"type": "field", "key": label, "value": value})
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.silent {
		return
	}
	line := p.style(SemanticLabel, label+":") + " " + fmt.Sprint(value) + "\n"
	_, _ = fmt.Fprint(p.writer, line)
}

// Entry outputs one row of a named listing. The default entry is marked with '*'.
func (p *Printer) Entry(name, detail string, isDefault bool) {
	if p.mode == ModeJSON {
		p.writeJSON(map[string]interface{}{"type": "entry", "name": name, "detail": detail, "default": isDefault})
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.silent {
		return
	}

	marker := "  "
	label := name
	if isDefault {
		marker = "* "
		label = p.style(SemanticHighlight, name)
	}
	line := marker + label
	if detail != "" {
		line += "  " + p.style(SemanticMuted, detail)
	}
	_, _ = fmt.Fprintln(p.writer, line)
}

// CodeBlock outputs a multi-line block, syntax highlighted when styles are available.
func (p *Printer) CodeBlock(text, language string) {
	if p.mode == ModeJSON {
		p.writeJSON(map[string]interface{}{"type": SemanticCodeBlock, "language": language, "message": text})
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.silent {
		return
	}

	var rendered string
	if p.isStylable() {
		if p.codeRenderer == nil {
			p.codeRenderer = NewCodeRenderer(p.styleProvider)
		}
		rendered = p.codeRenderer.RenderCodeBlock(text, language)
	} else {
		rendered = indentBlock(text)
	}
	if !strings.HasSuffix(rendered, "\n") {
		rendered += "\n"
	}
	_, _ = fmt.Fprint(p.writer, rendered)
}

// Document outputs a JSON document. JSON mode writes it verbatim on one line;
// other modes indent it as a code block.
func (p *Printer) Document(raw []byte) {
	if p.mode == ModeJSON {
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			p.Error(fmt.Sprintf("invalid JSON document: %v", err))
			return
		}
		p.mu.Lock()
		defer p.mu.Unlock()
		if !p.silent {
			_, _ = fmt.Fprintln(p.writer, compact.String())
		}
		return
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, raw, "", "  "); err != nil {
		p.CodeBlock(string(raw), "")
		return
	}
	p.CodeBlock(indented.String(), "json")
}

// output is the core method that handles rendering for single messages.
func (p *Printer) output(semantic SemanticType, text string, addNewline bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.silent && semantic != SemanticError {
		return
	}

	var finalText string
	switch p.mode {
	case ModeJSON:
		finalText = renderJSON(semantic, text)
	case ModeStyled:
		finalText = p.renderStyled(semantic, text, addNewline)
	default:
		finalText = p.renderText(semantic, text, addNewline)
	}

	_, _ = fmt.Fprint(p.writer, finalText)
}

// renderText renders text in plain or auto mode.
func (p *Printer) renderText(semantic SemanticType, text string, addNewline bool) string {
	var result string
	if p.isStylable() {
		result = p.styleProvider.GetStyle(string(semantic)).Render(text)
	} else {
		result = NewPlainStyleProvider().GetStyle(string(semantic)).Render(text)
	}

	if addNewline && !strings.HasSuffix(result, "\n") {
		result += "\n"
	}
	return result
}

// renderStyled renders text with forced styling, falling back to plain text without a provider.
func (p *Printer) renderStyled(semantic SemanticType, text string, addNewline bool) string {
	if p.styleProvider != nil && p.styleProvider.IsAvailable() {
		result := p.styleProvider.GetStyle(string(semantic)).Render(text)
		if addNewline && !strings.HasSuffix(result, "\n") {
			result += "\n"
		}
		return result
	}
	return p.renderText(semantic, text, addNewline)
}

// style renders a fragment for use inside a composed line. Plain output leaves it unchanged.
func (p *Printer) style(semantic SemanticType, text string) string {
	if p.mode == ModePlain || !p.isStylable() {
		return text
	}
	return p.styleProvider.GetStyle(string(semantic)).Render(text)
}

func (p *Printer) writeJSON(v map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.silent {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		_, _ = fmt.Fprintln(p.writer, fmt.Sprint(v))
		return
	}
	_, _ = fmt.Fprintln(p.writer, string(data))
}

func renderJSON(semantic SemanticType, text string) string {
	data, err := json.Marshal(map[string]interface{}{
		"type":    semantic,
		"message": text,
	})
	if err != nil {
		return text + "\n"
	}
	return string(data) + "\n"
}

// SetWriter changes the output writer.
func (p *Printer) SetWriter(writer io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writer = writer
}

// SetMode changes the output mode.
func (p *Printer) SetMode(mode Mode) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = mode
	p.forcePlain = mode == ModePlain
}

// Mode returns the current output mode.
func (p *Printer) Mode() Mode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// IsStylable returns true if the printer can apply styles.
func (p *Printer) IsStylable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isStylable()
}

func (p *Printer) isStylable() bool {
	return !p.forcePlain && p.styleProvider != nil && p.styleProvider.IsAvailable()
}

// String returns a string representation for debugging.
func (p *Printer) String() string {
	hasStyles := "no"
	if p.IsStylable() {
		hasStyles = "yes"
	}
	return fmt.Sprintf("Printer{mode: %v, styles: %s, writer: %T}", p.mode, hasStyles, p.writer)
}
