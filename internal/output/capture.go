package output

import (
	"bytes"
	"strings"
	"sync"
)

// CaptureBuffer is a thread-safe buffer for capturing printer output in tests.
type CaptureBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewCaptureBuffer creates a new capture buffer.
func NewCaptureBuffer() *CaptureBuffer {
	return &CaptureBuffer{}
}

// Write implements io.Writer.
func (c *CaptureBuffer) Write(p []byte) (n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// String returns the captured output.
func (c *CaptureBuffer) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Lines returns the captured output split into lines.
func (c *CaptureBuffer) Lines() []string {
	content := c.String()
	if content == "" {
		return []string{}
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

// CaptureOutput runs fn with a plain text printer and returns what it wrote.
func CaptureOutput(fn func(*Printer)) string {
	buffer := NewCaptureBuffer()
	fn(NewPrinter(WithWriter(buffer), PlainText()))
	return buffer.String()
}

// CaptureOutputWithStyles runs fn with a printer using provider and returns what it wrote.
func CaptureOutputWithStyles(provider StyleProvider, fn func(*Printer)) string {
	buffer := NewCaptureBuffer()
	fn(NewPrinter(WithWriter(buffer), WithStyles(provider)))
	return buffer.String()
}

// MockStyleProvider tags rendered text with its semantic type so tests can
// assert which style was applied without matching escape codes.
type MockStyleProvider struct {
	unavailable bool
}

// NewMockStyleProvider creates an available mock style provider.
func NewMockStyleProvider() *MockStyleProvider {
	return &MockStyleProvider{}
}

// SetAvailable toggles IsAvailable.
func (m *MockStyleProvider) SetAvailable(available bool) {
	m.unavailable = !available
}

// GetStyle implements StyleProvider.
func (m *MockStyleProvider) GetStyle(semantic string) TextStyle {
	return MockTextStyle(semantic)
}

// IsAvailable implements StyleProvider.
func (m *MockStyleProvider) IsAvailable() bool {
	return !m.unavailable
}

// GetThemeType implements StyleProvider.
func (m *MockStyleProvider) GetThemeType() string {
	return "notty"
}

// MockTextStyle renders text as [semantic]text[/semantic].
type MockTextStyle string

// Render implements TextStyle.
func (m MockTextStyle) Render(text string) string {
	return "[" + string(m) + "]" + text + "[/" + string(m) + "]"
}
