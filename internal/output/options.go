package output

import "io"

// Option configures a Printer.
type Option func(*Printer)

// WithStyles sets the StyleProvider. A nil or unavailable provider is ignored,
// leaving the printer to render plain text.
func WithStyles(provider StyleProvider) Option {
	return func(p *Printer) {
		if provider != nil && provider.IsAvailable() {
			p.styleProvider = provider
		}
	}
}

// WithWriter sends output to writer instead of os.Stdout.
func WithWriter(writer io.Writer) Option {
	return func(p *Printer) {
		if writer != nil {
			p.writer = writer
		}
	}
}

// WithMode selects the output mode. ModePlain also disables any StyleProvider,
// whichever order the options are given in.
func WithMode(mode Mode) Option {
	return func(p *Printer) {
		p.mode = mode
		p.forcePlain = mode == ModePlain
	}
}

// PlainText is shorthand for WithMode(ModePlain).
func PlainText() Option {
	return WithMode(ModePlain)
}

// JSON is shorthand for WithMode(ModeJSON): one JSON object per line.
func JSON() Option {
	return WithMode(ModeJSON)
}

// Silent suppresses everything except errors.
func Silent() Option {
	return func(p *Printer) {
		p.silent = true
	}
}
