package progress

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Bar is a progress bar that renders only when enabled and writing to a
// terminal. A nil *Bar is valid and does nothing.
type Bar struct {
	bar *progressbar.ProgressBar
}

// New returns a bar counting to max on stdout.
func New(enabled bool, max int, description string) *Bar {
	return NewWithWriter(os.Stdout, enabled && IsTerminal(os.Stdout), max, description)
}

func NewWithWriter(w io.Writer, visible bool, max int, description string) *Bar {
	return &Bar{
		bar: progressbar.NewOptions(max,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetVisibility(visible),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		),
	}
}

func (b *Bar) Increment() {
	if b == nil {
		return
	}

	_ = b.bar.Add(1)
}

func (b *Bar) Describe(description string) {
	if b == nil {
		return
	}

	b.bar.Describe(description)
}

func (b *Bar) Finish() {
	if b == nil {
		return
	}

	_ = b.bar.Finish()
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
