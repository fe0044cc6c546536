package main

import (
	"io"
	"os"

	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// progress shows a running shape count on a terminal.
type progress struct {
	w      io.Writer
	p      *message.Printer
	active bool
	shown  bool
}

func newProgress(w io.Writer, quiet bool) *progress {
	return &progress{
		w:      w,
		p:      message.NewPrinter(language.English),
		active: !quiet && isTerminal(w),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (p *progress) update(shapes int) {
	if !p.active {
		return
	}
	p.p.Fprintf(p.w, "\r%d shapes", shapes)
	p.shown = true
}

func (p *progress) done() {
	if p.shown {
		io.WriteString(p.w, "\r\033[K")
		p.shown = false
	}
}
