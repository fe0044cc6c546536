package cfdg

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Severity ranks a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "fatal"
	}
}

// Diagnostic is one compiler or runtime message.
type Diagnostic struct {
	Severity Severity
	Span     Span
	Message  string
}

func (d Diagnostic) String() string {
	if d.Span.Line == 0 {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Span, d.Severity, d.Message)
}

// Sink receives diagnostics as they are produced.
type Sink interface {
	Info(msg string, span Span)
	Warning(msg string, span Span)
	Error(msg string, span Span)
	Fail(msg string)
}

// Diagnostics is a Sink that keeps every message. It is safe for
// concurrent use so a UI can read it while a render is running.
type Diagnostics struct {
	mu    sync.Mutex
	list  []Diagnostic
	fatal bool
}

func (d *Diagnostics) add(sev Severity, msg string, span Span) {
	d.mu.Lock()
	d.list = append(d.list, Diagnostic{Severity: sev, Span: span, Message: msg})
	if sev == SeverityFatal {
		d.fatal = true
	}
	d.mu.Unlock()
	switch sev {
	case SeverityWarning:
		Logger().Warn(msg, "pos", span.String())
	case SeverityError, SeverityFatal:
		Logger().Debug(msg, "pos", span.String(), "severity", sev.String())
	}
}

func (d *Diagnostics) Info(msg string, span Span)    { d.add(SeverityInfo, msg, span) }
func (d *Diagnostics) Warning(msg string, span Span) { d.add(SeverityWarning, msg, span) }
func (d *Diagnostics) Error(msg string, span Span)   { d.add(SeverityError, msg, span) }
func (d *Diagnostics) Fail(msg string)               { d.add(SeverityFatal, msg, Span{}) }

// List returns a copy of the collected diagnostics.
func (d *Diagnostics) List() []Diagnostic {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Diagnostic(nil), d.list...)
}

// HasErrors reports whether any error or fatal diagnostic was recorded.
func (d *Diagnostics) HasErrors() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, x := range d.list {
		if x.Severity >= SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics at severity sev.
func (d *Diagnostics) Count(sev Severity) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, x := range d.list {
		if x.Severity == sev {
			n++
		}
	}
	return n
}

// Reset clears the list.
func (d *Diagnostics) Reset() {
	d.mu.Lock()
	d.list = nil
	d.fatal = false
	d.mu.Unlock()
}

// suggest returns a " (did you mean ...?)" hint for an unknown name.
func suggest(name string, candidates []string) string {
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		// Fall back to candidates that contain most of the name.
		var alts []string
		for _, c := range candidates {
			if len(name) > 2 && strings.EqualFold(c[:min(len(c), len(name)-1)], name[:len(name)-1]) {
				alts = append(alts, c)
			}
		}
		if len(alts) == 0 {
			return ""
		}
		sort.Strings(alts)
		return fmt.Sprintf(" (did you mean %q?)", alts[0])
	}
	sort.Sort(ranks)
	return fmt.Sprintf(" (did you mean %q?)", ranks[0].Target)
}
