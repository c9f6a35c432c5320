// Package util holds small pieces of ambient infrastructure shared across the
// compiler's phases: diagnostics accumulation, a LIFO stack and a label/id
// generator, all grounded on the teacher's vslc src/util package but made
// sequential per spec.md §5 (no goroutines, no channels, no locks).
package util

import "fmt"

// Diagnostic is one reported problem, always attributed to a source line.
type Diagnostic struct {
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}

// Diagnostics accumulates non-fatal problems found during semantic analysis,
// replacing the teacher's channel-backed perror with a plain slice (vslc
// src/util/perror.go): analysis never aborts on the first error, so every
// later phase can see the whole error set in one pass instead of racing a
// listener goroutine for it.
type Diagnostics struct {
	entries []Diagnostic
}

// NewDiagnostics returns an empty Diagnostics with n pre-allocated slots.
func NewDiagnostics(n int) *Diagnostics {
	if n < 1 {
		n = 16
	}
	return &Diagnostics{entries: make([]Diagnostic, 0, n)}
}

// Add appends a diagnostic at line with a formatted message.
func (d *Diagnostics) Add(line int, format string, args ...interface{}) {
	d.entries = append(d.entries, Diagnostic{Line: line, Message: fmt.Sprintf(format, args...)})
}

// Len reports the number of accumulated diagnostics.
func (d *Diagnostics) Len() int {
	return len(d.entries)
}

// Entries returns the accumulated diagnostics in report order.
func (d *Diagnostics) Entries() []Diagnostic {
	return d.entries
}

// Err returns a non-nil error summarizing all diagnostics, or nil if none.
func (d *Diagnostics) Err() error {
	if len(d.entries) == 0 {
		return nil
	}
	return &diagnosticsError{entries: d.entries}
}

type diagnosticsError struct {
	entries []Diagnostic
}

func (e *diagnosticsError) Error() string {
	if len(e.entries) == 1 {
		return e.entries[0].String()
	}
	s := fmt.Sprintf("%d errors:", len(e.entries))
	for _, d := range e.entries {
		s += "\n  " + d.String()
	}
	return s
}
