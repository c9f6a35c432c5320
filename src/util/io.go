// io.go provides source/output I/O and an assembly-line Writer helper.
// Sequential, unlike the teacher's channel-backed Writer/ListenWrite pair
// (vslc src/util/io.go) — spec.md §5 rules out a background writer thread,
// so output is just appended to a strings.Builder and flushed once, by
// whichever caller owns the *os.File or stdout.
package util

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"
)

// Options carries the command line configuration the CLI driver in
// cmd/minic uses to read the source, pick where output goes and decide where
// to stop, replacing the teacher's global ir.Root/label-channel state with
// an explicit value (vslc src/util/args.go's Options, trimmed to what a
// single-threaded single-target compiler needs). The phases themselves do
// not take it, and the register budget is passed to the driver separately.
type Options struct {
	Src         string // path to source file; empty means read stdin
	Out         string // path to output file; empty means stdout
	TokenStream bool   // stop after lexing and print the token stream
	PrintAST    bool   // stop after parsing and print the syntax tree
	Verbose     bool   // print compiler progress to stderr
}

// ReadSource reads source code from the file named by opt.Src, or from stdin
// if opt.Src is empty.
func ReadSource(opt Options) (string, error) {
	if len(opt.Src) > 0 {
		b, err := ioutil.ReadFile(opt.Src)
		return string(b), err
	}
	b, err := ioutil.ReadAll(os.Stdin)
	return string(b), err
}

// Writer buffers generated assembly text before a single flush to the
// destination file or stdout.
type Writer struct {
	sb strings.Builder
}

func (w *Writer) Write(format string, args ...interface{}) {
	w.sb.WriteString(fmt.Sprintf(format, args...))
}

func (w *Writer) WriteString(s string) {
	w.sb.WriteString(s)
}

// Ins1 writes a one-line instruction using the operator and a single operand.
func (w *Writer) Ins1(op, rs1 string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s\n", op, rs1))
}

// Ins2 writes a one-line instruction using the operator, destination and one source.
func (w *Writer) Ins2(op, rd, rs1 string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s, %s\n", op, rd, rs1))
}

// Ins3 writes a one-line instruction using the operator, destination and two sources.
func (w *Writer) Ins3(op, rd, rs1, rs2 string) {
	w.sb.WriteString(fmt.Sprintf("\t%s\t%s, %s, %s\n", op, rd, rs1, rs2))
}

// Label writes a one-line label declaration.
func (w *Writer) Label(name string) {
	w.sb.WriteString(fmt.Sprintf("%s:\n", name))
}

// Flush writes the buffered text to f, or stdout if f is nil.
func (w *Writer) Flush(f *os.File) error {
	out := os.Stdout
	if f != nil {
		out = f
	}
	_, err := out.WriteString(w.sb.String())
	w.sb.Reset()
	return err
}

// String returns the buffered text without flushing it.
func (w *Writer) String() string {
	return w.sb.String()
}
