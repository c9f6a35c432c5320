// Command minic drives the five compiler stages (lexer, parser, semantic
// analyzer, code generator, register allocator) end to end: it is the
// command-line driver spec.md places out of scope as an external
// collaborator, grounded on the teacher's own run()/main() split (vslc
// src/main.go) but rebuilt around github.com/teris-io/cli rather than the
// teacher's hand-rolled flag.FlagSet wrapper (vslc src/util/args.go), the
// same cli package its-hmny-nand2tetris's cmd/jack_compiler/main.go uses.
package main

import (
	"fmt"
	"os"
	"strconv"

	"minic/src/codegen"
	"minic/src/frontend"
	"minic/src/ir"
	"minic/src/regalloc"
	"minic/src/sema"
	"minic/src/util"

	"github.com/teris-io/cli"
)

const defaultRegisterBudget = 6

var description = "minic compiles a single source file written in the mini-C-like " +
	"source language (spec.md) down to a flat register-machine intermediate " +
	"representation, allocating physical registers as it goes."

var Minic = cli.New(description).
	WithArg(cli.NewArg("input", "Source file to compile; reads stdin if omitted").
		AsOptional().WithType(cli.TypeString)).
	WithOption(cli.NewOption("out", "Output file for the generated IR; writes stdout if omitted").
		WithType(cli.TypeString)).
	WithOption(cli.NewOption("registers", "Number of physical registers available to the allocator").
		WithType(cli.TypeString)).
	WithOption(cli.NewOption("tokens", "Stop after lexing and print the token stream").
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("ast", "Stop after parsing and print the syntax tree").
		WithType(cli.TypeBool)).
	WithOption(cli.NewOption("verbose", "Print compiler progress to stderr").
		WithType(cli.TypeBool)).
	WithAction(Handler)

// Handler adapts teris-io/cli's (args, options) callback to run, matching
// the options into a util.Options the way the teacher's args.go used to
// populate its own Options from flag.FlagSet. It also recovers from an
// internal invariant panic (spec.md §7's third error tier — a malformed
// tree or instruction list reaching codegen/regalloc) so that case reports
// a normal error and a non-zero exit status instead of crashing the
// process with a raw stack trace.
func Handler(args []string, options map[string]string) (status int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "minic: internal error: %v\n", r)
			status = 1
		}
	}()

	opt := util.Options{Verbose: false}
	if len(args) > 0 {
		opt.Src = args[0]
	}
	if out, ok := options["out"]; ok {
		opt.Out = out
	}
	if _, ok := options["tokens"]; ok {
		opt.TokenStream = true
	}
	if _, ok := options["ast"]; ok {
		opt.PrintAST = true
	}
	if _, ok := options["verbose"]; ok {
		opt.Verbose = true
	}

	k := defaultRegisterBudget
	if raw, ok := options["registers"]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			fmt.Fprintf(os.Stderr, "invalid --registers value %q: must be a positive integer\n", raw)
			return 1
		}
		k = n
	}

	if err := run(opt, k); err != nil {
		fmt.Fprintf(os.Stderr, "minic: %s\n", err)
		return 1
	}
	return 0
}

// run executes the compiler stages in order, stopping early for -tokens or
// -ast, and otherwise carrying the program through analysis, code
// generation and register allocation before printing the result.
func run(opt util.Options, k int) error {
	src, err := util.ReadSource(opt)
	if err != nil {
		return fmt.Errorf("could not read source: %s", err)
	}

	if opt.TokenStream {
		toks, err := frontend.Lex(src)
		if err != nil {
			return fmt.Errorf("lexical error: %s", err)
		}
		return writeOutput(opt, func(w *util.Writer) {
			for _, t := range toks {
				w.Write("%s\n", t.String())
			}
		})
	}

	root, err := frontend.Parse(src)
	if err != nil {
		return fmt.Errorf("syntax error: %s", err)
	}

	if opt.PrintAST {
		root.Print(0)
		return nil
	}

	if diags := sema.Analyze(root); diags.Len() > 0 {
		for _, d := range diags.Entries() {
			fmt.Fprintln(os.Stderr, d.String())
		}
		return fmt.Errorf("%d semantic error(s)", diags.Len())
	}

	if opt.Verbose {
		fmt.Fprintln(os.Stderr, "generating code")
	}
	program := codegen.Generate(root)

	if opt.Verbose {
		fmt.Fprintf(os.Stderr, "allocating registers (k=%d)\n", k)
	}
	regalloc.Allocate(program, k)

	return writeOutput(opt, program.Print)
}

// writeOutput buffers through a util.Writer via fill, then flushes once to
// opt.Out or stdout (nil *os.File), matching the teacher's single-flush
// Writer idiom (vslc src/util/io.go) rather than its background writer
// goroutine, dropped per spec.md §5.
func writeOutput(opt util.Options, fill func(w *util.Writer)) error {
	w := &util.Writer{}
	fill(w)

	if len(opt.Out) == 0 {
		return w.Flush(nil)
	}
	f, err := os.OpenFile(opt.Out, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open output file: %s", err)
	}
	defer f.Close()
	return w.Flush(f)
}

func main() { os.Exit(Minic.Run(os.Args, os.Stdout)) }
