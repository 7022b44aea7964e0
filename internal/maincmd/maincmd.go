// Package maincmd wires the CLI surface onto the interpreter: argument
// parsing, opening the program/input/statistics files, and translating the
// final classified error into a process exit code. Flag binding is
// hand-rolled (see parse.go) rather than routed through mainer.Parser's
// struct-tag reflection, since this surface needs string-valued and
// order-preserving repeatable flags; see DESIGN.md.
package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"ippinterp21/internal/ipperr"
	"ippinterp21/internal/ippio"
	"ippinterp21/internal/ippmachine"
	"ippinterp21/internal/ipploader"
	"ippinterp21/internal/ippstats"
)

const binName = "ippinterp"

const usage = `usage: ` + binName + ` [--source=FILE] [--input=FILE] [--stats=FILE [--insts|--hot|--vars]...]
       ` + binName + ` --help

Interprets an IPPcode21 program serialized as XML.

Valid options are:
       --help              Show this help and exit. Combining --help with
                            any other flag is an error.
       --source=FILE       Read the XML program from FILE (default: stdin).
       --input=FILE        Feed FILE to the program's READ instruction
                            (default: stdin). At least one of --source or
                            --input must be given; both cannot default to
                            stdin at once.
       --stats=FILE        Write selected statistics to FILE, one per line,
                            in the order the following selectors appear.
       --insts             Append the executed-instruction count.
       --hot               Append the most frequently executed opcode.
       --vars              Append the maximum number of simultaneously
                            initialized variables.
`

// Cmd is the interpreter's command-line entry point.
type Cmd struct {
	BuildVersion string
	BuildDate    string
}

// Main parses args, runs the interpreter, and returns the process exit
// code. It never calls os.Exit itself; the caller (cmd/ippinterp) does.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	opts, perr := parseArgs(args[1:])
	if perr != nil {
		fmt.Fprintf(stdio.Stderr, "%s\n%s", perr, usage)
		return mainer.ExitCode(ipperr.BadParam)
	}
	if opts.help {
		fmt.Fprint(stdio.Stdout, usage)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	code := run(ctx, opts, stdio)
	return mainer.ExitCode(code)
}

func run(ctx context.Context, opts cliOptions, stdio mainer.Stdio) int {
	sourceR := stdio.Stdin
	if opts.source != "" {
		f, err := os.Open(opts.source)
		if err != nil {
			return reportAndCode(stdio, ipperr.New(ipperr.OpenErr, "cannot open source file %q: %v", opts.source, err))
		}
		defer f.Close()
		sourceR = f
	}

	prog, err := ipploader.Load(sourceR)
	if err != nil {
		return reportAndCode(stdio, err)
	}

	inputR := stdio.Stdin
	if opts.input != "" {
		f, oerr := os.Open(opts.input)
		if oerr != nil {
			return reportAndCode(stdio, ipperr.New(ipperr.OpenErr, "cannot open input file %q: %v", opts.input, oerr))
		}
		defer f.Close()
		inputR = f
	}

	source := ippio.NewSource(inputR)
	defer source.Close()
	sink := &ippio.Sink{Stdout: stdio.Stdout, Stderr: stdio.Stderr}
	stats := ippstats.New()

	m := ippmachine.New(prog, source, sink, stats)
	exitCode, runErr := m.Run(ctx)

	statsErr := flushStats(opts, stats)

	if runErr != nil {
		reportError(stdio, runErr)
		return runErr.ExitCode()
	}
	if statsErr != nil {
		reportError(stdio, statsErr)
		return statsErr.ExitCode()
	}
	return exitCode
}

func flushStats(opts cliOptions, stats *ippstats.Collector) *ipperr.Error {
	if opts.statsPath == "" {
		return nil
	}
	sink := ippio.NewStatsSink(opts.statsPath)
	for _, sel := range opts.selectors {
		switch sel {
		case "insts":
			sink.AppendLine(fmt.Sprintf("%d", stats.Executed()))
		case "hot":
			name, _ := stats.Hot()
			sink.AppendLine(name)
		case "vars":
			sink.AppendLine(fmt.Sprintf("%d", stats.MaxVars()))
		}
	}
	return sink.Flush()
}

func reportError(stdio mainer.Stdio, err *ipperr.Error) {
	fmt.Fprintf(stdio.Stderr, "%s\n", err)
}

func reportAndCode(stdio mainer.Stdio, err *ipperr.Error) int {
	reportError(stdio, err)
	return err.ExitCode()
}
