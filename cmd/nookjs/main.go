// Command nookjs runs the sandboxed evaluator from the command line: a
// script file or an inline expression in, the final value or a formatted
// error out (spec §6.2's Evaluate surface wrapped in a CLI).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/samlaycock/nookjs/interp"
	"github.com/samlaycock/nookjs/internal/diag"
	"github.com/samlaycock/nookjs/internal/runtimetune"
)

func main() {
	var (
		evalExpr = flag.String("e", "", "evaluate inline code instead of reading a file")
		dumpAST  = flag.Bool("dump-ast", false, "print the parsed AST instead of evaluating")
		stats    = flag.Bool("stats", false, "print execution stats after evaluation")
		color    = flag.Bool("color", true, "colorize error output")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] [file]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	var src, filename string
	switch {
	case *evalExpr != "":
		src, filename = *evalExpr, "<eval>"
	case flag.NArg() == 1:
		filename = flag.Arg(0)
		b, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "nookjs: %v\n", err)
			os.Exit(1)
		}
		src = string(b)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if *dumpAST {
		prog, err := interp.Parse(src)
		if err != nil {
			reportAndExit(err, *color)
		}
		fmt.Println(diag.Dump(prog))
		return
	}

	it := interp.New(runtimetune.Init())
	result, err := it.Evaluate(src, interp.Options{})
	if err != nil {
		reportAndExit(err, *color)
	}
	fmt.Println(interp.FormatValue(result))

	if *stats {
		s := it.GetStats()
		fmt.Fprintln(os.Stderr, diag.Dump(diag.Snapshot{
			NodeCount:       s.NodeCount,
			FunctionCalls:   s.FunctionCalls,
			LoopIterations:  s.LoopIterations,
			ExecutionTimeMS: s.ExecutionTimeMS,
		}))
	}
}

func reportAndExit(err error, color bool) {
	type formatter interface{ Format(bool) string }
	if f, ok := err.(formatter); ok {
		fmt.Fprintln(os.Stderr, f.Format(color))
	} else {
		fmt.Fprintln(os.Stderr, "nookjs:", err)
	}
	os.Exit(1)
}
