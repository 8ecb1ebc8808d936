// Command hanno is the Hanno compiler CLI entry point.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/Armani-T/Hanno/pkg/compiler"
	"github.com/Armani-T/Hanno/pkg/diagnostics"
	"github.com/Armani-T/Hanno/pkg/lexer"
	"github.com/Armani-T/Hanno/pkg/printer"
)

const version = "hanno 0.1.0"

// Exit codes follow the sysexits convention: data errors get 65+ and
// I/O failures get 74. Each pipeline stage maps to its own code.
const (
	exitOK       = 0
	exitUsage    = 1
	exitSyntax   = 65
	exitType     = 66
	exitCoverage = 67
	exitCodegen  = 70
	exitIO       = 74
)

func main() {
	var file string
	pretty := true
	emitTokens := false
	emitAST := false
	emitBytecode := false

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version", "-v":
			fmt.Println(version)
			os.Exit(exitOK)
		case "--help", "-h":
			usage(os.Stdout)
			os.Exit(exitOK)
		case "--json":
			pretty = false
		case "--emit-tokens":
			emitTokens = true
		case "--emit-ast":
			emitAST = true
		case "--emit-bytecode":
			emitBytecode = true
		default:
			if strings.HasPrefix(args[i], "-") && args[i] != "-" {
				fmt.Fprintf(os.Stderr, "unknown flag: %s\n", args[i])
				usage(os.Stderr)
				os.Exit(exitUsage)
			}
			if file != "" {
				fmt.Fprintln(os.Stderr, "only one source file may be given")
				os.Exit(exitUsage)
			}
			file = args[i]
		}
	}

	if file == "" {
		os.Exit(runREPL())
	}
	os.Exit(runFile(file, pretty, emitTokens, emitAST, emitBytecode))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: hanno [flags] [file.hbl]")
	fmt.Fprintln(w, "  --version        print the version and exit")
	fmt.Fprintln(w, "  --json           print diagnostics as JSON")
	fmt.Fprintln(w, "  --emit-tokens    print the token stream and exit")
	fmt.Fprintln(w, "  --emit-ast       print the parsed AST and exit")
	fmt.Fprintln(w, "  --emit-bytecode  print the compiled bytecode")
	fmt.Fprintln(w, "with no file, hanno starts an interactive session")
}

func runFile(file string, pretty, emitTokens, emitAST, emitBytecode bool) int {
	source, filename, code := readSource(file)
	if code != exitOK {
		return code
	}

	if emitTokens {
		return doEmitTokens(source, filename, pretty)
	}
	if emitAST {
		return doEmitAST(source, filename, pretty)
	}

	program, diags := compiler.Compile(source, filename, compiler.Options{})
	printWarnings(diags, pretty)
	if stage, failed := compiler.FailingStage(diags); failed {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(errorsOnly(diags), pretty))
		return exitCodeForStage(stage)
	}

	if emitBytecode {
		fmt.Print(program.Disassemble())
	}
	return exitOK
}

func doEmitTokens(source, filename string, pretty bool) int {
	tokens, diags := lexer.Tokenize(source, filename)
	if diagnostics.HasErrors(diags) {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diags, pretty))
		return exitSyntax
	}
	for _, tok := range tokens {
		if tok.Value != "" && tok.Type.String() != tok.Value {
			fmt.Printf("%d:%d\t%s\t%q\n", tok.Span.StartLine, tok.Span.StartCol, tok.Type, tok.Value)
		} else {
			fmt.Printf("%d:%d\t%s\n", tok.Span.StartLine, tok.Span.StartCol, tok.Type)
		}
	}
	return exitOK
}

func doEmitAST(source, filename string, pretty bool) int {
	program, diags := compiler.Analyze(source, filename)
	printWarnings(diags, pretty)
	if stage, failed := compiler.FailingStage(diags); failed {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(errorsOnly(diags), pretty))
		return exitCodeForStage(stage)
	}
	fmt.Print(printer.Print(program))
	return exitOK
}

// runREPL reads expressions interactively. Each submitted snippet is
// compiled on its own; state does not persist between lines.
func runREPL() int {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println(version)
	fmt.Println(`type an expression, or ":quit" to leave`)

	for {
		input, err := line.Prompt(">>> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			fmt.Println()
			return exitOK
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading input: %s\n", err)
			return exitIO
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		if trimmed == ":quit" || trimmed == ":q" {
			return exitOK
		}
		line.AppendHistory(input)

		program, diags := compiler.Analyze(input, "<repl>")
		printWarnings(diags, true)
		if _, failed := compiler.FailingStage(diags); failed {
			fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(errorsOnly(diags), true))
			continue
		}
		fmt.Print(printer.Print(program))
	}
}

func readSource(file string) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading stdin: %s\n", err)
			return "", "", exitIO
		}
		return string(data), "<stdin>", exitOK
	}
	data, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read file: %s\n", file)
		return "", "", exitIO
	}
	return string(data), file, exitOK
}

func printWarnings(diags []diagnostics.Diagnostic, pretty bool) {
	var warnings []diagnostics.Diagnostic
	for _, d := range diags {
		if d.Severity == diagnostics.SeverityWarning {
			warnings = append(warnings, d)
		}
	}
	if len(warnings) > 0 {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(warnings, pretty))
	}
}

func errorsOnly(diags []diagnostics.Diagnostic) []diagnostics.Diagnostic {
	var errors []diagnostics.Diagnostic
	for _, d := range diags {
		if d.Severity == diagnostics.SeverityError {
			errors = append(errors, d)
		}
	}
	return errors
}

func exitCodeForStage(stage diagnostics.Stage) int {
	switch stage {
	case diagnostics.StageLex, diagnostics.StageParse:
		return exitSyntax
	case diagnostics.StageType:
		return exitType
	case diagnostics.StageExhaustiveness:
		return exitCoverage
	case diagnostics.StageCodegen:
		return exitCodegen
	default:
		return exitUsage
	}
}
