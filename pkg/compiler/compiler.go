// Package compiler wires the pipeline stages together: lex, parse,
// infer, check exhaustiveness, optimize, generate bytecode.
package compiler

import (
	"github.com/Armani-T/Hanno/pkg/ast"
	"github.com/Armani-T/Hanno/pkg/bytecode"
	"github.com/Armani-T/Hanno/pkg/codegen"
	"github.com/Armani-T/Hanno/pkg/diagnostics"
	"github.com/Armani-T/Hanno/pkg/exhaustive"
	"github.com/Armani-T/Hanno/pkg/infer"
	"github.com/Armani-T/Hanno/pkg/optimizer"
	"github.com/Armani-T/Hanno/pkg/parser"
)

// Options tunes the optimizer stages. The zero value runs everything.
type Options struct {
	SkipFolding  bool
	SkipInlining bool
}

// Compile runs the whole pipeline over one source unit. A stage with
// errors stops the pipeline, so only the earliest failing stage's
// diagnostics are ever returned; warnings ride along with success.
func Compile(source, filename string, opts Options) (*bytecode.Program, []diagnostics.Diagnostic) {
	program, diags := Analyze(source, filename)
	if diagnostics.HasErrors(diags) {
		return nil, diags
	}

	if !opts.SkipFolding {
		program = optimizer.Fold(program)
	}
	if !opts.SkipInlining {
		program = optimizer.Inline(program)
	}
	if !opts.SkipFolding {
		// Inlining exposes new literal operands.
		program = optimizer.Fold(program)
	}

	compiled, genDiags := codegen.Generate(program)
	diags = append(diags, genDiags...)
	if diagnostics.HasErrors(diags) {
		return nil, diags
	}
	return compiled, diags
}

// Analyze runs the front half of the pipeline, through the
// exhaustiveness check, and returns the verified AST. The REPL and the
// emit flags use it to stop before lowering.
func Analyze(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	program, diags := parser.Parse(source, filename)
	if diagnostics.HasErrors(diags) {
		return nil, diags
	}

	result, typeDiags := infer.Infer(program)
	if diagnostics.HasErrors(typeDiags) {
		return nil, append(diags, typeDiags...)
	}
	diags = append(diags, typeDiags...)

	checkDiags := exhaustive.Check(program, result)
	diags = append(diags, checkDiags...)
	if diagnostics.HasErrors(diags) {
		return nil, diags
	}
	return program, diags
}

// FailingStage reports the stage of the first error diagnostic, used
// by callers that map stages to exit codes.
func FailingStage(diags []diagnostics.Diagnostic) (diagnostics.Stage, bool) {
	for _, d := range diags {
		if d.Severity == diagnostics.SeverityError {
			return d.Stage, true
		}
	}
	return "", false
}
