package compiler

import (
	"testing"

	"github.com/Armani-T/Hanno/internal/testutil"
	"github.com/Armani-T/Hanno/pkg/bytecode"
	"github.com/Armani-T/Hanno/pkg/diagnostics"
)

const helloWorld = "let main(args) := let message = \"Hello, World!\"\nprint_line(message)\n0\nend"

func TestCompileHelloWorld(t *testing.T) {
	program, diags := Compile(helloWorld, "hello.hbl", Options{})
	testutil.RequireNoErrors(t, diags)
	if len(diags) != 0 {
		t.Fatalf("expected a clean compile, got: %s", diagnostics.FormatDiagnostics(diags, true))
	}
	if program == nil {
		t.Fatal("expected a bytecode program")
	}
	if len(program.Functions) == 0 {
		t.Fatal("main should compile to at least one function")
	}
	found := false
	for _, c := range program.Consts {
		if c.Kind == bytecode.ConstString && c.Str == "Hello, World!" {
			found = true
		}
	}
	if !found {
		t.Fatal("the greeting must land in the constant pool")
	}
}

func TestParseErrorsStopThePipeline(t *testing.T) {
	// The unbound name after the broken line must not surface as a
	// type error; parsing failed first.
	program, diags := Compile("let x = )\nmissing", "test.hbl", Options{})
	if program != nil {
		t.Fatal("a failed compile must not return a program")
	}
	stage, failed := FailingStage(diags)
	if !failed || stage != diagnostics.StageParse {
		t.Fatalf("failing stage = %q, want %q", stage, diagnostics.StageParse)
	}
	for _, d := range diags {
		if d.Stage == diagnostics.StageType {
			t.Fatal("type checking must not run after a parse failure")
		}
	}
}

func TestTypeErrorsStopThePipeline(t *testing.T) {
	// The incomplete match would be an exhaustiveness error, but the
	// type error in the first binding comes first.
	source := "let x = 1 + \"two\"\nlet f = \\b -> match b | True -> 1"
	program, diags := Compile(source, "test.hbl", Options{})
	if program != nil {
		t.Fatal("a failed compile must not return a program")
	}
	stage, failed := FailingStage(diags)
	if !failed || stage != diagnostics.StageType {
		t.Fatalf("failing stage = %q, want %q", stage, diagnostics.StageType)
	}
	for _, d := range diags {
		if d.Stage == diagnostics.StageExhaustiveness {
			t.Fatal("exhaustiveness must not run after a type failure")
		}
	}
}

func TestNonExhaustiveMatchFailsCompile(t *testing.T) {
	source := "let f = \\b -> match b | True -> 1"
	program, diags := Compile(source, "test.hbl", Options{})
	if program != nil {
		t.Fatal("a failed compile must not return a program")
	}
	stage, failed := FailingStage(diags)
	if !failed || stage != diagnostics.StageExhaustiveness {
		t.Fatalf("failing stage = %q, want %q", stage, diagnostics.StageExhaustiveness)
	}
}

func TestWarningsRideAlongWithSuccess(t *testing.T) {
	source := "match 1 | _ -> 0 | 1 -> 1"
	program, diags := Compile(source, "test.hbl", Options{})
	if program == nil {
		t.Fatalf("warnings must not fail the compile: %s", diagnostics.FormatDiagnostics(diags, true))
	}
	if !testutil.HasCode(diags, diagnostics.WUnreachablePattern) {
		t.Fatal("the unreachable arm warning must survive the pipeline")
	}
	if _, failed := FailingStage(diags); failed {
		t.Fatal("warnings alone must not mark a stage as failing")
	}
}

func TestOptimizationsShrinkTheOutput(t *testing.T) {
	source := "let double = \\x -> x + x\ndouble (1 + 2)"
	optimized, diags := Compile(source, "test.hbl", Options{})
	testutil.RequireNoErrors(t, diags)
	plain, diags := Compile(source, "test.hbl", Options{SkipFolding: true, SkipInlining: true})
	testutil.RequireNoErrors(t, diags)
	if len(optimized.Main.Code) >= len(plain.Main.Code) {
		t.Fatalf("optimized main has %d instructions, unoptimized %d",
			len(optimized.Main.Code), len(plain.Main.Code))
	}
}

func TestAnalyzeStopsBeforeLowering(t *testing.T) {
	program, diags := Analyze(helloWorld, "hello.hbl")
	testutil.RequireNoErrors(t, diags)
	if program == nil {
		t.Fatal("expected the verified tree")
	}
}

func TestFailingStageOnCleanDiags(t *testing.T) {
	if _, failed := FailingStage(nil); failed {
		t.Fatal("no diagnostics means no failing stage")
	}
}
