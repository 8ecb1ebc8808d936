package optimizer

import (
	"reflect"
	"testing"

	"github.com/Armani-T/Hanno/internal/testutil"
	"github.com/Armani-T/Hanno/pkg/ast"
	"github.com/Armani-T/Hanno/pkg/parser"
)

func parseProgram(t *testing.T, source string) *ast.Program {
	t.Helper()
	program, diags := parser.Parse(source, "test.hbl")
	testutil.RequireNoErrors(t, diags)
	return program
}

func foldOne(t *testing.T, source string) ast.Expr {
	t.Helper()
	folded := Fold(parseProgram(t, source))
	if len(folded.Exprs) != 1 {
		t.Fatalf("expected one expression, got %d", len(folded.Exprs))
	}
	return folded.Exprs[0]
}

func TestFoldArithmetic(t *testing.T) {
	tests := []struct {
		source string
		want   int64
	}{
		{"1 + 2 * 3", 7},
		{"10 - 4", 6},
		{"7 / 2", 3},
		{"7 % 2", 1},
		{"2 ^ 10", 1024},
		{"(1 + 2) * (3 + 4)", 21},
		{"~(1 + 2)", -3},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			expr := foldOne(t, tt.source)
			lit, ok := expr.(*ast.IntLit)
			if !ok {
				t.Fatalf("expected a literal, got %s", expr.Kind())
			}
			if lit.Value != tt.want {
				t.Fatalf("folded to %d, want %d", lit.Value, tt.want)
			}
		})
	}
}

func TestFoldComparisons(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{"1 < 2", true},
		{"2 = 3", false},
		{"2 /= 3", true},
		{"\"a\" < \"b\"", true},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			expr := foldOne(t, tt.source)
			lit, ok := expr.(*ast.BoolLit)
			if !ok {
				t.Fatalf("expected a bool literal, got %s", expr.Kind())
			}
			if lit.Value != tt.want {
				t.Fatalf("folded to %t, want %t", lit.Value, tt.want)
			}
		})
	}
}

func TestFoldShortCircuit(t *testing.T) {
	// The left operand alone decides; the right side may be anything.
	t.Run("false and anything", func(t *testing.T) {
		expr := foldOne(t, "False and x")
		lit, ok := expr.(*ast.BoolLit)
		if !ok || lit.Value {
			t.Fatalf("expected False, got %#v", expr)
		}
	})
	t.Run("true or anything", func(t *testing.T) {
		expr := foldOne(t, "True or x")
		lit, ok := expr.(*ast.BoolLit)
		if !ok || !lit.Value {
			t.Fatalf("expected True, got %#v", expr)
		}
	})
	t.Run("true and unknown stays", func(t *testing.T) {
		expr := foldOne(t, "True and x")
		if _, ok := expr.(*ast.Binary); !ok {
			t.Fatalf("must not fold away the live right side, got %s", expr.Kind())
		}
	})
	t.Run("unknown and false stays", func(t *testing.T) {
		// The left side still runs, so the right literal cannot decide.
		expr := foldOne(t, "x and False")
		if _, ok := expr.(*ast.Binary); !ok {
			t.Fatalf("must not fold on the right operand alone, got %s", expr.Kind())
		}
	})
}

func TestDivisionByLiteralZeroUnfolded(t *testing.T) {
	for _, source := range []string{"1 / 0", "1 % 0"} {
		expr := foldOne(t, source)
		if _, ok := expr.(*ast.Binary); !ok {
			t.Fatalf("%q must defer to the runtime, got %s", source, expr.Kind())
		}
	}
}

func TestFoldIfOnLiteralCondition(t *testing.T) {
	expr := foldOne(t, "if 1 < 2 then 10 else 20")
	lit, ok := expr.(*ast.IntLit)
	if !ok || lit.Value != 10 {
		t.Fatalf("expected 10, got %#v", expr)
	}
}

func TestFoldListConcat(t *testing.T) {
	expr := foldOne(t, "[1, 2] <> [3]")
	list, ok := expr.(*ast.List)
	if !ok || len(list.Elements) != 3 {
		t.Fatalf("expected a 3-element list, got %#v", expr)
	}
}

func TestFoldIdempotent(t *testing.T) {
	sources := []string{
		"1 + 2 * 3",
		"if True then 1 else 2",
		"let x = 1 + 2\nx + 3",
		"\"a\" + \"b\"",
	}
	for _, source := range sources {
		t.Run(source, func(t *testing.T) {
			once := Fold(parseProgram(t, source))
			twice := Fold(once)
			if !reflect.DeepEqual(once, twice) {
				t.Fatal("folding twice must equal folding once")
			}
		})
	}
}

func TestFoldInsideStructures(t *testing.T) {
	program := Fold(parseProgram(t, "let x = 1 + 2"))
	let := program.Exprs[0].(*ast.Let)
	lit, ok := let.Value.(*ast.IntLit)
	if !ok || lit.Value != 3 {
		t.Fatalf("expected the bound value to fold, got %#v", let.Value)
	}
}
