package parser

import (
	"testing"

	"github.com/Armani-T/Hanno/internal/testutil"
	"github.com/Armani-T/Hanno/pkg/ast"
	"github.com/Armani-T/Hanno/pkg/diagnostics"
)

func parseOne(t *testing.T, source string) ast.Expr {
	t.Helper()
	program, diags := Parse(source, "test.hbl")
	testutil.RequireNoErrors(t, diags)
	if len(program.Exprs) != 1 {
		t.Fatalf("expected one top-level expression, got %d", len(program.Exprs))
	}
	return program.Exprs[0]
}

func TestPrecedence(t *testing.T) {
	expr := parseOne(t, "1 + 2 * 3")
	add, ok := expr.(*ast.Binary)
	if !ok || add.Op != ast.OpAdd {
		t.Fatalf("expected + at the root, got %s", expr.Kind())
	}
	if _, ok := add.Left.(*ast.IntLit); !ok {
		t.Fatalf("expected literal on the left of +, got %s", add.Left.Kind())
	}
	mul, ok := add.Right.(*ast.Binary)
	if !ok || mul.Op != ast.OpMul {
		t.Fatalf("expected * under +, got %s", add.Right.Kind())
	}
}

func TestPowerRightAssociative(t *testing.T) {
	expr := parseOne(t, "2 ^ 3 ^ 4")
	outer := expr.(*ast.Binary)
	if outer.Op != ast.OpPow {
		t.Fatalf("expected ^ at the root, got %s", outer.Op)
	}
	inner, ok := outer.Right.(*ast.Binary)
	if !ok || inner.Op != ast.OpPow {
		t.Fatal("expected the right operand of ^ to be the nested ^")
	}
}

func TestAdditiveLeftAssociative(t *testing.T) {
	expr := parseOne(t, "1 - 2 - 3")
	outer := expr.(*ast.Binary)
	if outer.Op != ast.OpSub {
		t.Fatalf("expected - at the root, got %s", outer.Op)
	}
	if _, ok := outer.Left.(*ast.Binary); !ok {
		t.Fatal("expected the left operand of - to be the nested -")
	}
}

func TestComparisonChainRejected(t *testing.T) {
	_, diags := Parse("1 < 2 < 3", "test.hbl")
	if !diagnostics.HasErrors(diags) {
		t.Fatal("chained comparisons must be a parse error")
	}
}

func TestTupleDegeneracy(t *testing.T) {
	t.Run("parenthesized single expression unwraps", func(t *testing.T) {
		expr := parseOne(t, "(1 + 2)")
		if _, ok := expr.(*ast.Binary); !ok {
			t.Fatalf("expected the bare binary, got %s", expr.Kind())
		}
	})
	t.Run("empty parens are unit", func(t *testing.T) {
		expr := parseOne(t, "()")
		if _, ok := expr.(*ast.UnitLit); !ok {
			t.Fatalf("expected unit, got %s", expr.Kind())
		}
	})
	t.Run("two elements build a tuple", func(t *testing.T) {
		expr := parseOne(t, "1, 2")
		tuple, ok := expr.(*ast.Tuple)
		if !ok {
			t.Fatalf("expected a tuple, got %s", expr.Kind())
		}
		if len(tuple.Elements) != 2 {
			t.Fatalf("expected 2 elements, got %d", len(tuple.Elements))
		}
	})
	t.Run("comma list stays flat", func(t *testing.T) {
		expr := parseOne(t, "1, 2, 3")
		tuple := expr.(*ast.Tuple)
		if len(tuple.Elements) != 3 {
			t.Fatalf("expected a flat 3-tuple, got %d elements", len(tuple.Elements))
		}
	})
}

func TestApplicationIsCurriedAndLeftAssociative(t *testing.T) {
	expr := parseOne(t, "f x y")
	outer, ok := expr.(*ast.Apply)
	if !ok {
		t.Fatalf("expected application, got %s", expr.Kind())
	}
	inner, ok := outer.Func.(*ast.Apply)
	if !ok {
		t.Fatal("expected nested application on the left")
	}
	if name, ok := inner.Func.(*ast.Name); !ok || name.Value != "f" {
		t.Fatal("expected f at the head of the spine")
	}
}

func TestDotAndPipeRewriteToApplication(t *testing.T) {
	for _, source := range []string{"a.f", "a |> f"} {
		expr := parseOne(t, source)
		apply, ok := expr.(*ast.Apply)
		if !ok {
			t.Fatalf("%q: expected application, got %s", source, expr.Kind())
		}
		if fn, ok := apply.Func.(*ast.Name); !ok || fn.Value != "f" {
			t.Fatalf("%q: expected f in function position", source)
		}
		if arg, ok := apply.Arg.(*ast.Name); !ok || arg.Value != "a" {
			t.Fatalf("%q: expected a in argument position", source)
		}
	}
}

func TestIfRequiresElse(t *testing.T) {
	_, diags := Parse("if x then 1", "test.hbl")
	testutil.RequireCode(t, diags, diagnostics.EMissingElse)
}

func TestMatchArms(t *testing.T) {
	expr := parseOne(t, "match x | Some y -> y | None -> 0")
	match, ok := expr.(*ast.Match)
	if !ok {
		t.Fatalf("expected a match, got %s", expr.Kind())
	}
	if len(match.Arms) != 2 {
		t.Fatalf("expected 2 arms, got %d", len(match.Arms))
	}
	ctor, ok := match.Arms[0].Pattern.(*ast.ConstructorPattern)
	if !ok || ctor.Name != "Some" || len(ctor.Args) != 1 {
		t.Fatal("first arm should be the Some pattern with one argument")
	}
}

func TestMatchRequiresArms(t *testing.T) {
	_, diags := Parse("match x", "test.hbl")
	if !diagnostics.HasErrors(diags) {
		t.Fatal("a match with no arms must be a parse error")
	}
}

func TestLetFunctionSugar(t *testing.T) {
	expr := parseOne(t, "let add x y = x + y")
	let, ok := expr.(*ast.Let)
	if !ok {
		t.Fatalf("expected a let, got %s", expr.Kind())
	}
	outer, ok := let.Value.(*ast.Lambda)
	if !ok {
		t.Fatal("parameters should desugar to a lambda")
	}
	if _, ok := outer.Body.(*ast.Lambda); !ok {
		t.Fatal("two parameters should desugar to nested lambdas")
	}
}

func TestLetBlockBody(t *testing.T) {
	source := "let f x :=\nlet y = x\ny\nend"
	expr := parseOne(t, source)
	let := expr.(*ast.Let)
	lambda, ok := let.Value.(*ast.Lambda)
	if !ok {
		t.Fatal("expected the parameter lambda")
	}
	if _, ok := lambda.Body.(*ast.Block); !ok {
		t.Fatalf("expected a block body, got %s", lambda.Body.Kind())
	}
}

func TestBlockOfOneExprDegenerates(t *testing.T) {
	expr := parseOne(t, "let f x := x end")
	let := expr.(*ast.Let)
	lambda := let.Value.(*ast.Lambda)
	if _, ok := lambda.Body.(*ast.Name); !ok {
		t.Fatalf("single-expression block should degenerate, got %s", lambda.Body.Kind())
	}
}

func TestAnnotation(t *testing.T) {
	expr := parseOne(t, "x :: List Int")
	annot, ok := expr.(*ast.Annotation)
	if !ok {
		t.Fatalf("expected an annotation, got %s", expr.Kind())
	}
	named, ok := annot.Type.(*ast.NamedTypeRef)
	if !ok || named.Name != "List" || len(named.Args) != 1 {
		t.Fatal("expected the List Int type reference")
	}
}

func TestPatterns(t *testing.T) {
	tests := []struct {
		name   string
		source string
		check  func(t *testing.T, pattern ast.Pattern)
	}{
		{
			name:   "wildcard",
			source: "match x | _ -> 1",
			check: func(t *testing.T, pattern ast.Pattern) {
				if _, ok := pattern.(*ast.WildcardPattern); !ok {
					t.Fatalf("got %s", pattern.Kind())
				}
			},
		},
		{
			name:   "pin",
			source: "match x | ^y -> 1",
			check: func(t *testing.T, pattern ast.Pattern) {
				pin, ok := pattern.(*ast.PinPattern)
				if !ok || pin.Name != "y" {
					t.Fatalf("got %s", pattern.Kind())
				}
			},
		},
		{
			name:   "list with rest",
			source: "match x | [a, ..rest] -> a",
			check: func(t *testing.T, pattern ast.Pattern) {
				list, ok := pattern.(*ast.ListPattern)
				if !ok || len(list.Heads) != 1 || !list.HasRest || list.Rest != "rest" {
					t.Fatalf("got %#v", pattern)
				}
			},
		},
		{
			name:   "tuple pattern",
			source: "match x | (a, b) -> a",
			check: func(t *testing.T, pattern ast.Pattern) {
				tuple, ok := pattern.(*ast.TuplePattern)
				if !ok || len(tuple.Elements) != 2 {
					t.Fatalf("got %s", pattern.Kind())
				}
			},
		},
		{
			name:   "nested constructor",
			source: "match x | Some (Ok v) -> v | _ -> 0",
			check: func(t *testing.T, pattern ast.Pattern) {
				some := pattern.(*ast.ConstructorPattern)
				inner, ok := some.Args[0].(*ast.ConstructorPattern)
				if !ok || inner.Name != "Ok" {
					t.Fatalf("got %#v", some.Args[0])
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr := parseOne(t, tt.source)
			match := expr.(*ast.Match)
			tt.check(t, match.Arms[0].Pattern)
		})
	}
}

func TestStatementRecovery(t *testing.T) {
	source := "let x = )\nlet y = )\nlet z = 1"
	_, diags := Parse(source, "test.hbl")
	errorCount := 0
	for _, d := range diags {
		if d.Severity == diagnostics.SeverityError {
			errorCount++
		}
	}
	if errorCount < 2 {
		t.Fatalf("expected recovery to surface both errors, got %d", errorCount)
	}
}

func TestUnmatchedDelimiters(t *testing.T) {
	sources := []string{
		"(1 + 2",
		"[1, 2",
		"match x | (a, b -> 1",
		"match x | [a, b -> 1",
	}
	for _, source := range sources {
		t.Run(source, func(t *testing.T) {
			_, diags := Parse(source, "test.hbl")
			testutil.RequireCode(t, diags, diagnostics.EUnmatchedDelimiter)
		})
	}
}

func TestBracesRejected(t *testing.T) {
	_, diags := Parse("{1}", "test.hbl")
	if !diagnostics.HasErrors(diags) {
		t.Fatal("braces are reserved and must not parse")
	}
}

func FuzzParse(f *testing.F) {
	f.Add("let main(args) := 0 end")
	f.Add("match x | Some y -> y | None -> 0")
	f.Add("1 + 2 * 3 ^ 4")
	f.Add("\\x -> x |> f")
	f.Add("((((")
	f.Fuzz(func(t *testing.T, source string) {
		program, diags := Parse(source, "fuzz.hbl")
		if program == nil && !diagnostics.HasErrors(diags) {
			t.Fatal("a nil program must come with error diagnostics")
		}
	})
}
