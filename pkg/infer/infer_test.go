package infer

import (
	"testing"

	"github.com/Armani-T/Hanno/internal/testutil"
	"github.com/Armani-T/Hanno/pkg/ast"
	"github.com/Armani-T/Hanno/pkg/diagnostics"
	"github.com/Armani-T/Hanno/pkg/parser"
)

func inferSource(t *testing.T, source string) (*Result, []diagnostics.Diagnostic) {
	t.Helper()
	program, diags := parser.Parse(source, "test.hbl")
	testutil.RequireNoErrors(t, diags)
	return Infer(program)
}

func TestLetPolymorphism(t *testing.T) {
	source := "let id = \\x -> x\nlet a = id 1\nlet b = id \"hello\""
	_, diags := inferSource(t, source)
	testutil.RequireNoErrors(t, diags)
}

func TestRecursiveFunctionsStayPolymorphic(t *testing.T) {
	// The recursion pre-binding must not leak into generalization.
	source := "let size = \\xs -> match xs | [] -> 0 | [_, ..rest] -> 1 + size rest\n(size [1], size [\"a\"])"
	_, diags := inferSource(t, source)
	testutil.RequireNoErrors(t, diags)
}

func TestLambdaParamNotGeneralizedByInnerLet(t *testing.T) {
	// g fixes its result to the enclosing parameter's type, so using g
	// at Int and then x at Bool must clash.
	source := "let f x :=\nlet g = \\y -> x + y\n(g 1, x and True)\nend"
	_, diags := inferSource(t, source)
	testutil.RequireCode(t, diags, diagnostics.ETypeMismatch)
}

func TestLambdaParameterIsMonomorphic(t *testing.T) {
	// A lambda-bound name used at Int and Bool in one body must fail.
	source := "let f = \\x -> (x + 1, x and True)"
	_, diags := inferSource(t, source)
	testutil.RequireCode(t, diags, diagnostics.ETypeMismatch)
}

func TestOccursCheck(t *testing.T) {
	source := "let f = \\x -> x x"
	_, diags := inferSource(t, source)
	testutil.RequireCode(t, diags, diagnostics.EInfiniteType)
}

func TestUnboundName(t *testing.T) {
	_, diags := inferSource(t, "missing 1")
	testutil.RequireCode(t, diags, diagnostics.EUnboundName)
}

func TestIfConditionMustBeBool(t *testing.T) {
	_, diags := inferSource(t, "if 1 then 2 else 3")
	testutil.RequireCode(t, diags, diagnostics.ETypeMismatch)
}

func TestIfBranchesMustAgree(t *testing.T) {
	_, diags := inferSource(t, "if True then 1 else \"no\"")
	testutil.RequireCode(t, diags, diagnostics.ETypeMismatch)
}

func TestAnnotationChecked(t *testing.T) {
	t.Run("matching annotation passes", func(t *testing.T) {
		_, diags := inferSource(t, "1 :: Int")
		testutil.RequireNoErrors(t, diags)
	})
	t.Run("wrong annotation fails", func(t *testing.T) {
		_, diags := inferSource(t, "1 :: String")
		testutil.RequireCode(t, diags, diagnostics.ETypeMismatch)
	})
	t.Run("unknown type name fails", func(t *testing.T) {
		_, diags := inferSource(t, "1 :: Widget")
		testutil.RequireCode(t, diags, diagnostics.EBadAnnotation)
	})
}

func TestListElementsUnify(t *testing.T) {
	_, diags := inferSource(t, "[1, 2, \"three\"]")
	testutil.RequireCode(t, diags, diagnostics.ETypeMismatch)
}

func TestRecursiveFunctionTypes(t *testing.T) {
	source := "let count = \\xs -> match xs | [] -> 0 | [_, ..rest] -> 1 + count rest\ncount [1, 2]"
	_, diags := inferSource(t, source)
	testutil.RequireNoErrors(t, diags)
}

func TestConstructors(t *testing.T) {
	t.Run("constructor application", func(t *testing.T) {
		_, diags := inferSource(t, "Some 1")
		testutil.RequireNoErrors(t, diags)
	})
	t.Run("constructor arity in patterns", func(t *testing.T) {
		_, diags := inferSource(t, "match Some 1 | Some -> 0 | None -> 1")
		testutil.RequireCode(t, diags, diagnostics.ETypeMismatch)
	})
	t.Run("match arms see constructor fields", func(t *testing.T) {
		source := "match Some 1 | Some n -> n + 1 | None -> 0"
		_, diags := inferSource(t, source)
		testutil.RequireNoErrors(t, diags)
	})
}

func TestMatchArmBodiesUnify(t *testing.T) {
	source := "match Some 1 | Some n -> n | None -> \"zero\""
	_, diags := inferSource(t, source)
	testutil.RequireCode(t, diags, diagnostics.ETypeMismatch)
}

func TestMatchTypesRecorded(t *testing.T) {
	program, diags := parser.Parse("match Some 1 | Some n -> n | None -> 0", "test.hbl")
	testutil.RequireNoErrors(t, diags)
	result, inferDiags := Infer(program)
	testutil.RequireNoErrors(t, inferDiags)
	match := program.Exprs[0].(*ast.Match)
	subjectType, ok := result.MatchTypes[match]
	if !ok {
		t.Fatal("match scrutinee type not recorded")
	}
	if subjectType.String() != "Option Int" {
		t.Fatalf("scrutinee type = %s, want Option Int", subjectType)
	}
}

func TestOneFailurePerTopLevelBinding(t *testing.T) {
	// Two independently broken bindings report two errors.
	source := "let a = 1 + \"x\"\nlet b = missing\nlet c = 3"
	_, diags := inferSource(t, source)
	errorCount := 0
	for _, d := range diags {
		if d.Severity == diagnostics.SeverityError {
			errorCount++
		}
	}
	if errorCount != 2 {
		t.Fatalf("expected 2 independent failures, got %d:\n%s",
			errorCount, diagnostics.FormatDiagnostics(diags, true))
	}
}

func TestPinPatternRequiresBinding(t *testing.T) {
	_, diags := inferSource(t, "match 1 | ^missing -> 0 | _ -> 1")
	testutil.RequireCode(t, diags, diagnostics.EUnboundName)
}

func TestBuiltins(t *testing.T) {
	_, diags := inferSource(t, "print_line \"hi\"")
	testutil.RequireNoErrors(t, diags)

	_, diags = inferSource(t, "print_line 1")
	testutil.RequireCode(t, diags, diagnostics.ETypeMismatch)
}
