package exhaustive

import (
	"strings"
	"testing"

	"github.com/Armani-T/Hanno/internal/testutil"
	"github.com/Armani-T/Hanno/pkg/diagnostics"
	"github.com/Armani-T/Hanno/pkg/infer"
	"github.com/Armani-T/Hanno/pkg/parser"
)

func checkSource(t *testing.T, source string) []diagnostics.Diagnostic {
	t.Helper()
	program, diags := parser.Parse(source, "test.hbl")
	testutil.RequireNoErrors(t, diags)
	result, inferDiags := infer.Infer(program)
	testutil.RequireNoErrors(t, inferDiags)
	return Check(program, result)
}

func findCode(diags []diagnostics.Diagnostic, code string) (diagnostics.Diagnostic, bool) {
	for _, d := range diags {
		if d.Code == code {
			return d, true
		}
	}
	return diagnostics.Diagnostic{}, false
}

func TestBoolCoverage(t *testing.T) {
	t.Run("one arm over Bool is incomplete", func(t *testing.T) {
		diags := checkSource(t, "let f = \\b -> match b | True -> 1")
		d, found := findCode(diags, diagnostics.ENonExhaustive)
		if !found {
			t.Fatal("expected a non-exhaustive error")
		}
		if !strings.Contains(d.Message, "False") {
			t.Fatalf("missing case should name False, got: %s", d.Message)
		}
	})
	t.Run("adding the missing literal clears it", func(t *testing.T) {
		diags := checkSource(t, "let f = \\b -> match b | True -> 1 | False -> 2")
		testutil.RequireNoErrors(t, diags)
	})
	t.Run("adding a wildcard clears it", func(t *testing.T) {
		diags := checkSource(t, "let f = \\b -> match b | True -> 1 | _ -> 2")
		testutil.RequireNoErrors(t, diags)
	})
}

func TestADTCoverage(t *testing.T) {
	t.Run("missing None arm", func(t *testing.T) {
		diags := checkSource(t, "match Some 1 | Some n -> n")
		d, found := findCode(diags, diagnostics.ENonExhaustive)
		if !found {
			t.Fatal("expected a non-exhaustive error")
		}
		if !strings.Contains(d.Message, "None") {
			t.Fatalf("missing case should name None, got: %s", d.Message)
		}
	})
	t.Run("both constructors cover", func(t *testing.T) {
		diags := checkSource(t, "match Some 1 | Some n -> n | None -> 0")
		testutil.RequireNoErrors(t, diags)
	})
	t.Run("nested patterns leave residual space", func(t *testing.T) {
		source := "match Some True | Some True -> 1 | None -> 0"
		diags := checkSource(t, source)
		d, found := findCode(diags, diagnostics.ENonExhaustive)
		if !found {
			t.Fatal("Some False is unhandled")
		}
		if !strings.Contains(d.Message, "Some") {
			t.Fatalf("witness should involve Some, got: %s", d.Message)
		}
	})
	t.Run("name binding covers a whole constructor argument", func(t *testing.T) {
		diags := checkSource(t, "match Some True | Some b -> 1 | None -> 0")
		testutil.RequireNoErrors(t, diags)
	})
}

func TestInfiniteDomains(t *testing.T) {
	t.Run("integer literals never cover", func(t *testing.T) {
		diags := checkSource(t, "match 1 | 0 -> 0 | 1 -> 1")
		testutil.RequireCode(t, diags, diagnostics.ENonExhaustive)
	})
	t.Run("catch-all covers integers", func(t *testing.T) {
		diags := checkSource(t, "match 1 | 0 -> 0 | n -> n")
		testutil.RequireNoErrors(t, diags)
	})
	t.Run("string literals never cover", func(t *testing.T) {
		diags := checkSource(t, "match \"x\" | \"a\" -> 0 | \"b\" -> 1")
		testutil.RequireCode(t, diags, diagnostics.ENonExhaustive)
	})
}

func TestListCoverage(t *testing.T) {
	t.Run("missing empty list", func(t *testing.T) {
		diags := checkSource(t, "match [1] | [x, ..rest] -> x")
		d, found := findCode(diags, diagnostics.ENonExhaustive)
		if !found {
			t.Fatal("the empty list is unhandled")
		}
		if !strings.Contains(d.Message, "[]") {
			t.Fatalf("witness should be the empty list, got: %s", d.Message)
		}
	})
	t.Run("nil plus cons-with-rest covers", func(t *testing.T) {
		diags := checkSource(t, "match [1] | [] -> 0 | [x, ..rest] -> x")
		testutil.RequireNoErrors(t, diags)
	})
	t.Run("fixed lengths never cover", func(t *testing.T) {
		diags := checkSource(t, "match [1] | [] -> 0 | [x] -> x")
		testutil.RequireCode(t, diags, diagnostics.ENonExhaustive)
	})
}

func TestTupleCoverage(t *testing.T) {
	t.Run("mixed pair leaves a gap", func(t *testing.T) {
		source := "match (True, False) | (True, True) -> 1 | (False, False) -> 2"
		diags := checkSource(t, source)
		d, found := findCode(diags, diagnostics.ENonExhaustive)
		if !found {
			t.Fatal("(True, False) is unhandled")
		}
		if !strings.Contains(d.Message, "(") {
			t.Fatalf("witness should be a tuple, got: %s", d.Message)
		}
	})
	t.Run("corner cases plus diagonal covers", func(t *testing.T) {
		source := "match (True, False) | (True, True) -> 1 | (False, _) -> 2 | (_, False) -> 3"
		diags := checkSource(t, source)
		testutil.RequireNoErrors(t, diags)
	})
	t.Run("binder pair covers", func(t *testing.T) {
		diags := checkSource(t, "match (True, False) | (a, b) -> 1")
		testutil.RequireNoErrors(t, diags)
	})
}

func TestUnreachableArms(t *testing.T) {
	t.Run("arm after catch-all warns", func(t *testing.T) {
		diags := checkSource(t, "match 1 | _ -> 0 | 1 -> 1")
		testutil.RequireCode(t, diags, diagnostics.WUnreachablePattern)
		if diagnostics.HasErrors(diags) {
			t.Fatal("unreachable arms are warnings, not errors")
		}
	})
	t.Run("duplicate constructor arm warns", func(t *testing.T) {
		source := "match Some 1 | Some n -> n | Some m -> m | None -> 0"
		diags := checkSource(t, source)
		testutil.RequireCode(t, diags, diagnostics.WUnreachablePattern)
	})
	t.Run("wildcard after full signature warns", func(t *testing.T) {
		source := "let f = \\b -> match b | True -> 1 | False -> 2 | _ -> 3"
		diags := checkSource(t, source)
		testutil.RequireCode(t, diags, diagnostics.WUnreachablePattern)
	})
}

func TestPinPatternsNeverCover(t *testing.T) {
	source := "let y = 1\nlet r = match 2 | ^y -> 0"
	diags := checkSource(t, source)
	testutil.RequireCode(t, diags, diagnostics.ENonExhaustive)
}

func TestNestedMatchesAreChecked(t *testing.T) {
	source := "let f = \\b -> if b then match b | True -> 1 else 0"
	diags := checkSource(t, source)
	testutil.RequireCode(t, diags, diagnostics.ENonExhaustive)
}
