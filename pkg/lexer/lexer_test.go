package lexer

import (
	"testing"

	"github.com/Armani-T/Hanno/internal/testutil"
	"github.com/Armani-T/Hanno/pkg/diagnostics"
)

func tokenTypes(t *testing.T, source string) []TokenType {
	t.Helper()
	tokens, diags := Tokenize(source, "test.hbl")
	testutil.RequireNoErrors(t, diags)
	out := make([]TokenType, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Type
	}
	return out
}

func assertTypes(t *testing.T, got, want []TokenType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("token count mismatch: got %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s (full stream %v)", i, got[i], want[i], got)
		}
	}
}

func TestTokenizeBasics(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []TokenType
	}{
		{
			name:   "arithmetic",
			source: "1 + 2 * 3",
			want:   []TokenType{TokIntLit, TokPlus, TokIntLit, TokStar, TokIntLit, TokEOL, TokEOF},
		},
		{
			name:   "keywords and names",
			source: "let x = if y then 1 else 2",
			want: []TokenType{TokLet, TokName, TokEqual, TokIf, TokName, TokThen,
				TokIntLit, TokElse, TokIntLit, TokEOL, TokEOF},
		},
		{
			name:   "float versus range dots",
			source: "1.5 1..",
			want:   []TokenType{TokFloatLit, TokIntLit, TokEllipsis, TokEOL, TokEOF},
		},
		{
			name:   "double char operators",
			source: "a -> b :: c := d <> e /= f >= g <= h |> i",
			want: []TokenType{TokName, TokArrow, TokName, TokColonColon, TokName,
				TokColonEqual, TokName, TokDiamond, TokName, TokFSlashEqual, TokName,
				TokGreaterEq, TokName, TokLessEq, TokName, TokPipeGreater, TokName, TokEOL, TokEOF},
		},
		{
			name:   "type names",
			source: "Some x",
			want:   []TokenType{TokTypeName, TokName, TokEOL, TokEOF},
		},
		{
			name:   "booleans are keywords",
			source: "True False",
			want:   []TokenType{TokTrue, TokFalse, TokEOL, TokEOF},
		},
		{
			name:   "line comment hides rest of line",
			source: "1 # everything here vanishes + 2",
			want:   []TokenType{TokIntLit, TokEOL, TokEOF},
		},
		{
			name:   "block comment",
			source: "1 ### a\ncomment ### 2",
			want:   []TokenType{TokIntLit, TokIntLit, TokEOL, TokEOF},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTypes(t, tokenTypes(t, tt.source), tt.want)
		})
	}
}

func TestStringLiterals(t *testing.T) {
	tokens, diags := Tokenize(`"hello\nworld"`, "test.hbl")
	testutil.RequireNoErrors(t, diags)
	if tokens[0].Type != TokStringLit {
		t.Fatalf("expected a string token, got %s", tokens[0].Type)
	}
	if tokens[0].Value != "hello\nworld" {
		t.Fatalf("escape not applied: %q", tokens[0].Value)
	}
}

func TestMultiLineString(t *testing.T) {
	tokens, diags := Tokenize("\"line one\nline two\"", "test.hbl")
	testutil.RequireNoErrors(t, diags)
	if tokens[0].Value != "line one\nline two" {
		t.Fatalf("multi-line string mangled: %q", tokens[0].Value)
	}
}

func TestEOLInference(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantEOL bool
	}{
		{"literal then name", "1\nx", true},
		{"name then let", "x\nlet y = 1", true},
		{"closing paren then if", "(x)\nif", true},
		{"end then name", "end\nx", true},
		{"closing bracket then lambda", "[1]\n\\x -> x", true},
		{"name then open paren", "f\n(x)", true},
		{"name then tilde", "x\n~y", true},
		{"trailing operator continues", "1 +\n2", false},
		{"leading operator continues", "1\n+ 2", false},
		{"leading pipe continues", "x\n| True -> 1", false},
		{"let keyword line end continues", "let\nx = 1", false},
		{"then continues", "if x then\n1 else 2", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, _ := Tokenize(tt.source, "test.hbl")
			// Look for an EOL before the final one synthesized at EOF.
			sawMidEOL := false
			for i, tok := range tokens {
				if tok.Type == TokEOL && i < len(tokens)-2 {
					sawMidEOL = true
				}
			}
			if sawMidEOL != tt.wantEOL {
				t.Fatalf("mid-stream EOL = %t, want %t (tokens %v)", sawMidEOL, tt.wantEOL, tokens)
			}
		})
	}
}

func TestNoEOLInsideBrackets(t *testing.T) {
	types := tokenTypes(t, "[1,\n2]")
	assertTypes(t, types, []TokenType{TokLBracket, TokIntLit, TokComma, TokIntLit, TokRBracket, TokEOL, TokEOF})
}

func TestUnmatchedCloserDoesNotSuppressEOLs(t *testing.T) {
	tokens, _ := Tokenize("let x = )\nlet y = 1\nlet z = 2", "test.hbl")
	eols := 0
	for _, tok := range tokens {
		if tok.Type == TokEOL {
			eols++
		}
	}
	if eols != 3 {
		t.Fatalf("expected 3 statement terminators, got %d (tokens %v)", eols, tokens)
	}
}

func TestFinalEOLSynthesized(t *testing.T) {
	types := tokenTypes(t, "x")
	assertTypes(t, types, []TokenType{TokName, TokEOL, TokEOF})
}

func TestEmptySource(t *testing.T) {
	types := tokenTypes(t, "")
	assertTypes(t, types, []TokenType{TokEOF})
}

func TestUnterminatedString(t *testing.T) {
	_, diags := Tokenize("\"never closed\nlet x = 1", "test.hbl")
	testutil.RequireCode(t, diags, diagnostics.EUnterminatedString)
	if len(diags) != 1 {
		t.Fatalf("expected resync to swallow only the broken line, got %d diagnostics", len(diags))
	}
}

func TestUnterminatedBlockComment(t *testing.T) {
	_, diags := Tokenize("### never closed", "test.hbl")
	testutil.RequireCode(t, diags, diagnostics.EUnterminatedComment)
}

func TestIllegalCharacter(t *testing.T) {
	_, diags := Tokenize("let x = @", "test.hbl")
	testutil.RequireCode(t, diags, diagnostics.EIllegalChar)
}

func TestMultipleErrorsOneRun(t *testing.T) {
	_, diags := Tokenize("@\n$\n", "test.hbl")
	if len(diags) < 2 {
		t.Fatalf("expected the lexer to resync and report both errors, got %d", len(diags))
	}
}

func FuzzTokenize(f *testing.F) {
	f.Add("let x = 1")
	f.Add("match xs | [a, ..rest] -> a | [] -> 0")
	f.Add("\"unterminated")
	f.Add("### open block")
	f.Add("1 + 2 * (3 - 4) / 5 % 6 ^ 7")
	f.Fuzz(func(t *testing.T, source string) {
		tokens, _ := Tokenize(source, "fuzz.hbl")
		if len(tokens) == 0 {
			t.Fatal("token stream must at least contain EOF")
		}
		if tokens[len(tokens)-1].Type != TokEOF {
			t.Fatalf("token stream must end in EOF, got %s", tokens[len(tokens)-1].Type)
		}
	})
}
