package lexer

import "github.com/Armani-T/Hanno/pkg/ast"

// validEnds are the token types that may end a statement: if a line's
// last token is one of these, an EOL can be inferred after it.
var validEnds = map[TokenType]bool{
	TokEnd:      true,
	TokFalse:    true,
	TokTrue:     true,
	TokIntLit:   true,
	TokFloatLit: true,
	TokStringLit: true,
	TokName:     true,
	TokTypeName: true,
	TokRParen:   true,
	TokRBracket: true,
	TokRBrace:   true,
}

// validStarts are the token types that may begin a statement: an EOL is
// only inferred when the next line starts with one of these.
var validStarts = map[TokenType]bool{
	TokTilde:    true,
	TokLBracket: true,
	TokLParen:   true,
	TokBSlash:   true,
	TokEnd:      true,
	TokLet:      true,
	TokIf:       true,
	TokFalse:    true,
	TokTrue:     true,
	TokIntLit:   true,
	TokFloatLit: true,
	TokStringLit: true,
	TokName:     true,
	TokTypeName: true,
}

func canAddEOL(prev, next Token, bracketDepth int) bool {
	return bracketDepth == 0 && validEnds[prev.Type] && validStarts[next.Type]
}

func isOpener(t TokenType) bool {
	return t == TokLParen || t == TokLBracket || t == TokLBrace
}

func isCloser(t TokenType) bool {
	return t == TokRParen || t == TokRBracket || t == TokRBrace
}

// inferEOLs replaces raw newline tokens with EOL tokens where the
// surrounding token shapes call for a statement terminator. Newlines
// inside brackets or parentheses never terminate a statement. A final
// EOL is synthesized before EOF when the stream is non-empty and does
// not already end in one.
func inferEOLs(raw []Token) []Token {
	out := make([]Token, 0, len(raw))
	bracketDepth := 0
	var prev Token
	havePrev := false

	for i := 0; i < len(raw); i++ {
		tok := raw[i]
		switch {
		case tok.Type == TokNewline:
			if !havePrev || i+1 >= len(raw) {
				continue
			}
			next := raw[i+1]
			if next.Type == TokEOF {
				continue
			}
			if canAddEOL(prev, next, bracketDepth) {
				out = append(out, Token{
					Type: TokEOL,
					Span: ast.Merge(prev.Span, next.Span),
				})
			}
		case tok.Type == TokEOF:
			if havePrev && prev.Type != TokEOL {
				out = append(out, Token{Type: TokEOL, Span: prev.Span})
			}
			out = append(out, tok)
		default:
			if isOpener(tok.Type) {
				bracketDepth++
			} else if isCloser(tok.Type) && bracketDepth > 0 {
				// An unmatched closer is the parser's error to report; it
				// must not swallow statement terminators for the rest of
				// the file.
				bracketDepth--
			}
			out = append(out, tok)
			prev = tok
			havePrev = true
		}
	}
	return out
}
