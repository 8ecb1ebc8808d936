// Package lexer implements the Hanno tokenizer with EOL inference.
package lexer

import (
	"fmt"
	"strings"

	"github.com/Armani-T/Hanno/pkg/ast"
	"github.com/Armani-T/Hanno/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Keywords
	TokAnd TokenType = iota
	TokElse
	TokEnd
	TokFalse
	TokIf
	TokLet
	TokMatch
	TokNot
	TokOr
	TokThen
	TokTrue

	// Literals
	TokIntLit
	TokFloatLit
	TokStringLit

	// Names
	TokName     // lowercase-initial identifier
	TokTypeName // uppercase-initial identifier (type or constructor)

	// Operators
	TokArrow       // ->
	TokStar        // *
	TokBSlash      // \
	TokCaret       // ^
	TokColon       // :
	TokColonColon  // ::
	TokColonEqual  // :=
	TokComma       // ,
	TokDash        // -
	TokDiamond     // <>
	TokDot         // .
	TokEllipsis    // ..
	TokEqual       // =
	TokFSlash      // /
	TokFSlashEqual // /=
	TokGreater     // >
	TokGreaterEq   // >=
	TokLess        // <
	TokLessEq      // <=
	TokPercent     // %
	TokPipe        // |
	TokPipeGreater // |>
	TokPlus        // +
	TokTilde       // ~

	// Delimiters ({ and } are reserved; the grammar rejects them)
	TokLParen   // (
	TokRParen   // )
	TokLBracket // [
	TokRBracket // ]
	TokLBrace   // {
	TokRBrace   // }

	// Pseudo tokens
	TokNewline // raw newline, consumed by EOL inference
	TokEOL     // inferred statement terminator
	TokEOF
)

// Token represents a single lexer token.
type Token struct {
	Type  TokenType
	Value string
	Span  ast.Span
}

var keywords = map[string]TokenType{
	"and":   TokAnd,
	"else":  TokElse,
	"end":   TokEnd,
	"False": TokFalse,
	"if":    TokIf,
	"let":   TokLet,
	"match": TokMatch,
	"not":   TokNot,
	"or":    TokOr,
	"then":  TokThen,
	"True":  TokTrue,
}

const blockCommentMarker = "###"

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
	diags    []diagnostics.Diagnostic
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) addError(code, msg string, line, col int) {
	span := &ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1}
	s.diags = append(s.diags, diagnostics.New(diagnostics.StageLex, code, msg, span))
}

// resyncToNextLine skips the remainder of the current line so lexing can
// continue and surface more errors in one pass.
func (s *scanner) resyncToNextLine() {
	for !s.atEnd() && s.peek() != '\n' {
		s.advance()
	}
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isNameChar(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

func isUpper(ch byte) bool {
	return ch >= 'A' && ch <= 'Z'
}

// skipSpace consumes spaces and tabs, but not newlines: EOL inference
// needs to see where lines break.
func (s *scanner) skipSpace() {
	for !s.atEnd() {
		ch := s.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' {
			s.advance()
		} else {
			break
		}
	}
}

// skipLineComment consumes `#` to just before the newline, so the
// newline itself still reaches the EOL inference pass.
func (s *scanner) skipLineComment() {
	for !s.atEnd() && s.peek() != '\n' {
		s.advance()
	}
}

func (s *scanner) skipBlockComment() {
	startLine, startCol := s.line, s.col
	for i := 0; i < len(blockCommentMarker); i++ {
		s.advance()
	}
	for !s.atEnd() {
		if strings.HasPrefix(s.source[s.pos:], blockCommentMarker) {
			for i := 0; i < len(blockCommentMarker); i++ {
				s.advance()
			}
			return
		}
		s.advance()
	}
	s.addError(diagnostics.EUnterminatedComment, "unterminated block comment", startLine, startCol)
}

// scanString lexes a double-quoted string. Strings may span multiple
// lines verbatim; only `\"` and `\\` are unescaped here, other escape
// pairs are kept raw for the runtime.
func (s *scanner) scanString() (Token, bool) {
	startLine, startCol := s.line, s.col
	resyncPos := s.pos
	s.advance() // consume opening "

	var buf strings.Builder
	for !s.atEnd() {
		ch := s.peek()
		if ch == '"' {
			s.advance()
			return Token{
				Type:  TokStringLit,
				Value: buf.String(),
				Span:  s.span(startLine, startCol),
			}, true
		}
		if ch == '\\' {
			s.advance()
			if s.atEnd() {
				break
			}
			esc := s.advance()
			switch esc {
			case '"':
				buf.WriteByte('"')
			case '\\':
				buf.WriteByte('\\')
			case 'n':
				buf.WriteByte('\n')
			case 't':
				buf.WriteByte('\t')
			default:
				buf.WriteByte('\\')
				buf.WriteByte(esc)
			}
			continue
		}
		buf.WriteByte(s.advance())
	}

	s.addError(diagnostics.EUnterminatedString, "unterminated string literal", startLine, startCol)
	// Re-lex from the line after the opening quote.
	s.pos = resyncPos
	s.line, s.col = startLine, startCol
	s.advance()
	s.resyncToNextLine()
	return Token{}, false
}

func (s *scanner) scanNumber() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	isFloat := false

	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}
	// `1..` is an integer followed by an ellipsis, not a float.
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		isFloat = true
		s.advance()
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
	}

	tokType := TokIntLit
	if isFloat {
		tokType = TokFloatLit
	}
	return Token{
		Type:  tokType,
		Value: s.source[startPos:s.pos],
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) scanNameOrKeyword() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	first := s.peek()

	for !s.atEnd() && isNameChar(s.peek()) {
		s.advance()
	}
	text := s.source[startPos:s.pos]

	if tokType, ok := keywords[text]; ok {
		return Token{Type: tokType, Value: text, Span: s.span(startLine, startCol)}
	}
	tokType := TokName
	if isUpper(first) {
		tokType = TokTypeName
	}
	return Token{Type: tokType, Value: text, Span: s.span(startLine, startCol)}
}

var doubleCharTokens = map[string]TokenType{
	"->": TokArrow,
	"::": TokColonColon,
	":=": TokColonEqual,
	"<>": TokDiamond,
	"..": TokEllipsis,
	"/=": TokFSlashEqual,
	">=": TokGreaterEq,
	"<=": TokLessEq,
	"|>": TokPipeGreater,
}

var singleCharTokens = map[byte]TokenType{
	'*': TokStar,
	'\\': TokBSlash,
	'^': TokCaret,
	':': TokColon,
	',': TokComma,
	'-': TokDash,
	'.': TokDot,
	'=': TokEqual,
	'/': TokFSlash,
	'>': TokGreater,
	'<': TokLess,
	'%': TokPercent,
	'|': TokPipe,
	'+': TokPlus,
	'~': TokTilde,
	'(': TokLParen,
	')': TokRParen,
	'[': TokLBracket,
	']': TokRBracket,
	'{': TokLBrace,
	'}': TokRBrace,
}

// next scans the next raw token; ok is false when the scanner hit an
// error (already recorded) or comments/space were consumed instead.
func (s *scanner) next() (Token, bool) {
	s.skipSpace()
	if s.atEnd() {
		return Token{Type: TokEOF, Span: s.span(s.line, s.col)}, true
	}

	ch := s.peek()
	startLine, startCol := s.line, s.col

	if ch == '\n' {
		for !s.atEnd() && s.peek() == '\n' {
			s.advance()
		}
		return Token{Type: TokNewline, Value: "\n", Span: s.span(startLine, startCol)}, true
	}
	if strings.HasPrefix(s.source[s.pos:], blockCommentMarker) {
		s.skipBlockComment()
		return Token{}, false
	}
	if ch == '#' {
		s.skipLineComment()
		return Token{}, false
	}
	if ch == '"' {
		return s.scanString()
	}
	if isDigit(ch) {
		return s.scanNumber(), true
	}
	if isAlpha(ch) {
		return s.scanNameOrKeyword(), true
	}
	if tokType, ok := doubleCharTokens[s.source[s.pos:min(s.pos+2, len(s.source))]]; ok {
		text := s.source[s.pos : s.pos+2]
		s.advance()
		s.advance()
		return Token{Type: tokType, Value: text, Span: s.span(startLine, startCol)}, true
	}
	if tokType, ok := singleCharTokens[ch]; ok {
		s.advance()
		return Token{Type: tokType, Value: string(ch), Span: s.span(startLine, startCol)}, true
	}

	s.advance()
	s.addError(diagnostics.EIllegalChar, fmt.Sprintf("illegal character %q", string(ch)), startLine, startCol)
	return Token{}, false
}

func (s *scanner) scanAll() []Token {
	var tokens []Token
	for {
		tok, ok := s.next()
		if !ok {
			continue
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			return tokens
		}
	}
}

// Tokenize lexes source into a token stream with inferred EOLs, ending
// in EOF. It collects as many lex errors as it can in one pass.
func Tokenize(source, filename string) ([]Token, []diagnostics.Diagnostic) {
	s := newScanner(source, filename)
	raw := s.scanAll()
	return inferEOLs(raw), s.diags
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
