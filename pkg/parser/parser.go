// Package parser implements the Hanno language parser.
package parser

import (
	"fmt"
	"strconv"

	"github.com/Armani-T/Hanno/pkg/ast"
	"github.com/Armani-T/Hanno/pkg/diagnostics"
	"github.com/Armani-T/Hanno/pkg/lexer"
)

// Precedence ladder, low to high. Operators bind tighter the higher
// their level; an infix operator is consumed only when its level is
// strictly greater than the level of the surrounding context.
const (
	precLet        = 0
	precAnnotation = 3
	precComma      = 10
	precLambda     = 20
	precIf         = 30
	precMatch      = 35
	precAnd        = 40
	precOr         = 50
	precNot        = 55
	precComparison = 60
	precAdditive   = 80
	precMultiply   = 90
	precPower      = 100
	precUnary      = 110
	precApply      = 120
	precDot        = 130
)

type parser struct {
	tokens []lexer.Token
	pos    int
	diags  []diagnostics.Diagnostic
}

// Parse tokenizes source and parses it into a Program. The parser
// recovers at statement boundaries so it can report more than one error
// per run; a non-empty diagnostic slice means the program is unusable.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, lexDiags := lexer.Tokenize(source, filename)
	if diagnostics.HasErrors(lexDiags) {
		return nil, lexDiags
	}

	p := &parser{tokens: tokens, pos: 0}
	prog := p.parseProgram(filename)
	if len(p.diags) > 0 {
		return nil, append(lexDiags, p.diags...)
	}
	return prog, lexDiags
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) consumeIf(typ lexer.TokenType) bool {
	if p.peek() == typ {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(typ lexer.TokenType) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.addError(diagnostics.EUnexpectedToken,
			fmt.Sprintf("expected %s, got %s", tokenName(typ), describe(tok)), &tok.Span)
		return tok, false
	}
	return p.advance(), true
}

// expectCloser consumes the closing half of a bracket pair, reporting
// the span of the opener when it is missing.
func (p *parser) expectCloser(typ lexer.TokenType, openSpan ast.Span) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.addError(diagnostics.EUnmatchedDelimiter,
			fmt.Sprintf("unmatched delimiter, expected %s before %s", tokenName(typ), describe(tok)),
			&openSpan)
		return tok, false
	}
	return p.advance(), true
}

func (p *parser) addError(code, msg string, span *ast.Span) {
	p.diags = append(p.diags, diagnostics.New(diagnostics.StageParse, code, msg, span))
}

// resync skips forward to just past the next statement boundary so the
// parser can report further errors after a failure.
func (p *parser) resync() {
	for p.peek() != lexer.TokEOF {
		if p.advance().Type == lexer.TokEOL {
			return
		}
	}
}

func tokenName(t lexer.TokenType) string {
	switch t {
	case lexer.TokName:
		return "a name"
	case lexer.TokTypeName:
		return "a type name"
	case lexer.TokIntLit:
		return "an integer"
	case lexer.TokArrow:
		return "'->'"
	case lexer.TokThen:
		return "'then'"
	case lexer.TokElse:
		return "'else'"
	case lexer.TokEnd:
		return "'end'"
	case lexer.TokEqual:
		return "'='"
	case lexer.TokRParen:
		return "')'"
	case lexer.TokRBracket:
		return "']'"
	case lexer.TokPipe:
		return "'|'"
	case lexer.TokEOL:
		return "end of statement"
	case lexer.TokEOF:
		return "end of file"
	default:
		return fmt.Sprintf("token(%d)", t)
	}
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokEOF:
		return "end of file"
	case lexer.TokEOL:
		return "end of statement"
	default:
		return fmt.Sprintf("'%s'", tok.Value)
	}
}

// --- Program & blocks ---

func (p *parser) parseProgram(filename string) *ast.Program {
	startSpan := p.current().Span
	exprs := p.parseBlockExprs(lexer.TokEOF)
	endSpan := startSpan
	if len(exprs) > 0 {
		endSpan = exprs[len(exprs)-1].NodeSpan()
	}
	return &ast.Program{
		Span:  ast.Merge(startSpan, endSpan),
		Exprs: exprs,
	}
}

// parseBlockExprs parses EOL-terminated expressions until the end token
// is consumed. On error it resyncs to the next statement boundary.
func (p *parser) parseBlockExprs(end lexer.TokenType) []ast.Expr {
	var exprs []ast.Expr
	for !p.consumeIf(end) {
		if p.peek() == lexer.TokEOF && end != lexer.TokEOF {
			tok := p.current()
			p.addError(diagnostics.EUnexpectedToken,
				fmt.Sprintf("expected %s before end of file", tokenName(end)), &tok.Span)
			return exprs
		}
		if p.consumeIf(lexer.TokEOL) {
			continue
		}
		expr := p.parseExpr(precLet)
		if expr == nil {
			p.resync()
			continue
		}
		exprs = append(exprs, expr)
		if p.peek() != end && !p.consumeIf(lexer.TokEOL) {
			tok := p.current()
			p.addError(diagnostics.EUnexpectedToken,
				fmt.Sprintf("expected end of statement, got %s", describe(tok)), &tok.Span)
			p.resync()
		}
	}
	return exprs
}

// parseBlock wraps parseBlockExprs into a single expression: a block of
// one expression degenerates to that expression and an empty block is
// the unit value.
func (p *parser) parseBlock(end lexer.TokenType) ast.Expr {
	startSpan := p.current().Span
	exprs := p.parseBlockExprs(end)
	switch len(exprs) {
	case 0:
		return &ast.UnitLit{Span: startSpan}
	case 1:
		return exprs[0]
	default:
		span := ast.Merge(exprs[0].NodeSpan(), exprs[len(exprs)-1].NodeSpan())
		return &ast.Block{Span: span, Exprs: exprs}
	}
}

// --- Pratt core ---

var infixPrecedence = map[lexer.TokenType]int{
	lexer.TokColonColon:  precAnnotation,
	lexer.TokComma:       precComma,
	lexer.TokAnd:         precAnd,
	lexer.TokOr:          precOr,
	lexer.TokGreater:     precComparison,
	lexer.TokLess:        precComparison,
	lexer.TokGreaterEq:   precComparison,
	lexer.TokLessEq:      precComparison,
	lexer.TokEqual:       precComparison,
	lexer.TokFSlashEqual: precComparison,
	lexer.TokPlus:        precAdditive,
	lexer.TokDash:        precAdditive,
	lexer.TokDiamond:     precAdditive,
	lexer.TokStar:        precMultiply,
	lexer.TokFSlash:      precMultiply,
	lexer.TokPercent:     precMultiply,
	lexer.TokCaret:       precPower,
	lexer.TokPipeGreater: precApply,
	lexer.TokDot:         precDot,
}

var binaryOps = map[lexer.TokenType]ast.BinaryOp{
	lexer.TokAnd:         ast.OpAnd,
	lexer.TokOr:          ast.OpOr,
	lexer.TokGreater:     ast.OpGt,
	lexer.TokLess:        ast.OpLt,
	lexer.TokGreaterEq:   ast.OpGtEq,
	lexer.TokLessEq:      ast.OpLtEq,
	lexer.TokEqual:       ast.OpEq,
	lexer.TokFSlashEqual: ast.OpNeq,
	lexer.TokPlus:        ast.OpAdd,
	lexer.TokDash:        ast.OpSub,
	lexer.TokDiamond:     ast.OpConcat,
	lexer.TokStar:        ast.OpMul,
	lexer.TokFSlash:      ast.OpDiv,
	lexer.TokPercent:     ast.OpMod,
	lexer.TokCaret:       ast.OpPow,
}

func isComparison(t lexer.TokenType) bool {
	return infixPrecedence[t] == precComparison && binaryOps[t] != ""
}

func (p *parser) parseExpr(precedence int) ast.Expr {
	var left ast.Expr
	switch p.peek() {
	case lexer.TokLet:
		left = p.parseLet()
	case lexer.TokBSlash:
		left = p.parseLambda()
	case lexer.TokIf:
		left = p.parseIf()
	case lexer.TokMatch:
		left = p.parseMatch()
	case lexer.TokDash, lexer.TokTilde:
		tok := p.advance()
		operand := p.parseExpr(precUnary)
		if operand == nil {
			return nil
		}
		left = &ast.Unary{Span: ast.Merge(tok.Span, operand.NodeSpan()), Op: ast.OpNeg, Operand: operand}
	case lexer.TokNot:
		tok := p.advance()
		operand := p.parseExpr(precNot)
		if operand == nil {
			return nil
		}
		left = &ast.Unary{Span: ast.Merge(tok.Span, operand.NodeSpan()), Op: ast.OpNot, Operand: operand}
	default:
		left = p.parseApply()
	}
	if left == nil {
		return nil
	}

	for {
		opPrec, isInfix := infixPrecedence[p.peek()]
		if !isInfix || opPrec <= precedence {
			return left
		}
		left = p.parseInfix(left)
		if left == nil {
			return nil
		}
	}
}

func (p *parser) parseInfix(left ast.Expr) ast.Expr {
	opTok := p.current()
	switch opTok.Type {
	case lexer.TokComma:
		return p.parseTuple(left)
	case lexer.TokColonColon:
		p.advance()
		typeRef := p.parseTypeRef()
		if typeRef == nil {
			return nil
		}
		return &ast.Annotation{
			Span: ast.Merge(left.NodeSpan(), typeRef.NodeSpan()),
			Expr: left,
			Type: typeRef,
		}
	case lexer.TokDot, lexer.TokPipeGreater:
		// `a.f` and `a |> f` both rewrite to `f(a)`.
		p.advance()
		var fn ast.Expr
		if opTok.Type == lexer.TokDot {
			fn = p.parseFactor()
		} else {
			fn = p.parseExpr(infixPrecedence[lexer.TokPipeGreater])
		}
		if fn == nil {
			return nil
		}
		return &ast.Apply{
			Span: ast.Merge(left.NodeSpan(), fn.NodeSpan()),
			Func: fn,
			Arg:  left,
		}
	}

	op, ok := binaryOps[opTok.Type]
	if !ok {
		p.addError(diagnostics.EUnexpectedToken,
			fmt.Sprintf("unexpected %s", describe(opTok)), &opTok.Span)
		return nil
	}
	p.advance()

	prec := infixPrecedence[opTok.Type]
	if opTok.Type == lexer.TokCaret {
		prec-- // right-associative
	}
	right := p.parseExpr(prec)
	if right == nil {
		return nil
	}
	if isComparison(opTok.Type) && isComparison(p.peek()) {
		tok := p.current()
		p.addError(diagnostics.EUnexpectedToken,
			"comparison operators are non-associative and cannot be chained", &tok.Span)
		return nil
	}
	return &ast.Binary{
		Span:  ast.Merge(left.NodeSpan(), right.NodeSpan()),
		Op:    op,
		Left:  left,
		Right: right,
	}
}

// parseTuple collects a flat `,`-separated element list. Nested tuples
// only arise from explicit parentheses.
func (p *parser) parseTuple(first ast.Expr) ast.Expr {
	elements := []ast.Expr{first}
	for p.consumeIf(lexer.TokComma) {
		elem := p.parseExpr(precComma)
		if elem == nil {
			return nil
		}
		elements = append(elements, elem)
	}
	return &ast.Tuple{
		Span:     ast.Merge(first.NodeSpan(), elements[len(elements)-1].NodeSpan()),
		Elements: elements,
	}
}

// --- Application & factors ---

func canStartFactor(t lexer.TokenType) bool {
	switch t {
	case lexer.TokLParen, lexer.TokLBracket, lexer.TokName, lexer.TokTypeName,
		lexer.TokIntLit, lexer.TokFloatLit, lexer.TokStringLit, lexer.TokTrue, lexer.TokFalse:
		return true
	}
	return false
}

// parseApply parses juxtaposition application: a factor followed by
// zero or more argument factors, left-associated.
func (p *parser) parseApply() ast.Expr {
	result := p.parseFactor()
	if result == nil {
		return nil
	}
	for canStartFactor(p.peek()) {
		arg := p.parseFactor()
		if arg == nil {
			return nil
		}
		result = &ast.Apply{
			Span: ast.Merge(result.NodeSpan(), arg.NodeSpan()),
			Func: result,
			Arg:  arg,
		}
	}
	return result
}

func (p *parser) parseFactor() ast.Expr {
	switch p.peek() {
	case lexer.TokLParen:
		return p.parseGroup()
	case lexer.TokLBracket:
		return p.parseList()
	case lexer.TokName, lexer.TokTypeName:
		tok := p.advance()
		return &ast.Name{Span: tok.Span, Value: tok.Value}
	default:
		return p.parseScalar()
	}
}

func (p *parser) parseScalar() ast.Expr {
	tok := p.current()
	switch tok.Type {
	case lexer.TokIntLit:
		p.advance()
		val, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			p.addError(diagnostics.EUnexpectedToken,
				fmt.Sprintf("integer literal %s out of range", tok.Value), &tok.Span)
			return nil
		}
		return &ast.IntLit{Span: tok.Span, Value: val}
	case lexer.TokFloatLit:
		p.advance()
		val, _ := strconv.ParseFloat(tok.Value, 64)
		return &ast.FloatLit{Span: tok.Span, Value: val}
	case lexer.TokStringLit:
		p.advance()
		return &ast.StringLit{Span: tok.Span, Value: tok.Value}
	case lexer.TokTrue:
		p.advance()
		return &ast.BoolLit{Span: tok.Span, Value: true}
	case lexer.TokFalse:
		p.advance()
		return &ast.BoolLit{Span: tok.Span, Value: false}
	default:
		p.addError(diagnostics.EUnexpectedToken,
			fmt.Sprintf("unexpected %s", describe(tok)), &tok.Span)
		return nil
	}
}

// parseGroup handles `()` (unit), a grouped expression, and
// parenthesized tuples. A single parenthesized expression parses
// identically to the unwrapped expression.
func (p *parser) parseGroup() ast.Expr {
	first, _ := p.expect(lexer.TokLParen)
	if p.peek() == lexer.TokRParen {
		last := p.advance()
		return &ast.UnitLit{Span: ast.Merge(first.Span, last.Span)}
	}
	expr := p.parseExpr(precLet)
	if expr == nil {
		return nil
	}
	if _, ok := p.expectCloser(lexer.TokRParen, first.Span); !ok {
		return nil
	}
	return expr
}

func (p *parser) parseList() ast.Expr {
	first, _ := p.expect(lexer.TokLBracket)
	var elements []ast.Expr
	for p.peek() != lexer.TokRBracket {
		elem := p.parseExpr(precComma)
		if elem == nil {
			return nil
		}
		elements = append(elements, elem)
		if !p.consumeIf(lexer.TokComma) {
			break
		}
	}
	last, ok := p.expectCloser(lexer.TokRBracket, first.Span)
	if !ok {
		return nil
	}
	return &ast.List{
		Span:     ast.Merge(first.Span, last.Span),
		Elements: elements,
	}
}

// --- Control flow & bindings ---

func (p *parser) parseIf() ast.Expr {
	first := p.advance() // consume 'if'
	cond := p.parseExpr(precIf)
	if cond == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokThen); !ok {
		return nil
	}
	then := p.parseExpr(precIf)
	if then == nil {
		return nil
	}
	if p.peek() != lexer.TokElse {
		tok := p.current()
		p.addError(diagnostics.EMissingElse,
			"if expression is missing its mandatory 'else' branch", &tok.Span)
		return nil
	}
	p.advance()
	els := p.parseExpr(precIf)
	if els == nil {
		return nil
	}
	return &ast.If{
		Span: ast.Merge(first.Span, els.NodeSpan()),
		Cond: cond,
		Then: then,
		Else: els,
	}
}

func (p *parser) parseMatch() ast.Expr {
	first := p.advance() // consume 'match'
	subject := p.parseExpr(precMatch)
	if subject == nil {
		return nil
	}

	var arms []*ast.MatchArm
	for p.consumeIf(lexer.TokPipe) {
		pattern := p.parsePattern()
		if pattern == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokArrow); !ok {
			return nil
		}
		body := p.parseExpr(precMatch)
		if body == nil {
			return nil
		}
		arms = append(arms, &ast.MatchArm{
			Span:    ast.Merge(pattern.NodeSpan(), body.NodeSpan()),
			Pattern: pattern,
			Body:    body,
		})
	}
	if len(arms) == 0 {
		tok := p.current()
		p.addError(diagnostics.EUnexpectedToken,
			"match expression requires at least one '|' arm", &tok.Span)
		return nil
	}
	return &ast.Match{
		Span:    ast.Merge(first.Span, arms[len(arms)-1].Span),
		Subject: subject,
		Arms:    arms,
	}
}

func (p *parser) parseLambda() ast.Expr {
	first := p.advance() // consume '\'
	param := p.parsePattern()
	if param == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokArrow); !ok {
		return nil
	}
	body := p.parseExpr(precLambda)
	if body == nil {
		return nil
	}
	return &ast.Lambda{
		Span:  ast.Merge(first.Span, body.NodeSpan()),
		Param: param,
		Body:  body,
	}
}

// parseLet handles three forms:
//
//	let pattern = expr
//	let name p1 p2 = expr        (sugar for nested lambdas)
//	let name p1 p2 := block end  (block-bodied definition)
func (p *parser) parseLet() ast.Expr {
	first := p.advance() // consume 'let'

	var target ast.Pattern
	var params []ast.Pattern
	if p.peek() == lexer.TokName {
		tok := p.advance()
		target = bindOrWildcard(tok)
		for p.peek() != lexer.TokColonEqual && p.peek() != lexer.TokEqual {
			param := p.parseFactorPattern()
			if param == nil {
				return nil
			}
			params = append(params, param)
		}
	} else {
		target = p.parsePattern()
		if target == nil {
			return nil
		}
	}

	var value ast.Expr
	if p.consumeIf(lexer.TokColonEqual) {
		value = p.parseBlock(lexer.TokEnd)
	} else {
		if _, ok := p.expect(lexer.TokEqual); !ok {
			return nil
		}
		value = p.parseExpr(precLet)
	}
	if value == nil {
		return nil
	}

	for i := len(params) - 1; i >= 0; i-- {
		value = &ast.Lambda{
			Span:  ast.Merge(params[i].NodeSpan(), value.NodeSpan()),
			Param: params[i],
			Body:  value,
		}
	}
	return &ast.Let{
		Span:   ast.Merge(first.Span, value.NodeSpan()),
		Target: target,
		Value:  value,
	}
}

func bindOrWildcard(tok lexer.Token) ast.Pattern {
	if tok.Value == "_" {
		return &ast.WildcardPattern{Span: tok.Span}
	}
	return &ast.BindPattern{Span: tok.Span, Name: tok.Value}
}
