package parser

import (
	"fmt"

	"github.com/Armani-T/Hanno/pkg/ast"
	"github.com/Armani-T/Hanno/pkg/diagnostics"
	"github.com/Armani-T/Hanno/pkg/lexer"
)

// parsePattern parses a full pattern, including `,`-separated tuple
// patterns. The tuple invariant holds: one element degenerates to the
// element itself.
func (p *parser) parsePattern() ast.Pattern {
	first := p.parseConstructorPattern()
	if first == nil {
		return nil
	}
	if p.peek() != lexer.TokComma {
		return first
	}
	elements := []ast.Pattern{first}
	for p.consumeIf(lexer.TokComma) {
		elem := p.parseConstructorPattern()
		if elem == nil {
			return nil
		}
		elements = append(elements, elem)
	}
	return &ast.TuplePattern{
		Span:     ast.Merge(first.NodeSpan(), elements[len(elements)-1].NodeSpan()),
		Elements: elements,
	}
}

// parseConstructorPattern parses `Ctor p1 p2 ...` or falls through to a
// factor pattern.
func (p *parser) parseConstructorPattern() ast.Pattern {
	if p.peek() != lexer.TokTypeName {
		return p.parseFactorPattern()
	}
	tok := p.advance()
	var args []ast.Pattern
	for canStartFactorPattern(p.peek()) {
		arg := p.parseFactorPattern()
		if arg == nil {
			return nil
		}
		args = append(args, arg)
	}
	span := tok.Span
	if len(args) > 0 {
		span = ast.Merge(tok.Span, args[len(args)-1].NodeSpan())
	}
	return &ast.ConstructorPattern{Span: span, Name: tok.Value, Args: args}
}

func canStartFactorPattern(t lexer.TokenType) bool {
	switch t {
	case lexer.TokLParen, lexer.TokLBracket, lexer.TokName, lexer.TokCaret,
		lexer.TokIntLit, lexer.TokFloatLit, lexer.TokStringLit, lexer.TokTrue, lexer.TokFalse:
		return true
	}
	return false
}

func (p *parser) parseFactorPattern() ast.Pattern {
	tok := p.current()
	switch tok.Type {
	case lexer.TokName:
		p.advance()
		return bindOrWildcard(tok)
	case lexer.TokCaret:
		p.advance()
		nameTok, ok := p.expect(lexer.TokName)
		if !ok {
			return nil
		}
		return &ast.PinPattern{Span: ast.Merge(tok.Span, nameTok.Span), Name: nameTok.Value}
	case lexer.TokTypeName:
		// A bare constructor inside a larger pattern takes no arguments;
		// parenthesize to apply it.
		p.advance()
		return &ast.ConstructorPattern{Span: tok.Span, Name: tok.Value}
	case lexer.TokLBracket:
		return p.parseListPattern()
	case lexer.TokLParen:
		return p.parseGroupPattern()
	case lexer.TokIntLit, lexer.TokFloatLit, lexer.TokStringLit, lexer.TokTrue, lexer.TokFalse:
		lit := p.parseScalar()
		if lit == nil {
			return nil
		}
		return &ast.LiteralPattern{Span: lit.NodeSpan(), Lit: lit.(ast.Literal)}
	default:
		p.addError(diagnostics.EBadPattern,
			fmt.Sprintf("expected a pattern, got %s", describe(tok)), &tok.Span)
		return nil
	}
}

func (p *parser) parseGroupPattern() ast.Pattern {
	first, _ := p.expect(lexer.TokLParen)
	if p.peek() == lexer.TokRParen {
		last := p.advance()
		return &ast.LiteralPattern{
			Span: ast.Merge(first.Span, last.Span),
			Lit:  &ast.UnitLit{Span: ast.Merge(first.Span, last.Span)},
		}
	}
	pattern := p.parsePattern()
	if pattern == nil {
		return nil
	}
	if _, ok := p.expectCloser(lexer.TokRParen, first.Span); !ok {
		return nil
	}
	return pattern
}

// parseListPattern parses `[p1, p2]` and `[p1, ..rest]`.
func (p *parser) parseListPattern() ast.Pattern {
	first, _ := p.expect(lexer.TokLBracket)
	var heads []ast.Pattern
	hasRest := false
	rest := ""
	for p.peek() != lexer.TokRBracket {
		if p.consumeIf(lexer.TokEllipsis) {
			nameTok, ok := p.expect(lexer.TokName)
			if !ok {
				return nil
			}
			hasRest = true
			rest = nameTok.Value
			break
		}
		head := p.parseConstructorPattern()
		if head == nil {
			return nil
		}
		heads = append(heads, head)
		if !p.consumeIf(lexer.TokComma) {
			break
		}
	}
	last, ok := p.expectCloser(lexer.TokRBracket, first.Span)
	if !ok {
		return nil
	}
	return &ast.ListPattern{
		Span:    ast.Merge(first.Span, last.Span),
		Heads:   heads,
		HasRest: hasRest,
		Rest:    rest,
	}
}

// --- Type references ---

// parseTypeRef parses the annotation type syntax:
//
//	TypeName args... | typevar | (T, ...) | () | T -> T
func (p *parser) parseTypeRef() ast.TypeRef {
	left := p.parseTypeRefOperand()
	if left == nil {
		return nil
	}
	if p.consumeIf(lexer.TokArrow) {
		result := p.parseTypeRef() // right-associative
		if result == nil {
			return nil
		}
		return &ast.FuncTypeRef{
			Span:   ast.Merge(left.NodeSpan(), result.NodeSpan()),
			Param:  left,
			Result: result,
		}
	}
	return left
}

func (p *parser) parseTypeRefOperand() ast.TypeRef {
	tok := p.current()
	switch tok.Type {
	case lexer.TokTypeName:
		p.advance()
		var args []ast.TypeRef
		for p.peek() == lexer.TokTypeName || p.peek() == lexer.TokName || p.peek() == lexer.TokLParen {
			arg := p.parseTypeRefFactor()
			if arg == nil {
				return nil
			}
			args = append(args, arg)
		}
		span := tok.Span
		if len(args) > 0 {
			span = ast.Merge(tok.Span, args[len(args)-1].NodeSpan())
		}
		return &ast.NamedTypeRef{Span: span, Name: tok.Value, Args: args}
	case lexer.TokName:
		p.advance()
		return &ast.VarTypeRef{Span: tok.Span, Name: tok.Value}
	case lexer.TokLParen:
		return p.parseParenTypeRef()
	default:
		p.addError(diagnostics.EUnexpectedToken,
			fmt.Sprintf("expected a type, got %s", describe(tok)), &tok.Span)
		return nil
	}
}

// parseTypeRefFactor parses a type-argument position: bare names take
// no arguments of their own.
func (p *parser) parseTypeRefFactor() ast.TypeRef {
	tok := p.current()
	switch tok.Type {
	case lexer.TokTypeName:
		p.advance()
		return &ast.NamedTypeRef{Span: tok.Span, Name: tok.Value}
	case lexer.TokName:
		p.advance()
		return &ast.VarTypeRef{Span: tok.Span, Name: tok.Value}
	case lexer.TokLParen:
		return p.parseParenTypeRef()
	default:
		p.addError(diagnostics.EUnexpectedToken,
			fmt.Sprintf("expected a type, got %s", describe(tok)), &tok.Span)
		return nil
	}
}

func (p *parser) parseParenTypeRef() ast.TypeRef {
	first, _ := p.expect(lexer.TokLParen)
	if p.peek() == lexer.TokRParen {
		last := p.advance()
		return &ast.UnitTypeRef{Span: ast.Merge(first.Span, last.Span)}
	}
	var elements []ast.TypeRef
	for {
		elem := p.parseTypeRef()
		if elem == nil {
			return nil
		}
		elements = append(elements, elem)
		if !p.consumeIf(lexer.TokComma) {
			break
		}
	}
	last, ok := p.expectCloser(lexer.TokRParen, first.Span)
	if !ok {
		return nil
	}
	if len(elements) == 1 {
		return elements[0]
	}
	return &ast.TupleTypeRef{
		Span:     ast.Merge(first.Span, last.Span),
		Elements: elements,
	}
}
