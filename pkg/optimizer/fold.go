// Package optimizer implements the AST-to-AST passes that run between
// checking and code generation: constant folding and inline expansion.
package optimizer

import (
	"math"

	"github.com/Armani-T/Hanno/pkg/ast"
)

// Fold replaces every sub-expression whose result is decided by literal
// operands with the literal result. Folding is idempotent: a second
// pass over folded output changes nothing. Division and modulo by a
// literal zero are left in place for the runtime to fault on.
func Fold(program *ast.Program) *ast.Program {
	exprs := make([]ast.Expr, len(program.Exprs))
	for i, expr := range program.Exprs {
		exprs[i] = foldExpr(expr)
	}
	return &ast.Program{Span: program.Span, Exprs: exprs}
}

func foldExpr(expr ast.Expr) ast.Expr {
	switch expr := expr.(type) {
	case *ast.Tuple:
		return &ast.Tuple{Span: expr.Span, Elements: foldAll(expr.Elements)}
	case *ast.List:
		return &ast.List{Span: expr.Span, Elements: foldAll(expr.Elements)}
	case *ast.Unary:
		return foldUnary(&ast.Unary{Span: expr.Span, Op: expr.Op, Operand: foldExpr(expr.Operand)})
	case *ast.Binary:
		return foldBinary(&ast.Binary{
			Span:  expr.Span,
			Op:    expr.Op,
			Left:  foldExpr(expr.Left),
			Right: foldExpr(expr.Right),
		})
	case *ast.Apply:
		return &ast.Apply{Span: expr.Span, Func: foldExpr(expr.Func), Arg: foldExpr(expr.Arg)}
	case *ast.Lambda:
		return &ast.Lambda{Span: expr.Span, Param: expr.Param, Body: foldExpr(expr.Body)}
	case *ast.Let:
		return &ast.Let{Span: expr.Span, Target: expr.Target, Value: foldExpr(expr.Value)}
	case *ast.If:
		cond := foldExpr(expr.Cond)
		if lit, isBool := cond.(*ast.BoolLit); isBool {
			if lit.Value {
				return foldExpr(expr.Then)
			}
			return foldExpr(expr.Else)
		}
		return &ast.If{Span: expr.Span, Cond: cond, Then: foldExpr(expr.Then), Else: foldExpr(expr.Else)}
	case *ast.Match:
		arms := make([]*ast.MatchArm, len(expr.Arms))
		for i, arm := range expr.Arms {
			arms[i] = &ast.MatchArm{Span: arm.Span, Pattern: arm.Pattern, Body: foldExpr(arm.Body)}
		}
		return &ast.Match{Span: expr.Span, Subject: foldExpr(expr.Subject), Arms: arms}
	case *ast.Annotation:
		return &ast.Annotation{Span: expr.Span, Expr: foldExpr(expr.Expr), Type: expr.Type}
	case *ast.Block:
		return &ast.Block{Span: expr.Span, Exprs: foldAll(expr.Exprs)}
	default:
		return expr
	}
}

func foldAll(exprs []ast.Expr) []ast.Expr {
	out := make([]ast.Expr, len(exprs))
	for i, expr := range exprs {
		out[i] = foldExpr(expr)
	}
	return out
}

func foldUnary(expr *ast.Unary) ast.Expr {
	switch operand := expr.Operand.(type) {
	case *ast.IntLit:
		if expr.Op == ast.OpNeg {
			return &ast.IntLit{Span: expr.Span, Value: -operand.Value}
		}
	case *ast.FloatLit:
		if expr.Op == ast.OpNeg {
			return &ast.FloatLit{Span: expr.Span, Value: -operand.Value}
		}
	case *ast.BoolLit:
		if expr.Op == ast.OpNot {
			return &ast.BoolLit{Span: expr.Span, Value: !operand.Value}
		}
	}
	return expr
}

func foldBinary(expr *ast.Binary) ast.Expr {
	// Short-circuit cases fold on the left operand alone; the right
	// side never runs, so its value is irrelevant.
	if left, isBool := expr.Left.(*ast.BoolLit); isBool {
		if expr.Op == ast.OpAnd && !left.Value {
			return &ast.BoolLit{Span: expr.Span, Value: false}
		}
		if expr.Op == ast.OpOr && left.Value {
			return &ast.BoolLit{Span: expr.Span, Value: true}
		}
	}

	switch left := expr.Left.(type) {
	case *ast.IntLit:
		if right, ok := expr.Right.(*ast.IntLit); ok {
			return foldIntOp(expr, left.Value, right.Value)
		}
	case *ast.FloatLit:
		if right, ok := expr.Right.(*ast.FloatLit); ok {
			return foldFloatOp(expr, left.Value, right.Value)
		}
	case *ast.BoolLit:
		if right, ok := expr.Right.(*ast.BoolLit); ok {
			return foldBoolOp(expr, left.Value, right.Value)
		}
	case *ast.StringLit:
		if right, ok := expr.Right.(*ast.StringLit); ok {
			return foldStringOp(expr, left.Value, right.Value)
		}
	case *ast.List:
		if right, ok := expr.Right.(*ast.List); ok && expr.Op == ast.OpConcat {
			elements := append(append([]ast.Expr{}, left.Elements...), right.Elements...)
			return &ast.List{Span: expr.Span, Elements: elements}
		}
	}
	return expr
}

func foldIntOp(expr *ast.Binary, left, right int64) ast.Expr {
	switch expr.Op {
	case ast.OpAdd:
		return &ast.IntLit{Span: expr.Span, Value: left + right}
	case ast.OpSub:
		return &ast.IntLit{Span: expr.Span, Value: left - right}
	case ast.OpMul:
		return &ast.IntLit{Span: expr.Span, Value: left * right}
	case ast.OpDiv:
		if right == 0 {
			return expr
		}
		return &ast.IntLit{Span: expr.Span, Value: left / right}
	case ast.OpMod:
		if right == 0 {
			return expr
		}
		return &ast.IntLit{Span: expr.Span, Value: left % right}
	case ast.OpPow:
		if right < 0 {
			return expr
		}
		return &ast.IntLit{Span: expr.Span, Value: intPow(left, right)}
	case ast.OpGt:
		return &ast.BoolLit{Span: expr.Span, Value: left > right}
	case ast.OpLt:
		return &ast.BoolLit{Span: expr.Span, Value: left < right}
	case ast.OpGtEq:
		return &ast.BoolLit{Span: expr.Span, Value: left >= right}
	case ast.OpLtEq:
		return &ast.BoolLit{Span: expr.Span, Value: left <= right}
	case ast.OpEq:
		return &ast.BoolLit{Span: expr.Span, Value: left == right}
	case ast.OpNeq:
		return &ast.BoolLit{Span: expr.Span, Value: left != right}
	}
	return expr
}

func intPow(base, exponent int64) int64 {
	result := int64(1)
	for ; exponent > 0; exponent-- {
		result *= base
	}
	return result
}

func foldFloatOp(expr *ast.Binary, left, right float64) ast.Expr {
	switch expr.Op {
	case ast.OpAdd:
		return &ast.FloatLit{Span: expr.Span, Value: left + right}
	case ast.OpSub:
		return &ast.FloatLit{Span: expr.Span, Value: left - right}
	case ast.OpMul:
		return &ast.FloatLit{Span: expr.Span, Value: left * right}
	case ast.OpDiv:
		if right == 0 {
			return expr
		}
		return &ast.FloatLit{Span: expr.Span, Value: left / right}
	case ast.OpMod:
		if right == 0 {
			return expr
		}
		return &ast.FloatLit{Span: expr.Span, Value: math.Mod(left, right)}
	case ast.OpPow:
		return &ast.FloatLit{Span: expr.Span, Value: math.Pow(left, right)}
	case ast.OpGt:
		return &ast.BoolLit{Span: expr.Span, Value: left > right}
	case ast.OpLt:
		return &ast.BoolLit{Span: expr.Span, Value: left < right}
	case ast.OpGtEq:
		return &ast.BoolLit{Span: expr.Span, Value: left >= right}
	case ast.OpLtEq:
		return &ast.BoolLit{Span: expr.Span, Value: left <= right}
	case ast.OpEq:
		return &ast.BoolLit{Span: expr.Span, Value: left == right}
	case ast.OpNeq:
		return &ast.BoolLit{Span: expr.Span, Value: left != right}
	}
	return expr
}

func foldBoolOp(expr *ast.Binary, left, right bool) ast.Expr {
	switch expr.Op {
	case ast.OpAnd:
		return &ast.BoolLit{Span: expr.Span, Value: left && right}
	case ast.OpOr:
		return &ast.BoolLit{Span: expr.Span, Value: left || right}
	case ast.OpEq:
		return &ast.BoolLit{Span: expr.Span, Value: left == right}
	case ast.OpNeq:
		return &ast.BoolLit{Span: expr.Span, Value: left != right}
	}
	return expr
}

func foldStringOp(expr *ast.Binary, left, right string) ast.Expr {
	switch expr.Op {
	case ast.OpAdd:
		return &ast.StringLit{Span: expr.Span, Value: left + right}
	case ast.OpGt:
		return &ast.BoolLit{Span: expr.Span, Value: left > right}
	case ast.OpLt:
		return &ast.BoolLit{Span: expr.Span, Value: left < right}
	case ast.OpGtEq:
		return &ast.BoolLit{Span: expr.Span, Value: left >= right}
	case ast.OpLtEq:
		return &ast.BoolLit{Span: expr.Span, Value: left <= right}
	case ast.OpEq:
		return &ast.BoolLit{Span: expr.Span, Value: left == right}
	case ast.OpNeq:
		return &ast.BoolLit{Span: expr.Span, Value: left != right}
	}
	return expr
}
