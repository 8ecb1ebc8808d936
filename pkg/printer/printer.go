// Package printer renders AST nodes as an indented tree for
// inspection.
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Armani-T/Hanno/pkg/ast"
)

// Print renders a whole program.
func Print(program *ast.Program) string {
	var b strings.Builder
	for _, expr := range program.Exprs {
		writeExpr(&b, expr, 0)
	}
	return b.String()
}

// PrintExpr renders a single expression.
func PrintExpr(expr ast.Expr) string {
	var b strings.Builder
	writeExpr(&b, expr, 0)
	return b.String()
}

func line(b *strings.Builder, depth int, format string, args ...interface{}) {
	b.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(b, format, args...)
	b.WriteByte('\n')
}

func writeExpr(b *strings.Builder, expr ast.Expr, depth int) {
	switch expr := expr.(type) {
	case *ast.IntLit:
		line(b, depth, "Int %d", expr.Value)
	case *ast.FloatLit:
		line(b, depth, "Float %s", strconv.FormatFloat(expr.Value, 'g', -1, 64))
	case *ast.BoolLit:
		line(b, depth, "Bool %t", expr.Value)
	case *ast.StringLit:
		line(b, depth, "String %s", strconv.Quote(expr.Value))
	case *ast.UnitLit:
		line(b, depth, "Unit")
	case *ast.Name:
		line(b, depth, "Name %s", expr.Value)
	case *ast.Tuple:
		line(b, depth, "Tuple")
		for _, elem := range expr.Elements {
			writeExpr(b, elem, depth+1)
		}
	case *ast.List:
		line(b, depth, "List")
		for _, elem := range expr.Elements {
			writeExpr(b, elem, depth+1)
		}
	case *ast.Unary:
		line(b, depth, "Unary %s", expr.Op)
		writeExpr(b, expr.Operand, depth+1)
	case *ast.Binary:
		line(b, depth, "Binary %s", expr.Op)
		writeExpr(b, expr.Left, depth+1)
		writeExpr(b, expr.Right, depth+1)
	case *ast.Apply:
		line(b, depth, "Apply")
		writeExpr(b, expr.Func, depth+1)
		writeExpr(b, expr.Arg, depth+1)
	case *ast.Lambda:
		line(b, depth, "Lambda %s", patternString(expr.Param))
		writeExpr(b, expr.Body, depth+1)
	case *ast.Let:
		line(b, depth, "Let %s", patternString(expr.Target))
		writeExpr(b, expr.Value, depth+1)
	case *ast.If:
		line(b, depth, "If")
		writeExpr(b, expr.Cond, depth+1)
		writeExpr(b, expr.Then, depth+1)
		writeExpr(b, expr.Else, depth+1)
	case *ast.Match:
		line(b, depth, "Match")
		writeExpr(b, expr.Subject, depth+1)
		for _, arm := range expr.Arms {
			line(b, depth+1, "Arm %s", patternString(arm.Pattern))
			writeExpr(b, arm.Body, depth+2)
		}
	case *ast.Annotation:
		line(b, depth, "Annotation %s", typeRefString(expr.Type))
		writeExpr(b, expr.Expr, depth+1)
	case *ast.Block:
		line(b, depth, "Block")
		for _, inner := range expr.Exprs {
			writeExpr(b, inner, depth+1)
		}
	default:
		line(b, depth, "%s", expr.Kind())
	}
}

func patternString(pattern ast.Pattern) string {
	switch pattern := pattern.(type) {
	case *ast.WildcardPattern:
		return "_"
	case *ast.BindPattern:
		return pattern.Name
	case *ast.PinPattern:
		return "^" + pattern.Name
	case *ast.LiteralPattern:
		return litString(pattern.Lit)
	case *ast.TuplePattern:
		parts := make([]string, len(pattern.Elements))
		for i, elem := range pattern.Elements {
			parts[i] = patternString(elem)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ast.ListPattern:
		parts := make([]string, len(pattern.Heads))
		for i, head := range pattern.Heads {
			parts[i] = patternString(head)
		}
		if pattern.HasRest {
			parts = append(parts, ".."+pattern.Rest)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ast.ConstructorPattern:
		parts := make([]string, len(pattern.Args)+1)
		parts[0] = pattern.Name
		for i, arg := range pattern.Args {
			parts[i+1] = patternString(arg)
		}
		if len(pattern.Args) == 0 {
			return pattern.Name
		}
		return "(" + strings.Join(parts, " ") + ")"
	default:
		return pattern.Kind()
	}
}

func litString(lit ast.Literal) string {
	switch lit := lit.(type) {
	case *ast.IntLit:
		return strconv.FormatInt(lit.Value, 10)
	case *ast.FloatLit:
		return strconv.FormatFloat(lit.Value, 'g', -1, 64)
	case *ast.BoolLit:
		if lit.Value {
			return "True"
		}
		return "False"
	case *ast.StringLit:
		return strconv.Quote(lit.Value)
	case *ast.UnitLit:
		return "()"
	default:
		return lit.Kind()
	}
}

func typeRefString(ref ast.TypeRef) string {
	switch ref := ref.(type) {
	case *ast.NamedTypeRef:
		parts := make([]string, len(ref.Args)+1)
		parts[0] = ref.Name
		for i, arg := range ref.Args {
			parts[i+1] = typeRefString(arg)
		}
		return strings.Join(parts, " ")
	case *ast.VarTypeRef:
		return ref.Name
	case *ast.FuncTypeRef:
		return typeRefString(ref.Param) + " -> " + typeRefString(ref.Result)
	case *ast.TupleTypeRef:
		parts := make([]string, len(ref.Elements))
		for i, elem := range ref.Elements {
			parts[i] = typeRefString(elem)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ast.UnitTypeRef:
		return "()"
	default:
		return ref.Kind()
	}
}
