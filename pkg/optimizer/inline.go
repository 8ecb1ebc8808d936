package optimizer

import (
	"fmt"

	"github.com/Armani-T/Hanno/pkg/ast"
)

// InlineThreshold is the highest body score a function may have and
// still be expanded at its call sites.
const InlineThreshold = 20

// InlineDepth bounds how many nested expansions one call site may
// trigger, so chains of inlinable calls cannot blow up the AST.
const InlineDepth = 5

// Inline expands calls to small let-bound functions in place,
// substituting the argument for the parameter. Functions on a call
// graph cycle, directly or mutually recursive, are never expanded.
// Substitution is capture-avoiding: names bound inside a copied body
// are alpha-renamed to fresh names before the argument is spliced in.
func Inline(program *ast.Program) *ast.Program {
	in := &inliner{funcs: map[string]*funcInfo{}}
	for _, expr := range program.Exprs {
		in.collect(expr)
	}
	in.markRecursive()

	exprs := make([]ast.Expr, len(program.Exprs))
	for i, expr := range program.Exprs {
		exprs[i] = in.rewrite(expr, InlineDepth)
	}
	return &ast.Program{Span: program.Span, Exprs: exprs}
}

type funcInfo struct {
	lambda    *ast.Lambda
	score     int
	recursive bool
	calls     map[string]bool
}

type inliner struct {
	funcs map[string]*funcInfo
	fresh int
}

// --- Candidate collection ---

func (in *inliner) collect(expr ast.Expr) {
	switch expr := expr.(type) {
	case *ast.Tuple:
		for _, e := range expr.Elements {
			in.collect(e)
		}
	case *ast.List:
		for _, e := range expr.Elements {
			in.collect(e)
		}
	case *ast.Unary:
		in.collect(expr.Operand)
	case *ast.Binary:
		in.collect(expr.Left)
		in.collect(expr.Right)
	case *ast.Apply:
		in.collect(expr.Func)
		in.collect(expr.Arg)
	case *ast.Lambda:
		in.collect(expr.Body)
	case *ast.Let:
		in.collect(expr.Value)
		bind, isName := expr.Target.(*ast.BindPattern)
		lambda, isLambda := expr.Value.(*ast.Lambda)
		if isName && isLambda {
			info := &funcInfo{
				lambda: lambda,
				score:  1 + score(lambda.Body),
				calls:  map[string]bool{},
			}
			collectCalls(lambda.Body, info.calls)
			in.funcs[bind.Name] = info
		}
	case *ast.If:
		in.collect(expr.Cond)
		in.collect(expr.Then)
		in.collect(expr.Else)
	case *ast.Match:
		in.collect(expr.Subject)
		for _, arm := range expr.Arms {
			in.collect(arm.Body)
		}
	case *ast.Annotation:
		in.collect(expr.Expr)
	case *ast.Block:
		for _, e := range expr.Exprs {
			in.collect(e)
		}
	}
}

func collectCalls(expr ast.Expr, out map[string]bool) {
	switch expr := expr.(type) {
	case *ast.Name:
		out[expr.Value] = true
	case *ast.Tuple:
		for _, e := range expr.Elements {
			collectCalls(e, out)
		}
	case *ast.List:
		for _, e := range expr.Elements {
			collectCalls(e, out)
		}
	case *ast.Unary:
		collectCalls(expr.Operand, out)
	case *ast.Binary:
		collectCalls(expr.Left, out)
		collectCalls(expr.Right, out)
	case *ast.Apply:
		collectCalls(expr.Func, out)
		collectCalls(expr.Arg, out)
	case *ast.Lambda:
		collectCalls(expr.Body, out)
	case *ast.Let:
		collectCalls(expr.Value, out)
	case *ast.If:
		collectCalls(expr.Cond, out)
		collectCalls(expr.Then, out)
		collectCalls(expr.Else, out)
	case *ast.Match:
		collectCalls(expr.Subject, out)
		for _, arm := range expr.Arms {
			collectCalls(arm.Body, out)
		}
	case *ast.Annotation:
		collectCalls(expr.Expr, out)
	case *ast.Block:
		for _, e := range expr.Exprs {
			collectCalls(e, out)
		}
	}
}

// markRecursive excludes every function that can reach itself through
// the call graph, covering both self- and mutual recursion.
func (in *inliner) markRecursive() {
	for name, info := range in.funcs {
		if in.reaches(name, name, map[string]bool{}) {
			info.recursive = true
		}
	}
}

func (in *inliner) reaches(from, target string, seen map[string]bool) bool {
	info, ok := in.funcs[from]
	if !ok {
		return false
	}
	for callee := range info.calls {
		if callee == target {
			return true
		}
		if seen[callee] {
			continue
		}
		seen[callee] = true
		if in.reaches(callee, target, seen) {
			return true
		}
	}
	return false
}

// --- Scoring ---

// score weighs AST complexity; heavier structures make a function a
// worse inlining candidate.
func score(expr ast.Expr) int {
	switch expr := expr.(type) {
	case *ast.Name:
		return 0
	case *ast.IntLit, *ast.FloatLit, *ast.BoolLit, *ast.StringLit, *ast.UnitLit:
		return 0
	case *ast.Tuple:
		total := 2
		for _, e := range expr.Elements {
			total += score(e)
		}
		return total
	case *ast.List:
		total := 0
		for _, e := range expr.Elements {
			total += score(e)
		}
		if total == 0 {
			return 1
		}
		return 3 + total
	case *ast.Unary:
		return 1 + score(expr.Operand)
	case *ast.Binary:
		return 1 + score(expr.Left) + score(expr.Right)
	case *ast.Apply:
		return 2 + score(expr.Func) + score(expr.Arg)
	case *ast.Lambda:
		return 7 + score(expr.Body)
	case *ast.Let:
		return 4 + score(expr.Value)
	case *ast.If:
		return 6 + score(expr.Cond) + score(expr.Then) + score(expr.Else)
	case *ast.Match:
		total := 6 + score(expr.Subject)
		for _, arm := range expr.Arms {
			total += 2 + score(arm.Body)
		}
		return total
	case *ast.Annotation:
		return score(expr.Expr)
	case *ast.Block:
		total := 5
		for _, e := range expr.Exprs {
			total += score(e)
		}
		return total
	default:
		return 1
	}
}

// --- Expansion ---

func (in *inliner) inlinable(name string) (*funcInfo, bool) {
	info, ok := in.funcs[name]
	if !ok || info.recursive || info.score > InlineThreshold {
		return nil, false
	}
	return info, true
}

func (in *inliner) rewrite(expr ast.Expr, depth int) ast.Expr {
	switch expr := expr.(type) {
	case *ast.Tuple:
		return &ast.Tuple{Span: expr.Span, Elements: in.rewriteAll(expr.Elements, depth)}
	case *ast.List:
		return &ast.List{Span: expr.Span, Elements: in.rewriteAll(expr.Elements, depth)}
	case *ast.Unary:
		return &ast.Unary{Span: expr.Span, Op: expr.Op, Operand: in.rewrite(expr.Operand, depth)}
	case *ast.Binary:
		return &ast.Binary{
			Span:  expr.Span,
			Op:    expr.Op,
			Left:  in.rewrite(expr.Left, depth),
			Right: in.rewrite(expr.Right, depth),
		}
	case *ast.Apply:
		return in.rewriteApply(expr, depth)
	case *ast.Lambda:
		return &ast.Lambda{Span: expr.Span, Param: expr.Param, Body: in.rewrite(expr.Body, depth)}
	case *ast.Let:
		return &ast.Let{Span: expr.Span, Target: expr.Target, Value: in.rewrite(expr.Value, depth)}
	case *ast.If:
		return &ast.If{
			Span: expr.Span,
			Cond: in.rewrite(expr.Cond, depth),
			Then: in.rewrite(expr.Then, depth),
			Else: in.rewrite(expr.Else, depth),
		}
	case *ast.Match:
		arms := make([]*ast.MatchArm, len(expr.Arms))
		for i, arm := range expr.Arms {
			arms[i] = &ast.MatchArm{Span: arm.Span, Pattern: arm.Pattern, Body: in.rewrite(arm.Body, depth)}
		}
		return &ast.Match{Span: expr.Span, Subject: in.rewrite(expr.Subject, depth), Arms: arms}
	case *ast.Annotation:
		return &ast.Annotation{Span: expr.Span, Expr: in.rewrite(expr.Expr, depth), Type: expr.Type}
	case *ast.Block:
		return &ast.Block{Span: expr.Span, Exprs: in.rewriteAll(expr.Exprs, depth)}
	default:
		return expr
	}
}

func (in *inliner) rewriteAll(exprs []ast.Expr, depth int) []ast.Expr {
	out := make([]ast.Expr, len(exprs))
	for i, expr := range exprs {
		out[i] = in.rewrite(expr, depth)
	}
	return out
}

func (in *inliner) rewriteApply(expr *ast.Apply, depth int) ast.Expr {
	fn := in.rewrite(expr.Func, depth)
	arg := in.rewrite(expr.Arg, depth)

	if depth > 0 {
		if name, isName := fn.(*ast.Name); isName {
			if info, ok := in.inlinable(name.Value); ok {
				if body, ok := in.beta(info.lambda, arg); ok {
					return in.rewrite(body, depth-1)
				}
			}
		}
		// Curried calls leave an inner expansion's residual lambda
		// directly in function position; reduce it too.
		if lambda, isLambda := fn.(*ast.Lambda); isLambda {
			if body, ok := in.beta(lambda, arg); ok {
				return in.rewrite(body, depth-1)
			}
		}
	}
	return &ast.Apply{Span: expr.Span, Func: fn, Arg: arg}
}

// beta substitutes arg for the lambda's parameter in a renamed copy of
// its body. Only simple name parameters are expanded; pattern
// parameters keep their call. A body that pins the parameter needs the
// parameter as a value, so it keeps its call too.
func (in *inliner) beta(lambda *ast.Lambda, arg ast.Expr) (ast.Expr, bool) {
	param, isBind := lambda.Param.(*ast.BindPattern)
	if !isBind || pinsName(lambda.Body, param.Name) {
		return nil, false
	}
	body := in.clone(lambda.Body, map[string]ast.Expr{param.Name: arg}, map[string]string{})
	return body, true
}

func pinsName(expr ast.Expr, name string) bool {
	found := false
	var walkPattern func(ast.Pattern)
	walkPattern = func(pattern ast.Pattern) {
		switch pattern := pattern.(type) {
		case *ast.PinPattern:
			if pattern.Name == name {
				found = true
			}
		case *ast.TuplePattern:
			for _, elem := range pattern.Elements {
				walkPattern(elem)
			}
		case *ast.ListPattern:
			for _, head := range pattern.Heads {
				walkPattern(head)
			}
		case *ast.ConstructorPattern:
			for _, arg := range pattern.Args {
				walkPattern(arg)
			}
		}
	}
	var walk func(ast.Expr)
	walk = func(e ast.Expr) {
		switch e := e.(type) {
		case *ast.Tuple:
			for _, elem := range e.Elements {
				walk(elem)
			}
		case *ast.List:
			for _, elem := range e.Elements {
				walk(elem)
			}
		case *ast.Unary:
			walk(e.Operand)
		case *ast.Binary:
			walk(e.Left)
			walk(e.Right)
		case *ast.Apply:
			walk(e.Func)
			walk(e.Arg)
		case *ast.Lambda:
			walk(e.Body)
		case *ast.Let:
			walkPattern(e.Target)
			walk(e.Value)
		case *ast.If:
			walk(e.Cond)
			walk(e.Then)
			walk(e.Else)
		case *ast.Match:
			walk(e.Subject)
			for _, arm := range e.Arms {
				walkPattern(arm.Pattern)
				walk(arm.Body)
			}
		case *ast.Annotation:
			walk(e.Expr)
		case *ast.Block:
			for _, elem := range e.Exprs {
				walk(elem)
			}
		}
	}
	walk(expr)
	return found
}

func (in *inliner) freshName(base string) string {
	in.fresh++
	return fmt.Sprintf("%s$%d", base, in.fresh)
}

// clone copies an expression, replacing substituted names and renaming
// every binder introduced inside the copy so the spliced argument can
// never be captured.
func (in *inliner) clone(expr ast.Expr, subst map[string]ast.Expr, renames map[string]string) ast.Expr {
	switch expr := expr.(type) {
	case *ast.Name:
		if renamed, ok := renames[expr.Value]; ok {
			return &ast.Name{Span: expr.Span, Value: renamed}
		}
		if replacement, ok := subst[expr.Value]; ok {
			return replacement
		}
		return expr

	case *ast.IntLit, *ast.FloatLit, *ast.BoolLit, *ast.StringLit, *ast.UnitLit:
		return expr

	case *ast.Tuple:
		return &ast.Tuple{Span: expr.Span, Elements: in.cloneAll(expr.Elements, subst, renames)}
	case *ast.List:
		return &ast.List{Span: expr.Span, Elements: in.cloneAll(expr.Elements, subst, renames)}
	case *ast.Unary:
		return &ast.Unary{Span: expr.Span, Op: expr.Op, Operand: in.clone(expr.Operand, subst, renames)}
	case *ast.Binary:
		return &ast.Binary{
			Span:  expr.Span,
			Op:    expr.Op,
			Left:  in.clone(expr.Left, subst, renames),
			Right: in.clone(expr.Right, subst, renames),
		}
	case *ast.Apply:
		return &ast.Apply{
			Span: expr.Span,
			Func: in.clone(expr.Func, subst, renames),
			Arg:  in.clone(expr.Arg, subst, renames),
		}

	case *ast.Lambda:
		inner := copyRenames(renames)
		param := in.clonePattern(expr.Param, inner)
		return &ast.Lambda{Span: expr.Span, Param: param, Body: in.clone(expr.Body, subst, inner)}

	case *ast.Let:
		// A name binding is visible inside its own value, so the binder
		// is renamed before the value is copied; a recursive inner let
		// keeps pointing at itself.
		if bind, isBind := expr.Target.(*ast.BindPattern); isBind {
			fresh := in.freshName(bind.Name)
			renames[bind.Name] = fresh
			return &ast.Let{
				Span:   expr.Span,
				Target: &ast.BindPattern{Span: bind.Span, Name: fresh},
				Value:  in.clone(expr.Value, subst, renames),
			}
		}
		value := in.clone(expr.Value, subst, renames)
		target := in.clonePattern(expr.Target, renames)
		return &ast.Let{Span: expr.Span, Target: target, Value: value}

	case *ast.If:
		return &ast.If{
			Span: expr.Span,
			Cond: in.clone(expr.Cond, subst, renames),
			Then: in.clone(expr.Then, subst, renames),
			Else: in.clone(expr.Else, subst, renames),
		}

	case *ast.Match:
		subject := in.clone(expr.Subject, subst, renames)
		arms := make([]*ast.MatchArm, len(expr.Arms))
		for i, arm := range expr.Arms {
			inner := copyRenames(renames)
			pattern := in.clonePattern(arm.Pattern, inner)
			arms[i] = &ast.MatchArm{Span: arm.Span, Pattern: pattern, Body: in.clone(arm.Body, subst, inner)}
		}
		return &ast.Match{Span: expr.Span, Subject: subject, Arms: arms}

	case *ast.Annotation:
		return &ast.Annotation{Span: expr.Span, Expr: in.clone(expr.Expr, subst, renames), Type: expr.Type}

	case *ast.Block:
		inner := copyRenames(renames)
		exprs := make([]ast.Expr, len(expr.Exprs))
		for i, e := range expr.Exprs {
			exprs[i] = in.clone(e, subst, inner)
		}
		return &ast.Block{Span: expr.Span, Exprs: exprs}

	default:
		return expr
	}
}

func (in *inliner) cloneAll(exprs []ast.Expr, subst map[string]ast.Expr, renames map[string]string) []ast.Expr {
	out := make([]ast.Expr, len(exprs))
	for i, expr := range exprs {
		out[i] = in.clone(expr, subst, renames)
	}
	return out
}

func copyRenames(renames map[string]string) map[string]string {
	out := make(map[string]string, len(renames))
	for k, v := range renames {
		out[k] = v
	}
	return out
}

// clonePattern copies a pattern, giving every binder a fresh name and
// recording the rename for the pattern's scope.
func (in *inliner) clonePattern(pattern ast.Pattern, renames map[string]string) ast.Pattern {
	switch pattern := pattern.(type) {
	case *ast.BindPattern:
		fresh := in.freshName(pattern.Name)
		renames[pattern.Name] = fresh
		return &ast.BindPattern{Span: pattern.Span, Name: fresh}
	case *ast.TuplePattern:
		elements := make([]ast.Pattern, len(pattern.Elements))
		for i, elem := range pattern.Elements {
			elements[i] = in.clonePattern(elem, renames)
		}
		return &ast.TuplePattern{Span: pattern.Span, Elements: elements}
	case *ast.ListPattern:
		heads := make([]ast.Pattern, len(pattern.Heads))
		for i, head := range pattern.Heads {
			heads[i] = in.clonePattern(head, renames)
		}
		rest := pattern.Rest
		if pattern.HasRest && rest != "_" {
			fresh := in.freshName(rest)
			renames[rest] = fresh
			rest = fresh
		}
		return &ast.ListPattern{Span: pattern.Span, Heads: heads, HasRest: pattern.HasRest, Rest: rest}
	case *ast.ConstructorPattern:
		args := make([]ast.Pattern, len(pattern.Args))
		for i, arg := range pattern.Args {
			args[i] = in.clonePattern(arg, renames)
		}
		return &ast.ConstructorPattern{Span: pattern.Span, Name: pattern.Name, Args: args}
	case *ast.PinPattern:
		if renamed, ok := renames[pattern.Name]; ok {
			return &ast.PinPattern{Span: pattern.Span, Name: renamed}
		}
		return pattern
	default:
		// Wildcards and literals bind nothing.
		return pattern
	}
}
