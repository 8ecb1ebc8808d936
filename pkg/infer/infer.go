// Package infer implements Hindley-Milner type inference with
// let-polymorphism over the Hanno AST.
package infer

import (
	"fmt"
	"sort"

	"github.com/Armani-T/Hanno/pkg/ast"
	"github.com/Armani-T/Hanno/pkg/diagnostics"
	"github.com/Armani-T/Hanno/pkg/types"
)

// Result carries what later stages need from inference: the root
// environment (constructor registry) and the resolved scrutinee type of
// every match expression, with the final substitution already applied.
type Result struct {
	Env        *types.Env
	MatchTypes map[*ast.Match]types.Type
}

// Infer type-checks a whole program. It reports one failure per
// top-level expression: inference of an expression stops at its first
// inconsistency, but the remaining top-level expressions still run.
func Infer(program *ast.Program) (*Result, []diagnostics.Diagnostic) {
	pool := &types.Pool{}
	in := &inferer{
		pool:       pool,
		sub:        types.Subst{},
		matchTypes: map[*ast.Match]types.Type{},
	}
	env := types.BuiltinEnv(pool)

	for _, expr := range program.Exprs {
		in.inferExpr(env, expr)
	}

	for match, t := range in.matchTypes {
		in.matchTypes[match] = in.sub.Apply(t)
	}
	return &Result{Env: env, MatchTypes: in.matchTypes}, in.diags
}

type inferer struct {
	pool       *types.Pool
	sub        types.Subst
	diags      []diagnostics.Diagnostic
	matchTypes map[*ast.Match]types.Type
}

func (in *inferer) addError(code, message string, span ast.Span) {
	s := span
	in.diags = append(in.diags,
		diagnostics.New(diagnostics.StageType, code, message, &s))
}

// unify records a constraint, translating unification failures into
// positioned diagnostics.
func (in *inferer) unify(left, right types.Type, span ast.Span) bool {
	err := types.Unify(left, right, in.sub)
	if err == nil {
		return true
	}
	code := diagnostics.ETypeMismatch
	if err.Kind == types.OccursCheck {
		code = diagnostics.EInfiniteType
	}
	in.addError(code, err.Error(), span)
	return false
}

func (in *inferer) inferExpr(env *types.Env, expr ast.Expr) (types.Type, bool) {
	switch expr := expr.(type) {
	case *ast.IntLit:
		return types.IntType(), true
	case *ast.FloatLit:
		return types.FloatType(), true
	case *ast.BoolLit:
		return types.BoolType(), true
	case *ast.StringLit:
		return types.StringType(), true
	case *ast.UnitLit:
		return types.UnitType(), true

	case *ast.Name:
		scheme, ok := env.Lookup(expr.Value)
		if !ok {
			in.addError(diagnostics.EUnboundName,
				fmt.Sprintf("undefined name `%s`", expr.Value), expr.Span)
			return nil, false
		}
		return scheme.Instantiate(in.pool), true

	case *ast.Tuple:
		elems := make([]types.Type, len(expr.Elements))
		for i, elem := range expr.Elements {
			t, ok := in.inferExpr(env, elem)
			if !ok {
				return nil, false
			}
			elems[i] = t
		}
		return &types.Tuple{Elements: elems}, true

	case *ast.List:
		elem := in.pool.Fresh()
		for _, e := range expr.Elements {
			t, ok := in.inferExpr(env, e)
			if !ok {
				return nil, false
			}
			if !in.unify(elem, t, e.NodeSpan()) {
				return nil, false
			}
		}
		return types.ListOf(elem), true

	case *ast.Unary:
		return in.inferUnary(env, expr)
	case *ast.Binary:
		return in.inferBinary(env, expr)

	case *ast.Apply:
		funcType, ok := in.inferExpr(env, expr.Func)
		if !ok {
			return nil, false
		}
		argType, ok := in.inferExpr(env, expr.Arg)
		if !ok {
			return nil, false
		}
		result := in.pool.Fresh()
		if !in.unify(funcType, &types.Func{Param: argType, Result: result}, expr.Span) {
			return nil, false
		}
		return result, true

	case *ast.Lambda:
		scope := env.Child()
		param, ok := in.inferPattern(scope, expr.Param)
		if !ok {
			return nil, false
		}
		body, ok := in.inferExpr(scope, expr.Body)
		if !ok {
			return nil, false
		}
		return &types.Func{Param: param, Result: body}, true

	case *ast.Let:
		return in.inferLet(env, expr)

	case *ast.If:
		cond, ok := in.inferExpr(env, expr.Cond)
		if !ok || !in.unify(cond, types.BoolType(), expr.Cond.NodeSpan()) {
			return nil, false
		}
		thenType, ok := in.inferExpr(env, expr.Then)
		if !ok {
			return nil, false
		}
		elseType, ok := in.inferExpr(env, expr.Else)
		if !ok || !in.unify(thenType, elseType, expr.Span) {
			return nil, false
		}
		return thenType, true

	case *ast.Match:
		return in.inferMatch(env, expr)

	case *ast.Annotation:
		inferred, ok := in.inferExpr(env, expr.Expr)
		if !ok {
			return nil, false
		}
		annotated, ok := in.typeFromRef(env, expr.Type, map[string]*types.Var{})
		if !ok {
			return nil, false
		}
		if !in.unify(inferred, annotated, expr.Span) {
			return nil, false
		}
		return inferred, true

	case *ast.Block:
		scope := env.Child()
		var last types.Type = types.UnitType()
		for _, e := range expr.Exprs {
			t, ok := in.inferExpr(scope, e)
			if !ok {
				return nil, false
			}
			last = t
		}
		return last, true

	default:
		in.addError(diagnostics.ETypeMismatch,
			fmt.Sprintf("cannot infer a type for %s", expr.Kind()), expr.NodeSpan())
		return nil, false
	}
}

func (in *inferer) inferUnary(env *types.Env, expr *ast.Unary) (types.Type, bool) {
	operand, ok := in.inferExpr(env, expr.Operand)
	if !ok {
		return nil, false
	}
	if expr.Op == ast.OpNot {
		if !in.unify(operand, types.BoolType(), expr.Operand.NodeSpan()) {
			return nil, false
		}
		return types.BoolType(), true
	}
	// Negation is x -> x.
	return operand, true
}

func (in *inferer) inferBinary(env *types.Env, expr *ast.Binary) (types.Type, bool) {
	left, ok := in.inferExpr(env, expr.Left)
	if !ok {
		return nil, false
	}
	right, ok := in.inferExpr(env, expr.Right)
	if !ok {
		return nil, false
	}

	switch expr.Op {
	case ast.OpAnd, ast.OpOr:
		if !in.unify(left, types.BoolType(), expr.Left.NodeSpan()) ||
			!in.unify(right, types.BoolType(), expr.Right.NodeSpan()) {
			return nil, false
		}
		return types.BoolType(), true

	case ast.OpGt, ast.OpLt, ast.OpGtEq, ast.OpLtEq, ast.OpEq, ast.OpNeq:
		if !in.unify(left, right, expr.Span) {
			return nil, false
		}
		return types.BoolType(), true

	case ast.OpConcat:
		list := types.ListOf(in.pool.Fresh())
		if !in.unify(left, list, expr.Left.NodeSpan()) ||
			!in.unify(right, list, expr.Right.NodeSpan()) {
			return nil, false
		}
		return list, true

	default:
		// Arithmetic operators are x -> x -> x.
		if !in.unify(left, right, expr.Span) {
			return nil, false
		}
		return left, true
	}
}

// inferLet handles `let target = value`. A simple name binding is
// visible inside its own value, so directly recursive functions
// type-check; the binding is then generalized into a scheme. Pattern
// targets stay monomorphic.
func (in *inferer) inferLet(env *types.Env, expr *ast.Let) (types.Type, bool) {
	if bind, isName := expr.Target.(*ast.BindPattern); isName {
		// Snapshot the environment's variables before the recursion
		// pre-binding joins the scope; generalizing against the live
		// environment would see `self` and pin every variable of the
		// value's own type.
		outer := env.FreeVars()
		self := in.pool.Fresh()
		env.Define(bind.Name, types.MonoScheme(self))
		valueType, ok := in.inferExpr(env, expr.Value)
		if !ok {
			return nil, false
		}
		if !in.unify(self, valueType, expr.Span) {
			return nil, false
		}
		env.Define(bind.Name, in.generalize(outer, valueType))
		return types.UnitType(), true
	}

	valueType, ok := in.inferExpr(env, expr.Value)
	if !ok {
		return nil, false
	}
	targetType, ok := in.inferPattern(env, expr.Target)
	if !ok {
		return nil, false
	}
	if !in.unify(targetType, valueType, expr.Span) {
		return nil, false
	}
	return types.UnitType(), true
}

func (in *inferer) inferMatch(env *types.Env, expr *ast.Match) (types.Type, bool) {
	subject, ok := in.inferExpr(env, expr.Subject)
	if !ok {
		return nil, false
	}
	in.matchTypes[expr] = subject

	result := in.pool.Fresh()
	for _, arm := range expr.Arms {
		scope := env.Child()
		patternType, ok := in.inferPattern(scope, arm.Pattern)
		if !ok {
			return nil, false
		}
		if !in.unify(patternType, subject, arm.Pattern.NodeSpan()) {
			return nil, false
		}
		bodyType, ok := in.inferExpr(scope, arm.Body)
		if !ok {
			return nil, false
		}
		if !in.unify(result, bodyType, arm.Body.NodeSpan()) {
			return nil, false
		}
	}
	return result, true
}

// generalize quantifies the variables free in t under the current
// substitution but not reachable from the given environment variable
// set. The set is resolved through the substitution here rather than at
// capture time, so constraints discovered while inferring the value
// still count.
func (in *inferer) generalize(envVars map[int]bool, t types.Type) *types.Scheme {
	t = in.sub.Apply(t)
	envFree := map[int]bool{}
	for id := range envVars {
		for resolved := range types.FreeVars(in.sub.Apply(&types.Var{ID: id})) {
			envFree[resolved] = true
		}
	}
	scheme := &types.Scheme{Type: t}
	for id := range types.FreeVars(t) {
		if !envFree[id] {
			scheme.Vars = append(scheme.Vars, id)
		}
	}
	sort.Ints(scheme.Vars)
	return scheme
}

// inferPattern computes a pattern's type and defines its bindings in
// the given scope.
func (in *inferer) inferPattern(env *types.Env, pattern ast.Pattern) (types.Type, bool) {
	switch pattern := pattern.(type) {
	case *ast.WildcardPattern:
		return in.pool.Fresh(), true

	case *ast.BindPattern:
		v := in.pool.Fresh()
		env.Define(pattern.Name, types.MonoScheme(v))
		return v, true

	case *ast.PinPattern:
		scheme, ok := env.Lookup(pattern.Name)
		if !ok {
			in.addError(diagnostics.EUnboundName,
				fmt.Sprintf("undefined name `%s` in pin pattern", pattern.Name), pattern.Span)
			return nil, false
		}
		return scheme.Instantiate(in.pool), true

	case *ast.LiteralPattern:
		return in.inferExpr(env, pattern.Lit)

	case *ast.TuplePattern:
		elems := make([]types.Type, len(pattern.Elements))
		for i, elem := range pattern.Elements {
			t, ok := in.inferPattern(env, elem)
			if !ok {
				return nil, false
			}
			elems[i] = t
		}
		return &types.Tuple{Elements: elems}, true

	case *ast.ListPattern:
		elem := in.pool.Fresh()
		for _, head := range pattern.Heads {
			t, ok := in.inferPattern(env, head)
			if !ok {
				return nil, false
			}
			if !in.unify(elem, t, head.NodeSpan()) {
				return nil, false
			}
		}
		list := types.ListOf(elem)
		if pattern.HasRest && pattern.Rest != "_" {
			env.Define(pattern.Rest, types.MonoScheme(list))
		}
		return list, true

	case *ast.ConstructorPattern:
		ctor, ok := env.LookupConstructor(pattern.Name)
		if !ok {
			in.addError(diagnostics.EUnboundName,
				fmt.Sprintf("unknown constructor `%s`", pattern.Name), pattern.Span)
			return nil, false
		}
		if len(pattern.Args) != ctor.Arity() {
			in.addError(diagnostics.ETypeMismatch,
				fmt.Sprintf("constructor `%s` takes %d arguments, the pattern has %d",
					pattern.Name, ctor.Arity(), len(pattern.Args)), pattern.Span)
			return nil, false
		}
		t := ctor.Scheme().Instantiate(in.pool)
		for _, arg := range pattern.Args {
			fn := t.(*types.Func)
			argType, ok := in.inferPattern(env, arg)
			if !ok {
				return nil, false
			}
			if !in.unify(fn.Param, argType, arg.NodeSpan()) {
				return nil, false
			}
			t = fn.Result
		}
		return t, true

	default:
		in.addError(diagnostics.ETypeMismatch,
			fmt.Sprintf("cannot infer a type for pattern %s", pattern.Kind()), pattern.NodeSpan())
		return nil, false
	}
}

// typeFromRef converts annotation syntax to a Type. Type variables with
// the same name inside one annotation share a variable.
func (in *inferer) typeFromRef(env *types.Env, ref ast.TypeRef, vars map[string]*types.Var) (types.Type, bool) {
	switch ref := ref.(type) {
	case *ast.VarTypeRef:
		if v, ok := vars[ref.Name]; ok {
			return v, true
		}
		v := in.pool.Fresh()
		vars[ref.Name] = v
		return v, true

	case *ast.UnitTypeRef:
		return types.UnitType(), true

	case *ast.FuncTypeRef:
		param, ok := in.typeFromRef(env, ref.Param, vars)
		if !ok {
			return nil, false
		}
		result, ok := in.typeFromRef(env, ref.Result, vars)
		if !ok {
			return nil, false
		}
		return &types.Func{Param: param, Result: result}, true

	case *ast.TupleTypeRef:
		elems := make([]types.Type, len(ref.Elements))
		for i, elem := range ref.Elements {
			t, ok := in.typeFromRef(env, elem, vars)
			if !ok {
				return nil, false
			}
			elems[i] = t
		}
		return &types.Tuple{Elements: elems}, true

	case *ast.NamedTypeRef:
		return in.namedTypeFromRef(env, ref, vars)

	default:
		in.addError(diagnostics.EBadAnnotation,
			fmt.Sprintf("cannot interpret type annotation %s", ref.Kind()), ref.NodeSpan())
		return nil, false
	}
}

func (in *inferer) namedTypeFromRef(env *types.Env, ref *ast.NamedTypeRef, vars map[string]*types.Var) (types.Type, bool) {
	wantArgs := 0
	switch ref.Name {
	case "Int", "Float", "Bool", "String":
		wantArgs = 0
	case "List":
		wantArgs = 1
	default:
		adt, ok := env.LookupADT(ref.Name)
		if !ok {
			in.addError(diagnostics.EBadAnnotation,
				fmt.Sprintf("unknown type `%s`", ref.Name), ref.Span)
			return nil, false
		}
		wantArgs = len(adt.Params)
	}
	if len(ref.Args) != wantArgs {
		in.addError(diagnostics.EBadAnnotation,
			fmt.Sprintf("type `%s` takes %d arguments, the annotation has %d",
				ref.Name, wantArgs, len(ref.Args)), ref.Span)
		return nil, false
	}
	args := make([]types.Type, len(ref.Args))
	for i, arg := range ref.Args {
		t, ok := in.typeFromRef(env, arg, vars)
		if !ok {
			return nil, false
		}
		args[i] = t
	}
	return &types.Con{Name: ref.Name, Args: args}, true
}
