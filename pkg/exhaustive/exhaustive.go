// Package exhaustive checks match expressions for full coverage and
// unreachable arms using a pattern-matrix usefulness analysis.
package exhaustive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Armani-T/Hanno/pkg/ast"
	"github.com/Armani-T/Hanno/pkg/diagnostics"
	"github.com/Armani-T/Hanno/pkg/infer"
	"github.com/Armani-T/Hanno/pkg/types"
)

// Check walks the program and analyzes every match expression against
// its scrutinee type. Non-exhaustive matches produce errors naming a
// representative missing case; arms shadowed by earlier arms produce
// non-fatal warnings.
func Check(program *ast.Program, result *infer.Result) []diagnostics.Diagnostic {
	c := &checker{env: result.Env, matchTypes: result.MatchTypes}
	for _, expr := range program.Exprs {
		c.walkExpr(expr)
	}
	return c.diags
}

type checker struct {
	env        *types.Env
	matchTypes map[*ast.Match]types.Type
	diags      []diagnostics.Diagnostic
}

func (c *checker) walkExpr(expr ast.Expr) {
	switch expr := expr.(type) {
	case *ast.Tuple:
		for _, e := range expr.Elements {
			c.walkExpr(e)
		}
	case *ast.List:
		for _, e := range expr.Elements {
			c.walkExpr(e)
		}
	case *ast.Unary:
		c.walkExpr(expr.Operand)
	case *ast.Binary:
		c.walkExpr(expr.Left)
		c.walkExpr(expr.Right)
	case *ast.Apply:
		c.walkExpr(expr.Func)
		c.walkExpr(expr.Arg)
	case *ast.Lambda:
		c.walkExpr(expr.Body)
	case *ast.Let:
		c.walkExpr(expr.Value)
	case *ast.If:
		c.walkExpr(expr.Cond)
		c.walkExpr(expr.Then)
		c.walkExpr(expr.Else)
	case *ast.Annotation:
		c.walkExpr(expr.Expr)
	case *ast.Block:
		for _, e := range expr.Exprs {
			c.walkExpr(e)
		}
	case *ast.Match:
		c.walkExpr(expr.Subject)
		for _, arm := range expr.Arms {
			c.walkExpr(arm.Body)
		}
		c.checkMatch(expr)
	}
}

func (c *checker) checkMatch(match *ast.Match) {
	subjectType, ok := c.matchTypes[match]
	if !ok {
		return
	}

	rows := make([][]pat, len(match.Arms))
	for i, arm := range match.Arms {
		rows[i] = []pat{c.normalize(arm.Pattern)}
	}
	colTypes := []types.Type{subjectType}

	// An arm is unreachable when it adds nothing beyond the arms above it.
	for i, arm := range match.Arms {
		if witness := c.useful(rows[:i], rows[i], colTypes); witness == nil {
			span := arm.Pattern.NodeSpan()
			c.diags = append(c.diags, diagnostics.NewWarning(
				diagnostics.StageExhaustiveness, diagnostics.WUnreachablePattern,
				"this pattern is unreachable, every value it matches is handled by an earlier arm",
				&span))
		}
	}

	if witness := c.useful(rows, []pat{wildPat{}}, colTypes); witness != nil {
		span := match.Subject.NodeSpan()
		c.diags = append(c.diags, diagnostics.New(
			diagnostics.StageExhaustiveness, diagnostics.ENonExhaustive,
			fmt.Sprintf("this match is not exhaustive, the case `%s` is not handled",
				render(witness[0])),
			&span))
	}
}

// --- Pattern normalization ---

// Lists desugar to Cons/Nil so the one matrix algorithm covers them.
const (
	tupleCtor = "(,)"
	consCtor  = "Cons"
	nilCtor   = "Nil"
)

type pat interface{ patMarker() }

// wildPat covers the whole remaining space. Name binds normalize to it.
type wildPat struct{}

// ctorPat is one tag of a finite constructor domain.
type ctorPat struct {
	name string
	args []pat
}

// litPat is a value from an infinite domain (Int, Float, String) or a
// pinned name; it never contributes to coverage completeness.
type litPat struct {
	key string
}

func (wildPat) patMarker() {}
func (ctorPat) patMarker() {}
func (litPat) patMarker()  {}

func (c *checker) normalize(pattern ast.Pattern) pat {
	switch pattern := pattern.(type) {
	case *ast.WildcardPattern, *ast.BindPattern:
		return wildPat{}
	case *ast.PinPattern:
		return litPat{key: "^" + pattern.Name}
	case *ast.LiteralPattern:
		return normalizeLiteral(pattern.Lit)
	case *ast.TuplePattern:
		args := make([]pat, len(pattern.Elements))
		for i, elem := range pattern.Elements {
			args[i] = c.normalize(elem)
		}
		return ctorPat{name: tupleCtor, args: args}
	case *ast.ListPattern:
		var tail pat
		if pattern.HasRest {
			tail = wildPat{}
		} else {
			tail = ctorPat{name: nilCtor}
		}
		for i := len(pattern.Heads) - 1; i >= 0; i-- {
			tail = ctorPat{name: consCtor, args: []pat{c.normalize(pattern.Heads[i]), tail}}
		}
		return tail
	case *ast.ConstructorPattern:
		args := make([]pat, len(pattern.Args))
		for i, arg := range pattern.Args {
			args[i] = c.normalize(arg)
		}
		return ctorPat{name: pattern.Name, args: args}
	default:
		return wildPat{}
	}
}

func normalizeLiteral(lit ast.Literal) pat {
	switch lit := lit.(type) {
	case *ast.BoolLit:
		if lit.Value {
			return ctorPat{name: "True"}
		}
		return ctorPat{name: "False"}
	case *ast.UnitLit:
		return ctorPat{name: tupleCtor}
	case *ast.IntLit:
		return litPat{key: strconv.FormatInt(lit.Value, 10)}
	case *ast.FloatLit:
		return litPat{key: strconv.FormatFloat(lit.Value, 'g', -1, 64)}
	case *ast.StringLit:
		return litPat{key: strconv.Quote(lit.Value)}
	default:
		return wildPat{}
	}
}

// --- Constructor signatures per type ---

type sigCtor struct {
	name   string
	fields []types.Type
}

// signature enumerates the complete constructor set of a type, or
// reports the domain as infinite (Int, String, Float, functions, and
// unresolved type variables are only ever covered by a catch-all).
func (c *checker) signature(t types.Type) ([]sigCtor, bool) {
	switch t := t.(type) {
	case *types.Tuple:
		return []sigCtor{{name: tupleCtor, fields: t.Elements}}, true
	case *types.Con:
		switch t.Name {
		case "Bool":
			return []sigCtor{{name: "True"}, {name: "False"}}, true
		case "Int", "Float", "String":
			return nil, false
		case "List":
			elem := t.Args[0]
			return []sigCtor{
				{name: consCtor, fields: []types.Type{elem, t}},
				{name: nilCtor},
			}, true
		default:
			adt, ok := c.env.LookupADT(t.Name)
			if !ok {
				return nil, false
			}
			sub := types.Subst{}
			for i, id := range adt.Params {
				if i < len(t.Args) {
					sub[id] = t.Args[i]
				}
			}
			ctors := make([]sigCtor, len(adt.Constructors))
			for i, ctor := range adt.Constructors {
				fields := make([]types.Type, len(ctor.Fields))
				for j, field := range ctor.Fields {
					fields[j] = sub.Apply(field)
				}
				ctors[i] = sigCtor{name: ctor.Name, fields: fields}
			}
			return ctors, true
		}
	default:
		return nil, false
	}
}

// --- Usefulness ---

// useful reports whether the row q matches some value no row of the
// matrix matches, returning a witness of such a value, or nil.
func (c *checker) useful(matrix [][]pat, q []pat, colTypes []types.Type) []pat {
	if len(q) == 0 {
		if len(matrix) == 0 {
			return []pat{}
		}
		return nil
	}

	switch head := q[0].(type) {
	case ctorPat:
		fields := c.ctorFields(colTypes[0], head)
		spec := specialize(matrix, head.name, len(head.args))
		subQ := append(append([]pat{}, head.args...), q[1:]...)
		subTypes := append(append([]types.Type{}, fields...), colTypes[1:]...)
		witness := c.useful(spec, subQ, subTypes)
		if witness == nil {
			return nil
		}
		return wrapWitness(witness, head.name, len(head.args))

	case litPat:
		spec := specializeLit(matrix, head.key)
		witness := c.useful(spec, q[1:], colTypes[1:])
		if witness == nil {
			return nil
		}
		return append([]pat{head}, witness...)

	default: // wildPat
		ctors, finite := c.signature(colTypes[0])
		used := headCtors(matrix)

		if finite && len(used) == len(ctors) {
			// Complete signature: the wildcard is useful only if it is
			// useful under some constructor.
			for _, ctor := range ctors {
				spec := specialize(matrix, ctor.name, len(ctor.fields))
				subQ := append(wilds(len(ctor.fields)), q[1:]...)
				subTypes := append(append([]types.Type{}, ctor.fields...), colTypes[1:]...)
				if witness := c.useful(spec, subQ, subTypes); witness != nil {
					return wrapWitness(witness, ctor.name, len(ctor.fields))
				}
			}
			return nil
		}

		witness := c.useful(defaultMatrix(matrix), q[1:], colTypes[1:])
		if witness == nil {
			return nil
		}
		missing := missingCase(ctors, used, finite)
		return append([]pat{missing}, witness...)
	}
}

func (c *checker) ctorFields(t types.Type, head ctorPat) []types.Type {
	ctors, _ := c.signature(t)
	for _, ctor := range ctors {
		if ctor.name == head.name {
			return ctor.fields
		}
	}
	// The pattern type-checked, so an unknown head only happens for an
	// unresolved column type; field types are then unconstrained.
	fields := make([]types.Type, len(head.args))
	for i := range fields {
		fields[i] = &types.Var{ID: -1}
	}
	return fields
}

// specialize keeps the rows compatible with the given constructor head,
// replacing the head column with the constructor's argument columns.
func specialize(matrix [][]pat, name string, arity int) [][]pat {
	var out [][]pat
	for _, row := range matrix {
		switch head := row[0].(type) {
		case ctorPat:
			if head.name == name {
				out = append(out, append(append([]pat{}, head.args...), row[1:]...))
			}
		case wildPat:
			out = append(out, append(wilds(arity), row[1:]...))
		}
	}
	return out
}

func specializeLit(matrix [][]pat, key string) [][]pat {
	var out [][]pat
	for _, row := range matrix {
		switch head := row[0].(type) {
		case litPat:
			if head.key == key {
				out = append(out, row[1:])
			}
		case wildPat:
			out = append(out, row[1:])
		}
	}
	return out
}

// defaultMatrix keeps the rows whose head covers everything.
func defaultMatrix(matrix [][]pat) [][]pat {
	var out [][]pat
	for _, row := range matrix {
		if _, isWild := row[0].(wildPat); isWild {
			out = append(out, row[1:])
		}
	}
	return out
}

func headCtors(matrix [][]pat) map[string]bool {
	used := map[string]bool{}
	for _, row := range matrix {
		if head, isCtor := row[0].(ctorPat); isCtor {
			used[head.name] = true
		}
	}
	return used
}

// missingCase picks a representative value outside the matched heads.
func missingCase(ctors []sigCtor, used map[string]bool, finite bool) pat {
	if finite {
		for _, ctor := range ctors {
			if !used[ctor.name] {
				return ctorPat{name: ctor.name, args: wilds(len(ctor.fields))}
			}
		}
	}
	return wildPat{}
}

func wilds(n int) []pat {
	out := make([]pat, n)
	for i := range out {
		out[i] = wildPat{}
	}
	return out
}

// wrapWitness folds a witness's leading columns back under their
// constructor.
func wrapWitness(witness []pat, name string, arity int) []pat {
	head := ctorPat{name: name, args: witness[:arity:arity]}
	return append([]pat{head}, witness[arity:]...)
}

// --- Witness rendering ---

func render(p pat) string {
	switch p := p.(type) {
	case wildPat:
		return "_"
	case litPat:
		return p.key
	case ctorPat:
		switch p.name {
		case tupleCtor:
			if len(p.args) == 0 {
				return "()"
			}
			parts := make([]string, len(p.args))
			for i, arg := range p.args {
				parts[i] = render(arg)
			}
			return "(" + strings.Join(parts, ", ") + ")"
		case nilCtor:
			return "[]"
		case consCtor:
			return renderList(p)
		default:
			if len(p.args) == 0 {
				return p.name
			}
			parts := make([]string, len(p.args)+1)
			parts[0] = p.name
			for i, arg := range p.args {
				parts[i+1] = renderFactor(arg)
			}
			return strings.Join(parts, " ")
		}
	}
	return "_"
}

func renderFactor(p pat) string {
	if ctor, isCtor := p.(ctorPat); isCtor && len(ctor.args) > 0 &&
		ctor.name != tupleCtor && ctor.name != consCtor && ctor.name != nilCtor {
		return "(" + render(p) + ")"
	}
	return render(p)
}

// renderList turns a Cons/Nil chain back into list syntax.
func renderList(p ctorPat) string {
	var heads []string
	current := pat(p)
	for {
		ctor, isCtor := current.(ctorPat)
		if !isCtor {
			heads = append(heads, "..rest")
			break
		}
		if ctor.name == nilCtor {
			break
		}
		heads = append(heads, render(ctor.args[0]))
		current = ctor.args[1]
	}
	return "[" + strings.Join(heads, ", ") + "]"
}
