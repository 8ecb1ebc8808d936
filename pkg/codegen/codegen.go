// Package codegen lowers the checked and optimized AST into bytecode.
package codegen

import (
	"fmt"

	"github.com/Armani-T/Hanno/pkg/ast"
	"github.com/Armani-T/Hanno/pkg/bytecode"
	"github.com/Armani-T/Hanno/pkg/diagnostics"
)

// Generate compiles a program to bytecode. Errors here are internal
// invariant violations; well-typed input never produces them.
func Generate(program *ast.Program) (*bytecode.Program, []diagnostics.Diagnostic) {
	g := &generator{consts: map[string]int{}}
	main := g.compileBody(nil, program.Exprs)
	if diagnostics.HasErrors(g.diags) {
		return nil, g.diags
	}
	return &bytecode.Program{
		Consts:    g.pool,
		Functions: g.functions,
		Main:      main,
	}, g.diags
}

type generator struct {
	consts    map[string]int
	pool      []bytecode.Const
	functions []bytecode.Function
	diags     []diagnostics.Diagnostic
}

func (g *generator) internalError(message string, span ast.Span) {
	s := span
	g.diags = append(g.diags,
		diagnostics.New(diagnostics.StageCodegen, diagnostics.ECodegen, message, &s))
}

// constIndex interns a constant, deduplicating by value and type.
func (g *generator) constIndex(c bytecode.Const) int {
	key := c.Key()
	if index, ok := g.consts[key]; ok {
		return index
	}
	index := len(g.pool)
	g.consts[key] = index
	g.pool = append(g.pool, c)
	return index
}

func (g *generator) stringConst(s string) int {
	return g.constIndex(bytecode.Const{Kind: bytecode.ConstString, Str: s})
}

// --- Frames and scopes ---

// frame is the compile-time model of one function's local slots. A
// scope stack reuses slot indices: leaving a scope releases its slots
// for the next sibling scope.
type frame struct {
	parent *frame
	scopes []map[string]int
	marks  []int
	next   int
	max    int
}

func newFrame(parent *frame) *frame {
	return &frame{parent: parent, scopes: []map[string]int{{}}}
}

func (f *frame) pushScope() {
	f.scopes = append(f.scopes, map[string]int{})
	f.marks = append(f.marks, f.next)
}

func (f *frame) popScope() {
	f.scopes = f.scopes[:len(f.scopes)-1]
	f.next = f.marks[len(f.marks)-1]
	f.marks = f.marks[:len(f.marks)-1]
}

// define allocates a slot for a name in the innermost scope.
func (f *frame) define(name string) int {
	slot := f.next
	f.next++
	if f.next > f.max {
		f.max = f.next
	}
	f.scopes[len(f.scopes)-1][name] = slot
	return slot
}

// alias binds a name to an already-allocated slot.
func (f *frame) alias(name string, slot int) {
	f.scopes[len(f.scopes)-1][name] = slot
}

// temp allocates an anonymous slot.
func (f *frame) temp() int {
	slot := f.next
	f.next++
	if f.next > f.max {
		f.max = f.next
	}
	return slot
}

// resolve finds a name, returning how many frames up it lives and its
// slot there.
func (f *frame) resolve(name string) (depth, slot int, ok bool) {
	for fr := f; fr != nil; fr = fr.parent {
		for i := len(fr.scopes) - 1; i >= 0; i-- {
			if s, found := fr.scopes[i][name]; found {
				return depth, s, true
			}
		}
		depth++
	}
	return 0, 0, false
}

// --- Emission ---

type emitter struct {
	code []bytecode.Instruction
}

func (e *emitter) emit(op bytecode.OpCode, operands ...int) int {
	inst := bytecode.Instruction{Op: op}
	if len(operands) > 0 {
		inst.A = operands[0]
	}
	if len(operands) > 1 {
		inst.B = operands[1]
	}
	e.code = append(e.code, inst)
	return len(e.code) - 1
}

// emitJump emits a jump with a placeholder target for later patching.
func (e *emitter) emitJump(op bytecode.OpCode) int {
	return e.emit(op, -1)
}

func (e *emitter) patch(at int) {
	e.code[at].A = len(e.code)
}

func (e *emitter) patchAll(ats []int) {
	for _, at := range ats {
		e.patch(at)
	}
}

// compileBody compiles a sequence of expressions as one function. All
// but the last value are discarded.
func (g *generator) compileBody(parent *frame, exprs []ast.Expr) bytecode.Function {
	fr := newFrame(parent)
	e := &emitter{}
	if len(exprs) == 0 {
		e.emit(bytecode.OpLoadUnit)
	}
	for i, expr := range exprs {
		g.expr(e, fr, expr)
		if i < len(exprs)-1 {
			e.emit(bytecode.OpPop)
		}
	}
	e.emit(bytecode.OpReturn)
	return bytecode.Function{Code: e.code, NumLocals: fr.max}
}

func (g *generator) expr(e *emitter, fr *frame, expr ast.Expr) {
	switch expr := expr.(type) {
	case *ast.IntLit:
		e.emit(bytecode.OpLoadConst, g.constIndex(bytecode.Const{Kind: bytecode.ConstInt, Int: expr.Value}))
	case *ast.FloatLit:
		e.emit(bytecode.OpLoadConst, g.constIndex(bytecode.Const{Kind: bytecode.ConstFloat, Float: expr.Value}))
	case *ast.BoolLit:
		e.emit(bytecode.OpLoadConst, g.constIndex(bytecode.Const{Kind: bytecode.ConstBool, Bool: expr.Value}))
	case *ast.StringLit:
		e.emit(bytecode.OpLoadConst, g.stringConst(expr.Value))
	case *ast.UnitLit:
		e.emit(bytecode.OpLoadUnit)

	case *ast.Name:
		if depth, slot, ok := fr.resolve(expr.Value); ok {
			e.emit(bytecode.OpLoadName, depth, slot)
		} else {
			e.emit(bytecode.OpLoadGlobal, g.stringConst(expr.Value))
		}

	case *ast.Tuple:
		for _, elem := range expr.Elements {
			g.expr(e, fr, elem)
		}
		e.emit(bytecode.OpBuildTuple, len(expr.Elements))

	case *ast.List:
		for _, elem := range expr.Elements {
			g.expr(e, fr, elem)
		}
		e.emit(bytecode.OpBuildList, len(expr.Elements))

	case *ast.Unary:
		g.expr(e, fr, expr.Operand)
		if expr.Op == ast.OpNot {
			e.emit(bytecode.OpNative, bytecode.NativeNot)
		} else {
			e.emit(bytecode.OpNative, bytecode.NativeNeg)
		}

	case *ast.Binary:
		g.binary(e, fr, expr)

	case *ast.Apply:
		g.apply(e, fr, expr)

	case *ast.Lambda:
		g.lambda(e, fr, expr)

	case *ast.Let:
		g.let(e, fr, expr)

	case *ast.If:
		g.expr(e, fr, expr.Cond)
		toElse := e.emitJump(bytecode.OpJumpIfFalse)
		g.expr(e, fr, expr.Then)
		toEnd := e.emitJump(bytecode.OpJump)
		e.patch(toElse)
		g.expr(e, fr, expr.Else)
		e.patch(toEnd)

	case *ast.Match:
		g.match(e, fr, expr)

	case *ast.Annotation:
		g.expr(e, fr, expr.Expr)

	case *ast.Block:
		fr.pushScope()
		for i, inner := range expr.Exprs {
			g.expr(e, fr, inner)
			if i < len(expr.Exprs)-1 {
				e.emit(bytecode.OpPop)
			}
		}
		fr.popScope()

	default:
		g.internalError(fmt.Sprintf("cannot compile %s", expr.Kind()), expr.NodeSpan())
	}
}

var nativeBinaryOps = map[ast.BinaryOp]int{
	ast.OpAdd:    bytecode.NativeAdd,
	ast.OpSub:    bytecode.NativeSub,
	ast.OpMul:    bytecode.NativeMul,
	ast.OpDiv:    bytecode.NativeDiv,
	ast.OpMod:    bytecode.NativeMod,
	ast.OpPow:    bytecode.NativeExp,
	ast.OpConcat: bytecode.NativeJoin,
	ast.OpGt:     bytecode.NativeGreater,
	ast.OpLt:     bytecode.NativeLess,
	ast.OpGtEq:   bytecode.NativeGreaterEq,
	ast.OpLtEq:   bytecode.NativeLessEq,
	ast.OpEq:     bytecode.NativeEqual,
	ast.OpNeq:    bytecode.NativeNotEqual,
}

func (g *generator) binary(e *emitter, fr *frame, expr *ast.Binary) {
	switch expr.Op {
	case ast.OpAnd:
		// Short-circuit: the right side runs only when the left is true.
		g.expr(e, fr, expr.Left)
		e.emit(bytecode.OpDup)
		toEnd := e.emitJump(bytecode.OpJumpIfFalse)
		e.emit(bytecode.OpPop)
		g.expr(e, fr, expr.Right)
		e.patch(toEnd)

	case ast.OpOr:
		g.expr(e, fr, expr.Left)
		e.emit(bytecode.OpDup)
		toRight := e.emitJump(bytecode.OpJumpIfFalse)
		toEnd := e.emitJump(bytecode.OpJump)
		e.patch(toRight)
		e.emit(bytecode.OpPop)
		g.expr(e, fr, expr.Right)
		e.patch(toEnd)

	default:
		g.expr(e, fr, expr.Left)
		g.expr(e, fr, expr.Right)
		e.emit(bytecode.OpNative, nativeBinaryOps[expr.Op])
	}
}

// apply flattens a curried application spine and emits one invoke
// carrying the argument count.
func (g *generator) apply(e *emitter, fr *frame, expr *ast.Apply) {
	var args []ast.Expr
	callee := ast.Expr(expr)
	for {
		app, isApply := callee.(*ast.Apply)
		if !isApply {
			break
		}
		args = append([]ast.Expr{app.Arg}, args...)
		callee = app.Func
	}
	g.expr(e, fr, callee)
	for _, arg := range args {
		g.expr(e, fr, arg)
	}
	e.emit(bytecode.OpCall, len(args))
}

func (g *generator) lambda(e *emitter, fr *frame, expr *ast.Lambda) {
	inner := newFrame(fr)
	body := &emitter{}
	// Slot 0 holds the argument; pattern parameters destructure it.
	if bind, isBind := expr.Param.(*ast.BindPattern); isBind {
		inner.alias(bind.Name, inner.temp())
	} else {
		slot := inner.temp()
		var failJumps []int
		g.pattern(body, inner, slot, expr.Param, &failJumps)
		if len(failJumps) > 0 {
			toBody := body.emitJump(bytecode.OpJump)
			body.patchAll(failJumps)
			body.emit(bytecode.OpFail)
			body.patch(toBody)
		}
	}
	g.expr(body, inner, expr.Body)
	body.emit(bytecode.OpReturn)

	index := len(g.functions)
	g.functions = append(g.functions, bytecode.Function{Code: body.code, NumLocals: inner.max})
	e.emit(bytecode.OpLoadFunc, index)
}

// let stores the value and binds the target pattern. The expression
// itself evaluates to unit.
func (g *generator) let(e *emitter, fr *frame, expr *ast.Let) {
	g.expr(e, fr, expr.Value)

	if bind, isBind := expr.Target.(*ast.BindPattern); isBind {
		e.emit(bytecode.OpStoreName, fr.define(bind.Name))
		e.emit(bytecode.OpLoadUnit)
		return
	}

	slot := fr.temp()
	e.emit(bytecode.OpStoreName, slot)
	var failJumps []int
	g.pattern(e, fr, slot, expr.Target, &failJumps)
	if len(failJumps) > 0 {
		toEnd := e.emitJump(bytecode.OpJump)
		e.patchAll(failJumps)
		e.emit(bytecode.OpFail)
		e.patch(toEnd)
	}
	e.emit(bytecode.OpLoadUnit)
}

// match stores the subject once, then tries each arm in source order.
// The exhaustiveness checker has already proven some arm matches, so
// falling off the end traps.
func (g *generator) match(e *emitter, fr *frame, expr *ast.Match) {
	g.expr(e, fr, expr.Subject)
	subject := fr.temp()
	e.emit(bytecode.OpStoreName, subject)

	var endJumps []int
	for _, arm := range expr.Arms {
		fr.pushScope()
		var failJumps []int
		g.pattern(e, fr, subject, arm.Pattern, &failJumps)
		g.expr(e, fr, arm.Body)
		endJumps = append(endJumps, e.emitJump(bytecode.OpJump))
		e.patchAll(failJumps)
		fr.popScope()
	}
	e.emit(bytecode.OpFail)
	e.patchAll(endJumps)
}

// pattern emits the test-and-bind sequence for a pattern against the
// value in the given slot. Failed tests jump to positions collected in
// failJumps for the caller to patch.
func (g *generator) pattern(e *emitter, fr *frame, slot int, pattern ast.Pattern, failJumps *[]int) {
	switch pattern := pattern.(type) {
	case *ast.WildcardPattern:
		// Matches everything.

	case *ast.BindPattern:
		fr.alias(pattern.Name, slot)

	case *ast.PinPattern:
		e.emit(bytecode.OpLoadName, 0, slot)
		if depth, pinSlot, ok := fr.resolve(pattern.Name); ok {
			e.emit(bytecode.OpLoadName, depth, pinSlot)
		} else {
			e.emit(bytecode.OpLoadGlobal, g.stringConst(pattern.Name))
		}
		e.emit(bytecode.OpNative, bytecode.NativeEqual)
		*failJumps = append(*failJumps, e.emitJump(bytecode.OpJumpIfFalse))

	case *ast.LiteralPattern:
		g.literalPattern(e, fr, slot, pattern.Lit, failJumps)

	case *ast.TuplePattern:
		for i, elem := range pattern.Elements {
			sub := fr.temp()
			e.emit(bytecode.OpLoadName, 0, slot)
			e.emit(bytecode.OpGetIndex, i)
			e.emit(bytecode.OpStoreName, sub)
			g.pattern(e, fr, sub, elem, failJumps)
		}

	case *ast.ListPattern:
		atLeast := 0
		if pattern.HasRest {
			atLeast = 1
		}
		e.emit(bytecode.OpLoadName, 0, slot)
		e.emit(bytecode.OpTestLen, len(pattern.Heads), atLeast)
		*failJumps = append(*failJumps, e.emitJump(bytecode.OpJumpIfFalse))
		for i, head := range pattern.Heads {
			sub := fr.temp()
			e.emit(bytecode.OpLoadName, 0, slot)
			e.emit(bytecode.OpGetIndex, i)
			e.emit(bytecode.OpStoreName, sub)
			g.pattern(e, fr, sub, head, failJumps)
		}
		if pattern.HasRest && pattern.Rest != "_" {
			e.emit(bytecode.OpLoadName, 0, slot)
			e.emit(bytecode.OpGetTail, len(pattern.Heads))
			e.emit(bytecode.OpStoreName, fr.define(pattern.Rest))
		}

	case *ast.ConstructorPattern:
		e.emit(bytecode.OpLoadName, 0, slot)
		e.emit(bytecode.OpTestTag, g.stringConst(pattern.Name))
		*failJumps = append(*failJumps, e.emitJump(bytecode.OpJumpIfFalse))
		for i, arg := range pattern.Args {
			sub := fr.temp()
			e.emit(bytecode.OpLoadName, 0, slot)
			e.emit(bytecode.OpGetField, i)
			e.emit(bytecode.OpStoreName, sub)
			g.pattern(e, fr, sub, arg, failJumps)
		}

	default:
		g.internalError(fmt.Sprintf("cannot compile pattern %s", pattern.Kind()), pattern.NodeSpan())
	}
}

func (g *generator) literalPattern(e *emitter, fr *frame, slot int, lit ast.Literal, failJumps *[]int) {
	var index int
	switch lit := lit.(type) {
	case *ast.UnitLit:
		// Unit has a single value; nothing to test.
		return
	case *ast.IntLit:
		index = g.constIndex(bytecode.Const{Kind: bytecode.ConstInt, Int: lit.Value})
	case *ast.FloatLit:
		index = g.constIndex(bytecode.Const{Kind: bytecode.ConstFloat, Float: lit.Value})
	case *ast.BoolLit:
		index = g.constIndex(bytecode.Const{Kind: bytecode.ConstBool, Bool: lit.Value})
	case *ast.StringLit:
		index = g.stringConst(lit.Value)
	default:
		g.internalError(fmt.Sprintf("cannot compile literal pattern %s", lit.Kind()), lit.NodeSpan())
		return
	}
	e.emit(bytecode.OpLoadName, 0, slot)
	e.emit(bytecode.OpLoadConst, index)
	e.emit(bytecode.OpNative, bytecode.NativeEqual)
	*failJumps = append(*failJumps, e.emitJump(bytecode.OpJumpIfFalse))
}
