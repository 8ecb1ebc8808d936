// Package bytecode defines the in-memory instruction set the compiler
// lowers to. The execution model is a value stack plus per-scope local
// slots addressed by (depth, index) at compile time.
package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// OpCode identifies an instruction.
type OpCode uint8

const (
	// OpLoadConst pushes constant pool entry A.
	OpLoadConst OpCode = iota
	// OpLoadUnit pushes the unit value.
	OpLoadUnit
	// OpLoadFunc pushes a closure over function A.
	OpLoadFunc
	// OpLoadGlobal pushes the runtime-provided global named by string
	// constant A (builtins and ADT constructors).
	OpLoadGlobal
	// OpLoadName pushes local slot B from the scope A levels up.
	OpLoadName
	// OpStoreName pops into slot A of the current scope.
	OpStoreName
	// OpBuildTuple pops A values and pushes a tuple of them.
	OpBuildTuple
	// OpBuildList pops A values and pushes a list of them.
	OpBuildList
	// OpCall pops A arguments (pushed left to right) and a callee
	// beneath them, then invokes it.
	OpCall
	// OpNative applies the native operation A to the top one or two
	// stack values.
	OpNative
	// OpJump continues at instruction index A.
	OpJump
	// OpJumpIfFalse pops a Bool and continues at index A when false.
	OpJumpIfFalse
	// OpDup duplicates the top of the stack.
	OpDup
	// OpPop discards the top of the stack.
	OpPop
	// OpTestTag pops a value and pushes whether its constructor tag
	// is string constant A.
	OpTestTag
	// OpTestLen pops a list and pushes whether its length is A (B=0)
	// or at least A (B=1).
	OpTestLen
	// OpGetField pops a constructor value and pushes field A.
	OpGetField
	// OpGetIndex pops a tuple or list and pushes element A.
	OpGetIndex
	// OpGetTail pops a list and pushes its elements after the first A.
	OpGetTail
	// OpFail traps; emitted where checked-unreachable code would run.
	OpFail
	// OpReturn leaves the current function with the top value.
	OpReturn
)

var opNames = map[OpCode]string{
	OpLoadConst:   "LOAD_CONST",
	OpLoadUnit:    "LOAD_UNIT",
	OpLoadFunc:    "LOAD_FUNC",
	OpLoadGlobal:  "LOAD_GLOBAL",
	OpLoadName:    "LOAD_NAME",
	OpStoreName:   "STORE_NAME",
	OpBuildTuple:  "BUILD_TUPLE",
	OpBuildList:   "BUILD_LIST",
	OpCall:        "CALL",
	OpNative:      "NATIVE",
	OpJump:        "JUMP",
	OpJumpIfFalse: "JUMP_IF_FALSE",
	OpDup:         "DUP",
	OpPop:         "POP",
	OpTestTag:     "TEST_TAG",
	OpTestLen:     "TEST_LEN",
	OpGetField:    "GET_FIELD",
	OpGetIndex:    "GET_INDEX",
	OpGetTail:     "GET_TAIL",
	OpFail:        "FAIL",
	OpReturn:      "RETURN",
}

func (op OpCode) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("OP_%d", uint8(op))
}

// Native operation codes carried by OpNative.
const (
	NativeAdd = iota + 1
	NativeDiv
	NativeEqual
	NativeExp
	NativeGreater
	NativeJoin
	NativeLess
	NativeMod
	NativeMul
	NativeNeg
	NativeSub
	NativeGreaterEq
	NativeLessEq
	NativeNotEqual
	NativeNot
)

// Instruction is one opcode with up to two integer operands.
type Instruction struct {
	Op OpCode
	A  int
	B  int
}

// ConstKind tags a constant pool entry's type. Equal values of
// different kinds never share an entry.
type ConstKind uint8

const (
	ConstInt ConstKind = iota
	ConstFloat
	ConstBool
	ConstString
)

// Const is one constant pool entry.
type Const struct {
	Kind  ConstKind
	Int   int64
	Float float64
	Bool  bool
	Str   string
}

// Key is the value+type identity used for pool deduplication.
func (c Const) Key() string {
	switch c.Kind {
	case ConstInt:
		return "i:" + strconv.FormatInt(c.Int, 10)
	case ConstFloat:
		return "f:" + strconv.FormatFloat(c.Float, 'g', -1, 64)
	case ConstBool:
		return "b:" + strconv.FormatBool(c.Bool)
	default:
		return "s:" + c.Str
	}
}

func (c Const) String() string {
	switch c.Kind {
	case ConstInt:
		return strconv.FormatInt(c.Int, 10)
	case ConstFloat:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case ConstBool:
		if c.Bool {
			return "True"
		}
		return "False"
	default:
		return strconv.Quote(c.Str)
	}
}

// Function is one compiled function body. Slot 0 holds the parameter.
type Function struct {
	Code      []Instruction
	NumLocals int
}

// Program is a compiled unit: a shared constant pool, the function
// table, and the top-level code.
type Program struct {
	Consts    []Const
	Functions []Function
	Main      Function
}

// Disassemble renders the program as text, one instruction per line.
func (p *Program) Disassemble() string {
	var b strings.Builder
	b.WriteString("consts:\n")
	for i, c := range p.Consts {
		fmt.Fprintf(&b, "  %3d: %s\n", i, c)
	}
	for i, fn := range p.Functions {
		fmt.Fprintf(&b, "func %d (locals %d):\n", i, fn.NumLocals)
		writeCode(&b, fn.Code)
	}
	fmt.Fprintf(&b, "main (locals %d):\n", p.Main.NumLocals)
	writeCode(&b, p.Main.Code)
	return b.String()
}

func writeCode(b *strings.Builder, code []Instruction) {
	for i, inst := range code {
		switch inst.Op {
		case OpLoadUnit, OpDup, OpPop, OpFail, OpReturn:
			fmt.Fprintf(b, "  %3d: %s\n", i, inst.Op)
		case OpLoadName, OpTestLen:
			fmt.Fprintf(b, "  %3d: %s %d %d\n", i, inst.Op, inst.A, inst.B)
		default:
			fmt.Fprintf(b, "  %3d: %s %d\n", i, inst.Op, inst.A)
		}
	}
}
