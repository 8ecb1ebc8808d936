// Package ast defines the Hanno language AST node types.
package ast

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Merge combines two spans into one covering both.
func Merge(a, b Span) Span {
	return Span{
		File:      a.File,
		StartLine: a.StartLine,
		StartCol:  a.StartCol,
		EndLine:   b.EndLine,
		EndCol:    b.EndCol,
	}
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// BinaryOp represents a binary operator.
type BinaryOp string

const (
	OpAdd    BinaryOp = "+"
	OpSub    BinaryOp = "-"
	OpMul    BinaryOp = "*"
	OpDiv    BinaryOp = "/"
	OpMod    BinaryOp = "%"
	OpPow    BinaryOp = "^"
	OpConcat BinaryOp = "<>"
	OpGt     BinaryOp = ">"
	OpLt     BinaryOp = "<"
	OpGtEq   BinaryOp = ">="
	OpLtEq   BinaryOp = "<="
	OpEq     BinaryOp = "="
	OpNeq    BinaryOp = "/="
	OpAnd    BinaryOp = "and"
	OpOr     BinaryOp = "or"
)

// UnaryOp represents a unary operator.
type UnaryOp string

const (
	OpNeg UnaryOp = "~"
	OpNot UnaryOp = "not"
)

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// Literal is the subset of expressions whose value is known at compile time.
type Literal interface {
	Expr
	literalNode() // sealed marker
}

// --- Pattern is the interface for all pattern nodes ---

type Pattern interface {
	Node
	patternNode() // sealed marker
}

// --- TypeRef is the interface for source-level type annotations ---

type TypeRef interface {
	Node
	typeRefNode() // sealed marker
}

// --- Literal Expressions ---

type IntLit struct {
	Span  Span
	Value int64
}

func (n *IntLit) Kind() string   { return "IntLit" }
func (n *IntLit) NodeSpan() Span { return n.Span }
func (n *IntLit) exprNode()      {}
func (n *IntLit) literalNode()   {}

type FloatLit struct {
	Span  Span
	Value float64
}

func (n *FloatLit) Kind() string   { return "FloatLit" }
func (n *FloatLit) NodeSpan() Span { return n.Span }
func (n *FloatLit) exprNode()      {}
func (n *FloatLit) literalNode()   {}

type BoolLit struct {
	Span  Span
	Value bool
}

func (n *BoolLit) Kind() string   { return "BoolLit" }
func (n *BoolLit) NodeSpan() Span { return n.Span }
func (n *BoolLit) exprNode()      {}
func (n *BoolLit) literalNode()   {}

type StringLit struct {
	Span  Span
	Value string
}

func (n *StringLit) Kind() string   { return "StringLit" }
func (n *StringLit) NodeSpan() Span { return n.Span }
func (n *StringLit) exprNode()      {}
func (n *StringLit) literalNode()   {}

// UnitLit is the zero-element tuple `()`.
type UnitLit struct {
	Span Span
}

func (n *UnitLit) Kind() string   { return "UnitLit" }
func (n *UnitLit) NodeSpan() Span { return n.Span }
func (n *UnitLit) exprNode()      {}
func (n *UnitLit) literalNode()   {}

// --- Names ---

type Name struct {
	Span  Span
	Value string
}

func (n *Name) Kind() string   { return "Name" }
func (n *Name) NodeSpan() Span { return n.Span }
func (n *Name) exprNode()      {}

// --- Collections ---

// Tuple never has exactly one element; a one-element tuple degenerates
// to its single child during parsing and `()` parses to UnitLit.
type Tuple struct {
	Span     Span
	Elements []Expr
}

func (n *Tuple) Kind() string   { return "Tuple" }
func (n *Tuple) NodeSpan() Span { return n.Span }
func (n *Tuple) exprNode()      {}

type List struct {
	Span     Span
	Elements []Expr
}

func (n *List) Kind() string   { return "List" }
func (n *List) NodeSpan() Span { return n.Span }
func (n *List) exprNode()      {}

// --- Operators & Application ---

type Unary struct {
	Span    Span
	Op      UnaryOp
	Operand Expr
}

func (n *Unary) Kind() string   { return "Unary" }
func (n *Unary) NodeSpan() Span { return n.Span }
func (n *Unary) exprNode()      {}

type Binary struct {
	Span  Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *Binary) Kind() string   { return "Binary" }
func (n *Binary) NodeSpan() Span { return n.Span }
func (n *Binary) exprNode()      {}

// Apply is single-argument function application; multi-argument calls
// are nested Apply nodes (curried form).
type Apply struct {
	Span Span
	Func Expr
	Arg  Expr
}

func (n *Apply) Kind() string   { return "Apply" }
func (n *Apply) NodeSpan() Span { return n.Span }
func (n *Apply) exprNode()      {}

// --- Functions & Bindings ---

type Lambda struct {
	Span  Span
	Param Pattern
	Body  Expr
}

func (n *Lambda) Kind() string   { return "Lambda" }
func (n *Lambda) NodeSpan() Span { return n.Span }
func (n *Lambda) exprNode()      {}

// Let binds the value to the target pattern.
type Let struct {
	Span   Span
	Target Pattern
	Value  Expr
}

func (n *Let) Kind() string   { return "Let" }
func (n *Let) NodeSpan() Span { return n.Span }
func (n *Let) exprNode()      {}

// --- Control Flow ---

type If struct {
	Span Span
	Cond Expr
	Then Expr
	Else Expr
}

func (n *If) Kind() string   { return "If" }
func (n *If) NodeSpan() Span { return n.Span }
func (n *If) exprNode()      {}

type MatchArm struct {
	Span    Span
	Pattern Pattern
	Body    Expr
}

func (n *MatchArm) Kind() string   { return "MatchArm" }
func (n *MatchArm) NodeSpan() Span { return n.Span }

type Match struct {
	Span    Span
	Subject Expr
	Arms    []*MatchArm
}

func (n *Match) Kind() string   { return "Match" }
func (n *Match) NodeSpan() Span { return n.Span }
func (n *Match) exprNode()      {}

// --- Annotations & Blocks ---

// Annotation attaches a source-level type to an expression (`expr :: type`).
// The annotation is checked against the inferred type, never trusted blindly.
type Annotation struct {
	Span Span
	Expr Expr
	Type TypeRef
}

func (n *Annotation) Kind() string   { return "Annotation" }
func (n *Annotation) NodeSpan() Span { return n.Span }
func (n *Annotation) exprNode()      {}

// Block is an ordered sequence of expressions separated by inferred EOLs.
// Its value is the value of the last expression.
type Block struct {
	Span  Span
	Exprs []Expr
}

func (n *Block) Kind() string   { return "Block" }
func (n *Block) NodeSpan() Span { return n.Span }
func (n *Block) exprNode()      {}

// --- Patterns ---

type WildcardPattern struct {
	Span Span
}

func (n *WildcardPattern) Kind() string   { return "WildcardPattern" }
func (n *WildcardPattern) NodeSpan() Span { return n.Span }
func (n *WildcardPattern) patternNode()   {}

// BindPattern introduces a fresh binding for the matched value.
type BindPattern struct {
	Span Span
	Name string
}

func (n *BindPattern) Kind() string   { return "BindPattern" }
func (n *BindPattern) NodeSpan() Span { return n.Span }
func (n *BindPattern) patternNode()   {}

// PinPattern (`^name`) refers to an already-bound name and requires the
// matched value to compare equal to it; it never introduces a binding.
type PinPattern struct {
	Span Span
	Name string
}

func (n *PinPattern) Kind() string   { return "PinPattern" }
func (n *PinPattern) NodeSpan() Span { return n.Span }
func (n *PinPattern) patternNode()   {}

type LiteralPattern struct {
	Span Span
	Lit  Literal
}

func (n *LiteralPattern) Kind() string   { return "LiteralPattern" }
func (n *LiteralPattern) NodeSpan() Span { return n.Span }
func (n *LiteralPattern) patternNode()   {}

// TuplePattern follows the tuple invariant: never exactly one element.
type TuplePattern struct {
	Span     Span
	Elements []Pattern
}

func (n *TuplePattern) Kind() string   { return "TuplePattern" }
func (n *TuplePattern) NodeSpan() Span { return n.Span }
func (n *TuplePattern) patternNode()   {}

// ListPattern matches the first len(Heads) elements against Heads; if
// HasRest, the remaining elements bind to Rest.
type ListPattern struct {
	Span    Span
	Heads   []Pattern
	HasRest bool
	Rest    string
}

func (n *ListPattern) Kind() string   { return "ListPattern" }
func (n *ListPattern) NodeSpan() Span { return n.Span }
func (n *ListPattern) patternNode()   {}

// ConstructorPattern matches an ADT constructor and its fields.
type ConstructorPattern struct {
	Span Span
	Name string
	Args []Pattern
}

func (n *ConstructorPattern) Kind() string   { return "ConstructorPattern" }
func (n *ConstructorPattern) NodeSpan() Span { return n.Span }
func (n *ConstructorPattern) patternNode()   {}

// --- Type references (annotation syntax) ---

// NamedTypeRef is a concrete type name with optional arguments,
// e.g. `Int`, `List String`.
type NamedTypeRef struct {
	Span Span
	Name string
	Args []TypeRef
}

func (n *NamedTypeRef) Kind() string   { return "NamedTypeRef" }
func (n *NamedTypeRef) NodeSpan() Span { return n.Span }
func (n *NamedTypeRef) typeRefNode()   {}

// VarTypeRef is a lowercase type variable, e.g. the `a` in `List a`.
type VarTypeRef struct {
	Span Span
	Name string
}

func (n *VarTypeRef) Kind() string   { return "VarTypeRef" }
func (n *VarTypeRef) NodeSpan() Span { return n.Span }
func (n *VarTypeRef) typeRefNode()   {}

type FuncTypeRef struct {
	Span   Span
	Param  TypeRef
	Result TypeRef
}

func (n *FuncTypeRef) Kind() string   { return "FuncTypeRef" }
func (n *FuncTypeRef) NodeSpan() Span { return n.Span }
func (n *FuncTypeRef) typeRefNode()   {}

type TupleTypeRef struct {
	Span     Span
	Elements []TypeRef
}

func (n *TupleTypeRef) Kind() string   { return "TupleTypeRef" }
func (n *TupleTypeRef) NodeSpan() Span { return n.Span }
func (n *TupleTypeRef) typeRefNode()   {}

// UnitTypeRef is the `()` type.
type UnitTypeRef struct {
	Span Span
}

func (n *UnitTypeRef) Kind() string   { return "UnitTypeRef" }
func (n *UnitTypeRef) NodeSpan() Span { return n.Span }
func (n *UnitTypeRef) typeRefNode()   {}

// --- Program ---

// Program is a whole compilation unit: a block of top-level expressions.
type Program struct {
	Span  Span
	Exprs []Expr
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }
