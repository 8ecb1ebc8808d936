// Package types defines the Hanno type representation and unification.
package types

import (
	"fmt"
	"sort"
	"strings"
)

// Type is the interface implemented by all type variants. Types are
// structurally compared after substitution.
type Type interface {
	typeNode() // sealed marker
	String() string
}

// Var is a type variable with a unique id.
type Var struct {
	ID int
}

func (t *Var) typeNode()      {}
func (t *Var) String() string { return fmt.Sprintf("t%d", t.ID) }

// Con is a named type constructor with ordered arguments. It covers
// Int/Float/Bool/String, List, and user ADTs.
type Con struct {
	Name string
	Args []Type
}

func (t *Con) typeNode() {}
func (t *Con) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.Args))
	for i, arg := range t.Args {
		parts[i] = factorString(arg)
	}
	return t.Name + " " + strings.Join(parts, " ")
}

// Tuple has zero or at least two element types; the unit type is the
// zero-element tuple.
type Tuple struct {
	Elements []Type
}

func (t *Tuple) typeNode() {}
func (t *Tuple) String() string {
	parts := make([]string, len(t.Elements))
	for i, elem := range t.Elements {
		parts[i] = elem.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Func is a single-parameter function type; multi-parameter functions
// are curried chains.
type Func struct {
	Param  Type
	Result Type
}

func (t *Func) typeNode() {}
func (t *Func) String() string {
	return factorString(t.Param) + " -> " + t.Result.String()
}

func factorString(t Type) string {
	switch inner := t.(type) {
	case *Func:
		return "(" + inner.String() + ")"
	case *Con:
		if len(inner.Args) > 0 {
			return "(" + inner.String() + ")"
		}
	}
	return t.String()
}

// Common ground types.
func IntType() *Con    { return &Con{Name: "Int"} }
func FloatType() *Con  { return &Con{Name: "Float"} }
func BoolType() *Con   { return &Con{Name: "Bool"} }
func StringType() *Con { return &Con{Name: "String"} }
func UnitType() *Tuple { return &Tuple{} }

func ListOf(elem Type) *Con { return &Con{Name: "List", Args: []Type{elem}} }

// Scheme is a type with a set of universally quantified variable ids.
// Instantiation produces fresh variables per use site.
type Scheme struct {
	Vars []int
	Type Type
}

// MonoScheme wraps a type with no quantified variables.
func MonoScheme(t Type) *Scheme {
	return &Scheme{Type: t}
}

// Pool hands out fresh type variables. Each compilation unit owns its
// own pool; ids are never shared across units.
type Pool struct {
	next int
}

func (p *Pool) Fresh() *Var {
	v := &Var{ID: p.next}
	p.next++
	return v
}

// Instantiate replaces the scheme's quantified variables with fresh ones.
func (s *Scheme) Instantiate(pool *Pool) Type {
	if len(s.Vars) == 0 {
		return s.Type
	}
	sub := Subst{}
	for _, id := range s.Vars {
		sub[id] = pool.Fresh()
	}
	return sub.Apply(s.Type)
}

// FreeVars returns the ids of the variables free in t.
func FreeVars(t Type) map[int]bool {
	free := map[int]bool{}
	collectFreeVars(t, free)
	return free
}

func collectFreeVars(t Type, free map[int]bool) {
	switch t := t.(type) {
	case *Var:
		free[t.ID] = true
	case *Con:
		for _, arg := range t.Args {
			collectFreeVars(arg, free)
		}
	case *Tuple:
		for _, elem := range t.Elements {
			collectFreeVars(elem, free)
		}
	case *Func:
		collectFreeVars(t.Param, free)
		collectFreeVars(t.Result, free)
	}
}

// Generalize quantifies the variables free in t but not free in env,
// producing a let-polymorphic scheme.
func Generalize(env *Env, t Type) *Scheme {
	envFree := env.FreeVars()
	var vars []int
	for id := range FreeVars(t) {
		if !envFree[id] {
			vars = append(vars, id)
		}
	}
	sort.Ints(vars)
	return &Scheme{Vars: vars, Type: t}
}
