package types

import "fmt"

// Subst maps type-variable ids to types. Bindings are resolved fully
// whenever a type is applied, so no stale binding is ever observable.
type Subst map[int]Type

// Apply replaces every bound variable in t, following chains of
// variable-to-variable bindings to their end.
func (s Subst) Apply(t Type) Type {
	switch t := t.(type) {
	case *Var:
		bound, ok := s[t.ID]
		for ok {
			if v, isVar := bound.(*Var); isVar {
				next, more := s[v.ID]
				if !more {
					return v
				}
				bound, ok = next, more
				continue
			}
			return s.applyNonVar(bound)
		}
		return t
	default:
		return s.applyNonVar(t)
	}
}

func (s Subst) applyNonVar(t Type) Type {
	switch t := t.(type) {
	case *Var:
		return s.Apply(t)
	case *Con:
		if len(t.Args) == 0 {
			return t
		}
		args := make([]Type, len(t.Args))
		for i, arg := range t.Args {
			args[i] = s.Apply(arg)
		}
		return &Con{Name: t.Name, Args: args}
	case *Tuple:
		if len(t.Elements) == 0 {
			return t
		}
		elems := make([]Type, len(t.Elements))
		for i, elem := range t.Elements {
			elems[i] = s.Apply(elem)
		}
		return &Tuple{Elements: elems}
	case *Func:
		return &Func{Param: s.Apply(t.Param), Result: s.Apply(t.Result)}
	default:
		return t
	}
}

// UnifyErrorKind distinguishes the two unification failure modes.
type UnifyErrorKind int

const (
	Mismatch UnifyErrorKind = iota
	OccursCheck
)

// UnifyError reports that two types cannot be made equal.
type UnifyError struct {
	Kind  UnifyErrorKind
	Left  Type
	Right Type
}

func (e *UnifyError) Error() string {
	if e.Kind == OccursCheck {
		return fmt.Sprintf("cannot construct the infinite type %s ~ %s", e.Left, e.Right)
	}
	return fmt.Sprintf("type mismatch: %s does not unify with %s", e.Left, e.Right)
}

// Unify makes left and right equal by extending the substitution in
// place, or fails without touching it further.
func Unify(left, right Type, sub Subst) *UnifyError {
	left = sub.Apply(left)
	right = sub.Apply(right)

	if lv, ok := left.(*Var); ok {
		return bindVar(lv, right, sub)
	}
	if rv, ok := right.(*Var); ok {
		return bindVar(rv, left, sub)
	}

	switch l := left.(type) {
	case *Con:
		r, ok := right.(*Con)
		if !ok || l.Name != r.Name || len(l.Args) != len(r.Args) {
			return &UnifyError{Kind: Mismatch, Left: left, Right: right}
		}
		for i := range l.Args {
			if err := Unify(l.Args[i], r.Args[i], sub); err != nil {
				return err
			}
		}
		return nil
	case *Tuple:
		r, ok := right.(*Tuple)
		if !ok || len(l.Elements) != len(r.Elements) {
			return &UnifyError{Kind: Mismatch, Left: left, Right: right}
		}
		for i := range l.Elements {
			if err := Unify(l.Elements[i], r.Elements[i], sub); err != nil {
				return err
			}
		}
		return nil
	case *Func:
		r, ok := right.(*Func)
		if !ok {
			return &UnifyError{Kind: Mismatch, Left: left, Right: right}
		}
		if err := Unify(l.Param, r.Param, sub); err != nil {
			return err
		}
		return Unify(l.Result, r.Result, sub)
	default:
		return &UnifyError{Kind: Mismatch, Left: left, Right: right}
	}
}

func bindVar(v *Var, t Type, sub Subst) *UnifyError {
	if other, ok := t.(*Var); ok && other.ID == v.ID {
		return nil
	}
	if FreeVars(t)[v.ID] {
		return &UnifyError{Kind: OccursCheck, Left: v, Right: t}
	}
	sub[v.ID] = t
	return nil
}
