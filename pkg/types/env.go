package types

// Constructor describes one tagged constructor of an ADT. Field types
// are expressed in terms of the owning ADT's parameter variables.
type Constructor struct {
	Name   string
	ADT    *ADT
	Fields []Type
}

// Arity is the number of fields the constructor carries.
func (c *Constructor) Arity() int {
	return len(c.Fields)
}

// Scheme builds the polymorphic type of the constructor used as a
// value: a curried function from its fields to the ADT type.
func (c *Constructor) Scheme() *Scheme {
	result := Type(&Con{Name: c.ADT.Name, Args: c.ADT.paramTypes()})
	for i := len(c.Fields) - 1; i >= 0; i-- {
		result = &Func{Param: c.Fields[i], Result: result}
	}
	return &Scheme{Vars: c.ADT.Params, Type: result}
}

// ADT is a named sum type: a fixed set of tagged constructors.
type ADT struct {
	Name         string
	Params       []int
	Constructors []*Constructor
}

func (a *ADT) paramTypes() []Type {
	args := make([]Type, len(a.Params))
	for i, id := range a.Params {
		args[i] = &Var{ID: id}
	}
	return args
}

// Env is a lexically scoped mapping from names to schemes plus the
// constructor registry. Child scopes are created per lambda, let and
// match arm, and discarded when that scope's analysis finishes.
type Env struct {
	parent *Env
	names  map[string]*Scheme
	adts   map[string]*ADT
	ctors  map[string]*Constructor
}

// NewEnv creates an empty root environment.
func NewEnv() *Env {
	return &Env{
		names: map[string]*Scheme{},
		adts:  map[string]*ADT{},
		ctors: map[string]*Constructor{},
	}
}

// Child creates a nested scope.
func (e *Env) Child() *Env {
	return &Env{
		parent: e,
		names:  map[string]*Scheme{},
	}
}

// Define binds a name in the current scope.
func (e *Env) Define(name string, scheme *Scheme) {
	e.names[name] = scheme
}

// Lookup resolves a name through the scope chain.
func (e *Env) Lookup(name string) (*Scheme, bool) {
	for scope := e; scope != nil; scope = scope.parent {
		if s, ok := scope.names[name]; ok {
			return s, true
		}
	}
	return nil, false
}

// LookupConstructor resolves an ADT constructor by name.
func (e *Env) LookupConstructor(name string) (*Constructor, bool) {
	for scope := e; scope != nil; scope = scope.parent {
		if scope.ctors != nil {
			if c, ok := scope.ctors[name]; ok {
				return c, true
			}
		}
	}
	return nil, false
}

// LookupADT resolves an ADT by type name.
func (e *Env) LookupADT(name string) (*ADT, bool) {
	for scope := e; scope != nil; scope = scope.parent {
		if scope.adts != nil {
			if a, ok := scope.adts[name]; ok {
				return a, true
			}
		}
	}
	return nil, false
}

// RegisterADT adds a sum type and its constructors to the root registry.
func (e *Env) RegisterADT(adt *ADT) {
	root := e
	for root.parent != nil {
		root = root.parent
	}
	root.adts[adt.Name] = adt
	for _, ctor := range adt.Constructors {
		root.ctors[ctor.Name] = ctor
	}
}

// FreeVars collects the ids free in every scheme visible from e.
func (e *Env) FreeVars() map[int]bool {
	free := map[int]bool{}
	for scope := e; scope != nil; scope = scope.parent {
		for _, scheme := range scope.names {
			quantified := map[int]bool{}
			for _, id := range scheme.Vars {
				quantified[id] = true
			}
			for id := range FreeVars(scheme.Type) {
				if !quantified[id] {
					free[id] = true
				}
			}
		}
	}
	return free
}

// BuiltinEnv builds the root environment with the built-in names and
// ADTs. The language has no ADT declaration syntax yet, so Option and
// Result are provided as builtins for constructor patterns to match on.
func BuiltinEnv(pool *Pool) *Env {
	env := NewEnv()

	option := &ADT{Name: "Option"}
	optVar := pool.Fresh()
	option.Params = []int{optVar.ID}
	option.Constructors = []*Constructor{
		{Name: "Some", ADT: option, Fields: []Type{optVar}},
		{Name: "None", ADT: option},
	}
	env.RegisterADT(option)

	result := &ADT{Name: "Result"}
	errVar, okVar := pool.Fresh(), pool.Fresh()
	result.Params = []int{errVar.ID, okVar.ID}
	result.Constructors = []*Constructor{
		{Name: "Ok", ADT: result, Fields: []Type{okVar}},
		{Name: "Err", ADT: result, Fields: []Type{errVar}},
	}
	env.RegisterADT(result)

	for _, ctor := range []string{"Some", "None", "Ok", "Err"} {
		c, _ := env.LookupConstructor(ctor)
		env.Define(ctor, c.Scheme())
	}

	env.Define("print_line", MonoScheme(&Func{Param: StringType(), Result: UnitType()}))
	env.Define("print", MonoScheme(&Func{Param: StringType(), Result: UnitType()}))

	lengthVar := pool.Fresh()
	env.Define("length", &Scheme{
		Vars: []int{lengthVar.ID},
		Type: &Func{Param: ListOf(lengthVar), Result: IntType()},
	})

	return env
}
