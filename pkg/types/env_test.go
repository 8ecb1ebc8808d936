package types

import "testing"

func TestScopeChainShadowing(t *testing.T) {
	root := NewEnv()
	root.Define("x", MonoScheme(IntType()))

	child := root.Child()
	child.Define("x", MonoScheme(BoolType()))

	scheme, ok := child.Lookup("x")
	if !ok || scheme.Type.String() != "Bool" {
		t.Fatal("the inner binding must shadow the outer one")
	}
	scheme, ok = root.Lookup("x")
	if !ok || scheme.Type.String() != "Int" {
		t.Fatal("the outer binding must survive unchanged")
	}
}

func TestConstructorSchemeIsCurried(t *testing.T) {
	pool := &Pool{}
	env := BuiltinEnv(pool)

	ok, found := env.LookupConstructor("Ok")
	if !found {
		t.Fatal("Ok must be registered")
	}
	instance, isFunc := ok.Scheme().Instantiate(pool).(*Func)
	if !isFunc {
		t.Fatal("a one-field constructor must instantiate to a function")
	}
	result, isCon := instance.Result.(*Con)
	if !isCon || result.Name != "Result" || len(result.Args) != 2 {
		t.Fatalf("Ok must produce a two-parameter Result, got %s", instance.Result)
	}
}

func TestConstructorsResolveFromChildScopes(t *testing.T) {
	pool := &Pool{}
	env := BuiltinEnv(pool).Child().Child()
	if _, found := env.LookupConstructor("Some"); !found {
		t.Fatal("constructor lookup must walk the scope chain")
	}
	if _, found := env.LookupADT("Option"); !found {
		t.Fatal("ADT lookup must walk the scope chain")
	}
}

func TestBuiltinNamesDefined(t *testing.T) {
	env := BuiltinEnv(&Pool{})
	for _, name := range []string{"Some", "None", "Ok", "Err", "print_line", "print", "length"} {
		if _, ok := env.Lookup(name); !ok {
			t.Fatalf("builtin %q missing", name)
		}
	}
}
