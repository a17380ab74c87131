// Package native is the registry of host functions exposed to L programs:
// a plain name-to-callable mapping built up before a program is
// interpreted, the same shape original_source/src/natives.c uses
// (register every native by name, once, ahead of running any bytecode).
package native

import (
	"fmt"
	"time"

	"github.com/drdynamic/piscript/lang/value"
	"github.com/drdynamic/piscript/lang/vm"
)

// RegisterAll installs every native this package ships onto m, binding
// each as a readonly global. Called once before vm.VM.Interpret,
// mirroring natives.c's defineAllNatives.
//
// str and type are bound as closures over m rather than package-level
// funcs: both manufacture a *value.String result, and spec.md §3 requires
// every reachable string to be interned, so they must go through
// m.InternString (m's own Strings table) instead of value.NewString
// directly — the same table add()'s string concatenation in lang/vm/run.go
// interns through, so "foo"-equals-"foo" identity holds for native results
// too.
func RegisterAll(m *vm.VM) {
	m.DefineNative("clock", clock)
	m.DefineNative("len", length)
	m.DefineNative("str", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("str() takes exactly one argument")
		}
		return m.InternString([]byte(args[0].String())), nil
	})
	m.DefineNative("type", func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("type() takes exactly one argument")
		}
		return m.InternString([]byte(args[0].Type())), nil
	})
}

func clock(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return nil, fmt.Errorf("clock() takes no arguments")
	}
	return value.Number(float64(time.Now().UnixNano()) / 1e9), nil
}

func length(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("len() takes exactly one argument")
	}
	switch v := args[0].(type) {
	case *value.String:
		return value.Number(float64(v.Len())), nil
	case *value.Array:
		return value.Number(float64(len(v.Elements))), nil
	default:
		return nil, fmt.Errorf("len() only accepts strings and arrays")
	}
}

