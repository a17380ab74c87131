// Package value implements the runtime data model of L: the tagged Value
// union, the heap object header shared by every reference type, and the
// concrete heap object kinds (strings, functions, closures, upvalues,
// natives, classes, instances, bound methods, arrays). It also owns the
// Chunk bytecode container and its run-length line table, since a Function
// is defined in terms of an owned Chunk (spec.md §3, §4.1).
//
// This package knows nothing about the compiler or the VM: object
// allocation, string interning and garbage collection are driven from
// lang/vm, which is the single owner of the heap. Types in this package only
// expose the hooks a GC needs (Marked/SetMarked/Next/SetNext, Trace) without
// implementing the mark-sweep algorithm itself.
package value

import "fmt"

// Value is implemented by every value the machine can hold: Nil, Bool,
// Number, and every heap Obj. Equality is structural for Nil/Bool/Number and
// referential for Obj (spec.md §3 Value).
type Value interface {
	// String returns the value's human-readable representation, used by the
	// PRINT instruction and in error messages.
	String() string
	// Type returns a short, stable type name ("number", "string", ...),
	// the value lang/native's type() returns.
	Type() string
}

// Nil is the value of the `nil` literal. There is exactly one Nil value;
// the zero value of the type is it.
type Nil struct{}

func (Nil) String() string { return "nil" }
func (Nil) Type() string   { return "nil" }

// Bool is a boxed boolean.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "bool" }

// Number is the sole numeric type in L: an IEEE-754 double.
type Number float64

func (n Number) String() string {
	// %g loses no precision for float64 and matches the terse numeric
	// rendering expected by scenario 1 in spec.md §8 ("3", not "3.0").
	if n == Number(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", float64(n))
}
func (Number) Type() string { return "number" }

// Truthy reports whether v is truthy: falsey = nil ∨ (bool ∧ !value), per
// spec.md §4.4 NOT semantics.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Nil:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}

// Equal implements L's value-equality operator: structural equality for
// Nil/Bool/Number, reference equality for heap objects (strings compare
// equal by canonical identity because they are interned, so reference
// equality already implements content equality for them).
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		bb, ok := b.(Bool)
		return ok && a == bb
	case Number:
		bn, ok := b.(Number)
		return ok && a == bn
	case Obj:
		bo, ok := b.(Obj)
		return ok && a == bo
	default:
		return false
	}
}
