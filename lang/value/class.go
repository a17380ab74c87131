package value

import "github.com/dolthub/swiss"

// Class is a single-inheritance class: a name and a table of methods,
// each a Closure bound lazily to a receiver on access (spec.md §3 Class,
// §4.5.4 OP_METHOD/OP_INHERIT). Superclass methods are copied into the
// subclass's table at OP_INHERIT time, so method lookup at runtime never
// walks an inheritance chain.
type Class struct {
	Header
	Name    string
	Methods *swiss.Map[string, *Closure]
}

var _ Obj = (*Class)(nil)

func NewClass(name string) *Class {
	return &Class{Name: name, Methods: swiss.NewMap[string, *Closure](8)}
}

func (c *Class) String() string { return c.Name }
func (*Class) Type() string     { return "class" }

func (c *Class) Trace(visit func(Value)) {
	c.Methods.Iter(func(_ string, m *Closure) bool {
		visit(m)
		return false
	})
}

// Method looks up a method by name, returning ok=false if the class (nor
// any ancestor it inherited from, already flattened into Methods at
// OP_INHERIT time) defines it.
func (c *Class) Method(name string) (*Closure, bool) {
	return c.Methods.Get(name)
}

// Instance is a runtime object of some Class, with its own field table
// independent of the class's method table (spec.md §3 Instance).
type Instance struct {
	Header
	Class  *Class
	Fields *swiss.Map[string, Value]
}

var _ Obj = (*Instance)(nil)

func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: swiss.NewMap[string, Value](8)}
}

func (i *Instance) String() string { return i.Class.Name + " instance" }
func (*Instance) Type() string     { return "instance" }

func (i *Instance) Trace(visit func(Value)) {
	visit(i.Class)
	i.Fields.Iter(func(_ string, v Value) bool {
		visit(v)
		return false
	})
}

// BoundMethod pairs a receiver with one of its class's methods, produced
// by property access on an Instance when the property names a method
// (spec.md §3 BoundMethod, §4.5.4 OP_GET_PROPERTY).
type BoundMethod struct {
	Header
	Receiver Value
	Method   *Closure
}

var _ Obj = (*BoundMethod)(nil)

func NewBoundMethod(receiver Value, method *Closure) *BoundMethod {
	return &BoundMethod{Receiver: receiver, Method: method}
}

func (b *BoundMethod) String() string { return b.Method.String() }
func (*BoundMethod) Type() string     { return "function" }

func (b *BoundMethod) Trace(visit func(Value)) {
	visit(b.Receiver)
	visit(b.Method)
}
