package value

// Obj is implemented by every heap-allocated value. The header fields
// (mark bit, intrusive next-link) are exposed so lang/vm can drive a
// mark-sweep collector over the object graph without this package needing
// to know anything about GC phases; see spec.md §3 "Heap objects".
type Obj interface {
	Value

	// Marked reports whether the GC has marked this object reachable in the
	// current cycle.
	Marked() bool
	// SetMarked sets or clears the mark bit.
	SetMarked(bool)
	// Next returns the next object in the VM's intrusive all-objects list.
	Next() Obj
	// SetNext links this object to the next one in the all-objects list.
	SetNext(Obj)
	// Tracked reports whether the VM has already linked this object into
	// its all-objects list. Lets callers (e.g. lang/vm's native-call path)
	// tell a not-yet-rooted object apart from one that merely happens to
	// sit at the tail of that list, which Next()==nil alone cannot.
	Tracked() bool
	// SetTracked marks this object as linked into the all-objects list.
	SetTracked(bool)
}

// Header is embedded by every concrete Obj implementation to provide the
// mark bit and intrusive next-link that spec.md §3 requires every heap
// object to carry.
type Header struct {
	marked  bool
	next    Obj
	tracked bool
}

func (h *Header) Marked() bool     { return h.marked }
func (h *Header) SetMarked(m bool) { h.marked = m }
func (h *Header) Next() Obj        { return h.next }
func (h *Header) SetNext(o Obj)    { h.next = o }
func (h *Header) Tracked() bool    { return h.tracked }
func (h *Header) SetTracked(t bool) { h.tracked = t }

// Tracer is implemented by heap objects that reference other heap objects
// (directly or via Values that may wrap them). The GC calls Trace to
// discover an object's children while blackening it (spec.md §4.7). Leaf
// objects (String, NativeFn) need not implement it: the GC treats anything
// that doesn't as having no children.
type Tracer interface {
	Trace(visit func(Value))
}
