package value

// Upvalue is how a closure reaches a variable declared in an enclosing
// function after that function's frame may have already returned
// (spec.md §4.6 Upvalues). While Open, Location is an index into the
// owning VM's value stack and the upvalue shares storage with the local
// variable it closes over; Close copies the current value out of the
// stack into Closed and the upvalue becomes self-contained.
//
// lang/vm owns the stack and therefore owns the open/close transition and
// the descending-stack-address-ordered list of open upvalues (spec.md
// §4.6 "the open-upvalue list is kept sorted by descending stack
// position so closing a range is a single linear pass"); this type only
// stores the data, not the policy.
type Upvalue struct {
	Header
	Open     bool
	Location int
	Closed   Value

	// openNext chains this upvalue into the VM's open-upvalue list. It is
	// unused once Open is false.
	openNext *Upvalue
}

var _ Obj = (*Upvalue)(nil)

// NewOpenUpvalue constructs an upvalue referring to the stack slot at
// index slot. The caller (lang/vm) is responsible for inserting it into
// the open-upvalue list in descending-address order.
func NewOpenUpvalue(slot int) *Upvalue {
	return &Upvalue{Open: true, Location: slot}
}

func (u *Upvalue) String() string { return "<upvalue>" }
func (*Upvalue) Type() string     { return "upvalue" }

// Trace marks the closed-over value once the upvalue has been closed.
// While open, the referenced stack slot is already a GC root on its own,
// so there is nothing additional to visit here.
func (u *Upvalue) Trace(visit func(Value)) {
	if !u.Open {
		visit(u.Closed)
	}
}

// NextOpen returns the next upvalue in the VM's open-upvalue chain.
func (u *Upvalue) NextOpen() *Upvalue { return u.openNext }

// SetNextOpen links this upvalue to the next one in the VM's
// open-upvalue chain.
func (u *Upvalue) SetNextOpen(n *Upvalue) { u.openNext = n }
