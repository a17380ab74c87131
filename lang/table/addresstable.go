package table

import "github.com/drdynamic/piscript/lang/value"

// VarProps is the per-slot metadata the compiler tracks for a declared
// name: its nesting depth, whether it was declared const, whether a
// nested function has captured it as an upvalue, and (when it shadows an
// outer binding of the same name) the address that binding will be
// restored to once this one is popped (spec.md §4.3 AddressTable).
type VarProps struct {
	Name       *value.String
	Depth      int
	Readonly   bool
	ShadowAddr int // -1 when this binding shadows nothing
	IsCaptured bool
}

// AddressTable resolves names to slot addresses during compilation,
// exactly the way locals, globals and upvalue names are all resolved in
// spec.md §4.3: a hash table from name to the most recent address,
// backed by a parallel slice of VarProps indexed by that same address.
// Popping a scope restores whatever binding a shadowed name had before,
// which is what lets a single AddressTable serve as the resolver for
// block-scoped shadowing without a separate stack of scopes.
type AddressTable struct {
	addresses Table[uint32]
	props     []VarProps
}

// Add registers name at the next free address, recording props.Depth,
// props.Readonly and props.IsCaptured. If name is already bound, the new
// binding shadows it: the prior address is stashed in the new VarProps's
// ShadowAddr so Pop can restore it later. Returns the newly assigned
// address.
func (t *AddressTable) Add(name *value.String, props VarProps) uint32 {
	addr := uint32(len(t.props))
	if shadowed, ok := t.addresses.Get(name); ok {
		props.ShadowAddr = int(shadowed)
	} else {
		props.ShadowAddr = -1
	}
	props.Name = name
	t.addresses.Set(name, addr)
	t.props = append(t.props, props)
	return addr
}

// Pop removes the most recently added binding, restoring whatever
// binding it shadowed (or deleting the name entirely if it shadowed
// nothing), per spec.md §4.3 addresstablePop.
func (t *AddressTable) Pop() {
	last := &t.props[len(t.props)-1]
	if last.ShadowAddr != -1 {
		t.addresses.Set(last.Name, uint32(last.ShadowAddr))
	} else {
		t.addresses.Delete(last.Name)
	}
	t.props = t.props[:len(t.props)-1]
}

// IsEmpty reports whether the table currently has no live bindings.
func (t *AddressTable) IsEmpty() bool { return len(t.props) == 0 }

// Len returns the number of live bindings, i.e. the next address that
// would be assigned by Add.
func (t *AddressTable) Len() int { return len(t.props) }

// GetAddress resolves name to its current address.
func (t *AddressTable) GetAddress(name *value.String) (uint32, bool) {
	return t.addresses.Get(name)
}

// GetName returns the name bound at address.
func (t *AddressTable) GetName(addr uint32) *value.String {
	return t.props[addr].Name
}

// GetLastProps returns a pointer to the most recently added binding's
// props, letting the compiler mark it IsCaptured in place when a closure
// captures it.
func (t *AddressTable) GetLastProps() *VarProps {
	return &t.props[len(t.props)-1]
}

// GetProps returns a pointer to the props stored at addr.
func (t *AddressTable) GetProps(addr uint32) *VarProps {
	return &t.props[addr]
}
