package vm

import "github.com/drdynamic/piscript/lang/value"

// captureUpvalue implements spec.md §4.6 captureUpvalue: walk the
// descending-by-location open-upvalue list, reusing an existing upvalue
// for slot if one is already open there, else splicing a new one in at
// the right position to keep the list ordered.
func (vm *VM) captureUpvalue(slot int) *value.Upvalue {
	var prev *value.Upvalue
	cur := vm.openUpvalues
	for cur != nil && cur.Location > slot {
		prev = cur
		cur = cur.NextOpen()
	}
	if cur != nil && cur.Location == slot {
		return cur
	}

	created := value.NewOpenUpvalue(slot)
	vm.trackObject(created, 0)
	created.SetNextOpen(cur)
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.SetNextOpen(created)
	}
	return created
}

// closeUpvalues implements spec.md §4.6 closeUpvalues: every open
// upvalue whose Location is at or above last has its live value copied
// out of the stack and is unlinked from the open list.
func (vm *VM) closeUpvalues(last int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Location >= last {
		uv := vm.openUpvalues
		uv.Closed = vm.stack[uv.Location]
		uv.Open = false
		vm.openUpvalues = uv.NextOpen()
		uv.SetNextOpen(nil)
	}
}
