package vm

import (
	"fmt"

	"github.com/drdynamic/piscript/lang/value"
)

const gcGrowFactor = 2

// trackObject links a freshly constructed object into the VM's
// all-objects list and accounts for its size. The GC trigger check runs
// BEFORE the link, mirroring spec.md §4.7's allocation-growth trigger:
// the object being created here doesn't exist yet as far as any
// in-progress cycle is concerned, so there is no window where it could
// be swept before becoming reachable.
func (vm *VM) trackObject(obj value.Obj, size int64) {
	if vm.Debug.StressGC {
		vm.collectGarbage()
	} else if vm.bytesAllocated+size > vm.nextGC {
		vm.collectGarbage()
	}

	vm.bytesAllocated += size
	obj.SetNext(vm.objects)
	vm.objects = obj
	obj.SetTracked(true)
}

func (vm *VM) collectGarbage() {
	if vm.Debug.LogGC {
		fmt.Fprintln(vm.stderr, "-- gc begin")
	}

	vm.markRoots()
	vm.traceReferences()
	vm.strings.RemoveWhite()
	vm.sweep()

	vm.nextGC = vm.bytesAllocated * gcGrowFactor

	if vm.Debug.LogGC {
		fmt.Fprintln(vm.stderr, "-- gc end")
	}
}

// markRoots marks every root spec.md §4.7 step 1 names: the value
// stack, every call frame's closure, every open upvalue, every defined
// global, the name strings keying the globals address table, and
// initString. Marking the global names keeps RemoveWhite from dropping
// them from the intern table, so a later compile of the same name
// interns to the same pointer and resolves to the same address. The
// intern table itself is weak and is not a root.
func (vm *VM) markRoots() {
	for i := 0; i < vm.stackTop; i++ {
		vm.markValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		vm.markObject(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.NextOpen() {
		vm.markObject(uv)
	}
	for i, set := range vm.globalSet {
		if set {
			vm.markValue(vm.globalVals[i])
		}
	}
	for i := 0; i < vm.globalsAddr.Len(); i++ {
		vm.markObject(vm.globalsAddr.GetName(uint32(i)))
	}
	if vm.initString != nil {
		vm.markObject(vm.initString)
	}
}

func (vm *VM) markValue(v value.Value) {
	if obj, ok := v.(value.Obj); ok {
		vm.markObject(obj)
	}
}

func (vm *VM) markObject(obj value.Obj) {
	if obj == nil || obj.Marked() {
		return
	}
	if vm.Debug.LogGC {
		fmt.Fprintf(vm.stderr, "mark %s\n", obj.String())
	}
	obj.SetMarked(true)
	vm.grayStack = append(vm.grayStack, obj)
}

// traceReferences drains the gray worklist, blackening each object by
// visiting (and thereby marking) everything it references. Objects with
// no Trace implementation (strings, natives) go black the instant
// they're marked, since markObject already enqueued them with nothing
// further to do once popped.
func (vm *VM) traceReferences() {
	for len(vm.grayStack) > 0 {
		n := len(vm.grayStack) - 1
		obj := vm.grayStack[n]
		vm.grayStack = vm.grayStack[:n]
		vm.blacken(obj)
	}
}

func (vm *VM) blacken(obj value.Obj) {
	if vm.Debug.LogGC {
		fmt.Fprintf(vm.stderr, "blacken %s\n", obj.String())
	}
	if tracer, ok := obj.(value.Tracer); ok {
		tracer.Trace(vm.markValue)
	}
}

// sweep walks the all-objects list, unlinking and discarding anything
// left unmarked and clearing the mark bit on survivors (spec.md §4.7
// step 4).
func (vm *VM) sweep() {
	var prev value.Obj
	obj := vm.objects
	for obj != nil {
		if obj.Marked() {
			obj.SetMarked(false)
			prev = obj
			obj = obj.Next()
			continue
		}

		unreached := obj
		obj = obj.Next()
		if prev == nil {
			vm.objects = obj
		} else {
			prev.SetNext(obj)
		}
		if vm.Debug.LogGC {
			fmt.Fprintf(vm.stderr, "free %s\n", unreached.String())
		}
	}
}
