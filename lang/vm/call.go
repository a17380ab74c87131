package vm

import "github.com/drdynamic/piscript/lang/value"

// callValue dispatches the four callable kinds spec.md §4.5 names. argc
// is the number of arguments already sitting on the stack above the
// callee at peek(argc).
func (vm *VM) callValue(callee value.Value, argc int) bool {
	switch c := callee.(type) {
	case *value.Closure:
		return vm.call(c, argc)
	case *value.NativeFn:
		return vm.callNative(c, argc)
	case *value.Class:
		return vm.callClass(c, argc)
	case *value.BoundMethod:
		vm.stack[vm.stackTop-argc-1] = c.Receiver
		return vm.call(c.Method, argc)
	default:
		vm.runtimeError("Can only call functions and classes.")
		return false
	}
}

func (vm *VM) call(closure *value.Closure, argc int) bool {
	if argc != closure.Fn.Arity {
		vm.runtimeError("Expected %d arguments but got %d.", closure.Fn.Arity, argc)
		return false
	}
	if vm.frameCount == framesMax {
		vm.runtimeError("Stack overflow.")
		return false
	}

	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slots = vm.stackTop - argc - 1
	return true
}

func (vm *VM) callNative(native *value.NativeFn, argc int) bool {
	args := make([]value.Value, argc)
	copy(args, vm.stack[vm.stackTop-argc:vm.stackTop])

	result, err := native.Fn(args)
	if err != nil {
		vm.runtimeError("%s", err.Error())
		return false
	}

	// A native that allocates a fresh heap value without going through
	// vm.InternString/vm.trackObject (it shouldn't, but defensively) hands
	// back an Obj the GC has never seen. Link it into vm.objects now so
	// it is swept like anything else. Checking the explicit Tracked bit
	// rather than Next()==nil matters: the oldest tracked object is
	// permanently the tail of the all-objects list, so a Next()==nil
	// heuristic would re-link it and corrupt the list into a cycle.
	if obj, ok := result.(value.Obj); ok && !obj.Tracked() {
		vm.trackObject(obj, 0)
	}

	vm.stackTop -= argc + 1
	vm.push(result)
	return true
}

func (vm *VM) callClass(class *value.Class, argc int) bool {
	instance := value.NewInstance(class)
	vm.trackObject(instance, 0)
	vm.stack[vm.stackTop-argc-1] = instance

	if initializer, ok := class.Method(vm.initString.String()); ok {
		return vm.call(initializer, argc)
	}
	if argc != 0 {
		vm.runtimeError("Expected 0 arguments but got %d.", argc)
		return false
	}
	return true
}

// invoke combines a property lookup and call for method-call syntax
// (`receiver.method(args)`), without materializing a BoundMethod (spec.md
// §4.4 INVOKE).
func (vm *VM) invoke(name *value.String, argc int) bool {
	receiver := vm.peek(argc)
	instance, ok := receiver.(*value.Instance)
	if !ok {
		vm.runtimeError("Only instances have methods.")
		return false
	}

	if field, ok := instance.Fields.Get(name.String()); ok {
		vm.stack[vm.stackTop-argc-1] = field
		return vm.callValue(field, argc)
	}
	return vm.invokeFromClass(instance.Class, name, argc)
}

func (vm *VM) invokeFromClass(class *value.Class, name *value.String, argc int) bool {
	method, ok := class.Method(name.String())
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.String())
		return false
	}
	return vm.call(method, argc)
}

// bindMethod looks up name on class, binds it to the current peek(0)
// receiver and replaces the receiver on the stack with the bound method
// (spec.md §3 BoundMethod, §4.4 GET_PROPERTY).
func (vm *VM) bindMethod(class *value.Class, name *value.String) bool {
	method, ok := class.Method(name.String())
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.String())
		return false
	}

	bound := value.NewBoundMethod(vm.peek(0), method)
	vm.trackObject(bound, 0)
	vm.pop()
	vm.push(bound)
	return true
}
