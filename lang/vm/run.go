package vm

import (
	"fmt"

	"github.com/drdynamic/piscript/lang/compiler"
	"github.com/drdynamic/piscript/lang/value"
)

func (vm *VM) frame() *CallFrame { return &vm.frames[vm.frameCount-1] }

func (vm *VM) readByte() byte {
	f := vm.frame()
	b := f.closure.Fn.Chunk.Code[f.ip]
	f.ip++
	return b
}

func (vm *VM) readShort() int {
	hi := vm.readByte()
	lo := vm.readByte()
	return int(hi)<<8 | int(lo)
}

func (vm *VM) readUint24() int {
	b0, b1, b2 := vm.readByte(), vm.readByte(), vm.readByte()
	return int(b0)<<16 | int(b1)<<8 | int(b2)
}

func (vm *VM) readConstant(long bool) value.Value {
	idx := int(vm.readByte())
	if long {
		f := vm.frame()
		f.ip--
		idx = vm.readUint24()
	}
	return vm.frame().closure.Fn.Chunk.Constants[idx]
}

func (vm *VM) readString(long bool) *value.String {
	return vm.readConstant(long).(*value.String)
}

// run is the interpreter's fetch-decode-execute loop (spec.md §4.4, §4.5).
// It is only ever entered with at least one call frame pushed.
func (vm *VM) run() InterpretResult {
	for {
		op := compiler.OpCode(vm.readByte())
		switch op {
		case compiler.OpConstant:
			vm.push(vm.readConstant(false))
		case compiler.OpConstantLong:
			vm.push(vm.readConstant(true))

		case compiler.OpNil:
			vm.push(value.Nil{})
		case compiler.OpTrue:
			vm.push(value.Bool(true))
		case compiler.OpFalse:
			vm.push(value.Bool(false))

		case compiler.OpPop:
			vm.pop()

		case compiler.OpGetLocal:
			vm.push(vm.stack[vm.frame().slots+int(vm.readByte())])
		case compiler.OpGetLocalLong:
			vm.push(vm.stack[vm.frame().slots+vm.readUint24()])
		case compiler.OpSetLocal:
			vm.stack[vm.frame().slots+int(vm.readByte())] = vm.peek(0)
		case compiler.OpSetLocalLong:
			vm.stack[vm.frame().slots+vm.readUint24()] = vm.peek(0)

		case compiler.OpGetGlobal:
			if !vm.getGlobal(uint32(vm.readByte())) {
				return InterpretRuntimeError
			}
		case compiler.OpGetGlobalLong:
			if !vm.getGlobal(uint32(vm.readUint24())) {
				return InterpretRuntimeError
			}
		case compiler.OpDefineGlobal:
			vm.defineGlobal(uint32(vm.readByte()))
		case compiler.OpDefineGlobalLong:
			vm.defineGlobal(uint32(vm.readUint24()))
		case compiler.OpSetGlobal:
			if !vm.setGlobal(uint32(vm.readByte())) {
				return InterpretRuntimeError
			}
		case compiler.OpSetGlobalLong:
			if !vm.setGlobal(uint32(vm.readUint24())) {
				return InterpretRuntimeError
			}

		case compiler.OpGetUpvalue:
			idx := int(vm.readByte())
			uv := vm.frame().closure.Upvalues[idx]
			if uv.Open {
				vm.push(vm.stack[uv.Location])
			} else {
				vm.push(uv.Closed)
			}
		case compiler.OpSetUpvalue:
			idx := int(vm.readByte())
			uv := vm.frame().closure.Upvalues[idx]
			if uv.Open {
				vm.stack[uv.Location] = vm.peek(0)
			} else {
				uv.Closed = vm.peek(0)
			}

		case compiler.OpGetProperty:
			if !vm.getProperty(vm.readString(false)) {
				return InterpretRuntimeError
			}
		case compiler.OpGetPropertyLong:
			if !vm.getProperty(vm.readString(true)) {
				return InterpretRuntimeError
			}
		case compiler.OpSetProperty:
			if !vm.setProperty(vm.readString(false)) {
				return InterpretRuntimeError
			}
		case compiler.OpSetPropertyLong:
			if !vm.setProperty(vm.readString(true)) {
				return InterpretRuntimeError
			}

		case compiler.OpGetSuper:
			name := vm.readString(false)
			superclass := vm.pop().(*value.Class)
			if !vm.bindMethod(superclass, name) {
				return InterpretRuntimeError
			}
		case compiler.OpGetSuperLong:
			name := vm.readString(true)
			superclass := vm.pop().(*value.Class)
			if !vm.bindMethod(superclass, name) {
				return InterpretRuntimeError
			}

		case compiler.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case compiler.OpNotEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(!value.Equal(a, b)))

		case compiler.OpGreater:
			if !vm.numericCompare(func(a, b float64) bool { return a > b }) {
				return InterpretRuntimeError
			}
		case compiler.OpGreaterEqual:
			if !vm.numericCompare(func(a, b float64) bool { return a >= b }) {
				return InterpretRuntimeError
			}
		case compiler.OpLess:
			if !vm.numericCompare(func(a, b float64) bool { return a < b }) {
				return InterpretRuntimeError
			}
		case compiler.OpLessEqual:
			if !vm.numericCompare(func(a, b float64) bool { return a <= b }) {
				return InterpretRuntimeError
			}

		case compiler.OpAdd:
			if !vm.add() {
				return InterpretRuntimeError
			}
		case compiler.OpSubtract:
			if !vm.numericBinary(func(a, b float64) float64 { return a - b }) {
				return InterpretRuntimeError
			}
		case compiler.OpMultiply:
			if !vm.numericBinary(func(a, b float64) float64 { return a * b }) {
				return InterpretRuntimeError
			}
		case compiler.OpDivide:
			if !vm.numericBinary(func(a, b float64) float64 { return a / b }) {
				return InterpretRuntimeError
			}
		case compiler.OpNegate:
			n, ok := vm.peek(0).(value.Number)
			if !ok {
				vm.runtimeError("Operand must be a number.")
				return InterpretRuntimeError
			}
			vm.pop()
			vm.push(-n)

		case compiler.OpNot:
			vm.push(value.Bool(!value.Truthy(vm.pop())))

		case compiler.OpPrint:
			vm.printValue(vm.pop())

		case compiler.OpJump:
			off := vm.readShort()
			vm.frame().ip += off
		case compiler.OpJumpIfFalse:
			off := vm.readShort()
			if !value.Truthy(vm.peek(0)) {
				vm.frame().ip += off
			}
		case compiler.OpLoop:
			off := vm.readShort()
			vm.frame().ip -= off

		case compiler.OpCall:
			argc := int(vm.readByte())
			if !vm.callValue(vm.peek(argc), argc) {
				return InterpretRuntimeError
			}

		case compiler.OpInvoke:
			name := vm.readString(false)
			argc := int(vm.readByte())
			if !vm.invoke(name, argc) {
				return InterpretRuntimeError
			}
		case compiler.OpInvokeLong:
			name := vm.readString(true)
			argc := int(vm.readByte())
			if !vm.invoke(name, argc) {
				return InterpretRuntimeError
			}

		case compiler.OpSuperInvoke:
			name := vm.readString(false)
			argc := int(vm.readByte())
			superclass := vm.pop().(*value.Class)
			if !vm.invokeFromClass(superclass, name, argc) {
				return InterpretRuntimeError
			}
		case compiler.OpSuperInvokeLong:
			name := vm.readString(true)
			argc := int(vm.readByte())
			superclass := vm.pop().(*value.Class)
			if !vm.invokeFromClass(superclass, name, argc) {
				return InterpretRuntimeError
			}

		case compiler.OpClosure:
			vm.makeClosure(vm.readConstant(false).(*value.Function))
		case compiler.OpClosureLong:
			vm.makeClosure(vm.readConstant(true).(*value.Function))

		case compiler.OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case compiler.OpClass:
			vm.push(vm.newClass(vm.readString(false)))
		case compiler.OpClassLong:
			vm.push(vm.newClass(vm.readString(true)))

		case compiler.OpInherit:
			if !vm.inherit() {
				return InterpretRuntimeError
			}

		case compiler.OpMethod:
			vm.defineMethod(vm.readString(false))
		case compiler.OpMethodLong:
			vm.defineMethod(vm.readString(true))

		case compiler.OpArrayInit:
			n := int(vm.readByte())
			elems := make([]value.Value, n)
			copy(elems, vm.stack[vm.stackTop-n:vm.stackTop])
			vm.stackTop -= n
			arr := value.NewArray(elems)
			vm.trackObject(arr, int64(n)*16)
			vm.push(arr)

		case compiler.OpArrayAdd:
			if !vm.arrayAdd() {
				return InterpretRuntimeError
			}

		case compiler.OpGetPropertyStack:
			if !vm.getPropertyStack() {
				return InterpretRuntimeError
			}
		case compiler.OpSetPropertyStack:
			if !vm.setPropertyStack() {
				return InterpretRuntimeError
			}

		case compiler.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(vm.frame().slots)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return InterpretOK
			}
			vm.stackTop = vm.frame().slots
			vm.push(result)

		default:
			vm.runtimeError("Unknown opcode %d.", op)
			return InterpretRuntimeError
		}
	}
}

func (vm *VM) getGlobal(addr uint32) bool {
	if int(addr) >= len(vm.globalSet) || !vm.globalSet[addr] {
		vm.runtimeError("Undefined variable '%s'.", vm.globalsAddr.GetName(addr).String())
		return false
	}
	vm.push(vm.globalVals[addr])
	return true
}

func (vm *VM) defineGlobal(addr uint32) {
	vm.ensureGlobalsCapacity(addr)
	vm.globalVals[addr] = vm.pop()
	vm.globalSet[addr] = true
}

func (vm *VM) setGlobal(addr uint32) bool {
	if int(addr) >= len(vm.globalSet) || !vm.globalSet[addr] {
		vm.runtimeError("Undefined variable '%s'.", vm.globalsAddr.GetName(addr).String())
		return false
	}
	vm.globalVals[addr] = vm.peek(0)
	return true
}

func (vm *VM) numericCompare(cmp func(a, b float64) bool) bool {
	b, okB := vm.peek(0).(value.Number)
	a, okA := vm.peek(1).(value.Number)
	if !okA || !okB {
		vm.runtimeError("Operands must be numbers.")
		return false
	}
	vm.pop()
	vm.pop()
	vm.push(value.Bool(cmp(float64(a), float64(b))))
	return true
}

func (vm *VM) numericBinary(op func(a, b float64) float64) bool {
	b, okB := vm.peek(0).(value.Number)
	a, okA := vm.peek(1).(value.Number)
	if !okA || !okB {
		vm.runtimeError("Operands must be numbers.")
		return false
	}
	vm.pop()
	vm.pop()
	vm.push(value.Number(op(float64(a), float64(b))))
	return true
}

// add implements ADD's dual numeric/string overload (spec.md §4.4 ADD):
// two numbers sum, two strings concatenate into a freshly interned
// string, anything else is an error.
func (vm *VM) add() bool {
	bStr, bIsStr := vm.peek(0).(*value.String)
	aStr, aIsStr := vm.peek(1).(*value.String)
	if aIsStr && bIsStr {
		concatenated := append(append([]byte{}, aStr.Bytes()...), bStr.Bytes()...)
		result, isNew := vm.strings.Intern(concatenated, false)
		// Pop only after the result exists and is about to be rooted by the
		// push below, per spec.md §4.7's allocation safety protocol.
		if isNew {
			vm.trackObject(result, int64(len(concatenated)))
		}
		vm.pop()
		vm.pop()
		vm.push(result)
		return true
	}

	bNum, bIsNum := vm.peek(0).(value.Number)
	aNum, aIsNum := vm.peek(1).(value.Number)
	if aIsNum && bIsNum {
		vm.pop()
		vm.pop()
		vm.push(aNum + bNum)
		return true
	}

	vm.runtimeError("Operands must be two numbers or two strings.")
	return false
}

func (vm *VM) printValue(v value.Value) {
	fmt.Fprintln(vm.stdout, v.String())
}

func (vm *VM) makeClosure(fn *value.Function) {
	closure := value.NewClosure(fn)
	vm.trackObject(closure, 0)
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := vm.readByte() == 1
		idx := int(vm.readByte())
		if isLocal {
			closure.Upvalues[i] = vm.captureUpvalue(vm.frame().slots + idx)
		} else {
			closure.Upvalues[i] = vm.frame().closure.Upvalues[idx]
		}
	}
	vm.push(closure)
}

func (vm *VM) newClass(name *value.String) *value.Class {
	class := value.NewClass(name.String())
	vm.trackObject(class, 0)
	return class
}

// inherit copies the superclass's method table into the subclass
// (peek(0)) and pops only the subclass copy, leaving the superclass in
// place at the stack address the compiler's `super` local refers to —
// method bodies reach it through that local, captured as an upvalue,
// before GET_SUPER/SUPER_INVOKE (spec.md §4.4 INHERIT; §4.3.3
// superclass clause).
func (vm *VM) inherit() bool {
	superValue := vm.peek(1)
	superclass, ok := superValue.(*value.Class)
	if !ok {
		vm.runtimeError("Superclass must be a class.")
		return false
	}
	subclass := vm.peek(0).(*value.Class)
	superclass.Methods.Iter(func(name string, m *value.Closure) bool {
		subclass.Methods.Put(name, m)
		return false
	})
	vm.pop()
	return true
}

func (vm *VM) defineMethod(name *value.String) {
	method := vm.pop().(*value.Closure)
	class := vm.peek(0).(*value.Class)
	class.Methods.Put(name.String(), method)
}

func (vm *VM) getProperty(name *value.String) bool {
	instance, ok := vm.peek(0).(*value.Instance)
	if !ok {
		vm.runtimeError("Only instances have properties.")
		return false
	}
	if field, ok := instance.Fields.Get(name.String()); ok {
		vm.pop()
		vm.push(field)
		return true
	}
	return vm.bindMethod(instance.Class, name)
}

func (vm *VM) setProperty(name *value.String) bool {
	instance, ok := vm.peek(1).(*value.Instance)
	if !ok {
		vm.runtimeError("Only instances have fields.")
		return false
	}
	instance.Fields.Put(name.String(), vm.peek(0))
	v := vm.pop()
	vm.pop()
	vm.push(v)
	return true
}

func (vm *VM) getPropertyStack() bool {
	key := vm.pop()
	switch recv := vm.pop().(type) {
	case *value.Array:
		idx, ok := key.(value.Number)
		if !ok {
			vm.runtimeError("Array index must be a number.")
			return false
		}
		i := int(idx)
		if i < 0 || i >= len(recv.Elements) {
			vm.runtimeError("Array index out of range.")
			return false
		}
		vm.push(recv.Elements[i])
		return true
	case *value.Instance:
		keyStr, ok := key.(*value.String)
		if !ok {
			vm.runtimeError("Property key must be a string.")
			return false
		}
		if field, ok := recv.Fields.Get(keyStr.String()); ok {
			vm.push(field)
			return true
		}
		vm.push(recv)
		return vm.bindMethod(recv.Class, keyStr)
	default:
		vm.runtimeError("Only arrays and instances support indexing.")
		return false
	}
}

func (vm *VM) setPropertyStack() bool {
	val := vm.pop()
	key := vm.pop()
	switch recv := vm.pop().(type) {
	case *value.Array:
		idx, ok := key.(value.Number)
		if !ok {
			vm.runtimeError("Array index must be a number.")
			return false
		}
		i := int(idx)
		if i < 0 || i >= len(recv.Elements) {
			vm.runtimeError("Array index out of range.")
			return false
		}
		recv.Elements[i] = val
		vm.push(val)
		return true
	case *value.Instance:
		keyStr, ok := key.(*value.String)
		if !ok {
			vm.runtimeError("Property key must be a string.")
			return false
		}
		recv.Fields.Put(keyStr.String(), val)
		vm.push(val)
		return true
	default:
		vm.runtimeError("Only arrays and instances support indexed assignment.")
		return false
	}
}

func (vm *VM) arrayAdd() bool {
	val := vm.pop()
	arr, ok := vm.peek(0).(*value.Array)
	if !ok {
		vm.runtimeError("Can only append to an array.")
		return false
	}
	arr.Elements = append(arr.Elements, val)
	return true
}
