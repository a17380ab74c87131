// Package vm implements L's stack-based execution engine: the call-frame
// array, the interpreter's fetch-decode-execute loop, closures, classes,
// bound-method dispatch, and the tri-color mark-and-sweep garbage
// collector (spec.md §4.5–§4.7). It is the single owner of the heap: the
// compiler only ever touches the shared string-intern table and globals
// address table it's handed, never an object graph of its own.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/drdynamic/piscript/lang/compiler"
	"github.com/drdynamic/piscript/lang/table"
	"github.com/drdynamic/piscript/lang/value"
)

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// InterpretResult is the outcome of a VM.Interpret call (spec.md §6).
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

func (r InterpretResult) String() string {
	switch r {
	case InterpretOK:
		return "OK"
	case InterpretCompileError:
		return "COMPILE_ERROR"
	case InterpretRuntimeError:
		return "RUNTIME_ERROR"
	default:
		return "UNKNOWN"
	}
}

// CallFrame is one activation record: the closure being executed, the
// instruction pointer into its chunk, and the base stack index slot 0 of
// this invocation maps to (spec.md §3 Lifecycles, Glossary "Call frame").
type CallFrame struct {
	closure *value.Closure
	ip      int
	slots   int
}

// DebugFlags toggles the GC trace hooks spec.md §4.7 mentions
// (STRESS_GC, LOG_GC_*). All default off.
type DebugFlags struct {
	StressGC bool
	LogGC    bool
}

// VM is the explicit, owned execution context spec.md §9's Design Notes
// recommend in place of the source's process-wide globals: one VM owns
// its stack, call frames, heap, GC state, and the string/globals tables
// it shares with the compiler.
type VM struct {
	frames     [framesMax]CallFrame
	frameCount int

	stack    [stackMax]value.Value
	stackTop int

	strings     table.Strings
	globalsAddr table.AddressTable
	globalVals  []value.Value
	globalSet   []bool

	initString *value.String

	openUpvalues *value.Upvalue

	objects        value.Obj
	bytesAllocated int64
	nextGC         int64
	grayStack      []value.Obj

	stdout io.Writer
	stderr io.Writer
	Debug  DebugFlags
}

// New returns a VM ready to Interpret source, writing PRINT output to
// stdout and compile/runtime diagnostics to stderr (spec.md §6 "Exit
// codes / diagnostics").
func New() *VM {
	vm := &VM{
		stdout: os.Stdout,
		stderr: os.Stderr,
		nextGC: 1024 * 1024,
	}
	vm.initString, _ = vm.strings.Intern([]byte("init"), true)
	return vm
}

// SetStdout redirects PRINT output; primarily for tests.
func (vm *VM) SetStdout(w io.Writer) { vm.stdout = w }

// SetStderr redirects compile/runtime diagnostics; primarily for tests.
func (vm *VM) SetStderr(w io.Writer) { vm.stderr = w }

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

// Interpret compiles and runs source in this VM, per spec.md §6's
// interpret(source) host entry point.
func (vm *VM) Interpret(source string) InterpretResult {
	fn, ok := compiler.Compile(source, &vm.strings, &vm.globalsAddr, compiler.WithErrorWriter(vm.stderr))
	if !ok {
		return InterpretCompileError
	}

	vm.resetStack()
	closure := value.NewClosure(fn)
	vm.trackObject(closure, 0)
	vm.push(closure)
	vm.callValue(closure, 0)

	return vm.run()
}

// DefineNative registers fn as a read-only global named name, visible to
// code compiled afterwards (spec.md §6 "defineNative(name, fn): register
// a native callable visible as a read-only global; must be called before
// interpret").
func (vm *VM) DefineNative(name string, fn func(args []value.Value) (value.Value, error)) {
	nameStr, isNew := vm.strings.Intern([]byte(name), true)
	// Bind the name before any allocation below can trigger a collection,
	// so markRoots reaches it and the intern table keeps it.
	addr, exists := vm.globalsAddr.GetAddress(nameStr)
	if !exists {
		addr = vm.globalsAddr.Add(nameStr, table.VarProps{Depth: 0, Readonly: true})
	}
	if isNew {
		vm.trackObject(nameStr, int64(len(name)))
	}
	native := value.NewNativeFn(name, fn)
	vm.trackObject(native, 0)

	vm.ensureGlobalsCapacity(addr)
	vm.globalVals[addr] = native
	vm.globalSet[addr] = true
}

// InternString returns the canonical *value.String for b, allocating and
// tracking a new one only if no equal string is already interned
// (spec.md §3 "All strings are interned... string equality reduces to
// pointer identity"). Natives that manufacture a string result (e.g.
// lang/native's str()/type()) must go through this rather than
// value.NewString directly, the same way add() interns concatenation
// results below.
func (vm *VM) InternString(b []byte) *value.String {
	result, isNew := vm.strings.Intern(b, true)
	if isNew {
		vm.trackObject(result, int64(len(b)))
	}
	return result
}

func (vm *VM) ensureGlobalsCapacity(addr uint32) {
	for uint32(len(vm.globalVals)) <= addr {
		vm.globalVals = append(vm.globalVals, value.Nil{})
		vm.globalSet = append(vm.globalSet, false)
	}
}

func (vm *VM) runtimeError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(vm.stderr, msg)

	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		fn := frame.closure.Fn
		line := fn.Chunk.LineAt(frame.ip - 1)
		name := fn.Name
		if name == "" {
			name = "script"
		} else {
			name += "()"
		}
		fmt.Fprintf(vm.stderr, "[line %d] in %s\n", line, name)
	}

	vm.resetStack()
}
