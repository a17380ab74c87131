package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drdynamic/piscript/lang/value"
	"github.com/drdynamic/piscript/lang/vm"
)

func run(t *testing.T, src string) (stdout, stderr string, result vm.InterpretResult) {
	t.Helper()
	m := vm.New()
	var out, errOut bytes.Buffer
	m.SetStdout(&out)
	m.SetStderr(&errOut)
	result = m.Interpret(src)
	return out.String(), errOut.String(), result
}

func TestScenario1_ArithmeticAndPrint(t *testing.T) {
	out, _, res := run(t, `var a = 1; var b = 2; print a + b;`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "3\n", out)
}

func TestScenario2_ClosureOverOuterLocal(t *testing.T) {
	out, _, res := run(t, `fun outer(){ var x = 10; fun inner(){ return x; } return inner; } print outer()();`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "10\n", out)
}

func TestScenario3_ClassInitAndMethod(t *testing.T) {
	out, _, res := run(t, `class C { init(v){ this.v = v; } get(){ return this.v; } } print C(7).get();`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "7\n", out)
}

func TestScenario4_SingleInheritance(t *testing.T) {
	out, _, res := run(t, `class A { hello(){ return "A"; } } class B < A {} print B().hello();`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "A\n", out)
}

func TestScenario5_BlockScopeShadowing(t *testing.T) {
	out, _, res := run(t, `var c = "x"; { var c = "y"; print c; } print c;`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "y\nx\n", out)
}

func TestScenario6_AddTypeMismatchIsRuntimeError(t *testing.T) {
	_, errOut, res := run(t, `print 1 + "a";`)
	assert.Equal(t, vm.InterpretRuntimeError, res)
	assert.Contains(t, errOut, "Operands must be two numbers or two strings.")
}

func TestScenario7_ConstReassignmentIsCompileError(t *testing.T) {
	_, errOut, res := run(t, `const k = 1; k = 2;`)
	assert.Equal(t, vm.InterpretCompileError, res)
	assert.Contains(t, errOut, "Can not assign to constant.")
}

func TestScenario8_ForLoop(t *testing.T) {
	out, _, res := run(t, `for (var i = 0; i < 3; i = i + 1) print i;`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestScenario9_RecursiveFibonacci(t *testing.T) {
	out, _, res := run(t, `fun fib(n){ if (n<2) return n; return fib(n-1)+fib(n-2); } print fib(10);`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "55\n", out)
}

func TestScenario10_StressGCPreservesOutput(t *testing.T) {
	programs := []struct {
		src  string
		want string
	}{
		{`var a = 1; var b = 2; print a + b;`, "3\n"},
		{`fun outer(){ var x = 10; fun inner(){ return x; } return inner; } print outer()();`, "10\n"},
		{`class C { init(v){ this.v = v; } get(){ return this.v; } } print C(7).get();`, "7\n"},
		{`class A { hello(){ return "A"; } } class B < A {} print B().hello();`, "A\n"},
		{`var c = "x"; { var c = "y"; print c; } print c;`, "y\nx\n"},
		{`for (var i = 0; i < 3; i = i + 1) print i;`, "0\n1\n2\n"},
		{`fun fib(n){ if (n<2) return n; return fib(n-1)+fib(n-2); } print fib(10);`, "55\n"},
	}
	for _, p := range programs {
		m := vm.New()
		m.Debug.StressGC = true
		var out bytes.Buffer
		m.SetStdout(&out)
		res := m.Interpret(p.src)
		require.Equal(t, vm.InterpretOK, res, p.src)
		assert.Equal(t, p.want, out.String(), p.src)
	}
}

func TestDefineGlobalThenGetGlobalRoundTrips(t *testing.T) {
	out, _, res := run(t, `var x = 42; print x;`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "42\n", out)
}

func TestUndefinedGlobalReadIsRuntimeError(t *testing.T) {
	_, errOut, res := run(t, `print undeclared;`)
	assert.Equal(t, vm.InterpretRuntimeError, res)
	assert.Contains(t, errOut, "Undefined variable 'undeclared'.")
}

func TestUndefinedGlobalWriteIsRuntimeError(t *testing.T) {
	_, errOut, res := run(t, `undeclared = 1;`)
	assert.Equal(t, vm.InterpretRuntimeError, res)
	assert.Contains(t, errOut, "Undefined variable 'undeclared'.")
}

func TestCallingNonCallableIsRuntimeError(t *testing.T) {
	_, errOut, res := run(t, `var x = 1; x();`)
	assert.Equal(t, vm.InterpretRuntimeError, res)
	assert.Contains(t, errOut, "Can only call functions and classes.")
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, errOut, res := run(t, `fun f(a,b){ return a+b; } f(1);`)
	assert.Equal(t, vm.InterpretRuntimeError, res)
	assert.Contains(t, errOut, "Expected 2 arguments but got 1.")
}

func TestSuperInvokeCallsSuperclassMethod(t *testing.T) {
	out, _, res := run(t, `
class A { hello(){ return "A"; } }
class B < A { hello(){ return super.hello() + "B"; } }
print B().hello();
`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "AB\n", out)
}

func TestGetSuperWithoutCallBindsMethod(t *testing.T) {
	out, _, res := run(t, `
class A { hello(){ return "A"; } }
class B < A { getHello(){ var h = super.hello; return h(); } }
print B().getHello();
`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "A\n", out)
}

func TestPropertyAccessOnNonInstanceIsRuntimeError(t *testing.T) {
	_, errOut, res := run(t, `var x = 1; print x.y;`)
	assert.Equal(t, vm.InterpretRuntimeError, res)
	assert.Contains(t, errOut, "Only instances have properties.")
}

func TestUndefinedPropertyIsRuntimeError(t *testing.T) {
	_, errOut, res := run(t, `class C {} print C().missing;`)
	assert.Equal(t, vm.InterpretRuntimeError, res)
	assert.Contains(t, errOut, "Undefined property 'missing'.")
}

func TestStringConcatenationInterns(t *testing.T) {
	out, _, res := run(t, `print "foo" + "bar";`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "foobar\n", out)
}

func TestArrayLiteralIndexAndAppend(t *testing.T) {
	out, _, res := run(t, `
var arr = [1, 2, 3];
print arr[1];
arr[1] = 20;
print arr[1];
arr[] = 4;
print arr[3];
`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "2\n20\n4\n", out)
}

func TestStackOverflowIsRuntimeError(t *testing.T) {
	_, errOut, res := run(t, `fun f(){ return f(); } f();`)
	assert.Equal(t, vm.InterpretRuntimeError, res)
	assert.Contains(t, errOut, "Stack overflow.")
}

func TestRuntimeErrorIncludesStackTrace(t *testing.T) {
	_, errOut, res := run(t, `
fun inner(){ return 1 + "a"; }
fun outer(){ return inner(); }
outer();
`)
	assert.Equal(t, vm.InterpretRuntimeError, res)
	lines := strings.Split(strings.TrimSpace(errOut), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Contains(t, lines[1], "inner()")
	assert.Contains(t, lines[2], "outer()")
}

func TestDefineNativeIsCallableReadonlyGlobal(t *testing.T) {
	m := vm.New()
	var out bytes.Buffer
	m.SetStdout(&out)
	m.DefineNative("double", func(args []value.Value) (value.Value, error) {
		n := args[0].(value.Number)
		return n * 2, nil
	})
	res := m.Interpret(`print double(21);`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "42\n", out.String())

	var errOut bytes.Buffer
	m.SetStderr(&errOut)
	res = m.Interpret(`double = 1;`)
	assert.Equal(t, vm.InterpretCompileError, res)
	assert.Contains(t, errOut.String(), "Can not assign to constant.")
}
