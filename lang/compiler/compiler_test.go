package compiler_test

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drdynamic/piscript/lang/compiler"
	"github.com/drdynamic/piscript/lang/table"
)

func compileSrc(t *testing.T, src string) (string, bool, string) {
	t.Helper()
	var strings table.Strings
	var globals table.AddressTable
	var errBuf bytes.Buffer
	fn, ok := compiler.Compile(src, &strings, &globals, compiler.WithErrorWriter(&errBuf))

	var out bytes.Buffer
	if fn != nil {
		compiler.Disassemble(&out, fn, "test")
	}
	return out.String(), ok, errBuf.String()
}

func TestCompileSimpleArithmetic(t *testing.T) {
	disasm, ok, errs := compileSrc(t, "print 1 + 2;")
	require.True(t, ok, errs)
	assert.Contains(t, disasm, "CONSTANT")
	assert.Contains(t, disasm, "ADD")
	assert.Contains(t, disasm, "PRINT")
}

func TestCompileVarDeclarationAndGlobalAccess(t *testing.T) {
	disasm, ok, errs := compileSrc(t, "var a = 1; print a;")
	require.True(t, ok, errs)
	assert.Contains(t, disasm, "DEFINE_GLOBAL")
	assert.Contains(t, disasm, "GET_GLOBAL")
}

func TestCompileLocalScope(t *testing.T) {
	disasm, ok, errs := compileSrc(t, "{ var a = 1; print a; }")
	require.True(t, ok, errs)
	assert.Contains(t, disasm, "GET_LOCAL")
	assert.Contains(t, disasm, "POP")
}

func TestCompileFunctionAndClosure(t *testing.T) {
	src := `fun outer(){ var x = 10; fun inner(){ return x; } return inner; }`
	disasm, ok, errs := compileSrc(t, src)
	require.True(t, ok, errs)
	assert.Contains(t, disasm, "CLOSURE")
}

func TestCompileClassWithMethodAndInit(t *testing.T) {
	src := `class C { init(v){ this.v = v; } get(){ return this.v; } }`
	disasm, ok, errs := compileSrc(t, src)
	require.True(t, ok, errs)
	assert.Contains(t, disasm, "CLASS")
	assert.Contains(t, disasm, "METHOD")
	assert.Contains(t, disasm, "SET_PROPERTY")
}

func TestCompileInheritanceAndSuper(t *testing.T) {
	src := `class A { hello(){ return "A"; } }
class B < A { hello(){ return super.hello(); } }`
	disasm, ok, errs := compileSrc(t, src)
	require.True(t, ok, errs)
	assert.Contains(t, disasm, "INHERIT")
	assert.Contains(t, disasm, "SUPER_INVOKE")
}

func TestClassCannotInheritFromItself(t *testing.T) {
	_, ok, errs := compileSrc(t, `class A < A {}`)
	assert.False(t, ok)
	assert.Contains(t, errs, "can't inherit from itself")
}

func TestThisOutsideClassIsError(t *testing.T) {
	_, ok, errs := compileSrc(t, `print this;`)
	assert.False(t, ok)
	assert.Contains(t, errs, "Can't use 'this'")
}

func TestSuperOutsideClassIsError(t *testing.T) {
	_, ok, errs := compileSrc(t, `print super.x;`)
	assert.False(t, ok)
	assert.Contains(t, errs, "Can't use 'super'")
}

func TestSuperWithoutSuperclassIsError(t *testing.T) {
	_, ok, errs := compileSrc(t, `class A { m(){ return super.m(); } }`)
	assert.False(t, ok)
	assert.Contains(t, errs, "no superclass")
}

func TestConstReassignmentIsCompileError(t *testing.T) {
	_, ok, errs := compileSrc(t, `const k = 1; k = 2;`)
	assert.False(t, ok)
	assert.Contains(t, errs, "Can not assign to constant.")
}

func TestConstRedeclarationOfExistingGlobalSticks(t *testing.T) {
	// A global can be redeclared (unlike a local): firstOrMakeGlobal reuses
	// the same address. defineVariable must still overwrite Readonly on
	// every redefinition, or a later `const` redeclaring an earlier plain
	// `var` would leave the address permanently writable.
	_, ok, errs := compileSrc(t, `var k = 1; const k = 2; k = 3;`)
	assert.False(t, ok)
	assert.Contains(t, errs, "Can not assign to constant.")
}

func TestVarRedeclarationOfExistingConstLiftsReadonly(t *testing.T) {
	// The same unconditional overwrite must also work in reverse: a plain
	// `var` redeclaring an earlier `const` makes the address writable
	// again.
	_, ok, errs := compileSrc(t, `const k = 1; var k = 2; k = 3;`)
	assert.True(t, ok, errs)
}

func TestUndeclaredGlobalIsNotACompileError(t *testing.T) {
	// spec.md §7: undeclared globals resolve at runtime, not compile time.
	_, ok, errs := compileSrc(t, `print undefinedGlobal;`)
	assert.True(t, ok, errs)
}

func TestDuplicateLocalInSameScopeIsError(t *testing.T) {
	_, ok, errs := compileSrc(t, `{ var a = 1; var a = 2; }`)
	assert.False(t, ok)
	assert.Contains(t, errs, "Already a variable with this name in this scope.")
}

func TestShadowingOuterScopeIsAllowed(t *testing.T) {
	_, ok, errs := compileSrc(t, `var c = "x"; { var c = "y"; print c; } print c;`)
	assert.True(t, ok, errs)
}

func TestTooManyLocalVariablesIsError(t *testing.T) {
	var src bytes.Buffer
	src.WriteString("{\n")
	for i := 0; i < 257; i++ {
		src.WriteString("var x")
		src.WriteString(strconv.Itoa(i))
		src.WriteString(" = 0;\n")
	}
	src.WriteString("}\n")
	_, ok, errs := compileSrc(t, src.String())
	assert.False(t, ok)
	assert.Contains(t, errs, "Too many local variables in function.")
}

func TestTooManyParametersIsError(t *testing.T) {
	var src bytes.Buffer
	src.WriteString("fun f(")
	for i := 0; i < 256; i++ {
		if i > 0 {
			src.WriteString(", ")
		}
		src.WriteString("p")
		src.WriteString(strconv.Itoa(i))
	}
	src.WriteString(") {}\n")
	_, ok, errs := compileSrc(t, src.String())
	assert.False(t, ok)
	assert.Contains(t, errs, "Can't have more than 255 parameters.")
}

func TestTooManyArgumentsIsError(t *testing.T) {
	var src bytes.Buffer
	src.WriteString("fun f() {}\nf(")
	for i := 0; i < 256; i++ {
		if i > 0 {
			src.WriteString(", ")
		}
		src.WriteString("0")
	}
	src.WriteString(");\n")
	_, ok, errs := compileSrc(t, src.String())
	assert.False(t, ok)
	assert.Contains(t, errs, "Can't have more than 255 arguments.")
}

func TestTooManyUpvaluesIsError(t *testing.T) {
	// spec.md §8: "closures capturing the 256th upvalue must be rejected".
	// outer declares 255 locals (slot 0 + 255 == maxLocals); middle, nested
	// in outer, declares 2 of its own locals and forwards outer's 255 as
	// upvalues of its own (under middle's maxUpvalues); inner, nested in
	// middle, references all 257 names, so inner needs 255 forwarded
	// upvalues (from middle) plus 2 direct ones (from middle's own
	// locals) == 257, one over inner's maxUpvalues limit.
	var src bytes.Buffer
	src.WriteString("fun outer() {\n")
	for i := 0; i < 255; i++ {
		src.WriteString("var x")
		src.WriteString(strconv.Itoa(i))
		src.WriteString(" = 0;\n")
	}
	src.WriteString("fun middle() {\nvar m0 = 0;\nvar m1 = 0;\nfun inner() {\n")
	for i := 0; i < 255; i++ {
		src.WriteString("x")
		src.WriteString(strconv.Itoa(i))
		src.WriteString(";\n")
	}
	src.WriteString("m0;\nm1;\n}\nreturn inner;\n}\nreturn middle;\n}\n")

	_, ok, errs := compileSrc(t, src.String())
	assert.False(t, ok)
	assert.Contains(t, errs, "Too many closure variables in function.")
}

func TestConstantPoolOf256EntriesUsesLongOpcode(t *testing.T) {
	var src bytes.Buffer
	for i := 0; i < 260; i++ {
		src.WriteString("print ")
		src.WriteString(strconv.Itoa(i))
		src.WriteString(";\n")
	}
	disasm, ok, errs := compileSrc(t, src.String())
	require.True(t, ok, errs)
	assert.Contains(t, disasm, "CONSTANT_LONG")
}

func TestArrayLiteralAndIndexing(t *testing.T) {
	disasm, ok, errs := compileSrc(t, `var a = [1, 2, 3]; print a[0]; a[0] = 9; a[] = 4;`)
	require.True(t, ok, errs)
	assert.Contains(t, disasm, "ARRAY_INIT")
	assert.Contains(t, disasm, "GET_PROPERTY_STACK")
	assert.Contains(t, disasm, "SET_PROPERTY_STACK")
	assert.Contains(t, disasm, "ARRAY_ADD")
}

func TestForLoopCompiles(t *testing.T) {
	disasm, ok, errs := compileSrc(t, `for (var i = 0; i < 3; i = i + 1) print i;`)
	require.True(t, ok, errs)
	assert.Contains(t, disasm, "LOOP")
	assert.Contains(t, disasm, "JUMP_IF_FALSE")
}

func TestReadingLocalInOwnInitializerIsError(t *testing.T) {
	_, ok, errs := compileSrc(t, `{ var a = a; }`)
	assert.False(t, ok)
	assert.Contains(t, errs, "own initializer")
}

func TestInvalidAssignmentTarget(t *testing.T) {
	_, ok, errs := compileSrc(t, `1 + 2 = 3;`)
	assert.False(t, ok)
	assert.Contains(t, errs, "Invalid assignment target.")
}

