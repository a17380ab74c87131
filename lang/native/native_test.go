package native_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drdynamic/piscript/lang/native"
	"github.com/drdynamic/piscript/lang/vm"
)

func run(t *testing.T, src string) (stdout string, res vm.InterpretResult) {
	t.Helper()
	m := vm.New()
	var out bytes.Buffer
	m.SetStdout(&out)
	native.RegisterAll(m)
	res = m.Interpret(src)
	return out.String(), res
}

func TestLenOnStringAndArray(t *testing.T) {
	out, res := run(t, `print len("abcd"); print len([1,2,3]);`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "4\n3\n", out)
}

func TestTypeOf(t *testing.T) {
	out, res := run(t, `print type(1); print type("x"); print type(nil); print type(true);`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "number\nstring\nnil\nbool\n", out)
}

func TestStrConvertsNumberToString(t *testing.T) {
	out, res := run(t, `print str(1) + "2";`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "12\n", out)
}

func TestClockReturnsANumber(t *testing.T) {
	out, res := run(t, `print type(clock());`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "number\n", out)
}

func TestNativeArityErrorsAreRuntimeErrors(t *testing.T) {
	_, res := run(t, `len();`)
	assert.Equal(t, vm.InterpretRuntimeError, res)
}

// TestStrResultsAreInterned guards against native.go building its
// *value.String results with value.NewString directly: value.Equal
// compares Obj by reference, so two equal-content strings native.go
// hands back must be the very same interned object or this regresses to
// false (spec.md §3/§8's "strings compare equal by content iff they are
// the same heap object" property).
func TestStrResultsAreInterned(t *testing.T) {
	out, res := run(t, `print str(5) == str(5);`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "true\n", out)
}

// TestTypeResultsAreInterned is the same property for type(), and also
// checks a native-manufactured string against a compiler-emitted string
// constant of identical content.
func TestTypeResultsAreInterned(t *testing.T) {
	out, res := run(t, `print type(1) == type(2); print type(1) == "number";`)
	assert.Equal(t, vm.InterpretOK, res)
	assert.Equal(t, "true\ntrue\n", out)
}
