package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drdynamic/piscript/lang/value"
)

func TestFunctionStringUnnamedIsScript(t *testing.T) {
	fn := &value.Function{}
	assert.Equal(t, "<script>", fn.String())
}

func TestFunctionStringNamed(t *testing.T) {
	fn := &value.Function{Name: "add"}
	assert.Equal(t, "<fn add>", fn.String())
}

func TestFunctionTraceVisitsConstants(t *testing.T) {
	fn := &value.Function{}
	s := value.NewString([]byte("x"), 0)
	fn.Chunk.AddConstant(s)
	fn.Chunk.AddConstant(value.Number(1))

	var visited []value.Value
	fn.Trace(func(v value.Value) { visited = append(visited, v) })
	require.Len(t, visited, 2)
	assert.Same(t, s, visited[0])
}

func TestNewClosureAllocatesUpvalueSlots(t *testing.T) {
	fn := &value.Function{UpvalueCount: 2}
	c := value.NewClosure(fn)
	assert.Len(t, c.Upvalues, 2)
	assert.Same(t, fn, c.Fn)
}

func TestClosureTraceVisitsFunctionAndUpvalues(t *testing.T) {
	fn := &value.Function{UpvalueCount: 1}
	c := value.NewClosure(fn)
	uv := value.NewOpenUpvalue(0)
	c.Upvalues[0] = uv

	var visited []value.Value
	c.Trace(func(v value.Value) { visited = append(visited, v) })
	require.Len(t, visited, 2)
	assert.Same(t, fn, visited[0])
	assert.Same(t, uv, visited[1])
}
