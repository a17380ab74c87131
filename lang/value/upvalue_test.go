package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drdynamic/piscript/lang/value"
)

func TestOpenUpvalueTraceIsNoop(t *testing.T) {
	uv := value.NewOpenUpvalue(3)
	assert.True(t, uv.Open)
	assert.Equal(t, 3, uv.Location)

	var visited []value.Value
	uv.Trace(func(v value.Value) { visited = append(visited, v) })
	assert.Empty(t, visited, "an open upvalue's slot is already a stack root")
}

func TestClosedUpvalueTraceVisitsClosedValue(t *testing.T) {
	uv := value.NewOpenUpvalue(0)
	uv.Open = false
	uv.Closed = value.Number(42)

	var visited []value.Value
	uv.Trace(func(v value.Value) { visited = append(visited, v) })
	assert.Equal(t, []value.Value{value.Number(42)}, visited)
}

func TestOpenUpvalueChain(t *testing.T) {
	a := value.NewOpenUpvalue(5)
	b := value.NewOpenUpvalue(2)
	a.SetNextOpen(b)
	assert.Same(t, b, a.NextOpen())
	assert.Nil(t, b.NextOpen())
}
