package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drdynamic/piscript/lang/value"
)

func TestNativeFnInvocation(t *testing.T) {
	fn := value.NewNativeFn("clock", func(args []value.Value) (value.Value, error) {
		return value.Number(123), nil
	})
	result, err := fn.Fn(nil)
	require.NoError(t, err)
	assert.Equal(t, value.Number(123), result)
	assert.Equal(t, "<native fn clock>", fn.String())
}

func TestArrayTraceVisitsElements(t *testing.T) {
	arr := value.NewArray([]value.Value{value.Number(1), value.Bool(true)})
	var visited []value.Value
	arr.Trace(func(v value.Value) { visited = append(visited, v) })
	assert.Equal(t, []value.Value{value.Number(1), value.Bool(true)}, visited)
}
