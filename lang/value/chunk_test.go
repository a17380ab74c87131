package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drdynamic/piscript/lang/value"
)

func TestChunkWriteAndLineAt(t *testing.T) {
	var c value.Chunk
	o1 := c.Write(0x01, 1)
	o2 := c.Write(0x02, 1)
	o3 := c.Write(0x03, 2)
	o4 := c.Write(0x04, 2)
	o5 := c.Write(0x05, 2)
	o6 := c.Write(0x06, 4)

	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, c.Code)

	assert.Equal(t, 1, c.LineAt(o1))
	assert.Equal(t, 1, c.LineAt(o2))
	assert.Equal(t, 2, c.LineAt(o3))
	assert.Equal(t, 2, c.LineAt(o4))
	assert.Equal(t, 2, c.LineAt(o5))
	assert.Equal(t, 4, c.LineAt(o6))
}

func TestChunkLineAtPastEndClampsToLastRun(t *testing.T) {
	var c value.Chunk
	c.Write(0x01, 7)
	assert.Equal(t, 7, c.LineAt(99))
}

func TestChunkAddConstant(t *testing.T) {
	var c value.Chunk
	i0 := c.AddConstant(value.Number(1))
	i1 := c.AddConstant(value.Number(2))
	assert.Equal(t, 0, i0)
	assert.Equal(t, 1, i1)
	assert.Equal(t, value.Number(1), c.Constants[i0])
	assert.Equal(t, value.Number(2), c.Constants[i1])
}
