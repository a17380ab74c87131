package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drdynamic/piscript/lang/value"
)

func TestHashBytesDeterministic(t *testing.T) {
	h1 := value.HashBytes([]byte("hello"))
	h2 := value.HashBytes([]byte("hello"))
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, value.HashBytes([]byte("hellp")))
}

func TestStringAccessors(t *testing.T) {
	b := []byte("hello")
	s := value.NewString(b, value.HashBytes(b))
	assert.Equal(t, "hello", s.String())
	assert.Equal(t, "string", s.Type())
	assert.Equal(t, 5, s.Len())
	assert.Equal(t, b, s.Bytes())
	assert.Equal(t, value.HashBytes(b), s.Hash())
}
