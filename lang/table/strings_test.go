package table_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drdynamic/piscript/lang/table"
)

func TestInternReturnsCanonicalInstance(t *testing.T) {
	var strings table.Strings
	a, isNew := strings.Intern([]byte("hello"), true)
	assert.True(t, isNew)
	b, isNew := strings.Intern([]byte("hello"), true)
	assert.False(t, isNew)
	assert.Same(t, a, b)
	assert.Equal(t, 1, strings.Count())
}

func TestInternDistinctContent(t *testing.T) {
	var strings table.Strings
	a, _ := strings.Intern([]byte("hello"), true)
	b, _ := strings.Intern([]byte("world"), true)
	assert.NotSame(t, a, b)
	assert.Equal(t, 2, strings.Count())
}

func TestInternCopyBytesWhenRequested(t *testing.T) {
	var strings table.Strings
	buf := []byte("scratch")
	s, _ := strings.Intern(buf, true)
	buf[0] = 'X'
	require.Equal(t, "scratch", s.String(), "interned string must not alias caller-owned buffer")
}

func TestInternRemoveWhite(t *testing.T) {
	var strings table.Strings
	kept, _ := strings.Intern([]byte("kept"), true)
	kept.SetMarked(true)
	strings.Intern([]byte("dropped"), true)

	strings.RemoveWhite()

	assert.Equal(t, 1, strings.Count())
	again, isNew := strings.Intern([]byte("kept"), true)
	assert.False(t, isNew)
	assert.Same(t, kept, again)
}
