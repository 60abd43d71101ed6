package logger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingBufferKeepsMostRecent(t *testing.T) {
	rb := NewRingBuffer(3)

	for i := 1; i <= 5; i++ {
		_, err := rb.Write([]byte(fmt.Sprintf("line-%d\n", i)))
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"line-3", "line-4", "line-5"}, rb.Entries())
}

func TestRingBufferBelowCapacity(t *testing.T) {
	rb := NewRingBuffer(10)
	rb.Write([]byte("a\n"))
	rb.Write([]byte("b\n"))

	assert.Equal(t, []string{"a", "b"}, rb.Entries())
}

func TestRingBufferTail(t *testing.T) {
	rb := NewRingBuffer(5)
	for i := 1; i <= 4; i++ {
		rb.Write([]byte(fmt.Sprintf("line-%d\n", i)))
	}

	assert.Equal(t, []string{"line-3", "line-4"}, rb.Tail(2))
	assert.Len(t, rb.Tail(0), 4)
	assert.Len(t, rb.Tail(100), 4)
}
