package netty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceIDIsMonotonicAndDecimal(t *testing.T) {
	next := SequenceID()
	a := next()
	b := next()
	assert.Equal(t, "1", a)
	assert.Equal(t, "2", b)
}

func TestSequenceIDFactoriesAreIndependent(t *testing.T) {
	first := SequenceID()
	second := SequenceID()
	assert.Equal(t, "1", first())
	assert.Equal(t, "1", second())
}

func TestUUIDChannelIDProducesDistinctValues(t *testing.T) {
	next := UUIDChannelID()
	a, b := next(), next()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 36)
}
