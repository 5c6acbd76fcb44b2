package runtimetune

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultMaxMemoryBytesIsAtLeastTheFloor(t *testing.T) {
	n := DefaultMaxMemoryBytes()
	assert.GreaterOrEqual(t, n, int64(64*1024*1024))
}

func TestInitReturnsAPositiveCeiling(t *testing.T) {
	n := Init()
	assert.Greater(t, n, int64(0))
}
