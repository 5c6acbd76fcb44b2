package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpRendersFieldNamesAndValues(t *testing.T) {
	out := Dump(Snapshot{NodeCount: 12, FunctionCalls: 3})
	assert.Contains(t, out, "NodeCount")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "FunctionCalls")
}

func TestEncodeDecodeRoundTrips(t *testing.T) {
	s := Snapshot{
		NodeCount:       100,
		FunctionCalls:   7,
		LoopIterations:  42,
		ExecutionTimeMS: 3.5,
		MemoryBytes:     2048,
	}
	encoded, err := Encode(s)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, s, decoded)
}

func TestEncodeDecodeRoundTripsErrorFields(t *testing.T) {
	s := Snapshot{ErrorKind: "UndefinedVariable", ErrorMessage: "x is not defined"}
	encoded, err := Encode(s)
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "UndefinedVariable", decoded.ErrorKind)
	assert.Equal(t, "x is not defined", decoded.ErrorMessage)
}

func TestDecodeRejectsGarbageInput(t *testing.T) {
	_, err := Decode([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}
