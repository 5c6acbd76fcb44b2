package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingGenerator() *GeneratorValue {
	return NewGenerator(false, func(yield func(Value) (Value, error)) (Value, error) {
		for i := 1; i <= 3; i++ {
			if _, err := yield(Number(float64(i))); err != nil {
				return nil, err
			}
		}
		return String("done"), nil
	})
}

func TestGeneratorNextYieldsThenCompletes(t *testing.T) {
	g := countingGenerator()

	v, done, err := g.Next(UndefinedValue)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, Number(1), v)

	v, done, err = g.Next(UndefinedValue)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, Number(2), v)

	v, done, err = g.Next(UndefinedValue)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, Number(3), v)

	v, done, err = g.Next(UndefinedValue)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, String("done"), v)

	// Calling next() again on a completed generator is a no-op that reports
	// done with an undefined value rather than restarting the body.
	v, done, err = g.Next(UndefinedValue)
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, UndefinedValue, v)
}

func TestGeneratorReturnBeforeStartCompletesImmediately(t *testing.T) {
	g := countingGenerator()
	v, done, err := g.Return(Number(42))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, Number(42), v)
}

func TestGeneratorReturnMidIterationStopsTheCoroutine(t *testing.T) {
	g := countingGenerator()
	_, _, err := g.Next(UndefinedValue)
	require.NoError(t, err)

	v, done, err := g.Return(Number(-1))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, Number(-1), v)

	// The generator is now completed; a further next() does not resume it.
	_, done, err = g.Next(UndefinedValue)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestGeneratorThrowBeforeStartNeverRunsBody(t *testing.T) {
	g := countingGenerator()
	_, done, err := g.Throw(String("boom"))
	assert.True(t, done)
	require.Error(t, err)
}

func TestGeneratorThrowMidIterationPropagatesIntoBody(t *testing.T) {
	g := NewGenerator(false, func(yield func(Value) (Value, error)) (Value, error) {
		_, err := yield(Number(1))
		if err != nil {
			return String("caught"), nil
		}
		return String("not caught"), nil
	})

	_, _, err := g.Next(UndefinedValue)
	require.NoError(t, err)

	v, done, err := g.Throw(String("injected"))
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, String("caught"), v)
}
