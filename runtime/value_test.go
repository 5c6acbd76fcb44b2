package runtime

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToBool(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"undefined", UndefinedValue, false},
		{"null", NullValue, false},
		{"zero", Number(0), false},
		{"nan", Number(math.NaN()), false},
		{"nonzero", Number(1), true},
		{"empty string", String(""), false},
		{"nonempty string", String("a"), true},
		{"false", Bool(false), false},
		{"true", Bool(true), true},
		{"zero bigint", BigInt{V: 0}, false},
		{"nonzero bigint", BigInt{V: 1}, true},
		{"object", NewObject(), true},
		{"array", NewArray(), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ToBool(c.v))
		})
	}
}

func TestIsNullish(t *testing.T) {
	assert.True(t, IsNullish(UndefinedValue))
	assert.True(t, IsNullish(NullValue))
	assert.False(t, IsNullish(Number(0)))
	assert.False(t, IsNullish(String("")))
}

func TestObjectInsertionOrderPreservedAcrossDelete(t *testing.T) {
	o := NewObject()
	o.Set("a", Number(1))
	o.Set("b", Number(2))
	o.Set("c", Number(3))
	assert.Equal(t, []string{"a", "b", "c"}, o.Keys())

	o.Delete("b")
	assert.Equal(t, []string{"a", "c"}, o.Keys())
	_, ok := o.Get("b")
	assert.False(t, ok)

	// Re-setting an existing key does not move it in insertion order.
	o.Set("a", Number(99))
	assert.Equal(t, []string{"a", "c"}, o.Keys())
	v, _ := o.Get("a")
	assert.Equal(t, Number(99), v)
}

func TestObjectMemoryCost(t *testing.T) {
	o := NewObject()
	assert.Equal(t, 64, o.MemoryCost())
	o.Set("x", Number(1))
	assert.Equal(t, 96, o.MemoryCost())
}

func TestArrayMemoryCost(t *testing.T) {
	arr := NewArray(Number(1), Number(2), Number(3))
	assert.Equal(t, 48, arr.MemoryCost())
	assert.Equal(t, 3, arr.Len())
}

func TestSymbolsAreUniqueByIdentity(t *testing.T) {
	a := NewSymbol("tag")
	b := NewSymbol("tag")
	assert.NotSame(t, a, b)
	assert.Equal(t, "Symbol(tag)", a.String())
}

func TestWellKnownSymbolsAreDistinct(t *testing.T) {
	assert.NotSame(t, SymbolIterator, SymbolAsyncIterator)
}
