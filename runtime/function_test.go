package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassValueIsSubclassOf(t *testing.T) {
	animal := &ClassValue{Name: "Animal"}
	dog := &ClassValue{Name: "Dog", Super: animal}
	cat := &ClassValue{Name: "Cat", Super: animal}

	assert.True(t, dog.IsSubclassOf(animal))
	assert.True(t, dog.IsSubclassOf(dog))
	assert.False(t, dog.IsSubclassOf(cat))
	assert.False(t, animal.IsSubclassOf(dog))
}

func TestClassValueResolveMethodWalksSuperChain(t *testing.T) {
	speak := &FunctionValue{Name: "speak"}
	animal := &ClassValue{Name: "Animal", Methods: map[string]*FunctionValue{"speak": speak}}
	dog := &ClassValue{Name: "Dog", Super: animal, Methods: map[string]*FunctionValue{}}

	m, owner, ok := dog.ResolveMethod("speak")
	require.True(t, ok)
	assert.Same(t, speak, m)
	assert.Same(t, animal, owner)

	_, _, ok = dog.ResolveMethod("fetch")
	assert.False(t, ok)
}

func TestClassValueResolveAccessorWalksSuperChain(t *testing.T) {
	desc := &PropertyDescriptor{IsAccessor: true}
	base := &ClassValue{Name: "Base", Accessors: map[string]*PropertyDescriptor{"x": desc}}
	derived := &ClassValue{Name: "Derived", Super: base}

	found, ok := derived.ResolveAccessor("x")
	require.True(t, ok)
	assert.Same(t, desc, found)
}

func TestInstancePrivateFieldStorageIsPerInstance(t *testing.T) {
	cls := &ClassValue{Name: "Counter"}
	a := NewInstance(cls)
	b := NewInstance(cls)

	a.SetPrivate("#count", Number(1))
	b.SetPrivate("#count", Number(99))

	v, ok := a.GetPrivate("#count")
	require.True(t, ok)
	assert.Equal(t, Number(1), v)

	v, ok = b.GetPrivate("#count")
	require.True(t, ok)
	assert.Equal(t, Number(99), v)

	_, ok = a.GetPrivate("#missing")
	assert.False(t, ok)
}

func TestInstanceSuperCalledTracking(t *testing.T) {
	inst := NewInstance(&ClassValue{Name: "Derived"})
	assert.False(t, inst.SuperCalled())
	inst.MarkSuperCalled()
	assert.True(t, inst.SuperCalled())
}

func TestHostFunctionValueIsCallableTypeOf(t *testing.T) {
	fn := &HostFunctionValue{Name: "noop", Fn: func(this Value, args []Value) (Value, error) {
		return UndefinedValue, nil
	}}
	assert.Equal(t, "function", fn.TypeOf())

	result, err := fn.Fn(UndefinedValue, nil)
	require.NoError(t, err)
	assert.Equal(t, UndefinedValue, result)
}
