package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentDeclareLookupSet(t *testing.T) {
	global := NewGlobalEnvironment()
	require.NoError(t, global.Declare("x", Number(1), false))

	v, ok := global.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, Number(1), v)

	require.NoError(t, global.Set("x", Number(2)))
	v, _ = global.Lookup("x")
	assert.Equal(t, Number(2), v)
}

func TestEnvironmentChildSeesParentBindings(t *testing.T) {
	global := NewGlobalEnvironment()
	require.NoError(t, global.Declare("y", String("outer"), false))
	child := global.NewChild()

	v, ok := child.Lookup("y")
	require.True(t, ok)
	assert.Equal(t, String("outer"), v)

	require.NoError(t, child.Set("y", String("changed")))
	v, _ = global.Lookup("y")
	assert.Equal(t, String("changed"), v)
}

func TestEnvironmentDuplicateDeclarationErrors(t *testing.T) {
	env := NewGlobalEnvironment()
	require.NoError(t, env.Declare("z", Number(1), false))
	err := env.Declare("z", Number(2), false)
	assert.Error(t, err)
}

func TestEnvironmentAssignToConstErrors(t *testing.T) {
	env := NewGlobalEnvironment()
	require.NoError(t, env.Declare("c", Number(1), true))
	err := env.Set("c", Number(2))
	assert.Error(t, err)
}

func TestEnvironmentSetUndefinedVariableErrors(t *testing.T) {
	env := NewGlobalEnvironment()
	err := env.Set("nope", Number(1))
	assert.Error(t, err)
}

func TestEnvironmentDeclareFunctionScopedHoisting(t *testing.T) {
	env := NewGlobalEnvironment()
	// Hoisting pre-pass.
	env.DeclareFunctionScoped("v", UndefinedValue)
	// Declaration site with an initializer.
	env.DeclareFunctionScoped("v", Number(5))
	// A later no-initializer `var v;` must not reset the value to undefined.
	env.DeclareFunctionScoped("v", UndefinedValue)

	val, ok := env.Lookup("v")
	require.True(t, ok)
	assert.Equal(t, Number(5), val)
}

func TestEnvironmentDeleteOnlyCurrentScope(t *testing.T) {
	global := NewGlobalEnvironment()
	require.NoError(t, global.Declare("a", Number(1), false))
	child := global.NewChild()

	assert.False(t, child.Delete("a"))
	assert.True(t, global.Has("a"))
	assert.True(t, global.Delete("a"))
	assert.False(t, global.Has("a"))
}

func TestEnvironmentThisResolvesOutward(t *testing.T) {
	global := NewGlobalEnvironment()
	method := global.NewChild()
	method.SetThis(String("receiver"))
	arrow := method.NewChild()

	v, ok := arrow.This()
	require.True(t, ok)
	assert.Equal(t, String("receiver"), v)
}

func TestEnvironmentHomeClassResolvesOutward(t *testing.T) {
	global := NewGlobalEnvironment()
	cls := &ClassValue{Name: "Widget"}
	method := global.NewChild()
	method.SetHomeClass(cls)
	arrow := method.NewChild()

	home, ok := arrow.HomeClass()
	require.True(t, ok)
	assert.Same(t, cls, home)

	_, ok = global.HomeClass()
	assert.False(t, ok)
}
