package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samlaycock/nookjs/errors"
)

func TestCheckPropertyAccessDeniesDangerousNames(t *testing.T) {
	for _, name := range []string{"__proto__", "constructor", "prototype"} {
		err := CheckPropertyAccess(name, true)
		require.Error(t, err, name)
		ee := err.(*errors.EvalError)
		assert.Equal(t, errors.KindPropertyNameForbidden, ee.Kind)
	}
}

func TestCheckPropertyAccessDeniesInternalObjectNames(t *testing.T) {
	err := CheckPropertyAccess("__go_value__", true)
	require.Error(t, err)
	assert.Equal(t, errors.KindPropertyNameForbidden, err.(*errors.EvalError).Kind)
}

func TestCheckPropertyAccessDeniesInheritedByDefault(t *testing.T) {
	err := CheckPropertyAccess("someInheritedMember", false)
	require.Error(t, err)
	assert.Equal(t, errors.KindInheritedAccessDenied, err.(*errors.EvalError).Kind)
}

func TestCheckPropertyAccessAllowsExemptInheritedMembers(t *testing.T) {
	for _, name := range []string{"toString", "valueOf", "hasOwnProperty", "isPrototypeOf", "propertyIsEnumerable", "then"} {
		assert.NoError(t, CheckPropertyAccess(name, false), name)
	}
}

func TestCheckPropertyAccessAllowsOrdinaryOwnNames(t *testing.T) {
	assert.NoError(t, CheckPropertyAccess("name", true))
	assert.NoError(t, CheckPropertyAccess("value", true))
}

func TestHostProxyGetRespectsOwnSet(t *testing.T) {
	target := NewObject()
	target.Set("visible", Number(1))
	target.Set("toString", Number(2))

	proxy := NewHostProxy(target, "visible")

	v, err := proxy.Get("visible")
	require.NoError(t, err)
	assert.Equal(t, Number(1), v)

	// toString is not in Own, but it's on the inherited-access exemption
	// list, so it still resolves rather than erroring.
	v, err = proxy.Get("toString")
	require.NoError(t, err)
	assert.Equal(t, Number(2), v)

	_, err = proxy.Get("somethingElse")
	assert.Error(t, err)
}

func TestHostProxyGetDeniesDangerousNameEvenWhenOwn(t *testing.T) {
	target := NewObject()
	proxy := NewHostProxy(target, "__proto__")

	_, err := proxy.Get("__proto__")
	require.Error(t, err)
	assert.Equal(t, errors.KindPropertyNameForbidden, err.(*errors.EvalError).Kind)
}

func TestHostProxySetAlwaysFails(t *testing.T) {
	proxy := NewHostProxy(NewObject(), "x")
	err := proxy.Set("x", Number(1))
	assert.Error(t, err)
}
