package runtime

import "github.com/samlaycock/nookjs/errors"

// dangerousNames is the denylist of property names that can never be read
// or written on any value, guest or host-proxied, because they reach into
// prototype-pollution or host-escape territory (spec §4.5, component 1:
// "dangerous-name check"). Checked before any other property-access logic.
var dangerousNames = map[string]bool{
	"__proto__":    true,
	"constructor":  true,
	"prototype":    true,
}

// IsDangerousName reports whether name is denylisted for property
// access, regardless of the receiver.
func IsDangerousName(name string) bool {
	return dangerousNames[name]
}

// inheritedAccessExemptions lists the inherited members explicitly allowed
// through the second security layer (spec §4.5, component 1: "inherited-
// access denial with documented exemptions"): common Object.prototype
// members guest code legitimately expects to find via the prototype
// chain, even though inherited access is denied by default.
var inheritedAccessExemptions = map[string]bool{
	"toString":            true,
	"valueOf":              true,
	"hasOwnProperty":       true,
	"isPrototypeOf":        true,
	"propertyIsEnumerable": true,
	// then is exempted so thenable detection (spec §5, Promise adoption)
	// can probe an inherited `then` without tripping inherited-access-denial.
	"then": true,
}

// IsInheritedAccessExempt reports whether name is allowed to resolve via
// inherited (non-own) lookup despite the default denial.
func IsInheritedAccessExempt(name string) bool {
	return inheritedAccessExemptions[name]
}

// internalObjectNames denies access to internal bookkeeping object keys
// that must never be exposed to guest code even as an inherited or own
// member (spec §4.5, component 1: "internal-object exposure denial") -
// for example, Go reflect/runtime internals reachable through naive
// struct-field proxying.
var internalObjectNames = map[string]bool{
	"__internal__": true,
	"__go_value__": true,
}

func IsInternalObjectName(name string) bool {
	return internalObjectNames[name]
}

// CheckPropertyAccess runs all three security layers against a property
// access by name (spec §4.5, component 1). isOwn indicates whether name is
// an own property of the receiver (as opposed to reached via inheritance);
// callers that do not track ownership should pass true, since the
// exemption table only loosens (never tightens) the check.
func CheckPropertyAccess(name string, isOwn bool) error {
	if IsDangerousName(name) {
		return errors.New(errors.KindPropertyNameForbidden, "access to property %q is not allowed", name)
	}
	if IsInternalObjectName(name) {
		return errors.New(errors.KindPropertyNameForbidden, "access to property %q is not allowed", name)
	}
	if !isOwn && !IsInheritedAccessExempt(name) {
		return errors.New(errors.KindInheritedAccessDenied, "inherited property %q is not accessible", name)
	}
	return nil
}

// HostProxy wraps an arbitrary host Value exposed to guest code so that
// guest reads pass through the security gates above and guest writes are
// always rejected: the proxy is read-only by construction (spec §4.5,
// component 2: "read-only proxy").
type HostProxy struct {
	Target Value
	// Own is the set of property names the proxy considers "own" on
	// Target, used to evaluate the inherited-access-denial layer. Nil
	// means "treat every access as inherited" (conservative default).
	Own map[string]bool
}

func (*HostProxy) TypeOf() string { return "object" }

// NewHostProxy wraps target, exposing exactly the names in ownNames as own
// properties; all others resolve as inherited and are denied unless
// exempted.
func NewHostProxy(target Value, ownNames ...string) *HostProxy {
	own := make(map[string]bool, len(ownNames))
	for _, n := range ownNames {
		own[n] = true
	}
	return &HostProxy{Target: target, Own: own}
}

// Get resolves name on the proxy, applying the three security layers
// before delegating to the underlying Object/Instance/Array accessor.
func (p *HostProxy) Get(name string) (Value, error) {
	isOwn := p.Own != nil && p.Own[name]
	if err := CheckPropertyAccess(name, isOwn); err != nil {
		return nil, err
	}
	switch t := p.Target.(type) {
	case *Object:
		if v, ok := t.Get(name); ok {
			return v, nil
		}
	case *Instance:
		if v, ok := t.Fields.Get(name); ok {
			return v, nil
		}
	}
	return UndefinedValue, nil
}

// Set always fails: the proxy is read-only (spec §4.5, component 2).
func (p *HostProxy) Set(name string, _ Value) error {
	return errors.New(errors.KindPropertyNameForbidden, "property %q is read-only", name)
}
