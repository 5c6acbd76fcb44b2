package runtime

import "github.com/samlaycock/nookjs/ast"

// FunctionValue is a guest function or arrow created from a FunctionNode,
// closing over the Environment active at its definition site (spec §4.3,
// "closures capture by reference").
type FunctionValue struct {
	Node    *ast.FunctionNode
	Closure *Environment
	// HomeClass is set for methods defined inside a class body; it is the
	// lexical anchor `super` resolves against (spec §4.4, "super binds to
	// the home class, not the runtime type of `this`").
	HomeClass *ClassValue
	// IsStatic marks a static method/getter/setter, whose `this` is the
	// class itself rather than an instance.
	IsStatic bool
	// Name overrides Node.Name for methods and for name-inference on
	// `const f = function() {}`-style bindings.
	Name string
}

func (*FunctionValue) TypeOf() string { return "function" }

// HostFunc is the Go-native signature every host-bridged callable is
// wrapped to, regardless of its original reflect.Value shape (spec §4.5,
// "host bridge"). args excludes the receiver; args are already
// proxy-unwrapped when appropriate.
type HostFunc func(this Value, args []Value) (Value, error)

// HostFunctionValue wraps a Go function exposed to guest code (spec §4.5).
type HostFunctionValue struct {
	Name string
	Fn   HostFunc
	// Async marks a host callable that may block on external I/O; the
	// evaluator bounds how many such calls run concurrently rather than
	// letting an unbounded number of in-flight host calls pile up (spec
	// §4.5, "host bridge").
	Async bool
}

func (*HostFunctionValue) TypeOf() string { return "function" }

// PropertyDescriptor models a getter/setter pair or a plain data property
// on a class prototype (spec §4.4).
type PropertyDescriptor struct {
	Get   *FunctionValue
	Set   *FunctionValue
	Value Value // used when Get/Set are both nil
	IsAccessor bool
}

// ClassValue is a guest class: constructor, instance method table,
// accessor table, static members, private member declarations and the
// superclass link used for constructor chaining and `super` (spec §4.4).
type ClassValue struct {
	Name        string
	Constructor *FunctionValue // nil if the class has no explicit constructor
	Super       *ClassValue

	Methods    map[string]*FunctionValue
	Accessors  map[string]*PropertyDescriptor
	Statics    map[string]Value
	StaticAccessors map[string]*PropertyDescriptor

	// PrivateMethods and PrivateFieldNames record which #names this class
	// declares, so private-field access from outside any method of this
	// class family fails as PrivateFieldUndefined rather than silently
	// returning undefined (spec §4.4, "private fields are not inherited by
	// subclasses unless redeclared").
	PrivateMethods    map[string]*FunctionValue
	PrivateFieldNames map[string]bool

	// InstanceFieldInitializers runs in declaration order at the start of
	// every constructor invocation (after super() returns for a derived
	// class), per spec §4.4's field-initialization ordering.
	InstanceFieldInitializers []InstanceFieldInit
}

// InstanceFieldInit is one class-body field declaration, built by the
// evaluator while constructing a ClassValue and consumed by the
// constructor-chaining logic that runs field initializers (spec §4.4).
type InstanceFieldInit struct {
	Name     string
	Private  bool
	Value    ast.Expression // nil if uninitialized -> undefined
	Computed bool
	KeyExpr  ast.Expression
}

func (*ClassValue) TypeOf() string { return "function" } // classes are callable via `new`

// IsSubclassOf walks the Super chain, used by `instanceof` and by
// super-method resolution.
func (c *ClassValue) IsSubclassOf(other *ClassValue) bool {
	for cur := c; cur != nil; cur = cur.Super {
		if cur == other {
			return true
		}
	}
	return false
}

// Instance is a guest object created by `new SomeClass(...)` (spec §4.4).
// Private state lives in weak-identity maps keyed by *Instance pointer so
// that private-field storage is inaccessible to any code that does not
// hold a reference to the owning class's method closures (spec §4.4,
// "private fields use weak-identity storage, never string keys").
type Instance struct {
	Class  *ClassValue
	Fields *Object // public fields/properties

	private map[string]Value // keyed by "#name", storage private to this instance

	// superCalled tracks whether a derived constructor has invoked super()
	// yet, enforcing SuperNotCalled / SuperAlreadyCalled (spec §4.4).
	superCalled bool
}

func NewInstance(class *ClassValue) *Instance {
	return &Instance{Class: class, Fields: NewObject(), private: make(map[string]Value)}
}

func (*Instance) TypeOf() string { return "object" }

func (inst *Instance) GetPrivate(name string) (Value, bool) {
	v, ok := inst.private[name]
	return v, ok
}

func (inst *Instance) SetPrivate(name string, v Value) {
	inst.private[name] = v
}

// SuperCalled reports whether a derived constructor has already invoked
// super() on inst, enforcing SuperAlreadyCalled (spec §4.4).
func (inst *Instance) SuperCalled() bool { return inst.superCalled }

// MarkSuperCalled records that super() has now run on inst.
func (inst *Instance) MarkSuperCalled() { inst.superCalled = true }

// UninitializedThis occupies a derived constructor's `this` slot between
// call entry and its super() call returning. It is never exposed as a
// guest value: resolving `this` to one of these is what raises
// ThisNotInitialized (spec §4.4 invariant 3).
type UninitializedThis struct {
	Inst *Instance
}

func (*UninitializedThis) TypeOf() string { return "undefined" }

// ResolveMethod finds name on inst's class or any ancestor, returning the
// defining class alongside the method so callers can bind `super` lookups
// relative to it.
func (c *ClassValue) ResolveMethod(name string) (*FunctionValue, *ClassValue, bool) {
	for cur := c; cur != nil; cur = cur.Super {
		if m, ok := cur.Methods[name]; ok {
			return m, cur, true
		}
	}
	return nil, nil, false
}

func (c *ClassValue) ResolveAccessor(name string) (*PropertyDescriptor, bool) {
	for cur := c; cur != nil; cur = cur.Super {
		if a, ok := cur.Accessors[name]; ok {
			return a, true
		}
	}
	return nil, false
}

// --- control-flow sentinels ---
//
// These are never observable as guest Values; the evaluator's statement
// execution functions return (Value, Completion, error), and a non-normal
// Completion signals non-local control flow
// (return/break/continue) up to the nearest handler, mirroring how the
// teacher's tree-walker short-circuits block execution (spec §4.3).

// CompletionKind distinguishes the three non-local exits a statement can
// produce.
type CompletionKind int

const (
	CompletionNormal CompletionKind = iota
	CompletionReturn
	CompletionBreak
	CompletionContinue
)

// Completion is returned alongside a nil error by statement-execution
// functions to signal return/break/continue up the call chain without
// unwinding through Go's error path (which is reserved for guest
// exceptions and host failures).
type Completion struct {
	Kind  CompletionKind
	Value Value  // meaningful only for CompletionReturn
	Label string // meaningful only for CompletionBreak/CompletionContinue; empty = nearest loop/switch
}

// NormalCompletion is the shared zero-value completion, returned after
// every statement that falls through normally.
var NormalCompletion = Completion{Kind: CompletionNormal}
