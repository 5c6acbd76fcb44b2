package interp

import (
	"github.com/samlaycock/nookjs/ast"
	"github.com/samlaycock/nookjs/errors"
	"github.com/samlaycock/nookjs/runtime"
)

// evalClassNode builds a *runtime.ClassValue from a class declaration or
// expression (spec §4.4): method/accessor/static tables, private member
// declarations, instance-field initializers in source order, and static
// blocks (run immediately, with `this` bound to the class itself).
func (it *Interpreter) evalClassNode(env *runtime.Environment, node *ast.ClassNode) (*runtime.ClassValue, error) {
	cls := &runtime.ClassValue{
		Name:              node.Name,
		Methods:           map[string]*runtime.FunctionValue{},
		Accessors:         map[string]*runtime.PropertyDescriptor{},
		Statics:           map[string]runtime.Value{},
		StaticAccessors:   map[string]*runtime.PropertyDescriptor{},
		PrivateMethods:    map[string]*runtime.FunctionValue{},
		PrivateFieldNames: map[string]bool{},
	}

	// The class's own name is bound inside its body (methods/static blocks)
	// so recursive self-reference (`new ClassName()` inside a static
	// factory method) resolves, mirroring how a named function expression
	// binds its own name in its closure.
	classEnv := env.NewChild()
	if node.Name != "" {
		_ = classEnv.Declare(node.Name, cls, true)
	}

	if node.SuperClass != nil {
		superVal, err := it.evalExpr(classEnv, node.SuperClass)
		if err != nil {
			return nil, err
		}
		super, ok := superVal.(*runtime.ClassValue)
		if !ok {
			return nil, errors.New(errors.KindParseError, "class extends value is not a class")
		}
		cls.Super = super
	}

	for _, m := range node.Methods {
		key, err := it.propertyKeyString(classEnv, m.Key, m.Computed)
		if err != nil {
			return nil, err
		}
		fn := it.makeFunction(m.Function, classEnv, cls, m.Static)
		fn.Name = key

		switch {
		case m.Kind == "constructor":
			cls.Constructor = fn
		case m.Private:
			cls.PrivateMethods[key] = fn
			if !m.Static {
				cls.PrivateFieldNames[key] = true
			}
		case m.Static && m.Kind == "get":
			desc := cls.StaticAccessors[key]
			if desc == nil {
				desc = &runtime.PropertyDescriptor{IsAccessor: true}
				cls.StaticAccessors[key] = desc
			}
			desc.Get = fn
		case m.Static && m.Kind == "set":
			desc := cls.StaticAccessors[key]
			if desc == nil {
				desc = &runtime.PropertyDescriptor{IsAccessor: true}
				cls.StaticAccessors[key] = desc
			}
			desc.Set = fn
		case m.Static:
			cls.Statics[key] = fn
		case m.Kind == "get":
			desc := cls.Accessors[key]
			if desc == nil {
				desc = &runtime.PropertyDescriptor{IsAccessor: true}
				cls.Accessors[key] = desc
			}
			desc.Get = fn
		case m.Kind == "set":
			desc := cls.Accessors[key]
			if desc == nil {
				desc = &runtime.PropertyDescriptor{IsAccessor: true}
				cls.Accessors[key] = desc
			}
			desc.Set = fn
		default:
			cls.Methods[key] = fn
		}
	}

	for _, p := range node.Properties {
		key, err := it.propertyKeyString(classEnv, p.Key, p.Computed)
		if err != nil {
			return nil, err
		}
		if p.Private {
			if !p.Static {
				cls.PrivateFieldNames[key] = true
			}
		}
		if p.Static {
			var v runtime.Value = runtime.UndefinedValue
			if p.Value != nil {
				staticThisEnv := classEnv.NewChild()
				staticThisEnv.SetThis(cls)
				v, err = it.evalExpr(staticThisEnv, p.Value)
				if err != nil {
					return nil, err
				}
			}
			cls.Statics[key] = v
			continue
		}
		cls.InstanceFieldInitializers = append(cls.InstanceFieldInitializers, instanceFieldInitOf(key, p))
	}

	for _, blk := range node.StaticBlocks {
		blockEnv := classEnv.NewChild()
		blockEnv.SetThis(cls)
		it.hoist(blockEnv, blk.Body)
		if _, _, err := it.execStatements(blockEnv, blk.Body); err != nil {
			return nil, err
		}
	}

	return cls, nil
}

// instanceFieldInitOf builds the runtime.InstanceFieldInit record for one
// non-static class-body field declaration, under its resolved key.
func instanceFieldInitOf(key string, p ast.ClassProperty) runtime.InstanceFieldInit {
	return runtime.InstanceFieldInit{Name: key, Private: p.Private, Value: p.Value, Computed: p.Computed, KeyExpr: p.Key}
}

// instantiate implements `new SomeClass(...)`: allocates the Instance,
// chains through constructors (implicitly forwarding to super() when a
// derived class declares no explicit constructor), and runs field
// initializers in declaration order after super returns (spec §4.4).
func (it *Interpreter) instantiate(cls *runtime.ClassValue, args []runtime.Value) (runtime.Value, error) {
	inst := runtime.NewInstance(cls)
	result, err := it.invokeConstructorChain(cls, inst, args)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// invokeConstructorChain runs cls's constructor (implicitly forwarding to
// super() when cls declares none) and returns the value `new` should yield:
// normally inst itself, but the constructor's own body (not a super() call
// partway up the chain) may return an object that replaces it (spec §4.4
// step 5).
func (it *Interpreter) invokeConstructorChain(cls *runtime.ClassValue, inst *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
	if cls.Constructor == nil {
		if cls.Super != nil {
			if _, err := it.invokeConstructorChain(cls.Super, inst, args); err != nil {
				return nil, err
			}
		}
		if err := it.runFieldInitializers(cls, inst); err != nil {
			return nil, err
		}
		return inst, nil
	}

	if it.meter != nil {
		if err := it.meter.EnterCall(); err != nil {
			return nil, err
		}
		defer it.meter.ExitCall()
	}
	it.stats.FunctionCalls++

	callEnv := cls.Constructor.Closure.NewChild()
	if cls.Super != nil {
		// `this` stays unreachable until evalSuperCall resolves it, so a
		// read before super() raises ThisNotInitialized (spec §4.4
		// invariant 3) instead of seeing a half-constructed instance.
		callEnv.SetThis(&runtime.UninitializedThis{Inst: inst})
	} else {
		callEnv.SetThis(inst)
	}
	callEnv.SetHomeClass(cls)
	if err := it.bindParams(callEnv, cls.Constructor.Node, args); err != nil {
		return nil, err
	}

	if cls.Super == nil {
		// A base class's fields initialize immediately; there is no super()
		// call to wait for. A derived class's own fields instead
		// initialize from evalSuperCall, right after its super() call
		// returns (spec §4.4, "fields initialize once, after the
		// superclass constructor returns").
		if err := it.runFieldInitializers(cls, inst); err != nil {
			return nil, err
		}
	}

	it.hoist(callEnv, cls.Constructor.Node.Body)
	_, comp, err := it.execStatements(callEnv, cls.Constructor.Node.Body)
	if err != nil {
		return nil, err
	}
	if cls.Super != nil && !inst.SuperCalled() {
		return nil, errors.New(errors.KindSuperNotCalled, "must call super() before returning from a derived class constructor")
	}
	if comp.Kind == runtime.CompletionReturn && isConstructibleObject(comp.Value) {
		return comp.Value, nil
	}
	return inst, nil
}

// isConstructibleObject reports whether v is an object value a constructor
// may return to replace the instance `new` would otherwise produce (spec
// §4.4 step 5); null shares typeof "object" but never replaces anything.
func isConstructibleObject(v runtime.Value) bool {
	return v != nil && v != runtime.NullValue && v.TypeOf() == "object"
}

func (it *Interpreter) runFieldInitializers(cls *runtime.ClassValue, inst *runtime.Instance) error {
	for _, f := range cls.InstanceFieldInitializers {
		env := it.globalOr(cls)
		thisEnv := env.NewChild()
		thisEnv.SetThis(inst)
		thisEnv.SetHomeClass(cls)
		var v runtime.Value = runtime.UndefinedValue
		if f.Value != nil {
			val, err := it.evalExpr(thisEnv, f.Value)
			if err != nil {
				return err
			}
			v = val
		}
		if f.Private {
			inst.SetPrivate(f.Name, v)
		} else {
			inst.Fields.Set(f.Name, v)
		}
	}
	return nil
}

// globalOr returns the Environment the class's methods were defined in, so
// field initializers see the same closure scope as every other class
// member; classes built with no methods at all (fields-only) fall back to
// the interpreter's global scope.
func (it *Interpreter) globalOr(cls *runtime.ClassValue) *runtime.Environment {
	for _, m := range cls.Methods {
		return m.Closure
	}
	if cls.Constructor != nil {
		return cls.Constructor.Closure
	}
	return it.global
}
