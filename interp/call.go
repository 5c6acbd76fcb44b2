package interp

import (
	"context"

	"github.com/samlaycock/nookjs/ast"
	"github.com/samlaycock/nookjs/errors"
	"github.com/samlaycock/nookjs/runtime"
)

// makeFunction builds a guest *runtime.FunctionValue closing over env, used
// by both function-declaration hoisting and function-expression evaluation
// (spec §4.3).
func (it *Interpreter) makeFunction(node *ast.FunctionNode, env *runtime.Environment, home *runtime.ClassValue, isStatic bool) *runtime.FunctionValue {
	return &runtime.FunctionValue{Node: node, Closure: env, HomeClass: home, IsStatic: isStatic, Name: node.Name}
}

func (it *Interpreter) evalCall(env *runtime.Environment, e *ast.CallExpression) (runtime.Value, error) {
	if _, isSuper := e.Callee.(*ast.SuperExpression); isSuper {
		return it.evalSuperCall(env, e)
	}

	var this runtime.Value = runtime.UndefinedValue
	var callee runtime.Value
	var err error

	if me, ok := e.Callee.(*ast.MemberExpression); ok {
		callee, this, err = it.evalMember(env, me)
		if err != nil {
			if _, short := err.(*shortCircuit); short {
				return nil, &shortCircuit{}
			}
			return nil, err
		}
	} else {
		callee, err = it.evalExpr(env, e.Callee)
		if err != nil {
			return nil, err
		}
	}

	if e.Optional && runtime.IsNullish(callee) {
		return nil, &shortCircuit{}
	}

	args, err := it.evalArguments(env, e.Arguments)
	if err != nil {
		return nil, err
	}

	switch fn := callee.(type) {
	case *runtime.FunctionValue:
		return it.callFunction(fn, this, args)
	case *runtime.HostFunctionValue:
		return it.callHostFunction(fn, this, args)
	case *runtime.ClassValue:
		return nil, errors.New(errors.KindConstructorWithoutNew, "class constructor %s cannot be invoked without 'new'", fn.Name)
	default:
		return nil, errors.New(errors.KindCallTargetNotCallable, "value is not a function")
	}
}

func (it *Interpreter) evalArguments(env *runtime.Environment, argNodes []ast.Expression) ([]runtime.Value, error) {
	var args []runtime.Value
	for _, a := range argNodes {
		if sp, ok := a.(*ast.SpreadElement); ok {
			v, err := it.evalExpr(env, sp.Argument)
			if err != nil {
				return nil, err
			}
			items, err := it.iterate(v, false)
			if err != nil {
				return nil, err
			}
			args = append(args, items...)
			continue
		}
		v, err := it.evalExpr(env, a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func (it *Interpreter) evalSuperCall(env *runtime.Environment, e *ast.CallExpression) (runtime.Value, error) {
	this, _ := env.This()
	var inst *runtime.Instance
	switch t := this.(type) {
	case *runtime.UninitializedThis:
		inst = t.Inst
	case *runtime.Instance:
		inst = t
	default:
		return nil, errors.New(errors.KindThisNotInitialized, "'super' used outside of a constructor")
	}
	home, _ := env.HomeClass()
	if home == nil || home.Super == nil {
		return nil, errors.New(errors.KindParseError, "'super' called in a class with no superclass")
	}
	args, err := it.evalArguments(env, e.Arguments)
	if err != nil {
		return nil, err
	}
	if _, err := it.invokeConstructorChain(home.Super, inst, args); err != nil {
		return nil, err
	}
	if inst.SuperCalled() {
		return nil, errors.New(errors.KindSuperAlreadyCalled, "'super' called more than once")
	}
	inst.MarkSuperCalled()
	env.ReplaceThis(inst)
	if err := it.runFieldInitializers(home, inst); err != nil {
		return nil, err
	}
	return runtime.UndefinedValue, nil
}

// callFunction invokes a guest function/method/arrow/generator with args
// bound to its parameters (spec §4.3, §4.6).
func (it *Interpreter) callFunction(fn *runtime.FunctionValue, this runtime.Value, args []runtime.Value) (runtime.Value, error) {
	if it.meter != nil {
		if err := it.meter.EnterCall(); err != nil {
			return nil, err
		}
		defer it.meter.ExitCall()
	}
	it.stats.FunctionCalls++
	it.callStack = append(it.callStack, errors.Frame{FunctionName: displayName(fn), Line: fn.Node.P.Line, Column: fn.Node.P.Column})
	defer func() { it.callStack = it.callStack[:len(it.callStack)-1] }()

	callEnv := fn.Closure.NewChild()
	if !fn.Node.IsArrow {
		callEnv.SetThis(this)
	}
	if fn.HomeClass != nil {
		callEnv.SetHomeClass(fn.HomeClass)
	}
	if err := it.bindParams(callEnv, fn.Node, args); err != nil {
		return nil, err
	}

	if fn.Node.IsGenerator {
		return it.makeGenerator(fn, callEnv), nil
	}
	if fn.Node.IsAsync {
		return it.callAsync(fn, callEnv)
	}

	return it.runFunctionBody(fn.Node, callEnv)
}

func displayName(fn *runtime.FunctionValue) string {
	if fn.Name != "" {
		return fn.Name
	}
	return fn.Node.Name
}

// bindParams binds args to fn's parameter list, including defaults and a
// trailing rest parameter (spec §4.3).
func (it *Interpreter) bindParams(env *runtime.Environment, node *ast.FunctionNode, args []runtime.Value) error {
	for i, p := range node.Params {
		if node.RestParam >= 0 && i == node.RestParam {
			var rest []runtime.Value
			if i < len(args) {
				rest = append(rest, args[i:]...)
			}
			if rp, ok := p.(*ast.RestElement); ok {
				return it.bindPattern(env, rp.Argument, runtime.NewArray(rest...), ast.BindingMutableBlock)
			}
			return it.bindPattern(env, p, runtime.NewArray(rest...), ast.BindingMutableBlock)
		}
		var v runtime.Value = runtime.UndefinedValue
		if i < len(args) {
			v = args[i]
		}
		if def, ok := node.Defaults[i]; ok {
			if _, isUndef := v.(runtime.Undefined); isUndef {
				dv, err := it.evalExpr(env, def)
				if err != nil {
					return err
				}
				v = dv
			}
		}
		if err := it.bindPattern(env, p, v, ast.BindingMutableBlock); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) runFunctionBody(node *ast.FunctionNode, env *runtime.Environment) (runtime.Value, error) {
	if node.ExprBody != nil {
		return it.evalExpr(env, node.ExprBody)
	}
	it.hoist(env, node.Body)
	_, comp, err := it.execStatements(env, node.Body)
	if err != nil {
		return nil, err
	}
	if comp.Kind == runtime.CompletionReturn {
		return comp.Value, nil
	}
	return runtime.UndefinedValue, nil
}

// callHostFunction invokes a Go-native function exposed to guest code (spec
// §4.5). Errors returned by the host closure are redacted per the
// Interpreter's SecurityOptions before becoming guest-visible.
func (it *Interpreter) callHostFunction(fn *runtime.HostFunctionValue, this runtime.Value, args []runtime.Value) (runtime.Value, error) {
	if fn.Async && it.hostAsyncSem != nil {
		ctx := context.Background()
		if err := it.hostAsyncSem.Acquire(ctx, 1); err != nil {
			return nil, errors.New(errors.KindHostFunctionError, "host call queue: %v", err)
		}
		defer it.hostAsyncSem.Release(1)
	}
	v, err := fn.Fn(this, args)
	if err != nil {
		if _, ok := err.(*errors.EvalError); ok {
			return nil, err
		}
		return nil, errors.RedactHostError(it.security, err)
	}
	return v, nil
}

func (it *Interpreter) evalNew(env *runtime.Environment, e *ast.NewExpression) (runtime.Value, error) {
	callee, err := it.evalExpr(env, e.Callee)
	if err != nil {
		return nil, err
	}
	args, err := it.evalArguments(env, e.Arguments)
	if err != nil {
		return nil, err
	}
	switch c := callee.(type) {
	case *runtime.ClassValue:
		return it.instantiate(c, args)
	case *runtime.HostFunctionValue:
		return it.callHostFunction(c, runtime.UndefinedValue, args)
	}
	return nil, errors.New(errors.KindCallTargetNotCallable, "value is not a constructor")
}

// evalAwait implements `await` as a synchronous settle-or-drain pump (spec
// §5, "a single evaluation occupies exactly one logical thread of
// control"): rather than suspending the calling goroutine, it repeatedly
// checks the Promise's state and runs queued reaction jobs until the
// promise settles or the job queue runs dry (a guest-level deadlock).
func (it *Interpreter) evalAwait(env *runtime.Environment, e *ast.AwaitExpression) (runtime.Value, error) {
	if err := it.checkFeature(FeatureAsync); err != nil {
		return nil, err
	}
	if !it.isAsync {
		return nil, errors.New(errors.KindAsyncInSync, "'await' is only valid inside an async function")
	}
	v, err := it.evalExpr(env, e.Argument)
	if err != nil {
		return nil, err
	}
	prom, ok := v.(*runtime.Promise)
	if !ok {
		return v, nil
	}
	for {
		state, value := prom.State()
		switch state {
		case "fulfilled":
			return value, nil
		case "rejected":
			return nil, errors.New(errors.KindUncaughtThrow, "uncaught (in promise)").WithThrown(value)
		}
		if it.queue.Len() == 0 {
			return nil, errors.New(errors.KindUncaughtThrow, "await deadlock: promise never settles")
		}
		it.queue.Drain()
	}
}

// callAsync runs an async function's body to completion on the current
// goroutine, wrapping its result in a settled Promise (spec §5). Any
// `await` inside the body blocks via evalAwait's pump loop rather than a
// real suspension, so calling an async function never yields control back
// to the caller mid-body - it only appears asynchronous from the caller's
// perspective once it returns a Promise.
func (it *Interpreter) callAsync(fn *runtime.FunctionValue, env *runtime.Environment) (runtime.Value, error) {
	wasAsync := it.isAsync
	it.isAsync = true
	defer func() { it.isAsync = wasAsync }()

	v, err := it.runFunctionBody(fn.Node, env)
	if err != nil {
		if ee, ok := err.(*errors.EvalError); ok && ee.Kind == errors.KindUncaughtThrow {
			return runtime.NewRejectedPromise(it.queue, thrownValue(ee)), nil
		}
		return nil, err
	}
	return runtime.NewResolvedPromise(it.queue, v), nil
}

func (it *Interpreter) evalYield(env *runtime.Environment, e *ast.YieldExpression) (runtime.Value, error) {
	if err := it.checkFeature(FeatureGenerator); err != nil {
		return nil, err
	}
	yield, ok := env.Lookup(yieldSlotName)
	if !ok {
		return nil, errors.New(errors.KindParseError, "'yield' used outside of a generator")
	}
	yieldFn := yield.(*runtime.HostFunctionValue)

	if e.Delegate {
		var arg runtime.Value = runtime.UndefinedValue
		var err error
		if e.Argument != nil {
			arg, err = it.evalExpr(env, e.Argument)
			if err != nil {
				return nil, err
			}
		}
		items, err := it.iterate(arg, false)
		if err != nil {
			return nil, err
		}
		var last runtime.Value = runtime.UndefinedValue
		for _, item := range items {
			v, err := it.callHostFunction(yieldFn, runtime.UndefinedValue, []runtime.Value{item})
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil
	}

	var arg runtime.Value = runtime.UndefinedValue
	if e.Argument != nil {
		v, err := it.evalExpr(env, e.Argument)
		if err != nil {
			return nil, err
		}
		arg = v
	}
	return it.callHostFunction(yieldFn, runtime.UndefinedValue, []runtime.Value{arg})
}

// yieldSlotName is the reserved binding name makeGenerator installs in the
// generator body's call environment, letting evalYield find the driver's
// yield closure without threading it through every eval signature.
const yieldSlotName = "@@yield"

// makeGenerator wraps fn's body in a runtime.GeneratorValue, installing the
// driver's yield callback into callEnv under yieldSlotName before the body
// runs on the generator's dedicated goroutine (spec §4.6).
func (it *Interpreter) makeGenerator(fn *runtime.FunctionValue, callEnv *runtime.Environment) *runtime.GeneratorValue {
	return runtime.NewGenerator(fn.Node.IsAsync, func(yield func(runtime.Value) (runtime.Value, error)) (runtime.Value, error) {
		yieldHost := &runtime.HostFunctionValue{Name: "yield", Fn: func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			var v runtime.Value = runtime.UndefinedValue
			if len(args) > 0 {
				v = args[0]
			}
			return yield(v)
		}}
		_ = callEnv.Declare(yieldSlotName, yieldHost, true)
		return it.runFunctionBody(fn.Node, callEnv)
	})
}
