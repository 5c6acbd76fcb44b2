package interp

import (
	"github.com/samlaycock/nookjs/ast"
	"github.com/samlaycock/nookjs/errors"
	"github.com/samlaycock/nookjs/runtime"
)

// execStatement runs one statement in env, returning the statement's
// expression-value (for ExpressionStatement, used as the program's final
// result per spec §6.2) and any non-local completion (spec §3,
// "control-flow sentinels").
func (it *Interpreter) execStatement(env *runtime.Environment, stmt ast.Statement) (runtime.Value, runtime.Completion, error) {
	it.currentEnv = env
	it.stats.NodeCount++
	if it.meter != nil {
		if err := it.meter.TickNode(); err != nil {
			return nil, runtime.NormalCompletion, err
		}
	}

	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		v, err := it.evalExpr(env, s.Expression)
		return v, runtime.NormalCompletion, err

	case *ast.BlockStatement:
		return it.execBlock(env, s.Body)

	case *ast.VariableDeclaration:
		return nil, runtime.NormalCompletion, it.execVariableDeclaration(env, s)

	case *ast.FunctionNode:
		fn := it.makeFunction(s, env, nil, false)
		env.DeclareFunctionScoped(s.Name, fn)
		return nil, runtime.NormalCompletion, nil

	case *ast.ClassNode:
		cls, err := it.evalClassNode(env, s)
		if err != nil {
			return nil, runtime.NormalCompletion, err
		}
		if err := env.Declare(s.Name, cls, false); err != nil {
			return nil, runtime.NormalCompletion, err
		}
		return nil, runtime.NormalCompletion, nil

	case *ast.IfStatement:
		return it.execIf(env, s)

	case *ast.WhileStatement:
		return it.execWhile(env, s)

	case *ast.DoWhileStatement:
		return it.execDoWhile(env, s)

	case *ast.ForStatement:
		return it.execFor(env, s)

	case *ast.ForOfStatement:
		return it.execForOf(env, s)

	case *ast.ForInStatement:
		return it.execForIn(env, s)

	case *ast.SwitchStatement:
		return it.execSwitch(env, s)

	case *ast.TryStatement:
		return it.execTry(env, s)

	case *ast.ThrowStatement:
		v, err := it.evalExpr(env, s.Argument)
		if err != nil {
			return nil, runtime.NormalCompletion, err
		}
		return nil, runtime.NormalCompletion, errors.New(errors.KindUncaughtThrow, "uncaught exception").WithThrown(v)

	case *ast.ReturnStatement:
		var v runtime.Value = runtime.UndefinedValue
		if s.Argument != nil {
			rv, err := it.evalExpr(env, s.Argument)
			if err != nil {
				return nil, runtime.NormalCompletion, err
			}
			v = rv
		}
		return nil, runtime.Completion{Kind: runtime.CompletionReturn, Value: v}, nil

	case *ast.BreakStatement:
		return nil, runtime.Completion{Kind: runtime.CompletionBreak, Label: s.Label}, nil

	case *ast.ContinueStatement:
		return nil, runtime.Completion{Kind: runtime.CompletionContinue, Label: s.Label}, nil

	case *ast.LabeledStatement:
		return it.execLabeled(env, s)
	}
	return nil, runtime.NormalCompletion, errors.New(errors.KindParseError, "unknown statement node %T", stmt)
}

// execBlock creates a new block Environment (spec §4.3.3, "Blocks create a
// new environment") and runs stmts in order, hoisting `var`/`function`
// declarations first per spec §4.3.1.
func (it *Interpreter) execBlock(parent *runtime.Environment, stmts []ast.Statement) (runtime.Value, runtime.Completion, error) {
	env := parent.NewChild()
	it.hoist(env, stmts)
	return it.execStatements(env, stmts)
}

func (it *Interpreter) execStatements(env *runtime.Environment, stmts []ast.Statement) (runtime.Value, runtime.Completion, error) {
	var last runtime.Value
	for _, s := range stmts {
		v, comp, err := it.execStatement(env, s)
		if err != nil {
			return nil, runtime.NormalCompletion, err
		}
		if v != nil {
			last = v
		}
		if comp.Kind != runtime.CompletionNormal {
			return last, comp, nil
		}
	}
	return last, runtime.NormalCompletion, nil
}

// hoist implements `var` function-scope hoisting and function-declaration
// hoisting: every `var` name in stmts (recursing into nested non-function
// blocks) is pre-declared as undefined in env, and every function
// declaration is bound to its FunctionValue before the block body runs
// (spec §4.3.1).
func (it *Interpreter) hoist(env *runtime.Environment, stmts []ast.Statement) {
	var walk func(s ast.Statement)
	walk = func(s ast.Statement) {
		switch v := s.(type) {
		case *ast.VariableDeclaration:
			if v.Kind == ast.BindingMutableFunction {
				for _, d := range v.Declarators {
					for _, name := range patternNames(d.Target) {
						env.DeclareFunctionScoped(name, runtime.UndefinedValue)
					}
				}
			}
		case *ast.BlockStatement:
			for _, inner := range v.Body {
				walk(inner)
			}
		case *ast.IfStatement:
			walk(v.Consequent)
			if v.Alternate != nil {
				walk(v.Alternate)
			}
		case *ast.WhileStatement:
			walk(v.Body)
		case *ast.DoWhileStatement:
			walk(v.Body)
		case *ast.ForStatement:
			walk(v.Body)
		case *ast.ForOfStatement:
			walk(v.Body)
		case *ast.ForInStatement:
			walk(v.Body)
		case *ast.TryStatement:
			for _, inner := range v.Block.Body {
				walk(inner)
			}
			if v.CatchBlock != nil {
				for _, inner := range v.CatchBlock.Body {
					walk(inner)
				}
			}
			if v.FinallyBlock != nil {
				for _, inner := range v.FinallyBlock.Body {
					walk(inner)
				}
			}
		case *ast.LabeledStatement:
			walk(v.Body)
		}
	}
	for _, s := range stmts {
		walk(s)
	}
	for _, s := range stmts {
		if fn, ok := s.(*ast.FunctionNode); ok && fn.Name != "" {
			env.DeclareFunctionScoped(fn.Name, it.makeFunction(fn, env, nil, false))
		}
	}
}

func patternNames(p ast.Pattern) []string {
	switch v := p.(type) {
	case *ast.Identifier:
		return []string{v.Name}
	case *ast.AssignmentPattern:
		return patternNames(v.Target)
	case *ast.RestElement:
		return patternNames(v.Argument)
	case *ast.ArrayPattern:
		var out []string
		for _, el := range v.Elements {
			if el != nil {
				out = append(out, patternNames(el)...)
			}
		}
		return out
	case *ast.ObjectPattern:
		var out []string
		for _, prop := range v.Properties {
			out = append(out, patternNames(prop.Value)...)
		}
		if v.Rest != nil {
			out = append(out, patternNames(v.Rest)...)
		}
		return out
	}
	return nil
}

func (it *Interpreter) execVariableDeclaration(env *runtime.Environment, decl *ast.VariableDeclaration) error {
	immutable := decl.Kind == ast.BindingImmutable
	for _, d := range decl.Declarators {
		var val runtime.Value = runtime.UndefinedValue
		if d.Init != nil {
			v, err := it.evalExpr(env, d.Init)
			if err != nil {
				return err
			}
			val = v
		} else if immutable {
			return errors.New(errors.KindParseError, "missing initializer in const declaration")
		}
		if err := it.bindPattern(env, d.Target, val, decl.Kind); err != nil {
			return err
		}
	}
	return nil
}

// bindPattern destructures val into target, declaring bindings of kind in
// env (spec §4.3.1).
func (it *Interpreter) bindPattern(env *runtime.Environment, target ast.Pattern, val runtime.Value, kind ast.BindingKind) error {
	declare := func(name string, v runtime.Value) error {
		if kind == ast.BindingMutableFunction {
			env.DeclareFunctionScoped(name, v)
			return nil
		}
		return env.Declare(name, v, kind == ast.BindingImmutable)
	}

	switch t := target.(type) {
	case *ast.Identifier:
		return declare(t.Name, val)

	case *ast.AssignmentPattern:
		if _, isUndef := val.(runtime.Undefined); isUndef {
			v, err := it.evalExpr(env, t.Default)
			if err != nil {
				return err
			}
			val = v
		}
		return it.bindPattern(env, t.Target, val, kind)

	case *ast.ArrayPattern:
		arr, ok := val.(*runtime.Array)
		if !ok {
			return errors.New(errors.KindSpreadTarget, "destructuring target is not an array")
		}
		for i, el := range t.Elements {
			if el == nil {
				continue
			}
			if rest, isRest := el.(*ast.RestElement); isRest {
				var tail []runtime.Value
				if i < len(arr.Elements) {
					tail = append(tail, arr.Elements[i:]...)
				}
				if err := it.bindPattern(env, rest.Argument, runtime.NewArray(tail...), kind); err != nil {
					return err
				}
				break
			}
			var elVal runtime.Value = runtime.UndefinedValue
			if i < len(arr.Elements) {
				elVal = arr.Elements[i]
			}
			if err := it.bindPattern(env, el, elVal, kind); err != nil {
				return err
			}
		}
		return nil

	case *ast.ObjectPattern:
		used := map[string]bool{}
		for _, prop := range t.Properties {
			key, err := it.propertyKeyString(env, prop.Key, prop.Computed)
			if err != nil {
				return err
			}
			used[key] = true
			v, err := it.getProperty(val, key)
			if err != nil {
				return err
			}
			if err := it.bindPattern(env, prop.Value, v, kind); err != nil {
				return err
			}
		}
		if t.Rest != nil {
			rest := runtime.NewObject()
			if obj, ok := val.(*runtime.Object); ok {
				for _, k := range obj.Keys() {
					if used[k] {
						continue
					}
					v, _ := obj.Get(k)
					rest.Set(k, v)
				}
			}
			if err := it.bindPattern(env, t.Rest.Argument, rest, kind); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.New(errors.KindParseError, "unsupported binding pattern %T", target)
}

func (it *Interpreter) execIf(env *runtime.Environment, s *ast.IfStatement) (runtime.Value, runtime.Completion, error) {
	test, err := it.evalExpr(env, s.Test)
	if err != nil {
		return nil, runtime.NormalCompletion, err
	}
	if runtime.ToBool(test) {
		return it.execStatement(env, s.Consequent)
	}
	if s.Alternate != nil {
		return it.execStatement(env, s.Alternate)
	}
	return nil, runtime.NormalCompletion, nil
}

func matchesLabel(comp runtime.Completion, label string) bool {
	return comp.Label == "" || comp.Label == label
}

func (it *Interpreter) execWhile(env *runtime.Environment, s *ast.WhileStatement) (runtime.Value, runtime.Completion, error) {
	for {
		test, err := it.evalExpr(env, s.Test)
		if err != nil {
			return nil, runtime.NormalCompletion, err
		}
		if !runtime.ToBool(test) {
			return nil, runtime.NormalCompletion, nil
		}
		if err := it.tickLoop(); err != nil {
			return nil, runtime.NormalCompletion, err
		}
		_, comp, err := it.execStatement(env, s.Body)
		if err != nil {
			return nil, runtime.NormalCompletion, err
		}
		if comp.Kind == runtime.CompletionBreak && matchesLabel(comp, s.Label) {
			return nil, runtime.NormalCompletion, nil
		}
		if comp.Kind == runtime.CompletionContinue && matchesLabel(comp, s.Label) {
			continue
		}
		if comp.Kind != runtime.CompletionNormal {
			return nil, comp, nil
		}
	}
}

func (it *Interpreter) execDoWhile(env *runtime.Environment, s *ast.DoWhileStatement) (runtime.Value, runtime.Completion, error) {
	for {
		if err := it.tickLoop(); err != nil {
			return nil, runtime.NormalCompletion, err
		}
		_, comp, err := it.execStatement(env, s.Body)
		if err != nil {
			return nil, runtime.NormalCompletion, err
		}
		if comp.Kind == runtime.CompletionBreak && matchesLabel(comp, s.Label) {
			return nil, runtime.NormalCompletion, nil
		}
		if comp.Kind != runtime.CompletionNormal && !(comp.Kind == runtime.CompletionContinue && matchesLabel(comp, s.Label)) {
			return nil, comp, nil
		}
		test, err := it.evalExpr(env, s.Test)
		if err != nil {
			return nil, runtime.NormalCompletion, err
		}
		if !runtime.ToBool(test) {
			return nil, runtime.NormalCompletion, nil
		}
	}
}

func (it *Interpreter) execFor(env *runtime.Environment, s *ast.ForStatement) (runtime.Value, runtime.Completion, error) {
	loopEnv := env.NewChild()
	if s.Init != nil {
		switch init := s.Init.(type) {
		case *ast.VariableDeclaration:
			if err := it.execVariableDeclaration(loopEnv, init); err != nil {
				return nil, runtime.NormalCompletion, err
			}
		case ast.Expression:
			if _, err := it.evalExpr(loopEnv, init); err != nil {
				return nil, runtime.NormalCompletion, err
			}
		}
	}
	for {
		if s.Test != nil {
			test, err := it.evalExpr(loopEnv, s.Test)
			if err != nil {
				return nil, runtime.NormalCompletion, err
			}
			if !runtime.ToBool(test) {
				return nil, runtime.NormalCompletion, nil
			}
		}
		if err := it.tickLoop(); err != nil {
			return nil, runtime.NormalCompletion, err
		}

		// Per-iteration environment copy so closures created in the body
		// capture this iteration's `let` bindings (spec §8 scenario 1).
		iterEnv := loopEnv.NewChild()
		for k, v := range loopEnv.OwnBindings() {
			_ = iterEnv.Declare(k, v, false)
		}

		_, comp, err := it.execStatement(iterEnv, s.Body)
		if err != nil {
			return nil, runtime.NormalCompletion, err
		}
		for k := range loopEnv.OwnBindings() {
			if v, ok := iterEnv.Lookup(k); ok {
				_ = loopEnv.Set(k, v)
			}
		}
		if comp.Kind == runtime.CompletionBreak && matchesLabel(comp, s.Label) {
			return nil, runtime.NormalCompletion, nil
		}
		if comp.Kind != runtime.CompletionNormal && !(comp.Kind == runtime.CompletionContinue && matchesLabel(comp, s.Label)) {
			return nil, comp, nil
		}
		if s.Update != nil {
			if _, err := it.evalExpr(loopEnv, s.Update); err != nil {
				return nil, runtime.NormalCompletion, err
			}
		}
	}
}

// execForOf implements for-of and for-await-of iteration over arrays,
// strings and Symbol.iterator-bearing objects (spec §4.3.3). A guest
// generator is driven one value at a time rather than collected up front, so
// a `break`/`return` out of the loop body closes the still-suspended
// coroutine via Return instead of letting it run to completion first - that
// ordering is what lets an enclosing `finally` inside the generator body
// observe the loop's actual exit point (spec §8 scenario 3).
func (it *Interpreter) execForOf(env *runtime.Environment, s *ast.ForOfStatement) (runtime.Value, runtime.Completion, error) {
	right, err := it.evalExpr(env, s.Right)
	if err != nil {
		return nil, runtime.NormalCompletion, err
	}

	if gen, ok := right.(*runtime.GeneratorValue); ok {
		return it.execForOfGenerator(env, s, gen)
	}

	values, err := it.iterate(right, s.Await)
	if err != nil {
		return nil, runtime.NormalCompletion, err
	}

	for _, item := range values {
		if err := it.tickLoop(); err != nil {
			return nil, runtime.NormalCompletion, err
		}
		iterEnv := env.NewChild()
		if s.IsDecl {
			if err := it.bindPattern(iterEnv, s.Target, item, s.DeclKind); err != nil {
				return nil, runtime.NormalCompletion, err
			}
		} else if err := it.assignPattern(iterEnv, s.Target, item); err != nil {
			return nil, runtime.NormalCompletion, err
		}
		_, comp, err := it.execStatement(iterEnv, s.Body)
		if err != nil {
			return nil, runtime.NormalCompletion, err
		}
		if comp.Kind == runtime.CompletionBreak && matchesLabel(comp, s.Label) {
			return nil, runtime.NormalCompletion, nil
		}
		if comp.Kind == runtime.CompletionContinue && matchesLabel(comp, s.Label) {
			continue
		}
		if comp.Kind != runtime.CompletionNormal {
			return nil, comp, nil
		}
	}
	return nil, runtime.NormalCompletion, nil
}

// execForOfGenerator backs execForOf's generator case: each iteration pulls
// exactly one value via Next, and any early exit from the loop body calls
// Return on the coroutine before this function itself returns, so pending
// `finally` blocks run at that moment rather than during an eager drain.
func (it *Interpreter) execForOfGenerator(env *runtime.Environment, s *ast.ForOfStatement, gen *runtime.GeneratorValue) (runtime.Value, runtime.Completion, error) {
	for {
		if err := it.tickLoop(); err != nil {
			return nil, runtime.NormalCompletion, err
		}
		item, done, err := gen.Next(runtime.UndefinedValue)
		if err != nil {
			return nil, runtime.NormalCompletion, err
		}
		if done {
			return nil, runtime.NormalCompletion, nil
		}

		iterEnv := env.NewChild()
		if s.IsDecl {
			if err := it.bindPattern(iterEnv, s.Target, item, s.DeclKind); err != nil {
				_, _, _ = gen.Return(runtime.UndefinedValue)
				return nil, runtime.NormalCompletion, err
			}
		} else if err := it.assignPattern(iterEnv, s.Target, item); err != nil {
			_, _, _ = gen.Return(runtime.UndefinedValue)
			return nil, runtime.NormalCompletion, err
		}

		_, comp, err := it.execStatement(iterEnv, s.Body)
		if err != nil {
			_, _, _ = gen.Return(runtime.UndefinedValue)
			return nil, runtime.NormalCompletion, err
		}
		if comp.Kind == runtime.CompletionBreak && matchesLabel(comp, s.Label) {
			if _, _, err := gen.Return(runtime.UndefinedValue); err != nil {
				return nil, runtime.NormalCompletion, err
			}
			return nil, runtime.NormalCompletion, nil
		}
		if comp.Kind == runtime.CompletionContinue && matchesLabel(comp, s.Label) {
			continue
		}
		if comp.Kind != runtime.CompletionNormal {
			if _, _, err := gen.Return(runtime.UndefinedValue); err != nil {
				return nil, runtime.NormalCompletion, err
			}
			return nil, comp, nil
		}
	}
}

// execForIn enumerates own enumerable property names in insertion order
// (spec §4.3.3; the host language's numeric-key-first quirk is not
// reproduced since guest objects have no numeric-key fast path).
func (it *Interpreter) execForIn(env *runtime.Environment, s *ast.ForInStatement) (runtime.Value, runtime.Completion, error) {
	right, err := it.evalExpr(env, s.Right)
	if err != nil {
		return nil, runtime.NormalCompletion, err
	}
	var keys []string
	switch v := right.(type) {
	case *runtime.Object:
		keys = v.Keys()
	case *runtime.Instance:
		keys = v.Fields.Keys()
	case *runtime.Array:
		keys = make([]string, v.Len())
		for i := range v.Elements {
			keys[i] = indexString(i)
		}
	default:
		return nil, runtime.NormalCompletion, errors.New(errors.KindForInTarget, "for-in target is not an object")
	}

	for _, key := range keys {
		if err := it.tickLoop(); err != nil {
			return nil, runtime.NormalCompletion, err
		}
		iterEnv := env.NewChild()
		keyVal := runtime.String(key)
		if s.IsDecl {
			if err := it.bindPattern(iterEnv, s.Target, keyVal, s.DeclKind); err != nil {
				return nil, runtime.NormalCompletion, err
			}
		} else if err := it.assignPattern(iterEnv, s.Target, keyVal); err != nil {
			return nil, runtime.NormalCompletion, err
		}
		_, comp, err := it.execStatement(iterEnv, s.Body)
		if err != nil {
			return nil, runtime.NormalCompletion, err
		}
		if comp.Kind == runtime.CompletionBreak && matchesLabel(comp, s.Label) {
			return nil, runtime.NormalCompletion, nil
		}
		if comp.Kind == runtime.CompletionContinue && matchesLabel(comp, s.Label) {
			continue
		}
		if comp.Kind != runtime.CompletionNormal {
			return nil, comp, nil
		}
	}
	return nil, runtime.NormalCompletion, nil
}

func (it *Interpreter) execSwitch(env *runtime.Environment, s *ast.SwitchStatement) (runtime.Value, runtime.Completion, error) {
	disc, err := it.evalExpr(env, s.Discriminant)
	if err != nil {
		return nil, runtime.NormalCompletion, err
	}
	switchEnv := env.NewChild()
	matched := -1
	for i, c := range s.Cases {
		if c.Test == nil {
			continue
		}
		tv, err := it.evalExpr(switchEnv, c.Test)
		if err != nil {
			return nil, runtime.NormalCompletion, err
		}
		if strictEquals(disc, tv) {
			matched = i
			break
		}
	}
	if matched == -1 {
		for i, c := range s.Cases {
			if c.Test == nil {
				matched = i
				break
			}
		}
	}
	if matched == -1 {
		return nil, runtime.NormalCompletion, nil
	}
	for i := matched; i < len(s.Cases); i++ {
		_, comp, err := it.execStatements(switchEnv, s.Cases[i].Body)
		if err != nil {
			return nil, runtime.NormalCompletion, err
		}
		if comp.Kind == runtime.CompletionBreak && matchesLabel(comp, s.Label) {
			return nil, runtime.NormalCompletion, nil
		}
		if comp.Kind != runtime.CompletionNormal {
			return nil, comp, nil
		}
	}
	return nil, runtime.NormalCompletion, nil
}

func (it *Interpreter) execTry(env *runtime.Environment, s *ast.TryStatement) (runtime.Value, runtime.Completion, error) {
	v, comp, err := it.execBlock(env, s.Block.Body)

	if err != nil && s.HasCatch {
		thrown := thrownValue(err)
		catchEnv := env.NewChild()
		if s.CatchParam != nil {
			if berr := it.bindPattern(catchEnv, s.CatchParam, thrown, ast.BindingMutableBlock); berr != nil {
				err = berr
			} else {
				err = nil
			}
		} else {
			err = nil
		}
		if err == nil {
			v, comp, err = it.execBlock(catchEnv, s.CatchBlock.Body)
		}
	}

	if s.FinallyBlock != nil {
		_, fcomp, ferr := it.execBlock(env, s.FinallyBlock.Body)
		if ferr != nil {
			return nil, runtime.NormalCompletion, ferr
		}
		if fcomp.Kind != runtime.CompletionNormal {
			return nil, fcomp, nil
		}
	}
	return v, comp, err
}

// thrownValue extracts the guest-observable thrown value from err, for
// catch-clause binding: a ThrownValue is preserved verbatim (so
// destructuring works against the original guest value, per spec §7),
// otherwise the error itself is surfaced as a string message.
func thrownValue(err error) runtime.Value {
	if ee, ok := err.(*errors.EvalError); ok {
		if v, ok := ee.ThrownValue.(runtime.Value); ok {
			return v
		}
		return runtime.String(ee.Message)
	}
	return runtime.String(err.Error())
}

func (it *Interpreter) execLabeled(env *runtime.Environment, s *ast.LabeledStatement) (runtime.Value, runtime.Completion, error) {
	v, comp, err := it.execStatement(env, s.Body)
	if err != nil {
		return nil, runtime.NormalCompletion, err
	}
	if (comp.Kind == runtime.CompletionBreak || comp.Kind == runtime.CompletionContinue) && comp.Label == s.Label {
		return v, runtime.NormalCompletion, nil
	}
	return v, comp, nil
}

func (it *Interpreter) tickLoop() error {
	it.stats.LoopIterations++
	if it.meter != nil {
		return it.meter.TickLoop()
	}
	return nil
}
