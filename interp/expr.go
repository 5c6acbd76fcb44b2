package interp

import (
	"fmt"
	"math"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/samlaycock/nookjs/ast"
	"github.com/samlaycock/nookjs/errors"
	"github.com/samlaycock/nookjs/runtime"
)

// evalExpr evaluates an expression node in env, returning its guest value.
// Errors are *errors.EvalError values (or wrap one) ready for it.enrich.
func (it *Interpreter) evalExpr(env *runtime.Environment, expr ast.Expression) (runtime.Value, error) {
	it.stats.NodeCount++
	if it.meter != nil {
		if err := it.meter.TickNode(); err != nil {
			return nil, err
		}
	}

	switch e := expr.(type) {
	case *ast.NumberLiteral:
		if e.BigInt {
			return runtime.BigInt{V: int64(e.Value)}, nil
		}
		return runtime.Number(e.Value), nil
	case *ast.StringLiteral:
		return runtime.String(e.Value), nil
	case *ast.BoolLiteral:
		return runtime.Bool(e.Value), nil
	case *ast.NullLiteral:
		return runtime.NullValue, nil
	case *ast.UndefinedLiteral:
		return runtime.UndefinedValue, nil
	case *ast.Identifier:
		if v, ok := env.Lookup(e.Name); ok {
			return v, nil
		}
		if guess := suggestName(env, e.Name); guess != "" {
			return nil, errors.New(errors.KindUndefinedVariable, "%s is not defined, did you mean %s?", e.Name, guess)
		}
		return nil, errors.New(errors.KindUndefinedVariable, "%s is not defined", e.Name)
	case *ast.ThisExpression:
		if v, ok := env.This(); ok {
			if _, pending := v.(*runtime.UninitializedThis); pending {
				return nil, errors.New(errors.KindThisNotInitialized, "must call super() before accessing 'this' in a derived class constructor")
			}
			return v, nil
		}
		return runtime.UndefinedValue, nil
	case *ast.TemplateLiteral:
		return it.evalTemplateLiteral(env, e)
	case *ast.ArrayLiteral:
		return it.evalArrayLiteral(env, e)
	case *ast.ObjectLiteral:
		return it.evalObjectLiteral(env, e)
	case *ast.FunctionNode:
		return it.makeFunction(e, env, nil, false), nil
	case *ast.ClassNode:
		return it.evalClassNode(env, e)
	case *ast.BinaryExpression:
		return it.evalBinary(env, e)
	case *ast.LogicalExpression:
		return it.evalLogical(env, e)
	case *ast.UnaryExpression:
		return it.evalUnary(env, e)
	case *ast.UpdateExpression:
		return it.evalUpdate(env, e)
	case *ast.AssignmentExpression:
		return it.evalAssignment(env, e)
	case *ast.ConditionalExpression:
		test, err := it.evalExpr(env, e.Test)
		if err != nil {
			return nil, err
		}
		if runtime.ToBool(test) {
			return it.evalExpr(env, e.Consequent)
		}
		return it.evalExpr(env, e.Alternate)
	case *ast.SequenceExpression:
		var last runtime.Value = runtime.UndefinedValue
		for _, sub := range e.Expressions {
			v, err := it.evalExpr(env, sub)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil
	case *ast.MemberExpression:
		v, _, err := it.evalMember(env, e)
		return v, err
	case *ast.ChainExpression:
		v, err := it.evalExpr(env, e.Expression)
		if err != nil {
			if _, short := err.(*shortCircuit); short {
				return runtime.UndefinedValue, nil
			}
			return nil, err
		}
		return v, nil
	case *ast.CallExpression:
		return it.evalCall(env, e)
	case *ast.NewExpression:
		return it.evalNew(env, e)
	case *ast.AwaitExpression:
		return it.evalAwait(env, e)
	case *ast.YieldExpression:
		return it.evalYield(env, e)
	case *ast.SuperExpression:
		// A bare `super` only makes sense as the object of a MemberExpression
		// or the callee of a CallExpression; both are handled there.
		return runtime.UndefinedValue, nil
	}
	return nil, errors.New(errors.KindParseError, "unknown expression node %T", expr)
}

// shortCircuit is an internal sentinel unwound by ChainExpression: a nil
// object/callee partway through an optional chain (spec §4.3.2,
// "OptionalChainShortCircuit") aborts the rest of the chain to undefined
// without raising a guest-visible error.
type shortCircuit struct{}

func (*shortCircuit) Error() string { return "optional chain short-circuit" }

func (it *Interpreter) evalTemplateLiteral(env *runtime.Environment, e *ast.TemplateLiteral) (runtime.Value, error) {
	var sb strings.Builder
	for i, q := range e.Quasis {
		sb.WriteString(q)
		if i < len(e.Expressions) {
			v, err := it.evalExpr(env, e.Expressions[i])
			if err != nil {
				return nil, err
			}
			sb.WriteString(toDisplayString(v))
		}
	}
	result := sb.String()
	if it.meter != nil {
		it.meter.AddMemory(2 * int64(len(result)))
	}
	return runtime.String(result), nil
}

func (it *Interpreter) evalArrayLiteral(env *runtime.Environment, e *ast.ArrayLiteral) (runtime.Value, error) {
	var elems []runtime.Value
	for _, el := range e.Elements {
		if el == nil {
			elems = append(elems, runtime.UndefinedValue)
			continue
		}
		if sp, ok := el.(*ast.SpreadElement); ok {
			v, err := it.evalExpr(env, sp.Argument)
			if err != nil {
				return nil, err
			}
			items, err := it.iterate(v, false)
			if err != nil {
				return nil, err
			}
			elems = append(elems, items...)
			continue
		}
		v, err := it.evalExpr(env, el)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	arr := runtime.NewArray(elems...)
	if it.meter != nil {
		it.meter.AddMemory(int64(arr.MemoryCost()))
	}
	return arr, nil
}

func (it *Interpreter) evalObjectLiteral(env *runtime.Environment, e *ast.ObjectLiteral) (runtime.Value, error) {
	obj := runtime.NewObject()
	for _, prop := range e.Properties {
		if prop.Spread != nil {
			v, err := it.evalExpr(env, prop.Spread.Argument)
			if err != nil {
				return nil, err
			}
			if src, ok := v.(*runtime.Object); ok {
				for _, k := range src.Keys() {
					val, _ := src.Get(k)
					obj.Set(k, val)
				}
			}
			continue
		}
		key, err := it.propertyKeyString(env, prop.Key, prop.Computed)
		if err != nil {
			return nil, err
		}
		val, err := it.evalExpr(env, prop.Value)
		if err != nil {
			return nil, err
		}
		if fn, ok := val.(*runtime.FunctionValue); ok && fn.Name == "" {
			fn.Name = key
		}
		obj.Set(key, val)
	}
	if it.meter != nil {
		it.meter.AddMemory(int64(obj.MemoryCost()))
	}
	return obj, nil
}

// propertyKeyString resolves an object/class member key to its guest-visible
// string form, evaluating computed keys in env (spec §4.3.5).
func (it *Interpreter) propertyKeyString(env *runtime.Environment, key ast.Expression, computed bool) (string, error) {
	if !computed {
		switch k := key.(type) {
		case *ast.Identifier:
			return k.Name, nil
		case *ast.StringLiteral:
			return k.Value, nil
		case *ast.NumberLiteral:
			return toDisplayString(runtime.Number(k.Value)), nil
		}
	}
	v, err := it.evalExpr(env, key)
	if err != nil {
		return "", err
	}
	return toDisplayString(v), nil
}

// toDisplayString implements the non-guest-toString-invoking coercion spec
// §4.3.2 requires for template interpolation and property-key stringing:
// primitives render directly, objects/arrays render a structural summary,
// functions render their name.
func toDisplayString(v runtime.Value) string {
	switch x := v.(type) {
	case runtime.Undefined:
		return "undefined"
	case runtime.Null:
		return "null"
	case runtime.Bool:
		if x {
			return "true"
		}
		return "false"
	case runtime.String:
		return string(x)
	case runtime.Number:
		return formatNumber(float64(x))
	case runtime.BigInt:
		return fmt.Sprintf("%d", x.V)
	case *runtime.SymbolValue:
		return x.String()
	case *runtime.Array:
		parts := make([]string, len(x.Elements))
		for i, el := range x.Elements {
			parts[i] = toDisplayString(el)
		}
		return strings.Join(parts, ",")
	case *runtime.Object:
		return "[object Object]"
	case *runtime.Instance:
		return "[object " + x.Class.Name + "]"
	case *runtime.FunctionValue:
		return "function " + x.Name
	case *runtime.HostFunctionValue:
		return "function " + x.Name
	case *runtime.ClassValue:
		return "class " + x.Name
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%g", f)
}

func indexString(i int) string { return fmt.Sprintf("%d", i) }

func toNumber(v runtime.Value) float64 {
	switch x := v.(type) {
	case runtime.Number:
		return float64(x)
	case runtime.Bool:
		if x {
			return 1
		}
		return 0
	case runtime.String:
		var f float64
		if strings.TrimSpace(string(x)) == "" {
			return 0
		}
		if _, err := fmt.Sscanf(strings.TrimSpace(string(x)), "%g", &f); err != nil {
			return math.NaN()
		}
		return f
	case runtime.Null:
		return 0
	case runtime.BigInt:
		return float64(x.V)
	default:
		return math.NaN()
	}
}

// strictEquals implements `===`: type then value comparison, reference
// identity for objects/arrays/functions/instances (spec §4.3.2).
func strictEquals(a, b runtime.Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case runtime.Undefined:
		_, ok := b.(runtime.Undefined)
		return ok
	case runtime.Null:
		_, ok := b.(runtime.Null)
		return ok
	case runtime.Number:
		bv, ok := b.(runtime.Number)
		return ok && av == bv
	case runtime.String:
		bv, ok := b.(runtime.String)
		return ok && av == bv
	case runtime.Bool:
		bv, ok := b.(runtime.Bool)
		return ok && av == bv
	case runtime.BigInt:
		bv, ok := b.(runtime.BigInt)
		return ok && av.V == bv.V
	default:
		return a == b
	}
}

func (it *Interpreter) evalBinary(env *runtime.Environment, e *ast.BinaryExpression) (runtime.Value, error) {
	left, err := it.evalExpr(env, e.Left)
	if err != nil {
		return nil, err
	}
	right, err := it.evalExpr(env, e.Right)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case "+":
		if ls, ok := left.(runtime.String); ok {
			return ls + runtime.String(toDisplayString(right)), nil
		}
		if rs, ok := right.(runtime.String); ok {
			return runtime.String(toDisplayString(left)) + rs, nil
		}
		if lb, ok := left.(runtime.BigInt); ok {
			if rb, ok := right.(runtime.BigInt); ok {
				return runtime.BigInt{V: lb.V + rb.V}, nil
			}
		}
		return runtime.Number(toNumber(left) + toNumber(right)), nil
	case "-":
		return runtime.Number(toNumber(left) - toNumber(right)), nil
	case "*":
		return runtime.Number(toNumber(left) * toNumber(right)), nil
	case "/":
		rn := toNumber(right)
		if rn == 0 {
			return nil, errors.New(errors.KindDivisionByZero, "division by zero")
		}
		return runtime.Number(toNumber(left) / rn), nil
	case "%":
		rn := toNumber(right)
		if rn == 0 {
			return nil, errors.New(errors.KindModuloByZero, "modulo by zero")
		}
		return runtime.Number(math.Mod(toNumber(left), rn)), nil
	case "**":
		return runtime.Number(math.Pow(toNumber(left), toNumber(right))), nil
	case "==":
		return runtime.Bool(looseEquals(left, right)), nil
	case "!=":
		return runtime.Bool(!looseEquals(left, right)), nil
	case "===":
		return runtime.Bool(strictEquals(left, right)), nil
	case "!==":
		return runtime.Bool(!strictEquals(left, right)), nil
	case "<":
		return compareValues(left, right, func(c int) bool { return c < 0 }), nil
	case ">":
		return compareValues(left, right, func(c int) bool { return c > 0 }), nil
	case "<=":
		return compareValues(left, right, func(c int) bool { return c <= 0 }), nil
	case ">=":
		return compareValues(left, right, func(c int) bool { return c >= 0 }), nil
	case "&":
		return runtime.Number(float64(int64(toNumber(left)) & int64(toNumber(right)))), nil
	case "|":
		return runtime.Number(float64(int64(toNumber(left)) | int64(toNumber(right)))), nil
	case "^":
		return runtime.Number(float64(int64(toNumber(left)) ^ int64(toNumber(right)))), nil
	case "<<":
		return runtime.Number(float64(int32(toNumber(left)) << (uint32(toNumber(right)) & 31))), nil
	case ">>":
		return runtime.Number(float64(int32(toNumber(left)) >> (uint32(toNumber(right)) & 31))), nil
	case ">>>":
		return runtime.Number(float64(uint32(toNumber(left)) >> (uint32(toNumber(right)) & 31))), nil
	case "instanceof":
		return evalInstanceof(left, right)
	case "in":
		return evalIn(left, right)
	}
	return nil, errors.New(errors.KindParseError, "unsupported binary operator %q", e.Operator)
}

func compareValues(left, right runtime.Value, pred func(int) bool) runtime.Bool {
	ls, lok := left.(runtime.String)
	rs, rok := right.(runtime.String)
	if lok && rok {
		return runtime.Bool(pred(strings.Compare(string(ls), string(rs))))
	}
	ln, rn := toNumber(left), toNumber(right)
	if math.IsNaN(ln) || math.IsNaN(rn) {
		return false
	}
	switch {
	case ln < rn:
		return runtime.Bool(pred(-1))
	case ln > rn:
		return runtime.Bool(pred(1))
	default:
		return runtime.Bool(pred(0))
	}
}

func looseEquals(a, b runtime.Value) bool {
	if strictEquals(a, b) {
		return true
	}
	if runtime.IsNullish(a) && runtime.IsNullish(b) {
		return true
	}
	if runtime.IsNullish(a) || runtime.IsNullish(b) {
		return false
	}
	return toNumber(a) == toNumber(b)
}

func evalInstanceof(left, right runtime.Value) (runtime.Value, error) {
	switch right.(type) {
	case *runtime.FunctionValue, *runtime.HostFunctionValue:
		// Construction through a plain function is not tracked, so nothing
		// is reported as an instance of one.
		return runtime.Bool(false), nil
	}
	cls, ok := right.(*runtime.ClassValue)
	if !ok {
		return nil, errors.New(errors.KindParseError, "right-hand side of 'instanceof' is not callable")
	}
	inst, ok := left.(*runtime.Instance)
	if !ok {
		return runtime.Bool(false), nil
	}
	return runtime.Bool(inst.Class.IsSubclassOf(cls)), nil
}

func evalIn(left, right runtime.Value) (runtime.Value, error) {
	key := toDisplayString(left)
	switch v := right.(type) {
	case *runtime.Object:
		return runtime.Bool(v.Has(key)), nil
	case *runtime.Instance:
		if v.Fields.Has(key) {
			return runtime.Bool(true), nil
		}
		_, _, ok := v.Class.ResolveMethod(key)
		return runtime.Bool(ok), nil
	}
	return nil, errors.New(errors.KindForInTarget, "'in' target is not an object")
}

func (it *Interpreter) evalLogical(env *runtime.Environment, e *ast.LogicalExpression) (runtime.Value, error) {
	left, err := it.evalExpr(env, e.Left)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case "&&":
		if !runtime.ToBool(left) {
			return left, nil
		}
		return it.evalExpr(env, e.Right)
	case "||":
		if runtime.ToBool(left) {
			return left, nil
		}
		return it.evalExpr(env, e.Right)
	case "??":
		if !runtime.IsNullish(left) {
			return left, nil
		}
		return it.evalExpr(env, e.Right)
	}
	return nil, errors.New(errors.KindParseError, "unsupported logical operator %q", e.Operator)
}

func (it *Interpreter) evalUnary(env *runtime.Environment, e *ast.UnaryExpression) (runtime.Value, error) {
	if e.Operator == "typeof" {
		if id, ok := e.Argument.(*ast.Identifier); ok {
			if v, ok := env.Lookup(id.Name); ok {
				return runtime.String(v.TypeOf()), nil
			}
			return runtime.String("undefined"), nil
		}
	}
	if e.Operator == "delete" {
		if me, ok := e.Argument.(*ast.MemberExpression); ok {
			return it.evalDelete(env, me)
		}
		return runtime.Bool(true), nil
	}
	v, err := it.evalExpr(env, e.Argument)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case "typeof":
		return runtime.String(v.TypeOf()), nil
	case "void":
		return runtime.UndefinedValue, nil
	case "!":
		return runtime.Bool(!runtime.ToBool(v)), nil
	case "-":
		if b, ok := v.(runtime.BigInt); ok {
			return runtime.BigInt{V: -b.V}, nil
		}
		return runtime.Number(-toNumber(v)), nil
	case "+":
		return runtime.Number(toNumber(v)), nil
	case "~":
		return runtime.Number(float64(^int64(toNumber(v)))), nil
	}
	return nil, errors.New(errors.KindParseError, "unsupported unary operator %q", e.Operator)
}

func (it *Interpreter) evalDelete(env *runtime.Environment, me *ast.MemberExpression) (runtime.Value, error) {
	obj, err := it.evalExpr(env, me.Object)
	if err != nil {
		return nil, err
	}
	key, err := it.propertyKeyString(env, me.Property, me.Computed)
	if err != nil {
		return nil, err
	}
	if err := runtime.CheckPropertyAccess(key, true); err != nil {
		return nil, err
	}
	switch o := obj.(type) {
	case *runtime.Object:
		o.Delete(key)
	case *runtime.Instance:
		o.Fields.Delete(key)
	}
	return runtime.Bool(true), nil
}

func (it *Interpreter) evalUpdate(env *runtime.Environment, e *ast.UpdateExpression) (runtime.Value, error) {
	old, err := it.evalExpr(env, e.Argument)
	if err != nil {
		return nil, err
	}
	delta := 1.0
	if e.Operator == "--" {
		delta = -1.0
	}
	updated := runtime.Value(runtime.Number(toNumber(old) + delta))
	if err := it.assignTo(env, e.Argument, updated); err != nil {
		return nil, err
	}
	if e.Prefix {
		return updated, nil
	}
	return runtime.Number(toNumber(old)), nil
}

func (it *Interpreter) evalAssignment(env *runtime.Environment, e *ast.AssignmentExpression) (runtime.Value, error) {
	if e.Operator == "=" {
		v, err := it.evalExpr(env, e.Value)
		if err != nil {
			return nil, err
		}
		if ident, ok := e.Target.(*ast.Identifier); ok {
			if fn, ok := v.(*runtime.FunctionValue); ok && fn.Name == "" {
				fn.Name = ident.Name
			}
		}
		if err := it.assignTo(env, e.Target, v); err != nil {
			return nil, err
		}
		return v, nil
	}

	if op, ok := logicalAssignOp(e.Operator); ok {
		cur, err := it.evalExpr(env, e.Target)
		if err != nil {
			return nil, err
		}
		switch op {
		case "&&":
			if !runtime.ToBool(cur) {
				return cur, nil
			}
		case "||":
			if runtime.ToBool(cur) {
				return cur, nil
			}
		case "??":
			if !runtime.IsNullish(cur) {
				return cur, nil
			}
		}
		v, err := it.evalExpr(env, e.Value)
		if err != nil {
			return nil, err
		}
		if err := it.assignTo(env, e.Target, v); err != nil {
			return nil, err
		}
		return v, nil
	}

	cur, err := it.evalExpr(env, e.Target)
	if err != nil {
		return nil, err
	}
	rhs, err := it.evalExpr(env, e.Value)
	if err != nil {
		return nil, err
	}
	result, err := it.applyCompoundOp(e.Operator, cur, rhs)
	if err != nil {
		return nil, err
	}
	if err := it.assignTo(env, e.Target, result); err != nil {
		return nil, err
	}
	return result, nil
}

func logicalAssignOp(op string) (string, bool) {
	switch op {
	case "&&=":
		return "&&", true
	case "||=":
		return "||", true
	case "??=":
		return "??", true
	}
	return "", false
}

func (it *Interpreter) applyCompoundOp(op string, cur, rhs runtime.Value) (runtime.Value, error) {
	base := strings.TrimSuffix(op, "=")
	bin := &ast.BinaryExpression{Operator: base}
	_ = bin
	switch base {
	case "+":
		if ls, ok := cur.(runtime.String); ok {
			return ls + runtime.String(toDisplayString(rhs)), nil
		}
		return runtime.Number(toNumber(cur) + toNumber(rhs)), nil
	case "-":
		return runtime.Number(toNumber(cur) - toNumber(rhs)), nil
	case "*":
		return runtime.Number(toNumber(cur) * toNumber(rhs)), nil
	case "/":
		rn := toNumber(rhs)
		if rn == 0 {
			return nil, errors.New(errors.KindDivisionByZero, "division by zero")
		}
		return runtime.Number(toNumber(cur) / rn), nil
	case "%":
		rn := toNumber(rhs)
		if rn == 0 {
			return nil, errors.New(errors.KindModuloByZero, "modulo by zero")
		}
		return runtime.Number(math.Mod(toNumber(cur), rn)), nil
	case "**":
		return runtime.Number(math.Pow(toNumber(cur), toNumber(rhs))), nil
	case "&":
		return runtime.Number(float64(int64(toNumber(cur)) & int64(toNumber(rhs)))), nil
	case "|":
		return runtime.Number(float64(int64(toNumber(cur)) | int64(toNumber(rhs)))), nil
	case "^":
		return runtime.Number(float64(int64(toNumber(cur)) ^ int64(toNumber(rhs)))), nil
	case "<<":
		return runtime.Number(float64(int32(toNumber(cur)) << (uint32(toNumber(rhs)) & 31))), nil
	case ">>":
		return runtime.Number(float64(int32(toNumber(cur)) >> (uint32(toNumber(rhs)) & 31))), nil
	case ">>>":
		return runtime.Number(float64(uint32(toNumber(cur)) >> (uint32(toNumber(rhs)) & 31))), nil
	}
	return nil, errors.New(errors.KindParseError, "unsupported compound assignment operator %q", op)
}

// assignTo writes v to the lvalue expr: an Identifier, MemberExpression, or
// a destructuring target appearing in assignment position.
func (it *Interpreter) assignTo(env *runtime.Environment, expr ast.Expression, v runtime.Value) error {
	switch t := expr.(type) {
	case *ast.Identifier:
		return env.Set(t.Name, v)
	case *ast.MemberExpression:
		return it.setMember(env, t, v)
	case *ast.ArrayLiteral, *ast.ObjectLiteral:
		return it.assignPattern(env, exprToPattern(t), v)
	}
	return errors.New(errors.KindParseError, "invalid assignment target")
}

// assignPattern destructures v into an already-declared set of lvalues
// (used by for-of/for-in with a pre-existing binding, and by `[a,b]=x`
// assignment expressions), as opposed to bindPattern which declares fresh
// bindings.
func (it *Interpreter) assignPattern(env *runtime.Environment, target ast.Pattern, v runtime.Value) error {
	switch t := target.(type) {
	case *ast.Identifier:
		return env.Set(t.Name, v)
	case *ast.AssignmentPattern:
		if _, isUndef := v.(runtime.Undefined); isUndef {
			dv, err := it.evalExpr(env, t.Default)
			if err != nil {
				return err
			}
			v = dv
		}
		return it.assignPattern(env, t.Target, v)
	case *ast.ArrayPattern:
		arr, ok := v.(*runtime.Array)
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
				return it.assignPattern(env, rest.Argument, runtime.NewArray(tail...))
			}
			var ev runtime.Value = runtime.UndefinedValue
			if i < len(arr.Elements) {
				ev = arr.Elements[i]
			}
			if err := it.assignPattern(env, el, ev); err != nil {
				return err
			}
		}
		return nil
	case *ast.ObjectPattern:
		for _, prop := range t.Properties {
			key, err := it.propertyKeyString(env, prop.Key, prop.Computed)
			if err != nil {
				return err
			}
			pv, err := it.getProperty(v, key)
			if err != nil {
				return err
			}
			if err := it.assignPattern(env, prop.Value, pv); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.New(errors.KindParseError, "unsupported assignment pattern %T", target)
}

// exprToPattern reinterprets an array/object literal parsed in expression
// position as a destructuring pattern, for `[a, b] = rhs` style assignment
// expressions.
func exprToPattern(e ast.Expression) ast.Pattern {
	switch v := e.(type) {
	case *ast.Identifier:
		return v
	case *ast.ArrayLiteral:
		elems := make([]ast.Pattern, len(v.Elements))
		for i, el := range v.Elements {
			if el == nil {
				continue
			}
			if sp, ok := el.(*ast.SpreadElement); ok {
				elems[i] = &ast.RestElement{Base: sp.Base, Argument: exprToPattern(sp.Argument)}
				continue
			}
			elems[i] = exprToPattern(el)
		}
		return &ast.ArrayPattern{Base: v.Base, Elements: elems}
	case *ast.ObjectLiteral:
		props := make([]ast.ObjectPatternProperty, 0, len(v.Properties))
		var rest *ast.RestElement
		for _, p := range v.Properties {
			if p.Spread != nil {
				rest = &ast.RestElement{Argument: exprToPattern(p.Spread.Argument)}
				continue
			}
			props = append(props, ast.ObjectPatternProperty{Key: p.Key, Computed: p.Computed, Value: exprToPattern(p.Value)})
		}
		return &ast.ObjectPattern{Base: v.Base, Properties: props, Rest: rest}
	case *ast.AssignmentExpression:
		return &ast.AssignmentPattern{Base: v.Base, Target: exprToPattern(v.Target), Default: v.Value}
	}
	return nil
}

// getProperty reads a named property from v through the three-layer
// security gate (spec §4.3.5/§4.5), used both by member-expression
// evaluation and by object-destructuring.
func (it *Interpreter) getProperty(v runtime.Value, key string) (runtime.Value, error) {
	switch o := v.(type) {
	case *runtime.Object:
		if err := runtime.CheckPropertyAccess(key, o.Has(key)); err != nil {
			return nil, err
		}
		if val, ok := o.Get(key); ok {
			return val, nil
		}
		return runtime.UndefinedValue, nil
	case *runtime.Array:
		if key == "length" {
			return runtime.Number(o.Len()), nil
		}
		if idx, ok := arrayIndex(key); ok {
			if idx >= 0 && idx < len(o.Elements) {
				return o.Elements[idx], nil
			}
			return runtime.UndefinedValue, nil
		}
		return it.arrayMethod(o, key)
	case *runtime.String:
		return it.stringProperty(string(*o), key)
	case runtime.String:
		return it.stringProperty(string(o), key)
	case *runtime.Instance:
		return it.getInstanceProperty(o, key)
	case *runtime.ClassValue:
		if err := runtime.CheckPropertyAccess(key, true); err != nil {
			return nil, err
		}
		if sv, ok := o.Statics[key]; ok {
			return sv, nil
		}
		if desc, ok := o.StaticAccessors[key]; ok && desc.Get != nil {
			return it.callFunction(desc.Get, o, nil)
		}
		return runtime.UndefinedValue, nil
	case *runtime.HostProxy:
		return o.Get(key)
	case runtime.Undefined, runtime.Null:
		return nil, errors.New(errors.KindCallTargetNotCallable, "cannot read properties of %s (reading '%s')", v.TypeOf(), key)
	}
	return runtime.UndefinedValue, nil
}

func arrayIndex(key string) (int, bool) {
	if key == "" {
		return 0, false
	}
	n := 0
	for _, c := range key {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func (it *Interpreter) getInstanceProperty(inst *runtime.Instance, key string) (runtime.Value, error) {
	isPrivate := strings.HasPrefix(key, "#")
	if isPrivate {
		if !inst.Class.PrivateFieldNames[key] {
			if _, ok := inst.Class.PrivateMethods[key]; !ok {
				return nil, errors.New(errors.KindPrivateFieldUndefined, "private field %q is not defined", key)
			}
		}
		if v, ok := inst.GetPrivate(key); ok {
			return v, nil
		}
		if m, ok := inst.Class.PrivateMethods[key]; ok {
			return m, nil
		}
		return runtime.UndefinedValue, nil
	}

	if err := runtime.CheckPropertyAccess(key, inst.Fields.Has(key)); err != nil {
		return nil, err
	}
	if v, ok := inst.Fields.Get(key); ok {
		return v, nil
	}
	if desc, ok := inst.Class.ResolveAccessor(key); ok {
		if desc.Get != nil {
			return it.callFunction(desc.Get, inst, nil)
		}
		return runtime.UndefinedValue, nil
	}
	if m, _, ok := inst.Class.ResolveMethod(key); ok {
		return m, nil
	}
	return runtime.UndefinedValue, nil
}

func (it *Interpreter) setMember(env *runtime.Environment, me *ast.MemberExpression, v runtime.Value) error {
	if _, isSuper := me.Object.(*ast.SuperExpression); isSuper {
		return errors.New(errors.KindParseError, "cannot assign to a super property")
	}
	obj, err := it.evalExpr(env, me.Object)
	if err != nil {
		return err
	}
	key, err := it.propertyKeyString(env, me.Property, me.Computed)
	if err != nil {
		return err
	}
	return it.setProperty(obj, key, v)
}

func (it *Interpreter) setProperty(obj runtime.Value, key string, v runtime.Value) error {
	switch o := obj.(type) {
	case *runtime.Object:
		if err := runtime.CheckPropertyAccess(key, o.Has(key)); err != nil {
			return err
		}
		o.Set(key, v)
		return nil
	case *runtime.Array:
		if key == "length" {
			n := int(toNumber(v))
			if n < len(o.Elements) {
				o.Elements = o.Elements[:n]
			} else {
				for len(o.Elements) < n {
					o.Elements = append(o.Elements, runtime.UndefinedValue)
				}
			}
			return nil
		}
		if idx, ok := arrayIndex(key); ok {
			for len(o.Elements) <= idx {
				o.Elements = append(o.Elements, runtime.UndefinedValue)
			}
			o.Elements[idx] = v
			return nil
		}
		return nil
	case *runtime.Instance:
		if strings.HasPrefix(key, "#") {
			if !o.Class.PrivateFieldNames[key] {
				return errors.New(errors.KindPrivateFieldUndefined, "private field %q is not defined", key)
			}
			o.SetPrivate(key, v)
			return nil
		}
		if err := runtime.CheckPropertyAccess(key, o.Fields.Has(key)); err != nil {
			return err
		}
		if desc, ok := o.Class.ResolveAccessor(key); ok {
			if desc.Set == nil {
				return nil
			}
			_, err := it.callFunction(desc.Set, o, []runtime.Value{v})
			return err
		}
		o.Fields.Set(key, v)
		return nil
	case *runtime.ClassValue:
		if err := runtime.CheckPropertyAccess(key, true); err != nil {
			return err
		}
		if desc, ok := o.StaticAccessors[key]; ok {
			if desc.Set == nil {
				return nil
			}
			_, err := it.callFunction(desc.Set, o, []runtime.Value{v})
			return err
		}
		if o.Statics == nil {
			o.Statics = map[string]runtime.Value{}
		}
		o.Statics[key] = v
		return nil
	case *runtime.HostProxy:
		return o.Set(key, v)
	}
	return nil
}

// evalMember evaluates a.b / a[b] / a?.b, returning (value, objectForThis,
// err). For ChainExpression-driven optional chains, a nullish object or a
// failed optional call returns a *shortCircuit error the enclosing
// ChainExpression unwraps to undefined.
func (it *Interpreter) evalMember(env *runtime.Environment, me *ast.MemberExpression) (runtime.Value, runtime.Value, error) {
	if sup, isSuper := me.Object.(*ast.SuperExpression); isSuper {
		_ = sup
		return it.evalSuperMember(env, me)
	}

	obj, err := it.evalExpr(env, me.Object)
	if err != nil {
		return nil, nil, err
	}
	if me.Optional && runtime.IsNullish(obj) {
		return nil, nil, &shortCircuit{}
	}
	key, err := it.propertyKeyString(env, me.Property, me.Computed)
	if err != nil {
		return nil, nil, err
	}
	v, err := it.getProperty(obj, key)
	return v, obj, err
}

func (it *Interpreter) evalSuperMember(env *runtime.Environment, me *ast.MemberExpression) (runtime.Value, runtime.Value, error) {
	this, _ := env.This()
	inst, ok := this.(*runtime.Instance)
	if !ok {
		return nil, nil, errors.New(errors.KindThisNotInitialized, "'super' used outside of a method")
	}
	home, _ := env.HomeClass()
	if home == nil || home.Super == nil {
		return nil, nil, errors.New(errors.KindParseError, "'super' used in a class with no superclass")
	}
	key, err := it.propertyKeyString(env, me.Property, me.Computed)
	if err != nil {
		return nil, nil, err
	}
	if m, _, ok := home.Super.ResolveMethod(key); ok {
		return m, inst, nil
	}
	if desc, ok := home.Super.ResolveAccessor(key); ok && desc.Get != nil {
		v, err := it.callFunction(desc.Get, inst, nil)
		return v, inst, err
	}
	return runtime.UndefinedValue, inst, nil
}

// suggestName walks env's lexical chain collecting every visible binding
// name and returns the closest match to name by edit distance, for the
// "did you mean" hint on an undefined-variable error (spec §6.3). Returns
// "" when nothing is close enough to be worth suggesting.
func suggestName(env *runtime.Environment, name string) string {
	var candidates []string
	for e := env; e != nil; e = e.Parent() {
		for k := range e.OwnBindings() {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	best, bestDist := "", 4
	for _, c := range candidates {
		d := fuzzy.LevenshteinDistance(name, c)
		if d < bestDist || (d == bestDist && c < best) {
			best, bestDist = c, d
		}
	}
	return best
}
