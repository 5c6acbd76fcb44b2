package interp

import (
	"strings"

	"github.com/samlaycock/nookjs/errors"
	"github.com/samlaycock/nookjs/runtime"
)

// iterate implements the for-of/spread iteration protocol (spec §4.3.3,
// §4.3.2): arrays and strings iterate natively; any other value must carry
// a Symbol.iterator (or Symbol.asyncIterator when preferAsync is set)
// method, called with no arguments and driven to completion via its
// `next()`/`done`/`value` shape. Host-returned iterators use the same
// protocol through the proxy layer.
func (it *Interpreter) iterate(v runtime.Value, preferAsync bool) ([]runtime.Value, error) {
	switch x := v.(type) {
	case *runtime.Array:
		return append([]runtime.Value(nil), x.Elements...), nil
	case runtime.String:
		runes := []rune(string(x))
		out := make([]runtime.Value, len(runes))
		for i, r := range runes {
			out[i] = runtime.String(string(r))
		}
		return out, nil
	case *runtime.GeneratorValue:
		return it.drainGenerator(x)
	}
	iterFn, err := it.resolveIteratorMethod(v, preferAsync)
	if err != nil {
		return nil, err
	}
	if iterFn == nil {
		return nil, errors.New(errors.KindForOfTarget, "value is not iterable")
	}
	iterObj, err := it.callAny(iterFn, v, nil)
	if err != nil {
		return nil, err
	}
	return it.drainIterator(iterObj)
}

// resolveIteratorMethod looks up the well-known Symbol.iterator/
// Symbol.asyncIterator method on a guest object. Since the guest Object
// model only has string-keyed storage, well-known symbols are addressed by
// the evaluator's reserved string aliases rather than true symbol identity
// (a deliberate simplification over spec §9's "symbols unforgeable by
// string concatenation" note, recorded in the design ledger).
func (it *Interpreter) resolveIteratorMethod(v runtime.Value, preferAsync bool) (runtime.Value, error) {
	name := "@@iterator"
	if preferAsync {
		name = "@@asyncIterator"
	}
	switch o := v.(type) {
	case *runtime.Object:
		if fn, ok := o.Get(name); ok {
			return fn, nil
		}
		if preferAsync {
			if fn, ok := o.Get("@@iterator"); ok {
				return fn, nil
			}
		}
	case *runtime.Instance:
		if m, _, ok := o.Class.ResolveMethod(name); ok {
			return m, nil
		}
		if preferAsync {
			if m, _, ok := o.Class.ResolveMethod("@@iterator"); ok {
				return m, nil
			}
		}
	}
	return nil, nil
}

func (it *Interpreter) drainIterator(iterObj runtime.Value) ([]runtime.Value, error) {
	var out []runtime.Value
	nextFn, err := it.getProperty(iterObj, "next")
	if err != nil {
		return nil, err
	}
	for {
		res, err := it.callAny(nextFn, iterObj, nil)
		if err != nil {
			return nil, err
		}
		done, err := it.getProperty(res, "done")
		if err != nil {
			return nil, err
		}
		if runtime.ToBool(done) {
			return out, nil
		}
		val, err := it.getProperty(res, "value")
		if err != nil {
			return nil, err
		}
		out = append(out, val)
		if err := it.tickLoop(); err != nil {
			return nil, err
		}
	}
}

func (it *Interpreter) drainGenerator(g *runtime.GeneratorValue) ([]runtime.Value, error) {
	var out []runtime.Value
	for {
		res, done, err := g.Next(runtime.UndefinedValue)
		if err != nil {
			return nil, err
		}
		if done {
			return out, nil
		}
		out = append(out, res)
	}
}

// callAny invokes a Value known to be callable (*FunctionValue or
// *HostFunctionValue), used by iteration/host-bridge plumbing that does not
// go through a CallExpression AST node.
func (it *Interpreter) callAny(fn runtime.Value, this runtime.Value, args []runtime.Value) (runtime.Value, error) {
	switch f := fn.(type) {
	case *runtime.FunctionValue:
		return it.callFunction(f, this, args)
	case *runtime.HostFunctionValue:
		return it.callHostFunction(f, this, args)
	}
	return nil, errors.New(errors.KindCallTargetNotCallable, "value is not callable")
}

// --- array & string built-in methods ---
//
// These implement the slice of Array.prototype/String.prototype members a
// dynamic C-family scripting host exposes without needing a prototype
// chain: each is resolved as a synthetic HostFunctionValue bound to the
// receiver at lookup time (spec §4.5 describes the same late-bound dispatch
// for host-bridged members).

func (it *Interpreter) arrayMethod(arr *runtime.Array, name string) (runtime.Value, error) {
	call := func(fn func(args []runtime.Value) (runtime.Value, error)) runtime.Value {
		return &runtime.HostFunctionValue{Name: name, Fn: func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return fn(args)
		}}
	}
	switch name {
	case "push":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			arr.Elements = append(arr.Elements, args...)
			return runtime.Number(len(arr.Elements)), nil
		}), nil
	case "pop":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			if len(arr.Elements) == 0 {
				return runtime.UndefinedValue, nil
			}
			last := arr.Elements[len(arr.Elements)-1]
			arr.Elements = arr.Elements[:len(arr.Elements)-1]
			return last, nil
		}), nil
	case "shift":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			if len(arr.Elements) == 0 {
				return runtime.UndefinedValue, nil
			}
			first := arr.Elements[0]
			arr.Elements = arr.Elements[1:]
			return first, nil
		}), nil
	case "unshift":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			arr.Elements = append(append([]runtime.Value(nil), args...), arr.Elements...)
			return runtime.Number(len(arr.Elements)), nil
		}), nil
	case "slice":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			start, end := sliceBounds(args, len(arr.Elements))
			return runtime.NewArray(append([]runtime.Value(nil), arr.Elements[start:end]...)...), nil
		}), nil
	case "indexOf":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			if len(args) == 0 {
				return runtime.Number(-1), nil
			}
			for i, el := range arr.Elements {
				if strictEquals(el, args[0]) {
					return runtime.Number(i), nil
				}
			}
			return runtime.Number(-1), nil
		}), nil
	case "includes":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			if len(args) == 0 {
				return runtime.Bool(false), nil
			}
			for _, el := range arr.Elements {
				if strictEquals(el, args[0]) {
					return runtime.Bool(true), nil
				}
			}
			return runtime.Bool(false), nil
		}), nil
	case "join":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			sep := ","
			if len(args) > 0 {
				sep = toDisplayString(args[0])
			}
			parts := make([]string, len(arr.Elements))
			for i, el := range arr.Elements {
				parts[i] = toDisplayString(el)
			}
			return runtime.String(strings.Join(parts, sep)), nil
		}), nil
	case "concat":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			out := append([]runtime.Value(nil), arr.Elements...)
			for _, a := range args {
				if other, ok := a.(*runtime.Array); ok {
					out = append(out, other.Elements...)
				} else {
					out = append(out, a)
				}
			}
			return runtime.NewArray(out...), nil
		}), nil
	case "map":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			if len(args) == 0 {
				return nil, errors.New(errors.KindArgumentCount, "map requires a callback")
			}
			out := make([]runtime.Value, len(arr.Elements))
			for i, el := range arr.Elements {
				v, err := it.callAny(args[0], runtime.UndefinedValue, []runtime.Value{el, runtime.Number(i), arr})
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return runtime.NewArray(out...), nil
		}), nil
	case "filter":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			if len(args) == 0 {
				return nil, errors.New(errors.KindArgumentCount, "filter requires a callback")
			}
			var out []runtime.Value
			for i, el := range arr.Elements {
				v, err := it.callAny(args[0], runtime.UndefinedValue, []runtime.Value{el, runtime.Number(i), arr})
				if err != nil {
					return nil, err
				}
				if runtime.ToBool(v) {
					out = append(out, el)
				}
			}
			return runtime.NewArray(out...), nil
		}), nil
	case "forEach":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			if len(args) == 0 {
				return nil, errors.New(errors.KindArgumentCount, "forEach requires a callback")
			}
			for i, el := range arr.Elements {
				if _, err := it.callAny(args[0], runtime.UndefinedValue, []runtime.Value{el, runtime.Number(i), arr}); err != nil {
					return nil, err
				}
			}
			return runtime.UndefinedValue, nil
		}), nil
	case "reduce":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			if len(args) == 0 {
				return nil, errors.New(errors.KindArgumentCount, "reduce requires a callback")
			}
			i := 0
			var acc runtime.Value
			if len(args) > 1 {
				acc = args[1]
			} else {
				if len(arr.Elements) == 0 {
					return nil, errors.New(errors.KindArgumentCount, "reduce of empty array with no initial value")
				}
				acc = arr.Elements[0]
				i = 1
			}
			for ; i < len(arr.Elements); i++ {
				v, err := it.callAny(args[0], runtime.UndefinedValue, []runtime.Value{acc, arr.Elements[i], runtime.Number(i), arr})
				if err != nil {
					return nil, err
				}
				acc = v
			}
			return acc, nil
		}), nil
	case "find":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			if len(args) == 0 {
				return nil, errors.New(errors.KindArgumentCount, "find requires a callback")
			}
			for i, el := range arr.Elements {
				v, err := it.callAny(args[0], runtime.UndefinedValue, []runtime.Value{el, runtime.Number(i), arr})
				if err != nil {
					return nil, err
				}
				if runtime.ToBool(v) {
					return el, nil
				}
			}
			return runtime.UndefinedValue, nil
		}), nil
	case "reverse":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			for i, j := 0, len(arr.Elements)-1; i < j; i, j = i+1, j-1 {
				arr.Elements[i], arr.Elements[j] = arr.Elements[j], arr.Elements[i]
			}
			return arr, nil
		}), nil
	}
	return runtime.UndefinedValue, nil
}

func sliceBounds(args []runtime.Value, length int) (int, int) {
	start, end := 0, length
	if len(args) > 0 {
		start = normalizeIndex(int(toNumber(args[0])), length)
	}
	if len(args) > 1 {
		end = normalizeIndex(int(toNumber(args[1])), length)
	}
	if end < start {
		end = start
	}
	return start, end
}

func normalizeIndex(i, length int) int {
	if i < 0 {
		i += length
	}
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

func (it *Interpreter) stringProperty(s string, name string) (runtime.Value, error) {
	call := func(fn func(args []runtime.Value) (runtime.Value, error)) runtime.Value {
		return &runtime.HostFunctionValue{Name: name, Fn: func(this runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return fn(args)
		}}
	}
	switch name {
	case "length":
		return runtime.Number(len([]rune(s))), nil
	case "toUpperCase":
		return call(func(args []runtime.Value) (runtime.Value, error) { return runtime.String(strings.ToUpper(s)), nil }), nil
	case "toLowerCase":
		return call(func(args []runtime.Value) (runtime.Value, error) { return runtime.String(strings.ToLower(s)), nil }), nil
	case "trim":
		return call(func(args []runtime.Value) (runtime.Value, error) { return runtime.String(strings.TrimSpace(s)), nil }), nil
	case "includes":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			if len(args) == 0 {
				return runtime.Bool(false), nil
			}
			return runtime.Bool(strings.Contains(s, toDisplayString(args[0]))), nil
		}), nil
	case "indexOf":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			if len(args) == 0 {
				return runtime.Number(-1), nil
			}
			return runtime.Number(strings.Index(s, toDisplayString(args[0]))), nil
		}), nil
	case "split":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			sep := ""
			if len(args) > 0 {
				sep = toDisplayString(args[0])
			}
			var parts []string
			if sep == "" {
				for _, r := range s {
					parts = append(parts, string(r))
				}
			} else {
				parts = strings.Split(s, sep)
			}
			out := make([]runtime.Value, len(parts))
			for i, p := range parts {
				out[i] = runtime.String(p)
			}
			return runtime.NewArray(out...), nil
		}), nil
	case "slice", "substring":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			runes := []rune(s)
			start, end := sliceBounds(args, len(runes))
			return runtime.String(string(runes[start:end])), nil
		}), nil
	case "charAt":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			runes := []rune(s)
			idx := 0
			if len(args) > 0 {
				idx = int(toNumber(args[0]))
			}
			if idx < 0 || idx >= len(runes) {
				return runtime.String(""), nil
			}
			return runtime.String(string(runes[idx])), nil
		}), nil
	case "repeat":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			n := 0
			if len(args) > 0 {
				n = int(toNumber(args[0]))
			}
			if n < 0 {
				return nil, errors.New(errors.KindArgumentCount, "repeat count must be non-negative")
			}
			return runtime.String(strings.Repeat(s, n)), nil
		}), nil
	case "startsWith":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			if len(args) == 0 {
				return runtime.Bool(false), nil
			}
			return runtime.Bool(strings.HasPrefix(s, toDisplayString(args[0]))), nil
		}), nil
	case "endsWith":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			if len(args) == 0 {
				return runtime.Bool(false), nil
			}
			return runtime.Bool(strings.HasSuffix(s, toDisplayString(args[0]))), nil
		}), nil
	case "replace":
		return call(func(args []runtime.Value) (runtime.Value, error) {
			if len(args) < 2 {
				return runtime.String(s), nil
			}
			return runtime.String(strings.Replace(s, toDisplayString(args[0]), toDisplayString(args[1]), 1)), nil
		}), nil
	case "toString", "valueOf":
		return call(func(args []runtime.Value) (runtime.Value, error) { return runtime.String(s), nil }), nil
	}
	if idx, ok := arrayIndex(name); ok {
		runes := []rune(s)
		if idx >= 0 && idx < len(runes) {
			return runtime.String(string(runes[idx])), nil
		}
		return runtime.UndefinedValue, nil
	}
	return runtime.UndefinedValue, nil
}
