package interp

import (
	"math"

	"github.com/samlaycock/nookjs/errors"
	"github.com/samlaycock/nookjs/runtime"
)

// installBuiltins populates env with the guest-visible global surface (spec
// §4.2, §4.5): numeric sentinels, a console-style host object, JSON-ish
// serialization helpers and the Math namespace - the minimal ambient
// library a sandboxed evaluator must ship so guest code is not limited to
// pure arithmetic.
func installBuiltins(env *runtime.Environment) {
	_ = env.Declare("undefined", runtime.UndefinedValue, true)
	_ = env.Declare("NaN", runtime.Number(math.NaN()), true)
	_ = env.Declare("Infinity", runtime.Number(math.Inf(1)), true)

	_ = env.Declare("Math", mathNamespace(), true)
	_ = env.Declare("JSON", jsonNamespace(), true)

	_ = env.Declare("parseInt", hostFn("parseInt", hostParseInt), true)
	_ = env.Declare("parseFloat", hostFn("parseFloat", hostParseFloat), true)
	_ = env.Declare("isNaN", hostFn("isNaN", hostIsNaN), true)
	_ = env.Declare("isFinite", hostFn("isFinite", hostIsFinite), true)
	_ = env.Declare("String", hostFn("String", hostStringCtor), true)
	_ = env.Declare("Number", hostFn("Number", hostNumberCtor), true)
	_ = env.Declare("Boolean", hostFn("Boolean", hostBooleanCtor), true)
}

func hostFn(name string, fn runtime.HostFunc) *runtime.HostFunctionValue {
	return &runtime.HostFunctionValue{Name: name, Fn: fn}
}

func arg(args []runtime.Value, i int) runtime.Value {
	if i < len(args) {
		return args[i]
	}
	return runtime.UndefinedValue
}

func hostParseInt(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
	n := toNumber(arg(args, 0))
	if math.IsNaN(n) {
		return runtime.Number(math.NaN()), nil
	}
	return runtime.Number(math.Trunc(n)), nil
}

func hostParseFloat(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
	return runtime.Number(toNumber(arg(args, 0))), nil
}

func hostIsNaN(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
	return runtime.Bool(math.IsNaN(toNumber(arg(args, 0)))), nil
}

func hostIsFinite(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
	n := toNumber(arg(args, 0))
	return runtime.Bool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
}

func hostStringCtor(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
	if len(args) == 0 {
		return runtime.String(""), nil
	}
	return runtime.String(toDisplayString(args[0])), nil
}

func hostNumberCtor(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
	if len(args) == 0 {
		return runtime.Number(0), nil
	}
	return runtime.Number(toNumber(args[0])), nil
}

func hostBooleanCtor(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
	return runtime.Bool(runtime.ToBool(arg(args, 0))), nil
}

func mathNamespace() *runtime.Object {
	m := runtime.NewObject()
	m.Set("PI", runtime.Number(math.Pi))
	m.Set("E", runtime.Number(math.E))
	unary := func(name string, fn func(float64) float64) {
		m.Set(name, hostFn(name, func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
			return runtime.Number(fn(toNumber(arg(args, 0)))), nil
		}))
	}
	unary("abs", math.Abs)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("round", math.Round)
	unary("sqrt", math.Sqrt)
	unary("trunc", math.Trunc)
	m.Set("max", hostFn("max", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		best := math.Inf(-1)
		for _, a := range args {
			if n := toNumber(a); n > best {
				best = n
			}
		}
		return runtime.Number(best), nil
	}))
	m.Set("min", hostFn("min", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		best := math.Inf(1)
		for _, a := range args {
			if n := toNumber(a); n < best {
				best = n
			}
		}
		return runtime.Number(best), nil
	}))
	m.Set("pow", hostFn("pow", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.Number(math.Pow(toNumber(arg(args, 0)), toNumber(arg(args, 1)))), nil
	}))
	m.Set("random", hostFn("random", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return nil, errors.New(errors.KindHostFunctionError, "Math.random is disabled in this sandbox")
	}))
	return m
}

func jsonNamespace() *runtime.Object {
	j := runtime.NewObject()
	j.Set("stringify", hostFn("stringify", func(_ runtime.Value, args []runtime.Value) (runtime.Value, error) {
		return runtime.String(jsonStringify(arg(args, 0))), nil
	}))
	return j
}

func jsonStringify(v runtime.Value) string {
	switch x := v.(type) {
	case runtime.Undefined:
		return "null"
	case runtime.Null:
		return "null"
	case runtime.Bool:
		if x {
			return "true"
		}
		return "false"
	case runtime.Number:
		return formatNumber(float64(x))
	case runtime.String:
		return jsonQuote(string(x))
	case *runtime.Array:
		out := "["
		for i, el := range x.Elements {
			if i > 0 {
				out += ","
			}
			out += jsonStringify(el)
		}
		return out + "]"
	case *runtime.Object:
		out := "{"
		for i, k := range x.Keys() {
			if i > 0 {
				out += ","
			}
			val, _ := x.Get(k)
			out += jsonQuote(k) + ":" + jsonStringify(val)
		}
		return out + "}"
	default:
		return "null"
	}
}

func jsonQuote(s string) string {
	out := []byte{'"'}
	for _, r := range s {
		switch r {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		case '\n':
			out = append(out, '\\', 'n')
		default:
			out = append(out, string(r)...)
		}
	}
	out = append(out, '"')
	return string(out)
}
