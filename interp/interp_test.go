package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samlaycock/nookjs/errors"
	"github.com/samlaycock/nookjs/runtime"
)

func eval(t *testing.T, code string) runtime.Value {
	t.Helper()
	it := New(64 * 1024 * 1024)
	v, err := it.Evaluate(code, Options{})
	require.NoError(t, err, "code: %s", code)
	return v
}

func evalErr(t *testing.T, code string) *errors.EvalError {
	t.Helper()
	it := New(64 * 1024 * 1024)
	_, err := it.Evaluate(code, Options{})
	require.Error(t, err, "code: %s", code)
	evalErr, ok := err.(*errors.EvalError)
	require.True(t, ok, "expected *errors.EvalError, got %T", err)
	return evalErr
}

func TestArithmeticAndStringConcat(t *testing.T) {
	assert.Equal(t, runtime.Number(7), eval(t, `1 + 2 * 3`))
	assert.Equal(t, runtime.String("ab"), eval(t, `"a" + "b"`))
	assert.Equal(t, runtime.String("a1"), eval(t, `"a" + 1`))
}

func TestDivisionAndModuloByZero(t *testing.T) {
	assert.Equal(t, errors.KindDivisionByZero, evalErr(t, `1 / 0`).Kind)
	assert.Equal(t, errors.KindModuloByZero, evalErr(t, `1 % 0`).Kind)
}

func TestLetConstVarSemantics(t *testing.T) {
	assert.Equal(t, runtime.Number(3), eval(t, `let x = 1; x = 3; x`))
	assert.Equal(t, errors.KindAssignToConst, evalErr(t, `const x = 1; x = 2;`).Kind)
	assert.Equal(t, runtime.Number(5), eval(t, `var x = 5; var x; x`))
}

func TestUndefinedVariableSuggestsCloseName(t *testing.T) {
	e := evalErr(t, `let counter = 1; countre;`)
	assert.Equal(t, errors.KindUndefinedVariable, e.Kind)
	assert.Contains(t, e.Message, "counter")
}

func TestFunctionsClosuresAndArrows(t *testing.T) {
	assert.Equal(t, runtime.Number(9), eval(t, `
		function makeAdder(n) {
			return (x) => x + n;
		}
		const add5 = makeAdder(5);
		add5(4);
	`))
}

func TestDefaultAndRestParameters(t *testing.T) {
	assert.Equal(t, runtime.Number(10), eval(t, `
		function f(a, b = 5) { return a + b; }
		f(5);
	`))
	assert.Equal(t, runtime.Number(6), eval(t, `
		function sum(...nums) {
			let total = 0;
			for (const n of nums) total += n;
			return total;
		}
		sum(1, 2, 3);
	`))
}

func TestDestructuringAssignmentAndDeclaration(t *testing.T) {
	assert.Equal(t, runtime.Number(3), eval(t, `
		const [a, b] = [1, 2];
		a + b;
	`))
	assert.Equal(t, runtime.Number(42), eval(t, `
		const { x, y = 10 } = { x: 32 };
		x + y;
	`))
}

func TestTemplateLiteralInterpolation(t *testing.T) {
	assert.Equal(t, runtime.String("2 + 2 = 4"), eval(t, "const a = 2; `${a} + ${a} = ${a + a}`;"))
}

func TestClassInstantiationAndInheritanceWithSuper(t *testing.T) {
	v := eval(t, `
		class Animal {
			constructor(name) {
				this.name = name;
			}
			speak() {
				return this.name + " makes a sound";
			}
		}
		class Dog extends Animal {
			constructor(name) {
				super(name);
			}
			speak() {
				return super.speak() + ", woof!";
			}
		}
		new Dog("Rex").speak();
	`)
	assert.Equal(t, runtime.String("Rex makes a sound, woof!"), v)
}

func TestPrivateFieldsAreAccessibleFromOwnMethods(t *testing.T) {
	assert.Equal(t, runtime.Number(1), eval(t, `
		class Counter {
			#count = 0;
			inc() { this.#count += 1; return this.#count; }
		}
		new Counter().inc();
	`))
}

func TestSuperNotCalledInDerivedConstructorErrors(t *testing.T) {
	e := evalErr(t, `
		class A {}
		class B extends A {
			constructor() {}
		}
		new B();
	`)
	assert.Equal(t, errors.KindSuperNotCalled, e.Kind)
}

func TestSuperCalledTwiceErrors(t *testing.T) {
	e := evalErr(t, `
		class A {}
		class B extends A {
			constructor() {
				super();
				super();
			}
		}
		new B();
	`)
	assert.Equal(t, errors.KindSuperAlreadyCalled, e.Kind)
}

func TestTryCatchFinallyOrdering(t *testing.T) {
	assert.Equal(t, runtime.String("try-catch-finally"), eval(t, `
		let log = "";
		try {
			log += "try-";
			throw "boom";
		} catch (e) {
			log += "catch-";
		} finally {
			log += "finally";
		}
		log;
	`))
}

func TestFinallyOverridesReturnCompletion(t *testing.T) {
	assert.Equal(t, runtime.Number(2), eval(t, `
		function f() {
			try {
				return 1;
			} finally {
				return 2;
			}
		}
		f();
	`))
}

func TestThrownValuePreservedForCatchDestructuring(t *testing.T) {
	assert.Equal(t, runtime.Number(404), eval(t, `
		let code;
		try {
			throw { code: 404 };
		} catch (e) {
			code = e.code;
		}
		code;
	`))
}

func TestForOfOverArrayAndForInOverObject(t *testing.T) {
	assert.Equal(t, runtime.Number(6), eval(t, `
		let sum = 0;
		for (const n of [1, 2, 3]) sum += n;
		sum;
	`))
	assert.Equal(t, runtime.String("ab"), eval(t, `
		let keys = "";
		for (const k in { a: 1, b: 2 }) keys += k;
		keys;
	`))
}

func TestArrayBuiltinMethods(t *testing.T) {
	assert.Equal(t, runtime.Number(6), eval(t, `[1, 2, 3].reduce((acc, x) => acc + x, 0);`))
	assert.Equal(t, runtime.Number(2), eval(t, `[1, 2, 3].filter(x => x % 2 === 0).length;`))
	assert.Equal(t, runtime.String("2,4,6"), eval(t, `[1, 2, 3].map(x => x * 2).join(",");`))
}

func TestOptionalChainingAndNullishCoalescing(t *testing.T) {
	assert.Equal(t, runtime.UndefinedValue, eval(t, `let o = null; o?.x;`))
	assert.Equal(t, runtime.Number(5), eval(t, `let o = null; o?.x ?? 5;`))
}

func TestSwitchStatementFallthroughAndDefault(t *testing.T) {
	assert.Equal(t, runtime.String("two-or-three"), eval(t, `
		let out = "";
		switch (2) {
			case 1:
				out = "one";
				break;
			case 2:
			case 3:
				out = "two-or-three";
				break;
			default:
				out = "other";
		}
		out;
	`))
}

func TestLabeledBreakEscapesOuterLoop(t *testing.T) {
	assert.Equal(t, runtime.Number(1), eval(t, `
		let hits = 0;
		outer: for (let i = 0; i < 3; i++) {
			for (let j = 0; j < 3; j++) {
				hits++;
				break outer;
			}
		}
		hits;
	`))
}

func TestJSONStringify(t *testing.T) {
	assert.Equal(t, runtime.String(`{"a":1,"b":[1,2]}`), eval(t, `JSON.stringify({ a: 1, b: [1, 2] });`))
}

func TestMathRandomIsDisabled(t *testing.T) {
	assert.Equal(t, errors.KindHostFunctionError, evalErr(t, `Math.random();`).Kind)
}

func TestAsyncAwaitResolvesSynchronouslyViaPump(t *testing.T) {
	it := New(64 * 1024 * 1024)
	v, err := it.EvaluateAsync(`
		async function delayed(x) {
			return x * 2;
		}
		async function run() {
			const v = await delayed(21);
			return v;
		}
		run();
	`, Options{})
	require.NoError(t, err)
	prom, ok := v.(*runtime.Promise)
	require.True(t, ok)
	state, value := prom.State()
	assert.Equal(t, "fulfilled", state)
	assert.Equal(t, runtime.Number(42), value)
}

func TestAwaitOutsideAsyncFunctionErrors(t *testing.T) {
	it := New(64 * 1024 * 1024)
	_, err := it.Evaluate(`await 1;`, Options{})
	require.Error(t, err)
	ee, ok := err.(*errors.EvalError)
	require.True(t, ok)
	assert.Equal(t, errors.KindAsyncInSync, ee.Kind)
}

func TestGeneratorYieldsSequence(t *testing.T) {
	assert.Equal(t, runtime.Number(6), eval(t, `
		function* counter() {
			yield 1;
			yield 2;
			yield 3;
		}
		let sum = 0;
		for (const n of counter()) sum += n;
		sum;
	`))
}

func TestFeatureControlDeniesGatedFeature(t *testing.T) {
	it := New(64 * 1024 * 1024)
	_, err := it.EvaluateAsync(`
		async function f() { return await 1; }
		f();
	`, Options{Features: FeatureControl{Deny: map[FeatureTag]bool{FeatureAsync: true}}})
	require.Error(t, err)
}

func TestInstanceofWalksSuperclassChain(t *testing.T) {
	assert.Equal(t, runtime.Bool(true), eval(t, `
		class A {}
		class B extends A {}
		new B() instanceof A;
	`))
}

func TestTypeofUndeclaredIdentifierNeverThrows(t *testing.T) {
	assert.Equal(t, runtime.String("undefined"), eval(t, `typeof neverDeclared;`))
}

func TestGlobalsOverrideAndRestore(t *testing.T) {
	it := New(64 * 1024 * 1024)
	v, err := it.Evaluate(`hostValue;`, Options{Globals: map[string]runtime.Value{
		"hostValue": runtime.Number(99),
	}})
	require.NoError(t, err)
	assert.Equal(t, runtime.Number(99), v)

	_, err = it.Evaluate(`hostValue;`, Options{})
	assert.Error(t, err)
}

func TestMaxLoopIterationsIsEnforced(t *testing.T) {
	it := New(64 * 1024 * 1024)
	_, err := it.Evaluate(`
		let i = 0;
		while (true) { i++; }
	`, Options{MaxLoopIterations: 100})
	require.Error(t, err)
	ee, ok := err.(*errors.EvalError)
	require.True(t, ok)
	assert.Equal(t, errors.KindMaxLoopIterations, ee.Kind)
}
