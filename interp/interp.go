// Package interp implements the core AST evaluator: the synchronous and
// asynchronous walkers, the generator/async-generator driver integration,
// the class subsystem, the host bridge, and the public surface
// (Evaluate/EvaluateAsync/Parse/EvaluateSteps/GetScope/ClearGlobals/
// GetStats).
package interp

import (
	"context"
	"sort"
	"time"

	"github.com/maruel/natural"
	"golang.org/x/sync/semaphore"

	"github.com/samlaycock/nookjs/ast"
	"github.com/samlaycock/nookjs/errors"
	"github.com/samlaycock/nookjs/parser"
	"github.com/samlaycock/nookjs/runtime"
)

// FeatureTag names one gated language feature (spec §4.3, "FeatureControl").
type FeatureTag string

const (
	FeatureBigInt          FeatureTag = "bigint-literal"
	FeatureAsync           FeatureTag = "async-await"
	FeatureGenerator       FeatureTag = "generator"
	FeatureAsyncGenerator  FeatureTag = "async-generator"
	FeatureOptionalChain   FeatureTag = "optional-chaining"
	FeatureNullishCoalesce FeatureTag = "nullish-coalescing"
	FeaturePrivateFields   FeatureTag = "private-fields"
	FeatureStaticBlocks    FeatureTag = "static-blocks"
	FeatureClassFields     FeatureTag = "class-fields"
)

// FeatureControl gates language features by tag, per spec §4.3. A nil
// Allow map with a nil Deny map allows everything (the default); a
// non-nil Allow acts as a whitelist, otherwise Deny acts as a blacklist.
type FeatureControl struct {
	Allow map[FeatureTag]bool
	Deny  map[FeatureTag]bool
}

func (fc FeatureControl) enabled(tag FeatureTag) bool {
	if fc.Allow != nil {
		return fc.Allow[tag]
	}
	if fc.Deny != nil {
		return !fc.Deny[tag]
	}
	return true
}

// Options configures one Evaluate/EvaluateAsync call (spec §6.2).
type Options struct {
	// Globals are installed for the duration of this call and removed (or
	// restored to their prior value) on return.
	Globals map[string]runtime.Value
	// Validator, if set, receives the parsed AST and must return true for
	// evaluation to proceed.
	Validator func(*ast.Program) bool
	Features  FeatureControl
	// Signal cancels an in-flight EvaluateAsync call; checked per spec
	// §4.7's abort-polling cadence. Ignored by the synchronous Evaluate.
	Signal context.Context

	MaxCallStackDepth int
	MaxLoopIterations int
	MaxMemory         int64
}

// Stats is the result of GetStats (spec §6.2).
type Stats struct {
	NodeCount       int
	FunctionCalls   int
	LoopIterations  int
	ExecutionTimeMS float64
}

// Interpreter is one evaluator instance: one environment chain, one call
// stack, one resource meter, one job queue (spec §5, "shared resources").
// Not safe for concurrent use across logical evaluations.
type Interpreter struct {
	global *runtime.Environment
	queue  *runtime.JobQueue

	meter *runtime.Meter

	stats      Stats
	callStack  errors.StackTrace
	startedAt  time.Time

	features FeatureControl

	// isAsync marks the currently running walker flavour so await/yield and
	// host-async calls can be validated (spec §5).
	isAsync bool

	security errors.SecurityOptions

	defaultMaxMemory int64

	// currentEnv is the innermost active Environment, updated as statements
	// execute; GetScope walks outward from here so it reflects whatever
	// scope was live the moment it is called (spec §6.2).
	currentEnv *runtime.Environment

	// hostAsyncSem bounds how many HostFunctionValue.Async calls run
	// concurrently, so a host callable that fans out onto goroutines can't
	// starve the process the evaluator shares (spec §4.5, "host bridge").
	hostAsyncSem *semaphore.Weighted
}

// maxConcurrentHostAsyncCalls caps in-flight async host calls per
// Interpreter; it is small because most embeddings run one evaluator per
// request and the ceiling exists to bound fan-out, not to parallelize it.
const maxConcurrentHostAsyncCalls = 8

// New constructs an Interpreter with built-in globals installed and a
// resource meter derived from defaultMaxMemoryBytes (wired from
// pbnjay/memory at the call site in internal/runtimetune).
func New(defaultMaxMemoryBytes int64) *Interpreter {
	it := &Interpreter{
		global:           runtime.NewGlobalEnvironment(),
		queue:            runtime.NewJobQueue(),
		security:         errors.DefaultSecurityOptions(),
		defaultMaxMemory: defaultMaxMemoryBytes,
		hostAsyncSem:     semaphore.NewWeighted(maxConcurrentHostAsyncCalls),
	}
	installBuiltins(it.global)
	runtime.ReactionRunner = it.runPromiseReaction
	return it
}

// Parse implements the `parse(code) → AST` surface of spec §6.2.
func Parse(code string) (*ast.Program, error) {
	return parser.Parse(code)
}

// Evaluate implements spec §6.2's synchronous entry point.
func (it *Interpreter) Evaluate(code string, opts Options) (runtime.Value, error) {
	return it.run(code, opts, false)
}

// EvaluateAsync implements spec §6.2's asynchronous entry point.
func (it *Interpreter) EvaluateAsync(code string, opts Options) (runtime.Value, error) {
	return it.run(code, opts, true)
}

func (it *Interpreter) run(code string, opts Options, async bool) (runtime.Value, error) {
	it.startedAt = time.Now()
	prog, err := parser.Parse(code)
	if err != nil {
		return nil, err
	}
	if opts.Validator != nil && !opts.Validator(prog) {
		return nil, errors.New(errors.KindParseError, "program rejected by validator")
	}

	restore := it.installCallGlobals(opts.Globals)
	defer restore()

	it.features = opts.Features
	it.isAsync = async

	maxMem := opts.MaxMemory
	if maxMem == 0 {
		maxMem = it.defaultMaxMemory
	}
	ctx := opts.Signal
	if ctx == nil || !async {
		ctx = context.Background()
	}
	it.meter = runtime.NewMeter(runtime.Limits{
		MaxCallStackDepth: opts.MaxCallStackDepth,
		MaxLoopIterations: opts.MaxLoopIterations,
		MaxMemoryBytes:    maxMem,
		AbortPollInterval: 256,
	}, ctx)

	var result runtime.Value
	var evalErr error
	last := runtime.Value(runtime.UndefinedValue)
	for _, stmt := range prog.Statements {
		v, comp, err := it.execStatement(it.global, stmt)
		if err != nil {
			evalErr = it.enrich(err)
			break
		}
		if comp.Kind == runtime.CompletionReturn {
			last = comp.Value
			break
		}
		if v != nil {
			last = v
		}
	}
	result = last
	it.queue.Drain()
	it.stats.ExecutionTimeMS = float64(time.Since(it.startedAt).Microseconds()) / 1000.0
	if evalErr != nil {
		return nil, evalErr
	}
	return result, nil
}

// EvaluateSteps implements spec §6.2's debugger iteration surface: it
// parses code once and returns a slice of per-node-kind step records in
// visitation order, each tagged with the node's source line and whether it
// was the program's final step. Because Go has no cheap general
// coroutine-from-a-plain-function primitive outside this package's own
// goroutine-based generator driver, steps are collected eagerly rather
// than streamed; callers that need true lazy stepping can range over the
// returned slice.
type Step struct {
	NodeKind string
	Line     int
	Done     bool
	Result   runtime.Value
}

func (it *Interpreter) EvaluateSteps(code string) ([]Step, error) {
	prog, err := parser.Parse(code)
	if err != nil {
		return nil, err
	}
	var steps []Step
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		if n == nil {
			return
		}
		steps = append(steps, Step{NodeKind: n.String(), Line: n.Pos().Line})
		walkChildren(n, walk)
	}
	for _, s := range prog.Statements {
		walk(s)
	}
	if len(steps) > 0 {
		steps[len(steps)-1].Done = true
	}
	return steps, nil
}

// GetScope implements spec §6.2: every currently-visible binding, latest
// (innermost) shadowing wins.
func (it *Interpreter) GetScope() map[string]runtime.Value {
	out := make(map[string]runtime.Value)
	env := it.currentEnv
	if env == nil {
		env = it.global
	}
	// Walk outward; only set a name the first time it's seen so the
	// innermost (already-processed) binding wins over an outer one.
	for e := env; e != nil; e = e.Parent() {
		for k, v := range e.OwnBindings() {
			if _, seen := out[k]; !seen {
				out[k] = v
			}
		}
	}
	return out
}

// GetScopeNames returns the keys of scope (for example a GetScope result)
// sorted in natural order, so that var2 comes before var10.
func (it *Interpreter) GetScopeNames(scope map[string]runtime.Value) []string {
	names := make([]string, 0, len(scope))
	for k := range scope {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool { return natural.Less(names[i], names[j]) })
	return names
}

// ClearGlobals implements spec §6.2: resets the environment back to
// built-ins plus constructor globals. Calling it twice is indistinguishable
// from calling it once (spec §8, round-trip property).
func (it *Interpreter) ClearGlobals() {
	it.global = runtime.NewGlobalEnvironment()
	installBuiltins(it.global)
}

// GetStats implements spec §6.2.
func (it *Interpreter) GetStats() Stats {
	return it.stats
}

// FormatValue renders a guest value the way template interpolation would,
// for host tooling (a REPL, the CLI) that needs to print an Evaluate result
// without invoking guest toString (spec §4.3.2).
func FormatValue(v runtime.Value) string {
	return toDisplayString(v)
}

// installCallGlobals installs per-call globals (spec §6.2, "override-and-
// restore semantics") and returns a closure that undoes the installation,
// satisfying spec §8's invariant 5.
func (it *Interpreter) installCallGlobals(globals map[string]runtime.Value) func() {
	if len(globals) == 0 {
		return func() {}
	}
	type saved struct {
		had   bool
		value runtime.Value
	}
	prior := make(map[string]saved, len(globals))
	for name, v := range globals {
		old, had := it.global.Lookup(name)
		prior[name] = saved{had: had, value: old}
		if had {
			_ = it.global.Set(name, v)
		} else {
			_ = it.global.Declare(name, v, false)
		}
	}
	return func() {
		for name, s := range prior {
			if s.had {
				_ = it.global.Set(name, s.value)
			} else {
				it.global.Delete(name)
			}
		}
	}
}

// enrich attaches call-stack/source context to an error leaving the
// evaluator exactly once (spec §7, "Errors that leave the evaluator are
// enriched once").
func (it *Interpreter) enrich(err error) error {
	if ee, ok := err.(*errors.EvalError); ok {
		return ee.WithCallStack(it.callStack)
	}
	return err
}

func (it *Interpreter) checkFeature(tag FeatureTag) error {
	if !it.features.enabled(tag) {
		return errors.New(errors.KindFeatureNotEnabled, "feature %q is not enabled", tag)
	}
	return nil
}

func walkChildren(n ast.Node, visit func(ast.Node)) {
	switch v := n.(type) {
	case *ast.ExpressionStatement:
		visit(v.Expression)
	case *ast.BlockStatement:
		for _, s := range v.Body {
			visit(s)
		}
	case *ast.IfStatement:
		visit(v.Test)
		visit(v.Consequent)
		if v.Alternate != nil {
			visit(v.Alternate)
		}
	case *ast.WhileStatement:
		visit(v.Test)
		visit(v.Body)
	case *ast.BinaryExpression:
		visit(v.Left)
		visit(v.Right)
	case *ast.CallExpression:
		visit(v.Callee)
		for _, a := range v.Arguments {
			visit(a)
		}
	}
}
