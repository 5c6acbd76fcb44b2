package runtime

import "github.com/samlaycock/nookjs/errors"

// generatorState is the coroutine's lifecycle, per spec §4.6:
// suspended-start -> executing -> (suspended-yield <-> executing)* -> completed.
type generatorState int

const (
	stateSuspendedStart generatorState = iota
	stateExecuting
	stateSuspendedYield
	stateCompleted
)

// resumeSignal is what a driver goroutine (the suspended evaluator) waits
// for before continuing past a yield point.
type resumeSignal struct {
	// kind selects whether the resumer is doing next(), return(), or throw().
	kind      resumeKind
	sent      Value // value passed to next()/throw()'s payload
	returnVal Value // value passed to return()
}

type resumeKind int

const (
	resumeNext resumeKind = iota
	resumeReturn
	resumeThrow
)

// yieldResult is what the evaluator goroutine sends back to the caller
// when it hits a yield or finishes.
type yieldResult struct {
	value Value
	done  bool
	err   error
}

// GeneratorValue is a guest generator object, driven by a dedicated
// goroutine that blocks on unbuffered channels at every suspension point.
// This host-coroutine approach is necessary because `yield` can appear
// arbitrarily deep inside nested control-flow (if/for/try) that a plain
// recursive Go call stack cannot suspend in the middle of (spec §4.6).
type GeneratorValue struct {
	IsAsync bool
	state   generatorState

	resumeCh chan resumeSignal
	yieldCh  chan yieldResult

	started bool
}

func (*GeneratorValue) TypeOf() string { return "object" }

// NewGenerator constructs a generator and starts its driver goroutine. run
// is called on the goroutine with a yield callback it must invoke at every
// `yield` expression; run's own return value/error becomes the generator's
// final completion.
func NewGenerator(isAsync bool, run func(yield func(Value) (Value, error)) (Value, error)) *GeneratorValue {
	g := &GeneratorValue{
		IsAsync:  isAsync,
		resumeCh: make(chan resumeSignal),
		yieldCh:  make(chan yieldResult),
	}

	go func() {
		// Block until the first next()/return()/throw() call; a generator
		// does not run any body code until explicitly started (spec §4.6,
		// "suspended-start").
		first := <-g.resumeCh
		if first.kind == resumeReturn {
			g.yieldCh <- yieldResult{value: first.returnVal, done: true}
			return
		}
		if first.kind == resumeThrow {
			g.yieldCh <- yieldResult{err: asThrow(first.sent)}
			return
		}

		yield := func(v Value) (Value, error) {
			g.yieldCh <- yieldResult{value: v, done: false}
			signal := <-g.resumeCh
			switch signal.kind {
			case resumeReturn:
				return nil, &earlyReturn{value: signal.returnVal}
			case resumeThrow:
				return nil, asThrow(signal.sent)
			default:
				return signal.sent, nil
			}
		}

		result, err := run(yield)
		if er, ok := err.(*earlyReturn); ok {
			g.yieldCh <- yieldResult{value: er.value, done: true}
			return
		}
		if err != nil {
			g.yieldCh <- yieldResult{err: err}
			return
		}
		g.yieldCh <- yieldResult{value: result, done: true}
	}()

	return g
}

// earlyReturn unwinds a generator body when return() is called while
// suspended mid-body, analogous to a guest `return` injected at the yield
// point (spec §4.6).
type earlyReturn struct{ value Value }

func (e *earlyReturn) Error() string { return "generator early return" }

// asThrow wraps a value injected via throw() as a Go error the evaluator's
// existing guest-exception machinery already knows how to propagate as a
// try/catch-catchable throw.
func asThrow(v Value) error {
	return errors.New(errors.KindUncaughtThrow, "generator.throw()").WithThrown(v)
}

// Next implements generator.next(sent); the three driver methods share
// this request/response exchange, differing only in resumeKind.
func (g *GeneratorValue) Next(sent Value) (Value, bool, error) {
	return g.resume(resumeSignal{kind: resumeNext, sent: sent})
}

func (g *GeneratorValue) Return(v Value) (Value, bool, error) {
	if g.state == stateCompleted || !g.started {
		g.state = stateCompleted
		return v, true, nil
	}
	return g.resume(resumeSignal{kind: resumeReturn, returnVal: v})
}

func (g *GeneratorValue) Throw(v Value) (Value, bool, error) {
	if !g.started {
		g.state = stateCompleted
		return nil, true, asThrow(v)
	}
	return g.resume(resumeSignal{kind: resumeThrow, sent: v})
}

func (g *GeneratorValue) resume(sig resumeSignal) (Value, bool, error) {
	if g.state == stateCompleted {
		return UndefinedValue, true, nil
	}
	g.started = true
	g.state = stateExecuting
	g.resumeCh <- sig
	res := <-g.yieldCh
	if res.done || res.err != nil {
		g.state = stateCompleted
	} else {
		g.state = stateSuspendedYield
	}
	if res.err != nil {
		return nil, true, res.err
	}
	return res.value, res.done, nil
}
