package runtime

// promiseState is the standard three-state promise lifecycle (spec §4.3,
// "promises").
type promiseState int

const (
	promisePending promiseState = iota
	promiseFulfilled
	promiseRejected
)

// reaction is a registered then()/catch() callback pair awaiting
// settlement, queued onto the Microtasks job queue once the owning
// promise settles. Exactly one of the guest/host pairs is populated: guest
// reactions come from Then() and are run via ReactionRunner; host
// reactions come from onSettle's internal promise-adoption bookkeeping and
// run directly.
type reaction struct {
	onFulfilled *FunctionValue
	onRejected  *FunctionValue
	resultProm  *Promise

	hostFulfilled func(Value)
	hostRejected  func(Value)
}

// Promise is a guest promise. Settlement is synchronous state (Go code
// holding the evaluator's single goroutine never races on it), but
// reaction callbacks are always deferred onto the microtask queue so that
// `.then()` handlers never run synchronously within the call that
// triggered settlement, matching guest-observable ordering (spec §4.3).
type Promise struct {
	state     promiseState
	value     Value
	reactions []reaction

	// Queue is the job queue this promise schedules reactions onto. It is
	// set at construction time from the interpreter's single shared queue.
	Queue *JobQueue
}

func (*Promise) TypeOf() string { return "object" }

// NewPromise creates a pending promise bound to queue.
func NewPromise(queue *JobQueue) *Promise {
	return &Promise{state: promisePending, Queue: queue}
}

// NewResolvedPromise creates an already-fulfilled promise, used when guest
// code awaits a non-promise value (spec §4.3, "await wraps plain values").
func NewResolvedPromise(queue *JobQueue, v Value) *Promise {
	return &Promise{state: promiseFulfilled, value: v, Queue: queue}
}

func NewRejectedPromise(queue *JobQueue, v Value) *Promise {
	return &Promise{state: promiseRejected, value: v, Queue: queue}
}

// Resolve settles p as fulfilled with v, unless p is already settled (a
// promise settles exactly once). If v is itself a *Promise, p adopts its
// eventual state instead (promise chaining/flattening).
func (p *Promise) Resolve(v Value) {
	if p.state != promisePending {
		return
	}
	if inner, ok := v.(*Promise); ok {
		inner.onSettle(p.Resolve, p.Reject)
		return
	}
	p.state = promiseFulfilled
	p.value = v
	p.flush()
}

// Reject settles p as rejected with reason.
func (p *Promise) Reject(reason Value) {
	if p.state != promisePending {
		return
	}
	p.state = promiseRejected
	p.value = reason
	p.flush()
}

// onSettle registers raw fulfil/reject callbacks invoked (via the queue)
// once p settles; used internally for promise adoption.
func (p *Promise) onSettle(onFulfilled, onRejected func(Value)) {
	switch p.state {
	case promiseFulfilled:
		p.Queue.Enqueue(func() { onFulfilled(p.value) })
	case promiseRejected:
		p.Queue.Enqueue(func() { onRejected(p.value) })
	default:
		p.reactions = append(p.reactions, reaction{hostFulfilled: onFulfilled, hostRejected: onRejected})
	}
}

func (p *Promise) flush() {
	pending := p.reactions
	p.reactions = nil
	for _, r := range pending {
		r := r
		p.Queue.Enqueue(func() { runReaction(p, r) })
	}
}

func runReaction(p *Promise, r reaction) {
	if r.hostFulfilled != nil || r.hostRejected != nil {
		if p.state == promiseFulfilled && r.hostFulfilled != nil {
			r.hostFulfilled(p.value)
		} else if p.state == promiseRejected && r.hostRejected != nil {
			r.hostRejected(p.value)
		}
		return
	}
	// Guest reactions are populated by the interp package, which has
	// access to the call machinery needed to invoke a FunctionValue.
	if ReactionRunner != nil {
		ReactionRunner(p, r.onFulfilled, r.onRejected, r.resultProm)
	}
}

// ReactionRunner is set once by the interp package at startup (avoiding an
// import cycle between runtime and interp) to actually invoke a reaction's
// guest callback and settle its result promise.
var ReactionRunner func(src *Promise, onFulfilled, onRejected *FunctionValue, result *Promise)

// Then registers guest-level then/catch handlers and returns the chained
// promise, per spec §4.3's Promise surface.
func (p *Promise) Then(onFulfilled, onRejected *FunctionValue) *Promise {
	result := NewPromise(p.Queue)
	r := reaction{onFulfilled: onFulfilled, onRejected: onRejected, resultProm: result}
	switch p.state {
	case promisePending:
		p.reactions = append(p.reactions, r)
	default:
		p.Queue.Enqueue(func() { runReaction(p, r) })
	}
	return result
}

// State exposes the settlement state for host introspection / debugging
// surfaces; guest code cannot observe it directly except through then().
func (p *Promise) State() (state string, value Value) {
	switch p.state {
	case promiseFulfilled:
		return "fulfilled", p.value
	case promiseRejected:
		return "rejected", p.value
	default:
		return "pending", UndefinedValue
	}
}

// JobQueue is the microtask queue driving promise reaction callbacks and
// async-function resumption, drained between synchronous evaluation steps
// (spec §4.3, "Microtask ordering" and §6.2 EvaluateSteps).
type JobQueue struct {
	jobs []func()
}

func NewJobQueue() *JobQueue { return &JobQueue{} }

func (q *JobQueue) Enqueue(job func()) {
	q.jobs = append(q.jobs, job)
}

// Drain runs every currently-queued job, including ones newly enqueued by
// jobs that ran during this call (FIFO to exhaustion), returning the
// number of jobs executed.
func (q *JobQueue) Drain() int {
	n := 0
	for len(q.jobs) > 0 {
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		job()
		n++
	}
	return n
}

// Len reports the number of jobs currently queued, used by EvaluateSteps
// to report whether more microtask work remains (spec §6.2).
func (q *JobQueue) Len() int { return len(q.jobs) }
