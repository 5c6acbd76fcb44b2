package runtime

import (
	"context"

	"github.com/samlaycock/nookjs/errors"
)

// Limits configures the resource-accounting gates of spec §4.7. Zero
// values mean "unbounded" for the count-based limits; MaxMemoryBytes of 0
// falls back to DefaultMaxMemoryBytes.
type Limits struct {
	MaxCallStackDepth int
	MaxLoopIterations int
	MaxMemoryBytes    int64
	// AbortPollInterval is how many AST node evaluations pass between
	// ctx.Done() polls (spec §4.7: "abort-signal polling every 256 node
	// evaluations").
	AbortPollInterval int
}

// DefaultLimits returns the documented defaults: a call-stack depth of
// 2000, 10,000,000 loop iterations, maxMemoryBytes as the memory ceiling
// (internal/runtimetune derives such a value from host RAM), and a fixed
// 256-node abort poll cadence.
func DefaultLimits(maxMemoryBytes int64) Limits {
	return Limits{
		MaxCallStackDepth: 2000,
		MaxLoopIterations: 10_000_000,
		MaxMemoryBytes:    maxMemoryBytes,
		AbortPollInterval: 256,
	}
}

// Meter tracks live resource consumption against Limits during one
// evaluation and is shared by every recursive evaluator call within that
// evaluation (spec §4.7). It is not safe for concurrent use from more than
// one goroutine at a time, matching the evaluator's single-threaded
// walking (generator coroutines hand off exclusively, never run
// concurrently with their driver).
type Meter struct {
	Limits Limits

	callDepth     int
	loopIterations int
	memoryBytes   int64
	nodeCount     int

	ctx context.Context
}

func NewMeter(limits Limits, ctx context.Context) *Meter {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Meter{Limits: limits, ctx: ctx}
}

// EnterCall increments the call-stack depth counter; callers must defer
// ExitCall. Returns MaxCallStackDepthExceeded once the configured bound is
// passed.
func (m *Meter) EnterCall() error {
	m.callDepth++
	if m.Limits.MaxCallStackDepth > 0 && m.callDepth > m.Limits.MaxCallStackDepth {
		return errors.New(errors.KindMaxCallStackDepth, "maximum call stack depth of %d exceeded", m.Limits.MaxCallStackDepth)
	}
	return nil
}

func (m *Meter) ExitCall() {
	if m.callDepth > 0 {
		m.callDepth--
	}
}

// TickLoop counts one loop-body iteration across any loop construct
// (while/do-while/for/for-of/for-in), returning MaxLoopIterationsExceeded
// once the bound is passed.
func (m *Meter) TickLoop() error {
	m.loopIterations++
	if m.Limits.MaxLoopIterations > 0 && m.loopIterations > m.Limits.MaxLoopIterations {
		return errors.New(errors.KindMaxLoopIterations, "maximum loop iteration count of %d exceeded", m.Limits.MaxLoopIterations)
	}
	return nil
}

// AddMemory charges delta bytes against the running memory estimate per
// the heuristics of spec §4.7 (2 bytes/template char, 16 bytes/array slot,
// 64+32*n bytes/object), returning MaxMemoryExceeded once the ceiling is
// passed. Negative delta is never issued: the estimate is monotonic for
// the lifetime of one evaluation and never reclaimed.
func (m *Meter) AddMemory(delta int64) error {
	m.memoryBytes += delta
	if m.Limits.MaxMemoryBytes > 0 && m.memoryBytes > m.Limits.MaxMemoryBytes {
		return errors.New(errors.KindMaxMemory, "maximum memory estimate of %d bytes exceeded", m.Limits.MaxMemoryBytes)
	}
	return nil
}

// TickNode must be called once per AST node evaluated. Every
// AbortPollInterval calls it polls ctx.Done(), returning Aborted if the
// caller's context has been canceled (spec §4.7: "abort-signal polling").
func (m *Meter) TickNode() error {
	m.nodeCount++
	interval := m.Limits.AbortPollInterval
	if interval <= 0 {
		interval = 256
	}
	if m.nodeCount%interval != 0 {
		return nil
	}
	select {
	case <-m.ctx.Done():
		return errors.New(errors.KindAborted, "evaluation aborted: %v", m.ctx.Err())
	default:
		return nil
	}
}

// MemoryBytes reports the current running estimate, surfaced through
// GetStats (spec §6.2).
func (m *Meter) MemoryBytes() int64 { return m.memoryBytes }

// CallDepth reports the current live call-stack depth.
func (m *Meter) CallDepth() int { return m.callDepth }
