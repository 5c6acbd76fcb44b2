package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromiseResolveSettlesOnceAndReportsState(t *testing.T) {
	q := NewJobQueue()
	p := NewPromise(q)

	state, _ := p.State()
	assert.Equal(t, "pending", state)

	p.Resolve(Number(42))
	state, value := p.State()
	assert.Equal(t, "fulfilled", state)
	assert.Equal(t, Number(42), value)

	// A second Resolve/Reject after settlement is a no-op.
	p.Resolve(Number(99))
	p.Reject(String("too late"))
	state, value = p.State()
	assert.Equal(t, "fulfilled", state)
	assert.Equal(t, Number(42), value)
}

func TestPromiseRejectSettlesAsRejected(t *testing.T) {
	q := NewJobQueue()
	p := NewPromise(q)
	p.Reject(String("nope"))

	state, value := p.State()
	assert.Equal(t, "rejected", state)
	assert.Equal(t, String("nope"), value)
}

func TestNewResolvedAndRejectedPromiseHelpers(t *testing.T) {
	q := NewJobQueue()

	resolved := NewResolvedPromise(q, String("ok"))
	state, value := resolved.State()
	assert.Equal(t, "fulfilled", state)
	assert.Equal(t, String("ok"), value)

	rejected := NewRejectedPromise(q, String("bad"))
	state, value = rejected.State()
	assert.Equal(t, "rejected", state)
	assert.Equal(t, String("bad"), value)
}

func TestPromiseResolveWithInnerPromiseAdoptsItsEventualState(t *testing.T) {
	q := NewJobQueue()
	outer := NewPromise(q)
	inner := NewPromise(q)

	outer.Resolve(inner)
	// Adoption is deferred until inner settles; outer stays pending.
	state, _ := outer.State()
	assert.Equal(t, "pending", state)

	inner.Resolve(Number(7))
	q.Drain()

	state, value := outer.State()
	assert.Equal(t, "fulfilled", state)
	assert.Equal(t, Number(7), value)
}

func TestJobQueueDrainRunsJobsEnqueuedDuringDrain(t *testing.T) {
	q := NewJobQueue()
	var order []int

	q.Enqueue(func() {
		order = append(order, 1)
		q.Enqueue(func() { order = append(order, 2) })
	})

	assert.Equal(t, 1, q.Len())
	n := q.Drain()
	require.Equal(t, 2, n)
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 0, q.Len())
}
