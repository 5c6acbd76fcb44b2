// Package runtimetune derives the evaluator's default resource ceiling from
// the host machine rather than a hardcoded constant, and aligns the Go
// runtime's own GOMAXPROCS/soft memory limit to the container it is running
// in before any guest code is evaluated (spec §4.7, "memory ceiling
// defaults to a fraction of host RAM when the caller does not specify
// one").
package runtimetune

import (
	"github.com/pbnjay/memory"
	"go.uber.org/automaxprocs/maxprocs"

	_ "github.com/KimMachineGun/automemlimit/memlimit"
)

// defaultMemoryFraction is how much of host RAM one Interpreter's default
// MaxMemory ceiling claims when the embedding host does not pass its own
// limit; a sandboxed evaluator sharing a process with other work should
// never be allowed to claim the whole machine by default.
const defaultMemoryFraction = 0.1

// Init aligns GOMAXPROCS to any cgroup CPU quota (a no-op outside a
// container) and returns the recommended default MaxMemoryBytes for
// interp.New, logging nothing on success - init logging is the embedding
// binary's responsibility, not this library package's.
func Init() int64 {
	_, _ = maxprocs.Set()
	return DefaultMaxMemoryBytes()
}

// DefaultMaxMemoryBytes reports defaultMemoryFraction of total host RAM,
// never less than 64MiB, or a conservative 256MiB if the host's RAM could
// not be determined (memory.TotalMemory returns 0 in that case).
func DefaultMaxMemoryBytes() int64 {
	total := memory.TotalMemory()
	if total == 0 {
		return 256 * 1024 * 1024
	}
	n := int64(float64(total) * defaultMemoryFraction)
	if n < 64*1024*1024 {
		return 64 * 1024 * 1024
	}
	return n
}
