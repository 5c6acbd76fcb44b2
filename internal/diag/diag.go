// Package diag renders interpreter diagnostics for host tooling: a
// human-readable dump of an evaluation's Stats and thrown error for
// debugging, and a compact binary encoding of the same for shipping over a
// wire or writing to a trace file (spec §6.2 Stats, §6.3 error reporting).
package diag

import (
	"bytes"

	"github.com/davecgh/go-spew/spew"
	"github.com/fxamacker/cbor/v2"
)

// Snapshot is the wire/debug shape of one evaluation's outcome.
type Snapshot struct {
	NodeCount       int     `cbor:"node_count"`
	FunctionCalls   int     `cbor:"function_calls"`
	LoopIterations  int     `cbor:"loop_iterations"`
	ExecutionTimeMS float64 `cbor:"execution_time_ms"`
	MemoryBytes     int64   `cbor:"memory_bytes"`

	ErrorKind    string `cbor:"error_kind,omitempty"`
	ErrorMessage string `cbor:"error_message,omitempty"`
}

var spewConfig = &spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Dump renders a Snapshot (or any diagnostic value) as an indented,
// deterministic string suitable for a failing-test log or a debug console,
// reaching for spew over fmt's "%+v" so a nested struct graph stays
// readable and diffable across runs.
func Dump(v interface{}) string {
	return spewConfig.Sdump(v)
}

// Encode serializes a Snapshot to CBOR for compact, language-neutral
// transport to a host process.
func Encode(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := cbor.NewEncoder(&buf)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	err := cbor.Unmarshal(data, &s)
	return s, err
}
