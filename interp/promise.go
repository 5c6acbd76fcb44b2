package interp

import "github.com/samlaycock/nookjs/runtime"

// runPromiseReaction is installed as runtime.ReactionRunner by New, bridging
// the runtime package's promise settlement machinery (which cannot import
// interp, to avoid a cycle) back to the call machinery needed to invoke a
// guest then()/catch() handler and settle the resulting chained promise
// (spec §4.3).
func (it *Interpreter) runPromiseReaction(src *runtime.Promise, onFulfilled, onRejected *runtime.FunctionValue, result *runtime.Promise) {
	state, value := src.State()

	var handler *runtime.FunctionValue
	if state == "fulfilled" {
		handler = onFulfilled
	} else {
		handler = onRejected
	}

	if handler == nil {
		// No handler for this branch: propagate the settlement unchanged
		// (spec §4.3, ".then with a missing handler passes the value/reason
		// through").
		if state == "fulfilled" {
			result.Resolve(value)
		} else {
			result.Reject(value)
		}
		return
	}

	v, err := it.callFunction(handler, runtime.UndefinedValue, []runtime.Value{value})
	if err != nil {
		result.Reject(thrownValue(err))
		return
	}
	result.Resolve(v)
}
