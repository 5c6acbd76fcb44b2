// Package errors implements the evaluator's error envelope: the common
// {kind, message, thrown_value, line, column, source_code, call_stack}
// shape every failure path surfaces through (spec §6.3, §7).
package errors

import (
	"fmt"
	"strings"
)

// Kind identifies the category of a failure raised by the evaluator. Kinds
// are not Go types: every failure path constructs the same *EvalError and
// tags it with one of these, so callers can switch on Kind without type
// assertions.
type Kind string

const (
	KindParseError               Kind = "ParseError"
	KindUndefinedVariable        Kind = "UndefinedVariable"
	KindAssignToConst            Kind = "AssignToConst"
	KindDuplicateDeclaration     Kind = "DuplicateDeclaration"
	KindPropertyNameForbidden    Kind = "PropertyNameForbidden"
	KindInheritedAccessDenied    Kind = "InheritedAccessDenied"
	KindSymbolForbidden          Kind = "SymbolForbidden"
	KindAsyncInSync              Kind = "AsyncInSync"
	KindFeatureNotEnabled        Kind = "FeatureNotEnabled"
	KindDivisionByZero           Kind = "DivisionByZero"
	KindModuloByZero             Kind = "ModuloByZero"
	KindArgumentCount            Kind = "ArgumentCount"
	KindSpreadTarget             Kind = "SpreadTarget"
	KindForInTarget              Kind = "ForInTarget"
	KindForOfTarget              Kind = "ForOfTarget"
	KindThisNotInitialized       Kind = "ThisNotInitialized"
	KindSuperAlreadyCalled       Kind = "SuperAlreadyCalled"
	KindSuperNotCalled           Kind = "SuperNotCalled"
	KindPrivateFieldUndefined    Kind = "PrivateFieldUndefined"
	KindConstructorWithoutNew    Kind = "ConstructorWithoutNew"
	KindCallTargetNotCallable    Kind = "CallTargetNotCallable"
	KindMaxCallStackDepth        Kind = "MaxCallStackDepthExceeded"
	KindMaxLoopIterations        Kind = "MaxLoopIterationsExceeded"
	KindMaxMemory                Kind = "MaxMemoryExceeded"
	KindAborted                  Kind = "Aborted"
	KindHostFunctionError        Kind = "HostFunctionError"
	KindUncaughtThrow            Kind = "UncaughtThrow"
)

// Frame is one entry of a call stack snapshot (spec §6.3).
type Frame struct {
	FunctionName string
	Line         int
	Column       int
}

func (f Frame) String() string {
	name := f.FunctionName
	if name == "" {
		name = "<anonymous>"
	}
	if f.Line == 0 {
		return name
	}
	return fmt.Sprintf("%s (%d:%d)", name, f.Line, f.Column)
}

// StackTrace is an ordered list of frames, innermost first.
type StackTrace []Frame

func (st StackTrace) String() string {
	lines := make([]string, len(st))
	for i, f := range st {
		lines[i] = "  at " + f.String()
	}
	return strings.Join(lines, "\n")
}

// EvalError is the single error envelope produced by every failure path in
// the evaluator (spec §6.3, §7). It implements the error interface.
type EvalError struct {
	Kind        Kind
	Message     string
	ThrownValue interface{} // the guest-thrown value, preserved for catch-pattern destructuring
	Line        int
	Column      int
	SourceCode  string
	CallStack   StackTrace

	// FeatureTag is populated only for KindFeatureNotEnabled.
	FeatureTag string
}

// New builds an EvalError with the given kind and formatted message.
func New(kind Kind, format string, args ...interface{}) *EvalError {
	return &EvalError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithPosition returns a copy of e enriched with a source position. Errors
// are enriched once at the boundary where they are about to leave the
// evaluator (spec §7, "Errors that leave the evaluator are enriched once").
func (e *EvalError) WithPosition(line, column int) *EvalError {
	clone := *e
	clone.Line = line
	clone.Column = column
	return &clone
}

// WithCallStack returns a copy of e carrying a snapshot of the call stack.
func (e *EvalError) WithCallStack(stack StackTrace) *EvalError {
	clone := *e
	clone.CallStack = append(StackTrace(nil), stack...)
	return &clone
}

// WithSource attaches the original source text, used to render the caret
// diagnostic in Format.
func (e *EvalError) WithSource(src string) *EvalError {
	clone := *e
	clone.SourceCode = src
	return &clone
}

// WithThrown attaches the guest value a `throw` statement raised, so
// catch-clause patterns can destructure it rather than only seeing the
// stringified message.
func (e *EvalError) WithThrown(v interface{}) *EvalError {
	clone := *e
	clone.ThrownValue = v
	return &clone
}

// Error implements the error interface. It renders a single-line summary;
// use Format for the multi-line, source-annotated rendering.
func (e *EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s (line %d, column %d)", e.Kind, e.Message, e.Line, e.Column)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Format renders the error with source context and a caret pointing at the
// failing column. When color is true, ANSI escapes highlight the caret.
func (e *EvalError) Format(color bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s: %s", e.Kind, e.Message)
	if e.Line > 0 {
		fmt.Fprintf(&sb, " (line %d, column %d)\n", e.Line, e.Column)
	} else {
		sb.WriteString("\n")
	}

	if line := sourceLine(e.SourceCode, e.Line); line != "" {
		prefix := fmt.Sprintf("%4d | ", e.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)+max(e.Column-1, 0)))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if len(e.CallStack) > 0 {
		sb.WriteString(e.CallStack.String())
	}

	return sb.String()
}

func sourceLine(src string, line int) string {
	if src == "" || line < 1 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// SecurityOptions governs how HostFunctionError messages are redacted
// before they leave the evaluator (spec §6.3). Defaults are both on.
type SecurityOptions struct {
	SanitizeStackTraces bool
	HideHostErrorText   bool
}

// DefaultSecurityOptions returns the documented defaults: both switches on.
func DefaultSecurityOptions() SecurityOptions {
	return SecurityOptions{SanitizeStackTraces: true, HideHostErrorText: true}
}

// RedactHostError applies the security switches to a host-originated error
// message, producing the guest-visible HostFunctionError text.
func RedactHostError(opts SecurityOptions, original error) *EvalError {
	msg := "a host function failed"
	if !opts.HideHostErrorText && original != nil {
		msg = original.Error()
	}
	return New(KindHostFunctionError, "%s", msg)
}
