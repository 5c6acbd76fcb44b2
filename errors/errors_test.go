package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndErrorString(t *testing.T) {
	e := New(KindUndefinedVariable, "%s is not defined", "foo")
	assert.Equal(t, "UndefinedVariable: foo is not defined", e.Error())

	withPos := e.WithPosition(3, 7)
	assert.Equal(t, "UndefinedVariable: foo is not defined (line 3, column 7)", withPos.Error())
	// WithPosition does not mutate the receiver.
	assert.Equal(t, 0, e.Line)
}

func TestWithCallStackCopiesSlice(t *testing.T) {
	e := New(KindCallTargetNotCallable, "boom")
	stack := StackTrace{{FunctionName: "outer", Line: 1, Column: 1}}
	withStack := e.WithCallStack(stack)

	stack[0].FunctionName = "mutated"
	assert.Equal(t, "outer", withStack.CallStack[0].FunctionName)
}

func TestWithThrownPreservesGuestValue(t *testing.T) {
	e := New(KindUncaughtThrow, "uncaught")
	withThrown := e.WithThrown("guest payload")
	assert.Equal(t, "guest payload", withThrown.ThrownValue)
	assert.Nil(t, e.ThrownValue)
}

func TestFormatIncludesCaretAndSourceLine(t *testing.T) {
	e := New(KindParseError, "unexpected token").
		WithPosition(2, 5).
		WithSource("let x = 1;\nlet = ;")

	out := e.Format(false)
	assert.Contains(t, out, "unexpected token")
	assert.Contains(t, out, "let = ;")
	assert.Contains(t, out, "^")
}

func TestFormatWithoutSourceOmitsCaret(t *testing.T) {
	e := New(KindParseError, "unexpected token")
	out := e.Format(false)
	assert.NotContains(t, out, "^")
}

func TestDefaultSecurityOptionsBothOn(t *testing.T) {
	opts := DefaultSecurityOptions()
	assert.True(t, opts.SanitizeStackTraces)
	assert.True(t, opts.HideHostErrorText)
}

func TestRedactHostErrorHidesTextByDefault(t *testing.T) {
	orig := errors.New("leaking a file path /etc/passwd")
	redacted := RedactHostError(DefaultSecurityOptions(), orig)

	require.Equal(t, KindHostFunctionError, redacted.Kind)
	assert.NotContains(t, redacted.Message, "/etc/passwd")
}

func TestRedactHostErrorRevealsTextWhenDisabled(t *testing.T) {
	orig := errors.New("detailed host failure")
	redacted := RedactHostError(SecurityOptions{HideHostErrorText: false}, orig)
	assert.Equal(t, "detailed host failure", redacted.Message)
}
