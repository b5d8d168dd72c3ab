package fakegl

import "fmt"

// ErrorCode is a GL error as returned by GetError.
type ErrorCode uint32

// GL error codes.
const (
	NoError          ErrorCode = 0
	InvalidEnum      ErrorCode = 0x0500
	InvalidValue     ErrorCode = 0x0501
	InvalidOperation ErrorCode = 0x0502
	StackOverflow    ErrorCode = 0x0503
	StackUnderflow   ErrorCode = 0x0504
	OutOfMemory      ErrorCode = 0x0505
)

func (e ErrorCode) String() string {
	switch e {
	case NoError:
		return "NO_ERROR"
	case InvalidEnum:
		return "INVALID_ENUM"
	case InvalidValue:
		return "INVALID_VALUE"
	case InvalidOperation:
		return "INVALID_OPERATION"
	case StackOverflow:
		return "STACK_OVERFLOW"
	case StackUnderflow:
		return "STACK_UNDERFLOW"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	}
	return fmt.Sprintf("ErrorCode(%#04x)", uint32(e))
}

// setError records code as the current error, replacing any unread one, and
// logs msg at debug level. Callers return right after without touching state.
func (c *Context) setError(code ErrorCode, msg string, args ...any) {
	c.err = code
	Logger().Debug("fakegl: "+msg, append([]any{"error", code.String()}, args...)...)
}

// GetError returns the most recent error and clears it.
func (c *Context) GetError() ErrorCode {
	e := c.err
	c.err = NoError
	return e
}

// internal panics on a violated internal invariant.
func internal(format string, args ...any) {
	panic(fmt.Sprintf("fakegl: "+format, args...))
}
