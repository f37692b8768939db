package internal

import (
	"fmt"
	"strings"
)

// SyntaxError wraps a tokenizer or parser failure.
type SyntaxError struct {
	Err error
}

func (e *SyntaxError) Error() string {
	return e.Err.Error()
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// DiagnosticsError carries every semantic diagnostic of a program that failed analysis.
type DiagnosticsError struct {
	Diagnostics []string
}

func (e *DiagnosticsError) Error() string {
	return fmt.Sprintf("%d semantic error(s):\n%s", len(e.Diagnostics), strings.Join(e.Diagnostics, "\n"))
}

// FatalError reports a broken contract between passes: a node kind no pass knows, or a name the
// code generator cannot resolve although analysis succeeded.
type FatalError struct {
	Msg string
}

func (e *FatalError) Error() string {
	return "fatal compiler error: " + e.Msg
}

func fatalf(format string, args ...interface{}) {
	panic(&FatalError{Msg: fmt.Sprintf(format, args...)})
}

// recoverFatal turns a *FatalError panic raised inside a pass into the pass's returned error.
// Any other panic keeps unwinding.
func recoverFatal(err *error) {
	r := recover()
	if r == nil {
		return
	}
	fatal, ok := r.(*FatalError)
	if !ok {
		panic(r)
	}
	*err = fatal
}
