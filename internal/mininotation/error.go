package mininotation

import (
	"fmt"
	"text/scanner"
)

// Err wraps a parse or compile error with the source position it occurred
// at, mirroring the teacher's Err{Pos, Err} idiom so mini-notation errors
// read the same way the rest of this engine's errors do.
type Err struct {
	Pos scanner.Position
	Err error
}

func (e Err) Error() string {
	if e.Pos.Line == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename, e.Pos.Line, e.Pos.Column, e.Err)
}

func (e Err) Unwrap() error { return e.Err }

func makeErr(pos scanner.Position, err error) Err {
	if wrapped, ok := err.(Err); ok {
		return wrapped
	}
	return Err{Pos: pos, Err: err}
}

func errf(pos scanner.Position, format string, args ...any) Err {
	return Err{Pos: pos, Err: fmt.Errorf(format, args...)}
}
