// Package checkpoint decorates errors with the location they passed through,
// which builds up something similar to a stacktrace while an error travels up
// through the image engine.
// Every error attached to a checkpoint stays reachable by errors.Is and errors.As.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// From wraps err into a checkpoint carrying the caller's file and line.
// It returns nil if err == nil.
func From(err error) error {
	if passThrough(err) {
		return err
	}

	return &checkpoint{
		err:   err,
		frame: caller(),
	}
}

// Wrap records a checkpoint for prev and attaches err as the description of
// what went wrong at this point. It returns nil if prev == nil.
//
// This allows to return predefined sentinel errors while keeping the cause:
//  var ErrOutOfSpace = errors.New("no free blocks left")
//
//  func grow() error {
//  	_, err := allocate()
//  	return checkpoint.Wrap(err, ErrOutOfSpace)
//  }
// Both errors.Is(err, ErrOutOfSpace) and errors.Is(err, <cause>) hold afterwards.
func Wrap(prev, err error) error {
	if prev == nil || prev == io.EOF {
		return prev
	}

	return &checkpoint{
		err:   err,
		prev:  prev,
		frame: caller(),
	}
}

// Errorf creates a checkpoint for a sentinel error with additional context.
// The sentinel is kept for errors.Is while the message carries the details.
func Errorf(sentinel error, format string, args ...interface{}) error {
	return &checkpoint{
		err:   fmt.Errorf("%w: "+format, append([]interface{}{sentinel}, args...)...),
		frame: caller(),
	}
}

// io.EOF and io.ErrUnexpectedEOF must be returned unchanged.
// https://github.com/golang/go/issues/39155
func passThrough(err error) bool {
	return err == nil || err == io.EOF || err == io.ErrUnexpectedEOF
}

type frame struct {
	ok   bool
	file string
	line int
}

func caller() frame {
	// Skip caller() itself and the exported constructor.
	_, file, line, ok := runtime.Caller(2)
	return frame{ok: ok, file: filepath.Base(file), line: line}
}

func (f frame) String() string {
	if !f.ok {
		return "File: unknown"
	}
	return fmt.Sprintf("File: %s:%d", f.file, f.line)
}

type checkpoint struct {
	err  error
	prev error

	frame frame
}

func (e *checkpoint) Error() string {
	msg := fmt.Sprintf("%v\n\t%v", e.frame, e.err)
	if e.prev == nil {
		return msg
	}

	prev := e.prev.Error()
	if _, ok := e.prev.(*checkpoint); !ok {
		prev = "File: unknown\n\t" + strings.ReplaceAll(prev, "\n", "\n\t")
	}
	return msg + "\n" + prev
}

func (e *checkpoint) Unwrap() error {
	if e.prev == nil {
		return errors.Unwrap(e.err)
	}
	return e.prev
}

func (e *checkpoint) Is(target error) bool {
	return errors.Is(e.err, target)
}

func (e *checkpoint) As(target interface{}) bool {
	return errors.As(e.err, target)
}
