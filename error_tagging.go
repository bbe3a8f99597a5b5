package taskloom

import (
	"errors"
	"fmt"
)

// TaskMetaError exposes correlation metadata for a task failure. Generalized
// from ygrebnov-workers' TaskMetaError (TaskID/TaskIndex keyed on a slice
// index) to taskloom's TaskID and await-chain, since tasks here are
// identified by a runtime-issued id rather than a submission-order index.
type TaskMetaError interface {
	error
	Unwrap() error
	TaskID() (TaskID, bool)
	CallerChain() ([]TaskID, bool)
}

type taskTaggedError struct {
	err         error
	id          TaskID
	callerChain []TaskID
}

func newTaskTaggedError(err error, id TaskID, callerChain []TaskID) error {
	if err == nil {
		return nil
	}
	return &taskTaggedError{err: err, id: id, callerChain: callerChain}
}

func (e *taskTaggedError) Error() string { return e.err.Error() }
func (e *taskTaggedError) Unwrap() error { return e.err }

func (e *taskTaggedError) TaskID() (TaskID, bool) { return e.id, true }

func (e *taskTaggedError) CallerChain() ([]TaskID, bool) {
	if len(e.callerChain) == 0 {
		return nil, false
	}
	return e.callerChain, true
}

func (e *taskTaggedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "task(id=%d,chain=%v): %+v", e.id, e.callerChain, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractTaskID returns the TaskID tagged onto err, if present.
func ExtractTaskID(err error) (TaskID, bool) {
	var tme TaskMetaError
	if errors.As(err, &tme) {
		return tme.TaskID()
	}
	return 0, false
}

// ExtractCallerChain returns the await-chain tagged onto err, if present.
func ExtractCallerChain(err error) ([]TaskID, bool) {
	var tme TaskMetaError
	if errors.As(err, &tme) {
		return tme.CallerChain()
	}
	return nil, false
}
