package observable

import (
	"errors"
	"fmt"
)

var (
	ErrConsumerDead        = errors.New("observable: consumer is dead")
	ErrReentrantEvaluation = errors.New("observable: consumer is already evaluating")
	ErrCircularComputed    = errors.New("observable: circular computed property")
	ErrFlushLimit          = errors.New("observable: flush did not settle")
	ErrIndexOutOfRange     = errors.New("observable: index out of range")
)

// EvaluationError is reported when a scheduled re-evaluation fails.
// Direct evaluations return their errors untouched.
type EvaluationError struct {
	ConsumerID uint64
	Name       string
	Err        error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("observable: consumer %q (#%d) failed: %v", e.Name, e.ConsumerID, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// PanicError carries a value recovered from a panicking consumer.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func errorFromPanic(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &PanicError{Value: r}
}
