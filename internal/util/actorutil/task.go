package actorutil

import (
	"errors"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/primetalk/goio/io"
)

var ErrNilTaskResult = errors.New("task returned no result")

// SafeBackgroundTask runs a blocking call on behalf of an actor. Failures, timeouts
// and panics are either recovered into a value or dropped.
type SafeBackgroundTask[T any] struct {
	ctx     actor.Context
	fn      func() (*T, error)
	timeout time.Duration
	recover func(error) T
}

func NewBackgroundTask[T any](ctx actor.Context, fn func() (*T, error)) *SafeBackgroundTask[T] {
	return &SafeBackgroundTask[T]{
		ctx: ctx,
		fn:  fn,
	}
}

// NewBackgroundTaskErr wraps a call that only reports an error.
func NewBackgroundTaskErr(ctx actor.Context, fn func() error) *SafeBackgroundTask[any] {
	return NewBackgroundTask(ctx, func() (*any, error) {
		if err := fn(); err != nil {
			return nil, err
		}
		var done any = struct{}{}
		return &done, nil
	})
}

// MapBackgroundTask transforms the result of bgt. Recover and timeout are not carried over.
func MapBackgroundTask[T, T2 any](bgt *SafeBackgroundTask[T], mapFn func(*T) *T2) *SafeBackgroundTask[T2] {
	return NewBackgroundTask(bgt.ctx, func() (*T2, error) {
		r, err := bgt.fn()
		if err != nil {
			return nil, err
		}
		return mapFn(r), nil
	})
}

func (t *SafeBackgroundTask[T]) WithTimeout(timeout time.Duration) *SafeBackgroundTask[T] {
	t.timeout = timeout
	return t
}

func (t *SafeBackgroundTask[T]) Recover(fn func(error) T) *SafeBackgroundTask[T] {
	t.recover = fn
	return t
}

// PipeTo runs the task and sends its value to pid.
func (t *SafeBackgroundTask[T]) PipeTo(pid *actor.PID) {
	if value, ok := t.Run(); ok {
		t.ctx.Send(pid, value)
	}
}

// Run returns the task value, the recovered value on failure, or false
// when the task failed without a Recover function.
func (t *SafeBackgroundTask[T]) Run() (T, bool) {
	task := io.Map(io.Eval(t.fn), func(a *T) T {
		if a == nil {
			panic(ErrNilTaskResult)
		}
		return *a
	})
	if t.timeout > 0 {
		task = io.WithTimeout[T](t.timeout)(task)
	}

	result := io.RunSync(task)
	if result.Error == nil {
		return result.Value, true
	}
	if t.recover != nil {
		return t.recover(result.Error), true
	}
	var zero T
	return zero, false
}
