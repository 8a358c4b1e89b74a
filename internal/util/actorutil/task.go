package actorutil

import (
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/primetalk/goio/io"
)

// BackgroundTask runs a blocking function outside of the actor and delivers
// the outcome to a PID as a regular message.
type BackgroundTask[T any] struct {
	root    *actor.RootContext
	fn      func() (T, error)
	timeout *time.Duration
	onError func(error) any
}

func NewBackgroundTask[T any](ctx actor.Context, fn func() (T, error)) *BackgroundTask[T] {
	return &BackgroundTask[T]{
		root: ctx.ActorSystem().Root,
		fn:   fn,
	}
}

func NewBackgroundTaskErr(ctx actor.Context, fn func() error) *BackgroundTask[struct{}] {
	return NewBackgroundTask(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	})
}

func (t *BackgroundTask[T]) WithTimeout(timeout time.Duration) *BackgroundTask[T] {
	t.timeout = &timeout
	return t
}

// OnError maps a failure (including a timeout) to the message sent instead of the result.
func (t *BackgroundTask[T]) OnError(fn func(error) any) *BackgroundTask[T] {
	t.onError = fn
	return t
}

func (t *BackgroundTask[T]) PipeTo(pid *actor.PID) {
	go func() {
		msg, ok := t.run()
		if ok {
			t.root.Send(pid, msg)
		}
	}()
}

func (t *BackgroundTask[T]) run() (any, bool) {
	bg := io.Eval(t.fn)
	if t.timeout != nil {
		bg = io.WithTimeout[T](*t.timeout)(bg)
	}
	result := io.RunSync(bg)
	if result.Error != nil {
		if t.onError == nil {
			return nil, false
		}
		return t.onError(result.Error), true
	}
	return result.Value, true
}

func MapBackgroundTask[T, T2 any](bgt *BackgroundTask[T], mapFn func(T) T2) *BackgroundTask[T2] {
	return &BackgroundTask[T2]{
		root:    bgt.root,
		timeout: bgt.timeout,
		onError: bgt.onError,
		fn: func() (T2, error) {
			r, err := bgt.fn()
			if err != nil {
				var zero T2
				return zero, err
			}
			return mapFn(r), nil
		},
	}
}
