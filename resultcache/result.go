package resultcache

type constError string

// ErrFailed is the status of a result failed without a more specific error.
const ErrFailed = constError("computation failed")

func (errStr constError) Error() string { return string(errStr) }

// Result is the immutable outcome of a computation.
type Result[V any] struct {
	value V
	err   error
}

// Resolved returns a successful [Result].
func Resolved[V any](value V) Result[V] {
	return Result[V]{value: value}
}

// Failed returns a failed [Result] with status err.
// A nil err is replaced with [ErrFailed].
func Failed[V any](err error) Result[V] {
	if err == nil {
		err = ErrFailed
	}
	return Result[V]{err: err}
}

// Failed reports whether the computation failed.
func (r Result[V]) Failed() bool { return r.err != nil }

// Value returns the resolved value, or the zero value if the result failed.
func (r Result[V]) Value() V { return r.value }

// Err returns the failure status, or nil.
func (r Result[V]) Err() error { return r.err }

// Unwrap returns both the value and the failure status.
func (r Result[V]) Unwrap() (V, error) { return r.value, r.err }
