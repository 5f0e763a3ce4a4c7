package platform

// Result is the outcome of one platform call. Exactly one of Data or Failure
// is meaningful: OK reports which. RateLimit is attached to both variants
// when the platform reported quota state on the response.
type Result[T any] struct {
	Data      T
	Failure   *Failure
	RateLimit *RateLimitSnapshot
}

// Success returns a successful Result.
func Success[T any](data T, rl *RateLimitSnapshot) Result[T] {
	return Result[T]{Data: data, RateLimit: rl}
}

// Fail returns a failed Result. A nil failure is replaced with a generic
// transport failure so the variant is never ambiguous.
func Fail[T any](f *Failure, rl *RateLimitSnapshot) Result[T] {
	if f == nil {
		f = &Failure{Kind: KindTransport, Code: 500, Message: "unknown failure"}
	}
	return Result[T]{Failure: f, RateLimit: rl}
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool {
	return r.Failure == nil
}

// Err returns the failure as an error, or nil on success.
func (r Result[T]) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Unwrap returns the data and the failure as a conventional Go pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.Data, r.Err()
}

// Then chains a conversion onto a successful result. Failures propagate
// unchanged, keeping their rate limit snapshot.
func Then[T, U any](r Result[T], fn func(T) (U, *Failure)) Result[U] {
	if !r.OK() {
		return Fail[U](r.Failure, r.RateLimit)
	}
	u, f := fn(r.Data)
	if f != nil {
		return Fail[U](f, r.RateLimit)
	}
	return Success(u, r.RateLimit)
}
