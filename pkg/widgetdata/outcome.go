package widgetdata

// Outcome is the result of resolving widget data: either a payload or a
// failure kind, never both.
type Outcome[T any] struct {
	payload T
	failure FailureKind
}

// Success wraps a payload.
func Success[T any](payload T) Outcome[T] {
	return Outcome[T]{payload: payload}
}

// Failure builds a failed outcome. Passing FailureNone yields FailureNoData.
func Failure[T any](kind FailureKind) Outcome[T] {
	if kind == FailureNone {
		kind = FailureNoData
	}
	return Outcome[T]{failure: kind}
}

// OK reports whether the outcome carries a payload.
func (o Outcome[T]) OK() bool {
	return o.failure == FailureNone
}

// Payload returns the payload and true on success.
func (o Outcome[T]) Payload() (T, bool) {
	return o.payload, o.OK()
}

// Failure returns the failure kind, FailureNone on success.
func (o Outcome[T]) Failure() FailureKind {
	return o.failure
}

// Err returns the failure sentinel, nil on success.
func (o Outcome[T]) Err() error {
	return o.failure.Err()
}

func (o Outcome[T]) String() string {
	return o.failure.String()
}
