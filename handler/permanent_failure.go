package handler

import "fmt"

// PermanentFailure marks a handler error as non-retryable. A Worker that
// receives one skips the retry ladder entirely and promotes the job
// straight to DLQ, regardless of its remaining RetryCount.
type PermanentFailure struct {
	Msg string
	Err error
}

// Permanent wraps err (which may be nil) as a *PermanentFailure with the
// given message.
func Permanent(msg string, err error) *PermanentFailure {
	return &PermanentFailure{Msg: msg, Err: err}
}

func (e *PermanentFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *PermanentFailure) Unwrap() error {
	return e.Err
}
