package profile

import "errors"

// ErrEmptyInput is matched by every EmptyInputError.
var ErrEmptyInput = errors.New("empty input")

// EmptyInputError reports that there is nothing to synthesize a profile from.
type EmptyInputError struct {
	Reason string
}

func (e *EmptyInputError) Error() string {
	if e.Reason == "" {
		return ErrEmptyInput.Error()
	}
	return ErrEmptyInput.Error() + ": " + e.Reason
}

func (e *EmptyInputError) Is(target error) bool { return target == ErrEmptyInput }
