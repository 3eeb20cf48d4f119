package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUsernameRequired is returned when a round is started without a username.
	ErrUsernameRequired = errors.New("username required to start the quiz")
	// ErrNoQuestions is returned when a round is started before any questions are loaded.
	ErrNoQuestions = errors.New("no questions loaded")
	// ErrQuestionSetNotFound indicates a named question set does not exist.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrStorage is matched by every StorageError.
	ErrStorage = errors.New("storage failure")
)

// StorageError reports a failed save or fetch against a result store.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err, leaving an existing StorageError untouched.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
