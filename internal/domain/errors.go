package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is the base of every lookup failure.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would break a uniqueness rule.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput is matched by every *ValidationError.
	ErrInvalidInput = errors.New("invalid input")

	ErrSubjectNotFound  = fmt.Errorf("subject %w", ErrNotFound)
	ErrQuizNotFound     = fmt.Errorf("quiz %w", ErrNotFound)
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
	ErrAnswerNotFound   = fmt.Errorf("answer %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	// ErrSessionNotFound is returned when a token was revoked or has expired.
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)

	// ErrUsernameTaken is returned by sign-up when the username exists.
	ErrUsernameTaken = fmt.Errorf("username already taken: %w", ErrConflict)
	// ErrAlreadyAnswered is returned when a student answers the same question twice.
	ErrAlreadyAnswered = fmt.Errorf("question already answered: %w", ErrConflict)
	// ErrQuizAlreadyTaken is returned when a finished quiz is entered again.
	ErrQuizAlreadyTaken = fmt.Errorf("quiz already taken: %w", ErrConflict)

	// ErrInvalidCredentials is returned by login for an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNoQuestionsLeft means a quiz has nothing left to answer but was never finalized.
	ErrNoQuestionsLeft = errors.New("quiz has no unanswered questions and no recorded result")
)

// Validation error codes.
const (
	CodeInvalid           = "invalid"
	CodeInvalidChoice     = "invalid_choice"
	CodeNoCorrectAnswer   = "no_correct_answer"
	CodeAllCorrectAnswers = "all_correct_answers"
	CodeTooFewAnswers     = "too_few_answers"
	CodeTooManyAnswers    = "too_many_answers"
)

// ValidationError describes input that was rejected before anything was written.
type ValidationError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}
