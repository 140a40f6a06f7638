package study

import "errors"

var (
	ErrUserNotFound         = errors.New("study: user not found")
	ErrInvalidInput         = errors.New("study: invalid input")
	ErrSubjectNotFound      = errors.New("study: subject not found")
	ErrGeneratorUnavailable = errors.New("study: flashcard generator unavailable")
	ErrGenerationFailed     = errors.New("study: flashcard generation failed")
	ErrFailedToRestoreTier  = errors.New("study: failed to restore previous tier")
	ErrMissingDependency    = errors.New("study: missing dependency")
)
