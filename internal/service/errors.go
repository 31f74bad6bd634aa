package service

import (
	"errors"
	"fmt"

	"github.com/yaqa/yaqa/internal/repository"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidImageID     = errors.New("invalid image id")
	ErrNotAnAuthor        = errors.New("only the author may change this")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrRegistrationClosed = errors.New("registration is closed")
)

// translate maps repository "no rows" errors onto ErrNotFound, keeping the
// original in the chain.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrQuestionNotFound),
		errors.Is(err, repository.ErrCommentNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrTagNotFound),
		errors.Is(err, repository.ErrImageNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrDuplicateUsername):
		return ErrUsernameTaken
	}
	return err
}
