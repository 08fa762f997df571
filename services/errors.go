package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient points")
	ErrInvalidReward       = errors.New("invalid reward id")
	ErrInvalidInput        = errors.New("invalid input")
	ErrStorageFailure      = errors.New("storage failure")
)

// classified reports whether err already carries one of the sentinels
// above.
func classified(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidReward) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrStorageFailure)
}

// storageError tags a store error as ErrStorageFailure while keeping the
// cause reachable through errors.Is. Classified errors pass through.
func storageError(op string, err error) error {
	if err == nil || classified(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}

func notFound(entity string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, entity)
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
