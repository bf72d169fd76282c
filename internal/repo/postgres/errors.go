package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

var (
	// ErrTransient marks store failures a caller may retry with backoff.
	ErrTransient = errors.New("transient store error")

	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomCodeTaken       = errors.New("room code already in use")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantExists   = errors.New("participant already in room")
	ErrSwipeExists         = errors.New("swipe already recorded")
	ErrMealNotFound        = errors.New("meal not found")
	ErrStatusConflict      = errors.New("room status changed concurrently")
	ErrInvalidTransition   = errors.New("room status transition not allowed")
)

func wrapErr(op string, err error) error {
	if isTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName, true
	}
	return "", false
}
