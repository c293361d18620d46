package errors

import (
	"errors"
	"fmt"
)

var (
	ErrMissingBotToken = errors.New("TELEGRAM_BOT_TOKEN environment variable is required")

	// Caller supplied a filter or identifier that violates a constraint.
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidDate     = errors.New("invalid date")
	ErrNotFound        = errors.New("not found")
	ErrNoOpenDayFound  = errors.New("no open day found")

	// ErrCanteenNotFound is returned when no canteen matches a name query.
	ErrCanteenNotFound = fmt.Errorf("canteen %w", ErrNotFound)

	// ErrDateInPast is advisory: the resolved date is still usable.
	ErrDateInPast = errors.New("date is in the past")

	ErrInvalidRequest      = errors.New("invalid request")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrUpstreamMalformed   = errors.New("upstream response malformed")
)
