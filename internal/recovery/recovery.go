// Package recovery classifies failures and retries the transient ones.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Class describes how a failure must be handled.
type Class string

const (
	// ClassValidation marks malformed or insufficient input. Aborts
	// immediately, never retried.
	ClassValidation Class = "validation"
	// ClassBusiness marks a domain-level dead end, for example no
	// eligible destination account. Surfaced as warnings, not retried.
	ClassBusiness Class = "business"
	// ClassTransient marks store or timeout failures worth retrying.
	ClassTransient Class = "transient"
	// ClassPermanent marks invariant violations. Not retried, the
	// caller degrades to the fallback result.
	ClassPermanent Class = "permanent"
)

// Error carries a failure classification alongside the cause.
type Error struct {
	Class Class
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Class, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validationf returns a validation-class error.
func Validationf(format string, args ...any) error {
	return &Error{Class: ClassValidation, Err: fmt.Errorf(format, args...)}
}

// Businessf returns a business-class error.
func Businessf(format string, args ...any) error {
	return &Error{Class: ClassBusiness, Err: fmt.Errorf(format, args...)}
}

// Transient wraps an error as transient.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Class: ClassTransient, Err: err}
}

// Permanent wraps an error as permanent.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Class: ClassPermanent, Err: err}
}

// Classify returns the class of an error. Unclassified errors and
// context deadline failures count as transient, so they pass through
// the retry loop before the caller degrades.
func Classify(err error) Class {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Class
	}

	return ClassTransient
}

// Options configures the retry loop.
type Options struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// Retry executes the operation, retrying transient failures with
// exponential backoff. Validation, business and permanent failures
// return immediately.
func Retry(ctx context.Context, operation func() error, opts Options) error {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = 100 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 5 * time.Second
	}
	if opts.Multiplier <= 0 {
		opts.Multiplier = 2.0
	}

	delay := opts.InitialDelay

	var err error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		err = operation()
		if err == nil {
			return nil
		}

		if Classify(err) != ClassTransient {
			return err
		}

		if attempt == opts.MaxAttempts {
			break
		}

		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Int("maxAttempts", opts.MaxAttempts).
			Dur("delay", delay).
			Msg("transient failure, retrying")

		select {
		case <-ctx.Done():
			return Transient(ctx.Err())
		case <-time.After(delay):
			delay = time.Duration(float64(delay) * opts.Multiplier)
			if delay > opts.MaxDelay {
				delay = opts.MaxDelay
			}
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", opts.MaxAttempts, err)
}
