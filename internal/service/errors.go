package service

import (
	"errors"
	"fmt"
)

// Error taxonomy for event processing. Validation failures park the
// event permanently; anything else releases it for redelivery.
var (
	// ErrValidation marks events that must not be retried: unknown
	// event type, malformed payload, unknown board/user references.
	ErrValidation = errors.New("validation")

	// ErrDelivery marks email sink failures. The in-app leg may have
	// succeeded; only the email leg is retried, from the digest queue.
	ErrDelivery = errors.New("delivery")
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
