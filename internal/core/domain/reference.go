package domain

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
)

// referenceSuffixLen is the fixed length of the random anti-collision suffix
// appended to the order id at order placement.
const referenceSuffixLen = 6

// ErrUndecodableReference is returned when a merchant reference does not
// start with a valid non-negative order id.
var ErrUndecodableReference = errors.New("undecodable payment reference")

// NewReference builds the merchant reference for an order: the order id
// concatenated with a 6-digit random numeric suffix. The suffix avoids
// reference collisions across orders placed in the same time window.
func NewReference(orderID int64) string {
	return fmt.Sprintf("%d%06d", orderID, rand.IntN(1000000))
}

// DecodeReference extracts the order id from a merchant reference.
// References longer than the suffix carry the order id as their prefix;
// shorter references are assumed to be bare order ids. Malformed input
// yields ErrUndecodableReference, never a panic.
func DecodeReference(reference string) (int64, error) {
	if reference == "" {
		return 0, fmt.Errorf("%w: empty", ErrUndecodableReference)
	}

	prefix := reference
	if len(reference) > referenceSuffixLen {
		prefix = reference[:len(reference)-referenceSuffixLen]
	}

	orderID, err := strconv.ParseUint(prefix, 10, 63)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUndecodableReference, reference)
	}
	return int64(orderID), nil
}
