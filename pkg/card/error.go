package card

import "errors"

var (
	// ErrNotFound is returned when no card exists for an id.
	ErrNotFound = errors.New("card not found")

	// ErrDecode is returned when a stored payload is not a well-formed card.
	ErrDecode = errors.New("card record is unreadable")

	// ErrMalformedID is returned when an id is not a UUID.
	ErrMalformedID = errors.New("malformed card id")

	// ErrInvalidPage is returned for page numbers below 1.
	ErrInvalidPage = errors.New("invalid page number")
)
