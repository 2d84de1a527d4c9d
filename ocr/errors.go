package ocr

import "errors"

var (
	// ErrEmptyResult is returned when a cursor is requested over a result that
	// contains no characters.
	ErrEmptyResult = errors.New("ocr result contains no characters")

	// ErrPastEnd is returned by Advance when the cursor is already on the last
	// character.
	ErrPastEnd = errors.New("cursor advanced past the last character")
)
