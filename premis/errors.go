package premis

import (
	"fmt"
)

// RecordParseError means the bytes at Locator are not a well-formed
// PREMIS record. No record is returned with this error.
type RecordParseError struct {
	Locator string
	Reason  string
	Err     error
}

func (e *RecordParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s is not a valid premis record: %s: %v", e.Locator, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s is not a valid premis record: %s", e.Locator, e.Reason)
}

func (e *RecordParseError) Unwrap() error {
	return e.Err
}

// MissingObjectError means a record has no object entries, so there
// is nothing to extract identity data from.
type MissingObjectError struct {
	Locator string
}

func (e *MissingObjectError) Error() string {
	if e.Locator == "" {
		return "premis record has no objects"
	}
	return fmt.Sprintf("premis record %s has no objects", e.Locator)
}

// DataIntegrityError means the record parsed, but one of the values
// we need is missing or can't be used: a non-numeric or negative
// size, a missing identifier, and so on.
type DataIntegrityError struct {
	Field   string
	Value   string
	Message string
}

func (e *DataIntegrityError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s '%s': %s", e.Field, e.Value, e.Message)
}

// EventAppendRejected means an event could not be added to a record
// because it is malformed or its identifier is already in use.
type EventAppendRejected struct {
	EventIdentifier string
	Reason          string
}

func (e *EventAppendRejected) Error() string {
	if e.EventIdentifier == "" {
		return fmt.Sprintf("cannot append event: %s", e.Reason)
	}
	return fmt.Sprintf("cannot append event %s: %s", e.EventIdentifier, e.Reason)
}

// SerializationError means a record could not be written to Locator.
type SerializationError struct {
	Locator string
	Err     error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("cannot write premis record to %s: %v", e.Locator, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if err describes a problem with the record
// itself, which no amount of retrying will fix.
func IsFatal(err error) bool {
	switch err.(type) {
	case *RecordParseError, *MissingObjectError, *DataIntegrityError, *EventAppendRejected:
		return true
	}
	return false
}
