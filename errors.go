package dimble

import (
	"errors"
	"fmt"
)

var (
	// ErrCouldNotOpen indicates a source file could not be opened or
	// memory-mapped.
	ErrCouldNotOpen = errors.New("could not open file")

	// ErrFailedToParseJSON indicates a DICOM-JSON document was
	// syntactically invalid or violated a structural invariant.
	ErrFailedToParseJSON = errors.New("failed to parse JSON")

	// ErrValueAndInlineBinaryBothPresent indicates a field carried both
	// a Value list and an InlineBinary payload.
	ErrValueAndInlineBinaryBothPresent = errors.New("field has both Value and InlineBinary")

	// ErrSerialiseFields indicates encoding the directory or data
	// region failed.
	ErrSerialiseFields = errors.New("failed to serialise fields")

	// ErrHeaderInvalid indicates the directory region could not be
	// parsed.
	ErrHeaderInvalid = errors.New("invalid header")

	// ErrTagMissing indicates a requested tag is absent from the
	// directory.
	ErrTagMissing = errors.New("tag missing")

	// ErrTensorHeaderInvalid indicates an embedded tensor container's
	// metadata could not be parsed.
	ErrTensorHeaderInvalid = errors.New("invalid tensor header")
)

// OpenError wraps ErrCouldNotOpen with the path that failed.
type OpenError struct {
	Path  string
	Cause error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrCouldNotOpen.Error(), e.Path, e.Cause)
}

func (e *OpenError) Unwrap() error { return ErrCouldNotOpen }

// ParseJSONError wraps ErrFailedToParseJSON with the source path.
type ParseJSONError struct {
	Path  string
	Cause error
}

func (e *ParseJSONError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrFailedToParseJSON.Error(), e.Path, e.Cause)
}

func (e *ParseJSONError) Unwrap() error { return ErrFailedToParseJSON }

// FieldInvariantError wraps ErrValueAndInlineBinaryBothPresent with the
// offending tag.
type FieldInvariantError struct {
	Tag string
}

func (e *FieldInvariantError) Error() string {
	return fmt.Sprintf("%s: tag %s", ErrValueAndInlineBinaryBothPresent.Error(), e.Tag)
}

func (e *FieldInvariantError) Unwrap() error { return ErrValueAndInlineBinaryBothPresent }

// SerialiseFieldsError wraps ErrSerialiseFields with the underlying cause
// — a directory encode failure, a data-region write failure, or a
// pixel-blob read failure.
type SerialiseFieldsError struct {
	Cause error
}

func (e *SerialiseFieldsError) Error() string {
	return fmt.Sprintf("%s: %v", ErrSerialiseFields.Error(), e.Cause)
}

func (e *SerialiseFieldsError) Unwrap() error { return ErrSerialiseFields }

// HeaderInvalidError wraps ErrHeaderInvalid with the path and cause.
type HeaderInvalidError struct {
	Path  string
	Cause error
}

func (e *HeaderInvalidError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrHeaderInvalid.Error(), e.Path, e.Cause)
}

func (e *HeaderInvalidError) Unwrap() error { return ErrHeaderInvalid }

// TagMissingError wraps ErrTagMissing with the tag that was requested but
// not present in the directory.
type TagMissingError struct {
	Tag string
}

func (e *TagMissingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrTagMissing.Error(), e.Tag)
}

func (e *TagMissingError) Unwrap() error { return ErrTagMissing }

// TensorHeaderInvalidError wraps ErrTensorHeaderInvalid with the path and
// cause.
type TensorHeaderInvalidError struct {
	Path  string
	Cause error
}

func (e *TensorHeaderInvalidError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTensorHeaderInvalid.Error(), e.Path, e.Cause)
}

func (e *TensorHeaderInvalidError) Unwrap() error { return ErrTensorHeaderInvalid }
