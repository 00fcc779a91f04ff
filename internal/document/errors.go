package document

import (
	"errors"
	"fmt"
)

// FailureReason explains why no document could be produced.
type FailureReason string

const (
	ReasonUnrecognizedType FailureReason = "unrecognized_document_type"
	ReasonNoNumber         FailureReason = "no_document_number"
)

// ExtractionFailure is returned when the text is not a recognizable document.
type ExtractionFailure struct {
	Reason   FailureReason `json:"reason"`
	FileName string        `json:"file_name,omitempty"`
	Kind     Kind          `json:"kind,omitempty"`
	Detail   string        `json:"detail,omitempty"`
}

func (e *ExtractionFailure) Error() string {
	msg := string(e.Reason)
	if e.FileName != "" {
		msg = e.FileName + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches failures by reason so callers can use errors.Is with a sentinel.
func (e *ExtractionFailure) Is(target error) bool {
	var t *ExtractionFailure
	if !errors.As(target, &t) {
		return false
	}
	return t.Reason == e.Reason
}

var (
	// ErrUnrecognizedType matches failures with ReasonUnrecognizedType.
	ErrUnrecognizedType = &ExtractionFailure{Reason: ReasonUnrecognizedType}
	// ErrNoNumber matches failures with ReasonNoNumber.
	ErrNoNumber = &ExtractionFailure{Reason: ReasonNoNumber}
)

// NewFailure builds an ExtractionFailure.
func NewFailure(reason FailureReason, fileName string, kind Kind, format string, args ...any) *ExtractionFailure {
	return &ExtractionFailure{
		Reason:   reason,
		FileName: fileName,
		Kind:     kind,
		Detail:   fmt.Sprintf(format, args...),
	}
}
