package normalizer

import "fmt"

// MalformedContentError is returned when content cannot be treated as the
// declared kind. Callers are expected to fall back to NormalizeText.
type MalformedContentError struct {
	Reason string
	Cause  error
}

func (e *MalformedContentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed content: %s: %v", e.Reason, e.Cause)
	}
	return "malformed content: " + e.Reason
}

func (e *MalformedContentError) Unwrap() error {
	return e.Cause
}
