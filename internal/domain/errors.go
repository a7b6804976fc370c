package domain

import (
	"errors"
	"fmt"
)

// Domain errors.
var (
	// ErrVideoNotFound is returned when a video cannot be found.
	ErrVideoNotFound = errors.New("video not found")

	// ErrMediaNotFound is returned when a video's media file is missing from storage.
	ErrMediaNotFound = errors.New("media file not found")

	// ErrForbidden is returned when an unpublished video is requested by
	// someone other than its creator or an administrator.
	ErrForbidden = errors.New("access to video denied")

	// ErrInvalidToken is returned when a bearer token cannot be verified.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidMediaKey is returned when a storage key would escape the media root.
	ErrInvalidMediaKey = errors.New("invalid media key")
)

// RangeError reports a Range header that cannot be satisfied against the
// file's actual size.
type RangeError struct {
	Range string
	Size  int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range not satisfiable: %q for size %d", e.Range, e.Size)
}

// VideoError wraps an error with video context.
type VideoError struct {
	VideoID VideoID
	Op      string
	Err     error
}

func (e *VideoError) Error() string {
	if e.VideoID != "" {
		return e.Op + " [" + e.VideoID.String() + "]: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *VideoError) Unwrap() error {
	return e.Err
}

// NewVideoError creates a new VideoError.
func NewVideoError(videoID VideoID, op string, err error) *VideoError {
	return &VideoError{
		VideoID: videoID,
		Op:      op,
		Err:     err,
	}
}
