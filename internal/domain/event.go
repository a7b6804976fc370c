package domain

import "time"

// EventID is a unique identifier for an event.
type EventID string

// String returns the string representation of the EventID.
func (id EventID) String() string {
	return string(id)
}

// EventType names a published domain event.
type EventType string

const (
	EventVideoViewed EventType = "video.viewed"
)

// ViewEvent records that a stream of a video was started.
type ViewEvent struct {
	ID         EventID   `json:"id"`
	Type       EventType `json:"type"`
	VideoID    VideoID   `json:"video_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewViewEvent creates a view event stamped with the current time.
func NewViewEvent(id EventID, videoID VideoID) ViewEvent {
	return ViewEvent{
		ID:         id,
		Type:       EventVideoViewed,
		VideoID:    videoID,
		OccurredAt: time.Now().UTC(),
	}
}
