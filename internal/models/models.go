package models

import "time"

// Profile represents a lightweight identity on the ReelHub platform. The
// access code is the sole, permanent credential identifying the profile.
type Profile struct {
	ID          string
	Name        string
	Mobile      string
	Email       string
	Type        string
	Description string
	Code        string
	CreatedAt   time.Time
}

// AccessCode is a pre-seeded pool entry. Assigned flips to true exactly once,
// when a profile claims the code; entries are never deleted or reused.
type AccessCode struct {
	Value    string
	Assigned bool
}

// Video records an uploaded video and its media store keys. UploaderName is
// populated by joined listing queries and is not a column of its own.
type Video struct {
	ID           string
	ProfileID    string
	Title        string
	Filename     string
	Thumbnail    string
	Description  string
	CreatedAt    time.Time
	UploaderName string
}

// Comment is attached to a video. ProfileID is nil for anonymous comments;
// when a valid code was presented at creation, Name holds that profile's
// display name rather than any client-supplied text.
type Comment struct {
	ID        string
	VideoID   string
	ProfileID *string
	Name      string
	Text      string
	CreatedAt time.Time
}
