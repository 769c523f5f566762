package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is one form-filling session being audited. It carries the tracking
// flags fixed when the session began, the last location pushed by the client
// and at most one open interval event awaiting its end marker.
type Session struct {
	ID            uuid.UUID `json:"id"`
	FormID        string    `json:"form_id"`
	TrackLocation bool      `json:"track_location"`
	TrackChanges  bool      `json:"track_changes"`

	// Last location pushed by the client, stamped onto new events while
	// location tracking is enabled.
	Latitude  string `json:"latitude,omitempty"`
	Longitude string `json:"longitude,omitempty"`
	Accuracy  string `json:"accuracy,omitempty"`

	Open   *Snapshot `json:"open,omitempty"`
	Closed bool      `json:"closed,omitempty"`

	// TouchedAt is bumped on every recording call; the reaper closes
	// sessions idle past the configured TTL.
	TouchedAt time.Time `json:"touched_at"`
}

// HasLocation reports whether the session has a complete last-known location.
func (s *Session) HasLocation() bool {
	return s.Latitude != "" && s.Longitude != "" && s.Accuracy != ""
}
