// Package playbacktypes holds the Song value shared by the bus, the
// playback controller, and the chat adapters. It is split out from
// internal/playback so the bus package can reference Song without
// importing the controller that owns the playback state machine.
package playbacktypes

import "time"

// Song is one entry in the playback queue: a resolved, downloadable
// track plus who queued it.
type Song struct {
	URL      string        `json:"url"`
	VideoID  string        `json:"video_id"`
	Title    string        `json:"title"`
	Channel  string        `json:"channel"`
	QueuedBy string        `json:"queued_by"`
	Duration time.Duration `json:"duration"`
}
