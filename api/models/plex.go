// Package models contains the wire types of the Plex webhook API.
package models

// Plex webhook event types and library section types episweep cares about.
const (
	// EventScrobble is sent when an item was watched far enough to count
	// as played.
	EventScrobble = "media.scrobble"
	// SectionTypeShow marks items from a TV library.
	SectionTypeShow = "show"
)

// PlexWebhookPayload is the payload Plex posts to the webhook endpoint.
type PlexWebhookPayload struct {
	Event    string       `json:"event"`
	Metadata PlexMetadata `json:"Metadata"`
}

// PlexMetadata describes the played item. For episodes the series title is
// the grandparent, the season the parent.
type PlexMetadata struct {
	LibrarySectionType string `json:"librarySectionType"`
	GrandparentTitle   string `json:"grandparentTitle"`
	ParentIndex        int32  `json:"parentIndex"`
	Index              int32  `json:"index"`
	RatingKey          string `json:"ratingKey"`
	LastViewedAt       int64  `json:"lastViewedAt"`
}
