package models

const ActionVideoPlayed = "video_played"

// WebAppEvent is the payload the web app posts back through the bot when
// the user interacts with a video.
type WebAppEvent struct {
	Action     string `json:"action"`
	VideoTitle string `json:"videoTitle"`
	City       string `json:"city"`
}
