package video

import "regexp"

// Video IDs are 11 URL-safe characters, embedded in watch, shorts, or
// short-link URLs.
var videoIDPattern = regexp.MustCompile(`(?:v=|/shorts/|youtu\.be/)([A-Za-z0-9_-]{11})`)

// ExtractVideoID pulls the 11-character video ID out of a video URL.
// Returns the empty string when no ID is present.
func ExtractVideoID(link string) string {
	m := videoIDPattern.FindStringSubmatch(link)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
