package extractor

import "strings"

// Message markers.
const (
	MarkerInProgress = "⏰" // result still being edited
	MarkerVoid       = "🔰" // void or drawn round
	MarkerFinal      = "✅" // result is final
	markerArrow      = "▶"
	markerTarget     = "🎯"
)

// IsInProgress reports whether the message is still being edited.
func IsInProgress(text string) bool {
	return strings.Contains(text, MarkerInProgress)
}

// IsVoid reports whether the message announces a void round.
func IsVoid(text string) bool {
	return strings.Contains(text, MarkerVoid)
}

// IsFinal reports whether the message carries the finalized marker.
func IsFinal(text string) bool {
	return strings.Contains(text, MarkerFinal)
}
