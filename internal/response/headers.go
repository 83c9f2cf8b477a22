package response

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Signaling headers attached to every response.
const (
	HeaderContentAccessible     = "X-Content-Accessible"
	HeaderScreenReaderFriendly  = "X-Screen-Reader-Friendly"
	HeaderHighContrastAvailable = "X-High-Contrast-Available"
	HeaderVoiceCommands         = "X-Voice-Commands-Supported"
	HeaderProcessTime           = "X-Process-Time"

	// Only set when the client looks like assistive technology.
	HeaderAssistiveTechDetected = "X-Assistive-Tech-Detected"
	HeaderExtendedTimeout       = "X-Extended-Timeout"
)

// StaticHeaders returns the request-independent signaling headers. A new
// slice is returned on each call.
func StaticHeaders() [][2]string {
	return [][2]string{
		{HeaderContentAccessible, "true"},
		{HeaderScreenReaderFriendly, "true"},
		{HeaderHighContrastAvailable, "true"},
		{HeaderVoiceCommands, "true"},
	}
}

// ExposedHeaders lists every header a browser client must be allowed to read.
func ExposedHeaders() []string {
	return []string{
		HeaderContentAccessible,
		HeaderScreenReaderFriendly,
		HeaderHighContrastAvailable,
		HeaderVoiceCommands,
		HeaderProcessTime,
		HeaderAssistiveTechDetected,
		HeaderExtendedTimeout,
		"Retry-After",
		"X-RateLimit-Limit",
		"X-RateLimit-Remaining",
		"X-RateLimit-Reset",
		"X-Accessibility-Bonus",
		"X-Request-ID",
	}
}

// ProcessTime formats the time spent between start and end in seconds,
// rounded to four decimals. It never returns a negative value.
func ProcessTime(start, end time.Time) string {
	elapsed := end.Sub(start).Seconds()
	if elapsed < 0 || math.IsNaN(elapsed) {
		elapsed = 0
	}
	return strconv.FormatFloat(math.Round(elapsed*1e4)/1e4, 'f', 4, 64)
}

var assistiveIndicators = []string{
	"nvda",
	"jaws",
	"voiceover",
	"talkback",
	"orca",
	"dragon",
	"screenreader",
	"accessibility",
}

// IsAssistiveUserAgent reports whether a User-Agent string names a known
// screen reader or speech tool.
func IsAssistiveUserAgent(userAgent string) bool {
	ua := strings.ToLower(userAgent)
	for _, indicator := range assistiveIndicators {
		if strings.Contains(ua, indicator) {
			return true
		}
	}
	return false
}
