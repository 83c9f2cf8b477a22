package model

import "time"

// EventType classifies an entry in a user's accessibility activity log.
type EventType string

const (
	EventPreferenceChanged EventType = "preference_changed"
	EventErrorEncountered  EventType = "error_encountered"
	EventFeatureUsed       EventType = "feature_used"
	EventTTSUsed           EventType = "tts_used"
	EventVoiceCommandUsed  EventType = "voice_command_used"
	EventNavigationError   EventType = "navigation_error"
)

func (e EventType) Valid() bool {
	switch e {
	case EventPreferenceChanged, EventErrorEncountered, EventFeatureUsed,
		EventTTSUsed, EventVoiceCommandUsed, EventNavigationError:
		return true
	}
	return false
}

type AccessibilityEvent struct {
	ID         string         `json:"id" bson:"_id"`
	UserID     string         `json:"user_id" bson:"user_id"`
	Timestamp  time.Time      `json:"timestamp" bson:"timestamp"`
	EventType  EventType      `json:"event_type" bson:"event_type"`
	Details    map[string]any `json:"details" bson:"details"`
	UserAgent  string         `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
	AppVersion string         `json:"app_version,omitempty" bson:"app_version,omitempty"`
}

type VoiceCommand struct {
	Command            string   `json:"command"`
	Description        string   `json:"description"`
	Examples           []string `json:"examples"`
	Category           string   `json:"category"`
	AccessibilityLevel string   `json:"accessibility_level"`
}

// VoiceCommands is the catalogue of commands clients can recognise.
func VoiceCommands() []VoiceCommand {
	return []VoiceCommand{
		{
			Command:            "go home",
			Description:        "Navigate to the main page",
			Examples:           []string{"go to start", "main page", "home"},
			Category:           "navigation",
			AccessibilityLevel: "all",
		},
		{
			Command:            "read content",
			Description:        "Read the current screen content aloud",
			Examples:           []string{"read page", "what does it say", "read everything"},
			Category:           "reading",
			AccessibilityLevel: ImpairmentBlind,
		},
		{
			Command:            "increase contrast",
			Description:        "Turn on high contrast mode",
			Examples:           []string{"high contrast", "more contrast", "contrast"},
			Category:           "visual",
			AccessibilityLevel: ImpairmentLowVision,
		},
		{
			Command:            "dark mode",
			Description:        "Switch to the dark theme",
			Examples:           []string{"dark theme", "turn on dark mode"},
			Category:           "visual",
			AccessibilityLevel: "all",
		},
		{
			Command:            "increase text size",
			Description:        "Make the font larger",
			Examples:           []string{"bigger text", "enlarge letters"},
			Category:           "visual",
			AccessibilityLevel: ImpairmentLowVision,
		},
		{
			Command:            "enable voice assistant",
			Description:        "Turn on voice commands",
			Examples:           []string{"enable voice", "voice commands"},
			Category:           "interaction",
			AccessibilityLevel: "all",
		},
	}
}

type DeviceCapabilities struct {
	HasScreenReader    bool   `json:"has_screen_reader"`
	SupportsHaptic     bool   `json:"supports_haptic"`
	SupportsVoiceInput bool   `json:"supports_voice_input"`
	SupportsTTS        bool   `json:"supports_tts"`
	ScreenSize         string `json:"screen_size,omitempty" binding:"omitempty,oneof=small medium large"`
	ConnectionType     string `json:"connection_type,omitempty" binding:"omitempty,oneof=wifi cellular unknown"`
	Platform           string `json:"platform,omitempty" binding:"omitempty,oneof=android ios web"`
}
