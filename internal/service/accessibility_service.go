package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"accessible-backend/internal/apperr"
	"accessible-backend/internal/model"
)

type AccessibilityService struct {
	users *UserService
}

func NewAccessibilityService(users *UserService) *AccessibilityService {
	return &AccessibilityService{users: users}
}

func (s *AccessibilityService) GetPreferences(ctx context.Context, userID string) (model.AccessibilityPreferences, error) {
	user, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return model.AccessibilityPreferences{}, err
	}
	return user.Accessibility, nil
}

// PreferenceChange describes the outcome of a preferences update.
type PreferenceChange struct {
	// Updated lists the JSON names of the fields present in the request.
	Updated []string
	// Changes are short phrases suitable for reading aloud.
	Changes     []string
	Preferences model.AccessibilityPreferences
}

// Announcement summarizes the change for a screen reader.
func (c PreferenceChange) Announcement() string {
	if len(c.Changes) == 0 {
		return "Settings saved"
	}
	return "Settings saved. Updated: " + strings.Join(c.Changes, ", ")
}

// UpdatePreferences applies the non-nil fields of req. An empty request
// changes nothing and returns an empty Updated list.
func (s *AccessibilityService) UpdatePreferences(ctx context.Context, userID, userAgent string, req model.PreferencesUpdateRequest) (*PreferenceChange, error) {
	user, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	change := &PreferenceChange{}
	p := &user.Accessibility

	setString := func(name string, dst *string, v *string) {
		if v != nil {
			*dst = *v
			change.Updated = append(change.Updated, name)
		}
	}
	setBool := func(name string, dst *bool, v *bool) {
		if v != nil {
			*dst = *v
			change.Updated = append(change.Updated, name)
		}
	}

	setString("visual_impairment_level", &p.VisualImpairmentLevel, req.VisualImpairmentLevel)
	setBool("screen_reader_user", &p.ScreenReaderUser, req.ScreenReaderUser)
	if req.PreferredTTSSpeed != nil {
		p.PreferredTTSSpeed = *req.PreferredTTSSpeed
		change.Updated = append(change.Updated, "preferred_tts_speed")
	}
	setString("preferred_font_size", &p.PreferredFontSize, req.PreferredFontSize)
	setBool("high_contrast_mode", &p.HighContrastMode, req.HighContrastMode)
	setBool("dark_mode_enabled", &p.DarkModeEnabled, req.DarkModeEnabled)
	setBool("haptic_feedback_enabled", &p.HapticFeedbackEnabled, req.HapticFeedbackEnabled)
	setBool("audio_descriptions_enabled", &p.AudioDescriptionsEnabled, req.AudioDescriptionsEnabled)
	setBool("voice_commands_enabled", &p.VoiceCommandsEnabled, req.VoiceCommandsEnabled)
	setBool("gesture_navigation_enabled", &p.GestureNavigationEnabled, req.GestureNavigationEnabled)
	setBool("extended_timeout_needed", &p.ExtendedTimeoutNeeded, req.ExtendedTimeoutNeeded)
	setBool("slow_animations", &p.SlowAnimations, req.SlowAnimations)
	setBool("custom_notification_sounds", &p.CustomNotificationSounds, req.CustomNotificationSounds)
	setBool("audio_confirmation_enabled", &p.AudioConfirmationEnabled, req.AudioConfirmationEnabled)
	setBool("skip_repetitive_content", &p.SkipRepetitiveContent, req.SkipRepetitiveContent)
	setBool("landmark_navigation_preferred", &p.LandmarkNavigationPreferred, req.LandmarkNavigationPreferred)

	if len(change.Updated) == 0 {
		change.Preferences = user.Accessibility
		return change, nil
	}

	if v := req.VisualImpairmentLevel; v != nil {
		change.Changes = append(change.Changes, "visual impairment level to "+impairmentName(*v))
	}
	if v := req.ScreenReaderUser; v != nil {
		change.Changes = append(change.Changes, "screen reader use "+onOff(*v))
	}
	if v := req.PreferredTTSSpeed; v != nil {
		change.Changes = append(change.Changes, "speech speed to "+strconv.FormatFloat(*v, 'f', -1, 64))
	}
	if v := req.HighContrastMode; v != nil {
		change.Changes = append(change.Changes, "high contrast "+onOff(*v))
	}

	user.UpdatedAt = s.users.now().UTC()
	if err := s.users.store.UpdateUser(ctx, user); err != nil {
		return nil, apperr.Wrap(apperr.ErrDatabase, "Could not save the accessibility preferences", err)
	}

	s.users.logEventQuietly(ctx, userID, model.EventPreferenceChanged, map[string]any{
		"updated_fields": change.Updated,
	}, userAgent)

	change.Preferences = user.Accessibility
	return change, nil
}

func impairmentName(level string) string {
	switch level {
	case model.ImpairmentNone:
		return "no visual impairment"
	case model.ImpairmentLowVision:
		return "low vision"
	case model.ImpairmentBlind:
		return "blindness"
	}
	return "unknown"
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// DetectCapabilities records the reported device capabilities and suggests
// settings that fit them.
func (s *AccessibilityService) DetectCapabilities(ctx context.Context, userID, userAgent string, caps model.DeviceCapabilities) model.CapabilityReport {
	suggestions := make([]string, 0, 4)
	if caps.HasScreenReader {
		suggestions = append(suggestions, "A screen reader was detected. Consider turning on screen reader mode")
	}
	if caps.SupportsVoiceInput {
		suggestions = append(suggestions, "Your device supports voice input. You can turn on voice commands")
	}
	if caps.SupportsHaptic {
		suggestions = append(suggestions, "Your device supports vibration. Haptic feedback is available")
	}
	if caps.ScreenSize == "small" {
		suggestions = append(suggestions, "Small screen detected. Consider increasing the font size")
	}

	s.users.logEventQuietly(ctx, userID, model.EventFeatureUsed, map[string]any{
		"event":        "device_capabilities_detected",
		"capabilities": caps,
	}, userAgent)

	return model.CapabilityReport{Capabilities: caps, Suggestions: suggestions}
}

// VoiceCommands filters the catalogue. A level matches commands for that
// level and commands available to all; empty filters match everything.
func (s *AccessibilityService) VoiceCommands(level, category string) model.VoiceCommandCatalog {
	catalog := model.VoiceCommandCatalog{
		Commands:   make([]model.VoiceCommand, 0),
		ByCategory: make(map[string][]model.VoiceCommand),
		Categories: make([]string, 0),
	}

	for _, cmd := range model.VoiceCommands() {
		if level != "" && cmd.AccessibilityLevel != level && cmd.AccessibilityLevel != "all" {
			continue
		}
		if category != "" && cmd.Category != category {
			continue
		}
		catalog.Commands = append(catalog.Commands, cmd)
		if _, seen := catalog.ByCategory[cmd.Category]; !seen {
			catalog.Categories = append(catalog.Categories, cmd.Category)
		}
		catalog.ByCategory[cmd.Category] = append(catalog.ByCategory[cmd.Category], cmd)
	}
	catalog.Total = len(catalog.Commands)
	return catalog
}

// CatalogSummary describes a catalogue in one line.
func CatalogSummary(c model.VoiceCommandCatalog) string {
	return fmt.Sprintf("%d voice commands available in %d categories", c.Total, len(c.Categories))
}

// LogUsage records a client-reported use of an accessibility feature.
func (s *AccessibilityService) LogUsage(ctx context.Context, userID, userAgent string, req model.UsageLogRequest) error {
	success := true
	if req.Success != nil {
		success = *req.Success
	}
	if req.UserAgent != "" {
		userAgent = req.UserAgent
	}
	details := req.Details
	if details == nil {
		details = map[string]any{}
	}

	return s.users.LogEvent(ctx, userID, req.EventType, map[string]any{
		"feature_used": req.FeatureUsed,
		"details":      details,
		"timestamp":    req.Timestamp,
		"success":      success,
	}, userAgent)
}
