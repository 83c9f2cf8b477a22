package model

import "time"

// Visual impairment levels.
const (
	ImpairmentNone      = "none"
	ImpairmentLowVision = "low_vision"
	ImpairmentBlind     = "blind"
)

type User struct {
	ID            string                   `json:"id" bson:"_id"`
	Email         string                   `json:"email" bson:"email"`
	PasswordHash  string                   `json:"-" bson:"password_hash"`
	CreatedAt     time.Time                `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at" bson:"updated_at"`
	IsActive      bool                     `json:"is_active" bson:"is_active"`
	IsVerified    bool                     `json:"is_verified" bson:"is_verified"`
	Profile       Profile                  `json:"profile" bson:"profile"`
	Accessibility AccessibilityPreferences `json:"accessibility" bson:"accessibility"`
	Security      Security                 `json:"-" bson:"security"`
}

type Profile struct {
	FirstName         string `json:"first_name,omitempty" bson:"first_name,omitempty"`
	LastName          string `json:"last_name,omitempty" bson:"last_name,omitempty"`
	Phone             string `json:"phone,omitempty" bson:"phone,omitempty"`
	PreferredLanguage string `json:"preferred_language" bson:"preferred_language"`
	Timezone          string `json:"timezone" bson:"timezone"`
}

type Security struct {
	FailedLoginAttempts int        `bson:"failed_login_attempts"`
	LastLogin           *time.Time `bson:"last_login,omitempty"`
	AccountLockedUntil  *time.Time `bson:"account_locked_until,omitempty"`

	EmailVerification *OneTimeToken `bson:"email_verification,omitempty"`
	PasswordReset     *OneTimeToken `bson:"password_reset,omitempty"`
}

// TokenPurpose names what a one-time token unlocks.
type TokenPurpose string

const (
	PurposeEmailVerification TokenPurpose = "email_verification"
	PurposePasswordReset     TokenPurpose = "password_reset"
)

// OneTimeToken is the stored half of an emailed token. Only the hash is
// kept; the plain value exists in the email alone.
type OneTimeToken struct {
	Hash      string    `bson:"hash"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// ValidAt reports whether the token exists and has not expired at now.
func (t *OneTimeToken) ValidAt(now time.Time) bool {
	return t != nil && now.Before(t.ExpiresAt)
}

// Token returns the stored token for purpose, or nil.
func (s Security) Token(purpose TokenPurpose) *OneTimeToken {
	switch purpose {
	case PurposeEmailVerification:
		return s.EmailVerification
	case PurposePasswordReset:
		return s.PasswordReset
	}
	return nil
}

// LockedAt reports whether the account is locked at instant now.
func (s Security) LockedAt(now time.Time) bool {
	return s.AccountLockedUntil != nil && s.AccountLockedUntil.After(now)
}

type AccessibilityPreferences struct {
	VisualImpairmentLevel string  `json:"visual_impairment_level" bson:"visual_impairment_level"`
	ScreenReaderUser      bool    `json:"screen_reader_user" bson:"screen_reader_user"`
	PreferredTTSSpeed     float64 `json:"preferred_tts_speed" bson:"preferred_tts_speed"`
	PreferredFontSize     string  `json:"preferred_font_size" bson:"preferred_font_size"`
	HighContrastMode      bool    `json:"high_contrast_mode" bson:"high_contrast_mode"`
	DarkModeEnabled       bool    `json:"dark_mode_enabled" bson:"dark_mode_enabled"`

	HapticFeedbackEnabled    bool `json:"haptic_feedback_enabled" bson:"haptic_feedback_enabled"`
	AudioDescriptionsEnabled bool `json:"audio_descriptions_enabled" bson:"audio_descriptions_enabled"`
	VoiceCommandsEnabled     bool `json:"voice_commands_enabled" bson:"voice_commands_enabled"`
	GestureNavigationEnabled bool `json:"gesture_navigation_enabled" bson:"gesture_navigation_enabled"`

	ExtendedTimeoutNeeded bool `json:"extended_timeout_needed" bson:"extended_timeout_needed"`
	SlowAnimations        bool `json:"slow_animations" bson:"slow_animations"`

	CustomNotificationSounds bool `json:"custom_notification_sounds" bson:"custom_notification_sounds"`
	AudioConfirmationEnabled bool `json:"audio_confirmation_enabled" bson:"audio_confirmation_enabled"`

	SkipRepetitiveContent       bool `json:"skip_repetitive_content" bson:"skip_repetitive_content"`
	LandmarkNavigationPreferred bool `json:"landmark_navigation_preferred" bson:"landmark_navigation_preferred"`
}

// DefaultPreferences returns the settings a new account starts with.
func DefaultPreferences() AccessibilityPreferences {
	return AccessibilityPreferences{
		VisualImpairmentLevel:       ImpairmentNone,
		PreferredTTSSpeed:           1.0,
		PreferredFontSize:           "medium",
		HapticFeedbackEnabled:       true,
		GestureNavigationEnabled:    true,
		AudioConfirmationEnabled:    true,
		SkipRepetitiveContent:       true,
		LandmarkNavigationPreferred: true,
	}
}

// NeedsAccommodation reports whether the preferences mark a user who should
// get relaxed limits and timeouts.
func (p AccessibilityPreferences) NeedsAccommodation() bool {
	return p.ScreenReaderUser ||
		p.VisualImpairmentLevel == ImpairmentBlind ||
		p.VisualImpairmentLevel == ImpairmentLowVision ||
		p.ExtendedTimeoutNeeded ||
		p.VoiceCommandsEnabled
}

// DefaultProfile returns an empty profile with locale defaults.
func DefaultProfile() Profile {
	return Profile{
		PreferredLanguage: "es",
		Timezone:          "America/Bogota",
	}
}
