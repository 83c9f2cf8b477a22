package model

type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8,max=100"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`

	FirstName         string `json:"first_name" binding:"omitempty,max=50"`
	LastName          string `json:"last_name" binding:"omitempty,max=50"`
	PreferredLanguage string `json:"preferred_language" binding:"omitempty,oneof=es en"`

	VisualImpairmentLevel string `json:"visual_impairment_level" binding:"omitempty,oneof=blind low_vision none"`
	ScreenReaderUser      bool   `json:"screen_reader_user"`
}

type LoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ProfileUpdateRequest is a partial update; nil fields are left unchanged.
type ProfileUpdateRequest struct {
	FirstName         *string `json:"first_name"`
	LastName          *string `json:"last_name"`
	Phone             *string `json:"phone"`
	PreferredLanguage *string `json:"preferred_language" binding:"omitempty,oneof=es en"`
	Timezone          *string `json:"timezone" binding:"omitempty,max=64"`
}

// Empty reports whether the request changes nothing.
func (r ProfileUpdateRequest) Empty() bool {
	return r.FirstName == nil && r.LastName == nil && r.Phone == nil &&
		r.PreferredLanguage == nil && r.Timezone == nil
}

// PreferencesUpdateRequest is a partial update; nil fields are left unchanged.
type PreferencesUpdateRequest struct {
	VisualImpairmentLevel *string  `json:"visual_impairment_level" binding:"omitempty,oneof=blind low_vision none"`
	ScreenReaderUser      *bool    `json:"screen_reader_user"`
	PreferredTTSSpeed     *float64 `json:"preferred_tts_speed" binding:"omitempty,gte=0.5,lte=2"`
	PreferredFontSize     *string  `json:"preferred_font_size" binding:"omitempty,oneof=small medium large x-large"`
	HighContrastMode      *bool    `json:"high_contrast_mode"`
	DarkModeEnabled       *bool    `json:"dark_mode_enabled"`

	HapticFeedbackEnabled    *bool `json:"haptic_feedback_enabled"`
	AudioDescriptionsEnabled *bool `json:"audio_descriptions_enabled"`
	VoiceCommandsEnabled     *bool `json:"voice_commands_enabled"`
	GestureNavigationEnabled *bool `json:"gesture_navigation_enabled"`

	ExtendedTimeoutNeeded *bool `json:"extended_timeout_needed"`
	SlowAnimations        *bool `json:"slow_animations"`

	CustomNotificationSounds *bool `json:"custom_notification_sounds"`
	AudioConfirmationEnabled *bool `json:"audio_confirmation_enabled"`

	SkipRepetitiveContent       *bool `json:"skip_repetitive_content"`
	LandmarkNavigationPreferred *bool `json:"landmark_navigation_preferred"`
}

type DeleteAccountRequest struct {
	ConfirmDeletion string `json:"confirm_deletion"`
	Password        string `json:"password"`
}

type UsageLogRequest struct {
	FeatureUsed string         `json:"feature_used" binding:"required"`
	EventType   EventType      `json:"event_type" binding:"required"`
	Details     map[string]any `json:"details"`
	Timestamp   string         `json:"timestamp"`
	UserAgent   string         `json:"user_agent"`
	Success     *bool          `json:"success"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=100"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=NewPassword"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}
