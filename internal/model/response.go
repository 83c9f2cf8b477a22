package model

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthResult is what a successful register or login hands back.
type AuthResult struct {
	User   *User
	Tokens TokenPair
	// VerificationSent is set when a verification email went out.
	VerificationSent bool
}

// CapabilityReport pairs detected device capabilities with configuration
// suggestions.
type CapabilityReport struct {
	Capabilities DeviceCapabilities `json:"detected_capabilities"`
	Suggestions  []string           `json:"configuration_suggestions"`
}

// VoiceCommandCatalog is a filtered view of the voice command catalogue.
type VoiceCommandCatalog struct {
	Commands   []VoiceCommand            `json:"voice_commands"`
	ByCategory map[string][]VoiceCommand `json:"commands_by_category"`
	Categories []string                  `json:"available_categories"`
	Total      int                       `json:"total_commands"`
}
