package service

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"accessible-backend/internal/apperr"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	namePattern    = regexp.MustCompile(`^[\p{L}\s\-.']+$`)
	phoneStrip     = regexp.MustCompile(`[^\d+]`)
	specialPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)

	domainTypos = []struct{ typo, fix string }{
		{"gmial", "gmail"},
		{"gmai", "gmail"},
		{"yahooo", "yahoo"},
		{"hotmial", "hotmail"},
		{"outlok", "outlook"},
	}

	weakPatterns = []struct{ pattern, suggestion string }{
		{"123", "Avoid number sequences such as 123"},
		{"abc", "Avoid letter sequences such as abc"},
		{"password", "Avoid the word 'password'"},
		{"qwerty", "Avoid keyboard patterns such as qwerty"},
		{"admin", "Avoid common words such as 'admin'"},
	}
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// ValidateEmail normalizes email and reports a field error with a correction
// hint when it is malformed.
func ValidateEmail(email string) (string, *apperr.FieldError) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", &apperr.FieldError{Field: "email", Message: "Email is required", Suggestion: "Enter your email address"}
	}

	if err := validatorInstance().Var(email, "email"); err != nil {
		fe := &apperr.FieldError{Field: "email", Message: "Email format is invalid"}
		local, domain, found := strings.Cut(email, "@")
		switch {
		case !found:
			fe.Suggestion = "Add the @ symbol followed by the domain (for example @gmail.com)"
		case strings.Contains(domain, "@"):
			fe.Suggestion = "Use only one @ symbol in your email"
		case domain == "":
			fe.Suggestion = "Add the domain after the @ (for example @gmail.com)"
		case !strings.Contains(domain, "."):
			fe.Suggestion = "Add a dot in the domain (for example gmail.com)"
		default:
			fe.Suggestion = "Check the email format"
		}
		if s := typoSuggestion(local, domain); s != "" {
			fe.Suggestion = s
		}
		return "", fe
	}

	local, domain, _ := strings.Cut(email, "@")
	if s := typoSuggestion(local, domain); s != "" {
		return "", &apperr.FieldError{Field: "email", Message: "Email domain looks misspelled", Suggestion: s}
	}
	return strings.ToLower(email), nil
}

func typoSuggestion(local, domain string) string {
	domain = strings.ToLower(domain)
	for _, t := range domainTypos {
		if strings.Contains(domain, t.typo) && !strings.Contains(domain, t.fix+".") {
			return fmt.Sprintf("Did you mean %s@%s?", local, strings.Replace(domain, t.typo, t.fix, 1))
		}
	}
	return ""
}

// PasswordStrength is the outcome of checking a candidate password.
type PasswordStrength struct {
	Valid       bool     `json:"valid"`
	Score       int      `json:"strength_score"`
	Level       string   `json:"strength_level"`
	Message     string   `json:"strength_message"`
	Problems    []string `json:"errors"`
	Suggestions []string `json:"suggestions"`
}

// CheckPassword scores password and lists what it is missing.
func CheckPassword(password string) PasswordStrength {
	if password == "" {
		return PasswordStrength{
			Level:       "very weak",
			Message:     "Password is required",
			Problems:    []string{"is required"},
			Suggestions: []string{"Enter a secure password"},
		}
	}

	var problems, suggestions []string
	score := 0

	if len(password) < 8 {
		problems = append(problems, "must be at least 8 characters long")
		suggestions = append(suggestions, "Add more characters")
	} else {
		score++
	}
	if len(password) >= 12 {
		score++
	}

	checks := []struct {
		ok         bool
		problem    string
		suggestion string
	}{
		{strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"), "must include an uppercase letter", "Add an uppercase letter (A-Z)"},
		{strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz"), "must include a lowercase letter", "Add a lowercase letter (a-z)"},
		{strings.ContainsAny(password, "0123456789"), "must include a number", "Add a number (0-9)"},
		{specialPattern.MatchString(password), "must include a special character", "Add a special character such as !@#$%^&*"},
	}
	for _, c := range checks {
		if c.ok {
			score++
			continue
		}
		problems = append(problems, c.problem)
		suggestions = append(suggestions, c.suggestion)
	}

	lower := strings.ToLower(password)
	for _, w := range weakPatterns {
		if strings.Contains(lower, w.pattern) {
			suggestions = append(suggestions, w.suggestion)
			score = max(0, score-1)
		}
	}

	s := PasswordStrength{Valid: len(problems) == 0, Score: score, Problems: problems, Suggestions: suggestions}
	switch {
	case score >= 5:
		s.Level, s.Message = "very strong", "Excellent password"
	case score >= 4:
		s.Level, s.Message = "strong", "Good password"
	case score >= 3:
		s.Level, s.Message = "moderate", "Acceptable password that could be stronger"
	case score >= 2:
		s.Level, s.Message = "weak", "Weak password that needs improvement"
	default:
		s.Level, s.Message = "very weak", "Very weak password that needs major changes"
	}
	if len(s.Suggestions) == 0 {
		s.Suggestions = []string{"The password meets the requirements"}
	}
	return s
}

// FieldError converts a failed check into a descriptor for the password field.
func (s PasswordStrength) FieldError() *apperr.FieldError {
	if s.Valid {
		return nil
	}
	return &apperr.FieldError{
		Field:      "password",
		Message:    "Password " + strings.Join(s.Problems, ", "),
		Suggestion: s.Suggestions[0],
	}
}

// ValidateName trims and title-cases a person's name. label is the
// human-readable field name used in messages.
func ValidateName(field, label, name string) (string, *apperr.FieldError) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", &apperr.FieldError{Field: field, Message: fmt.Sprintf("The %s is required", label), Suggestion: "Enter your " + label}
	case len([]rune(name)) < 2:
		return "", &apperr.FieldError{Field: field, Message: fmt.Sprintf("The %s must be at least 2 characters", label), Suggestion: "Enter your full " + label}
	case len([]rune(name)) > 50:
		return "", &apperr.FieldError{Field: field, Message: fmt.Sprintf("The %s cannot exceed 50 characters", label), Suggestion: "Use a shorter version of the name"}
	case !namePattern.MatchString(name):
		return "", &apperr.FieldError{Field: field, Message: fmt.Sprintf("The %s contains invalid characters", label), Suggestion: "Use only letters, spaces, hyphens and apostrophes"}
	}
	return cases.Title(language.Und).String(name), nil
}

// ValidatePhone strips formatting from phone. Ten-digit local numbers get
// the +57 country code. An empty phone is valid and clears the field.
func ValidatePhone(phone string) (string, *apperr.FieldError) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}

	clean := phoneStrip.ReplaceAllString(phone, "")
	switch {
	case len(clean) < 7:
		return "", &apperr.FieldError{Field: "phone", Message: "Phone number is too short", Suggestion: "Include the area code, for example +57 300 123 4567"}
	case len(clean) > 15:
		return "", &apperr.FieldError{Field: "phone", Message: "Phone number is too long", Suggestion: "Check for extra characters"}
	}

	if !strings.HasPrefix(clean, "+") && len(clean) == 10 {
		return "+57" + clean, nil
	}
	return clean, nil
}
