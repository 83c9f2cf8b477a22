// Package response builds the accessible response envelope that every
// endpoint returns, plus the values of the accessibility signaling headers.
//
// The builder is stateless: it holds no locks and keeps nothing between
// calls, so handlers may invoke it from any number of goroutines.
package response

import (
	"encoding/json"
	"maps"
	"time"
)

// MessageType drives how a client presents an envelope.
type MessageType string

const (
	MessageSuccess MessageType = "success"
	MessageError   MessageType = "error"
	MessageWarning MessageType = "warning"
	MessageInfo    MessageType = "info"
)

// Valid reports whether t is one of the four known message types.
func (t MessageType) Valid() bool {
	switch t {
	case MessageSuccess, MessageError, MessageWarning, MessageInfo:
		return true
	}
	return false
}

// HapticPattern selects the vibration signature a client plays.
type HapticPattern string

const (
	HapticSuccess HapticPattern = "success"
	HapticError   HapticPattern = "error"
	HapticWarning HapticPattern = "warning"
	HapticInfo    HapticPattern = "info"
)

// Valid reports whether p is one of the four known haptic patterns.
func (p HapticPattern) Valid() bool {
	switch p {
	case HapticSuccess, HapticError, HapticWarning, HapticInfo:
		return true
	}
	return false
}

// TimestampLayout is ISO-8601 with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// GeneralField is used for error descriptors not tied to an input field.
const GeneralField = "general"

// ErrorDetail describes one problem with a request.
type ErrorDetail struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
	Code       string `json:"code,omitempty"`
}

// AccessibilityInfo is what assistive technology reads from an envelope.
type AccessibilityInfo struct {
	Announcement  string        `json:"announcement"`
	FocusElement  string        `json:"focus_element,omitempty"`
	HapticPattern HapticPattern `json:"haptic_pattern"`
}

// Envelope is the canonical body of every API response.
type Envelope struct {
	Success           bool              `json:"success"`
	Message           string            `json:"message"`
	MessageType       MessageType       `json:"message_type"`
	Data              map[string]any    `json:"data"`
	AccessibilityInfo AccessibilityInfo `json:"accessibility_info"`
	Errors            []ErrorDetail     `json:"errors"`
	Timestamp         Timestamp         `json:"timestamp"`
}

// Hints are optional accessibility overrides supplied by a handler.
type Hints struct {
	Announcement  string
	FocusElement  string
	HapticPattern HapticPattern
}

// Input is everything a handler knows about the outcome of a request.
type Input struct {
	Success       bool
	Message       string
	Type          MessageType
	Data          map[string]any
	Accessibility *Hints
	Errors        []ErrorDetail
}

// Timestamp marshals as a UTC ISO-8601 string with millisecond precision.
type Timestamp time.Time

func (t Timestamp) Time() time.Time { return time.Time(t) }

func (t Timestamp) String() string {
	return time.Time(t).UTC().Format(TimestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// processStart anchors Now to the monotonic clock. It is written once at
// package init and only read afterwards.
var processStart = time.Now()

// Now returns the current UTC instant, truncated to milliseconds. Successive
// calls in one process never go backwards, even if the wall clock is stepped.
func Now() time.Time {
	return processStart.Add(time.Since(processStart)).UTC().Truncate(time.Millisecond)
}

// Build assembles an envelope stamped with Now.
func Build(in Input) Envelope {
	return BuildAt(in, Now())
}

// BuildAt assembles an envelope stamped with at. It never fails: inconsistent
// or missing input is normalized so the invariants below always hold.
//
//   - success => message_type in {success, info}, errors empty
//   - failure => message_type in {error, warning}, errors non-empty, data empty
//   - haptic_pattern agrees with success the same way message_type does
//   - data is a shallow copy and every error detail carries a message
func BuildAt(in Input, at time.Time) Envelope {
	var hints Hints
	if in.Accessibility != nil {
		hints = *in.Accessibility
	}

	msgType := resolveType(in.Success, in.Type, hints.HapticPattern)

	message := in.Message
	if message == "" {
		message = defaultMessage(msgType)
	}

	announcement := hints.Announcement
	if announcement == "" {
		announcement = message
	}

	data := map[string]any{}
	errs := []ErrorDetail{}
	if in.Success {
		maps.Copy(data, in.Data)
	} else {
		if len(in.Errors) > 0 {
			for _, e := range in.Errors {
				if e.Message == "" {
					e.Message = message
				}
				if e.Field == "" {
					e.Field = GeneralField
				}
				errs = append(errs, e)
			}
		} else {
			errs = append(errs, ErrorDetail{Field: GeneralField, Message: message})
		}
	}

	return Envelope{
		Success:     in.Success,
		Message:     message,
		MessageType: msgType,
		Data:        data,
		AccessibilityInfo: AccessibilityInfo{
			Announcement:  announcement,
			FocusElement:  hints.FocusElement,
			HapticPattern: resolveHaptic(in.Success, msgType, hints.HapticPattern),
		},
		Errors:    errs,
		Timestamp: Timestamp(at.UTC().Truncate(time.Millisecond)),
	}
}

// Success is shorthand for a successful envelope.
func Success(message string, data map[string]any, hints *Hints) Envelope {
	return Build(Input{Success: true, Message: message, Data: data, Accessibility: hints})
}

// Failure is shorthand for an error envelope.
func Failure(message string, hints *Hints, errs ...ErrorDetail) Envelope {
	return Build(Input{Success: false, Message: message, Accessibility: hints, Errors: errs})
}

func resolveType(success bool, requested MessageType, haptic HapticPattern) MessageType {
	if success {
		if requested == MessageInfo || (requested == "" && haptic == HapticInfo) {
			return MessageInfo
		}
		return MessageSuccess
	}
	if requested == MessageWarning || (requested == "" && haptic == HapticWarning) {
		return MessageWarning
	}
	return MessageError
}

func resolveHaptic(success bool, msgType MessageType, requested HapticPattern) HapticPattern {
	if requested.Valid() && consistent(success, requested) {
		return requested
	}
	return HapticPattern(msgType)
}

func consistent(success bool, p HapticPattern) bool {
	if success {
		return p == HapticSuccess || p == HapticInfo
	}
	return p == HapticError || p == HapticWarning
}

func defaultMessage(t MessageType) string {
	switch t {
	case MessageSuccess:
		return "Operation completed successfully"
	case MessageInfo:
		return "Information"
	case MessageWarning:
		return "Please review the request"
	default:
		return "The operation could not be completed"
	}
}
