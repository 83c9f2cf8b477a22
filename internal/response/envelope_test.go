package response

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envelopeKeys = []string{"success", "message", "message_type", "data", "accessibility_info", "errors", "timestamp"}

func decode(t *testing.T, env Envelope) map[string]any {
	t.Helper()
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestBuild_LoginSuccessExample(t *testing.T) {
	env := Build(Input{
		Success: true,
		Message: "Login successful",
		Data:    map[string]any{"user_id": "123"},
		Accessibility: &Hints{
			Announcement:  "You are now logged in",
			FocusElement:  "dashboard",
			HapticPattern: HapticSuccess,
		},
	})

	assert.True(t, env.Success)
	assert.Equal(t, MessageSuccess, env.MessageType)
	assert.Empty(t, env.Errors)
	assert.NotNil(t, env.Errors)
	assert.Equal(t, HapticSuccess, env.AccessibilityInfo.HapticPattern)
	assert.Equal(t, "You are now logged in", env.AccessibilityInfo.Announcement)
	assert.Equal(t, "dashboard", env.AccessibilityInfo.FocusElement)
	assert.Equal(t, "123", env.Data["user_id"])
}

func TestBuild_InvalidCredentialsExample(t *testing.T) {
	env := Build(Input{
		Success: false,
		Message: "Invalid credentials",
		Errors:  []ErrorDetail{{Field: "password", Message: "incorrect"}},
	})

	assert.False(t, env.Success)
	assert.Equal(t, MessageError, env.MessageType)
	assert.Empty(t, env.Data)
	assert.Len(t, env.Errors, 1)
	assert.Equal(t, HapticError, env.AccessibilityInfo.HapticPattern)
	assert.Equal(t, "Invalid credentials", env.AccessibilityInfo.Announcement)
}

func TestBuild_EveryFieldSerialized(t *testing.T) {
	inputs := []Input{
		{},
		{Success: true},
		{Success: false, Message: "nope"},
		{Success: true, Message: "ok", Data: map[string]any{"a": 1}},
		{Success: false, Type: MessageWarning, Accessibility: &Hints{}},
	}
	for _, in := range inputs {
		out := decode(t, Build(in))
		for _, key := range envelopeKeys {
			assert.Contains(t, out, key)
		}
		info := out["accessibility_info"].(map[string]any)
		assert.Contains(t, info, "announcement")
		assert.Contains(t, info, "haptic_pattern")
		assert.NotNil(t, out["data"])
		assert.NotNil(t, out["errors"])
		assert.NotEmpty(t, out["message"])
	}
}

func TestBuild_FailureWithoutErrorsGetsDescriptor(t *testing.T) {
	env := Build(Input{Success: false, Message: "Server error"})

	require.Len(t, env.Errors, 1)
	assert.Equal(t, GeneralField, env.Errors[0].Field)
	assert.Equal(t, "Server error", env.Errors[0].Message)
}

func TestBuild_SuccessDropsErrors(t *testing.T) {
	env := Build(Input{
		Success: true,
		Message: "done",
		Errors:  []ErrorDetail{{Field: "x", Message: "stale"}},
	})
	assert.Empty(t, env.Errors)
}

func TestBuild_FailureDropsData(t *testing.T) {
	env := Build(Input{Success: false, Message: "bad", Data: map[string]any{"status_code": 400}})
	assert.Empty(t, env.Data)
}

func TestBuild_TypeAndHapticConsistency(t *testing.T) {
	tests := []struct {
		name       string
		in         Input
		wantType   MessageType
		wantHaptic HapticPattern
	}{
		{"success default", Input{Success: true}, MessageSuccess, HapticSuccess},
		{"success info requested", Input{Success: true, Type: MessageInfo}, MessageInfo, HapticInfo},
		{"success info haptic", Input{Success: true, Accessibility: &Hints{HapticPattern: HapticInfo}}, MessageInfo, HapticInfo},
		{"success error haptic normalized", Input{Success: true, Accessibility: &Hints{HapticPattern: HapticError}}, MessageSuccess, HapticSuccess},
		{"success error type ignored", Input{Success: true, Type: MessageError}, MessageSuccess, HapticSuccess},
		{"failure default", Input{}, MessageError, HapticError},
		{"failure warning requested", Input{Type: MessageWarning}, MessageWarning, HapticWarning},
		{"failure warning haptic", Input{Accessibility: &Hints{HapticPattern: HapticWarning}}, MessageWarning, HapticWarning},
		{"failure success haptic normalized", Input{Accessibility: &Hints{HapticPattern: HapticSuccess}}, MessageError, HapticError},
		{"failure success type ignored", Input{Type: MessageSuccess}, MessageError, HapticError},
		{"failure error type warning haptic", Input{Type: MessageError, Accessibility: &Hints{HapticPattern: HapticWarning}}, MessageError, HapticWarning},
		{"unknown haptic normalized", Input{Success: true, Accessibility: &Hints{HapticPattern: "buzz"}}, MessageSuccess, HapticSuccess},
		{"unknown type normalized", Input{Type: "loud"}, MessageError, HapticError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Build(tt.in)
			assert.True(t, env.MessageType.Valid())
			assert.True(t, env.AccessibilityInfo.HapticPattern.Valid())
			assert.Equal(t, tt.wantType, env.MessageType)
			assert.Equal(t, tt.wantHaptic, env.AccessibilityInfo.HapticPattern)
		})
	}
}

func TestBuild_FocusElementNotFabricated(t *testing.T) {
	out := decode(t, Build(Input{Success: true, Message: "ok"}))
	info := out["accessibility_info"].(map[string]any)
	assert.NotContains(t, info, "focus_element")
}

func TestBuildAt_TimestampFormat(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 123456789, time.FixedZone("COT", -5*3600))
	out := decode(t, BuildAt(Input{Success: true}, at))
	assert.Equal(t, "2024-03-09T19:05:07.123Z", out["timestamp"])
}

func TestTimestamp_RoundTrip(t *testing.T) {
	env := Build(Input{Success: true, Message: "ok"})
	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var back Envelope
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, env.Timestamp.Time().Equal(back.Timestamp.Time()))
}

func TestNow_MonotonicNonDecreasing(t *testing.T) {
	prev := Build(Input{Success: true}).Timestamp.Time()
	for i := 0; i < 1000; i++ {
		cur := Build(Input{Success: true}).Timestamp.Time()
		assert.False(t, cur.Before(prev), "timestamp went backwards at %d", i)
		prev = cur
	}
}

func TestBuild_ConcurrentUse(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			env := Build(Input{Success: i%2 == 0, Message: "m"})
			if i%2 == 0 {
				assert.Empty(t, env.Errors)
			} else {
				assert.NotEmpty(t, env.Errors)
			}
		}(i)
	}
	wg.Wait()
}

func TestBuild_CallerErrorsNotAliased(t *testing.T) {
	errs := []ErrorDetail{{Field: "email", Message: "bad"}}
	env := Failure("invalid", nil, errs...)
	errs[0].Message = "changed"
	assert.Equal(t, "bad", env.Errors[0].Message)
}

func TestSuccessAndFailureHelpers(t *testing.T) {
	ok := Success("saved", nil, &Hints{FocusElement: "main-content"})
	assert.True(t, ok.Success)
	assert.NotNil(t, ok.Data)
	assert.Equal(t, "main-content", ok.AccessibilityInfo.FocusElement)

	bad := Failure("", nil)
	assert.False(t, bad.Success)
	assert.NotEmpty(t, bad.Message)
	assert.Len(t, bad.Errors, 1)
}

func TestBuild_CallerDataNotAliased(t *testing.T) {
	data := map[string]any{"a": 1}
	env := Success("ok", data, nil)
	data["a"] = 2
	data["b"] = 3

	assert.Equal(t, 1, env.Data["a"])
	assert.NotContains(t, env.Data, "b")
}

func TestBuild_ErrorDetailsAlwaysCarryMessage(t *testing.T) {
	env := Failure("bad", nil, ErrorDetail{Field: "x"}, ErrorDetail{Message: "only message"})

	require.Len(t, env.Errors, 2)
	assert.Equal(t, "x", env.Errors[0].Field)
	assert.Equal(t, "bad", env.Errors[0].Message)
	assert.Equal(t, GeneralField, env.Errors[1].Field)
	assert.Equal(t, "only message", env.Errors[1].Message)
}
