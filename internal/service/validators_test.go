package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	email, fe := ValidateEmail("  Ana@Example.COM ")
	require.Nil(t, fe)
	assert.Equal(t, "ana@example.com", email)

	cases := []struct {
		in         string
		suggestion string
	}{
		{"", "Enter your email address"},
		{"ana.example.com", "Add the @ symbol followed by the domain (for example @gmail.com)"},
		{"ana@gmial.com", "Did you mean ana@gmail.com?"},
		{"ana@hotmial.com", "Did you mean ana@hotmail.com?"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			_, fe := ValidateEmail(tc.in)
			require.NotNil(t, fe)
			assert.Equal(t, "email", fe.Field)
			assert.Equal(t, tc.suggestion, fe.Suggestion)
		})
	}

	_, fe = ValidateEmail("ana@gmail.com")
	assert.Nil(t, fe)
}

func TestCheckPassword(t *testing.T) {
	strong := CheckPassword(strongPassword)
	assert.True(t, strong.Valid)
	assert.Equal(t, "very strong", strong.Level)
	assert.Nil(t, strong.FieldError())

	weak := CheckPassword("abc")
	assert.False(t, weak.Valid)
	assert.Contains(t, weak.Problems, "must be at least 8 characters long")
	assert.Contains(t, weak.Problems, "must include an uppercase letter")
	assert.Contains(t, weak.Suggestions, "Avoid letter sequences such as abc")
	fe := weak.FieldError()
	require.NotNil(t, fe)
	assert.Equal(t, "password", fe.Field)

	empty := CheckPassword("")
	assert.False(t, empty.Valid)
	assert.Equal(t, 0, empty.Score)

	pattern := CheckPassword("Admin123!xyzw")
	assert.True(t, pattern.Valid)
	assert.Less(t, pattern.Score, 6)
}

func TestValidateName(t *testing.T) {
	name, fe := ValidateName("first_name", "first name", " juan carlos ")
	require.Nil(t, fe)
	assert.Equal(t, "Juan Carlos", name)

	_, fe = ValidateName("last_name", "last name", "O'Neil-Smith")
	assert.Nil(t, fe)

	for _, bad := range []string{"", "a", "John3", string(make([]rune, 51))} {
		_, fe := ValidateName("first_name", "first name", bad)
		assert.NotNil(t, fe, bad)
	}
}

func TestValidatePhone(t *testing.T) {
	cases := []struct {
		in, want string
		ok       bool
	}{
		{"", "", true},
		{"300 123 4567", "+573001234567", true},
		{"+1 (555) 123-4567", "+15551234567", true},
		{"1234567", "1234567", true},
		{"123", "", false},
		{"1234567890123456", "", false},
	}
	for _, tc := range cases {
		got, fe := ValidatePhone(tc.in)
		if tc.ok {
			assert.Nil(t, fe, tc.in)
			assert.Equal(t, tc.want, got, tc.in)
		} else {
			assert.NotNil(t, fe, tc.in)
		}
	}
}
