package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "JohnDoe", "johndoe"},
		{"trims whitespace", "  jane  ", "jane"},
		{"keeps allowed punctuation", "a_b-c.d", "a_b-c.d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeUsername(tt.input))
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid simple", "johndoe", false},
		{"valid with punctuation", "john_doe-1.2", false},
		{"empty", "", true},
		{"uppercase rejected", "JohnDoe", true},
		{"space rejected", "john doe", true},
		{"too long", strings.Repeat("a", 51), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid", "user@example.com", false},
		{"empty", "", true},
		{"missing at", "userexample.com", true},
		{"too long", strings.Repeat("a", 250) + "@x.co", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid with special", "Abc12!", false},
		{"valid with underscore", "Abc12_", false},
		{"too short", "Ab1!", true},
		{"no digit", "Abcdef!", true},
		{"no uppercase", "abc12!", true},
		{"no lowercase", "ABC12!", true},
		{"no special", "Abc123", true},
		{"contains space", "Abc 12!", true},
		{"too long", "A1!" + strings.Repeat("a", 70), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
