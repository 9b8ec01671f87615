package validation

import (
	"os"
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected bool
	}{
		{"Valid email", "user@example.com", true},
		{"Valid email with subdomain", "user@mail.example.com", true},
		{"Empty email", "", false},
		{"Email without @", "userexample.com", false},
		{"Email without domain", "user@", false},
		{"Email with spaces", "user @example.com", false},
		{"Valid email with numbers", "user123@example.com", true},
		{"Valid email with dots", "user.name@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateEmail(tt.email)
			if result != tt.expected {
				t.Errorf("ValidateEmail(%q) = %v, want %v", tt.email, result, tt.expected)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{"Email with uppercase", "User@EXAMPLE.COM", "user@example.com"},
		{"Email with spaces", "  user@example.com  ", "user@example.com"},
		{"Email with spaces and uppercase", "  USER@EXAMPLE.COM  ", "user@example.com"},
		{"Lowercase email", "user@example.com", "user@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeEmail(tt.email)
			if result != tt.expected {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.email, result, tt.expected)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		expected bool
	}{
		{"Long enough", "abcdefghij", true},
		{"Too short", "abcdef", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidatePassword(tt.password)
			if result != tt.expected {
				t.Errorf("ValidatePassword(%q) = %v, want %v", tt.password, result, tt.expected)
			}
		})
	}
}

func TestPasswordMinLength_Env(t *testing.T) {
	t.Setenv("PASSWORD_MIN_LENGTH", "12")
	if got := PasswordMinLength(); got != 12 {
		t.Errorf("PasswordMinLength() = %d, want 12", got)
	}

	// Values below 8 fall back to the default.
	t.Setenv("PASSWORD_MIN_LENGTH", "4")
	if got := PasswordMinLength(); got != 10 {
		t.Errorf("PasswordMinLength() = %d, want 10", got)
	}

	os.Unsetenv("PASSWORD_MIN_LENGTH")
	if got := PasswordMinLength(); got != 10 {
		t.Errorf("PasswordMinLength() = %d, want 10", got)
	}
}

func TestTrimAndLimit(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"Trims whitespace", "  hello  ", 100, "hello"},
		{"Cuts at limit", strings.Repeat("a", 20), 10, strings.Repeat("a", 10)},
		{"Under limit untouched", "short", 10, "short"},
		{"Zero max means no limit", strings.Repeat("b", 50), 0, strings.Repeat("b", 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TrimAndLimit(tt.input, tt.max)
			if result != tt.expected {
				t.Errorf("TrimAndLimit(%q, %d) = %q, want %q", tt.input, tt.max, result, tt.expected)
			}
		})
	}
}
