package utils

import (
	"strings"
	"testing"
)

func TestValidateCreatorID(t *testing.T) {
	if err := ValidateCreatorID("creator-123"); err != nil {
		t.Errorf("Expected 'creator-123' to be valid, got error: %v", err)
	}

	if err := ValidateCreatorID(""); err == nil {
		t.Error("Expected empty creator ID to be invalid")
	}

	if err := ValidateCreatorID(strings.Repeat("a", 256)); err == nil {
		t.Error("Expected over-length creator ID to be invalid")
	}

	if err := ValidateCreatorID(strings.Repeat("a", 255)); err != nil {
		t.Errorf("Expected 255-character creator ID to be valid, got error: %v", err)
	}
}

func TestValidateActorID(t *testing.T) {
	if err := ValidateActorID("user-42"); err != nil {
		t.Errorf("Expected 'user-42' to be valid, got error: %v", err)
	}

	if err := ValidateActorID(""); err == nil {
		t.Error("Expected empty actor ID to be invalid")
	}
}

func TestValidateRequired(t *testing.T) {
	if err := ValidateRequired("Name", "value"); err != nil {
		t.Errorf("Expected non-empty value to be valid, got error: %v", err)
	}

	if err := ValidateRequired("Name", ""); err == nil {
		t.Error("Expected empty value to be invalid")
	}

	if err := ValidateRequired("Name", "   "); err == nil {
		t.Error("Expected whitespace-only value to be invalid")
	}
}

func TestValidateMaxLength(t *testing.T) {
	if err := ValidateMaxLength("Field", "abc", 3); err != nil {
		t.Errorf("Expected value at limit to be valid, got error: %v", err)
	}

	if err := ValidateMaxLength("Field", "abcd", 3); err == nil {
		t.Error("Expected over-limit value to be invalid")
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello  "); got != "hello" {
		t.Errorf("Expected trimmed string, got %q", got)
	}

	if got := SanitizeString("he\x00llo"); got != "hello" {
		t.Errorf("Expected null bytes removed, got %q", got)
	}
}
