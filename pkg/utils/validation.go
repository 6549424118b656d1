package utils

import (
	"fmt"
	"strings"
)

// ValidateCreatorID validates creator ID format
func ValidateCreatorID(creatorID string) error {
	if creatorID == "" {
		return fmt.Errorf("creator ID cannot be empty")
	}
	if len(creatorID) > 255 {
		return fmt.Errorf("creator ID too long (max 255 characters)")
	}
	return nil
}

// ValidateActorID validates the calling user's ID format
func ValidateActorID(actorID string) error {
	if actorID == "" {
		return fmt.Errorf("actor ID cannot be empty")
	}
	if len(actorID) > 255 {
		return fmt.Errorf("actor ID too long (max 255 characters)")
	}
	return nil
}

// ValidateRequired validates that a field is not empty
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateMaxLength validates maximum string length
func ValidateMaxLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%s exceeds maximum length of %d characters", fieldName, maxLength)
	}
	return nil
}

// SanitizeString removes dangerous characters from user input
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")
	// Trim whitespace
	input = strings.TrimSpace(input)
	return input
}
