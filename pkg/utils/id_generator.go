package utils

import (
	"github.com/google/uuid"
)

// GenerateID generates a new plain UUID
func GenerateID() string {
	return uuid.New().String()
}

// GenerateLifecycleID generates a unique lifecycle ID
func GenerateLifecycleID() string {
	return "LIFECYCLE-" + uuid.New().String()
}

// GenerateConsentRecordID generates a unique opening consent record ID
func GenerateConsentRecordID() string {
	return "CONSENT-" + uuid.New().String()
}

// GenerateDeletionConsentRecordID generates a unique deletion consent record ID
func GenerateDeletionConsentRecordID() string {
	return "DCONSENT-" + uuid.New().String()
}

// GenerateLogID generates a unique action log ID
func GenerateLogID() string {
	return "LOG-" + uuid.New().String()
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
