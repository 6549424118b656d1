package utils

import (
	"strings"
	"testing"
)

func TestGenerateLifecycleID_Prefix(t *testing.T) {
	id := GenerateLifecycleID()
	if !strings.HasPrefix(id, "LIFECYCLE-") {
		t.Errorf("Expected LIFECYCLE- prefix, got %s", id)
	}
	if !IsValidUUID(strings.TrimPrefix(id, "LIFECYCLE-")) {
		t.Errorf("Expected valid UUID suffix, got %s", id)
	}
}

func TestGenerateConsentRecordID_Prefix(t *testing.T) {
	id := GenerateConsentRecordID()
	if !strings.HasPrefix(id, "CONSENT-") {
		t.Errorf("Expected CONSENT- prefix, got %s", id)
	}
}

func TestGenerateDeletionConsentRecordID_Prefix(t *testing.T) {
	id := GenerateDeletionConsentRecordID()
	if !strings.HasPrefix(id, "DCONSENT-") {
		t.Errorf("Expected DCONSENT- prefix, got %s", id)
	}
}

func TestGenerateLogID_Prefix(t *testing.T) {
	id := GenerateLogID()
	if !strings.HasPrefix(id, "LOG-") {
		t.Errorf("Expected LOG- prefix, got %s", id)
	}
}

func TestGenerateID_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateID()
		if seen[id] {
			t.Fatalf("Duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestIsValidUUID(t *testing.T) {
	if !IsValidUUID("550e8400-e29b-41d4-a716-446655440000") {
		t.Error("Expected canonical UUID to be valid")
	}
	if IsValidUUID("not-a-uuid") {
		t.Error("Expected malformed string to be invalid")
	}
	if IsValidUUID("") {
		t.Error("Expected empty string to be invalid")
	}
}
