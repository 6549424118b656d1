package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Audit log action names
const (
	ActionDeathReported        = "death_reported"
	ActionDeathReportCancelled = "death_report_cancelled"
	ActionConsentInitiated     = "consent_initiated"
	ActionConsentSubmitted     = "consent_submitted"
	ActionConsentReset         = "consent_reset"
	ActionNoteOpened           = "note_opened"
	ActionDeletionInitiated    = "deletion_initiated"
	ActionDeletionConsented    = "deletion_consent_submitted"
	ActionDeletionDeclined     = "deletion_declined"
	ActionDeletionCancelled    = "deletion_cancelled"
	ActionDataErased           = "data_erased"
	ActionConsentAutoResolved  = "consent_auto_resolved"
	ActionAutoResolveReverted  = "auto_resolve_reverted"
)

// LifecycleActionLog represents the append-only LC_ACTION_LOG table
type LifecycleActionLog struct {
	LogID       string `db:"LOG_ID" json:"logId"`
	LifecycleID string `db:"LIFECYCLE_ID" json:"lifecycleId"`
	Action      string `db:"ACTION" json:"action"`
	PerformedBy string `db:"PERFORMED_BY" json:"performedBy"`
	Metadata    JSON   `db:"METADATA" json:"metadata,omitempty"`
	ActionTime  int64  `db:"ACTION_TIME" json:"actionTime"`
}

// JSON type for handling JSON fields in MySQL
type JSON json.RawMessage

// Scan implements the sql.Scanner interface for JSON
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported type for JSON: %T", value)
	}

	var temp interface{}
	if err := json.Unmarshal(bytes, &temp); err != nil {
		return fmt.Errorf("invalid JSON data: %w", err)
	}

	*j = JSON(bytes)
	return nil
}

// Value implements the driver.Valuer interface for JSON
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// MarshalJSON implements json.Marshaler
func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler
func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = JSON(data)
	return nil
}

// MetadataJSON marshals arbitrary audit metadata into the JSON column type.
// Marshal failures fall back to an empty object so an audit write never
// fails the primary operation.
func MetadataJSON(metadata map[string]interface{}) JSON {
	if len(metadata) == 0 {
		return nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return JSON([]byte("{}"))
	}
	return JSON(data)
}
