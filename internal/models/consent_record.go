package models

// ConsentDecision is the tri-state vote value. A pending vote is distinct
// from a declined one.
type ConsentDecision string

const (
	DecisionPending  ConsentDecision = "pending"
	DecisionAgreed   ConsentDecision = "agreed"
	DecisionDeclined ConsentDecision = "declined"
)

// ConsentRecord represents the LC_CONSENT_RECORD table: one opening vote per
// enfranchised family member, snapshotted when the round starts.
type ConsentRecord struct {
	ConsentID    string          `db:"CONSENT_ID" json:"consentId"`
	LifecycleID  string          `db:"LIFECYCLE_ID" json:"lifecycleId"`
	MemberID     string          `db:"MEMBER_ID" json:"memberId"`
	Decision     ConsentDecision `db:"DECISION" json:"decision"`
	DecidedTime  *int64          `db:"DECIDED_TIME" json:"decidedTime,omitempty"`
	AutoResolved bool            `db:"AUTO_RESOLVED" json:"autoResolved"`
	CreatedTime  int64           `db:"CREATED_TIME" json:"createdTime"`
}

// DeletionConsentRecord represents the LC_DELETION_CONSENT_RECORD table.
// Same shape as ConsentRecord, separate namespace tied to the deletion
// sub-state.
type DeletionConsentRecord struct {
	ConsentID    string          `db:"CONSENT_ID" json:"consentId"`
	LifecycleID  string          `db:"LIFECYCLE_ID" json:"lifecycleId"`
	MemberID     string          `db:"MEMBER_ID" json:"memberId"`
	Decision     ConsentDecision `db:"DECISION" json:"decision"`
	DecidedTime  *int64          `db:"DECIDED_TIME" json:"decidedTime,omitempty"`
	AutoResolved bool            `db:"AUTO_RESOLVED" json:"autoResolved"`
	CreatedTime  int64           `db:"CREATED_TIME" json:"createdTime"`
}
