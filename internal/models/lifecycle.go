package models

// LifecycleStatus is the primary state of a creator's lifecycle record
type LifecycleStatus string

const (
	StatusActive           LifecycleStatus = "active"
	StatusDeathReported    LifecycleStatus = "death_reported"
	StatusConsentGathering LifecycleStatus = "consent_gathering"
	StatusOpened           LifecycleStatus = "opened"
)

// DeletionStatus is the deletion sub-state, only meaningful while the
// lifecycle status is opened
type DeletionStatus string

const (
	DeletionStatusConsentGathering DeletionStatus = "deletion_consent_gathering"
)

// Lifecycle represents the LC_LIFECYCLE table. Exactly one row exists per
// creator; the absence of a row is equivalent to StatusActive.
type Lifecycle struct {
	LifecycleID        string          `db:"LIFECYCLE_ID" json:"lifecycleId"`
	CreatorID          string          `db:"CREATOR_ID" json:"creatorId"`
	Status             LifecycleStatus `db:"STATUS" json:"status"`
	DeletionStatus     *DeletionStatus `db:"DELETION_STATUS" json:"deletionStatus,omitempty"`
	DeathReportedAt    *int64          `db:"DEATH_REPORTED_AT" json:"deathReportedAt,omitempty"`
	DeathReportedBy    *string         `db:"DEATH_REPORTED_BY" json:"deathReportedBy,omitempty"`
	ConsentInitiatedBy *string         `db:"CONSENT_INITIATED_BY" json:"consentInitiatedBy,omitempty"`
	OpenedAt           *int64          `db:"OPENED_AT" json:"openedAt,omitempty"`
	CreatedTime        int64           `db:"CREATED_TIME" json:"createdTime"`
	UpdatedTime        int64           `db:"UPDATED_TIME" json:"updatedTime"`
}

// IsDeceased reports whether the creator behind this lifecycle is classified
// as deceased for the purposes of cascading vote resolution
func (l *Lifecycle) IsDeceased() bool {
	switch l.Status {
	case StatusDeathReported, StatusConsentGathering, StatusOpened:
		return true
	}
	return false
}

// IsDeletionVoteRunning reports whether a deletion consent round is in progress
func (l *Lifecycle) IsDeletionVoteRunning() bool {
	return l.Status == StatusOpened &&
		l.DeletionStatus != nil && *l.DeletionStatus == DeletionStatusConsentGathering
}

// IsMutationBlocked reports whether creator-content mutation and deletion
// must be rejected for the given status. The content subsystem consults this
// before every write.
func IsMutationBlocked(status LifecycleStatus) bool {
	return status != StatusActive
}
