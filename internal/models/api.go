package models

// LifecycleAPIResponse is the external representation of a lifecycle snapshot
type LifecycleAPIResponse struct {
	CreatorID          string          `json:"creatorId"`
	Status             LifecycleStatus `json:"status"`
	DeletionStatus     *DeletionStatus `json:"deletionStatus,omitempty"`
	DeathReportedAt    *int64          `json:"deathReportedAt,omitempty"`
	DeathReportedBy    *string         `json:"deathReportedBy,omitempty"`
	ConsentInitiatedBy *string         `json:"consentInitiatedBy,omitempty"`
	OpenedAt           *int64          `json:"openedAt,omitempty"`
	HasRepresentative  bool            `json:"hasRepresentative"`
	MutationBlocked    bool            `json:"mutationBlocked"`
	AlreadyReported    bool            `json:"alreadyReported,omitempty"`
}

// ToAPIResponse converts a lifecycle row to the external format
func (l *Lifecycle) ToAPIResponse(hasRepresentative bool) *LifecycleAPIResponse {
	return &LifecycleAPIResponse{
		CreatorID:          l.CreatorID,
		Status:             l.Status,
		DeletionStatus:     l.DeletionStatus,
		DeathReportedAt:    l.DeathReportedAt,
		DeathReportedBy:    l.DeathReportedBy,
		ConsentInitiatedBy: l.ConsentInitiatedBy,
		OpenedAt:           l.OpenedAt,
		HasRepresentative:  hasRepresentative,
		MutationBlocked:    IsMutationBlocked(l.Status),
	}
}

// ConsentSubmitAPIRequest is the body of a consent submission
type ConsentSubmitAPIRequest struct {
	Consented *bool `json:"consented" binding:"required"`
}

// ConsentVoteView is a single vote as exposed by the status endpoints.
// Ordinary members only ever see their own vote.
type ConsentVoteView struct {
	MemberID     string          `json:"memberId"`
	Decision     ConsentDecision `json:"decision"`
	DecidedTime  *int64          `json:"decidedTime,omitempty"`
	AutoResolved bool            `json:"autoResolved"`
}

// VoteSummary aggregates the vote counts of a consent round
type VoteSummary struct {
	Total    int `json:"total"`
	Agreed   int `json:"agreed"`
	Declined int `json:"declined"`
	Pending  int `json:"pending"`
}

// ConsentStatusAPIResponse is the response of the consent-status endpoints
type ConsentStatusAPIResponse struct {
	CreatorID      string            `json:"creatorId"`
	Status         LifecycleStatus   `json:"status"`
	DeletionStatus *DeletionStatus   `json:"deletionStatus,omitempty"`
	Votes          []ConsentVoteView `json:"votes"`
	Summary        VoteSummary       `json:"summary"`
}

// SweepOutcome reports what the deceased-member resolver did for one
// affected creator. Failures are carried in Error so one creator's failure
// never hides the rest of the sweep.
type SweepOutcome struct {
	CreatorID    string `json:"creatorId"`
	Flow         string `json:"flow"` // "opening" or "deletion"
	AutoResolved bool   `json:"autoResolved"`
	Transitioned bool   `json:"transitioned"`
	Error        string `json:"error,omitempty"`
}
