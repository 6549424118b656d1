package models

// FamilyRole is the stored role of a family member relative to a creator
type FamilyRole string

const (
	RoleRepresentative FamilyRole = "representative"
	RoleMember         FamilyRole = "member"
)

// ActorRole is the derived role of a caller relative to a creator
type ActorRole string

const (
	ActorCreator        ActorRole = "creator"
	ActorRepresentative ActorRole = "representative"
	ActorMember         ActorRole = "member"
	ActorNone           ActorRole = "none"
)

// FamilyMembership represents a row of the LC_FAMILY_MEMBER registry.
// The registry is owned by the membership subsystem; this service only
// reads it and never deactivates a membership.
type FamilyMembership struct {
	CreatorID   string     `db:"CREATOR_ID" json:"creatorId"`
	MemberID    string     `db:"MEMBER_ID" json:"memberId"`
	Role        FamilyRole `db:"ROLE" json:"role"`
	IsActive    bool       `db:"IS_ACTIVE" json:"isActive"`
	CreatedTime int64      `db:"CREATED_TIME" json:"createdTime"`
}
