package dao

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/everkeep/lifecycle-management-api/internal/database"
	"github.com/everkeep/lifecycle-management-api/internal/models"
)

// FamilyMembershipDAO reads the family membership registry. The registry is
// owned by the membership subsystem; this service never writes to it.
type FamilyMembershipDAO struct {
	db *database.DB
}

// NewFamilyMembershipDAO creates a new FamilyMembershipDAO instance
func NewFamilyMembershipDAO(db *database.DB) *FamilyMembershipDAO {
	return &FamilyMembershipDAO{db: db}
}

// GetActiveMembers retrieves all active family members of a creator
func (dao *FamilyMembershipDAO) GetActiveMembers(ctx context.Context, creatorID string) ([]models.FamilyMembership, error) {
	query := `
		SELECT CREATOR_ID, MEMBER_ID, ROLE, IS_ACTIVE, CREATED_TIME
		FROM LC_FAMILY_MEMBER
		WHERE CREATOR_ID = ? AND IS_ACTIVE = TRUE
		ORDER BY CREATED_TIME ASC
	`

	var members []models.FamilyMembership
	err := dao.db.SelectContext(ctx, &members, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active members: %w", err)
	}

	return members, nil
}

// GetActiveMembership retrieves the active membership of a specific member,
// or (nil, nil) when none exists
func (dao *FamilyMembershipDAO) GetActiveMembership(ctx context.Context, creatorID, memberID string) (*models.FamilyMembership, error) {
	query := `
		SELECT CREATOR_ID, MEMBER_ID, ROLE, IS_ACTIVE, CREATED_TIME
		FROM LC_FAMILY_MEMBER
		WHERE CREATOR_ID = ? AND MEMBER_ID = ? AND IS_ACTIVE = TRUE
	`

	var membership models.FamilyMembership
	err := dao.db.GetContext(ctx, &membership, query, creatorID, memberID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}

	return &membership, nil
}

// CountActiveRepresentatives counts the creator's active representatives
func (dao *FamilyMembershipDAO) CountActiveRepresentatives(ctx context.Context, creatorID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM LC_FAMILY_MEMBER
		WHERE CREATOR_ID = ? AND ROLE = ? AND IS_ACTIVE = TRUE
	`

	var count int
	err := dao.db.GetContext(ctx, &count, query, creatorID, models.RoleRepresentative)
	if err != nil {
		return 0, fmt.Errorf("failed to count representatives: %w", err)
	}

	return count, nil
}

// GetActiveMembershipsOfMember retrieves every active membership where the
// given person is enrolled as a family member of some creator. Used by the
// deceased-member sweep.
func (dao *FamilyMembershipDAO) GetActiveMembershipsOfMember(ctx context.Context, memberID string) ([]models.FamilyMembership, error) {
	query := `
		SELECT CREATOR_ID, MEMBER_ID, ROLE, IS_ACTIVE, CREATED_TIME
		FROM LC_FAMILY_MEMBER
		WHERE MEMBER_ID = ? AND IS_ACTIVE = TRUE
		ORDER BY CREATOR_ID ASC
	`

	var memberships []models.FamilyMembership
	err := dao.db.SelectContext(ctx, &memberships, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to get memberships of member: %w", err)
	}

	return memberships, nil
}
