package dao

import (
	"context"
	"fmt"

	"github.com/everkeep/lifecycle-management-api/internal/database"
	"github.com/everkeep/lifecycle-management-api/internal/models"
)

// ConsentRecordDAO handles database operations for opening consent records
type ConsentRecordDAO struct {
	db *database.DB
}

// NewConsentRecordDAO creates a new ConsentRecordDAO instance
func NewConsentRecordDAO(db *database.DB) *ConsentRecordDAO {
	return &ConsentRecordDAO{db: db}
}

// CreateBatchWithTx inserts the full voter snapshot of a consent round
func (dao *ConsentRecordDAO) CreateBatchWithTx(ctx context.Context, tx *database.Transaction, records []models.ConsentRecord) error {
	query := `
		INSERT INTO LC_CONSENT_RECORD (
			CONSENT_ID, LIFECYCLE_ID, MEMBER_ID, DECISION,
			DECIDED_TIME, AUTO_RESOLVED, CREATED_TIME
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	for _, record := range records {
		_, err := tx.ExecContext(
			ctx,
			query,
			record.ConsentID,
			record.LifecycleID,
			record.MemberID,
			record.Decision,
			record.DecidedTime,
			record.AutoResolved,
			record.CreatedTime,
		)
		if err != nil {
			return fmt.Errorf("failed to create consent record: %w", err)
		}
	}

	return nil
}

// GetByLifecycleID retrieves all consent records of a lifecycle
func (dao *ConsentRecordDAO) GetByLifecycleID(ctx context.Context, lifecycleID string) ([]models.ConsentRecord, error) {
	query := `
		SELECT CONSENT_ID, LIFECYCLE_ID, MEMBER_ID, DECISION,
		       DECIDED_TIME, AUTO_RESOLVED, CREATED_TIME
		FROM LC_CONSENT_RECORD
		WHERE LIFECYCLE_ID = ?
		ORDER BY CREATED_TIME ASC
	`

	var records []models.ConsentRecord
	err := dao.db.SelectContext(ctx, &records, query, lifecycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get consent records: %w", err)
	}

	return records, nil
}

// UpdateDecisionWithTx records a member's own vote. Returns false when the
// member holds no record in this round.
func (dao *ConsentRecordDAO) UpdateDecisionWithTx(ctx context.Context, tx *database.Transaction, lifecycleID, memberID string, decision models.ConsentDecision, decidedTime int64) (bool, error) {
	query := `
		UPDATE LC_CONSENT_RECORD
		SET DECISION = ?, DECIDED_TIME = ?, AUTO_RESOLVED = FALSE
		WHERE LIFECYCLE_ID = ? AND MEMBER_ID = ?
	`

	result, err := tx.ExecContext(ctx, query, decision, decidedTime, lifecycleID, memberID)
	if err != nil {
		return false, fmt.Errorf("failed to update consent decision: %w", err)
	}

	return oneRowAffected(result)
}

// AutoResolveWithTx casts an agreed vote on behalf of a deceased member.
// Only pending votes are touched so a member's explicit decision is never
// overwritten.
func (dao *ConsentRecordDAO) AutoResolveWithTx(ctx context.Context, tx *database.Transaction, lifecycleID, memberID string, decidedTime int64) (bool, error) {
	query := `
		UPDATE LC_CONSENT_RECORD
		SET DECISION = ?, DECIDED_TIME = ?, AUTO_RESOLVED = TRUE
		WHERE LIFECYCLE_ID = ? AND MEMBER_ID = ? AND DECISION = ?
	`

	result, err := tx.ExecContext(ctx, query,
		models.DecisionAgreed, decidedTime,
		lifecycleID, memberID, models.DecisionPending)
	if err != nil {
		return false, fmt.Errorf("failed to auto-resolve consent: %w", err)
	}

	return oneRowAffected(result)
}

// GetAutoResolvedByMember retrieves every auto-resolved consent record owed
// by the given member across all lifecycles
func (dao *ConsentRecordDAO) GetAutoResolvedByMember(ctx context.Context, memberID string) ([]models.ConsentRecord, error) {
	query := `
		SELECT CONSENT_ID, LIFECYCLE_ID, MEMBER_ID, DECISION,
		       DECIDED_TIME, AUTO_RESOLVED, CREATED_TIME
		FROM LC_CONSENT_RECORD
		WHERE MEMBER_ID = ? AND AUTO_RESOLVED = TRUE
	`

	var records []models.ConsentRecord
	err := dao.db.SelectContext(ctx, &records, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to get auto-resolved consents: %w", err)
	}

	return records, nil
}

// RevertAutoResolvedWithTx restores an auto-resolved vote to pending
func (dao *ConsentRecordDAO) RevertAutoResolvedWithTx(ctx context.Context, tx *database.Transaction, consentID string) (bool, error) {
	query := `
		UPDATE LC_CONSENT_RECORD
		SET DECISION = ?, DECIDED_TIME = NULL, AUTO_RESOLVED = FALSE
		WHERE CONSENT_ID = ? AND AUTO_RESOLVED = TRUE
	`

	result, err := tx.ExecContext(ctx, query, models.DecisionPending, consentID)
	if err != nil {
		return false, fmt.Errorf("failed to revert auto-resolved consent: %w", err)
	}

	return oneRowAffected(result)
}

// CountNotAgreedWithTx counts records still blocking unanimity, inside the
// same transaction as the vote update
func (dao *ConsentRecordDAO) CountNotAgreedWithTx(ctx context.Context, tx *database.Transaction, lifecycleID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM LC_CONSENT_RECORD
		WHERE LIFECYCLE_ID = ? AND DECISION <> ?
	`

	var count int
	err := tx.GetContext(ctx, &count, query, lifecycleID, models.DecisionAgreed)
	if err != nil {
		return 0, fmt.Errorf("failed to count outstanding consents: %w", err)
	}

	return count, nil
}

// DeleteByLifecycleWithTx removes all consent records of a lifecycle when
// the round concludes
func (dao *ConsentRecordDAO) DeleteByLifecycleWithTx(ctx context.Context, tx *database.Transaction, lifecycleID string) error {
	query := `DELETE FROM LC_CONSENT_RECORD WHERE LIFECYCLE_ID = ?`

	_, err := tx.ExecContext(ctx, query, lifecycleID)
	if err != nil {
		return fmt.Errorf("failed to delete consent records: %w", err)
	}

	return nil
}
