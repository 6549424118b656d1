package dao

import (
	"context"
	"fmt"

	"github.com/everkeep/lifecycle-management-api/internal/database"
	"github.com/everkeep/lifecycle-management-api/internal/models"
)

// DeletionConsentRecordDAO handles database operations for deletion consent
// records. Kept apart from the opening records: the two rounds have
// different policies and lifetimes.
type DeletionConsentRecordDAO struct {
	db *database.DB
}

// NewDeletionConsentRecordDAO creates a new DeletionConsentRecordDAO instance
func NewDeletionConsentRecordDAO(db *database.DB) *DeletionConsentRecordDAO {
	return &DeletionConsentRecordDAO{db: db}
}

// CreateBatchWithTx inserts the full voter snapshot of a deletion round
func (dao *DeletionConsentRecordDAO) CreateBatchWithTx(ctx context.Context, tx *database.Transaction, records []models.DeletionConsentRecord) error {
	query := `
		INSERT INTO LC_DELETION_CONSENT_RECORD (
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
			return fmt.Errorf("failed to create deletion consent record: %w", err)
		}
	}

	return nil
}

// GetByLifecycleID retrieves all deletion consent records of a lifecycle
func (dao *DeletionConsentRecordDAO) GetByLifecycleID(ctx context.Context, lifecycleID string) ([]models.DeletionConsentRecord, error) {
	query := `
		SELECT CONSENT_ID, LIFECYCLE_ID, MEMBER_ID, DECISION,
		       DECIDED_TIME, AUTO_RESOLVED, CREATED_TIME
		FROM LC_DELETION_CONSENT_RECORD
		WHERE LIFECYCLE_ID = ?
		ORDER BY CREATED_TIME ASC
	`

	var records []models.DeletionConsentRecord
	err := dao.db.SelectContext(ctx, &records, query, lifecycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get deletion consent records: %w", err)
	}

	return records, nil
}

// UpdateDecisionWithTx records a member's own deletion vote
func (dao *DeletionConsentRecordDAO) UpdateDecisionWithTx(ctx context.Context, tx *database.Transaction, lifecycleID, memberID string, decision models.ConsentDecision, decidedTime int64) (bool, error) {
	query := `
		UPDATE LC_DELETION_CONSENT_RECORD
		SET DECISION = ?, DECIDED_TIME = ?, AUTO_RESOLVED = FALSE
		WHERE LIFECYCLE_ID = ? AND MEMBER_ID = ?
	`

	result, err := tx.ExecContext(ctx, query, decision, decidedTime, lifecycleID, memberID)
	if err != nil {
		return false, fmt.Errorf("failed to update deletion consent decision: %w", err)
	}

	return oneRowAffected(result)
}

// AutoResolveWithTx casts an agreed deletion vote on behalf of a deceased
// member; only pending votes are touched
func (dao *DeletionConsentRecordDAO) AutoResolveWithTx(ctx context.Context, tx *database.Transaction, lifecycleID, memberID string, decidedTime int64) (bool, error) {
	query := `
		UPDATE LC_DELETION_CONSENT_RECORD
		SET DECISION = ?, DECIDED_TIME = ?, AUTO_RESOLVED = TRUE
		WHERE LIFECYCLE_ID = ? AND MEMBER_ID = ? AND DECISION = ?
	`

	result, err := tx.ExecContext(ctx, query,
		models.DecisionAgreed, decidedTime,
		lifecycleID, memberID, models.DecisionPending)
	if err != nil {
		return false, fmt.Errorf("failed to auto-resolve deletion consent: %w", err)
	}

	return oneRowAffected(result)
}

// GetAutoResolvedByMember retrieves every auto-resolved deletion record owed
// by the given member across all lifecycles
func (dao *DeletionConsentRecordDAO) GetAutoResolvedByMember(ctx context.Context, memberID string) ([]models.DeletionConsentRecord, error) {
	query := `
		SELECT CONSENT_ID, LIFECYCLE_ID, MEMBER_ID, DECISION,
		       DECIDED_TIME, AUTO_RESOLVED, CREATED_TIME
		FROM LC_DELETION_CONSENT_RECORD
		WHERE MEMBER_ID = ? AND AUTO_RESOLVED = TRUE
	`

	var records []models.DeletionConsentRecord
	err := dao.db.SelectContext(ctx, &records, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to get auto-resolved deletion consents: %w", err)
	}

	return records, nil
}

// RevertAutoResolvedWithTx restores an auto-resolved deletion vote to pending
func (dao *DeletionConsentRecordDAO) RevertAutoResolvedWithTx(ctx context.Context, tx *database.Transaction, consentID string) (bool, error) {
	query := `
		UPDATE LC_DELETION_CONSENT_RECORD
		SET DECISION = ?, DECIDED_TIME = NULL, AUTO_RESOLVED = FALSE
		WHERE CONSENT_ID = ? AND AUTO_RESOLVED = TRUE
	`

	result, err := tx.ExecContext(ctx, query, models.DecisionPending, consentID)
	if err != nil {
		return false, fmt.Errorf("failed to revert auto-resolved deletion consent: %w", err)
	}

	return oneRowAffected(result)
}

// CountNotAgreedWithTx counts deletion records still blocking unanimity
func (dao *DeletionConsentRecordDAO) CountNotAgreedWithTx(ctx context.Context, tx *database.Transaction, lifecycleID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM LC_DELETION_CONSENT_RECORD
		WHERE LIFECYCLE_ID = ? AND DECISION <> ?
	`

	var count int
	err := tx.GetContext(ctx, &count, query, lifecycleID, models.DecisionAgreed)
	if err != nil {
		return 0, fmt.Errorf("failed to count outstanding deletion consents: %w", err)
	}

	return count, nil
}

// DeleteByLifecycleWithTx removes all deletion consent records of a lifecycle
func (dao *DeletionConsentRecordDAO) DeleteByLifecycleWithTx(ctx context.Context, tx *database.Transaction, lifecycleID string) error {
	query := `DELETE FROM LC_DELETION_CONSENT_RECORD WHERE LIFECYCLE_ID = ?`

	_, err := tx.ExecContext(ctx, query, lifecycleID)
	if err != nil {
		return fmt.Errorf("failed to delete deletion consent records: %w", err)
	}

	return nil
}
