package dao

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/everkeep/lifecycle-management-api/internal/database"
	"github.com/everkeep/lifecycle-management-api/internal/models"
)

// LifecycleDAO handles database operations for lifecycle records.
//
// All state transitions are conditional updates guarded by the expected
// current status. Callers inspect the returned bool to learn whether this
// call performed the transition; a false result under concurrency means
// another caller got there first.
type LifecycleDAO struct {
	db *database.DB
}

// NewLifecycleDAO creates a new LifecycleDAO instance
func NewLifecycleDAO(db *database.DB) *LifecycleDAO {
	return &LifecycleDAO{db: db}
}

const lifecycleColumns = `
	LIFECYCLE_ID, CREATOR_ID, STATUS, DELETION_STATUS,
	DEATH_REPORTED_AT, DEATH_REPORTED_BY, CONSENT_INITIATED_BY,
	OPENED_AT, CREATED_TIME, UPDATED_TIME
`

// GetByCreatorID retrieves the lifecycle record for a creator.
// Returns (nil, nil) when no record exists: absence is equivalent to an
// active lifecycle.
func (dao *LifecycleDAO) GetByCreatorID(ctx context.Context, creatorID string) (*models.Lifecycle, error) {
	query := `SELECT ` + lifecycleColumns + ` FROM LC_LIFECYCLE WHERE CREATOR_ID = ?`

	var lifecycle models.Lifecycle
	err := dao.db.GetContext(ctx, &lifecycle, query, creatorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lifecycle: %w", err)
	}

	return &lifecycle, nil
}

// GetByCreatorIDWithTx retrieves the lifecycle record for a creator using a transaction
func (dao *LifecycleDAO) GetByCreatorIDWithTx(ctx context.Context, tx *database.Transaction, creatorID string) (*models.Lifecycle, error) {
	query := `SELECT ` + lifecycleColumns + ` FROM LC_LIFECYCLE WHERE CREATOR_ID = ?`

	var lifecycle models.Lifecycle
	err := tx.GetContext(ctx, &lifecycle, query, creatorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lifecycle: %w", err)
	}

	return &lifecycle, nil
}

// CreateWithTx inserts a new lifecycle record using a transaction
func (dao *LifecycleDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, lifecycle *models.Lifecycle) error {
	query := `
		INSERT INTO LC_LIFECYCLE (
			LIFECYCLE_ID, CREATOR_ID, STATUS, DELETION_STATUS,
			DEATH_REPORTED_AT, DEATH_REPORTED_BY, CONSENT_INITIATED_BY,
			OPENED_AT, CREATED_TIME, UPDATED_TIME
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := tx.ExecContext(
		ctx,
		query,
		lifecycle.LifecycleID,
		lifecycle.CreatorID,
		lifecycle.Status,
		lifecycle.DeletionStatus,
		lifecycle.DeathReportedAt,
		lifecycle.DeathReportedBy,
		lifecycle.ConsentInitiatedBy,
		lifecycle.OpenedAt,
		lifecycle.CreatedTime,
		lifecycle.UpdatedTime,
	)

	if err != nil {
		return fmt.Errorf("failed to create lifecycle: %w", err)
	}

	return nil
}

// MarkConsentGatheringWithTx advances death_reported to consent_gathering,
// recording who initiated the round. Returns whether this call performed the
// transition.
func (dao *LifecycleDAO) MarkConsentGatheringWithTx(ctx context.Context, tx *database.Transaction, lifecycleID, initiatedBy string, updatedTime int64) (bool, error) {
	query := `
		UPDATE LC_LIFECYCLE
		SET STATUS = ?, CONSENT_INITIATED_BY = ?, UPDATED_TIME = ?
		WHERE LIFECYCLE_ID = ? AND STATUS = ?
	`

	result, err := tx.ExecContext(ctx, query,
		models.StatusConsentGathering, initiatedBy, updatedTime,
		lifecycleID, models.StatusDeathReported)
	if err != nil {
		return false, fmt.Errorf("failed to mark consent gathering: %w", err)
	}

	return oneRowAffected(result)
}

// MarkOpenedWithTx advances consent_gathering to opened. The status guard is
// what guarantees the transition fires exactly once under racing unanimous
// submissions.
func (dao *LifecycleDAO) MarkOpenedWithTx(ctx context.Context, tx *database.Transaction, lifecycleID string, openedAt int64) (bool, error) {
	query := `
		UPDATE LC_LIFECYCLE
		SET STATUS = ?, OPENED_AT = ?, UPDATED_TIME = ?
		WHERE LIFECYCLE_ID = ? AND STATUS = ?
	`

	result, err := tx.ExecContext(ctx, query,
		models.StatusOpened, openedAt, openedAt,
		lifecycleID, models.StatusConsentGathering)
	if err != nil {
		return false, fmt.Errorf("failed to mark opened: %w", err)
	}

	return oneRowAffected(result)
}

// RevertToDeathReportedWithTx reverts consent_gathering to death_reported
// as part of an explicit consent reset
func (dao *LifecycleDAO) RevertToDeathReportedWithTx(ctx context.Context, tx *database.Transaction, lifecycleID string, updatedTime int64) (bool, error) {
	query := `
		UPDATE LC_LIFECYCLE
		SET STATUS = ?, CONSENT_INITIATED_BY = NULL, UPDATED_TIME = ?
		WHERE LIFECYCLE_ID = ? AND STATUS = ?
	`

	result, err := tx.ExecContext(ctx, query,
		models.StatusDeathReported, updatedTime,
		lifecycleID, models.StatusConsentGathering)
	if err != nil {
		return false, fmt.Errorf("failed to revert to death reported: %w", err)
	}

	return oneRowAffected(result)
}

// MarkActiveWithTx reverts death_reported to active, clearing the death
// report provenance
func (dao *LifecycleDAO) MarkActiveWithTx(ctx context.Context, tx *database.Transaction, lifecycleID string, updatedTime int64) (bool, error) {
	query := `
		UPDATE LC_LIFECYCLE
		SET STATUS = ?, DEATH_REPORTED_AT = NULL, DEATH_REPORTED_BY = NULL, UPDATED_TIME = ?
		WHERE LIFECYCLE_ID = ? AND STATUS = ?
	`

	result, err := tx.ExecContext(ctx, query,
		models.StatusActive, updatedTime,
		lifecycleID, models.StatusDeathReported)
	if err != nil {
		return false, fmt.Errorf("failed to mark active: %w", err)
	}

	return oneRowAffected(result)
}

// MarkDeletionGatheringWithTx starts the deletion sub-state while the
// primary status stays opened
func (dao *LifecycleDAO) MarkDeletionGatheringWithTx(ctx context.Context, tx *database.Transaction, lifecycleID string, updatedTime int64) (bool, error) {
	query := `
		UPDATE LC_LIFECYCLE
		SET DELETION_STATUS = ?, UPDATED_TIME = ?
		WHERE LIFECYCLE_ID = ? AND STATUS = ? AND DELETION_STATUS IS NULL
	`

	result, err := tx.ExecContext(ctx, query,
		models.DeletionStatusConsentGathering, updatedTime,
		lifecycleID, models.StatusOpened)
	if err != nil {
		return false, fmt.Errorf("failed to mark deletion gathering: %w", err)
	}

	return oneRowAffected(result)
}

// ClearDeletionStatusWithTx clears the deletion sub-state (decline or cancel)
func (dao *LifecycleDAO) ClearDeletionStatusWithTx(ctx context.Context, tx *database.Transaction, lifecycleID string, updatedTime int64) (bool, error) {
	query := `
		UPDATE LC_LIFECYCLE
		SET DELETION_STATUS = NULL, UPDATED_TIME = ?
		WHERE LIFECYCLE_ID = ? AND DELETION_STATUS = ?
	`

	result, err := tx.ExecContext(ctx, query,
		updatedTime, lifecycleID, models.DeletionStatusConsentGathering)
	if err != nil {
		return false, fmt.Errorf("failed to clear deletion status: %w", err)
	}

	return oneRowAffected(result)
}

// DeleteIfDeletionGatheringWithTx removes the lifecycle record, guarded on
// the deletion round still running. This is the terminal claim of the
// erasure flow: only one of several racing finalizers gets a true result.
func (dao *LifecycleDAO) DeleteIfDeletionGatheringWithTx(ctx context.Context, tx *database.Transaction, lifecycleID string) (bool, error) {
	query := `DELETE FROM LC_LIFECYCLE WHERE LIFECYCLE_ID = ? AND DELETION_STATUS = ?`

	result, err := tx.ExecContext(ctx, query, lifecycleID, models.DeletionStatusConsentGathering)
	if err != nil {
		return false, fmt.Errorf("failed to delete lifecycle: %w", err)
	}

	return oneRowAffected(result)
}

func oneRowAffected(result sql.Result) (bool, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected == 1, nil
}
