package dao

import (
	"context"
	"fmt"

	"github.com/everkeep/lifecycle-management-api/internal/database"
	"github.com/everkeep/lifecycle-management-api/internal/models"
)

// ActionLogDAO handles the append-only lifecycle action log. Entries are
// never updated or deleted individually; the table is only truncated per
// lifecycle by the terminal deletion flow.
type ActionLogDAO struct {
	db *database.DB
}

// NewActionLogDAO creates a new ActionLogDAO instance
func NewActionLogDAO(db *database.DB) *ActionLogDAO {
	return &ActionLogDAO{db: db}
}

const actionLogInsert = `
	INSERT INTO LC_ACTION_LOG (
		LOG_ID, LIFECYCLE_ID, ACTION, PERFORMED_BY, METADATA, ACTION_TIME
	) VALUES (?, ?, ?, ?, ?, ?)
`

// Create appends a log entry outside any transaction (best-effort path)
func (dao *ActionLogDAO) Create(ctx context.Context, entry *models.LifecycleActionLog) error {
	_, err := dao.db.ExecContext(
		ctx,
		actionLogInsert,
		entry.LogID,
		entry.LifecycleID,
		entry.Action,
		entry.PerformedBy,
		entry.Metadata,
		entry.ActionTime,
	)

	if err != nil {
		return fmt.Errorf("failed to create action log: %w", err)
	}

	return nil
}

// CreateWithTx appends a log entry inside the transaction that performs the
// corresponding state change
func (dao *ActionLogDAO) CreateWithTx(ctx context.Context, tx *database.Transaction, entry *models.LifecycleActionLog) error {
	_, err := tx.ExecContext(
		ctx,
		actionLogInsert,
		entry.LogID,
		entry.LifecycleID,
		entry.Action,
		entry.PerformedBy,
		entry.Metadata,
		entry.ActionTime,
	)

	if err != nil {
		return fmt.Errorf("failed to create action log: %w", err)
	}

	return nil
}

// GetByLifecycleID retrieves the full audit trail of a lifecycle
func (dao *ActionLogDAO) GetByLifecycleID(ctx context.Context, lifecycleID string) ([]models.LifecycleActionLog, error) {
	query := `
		SELECT LOG_ID, LIFECYCLE_ID, ACTION, PERFORMED_BY, METADATA, ACTION_TIME
		FROM LC_ACTION_LOG
		WHERE LIFECYCLE_ID = ?
		ORDER BY ACTION_TIME ASC, LOG_ID ASC
	`

	var entries []models.LifecycleActionLog
	err := dao.db.SelectContext(ctx, &entries, query, lifecycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get action log: %w", err)
	}

	return entries, nil
}

// DeleteByLifecycleWithTx removes the audit trail of a lifecycle as part of
// the terminal data erasure
func (dao *ActionLogDAO) DeleteByLifecycleWithTx(ctx context.Context, tx *database.Transaction, lifecycleID string) error {
	query := `DELETE FROM LC_ACTION_LOG WHERE LIFECYCLE_ID = ?`

	_, err := tx.ExecContext(ctx, query, lifecycleID)
	if err != nil {
		return fmt.Errorf("failed to delete action log: %w", err)
	}

	return nil
}
