package dao

import (
	"context"
	"fmt"

	"github.com/everkeep/lifecycle-management-api/internal/database"
)

// LifeRecordDAO touches the creator-content table only for the terminal
// erasure; all other content operations belong to the content subsystem.
type LifeRecordDAO struct {
	db *database.DB
}

// NewLifeRecordDAO creates a new LifeRecordDAO instance
func NewLifeRecordDAO(db *database.DB) *LifeRecordDAO {
	return &LifeRecordDAO{db: db}
}

// DeleteByCreatorWithTx bulk-deletes all of a creator's life records.
// Returns the number of deleted rows; zero is not an error.
func (dao *LifeRecordDAO) DeleteByCreatorWithTx(ctx context.Context, tx *database.Transaction, creatorID string) (int64, error) {
	query := `DELETE FROM LC_LIFE_RECORD WHERE CREATOR_ID = ?`

	result, err := tx.ExecContext(ctx, query, creatorID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete life records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
