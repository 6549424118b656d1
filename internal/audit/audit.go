package audit

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/everkeep/lifecycle-management-api/internal/dao"
	"github.com/everkeep/lifecycle-management-api/internal/database"
	"github.com/everkeep/lifecycle-management-api/internal/models"
	"github.com/everkeep/lifecycle-management-api/pkg/utils"
)

// Auditor appends lifecycle action log entries.
//
// Transition logs are written with RecordWithTx inside the transaction that
// performs the state change, so the audit trail can never disagree with the
// lifecycle status. Record is the best-effort path for entries outside a
// primary transaction; its failures are logged and swallowed.
type Auditor struct {
	actionLogDAO *dao.ActionLogDAO
	logger       *logrus.Logger
}

// NewAuditor creates a new Auditor instance
func NewAuditor(actionLogDAO *dao.ActionLogDAO, logger *logrus.Logger) *Auditor {
	return &Auditor{
		actionLogDAO: actionLogDAO,
		logger:       logger,
	}
}

func newEntry(lifecycleID, action, performedBy string, metadata map[string]interface{}) *models.LifecycleActionLog {
	return &models.LifecycleActionLog{
		LogID:       utils.GenerateLogID(),
		LifecycleID: lifecycleID,
		Action:      action,
		PerformedBy: performedBy,
		Metadata:    models.MetadataJSON(metadata),
		ActionTime:  utils.GetCurrentTimeMillis(),
	}
}

// RecordWithTx appends an entry inside the given transaction. The error
// propagates so the transaction rolls back as a unit.
func (a *Auditor) RecordWithTx(ctx context.Context, tx *database.Transaction, lifecycleID, action, performedBy string, metadata map[string]interface{}) error {
	return a.actionLogDAO.CreateWithTx(ctx, tx, newEntry(lifecycleID, action, performedBy, metadata))
}

// Record appends an entry outside any transaction, best-effort
func (a *Auditor) Record(ctx context.Context, lifecycleID, action, performedBy string, metadata map[string]interface{}) {
	if err := a.actionLogDAO.Create(ctx, newEntry(lifecycleID, action, performedBy, metadata)); err != nil {
		a.logger.WithError(err).WithFields(logrus.Fields{
			"lifecycle_id": lifecycleID,
			"action":       action,
		}).Error("Failed to append action log entry")
	}
}

// Trail retrieves the full audit trail of a lifecycle
func (a *Auditor) Trail(ctx context.Context, lifecycleID string) ([]models.LifecycleActionLog, error) {
	return a.actionLogDAO.GetByLifecycleID(ctx, lifecycleID)
}
