package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/everkeep/lifecycle-management-api/internal/audit"
	"github.com/everkeep/lifecycle-management-api/internal/dao"
	"github.com/everkeep/lifecycle-management-api/internal/database"
	"github.com/everkeep/lifecycle-management-api/internal/models"
	"github.com/everkeep/lifecycle-management-api/internal/notification"
	"github.com/everkeep/lifecycle-management-api/pkg/utils"
)

// DeceasedMemberResolver sweeps other creators' consent processes when a
// person's own lifecycle marks them deceased: a dead person cannot block a
// vote they can no longer cast, so their pending votes are auto-resolved to
// agreed. Cancelling the death report reverts exactly those auto-resolutions.
//
// Each affected creator is processed in its own transaction; one creator's
// failure is reported in the outcome list and never aborts the rest of the
// sweep.
type DeceasedMemberResolver struct {
	lifecycleDAO    *dao.LifecycleDAO
	consentDAO      *dao.ConsentRecordDAO
	deletionDAO     *dao.DeletionConsentRecordDAO
	membershipDAO   *dao.FamilyMembershipDAO
	auditor         *audit.Auditor
	deletionService *DeletionConsentService
	notifier        *familyNotifier
	db              *database.DB
	logger          *logrus.Logger
}

// NewDeceasedMemberResolver creates a new resolver instance
func NewDeceasedMemberResolver(
	lifecycleDAO *dao.LifecycleDAO,
	consentDAO *dao.ConsentRecordDAO,
	deletionDAO *dao.DeletionConsentRecordDAO,
	membershipDAO *dao.FamilyMembershipDAO,
	auditor *audit.Auditor,
	deletionService *DeletionConsentService,
	dispatcher notification.Dispatcher,
	db *database.DB,
	logger *logrus.Logger,
) *DeceasedMemberResolver {
	return &DeceasedMemberResolver{
		lifecycleDAO:    lifecycleDAO,
		consentDAO:      consentDAO,
		deletionDAO:     deletionDAO,
		membershipDAO:   membershipDAO,
		auditor:         auditor,
		deletionService: deletionService,
		notifier:        newFamilyNotifier(dispatcher, membershipDAO, logger),
		db:              db,
		logger:          logger,
	}
}

// ResolveDeceasedMember auto-resolves every pending vote the deceased
// person owes to other creators' running consent rounds, re-running the
// unanimity check of each affected round. Returns per-creator outcomes.
func (r *DeceasedMemberResolver) ResolveDeceasedMember(ctx context.Context, deceasedID string) []models.SweepOutcome {
	memberships, err := r.membershipDAO.GetActiveMembershipsOfMember(ctx, deceasedID)
	if err != nil {
		r.logger.WithError(err).WithField("deceased_id", deceasedID).
			Error("Failed to list memberships for deceased-member sweep")
		return nil
	}

	outcomes := make([]models.SweepOutcome, 0, len(memberships))

	for _, membership := range memberships {
		lifecycle, err := r.lifecycleDAO.GetByCreatorID(ctx, membership.CreatorID)
		if err != nil {
			outcomes = append(outcomes, models.SweepOutcome{
				CreatorID: membership.CreatorID,
				Error:     err.Error(),
			})
			continue
		}
		if lifecycle == nil {
			continue
		}

		if lifecycle.Status == models.StatusConsentGathering {
			outcomes = append(outcomes, r.resolveOpeningVote(ctx, lifecycle, deceasedID))
		}

		if lifecycle.IsDeletionVoteRunning() {
			outcomes = append(outcomes, r.resolveDeletionVote(ctx, lifecycle, deceasedID))
		}
	}

	return outcomes
}

func (r *DeceasedMemberResolver) resolveOpeningVote(ctx context.Context, lifecycle *models.Lifecycle, deceasedID string) models.SweepOutcome {
	outcome := models.SweepOutcome{CreatorID: lifecycle.CreatorID, Flow: "opening"}

	err := r.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		now := utils.GetCurrentTimeMillis()

		resolved, err := r.consentDAO.AutoResolveWithTx(ctx, tx, lifecycle.LifecycleID, deceasedID, now)
		if err != nil {
			return err
		}
		if !resolved {
			// No pending vote: the member already voted, or holds no record
			return nil
		}
		outcome.AutoResolved = true

		if err := r.auditor.RecordWithTx(ctx, tx, lifecycle.LifecycleID, models.ActionConsentAutoResolved, deceasedID,
			map[string]interface{}{"reason": "voter_deceased"}); err != nil {
			return err
		}

		outstanding, err := r.consentDAO.CountNotAgreedWithTx(ctx, tx, lifecycle.LifecycleID)
		if err != nil {
			return err
		}
		if outstanding > 0 {
			return nil
		}

		opened, err := r.lifecycleDAO.MarkOpenedWithTx(ctx, tx, lifecycle.LifecycleID, now)
		if err != nil {
			return err
		}
		if !opened {
			return nil
		}
		outcome.Transitioned = true

		return r.auditor.RecordWithTx(ctx, tx, lifecycle.LifecycleID, models.ActionNoteOpened, deceasedID,
			map[string]interface{}{"trigger": "auto_resolution"})
	})
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	if outcome.Transitioned {
		r.logger.WithFields(logrus.Fields{
			"creator_id":  lifecycle.CreatorID,
			"deceased_id": deceasedID,
		}).Info("Note opened after auto-resolving a deceased voter")
		r.notifier.broadcast(lifecycle.CreatorID, "note_opened", "All family members consented; the creator's note is now open")
	}

	return outcome
}

func (r *DeceasedMemberResolver) resolveDeletionVote(ctx context.Context, lifecycle *models.Lifecycle, deceasedID string) models.SweepOutcome {
	outcome := models.SweepOutcome{CreatorID: lifecycle.CreatorID, Flow: "deletion"}

	err := r.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		now := utils.GetCurrentTimeMillis()

		resolved, err := r.deletionDAO.AutoResolveWithTx(ctx, tx, lifecycle.LifecycleID, deceasedID, now)
		if err != nil {
			return err
		}
		if !resolved {
			return nil
		}
		outcome.AutoResolved = true

		if err := r.auditor.RecordWithTx(ctx, tx, lifecycle.LifecycleID, models.ActionConsentAutoResolved, deceasedID,
			map[string]interface{}{"reason": "voter_deceased", "flow": "deletion"}); err != nil {
			return err
		}

		outstanding, err := r.deletionDAO.CountNotAgreedWithTx(ctx, tx, lifecycle.LifecycleID)
		if err != nil {
			return err
		}
		if outstanding > 0 {
			return nil
		}

		erased, err := r.deletionService.eraseCreatorDataWithTx(ctx, tx, lifecycle)
		if err != nil {
			return err
		}
		outcome.Transitioned = erased
		return nil
	})
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	if outcome.Transitioned {
		r.logger.WithFields(logrus.Fields{
			"creator_id":  lifecycle.CreatorID,
			"deceased_id": deceasedID,
		}).Info("Creator data erased after auto-resolving a deceased voter")
		r.notifier.broadcast(lifecycle.CreatorID, "data_erased", "All family members consented; the creator's data has been permanently erased")
	}

	return outcome
}

// RevertAutoResolvedConsents restores every auto-resolved vote owed by the
// cancelled person to pending, across both flows. It never re-triggers a
// transition: a round that already concluded stays concluded.
func (r *DeceasedMemberResolver) RevertAutoResolvedConsents(ctx context.Context, cancelledUserID string) []models.SweepOutcome {
	var outcomes []models.SweepOutcome

	openingRecords, err := r.consentDAO.GetAutoResolvedByMember(ctx, cancelledUserID)
	if err != nil {
		r.logger.WithError(err).WithField("cancelled_id", cancelledUserID).
			Error("Failed to list auto-resolved opening votes for reversion")
	}
	for _, record := range openingRecords {
		outcome := models.SweepOutcome{CreatorID: record.LifecycleID, Flow: "opening"}
		err := r.db.WithTransaction(ctx, func(tx *database.Transaction) error {
			reverted, err := r.consentDAO.RevertAutoResolvedWithTx(ctx, tx, record.ConsentID)
			if err != nil {
				return err
			}
			if !reverted {
				return nil
			}
			outcome.AutoResolved = true
			return r.auditor.RecordWithTx(ctx, tx, record.LifecycleID, models.ActionAutoResolveReverted, cancelledUserID,
				map[string]interface{}{"reason": "death_report_cancelled"})
		})
		if err != nil {
			outcome.Error = err.Error()
		}
		outcomes = append(outcomes, outcome)
	}

	deletionRecords, err := r.deletionDAO.GetAutoResolvedByMember(ctx, cancelledUserID)
	if err != nil {
		r.logger.WithError(err).WithField("cancelled_id", cancelledUserID).
			Error("Failed to list auto-resolved deletion votes for reversion")
	}
	for _, record := range deletionRecords {
		outcome := models.SweepOutcome{CreatorID: record.LifecycleID, Flow: "deletion"}
		err := r.db.WithTransaction(ctx, func(tx *database.Transaction) error {
			reverted, err := r.deletionDAO.RevertAutoResolvedWithTx(ctx, tx, record.ConsentID)
			if err != nil {
				return err
			}
			if !reverted {
				return nil
			}
			outcome.AutoResolved = true
			return r.auditor.RecordWithTx(ctx, tx, record.LifecycleID, models.ActionAutoResolveReverted, cancelledUserID,
				map[string]interface{}{"reason": "death_report_cancelled", "flow": "deletion"})
		})
		if err != nil {
			outcome.Error = err.Error()
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes
}
