package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/everkeep/lifecycle-management-api/internal/audit"
	"github.com/everkeep/lifecycle-management-api/internal/dao"
	"github.com/everkeep/lifecycle-management-api/internal/database"
	"github.com/everkeep/lifecycle-management-api/internal/models"
	"github.com/everkeep/lifecycle-management-api/internal/notification"
	"github.com/everkeep/lifecycle-management-api/internal/serviceerror"
	"github.com/everkeep/lifecycle-management-api/internal/storage"
	"github.com/everkeep/lifecycle-management-api/pkg/utils"
)

// DeletionConsentService manages the unanimous vote that permanently erases
// a creator's data. It mirrors the opening flow with two policy
// differences: initiation and cancellation strictly require a
// representative (no fallback), and a single decline automatically resets
// the round.
type DeletionConsentService struct {
	lifecycleDAO  *dao.LifecycleDAO
	deletionDAO   *dao.DeletionConsentRecordDAO
	consentDAO    *dao.ConsentRecordDAO
	lifeRecordDAO *dao.LifeRecordDAO
	actionLogDAO  *dao.ActionLogDAO
	membershipDAO *dao.FamilyMembershipDAO
	authz         *AuthorizationResolver
	auditor       *audit.Auditor
	purger        storage.BlobPurger
	notifier      *familyNotifier
	db            *database.DB
	logger        *logrus.Logger
}

// NewDeletionConsentService creates a new deletion consent service instance
func NewDeletionConsentService(
	lifecycleDAO *dao.LifecycleDAO,
	deletionDAO *dao.DeletionConsentRecordDAO,
	consentDAO *dao.ConsentRecordDAO,
	lifeRecordDAO *dao.LifeRecordDAO,
	actionLogDAO *dao.ActionLogDAO,
	membershipDAO *dao.FamilyMembershipDAO,
	authz *AuthorizationResolver,
	auditor *audit.Auditor,
	purger storage.BlobPurger,
	dispatcher notification.Dispatcher,
	db *database.DB,
	logger *logrus.Logger,
) *DeletionConsentService {
	return &DeletionConsentService{
		lifecycleDAO:  lifecycleDAO,
		deletionDAO:   deletionDAO,
		consentDAO:    consentDAO,
		lifeRecordDAO: lifeRecordDAO,
		actionLogDAO:  actionLogDAO,
		membershipDAO: membershipDAO,
		authz:         authz,
		auditor:       auditor,
		purger:        purger,
		notifier:      newFamilyNotifier(dispatcher, membershipDAO, logger),
		db:            db,
		logger:        logger,
	}
}

// InitiateDeletion starts the deletion consent round. Strictly
// representative-only; requires the note to be opened with no round running.
func (s *DeletionConsentService) InitiateDeletion(ctx context.Context, creatorID, actorID string) (*models.ConsentStatusAPIResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateCreatorID(creatorID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if svcErr := s.authz.AuthorizeStrictRepresentative(ctx, creatorID, actorID); svcErr != nil {
		return nil, svcErr
	}

	members, err := s.membershipDAO.GetActiveMembers(ctx, creatorID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if len(members) == 0 {
		return nil, serviceerror.CustomServiceError(serviceerror.NoEligibleVotersError,
			fmt.Sprintf("creator %s has no active family members to enfranchise", creatorID))
	}

	txErr := s.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		lifecycle, err := s.lifecycleDAO.GetByCreatorIDWithTx(ctx, tx, creatorID)
		if err != nil {
			return err
		}
		if lifecycle == nil {
			return errLifecycleNotFound
		}

		started, err := s.lifecycleDAO.MarkDeletionGatheringWithTx(ctx, tx, lifecycle.LifecycleID, utils.GetCurrentTimeMillis())
		if err != nil {
			return err
		}
		if !started {
			return &stateError{current: lifecycle.Status, action: "initiate-data-deletion"}
		}

		now := utils.GetCurrentTimeMillis()
		records := make([]models.DeletionConsentRecord, 0, len(members))
		for _, member := range members {
			records = append(records, models.DeletionConsentRecord{
				ConsentID:   utils.GenerateDeletionConsentRecordID(),
				LifecycleID: lifecycle.LifecycleID,
				MemberID:    member.MemberID,
				Decision:    models.DecisionPending,
				CreatedTime: now,
			})
		}
		if err := s.deletionDAO.CreateBatchWithTx(ctx, tx, records); err != nil {
			return err
		}

		return s.auditor.RecordWithTx(ctx, tx, lifecycle.LifecycleID, models.ActionDeletionInitiated, actorID,
			map[string]interface{}{"voterCount": len(records)})
	})
	if txErr != nil {
		return nil, mapTransitionError(txErr)
	}

	s.logger.WithFields(logrus.Fields{
		"creator_id":   creatorID,
		"initiated_by": actorID,
		"voters":       len(members),
	}).Info("Deletion consent gathering started")

	s.notifier.broadcast(creatorID, "deletion_initiated", "Consent is being gathered to permanently erase the creator's data")

	return s.GetDeletionConsentStatus(ctx, creatorID, actorID)
}

// SubmitDeletionConsent records the caller's deletion vote. A decline
// immediately wipes the round and clears the deletion sub-state in the same
// transaction; unanimity triggers the irreversible erasure.
func (s *DeletionConsentService) SubmitDeletionConsent(ctx context.Context, creatorID, actorID string, consented bool) (*models.ConsentStatusAPIResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateCreatorID(creatorID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if svcErr := s.authz.AuthorizeMember(ctx, creatorID, actorID); svcErr != nil {
		return nil, svcErr
	}

	decision := models.DecisionDeclined
	if consented {
		decision = models.DecisionAgreed
	}

	declined := false
	erased := false

	txErr := s.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		lifecycle, err := s.lifecycleDAO.GetByCreatorIDWithTx(ctx, tx, creatorID)
		if err != nil {
			return err
		}
		if lifecycle == nil {
			return errLifecycleNotFound
		}
		if !lifecycle.IsDeletionVoteRunning() {
			return &stateError{current: lifecycle.Status, action: "deletion-consent"}
		}

		now := utils.GetCurrentTimeMillis()
		updated, err := s.deletionDAO.UpdateDecisionWithTx(ctx, tx, lifecycle.LifecycleID, actorID, decision, now)
		if err != nil {
			return err
		}
		if !updated {
			return errVoteRecordMissing
		}

		if !consented {
			// Single decline ends the round: wipe the vote and clear the
			// sub-state in one observable step
			if _, err := s.lifecycleDAO.ClearDeletionStatusWithTx(ctx, tx, lifecycle.LifecycleID, now); err != nil {
				return err
			}
			if err := s.deletionDAO.DeleteByLifecycleWithTx(ctx, tx, lifecycle.LifecycleID); err != nil {
				return err
			}
			declined = true
			return s.auditor.RecordWithTx(ctx, tx, lifecycle.LifecycleID, models.ActionDeletionDeclined, actorID, nil)
		}

		if err := s.auditor.RecordWithTx(ctx, tx, lifecycle.LifecycleID, models.ActionDeletionConsented, actorID,
			map[string]interface{}{"consented": true}); err != nil {
			return err
		}

		outstanding, err := s.deletionDAO.CountNotAgreedWithTx(ctx, tx, lifecycle.LifecycleID)
		if err != nil {
			return err
		}
		if outstanding > 0 {
			return nil
		}

		erased, err = s.eraseCreatorDataWithTx(ctx, tx, lifecycle)
		return err
	})
	if txErr != nil {
		return nil, mapTransitionError(txErr)
	}

	switch {
	case declined:
		s.logger.WithFields(logrus.Fields{
			"creator_id":  creatorID,
			"declined_by": actorID,
		}).Info("Deletion consent declined, round reset")
		s.notifier.broadcast(creatorID, "deletion_cancelled", "A family member declined; the data deletion request was withdrawn")
	case erased:
		s.logger.WithField("creator_id", creatorID).Info("Creator data erased by unanimous consent")
		s.notifier.broadcast(creatorID, "data_erased", "All family members consented; the creator's data has been permanently erased")
		// Nothing left to report for this creator
		return &models.ConsentStatusAPIResponse{
			CreatorID: creatorID,
			Status:    models.StatusActive,
			Votes:     []models.ConsentVoteView{},
		}, nil
	}

	return s.GetDeletionConsentStatus(ctx, creatorID, actorID)
}

// CancelDeletion withdraws a running deletion round. Strictly
// representative-only.
func (s *DeletionConsentService) CancelDeletion(ctx context.Context, creatorID, actorID string) (*models.LifecycleAPIResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateCreatorID(creatorID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if svcErr := s.authz.AuthorizeStrictRepresentative(ctx, creatorID, actorID); svcErr != nil {
		return nil, svcErr
	}

	var result *models.Lifecycle

	txErr := s.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		lifecycle, err := s.lifecycleDAO.GetByCreatorIDWithTx(ctx, tx, creatorID)
		if err != nil {
			return err
		}
		if lifecycle == nil {
			return errLifecycleNotFound
		}

		cleared, err := s.lifecycleDAO.ClearDeletionStatusWithTx(ctx, tx, lifecycle.LifecycleID, utils.GetCurrentTimeMillis())
		if err != nil {
			return err
		}
		if !cleared {
			return &stateError{current: lifecycle.Status, action: "cancel-data-deletion"}
		}

		if err := s.deletionDAO.DeleteByLifecycleWithTx(ctx, tx, lifecycle.LifecycleID); err != nil {
			return err
		}

		if err := s.auditor.RecordWithTx(ctx, tx, lifecycle.LifecycleID, models.ActionDeletionCancelled, actorID, nil); err != nil {
			return err
		}

		lifecycle.DeletionStatus = nil
		result = lifecycle
		return nil
	})
	if txErr != nil {
		return nil, mapTransitionError(txErr)
	}

	s.logger.WithFields(logrus.Fields{
		"creator_id":   creatorID,
		"cancelled_by": actorID,
	}).Info("Deletion consent round cancelled")

	s.notifier.broadcast(creatorID, "deletion_cancelled", "The data deletion request was cancelled")

	hasRep, repErr := s.authz.HasRepresentative(ctx, creatorID)
	if repErr != nil {
		s.logger.WithError(repErr).Warn("Failed to resolve representative flag")
	}

	return result.ToAPIResponse(hasRep), nil
}

// GetDeletionConsentStatus returns the vote state of the deletion round,
// with the same visibility rules as the opening flow
func (s *DeletionConsentService) GetDeletionConsentStatus(ctx context.Context, creatorID, actorID string) (*models.ConsentStatusAPIResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateCreatorID(creatorID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if svcErr := s.authz.AuthorizeMember(ctx, creatorID, actorID); svcErr != nil {
		return nil, svcErr
	}

	lifecycle, err := s.lifecycleDAO.GetByCreatorID(ctx, creatorID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if lifecycle == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("no lifecycle record exists for creator %s", creatorID))
	}

	records, err := s.deletionDAO.GetByLifecycleID(ctx, lifecycle.LifecycleID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	role, roleErr := s.authz.ResolveRole(ctx, creatorID, actorID)
	if roleErr != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, roleErr.Error())
	}
	seeAll := role == models.ActorRepresentative
	if !seeAll {
		hasRep, repErr := s.authz.HasRepresentative(ctx, creatorID)
		if repErr != nil {
			return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, repErr.Error())
		}
		seeAll = !hasRep
	}

	response := &models.ConsentStatusAPIResponse{
		CreatorID:      creatorID,
		Status:         lifecycle.Status,
		DeletionStatus: lifecycle.DeletionStatus,
		Votes:          make([]models.ConsentVoteView, 0, len(records)),
	}

	for _, record := range records {
		response.Summary.Total++
		switch record.Decision {
		case models.DecisionAgreed:
			response.Summary.Agreed++
		case models.DecisionDeclined:
			response.Summary.Declined++
		default:
			response.Summary.Pending++
		}

		if seeAll || record.MemberID == actorID {
			response.Votes = append(response.Votes, models.ConsentVoteView{
				MemberID:     record.MemberID,
				Decision:     record.Decision,
				DecidedTime:  record.DecidedTime,
				AutoResolved: record.AutoResolved,
			})
		}
	}

	return response, nil
}

// eraseCreatorDataWithTx executes the terminal, irreversible erasure inside
// the caller's transaction: claim the lifecycle with a guarded delete, purge
// stored media, then remove every record tied to the creator. The blob purge
// is idempotent and runs before the transaction commits, so a crash
// mid-sequence rolls the records back and the whole erasure is safely
// re-driveable.
func (s *DeletionConsentService) eraseCreatorDataWithTx(ctx context.Context, tx *database.Transaction, lifecycle *models.Lifecycle) (bool, error) {
	claimed, err := s.lifecycleDAO.DeleteIfDeletionGatheringWithTx(ctx, tx, lifecycle.LifecycleID)
	if err != nil {
		return false, err
	}
	if !claimed {
		// A racing finalizer already performed the erasure
		return false, nil
	}

	if err := s.purger.PurgeCreator(ctx, lifecycle.CreatorID); err != nil {
		return false, fmt.Errorf("blob purge failed: %w", err)
	}

	deleted, err := s.lifeRecordDAO.DeleteByCreatorWithTx(ctx, tx, lifecycle.CreatorID)
	if err != nil {
		return false, err
	}

	if err := s.deletionDAO.DeleteByLifecycleWithTx(ctx, tx, lifecycle.LifecycleID); err != nil {
		return false, err
	}
	if err := s.consentDAO.DeleteByLifecycleWithTx(ctx, tx, lifecycle.LifecycleID); err != nil {
		return false, err
	}
	if err := s.actionLogDAO.DeleteByLifecycleWithTx(ctx, tx, lifecycle.LifecycleID); err != nil {
		return false, err
	}

	s.logger.WithFields(logrus.Fields{
		"creator_id":   lifecycle.CreatorID,
		"life_records": deleted,
	}).Info("Creator data erasure completed")

	return true, nil
}
