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
	"github.com/everkeep/lifecycle-management-api/pkg/utils"
)

// OpeningConsentService manages the vote that gates access to a creator's
// note after death is reported.
//
// A declined vote does not reset the round: unlike the deletion flow, the
// opening vote waits for an explicit representative reset. The asymmetry is
// deliberate.
type OpeningConsentService struct {
	lifecycleDAO  *dao.LifecycleDAO
	consentDAO    *dao.ConsentRecordDAO
	membershipDAO *dao.FamilyMembershipDAO
	authz         *AuthorizationResolver
	auditor       *audit.Auditor
	notifier      *familyNotifier
	db            *database.DB
	logger        *logrus.Logger
}

// NewOpeningConsentService creates a new opening consent service instance
func NewOpeningConsentService(
	lifecycleDAO *dao.LifecycleDAO,
	consentDAO *dao.ConsentRecordDAO,
	membershipDAO *dao.FamilyMembershipDAO,
	authz *AuthorizationResolver,
	auditor *audit.Auditor,
	dispatcher notification.Dispatcher,
	db *database.DB,
	logger *logrus.Logger,
) *OpeningConsentService {
	return &OpeningConsentService{
		lifecycleDAO:  lifecycleDAO,
		consentDAO:    consentDAO,
		membershipDAO: membershipDAO,
		authz:         authz,
		auditor:       auditor,
		notifier:      newFamilyNotifier(dispatcher, membershipDAO, logger),
		db:            db,
		logger:        logger,
	}
}

// InitiateConsent snapshots all currently active family members into pending
// vote records and advances the lifecycle to consent_gathering. Members
// added afterward are not retroactively enfranchised.
func (s *OpeningConsentService) InitiateConsent(ctx context.Context, creatorID, actorID string) (*models.ConsentStatusAPIResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateCreatorID(creatorID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	fallback, svcErr := s.authz.AuthorizeRepresentative(ctx, creatorID, actorID)
	if svcErr != nil {
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

		advanced, err := s.lifecycleDAO.MarkConsentGatheringWithTx(ctx, tx, lifecycle.LifecycleID, actorID, utils.GetCurrentTimeMillis())
		if err != nil {
			return err
		}
		if !advanced {
			return &stateError{current: lifecycle.Status, action: "initiate-consent"}
		}

		now := utils.GetCurrentTimeMillis()
		records := make([]models.ConsentRecord, 0, len(members))
		for _, member := range members {
			records = append(records, models.ConsentRecord{
				ConsentID:   utils.GenerateConsentRecordID(),
				LifecycleID: lifecycle.LifecycleID,
				MemberID:    member.MemberID,
				Decision:    models.DecisionPending,
				CreatedTime: now,
			})
		}
		if err := s.consentDAO.CreateBatchWithTx(ctx, tx, records); err != nil {
			return err
		}

		metadata := fallbackMetadata(fallback)
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		metadata["voterCount"] = len(records)
		return s.auditor.RecordWithTx(ctx, tx, lifecycle.LifecycleID, models.ActionConsentInitiated, actorID, metadata)
	})
	if txErr != nil {
		return nil, mapTransitionError(txErr)
	}

	s.logger.WithFields(logrus.Fields{
		"creator_id":   creatorID,
		"initiated_by": actorID,
		"voters":       len(members),
		"fallback":     fallback,
	}).Info("Opening consent gathering started")

	s.notifier.broadcast(creatorID, "consent_initiated", "Consent is being gathered to open the creator's note")

	return s.GetConsentStatus(ctx, creatorID, actorID)
}

// SubmitConsent records the caller's own vote. The vote update, the
// unanimity check and the possible transition to opened run in one
// transaction; the status guard on the transition makes it fire exactly
// once under racing submissions.
func (s *OpeningConsentService) SubmitConsent(ctx context.Context, creatorID, actorID string, consented bool) (*models.ConsentStatusAPIResponse, *serviceerror.ServiceError) {
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

	opened := false

	txErr := s.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		lifecycle, err := s.lifecycleDAO.GetByCreatorIDWithTx(ctx, tx, creatorID)
		if err != nil {
			return err
		}
		if lifecycle == nil {
			return errLifecycleNotFound
		}
		if lifecycle.Status != models.StatusConsentGathering {
			return &stateError{current: lifecycle.Status, action: "submit-consent"}
		}

		now := utils.GetCurrentTimeMillis()
		updated, err := s.consentDAO.UpdateDecisionWithTx(ctx, tx, lifecycle.LifecycleID, actorID, decision, now)
		if err != nil {
			return err
		}
		if !updated {
			return errVoteRecordMissing
		}

		if err := s.auditor.RecordWithTx(ctx, tx, lifecycle.LifecycleID, models.ActionConsentSubmitted, actorID,
			map[string]interface{}{"consented": consented}); err != nil {
			return err
		}

		if !consented {
			// A decline blocks unanimity but does not reset the round
			return nil
		}

		outstanding, err := s.consentDAO.CountNotAgreedWithTx(ctx, tx, lifecycle.LifecycleID)
		if err != nil {
			return err
		}
		if outstanding > 0 {
			return nil
		}

		opened, err = s.lifecycleDAO.MarkOpenedWithTx(ctx, tx, lifecycle.LifecycleID, now)
		if err != nil {
			return err
		}
		if !opened {
			// A racing unanimous submission already performed the transition
			return nil
		}

		return s.auditor.RecordWithTx(ctx, tx, lifecycle.LifecycleID, models.ActionNoteOpened, actorID,
			map[string]interface{}{"trigger": "unanimous_consent"})
	})
	if txErr != nil {
		return nil, mapTransitionError(txErr)
	}

	if opened {
		s.logger.WithField("creator_id", creatorID).Info("Note opened by unanimous consent")
		s.notifier.broadcast(creatorID, "note_opened", "All family members consented; the creator's note is now open")
	}

	return s.GetConsentStatus(ctx, creatorID, actorID)
}

// ResetConsent deletes all vote records of the running round and reverts the
// lifecycle to death_reported. This is the only way out of a declined
// opening vote.
func (s *OpeningConsentService) ResetConsent(ctx context.Context, creatorID, actorID string) (*models.LifecycleAPIResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateCreatorID(creatorID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	fallback, svcErr := s.authz.AuthorizeRepresentative(ctx, creatorID, actorID)
	if svcErr != nil {
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

		reverted, err := s.lifecycleDAO.RevertToDeathReportedWithTx(ctx, tx, lifecycle.LifecycleID, utils.GetCurrentTimeMillis())
		if err != nil {
			return err
		}
		if !reverted {
			return &stateError{current: lifecycle.Status, action: "reset-consent"}
		}

		if err := s.consentDAO.DeleteByLifecycleWithTx(ctx, tx, lifecycle.LifecycleID); err != nil {
			return err
		}

		if err := s.auditor.RecordWithTx(ctx, tx, lifecycle.LifecycleID, models.ActionConsentReset, actorID, fallbackMetadata(fallback)); err != nil {
			return err
		}

		lifecycle.Status = models.StatusDeathReported
		lifecycle.ConsentInitiatedBy = nil
		result = lifecycle
		return nil
	})
	if txErr != nil {
		return nil, mapTransitionError(txErr)
	}

	s.logger.WithFields(logrus.Fields{
		"creator_id": creatorID,
		"reset_by":   actorID,
		"fallback":   fallback,
	}).Info("Opening consent round reset")

	s.notifier.broadcast(creatorID, "consent_reset", "The consent round for opening the creator's note was reset")

	hasRep, repErr := s.authz.HasRepresentative(ctx, creatorID)
	if repErr != nil {
		s.logger.WithError(repErr).Warn("Failed to resolve representative flag")
	}

	return result.ToAPIResponse(hasRep), nil
}

// GetConsentStatus returns the vote state of the running round.
// Representatives see every vote; so does any member when the creator has
// no active representative. An ordinary member only sees their own vote.
// The aggregate summary is visible to all voters.
func (s *OpeningConsentService) GetConsentStatus(ctx context.Context, creatorID, actorID string) (*models.ConsentStatusAPIResponse, *serviceerror.ServiceError) {
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

	records, err := s.consentDAO.GetByLifecycleID(ctx, lifecycle.LifecycleID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	seeAll, err := s.canSeeAllVotes(ctx, creatorID, actorID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
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

func (s *OpeningConsentService) canSeeAllVotes(ctx context.Context, creatorID, actorID string) (bool, error) {
	role, err := s.authz.ResolveRole(ctx, creatorID, actorID)
	if err != nil {
		return false, err
	}
	if role == models.ActorRepresentative {
		return true, nil
	}
	hasRep, err := s.authz.HasRepresentative(ctx, creatorID)
	if err != nil {
		return false, err
	}
	return !hasRep, nil
}
