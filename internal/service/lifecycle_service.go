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

// LifecycleService owns the per-creator lifecycle record and its primary
// state machine transitions (report death, cancel death report). Reporting
// or cancelling a death also triggers the deceased-member resolver, because
// the person whose lifecycle changed may owe votes to other creators'
// processes.
type LifecycleService struct {
	lifecycleDAO  *dao.LifecycleDAO
	membershipDAO *dao.FamilyMembershipDAO
	authz         *AuthorizationResolver
	auditor       *audit.Auditor
	resolver      *DeceasedMemberResolver
	notifier      *familyNotifier
	db            *database.DB
	logger        *logrus.Logger
}

// NewLifecycleService creates a new lifecycle service instance
func NewLifecycleService(
	lifecycleDAO *dao.LifecycleDAO,
	membershipDAO *dao.FamilyMembershipDAO,
	authz *AuthorizationResolver,
	auditor *audit.Auditor,
	resolver *DeceasedMemberResolver,
	dispatcher notification.Dispatcher,
	db *database.DB,
	logger *logrus.Logger,
) *LifecycleService {
	return &LifecycleService{
		lifecycleDAO:  lifecycleDAO,
		membershipDAO: membershipDAO,
		authz:         authz,
		auditor:       auditor,
		resolver:      resolver,
		notifier:      newFamilyNotifier(dispatcher, membershipDAO, logger),
		db:            db,
		logger:        logger,
	}
}

// GetLifecycle returns the current lifecycle snapshot for a creator. Absence
// of a record is reported as an active lifecycle.
func (s *LifecycleService) GetLifecycle(ctx context.Context, creatorID, actorID string) (*models.LifecycleAPIResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateCreatorID(creatorID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if svcErr := s.authz.AuthorizeRelated(ctx, creatorID, actorID); svcErr != nil {
		return nil, svcErr
	}

	hasRep, err := s.authz.HasRepresentative(ctx, creatorID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	lifecycle, err := s.lifecycleDAO.GetByCreatorID(ctx, creatorID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if lifecycle == nil {
		return &models.LifecycleAPIResponse{
			CreatorID:         creatorID,
			Status:            models.StatusActive,
			HasRepresentative: hasRep,
			MutationBlocked:   false,
		}, nil
	}

	return lifecycle.ToAPIResponse(hasRep), nil
}

// IsMutationBlocked is the predicate the content subsystem consults before
// every creator-content write
func (s *LifecycleService) IsMutationBlocked(ctx context.Context, creatorID string) (bool, error) {
	lifecycle, err := s.lifecycleDAO.GetByCreatorID(ctx, creatorID)
	if err != nil {
		return false, err
	}
	if lifecycle == nil {
		return false, nil
	}
	return models.IsMutationBlocked(lifecycle.Status), nil
}

// ReportDeath records that a creator has died. Idempotent: a repeat call
// while already death_reported returns the existing record with
// alreadyReported set and writes no duplicate audit entry. Any other
// non-active state rejects the report.
func (s *LifecycleService) ReportDeath(ctx context.Context, creatorID, actorID string) (*models.LifecycleAPIResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateCreatorID(creatorID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if err := utils.ValidateActorID(actorID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if svcErr := s.authz.AuthorizeMember(ctx, creatorID, actorID); svcErr != nil {
		return nil, svcErr
	}

	var result *models.Lifecycle
	alreadyReported := false

	err := s.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		lifecycle, err := s.lifecycleDAO.GetByCreatorIDWithTx(ctx, tx, creatorID)
		if err != nil {
			return err
		}

		if lifecycle != nil {
			if lifecycle.Status == models.StatusDeathReported {
				alreadyReported = true
				result = lifecycle
				return nil
			}
			return &stateError{current: lifecycle.Status, action: "report-death"}
		}

		now := utils.GetCurrentTimeMillis()
		result = &models.Lifecycle{
			LifecycleID:     utils.GenerateLifecycleID(),
			CreatorID:       creatorID,
			Status:          models.StatusDeathReported,
			DeathReportedAt: &now,
			DeathReportedBy: &actorID,
			CreatedTime:     now,
			UpdatedTime:     now,
		}
		if err := s.lifecycleDAO.CreateWithTx(ctx, tx, result); err != nil {
			return err
		}

		return s.auditor.RecordWithTx(ctx, tx, result.LifecycleID, models.ActionDeathReported, actorID, nil)
	})
	if err != nil {
		return nil, mapTransitionError(err)
	}

	hasRep, repErr := s.authz.HasRepresentative(ctx, creatorID)
	if repErr != nil {
		s.logger.WithError(repErr).Warn("Failed to resolve representative flag")
	}

	response := result.ToAPIResponse(hasRep)
	response.AlreadyReported = alreadyReported

	if alreadyReported {
		return response, nil
	}

	s.logger.WithFields(logrus.Fields{
		"creator_id":  creatorID,
		"reported_by": actorID,
	}).Info("Death reported")

	// The creator is now classified deceased: sweep every other process
	// where they are a voter. Best-effort by design.
	outcomes := s.resolver.ResolveDeceasedMember(ctx, creatorID)
	for _, outcome := range outcomes {
		if outcome.Error != "" {
			s.logger.WithFields(logrus.Fields{
				"creator_id": outcome.CreatorID,
				"flow":       outcome.Flow,
				"error":      outcome.Error,
			}).Error("Deceased-member sweep failure")
		}
	}

	s.notifier.broadcast(creatorID, "death_reported", "A death has been reported for this family's creator")

	return response, nil
}

// CancelDeathReport reverts death_reported to active and restores any votes
// that were auto-resolved on the cancelled person's behalf
func (s *LifecycleService) CancelDeathReport(ctx context.Context, creatorID, actorID string) (*models.LifecycleAPIResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateCreatorID(creatorID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	fallback, svcErr := s.authz.AuthorizeRepresentative(ctx, creatorID, actorID)
	if svcErr != nil {
		return nil, svcErr
	}

	var result *models.Lifecycle

	err := s.db.WithTransaction(ctx, func(tx *database.Transaction) error {
		lifecycle, err := s.lifecycleDAO.GetByCreatorIDWithTx(ctx, tx, creatorID)
		if err != nil {
			return err
		}
		if lifecycle == nil {
			return errLifecycleNotFound
		}

		updated, err := s.lifecycleDAO.MarkActiveWithTx(ctx, tx, lifecycle.LifecycleID, utils.GetCurrentTimeMillis())
		if err != nil {
			return err
		}
		if !updated {
			return &stateError{current: lifecycle.Status, action: "cancel-death-report"}
		}

		metadata := fallbackMetadata(fallback)
		if err := s.auditor.RecordWithTx(ctx, tx, lifecycle.LifecycleID, models.ActionDeathReportCancelled, actorID, metadata); err != nil {
			return err
		}

		lifecycle.Status = models.StatusActive
		lifecycle.DeathReportedAt = nil
		lifecycle.DeathReportedBy = nil
		result = lifecycle
		return nil
	})
	if err != nil {
		return nil, mapTransitionError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"creator_id":   creatorID,
		"cancelled_by": actorID,
		"fallback":     fallback,
	}).Info("Death report cancelled")

	// Restore votes auto-cast on this person's behalf in other creators'
	// processes. Does not re-trigger any transition.
	s.resolver.RevertAutoResolvedConsents(ctx, creatorID)

	s.notifier.broadcast(creatorID, "death_report_cancelled", "The death report for this family's creator has been cancelled")

	hasRep, repErr := s.authz.HasRepresentative(ctx, creatorID)
	if repErr != nil {
		s.logger.WithError(repErr).Warn("Failed to resolve representative flag")
	}

	return result.ToAPIResponse(hasRep), nil
}

// GetAuditTrail returns the append-only action history of a creator's
// lifecycle. Visible to representatives, or to members under the fallback
// rule.
func (s *LifecycleService) GetAuditTrail(ctx context.Context, creatorID, actorID string) ([]models.LifecycleActionLog, *serviceerror.ServiceError) {
	if err := utils.ValidateCreatorID(creatorID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if _, svcErr := s.authz.AuthorizeRepresentative(ctx, creatorID, actorID); svcErr != nil {
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

	entries, err := s.auditor.Trail(ctx, lifecycle.LifecycleID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	return entries, nil
}
