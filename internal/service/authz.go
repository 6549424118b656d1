package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/everkeep/lifecycle-management-api/internal/dao"
	"github.com/everkeep/lifecycle-management-api/internal/models"
	"github.com/everkeep/lifecycle-management-api/internal/serviceerror"
)

// AuthorizationResolver derives a caller's role relative to a creator and
// applies the representative fallback policy. The actor identity is always
// an explicit parameter, never taken from ambient request state.
type AuthorizationResolver struct {
	membershipDAO *dao.FamilyMembershipDAO
	logger        *logrus.Logger
}

// NewAuthorizationResolver creates a new AuthorizationResolver instance
func NewAuthorizationResolver(membershipDAO *dao.FamilyMembershipDAO, logger *logrus.Logger) *AuthorizationResolver {
	return &AuthorizationResolver{
		membershipDAO: membershipDAO,
		logger:        logger,
	}
}

// ResolveRole derives the actor's role relative to the creator
func (r *AuthorizationResolver) ResolveRole(ctx context.Context, creatorID, actorID string) (models.ActorRole, error) {
	if actorID == creatorID {
		return models.ActorCreator, nil
	}

	membership, err := r.membershipDAO.GetActiveMembership(ctx, creatorID, actorID)
	if err != nil {
		return models.ActorNone, err
	}
	if membership == nil {
		return models.ActorNone, nil
	}

	if membership.Role == models.RoleRepresentative {
		return models.ActorRepresentative, nil
	}
	return models.ActorMember, nil
}

// HasRepresentative reports whether the creator has at least one active
// representative
func (r *AuthorizationResolver) HasRepresentative(ctx context.Context, creatorID string) (bool, error) {
	count, err := r.membershipDAO.CountActiveRepresentatives(ctx, creatorID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AuthorizeMember permits any active family member (representative or
// ordinary member)
func (r *AuthorizationResolver) AuthorizeMember(ctx context.Context, creatorID, actorID string) *serviceerror.ServiceError {
	role, err := r.ResolveRole(ctx, creatorID, actorID)
	if err != nil {
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	if role != models.ActorRepresentative && role != models.ActorMember {
		return serviceerror.CustomServiceError(serviceerror.ForbiddenError,
			"caller is not an active family member of this creator")
	}
	return nil
}

// AuthorizeRelated permits the creator themselves or any active family member
func (r *AuthorizationResolver) AuthorizeRelated(ctx context.Context, creatorID, actorID string) *serviceerror.ServiceError {
	role, err := r.ResolveRole(ctx, creatorID, actorID)
	if err != nil {
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	if role == models.ActorNone {
		return serviceerror.CustomServiceError(serviceerror.ForbiddenError,
			"caller is not related to this creator")
	}
	return nil
}

// AuthorizeRepresentative permits an active representative, falling back to
// any active member when the creator has zero active representatives. The
// returned bool reports whether the fallback rule applied; callers log
// fallback executions distinctly.
func (r *AuthorizationResolver) AuthorizeRepresentative(ctx context.Context, creatorID, actorID string) (bool, *serviceerror.ServiceError) {
	role, err := r.ResolveRole(ctx, creatorID, actorID)
	if err != nil {
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	switch role {
	case models.ActorRepresentative:
		return false, nil
	case models.ActorMember:
		hasRep, err := r.HasRepresentative(ctx, creatorID)
		if err != nil {
			return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
		}
		if hasRep {
			return false, serviceerror.CustomServiceError(serviceerror.ForbiddenError,
				"action requires the representative role")
		}

		r.logger.WithFields(logrus.Fields{
			"creator_id": creatorID,
			"actor_id":   actorID,
		}).Info("Member performing representative action under fallback rule")
		return true, nil
	default:
		return false, serviceerror.CustomServiceError(serviceerror.ForbiddenError,
			"caller is not an active family member of this creator")
	}
}

// AuthorizeStrictRepresentative permits only an active representative. No
// fallback: deletion-flow actions must not be drivable by ordinary members.
func (r *AuthorizationResolver) AuthorizeStrictRepresentative(ctx context.Context, creatorID, actorID string) *serviceerror.ServiceError {
	role, err := r.ResolveRole(ctx, creatorID, actorID)
	if err != nil {
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	if role != models.ActorRepresentative {
		return serviceerror.CustomServiceError(serviceerror.ForbiddenError,
			"action requires the representative role")
	}
	return nil
}
