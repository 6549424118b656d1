package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/everkeep/lifecycle-management-api/internal/dao"
	"github.com/everkeep/lifecycle-management-api/internal/notification"
	"github.com/everkeep/lifecycle-management-api/pkg/utils"
)

// familyNotifier broadcasts lifecycle events to a creator's active family
// members. Dispatch runs detached from the request so a slow or failing
// notification collaborator can never delay or fail a state transition.
type familyNotifier struct {
	dispatcher    notification.Dispatcher
	membershipDAO *dao.FamilyMembershipDAO
	logger        *logrus.Logger
}

func newFamilyNotifier(dispatcher notification.Dispatcher, membershipDAO *dao.FamilyMembershipDAO, logger *logrus.Logger) *familyNotifier {
	return &familyNotifier{
		dispatcher:    dispatcher,
		membershipDAO: membershipDAO,
		logger:        logger,
	}
}

// broadcast notifies all active family members of the creator, fire-and-forget
func (n *familyNotifier) broadcast(creatorID, eventType, message string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		members, err := n.membershipDAO.GetActiveMembers(ctx, creatorID)
		if err != nil {
			n.logger.WithError(err).WithField("creator_id", creatorID).
				Error("Failed to resolve notification recipients")
			return
		}

		recipients := make([]string, 0, len(members))
		for _, member := range members {
			recipients = append(recipients, member.MemberID)
		}

		n.dispatcher.Notify(ctx, &notification.Event{
			CreatorID:  creatorID,
			EventType:  eventType,
			Recipients: recipients,
			Message:    message,
			OccurredAt: utils.GetCurrentTimeMillis(),
		})
	}()
}
