package services

import (
	"context"
	"strings"

	"github.com/anj-alii/learniverse-skillbridge-33/internal/models"
	"github.com/google/uuid"
)

const (
	EventSwapRequested  = "swap_requested"
	EventCreditsUpdated = "credits_updated"
	EventRemediation    = "remediation"

	defaultContributeLink = "/skills/new"
	remediationMessage    = "You're out of credits. Share a skill with the community to earn more."
)

// EventPublisher pushes a typed event to every live connection of a user.
// Implementations must not block the caller.
type EventPublisher interface {
	Publish(userID uuid.UUID, eventType string, payload any)
}

type RemediationNotifier struct {
	link      string
	publisher EventPublisher
}

func NewRemediationNotifier(link string, publisher EventPublisher) *RemediationNotifier {
	link = strings.TrimSpace(link)
	if link == "" {
		link = defaultContributeLink
	}
	return &RemediationNotifier{
		link:      link,
		publisher: publisher,
	}
}

// Notify builds the contribute-a-skill prompt for a user with no credits.
func (n *RemediationNotifier) Notify(_ context.Context, userID uuid.UUID) models.Remediation {
	remediation := models.Remediation{
		Message: remediationMessage,
		Link:    n.link,
	}
	if n.publisher != nil && userID != uuid.Nil {
		n.publisher.Publish(userID, EventRemediation, remediation)
	}
	return remediation
}
