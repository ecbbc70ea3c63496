package realtime

import (
	"fmt"

	"github.com/quadpass/quadpass/internal/domain"
)

// Topic naming is part of the wire contract and must stay stable.
func EventTopic(eventID string) string {
	return fmt.Sprintf("topic/event/%s", eventID)
}

func CampusTopic(campusID string) string {
	return fmt.Sprintf("topic/campus/%s", campusID)
}

func OrganizationTopic(organizationID string) string {
	return fmt.Sprintf("topic/organization/%s", organizationID)
}

// UserQueue is the private per-user destination for targeted messages.
func UserQueue(userID string) string {
	return fmt.Sprintf("user/%s/queue/notifications", userID)
}

// topicsFor computes every destination a domain event fans out to. A single
// event may target several scopes at once.
func topicsFor(ev domain.DomainEvent) []string {
	var topics []string
	if ev.EventID != "" {
		topics = append(topics, EventTopic(ev.EventID))
	}
	if ev.CampusID != "" {
		topics = append(topics, CampusTopic(ev.CampusID))
	}
	if ev.OrganizationID != "" {
		topics = append(topics, OrganizationTopic(ev.OrganizationID))
	}
	if ev.UserID != "" {
		topics = append(topics, UserQueue(ev.UserID))
	}
	return topics
}
