package infrastructure

import (
	"fmt"

	"stakechat/events"
)

// DomainEventStream is the JetStream stream holding every forwarded event
const DomainEventStream = "stakechat_events"

var subjects = map[events.EventType]string{
	events.EventTypeBalanceChange:        "accounts.balance_changed",
	events.EventTypeAccountCreated:       "accounts.created",
	events.EventTypeWagerCreated:         "wagers.created",
	events.EventTypeStakeAttached:        "wagers.stake_attached",
	events.EventTypeReviewerPhaseStarted: "wagers.reviewer_phase_started",
	events.EventTypeWagerSettled:         "wagers.settled",
	events.EventTypeWagerPublished:       "wagers.published",
}

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event type to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(eventType events.EventType) string {
	if subject, ok := subjects[eventType]; ok {
		return subject
	}
	return fmt.Sprintf("unknown.%s", eventType)
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range subjects {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// EventTypes returns every event type with a known subject
func (m *EventSubjectMapper) EventTypes() []events.EventType {
	out := make([]events.EventType, 0, len(subjects))
	for eventType := range subjects {
		out = append(out, eventType)
	}
	return out
}

// GetAllSubjects returns all subjects this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	out := make([]string, 0, len(subjects))
	for _, s := range subjects {
		out = append(out, s)
	}
	return out
}
