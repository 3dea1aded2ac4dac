package premis

import (
	"github.com/APTrust/livepremis/constants"
	"github.com/APTrust/livepremis/util"
	"github.com/satori/go.uuid"
	"strings"
)

/*
BuildFixityEvent returns a new fixity check event for the object
objId. The event and its linking agent identifier each get a new
UUID. The category is always "fixity check": eventType is accepted
for compatibility with existing callers and otherwise ignored.

Agent is the name of the agent that ran the check. It is kept as
the agent's role. The linking agent identifier is not looked up
from the agent registry; use LinkAgent if you have the agent's real
identifier.

The event is not added to any record. See AppendEvent.
*/
func BuildFixityEvent(eventType, eventDateTime, outcomeStatus, outcomeMessage, agent, objId string) *Event {
	event := &Event{
		EventIdentifier: &EventIdentifier{
			EventIdentifierType:  constants.IdTypeDOI,
			EventIdentifierValue: uuid.NewV4().String(),
		},
		EventType:     constants.EventFixityCheck,
		EventDateTime: eventDateTime,
		EventOutcomeInformation: []*EventOutcomeInformation{
			&EventOutcomeInformation{
				EventOutcome: outcomeStatus,
				EventOutcomeDetails: []*EventOutcomeDetail{
					&EventOutcomeDetail{EventOutcomeDetailNote: outcomeMessage},
				},
			},
		},
		LinkingAgentIdentifiers: []*LinkingAgentIdentifier{
			&LinkingAgentIdentifier{
				LinkingAgentIdentifierType:  constants.IdTypeDOI,
				LinkingAgentIdentifierValue: uuid.NewV4().String(),
			},
		},
		LinkingObjectIdentifiers: []*LinkingObjectIdentifier{
			&LinkingObjectIdentifier{
				LinkingObjectIdentifierType:  constants.IdTypeDOI,
				LinkingObjectIdentifierValue: objId,
			},
		},
	}
	if strings.TrimSpace(agent) != "" {
		event.LinkingAgentIdentifiers[0].LinkingAgentRole = []string{agent}
	}
	return event
}

// LinkAgent replaces the event's linking agent identifier value
// with agentId, keeping the DOI type and any role.
func LinkAgent(event *Event, agentId string) {
	if len(event.LinkingAgentIdentifiers) == 0 {
		event.LinkingAgentIdentifiers = []*LinkingAgentIdentifier{
			&LinkingAgentIdentifier{LinkingAgentIdentifierType: constants.IdTypeDOI},
		}
	}
	event.LinkingAgentIdentifiers[0].LinkingAgentIdentifierValue = agentId
}

// ValidateEvent returns an *EventAppendRejected describing the
// first structural problem with event, or nil.
func ValidateEvent(event *Event) error {
	if event == nil {
		return &EventAppendRejected{Reason: "event is nil"}
	}
	id := event.IdentifierValue()
	if event.EventIdentifier == nil || strings.TrimSpace(id) == "" ||
		strings.TrimSpace(event.EventIdentifier.EventIdentifierType) == "" {
		return &EventAppendRejected{Reason: "event identifier is missing"}
	}
	if strings.TrimSpace(event.EventType) == "" {
		return &EventAppendRejected{EventIdentifier: id, Reason: "event type is missing"}
	}
	if strings.TrimSpace(event.EventDateTime) == "" {
		return &EventAppendRejected{EventIdentifier: id, Reason: "event date time is missing"}
	}
	// An event whose date we can't read back would never count as
	// the last check of its kind.
	if !constants.ISO8601Pattern.MatchString(event.EventDateTime) {
		return &EventAppendRejected{
			EventIdentifier: id,
			Reason:          "event date time '" + event.EventDateTime + "' is not ISO-8601",
		}
	}
	if _, err := ParseEventDateTime(event.EventDateTime); err != nil {
		return &EventAppendRejected{
			EventIdentifier: id,
			Reason:          "event date time '" + event.EventDateTime + "' is not a valid date/time",
		}
	}
	outcome := event.Outcome()
	if outcome == "" {
		return &EventAppendRejected{EventIdentifier: id, Reason: "event outcome is missing"}
	}
	if !util.StringListContains(constants.OutcomeStatuses, outcome) {
		return &EventAppendRejected{
			EventIdentifier: id,
			Reason:          "event outcome '" + outcome + "' is not one of " + strings.Join(constants.OutcomeStatuses, ", "),
		}
	}
	return nil
}

// AppendEvent adds event to the end of the record's event list.
// It returns an *EventAppendRejected, and leaves the record
// unchanged, if the event is malformed or its identifier is
// already used by another event in the record.
func AppendEvent(record *Record, event *Event) error {
	if record == nil {
		return &EventAppendRejected{Reason: "record is nil"}
	}
	if err := ValidateEvent(event); err != nil {
		return err
	}
	if record.FindEventByIdentifier(event.IdentifierValue()) != nil {
		return &EventAppendRejected{
			EventIdentifier: event.IdentifierValue(),
			Reason:          "record already has an event with this identifier",
		}
	}
	record.Events = append(record.Events, event)
	return nil
}

// AddEvent is AppendEvent for callers that only need to know whether
// the event went in. It never panics.
func AddEvent(record *Record, event *Event) bool {
	return AppendEvent(record, event) == nil
}
