package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeSettled     EventType = "settled"
	EventTypeRecorded    EventType = "recorded"
	EventTypeUpdated     EventType = "updated"
	EventTypeProposed    EventType = "proposed"
	EventTypePaused      EventType = "paused"
	EventTypeUnpaused    EventType = "unpaused"
	EventTypeTransferred EventType = "transferred"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeSettlement EntityType = "settlement"
	EntityTypeNote       EntityType = "note"
	EntityTypeFee        EntityType = "fee"
	EntityTypeWriter     EntityType = "writer"
	EntityTypeOwnership  EntityType = "ownership"
	EntityTypeLedger     EntityType = "ledger"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "settlement.settled"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "settlement"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// SettlementSettled creates a settlement.settled event
func SettlementSettled(payload interface{}) Event {
	return NewEvent(EventTypeSettled, EntityTypeSettlement, payload)
}

// NoteRecorded creates a note.recorded event
func NoteRecorded(payload interface{}) Event {
	return NewEvent(EventTypeRecorded, EntityTypeNote, payload)
}

// FeeUpdated creates a fee.updated event
func FeeUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeFee, payload)
}

// WriterProposed creates a writer.proposed event
func WriterProposed(payload interface{}) Event {
	return NewEvent(EventTypeProposed, EntityTypeWriter, payload)
}

// WriterUpdated creates a writer.updated event
func WriterUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeWriter, payload)
}

// OwnershipTransferred creates an ownership.transferred event
func OwnershipTransferred(payload interface{}) Event {
	return NewEvent(EventTypeTransferred, EntityTypeOwnership, payload)
}

// LedgerPaused creates a ledger.paused event
func LedgerPaused(payload interface{}) Event {
	return NewEvent(EventTypePaused, EntityTypeLedger, payload)
}

// LedgerUnpaused creates a ledger.unpaused event
func LedgerUnpaused(payload interface{}) Event {
	return NewEvent(EventTypeUnpaused, EntityTypeLedger, payload)
}
