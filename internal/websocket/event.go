package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated, deleted)
type EventType string

const (
	EventTypeCreated EventType = "created"
	EventTypeUpdated EventType = "updated"
	EventTypeDeleted EventType = "deleted"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeTransaction EntityType = "transaction"
	EntityTypeAccount     EntityType = "account"
	EntityTypeRule        EntityType = "rule"
	EntityTypeSchedule    EntityType = "schedule"
	EntityTypeOccurrence  EntityType = "occurrence"
	EntityTypeDebt        EntityType = "debt"
)

// Additional event types for specific events
const (
	EventTypeSynced  EventType = "synced"
	EventTypePaid    EventType = "paid"
	EventTypeSkipped EventType = "skipped"
	EventTypeSettled EventType = "settled"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "transaction.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "transaction"
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

// TransactionCreated creates a transaction.created event
func TransactionCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeTransaction, payload)
}

// TransactionUpdated creates a transaction.updated event
func TransactionUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeTransaction, payload)
}

// TransactionDeleted creates a transaction.deleted event
func TransactionDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeTransaction, payload)
}

// AccountCreated creates an account.created event
func AccountCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeAccount, payload)
}

// AccountUpdated creates an account.updated event
func AccountUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeAccount, payload)
}

// AccountDeleted creates an account.deleted event
func AccountDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeAccount, payload)
}

// RuleCreated creates a rule.created event
func RuleCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeRule, payload)
}

// RuleUpdated creates a rule.updated event
func RuleUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeRule, payload)
}

// RuleDeleted creates a rule.deleted event
func RuleDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeRule, payload)
}

// ScheduleSynced creates a schedule.synced event
func ScheduleSynced(payload interface{}) Event {
	return NewEvent(EventTypeSynced, EntityTypeSchedule, payload)
}

// OccurrencePaid creates an occurrence.paid event
func OccurrencePaid(payload interface{}) Event {
	return NewEvent(EventTypePaid, EntityTypeOccurrence, payload)
}

// OccurrenceSkipped creates an occurrence.skipped event
func OccurrenceSkipped(payload interface{}) Event {
	return NewEvent(EventTypeSkipped, EntityTypeOccurrence, payload)
}

// DebtSettled creates a debt.settled event
func DebtSettled(payload interface{}) Event {
	return NewEvent(EventTypeSettled, EntityTypeDebt, payload)
}
