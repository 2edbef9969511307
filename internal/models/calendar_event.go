package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventType distinguishes property viewings from blocked-off agent time.
type EventType string

const (
	EventTypeViewing     EventType = "viewing"
	EventTypeUnavailable EventType = "unavailable"
)

// EventStatus is the booking state of a calendar event.
type EventStatus string

const (
	EventStatusConfirmed   EventStatus = "confirmed"
	EventStatusTentative   EventStatus = "tentative"
	EventStatusUnavailable EventStatus = "unavailable"
)

// CalendarEvent is a scheduled block of an agent's time. Events are keyed
// by agent and calendar day; start/end are times of day in "HH:MM" form.
// Linkage to an Inquiry is optional and loose: events are updated and
// cancelled independently of inquiry status.
type CalendarEvent struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	Title        string              `bson:"title" json:"title"`
	Type         EventType           `bson:"type" json:"type"`
	Status       EventStatus         `bson:"status" json:"status"`
	AgentID      primitive.ObjectID  `bson:"agent_id" json:"agent_id"`
	AgentName    string              `bson:"agent_name" json:"agent_name"`
	PropertyID   *primitive.ObjectID `bson:"property_id,omitempty" json:"property_id,omitempty"`
	PropertyName *string             `bson:"property_name,omitempty" json:"property_name,omitempty"`
	InquiryID    *primitive.ObjectID `bson:"inquiry_id,omitempty" json:"inquiry_id,omitempty"`
	CustomerName *string             `bson:"customer_name,omitempty" json:"customer_name,omitempty"`
	Date         time.Time           `bson:"date" json:"date"`             // Calendar day; time-of-day is ignored
	StartTime    string              `bson:"start_time" json:"start_time"` // "HH:MM"
	EndTime      string              `bson:"end_time" json:"end_time"`     // "HH:MM"
	Notes        string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"created_at"`
}
