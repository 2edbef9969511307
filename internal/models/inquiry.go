package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InquiryStatus is one of the eleven lifecycle states of an Inquiry.
type InquiryStatus string

const (
	StatusNew                 InquiryStatus = "New"
	StatusAssigned            InquiryStatus = "Assigned"
	StatusInProgress          InquiryStatus = "In Progress"
	StatusWaitingReserved     InquiryStatus = "Waiting - Property Reserved"
	StatusViewingScheduled    InquiryStatus = "Viewing Scheduled"
	StatusViewedInterested    InquiryStatus = "Viewed - Interested"
	StatusViewedNotInterested InquiryStatus = "Viewed - Not Interested"
	StatusViewedUndecided     InquiryStatus = "Viewed - Undecided"
	StatusDepositPaid         InquiryStatus = "Deposit Paid"
	StatusSuccessful          InquiryStatus = "Successful"
	StatusCancelled           InquiryStatus = "Cancelled"
)

// AllStatuses lists every inquiry status in lifecycle order.
var AllStatuses = []InquiryStatus{
	StatusNew,
	StatusAssigned,
	StatusInProgress,
	StatusWaitingReserved,
	StatusViewingScheduled,
	StatusViewedInterested,
	StatusViewedNotInterested,
	StatusViewedUndecided,
	StatusDepositPaid,
	StatusSuccessful,
	StatusCancelled,
}

// IsValid reports whether s is a known inquiry status.
func (s InquiryStatus) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing transitions.
func (s InquiryStatus) IsTerminal() bool {
	return s == StatusSuccessful || s == StatusCancelled
}

// IsActive reports whether an inquiry in this status still occupies the
// (customer, property) pair for duplicate detection purposes.
func (s InquiryStatus) IsActive() bool {
	return !s.IsTerminal()
}

// Inquiry represents a customer's request regarding one Property.
// Inquiries are never hard-deleted; Cancelled is a terminal status, not a
// deletion.
type Inquiry struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	PropertyID      primitive.ObjectID `bson:"property_id" json:"property_id"`
	PropertyName    string             `bson:"property_name" json:"property_name"` // Denormalized for display and alerts
	CustomerName    string             `bson:"customer_name" json:"customer_name"`
	CustomerEmail   string             `bson:"customer_email" json:"customer_email"`
	CustomerPhone   string             `bson:"customer_phone" json:"customer_phone"`
	CustomerAddress string             `bson:"customer_address,omitempty" json:"customer_address,omitempty"`
	Message         string             `bson:"message" json:"message"`
	Status          InquiryStatus      `bson:"status" json:"status"`

	// AssignedAgentID/AssignedAgentName are both-nil or both-set.
	// Nil is only allowed while Status is New.
	AssignedAgentID   *primitive.ObjectID `bson:"assigned_agent_id,omitempty" json:"assigned_agent_id,omitempty"`
	AssignedAgentName *string             `bson:"assigned_agent_name,omitempty" json:"assigned_agent_name,omitempty"`

	ViewingDate           *time.Time `bson:"viewing_date,omitempty" json:"viewing_date,omitempty"`
	DepositAmount         *float64   `bson:"deposit_amount,omitempty" json:"deposit_amount,omitempty"`
	ReservationExpiryDate *time.Time `bson:"reservation_expiry_date,omitempty" json:"reservation_expiry_date,omitempty"`

	Notes     string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
