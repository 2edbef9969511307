package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tes/crm/internal/config"
	"tes/crm/internal/db"
	"tes/crm/internal/inquiry"
	"tes/crm/internal/models"
)

// CreateInquiryRequest is a customer submission from the public site.
type CreateInquiryRequest struct {
	PropertyID      primitive.ObjectID
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
	Message         string
}

// StatusUpdateFields carries the side data some transitions introduce.
// Each field is applied only when non-nil.
type StatusUpdateFields struct {
	ViewingDate           *time.Time
	DepositAmount         *float64
	ReservationExpiryDate *time.Time
	Notes                 *string
}

// InquiryFilter narrows ListInquiries.
type InquiryFilter struct {
	Status     *models.InquiryStatus
	AgentID    *primitive.ObjectID
	PropertyID *primitive.ObjectID
}

// BulkUpdateReport summarizes a bulk status update: which inquiries
// changed and which were rejected, with the reason per rejection.
type BulkUpdateReport struct {
	Updated int                 `json:"updated"`
	Failed  []BulkUpdateFailure `json:"failed,omitempty"`
}

type BulkUpdateFailure struct {
	ID     primitive.ObjectID `json:"id"`
	Reason string             `json:"reason"`
}

// IInquiryService defines the interface for inquiry lifecycle operations.
type IInquiryService interface {
	CreateInquiry(ctx context.Context, req CreateInquiryRequest) (*models.Inquiry, error)
	FindInquiryByID(ctx context.Context, id primitive.ObjectID) (*models.Inquiry, error)
	ListInquiries(ctx context.Context, filter InquiryFilter) ([]models.Inquiry, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, newStatus models.InquiryStatus, fields StatusUpdateFields) (*models.Inquiry, error)
	AssignAgent(ctx context.Context, id, agentID primitive.ObjectID) (*models.Inquiry, error)
	BulkUpdateStatus(ctx context.Context, ids []primitive.ObjectID, newStatus models.InquiryStatus) (*BulkUpdateReport, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	ScanExpiryWarnings(ctx context.Context, now time.Time) ([]inquiry.ExpiryWarning, error)
}

const (
	inquiriesCollection  = "inquiries"
	propertiesCollection = "properties"
	usersCollection      = "users"
)

// inquiryService implements IInquiryService.
type inquiryService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewInquiryService creates a new InquiryService.
func NewInquiryService(db *mongo.Database, cfg *config.Config) IInquiryService {
	return &inquiryService{db: db, cfg: cfg}
}

// CreateInquiry validates a customer submission, runs duplicate detection
// against the property's active inquiries, and inserts the inquiry in the
// New status with no agent assigned. A duplicate is rejected before any
// write, with the existing inquiry attached for the caller to surface.
func (s *inquiryService) CreateInquiry(ctx context.Context, req CreateInquiryRequest) (*models.Inquiry, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, &ValidationError{Field: "customer_name", Reason: "required"}
	}
	email := inquiry.NormalizeEmail(req.CustomerEmail)
	if email == "" || !strings.Contains(email, "@") {
		return nil, &ValidationError{Field: "customer_email", Reason: "a valid email address is required"}
	}
	if !inquiry.ValidPhone(req.CustomerPhone) {
		return nil, &ValidationError{Field: "customer_phone", Reason: "must be a Philippine mobile number (09xx or +63 format)"}
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, &ValidationError{Field: "message", Reason: "required"}
	}

	// The property must exist and not be soft-deleted.
	var property models.Property
	err := s.db.Collection(propertiesCollection).
		FindOne(ctx, bson.M{"_id": req.PropertyID, "deleted": false}).
		Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding property %s: %w", req.PropertyID.Hex(), err)
	}

	// Duplicate detection runs over this property's non-terminal
	// inquiries. Check-then-write is not atomic (last-write-wins store);
	// acceptable for the single-admin usage pattern.
	existing, err := s.activeInquiriesForProperty(ctx, req.PropertyID)
	if err != nil {
		return nil, err
	}
	if dup := inquiry.DetectDuplicate(req.CustomerEmail, req.CustomerPhone, req.PropertyID, existing); dup.IsDuplicate {
		return nil, &DuplicateInquiryError{Existing: dup.Existing}
	}

	now := time.Now().UTC()
	newInquiry := &models.Inquiry{
		ID:              primitive.NewObjectID(),
		PropertyID:      req.PropertyID,
		PropertyName:    property.Name,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerEmail:   email,
		CustomerPhone:   inquiry.FormatPhone(req.CustomerPhone),
		CustomerAddress: strings.TrimSpace(req.CustomerAddress),
		Message:         strings.TrimSpace(req.Message),
		Status:          models.StatusNew,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	insert := func() error {
		_, insertErr := s.db.Collection(inquiriesCollection).InsertOne(ctx, newInquiry)
		return insertErr
	}
	if err := db.Try(insert); err != nil {
		return nil, fmt.Errorf("failed to insert inquiry for property %s: %w", req.PropertyID.Hex(), err)
	}

	return newInquiry, nil
}

// FindInquiryByID finds an inquiry by its ID.
func (s *inquiryService) FindInquiryByID(ctx context.Context, id primitive.ObjectID) (*models.Inquiry, error) {
	var inq models.Inquiry
	err := s.db.Collection(inquiriesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&inq)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding inquiry %s: %w", id.Hex(), err)
	}
	return &inq, nil
}

// ListInquiries returns inquiries matching the filter, newest first.
func (s *inquiryService) ListInquiries(ctx context.Context, filter InquiryFilter) ([]models.Inquiry, error) {
	query := bson.M{}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.AgentID != nil {
		query["assigned_agent_id"] = *filter.AgentID
	}
	if filter.PropertyID != nil {
		query["property_id"] = *filter.PropertyID
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(inquiriesCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing inquiries: %w", err)
	}
	defer cursor.Close(ctx)

	var inquiries []models.Inquiry
	if err := cursor.All(ctx, &inquiries); err != nil {
		return nil, fmt.Errorf("error decoding inquiries: %w", err)
	}
	return inquiries, nil
}

// UpdateStatus moves an inquiry to a new status after validating the
// transition against the lifecycle table. Side fields introduced by the
// target status (viewing date, deposit, reservation expiry) are applied
// in the same write. Illegal transitions are rejected before any write.
func (s *inquiryService) UpdateStatus(ctx context.Context, id primitive.ObjectID, newStatus models.InquiryStatus, fields StatusUpdateFields) (*models.Inquiry, error) {
	if !newStatus.IsValid() {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", newStatus)}
	}

	current, err := s.FindInquiryByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !inquiry.ValidateTransition(current.Status, newStatus) {
		return nil, &TransitionError{From: current.Status, To: newStatus}
	}

	update := bson.M{
		"status":     newStatus,
		"updated_at": time.Now().UTC(),
	}
	if fields.ViewingDate != nil {
		update["viewing_date"] = *fields.ViewingDate
	}
	if fields.DepositAmount != nil {
		update["deposit_amount"] = *fields.DepositAmount
	}
	if fields.ReservationExpiryDate != nil {
		update["reservation_expiry_date"] = *fields.ReservationExpiryDate
	}
	if fields.Notes != nil {
		update["notes"] = *fields.Notes
	}

	// Filter on the current status too, so a concurrent transition makes
	// this write miss instead of clobbering.
	res, err := s.db.Collection(inquiriesCollection).UpdateOne(ctx,
		bson.M{"_id": id, "status": current.Status},
		bson.M{"$set": update})
	if err != nil {
		return nil, fmt.Errorf("error updating inquiry %s status: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("inquiry %s changed concurrently, status not updated", id.Hex())
	}

	return s.FindInquiryByID(ctx, id)
}

// AssignAgent sets or changes the assigned agent. A New inquiry moves to
// Assigned as part of the same operation; reassignment is refused once a
// deposit has been paid or the sale closed.
func (s *inquiryService) AssignAgent(ctx context.Context, id, agentID primitive.ObjectID) (*models.Inquiry, error) {
	current, err := s.FindInquiryByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !inquiry.CanReassign(current.Status) {
		return nil, ErrReassignLocked
	}

	var agent models.User
	err = s.db.Collection(usersCollection).
		FindOne(ctx, bson.M{"_id": agentID, "role": models.RoleAgent, "active": true}).
		Decode(&agent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &ValidationError{Field: "agent_id", Reason: "no active agent with this ID"}
		}
		return nil, fmt.Errorf("error finding agent %s: %w", agentID.Hex(), err)
	}

	update := bson.M{
		"assigned_agent_id":   agent.ID,
		"assigned_agent_name": agent.Name,
		"updated_at":          time.Now().UTC(),
	}
	// First assignment advances the lifecycle from New.
	if current.Status == models.StatusNew {
		update["status"] = models.StatusAssigned
	}

	_, err = s.db.Collection(inquiriesCollection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return nil, fmt.Errorf("error assigning agent on inquiry %s: %w", id.Hex(), err)
	}

	return s.FindInquiryByID(ctx, id)
}

// BulkUpdateStatus applies the same status change to many inquiries,
// validating each one independently. Rejected items are reported rather
// than aborting the batch.
func (s *inquiryService) BulkUpdateStatus(ctx context.Context, ids []primitive.ObjectID, newStatus models.InquiryStatus) (*BulkUpdateReport, error) {
	if !newStatus.IsValid() {
		return nil, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", newStatus)}
	}

	report := &BulkUpdateReport{}
	for _, id := range ids {
		if _, err := s.UpdateStatus(ctx, id, newStatus, StatusUpdateFields{}); err != nil {
			report.Failed = append(report.Failed, BulkUpdateFailure{ID: id, Reason: err.Error()})
			continue
		}
		report.Updated++
	}
	return report, nil
}

// CountCreatedSince counts inquiries submitted after the given time.
func (s *inquiryService) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	count, err := s.db.Collection(inquiriesCollection).CountDocuments(ctx, bson.M{"created_at": bson.M{"$gt": since}})
	if err != nil {
		return 0, fmt.Errorf("error counting new inquiries: %w", err)
	}
	return count, nil
}

// ScanExpiryWarnings fetches every inquiry carrying a reservation expiry
// date and runs the pure expiry scan over the snapshot.
func (s *inquiryService) ScanExpiryWarnings(ctx context.Context, now time.Time) ([]inquiry.ExpiryWarning, error) {
	cursor, err := s.db.Collection(inquiriesCollection).Find(ctx,
		bson.M{"reservation_expiry_date": bson.M{"$ne": nil}})
	if err != nil {
		return nil, fmt.Errorf("error fetching inquiries for expiry scan: %w", err)
	}
	defer cursor.Close(ctx)

	var inquiries []models.Inquiry
	if err := cursor.All(ctx, &inquiries); err != nil {
		return nil, fmt.Errorf("error decoding inquiries for expiry scan: %w", err)
	}

	return inquiry.ScanForExpiryWarnings(inquiries, now), nil
}

// activeInquiriesForProperty returns the property's inquiries still in a
// non-terminal status.
func (s *inquiryService) activeInquiriesForProperty(ctx context.Context, propertyID primitive.ObjectID) ([]models.Inquiry, error) {
	cursor, err := s.db.Collection(inquiriesCollection).Find(ctx, bson.M{
		"property_id": propertyID,
		"status":      bson.M{"$nin": []models.InquiryStatus{models.StatusSuccessful, models.StatusCancelled}},
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching active inquiries for property %s: %w", propertyID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var inquiries []models.Inquiry
	if err := cursor.All(ctx, &inquiries); err != nil {
		return nil, fmt.Errorf("error decoding active inquiries: %w", err)
	}
	return inquiries, nil
}
