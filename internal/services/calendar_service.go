package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tes/crm/internal/calendar"
	"tes/crm/internal/config"
	"tes/crm/internal/db"
	"tes/crm/internal/models"
)

// EventUpdate carries the mutable fields of a calendar event. Nil fields
// are left unchanged.
type EventUpdate struct {
	Title     *string
	Status    *models.EventStatus
	Date      *time.Time
	StartTime *string
	EndTime   *string
	Notes     *string
}

// EventFilter narrows ListEvents. From/To bound the calendar day.
type EventFilter struct {
	AgentID *primitive.ObjectID
	From    *time.Time
	To      *time.Time
}

// ICalendarService defines the interface for agent schedule operations.
type ICalendarService interface {
	CreateEvent(ctx context.Context, event *models.CalendarEvent) (*models.CalendarEvent, error)
	FindEventByID(ctx context.Context, id primitive.ObjectID) (*models.CalendarEvent, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]models.CalendarEvent, error)
	UpdateEvent(ctx context.Context, id primitive.ObjectID, update EventUpdate) (*models.CalendarEvent, error)
	DeleteEvent(ctx context.Context, id primitive.ObjectID) error
	AvailableSlots(ctx context.Context, agentID primitive.ObjectID, date time.Time, slotDuration int) ([]calendar.TimeSlot, error)
	RecommendedSlots(ctx context.Context, agentID primitive.ObjectID, date time.Time) ([]calendar.TimeSlot, error)
}

const eventsCollection = "calendar_events"

// calendarService implements ICalendarService.
type calendarService struct {
	db      *mongo.Database
	cfg     *config.Config
	checker calendar.Checker
}

// NewCalendarService creates a new CalendarService with the scheduling
// policy taken from config.
func NewCalendarService(database *mongo.Database, cfg *config.Config) ICalendarService {
	checker := calendar.NewChecker()
	if cfg.BufferMinutes > 0 {
		checker.BufferMinutes = cfg.BufferMinutes
	}
	if cfg.BusinessDayStart != "" {
		checker.DayStart = cfg.BusinessDayStart
	}
	if cfg.BusinessDayEnd != "" {
		checker.DayEnd = cfg.BusinessDayEnd
	}
	return &calendarService{db: database, cfg: cfg, checker: checker}
}

// CreateEvent validates the time range, checks the agent's day for
// buffered conflicts, and inserts the event. Conflicts are rejected
// before any write, with the full colliding list attached.
func (s *calendarService) CreateEvent(ctx context.Context, event *models.CalendarEvent) (*models.CalendarEvent, error) {
	if err := calendar.ValidateEventTime(event.StartTime, event.EndTime); err != nil {
		return nil, err
	}
	if event.Type != models.EventTypeViewing && event.Type != models.EventTypeUnavailable {
		return nil, &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown event type %q", event.Type)}
	}

	dayEvents, err := s.eventsForAgentDay(ctx, event.AgentID, event.Date)
	if err != nil {
		return nil, err
	}

	req := calendar.Request{
		AgentID:   event.AgentID,
		Date:      event.Date,
		StartTime: event.StartTime,
		EndTime:   event.EndTime,
	}
	result, err := s.checker.CheckConflict(req, dayEvents, nil)
	if err != nil {
		return nil, err
	}
	if result.HasConflict {
		return nil, &ConflictError{
			Conflicts: result.ConflictingEvents,
			Message:   s.checker.ConflictMessage(result.ConflictingEvents),
		}
	}

	event.ID = primitive.NewObjectID()
	event.Date = calendar.DateKey(event.Date)
	event.CreatedAt = time.Now().UTC()
	if event.Status == "" {
		if event.Type == models.EventTypeUnavailable {
			event.Status = models.EventStatusUnavailable
		} else {
			event.Status = models.EventStatusConfirmed
		}
	}

	insert := func() error {
		_, insertErr := s.db.Collection(eventsCollection).InsertOne(ctx, event)
		return insertErr
	}
	if err := db.Try(insert); err != nil {
		return nil, fmt.Errorf("failed to insert calendar event for agent %s: %w", event.AgentID.Hex(), err)
	}

	return event, nil
}

// FindEventByID finds a calendar event by its ID.
func (s *calendarService) FindEventByID(ctx context.Context, id primitive.ObjectID) (*models.CalendarEvent, error) {
	var event models.CalendarEvent
	err := s.db.Collection(eventsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding calendar event %s: %w", id.Hex(), err)
	}
	return &event, nil
}

// ListEvents returns events matching the filter, ordered by day then
// start time.
func (s *calendarService) ListEvents(ctx context.Context, filter EventFilter) ([]models.CalendarEvent, error) {
	query := bson.M{}
	if filter.AgentID != nil {
		query["agent_id"] = *filter.AgentID
	}
	dateRange := bson.M{}
	if filter.From != nil {
		dateRange["$gte"] = calendar.DateKey(*filter.From)
	}
	if filter.To != nil {
		dateRange["$lte"] = calendar.DateKey(*filter.To)
	}
	if len(dateRange) > 0 {
		query["date"] = dateRange
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "start_time", Value: 1}})
	cursor, err := s.db.Collection(eventsCollection).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing calendar events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.CalendarEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("error decoding calendar events: %w", err)
	}
	return events, nil
}

// UpdateEvent applies the given changes and re-runs validation and
// conflict checking against the resulting event, excluding the event
// itself from the scan.
func (s *calendarService) UpdateEvent(ctx context.Context, id primitive.ObjectID, update EventUpdate) (*models.CalendarEvent, error) {
	current, err := s.FindEventByID(ctx, id)
	if err != nil {
		return nil, err
	}

	proposed := *current
	if update.Title != nil {
		proposed.Title = *update.Title
	}
	if update.Status != nil {
		proposed.Status = *update.Status
	}
	if update.Date != nil {
		proposed.Date = calendar.DateKey(*update.Date)
	}
	if update.StartTime != nil {
		proposed.StartTime = *update.StartTime
	}
	if update.EndTime != nil {
		proposed.EndTime = *update.EndTime
	}
	if update.Notes != nil {
		proposed.Notes = *update.Notes
	}

	if err := calendar.ValidateEventTime(proposed.StartTime, proposed.EndTime); err != nil {
		return nil, err
	}

	dayEvents, err := s.eventsForAgentDay(ctx, proposed.AgentID, proposed.Date)
	if err != nil {
		return nil, err
	}
	req := calendar.Request{
		AgentID:   proposed.AgentID,
		Date:      proposed.Date,
		StartTime: proposed.StartTime,
		EndTime:   proposed.EndTime,
	}
	result, err := s.checker.CheckConflict(req, dayEvents, &id)
	if err != nil {
		return nil, err
	}
	if result.HasConflict {
		return nil, &ConflictError{
			Conflicts: result.ConflictingEvents,
			Message:   s.checker.ConflictMessage(result.ConflictingEvents),
		}
	}

	_, err = s.db.Collection(eventsCollection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"title":      proposed.Title,
		"status":     proposed.Status,
		"date":       proposed.Date,
		"start_time": proposed.StartTime,
		"end_time":   proposed.EndTime,
		"notes":      proposed.Notes,
	}})
	if err != nil {
		return nil, fmt.Errorf("error updating calendar event %s: %w", id.Hex(), err)
	}

	return s.FindEventByID(ctx, id)
}

// DeleteEvent removes a calendar event. Events are genuinely deleted, not
// soft-deleted: a cancelled viewing frees the slot.
func (s *calendarService) DeleteEvent(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.db.Collection(eventsCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("error deleting calendar event %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// AvailableSlots returns the free intervals in the agent's business day
// that can hold slotDuration minutes plus buffer.
func (s *calendarService) AvailableSlots(ctx context.Context, agentID primitive.ObjectID, date time.Time, slotDuration int) ([]calendar.TimeSlot, error) {
	if slotDuration <= 0 {
		slotDuration = 60
	}
	dayEvents, err := s.eventsForAgentDay(ctx, agentID, date)
	if err != nil {
		return nil, err
	}
	return s.checker.FindAvailableSlots(agentID, date, dayEvents, slotDuration)
}

// RecommendedSlots returns up to five one-hour openings for the agent.
func (s *calendarService) RecommendedSlots(ctx context.Context, agentID primitive.ObjectID, date time.Time) ([]calendar.TimeSlot, error) {
	dayEvents, err := s.eventsForAgentDay(ctx, agentID, date)
	if err != nil {
		return nil, err
	}
	return s.checker.RecommendedSlots(agentID, date, dayEvents)
}

// eventsForAgentDay fetches the agent's events for one calendar day.
func (s *calendarService) eventsForAgentDay(ctx context.Context, agentID primitive.ObjectID, date time.Time) ([]models.CalendarEvent, error) {
	day := calendar.DateKey(date)
	cursor, err := s.db.Collection(eventsCollection).Find(ctx, bson.M{
		"agent_id": agentID,
		"date":     bson.M{"$gte": day, "$lt": day.Add(24 * time.Hour)},
	})
	if err != nil {
		return nil, fmt.Errorf("error fetching events for agent %s: %w", agentID.Hex(), err)
	}
	defer cursor.Close(ctx)

	var events []models.CalendarEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("error decoding events for agent %s: %w", agentID.Hex(), err)
	}
	return events, nil
}
