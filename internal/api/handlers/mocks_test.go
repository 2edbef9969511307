package handlers_test

import (
	"context"
	"io"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tes/crm/internal/calendar"
	"tes/crm/internal/inquiry"
	"tes/crm/internal/models"
	"tes/crm/internal/services"
)

// --- Mocks ---

// MockInquiryService
type MockInquiryService struct {
	mock.Mock
}

func (m *MockInquiryService) CreateInquiry(ctx context.Context, req services.CreateInquiryRequest) (*models.Inquiry, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inquiry), args.Error(1)
}
func (m *MockInquiryService) FindInquiryByID(ctx context.Context, id primitive.ObjectID) (*models.Inquiry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inquiry), args.Error(1)
}
func (m *MockInquiryService) ListInquiries(ctx context.Context, filter services.InquiryFilter) ([]models.Inquiry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Inquiry), args.Error(1)
}
func (m *MockInquiryService) UpdateStatus(ctx context.Context, id primitive.ObjectID, newStatus models.InquiryStatus, fields services.StatusUpdateFields) (*models.Inquiry, error) {
	args := m.Called(ctx, id, newStatus, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inquiry), args.Error(1)
}
func (m *MockInquiryService) AssignAgent(ctx context.Context, id, agentID primitive.ObjectID) (*models.Inquiry, error) {
	args := m.Called(ctx, id, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inquiry), args.Error(1)
}
func (m *MockInquiryService) BulkUpdateStatus(ctx context.Context, ids []primitive.ObjectID, newStatus models.InquiryStatus) (*services.BulkUpdateReport, error) {
	args := m.Called(ctx, ids, newStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BulkUpdateReport), args.Error(1)
}
func (m *MockInquiryService) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockInquiryService) ScanExpiryWarnings(ctx context.Context, now time.Time) ([]inquiry.ExpiryWarning, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inquiry.ExpiryWarning), args.Error(1)
}

// MockCalendarService
type MockCalendarService struct {
	mock.Mock
}

func (m *MockCalendarService) CreateEvent(ctx context.Context, event *models.CalendarEvent) (*models.CalendarEvent, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarEvent), args.Error(1)
}
func (m *MockCalendarService) FindEventByID(ctx context.Context, id primitive.ObjectID) (*models.CalendarEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarEvent), args.Error(1)
}
func (m *MockCalendarService) ListEvents(ctx context.Context, filter services.EventFilter) ([]models.CalendarEvent, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CalendarEvent), args.Error(1)
}
func (m *MockCalendarService) UpdateEvent(ctx context.Context, id primitive.ObjectID, update services.EventUpdate) (*models.CalendarEvent, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CalendarEvent), args.Error(1)
}
func (m *MockCalendarService) DeleteEvent(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockCalendarService) AvailableSlots(ctx context.Context, agentID primitive.ObjectID, date time.Time, slotDuration int) ([]calendar.TimeSlot, error) {
	args := m.Called(ctx, agentID, date, slotDuration)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]calendar.TimeSlot), args.Error(1)
}
func (m *MockCalendarService) RecommendedSlots(ctx context.Context, agentID primitive.ObjectID, date time.Time) ([]calendar.TimeSlot, error) {
	args := m.Called(ctx, agentID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]calendar.TimeSlot), args.Error(1)
}

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(ctx context.Context, name, email, password string, role models.UserRole, phone string) (*models.User, error) {
	args := m.Called(ctx, name, email, password, role, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockUserService) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockUserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *MockUserService) ListUsers(ctx context.Context, role *models.UserRole) ([]models.User, error) {
	args := m.Called(ctx, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}
func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*models.User), args.String(1), args.Error(2)
}
func (m *MockUserService) Deactivate(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockUserService) EnsureSeedAdmin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockActivityService
type MockActivityService struct {
	mock.Mock
}

func (m *MockActivityService) Record(ctx context.Context, entry models.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
func (m *MockActivityService) ListRecent(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ActivityEntry), args.Error(1)
}

// MockStatsService
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) AgentStats(ctx context.Context, agentID primitive.ObjectID) (*services.AgentStats, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AgentStats), args.Error(1)
}
func (m *MockStatsService) AllAgentStats(ctx context.Context) ([]services.AgentStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.AgentStats), args.Error(1)
}
func (m *MockStatsService) TopAgentsByCommission(ctx context.Context, limit int) ([]services.AgentStats, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.AgentStats), args.Error(1)
}
func (m *MockStatsService) OverloadedAgents(ctx context.Context) ([]services.AgentStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.AgentStats), args.Error(1)
}
func (m *MockStatsService) GlobalStats(ctx context.Context) (*services.GlobalStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GlobalStats), args.Error(1)
}

// MockPropertyService
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) CreateProperty(ctx context.Context, property *models.Property) (*models.Property, error) {
	args := m.Called(ctx, property)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}
func (m *MockPropertyService) FindPropertyByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}
func (m *MockPropertyService) UpdateProperty(ctx context.Context, id primitive.ObjectID, updates map[string]interface{}) (*models.Property, error) {
	args := m.Called(ctx, id, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}
func (m *MockPropertyService) DeleteProperty(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockPropertyService) SearchProperties(ctx context.Context, filter services.PropertyFilter) ([]models.Property, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Property), args.Error(1)
}
func (m *MockPropertyService) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockPropertyService) ImportCSV(ctx context.Context, r io.Reader) (*services.ImportReport, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ImportReport), args.Error(1)
}

// MockAsynqClient
type MockAsynqClient struct {
	mock.Mock
}

// asynqTaskInfo is a placeholder return value for successful enqueues.
var asynqTaskInfo = asynq.TaskInfo{}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}
