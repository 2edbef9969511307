package services

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"tes/crm/internal/config"
	"tes/crm/internal/models"
)

// AgentStats holds the per-agent KPIs derived from inquiry and property
// data. Nothing here is stored; everything is recomputed from the source
// records on each request.
type AgentStats struct {
	AgentID           primitive.ObjectID `json:"agent_id"`
	AgentName         string             `json:"agent_name"`
	ActiveInquiries   int                `json:"active_inquiries"`
	TotalInquiries    int                `json:"total_inquiries"`
	PropertiesSold    int                `json:"properties_sold"`
	TotalCommission   float64            `json:"total_commission"`
	AvgCommission     float64            `json:"avg_commission"`
	SuccessRate       float64            `json:"success_rate"` // Percent of non-cancelled inquiries that closed
	ViewingsScheduled int                `json:"viewings_scheduled"`
	DepositsReceived  int                `json:"deposits_received"`
}

// GlobalStats summarizes the whole portfolio for the dashboard.
type GlobalStats struct {
	TotalInquiries      int     `json:"total_inquiries"`
	ActiveInquiries     int     `json:"active_inquiries"`
	TotalProperties     int     `json:"total_properties"`
	AvailableProperties int     `json:"available_properties"`
	PropertiesSold      int     `json:"properties_sold"`
	TotalCommission     float64 `json:"total_commission"`
	SuccessRate         float64 `json:"success_rate"`
}

// OverloadThreshold is the active-inquiry count at which an agent is
// considered overloaded.
const OverloadThreshold = 20

// IStatsService defines the read-only KPI aggregation interface.
type IStatsService interface {
	AgentStats(ctx context.Context, agentID primitive.ObjectID) (*AgentStats, error)
	AllAgentStats(ctx context.Context) ([]AgentStats, error)
	TopAgentsByCommission(ctx context.Context, limit int) ([]AgentStats, error)
	OverloadedAgents(ctx context.Context) ([]AgentStats, error)
	GlobalStats(ctx context.Context) (*GlobalStats, error)
}

// statsService implements IStatsService.
type statsService struct {
	db  *mongo.Database
	cfg *config.Config
}

// NewStatsService creates a new StatsService.
func NewStatsService(db *mongo.Database, cfg *config.Config) IStatsService {
	return &statsService{db: db, cfg: cfg}
}

// ComputeAgentStats derives one agent's KPIs from snapshots of inquiries
// and properties. Pure function; the service methods feed it data from
// Mongo.
func ComputeAgentStats(agentID primitive.ObjectID, agentName string, inquiries []models.Inquiry, properties []models.Property) AgentStats {
	stats := AgentStats{AgentID: agentID, AgentName: agentName}

	var agentInquiries []models.Inquiry
	for _, inq := range inquiries {
		if inq.AssignedAgentID != nil && *inq.AssignedAgentID == agentID {
			agentInquiries = append(agentInquiries, inq)
		}
	}
	stats.TotalInquiries = len(agentInquiries)

	successfulByProperty := make(map[primitive.ObjectID]bool)
	nonCancelled := 0
	successful := 0
	for _, inq := range agentInquiries {
		if inq.Status.IsActive() {
			stats.ActiveInquiries++
		}
		if inq.Status != models.StatusCancelled {
			nonCancelled++
		}
		if inq.Status == models.StatusSuccessful {
			successful++
			successfulByProperty[inq.PropertyID] = true
		}
		switch inq.Status {
		case models.StatusViewingScheduled, models.StatusViewedInterested,
			models.StatusViewedNotInterested, models.StatusViewedUndecided,
			models.StatusDepositPaid, models.StatusSuccessful:
			stats.ViewingsScheduled++
		}
		if inq.Status == models.StatusDepositPaid || inq.Status == models.StatusSuccessful {
			stats.DepositsReceived++
		}
	}

	// A property counts as sold by this agent when it is Sold and the
	// agent had a Successful inquiry for it.
	for _, prop := range properties {
		if prop.Status != models.PropertySold {
			continue
		}
		if !successfulByProperty[prop.ID] {
			continue
		}
		stats.PropertiesSold++
		stats.TotalCommission += prop.EffectiveCommission()
	}
	if stats.PropertiesSold > 0 {
		stats.AvgCommission = stats.TotalCommission / float64(stats.PropertiesSold)
	}
	if nonCancelled > 0 {
		stats.SuccessRate = float64(successful) / float64(nonCancelled) * 100
	}

	return stats
}

// ComputeGlobalStats derives portfolio-wide KPIs from snapshots.
func ComputeGlobalStats(inquiries []models.Inquiry, properties []models.Property) GlobalStats {
	var stats GlobalStats
	stats.TotalInquiries = len(inquiries)

	nonCancelled := 0
	successful := 0
	for _, inq := range inquiries {
		if inq.Status.IsActive() {
			stats.ActiveInquiries++
		}
		if inq.Status != models.StatusCancelled {
			nonCancelled++
		}
		if inq.Status == models.StatusSuccessful {
			successful++
		}
	}

	for _, prop := range properties {
		stats.TotalProperties++
		switch prop.Status {
		case models.PropertyAvailable:
			stats.AvailableProperties++
		case models.PropertySold:
			stats.PropertiesSold++
			stats.TotalCommission += prop.EffectiveCommission()
		}
	}
	if nonCancelled > 0 {
		stats.SuccessRate = float64(successful) / float64(nonCancelled) * 100
	}
	return stats
}

// AgentStats computes the KPIs for one agent.
func (s *statsService) AgentStats(ctx context.Context, agentID primitive.ObjectID) (*AgentStats, error) {
	var agent models.User
	err := s.db.Collection(usersCollection).FindOne(ctx, bson.M{"_id": agentID}).Decode(&agent)
	if err != nil {
		return nil, fmt.Errorf("error finding agent %s: %w", agentID.Hex(), err)
	}

	inquiries, properties, err := s.loadSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	stats := ComputeAgentStats(agentID, agent.Name, inquiries, properties)
	return &stats, nil
}

// AllAgentStats computes KPIs for every agent account.
func (s *statsService) AllAgentStats(ctx context.Context) ([]AgentStats, error) {
	cursor, err := s.db.Collection(usersCollection).Find(ctx, bson.M{"role": models.RoleAgent})
	if err != nil {
		return nil, fmt.Errorf("error listing agents: %w", err)
	}
	defer cursor.Close(ctx)

	var agents []models.User
	if err := cursor.All(ctx, &agents); err != nil {
		return nil, fmt.Errorf("error decoding agents: %w", err)
	}

	inquiries, properties, err := s.loadSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	stats := make([]AgentStats, 0, len(agents))
	for _, agent := range agents {
		stats = append(stats, ComputeAgentStats(agent.ID, agent.Name, inquiries, properties))
	}
	return stats, nil
}

// TopAgentsByCommission returns the best earners, highest first.
func (s *statsService) TopAgentsByCommission(ctx context.Context, limit int) ([]AgentStats, error) {
	if limit <= 0 {
		limit = 5
	}
	stats, err := s.AllAgentStats(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].TotalCommission > stats[j].TotalCommission
	})
	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}

// OverloadedAgents returns agents carrying OverloadThreshold or more
// active inquiries.
func (s *statsService) OverloadedAgents(ctx context.Context) ([]AgentStats, error) {
	stats, err := s.AllAgentStats(ctx)
	if err != nil {
		return nil, err
	}
	var overloaded []AgentStats
	for _, st := range stats {
		if st.ActiveInquiries >= OverloadThreshold {
			overloaded = append(overloaded, st)
		}
	}
	return overloaded, nil
}

// GlobalStats computes the dashboard summary.
func (s *statsService) GlobalStats(ctx context.Context) (*GlobalStats, error) {
	inquiries, properties, err := s.loadSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	stats := ComputeGlobalStats(inquiries, properties)
	return &stats, nil
}

// loadSnapshots fetches the inquiry and property collections in full.
// Fine at this deployment's scale; revisit with aggregation pipelines if
// collections grow past a few tens of thousands of records.
func (s *statsService) loadSnapshots(ctx context.Context) ([]models.Inquiry, []models.Property, error) {
	inqCursor, err := s.db.Collection(inquiriesCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, nil, fmt.Errorf("error fetching inquiries for stats: %w", err)
	}
	defer inqCursor.Close(ctx)
	var inquiries []models.Inquiry
	if err := inqCursor.All(ctx, &inquiries); err != nil {
		return nil, nil, fmt.Errorf("error decoding inquiries for stats: %w", err)
	}

	propCursor, err := s.db.Collection(propertiesCollection).Find(ctx, bson.M{"deleted": false})
	if err != nil {
		return nil, nil, fmt.Errorf("error fetching properties for stats: %w", err)
	}
	defer propCursor.Close(ctx)
	var properties []models.Property
	if err := propCursor.All(ctx, &properties); err != nil {
		return nil, nil, fmt.Errorf("error decoding properties for stats: %w", err)
	}

	return inquiries, properties, nil
}
