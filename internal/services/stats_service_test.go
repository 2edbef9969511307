package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tes/crm/internal/models"
)

func assignedInquiry(agentID primitive.ObjectID, propertyID primitive.ObjectID, status models.InquiryStatus) models.Inquiry {
	return models.Inquiry{
		ID:              primitive.NewObjectID(),
		PropertyID:      propertyID,
		AssignedAgentID: &agentID,
		Status:          status,
	}
}

func soldProperty(id primitive.ObjectID, commission float64, finalCommission *float64) models.Property {
	return models.Property{
		ID:              id,
		Status:          models.PropertySold,
		Commission:      commission,
		FinalCommission: finalCommission,
	}
}

func TestComputeAgentStats(t *testing.T) {
	agentID := primitive.NewObjectID()
	otherAgent := primitive.NewObjectID()
	propA := primitive.NewObjectID()
	propB := primitive.NewObjectID()

	inquiries := []models.Inquiry{
		assignedInquiry(agentID, propA, models.StatusSuccessful),
		assignedInquiry(agentID, propB, models.StatusDepositPaid),
		assignedInquiry(agentID, primitive.NewObjectID(), models.StatusInProgress),
		assignedInquiry(agentID, primitive.NewObjectID(), models.StatusCancelled),
		// Another agent's work must not leak in.
		assignedInquiry(otherAgent, propA, models.StatusSuccessful),
		// Unassigned inquiries are nobody's stats.
		{ID: primitive.NewObjectID(), Status: models.StatusNew},
	}

	finalB := 120000.0
	properties := []models.Property{
		soldProperty(propA, 100000, nil),
		soldProperty(propB, 90000, &finalB), // not Successful for this agent, so not counted
		{ID: primitive.NewObjectID(), Status: models.PropertyAvailable, Commission: 50000},
	}

	stats := ComputeAgentStats(agentID, "Maria", inquiries, properties)

	assert.Equal(t, "Maria", stats.AgentName)
	assert.Equal(t, 4, stats.TotalInquiries)
	assert.Equal(t, 2, stats.ActiveInquiries) // DepositPaid + InProgress
	assert.Equal(t, 1, stats.PropertiesSold)
	assert.Equal(t, 100000.0, stats.TotalCommission)
	assert.Equal(t, 100000.0, stats.AvgCommission)
	assert.Equal(t, 2, stats.ViewingsScheduled) // DepositPaid + Successful imply a viewing happened
	assert.Equal(t, 2, stats.DepositsReceived)
	// 1 successful out of 3 non-cancelled.
	assert.InDelta(t, 33.33, stats.SuccessRate, 0.01)
}

func TestComputeAgentStats_FinalCommissionOverrides(t *testing.T) {
	agentID := primitive.NewObjectID()
	propID := primitive.NewObjectID()
	final := 75000.0

	stats := ComputeAgentStats(agentID, "Jose",
		[]models.Inquiry{assignedInquiry(agentID, propID, models.StatusSuccessful)},
		[]models.Property{soldProperty(propID, 100000, &final)})

	assert.Equal(t, 75000.0, stats.TotalCommission)
}

func TestComputeAgentStats_NoInquiries(t *testing.T) {
	stats := ComputeAgentStats(primitive.NewObjectID(), "Empty", nil, nil)
	assert.Equal(t, 0, stats.TotalInquiries)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.Equal(t, 0.0, stats.AvgCommission)
}

func TestComputeAgentStats_AllCancelled(t *testing.T) {
	agentID := primitive.NewObjectID()
	stats := ComputeAgentStats(agentID, "Unlucky", []models.Inquiry{
		assignedInquiry(agentID, primitive.NewObjectID(), models.StatusCancelled),
		assignedInquiry(agentID, primitive.NewObjectID(), models.StatusCancelled),
	}, nil)

	// Zero non-cancelled inquiries must not divide by zero.
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.Equal(t, 0, stats.ActiveInquiries)
}

func TestComputeAgentStats_SoldPropertyRequiresSuccessfulInquiry(t *testing.T) {
	agentID := primitive.NewObjectID()
	propID := primitive.NewObjectID()

	// Inquiry still mid-pipeline: the sold property is someone else's win.
	stats := ComputeAgentStats(agentID, "Ana",
		[]models.Inquiry{assignedInquiry(agentID, propID, models.StatusDepositPaid)},
		[]models.Property{soldProperty(propID, 100000, nil)})

	assert.Equal(t, 0, stats.PropertiesSold)
	assert.Equal(t, 0.0, stats.TotalCommission)
}

func TestComputeGlobalStats(t *testing.T) {
	agentID := primitive.NewObjectID()
	final := 80000.0

	inquiries := []models.Inquiry{
		assignedInquiry(agentID, primitive.NewObjectID(), models.StatusSuccessful),
		assignedInquiry(agentID, primitive.NewObjectID(), models.StatusInProgress),
		assignedInquiry(agentID, primitive.NewObjectID(), models.StatusCancelled),
		{ID: primitive.NewObjectID(), Status: models.StatusNew},
	}
	properties := []models.Property{
		soldProperty(primitive.NewObjectID(), 100000, nil),
		soldProperty(primitive.NewObjectID(), 60000, &final),
		{ID: primitive.NewObjectID(), Status: models.PropertyAvailable},
		{ID: primitive.NewObjectID(), Status: models.PropertyReserved},
	}

	stats := ComputeGlobalStats(inquiries, properties)

	assert.Equal(t, 4, stats.TotalInquiries)
	assert.Equal(t, 2, stats.ActiveInquiries) // New + InProgress
	assert.Equal(t, 4, stats.TotalProperties)
	assert.Equal(t, 1, stats.AvailableProperties)
	assert.Equal(t, 2, stats.PropertiesSold)
	assert.Equal(t, 180000.0, stats.TotalCommission)
	// 1 successful of 3 non-cancelled.
	assert.InDelta(t, 33.33, stats.SuccessRate, 0.01)
}

func TestComputeGlobalStats_Empty(t *testing.T) {
	stats := ComputeGlobalStats(nil, nil)
	assert.Equal(t, 0, stats.TotalInquiries)
	assert.Equal(t, 0.0, stats.SuccessRate)
}
