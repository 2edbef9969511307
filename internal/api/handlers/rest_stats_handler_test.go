package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tes/crm/internal/api/handlers"
	"tes/crm/internal/services"
)

func newStatsTestRouter(statsSvc *MockStatsService, activitySvc *MockActivityService,
	inquirySvc *MockInquiryService, propertySvc *MockPropertyService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewRestStatsHandler(statsSvc, activitySvc, inquirySvc, propertySvc)
	r := gin.New()
	r.GET("/v1/stats/agent/:id", handler.GetAgentStats)
	r.GET("/v1/stats/top-agents", handler.TopAgents)
	r.GET("/v1/stats/overloaded", handler.OverloadedAgents)
	r.GET("/v1/stats/global", handler.GetGlobalStats)
	return r
}

func TestRestStatsHandler_GetGlobalStats(t *testing.T) {
	statsSvc := new(MockStatsService)
	activitySvc := new(MockActivityService)
	inquirySvc := new(MockInquiryService)
	propertySvc := new(MockPropertyService)
	r := newStatsTestRouter(statsSvc, activitySvc, inquirySvc, propertySvc)

	statsSvc.On("GlobalStats", mock.Anything).Return(&services.GlobalStats{
		TotalInquiries:  12,
		ActiveInquiries: 7,
		TotalCommission: 450000,
	}, nil)
	inquirySvc.On("CountCreatedSince", mock.Anything, mock.Anything).Return(int64(3), nil)
	propertySvc.On("CountCreatedSince", mock.Anything, mock.Anything).Return(int64(1), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/stats/global", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var respBody struct {
		Summary         services.GlobalStats `json:"summary"`
		NewInquiries7d  int64                `json:"new_inquiries_7d"`
		NewProperties7d int64                `json:"new_properties_7d"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Equal(t, 12, respBody.Summary.TotalInquiries)
	assert.Equal(t, int64(3), respBody.NewInquiries7d)
	assert.Equal(t, int64(1), respBody.NewProperties7d)
	statsSvc.AssertExpectations(t)
	inquirySvc.AssertExpectations(t)
	propertySvc.AssertExpectations(t)
}

func TestRestStatsHandler_GetAgentStats_InvalidID(t *testing.T) {
	statsSvc := new(MockStatsService)
	r := newStatsTestRouter(statsSvc, new(MockActivityService), new(MockInquiryService), new(MockPropertyService))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/stats/agent/not-an-id", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	statsSvc.AssertNotCalled(t, "AgentStats", mock.Anything, mock.Anything)
}

func TestRestStatsHandler_OverloadedAgents(t *testing.T) {
	statsSvc := new(MockStatsService)
	r := newStatsTestRouter(statsSvc, new(MockActivityService), new(MockInquiryService), new(MockPropertyService))

	agentID := primitive.NewObjectID()
	statsSvc.On("OverloadedAgents", mock.Anything).Return([]services.AgentStats{
		{AgentID: agentID, AgentName: "Maria Santos", ActiveInquiries: 23},
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/stats/overloaded", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var respBody struct {
		Data      []services.AgentStats `json:"data"`
		Threshold int                   `json:"threshold"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Equal(t, services.OverloadThreshold, respBody.Threshold)
	assert.Len(t, respBody.Data, 1)
	assert.Equal(t, "Maria Santos", respBody.Data[0].AgentName)
}

func TestRestStatsHandler_TopAgents_LimitParsed(t *testing.T) {
	statsSvc := new(MockStatsService)
	r := newStatsTestRouter(statsSvc, new(MockActivityService), new(MockInquiryService), new(MockPropertyService))

	statsSvc.On("TopAgentsByCommission", mock.Anything, 3).Return([]services.AgentStats{}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/stats/top-agents?limit=3", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	statsSvc.AssertExpectations(t)
}
