package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tes/crm/internal/services"
)

// RestStatsHandler serves the dashboard KPI and activity endpoints.
type RestStatsHandler struct {
	statsService    services.IStatsService
	activityService services.IActivityService
	inquiryService  services.IInquiryService
	propertyService services.IPropertyService
}

// NewRestStatsHandler creates a new RestStatsHandler.
func NewRestStatsHandler(statsService services.IStatsService, activityService services.IActivityService,
	inquiryService services.IInquiryService, propertyService services.IPropertyService) *RestStatsHandler {
	return &RestStatsHandler{
		statsService:    statsService,
		activityService: activityService,
		inquiryService:  inquiryService,
		propertyService: propertyService,
	}
}

// GetAgentStats handles GET /v1/stats/agent/:id
func (h *RestStatsHandler) GetAgentStats(c *gin.Context) {
	agentID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent ID format"})
		return
	}

	stats, err := h.statsService.AgentStats(c.Request.Context(), agentID)
	if err != nil {
		respondServiceError(c, err, "Agent not found")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListAgentStats handles GET /v1/stats/agent
func (h *RestStatsHandler) ListAgentStats(c *gin.Context) {
	stats, err := h.statsService.AllAgentStats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute agent stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// TopAgents handles GET /v1/stats/top-agents
// Optional ?limit= caps the leaderboard length.
func (h *RestStatsHandler) TopAgents(c *gin.Context) {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
	}

	stats, err := h.statsService.TopAgentsByCommission(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute leaderboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// OverloadedAgents handles GET /v1/stats/overloaded
func (h *RestStatsHandler) OverloadedAgents(c *gin.Context) {
	stats, err := h.statsService.OverloadedAgents(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute workloads"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      stats,
		"threshold": services.OverloadThreshold,
	})
}

// GetGlobalStats handles GET /v1/stats/global
// The response carries the portfolio KPIs plus how much came in over the
// last seven days.
func (h *RestStatsHandler) GetGlobalStats(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.statsService.GlobalStats(ctx)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	weekAgo := time.Now().UTC().AddDate(0, 0, -7)
	newInquiries, err := h.inquiryService.CountCreatedSince(ctx, weekAgo)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}
	newProperties, err := h.propertyService.CountCreatedSince(ctx, weekAgo)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary":           stats,
		"new_inquiries_7d":  newInquiries,
		"new_properties_7d": newProperties,
	})
}

// RecentActivity handles GET /v1/activity
// Optional ?limit= caps the entries returned.
func (h *RestStatsHandler) RecentActivity(c *gin.Context) {
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
	}

	entries, err := h.activityService.ListRecent(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list activity"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}
