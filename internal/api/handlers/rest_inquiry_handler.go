package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tes/crm/internal/api/middleware"
	"tes/crm/internal/inquiry"
	"tes/crm/internal/models"
	"tes/crm/internal/services"
	"tes/crm/internal/tasks"
)

// IAsynqClient defines the interface for enqueuing background tasks.
// This allows easier mocking than using the concrete asynq.Client.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// RestInquiryHandler handles REST requests for inquiries.
type RestInquiryHandler struct {
	inquiryService  services.IInquiryService
	activityService services.IActivityService
	taskClient      IAsynqClient
}

// NewRestInquiryHandler creates a new RestInquiryHandler.
func NewRestInquiryHandler(inquiryService services.IInquiryService, activityService services.IActivityService, taskClient IAsynqClient) *RestInquiryHandler {
	return &RestInquiryHandler{
		inquiryService:  inquiryService,
		activityService: activityService,
		taskClient:      taskClient,
	}
}

// CreateInquiryBody is the JSON body of the public inquiry form.
type CreateInquiryBody struct {
	PropertyID      string `json:"property_id" binding:"required"`
	CustomerName    string `json:"customer_name" binding:"required"`
	CustomerEmail   string `json:"customer_email" binding:"required,email"`
	CustomerPhone   string `json:"customer_phone" binding:"required"`
	CustomerAddress string `json:"customer_address"`
	Message         string `json:"message"`
}

// CreateInquiry handles POST /v1/inquiry (public, unauthenticated).
func (h *RestInquiryHandler) CreateInquiry(c *gin.Context) {
	var body CreateInquiryBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	propertyID, err := primitive.ObjectIDFromHex(body.PropertyID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
		return
	}

	created, err := h.inquiryService.CreateInquiry(c.Request.Context(), services.CreateInquiryRequest{
		PropertyID:      propertyID,
		CustomerName:    body.CustomerName,
		CustomerEmail:   body.CustomerEmail,
		CustomerPhone:   body.CustomerPhone,
		CustomerAddress: body.CustomerAddress,
		Message:         body.Message,
	})
	if err != nil {
		respondServiceError(c, err, "Property not found")
		return
	}

	// Notification goes out asynchronously; a full queue must not lose
	// the inquiry itself.
	payloadBytes, err := json.Marshal(tasks.InquiryNotifyPayload{InquiryID: created.ID.Hex()})
	if err == nil {
		task := asynq.NewTask(tasks.TypeInquiryNotify, payloadBytes)
		if _, enqueueErr := h.taskClient.EnqueueContext(c.Request.Context(), task); enqueueErr != nil {
			log.Printf("WARN: Failed to enqueue inquiry notification for %s: %v", created.ID.Hex(), enqueueErr)
		}
	}

	c.JSON(http.StatusCreated, created)
}

// GetInquiryByID handles GET /v1/inquiry/:id
func (h *RestInquiryHandler) GetInquiryByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid inquiry ID format"})
		return
	}

	inq, err := h.inquiryService.FindInquiryByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Inquiry not found")
		return
	}
	c.JSON(http.StatusOK, inq)
}

// ListInquiries handles GET /v1/inquiry
func (h *RestInquiryHandler) ListInquiries(c *gin.Context) {
	var filter services.InquiryFilter

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.InquiryStatus(statusStr)
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status: " + statusStr})
			return
		}
		filter.Status = &status
	}
	if agentStr := c.Query("agent_id"); agentStr != "" {
		agentID, err := primitive.ObjectIDFromHex(agentStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent ID format"})
			return
		}
		filter.AgentID = &agentID
	}
	if propStr := c.Query("property_id"); propStr != "" {
		propID, err := primitive.ObjectIDFromHex(propStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
			return
		}
		filter.PropertyID = &propID
	}

	inquiries, err := h.inquiryService.ListInquiries(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list inquiries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": inquiries})
}

// UpdateStatusBody carries a proposed transition plus the side data some
// transitions introduce (viewing date, deposit, reservation expiry).
type UpdateStatusBody struct {
	Status                models.InquiryStatus `json:"status" binding:"required"`
	ViewingDate           *time.Time           `json:"viewing_date"`
	DepositAmount         *float64             `json:"deposit_amount"`
	ReservationExpiryDate *time.Time           `json:"reservation_expiry_date"`
	Notes                 *string              `json:"notes"`
}

// UpdateStatus handles PATCH /v1/inquiry/:id/status
func (h *RestInquiryHandler) UpdateStatus(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid inquiry ID format"})
		return
	}

	var body UpdateStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	updated, err := h.inquiryService.UpdateStatus(c.Request.Context(), id, body.Status, services.StatusUpdateFields{
		ViewingDate:           body.ViewingDate,
		DepositAmount:         body.DepositAmount,
		ReservationExpiryDate: body.ReservationExpiryDate,
		Notes:                 body.Notes,
	})
	if err != nil {
		respondServiceError(c, err, "Inquiry not found")
		return
	}

	h.recordActivity(c, "inquiry.status_update", updated.ID,
		fmt.Sprintf("status changed to %s for %s", updated.Status, updated.CustomerName))
	c.JSON(http.StatusOK, updated)
}

// AssignAgentBody names the agent taking over an inquiry.
type AssignAgentBody struct {
	AgentID string `json:"agent_id" binding:"required"`
}

// AssignAgent handles PATCH /v1/inquiry/:id/assign
func (h *RestInquiryHandler) AssignAgent(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid inquiry ID format"})
		return
	}

	var body AssignAgentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	agentID, err := primitive.ObjectIDFromHex(body.AgentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent ID format"})
		return
	}

	updated, err := h.inquiryService.AssignAgent(c.Request.Context(), id, agentID)
	if err != nil {
		respondServiceError(c, err, "Inquiry not found")
		return
	}

	agentName := ""
	if updated.AssignedAgentName != nil {
		agentName = *updated.AssignedAgentName
	}
	h.recordActivity(c, "inquiry.assign", updated.ID,
		fmt.Sprintf("assigned to %s", agentName))
	c.JSON(http.StatusOK, updated)
}

// BulkUpdateStatusBody applies one transition to many inquiries.
type BulkUpdateStatusBody struct {
	IDs    []string             `json:"ids" binding:"required,min=1"`
	Status models.InquiryStatus `json:"status" binding:"required"`
}

// BulkUpdateStatus handles POST /v1/inquiry/bulk-status
func (h *RestInquiryHandler) BulkUpdateStatus(c *gin.Context) {
	var body BulkUpdateStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	ids := make([]primitive.ObjectID, 0, len(body.IDs))
	for _, hex := range body.IDs {
		id, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid inquiry ID format: " + hex})
			return
		}
		ids = append(ids, id)
	}

	report, err := h.inquiryService.BulkUpdateStatus(c.Request.Context(), ids, body.Status)
	if err != nil {
		respondServiceError(c, err, "Inquiry not found")
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExpiryWarnings handles GET /v1/inquiry/expiry-warnings
// Optional ?agent_id= narrows the report to one agent's reservations.
func (h *RestInquiryHandler) ExpiryWarnings(c *gin.Context) {
	warnings, err := h.inquiryService.ScanExpiryWarnings(c.Request.Context(), time.Now().UTC())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan reservations"})
		return
	}

	if agentStr := c.Query("agent_id"); agentStr != "" {
		agentID, err := primitive.ObjectIDFromHex(agentStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent ID format"})
			return
		}
		warnings = inquiry.FilterWarningsByAgent(warnings, agentID)
	}

	c.JSON(http.StatusOK, gin.H{
		"data":    warnings,
		"expired": inquiry.CountExpired(warnings),
	})
}

// recordActivity appends an audit entry for the acting user. Best-effort:
// a failed write is logged, never surfaced.
func (h *RestInquiryHandler) recordActivity(c *gin.Context, action string, entityID primitive.ObjectID, detail string) {
	entry := models.ActivityEntry{
		ActorName:  c.GetString(middleware.ContextKeyUserName),
		Action:     action,
		EntityType: "inquiry",
		EntityID:   entityID,
		Detail:     detail,
	}
	if actorID, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextKeyUserID)); err == nil {
		entry.ActorID = &actorID
	}
	if err := h.activityService.Record(c.Request.Context(), entry); err != nil {
		log.Printf("WARN: Failed to record activity %s: %v", action, err)
	}
}
