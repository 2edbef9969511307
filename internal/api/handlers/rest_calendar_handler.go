package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tes/crm/internal/models"
	"tes/crm/internal/services"
)

// RestCalendarHandler handles REST requests for agent schedules.
type RestCalendarHandler struct {
	calendarService services.ICalendarService
}

// NewRestCalendarHandler creates a new RestCalendarHandler.
func NewRestCalendarHandler(calendarService services.ICalendarService) *RestCalendarHandler {
	return &RestCalendarHandler{calendarService: calendarService}
}

// CreateEventBody is the JSON body for scheduling an event. Date is a
// calendar day ("2006-01-02"); times are "HH:MM".
type CreateEventBody struct {
	Title        string  `json:"title" binding:"required"`
	Type         string  `json:"type" binding:"required"`
	AgentID      string  `json:"agent_id" binding:"required"`
	AgentName    string  `json:"agent_name"`
	PropertyID   *string `json:"property_id"`
	PropertyName *string `json:"property_name"`
	InquiryID    *string `json:"inquiry_id"`
	CustomerName *string `json:"customer_name"`
	Date         string  `json:"date" binding:"required"`
	StartTime    string  `json:"start_time" binding:"required"`
	EndTime      string  `json:"end_time" binding:"required"`
	Notes        string  `json:"notes"`
}

// CreateEvent handles POST /v1/calendar/event
func (h *RestCalendarHandler) CreateEvent(c *gin.Context) {
	var body CreateEventBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	agentID, err := primitive.ObjectIDFromHex(body.AgentID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent ID format"})
		return
	}
	date, err := time.Parse("2006-01-02", body.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	event := &models.CalendarEvent{
		Title:        body.Title,
		Type:         models.EventType(body.Type),
		AgentID:      agentID,
		AgentName:    body.AgentName,
		CustomerName: body.CustomerName,
		PropertyName: body.PropertyName,
		Date:         date,
		StartTime:    body.StartTime,
		EndTime:      body.EndTime,
		Notes:        body.Notes,
	}
	if body.PropertyID != nil {
		propID, err := primitive.ObjectIDFromHex(*body.PropertyID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
			return
		}
		event.PropertyID = &propID
	}
	if body.InquiryID != nil {
		inqID, err := primitive.ObjectIDFromHex(*body.InquiryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid inquiry ID format"})
			return
		}
		event.InquiryID = &inqID
	}

	created, err := h.calendarService.CreateEvent(c.Request.Context(), event)
	if err != nil {
		respondServiceError(c, err, "Event not found")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetEventByID handles GET /v1/calendar/event/:id
func (h *RestCalendarHandler) GetEventByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID format"})
		return
	}

	event, err := h.calendarService.FindEventByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Event not found")
		return
	}
	c.JSON(http.StatusOK, event)
}

// ListEvents handles GET /v1/calendar/event
// Accepts ?agent_id=, ?from=YYYY-MM-DD, ?to=YYYY-MM-DD.
func (h *RestCalendarHandler) ListEvents(c *gin.Context) {
	var filter services.EventFilter

	if agentStr := c.Query("agent_id"); agentStr != "" {
		agentID, err := primitive.ObjectIDFromHex(agentStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent ID format"})
			return
		}
		filter.AgentID = &agentID
	}
	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'from' date, expected YYYY-MM-DD"})
			return
		}
		filter.From = &from
	}
	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'to' date, expected YYYY-MM-DD"})
			return
		}
		filter.To = &to
	}

	events, err := h.calendarService.ListEvents(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}

// UpdateEventBody carries a partial event edit; nil fields are left
// unchanged.
type UpdateEventBody struct {
	Title     *string `json:"title"`
	Status    *string `json:"status"`
	Date      *string `json:"date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Notes     *string `json:"notes"`
}

// UpdateEvent handles PATCH /v1/calendar/event/:id
func (h *RestCalendarHandler) UpdateEvent(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID format"})
		return
	}

	var body UpdateEventBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	update := services.EventUpdate{
		Title:     body.Title,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Notes:     body.Notes,
	}
	if body.Status != nil {
		status := models.EventStatus(*body.Status)
		update.Status = &status
	}
	if body.Date != nil {
		date, err := time.Parse("2006-01-02", *body.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
		update.Date = &date
	}

	updated, err := h.calendarService.UpdateEvent(c.Request.Context(), id, update)
	if err != nil {
		respondServiceError(c, err, "Event not found")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteEvent handles DELETE /v1/calendar/event/:id
func (h *RestCalendarHandler) DeleteEvent(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID format"})
		return
	}

	if err := h.calendarService.DeleteEvent(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Event not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// AvailableSlots handles GET /v1/calendar/availability
// Requires ?agent_id= and ?date=; optional ?duration= in minutes.
func (h *RestCalendarHandler) AvailableSlots(c *gin.Context) {
	agentID, err := primitive.ObjectIDFromHex(c.Query("agent_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing agent_id"})
		return
	}
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing date, expected YYYY-MM-DD"})
		return
	}

	duration := 0
	if durStr := c.Query("duration"); durStr != "" {
		duration, err = strconv.Atoi(durStr)
		if err != nil || duration <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid duration"})
			return
		}
	}

	slots, err := h.calendarService.AvailableSlots(c.Request.Context(), agentID, date, duration)
	if err != nil {
		respondServiceError(c, err, "Agent not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": slots})
}

// RecommendedSlots handles GET /v1/calendar/recommendations
func (h *RestCalendarHandler) RecommendedSlots(c *gin.Context) {
	agentID, err := primitive.ObjectIDFromHex(c.Query("agent_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing agent_id"})
		return
	}
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or missing date, expected YYYY-MM-DD"})
		return
	}

	slots, err := h.calendarService.RecommendedSlots(c.Request.Context(), agentID, date)
	if err != nil {
		respondServiceError(c, err, "Agent not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": slots})
}
