package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tes/crm/internal/models"
	"tes/crm/internal/services"
)

// maxImportBytes caps an uploaded CSV at 5 MB.
const maxImportBytes = 5 << 20

// RestPropertyHandler handles REST requests for property listings.
type RestPropertyHandler struct {
	propertyService services.IPropertyService
}

// NewRestPropertyHandler creates a new RestPropertyHandler.
func NewRestPropertyHandler(propertyService services.IPropertyService) *RestPropertyHandler {
	return &RestPropertyHandler{propertyService: propertyService}
}

// CreatePropertyBody is the JSON body for creating or describing a listing.
type CreatePropertyBody struct {
	Name           string         `json:"name" binding:"required"`
	Address        models.Address `json:"address" binding:"required"`
	Price          float64        `json:"price" binding:"required,gt=0"`
	Status         string         `json:"status"`
	Type           string         `json:"type" binding:"required"`
	Description    string         `json:"description"`
	Features       []string       `json:"features"`
	ReservationFee float64        `json:"reservation_fee"`
	Commission     float64        `json:"commission"`
}

// CreateProperty handles POST /v1/property (admin).
func (h *RestPropertyHandler) CreateProperty(c *gin.Context) {
	var body CreatePropertyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	status := models.PropertyStatus(body.Status)
	if body.Status == "" {
		status = models.PropertyAvailable
	}

	created, err := h.propertyService.CreateProperty(c.Request.Context(), &models.Property{
		Name:           body.Name,
		Address:        body.Address,
		Price:          body.Price,
		Status:         status,
		Type:           models.PropertyType(body.Type),
		Description:    body.Description,
		Features:       body.Features,
		ReservationFee: body.ReservationFee,
		Commission:     body.Commission,
	})
	if err != nil {
		respondServiceError(c, err, "Property not found")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetPropertyByID handles GET /v1/property/:id (public).
func (h *RestPropertyHandler) GetPropertyByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
		return
	}

	property, err := h.propertyService.FindPropertyByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Property not found")
		return
	}
	c.JSON(http.StatusOK, property)
}

// SearchProperties handles GET /v1/property/search (public).
func (h *RestPropertyHandler) SearchProperties(c *gin.Context) {
	var filter services.PropertyFilter

	if city := c.Query("city"); city != "" {
		filter.City = &city
	}
	if province := c.Query("province"); province != "" {
		filter.Province = &province
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.PropertyStatus(statusStr)
		filter.Status = &status
	}
	if typeStr := c.Query("type"); typeStr != "" {
		propType := models.PropertyType(typeStr)
		filter.Type = &propType
	}
	if minStr := c.Query("min_price"); minStr != "" {
		min, err := strconv.ParseFloat(minStr, 64)
		if err != nil || min < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_price"})
			return
		}
		filter.MinPrice = &min
	}
	if maxStr := c.Query("max_price"); maxStr != "" {
		max, err := strconv.ParseFloat(maxStr, 64)
		if err != nil || max < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid max_price"})
			return
		}
		filter.MaxPrice = &max
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	properties, err := h.propertyService.SearchProperties(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search properties"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": properties})
}

// UpdateProperty handles PATCH /v1/property/:id (admin). The body is a
// free-form JSON object; the service allow-lists the editable fields.
func (h *RestPropertyHandler) UpdateProperty(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty update"})
		return
	}

	updated, err := h.propertyService.UpdateProperty(c.Request.Context(), id, updates)
	if err != nil {
		respondServiceError(c, err, "Property not found")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteProperty handles DELETE /v1/property/:id (admin, soft delete).
func (h *RestPropertyHandler) DeleteProperty(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid property ID format"})
		return
	}

	if err := h.propertyService.DeleteProperty(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Property not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// ImportCSV handles POST /v1/property/import (admin). Expects a
// multipart form with the CSV under the "file" field.
func (h *RestPropertyHandler) ImportCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'file' upload"})
		return
	}
	if fileHeader.Size > maxImportBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "CSV exceeds the 5 MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	defer file.Close()

	report, err := h.propertyService.ImportCSV(c.Request.Context(), file)
	if err != nil {
		respondServiceError(c, err, "Property not found")
		return
	}
	c.JSON(http.StatusOK, report)
}
