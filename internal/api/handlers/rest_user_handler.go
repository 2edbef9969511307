package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tes/crm/internal/models"
	"tes/crm/internal/services"
)

// RestUserHandler handles authentication and portal user management.
type RestUserHandler struct {
	userService services.IUserService
}

// NewRestUserHandler creates a new RestUserHandler.
func NewRestUserHandler(userService services.IUserService) *RestUserHandler {
	return &RestUserHandler{userService: userService}
}

// PublicUser is the user shape returned to clients; it never carries the
// password hash.
type PublicUser struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	Phone  string          `json:"phone,omitempty"`
	Active bool            `json:"active"`
}

func publicUser(u *models.User) PublicUser {
	return PublicUser{
		ID:     u.ID.Hex(),
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Phone:  u.Phone,
		Active: u.Active,
	}
}

// LoginBody is the JSON body for POST /v1/login.
type LoginBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /v1/login (public).
func (h *RestUserHandler) Login(c *gin.Context) {
	var body LoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	user, token, err := h.userService.Authenticate(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  publicUser(user),
	})
}

// CreateUserBody is the JSON body for creating a portal user.
type CreateUserBody struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
	Phone    string `json:"phone"`
}

// CreateUser handles POST /v1/user (admin).
func (h *RestUserHandler) CreateUser(c *gin.Context) {
	var body CreateUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	role := models.UserRole(body.Role)
	if role != models.RoleAdmin && role != models.RoleAgent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role: " + body.Role})
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), body.Name, body.Email, body.Password, role, body.Phone)
	if err != nil {
		respondServiceError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusCreated, publicUser(user))
}

// GetUserByID handles GET /v1/user/:id
func (h *RestUserHandler) GetUserByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	user, err := h.userService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "User not found")
		return
	}
	c.JSON(http.StatusOK, publicUser(user))
}

// ListUsers handles GET /v1/user
// Optional ?role=agent narrows by role.
func (h *RestUserHandler) ListUsers(c *gin.Context) {
	var role *models.UserRole
	if roleStr := c.Query("role"); roleStr != "" {
		r := models.UserRole(roleStr)
		if r != models.RoleAdmin && r != models.RoleAgent {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role: " + roleStr})
			return
		}
		role = &r
	}

	users, err := h.userService.ListUsers(c.Request.Context(), role)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	out := make([]PublicUser, 0, len(users))
	for i := range users {
		out = append(out, publicUser(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

// DeactivateUser handles DELETE /v1/user/:id (admin). Deactivated agents
// keep their history but can no longer log in or take assignments.
func (h *RestUserHandler) DeactivateUser(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
		return
	}

	if err := h.userService.Deactivate(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "User not found")
		return
	}
	c.Status(http.StatusNoContent)
}
