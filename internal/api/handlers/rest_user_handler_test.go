package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tes/crm/internal/api/handlers"
	"tes/crm/internal/models"
	"tes/crm/internal/services"
)

func newUserTestRouter(userSvc *MockUserService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewRestUserHandler(userSvc)
	r := gin.New()
	r.POST("/v1/login", handler.Login)
	r.POST("/v1/admin/user", handler.CreateUser)
	r.GET("/v1/user/:id", handler.GetUserByID)
	return r
}

func TestRestUserHandler_Login_Success(t *testing.T) {
	userSvc := new(MockUserService)
	r := newUserTestRouter(userSvc)

	user := &models.User{
		ID:     primitive.NewObjectID(),
		Name:   "Maria Santos",
		Email:  "maria@example.com",
		Role:   models.RoleAgent,
		Active: true,
	}
	userSvc.On("Authenticate", mock.Anything, "maria@example.com", "secret123").
		Return(user, "signed.jwt.token", nil)

	body, _ := json.Marshal(map[string]string{"email": "maria@example.com", "password": "secret123"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var respBody struct {
		Token string              `json:"token"`
		User  handlers.PublicUser `json:"user"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &respBody))
	assert.Equal(t, "signed.jwt.token", respBody.Token)
	assert.Equal(t, "Maria Santos", respBody.User.Name)
	// The password hash never leaves the server.
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestRestUserHandler_Login_BadCredentials(t *testing.T) {
	userSvc := new(MockUserService)
	r := newUserTestRouter(userSvc)

	userSvc.On("Authenticate", mock.Anything, "maria@example.com", "wrong").
		Return(nil, "", services.ErrInvalidCredentials)

	body, _ := json.Marshal(map[string]string{"email": "maria@example.com", "password": "wrong"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRestUserHandler_CreateUser_UnknownRole(t *testing.T) {
	r := newUserTestRouter(new(MockUserService))

	body, _ := json.Marshal(map[string]string{
		"name":     "Maria Santos",
		"email":    "maria@example.com",
		"password": "secret123",
		"role":     "superuser",
	})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/admin/user", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRestUserHandler_GetUserByID_InvalidID(t *testing.T) {
	r := newUserTestRouter(new(MockUserService))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/v1/user/not-a-hex-id", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
