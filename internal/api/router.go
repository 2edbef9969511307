package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"tes/crm/internal/api/handlers"
	"tes/crm/internal/api/middleware"
	"tes/crm/internal/config"
	"tes/crm/internal/services"
)

// SetupRouter configures and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient handlers.IAsynqClient) *gin.Engine {
	// Initialize services needed by API handlers
	userService := services.NewUserService(db, cfg)
	propertyService := services.NewPropertyService(db, cfg)
	inquiryService := services.NewInquiryService(db, cfg)
	calendarService := services.NewCalendarService(db, cfg)
	statsService := services.NewStatsService(db, cfg)
	activityService := services.NewActivityService(db)

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Global middleware (order matters)
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	// Initialize handlers
	restInquiryHandler := handlers.NewRestInquiryHandler(inquiryService, activityService, taskClient)
	restCalendarHandler := handlers.NewRestCalendarHandler(calendarService)
	restPropertyHandler := handlers.NewRestPropertyHandler(propertyService)
	restUserHandler := handlers.NewRestUserHandler(userService)
	restStatsHandler := handlers.NewRestStatsHandler(statsService, activityService, inquiryService, propertyService)

	v1 := r.Group("/v1")
	{
		// Public routes (rate limiting already applied globally)
		v1.POST("/inquiry", restInquiryHandler.CreateInquiry)
		v1.POST("/login", restUserHandler.Login)

		v1.GET("/property", restPropertyHandler.SearchProperties)
		v1.GET("/property/search", restPropertyHandler.SearchProperties)
		v1.GET("/property/:id", restPropertyHandler.GetPropertyByID)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		// Authenticated portal routes (admins and agents)
		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		{
			authRequired.GET("/inquiry", restInquiryHandler.ListInquiries)
			authRequired.GET("/inquiry/expiry-warnings", restInquiryHandler.ExpiryWarnings)
			authRequired.GET("/inquiry/:id", restInquiryHandler.GetInquiryByID)
			authRequired.PATCH("/inquiry/:id/status", restInquiryHandler.UpdateStatus)
			authRequired.PATCH("/inquiry/:id/assign", restInquiryHandler.AssignAgent)
			authRequired.POST("/inquiry/bulk-status", restInquiryHandler.BulkUpdateStatus)

			authRequired.POST("/calendar/event", restCalendarHandler.CreateEvent)
			authRequired.GET("/calendar/event", restCalendarHandler.ListEvents)
			authRequired.GET("/calendar/event/:id", restCalendarHandler.GetEventByID)
			authRequired.PATCH("/calendar/event/:id", restCalendarHandler.UpdateEvent)
			authRequired.DELETE("/calendar/event/:id", restCalendarHandler.DeleteEvent)
			authRequired.GET("/calendar/availability", restCalendarHandler.AvailableSlots)
			authRequired.GET("/calendar/recommendations", restCalendarHandler.RecommendedSlots)

			authRequired.GET("/stats/agent", restStatsHandler.ListAgentStats)
			authRequired.GET("/stats/agent/:id", restStatsHandler.GetAgentStats)
			authRequired.GET("/stats/top-agents", restStatsHandler.TopAgents)
			authRequired.GET("/stats/overloaded", restStatsHandler.OverloadedAgents)
			authRequired.GET("/stats/global", restStatsHandler.GetGlobalStats)
			authRequired.GET("/activity", restStatsHandler.RecentActivity)

			authRequired.GET("/user", restUserHandler.ListUsers)
			authRequired.GET("/user/:id", restUserHandler.GetUserByID)
		}

		// Admin routes
		adminRequired := v1.Group("/admin")
		adminRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret), middleware.AdminMiddleware())
		{
			adminRequired.POST("/property", restPropertyHandler.CreateProperty)
			adminRequired.PATCH("/property/:id", restPropertyHandler.UpdateProperty)
			adminRequired.DELETE("/property/:id", restPropertyHandler.DeleteProperty)
			adminRequired.POST("/property/import", restPropertyHandler.ImportCSV)

			adminRequired.POST("/user", restUserHandler.CreateUser)
			adminRequired.DELETE("/user/:id", restUserHandler.DeactivateUser)
		}
	}

	return r
}

// SetupServiceRouter configures and returns the service Gin engine used
// by the integration harness: it can shut the process down and fetch
// emails captured in Redis by the mock sender.
func SetupServiceRouter(cfg *config.Config, rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			log.Println("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				log.Println("Shutdown channel already signaled or blocked.")
			}
		case "getTestEmail":
			var args []string // Expect ["kind", "email"]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [kind, email]"})
				return
			}
			kind := args[0]
			emailAddr := args[1]
			redisKey := fmt.Sprintf("mockemail:%s:%s", emailAddr, kind)

			// Poll Redis briefly; the email is written by a background task.
			var emailJSONData string
			var getErr error
			found := false
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			for i := 0; i < 10; i++ {
				emailJSONData, getErr = rdb.Get(ctx, redisKey).Result()
				if getErr == nil {
					found = true
					rdb.Del(ctx, redisKey)
					break
				}
				if getErr != redis.Nil {
					log.Printf("Service API: Error getting key %s from Redis: %v", redisKey, getErr)
					c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
					return
				}
				time.Sleep(200 * time.Millisecond)
			}

			if !found {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found in Redis for key %s", redisKey)})
				return
			}

			var emailData map[string]interface{}
			if err := json.Unmarshal([]byte(emailJSONData), &emailData); err != nil {
				log.Printf("Service API: Error unmarshalling email data from key %s: %v", redisKey, err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored email data"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "data": emailData})

		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
