package app

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"interview-scheduler/internal/meeting"
	"interview-scheduler/internal/scheduling"
	"interview-scheduler/internal/slots"
)

// App holds the collaborators the HTTP handlers call into.
type App struct {
	Slots     *slots.Manager
	Scheduler *scheduling.Orchestrator
	Rooms     *meeting.Resolver
	Logger    *log.Logger
}

type RouterConfig struct {
	StaticTokens       []string
	JWTHMACSecret      string
	ClaimRatePerMinute int
}

// NewRouter registers every route. Admin routes sit behind RequireRole.
func NewRouter(a *App, cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	limiter := NewRateLimiter(cfg.ClaimRatePerMinute)

	api := router.Group("/api")
	api.Use(AuthMiddleware(cfg.StaticTokens, cfg.JWTHMACSecret))
	{
		api.GET("/list-open-slots", a.ListOpenSlotsHandler)
		api.POST("/claim-slot", limiter.Limit(), a.ClaimSlotHandler)

		admin := api.Group("", RequireRole(RoleAdmin))
		{
			admin.POST("/propose-interview", a.ProposeInterviewHandler)
			admin.GET("/slot/:id", a.GetSlotHandler)
			admin.DELETE("/slot/:id", a.DeleteSlotHandler)
			admin.GET("/find-available-rooms", a.FindAvailableRoomsHandler)
			admin.POST("/check-room-availability", a.CheckRoomAvailabilityHandler)
		}
	}
	return router
}
