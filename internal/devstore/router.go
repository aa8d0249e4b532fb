package devstore

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig tunes the HTTP surface.
type RouterConfig struct {
	Debug      bool
	EnableCORS bool
}

// NewRouter wires the Store behind the same call shapes the production
// stores expose. Identity is the bearer token itself: `Bearer U1`
// authenticates as user U1, which keeps harness setups to one line.
func NewRouter(store *Store, cfg RouterConfig) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if cfg.Debug {
		engine.Use(gin.Logger())
	}
	if cfg.EnableCORS {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
		engine.Use(cors.New(corsConfig))
	}

	engine.Use(bearerIdentity())

	activity := engine.Group("/activity")
	{
		activity.GET("/:id", func(c *gin.Context) {
			snapshot, err := store.Activity(c.Param("id"))
			if abortOn(c, err) {
				return
			}
			c.JSON(http.StatusOK, snapshot)
		})
		activity.POST("/:id/join", func(c *gin.Context) {
			snapshot, err := store.RequestJoin(c.Param("id"), caller(c))
			if abortOn(c, err) {
				return
			}
			c.JSON(http.StatusOK, snapshot)
		})
		activity.POST("/:id/cancel-request", func(c *gin.Context) {
			statusOnly(c, store.CancelRequest(c.Param("id"), caller(c)))
		})
		activity.POST("/:id/leave", func(c *gin.Context) {
			statusOnly(c, store.Leave(c.Param("id"), caller(c)))
		})
		activity.POST("/:id/approve/:userId", func(c *gin.Context) {
			statusOnly(c, store.Approve(c.Param("id"), caller(c), c.Param("userId")))
		})
		activity.POST("/:id/reject/:userId", func(c *gin.Context) {
			statusOnly(c, store.Reject(c.Param("id"), caller(c), c.Param("userId")))
		})
		activity.POST("/:id/remove/:userId", func(c *gin.Context) {
			statusOnly(c, store.Remove(c.Param("id"), caller(c), c.Param("userId")))
		})
	}

	alerts := engine.Group("/user/alerts")
	{
		alerts.GET("", func(c *gin.Context) {
			unreadOnly := c.Query("unread_only") == "true"
			limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
			c.JSON(http.StatusOK, store.Alerts(caller(c), unreadOnly, limit))
		})
		alerts.GET("/count", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"unread_count": store.UnreadCount(caller(c))})
		})
		alerts.POST("/read-all", func(c *gin.Context) {
			store.MarkAllRead(caller(c))
			c.Status(http.StatusOK)
		})
		alerts.DELETE("", func(c *gin.Context) {
			store.DeleteAllAlerts(caller(c))
			c.Status(http.StatusOK)
		})
		alerts.POST("/:alertId/respond", func(c *gin.Context) {
			var body struct {
				Status string `json:"status"`
			}
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body"})
				return
			}
			statusOnly(c, store.Respond(caller(c), c.Param("alertId"), body.Status))
		})
		alerts.POST("/:alertId/read", func(c *gin.Context) {
			statusOnly(c, store.MarkRead(caller(c), c.Param("alertId")))
		})
		alerts.DELETE("/:alertId", func(c *gin.Context) {
			statusOnly(c, store.DeleteAlert(caller(c), c.Param("alertId")))
		})
	}

	return engine
}

const callerKey = "devstore.caller"

func bearerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Missing bearer token"})
			return
		}
		c.Set(callerKey, token)
		c.Next()
	}
}

func caller(c *gin.Context) string {
	return c.GetString(callerKey)
}

func statusOnly(c *gin.Context, err error) {
	if abortOn(c, err) {
		return
	}
	c.Status(http.StatusOK)
}

func abortOn(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	var se *Error
	if errors.As(err, &se) {
		c.JSON(se.Status, gin.H{"detail": se.Detail})
		return true
	}
	c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
	return true
}
