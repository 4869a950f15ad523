package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/filmorate/aggregate"
	"github.com/kasuganosora/filmorate/scheduler"
	"go.uber.org/zap"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	engine       *aggregate.Engine
	sched        *scheduler.Scheduler
	defaultCount int
	logger       *zap.Logger
}

// NewAdminHandler creates an AdminHandler. defaultCount is the ranking size
// refreshed when the request names none.
func NewAdminHandler(engine *aggregate.Engine, sched *scheduler.Scheduler, defaultCount int, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{engine: engine, sched: sched, defaultCount: defaultCount, logger: logger}
}

// Register mounts the admin routes on r, behind the given middleware.
func (h *AdminHandler) Register(r gin.IRouter, guards ...gin.HandlerFunc) {
	g := r.Group("/admin", guards...)
	g.POST("/popular/refresh", h.RefreshPopular)
	g.GET("/scheduler", h.ListSchedulerTasks)
}

// RefreshPopular recomputes and caches a popular films ranking.
// POST /admin/popular/refresh?count=N
func (h *AdminHandler) RefreshPopular(c *gin.Context) {
	count := h.defaultCount
	if raw, present := c.GetQuery("count"); present {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "count must be an integer"})
			return
		}
		count = n
	}
	refreshed, err := h.engine.Refresh(c.Request.Context(), count)
	if err != nil {
		fail(c, h.logger, err)
		return
	}
	h.logger.Info("admin refreshed popular films", zap.Int("count", count), zap.Bool("refreshed", refreshed))
	c.JSON(http.StatusOK, gin.H{"refreshed": refreshed, "count": count})
}

// ListSchedulerTasks returns run statistics for every scheduled task.
// GET /admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.Status()})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
