package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/relaydesk/relaybot/internal/application/usecase"
)

// StatsReader is the read-only query side behind the dashboard.
type StatsReader interface {
	Summary(ctx context.Context) (*usecase.StatsSummary, error)
	Users(ctx context.Context) ([]usecase.UserView, error)
	RecentActivity(ctx context.Context) ([]usecase.ActivityView, error)
}

// StatsHandler 统计面板处理器
type StatsHandler struct {
	stats  StatsReader
	logger *zap.Logger
	now    func() time.Time
}

// NewStatsHandler 创建统计处理器
func NewStatsHandler(stats StatsReader, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		stats:  stats,
		logger: logger,
		now:    time.Now,
	}
}

// Dashboard renders the HTML page; data is fetched by the page itself.
func (h *StatsHandler) Dashboard(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Title": "Relay bot dashboard",
	})
}

// Stats GET /api/stats
func (h *StatsHandler) Stats(c *gin.Context) {
	summary, err := h.stats.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Users GET /api/users
func (h *StatsHandler) Users(c *gin.Context) {
	users, err := h.stats.Users(c.Request.Context())
	if err != nil {
		h.fail(c, "users", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// RecentActivity GET /api/recent-activity
func (h *StatsHandler) RecentActivity(c *gin.Context) {
	activity, err := h.stats.RecentActivity(c.Request.Context())
	if err != nil {
		h.fail(c, "recent-activity", err)
		return
	}
	c.JSON(http.StatusOK, activity)
}

// Health GET /health
func (h *StatsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": h.now().Format(usecase.TimestampLayout),
	})
}

func (h *StatsHandler) fail(c *gin.Context, endpoint string, err error) {
	h.logger.Error("Stats query failed", zap.String("endpoint", endpoint), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
