package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/finlens/macrobeta-go/internal/config"
)

var startTime = time.Now()

// DatabaseHealthChecker reports whether the database is reachable.
// *database.PostgresDB satisfies it.
type DatabaseHealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type HealthHandler struct {
	db     DatabaseHealthChecker
	cfg    *config.Config
	logger *logrus.Logger
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Services  map[string]string `json:"services"`
	System    SystemStats       `json:"system"`
}

type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	Goroutines    int     `json:"goroutines"`
}

func NewHealthHandler(db DatabaseHealthChecker, cfg *config.Config, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		cfg:    cfg,
		logger: logger,
	}
}

// Check handles GET /health. The database is the only hard dependency;
// external providers report whether they are configured, since the
// service degrades gracefully without them.
func (h *HealthHandler) Check(c *gin.Context) {
	services := make(map[string]string)
	overallStatus := "healthy"

	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context()); err != nil {
			services["database"] = "unhealthy: " + err.Error()
			overallStatus = "degraded"
		} else {
			services["database"] = "healthy"
		}
	} else {
		services["database"] = "unhealthy: not configured"
		overallStatus = "degraded"
	}

	if h.cfg.FRED.APIKey != "" {
		services["fred"] = "configured"
	} else {
		services["fred"] = "unconfigured"
	}

	if h.cfg.Fundamentals.ServiceURL != "" {
		services["fundamentals"] = "configured"
	} else {
		services["fundamentals"] = "unconfigured"
	}

	response := HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Service:   h.cfg.Telemetry.ServiceName,
		Version:   os.Getenv("APP_VERSION"),
		Uptime:    time.Since(startTime).String(),
		Services:  services,
		System:    h.systemStats(c),
	}

	status := http.StatusOK
	if overallStatus != "healthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, response)
}

func (h *HealthHandler) systemStats(c *gin.Context) SystemStats {
	stats := SystemStats{Goroutines: runtime.NumGoroutine()}

	// Zero interval reports usage since the previous call instead of
	// blocking the health check for a sampling window.
	if cpuPercent, err := cpu.PercentWithContext(c.Request.Context(), 0, false); err == nil && len(cpuPercent) > 0 {
		stats.CPUPercent = cpuPercent[0]
	} else if err != nil {
		h.logger.WithError(err).Debug("Failed to read CPU usage")
	}

	if memInfo, err := mem.VirtualMemoryWithContext(c.Request.Context()); err == nil {
		stats.MemoryPercent = memInfo.UsedPercent
	} else {
		h.logger.WithError(err).Debug("Failed to read memory usage")
	}

	return stats
}
