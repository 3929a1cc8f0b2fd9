package health

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Pinger is satisfied by *pgxpool.Pool, the redis cache and the in-memory
// store. Wrap *sql.DB with PingFunc(db.PingContext).
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type HealthChecker struct {
	db        Pinger
	deps      map[string]Pinger
	startedAt time.Time
}

type HealthStatus struct {
	Status       string                      `json:"status"`
	Database     DependencyHealth            `json:"database"`
	Dependencies map[string]DependencyHealth `json:"dependencies,omitempty"`
	System       *SystemStats                `json:"system,omitempty"`
	Uptime       string                      `json:"uptime,omitempty"`
}

type DependencyHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
}

type SystemStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	MemoryUsed    string  `json:"memory_used"`
	MemoryTotal   string  `json:"memory_total"`
	DiskPercent   float64 `json:"disk_percent"`
	DiskUsed      string  `json:"disk_used"`
	DiskTotal     string  `json:"disk_total"`
}

func NewHealthChecker(db Pinger) *HealthChecker {
	return &HealthChecker{db: db, deps: make(map[string]Pinger), startedAt: time.Now()}
}

// AddDependency registers an optional service. Its failure is reported but
// does not make the instance unhealthy.
func (h *HealthChecker) AddDependency(name string, p Pinger) {
	h.deps[name] = p
}

// CheckBasic pings the database and every registered dependency.
func (h *HealthChecker) CheckBasic() HealthStatus {
	dbHealth := check(h.db)

	status := "healthy"
	if dbHealth.Status != "healthy" {
		status = "unhealthy"
	}

	result := HealthStatus{Status: status, Database: dbHealth}
	if len(h.deps) > 0 {
		result.Dependencies = make(map[string]DependencyHealth, len(h.deps))
		names := make([]string, 0, len(h.deps))
		for name := range h.deps {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			result.Dependencies[name] = check(h.deps[name])
		}
	}
	return result
}

// CheckDetailed adds host resource usage and process uptime.
func (h *HealthChecker) CheckDetailed() HealthStatus {
	status := h.CheckBasic()
	status.System = collectSystemStats()
	status.Uptime = formatUptime(int(time.Since(h.startedAt).Seconds()))
	return status
}

func check(p Pinger) DependencyHealth {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return DependencyHealth{
			Status:       "unhealthy",
			ResponseTime: responseTime,
			Error:        err.Error(),
		}
	}

	return DependencyHealth{
		Status:       "healthy",
		ResponseTime: responseTime,
	}
}

func collectSystemStats() *SystemStats {
	stats := &SystemStats{}

	if cpuPercents, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(cpuPercents) > 0 {
		stats.CPUPercent = cpuPercents[0]
	}
	if memStats, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = memStats.UsedPercent
		stats.MemoryUsed = formatBytes(memStats.Used)
		stats.MemoryTotal = formatBytes(memStats.Total)
	}
	if diskStats, err := disk.Usage("/"); err == nil {
		stats.DiskPercent = diskStats.UsedPercent
		stats.DiskUsed = formatBytes(diskStats.Used)
		stats.DiskTotal = formatBytes(diskStats.Total)
	}
	return stats
}

func formatBytes(bytes uint64) string {
	gb := float64(bytes) / (1024 * 1024 * 1024)
	if gb < 1 {
		mb := float64(bytes) / (1024 * 1024)
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", gb)
}

func formatUptime(seconds int) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
