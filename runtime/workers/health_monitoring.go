package workers

import (
	"context"
	"line-chat/contract"
	"line-chat/observability"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

const DefaultMetricInterval = 30 * time.Second

// HealthMonitoringWorker periodically logs the server's own CPU and memory
// usage next to the chat counters.
type HealthMonitoringWorker struct {
	log            *slog.Logger
	registry       contract.IRegistry
	monitoring     *observability.MonitoringManager
	metricInterval time.Duration
}

func NewHealthMonitoringWorker(
	log *slog.Logger,
	registry contract.IRegistry,
	monitoring *observability.MonitoringManager,
	metricInterval time.Duration,
) *HealthMonitoringWorker {
	if metricInterval <= 0 {
		metricInterval = DefaultMetricInterval
	}
	return &HealthMonitoringWorker{
		log:            log,
		registry:       registry,
		monitoring:     monitoring,
		metricInterval: metricInterval,
	}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health monitoring")
			return nil
		case <-ticker.C:
			w.report(p)
		}
	}
}

func (w *HealthMonitoringWorker) report(p *process.Process) {
	rss, cpu, err := selfStats(p)
	if err != nil {
		w.log.Error("Failed to collect self stats", "error", err)
		return
	}
	stats := w.monitoring.GetLatest(w.registry.Len())
	w.log.Info("Server health",
		"cpu_percent", cpu,
		"rss_bytes", rss,
		"sessions", stats.Sessions,
		"accepted", stats.Accepted,
		"broadcasts", stats.Broadcasts,
		"whispers", stats.Whispers,
		"dropped", stats.Dropped,
		"goroutines", stats.Goroutines)
}

func selfStats(p *process.Process) (uint64, float64, error) {
	memory, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memory.RSS, cpu, nil
}
