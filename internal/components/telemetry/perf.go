package telemetry

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

const report_perf_stats = "perf.stats"

// InstrumentPerfStats reports the resource usage of the process every `interval` until
// ctx is done. Child processes (the headless browser) are counted separately.
func InstrumentPerfStats(ctx context.Context, tel API, interval time.Duration) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		tel.ReportWarning(report_perf_stats, err)
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				reportPerfStats(ctx, tel, proc)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func reportPerfStats(ctx context.Context, tel API, proc *process.Process) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	tel.ReportCount("perf.allocated_mb", int64(memStats.Alloc/1_000_000))
	tel.ReportCount("perf.goroutines", int64(runtime.NumGoroutine()))

	cpuPercent, err := proc.PercentWithContext(ctx, 0)
	if err == nil {
		tel.ReportCount("perf.cpu_percent", int64(cpuPercent))
	} else {
		tel.ReportDebug("failed to read cpu usage", err)
	}

	memory, err := proc.MemoryInfoWithContext(ctx)
	if err == nil {
		tel.ReportCount("perf.rss_mb", int64(memory.RSS/1_000_000))
	} else {
		tel.ReportDebug("failed to read memory usage", err)
	}

	// ErrorProcessNotRunning is returned when there are no children
	children, _ := proc.ChildrenWithContext(ctx)
	var childrenRss uint64
	for _, child := range children {
		childMemory, err := child.MemoryInfoWithContext(ctx)
		if err != nil {
			continue
		}
		childrenRss += childMemory.RSS
	}
	tel.ReportCount("perf.children", int64(len(children)))
	tel.ReportCount("perf.children_rss_mb", int64(childrenRss/1_000_000))
}
