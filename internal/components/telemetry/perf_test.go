package telemetry

import (
	"context"
	"os"
	"testing"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/stretchr/testify/require"
)

func TestReportPerfStats(t *testing.T) {
	ctx := context.Background()
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	require.NoError(t, err)

	recorder := NewRecorder()
	reportPerfStats(ctx, recorder, proc)

	goroutines, ok := recorder.Count("perf.goroutines")
	require.True(t, ok)
	require.Positive(t, goroutines)

	_, ok = recorder.Count("perf.children")
	require.True(t, ok)
}
