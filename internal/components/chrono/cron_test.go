package chrono

import (
	"errors"
	"testing"
	"time"

	"anscrutins/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestStandardCron(t *testing.T) {
	recorder := telemetry.NewRecorder()
	cron := NewStandardCron(recorder)

	require.Error(t, cron.Cron("not a schedule", func() {}))

	ran := make(chan struct{}, 1)
	require.NoError(t, cron.Cron("@every 1s", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}))
	cron.Start()
	defer cron.Stop()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestCronLogger(t *testing.T) {
	recorder := telemetry.NewRecorder()
	logger := cronLogger{tel: recorder}

	logger.Error(errors.New("boom"), "job failed", "entry", 1)
	broken := recorder.Broken("cron")
	require.Len(t, broken, 1)
	require.ErrorContains(t, broken[0].Params[0].(error), "job failed: boom")
	require.Equal(t, "entry: 1", broken[0].Params[1])
}

func TestClock(t *testing.T) {
	clock := StandardImpl{}
	require.Equal(t, "Europe/Paris", clock.Location().String())
	require.Equal(t, "Europe/Paris", clock.Now().Location().String())
	require.WithinDuration(t, time.Now(), clock.Now(), time.Minute)
}
