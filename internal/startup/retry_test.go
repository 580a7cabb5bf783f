package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := retry(context.Background(), time.Minute, "op", func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryGivesUpAfterDeadline(t *testing.T) {
	boom := errors.New("boom")
	err := retry(context.Background(), 0, "op", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	err := retry(ctx, time.Hour, "op", func(ctx context.Context) error { return errors.New("down") })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestConnectDBRejectsBadDSN(t *testing.T) {
	_, err := ConnectDB(context.Background(), "postgres://%zz", 5, 0)
	assert.Error(t, err)
}

func TestRunMigrationsRequiresDSN(t *testing.T) {
	assert.Error(t, RunMigrations(""))
}
