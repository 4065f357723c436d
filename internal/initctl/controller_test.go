package initctl

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu      sync.Mutex
	updates []Update
}

func (r *recordingBroadcaster) BroadcastInitializationUpdate(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, u)
}

func (r *recordingBroadcaster) stages() []Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Stage, len(r.updates))
	for i, u := range r.updates {
		out[i] = u.Stage
	}
	return out
}

func noBackoff(int) time.Duration { return time.Millisecond }

func TestRunSucceedsThroughAllStages(t *testing.T) {
	b := &recordingBroadcaster{}
	c := New(b, 3, noBackoff, time.Second, 0)

	err := c.Run(context.Background(), Steps{
		LoadConfig: func(ctx context.Context) error { return nil },
		BuildIndex: func(ctx context.Context) (int, error) { return 5, nil },
		FillQueue:  func(ctx context.Context) error { return nil },
	})

	require.NoError(t, err)
	require.Equal(t, StageComplete, c.CurrentStage())
	require.Equal(t, []Stage{StageLoadingConfig, StageBuildingIndex, StageFillingQueue, StageComplete}, b.stages())
}

func TestRunRetriesThenSucceeds(t *testing.T) {
	b := &recordingBroadcaster{}
	c := New(b, 3, noBackoff, time.Second, 0)

	attempts := 0
	err := c.Run(context.Background(), Steps{
		LoadConfig: func(ctx context.Context) error { return nil },
		BuildIndex: func(ctx context.Context) (int, error) {
			attempts++
			if attempts < 2 {
				return 0, errors.New("transient index failure")
			}
			return 3, nil
		},
		FillQueue: func(ctx context.Context) error { return nil },
	})

	require.NoError(t, err)
	require.Equal(t, StageComplete, c.CurrentStage())
	require.Contains(t, b.stages(), StageRetrying)
}

func TestRunZeroVideosTerminatesWithoutRetry(t *testing.T) {
	b := &recordingBroadcaster{}
	c := New(b, 5, noBackoff, time.Second, 0)

	calls := 0
	err := c.Run(context.Background(), Steps{
		LoadConfig: func(ctx context.Context) error { return nil },
		BuildIndex: func(ctx context.Context) (int, error) {
			calls++
			return 0, nil
		},
		FillQueue: func(ctx context.Context) error { return nil },
	})

	require.Error(t, err)
	require.Equal(t, 1, calls)
	require.Equal(t, StageError, c.CurrentStage())
}

func TestRunExhaustsAttemptsAndFails(t *testing.T) {
	b := &recordingBroadcaster{}
	c := New(b, 2, noBackoff, time.Second, 0)

	err := c.Run(context.Background(), Steps{
		LoadConfig: func(ctx context.Context) error { return nil },
		BuildIndex: func(ctx context.Context) (int, error) { return 0, errors.New("boom") },
		FillQueue:  func(ctx context.Context) error { return nil },
	})

	require.Error(t, err)
	require.Equal(t, StageError, c.CurrentStage())
}

func TestRunRespectsTotalTimeout(t *testing.T) {
	b := &recordingBroadcaster{}
	c := New(b, 100, func(int) time.Duration { return 50 * time.Millisecond }, 30*time.Millisecond, 0)

	err := c.Run(context.Background(), Steps{
		LoadConfig: func(ctx context.Context) error { return nil },
		BuildIndex: func(ctx context.Context) (int, error) { return 0, errors.New("always fails") },
		FillQueue:  func(ctx context.Context) error { return nil },
	})

	require.Error(t, err)
	require.Equal(t, StageError, c.CurrentStage())
}
