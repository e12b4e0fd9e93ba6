package statuscache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/darkkaiser/remote-task/internal/contract"
	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock 테스트에서 수동으로 진행시키는 시계
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var testKey = contract.TaskKey{JobID: "job-1", TaskID: "task-1"}

// =============================================================================
// Freshness
// =============================================================================

func TestObservation_FreshAt(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := Observation{State: contract.StateRunning, ObservedAt: base}

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"관측 시각", 0, true},
		{"999ms 경과", 999 * time.Millisecond, true},
		{"1000ms 경과", 1000 * time.Millisecond, false},
		{"관측 이전 시각", -time.Millisecond, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, obs.FreshAt(base.Add(tt.offset), DefaultFreshness))
		})
	}
}

func TestCache_GetPutLookup(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))

	_, ok := c.Get(testKey)
	assert.False(t, ok)

	c.Put(testKey, contract.StateRunning, clock.Now())
	state, ok := c.Get(testKey)
	require.True(t, ok)
	assert.Equal(t, contract.StateRunning, state)

	clock.Advance(DefaultFreshness)
	_, ok = c.Get(testKey)
	assert.False(t, ok, "유효 기간이 지난 관측값은 반환하지 않아야 합니다")

	obs, ok := c.Lookup(testKey)
	require.True(t, ok)
	assert.Equal(t, contract.StateRunning, obs.State)

	// 더 오래된 관측값은 무시
	c.Put(testKey, contract.StatePending, clock.Now().Add(-time.Hour))
	obs, _ = c.Lookup(testKey)
	assert.Equal(t, contract.StateRunning, obs.State)

	assert.Equal(t, 1, c.Len())
	c.Forget(testKey)
	assert.Equal(t, 0, c.Len())
}

func TestCache_WithFreshness(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now), WithFreshness(5*time.Second), WithFreshness(0))

	c.Put(testKey, contract.StateRunning, clock.Now())
	clock.Advance(4 * time.Second)
	_, ok := c.Get(testKey)
	assert.True(t, ok)
}

// =============================================================================
// Resolve
// =============================================================================

func TestCache_Resolve_OneFetchPerWindow(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))

	var calls atomic.Int32
	fetch := func(ctx context.Context) (contract.RemoteState, error) {
		calls.Add(1)
		return contract.StateRunning, nil
	}

	for i := 0; i < 5; i++ {
		state, ok, err := c.Resolve(context.Background(), testKey, fetch)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, contract.StateRunning, state)
		clock.Advance(100 * time.Millisecond)
	}
	assert.Equal(t, int32(1), calls.Load())

	clock.Advance(DefaultFreshness)
	_, _, err := c.Resolve(context.Background(), testKey, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCache_Resolve_ConcurrentCallersShareFetch(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))

	var calls atomic.Int32
	fetch := func(ctx context.Context) (contract.RemoteState, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return contract.StateFinished, nil
	}

	const n = 20
	var wg sync.WaitGroup
	results := make([]contract.RemoteState, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			state, _, _ := c.Resolve(context.Background(), testKey, fetch)
			results[i] = state
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, s := range results {
		assert.Equal(t, contract.StateFinished, s)
	}
}

func TestCache_Resolve_FetchFailure(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))
	fetchErr := errors.New("connection refused")

	failing := func(ctx context.Context) (contract.RemoteState, error) {
		return "", fetchErr
	}

	t.Run("관측값이 없으면 false", func(t *testing.T) {
		state, ok, err := c.Resolve(context.Background(), testKey, failing)
		assert.ErrorIs(t, err, fetchErr)
		assert.False(t, ok)
		assert.Empty(t, state)
	})

	t.Run("만료된 관측값을 유지", func(t *testing.T) {
		c.Put(testKey, contract.StateRunning, clock.Now())
		clock.Advance(2 * DefaultFreshness)

		state, ok, err := c.Resolve(context.Background(), testKey, failing)
		assert.ErrorIs(t, err, fetchErr)
		assert.True(t, ok)
		assert.Equal(t, contract.StateRunning, state)

		obs, _ := c.Lookup(testKey)
		assert.Equal(t, clock.Now().Add(-2*DefaultFreshness), obs.ObservedAt, "실패한 조회는 관측 시각을 갱신하지 않아야 합니다")
	})
}

func TestCache_Resolve_CanceledContext(t *testing.T) {
	c := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, ok, err := c.Resolve(ctx, testKey, func(ctx context.Context) (contract.RemoteState, error) {
		called = true
		return contract.StateRunning, nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, apperrors.Is(err, apperrors.Timeout))
	assert.False(t, ok)
	assert.False(t, called)
}

func TestCache_Resolve_WaiterGivesUpOnContext(t *testing.T) {
	c := New()

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = c.Resolve(context.Background(), testKey, func(ctx context.Context) (contract.RemoteState, error) {
			close(entered)
			<-release
			return contract.StateRunning, nil
		})
	}()
	<-entered

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok, err := c.Resolve(ctx, testKey, func(ctx context.Context) (contract.RemoteState, error) {
		t.Error("진행 중인 조회가 있으면 새로 조회하지 않아야 합니다")
		return contract.StatePending, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, apperrors.Is(err, apperrors.Timeout))
	assert.False(t, ok)

	close(release)
	<-done

	state, ok := c.Get(testKey)
	assert.True(t, ok)
	assert.Equal(t, contract.StateRunning, state)
}

func TestCache_Resolve_FailureHoldsForOneWindow(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))
	fetchErr := errors.New("503 service unavailable")

	var calls atomic.Int32
	healthy := true
	fetch := func(ctx context.Context) (contract.RemoteState, error) {
		calls.Add(1)
		if healthy {
			return contract.StateRunning, nil
		}
		return "", fetchErr
	}

	_, _, err := c.Resolve(context.Background(), testKey, fetch)
	require.NoError(t, err)

	healthy = false
	clock.Advance(DefaultFreshness)

	// 장애 중에도 유효 기간 안에서는 한 번만 조회한다.
	for i := 0; i < 5; i++ {
		state, ok, err := c.Resolve(context.Background(), testKey, fetch)
		assert.ErrorIs(t, err, fetchErr)
		assert.True(t, ok)
		assert.Equal(t, contract.StateRunning, state)
		clock.Advance(100 * time.Millisecond)
	}
	assert.Equal(t, int32(2), calls.Load())

	// 실패 기록이 만료되면 다시 조회하고, 성공하면 실패 기록을 지운다.
	healthy = true
	clock.Advance(DefaultFreshness)
	state, ok, err := c.Resolve(context.Background(), testKey, fetch)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, contract.StateRunning, state)
	assert.Equal(t, int32(3), calls.Load())

	obs, _ := c.Lookup(testKey)
	assert.Equal(t, clock.Now(), obs.ObservedAt)
}

func TestCache_Resolve_FailureWithoutObservation(t *testing.T) {
	clock := newFakeClock()
	c := New(WithClock(clock.Now))

	var calls atomic.Int32
	fetch := func(ctx context.Context) (contract.RemoteState, error) {
		calls.Add(1)
		return "", errors.New("connection refused")
	}

	for i := 0; i < 3; i++ {
		_, ok, err := c.Resolve(context.Background(), testKey, fetch)
		assert.Error(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, int32(1), calls.Load())

	_, ok := c.Lookup(testKey)
	assert.False(t, ok, "실패 기록만 있는 키는 관측값이 없어야 합니다")
	assert.Equal(t, 1, c.Len())
	c.Forget(testKey)
	assert.Zero(t, c.Len())
}
