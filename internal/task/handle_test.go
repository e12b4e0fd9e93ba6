package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/remote-task/internal/contract"
	"github.com/darkkaiser/remote-task/internal/contract/mocks"
	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
	"github.com/darkkaiser/remote-task/internal/scheduler/memory"
	"github.com/darkkaiser/remote-task/internal/task/cleanup"
	"github.com/darkkaiser/remote-task/internal/task/statuscache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// submitted 제출까지 마친 핸들을 반환합니다.
func submitted(t *testing.T, client contract.RemoteClient, d *contract.TaskDescriptor, opts ...Option) *Handle {
	t.Helper()

	h, err := New(d, client, opts...)
	require.NoError(t, err)
	require.NoError(t, h.Submit(context.Background()))
	return h
}

// =============================================================================
// Construction
// =============================================================================

func TestNew_Validation(t *testing.T) {
	client := &mocks.MockRemoteClient{}

	tests := []struct {
		name       string
		descriptor *contract.TaskDescriptor
		client     contract.RemoteClient
		opts       []Option
		wantErr    error
		wantMsg    string
	}{
		{name: "nil 명세", descriptor: nil, client: client, wantMsg: "nil"},
		{name: "이미지 누락", descriptor: &contract.TaskDescriptor{Command: "run.sh"}, client: client, wantMsg: "이미지"},
		{name: "음수 자원", descriptor: &contract.TaskDescriptor{Image: "a", Resources: contract.Resources{CPUs: -1}}, client: client, wantMsg: "CPUs"},
		{name: "클라이언트 누락", descriptor: &contract.TaskDescriptor{Image: "a"}, client: nil, wantErr: ErrClientRequired},
		{name: "잘못된 보존 방식", descriptor: &contract.TaskDescriptor{Image: "a"}, client: client, opts: []Option{WithRetention("sometimes")}, wantMsg: "보존 방식"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := New(tt.descriptor, tt.client, tt.opts...)
			require.Error(t, err)
			assert.Nil(t, h)
			assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	h, err := New(&contract.TaskDescriptor{Image: "alpine"}, &mocks.MockRemoteClient{}, WithRetention(""))
	require.NoError(t, err)

	assert.Equal(t, StatusCreated, h.Status())
	assert.Equal(t, cleanup.RetentionOnSuccess, h.retention)
	_, ok := h.Key()
	assert.False(t, ok)
	_, ok = h.Outcome()
	assert.False(t, ok)
}

// =============================================================================
// Submit
// =============================================================================

func TestHandle_Submit(t *testing.T) {
	client := &mocks.MockRemoteClient{}
	d := newDescriptor(t, "0")
	client.On("Submit", mock.Anything, d).Return(testKey, nil).Once()

	h, err := New(d, client)
	require.NoError(t, err)
	require.NoError(t, h.Submit(context.Background()))

	key, ok := h.Key()
	require.True(t, ok)
	assert.Equal(t, testKey, key)
	assert.Equal(t, StatusSubmitted, h.Status())

	err = h.Submit(context.Background())
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))

	client.AssertExpectations(t)
}

func TestHandle_Submit_Failure(t *testing.T) {
	client := &mocks.MockRemoteClient{}
	rejected := apperrors.New(apperrors.ExecutionFailed, "image rejected")
	client.On("Submit", mock.Anything, mock.Anything).Return(contract.TaskKey{}, rejected).Once()

	h, err := New(newDescriptor(t, ""), client)
	require.NoError(t, err)

	err = h.Submit(context.Background())
	assert.ErrorIs(t, err, rejected)
	assert.Equal(t, StatusCreated, h.Status())
	_, ok := h.Key()
	assert.False(t, ok)
}

func TestHandle_Submit_WrapperBuilder(t *testing.T) {
	t.Run("재구성된 명세를 제출", func(t *testing.T) {
		d := newDescriptor(t, "")
		wrapped := *d
		wrapped.Command = "/bin/bash"
		wrapped.Args = []string{"-ue", ".command.run"}

		builder := &mocks.MockWrapperBuilder{}
		builder.On("Build", mock.Anything, d).Return(&wrapped, nil).Once()

		client := &mocks.MockRemoteClient{}
		client.On("Submit", mock.Anything, &wrapped).Return(testKey, nil).Once()

		h, err := New(d, client, WithWrapperBuilder(builder))
		require.NoError(t, err)
		require.NoError(t, h.Submit(context.Background()))

		builder.AssertExpectations(t)
		client.AssertExpectations(t)
	})

	t.Run("래퍼 생성 실패는 제출하지 않음", func(t *testing.T) {
		builder := &mocks.MockWrapperBuilder{}
		builder.On("Build", mock.Anything, mock.Anything).Return(nil, errors.New("template error")).Once()
		client := &mocks.MockRemoteClient{}

		h, err := New(newDescriptor(t, ""), client, WithWrapperBuilder(builder))
		require.NoError(t, err)

		err = h.Submit(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ExecutionFailed))
		client.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})
}

// =============================================================================
// Polling before submission
// =============================================================================

func TestHandle_PollingBeforeSubmit(t *testing.T) {
	client := &mocks.MockRemoteClient{}
	h, err := New(newDescriptor(t, "0"), client)
	require.NoError(t, err)

	assert.False(t, h.CheckIfRunning(context.Background()))
	assert.False(t, h.CheckIfCompleted(context.Background()))
	assert.False(t, h.RemoteFailed())
	assert.NoError(t, h.Kill(context.Background()))
	assert.Nil(t, h.MachineInfo(context.Background()))
	assert.Equal(t, StatusCreated, h.Status())

	client.AssertNotCalled(t, "FetchState", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "Terminate", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "FetchMachineInfo", mock.Anything, mock.Anything)
}

// =============================================================================
// Freshness window
// =============================================================================

func TestHandle_CacheHitWithinFreshnessWindow(t *testing.T) {
	clock := newFakeClock()
	client := &mocks.MockRemoteClient{}
	client.On("Submit", mock.Anything, mock.Anything).Return(testKey, nil)
	client.On("FetchState", mock.Anything, testKey).Return(contract.StateRunning, nil)

	h := submitted(t, client, newDescriptor(t, "0"), WithStatusCache(newTestCache(clock)))

	// [T, T+1000ms) 동안은 한 번만 조회
	for _, step := range []time.Duration{0, 300 * time.Millisecond, 300 * time.Millisecond, 399 * time.Millisecond} {
		clock.Advance(step)
		assert.True(t, h.CheckIfRunning(context.Background()))
		assert.False(t, h.CheckIfCompleted(context.Background()))
	}
	client.AssertNumberOfCalls(t, "FetchState", 1)

	// T+1000ms에 정확히 한 번 더 조회
	clock.Advance(time.Millisecond)
	assert.True(t, h.CheckIfRunning(context.Background()))
	assert.False(t, h.CheckIfCompleted(context.Background()))
	client.AssertNumberOfCalls(t, "FetchState", 2)

	assert.Equal(t, StatusRunning, h.Status())
}

func TestHandle_SharedCacheAcrossHandles(t *testing.T) {
	clock := newFakeClock()
	cache := newTestCache(clock)

	client := &mocks.MockRemoteClient{}
	client.On("Submit", mock.Anything, mock.Anything).Return(testKey, nil)
	client.On("FetchState", mock.Anything, testKey).Return(contract.StatePending, nil)

	h1 := submitted(t, client, newDescriptor(t, ""), WithStatusCache(cache))
	h2 := submitted(t, client, newDescriptor(t, ""), WithStatusCache(cache))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() { defer wg.Done(); h1.CheckIfRunning(context.Background()) }()
		go func() { defer wg.Done(); h2.CheckIfRunning(context.Background()) }()
	}
	wg.Wait()

	client.AssertNumberOfCalls(t, "FetchState", 1)
}

func TestHandle_DefaultCacheIsPerHandle(t *testing.T) {
	ctx := context.Background()

	// 두 스케줄러가 같은 식별자를 발급해도 서로의 관측값을 읽지 않아야 한다.
	finished := memory.New(contract.StateFinished)
	pending := memory.New(contract.StatePending)

	h1 := submitted(t, finished, newDescriptor(t, "0"))
	h2 := submitted(t, pending, newDescriptor(t, "0"))

	k1, _ := h1.Key()
	k2, _ := h2.Key()
	require.Equal(t, k1, k2)

	require.True(t, h1.CheckIfRunning(ctx))

	assert.False(t, h2.CheckIfCompleted(ctx))
	assert.Equal(t, StatusRunning, h2.Status())
	assert.Equal(t, 1, pending.Calls(memory.OpFetchState))
	assert.False(t, pending.Deleted(k2))
	_, done := h2.Outcome()
	assert.False(t, done)

	require.True(t, h1.CheckIfCompleted(ctx))
	assert.True(t, finished.Deleted(k1))
	assert.Zero(t, h1.cache.Len(), "완료된 핸들의 관측값은 캐시에서 지워져야 합니다")
	assert.Equal(t, 1, h2.cache.Len())
}

func TestHandle_Release(t *testing.T) {
	cache := statuscache.New()

	client := &mocks.MockRemoteClient{}
	client.On("Submit", mock.Anything, mock.Anything).Return(testKey, nil)
	client.On("FetchState", mock.Anything, testKey).Return(contract.StateFailed, nil)

	h := submitted(t, client, newDescriptor(t, ""), WithStatusCache(cache))
	assert.False(t, h.CheckIfRunning(context.Background()))
	assert.True(t, h.RemoteFailed())
	assert.Equal(t, 1, cache.Len())

	h.Release()
	assert.Zero(t, cache.Len())
	assert.True(t, h.RemoteFailed(), "캐시를 비워도 마지막으로 얻은 상태는 유지되어야 합니다")

	// 제출 전 핸들은 아무것도 하지 않는다.
	fresh, err := New(newDescriptor(t, ""), client)
	require.NoError(t, err)
	fresh.Release()
}

// =============================================================================
// Scenarios
// =============================================================================

func TestHandle_Scenario_PendingThenFinished(t *testing.T) {
	clock := newFakeClock()
	client := memory.New(contract.StatePending)
	d := newDescriptor(t, "0\n")

	h := submitted(t, client, d, WithStatusCache(newTestCache(clock)))
	key, _ := h.Key()

	assert.True(t, h.CheckIfRunning(context.Background()), "PENDING은 FAILED가 아니므로 실행 중")
	assert.False(t, h.CheckIfCompleted(context.Background()))
	assert.Equal(t, StatusRunning, h.Status())

	client.SetState(key, contract.StateFinished)
	clock.Advance(statuscache.DefaultFreshness)

	assert.True(t, h.CheckIfRunning(context.Background()))
	assert.True(t, h.CheckIfCompleted(context.Background()))
	assert.Equal(t, StatusCompleted, h.Status())

	outcome, ok := h.Outcome()
	require.True(t, ok)
	assert.Equal(t, 0, outcome.ExitCode)
	assert.NoError(t, outcome.Err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, d.StdoutFile, outcome.Stdout)
	assert.Equal(t, d.StderrFile, outcome.Stderr)

	assert.True(t, client.Deleted(key), "기본 보존 방식에서 성공한 작업은 삭제")
	assert.Equal(t, 1, client.Calls(memory.OpDelete))
}

func TestHandle_Scenario_ImmediateFailure(t *testing.T) {
	clock := newFakeClock()
	client := memory.New(contract.StateFailed)
	exit := &exitCounter{}

	h := submitted(t, client, newDescriptor(t, "0"), WithStatusCache(newTestCache(clock)), WithExitCodeReader(exit.read))

	assert.False(t, h.CheckIfRunning(context.Background()))
	assert.False(t, h.CheckIfCompleted(context.Background()))
	assert.True(t, h.RemoteFailed())

	assert.Equal(t, StatusSubmitted, h.Status())
	_, ok := h.Outcome()
	assert.False(t, ok)
	assert.Equal(t, int32(0), exit.calls.Load())
	assert.Equal(t, 0, client.Calls(memory.OpResult))
	assert.Equal(t, 0, client.Calls(memory.OpDelete))
}

func TestHandle_Scenario_MissingExitFile(t *testing.T) {
	clock := newFakeClock()
	client := memory.New(contract.StateFinished)

	h := submitted(t, client, newDescriptor(t, ""), WithStatusCache(newTestCache(clock)))
	key, _ := h.Key()

	require.True(t, h.CheckIfCompleted(context.Background()), "RUNNING을 거치지 않고도 완료를 감지")

	outcome, ok := h.Outcome()
	require.True(t, ok)
	assert.Equal(t, ExitCodeUnknown, outcome.ExitCode)
	assert.False(t, outcome.Succeeded())
	assert.False(t, client.Deleted(key), "실패한 작업은 기본 보존 방식에서 보존")
}

// =============================================================================
// Completion idempotence
// =============================================================================

func TestHandle_CheckIfCompleted_Idempotent(t *testing.T) {
	clock := newFakeClock()
	client := memory.New(contract.StateFinished)
	exit := &exitCounter{code: 0}

	h := submitted(t, client, newDescriptor(t, ""), WithStatusCache(newTestCache(clock)), WithExitCodeReader(exit.read))

	require.True(t, h.CheckIfCompleted(context.Background()))
	fetches := client.Calls(memory.OpFetchState)

	for i := 0; i < 5; i++ {
		clock.Advance(2 * statuscache.DefaultFreshness)
		assert.True(t, h.CheckIfCompleted(context.Background()))
		assert.True(t, h.CheckIfRunning(context.Background()))
	}

	assert.Equal(t, int32(1), exit.calls.Load())
	assert.Equal(t, 1, client.Calls(memory.OpDelete))
	assert.Equal(t, 1, client.Calls(memory.OpResult))
	assert.Equal(t, fetches, client.Calls(memory.OpFetchState), "완료 후에는 원격 상태를 조회하지 않음")
}

func TestHandle_CheckIfCompleted_ConcurrentCallers(t *testing.T) {
	client := memory.New(contract.StateFinished)
	exit := &exitCounter{code: 0}

	h := submitted(t, client, newDescriptor(t, ""), WithStatusCache(statuscache.New()), WithExitCodeReader(exit.read))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, h.CheckIfCompleted(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), exit.calls.Load())
	assert.Equal(t, 1, client.Calls(memory.OpDelete))
	assert.Equal(t, 1, client.Calls(memory.OpFetchState))
}

// =============================================================================
// Cleanup policy
// =============================================================================

func TestHandle_CleanupDecisionTable(t *testing.T) {
	tests := []struct {
		name        string
		mode        cleanup.RetentionMode
		exitCode    int
		wantDeletes int
	}{
		{"never + 성공", cleanup.RetentionNever, 0, 0},
		{"never + 실패", cleanup.RetentionNever, 1, 0},
		{"always + 성공", cleanup.RetentionAlways, 0, 1},
		{"always + 실패", cleanup.RetentionAlways, 1, 1},
		{"on-success + 성공", cleanup.RetentionOnSuccess, 0, 1},
		{"on-success + 실패", cleanup.RetentionOnSuccess, 1, 0},
		{"미설정 + 성공", "", 0, 1},
		{"미설정 + 실패", "", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := memory.New(contract.StateFinished)
			exit := &exitCounter{code: tt.exitCode}

			h := submitted(t, client, newDescriptor(t, ""),
				WithStatusCache(statuscache.New()),
				WithRetention(tt.mode),
				WithExitCodeReader(exit.read),
			)

			require.True(t, h.CheckIfCompleted(context.Background()))
			assert.Equal(t, tt.wantDeletes, client.Calls(memory.OpDelete))
		})
	}
}

func TestHandle_CleanupFailureDoesNotAlterOutcome(t *testing.T) {
	client := memory.New(contract.StateFinished)
	client.FailWith(memory.OpDelete, apperrors.New(apperrors.Unavailable, "scheduler down"))
	exit := &exitCounter{code: 0}

	h := submitted(t, client, newDescriptor(t, ""), WithStatusCache(statuscache.New()), WithExitCodeReader(exit.read))

	require.True(t, h.CheckIfCompleted(context.Background()))
	outcome, _ := h.Outcome()
	assert.True(t, outcome.Succeeded())
	assert.NoError(t, outcome.Err)
	assert.Equal(t, 1, client.Calls(memory.OpDelete))
}

// =============================================================================
// Execution result
// =============================================================================

func TestHandle_ExecutionFailureRecorded(t *testing.T) {
	client := memory.New(contract.StateFinished)
	exit := &exitCounter{code: 0}

	h := submitted(t, client, newDescriptor(t, ""), WithStatusCache(statuscache.New()), WithExitCodeReader(exit.read))
	key, _ := h.Key()
	client.SetResult(key, contract.ExecutionResult{ExitCode: 137, Failed: true, Message: "OOMKilled"})

	require.True(t, h.CheckIfCompleted(context.Background()))

	outcome, _ := h.Outcome()
	require.Error(t, outcome.Err)
	assert.True(t, apperrors.Is(outcome.Err, apperrors.ExecutionFailed))
	assert.Contains(t, outcome.Err.Error(), "OOMKilled")
	assert.Equal(t, 0, outcome.ExitCode, "종료 코드는 파일에서 읽은 값을 유지")
	assert.False(t, outcome.Succeeded())
	assert.Equal(t, 0, client.Calls(memory.OpDelete))
}

func TestHandle_ExecutionResultFetchErrorIsIgnored(t *testing.T) {
	client := memory.New(contract.StateFinished)
	client.FailWith(memory.OpResult, apperrors.New(apperrors.Unavailable, "timeout"))
	exit := &exitCounter{code: 0}

	h := submitted(t, client, newDescriptor(t, ""), WithStatusCache(statuscache.New()), WithExitCodeReader(exit.read))

	require.True(t, h.CheckIfCompleted(context.Background()))
	outcome, _ := h.Outcome()
	assert.NoError(t, outcome.Err)
	assert.True(t, outcome.Succeeded())
}

// =============================================================================
// Transient query errors
// =============================================================================

func TestHandle_TransientQueryError(t *testing.T) {
	t.Run("관측값이 없으면 실행 중이 아님", func(t *testing.T) {
		client := &mocks.MockRemoteClient{}
		client.On("Submit", mock.Anything, mock.Anything).Return(testKey, nil)
		client.On("FetchState", mock.Anything, testKey).Return(contract.RemoteState(""), apperrors.New(apperrors.Unavailable, "down"))

		h := submitted(t, client, newDescriptor(t, ""), WithStatusCache(newTestCache(newFakeClock())))
		assert.False(t, h.CheckIfRunning(context.Background()))
		assert.False(t, h.CheckIfCompleted(context.Background()))
		assert.Equal(t, StatusSubmitted, h.Status())
		client.AssertNumberOfCalls(t, "FetchState", 1)
	})

	t.Run("마지막 관측값을 유지", func(t *testing.T) {
		clock := newFakeClock()
		client := &mocks.MockRemoteClient{}
		client.On("Submit", mock.Anything, mock.Anything).Return(testKey, nil)
		client.On("FetchState", mock.Anything, testKey).Return(contract.StateRunning, nil).Once()
		client.On("FetchState", mock.Anything, testKey).Return(contract.RemoteState(""), apperrors.New(apperrors.Unavailable, "down"))

		h := submitted(t, client, newDescriptor(t, ""), WithStatusCache(newTestCache(clock)))
		require.True(t, h.CheckIfRunning(context.Background()))

		// 장애 중에도 유효 기간마다 한 번만 조회한다.
		clock.Advance(statuscache.DefaultFreshness)
		for i := 0; i < 5; i++ {
			assert.True(t, h.CheckIfRunning(context.Background()))
			assert.False(t, h.CheckIfCompleted(context.Background()))
			clock.Advance(100 * time.Millisecond)
		}
		client.AssertNumberOfCalls(t, "FetchState", 2)

		clock.Advance(statuscache.DefaultFreshness)
		assert.True(t, h.CheckIfRunning(context.Background()))
		client.AssertNumberOfCalls(t, "FetchState", 3)
	})
}

// =============================================================================
// Kill / MachineInfo / TraceRecord
// =============================================================================

func TestHandle_Kill(t *testing.T) {
	client := &mocks.MockRemoteClient{}
	client.On("Submit", mock.Anything, mock.Anything).Return(testKey, nil)
	client.On("Terminate", mock.Anything, testKey).Return(nil).Once()

	h := submitted(t, client, newDescriptor(t, ""))
	require.NoError(t, h.Kill(context.Background()))
	assert.Equal(t, StatusSubmitted, h.Status(), "Kill은 로컬 상태를 바꾸지 않음")

	client.On("Terminate", mock.Anything, testKey).Return(apperrors.New(apperrors.Unavailable, "down")).Once()
	assert.Error(t, h.Kill(context.Background()))
	client.AssertNumberOfCalls(t, "Terminate", 2)
}

func TestHandle_MachineInfo(t *testing.T) {
	info := &contract.MachineInfo{Hostname: "node-3", InstanceType: "m5.large", Zone: "us-east-1a", PriceModel: "standard"}

	client := &mocks.MockRemoteClient{}
	client.On("Submit", mock.Anything, mock.Anything).Return(testKey, nil)
	client.On("FetchMachineInfo", mock.Anything, testKey).Return(nil, apperrors.New(apperrors.Unavailable, "down")).Once()
	client.On("FetchMachineInfo", mock.Anything, testKey).Return(nil, nil).Once()
	client.On("FetchMachineInfo", mock.Anything, testKey).Return(info, nil).Once()

	h := submitted(t, client, newDescriptor(t, ""))

	assert.Nil(t, h.MachineInfo(context.Background()), "조회 실패는 알 수 없음")
	assert.Nil(t, h.MachineInfo(context.Background()), "배치 전은 알 수 없음")
	assert.Equal(t, info, h.MachineInfo(context.Background()))
	assert.Equal(t, info, h.MachineInfo(context.Background()))

	client.AssertNumberOfCalls(t, "FetchMachineInfo", 3)
}

func TestHandle_TraceRecord(t *testing.T) {
	info := &contract.MachineInfo{Hostname: "node-3"}

	client := &mocks.MockRemoteClient{}
	client.On("Submit", mock.Anything, mock.Anything).Return(testKey, nil)
	client.On("FetchMachineInfo", mock.Anything, testKey).Return(info, nil).Once()

	h, err := New(newDescriptor(t, ""), client)
	require.NoError(t, err)

	rec := h.TraceRecord(context.Background())
	assert.Equal(t, TraceRecord{Status: "CREATED"}, rec)

	require.NoError(t, h.Submit(context.Background()))
	rec = h.TraceRecord(context.Background())
	assert.Equal(t, "job-7/task-7", rec.NativeID)
	assert.Equal(t, "job-7", rec.JobID)
	assert.Equal(t, "task-7", rec.TaskID)
	assert.Equal(t, "SUBMITTED", rec.Status)
	assert.Equal(t, info, rec.Machine)
}

func TestHandle_ConcurrentKillDuringPoll(t *testing.T) {
	client := memory.New(contract.StatePending, contract.StateRunning, contract.StateFinished)
	h := submitted(t, client, newDescriptor(t, "0"),
		WithStatusCache(statuscache.New(statuscache.WithFreshness(time.Nanosecond))),
		WithRetention(cleanup.RetentionNever),
	)
	key, _ := h.Key()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50 && !h.CheckIfCompleted(context.Background()); i++ {
			h.CheckIfRunning(context.Background())
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 10; i++ {
			_ = h.Kill(context.Background())
			_ = h.TraceRecord(context.Background())
		}
	}()
	wg.Wait()

	assert.Equal(t, StatusCompleted, h.Status())
	assert.True(t, client.Terminated(key))
}
