package memory

import (
	"context"
	"testing"

	"github.com/darkkaiser/remote-task/internal/contract"
	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submit(t *testing.T, c *Client) contract.TaskKey {
	t.Helper()

	key, err := c.Submit(context.Background(), &contract.TaskDescriptor{Image: "alpine"})
	require.NoError(t, err)
	return key
}

func TestClient_Submit(t *testing.T) {
	c := New()

	k1 := submit(t, c)
	k2 := submit(t, c)
	assert.Equal(t, contract.TaskKey{JobID: "job-0001", TaskID: "task-0001"}, k1)
	assert.NotEqual(t, k1, k2)
	assert.Equal(t, 2, c.Calls(OpSubmit))

	d, ok := c.Descriptor(k1)
	require.True(t, ok)
	assert.Equal(t, "alpine", d.Image)

	_, err := c.Submit(context.Background(), &contract.TaskDescriptor{})
	assert.True(t, apperrors.Is(err, apperrors.ExecutionFailed))
}

func TestClient_ScriptedStates(t *testing.T) {
	c := New(contract.StatePending, contract.StateRunning, contract.StateFinished)
	key := submit(t, c)

	var got []contract.RemoteState
	for i := 0; i < 5; i++ {
		s, err := c.FetchState(context.Background(), key)
		require.NoError(t, err)
		got = append(got, s)
	}

	assert.Equal(t, []contract.RemoteState{
		contract.StatePending, contract.StateRunning, contract.StateFinished, contract.StateFinished, contract.StateFinished,
	}, got)
	assert.Equal(t, 5, c.Calls(OpFetchState))

	c.SetState(key, contract.StateFailed)
	s, _ := c.FetchState(context.Background(), key)
	assert.Equal(t, contract.StateFailed, s)
}

func TestClient_FailWith(t *testing.T) {
	c := New()
	key := submit(t, c)

	injected := apperrors.New(apperrors.Unavailable, "down")
	c.FailWith(OpFetchState, injected)
	_, err := c.FetchState(context.Background(), key)
	assert.ErrorIs(t, err, injected)

	c.FailWith(OpFetchState, nil)
	_, err = c.FetchState(context.Background(), key)
	assert.NoError(t, err)
}

func TestClient_ResultMachineDeleteTerminate(t *testing.T) {
	c := New()
	key := submit(t, c)

	r, err := c.FetchExecutionResult(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, &contract.ExecutionResult{}, r)

	c.SetResult(key, contract.ExecutionResult{ExitCode: 3, Failed: true, Message: "boom"})
	r, _ = c.FetchExecutionResult(context.Background(), key)
	assert.Equal(t, "boom", r.Message)

	m, err := c.FetchMachineInfo(context.Background(), key)
	require.NoError(t, err)
	assert.Nil(t, m)

	c.SetMachine(key, contract.MachineInfo{Hostname: "node-1"})
	m, _ = c.FetchMachineInfo(context.Background(), key)
	require.NotNil(t, m)
	assert.Equal(t, "node-1", m.Hostname)

	require.NoError(t, c.Terminate(context.Background(), key))
	assert.True(t, c.Terminated(key))

	require.NoError(t, c.Delete(context.Background(), key))
	require.NoError(t, c.Delete(context.Background(), key))
	assert.True(t, c.Deleted(key))
	assert.Equal(t, 2, c.Calls(OpDelete))

	_, err = c.FetchState(context.Background(), key)
	assert.True(t, apperrors.Is(err, apperrors.NotFound))
}

func TestClient_CanceledContext(t *testing.T) {
	c := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Submit(ctx, &contract.TaskDescriptor{Image: "alpine"})
	assert.True(t, apperrors.Is(err, apperrors.Unavailable))
	assert.Equal(t, 1, c.Calls(OpSubmit))
}
