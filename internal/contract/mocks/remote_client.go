package mocks

import (
	"context"

	"github.com/darkkaiser/remote-task/internal/contract"
	"github.com/stretchr/testify/mock"
)

// MockRemoteClient contract.RemoteClient 인터페이스의 Mock 구현체입니다.
type MockRemoteClient struct {
	mock.Mock
}

func (m *MockRemoteClient) Submit(ctx context.Context, d *contract.TaskDescriptor) (contract.TaskKey, error) {
	args := m.Called(ctx, d)
	return args.Get(0).(contract.TaskKey), args.Error(1)
}

func (m *MockRemoteClient) FetchState(ctx context.Context, key contract.TaskKey) (contract.RemoteState, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(contract.RemoteState), args.Error(1)
}

func (m *MockRemoteClient) FetchExecutionResult(ctx context.Context, key contract.TaskKey) (*contract.ExecutionResult, error) {
	args := m.Called(ctx, key)
	if r := args.Get(0); r != nil {
		return r.(*contract.ExecutionResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteClient) FetchMachineInfo(ctx context.Context, key contract.TaskKey) (*contract.MachineInfo, error) {
	args := m.Called(ctx, key)
	if r := args.Get(0); r != nil {
		return r.(*contract.MachineInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRemoteClient) Delete(ctx context.Context, key contract.TaskKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockRemoteClient) Terminate(ctx context.Context, key contract.TaskKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockWrapperBuilder contract.WrapperBuilder 인터페이스의 Mock 구현체입니다.
type MockWrapperBuilder struct {
	mock.Mock
}

func (m *MockWrapperBuilder) Build(ctx context.Context, d *contract.TaskDescriptor) (*contract.TaskDescriptor, error) {
	args := m.Called(ctx, d)
	if r := args.Get(0); r != nil {
		return r.(*contract.TaskDescriptor), args.Error(1)
	}
	return nil, args.Error(1)
}
