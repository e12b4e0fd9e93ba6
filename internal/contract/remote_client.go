package contract

import (
	"context"
)

// RemoteClient 원격 클러스터 스케줄러 API를 추상화합니다.
//
// 모든 메서드는 호출자를 블로킹하며 내부적으로 재시도하지 않습니다.
// 재시도와 백오프는 전송 계층의 책임입니다.
type RemoteClient interface {
	// Submit 작업을 제출하고 스케줄러가 발급한 식별자를 반환합니다.
	// 거부된 경우 ExecutionFailed, 전송 실패는 Unavailable 타입의 에러를 반환합니다.
	Submit(ctx context.Context, d *TaskDescriptor) (TaskKey, error)

	// FetchState 작업의 현재 원격 상태를 조회합니다.
	FetchState(ctx context.Context, key TaskKey) (RemoteState, error)

	// FetchExecutionResult 종료된 작업의 실행 결과를 조회합니다.
	FetchExecutionResult(ctx context.Context, key TaskKey) (*ExecutionResult, error)

	// FetchMachineInfo 작업이 배치된 머신 정보를 조회합니다.
	// 아직 배치되지 않았거나 정보를 제공하지 않으면 (nil, nil)을 반환합니다.
	FetchMachineInfo(ctx context.Context, key TaskKey) (*MachineInfo, error)

	// Delete 작업이 속한 Job을 삭제합니다. 이미 삭제된 Job에 대해서도 성공합니다.
	Delete(ctx context.Context, key TaskKey) error

	// Terminate 실행 중인 작업의 취소를 요청합니다. 실제 종료는 비동기로 진행됩니다.
	Terminate(ctx context.Context, key TaskKey) error
}

// WrapperBuilder 제출 직전에 작업 명세를 실행 래퍼(wrapper) 기준으로 재구성합니다.
type WrapperBuilder interface {
	Build(ctx context.Context, d *TaskDescriptor) (*TaskDescriptor, error)
}

// ExecutionResult 스케줄러가 기록한 작업의 실행 결과입니다.
type ExecutionResult struct {
	ExitCode int    `json:"exit_code"`
	Failed   bool   `json:"failed"`
	Message  string `json:"message,omitempty"`
}

// MachineInfo 작업이 실행된 머신 정보입니다.
type MachineInfo struct {
	Hostname     string `json:"hostname,omitempty"`
	InstanceType string `json:"instance_type,omitempty"`
	Zone         string `json:"zone,omitempty"`
	PriceModel   string `json:"price_model,omitempty"`
}
