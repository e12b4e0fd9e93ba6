// Package memory 네트워크 없이 동작하는 contract.RemoteClient 구현을 제공합니다.
//
// 작업 상태 전이를 미리 정해 둘 수 있고 메서드별 호출 횟수를 기록하므로,
// 핸들과 모니터의 동작을 결정적으로 검증하거나 스케줄러 없이 명령을 시험 실행할 때 사용합니다.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/darkkaiser/remote-task/internal/contract"
	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
)

// Op 호출 횟수를 집계하는 원격 연산의 종류입니다.
type Op string

const (
	OpSubmit     Op = "submit"
	OpFetchState Op = "fetch_state"
	OpResult     Op = "fetch_result"
	OpMachine    Op = "fetch_machine"
	OpDelete     Op = "delete"
	OpTerminate  Op = "terminate"
)

type task struct {
	descriptor contract.TaskDescriptor

	// script FetchState가 차례로 반환할 상태. 마지막 값은 계속 반복된다.
	script []contract.RemoteState
	pos    int

	result     *contract.ExecutionResult
	machine    *contract.MachineInfo
	deleted    bool
	terminated bool
}

// Client 메모리 기반 스케줄러 클라이언트입니다. 모든 메서드는 동시 호출에 안전합니다.
type Client struct {
	mu sync.Mutex

	seq   int
	tasks map[contract.TaskKey]*task
	calls map[Op]int
	errs  map[Op]error

	initial []contract.RemoteState
}

var _ contract.RemoteClient = (*Client)(nil)

// New 새로운 Client를 생성합니다. initial은 새로 제출된 작업의 상태 전이 순서이며, 비어 있으면 PENDING입니다.
func New(initial ...contract.RemoteState) *Client {
	if len(initial) == 0 {
		initial = []contract.RemoteState{contract.StatePending}
	}

	return &Client{
		tasks:   make(map[contract.TaskKey]*task),
		calls:   make(map[Op]int),
		errs:    make(map[Op]error),
		initial: initial,
	}
}

// Script 작업의 상태 전이 순서를 교체합니다. FetchState 호출마다 한 단계씩 진행합니다.
func (c *Client) Script(key contract.TaskKey, states ...contract.RemoteState) {
	if len(states) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.tasks[key]; ok {
		t.script = append([]contract.RemoteState(nil), states...)
		t.pos = 0
	}
}

// SetState 작업의 상태를 고정합니다.
func (c *Client) SetState(key contract.TaskKey, state contract.RemoteState) {
	c.Script(key, state)
}

// SetResult 작업의 실행 결과를 지정합니다.
func (c *Client) SetResult(key contract.TaskKey, r contract.ExecutionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.tasks[key]; ok {
		t.result = &r
	}
}

// SetMachine 작업이 배치된 머신 정보를 지정합니다.
func (c *Client) SetMachine(key contract.TaskKey, m contract.MachineInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.tasks[key]; ok {
		t.machine = &m
	}
}

// FailWith 이후의 op 호출이 err을 반환하도록 합니다. nil을 전달하면 해제합니다.
func (c *Client) FailWith(op Op, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		delete(c.errs, op)
		return
	}
	c.errs[op] = err
}

// Calls op의 누적 호출 횟수를 반환합니다.
func (c *Client) Calls(op Op) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls[op]
}

// Deleted 작업이 삭제되었는지 반환합니다.
func (c *Client) Deleted(key contract.TaskKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tasks[key]
	return ok && t.deleted
}

// Terminated 작업에 취소 요청이 있었는지 반환합니다.
func (c *Client) Terminated(key contract.TaskKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tasks[key]
	return ok && t.terminated
}

// Descriptor 제출된 작업 명세를 반환합니다.
func (c *Client) Descriptor(key contract.TaskKey) (contract.TaskDescriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tasks[key]
	if !ok {
		return contract.TaskDescriptor{}, false
	}
	return t.descriptor, true
}

// begin 호출 횟수를 기록하고 주입된 에러를 반환합니다. 호출자는 c.mu를 보유해야 합니다.
func (c *Client) begin(ctx context.Context, op Op) error {
	c.calls[op]++

	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(err, apperrors.Unavailable, "요청이 취소되었습니다")
	}
	return c.errs[op]
}

func (c *Client) lookup(key contract.TaskKey) (*task, error) {
	t, ok := c.tasks[key]
	if !ok || t.deleted {
		return nil, apperrors.Newf(apperrors.NotFound, "작업을 찾을 수 없습니다 (task_key=%s)", key)
	}
	return t, nil
}

func (c *Client) Submit(ctx context.Context, d *contract.TaskDescriptor) (contract.TaskKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.begin(ctx, OpSubmit); err != nil {
		return contract.TaskKey{}, err
	}
	if d == nil || d.Image == "" {
		return contract.TaskKey{}, apperrors.New(apperrors.ExecutionFailed, "컨테이너 이미지가 없는 작업은 등록할 수 없습니다")
	}

	c.seq++
	key := contract.TaskKey{
		JobID:  fmt.Sprintf("job-%04d", c.seq),
		TaskID: fmt.Sprintf("task-%04d", c.seq),
	}
	c.tasks[key] = &task{
		descriptor: *d,
		script:     append([]contract.RemoteState(nil), c.initial...),
	}

	return key, nil
}

func (c *Client) FetchState(ctx context.Context, key contract.TaskKey) (contract.RemoteState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.begin(ctx, OpFetchState); err != nil {
		return "", err
	}
	t, err := c.lookup(key)
	if err != nil {
		return "", err
	}

	state := t.script[t.pos]
	if t.pos < len(t.script)-1 {
		t.pos++
	}
	return state, nil
}

func (c *Client) FetchExecutionResult(ctx context.Context, key contract.TaskKey) (*contract.ExecutionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.begin(ctx, OpResult); err != nil {
		return nil, err
	}
	t, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	if t.result == nil {
		return &contract.ExecutionResult{}, nil
	}

	r := *t.result
	return &r, nil
}

func (c *Client) FetchMachineInfo(ctx context.Context, key contract.TaskKey) (*contract.MachineInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.begin(ctx, OpMachine); err != nil {
		return nil, err
	}
	t, err := c.lookup(key)
	if err != nil || t.machine == nil {
		return nil, nil
	}

	m := *t.machine
	return &m, nil
}

func (c *Client) Delete(ctx context.Context, key contract.TaskKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.begin(ctx, OpDelete); err != nil {
		return err
	}
	if t, ok := c.tasks[key]; ok {
		t.deleted = true
	}
	return nil
}

func (c *Client) Terminate(ctx context.Context, key contract.TaskKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.begin(ctx, OpTerminate); err != nil {
		return err
	}
	t, err := c.lookup(key)
	if err != nil {
		return err
	}
	t.terminated = true
	return nil
}
