// Package task 원격 스케줄러에 제출한 작업 하나의 생명주기를 관리하는 Handle을 제공합니다.
//
// Handle은 스스로 고루틴이나 타이머를 만들지 않습니다. 외부 폴링 루프가 CheckIfRunning과
// CheckIfCompleted를 반복 호출하며, 모든 상태 전이는 그 호출 안에서 일어납니다.
package task

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/darkkaiser/remote-task/internal/contract"
	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
	"github.com/darkkaiser/remote-task/internal/task/cleanup"
	"github.com/darkkaiser/remote-task/internal/task/statuscache"
	applog "github.com/darkkaiser/remote-task/pkg/log"
)

// component 작업 핸들의 로깅용 컴포넌트 이름
const component = "task.handle"

// Handle 원격 작업 하나의 생명주기(CREATED → SUBMITTED → RUNNING → COMPLETED)를 관리합니다.
type Handle struct {
	descriptor *contract.TaskDescriptor
	client     contract.RemoteClient
	wrapper    contract.WrapperBuilder
	cache      *statuscache.Cache
	retention  cleanup.RetentionMode
	exitReader func(path string) int

	// phase 현재 상태 스냅샷. 쓰기는 transitionMu 아래에서만 일어난다.
	phase        atomic.Pointer[phase]
	transitionMu sync.Mutex

	submitMu   sync.Mutex
	completeMu sync.Mutex

	machine   atomic.Pointer[contract.MachineInfo]
	machineMu sync.Mutex

	// remoteFailed 이 핸들이 마지막으로 얻은 원격 상태가 FAILED인지 여부
	remoteFailed atomic.Bool
}

// Option Handle 생성 옵션입니다.
type Option func(*Handle)

// WithRetention 완료된 원격 Job의 보존 방식을 지정합니다. 기본값은 RetentionOnSuccess입니다.
func WithRetention(mode cleanup.RetentionMode) Option {
	return func(h *Handle) {
		h.retention = mode
	}
}

// WithStatusCache 상태 캐시를 지정합니다. 지정하지 않으면 핸들마다 자신만의 캐시를 사용합니다.
// 여러 핸들이 캐시를 공유하려면 같은 스케줄러의 핸들끼리만 공유해야 합니다. TaskKey는 스케줄러마다 따로 발급됩니다.
func WithStatusCache(c *statuscache.Cache) Option {
	return func(h *Handle) {
		if c != nil {
			h.cache = c
		}
	}
}

// WithWrapperBuilder 제출 직전에 작업 명세를 재구성할 WrapperBuilder를 지정합니다.
func WithWrapperBuilder(b contract.WrapperBuilder) Option {
	return func(h *Handle) {
		h.wrapper = b
	}
}

// WithExitCodeReader 종료 코드 파일을 읽는 함수를 교체합니다.
func WithExitCodeReader(fn func(path string) int) Option {
	return func(h *Handle) {
		if fn != nil {
			h.exitReader = fn
		}
	}
}

// New 작업 명세와 스케줄러 클라이언트로 새로운 Handle을 생성합니다.
// 명세나 보존 방식이 올바르지 않으면 InvalidInput 에러를 반환합니다.
func New(d *contract.TaskDescriptor, client contract.RemoteClient, opts ...Option) (*Handle, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, ErrClientRequired
	}

	h := &Handle{
		descriptor: d,
		client:     client,
		cache:      statuscache.New(),
		retention:  cleanup.RetentionOnSuccess,
		exitReader: ReadExitFile,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	mode, err := cleanup.ParseRetentionMode(string(h.retention))
	if err != nil {
		return nil, err
	}
	h.retention = mode

	h.phase.Store(&phase{status: StatusCreated})

	return h, nil
}

// Status 현재 로컬 상태를 반환합니다.
func (h *Handle) Status() Status {
	return h.phase.Load().status
}

// Key 제출된 작업의 식별자를 반환합니다. 제출 전이면 false입니다.
func (h *Handle) Key() (contract.TaskKey, bool) {
	p := h.phase.Load()
	return p.key, p.hasKey()
}

// Outcome 완료된 작업의 실행 결과를 반환합니다. 완료 전이면 false입니다.
func (h *Handle) Outcome() (*Outcome, bool) {
	p := h.phase.Load()
	return p.outcome, p.status == StatusCompleted
}

// Descriptor 핸들에 바인딩된 작업 명세를 반환합니다.
func (h *Handle) Descriptor() *contract.TaskDescriptor {
	return h.descriptor
}

// advance 상태를 next로 교체합니다. next가 현재보다 앞선 상태가 아니면 무시하고 false를 반환합니다.
func (h *Handle) advance(next func(cur *phase) *phase, to Status) bool {
	h.transitionMu.Lock()
	defer h.transitionMu.Unlock()

	cur := h.phase.Load()
	if cur.status >= to {
		return false
	}

	h.phase.Store(next(cur))
	return true
}

// Submit 작업을 스케줄러에 제출하고 SUBMITTED 상태로 전이합니다.
//
// WrapperBuilder가 지정되어 있으면 그 결과를 제출합니다. 제출 실패는 재시도하지 않고 그대로 반환하며,
// 이미 제출된 핸들에 다시 호출하면 ErrAlreadySubmitted를 반환합니다.
func (h *Handle) Submit(ctx context.Context) error {
	h.submitMu.Lock()
	defer h.submitMu.Unlock()

	if h.phase.Load().status != StatusCreated {
		return ErrAlreadySubmitted
	}

	d := h.descriptor
	if h.wrapper != nil {
		wrapped, err := h.wrapper.Build(ctx, d)
		if err != nil {
			return newErrWrapperFailed(err)
		}
		if wrapped != nil {
			d = wrapped
		}
	}

	key, err := h.client.Submit(ctx, d)
	if err != nil {
		applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
			"name":  d.Name,
			"image": d.Image,
			"error": err,
		}).Error("작업 등록 실패")

		return err
	}

	h.advance(func(cur *phase) *phase {
		return &phase{status: StatusSubmitted, key: key, submitted: d}
	}, StatusSubmitted)

	applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
		"name":     d.Name,
		"task_key": key.String(),
	}).Info("작업 제출 완료")

	return nil
}

// CheckIfRunning 작업이 실행 중으로 간주되는지 반환합니다.
//
// 원격 상태가 FAILED가 아니면 대기 중이거나 이미 끝난 작업도 실행 중으로 봅니다. 호출자는 이 값이 true일 때
// 곧바로 CheckIfCompleted를 호출하여 정확한 종료 여부를 확인합니다. 제출 전이거나 원격 상태를 한 번도
// 관측하지 못했다면 false입니다. 완료된 핸들은 원격 상태를 다시 조회하지 않습니다.
func (h *Handle) CheckIfRunning(ctx context.Context) bool {
	p := h.phase.Load()
	if !p.hasKey() {
		return false
	}
	if p.status == StatusCompleted {
		return true
	}

	state, ok := h.resolveState(ctx, p.key)
	if !ok {
		return false
	}

	running := state != contract.StateFailed
	if running {
		h.markRunning()
	}
	return running
}

// CheckIfCompleted 작업이 정상 종료되었는지 반환합니다.
//
// 원격 상태가 FINISHED_AT이면 종료 코드와 실행 결과를 수집해 COMPLETED로 전이한 뒤 정리 정책을 적용합니다.
// 이 처리는 핸들당 한 번만 수행되며, 이후의 호출은 원격 조회 없이 true를 반환합니다.
func (h *Handle) CheckIfCompleted(ctx context.Context) bool {
	p := h.phase.Load()
	if p.status == StatusCompleted {
		return true
	}
	if !p.hasKey() {
		return false
	}

	state, ok := h.resolveState(ctx, p.key)
	if !ok || state == contract.StateFailed {
		return false
	}
	h.markRunning()

	if state != contract.StateFinished {
		return false
	}

	h.completeMu.Lock()
	defer h.completeMu.Unlock()

	if h.phase.Load().status == StatusCompleted {
		return true
	}

	outcome := h.collectOutcome(ctx, p)

	h.advance(func(cur *phase) *phase {
		next := cur.with(StatusCompleted)
		next.outcome = outcome
		return next
	}, StatusCompleted)

	// 완료 후에는 원격 상태를 다시 조회하지 않으므로 관측값을 들고 있을 이유가 없다.
	h.cache.Forget(p.key)

	applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
		"task_key":  p.key.String(),
		"exit_code": outcome.ExitCode,
		"succeeded": outcome.Succeeded(),
	}).Info("작업 완료")

	h.applyCleanup(ctx, p.key, outcome)

	return true
}

// RemoteFailed 이 핸들이 마지막으로 얻은 원격 상태가 FAILED인지 반환합니다. 원격 조회는 하지 않습니다.
func (h *Handle) RemoteFailed() bool {
	return h.remoteFailed.Load()
}

// Release 더 이상 폴링하지 않을 핸들의 관측값을 상태 캐시에서 지웁니다.
// COMPLETED로 전이할 때는 자동으로 호출되며, FAILED로 보고된 핸들을 버릴 때 호출자가 부릅니다.
func (h *Handle) Release() {
	if p := h.phase.Load(); p.hasKey() {
		h.cache.Forget(p.key)
	}
}

// Kill 스케줄러에 작업 취소를 요청합니다. 제출 전이면 아무것도 하지 않습니다.
// 로컬 상태는 바꾸지 않으며, 취소 결과는 이후의 폴링에서 관측됩니다.
func (h *Handle) Kill(ctx context.Context) error {
	p := h.phase.Load()
	if !p.hasKey() {
		return nil
	}

	if err := h.client.Terminate(ctx, p.key); err != nil {
		applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
			"task_key": p.key.String(),
			"error":    err,
		}).Warn("작업 취소 요청 실패")

		return err
	}
	return nil
}

// MachineInfo 작업이 배치된 머신 정보를 반환합니다. 알 수 없으면 nil입니다.
// 한 번 조회에 성공하면 이후에는 다시 조회하지 않습니다.
func (h *Handle) MachineInfo(ctx context.Context) *contract.MachineInfo {
	if m := h.machine.Load(); m != nil {
		return m
	}

	p := h.phase.Load()
	if !p.hasKey() {
		return nil
	}

	h.machineMu.Lock()
	defer h.machineMu.Unlock()

	if m := h.machine.Load(); m != nil {
		return m
	}

	m, err := h.client.FetchMachineInfo(ctx, p.key)
	if err != nil {
		applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
			"task_key": p.key.String(),
			"error":    err,
		}).Trace("머신 정보 조회 실패")

		return nil
	}
	if m != nil {
		h.machine.Store(m)
	}
	return m
}

// resolveState 상태 캐시를 통해 원격 상태를 얻습니다.
// 조회에 실패하면 마지막 관측값을 사용하고, 관측값이 전혀 없으면 false를 반환합니다.
func (h *Handle) resolveState(ctx context.Context, key contract.TaskKey) (contract.RemoteState, bool) {
	state, ok, err := h.cache.Resolve(ctx, key, func(ctx context.Context) (contract.RemoteState, error) {
		return h.client.FetchState(ctx, key)
	})
	if err != nil {
		entry := applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
			"task_key":   key.String(),
			"stale":      ok,
			"last_state": state.String(),
			"error":      err,
			"root_cause": apperrors.RootCause(err).Error(),
		})

		// 일시적인 통신 장애가 아니면 스케줄러 응답 형식이나 권한 문제일 가능성이 높다.
		if apperrors.IsTransient(err) {
			entry.Warn("원격 상태 조회 실패: 마지막 관측값을 사용합니다")
		} else {
			entry.Error("원격 상태 조회 실패: 마지막 관측값을 사용합니다")
		}
	}
	if ok {
		h.remoteFailed.Store(state == contract.StateFailed)
	}
	return state, ok
}

func (h *Handle) markRunning() {
	h.advance(func(cur *phase) *phase {
		return cur.with(StatusRunning)
	}, StatusRunning)
}

// collectOutcome 종료 코드 파일과 원격 실행 결과로 Outcome을 만듭니다.
func (h *Handle) collectOutcome(ctx context.Context, p *phase) *Outcome {
	d := p.submitted
	if d == nil {
		d = h.descriptor
	}

	outcome := &Outcome{
		ExitCode: h.exitReader(d.ExitFile),
		Stdout:   d.StdoutFile,
		Stderr:   d.StderrFile,
	}

	result, err := h.client.FetchExecutionResult(ctx, p.key)
	if err != nil {
		applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
			"task_key": p.key.String(),
			"error":    err,
		}).Warn("실행 결과 조회 실패: 종료 코드만으로 결과를 판단합니다")

		return outcome
	}
	if result != nil && result.Failed {
		outcome.Err = newErrExecutionFailed(result.Message)
	}

	return outcome
}

// applyCleanup 보존 정책에 따라 원격 Job을 삭제합니다. 삭제 실패는 기록만 하고 결과에 영향을 주지 않습니다.
func (h *Handle) applyCleanup(ctx context.Context, key contract.TaskKey, outcome *Outcome) {
	action := cleanup.Decide(h.retention, outcome.Succeeded())

	fields := applog.Fields{
		"task_key":  key.String(),
		"retention": string(h.retention),
		"action":    action.String(),
	}

	if action != cleanup.Delete {
		applog.WithComponent(component).WithContext(ctx).WithFields(fields).Debug("원격 Job 보존")
		return
	}

	if err := h.client.Delete(ctx, key); err != nil {
		fields["error"] = newErrCleanupFailed(err)
		applog.WithComponent(component).WithContext(ctx).WithFields(fields).Warn("원격 Job 삭제 실패")
		return
	}

	applog.WithComponent(component).WithContext(ctx).WithFields(fields).Debug("원격 Job 삭제 완료")
}
