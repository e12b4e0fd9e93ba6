// Package monitor 여러 작업 핸들을 Cron 주기로 폴링하여 시작/완료/실패를 감지하는 모니터를 제공합니다.
package monitor

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
	"github.com/darkkaiser/remote-task/internal/task"
	"github.com/darkkaiser/remote-task/pkg/cronx"
	applog "github.com/darkkaiser/remote-task/pkg/log"
	"github.com/robfig/cron/v3"
)

// component 모니터의 로깅용 컴포넌트 이름
const component = "monitor"

// pollTimeout 폴링 1회(모든 핸들 순회)의 최대 소요 시간
const pollTimeout = 30 * time.Second

// Listener 모니터가 감지한 작업 이벤트를 전달받습니다. 콜백은 폴링 고루틴에서 호출됩니다.
type Listener interface {
	// OnStarted 작업이 처음으로 실행 중으로 관측되었을 때 호출됩니다.
	OnStarted(h *task.Handle)

	// OnCompleted 작업이 완료되었을 때 호출됩니다. 이후 핸들은 모니터에서 제거됩니다.
	OnCompleted(h *task.Handle, outcome *task.Outcome)

	// OnFailed 스케줄러가 작업을 FAILED로 보고했을 때 호출됩니다. 이후 핸들은 모니터에서 제거됩니다.
	OnFailed(h *task.Handle)
}

// ListenerFuncs 함수 필드로 Listener를 구성합니다. nil 필드는 무시됩니다.
type ListenerFuncs struct {
	Started   func(h *task.Handle)
	Completed func(h *task.Handle, outcome *task.Outcome)
	Failed    func(h *task.Handle)
}

func (l ListenerFuncs) OnStarted(h *task.Handle) {
	if l.Started != nil {
		l.Started(h)
	}
}

func (l ListenerFuncs) OnCompleted(h *task.Handle, outcome *task.Outcome) {
	if l.Completed != nil {
		l.Completed(h, outcome)
	}
}

func (l ListenerFuncs) OnFailed(h *task.Handle) {
	if l.Failed != nil {
		l.Failed(h)
	}
}

type entry struct {
	handle  *task.Handle
	started bool
}

// Monitor 등록된 작업 핸들을 주기적으로 폴링합니다.
//
// 핸들은 스스로 폴링하지 않으므로 모니터가 CheckIfRunning으로 실행 여부를 확인한 뒤, 실행 중이면
// 곧바로 CheckIfCompleted를 호출합니다. 완료되거나 FAILED로 보고된 핸들은 목록에서 제거합니다.
type Monitor struct {
	spec     string
	listener Listener

	mu      sync.Mutex
	entries []*entry

	// pollMu 수동 Poll과 Cron 실행이 겹치지 않도록 폴링을 직렬화한다.
	pollMu sync.Mutex

	cron      *cron.Cron
	running   bool
	runningMu sync.Mutex
}

// New 새로운 Monitor를 생성합니다. spec은 폴링 주기를 나타내는 Cron 표현식입니다.
func New(spec string, l Listener) (*Monitor, error) {
	if err := cronx.Validate(spec); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, "폴링 주기 설정이 올바르지 않습니다")
	}
	if l == nil {
		l = ListenerFuncs{}
	}

	return &Monitor{
		spec:     spec,
		listener: l,
	}, nil
}

// Add 폴링 대상 핸들을 등록합니다. 같은 핸들을 두 번 등록해도 한 번만 폴링합니다.
func (m *Monitor) Add(h *task.Handle) {
	if h == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.entries {
		if e.handle == h {
			return
		}
	}
	m.entries = append(m.entries, &entry{handle: h})
}

// Len 폴링 중인 핸들 개수를 반환합니다.
func (m *Monitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

// Poll 등록된 모든 핸들을 한 번씩 폴링합니다.
func (m *Monitor) Poll(ctx context.Context) {
	m.pollMu.Lock()
	defer m.pollMu.Unlock()

	m.mu.Lock()
	snapshot := make([]*entry, len(m.entries))
	copy(snapshot, m.entries)
	m.mu.Unlock()

	for _, e := range snapshot {
		if ctx.Err() != nil {
			return
		}
		m.pollOne(ctx, e)
	}
}

func (m *Monitor) pollOne(ctx context.Context, e *entry) {
	h := e.handle

	if !h.CheckIfRunning(ctx) {
		if h.RemoteFailed() {
			m.remove(e)
			h.Release()

			key, _ := h.Key()
			applog.WithComponent(component).WithFields(applog.Fields{
				"task_key": key.String(),
				"name":     h.Descriptor().Name,
			}).Warn("스케줄러가 작업을 실패로 보고했습니다")

			m.listener.OnFailed(h)
		}
		return
	}

	if !e.started {
		e.started = true
		m.listener.OnStarted(h)
	}

	if !h.CheckIfCompleted(ctx) {
		return
	}

	m.remove(e)

	outcome, _ := h.Outcome()
	m.listener.OnCompleted(h, outcome)
}

func (m *Monitor) remove(target *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.entries {
		if e == target {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return
		}
	}
}

// Start Cron 엔진을 시작하여 주기적으로 Poll을 실행합니다.
//
// stopCtx가 취소되면 Stop을 호출하고 stopWG.Done()으로 종료를 알립니다.
func (m *Monitor) Start(stopCtx context.Context, stopWG *sync.WaitGroup) error {
	m.runningMu.Lock()
	defer m.runningMu.Unlock()

	if m.running {
		stopWG.Done()
		applog.WithComponent(component).Warn("모니터가 이미 실행 중입니다 (중복 호출)")
		return nil
	}

	// SkipIfStillRunning: 폴링이 주기보다 오래 걸리면 다음 실행을 건너뛴다.
	m.cron = cron.New(
		cron.WithParser(cronx.StandardParser()),
		cron.WithLogger(cron.VerbosePrintfLogger(applog.StandardLogger())),
		cron.WithChain(
			cron.Recover(cron.VerbosePrintfLogger(applog.StandardLogger())),
			cron.SkipIfStillRunning(cron.VerbosePrintfLogger(applog.StandardLogger())),
		),
	)

	if _, err := m.cron.AddFunc(m.spec, func() {
		// 폴링은 Stop이 완료를 기다리므로 종료 신호와 분리된 컨텍스트를 사용한다.
		ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
		defer cancel()

		m.Poll(ctx)
	}); err != nil {
		m.cron = nil
		stopWG.Done()
		return apperrors.Wrapf(err, apperrors.InvalidInput, "폴링 스케줄 등록에 실패했습니다 (spec=%s)", m.spec)
	}

	m.cron.Start()
	m.running = true

	applog.WithComponentAndFields(component, applog.Fields{
		"spec":    m.spec,
		"handles": m.Len(),
	}).Info("모니터 시작")

	go func() {
		defer stopWG.Done()

		<-stopCtx.Done()

		m.Stop()
	}()

	return nil
}

// Stop Cron 엔진을 중지하고 진행 중인 폴링이 끝날 때까지 기다립니다.
func (m *Monitor) Stop() {
	m.runningMu.Lock()
	defer m.runningMu.Unlock()

	if !m.running {
		return
	}

	if m.cron != nil {
		ctx := m.cron.Stop()
		<-ctx.Done()
	}

	m.cron = nil
	m.running = false

	applog.WithComponent(component).Info("모니터 종료")
}
