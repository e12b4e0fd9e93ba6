package main

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/darkkaiser/remote-task/internal/config"
	"github.com/darkkaiser/remote-task/internal/contract"
	"github.com/darkkaiser/remote-task/internal/monitor"
	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
	"github.com/darkkaiser/remote-task/internal/pkg/version"
	"github.com/darkkaiser/remote-task/internal/scheduler"
	"github.com/darkkaiser/remote-task/internal/scheduler/fetcher"
	"github.com/darkkaiser/remote-task/internal/scheduler/memory"
	"github.com/darkkaiser/remote-task/internal/task"
	applog "github.com/darkkaiser/remote-task/pkg/log"
)

// component 메인 진입점의 로깅용 컴포넌트 이름
const component = "main"

// shutdownTimeout 종료 신호를 받은 뒤 작업 종료 요청과 추적 기록 조회에 허용하는 시간
const shutdownTimeout = 10 * time.Second

type runOptions struct {
	configFile     string
	descriptorFile string
	logDir         string
	dryRun         bool
}

// run 설정을 로드하고 작업을 제출한 뒤, 완료되거나 ctx가 취소될 때까지 추적합니다.
// 제출 이후에는 결과와 무관하게 추적 기록을 out에 기록합니다.
func run(ctx context.Context, opts runOptions, out io.Writer) error {
	// 1. 환경설정 로드 (로그 설정에 필요하므로 가장 먼저 수행한다)
	appConfig, err := config.LoadWithFile(opts.configFile)
	if err != nil {
		return err
	}

	// 2. 로그 시스템 초기화
	var logOpts applog.Options
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentOptions(config.AppName)
	} else {
		logOpts = applog.NewProductionOptions(config.AppName)
	}
	logOpts.Dir = opts.logDir

	logCloser, err := applog.Setup(logOpts)
	if err != nil {
		return apperrors.Wrap(err, apperrors.System, "로그 시스템 초기화에 실패했습니다")
	}
	defer logCloser.Close()

	// 3. 로그 레벨 최종 확정
	applog.SetDebugMode(appConfig.Debug)

	fields := version.Get().Fields()
	fields["dry_run"] = opts.dryRun
	applog.WithComponentAndFields(component, fields).Info("remote-task 시작")

	for _, w := range appConfig.VerifyRecommendations() {
		applog.WithComponent(component).Warn(w)
	}

	// 4. 작업 명세 로드 및 핸들 생성
	d, err := loadDescriptor(opts.descriptorFile)
	if err != nil {
		return err
	}

	client, err := newRemoteClient(appConfig, opts.dryRun)
	if err != nil {
		return err
	}

	handleOpts := []task.Option{task.WithRetention(appConfig.Cleanup.RetentionMode())}
	if opts.dryRun {
		// 시험 실행에서는 종료 코드 파일이 만들어지지 않는다.
		handleOpts = append(handleOpts, task.WithExitCodeReader(func(string) int { return 0 }))
	}

	h, err := task.New(d, client, handleOpts...)
	if err != nil {
		return err
	}

	// 5. 제출 및 추적
	if err := h.Submit(ctx); err != nil {
		return err
	}

	outcome, trackErr := track(ctx, appConfig.Monitor.PollSpec, h)

	traceCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := writeTrace(out, h.TraceRecord(traceCtx)); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{"error": err}).Error("추적 기록 출력 실패")
	}

	if trackErr != nil {
		return trackErr
	}
	return exitCodeOf(outcome)
}

// newRemoteClient 설정에 맞는 스케줄러 클라이언트를 생성합니다.
func newRemoteClient(appConfig *config.AppConfig, dryRun bool) (contract.RemoteClient, error) {
	if dryRun {
		return memory.New(contract.StatePending, contract.StateRunning, contract.StateFinished), nil
	}

	return scheduler.NewClient(scheduler.Config{
		Endpoint:          appConfig.Scheduler.Endpoint,
		RequestsPerSecond: appConfig.Scheduler.RequestsPerSecond,
		Burst:             appConfig.Scheduler.Burst,
		Transport: fetcher.Config{
			Timeout:       appConfig.Scheduler.RequestTimeout,
			MaxRetries:    appConfig.HTTPRetry.MaxRetries,
			MinRetryDelay: appConfig.HTTPRetry.MinRetryDelay,
			MaxRetryDelay: appConfig.HTTPRetry.MaxRetryDelay,
		},
	})
}

type trackResult struct {
	outcome *task.Outcome
	failed  bool
}

// track 모니터를 시작하여 핸들이 완료되거나 FAILED로 보고될 때까지 기다립니다.
// ctx가 먼저 취소되면 원격 작업에 종료를 요청합니다.
func track(ctx context.Context, spec string, h *task.Handle) (*task.Outcome, error) {
	done := make(chan trackResult, 1)

	m, err := monitor.New(spec, monitor.ListenerFuncs{
		Started: func(h *task.Handle) {
			key, _ := h.Key()
			applog.WithComponentAndFields(component, applog.Fields{
				"task_key": key.String(),
			}).Info("작업 실행 확인")
		},
		Completed: func(_ *task.Handle, outcome *task.Outcome) {
			done <- trackResult{outcome: outcome}
		},
		Failed: func(_ *task.Handle) {
			done <- trackResult{failed: true}
		},
	})
	if err != nil {
		return nil, err
	}
	m.Add(h)

	stopCtx, cancel := context.WithCancel(context.Background())
	stopWG := &sync.WaitGroup{}

	stopWG.Add(1)
	if err := m.Start(stopCtx, stopWG); err != nil {
		cancel()
		return nil, err
	}
	defer func() {
		cancel()
		stopWG.Wait()
	}()

	select {
	case r := <-done:
		if r.failed {
			return nil, apperrors.New(apperrors.ExecutionFailed, "스케줄러가 작업을 실패로 보고했습니다")
		}
		return r.outcome, nil

	case <-ctx.Done():
		applog.WithComponent(component).Info("종료 신호 수신: 원격 작업에 종료를 요청합니다")

		killCtx, killCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer killCancel()

		if err := h.Kill(killCtx); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{"error": err}).Error("원격 작업 종료 요청 실패")
		}
		return nil, apperrors.Wrap(ctx.Err(), apperrors.Internal, "작업 추적이 중단되었습니다")
	}
}

// exitCodeOf 완료된 작업의 결과를 프로세스 종료 코드로 변환합니다.
func exitCodeOf(outcome *task.Outcome) error {
	if outcome.Succeeded() {
		return nil
	}

	code := 1
	if outcome != nil && outcome.ExitCode > 0 && outcome.ExitCode < 256 {
		code = outcome.ExitCode
	}

	fields := applog.Fields{"exit_code": code}
	if outcome != nil && outcome.Err != nil {
		fields["error"] = outcome.Err
	}
	applog.WithComponentAndFields(component, fields).Warn("작업이 실패로 종료되었습니다")

	return &exitError{code: code}
}

func writeTrace(out io.Writer, rec task.TraceRecord) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
