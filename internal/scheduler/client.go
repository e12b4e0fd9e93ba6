// Package scheduler 원격 클러스터 스케줄러의 REST API를 호출하는 contract.RemoteClient 구현을 제공합니다.
package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/darkkaiser/remote-task/internal/contract"
	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
	"github.com/darkkaiser/remote-task/internal/scheduler/fetcher"
	applog "github.com/darkkaiser/remote-task/pkg/log"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// component 스케줄러 클라이언트의 로깅용 컴포넌트 이름
const component = "scheduler.client"

const apiPrefix = "/api/v1/jobs"

// Config 스케줄러 클라이언트 설정입니다.
type Config struct {
	// Endpoint 스케줄러 API의 기본 URL (예: https://scheduler.example.com)
	Endpoint string

	// RequestsPerSecond, Burst 클라이언트 측 호출 빈도 제한 (토큰 버킷)
	RequestsPerSecond float64
	Burst             int

	// Transport 재시도/타임아웃 등 전송 계층 설정
	Transport fetcher.Config
}

// Client contract.RemoteClient의 HTTP 구현체입니다.
//
// 모든 호출은 토큰 버킷 대기를 거친 뒤 fetcher 체인으로 전달됩니다.
// 재시도는 fetcher.RetryFetcher가 멱등 메서드에 한해 수행하며, 이 계층에서는 재시도하지 않습니다.
type Client struct {
	baseURL *url.URL
	fetcher fetcher.Fetcher
	limiter *rate.Limiter
}

var _ contract.RemoteClient = (*Client)(nil)

// Option Client 생성 옵션입니다.
type Option func(*Client)

// WithFetcher 기본 fetcher 체인 대신 사용할 Fetcher를 지정합니다.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *Client) {
		if f != nil {
			c.fetcher = f
		}
	}
}

// NewClient 새로운 Client를 생성합니다.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, apperrors.New(apperrors.InvalidInput, "스케줄러 API 주소(endpoint)가 설정되지 않았습니다")
	}

	u, err := url.Parse(endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperrors.Newf(apperrors.InvalidInput, "스케줄러 API 주소가 올바르지 않습니다: '%s'", cfg.Endpoint)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		baseURL: u,
		limiter: rate.NewLimiter(limit, burst),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.fetcher == nil {
		c.fetcher = fetcher.New(cfg.Transport)
	}

	return c, nil
}

// submitRequest 작업 제출 요청 본문
type submitRequest struct {
	Name           string            `json:"name,omitempty"`
	Image          string            `json:"image"`
	Command        string            `json:"command,omitempty"`
	Args           []string          `json:"args,omitempty"`
	WorkDir        string            `json:"workdir,omitempty"`
	Env            map[string]string `json:"env,omitempty"`
	StdoutFile     string            `json:"stdoutFile,omitempty"`
	StderrFile     string            `json:"stderrFile,omitempty"`
	CPUs           float64           `json:"cpus,omitempty"`
	MemoryMB       int64             `json:"memoryMB,omitempty"`
	DiskMB         int64             `json:"diskMB,omitempty"`
	TimeoutSeconds int64             `json:"timeoutSeconds,omitempty"`
}

func newSubmitRequest(d *contract.TaskDescriptor) submitRequest {
	return submitRequest{
		Name:           d.Name,
		Image:          d.Image,
		Command:        d.Command,
		Args:           d.Args,
		WorkDir:        d.WorkDir,
		Env:            d.Env,
		StdoutFile:     d.StdoutFile,
		StderrFile:     d.StderrFile,
		CPUs:           d.Resources.CPUs,
		MemoryMB:       d.Resources.MemoryMB,
		DiskMB:         d.Resources.DiskMB,
		TimeoutSeconds: int64(d.Timeout / time.Second),
	}
}

// Submit 작업을 제출하고 스케줄러가 발급한 (Job, Task) 식별자를 반환합니다.
//
// 스케줄러가 요청을 거부하면 ExecutionFailed, 전송 실패 또는 일시적 장애는 Unavailable 에러를 반환합니다.
// 중복 제출을 막기 위해 재시도하지 않습니다.
func (c *Client) Submit(ctx context.Context, d *contract.TaskDescriptor) (contract.TaskKey, error) {
	if d == nil {
		return contract.TaskKey{}, apperrors.New(apperrors.InvalidInput, "작업 명세(TaskDescriptor)가 nil입니다")
	}

	payload, err := json.Marshal(newSubmitRequest(d))
	if err != nil {
		return contract.TaskKey{}, apperrors.Wrap(err, apperrors.Internal, "작업 제출 요청 본문 생성에 실패했습니다")
	}

	body, err := c.call(ctx, http.MethodPost, apiPrefix, payload)
	if err != nil {
		var statusErr *fetcher.HTTPStatusError
		if (errors.As(err, &statusErr) && !apperrors.Is(err, apperrors.Unavailable)) || apperrors.Is(err, apperrors.ParsingFailed) {
			return contract.TaskKey{}, apperrors.Wrapf(err, apperrors.ExecutionFailed, "스케줄러가 작업 등록을 거부했습니다 (image=%s)", d.Image)
		}
		return contract.TaskKey{}, apperrors.Wrap(err, apperrors.Unavailable, "작업 등록 요청을 전송하지 못했습니다")
	}

	key := contract.TaskKey{
		JobID:  gjson.GetBytes(body, "jobId").String(),
		TaskID: gjson.GetBytes(body, "taskId").String(),
	}
	if err := key.Validate(); err != nil {
		return contract.TaskKey{}, apperrors.Wrap(err, apperrors.ExecutionFailed, "작업 등록 응답에 식별자가 없습니다")
	}

	applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
		"task_key": key.String(),
		"image":    d.Image,
	}).Info("작업 등록 완료")

	return key, nil
}

// FetchState 작업의 현재 원격 상태를 조회합니다.
func (c *Client) FetchState(ctx context.Context, key contract.TaskKey) (contract.RemoteState, error) {
	body, err := c.call(ctx, http.MethodGet, taskPath(key, "state"), nil)
	if err != nil {
		return "", wrapQueryError(err, "작업 상태 조회에 실패했습니다", key)
	}

	state := gjson.GetBytes(body, "state")
	if !state.Exists() || state.String() == "" {
		return "", apperrors.Newf(apperrors.ParsingFailed, "작업 상태 응답에 state 필드가 없습니다 (task_key=%s)", key)
	}

	return contract.RemoteState(state.String()), nil
}

// FetchExecutionResult 종료된 작업의 실행 결과를 조회합니다.
func (c *Client) FetchExecutionResult(ctx context.Context, key contract.TaskKey) (*contract.ExecutionResult, error) {
	body, err := c.call(ctx, http.MethodGet, taskPath(key, "result"), nil)
	if err != nil {
		return nil, wrapQueryError(err, "작업 실행 결과 조회에 실패했습니다", key)
	}

	result := gjson.ParseBytes(body)
	return &contract.ExecutionResult{
		ExitCode: int(result.Get("exitCode").Int()),
		Failed:   result.Get("failed").Bool(),
		Message:  result.Get("message").String(),
	}, nil
}

// FetchMachineInfo 작업이 배치된 머신 정보를 조회합니다. 스케줄러가 404를 반환하면 (nil, nil)입니다.
func (c *Client) FetchMachineInfo(ctx context.Context, key contract.TaskKey) (*contract.MachineInfo, error) {
	body, err := c.call(ctx, http.MethodGet, taskPath(key, "machine"), nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, wrapQueryError(err, "머신 정보 조회에 실패했습니다", key)
	}

	result := gjson.ParseBytes(body)
	info := &contract.MachineInfo{
		Hostname:     result.Get("hostname").String(),
		InstanceType: result.Get("instanceType").String(),
		Zone:         result.Get("zone").String(),
		PriceModel:   result.Get("priceModel").String(),
	}
	if *info == (contract.MachineInfo{}) {
		return nil, nil
	}

	return info, nil
}

// Delete 작업이 속한 Job을 삭제합니다. 이미 삭제되어 404가 반환되어도 성공으로 간주합니다.
func (c *Client) Delete(ctx context.Context, key contract.TaskKey) error {
	_, err := c.call(ctx, http.MethodDelete, apiPrefix+"/"+url.PathEscape(key.JobID), nil)
	if err != nil {
		if isNotFound(err) {
			applog.WithComponent(component).WithContext(ctx).WithField("task_key", key.String()).
				Debug("이미 삭제된 Job입니다")
			return nil
		}
		return apperrors.Wrapf(err, apperrors.System, "Job 삭제에 실패했습니다 (task_key=%s)", key)
	}

	return nil
}

// Terminate 실행 중인 작업의 취소를 요청합니다.
func (c *Client) Terminate(ctx context.Context, key contract.TaskKey) error {
	if _, err := c.call(ctx, http.MethodPost, taskPath(key, "terminate"), nil); err != nil {
		return wrapQueryError(err, "작업 취소 요청에 실패했습니다", key)
	}

	applog.WithComponent(component).WithContext(ctx).WithField("task_key", key.String()).
		Info("작업 취소 요청 완료")

	return nil
}

// call 호출 빈도 제한을 적용한 뒤 요청을 보내고 응답 본문을 반환합니다.
func (c *Client) call(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"method": method,
			"path":   path,
			"limit":  c.limiter.Limit(),
			"burst":  c.limiter.Burst(),
			"error":  err,
		}).Debug("요청 중단: RateLimiter 대기 중 컨텍스트가 취소되었습니다")

		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reqBody)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "요청 생성에 실패했습니다")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.fetcher.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(body)) > 0 && !gjson.ValidBytes(body) {
		return nil, apperrors.Newf(apperrors.ParsingFailed, "스케줄러 응답이 올바른 JSON 형식이 아닙니다 (%s %s)", method, path)
	}

	return body, nil
}

func taskPath(key contract.TaskKey, action string) string {
	return apiPrefix + "/" + url.PathEscape(key.JobID) + "/tasks/" + url.PathEscape(key.TaskID) + "/" + action
}

func isNotFound(err error) bool {
	var statusErr *fetcher.HTTPStatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

// wrapQueryError 조회 계열 요청의 에러를 분류합니다.
// 스케줄러가 명시적으로 거부한 경우(4xx)는 원래 분류를 유지하고, 그 외는 Unavailable로 감쌉니다.
func wrapQueryError(err error, message string, key contract.TaskKey) error {
	var statusErr *fetcher.HTTPStatusError
	if errors.As(err, &statusErr) && !apperrors.Is(err, apperrors.Unavailable) {
		return apperrors.Wrapf(err, apperrors.UnderlyingType(err), "%s (task_key=%s)", message, key)
	}
	if apperrors.Is(err, apperrors.ParsingFailed) {
		return err
	}
	return apperrors.Wrapf(err, apperrors.Unavailable, "%s (task_key=%s)", message, key)
}
