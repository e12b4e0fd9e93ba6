package fetcher

import (
	"context"
	"crypto/x509"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
	applog "github.com/darkkaiser/remote-task/pkg/log"
)

const (
	minAllowedRetries = 0
	maxAllowedRetries = 10

	// minAllowedRetryDelay 재시도 간격의 하한. 이보다 짧은 설정은 이 값으로 보정한다.
	minAllowedRetryDelay = 100 * time.Millisecond

	defaultMaxRetryDelay = 30 * time.Second
)

// permanentTypes 스케줄러가 요청을 명시적으로 거부했음을 뜻하는 에러 타입. 다시 보내도 결과가 같다.
var permanentTypes = []apperrors.ErrorType{
	apperrors.ExecutionFailed,
	apperrors.InvalidInput,
	apperrors.Unauthorized,
	apperrors.Forbidden,
	apperrors.NotFound,
}

// RetryFetcher 일시적 장애로 실패한 멱등 요청을 지수 백오프(Full Jitter)로 재시도합니다.
//
// 작업 제출과 취소 요청은 POST이므로 한 번만 시도합니다. 스케줄러가 Retry-After를 보내면 그 값을
// 따르되, maxRetryDelay보다 길면 기다리지 않고 실패를 반환합니다.
type RetryFetcher struct {
	delegate Fetcher

	maxRetries    int
	minRetryDelay time.Duration
	maxRetryDelay time.Duration
}

var _ Fetcher = (*RetryFetcher)(nil)

// NewRetryFetcher 새로운 RetryFetcher를 생성합니다. 범위를 벗어난 값은 허용 범위로 보정됩니다.
func NewRetryFetcher(delegate Fetcher, maxRetries int, minRetryDelay, maxRetryDelay time.Duration) *RetryFetcher {
	minRetryDelay, maxRetryDelay = normalizeRetryDelays(minRetryDelay, maxRetryDelay)

	return &RetryFetcher{
		delegate:      delegate,
		maxRetries:    normalizeMaxRetries(maxRetries),
		minRetryDelay: minRetryDelay,
		maxRetryDelay: maxRetryDelay,
	}
}

func (f *RetryFetcher) Do(req *http.Request) (*http.Response, error) {
	budget := f.budget(req)

	var lastErr error
	for attempt := 0; attempt <= budget; attempt++ {
		if attempt > 0 {
			delay, err := f.nextDelay(attempt, lastErr)
			if err != nil {
				return nil, err
			}

			logRetry(req, attempt, budget, delay, lastErr)

			if err := sleepCtx(req.Context(), delay); err != nil {
				return nil, err
			}
			if req, err = rewind(req); err != nil {
				return nil, err
			}
		}

		resp, err := f.delegate.Do(req)
		if err == nil {
			return resp, nil
		}

		// 요청 전체의 Deadline이 지났다면 재시도해도 성공할 수 없다.
		if errors.Is(err, context.DeadlineExceeded) && req.Context().Err() != nil {
			return nil, err
		}
		if !isRetriable(err) {
			return nil, err
		}
		lastErr = err
	}

	if budget == 0 {
		return nil, lastErr
	}
	return nil, newErrMaxRetriesExceeded(lastErr)
}

// budget 이 요청에 허용되는 재시도 횟수를 반환합니다.
func (f *RetryFetcher) budget(req *http.Request) int {
	if f.maxRetries == 0 || !isIdempotentMethod(req.Method) {
		return 0
	}

	// 본문을 다시 만들 수 없으면 재시도만 포기하고 요청은 보낸다.
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		applog.WithComponent(component).WithContext(req.Context()).WithFields(applog.Fields{
			"url":    redactURL(req.URL),
			"method": req.Method,
		}).Warn("재시도 비활성화: 요청 본문 재생성 불가 (GetBody nil)")

		return 0
	}

	return f.maxRetries
}

// nextDelay attempt번째 재시도 전에 대기할 시간을 계산합니다.
func (f *RetryFetcher) nextDelay(attempt int, lastErr error) (time.Duration, error) {
	var statusErr *HTTPStatusError
	if errors.As(lastErr, &statusErr) && statusErr.Header != nil {
		if retryAfter, ok := parseRetryAfter(statusErr.Header.Get("Retry-After")); ok {
			if retryAfter > f.maxRetryDelay {
				return 0, newErrRetryAfterExceeded(retryAfter.String(), f.maxRetryDelay.String())
			}
			return retryAfter, nil
		}
	}

	ceiling := f.minRetryDelay << (attempt - 1)
	if ceiling <= 0 || ceiling > f.maxRetryDelay {
		ceiling = f.maxRetryDelay
	}

	delay := time.Duration(rand.Int64N(int64(ceiling) + 1))
	if delay < time.Millisecond {
		delay = f.minRetryDelay
	}
	return delay, nil
}

func logRetry(req *http.Request, attempt, budget int, delay time.Duration, lastErr error) {
	fields := applog.Fields{
		"url":         redactURL(req.URL),
		"method":      req.Method,
		"retry":       attempt,
		"max_retries": budget,
		"delay":       delay.String(),
	}
	if lastErr != nil {
		fields["error"] = lastErr.Error()
	}

	applog.WithComponent(component).WithContext(req.Context()).WithFields(fields).
		Warn("재시도 대기 중: 일시적 오류로 인해 요청 재시도를 준비합니다")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// rewind 재전송을 위해 본문을 새로 만든 요청 사본을 반환합니다. 본문이 없으면 req를 그대로 반환합니다.
func rewind(req *http.Request) (*http.Request, error) {
	if req.GetBody == nil {
		return req, nil
	}

	body, err := req.GetBody()
	if err != nil {
		return nil, newErrGetBodyFailed(err)
	}

	clone := req.Clone(req.Context())
	clone.Body = body
	return clone, nil
}

func normalizeMaxRetries(maxRetries int) int {
	return min(max(maxRetries, minAllowedRetries), maxAllowedRetries)
}

// normalizeRetryDelays 재시도 대기 시간의 하한과 상한을 보정합니다. 상한 0은 기본값(30초)입니다.
func normalizeRetryDelays(minRetryDelay, maxRetryDelay time.Duration) (time.Duration, time.Duration) {
	minRetryDelay = max(minRetryDelay, minAllowedRetryDelay)
	if maxRetryDelay == 0 {
		maxRetryDelay = defaultMaxRetryDelay
	}
	return minRetryDelay, max(maxRetryDelay, minRetryDelay)
}

// isRetriable 재시도로 해결될 수 있는 일시적 오류인지 판단합니다.
//
// 컨텍스트 취소, 인증서 오류, 잘못된 URL, 스케줄러의 명시적 거부는 재시도하지 않습니다.
// 분류되지 않은 에러(DNS 조회 실패, 연결 거부 등)는 일시적 오류로 봅니다.
func isRetriable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, context.Canceled):
		return false
	case isMalformedURL(err), isCertificateError(err):
		return false
	}

	if apperrors.Is(err, apperrors.Unavailable) {
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) {
			switch statusErr.StatusCode {
			case http.StatusNotImplemented, http.StatusHTTPVersionNotSupported, http.StatusNetworkAuthenticationRequired:
				return false
			}
		}
		return true
	}

	for _, t := range permanentTypes {
		if apperrors.Is(err, t) {
			return false
		}
	}
	return true
}

func isMalformedURL(err error) bool {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return false
	}
	msg := urlErr.Error()
	return strings.Contains(msg, "unsupported protocol scheme") || strings.Contains(msg, "invalid control character in URL")
}

func isCertificateError(err error) bool {
	var hostnameErr x509.HostnameError
	var authorityErr x509.UnknownAuthorityError
	var invalidErr x509.CertificateInvalidError
	return errors.As(err, &hostnameErr) || errors.As(err, &authorityErr) || errors.As(err, &invalidErr)
}

// isIdempotentMethod 재시도해도 안전한 HTTP 메서드인지 반환합니다. (RFC 7231 4.2.2)
func isIdempotentMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// parseRetryAfter Retry-After 헤더 값(초 단위 정수 또는 HTTP-date)을 대기 시간으로 변환합니다.
func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}

	date, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}
	return max(time.Until(date), 0), true
}
