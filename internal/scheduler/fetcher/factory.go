package fetcher

import (
	"time"
)

// Config Fetcher 체인 구성 옵션입니다.
type Config struct {
	// Timeout 요청 1회(응답 본문 수신 포함)의 제한 시간. 0이면 기본값(30초)
	Timeout time.Duration

	// MaxRetries 최대 재시도 횟수 (0~10 범위로 보정)
	MaxRetries int

	// MinRetryDelay 첫 재시도 전 대기 시간. 100ms 미만은 100ms로 보정
	MinRetryDelay time.Duration

	// MaxRetryDelay 재시도 대기 시간의 상한. 0이면 기본값(30초)
	MaxRetryDelay time.Duration

	// MaxBytes 응답 본문 최대 크기. 0이면 기본값(1MB), NoLimit(-1)이면 제한 없음
	MaxBytes int64

	// AllowedStatusCodes 성공으로 간주할 상태 코드. 비어 있으면 2xx 전체
	AllowedStatusCodes []int

	// DisableLogging 요청 로그를 남기지 않습니다.
	DisableLogging bool
}

// New 설정에 따라 Fetcher 체인을 조립합니다.
//
// 조립 순서 (바깥쪽 → 안쪽):
//
//  1. LoggingFetcher    : 재시도를 포함한 전체 요청을 1건으로 기록
//  2. RetryFetcher      : 일시적 장애 시 재시도
//  3. StatusCodeFetcher : 상태 코드 검증. 시도마다 수행되어야 하므로 RetryFetcher 안쪽에 둔다.
//  4. MaxBytesFetcher   : 응답 본문 크기 제한
//  5. HTTPFetcher       : 실제 네트워크 I/O
func New(cfg Config, opts ...Option) Fetcher {
	opts = append([]Option{WithTimeout(cfg.Timeout)}, opts...)

	var f Fetcher = NewHTTPFetcher(opts...)
	f = NewMaxBytesFetcher(f, cfg.MaxBytes)
	f = NewStatusCodeFetcher(f, cfg.AllowedStatusCodes...)
	f = NewRetryFetcher(f, cfg.MaxRetries, cfg.MinRetryDelay, cfg.MaxRetryDelay)

	if !cfg.DisableLogging {
		f = NewLoggingFetcher(f)
	}

	return f
}
