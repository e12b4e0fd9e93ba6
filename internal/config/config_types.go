package config

import (
	"time"

	"github.com/darkkaiser/remote-task/internal/task/cleanup"
	"github.com/go-playground/validator/v10"
)

// AppConfig 애플리케이션의 모든 설정을 포함하는 최상위 구조체
type AppConfig struct {
	Debug     bool            `json:"debug"`
	Scheduler SchedulerConfig `json:"scheduler"`
	HTTPRetry HTTPRetryConfig `json:"http_retry"`
	Cleanup   CleanupConfig   `json:"cleanup"`
	Monitor   MonitorConfig   `json:"monitor"`
}

// validate 설정 파일 로드 직후, 각 설정 항목의 정합성과 필수 값의 유효성을 검증합니다.
func (c *AppConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c.Scheduler, "스케줄러(scheduler)"); err != nil {
		return err
	}
	if err := checkStruct(v, c.HTTPRetry, "HTTP 재시도(http_retry)"); err != nil {
		return err
	}
	if err := checkStruct(v, c.Cleanup, "정리 정책(cleanup)"); err != nil {
		return err
	}
	if err := checkStruct(v, c.Monitor, "모니터(monitor)"); err != nil {
		return err
	}

	return nil
}

// VerifyRecommendations 운영 안정성을 위해 권장되는 설정 준수 여부를 진단합니다.
// 에러를 발생시키지는 않으며, 잠재적 위험 요소에 대한 경고 메시지를 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string

	if c.Scheduler.RequestsPerSecond > 50 {
		warnings = append(warnings, "스케줄러 API 초당 호출 한도(requests_per_second)가 50을 넘습니다. 스케줄러 측 요청 제한에 걸릴 수 있습니다")
	}
	if c.Cleanup.RetentionMode() == cleanup.RetentionNever {
		warnings = append(warnings, "정리 정책이 never로 설정되어 완료된 원격 Job이 스케줄러에 계속 누적됩니다")
	}

	return warnings
}

// SchedulerConfig 원격 클러스터 스케줄러 API 접속 설정
type SchedulerConfig struct {
	Endpoint          string        `json:"endpoint" validate:"required,http_url"`
	RequestTimeout    time.Duration `json:"request_timeout" validate:"gt=0"`
	RequestsPerSecond float64       `json:"requests_per_second" validate:"gt=0"`
	Burst             int           `json:"burst" validate:"min=1"`
}

// HTTPRetryConfig HTTP 요청 실패 시 재시도 횟수와 대기 시간을 정의하는 설정 구조체
type HTTPRetryConfig struct {
	MaxRetries    int           `json:"max_retries" validate:"min=0,max=10"`
	MinRetryDelay time.Duration `json:"min_retry_delay" validate:"gt=0"`
	MaxRetryDelay time.Duration `json:"max_retry_delay" validate:"gtefield=MinRetryDelay"`
}

// CleanupConfig 완료된 원격 Job의 정리 정책
type CleanupConfig struct {
	Retention string `json:"retention" validate:"retention_mode"`
}

// RetentionMode 검증을 통과한 설정 값을 RetentionMode로 변환합니다.
func (c CleanupConfig) RetentionMode() cleanup.RetentionMode {
	mode, err := cleanup.ParseRetentionMode(c.Retention)
	if err != nil {
		return cleanup.RetentionOnSuccess
	}
	return mode
}

// MonitorConfig 작업 상태 폴링 설정
type MonitorConfig struct {
	PollSpec string `json:"poll_spec" validate:"required,cron_spec"`
}
