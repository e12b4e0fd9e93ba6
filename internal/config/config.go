package config

import (
	"os"
	"strings"

	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName 애플리케이션의 전역 고유 식별자입니다.
	AppName string = "remote-task"

	// DefaultFilename 실행 인자로 설정 파일 경로가 주어지지 않았을 때 탐색하는 기본 설정 파일명입니다.
	DefaultFilename = AppName + ".json"

	// envPrefix 설정을 덮어쓰는 환경 변수의 접두사입니다.
	envPrefix = "REMOTE_TASK_"

	// ------------------------------------------------------------------------------------------------
	// 스케줄러 API 호출 기본값
	// ------------------------------------------------------------------------------------------------

	// DefaultRequestTimeout 스케줄러 API 요청 1회의 제한 시간 기본값
	DefaultRequestTimeout = "30s"

	// DefaultRequestsPerSecond 스케줄러 API 초당 호출 한도 기본값
	DefaultRequestsPerSecond = 10.0

	// DefaultBurst 순간적으로 허용되는 최대 호출 수 기본값
	DefaultBurst = 5

	// ------------------------------------------------------------------------------------------------
	// HTTP 재시도 정책 기본값
	// ------------------------------------------------------------------------------------------------

	// DefaultMaxRetries HTTP 요청 실패 시 최대 재시도 횟수 기본값
	DefaultMaxRetries = 3

	// DefaultMinRetryDelay 첫 재시도 전 대기 시간 기본값 (이후 지수적으로 증가)
	DefaultMinRetryDelay = "1s"

	// DefaultMaxRetryDelay 재시도 대기 시간의 상한 기본값
	DefaultMaxRetryDelay = "30s"

	// ------------------------------------------------------------------------------------------------
	// 모니터 기본값
	// ------------------------------------------------------------------------------------------------

	// DefaultPollSpec 상태 폴링 주기 기본값. 상태 캐시의 신선도 구간(1초)과 맞춘다.
	DefaultPollSpec = "@every 1s"
)

// Load 기본 설정 파일을 읽어 애플리케이션 설정을 로드합니다.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// layer koanf에 차례로 쌓이는 설정 원천 하나입니다. 나중에 쌓인 값이 앞의 값을 덮어씁니다.
type layer struct {
	name     string
	provider koanf.Provider
	parser   koanf.Parser
}

// LoadWithFile 기본값, filename의 JSON, REMOTE_TASK_ 환경 변수 순으로 덮어쓴 설정을 반환합니다.
// 환경 변수의 이중 언더스코어는 계층 구분자입니다. (REMOTE_TASK_SCHEDULER__ENDPOINT -> scheduler.endpoint)
func LoadWithFile(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	layers := []layer{
		{name: "기본값", provider: confmap.Provider(defaultValues(), ".")},
		{name: "설정 파일", provider: file.Provider(filename), parser: json.Parser()},
		{name: "환경 변수", provider: env.Provider(envPrefix, ".", normalizeEnvKey)},
	}
	for _, l := range layers {
		if err := k.Load(l.provider, l.parser); err != nil {
			return nil, loadError(l, filename, err)
		}
	}

	var c AppConfig
	if err := k.UnmarshalWithConf("", &c, unmarshalConf()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, "설정 값을 AppConfig로 변환하지 못했습니다")
	}
	if err := c.validate(newValidator()); err != nil {
		return nil, apperrors.Wrapf(err, apperrors.InvalidInput, "설정 파일 '%s'의 값이 올바르지 않습니다", filename)
	}

	return &c, nil
}

func loadError(l layer, filename string, err error) error {
	if l.parser == nil {
		return apperrors.Wrapf(err, apperrors.System, "%s을(를) 읽지 못했습니다", l.name)
	}
	if os.IsNotExist(err) {
		return apperrors.Wrapf(err, apperrors.System, "설정 파일을 찾을 수 없습니다: '%s'", filename)
	}
	return apperrors.Wrapf(err, apperrors.InvalidInput, "설정 파일을 해석하지 못했습니다: '%s'", filename)
}

// unmarshalConf 알 수 없는 키는 거부하고, 문자열로 적힌 기간과 쉼표 목록은 변환합니다.
func unmarshalConf() koanf.UnmarshalConf {
	return koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			ErrorUnused:      true,
			WeaklyTypedInput: true,
		},
	}
}

func defaultValues() map[string]any {
	return map[string]any{
		"scheduler.request_timeout":     DefaultRequestTimeout,
		"scheduler.requests_per_second": DefaultRequestsPerSecond,
		"scheduler.burst":               DefaultBurst,
		"http_retry.max_retries":        DefaultMaxRetries,
		"http_retry.min_retry_delay":    DefaultMinRetryDelay,
		"http_retry.max_retry_delay":    DefaultMaxRetryDelay,
		"cleanup.retention":             "",
		"monitor.poll_spec":             DefaultPollSpec,
	}
}

// normalizeEnvKey 환경 변수 이름을 설정 키로 변환합니다.
// 접두사를 제거하고 소문자로 바꾼 뒤, 이중 언더스코어(__)를 계층 구분자(.)로 치환합니다.
func normalizeEnvKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}
