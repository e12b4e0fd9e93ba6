// Package maputil 설정 파일이나 JSON 파싱 결과처럼 맵(Map) 형태로 주어진 데이터를 구조체로 변환하는 유틸리티를 제공합니다.
package maputil

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode 입력된 맵 데이터를 제네릭 타입 T의 새 구조체로 디코딩하여 반환합니다.
//
// [기본 동작]
//   - 구조체의 `json` 태그를 기준으로 필드를 매핑합니다.
//   - 유연한 타입 변환(Weakly Typed)을 허용합니다. 예: "3" -> 3, 2.0 -> int64(2)
//   - "10m" 같은 문자열은 time.Duration으로, "a,b" 같은 문자열은 []string으로 변환합니다.
//   - ["KEY=VALUE", ...] 형식의 목록은 map[string]string으로 변환합니다.
//
// 구조체에 없는 키는 기본적으로 무시됩니다. 오타를 잡아내려면 WithErrorUnused(true)를 사용하십시오.
//
//	d, err := maputil.Decode[contract.TaskDescriptor](raw, maputil.WithErrorUnused(true))
func Decode[T any](input any, opts ...Option) (*T, error) {
	output := new(T)
	if err := DecodeTo(input, output, opts...); err != nil {
		return nil, err
	}
	return output, nil
}

// DecodeTo 입력 데이터를 이미 존재하는 구조체(output)에 병합합니다.
// output에 미리 채워진 값은 입력에 해당 키가 없으면 그대로 유지됩니다.
func DecodeTo[T any](input any, output *T, opts ...Option) error {
	if output == nil {
		return errors.New("디코딩 결과를 저장할 output 포인터가 nil입니다")
	}

	cfg := &decodingConfig{
		tagName:          "json",
		weaklyTypedInput: true,
		errorUnused:      false,
		trimSpace:        true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           output,
		TagName:          cfg.tagName,
		WeaklyTypedInput: cfg.weaklyTypedInput,
		ErrorUnused:      cfg.errorUnused,
		Squash:           true,
		Metadata:         cfg.metadata,
		DecodeHook:       cfg.buildDecodeHook(),
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("입력 데이터를 %T(으)로 디코딩하는 데 실패했습니다: %w", output, err)
	}

	return nil
}

type decodingConfig struct {
	tagName          string
	weaklyTypedInput bool
	errorUnused      bool
	trimSpace        bool // 콤마 구분 문자열을 슬라이스로 나눌 때 각 요소의 공백 제거 여부

	metadata   *mapstructure.Metadata
	extraHooks []mapstructure.DecodeHookFunc
}

// buildDecodeHook 사용자 정의 훅을 먼저, 내장 훅을 나중에 실행하는 훅 체인을 구성합니다.
// 호출마다 새 체인을 만들기 때문에 동시에 여러 디코딩이 진행되어도 안전합니다.
func (c *decodingConfig) buildDecodeHook() mapstructure.DecodeHookFunc {
	hooks := make([]mapstructure.DecodeHookFunc, 0, len(c.extraHooks)+4)
	hooks = append(hooks, c.extraHooks...)
	hooks = append(hooks,
		mapstructure.TextUnmarshallerHookFunc(),
		stringToDurationHookFunc(),
		envListToMapHookFunc(),
		stringToSliceHookFunc(c.trimSpace),
	)

	return mapstructure.ComposeDecodeHookFunc(hooks...)
}

// Option 디코딩 동작을 조정하는 함수형 옵션입니다.
type Option func(*decodingConfig)

// WithTagName 필드 매핑에 사용할 구조체 태그 이름을 지정합니다. (기본값: "json")
func WithTagName(tagName string) Option {
	return func(c *decodingConfig) {
		c.tagName = tagName
	}
}

// WithWeaklyTypedInput 타입이 달라도 변환 가능한 값을 자동으로 보정할지 설정합니다. (기본값: true)
func WithWeaklyTypedInput(enable bool) Option {
	return func(c *decodingConfig) {
		c.weaklyTypedInput = enable
	}
}

// WithErrorUnused 구조체에 없는 키가 입력에 있으면 에러를 반환합니다. (기본값: false)
func WithErrorUnused(enable bool) Option {
	return func(c *decodingConfig) {
		c.errorUnused = enable
	}
}

// WithDecodeHook 내장 훅보다 먼저 실행될 사용자 정의 변환 훅을 추가합니다.
func WithDecodeHook(hooks ...mapstructure.DecodeHookFunc) Option {
	return func(c *decodingConfig) {
		c.extraHooks = append(c.extraHooks, hooks...)
	}
}

// WithMetadata 디코딩에 사용된 키와 사용되지 않은 키를 md에 기록합니다.
func WithMetadata(md *mapstructure.Metadata) Option {
	return func(c *decodingConfig) {
		c.metadata = md
	}
}

// WithTrimSpace 콤마 구분 문자열을 슬라이스로 변환할 때 요소의 앞뒤 공백을 제거할지 설정합니다. (기본값: true)
func WithTrimSpace(enable bool) Option {
	return func(c *decodingConfig) {
		c.trimSpace = enable
	}
}
