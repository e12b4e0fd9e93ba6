package config

import (
	"fmt"
	"reflect"
	"strings"

	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
	"github.com/darkkaiser/remote-task/internal/task/cleanup"
	"github.com/darkkaiser/remote-task/pkg/cronx"
	"github.com/go-playground/validator/v10"
)

// newValidator 새로운 Validator 인스턴스를 생성하고 커스텀 유효성 검사 함수를 등록합니다.
func newValidator() *validator.Validate {
	v := validator.New()

	// 에러 메시지에 Go 구조체 필드명 대신 JSON 이름(예: poll_spec)을 보여주도록 설정합니다.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("cron_spec", validateCronSpec); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'cron_spec' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}
	if err := v.RegisterValidation("retention_mode", validateRetentionMode); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'retention_mode' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}

	return v
}

func validateCronSpec(fl validator.FieldLevel) bool {
	return cronx.Validate(fl.Field().String()) == nil
}

func validateRetentionMode(fl validator.FieldLevel) bool {
	_, err := cleanup.ParseRetentionMode(fl.Field().String())
	return err == nil
}

// checkStruct 구조체를 태그 규칙에 따라 검증하고, 발생한 오류를 사용자 친화적인 도메인 에러로 변환합니다.
func checkStruct(v *validator.Validate, s any, contextName string) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유효성 검증에 실패했습니다", contextName))
	}

	// 첫 번째 에러만 상세히 보고
	firstErr := validationErrors[0]

	switch firstErr.StructField() {
	case "Endpoint":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("스케줄러 API 주소(endpoint)가 올바른 HTTP(S) URL이 아닙니다: '%v'", firstErr.Value()))
	case "MaxRetries":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("HTTP 최대 재시도 횟수(max_retries)는 0에서 10 사이여야 합니다: '%v'", firstErr.Value()))
	case "MaxRetryDelay":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("최대 재시도 대기 시간(max_retry_delay)은 최소 대기 시간(min_retry_delay)보다 작을 수 없습니다: '%v'", firstErr.Value()))
	}

	switch firstErr.Tag() {
	case "cron_spec":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("폴링 주기(poll_spec) 표현식이 올바르지 않습니다: '%v' (예: @every 1s, */5 * * * * *)", firstErr.Value()))
	case "retention_mode":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("정리 정책(retention)은 never, always, on-success 중 하나여야 합니다: '%v'", firstErr.Value()))
	}

	return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 설정이 올바르지 않습니다: %s (조건: %s)", contextName, firstErr.Field(), firstErr.Tag()))
}
