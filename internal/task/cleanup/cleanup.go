// Package cleanup 작업 완료 후 원격 스케줄러의 Job을 삭제할지 보존할지 결정하는 정책을 제공합니다.
package cleanup

import (
	"fmt"
	"strings"

	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
)

// RetentionMode 완료된 원격 Job의 보존 방식입니다.
type RetentionMode string

const (
	// RetentionNever 결과와 무관하게 원격 Job을 항상 보존합니다. (디버깅 용도)
	RetentionNever RetentionMode = "never"

	// RetentionAlways 결과와 무관하게 원격 Job을 항상 삭제합니다.
	RetentionAlways RetentionMode = "always"

	// RetentionOnSuccess 성공한 경우에만 삭제하고, 실패한 Job은 원인 분석을 위해 남겨 둡니다.
	// 설정되지 않은 경우("")의 기본 동작입니다.
	RetentionOnSuccess RetentionMode = "on-success"
)

// Action 정책 평가 결과입니다.
type Action int

const (
	Keep Action = iota
	Delete
)

func (a Action) String() string {
	switch a {
	case Keep:
		return "keep"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Decide 보존 방식과 작업 성공 여부로 수행할 정리 동작을 결정합니다.
func Decide(mode RetentionMode, succeeded bool) Action {
	switch mode {
	case RetentionNever:
		return Keep
	case RetentionAlways:
		return Delete
	default:
		if succeeded {
			return Delete
		}
		return Keep
	}
}

// ParseRetentionMode 설정 문자열을 RetentionMode로 변환합니다.
// 빈 문자열은 RetentionOnSuccess로 취급하며, 대소문자와 앞뒤 공백은 무시합니다.
func ParseRetentionMode(s string) (RetentionMode, error) {
	switch RetentionMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", RetentionOnSuccess:
		return RetentionOnSuccess, nil
	case RetentionNever:
		return RetentionNever, nil
	case RetentionAlways:
		return RetentionAlways, nil
	}

	return "", apperrors.Newf(apperrors.InvalidInput, "지원하지 않는 보존 방식입니다: '%s' (never, always, on-success 중 하나)", s)
}
