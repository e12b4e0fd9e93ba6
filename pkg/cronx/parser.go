package cronx

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// StandardParser 폴링 주기 표현식 파서를 반환합니다.
//
// 초 단위를 포함하는 6필드 확장 형식만 허용하며, 표준 5필드 형식은 지원하지 않습니다.
//
// 지원 스펙:
//   - 필드 순서: [초] [분] [시] [일] [월] [요일]
//   - 특수 표현식: @every <duration>, @hourly 등 (Descriptor)
//
// 예시:
//   - "@every 1s"      : 1초 간격 (상태 캐시의 신선도 구간과 동일한 기본 폴링 주기)
//   - "*/5 * * * * *"  : 매 5초마다
func StandardParser() cron.Parser {
	return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

// Validate 폴링 주기 표현식이 StandardParser로 해석 가능한지 검사합니다.
func Validate(spec string) error {
	if _, err := StandardParser().Parse(spec); err != nil {
		return fmt.Errorf("Cron 표현식 파싱 실패(spec=%q): %w", spec, err)
	}
	return nil
}
