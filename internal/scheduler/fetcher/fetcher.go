// Package fetcher 스케줄러 API 호출에 사용하는 HTTP 전송 계층을 제공합니다.
//
// 기본 HTTPFetcher 위에 응답 크기 제한, 상태 코드 검증, 재시도, 로깅 미들웨어를
// 데코레이터 방식으로 조합하며, 조립 순서는 New 함수가 결정합니다.
package fetcher

import (
	"net/http"
)

// component 스케줄러 전송 계층의 로깅용 컴포넌트 이름
const component = "scheduler.fetcher"

// Fetcher HTTP 요청을 수행하는 인터페이스입니다.
//
// 구현 시 주의사항:
//   - 성공 시 반환된 응답 객체의 Body는 호출자가 닫아야 합니다.
//   - 에러를 반환할 때는 응답 객체의 Body를 내부에서 정리하고 nil 응답을 반환합니다.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}
