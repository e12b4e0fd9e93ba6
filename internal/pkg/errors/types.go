package errors

//go:generate stringer -type=ErrorType

// ErrorType 호출자가 분기할 수 있도록 에러를 분류합니다.
// 스케줄러 응답의 분류는 fetcher 패키지의 상태 코드 매핑을 따릅니다.
type ErrorType int

const (
	Unknown         ErrorType = iota
	Internal                  // 잘못된 상태 전이 같은 내부 로직 오류
	System                    // 파일 I/O 같은 실행 환경 오류
	Unauthorized              // 401
	Forbidden                 // 403
	InvalidInput              // 잘못된 입력값이나 설정
	Conflict                  // 리소스 충돌
	NotFound                  // 404, 없는 파일
	ExecutionFailed           // 작업 등록 거부나 원격 실행 실패
	ParsingFailed             // 응답이나 파일의 형식 오류
	Timeout                   // 시간 초과, 컨텍스트 만료
	Unavailable               // 5xx, 429, 네트워크 오류처럼 일시적인 실패
)
