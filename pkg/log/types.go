package log

import (
	"github.com/sirupsen/logrus"
)

// 호출자가 logrus를 직접 import하지 않도록 필요한 타입만 다시 내보낸다.
type (
	Level     = logrus.Level
	Fields    = logrus.Fields
	Entry     = logrus.Entry
	Logger    = logrus.Logger
	Formatter = logrus.Formatter
)

// 레벨 사용 기준
//
//	Error  작업 등록 실패처럼 호출자의 흐름을 멈추는 오류
//	Warn   원격 레코드 삭제 실패처럼 결과는 유지되지만 살펴봐야 하는 상황
//	Info   제출, 시작, 완료 같은 수명 주기 전환
//	Debug  상태 조회 결과와 캐시 적중 여부
//	Trace  머신 정보 조회 실패처럼 버려도 되는 세부 정보
const (
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
	TraceLevel = logrus.TraceLevel
)
