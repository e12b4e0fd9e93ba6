package log

import (
	"maps"

	"github.com/sirupsen/logrus"
)

const componentKey = "component"

// WithComponent 로그를 남기는 패키지 이름을 component 필드로 붙입니다.
func WithComponent(component string) *Entry {
	return logrus.WithField(componentKey, component)
}

// WithComponentAndFields fields는 변경하지 않는다.
func WithComponentAndFields(component string, fields Fields) *Entry {
	merged := make(Fields, len(fields)+1)
	maps.Copy(merged, fields)
	merged[componentKey] = component
	return logrus.WithFields(merged)
}

// StandardLogger cron, echo 같은 라이브러리의 로거 어댑터에 넘길 전역 Logger입니다.
func StandardLogger() *Logger {
	return logrus.StandardLogger()
}

// SetDebugMode debug이면 폴링 세부 정보까지 보이도록 Trace, 아니면 Info로 맞춥니다.
func SetDebugMode(debug bool) {
	level := InfoLevel
	if debug {
		level = TraceLevel
	}
	logrus.SetLevel(level)
}
