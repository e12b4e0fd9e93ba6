package log

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// resetGlobalState 전역 logrus 설정과 Setup 결과를 처음 상태로 되돌립니다.
func resetGlobalState() {
	std := logrus.StandardLogger()
	std.ReplaceHooks(logrus.LevelHooks{})
	std.SetOutput(os.Stderr)
	std.SetFormatter(new(logrus.TextFormatter))
	std.SetLevel(logrus.InfoLevel)
	std.SetReportCaller(false)

	installed.once = sync.Once{}
	installed.closer, installed.err = nil, nil
}
