package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	fileExt = "log"

	defaultDir        = "logs"
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 20
)

// installed 프로세스에서 처음 호출된 Setup의 결과입니다.
var installed struct {
	once   sync.Once
	closer io.Closer
	err    error
}

// Setup 전역 logrus 로거에 출력 대상을 연결합니다.
//
// 프로세스 시작 시 한 번 호출하고 반환된 Closer를 종료 시 닫습니다.
// 이후의 호출은 opts를 무시하고 처음 결과를 돌려줍니다.
func Setup(opts Options) (io.Closer, error) {
	installed.once.Do(func() {
		installed.closer, installed.err = install(opts)
	})
	return installed.closer, installed.err
}

func install(opts Options) (io.Closer, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("유효하지 않은 로그 설정: %w", err)
	}

	level := opts.Level
	if level == 0 {
		level = InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetReportCaller(opts.ReportCaller)

	// 실제 포맷팅은 hook에서 수행한다.
	logrus.SetFormatter(&silentFormatter{})
	logrus.SetOutput(io.Discard)

	textFormatter := &logrus.TextFormatter{
		FullTimestamp:    true,
		TimestampFormat:  time.RFC3339,
		CallerPrettyfier: callerPrettyfier(opts.CallerPathPrefix),
	}

	dir := opts.Dir
	if dir == "" {
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("로그 디렉토리 생성 실패: %w", err)
	}

	var (
		sinks   []sink
		closers []io.Closer
	)
	addFile := func(suffix string, r route) {
		w := newRotatingWriter(dir, suffix, opts)
		sinks = append(sinks, sink{name: w.Filename, w: w, route: r})
		closers = append(closers, w)
	}

	if opts.EnableConsoleLog {
		sinks = append(sinks, sink{name: "console", w: os.Stdout, route: routeAll, bestEffort: true})
	}
	if opts.EnableCriticalLog {
		addFile("critical", routeCritical)
	}
	if opts.EnableVerboseLog {
		addFile("verbose", routeVerbose)
	}
	addFile("", routeMain)

	h := newHook(textFormatter, sinks...)
	logrus.AddHook(h)

	c := &closer{files: closers, hook: h}

	// Fatal 로그로 프로세스가 종료되기 직전에 버퍼에 남은 로그를 디스크에 기록한다.
	logrus.RegisterExitHandler(func() {
		_ = c.Close()
	})

	return c, nil
}

// newRotatingWriter <dir>/<name>[.<suffix>].log 파일에 기록하는 lumberjack Logger를 생성합니다.
func newRotatingWriter(dir, suffix string, opts Options) *lumberjack.Logger {
	name := opts.Name
	if suffix != "" {
		name += "." + suffix
	}

	maxSize := opts.MaxSizeMB
	if maxSize == 0 {
		maxSize = defaultMaxSizeMB
	}
	maxBackups := opts.MaxBackups
	if maxBackups == 0 {
		maxBackups = defaultMaxBackups
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, name+"."+fileExt),
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     opts.MaxAge,
		LocalTime:  true,
	}
}

// callerPrettyfier 호출 위치를 "...<패키지 상대 경로>.<함수>(line:N)" 형태로 줄여서 출력합니다.
func callerPrettyfier(prefix string) func(*runtime.Frame) (string, string) {
	return func(frame *runtime.Frame) (string, string) {
		function := frame.Function
		if prefix != "" {
			if cut, ok := strings.CutPrefix(function, prefix); ok {
				function = "..." + cut
			}
		}
		return function + "(line:" + strconv.Itoa(frame.Line) + ")", ""
	}
}
