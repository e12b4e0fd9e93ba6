package log

import (
	"errors"
	"fmt"
	"os"
)

// Options Setup이 만드는 출력 대상의 설정입니다.
type Options struct {
	Name  string // 로그 파일 이름의 앞부분
	Dir   string // 비어 있으면 "logs"
	Level Level

	// lumberjack 순환 정책. 0이면 MaxAge는 보관 기간 제한 없음, 나머지는 기본값.
	MaxAge     int
	MaxSizeMB  int
	MaxBackups int

	EnableCriticalLog bool // Error 이상을 <name>.critical.log에 따로 남긴다
	EnableVerboseLog  bool // Debug 이하를 <name>.verbose.log에 따로 남긴다
	EnableConsoleLog  bool

	ReportCaller     bool
	CallerPathPrefix string // 호출 위치에서 잘라낼 모듈 경로
}

func (opts *Options) Validate() error {
	if opts.Name == "" {
		return errors.New("로그 파일 이름(Name)이 비어 있습니다")
	}
	if opts.Dir != "" {
		if fi, err := os.Stat(opts.Dir); err == nil && !fi.IsDir() {
			return fmt.Errorf("로그 디렉토리 경로(%s)에 파일이 있습니다", opts.Dir)
		}
	}

	var errs []error
	for name, v := range map[string]int{"MaxAge": opts.MaxAge, "MaxSizeMB": opts.MaxSizeMB, "MaxBackups": opts.MaxBackups} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s는 0 이상이어야 합니다: %d", name, v))
		}
	}
	return errors.Join(errs...)
}
