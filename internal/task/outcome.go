package task

import (
	"math"
	"os"
	"strconv"
	"strings"

	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
	applog "github.com/darkkaiser/remote-task/pkg/log"
)

// ExitCodeUnknown 종료 코드 파일을 읽을 수 없을 때 사용하는 값입니다. 호출자는 이를 실패로 취급합니다.
const ExitCodeUnknown = math.MaxInt32

// Outcome 완료된 작업의 실행 결과입니다.
type Outcome struct {
	ExitCode int

	// Stdout, Stderr 작업이 남긴 표준 출력/에러 파일 경로
	Stdout string
	Stderr string

	// Err 스케줄러가 실행 실패를 보고한 경우 그 사유 (ExecutionFailed)
	Err error
}

// Succeeded 종료 코드가 0이고 스케줄러가 실패를 보고하지 않았는지 반환합니다.
func (o *Outcome) Succeeded() bool {
	return o != nil && o.ExitCode == 0 && o.Err == nil
}

// ReadExitFile 종료 코드 파일에서 정수 하나를 읽습니다.
// 파일이 없거나 내용이 정수가 아니면 에러 대신 ExitCodeUnknown을 반환합니다.
func ReadExitFile(path string) int {
	code, err := parseExitFile(path)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"path":  path,
			"error": err,
		}).Debug("종료 코드 파일을 읽지 못했습니다: 알 수 없는 종료 코드로 처리합니다")

		return ExitCodeUnknown
	}
	return code
}

func parseExitFile(path string) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, apperrors.New(apperrors.System, "종료 코드 파일 경로가 지정되지 않았습니다")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, apperrors.Wrapf(err, apperrors.System, "종료 코드 파일을 읽을 수 없습니다: '%s'", path)
	}

	code, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, apperrors.Wrapf(err, apperrors.System, "종료 코드 파일의 내용이 정수가 아닙니다: '%s'", path)
	}
	return code, nil
}
