package contract

import (
	"strings"

	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
)

// TaskKey 스케줄러가 제출 시점에 발급하는 (Job, Task) 식별자 쌍입니다.
// 발급 이후 변경되지 않으며, 모든 원격 호출과 상태 캐시의 키로 사용됩니다.
type TaskKey struct {
	JobID  string
	TaskID string
}

func (k TaskKey) IsZero() bool {
	return k.JobID == "" && k.TaskID == ""
}

func (k TaskKey) Validate() error {
	if strings.TrimSpace(k.JobID) == "" || strings.TrimSpace(k.TaskID) == "" {
		return apperrors.Newf(apperrors.InvalidInput, "TaskKey는 JobID와 TaskID를 모두 포함해야 합니다: '%s'", k)
	}
	return nil
}

// String "<job>/<task>" 형태의 안정적인 표현을 반환합니다. 로그와 추적 기록의 NativeID로 사용됩니다.
func (k TaskKey) String() string {
	return k.JobID + "/" + k.TaskID
}
