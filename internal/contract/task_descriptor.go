package contract

import (
	"fmt"
	"time"

	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
	"github.com/go-playground/validator/v10"
)

var descriptorValidator = validator.New()

// TaskDescriptor 원격 스케줄러에 제출할 작업 명세입니다. 핸들은 이 값을 읽기만 합니다.
type TaskDescriptor struct {
	Name    string            `json:"name"`
	Image   string            `json:"image" validate:"required"`
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	WorkDir string            `json:"workdir"`
	Env     map[string]string `json:"env"`

	// 작업 컨테이너가 남기는 산출물 경로 (공유 작업 디렉토리 기준)
	StdoutFile string `json:"stdout_file"`
	StderrFile string `json:"stderr_file"`
	ExitFile   string `json:"exit_file"`

	Resources Resources     `json:"resources"`
	Timeout   time.Duration `json:"timeout" validate:"gte=0"`
}

// Resources 스케줄러에 전달하는 자원 요구량 힌트입니다. 0은 스케줄러 기본값을 의미합니다.
type Resources struct {
	CPUs     float64 `json:"cpus" validate:"gte=0"`
	MemoryMB int64   `json:"memory_mb" validate:"gte=0"`
	DiskMB   int64   `json:"disk_mb" validate:"gte=0"`
}

// Validate 제출 전에 명세의 필수 항목과 값의 범위를 검증합니다.
func (d *TaskDescriptor) Validate() error {
	if d == nil {
		return apperrors.New(apperrors.InvalidInput, "작업 명세(TaskDescriptor)가 nil입니다")
	}

	if err := descriptorValidator.Struct(d); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			firstErr := validationErrors[0]
			if firstErr.StructField() == "Image" {
				return apperrors.New(apperrors.InvalidInput, "작업 명세에 컨테이너 이미지(image)가 지정되지 않았습니다")
			}
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("작업 명세의 %s 값이 올바르지 않습니다: '%v' (조건: %s)", firstErr.Namespace(), firstErr.Value(), firstErr.Tag()))
		}
		return apperrors.Wrap(err, apperrors.InvalidInput, "작업 명세 검증에 실패했습니다")
	}

	return nil
}
