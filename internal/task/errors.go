package task

import (
	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
)

var (
	// ErrAlreadySubmitted 이미 제출된 핸들에 Submit을 다시 호출했을 때 반환됩니다.
	ErrAlreadySubmitted = apperrors.New(apperrors.InvalidInput, "이미 제출된 작업입니다")

	// ErrClientRequired RemoteClient 없이 핸들을 생성하려 할 때 반환됩니다.
	ErrClientRequired = apperrors.New(apperrors.InvalidInput, "스케줄러 클라이언트(RemoteClient)가 지정되지 않았습니다")
)

func newErrWrapperFailed(err error) error {
	return apperrors.Wrap(err, apperrors.ExecutionFailed, "실행 래퍼 생성에 실패했습니다")
}

func newErrExecutionFailed(message string) error {
	if message == "" {
		message = "원격 실행이 실패했습니다"
	}
	return apperrors.New(apperrors.ExecutionFailed, message)
}

func newErrCleanupFailed(err error) error {
	return apperrors.Wrap(err, apperrors.System, "완료된 원격 Job 삭제에 실패했습니다")
}
