package fetcher

import (
	"fmt"

	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
)

var (
	// ErrMaxRetriesExceeded 재시도 횟수를 모두 소진했음을 나타냅니다.
	ErrMaxRetriesExceeded = apperrors.New(apperrors.Unavailable, "최대 재시도 횟수를 초과하였습니다")
)

func newErrMaxRetriesExceeded(lastErr error) error {
	return apperrors.Wrap(lastErr, apperrors.Unavailable, "최대 재시도 횟수를 초과하였습니다")
}

func newErrRetryAfterExceeded(retryAfter, maxDelay string) error {
	return apperrors.New(apperrors.Unavailable, fmt.Sprintf("서버가 요구한 재시도 대기 시간(%s)이 허용된 최대 대기 시간(%s)을 초과합니다", retryAfter, maxDelay))
}

func newErrGetBodyFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "재시도를 위한 요청 본문 재생성에 실패했습니다")
}

// NewErrResponseBodyTooLarge 응답 본문을 읽는 도중 크기 제한을 초과했을 때의 에러를 생성합니다.
func NewErrResponseBodyTooLarge(limit int64) error {
	return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("응답 본문의 크기가 허용된 제한(%d 바이트)을 초과하였습니다", limit))
}

// NewErrResponseBodyTooLargeByContentLength Content-Length 헤더만으로 제한 초과가 확인된 경우의 에러를 생성합니다.
func NewErrResponseBodyTooLargeByContentLength(contentLength, limit int64) error {
	return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("응답 본문의 크기(%d 바이트)가 허용된 제한(%d 바이트)을 초과하였습니다", contentLength, limit))
}
