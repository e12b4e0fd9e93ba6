package fetcher

import (
	"fmt"
	"net/http"
	"strings"
)

// HTTPStatusError 허용되지 않은 HTTP 상태 코드를 받았을 때의 구조화된 에러입니다.
//
// Cause에는 상태 코드를 분류한 apperrors.AppError가 담기므로, 호출자는 apperrors.Is로
// 에러 종류(Unavailable, NotFound 등)를 판별하고 errors.As로 상태 코드를 꺼낼 수 있습니다.
//
//	var statusErr *fetcher.HTTPStatusError
//	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
//	    // 이미 삭제된 Job
//	}
type HTTPStatusError struct {
	StatusCode int
	Status     string

	// URL 민감 정보가 마스킹된 요청 URL
	URL string

	// Header 민감 헤더가 마스킹된 응답 헤더
	Header http.Header

	// BodySnippet 응답 본문의 앞부분 (최대 4KB). 스케줄러가 남긴 거부 사유가 주로 여기에 담긴다.
	BodySnippet string

	Cause error
}

func (e *HTTPStatusError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "HTTP %d (%s)", e.StatusCode, e.Status)
	if e.URL != "" {
		sb.WriteString(" URL: ")
		sb.WriteString(e.URL)
	}
	if e.BodySnippet != "" {
		sb.WriteString(", Body: ")
		sb.WriteString(e.BodySnippet)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *HTTPStatusError) Unwrap() error { return e.Cause }
