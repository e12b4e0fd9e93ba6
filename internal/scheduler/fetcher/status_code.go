package fetcher

import (
	"io"
	"net/http"
	"slices"

	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
)

// maxBodySnippetBytes 에러에 포함할 응답 본문의 최대 크기
const maxBodySnippetBytes = 4096

// StatusCodeFetcher 허용되지 않은 상태 코드의 응답을 HTTPStatusError로 바꿉니다.
type StatusCodeFetcher struct {
	delegate Fetcher

	// allowed 비어 있으면 2xx 전체를 허용한다.
	allowed []int
}

var _ Fetcher = (*StatusCodeFetcher)(nil)

func NewStatusCodeFetcher(delegate Fetcher, allowed ...int) *StatusCodeFetcher {
	return &StatusCodeFetcher{delegate: delegate, allowed: allowed}
}

func (f *StatusCodeFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil {
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}
		return nil, err
	}
	if f.accepts(resp.StatusCode) {
		return resp, nil
	}

	statusErr := newHTTPStatusError(req, resp)
	drainAndCloseBody(resp.Body)
	return nil, statusErr
}

func (f *StatusCodeFetcher) accepts(code int) bool {
	if len(f.allowed) == 0 {
		return code >= 200 && code < 300
	}
	return slices.Contains(f.allowed, code)
}

// newHTTPStatusError 본문 앞부분을 읽어 에러에 담습니다. 본문을 닫지는 않습니다.
func newHTTPStatusError(req *http.Request, resp *http.Response) *HTTPStatusError {
	var snippet []byte
	if resp.Body != nil {
		snippet, _ = io.ReadAll(io.LimitReader(resp.Body, maxBodySnippetBytes))
	}

	return &HTTPStatusError{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		URL:         redactURL(req.URL),
		Header:      redactHeaders(resp.Header),
		BodySnippet: string(snippet),
		Cause:       apperrors.Newf(classifyStatusCode(resp.StatusCode), "스케줄러 API가 %d 상태 코드를 반환했습니다", resp.StatusCode),
	}
}

// classifyStatusCode HTTP 상태 코드를 에러 타입으로 분류합니다.
//
//   - 5xx, 429, 408: Unavailable (일시적 장애, 재시도 대상)
//   - 404: NotFound
//   - 401, 403: Unauthorized, Forbidden
//   - 400, 422: InvalidInput (스케줄러가 요청을 거부)
//   - 그 외: ExecutionFailed
func classifyStatusCode(code int) apperrors.ErrorType {
	switch {
	case code >= 500, code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return apperrors.Unavailable
	case code == http.StatusNotFound:
		return apperrors.NotFound
	case code == http.StatusUnauthorized:
		return apperrors.Unauthorized
	case code == http.StatusForbidden:
		return apperrors.Forbidden
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		return apperrors.InvalidInput
	default:
		return apperrors.ExecutionFailed
	}
}
