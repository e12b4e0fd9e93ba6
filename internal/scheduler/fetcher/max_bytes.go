package fetcher

import (
	"io"
	"net/http"
)

const (
	// defaultMaxBytes 응답 본문의 기본 크기 제한 (1MB). 스케줄러 API 응답은 작은 JSON이다.
	defaultMaxBytes = 1 << 20

	// NoLimit 응답 본문에 크기 제한을 적용하지 않음을 나타냅니다.
	NoLimit = -1
)

// limitedBody limit 바이트를 넘겨 읽으려 하면 InvalidInput 에러를 반환하는 응답 본문입니다.
type limitedBody struct {
	io.ReadCloser

	limit     int64
	remaining int64
}

func (b *limitedBody) Read(p []byte) (int, error) {
	if b.remaining < 0 {
		return 0, NewErrResponseBodyTooLarge(b.limit)
	}

	// 한 바이트를 더 읽어 보아야 정확히 limit 크기인 본문과 초과한 본문을 구분할 수 있다.
	if int64(len(p)) > b.remaining+1 {
		p = p[:b.remaining+1]
	}

	n, err := b.ReadCloser.Read(p)
	if int64(n) > b.remaining {
		n = int(b.remaining)
		b.remaining = -1
		return n, NewErrResponseBodyTooLarge(b.limit)
	}
	b.remaining -= int64(n)
	return n, err
}

// MaxBytesFetcher HTTP 응답 본문의 크기를 제한하는 미들웨어입니다.
//
// Content-Length 헤더로 먼저 차단하고, 헤더가 없거나 실제 크기와 다른 경우에 대비해 읽는 시점에도 제한합니다.
type MaxBytesFetcher struct {
	delegate Fetcher
	limit    int64
}

// NewMaxBytesFetcher 새로운 MaxBytesFetcher를 생성합니다.
// limit이 NoLimit이면 delegate를 그대로 반환하고, 0 이하이면 기본값(1MB)을 사용합니다.
func NewMaxBytesFetcher(delegate Fetcher, limit int64) Fetcher {
	switch {
	case limit == NoLimit:
		return delegate
	case limit <= 0:
		limit = defaultMaxBytes
	}
	return &MaxBytesFetcher{delegate: delegate, limit: limit}
}

func (f *MaxBytesFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil {
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}
		return nil, err
	}

	if resp.ContentLength > f.limit {
		drainAndCloseBody(resp.Body)
		return nil, NewErrResponseBodyTooLargeByContentLength(resp.ContentLength, f.limit)
	}

	resp.Body = &limitedBody{ReadCloser: resp.Body, limit: f.limit, remaining: f.limit}
	return resp, nil
}
