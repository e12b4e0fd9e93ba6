package fetcher

import (
	"net/http"
	"time"
)

const (
	// defaultTimeout 요청 1회(응답 본문 수신 포함)의 기본 제한 시간
	defaultTimeout = 30 * time.Second

	// defaultUserAgent 스케줄러 측 접근 로그에서 클라이언트를 식별하기 위한 User-Agent
	defaultUserAgent = "remote-task/1.0"
)

// HTTPFetcher 실제 네트워크 I/O를 수행하는 체인의 최내곽 Fetcher입니다.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

var _ Fetcher = (*HTTPFetcher)(nil)

// Option HTTPFetcher 동작을 조정하는 함수형 옵션입니다.
type Option func(*HTTPFetcher)

// WithTimeout 요청 1회의 제한 시간을 지정합니다. 0 이하이면 기본값을 유지합니다.
func WithTimeout(timeout time.Duration) Option {
	return func(h *HTTPFetcher) {
		if timeout > 0 {
			h.client.Timeout = timeout
		}
	}
}

// WithTransport 기본 Transport 대신 사용할 RoundTripper를 지정합니다.
func WithTransport(rt http.RoundTripper) Option {
	return func(h *HTTPFetcher) {
		if rt != nil {
			h.client.Transport = rt
		}
	}
}

// WithUserAgent 요청에 User-Agent가 없을 때 채워 넣을 값을 지정합니다.
func WithUserAgent(ua string) Option {
	return func(h *HTTPFetcher) {
		if ua != "" {
			h.userAgent = ua
		}
	}
}

// NewHTTPFetcher 새로운 HTTPFetcher 인스턴스를 생성합니다.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	h := &HTTPFetcher{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
		userAgent: defaultUserAgent,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	return h
}

func (h *HTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}
		return nil, err
	}

	return resp, nil
}
