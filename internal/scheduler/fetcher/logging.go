package fetcher

import (
	"net/http"
	"time"

	applog "github.com/darkkaiser/remote-task/pkg/log"
)

// LoggingFetcher 재시도까지 끝난 요청의 결과와 걸린 시간을 남깁니다.
// 상태 폴링이 초 단위로 일어나므로 성공은 Debug, 실패는 Warn으로 기록합니다.
type LoggingFetcher struct {
	delegate Fetcher
}

var _ Fetcher = (*LoggingFetcher)(nil)

func NewLoggingFetcher(delegate Fetcher) *LoggingFetcher {
	return &LoggingFetcher{delegate: delegate}
}

func (f *LoggingFetcher) Do(req *http.Request) (*http.Response, error) {
	began := time.Now()
	resp, err := f.delegate.Do(req)

	entry := applog.WithComponentAndFields(component, applog.Fields{
		"method":   req.Method,
		"url":      redactURL(req.URL),
		"duration": time.Since(began).String(),
	}).WithContext(req.Context())

	if err != nil {
		entry.WithField("error", err.Error()).Warn("스케줄러 API 호출 실패")
		return nil, err
	}

	entry.WithField("status_code", resp.StatusCode).Debug("스케줄러 API 호출 완료")
	return resp, nil
}
