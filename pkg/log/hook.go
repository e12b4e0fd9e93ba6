package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// route 출력 대상이 받아들이는 로그 레벨 범위입니다.
type route int

const (
	routeAll      route = iota // 모든 레벨 (콘솔)
	routeMain                  // INFO 이상
	routeCritical              // ERROR 이상
	routeVerbose               // DEBUG 이하
)

func (r route) accepts(l Level) bool {
	switch r {
	case routeMain:
		return l <= InfoLevel
	case routeCritical:
		return l <= ErrorLevel
	case routeVerbose:
		return l >= DebugLevel
	default:
		return true
	}
}

// sink 로그 출력 대상 하나입니다.
type sink struct {
	name  string
	w     io.Writer
	route route

	// bestEffort 쓰기 실패를 Fire의 에러로 전파하지 않는다. (콘솔)
	bestEffort bool
}

// hook 로그 Entry를 레벨에 맞는 sink로 분배합니다.
//
// 폴링 루프가 남기는 대량의 Debug/Trace 로그는 verbose sink에만 기록되어 main 로그에 섞이지 않습니다.
type hook struct {
	sinks     []sink
	formatter Formatter

	mu     sync.RWMutex // Fire(Read Lock)와 Close(Write Lock) 사이의 동시성 제어
	closed bool
}

func newHook(formatter Formatter, sinks ...sink) *hook {
	return &hook{sinks: sinks, formatter: formatter}
}

func (h *hook) Levels() []Level {
	return logrus.AllLevels
}

// Fire 하나의 sink에서 쓰기가 실패해도 나머지 sink에는 계속 기록하고, 첫 번째 실패만 반환합니다.
func (h *hook) Fire(entry *Entry) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed || len(h.sinks) == 0 {
		return nil
	}

	msg, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}

	var firstErr error
	for _, s := range h.sinks {
		if s.w == nil || !s.route.accepts(entry.Level) {
			continue
		}
		if _, err := s.w.Write(msg); err != nil {
			fmt.Fprintf(os.Stderr, "[LOG-SYSTEM-FAILURE] %s 로그 쓰기 실패: %v\n", s.name, err)
			if !s.bestEffort && firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// Close 이후의 Fire 호출을 모두 무시합니다. 진행 중인 Fire가 끝날 때까지 대기합니다.
func (h *hook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	return nil
}
