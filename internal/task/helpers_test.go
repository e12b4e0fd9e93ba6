package task

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/darkkaiser/remote-task/internal/contract"
	"github.com/darkkaiser/remote-task/internal/task/statuscache"
	"github.com/stretchr/testify/require"
)

// fakeClock 테스트에서 수동으로 진행시키는 시계
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// exitCounter 종료 코드 파일 읽기 횟수를 세는 리더
type exitCounter struct {
	calls atomic.Int32
	code  int
}

func (e *exitCounter) read(string) int {
	e.calls.Add(1)
	return e.code
}

var testKey = contract.TaskKey{JobID: "job-7", TaskID: "task-7"}

func newDescriptor(t *testing.T, exitContent string) *contract.TaskDescriptor {
	t.Helper()

	dir := t.TempDir()
	d := &contract.TaskDescriptor{
		Name:       "T1",
		Image:      "registry.local/worker:1.0",
		Command:    "run.sh",
		StdoutFile: filepath.Join(dir, ".command.out"),
		StderrFile: filepath.Join(dir, ".command.err"),
		ExitFile:   filepath.Join(dir, ".exitcode"),
	}
	if exitContent != "" {
		require.NoError(t, os.WriteFile(d.ExitFile, []byte(exitContent), 0o644))
	}
	return d
}

func newTestCache(clock *fakeClock) *statuscache.Cache {
	return statuscache.New(statuscache.WithClock(clock.Now))
}
