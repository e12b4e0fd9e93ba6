package task

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadExitFile(t *testing.T) {
	dir := t.TempDir()

	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	tests := []struct {
		name string
		path string
		want int
	}{
		{"정상", write("ok", "0"), 0},
		{"개행과 공백", write("ws", " 42 \n"), 42},
		{"음수", write("neg", "-1"), -1},
		{"정수가 아님", write("nan", "abc"), ExitCodeUnknown},
		{"빈 파일", write("empty", ""), ExitCodeUnknown},
		{"파일 없음", filepath.Join(dir, "missing"), ExitCodeUnknown},
		{"경로 없음", "", ExitCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReadExitFile(tt.path))
		})
	}
}

func TestOutcome_Succeeded(t *testing.T) {
	tests := []struct {
		name    string
		outcome *Outcome
		want    bool
	}{
		{"nil", nil, false},
		{"종료 코드 0", &Outcome{ExitCode: 0}, true},
		{"종료 코드 1", &Outcome{ExitCode: 1}, false},
		{"알 수 없는 종료 코드", &Outcome{ExitCode: ExitCodeUnknown}, false},
		{"실행 실패 보고", &Outcome{ExitCode: 0, Err: apperrors.New(apperrors.ExecutionFailed, "oom")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.outcome.Succeeded())
		})
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "CREATED", StatusCreated.String())
	assert.Equal(t, "SUBMITTED", StatusSubmitted.String())
	assert.Equal(t, "RUNNING", StatusRunning.String())
	assert.Equal(t, "COMPLETED", StatusCompleted.String())
	assert.Equal(t, "Status(9)", Status(9).String())
	assert.True(t, StatusCreated < StatusSubmitted && StatusSubmitted < StatusRunning && StatusRunning < StatusCompleted)
}
