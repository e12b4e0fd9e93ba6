package errors

import (
	"path/filepath"
	"runtime"
)

const (
	// defaultCallerSkip runtime.Callers, captureStack, 생성 함수를 건너뛰면 에러를 만든 코드가 첫 프레임이 된다.
	defaultCallerSkip = 3

	maxStackFrames = 5
)

// StackFrame 에러가 만들어진 지점의 호출 프레임 하나입니다.
type StackFrame struct {
	File     string
	Line     int
	Function string
}

func captureStack(skip int) []StackFrame {
	var pcs [maxStackFrames]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return nil
	}

	stack := make([]StackFrame, 0, n)
	frames := runtime.CallersFrames(pcs[:n])
	for more := true; more; {
		var f runtime.Frame
		f, more = frames.Next()
		stack = append(stack, StackFrame{File: filepath.Base(f.File), Line: f.Line, Function: f.Function})
	}
	return stack
}
