package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// AppError 타입, 메시지, 원인, 생성 위치를 함께 담는 에러입니다.
type AppError struct {
	errType ErrorType
	message string
	cause   error
	stack   []StackFrame
}

func (e *AppError) Type() ErrorType { return e.errType }
func (e *AppError) Message() string { return e.message }
func (e *AppError) Stack() []StackFrame { return e.stack }
func (e *AppError) Unwrap() error { return e.cause }

func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(e.errType.String())
	sb.WriteString("] ")
	sb.WriteString(e.message)
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

// Format %+v로 출력하면 에러 체인 전체와 가장 안쪽 AppError의 스택을 함께 출력합니다.
func (e *AppError) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		e.writeDetail(s)
	case verb == 'q':
		fmt.Fprintf(s, "%q", e.Error())
	default:
		io.WriteString(s, e.Error())
	}
}

func (e *AppError) writeDetail(w fmt.State) {
	fmt.Fprintf(w, "[%s] %s", e.errType, e.message)

	// 원인이 AppError이면 그쪽에서 스택을 출력한다.
	var inner *AppError
	if !errors.As(e.cause, &inner) && len(e.stack) > 0 {
		io.WriteString(w, "\nStack trace:")
		for _, f := range e.stack {
			fn := f.Function
			if i := strings.LastIndexByte(fn, '/'); i >= 0 {
				fn = fn[i+1:]
			}
			fmt.Fprintf(w, "\n\t%s:%d %s", f.File, f.Line, fn)
		}
	}

	if e.cause == nil {
		return
	}
	io.WriteString(w, "\nCaused by:\n")
	if f, ok := e.cause.(fmt.Formatter); ok {
		f.Format(w, 'v')
		return
	}
	fmt.Fprintf(w, "\t%v", e.cause)
}

// New 새로운 에러를 생성합니다.
func New(errType ErrorType, message string) error {
	return &AppError{errType: errType, message: message, stack: captureStack(defaultCallerSkip)}
}

// Newf 포맷 문자열로 메시지를 만들어 새로운 에러를 생성합니다.
func Newf(errType ErrorType, format string, args ...any) error {
	return &AppError{errType: errType, message: fmt.Sprintf(format, args...), stack: captureStack(defaultCallerSkip)}
}

// Wrap err에 타입과 메시지를 덧붙입니다. err이 nil이면 nil을 반환합니다.
func Wrap(err error, errType ErrorType, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{errType: errType, message: message, cause: err, stack: captureStack(defaultCallerSkip)}
}

// Wrapf 포맷 문자열을 사용하는 Wrap입니다. err이 nil이면 nil을 반환합니다.
func Wrapf(err error, errType ErrorType, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &AppError{errType: errType, message: fmt.Sprintf(format, args...), cause: err, stack: captureStack(defaultCallerSkip)}
}

// Is 에러 체인 어딘가에 errType의 AppError가 있는지 확인합니다.
func Is(err error, errType ErrorType) bool {
	found := false
	walk(err, func(e *AppError) bool {
		found = e.errType == errType
		return !found
	})
	return found
}

// As 표준 errors.As를 그대로 노출합니다.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// RootCause 에러 체인의 가장 안쪽 에러를 반환합니다.
func RootCause(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	return err
}

// TypeOf 가장 바깥쪽 AppError의 ErrorType을 반환합니다. AppError가 없으면 Unknown입니다.
func TypeOf(err error) ErrorType {
	t := Unknown
	walk(err, func(e *AppError) bool {
		t = e.errType
		return false
	})
	return t
}

// UnderlyingType 가장 안쪽 AppError의 ErrorType을 반환합니다. AppError가 없으면 Unknown입니다.
//
//	err := Wrap(New(Unavailable, "connection refused"), ExecutionFailed, "submit failed")
//	UnderlyingType(err) // Unavailable
func UnderlyingType(err error) ErrorType {
	t := Unknown
	walk(err, func(e *AppError) bool {
		t = e.errType
		return true
	})
	return t
}

// IsTransient 다시 시도하면 해소될 수 있는 에러(Unavailable, Timeout)인지 판별합니다.
// 상태 조회 실패를 기록할 때 로그 수준을 정하는 데 사용합니다.
func IsTransient(err error) bool {
	return Is(err, Unavailable) || Is(err, Timeout)
}

// walk 체인을 바깥에서 안쪽으로 따라가며 AppError마다 fn을 호출합니다. fn이 false를 반환하면 멈춥니다.
func walk(err error, fn func(*AppError) bool) {
	for err != nil {
		if e, ok := err.(*AppError); ok && !fn(e) {
			return
		}
		err = errors.Unwrap(err)
	}
}
