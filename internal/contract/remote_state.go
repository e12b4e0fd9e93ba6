package contract

// RemoteState 스케줄러가 보고하는 작업 상태 문자열입니다.
// 대부분의 값은 해석하지 않고 그대로 전달하며, 아래의 종료 표식만 의미를 가집니다.
type RemoteState string

const (
	// StateFailed 스케줄러가 작업을 실패로 판정한 상태
	StateFailed RemoteState = "FAILED"

	// StateFinished 작업이 종료되어 종료 시각이 기록된 상태
	StateFinished RemoteState = "FINISHED_AT"

	// 참고용 상태. 핸들의 판단에는 사용하지 않는다.
	StatePending RemoteState = "PENDING"
	StateRunning RemoteState = "RUNNING"
)

func (s RemoteState) IsTerminal() bool {
	return s == StateFailed || s == StateFinished
}

func (s RemoteState) String() string {
	return string(s)
}
