package task

import (
	"fmt"

	"github.com/darkkaiser/remote-task/internal/contract"
)

// Status 핸들이 판단한 작업의 로컬 상태입니다. 값은 앞으로만 진행합니다.
type Status int

const (
	StatusCreated Status = iota
	StatusSubmitted
	StatusRunning
	StatusCompleted
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "CREATED"
	case StatusSubmitted:
		return "SUBMITTED"
	case StatusRunning:
		return "RUNNING"
	case StatusCompleted:
		return "COMPLETED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// phase 핸들 상태의 불변 스냅샷입니다.
//
//	created                          : key 없음
//	submitted(key) / running(key)    : key, submitted 설정
//	completed(key, outcome)          : outcome까지 설정
//
// 전이할 때마다 새 값을 만들어 atomic.Pointer로 교체하므로, 읽는 쪽은 잠금 없이 일관된 값을 봅니다.
type phase struct {
	status    Status
	key       contract.TaskKey
	submitted *contract.TaskDescriptor
	outcome   *Outcome
}

func (p *phase) hasKey() bool {
	return p.status >= StatusSubmitted
}

func (p *phase) with(status Status) *phase {
	next := *p
	next.status = status
	return &next
}
