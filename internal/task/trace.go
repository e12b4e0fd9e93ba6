package task

import (
	"context"

	"github.com/darkkaiser/remote-task/internal/contract"
)

// TraceRecord 실행 추적 보고에 포함되는 작업 정보입니다.
type TraceRecord struct {
	// NativeID 스케줄러 식별자를 "<job>/<task>" 형태로 나타낸 값. 제출 전이면 빈 문자열
	NativeID string `json:"native_id"`
	JobID    string `json:"job_id"`
	TaskID   string `json:"task_id"`
	Status   string `json:"status"`

	Machine *contract.MachineInfo `json:"machine,omitempty"`
}

// TraceRecord 현재 상태로 추적 레코드를 만듭니다. 머신 정보는 필요하면 조회합니다.
func (h *Handle) TraceRecord(ctx context.Context) TraceRecord {
	p := h.phase.Load()

	rec := TraceRecord{Status: p.status.String()}
	if !p.hasKey() {
		return rec
	}

	rec.NativeID = p.key.String()
	rec.JobID = p.key.JobID
	rec.TaskID = p.key.TaskID
	rec.Machine = h.MachineInfo(ctx)

	return rec
}
