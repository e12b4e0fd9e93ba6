package fetcher

import (
	"io"
)

// maxDrainBytes 커넥션을 살리기 위해 버릴 응답 본문의 최대 크기입니다.
const maxDrainBytes = 64 << 10

// drainAndCloseBody 남은 본문을 maxDrainBytes까지 읽어 버리고 닫습니다.
// 그보다 긴 본문이 남은 커넥션은 재사용되지 않는다.
func drainAndCloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, body, maxDrainBytes)
	_ = body.Close()
}
