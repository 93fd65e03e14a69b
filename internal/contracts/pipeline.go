package contracts

// RunState 정의 (SSOT)
// 모든 로그와 RunReport에서 이 상수를 사용해야 함
//
// 마켓 스캔 흐름:
//   Idle → FetchingList → ScanningTickers → Persisting → Done
//                 └──────────────(fatal)──────────┴──→ Failed

// RunState represents the state of one market scan run
type RunState string

const (
	// StateIdle: 실행 전
	StateIdle RunState = "idle"

	// StateFetchingList: MarketRegistry에서 종목 리스트 조회
	// 실패 조건: unknown market, empty list
	StateFetchingList RunState = "fetching_list"

	// StateScanningTickers: 종목별 fetch → derive → screen
	// 종목 단위 실패는 run 실패로 전이하지 않음
	StateScanningTickers RunState = "scanning_tickers"

	// StatePersisting: 일별 파일 저장 + top picks 재생성
	StatePersisting RunState = "persisting"

	// StateDone: 성공 (일부 종목 실패 포함 가능)
	StateDone RunState = "done"

	// StateFailed: 리스트 조회 또는 저장 실패
	StateFailed RunState = "failed"
)

// String returns the state name
func (s RunState) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition can happen
func (s RunState) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition checks whether moving from s to next is allowed
func (s RunState) CanTransition(next RunState) bool {
	if next == StateFailed {
		return !s.IsTerminal()
	}
	switch s {
	case StateIdle:
		return next == StateFetchingList
	case StateFetchingList:
		return next == StateScanningTickers
	case StateScanningTickers:
		return next == StatePersisting
	case StatePersisting:
		return next == StateDone
	default:
		return false
	}
}
