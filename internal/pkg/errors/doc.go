// Package errors 원격 작업 핸들 전반에서 사용하는 타입 기반 에러 체계를 제공합니다.
//
// 모든 에러는 ErrorType으로 분류되며 Wrap 계열 함수로 원인 에러를 체이닝합니다.
// 호출자는 Is 함수로 에러의 성격을 판별하여 치명적인 에러(설정 오류, 작업 등록 실패)와
// 성능 저하만 일으키는 에러(상태 조회 실패, 원격 레코드 삭제 실패 등)를 구분합니다.
//
// # 기본 사용법
//
//	err := errors.New(errors.InvalidInput, "컨테이너 이미지가 지정되지 않았습니다")
//
//	if err != nil {
//	    return errors.Wrap(err, errors.Unavailable, "작업 상태 조회 실패")
//	}
//
//	if errors.Is(err, errors.Unavailable) {
//	    // 일시적인 조회 실패: 캐시된 상태를 유지한다
//	}
//
// # 작업 핸들에서의 ErrorType 매핑
//
//   - InvalidInput: 설정 오류 (필수 컨테이너 이미지 누락, 잘못된 보존 정책 등)
//   - ExecutionFailed: 스케줄러가 작업 등록을 거부했거나, 원격 실행 결과가 실패를 알린 경우
//   - Unavailable: 스케줄러 API 통신 실패 (일시적인 오류로 간주)
//   - System: 로컬 파일(종료 코드 파일) 읽기 실패, 원격 레코드 삭제 실패 등 인프라 수준의 오류
//   - NotFound: 스케줄러에 해당 작업 레코드가 존재하지 않음
//   - Internal: 잘못된 상태 전이 등 내부 로직 오류
package errors
