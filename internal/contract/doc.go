// Package contract 원격 클러스터 스케줄러와 작업 핸들 사이의 경계를 정의합니다.
//
// 작업 식별자(TaskKey), 제출 명세(TaskDescriptor), 원격 상태(RemoteState)와
// 스케줄러 클라이언트 인터페이스(RemoteClient)를 제공하며, 구현체는 internal/scheduler 하위에 있습니다.
package contract
