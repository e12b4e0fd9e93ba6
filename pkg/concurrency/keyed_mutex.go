package concurrency

import (
	"context"
	"sync"
)

// KeyedMutex 키 단위의 상호 배제를 제공합니다.
//
// 같은 키를 잡으려는 호출자끼리만 서로를 기다리고, 다른 키는 병렬로 진행됩니다.
// 보유자와 대기자가 모두 사라진 키는 맵에서 제거됩니다.
type KeyedMutex[K comparable] struct {
	mu    sync.Mutex
	slots map[K]*slot
}

// slot 키 하나의 잠금입니다. 버퍼 1짜리 채널에 값이 들어 있으면 잠긴 상태입니다.
type slot struct {
	held  chan struct{}
	users int
}

func NewKeyedMutex[K comparable]() *KeyedMutex[K] {
	return &KeyedMutex[K]{slots: make(map[K]*slot)}
}

// Len 보유자나 대기자가 있는 키의 개수입니다.
func (km *KeyedMutex[K]) Len() int {
	km.mu.Lock()
	defer km.mu.Unlock()
	return len(km.slots)
}

// Lock key의 잠금을 얻을 때까지 기다립니다.
func (km *KeyedMutex[K]) Lock(key K) {
	s := km.join(key)
	s.held <- struct{}{}
}

// LockContext Lock과 같지만 ctx가 끝나면 잠금 없이 ctx.Err()를 반환합니다.
// 에러가 반환된 경우 Unlock을 호출하면 안 됩니다.
func (km *KeyedMutex[K]) LockContext(ctx context.Context, key K) error {
	s := km.join(key)
	select {
	case s.held <- struct{}{}:
		return nil
	case <-ctx.Done():
		km.leave(key, s)
		return ctx.Err()
	}
}

// Unlock key의 잠금을 놓습니다. 잠기지 않은 키에 호출하면 패닉이 발생합니다.
func (km *KeyedMutex[K]) Unlock(key K) {
	km.mu.Lock()
	s, ok := km.slots[key]
	km.mu.Unlock()

	if ok {
		select {
		case <-s.held:
			km.leave(key, s)
			return
		default:
		}
	}
	panic("concurrency: 잠기지 않은 키의 잠금 해제")
}

func (km *KeyedMutex[K]) join(key K) *slot {
	km.mu.Lock()
	defer km.mu.Unlock()

	s, ok := km.slots[key]
	if !ok {
		s = &slot{held: make(chan struct{}, 1)}
		km.slots[key] = s
	}
	s.users++
	return s
}

func (km *KeyedMutex[K]) leave(key K, s *slot) {
	km.mu.Lock()
	defer km.mu.Unlock()

	s.users--
	if s.users == 0 {
		delete(km.slots, key)
	}
}
