// Package statuscache 작업별 원격 상태 관측값을 짧은 시간 동안 보관하여
// 여러 호출자가 같은 작업을 폴링하더라도 스케줄러 API 호출을 제한합니다.
package statuscache

import (
	"context"
	"sync"
	"time"

	"github.com/darkkaiser/remote-task/internal/contract"
	apperrors "github.com/darkkaiser/remote-task/internal/pkg/errors"
	"github.com/darkkaiser/remote-task/pkg/concurrency"
	applog "github.com/darkkaiser/remote-task/pkg/log"
)

// component 상태 캐시의 로깅용 컴포넌트 이름
const component = "task.statuscache"

// DefaultFreshness 관측값이 유효한 기간. 시각 T의 관측값은 [T, T+1s) 동안 재사용된다.
const DefaultFreshness = 1000 * time.Millisecond

// Observation 특정 시각에 조회한 원격 상태입니다.
type Observation struct {
	State      contract.RemoteState
	ObservedAt time.Time
}

// FreshAt now 시점에 관측값이 아직 유효한지 반환합니다.
func (o Observation) FreshAt(now time.Time, window time.Duration) bool {
	if now.Before(o.ObservedAt) {
		return false
	}
	return now.Sub(o.ObservedAt) < window
}

// FetchFunc 캐시가 만료되었을 때 원격 상태를 새로 조회하는 함수입니다.
type FetchFunc func(ctx context.Context) (contract.RemoteState, error)

// record 키 하나의 마지막 관측값과 마지막 실패한 조회 시도입니다.
type record struct {
	obs      Observation
	observed bool

	// failedAt, failure 실패한 조회가 있으면 그 시각부터 유효 기간 동안 다시 조회하지 않는다.
	failedAt time.Time
	failure  error
}

// Cache TaskKey별 최근 관측값을 보관합니다.
//
// 맵 자체는 RWMutex로 보호하고, 갱신(원격 조회)은 키 단위 뮤텍스로 직렬화하여
// 동시에 만료된 캐시를 조회한 호출자들 중 하나만 스케줄러를 호출하도록 합니다.
// 조회가 실패해도 유효 기간 동안은 같은 키로 스케줄러를 다시 호출하지 않습니다.
type Cache struct {
	mu      sync.RWMutex
	entries map[contract.TaskKey]record

	refreshing *concurrency.KeyedMutex[contract.TaskKey]

	freshness time.Duration
	now       func() time.Time
}

// Option Cache 생성 옵션입니다.
type Option func(*Cache)

// WithClock 현재 시각을 반환하는 함수를 지정합니다. 테스트에서 시간을 고정할 때 사용합니다.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithFreshness 관측값의 유효 기간을 변경합니다. 0 이하이면 무시합니다.
func WithFreshness(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.freshness = d
		}
	}
}

// New 새로운 Cache를 생성합니다.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:    make(map[contract.TaskKey]record),
		refreshing: concurrency.NewKeyedMutex[contract.TaskKey](),
		freshness:  DefaultFreshness,
		now:        time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Now 캐시가 사용하는 시계의 현재 시각을 반환합니다.
func (c *Cache) Now() time.Time {
	return c.now()
}

// Get 유효 기간 안의 관측값이 있을 때만 상태를 반환합니다.
func (c *Cache) Get(key contract.TaskKey) (contract.RemoteState, bool) {
	c.mu.RLock()
	r, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !r.observed || !r.obs.FreshAt(c.now(), c.freshness) {
		return "", false
	}
	return r.obs.State, true
}

// Put 관측값을 기록합니다. 기존 관측값보다 오래된 값은 무시합니다.
func (c *Cache) Put(key contract.TaskKey, state contract.RemoteState, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.entries[key]; ok && prev.observed && at.Before(prev.obs.ObservedAt) {
		return
	}
	c.entries[key] = record{obs: Observation{State: state, ObservedAt: at}, observed: true}
}

// Lookup 유효 기간과 관계없이 마지막 관측값을 반환합니다.
func (c *Cache) Lookup(key contract.TaskKey) (Observation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.entries[key]
	return r.obs, ok && r.observed
}

// Forget 관측값을 제거합니다.
func (c *Cache) Forget(key contract.TaskKey) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len 관측값이나 실패 기록이 있는 키의 개수를 반환합니다.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Resolve 유효한 관측값이 있으면 그대로 반환하고, 없으면 fetch로 새로 조회하여 기록합니다.
//
// 같은 키에 대한 동시 호출은 한 번의 조회 결과를 공유합니다. 조회에 실패하면 마지막(만료된)
// 관측값을 에러와 함께 반환하며, 관측값이 전혀 없으면 두 번째 반환값이 false입니다.
// 실패 후 유효 기간이 지나기 전의 호출은 fetch 없이 같은 관측값과 에러를 받습니다.
func (c *Cache) Resolve(ctx context.Context, key contract.TaskKey, fetch FetchFunc) (contract.RemoteState, bool, error) {
	if state, ok := c.Get(key); ok {
		return state, true, nil
	}

	if err := c.refreshing.LockContext(ctx, key); err != nil {
		return c.abandon(key, err)
	}
	defer c.refreshing.Unlock(key)

	// 대기하는 동안 다른 호출자가 갱신했을 수 있다.
	if state, ok := c.Get(key); ok {
		return state, true, nil
	}

	// 유효 기간 안에 실패한 조회가 있으면 스케줄러를 다시 부르지 않고 같은 결과를 돌려준다.
	if r, ok := c.recentFailure(key); ok {
		return r.obs.State, r.observed, r.failure
	}

	if err := ctx.Err(); err != nil {
		return c.abandon(key, err)
	}

	state, err := fetch(ctx)
	if err != nil {
		c.markFailed(key, err, c.now())
		obs, ok := c.Lookup(key)

		applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
			"task_key":   key.String(),
			"has_stale":  ok,
			"last_state": obs.State.String(),
			"error":      err,
		}).Debug("원격 상태 조회 실패: 마지막 관측값을 유지합니다")

		return obs.State, ok, err
	}

	c.Put(key, state, c.now())

	applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
		"task_key": key.String(),
		"state":    state.String(),
	}).Trace("원격 상태 갱신")

	return state, true, nil
}

// abandon 조회 전에 ctx가 끝났을 때 마지막 관측값과 Timeout 에러를 반환합니다.
func (c *Cache) abandon(key contract.TaskKey, err error) (contract.RemoteState, bool, error) {
	obs, ok := c.Lookup(key)
	return obs.State, ok, apperrors.Wrap(err, apperrors.Timeout, "원격 상태를 조회하기 전에 컨텍스트가 종료되었습니다")
}

func (c *Cache) recentFailure(key contract.TaskKey) (record, bool) {
	c.mu.RLock()
	r, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || r.failure == nil {
		return record{}, false
	}
	attempt := Observation{ObservedAt: r.failedAt}
	return r, attempt.FreshAt(c.now(), c.freshness)
}

// markFailed 관측값은 그대로 두고 실패한 조회 시각만 기록합니다.
func (c *Cache) markFailed(key contract.TaskKey, err error, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.entries[key]
	r.failedAt = at
	r.failure = err
	c.entries[key] = r
}
