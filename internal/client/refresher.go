package client

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"smartcity-air/internal/metrics"
)

// FetchFunc получение значения из API
type FetchFunc[T any] func(ctx context.Context) (T, error)

// State значение и признак демо-режима
type State[T any] struct {
	Value     T
	Demo      bool
	UpdatedAt time.Time
	Err       error
}

// Refresher периодически обновляет значение из API. Каждый тик запускает
// независимый запрос; успех заменяет значение и снимает демо-режим,
// ошибка оставляет прежнее значение и включает демо-режим. Ответы,
// пришедшие после Stop, отбрасываются.
type Refresher[T any] struct {
	fetch    FetchFunc[T]
	interval time.Duration
	onUpdate func(State[T])

	mu    sync.RWMutex
	state State[T]

	alive  atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	wg     sync.WaitGroup
	now    func() time.Time
}

// NewRefresher начальное значение mock, режим демо
func NewRefresher[T any](interval time.Duration, fetch FetchFunc[T], mock T) *Refresher[T] {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Refresher[T]{
		fetch:    fetch,
		interval: interval,
		state:    State[T]{Value: mock, Demo: true},
		ctx:      ctx,
		cancel:   cancel,
		now:      time.Now,
	}
	r.alive.Store(true)
	return r
}

// OnUpdate вызывается после каждого принятого ответа или ошибки
func (r *Refresher[T]) OnUpdate(fn func(State[T])) *Refresher[T] {
	r.onUpdate = fn
	return r
}

// Start первый запрос сразу, затем по тикеру
func (r *Refresher[T]) Start() {
	if !r.alive.Load() {
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.spawn()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-ticker.C:
				r.spawn()
			}
		}
	}()
}

func (r *Refresher[T]) spawn() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.Refresh(r.ctx)
	}()
}

// Refresh один запрос. Результат применяется, только пока обновление живо.
func (r *Refresher[T]) Refresh(ctx context.Context) {
	v, err := r.fetch(ctx)

	r.mu.Lock()
	if !r.alive.Load() {
		r.mu.Unlock()
		return
	}
	if err != nil {
		r.state.Demo = true
		r.state.Err = err
		metrics.UpstreamFetches.WithLabelValues("error").Inc()
		slog.Debug("refresh failed, keeping last value", "error", err)
	} else {
		r.state = State[T]{Value: v, UpdatedAt: r.now()}
		metrics.UpstreamFetches.WithLabelValues("success").Inc()
	}
	st := r.state
	r.mu.Unlock()

	if st.Demo {
		metrics.DemoMode.Set(1)
	} else {
		metrics.DemoMode.Set(0)
	}
	if r.onUpdate != nil {
		r.onUpdate(st)
	}
}

// State текущее значение
func (r *Refresher[T]) State() State[T] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Alive обновление не остановлено
func (r *Refresher[T]) Alive() bool {
	return r.alive.Load()
}

// Stop останавливает тикер и ждет завершения запросов
func (r *Refresher[T]) Stop() {
	r.once.Do(func() {
		r.mu.Lock()
		r.alive.Store(false)
		r.mu.Unlock()
		r.cancel()
		r.wg.Wait()
	})
}
