// Package ratelimit ограничивает частоту запросов к API бирж.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Значения по умолчанию, если лимит не задан конфигурацией
const (
	DefaultRate  = 10.0
	DefaultBurst = 20
)

// Limits - лимит одной биржи: rate запросов в секунду, burst - допустимый всплеск
type Limits struct {
	Rate  float64
	Burst int
}

func (l Limits) normalized() Limits {
	if l.Rate <= 0 {
		l.Rate = DefaultRate
	}
	if l.Burst <= 0 {
		l.Burst = int(l.Rate * 2)
	}
	if l.Burst < 1 {
		l.Burst = 1
	}
	return l
}

// Registry хранит по одному token bucket (golang.org/x/time/rate) на биржу.
//
// Лимитеры создаются лениво при первом обращении. Все методы потокобезопасны.
//
// Использование:
//
//	reg := NewRegistry(Limits{Rate: 10, Burst: 20})
//	reg.Set("okx", Limits{Rate: 20, Burst: 40})
//	if err := reg.Wait(ctx, "okx"); err != nil {
//	    return err // контекст отменен раньше, чем освободился токен
//	}
type Registry struct {
	defaults Limits

	mu        sync.RWMutex
	overrides map[string]Limits
	limiters  map[string]*rate.Limiter
}

// NewRegistry создает реестр с лимитом по умолчанию для всех бирж
func NewRegistry(defaults Limits) *Registry {
	return &Registry{
		defaults:  defaults.normalized(),
		overrides: make(map[string]Limits),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Set задает отдельный лимит для биржи. Уже созданный лимитер перенастраивается на месте.
func (r *Registry) Set(exchange string, limits Limits) {
	limits = limits.normalized()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.overrides[exchange] = limits
	if l, ok := r.limiters[exchange]; ok {
		l.SetLimit(rate.Limit(limits.Rate))
		l.SetBurst(limits.Burst)
	}
}

// Get возвращает лимитер биржи, создавая его при необходимости
func (r *Registry) Get(exchange string) *rate.Limiter {
	r.mu.RLock()
	l, ok := r.limiters[exchange]
	r.mu.RUnlock()
	if ok {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[exchange]; ok {
		return l
	}

	limits, ok := r.overrides[exchange]
	if !ok {
		limits = r.defaults
	}
	l = rate.NewLimiter(rate.Limit(limits.Rate), limits.Burst)
	r.limiters[exchange] = l
	return l
}

// Wait блокирует до получения токена биржи или отмены контекста
func (r *Registry) Wait(ctx context.Context, exchange string) error {
	return r.Get(exchange).Wait(ctx)
}

// Allow - неблокирующая проверка
func (r *Registry) Allow(exchange string) bool {
	return r.Get(exchange).Allow()
}

// Limits возвращает действующий лимит биржи
func (r *Registry) Limits(exchange string) Limits {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limits, ok := r.overrides[exchange]; ok {
		return limits
	}
	return r.defaults
}
