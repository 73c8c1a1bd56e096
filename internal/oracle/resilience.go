package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ResilienceConfig — транспортная политика надежности вокруг оракула.
// Сам шлюз ретраев не делает (это контракт ядра); декоратор — явное
// решение вызывающей стороны, включается из конфига.
type ResilienceConfig struct {
	Attempts    int           // попыток на один Assess (включая первую)
	CallTimeout time.Duration // таймаут одной попытки
	RateLimit   float64       // запросов в секунду
	RateBurst   int
	CBInterval  time.Duration // окно подсчета ошибок CB
	CBTimeout   time.Duration // пауза до полуоткрытия CB
}

type ResilientAssessor struct {
	next    Assessor
	cb      *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	cfg     ResilienceConfig
}

func NewResilientAssessor(next Assessor, cfg ResilienceConfig) *ResilientAssessor {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 50
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 10
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "risk-oracle",
		Interval: cfg.CBInterval,
		Timeout:  cfg.CBTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Пять отказов подряд — открываемся и отдаем отказ сразу
			return counts.ConsecutiveFailures > 5
		},
	})

	return &ResilientAssessor{
		next:    next,
		cb:      cb,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		cfg:     cfg,
	}
}

func (r *ResilientAssessor) Assess(ctx context.Context, toolName, dataType, purpose string) (*Verdict, error) {
	// 1. Rate Limiter
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("oracle rate limit: %w", err)
	}

	var verdict *Verdict

	// 2. Circuit Breaker + Retry (экспоненциальный бэкофф по умолчанию)
	_, err := r.cb.Execute(func() (interface{}, error) {
		rt := retry.New(
			retry.Context(ctx),
			retry.Attempts(uint(r.cfg.Attempts)),
		)

		retryErr := rt.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, r.cfg.CallTimeout)
			defer cancel()

			var callErr error
			verdict, callErr = r.next.Assess(tCtx, toolName, dataType, purpose)
			return callErr
		})

		return verdict, retryErr
	})
	if err != nil {
		return nil, err
	}

	return verdict, nil
}
