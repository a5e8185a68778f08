// Package gateway содержит устойчивый клиент внешнего платёжного шлюза:
// таймауты, circuit breaker и деградация Submit в PENDING вместо ошибок.
package gateway

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

const (
	defaultSubmitTimeout    = 4 * time.Second // 1s на соединение + 3s на чтение ответа
	defaultQueryAttempts    = 3
	defaultQueryBackoff     = 200 * time.Millisecond
	defaultBreakerWindow    = 10
	defaultBreakerThreshold = 0.5
	defaultBreakerCooldown  = 30 * time.Second
)

// ResilientClient оборачивает сырой шлюз политиками устойчивости. Submit
// никогда не ретраится: шлюз не идемпотентен, повтор может списать деньги
// дважды. QueryStatus read-only и ретраится с backoff.
type ResilientClient struct {
	raw domain.PaymentGateway

	submitTimeout time.Duration
	queryAttempts int
	queryBackoff  time.Duration
	breaker       *slidingBreaker
	logger        *log.Entry

	sleep func(time.Duration)
}

// Option настраивает ResilientClient.
type Option func(*options)

type options struct {
	submitTimeout    time.Duration
	queryAttempts    int
	queryBackoff     time.Duration
	breakerWindow    int
	breakerThreshold float64
	breakerCooldown  time.Duration
}

// WithSubmitTimeout задаёт общий дедлайн вызова Submit.
func WithSubmitTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.submitTimeout = d
		}
	}
}

// WithQueryRetry задаёт число попыток и начальный backoff для QueryStatus.
func WithQueryRetry(attempts int, backoff time.Duration) Option {
	return func(o *options) {
		if attempts > 0 {
			o.queryAttempts = attempts
		}
		if backoff > 0 {
			o.queryBackoff = backoff
		}
	}
}

// WithBreakerWindow задаёт размер скользящего окна breaker.
func WithBreakerWindow(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.breakerWindow = size
		}
	}
}

// WithBreakerThreshold задаёт долю отказов, размыкающую цепь.
func WithBreakerThreshold(ratio float64) Option {
	return func(o *options) {
		if ratio > 0 && ratio <= 1 {
			o.breakerThreshold = ratio
		}
	}
}

// WithBreakerCooldown задаёт паузу до half-open пробы.
func WithBreakerCooldown(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.breakerCooldown = d
		}
	}
}

// NewResilientClient создаёт клиент поверх сырого шлюза.
func NewResilientClient(raw domain.PaymentGateway, logger *log.Entry, opts ...Option) *ResilientClient {
	if logger == nil {
		logger = log.New().WithField("component", "gateway")
	}

	o := options{
		submitTimeout:    defaultSubmitTimeout,
		queryAttempts:    defaultQueryAttempts,
		queryBackoff:     defaultQueryBackoff,
		breakerWindow:    defaultBreakerWindow,
		breakerThreshold: defaultBreakerThreshold,
		breakerCooldown:  defaultBreakerCooldown,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &ResilientClient{
		raw:           raw,
		submitTimeout: o.submitTimeout,
		queryAttempts: o.queryAttempts,
		queryBackoff:  o.queryBackoff,
		breaker:       newSlidingBreaker(o.breakerWindow, o.breakerThreshold, o.breakerCooldown, logger),
		logger:        logger,
		sleep:         time.Sleep,
	}
}

// Submit отправляет списание. Любая деградация — таймаут, transport-ошибка,
// разомкнутая цепь — превращается в PENDING: итог выяснит callback или
// reconciliation, а решение об отказе заказа здесь принимать нельзя.
func (c *ResilientClient) Submit(req domain.GatewayRequest) (domain.GatewayResult, error) {
	if !c.breaker.Allow() {
		c.logger.WithField("order_id", req.OrderID).Warn("gateway circuit open, degrading submit to pending")
		return domain.GatewayResult{Status: domain.GatewayStatusPending}, nil
	}

	res, err := c.callWithTimeout(req)
	if err != nil {
		c.breaker.Record(true)
		c.logger.WithError(err).WithField("order_id", req.OrderID).Warn("gateway submit degraded to pending")
		return domain.GatewayResult{Status: domain.GatewayStatusPending}, nil
	}

	c.breaker.Record(false)
	return res, nil
}

// callWithTimeout исполняет сырой Submit с дедлайном. Сырой вызов ctx не
// принимает, поэтому при таймауте горутина доработает в фоне; её результат
// отбрасывается.
func (c *ResilientClient) callWithTimeout(req domain.GatewayRequest) (domain.GatewayResult, error) {
	type outcome struct {
		res domain.GatewayResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := c.raw.Submit(req)
		done <- outcome{res: res, err: err}
	}()

	timer := time.NewTimer(c.submitTimeout)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.res, out.err
	case <-timer.C:
		return domain.GatewayResult{}, fmt.Errorf("gateway submit timeout after %s: %w", c.submitTimeout, domain.ErrGatewayUnavailable)
	}
}

// QueryStatus опрашивает статус транзакции с ограниченным числом попыток.
func (c *ResilientClient) QueryStatus(txID string) (domain.GatewayResult, error) {
	var lastErr error
	delay := c.queryBackoff

	for attempt := 1; attempt <= c.queryAttempts; attempt++ {
		res, err := c.raw.QueryStatus(txID)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if attempt < c.queryAttempts {
			c.logger.WithError(err).WithFields(log.Fields{
				"tx_id":   txID,
				"attempt": attempt,
			}).Warn("gateway status query failed, retrying")
			c.sleep(delay)
			delay *= 2
		}
	}
	return domain.GatewayResult{}, fmt.Errorf("query gateway status after %d attempts: %w", c.queryAttempts, lastErr)
}

var _ domain.PaymentGateway = (*ResilientClient)(nil)
