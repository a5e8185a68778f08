package gateway

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// slidingBreaker — circuit breaker со скользящим окном последних вызовов.
// Размыкается, когда доля отказов в заполненном окне достигает порога;
// после cool-down пропускает один пробный вызов (half-open).
type slidingBreaker struct {
	mu sync.Mutex

	window    []bool // true = отказ
	next      int
	filled    int
	threshold float64
	cooldown  time.Duration

	state    breakerState
	openedAt time.Time

	now    func() time.Time
	logger *log.Entry
}

func newSlidingBreaker(windowSize int, threshold float64, cooldown time.Duration, logger *log.Entry) *slidingBreaker {
	if windowSize <= 0 {
		windowSize = 10
	}
	if logger == nil {
		logger = log.New().WithField("component", "gateway-breaker")
	}
	return &slidingBreaker{
		window:    make([]bool, windowSize),
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
		logger:    logger,
	}
}

// Allow сообщает, можно ли выполнить вызов. В open-состоянии после cool-down
// переводит breaker в half-open и пропускает один пробный вызов.
func (b *slidingBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed, breakerHalfOpen:
		return true
	case breakerOpen:
		if b.now().Sub(b.openedAt) >= b.cooldown {
			b.state = breakerHalfOpen
			b.logger.Info("circuit breaker half-open")
			return true
		}
		return false
	}
	return false
}

// Record фиксирует итог вызова и пересчитывает состояние.
func (b *slidingBreaker) Record(failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerHalfOpen {
		if failed {
			b.trip()
		} else {
			b.reset()
			b.logger.Info("circuit breaker closed after probe")
		}
		return
	}

	b.window[b.next] = failed
	b.next = (b.next + 1) % len(b.window)
	if b.filled < len(b.window) {
		b.filled++
	}

	// Решение принимаем только по заполненному окну: короткая серия отказов
	// на старте не должна размыкать цепь.
	if b.filled < len(b.window) {
		return
	}

	failures := 0
	for _, f := range b.window {
		if f {
			failures++
		}
	}
	if float64(failures)/float64(len(b.window)) >= b.threshold {
		b.trip()
	}
}

func (b *slidingBreaker) trip() {
	b.state = breakerOpen
	b.openedAt = b.now()
	for i := range b.window {
		b.window[i] = false
	}
	b.filled = 0
	b.next = 0
	b.logger.Warn("circuit breaker opened")
}

func (b *slidingBreaker) reset() {
	b.state = breakerClosed
	for i := range b.window {
		b.window[i] = false
	}
	b.filled = 0
	b.next = 0
}
