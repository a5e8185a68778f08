package gateway

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

const defaultReconcileInterval = 10 * time.Second

// ResolveFunc применяет подтверждённый шлюзом итог к локальному платежу.
type ResolveFunc func(txID string, status domain.GatewayStatus, reason string) error

// Reconciler периодически опрашивает шлюз по транзакциям, чей локальный
// платёж завис в PENDING, и доводит их до финального статуса.
type Reconciler struct {
	gateway      domain.PaymentGateway
	resolve      ResolveFunc
	pollInterval time.Duration
	logger       *log.Entry

	mu      sync.Mutex
	pending map[string]struct{}
}

// ReconcilerOption настраивает Reconciler.
type ReconcilerOption func(*Reconciler)

// WithReconcileInterval задаёт частоту опроса шлюза.
func WithReconcileInterval(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// NewReconciler создаёт reconciliation worker.
func NewReconciler(gw domain.PaymentGateway, resolve ResolveFunc, logger *log.Entry, opts ...ReconcilerOption) *Reconciler {
	if logger == nil {
		logger = log.WithField("component", "gateway-reconciler")
	}
	r := &Reconciler{
		gateway:      gw,
		resolve:      resolve,
		pollInterval: defaultReconcileInterval,
		logger:       logger,
		pending:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Watch ставит транзакцию под наблюдение до финального статуса.
func (r *Reconciler) Watch(txID string) {
	if txID == "" {
		return
	}
	r.mu.Lock()
	r.pending[txID] = struct{}{}
	r.mu.Unlock()
}

// Run запускает периодический опрос до отмены ctx.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce опрашивает шлюз по каждой наблюдаемой транзакции. Финальный
// статус передаётся resolve-функции и снимает транзакцию с наблюдения;
// PENDING/UNKNOWN и ошибки опроса оставляют её до следующего тика.
func (r *Reconciler) ProcessOnce(ctx context.Context) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.pending))
	for id := range r.pending {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, txID := range ids {
		if ctx.Err() != nil {
			return
		}

		res, err := r.gateway.QueryStatus(txID)
		if err != nil {
			r.logger.WithError(err).WithField("tx_id", txID).Warn("reconciliation query failed")
			continue
		}

		switch res.Status {
		case domain.GatewayStatusSuccess, domain.GatewayStatusFailed:
			if err := r.resolve(txID, res.Status, res.FailureReason); err != nil {
				r.logger.WithError(err).WithFields(log.Fields{
					"tx_id":  txID,
					"status": res.Status,
				}).Error("failed to apply reconciled gateway status")
				continue
			}
			r.mu.Lock()
			delete(r.pending, txID)
			r.mu.Unlock()
			r.logger.WithFields(log.Fields{
				"tx_id":  txID,
				"status": res.Status,
			}).Info("pending payment reconciled")
		default:
			// Ещё не финальный статус, ждём следующего тика.
		}
	}
}
