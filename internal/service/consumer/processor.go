// Package consumer содержит идемпотентные обработчики событий из Kafka:
// счётчики просмотров/лайков/заказов, дневной рейтинг и инвалидацию кэша.
package consumer

import (
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/commerce/internal/domain"
)

// processor оборачивает эффект обработчика в dedup-маркер. Эффект применяется
// до вставки маркера: повторная вставка того же id допустима, потерянный
// эффект — нет. Повторная доставка между эффектом и маркером безопасна,
// потому что сами эффекты идемпотентны или коммутативны.
type processor struct {
	consumed domain.ConsumedEventRepository
	logger   *log.Entry
}

func newProcessor(consumed domain.ConsumedEventRepository, logger *log.Entry) *processor {
	if logger == nil {
		logger = log.WithField("component", "event-consumer")
	}
	return &processor{
		consumed: consumed,
		logger:   logger,
	}
}

// process применяет apply ровно один раз на eventID. Ошибка эффекта оставляет
// сообщение без ack: брокер доставит его повторно.
func (p *processor) process(eventID string, apply func() error) error {
	seen, err := p.consumed.IsConsumed(eventID)
	if err != nil {
		return err
	}
	if seen {
		p.logger.WithField("event_id", eventID).Debug("duplicate event skipped")
		return nil
	}

	if err := apply(); err != nil {
		return err
	}

	if err := p.consumed.MarkConsumed(eventID, time.Now().UTC()); err != nil {
		if errors.Is(err, domain.ErrEventAlreadyConsumed) {
			return nil
		}
		return err
	}
	return nil
}
